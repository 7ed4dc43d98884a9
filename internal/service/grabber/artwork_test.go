package grabber

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeTestImage encodes a solid-color image of the given size.
func makeTestImage(t *testing.T, width, height int, encode func(*bytes.Buffer, image.Image) error) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}

	var buffer bytes.Buffer
	require.NoError(t, encode(&buffer, img))

	return buffer.Bytes()
}

func encodeJPEG(buffer *bytes.Buffer, img image.Image) error {
	return jpeg.Encode(buffer, img, &jpeg.Options{Quality: 90})
}

func encodePNG(buffer *bytes.Buffer, img image.Image) error {
	return png.Encode(buffer, img)
}

// TestNewArtworkProcessor tests the NewArtworkProcessor function.
func TestNewArtworkProcessor(t *testing.T) {
	t.Parallel()

	processor := NewArtworkProcessor(1200)
	assert.NotNil(t, processor)
	assert.Implements(t, (*ArtworkProcessor)(nil), processor)
}

// TestArtworkProcessorImpl_PrepareCover_JPEGPassthrough tests that small JPEGs are kept as-is.
func TestArtworkProcessorImpl_PrepareCover_JPEGPassthrough(t *testing.T) {
	t.Parallel()

	data := makeTestImage(t, 100, 100, encodeJPEG)
	processor := NewArtworkProcessor(1200)

	cover, err := processor.PrepareCover(data)
	require.NoError(t, err)
	assert.Equal(t, mimeTypeJPEG, cover.MimeType)
	assert.Equal(t, data, cover.Data)
}

// TestArtworkProcessorImpl_PrepareCover_PNGPassthrough tests that small PNGs stay PNG.
func TestArtworkProcessorImpl_PrepareCover_PNGPassthrough(t *testing.T) {
	t.Parallel()

	data := makeTestImage(t, 80, 60, encodePNG)
	processor := NewArtworkProcessor(1200)

	cover, err := processor.PrepareCover(data)
	require.NoError(t, err)
	assert.Equal(t, mimeTypePNG, cover.MimeType)
	assert.Equal(t, data, cover.Data)
}

// TestArtworkProcessorImpl_PrepareCover_Downscale tests that oversized images are downscaled.
func TestArtworkProcessorImpl_PrepareCover_Downscale(t *testing.T) {
	t.Parallel()

	data := makeTestImage(t, 400, 200, encodeJPEG)
	processor := NewArtworkProcessor(100)

	cover, err := processor.PrepareCover(data)
	require.NoError(t, err)
	assert.Equal(t, mimeTypeJPEG, cover.MimeType)

	resized, _, err := image.Decode(bytes.NewReader(cover.Data))
	require.NoError(t, err)
	assert.Equal(t, 100, resized.Bounds().Dx())
	assert.Equal(t, 50, resized.Bounds().Dy())
}

// TestArtworkProcessorImpl_PrepareCover_PortraitDownscale tests downscaling of tall images.
func TestArtworkProcessorImpl_PrepareCover_PortraitDownscale(t *testing.T) {
	t.Parallel()

	data := makeTestImage(t, 200, 400, encodePNG)
	processor := NewArtworkProcessor(100)

	cover, err := processor.PrepareCover(data)
	require.NoError(t, err)
	assert.Equal(t, mimeTypePNG, cover.MimeType)

	resized, _, err := image.Decode(bytes.NewReader(cover.Data))
	require.NoError(t, err)
	assert.Equal(t, 50, resized.Bounds().Dx())
	assert.Equal(t, 100, resized.Bounds().Dy())
}

// TestArtworkProcessorImpl_PrepareCover_InvalidData tests handling of undecodable data.
func TestArtworkProcessorImpl_PrepareCover_InvalidData(t *testing.T) {
	t.Parallel()

	processor := NewArtworkProcessor(1200)

	_, err := processor.PrepareCover([]byte("definitely not an image"))
	require.Error(t, err)
}

// TestArtworkProcessorImpl_PrepareCoverFromFile tests reading covers from disk.
func TestArtworkProcessorImpl_PrepareCoverFromFile(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	coverPath := filepath.Join(tempDir, "cover.jpg")

	data := makeTestImage(t, 50, 50, encodeJPEG)
	require.NoError(t, os.WriteFile(coverPath, data, 0o600))

	processor := NewArtworkProcessor(1200)

	cover, err := processor.PrepareCoverFromFile(coverPath)
	require.NoError(t, err)
	assert.Equal(t, mimeTypeJPEG, cover.MimeType)
}

// TestArtworkProcessorImpl_PrepareCoverFromFile_Missing tests the missing file error path.
func TestArtworkProcessorImpl_PrepareCoverFromFile_Missing(t *testing.T) {
	t.Parallel()

	processor := NewArtworkProcessor(1200)

	_, err := processor.PrepareCoverFromFile("/nonexistent/cover.jpg")
	require.Error(t, err)
}
