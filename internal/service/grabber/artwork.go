package grabber

//go:generate $MOCKGEN -source=artwork.go -destination=mocks/artwork_mock.go

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"

	"github.com/nfnt/resize"

	// Registers the WebP decoder; thumbnails usually arrive as WebP.
	_ "golang.org/x/image/webp"
)

// MIME types for embedded cover art.
const (
	mimeTypeJPEG = "image/jpeg"
	mimeTypePNG  = "image/png"
)

// jpegCoverQuality is the encoder quality used when covers are re-encoded.
const jpegCoverQuality = 95

// CoverArt holds prepared cover art ready for embedding into an audio file.
type CoverArt struct {
	// Data is the encoded image bytes.
	Data []byte
	// MimeType is the MIME type of the encoded image.
	MimeType string
}

// ArtworkProcessor defines the interface for converting raw thumbnails into embeddable cover art.
type ArtworkProcessor interface {
	// PrepareCover decodes raw image bytes, downscales them to the configured
	// maximum dimension and re-encodes formats tag containers cannot hold.
	PrepareCover(data []byte) (*CoverArt, error)
	// PrepareCoverFromFile reads an image file from disk and prepares it for embedding.
	PrepareCoverFromFile(path string) (*CoverArt, error)
}

// ArtworkProcessorImpl implements the ArtworkProcessor interface.
type ArtworkProcessorImpl struct {
	// maxCoverSize is the maximum dimension in pixels for embedded covers.
	maxCoverSize int
}

// NewArtworkProcessor creates and returns a new instance of ArtworkProcessorImpl.
func NewArtworkProcessor(maxCoverSize int) ArtworkProcessor {
	return &ArtworkProcessorImpl{maxCoverSize: maxCoverSize}
}

// PrepareCover decodes raw image bytes, downscales them to the configured
// maximum dimension and re-encodes formats tag containers cannot hold.
func (p *ArtworkProcessorImpl) PrepareCover(data []byte) (*CoverArt, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode cover image: %w", err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	needsResize := p.maxCoverSize > 0 && (width > p.maxCoverSize || height > p.maxCoverSize)

	// JPEG and PNG within the size limit are embedded as-is.
	if !needsResize {
		switch format {
		case "jpeg":
			return &CoverArt{Data: data, MimeType: mimeTypeJPEG}, nil
		case "png":
			return &CoverArt{Data: data, MimeType: mimeTypePNG}, nil
		}
	}

	if needsResize {
		// Maintain aspect ratio, use the configured limit as max dimension.
		if width > height {
			img = resize.Resize(uint(p.maxCoverSize), 0, img, resize.Lanczos3)
		} else {
			img = resize.Resize(0, uint(p.maxCoverSize), img, resize.Lanczos3)
		}
	}

	var buffer bytes.Buffer

	// Re-encode. PNG stays PNG, everything else (including WebP) becomes JPEG.
	if format == "png" {
		if err = png.Encode(&buffer, img); err != nil {
			return nil, fmt.Errorf("failed to encode cover image: %w", err)
		}

		return &CoverArt{Data: buffer.Bytes(), MimeType: mimeTypePNG}, nil
	}

	if err = jpeg.Encode(&buffer, img, &jpeg.Options{Quality: jpegCoverQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode cover image: %w", err)
	}

	return &CoverArt{Data: buffer.Bytes(), MimeType: mimeTypeJPEG}, nil
}

// PrepareCoverFromFile reads an image file from disk and prepares it for embedding.
func (p *ArtworkProcessorImpl) PrepareCoverFromFile(path string) (*CoverArt, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cover file: %w", err)
	}

	return p.PrepareCover(data)
}
