package grabber

//go:generate $MOCKGEN -source=tag_processor.go -destination=mocks/tag_processor_mock.go

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	"github.com/go-flac/go-flac"
	"github.com/oshokin/id3v2/v2"

	"github.com/avorobev/tube-grabber/internal/constants"
	"github.com/avorobev/tube-grabber/internal/logger"
)

// TagProcessor defines the interface for writing metadata tags to audio files.
type TagProcessor interface {
	WriteTags(ctx context.Context, req *WriteTagsRequest) error
}

// WriteTagsRequest contains parameters for writing metadata to audio files.
type WriteTagsRequest struct {
	// TrackPath is the file path of the audio track.
	// The extension determines the tag container, so the request works on
	// temporary files as long as they carry the final extension.
	TrackPath string
	// Format specifies the target audio format of the track.
	Format AudioFormat
	// TrackTags contains metadata key-value pairs to write.
	TrackTags map[string]string
	// Cover is the prepared cover art to embed, nil when embedding is disabled.
	Cover *CoverArt
}

// TagProcessorImpl provides the default implementation of TagProcessor.
type TagProcessorImpl struct{}

// extractFLACCommentResult contains the result of extracting FLAC comment metadata.
type extractFLACCommentResult struct {
	// Comment is the FLAC Vorbis comment metadata block.
	Comment *flacvorbis.MetaDataBlockVorbisComment
	// Index is the index of the comment block in the FLAC file metadata (-1 if not found).
	Index int
}

// Static error definitions for better error handling.
var (
	// ErrEmptyTrackPath indicates that the track file path is empty.
	ErrEmptyTrackPath = errors.New("track path cannot be empty")
)

// NewTagProcessor creates a new TagProcessor instance.
func NewTagProcessor() TagProcessor {
	return new(TagProcessorImpl)
}

// WriteTags writes metadata to audio files based on the provided request.
func (tp *TagProcessorImpl) WriteTags(ctx context.Context, req *WriteTagsRequest) error {
	if req.TrackPath == "" {
		return ErrEmptyTrackPath
	}

	// The extraction tool decides the real container, so the file extension
	// wins over the requested format.
	format, err := resolveTagFormat(req.TrackPath)
	if err != nil {
		format = req.Format
	}

	// Write tags based on the target format (FLAC or MP3).
	if format == AudioFormatFLAC {
		return tp.writeFLACTags(ctx, req)
	}

	return tp.writeMP3Tags(req)
}

func (tp *TagProcessorImpl) writeFLACTags(ctx context.Context, req *WriteTagsRequest) error {
	// Parse the FLAC file.
	f, err := flac.ParseFile(filepath.Clean(req.TrackPath))
	if err != nil {
		return err
	}

	// Extract existing FLAC comments (metadata) from the file.
	commentResult, err := tp.extractFLACComment(req.TrackPath)
	if err != nil {
		return err
	}

	tag := commentResult.Comment

	// If no existing comments are found, create a new metadata block.
	if tag == nil {
		tag = flacvorbis.New()
	}

	// Add tags to the FLAC metadata block.
	err = tp.addFLACTags(tag, req)
	if err != nil {
		return err
	}

	// Marshal the updated metadata and update the FLAC file's metadata blocks.
	tagMeta := tag.Marshal()
	if commentResult.Index >= 0 {
		f.Meta[commentResult.Index] = &tagMeta
	} else {
		f.Meta = append(f.Meta, &tagMeta)
	}

	// Embed the cover art into the FLAC file if provided.
	tp.embedFLACCover(ctx, f, req.Cover)

	// Save the updated FLAC file.
	return f.Save(req.TrackPath)
}

func (tp *TagProcessorImpl) extractFLACComment(filename string) (*extractFLACCommentResult, error) {
	f, err := flac.ParseFile(filepath.Clean(filename))
	if err != nil {
		return nil, err
	}

	// Iterate through the metadata blocks to find the Vorbis comment block.
	for idx, meta := range f.Meta {
		if meta.Type != flac.VorbisComment {
			continue
		}

		// Parse the Vorbis comment block.
		var comment *flacvorbis.MetaDataBlockVorbisComment

		comment, err = flacvorbis.ParseFromMetaDataBlock(*meta)
		if err == nil {
			return &extractFLACCommentResult{
				Comment: comment,
				Index:   idx,
			}, nil
		}
	}

	// Return nil comment if no Vorbis comment block is found.
	return &extractFLACCommentResult{
		Comment: nil,
		Index:   -1,
	}, nil
}

func (tp *TagProcessorImpl) addFLACTags(tag *flacvorbis.MetaDataBlockVorbisComment, req *WriteTagsRequest) error {
	// Map of FLAC tag keys to their corresponding values in req.TrackTags.
	flacTags := map[string]string{
		"ALBUM":        req.TrackTags["playlistTitle"],
		"ARTIST":       req.TrackTags["trackArtist"],
		"DATE":         req.TrackTags["uploadDate"],
		"TITLE":        req.TrackTags["trackTitle"],
		"TOTALTRACKS":  req.TrackTags["trackCount"],
		"TRACKNUMBER":  req.TrackTags["trackNumber"],
		"VIDEO_ID":     req.TrackTags["videoID"],
		"WWWAUDIOFILE": req.TrackTags["sourceURL"],
		"YEAR":         req.TrackTags["uploadYear"],
	}

	// Add each tag to the Vorbis comment block.
	for k, v := range flacTags {
		if v == "" {
			continue
		}

		err := tag.Add(k, v)
		if err != nil {
			return err
		}
	}

	return nil
}

func (tp *TagProcessorImpl) embedFLACCover(ctx context.Context, f *flac.File, cover *CoverArt) {
	if cover == nil {
		return
	}

	// Create a new FLAC picture block from the image data.
	picture, err := flacpicture.NewFromImageData(flacpicture.PictureTypeFrontCover, "", cover.Data, cover.MimeType)
	if err != nil {
		logger.Errorf(ctx, "Failed to embed image to FLAC: %v", err)

		return
	}

	// Add the picture block to the FLAC file's metadata.
	pictureMeta := picture.Marshal()
	f.Meta = append(f.Meta, &pictureMeta)
}

func (tp *TagProcessorImpl) writeMP3Tags(req *WriteTagsRequest) error {
	// Open the MP3 file for writing metadata.
	//nolint:exhaustruct // ParseFrames intentionally omitted when Parse=false (parsing disabled).
	tag, err := id3v2.Open(req.TrackPath, id3v2.Options{Parse: false})
	if err != nil {
		return err
	}

	defer tag.Close()

	// Add metadata tags to the MP3 file.
	tp.addMP3Tags(tag, req)

	// Embed the cover art into the MP3 file if provided.
	if req.Cover != nil {
		//nolint:exhaustruct // Description field intentionally empty for cover images.
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    req.Cover.MimeType,
			PictureType: id3v2.PTFrontCover,
			Picture:     req.Cover.Data,
		})
	}

	// Save the updated MP3 file.
	return tag.Save()
}

func (tp *TagProcessorImpl) addMP3Tags(tag *id3v2.Tag, req *WriteTagsRequest) {
	// Set default encoding for the tags.
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)

	// Add basic metadata tags.
	tag.SetAlbum(req.TrackTags["playlistTitle"])
	tag.SetArtist(req.TrackTags["trackArtist"])
	tag.SetTitle(req.TrackTags["trackTitle"])
	tag.SetYear(req.TrackTags["uploadYear"])

	// Add track number and total tracks (e.g., "1/10").
	var (
		trackNumber = req.TrackTags["trackNumber"]
		trackCount  = req.TrackTags["trackCount"]
	)

	if trackNumber != "" && trackCount != "" {
		tag.AddTextFrame(
			tag.CommonID("Track number/Position in set"),
			tag.DefaultEncoding(),
			trackNumber+"/"+trackCount,
		)
	}

	// Keep a pointer back to the source video.
	if sourceURL := req.TrackTags["sourceURL"]; sourceURL != "" {
		tag.AddTextFrame(tag.CommonID("Official audio file webpage"), tag.DefaultEncoding(), sourceURL)
	}
}

// resolveTagFormat infers the AudioFormat from a file path extension.
// Download output may carry a temporary name; the extension is authoritative.
func resolveTagFormat(path string) (AudioFormat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case constants.ExtensionMP3:
		return AudioFormatMP3High, nil
	case constants.ExtensionFLAC:
		return AudioFormatFLAC, nil
	default:
		return AudioFormatUnknown, ErrUnsupportedAudioFile
	}
}
