package frontend

import (
	"errors"
	"fmt"
	"net/http"
)

// MaxImageBytes is the client-side limit for a single captured image.
// The server does not re-enforce it.
const MaxImageBytes = 5 * 1024 * 1024

// Accepted MIME types. image/jpg is a non-standard alias some platforms
// emit for JPEG files.
var acceptedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/jpg":  true,
}

var (
	ErrImageTypeNotAllowed = errors.New("invalid file type, only JPEG and PNG are allowed")
	ErrImageTooLarge       = errors.New("file size too large, maximum 5MB per image")
)

// AcceptedImageTypes returns the MIME types a picker may offer.
func AcceptedImageTypes() []string {
	return []string{"image/jpeg", "image/png", "image/jpg"}
}

// ImageArtifact is a single captured still image. It is produced by the
// capture controller, held by one capture slot, and read unmodified by the
// submission pipeline.
type ImageArtifact struct {
	Data     []byte
	MIME     string
	Filename string
}

// NewImageArtifact validates type and size and wraps the bytes. An empty
// MIME type is sniffed from the data.
func NewImageArtifact(data []byte, mimeType, filename string) (*ImageArtifact, error) {
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	artifact := &ImageArtifact{Data: data, MIME: mimeType, Filename: filename}
	if err := artifact.Validate(); err != nil {
		return nil, err
	}
	return artifact, nil
}

func (a *ImageArtifact) Validate() error {
	if !acceptedImageTypes[a.MIME] {
		return fmt.Errorf("%w (got %s)", ErrImageTypeNotAllowed, a.MIME)
	}
	if len(a.Data) > MaxImageBytes {
		return fmt.Errorf("%w (got %d bytes)", ErrImageTooLarge, len(a.Data))
	}
	return nil
}

func (a *ImageArtifact) Size() int {
	return len(a.Data)
}
