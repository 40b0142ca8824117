package frontend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/image/draw"
)

// Snapshot parameters for the live-stream strategy. Frames larger than
// maxFrameEdge on their long edge are downscaled before encoding so a raw
// camera frame cannot blow the artifact size limit.
const (
	snapshotJPEGQuality = 80
	maxFrameEdge        = 1920
)

var (
	ErrCaptureCanceled = errors.New("capture canceled")
	ErrCameraAccess    = errors.New("unable to access camera, please check permissions")
)

// Facing is the requested camera orientation. Devices treat it as a hint;
// a device without a rear camera may still open the front one.
type Facing string

const (
	FacingRear  Facing = "environment"
	FacingFront Facing = "user"
)

// CameraDevice opens a live camera stream. An implementation is only
// registered on platforms with camera access; its absence selects the
// picker strategy.
type CameraDevice interface {
	Open(ctx context.Context, facing Facing) (CameraStream, error)
}

// CameraStream holds the camera hardware exclusively until closed. Close
// must be called on every exit path.
type CameraStream interface {
	// Frame returns the current preview frame.
	Frame() (image.Image, error)
	Close() error
}

// PickedFile is the raw result of a platform picker.
type PickedFile struct {
	Data     []byte
	MIME     string
	Filename string
}

// Picker delegates image selection to the platform's file chooser,
// restricted to the accepted MIME types.
type Picker interface {
	Pick(ctx context.Context, accept []string) (*PickedFile, error)
}

// TriggerFunc blocks until the operator fires the shutter (nil) or cancels
// (ErrCaptureCanceled). While it runs, the live stream is open for preview.
type TriggerFunc func(ctx context.Context, preview CameraStream) error

// Capability is the result of the platform probe that selects the capture
// strategy.
type Capability struct {
	// CameraSupported reports whether live camera streams are available.
	CameraSupported bool
	// RestrictedPlatform marks platforms whose camera API is known to be
	// unusable even when nominally present; these always get the picker.
	RestrictedPlatform bool
}

type captureStrategy interface {
	acquire(ctx context.Context, label string) (*ImageArtifact, error)
}

// Controller acquires one still image per invocation. The strategy is
// chosen once at construction from the capability probe; the controller
// itself keeps no capture state, slot occupancy is the caller's concern.
type Controller struct {
	strategy captureStrategy
}

func NewController(capability Capability, device CameraDevice, picker Picker, trigger TriggerFunc) *Controller {
	if capability.CameraSupported && !capability.RestrictedPlatform && device != nil {
		slog.Debug("capture controller using live-stream strategy")
		return &Controller{strategy: &streamStrategy{device: device, trigger: trigger}}
	}
	slog.Debug("capture controller using picker strategy")
	return &Controller{strategy: &pickerStrategy{picker: picker}}
}

// Acquire produces a single validated image artifact, or no artifact at all
// on error or cancellation.
func (c *Controller) Acquire(ctx context.Context, label string) (*ImageArtifact, error) {
	return c.strategy.acquire(ctx, label)
}

type streamStrategy struct {
	device  CameraDevice
	trigger TriggerFunc
}

func (s *streamStrategy) acquire(ctx context.Context, label string) (*ImageArtifact, error) {
	stream, err := s.device.Open(ctx, FacingRear)
	if err != nil {
		slog.Error("camera access error", "label", label, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrCameraAccess, err)
	}
	// Released on every exit path: capture, cancel, error.
	defer func() {
		if cerr := stream.Close(); cerr != nil {
			slog.Error("failed to close camera stream", "label", label, "error", cerr)
		}
	}()

	if s.trigger != nil {
		if err := s.trigger(ctx, stream); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, ErrCaptureCanceled
	}

	frame, err := stream.Frame()
	if err != nil {
		return nil, fmt.Errorf("failed to read camera frame: %w", err)
	}

	encoded, err := encodeSnapshot(frame)
	if err != nil {
		return nil, err
	}

	filename := fmt.Sprintf("photo_%d.jpg", time.Now().UnixMilli())
	return NewImageArtifact(encoded, "image/jpeg", filename)
}

type pickerStrategy struct {
	picker Picker
}

func (s *pickerStrategy) acquire(ctx context.Context, label string) (*ImageArtifact, error) {
	picked, err := s.picker.Pick(ctx, AcceptedImageTypes())
	if err != nil {
		return nil, err
	}
	return NewImageArtifact(picked.Data, picked.MIME, picked.Filename)
}

// encodeSnapshot turns a preview frame into a JPEG still, downscaling
// oversized frames first.
func encodeSnapshot(frame image.Image) ([]byte, error) {
	frame = downscale(frame, maxFrameEdge)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame, &jpeg.Options{Quality: snapshotJPEGQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

func downscale(img image.Image, maxEdge int) image.Image {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	longEdge := max(width, height)
	if longEdge <= maxEdge {
		return img
	}

	scale := float64(maxEdge) / float64(longEdge)
	targetWidth := int(float64(width) * scale)
	targetHeight := int(float64(height) * scale)

	target := image.NewRGBA(image.Rect(0, 0, targetWidth, targetHeight))
	draw.CatmullRom.Scale(target, target.Bounds(), img, bounds, draw.Over, nil)
	return target
}

// FilePicker is the picker used by the terminal client: the "chooser" is a
// prompt that yields a file path.
type FilePicker struct {
	// Prompt asks the operator for a path; returning ErrCaptureCanceled
	// dismisses the picker.
	Prompt func(ctx context.Context, accept []string) (string, error)
}

func (p *FilePicker) Pick(ctx context.Context, accept []string) (*PickedFile, error) {
	path, err := p.Prompt(ctx, accept)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image file: %w", err)
	}

	return &PickedFile{
		Data:     data,
		MIME:     http.DetectContentType(data),
		Filename: filepath.Base(path),
	}, nil
}
