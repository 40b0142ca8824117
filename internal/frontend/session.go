package frontend

import (
	"errors"
	"fmt"
	"strings"
)

// MaxDetailEntries bounds the optional annotated detail photos per session.
const MaxDetailEntries = 5

// Validation failures, in check order. The first violated check wins.
var (
	ErrTrackingNumberRequired = errors.New("tracking number required")
	ErrFrontCaptureRequired   = errors.New("front capture required")
	ErrBackCaptureRequired    = errors.New("back capture required")
)

// PrimarySlot names one of the two required capture slots.
type PrimarySlot int

const (
	PrimaryFront PrimarySlot = 1
	PrimaryBack  PrimarySlot = 2
)

// DetailEntry is one optional annotated photo. Image may be nil for a
// note-only entry.
type DetailEntry struct {
	Image *ImageArtifact
	Note  string
}

// FormSession is the mutable state of one intake composition. It is
// confined to a single user interaction context and needs no locking.
// Operator identity is not part of the session; it outlives submissions.
type FormSession struct {
	trackingNumber string
	image1         *ImageArtifact
	image2         *ImageArtifact
	details        []DetailEntry
}

func NewFormSession() *FormSession {
	return &FormSession{}
}

func (s *FormSession) SetTrackingNumber(trackingNumber string) {
	s.trackingNumber = trackingNumber
}

func (s *FormSession) TrackingNumber() string {
	return s.trackingNumber
}

// SetPrimaryImage fills or clears a primary slot; a new artifact replaces
// any prior one in the same slot.
func (s *FormSession) SetPrimaryImage(slot PrimarySlot, artifact *ImageArtifact) error {
	switch slot {
	case PrimaryFront:
		s.image1 = artifact
	case PrimaryBack:
		s.image2 = artifact
	default:
		return fmt.Errorf("unknown primary slot %d", slot)
	}
	return nil
}

func (s *FormSession) PrimaryImage(slot PrimarySlot) *ImageArtifact {
	switch slot {
	case PrimaryFront:
		return s.image1
	case PrimaryBack:
		return s.image2
	}
	return nil
}

// AddDetail appends an empty detail entry. At the bound it is a no-op and
// reports false.
func (s *FormSession) AddDetail() bool {
	if len(s.details) >= MaxDetailEntries {
		return false
	}
	s.details = append(s.details, DetailEntry{})
	return true
}

func (s *FormSession) DetailCount() int {
	return len(s.details)
}

func (s *FormSession) SetDetailImage(index int, artifact *ImageArtifact) error {
	if index < 0 || index >= len(s.details) {
		return fmt.Errorf("detail index %d out of range", index)
	}
	s.details[index].Image = artifact
	return nil
}

func (s *FormSession) SetDetailNote(index int, note string) error {
	if index < 0 || index >= len(s.details) {
		return fmt.Errorf("detail index %d out of range", index)
	}
	s.details[index].Note = note
	return nil
}

// Details returns a copy of the detail entries in composition order.
func (s *FormSession) Details() []DetailEntry {
	details := make([]DetailEntry, len(s.details))
	copy(details, s.details)
	return details
}

// Validate short-circuits on the first failing check: tracking number,
// then front capture, then back capture. Detail entries are optional and
// never validated.
func (s *FormSession) Validate() error {
	if strings.TrimSpace(s.trackingNumber) == "" {
		return ErrTrackingNumberRequired
	}
	if s.image1 == nil {
		return ErrFrontCaptureRequired
	}
	if s.image2 == nil {
		return ErrBackCaptureRequired
	}
	return nil
}

// Reset clears the session after a successful submission. Operator
// identity is deliberately untouched.
func (s *FormSession) Reset() {
	s.trackingNumber = ""
	s.image1 = nil
	s.image2 = nil
	s.details = nil
}
