package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dncl/intake/internal/backend/database"
)

// UploadedImage is one image part received from the intake form.
type UploadedImage struct {
	Data        []byte
	ContentType string
	Filename    string
}

// IntakeSubmission is a parsed intake request. DetailNotes may be longer
// than DetailImages; entries without an image carry a note only.
type IntakeSubmission struct {
	Name           string
	Date           string
	TrackingNumber string
	Image1         *UploadedImage
	Image2         *UploadedImage
	DetailImages   []*UploadedImage
	DetailNotes    []string
}

// BlobUploader is the object storage dependency of the core service.
// Declared here so the service does not import its own consumer; the
// minio-backed implementation lives in internal/backend/blobstore.
type BlobUploader interface {
	Put(ctx context.Context, data []byte, contentType, keyHint string) (string, error)
}

// ErrBlobStoreNotConfigured mirrors blobstore.ErrNotConfigured; the concrete
// store wraps it so the service can detect degraded mode without importing
// the implementation package.
var ErrBlobStoreNotConfigured = errors.New("blob store not configured")

type CoreService struct {
	config       *ServiceConfig
	sessionStore database.SessionStore
	blobStore    BlobUploader
}

func NewCoreService(config *ServiceConfig, blobStore BlobUploader) *CoreService {
	sessionStore, err := getSessionStore(config)
	if err != nil {
		slog.Error("failed to initialize session store", "error", err)
		panic(err)
	}
	return &CoreService{
		config:       config,
		sessionStore: sessionStore,
		blobStore:    blobStore,
	}
}

// NewCoreServiceWithStore wires explicit dependencies; used by tests.
func NewCoreServiceWithStore(config *ServiceConfig, sessionStore database.SessionStore, blobStore BlobUploader) *CoreService {
	return &CoreService{
		config:       config,
		sessionStore: sessionStore,
		blobStore:    blobStore,
	}
}

func getSessionStore(config *ServiceConfig) (database.SessionStore, error) {
	sessionStore, err := database.NewSessionStore(config.Database.Type, config.Database.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	slog.Info("session store initialized successfully", "type", config.Database.Type)
	return sessionStore, nil
}

// CreateSession uploads the submission's images and appends the metadata
// record. An unconfigured blob store is degraded mode: the record is still
// persisted with the placeholder marker in place of each image URL. Images
// uploaded before a later failure are not rolled back.
func (service *CoreService) CreateSession(ctx context.Context, submission *IntakeSubmission) (*database.SessionRecord, error) {
	image1URL, err := service.uploadImage(ctx, submission.Image1, "uploads/image1_")
	if err != nil {
		return nil, err
	}
	image2URL, err := service.uploadImage(ctx, submission.Image2, "uploads/image2_")
	if err != nil {
		return nil, err
	}

	detailURLs := make([]string, len(submission.DetailImages))
	for i, img := range submission.DetailImages {
		url, err := service.uploadImage(ctx, img, "uploads/details/")
		if err != nil {
			return nil, err
		}
		detailURLs[i] = url
	}

	// Notes drive the detail list; the image list may be shorter and an
	// entry without an image contributes an empty URL at its position.
	details := make([]database.DetailRecord, len(submission.DetailNotes))
	for i, note := range submission.DetailNotes {
		entry := database.DetailRecord{Note: note}
		if i < len(detailURLs) {
			entry.ImageURL = detailURLs[i]
		}
		details[i] = entry
	}

	id, err := database.GenerateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}

	record := &database.SessionRecord{
		ID:             id,
		Name:           submission.Name,
		Date:           submission.Date,
		TrackingNumber: submission.TrackingNumber,
		Image1URL:      image1URL,
		Image2URL:      image2URL,
		Details:        details,
		CreatedAt:      time.Now().UTC().Format(time.RFC3339),
	}

	if err := service.sessionStore.AppendSession(record); err != nil {
		return nil, fmt.Errorf("failed to persist session record: %w", err)
	}

	slog.Info("session record persisted",
		"id", record.ID, "trackingNumber", record.TrackingNumber, "details", len(record.Details))
	return record, nil
}

func (service *CoreService) uploadImage(ctx context.Context, image *UploadedImage, keyPrefix string) (string, error) {
	url, err := service.blobStore.Put(ctx, image.Data, image.ContentType, keyPrefix+image.Filename)
	if err != nil {
		if errors.Is(err, ErrBlobStoreNotConfigured) {
			return service.config.BlobStore.Placeholder, nil
		}
		return "", fmt.Errorf("failed to upload %s: %w", image.Filename, err)
	}
	return url, nil
}

func (service *CoreService) GetAllSessions() ([]*database.SessionRecord, error) {
	return service.sessionStore.GetAllSessions()
}

func (service *CoreService) Close() error {
	return service.sessionStore.Close()
}
