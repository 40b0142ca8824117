package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/dncl/intake/internal/backend/database"
	"github.com/dncl/intake/internal/common"
	"github.com/dncl/intake/internal/core"
)

type fakeBlobStore struct {
	err error
}

func (f *fakeBlobStore) Put(ctx context.Context, data []byte, contentType, keyHint string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "https://bucket.example.com/" + keyHint, nil
}

func newTestAPI(t *testing.T, blobStore core.BlobUploader) (*echo.Echo, database.SessionStore) {
	t.Helper()

	store, err := database.NewSessionStore("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("NewSessionStore error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	config := &core.ServiceConfig{
		BlobStore: core.BlobStore{Placeholder: "S3_NOT_CONFIGURED"},
	}
	coreService := core.NewCoreServiceWithStore(config, store, blobStore)

	e := echo.New()
	e.Validator = &common.GenericEchoValidator{}
	NewAPIService(config, coreService).SetRoutes(e)
	return e, store
}

type intakeRequest struct {
	fields       map[string]string
	images       map[string][]byte
	detailImages [][]byte
	detailNotes  []string
}

func validIntakeRequest() *intakeRequest {
	return &intakeRequest{
		fields: map[string]string{
			"name":           "Jane Doe",
			"date":           "2026-09-01",
			"trackingNumber": "TRK123",
		},
		images: map[string][]byte{
			"image1": {0xff, 0xd8, 0xff, 0xe0},
			"image2": {0xff, 0xd8, 0xff, 0xe0},
		},
	}
}

func (r *intakeRequest) build(t *testing.T) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for field, value := range r.fields {
		if err := writer.WriteField(field, value); err != nil {
			t.Fatalf("WriteField(%s) error: %v", field, err)
		}
	}
	for field, data := range r.images {
		part, err := writer.CreateFormFile(field, field+".jpg")
		if err != nil {
			t.Fatalf("CreateFormFile(%s) error: %v", field, err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatalf("writing %s error: %v", field, err)
		}
	}
	for i, data := range r.detailImages {
		part, err := writer.CreateFormFile("detailsImages[]", fmt.Sprintf("detail_%d.jpg", i))
		if err != nil {
			t.Fatalf("CreateFormFile(detail %d) error: %v", i, err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatalf("writing detail %d error: %v", i, err)
		}
	}
	for _, note := range r.detailNotes {
		if err := writer.WriteField("detailsNotes[]", note); err != nil {
			t.Fatalf("WriteField(detailsNotes[]) error: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("closing multipart writer error: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/session", &body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	return req
}

func doIntake(t *testing.T, e *echo.Echo, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("response is not JSON: %v (body: %s)", err, rec.Body.String())
	}
	return rec, payload
}

func TestCreateSession_Success(t *testing.T) {
	e, store := newTestAPI(t, &fakeBlobStore{})

	rec, payload := doIntake(t, e, validIntakeRequest().build(t))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	if payload["success"] != true {
		t.Errorf("expected success flag, got %v", payload["success"])
	}

	session, ok := payload["session"].(map[string]any)
	if !ok {
		t.Fatalf("expected session object, got %v", payload["session"])
	}
	if session["trackingNumber"] != "TRK123" {
		t.Errorf("unexpected tracking number: %v", session["trackingNumber"])
	}
	if session["id"] == "" {
		t.Error("expected non-empty session id")
	}

	count, err := store.CountSessions()
	if err != nil {
		t.Fatalf("CountSessions error: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 persisted record, got %d", count)
	}
}

func TestCreateSession_MissingImage2(t *testing.T) {
	e, store := newTestAPI(t, &fakeBlobStore{})

	request := validIntakeRequest()
	delete(request.images, "image2")

	rec, payload := doIntake(t, e, request.build(t))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if payload["error"] == nil {
		t.Error("expected error message in response")
	}

	count, err := store.CountSessions()
	if err != nil {
		t.Fatalf("CountSessions error: %v", err)
	}
	if count != 0 {
		t.Errorf("expected no persisted record, got %d", count)
	}
}

func TestCreateSession_MissingScalarFields(t *testing.T) {
	for _, field := range []string{"name", "date", "trackingNumber"} {
		t.Run(field, func(t *testing.T) {
			e, store := newTestAPI(t, &fakeBlobStore{})

			request := validIntakeRequest()
			delete(request.fields, field)

			rec, _ := doIntake(t, e, request.build(t))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}

			count, err := store.CountSessions()
			if err != nil {
				t.Fatalf("CountSessions error: %v", err)
			}
			if count != 0 {
				t.Errorf("expected no persisted record, got %d", count)
			}
		})
	}
}

func TestCreateSession_DegradedModePersistsPlaceholders(t *testing.T) {
	e, store := newTestAPI(t, &fakeBlobStore{err: core.ErrBlobStoreNotConfigured})

	rec, payload := doIntake(t, e, validIntakeRequest().build(t))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	if payload["success"] != true {
		t.Errorf("expected success flag, got %v", payload["success"])
	}

	records, err := store.GetAllSessions()
	if err != nil {
		t.Fatalf("GetAllSessions error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Image1URL != "S3_NOT_CONFIGURED" || records[0].Image2URL != "S3_NOT_CONFIGURED" {
		t.Errorf("expected placeholder URLs, got %s / %s", records[0].Image1URL, records[0].Image2URL)
	}
}

func TestCreateSession_NotesMayOutnumberImages(t *testing.T) {
	e, store := newTestAPI(t, &fakeBlobStore{})

	request := validIntakeRequest()
	request.detailImages = [][]byte{{0xff, 0xd8, 0xff, 0xe0}}
	request.detailNotes = []string{"scratch on lid", "battery missing"}

	rec, _ := doIntake(t, e, request.build(t))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	records, err := store.GetAllSessions()
	if err != nil {
		t.Fatalf("GetAllSessions error: %v", err)
	}
	details := records[0].Details
	if len(details) != 2 {
		t.Fatalf("expected 2 detail entries, got %d", len(details))
	}
	if details[0].ImageURL == "" || details[0].Note != "scratch on lid" {
		t.Errorf("unexpected first entry: %+v", details[0])
	}
	if details[1].ImageURL != "" || details[1].Note != "battery missing" {
		t.Errorf("unexpected second entry: %+v", details[1])
	}
}

func TestCreateSession_TooManyDetailEntries(t *testing.T) {
	e, store := newTestAPI(t, &fakeBlobStore{})

	request := validIntakeRequest()
	for i := 0; i < 6; i++ {
		request.detailNotes = append(request.detailNotes, "note")
	}

	rec, _ := doIntake(t, e, request.build(t))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	count, err := store.CountSessions()
	if err != nil {
		t.Fatalf("CountSessions error: %v", err)
	}
	if count != 0 {
		t.Errorf("expected no persisted record, got %d", count)
	}
}

func TestListSessions(t *testing.T) {
	e, store := newTestAPI(t, &fakeBlobStore{})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var empty []database.SessionRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &empty); err != nil {
		t.Fatalf("expected JSON list, got %s", rec.Body.String())
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty list, got %d records", len(empty))
	}

	if err := store.AppendSession(&database.SessionRecord{
		ID: "1756720000000_a1b2c3", Name: "Jane Doe", Date: "2026-09-01",
		TrackingNumber: "TRK123", Image1URL: "u1", Image2URL: "u2",
		CreatedAt: "2026-09-01T10:00:00Z",
	}); err != nil {
		t.Fatalf("AppendSession error: %v", err)
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions", nil))
	var records []database.SessionRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &records); err != nil {
		t.Fatalf("expected JSON list, got %s", rec.Body.String())
	}
	if len(records) != 1 || records[0].TrackingNumber != "TRK123" {
		t.Fatalf("unexpected records: %+v", records)
	}
}
