package frontend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"sync/atomic"
	"time"
)

var (
	// ErrSubmitInFlight guards against duplicate concurrent submissions
	// from the same client.
	ErrSubmitInFlight = errors.New("a submission is already in flight")
	// ErrSubmitFailed is the single generic failure surfaced for any
	// network or server error; the form contents stay intact for a retry.
	ErrSubmitFailed = errors.New("failed to submit form, please try again")
)

// Receipt is the server's echo of the persisted record.
type Receipt struct {
	Success bool `json:"success"`
	Session struct {
		ID             string `json:"id"`
		Name           string `json:"name"`
		Date           string `json:"date"`
		TrackingNumber string `json:"trackingNumber"`
		Image1URL      string `json:"image1Url"`
		Image2URL      string `json:"image2Url"`
		Details        []struct {
			ImageURL string `json:"imageUrl"`
			Note     string `json:"note"`
		} `json:"details"`
		CreatedAt string `json:"createdAt"`
	} `json:"session"`
}

// Submitter sends one completed form session to the intake endpoint as a
// single multipart request. No retry, no chunking, no resumability.
type Submitter struct {
	endpoint string
	client   *http.Client
	inFlight atomic.Bool
}

func NewSubmitter(serverURL string, client *http.Client) *Submitter {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &Submitter{
		endpoint: strings.TrimRight(serverURL, "/") + "/session",
		client:   client,
	}
}

// Submit validates locally, assembles the multipart payload and sends it.
// On success the session is reset; on any failure the session is left
// untouched so the operator can retry without re-capturing.
func (s *Submitter) Submit(ctx context.Context, session *FormSession, identity OperatorIdentity) (*Receipt, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, ErrSubmitInFlight
	}
	defer s.inFlight.Store(false)

	// Local checks first; none of these reach the network.
	if err := session.Validate(); err != nil {
		return nil, err
	}
	if err := validateArtifacts(session); err != nil {
		return nil, err
	}

	body, contentType, err := buildPayload(session, identity)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Error("submission request failed", "error", err)
		return nil, ErrSubmitFailed
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			slog.Error("failed to close response body", "error", cerr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.Error("submission rejected", "status", resp.StatusCode)
		return nil, ErrSubmitFailed
	}

	var receipt Receipt
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&receipt); err != nil {
		slog.Error("failed to decode submission response", "error", err)
		return nil, ErrSubmitFailed
	}
	if !receipt.Success {
		return nil, ErrSubmitFailed
	}

	session.Reset()
	slog.Info("session submitted", "id", receipt.Session.ID)
	return &receipt, nil
}

// validateArtifacts re-checks every attached image before any network
// interaction, so an oversized or mistyped file is reported locally.
func validateArtifacts(session *FormSession) error {
	for _, slot := range []PrimarySlot{PrimaryFront, PrimaryBack} {
		if err := session.PrimaryImage(slot).Validate(); err != nil {
			return err
		}
	}
	for _, detail := range session.Details() {
		if detail.Image == nil {
			continue
		}
		if err := detail.Image.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// buildPayload assembles the multipart form. Detail images and notes use
// parallel repeated fields in entry order: a note field is always written
// (empty string included), an image field only when the entry has one, so
// the receiver pairs them positionally.
func buildPayload(session *FormSession, identity OperatorIdentity) (*bytes.Buffer, string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	fields := map[string]string{
		"name":           identity.Name,
		"date":           identity.Date,
		"trackingNumber": session.TrackingNumber(),
	}
	for field, value := range fields {
		if err := writer.WriteField(field, value); err != nil {
			return nil, "", err
		}
	}

	if err := writeImagePart(writer, "image1", session.PrimaryImage(PrimaryFront)); err != nil {
		return nil, "", err
	}
	if err := writeImagePart(writer, "image2", session.PrimaryImage(PrimaryBack)); err != nil {
		return nil, "", err
	}

	for _, detail := range session.Details() {
		if detail.Image != nil {
			if err := writeImagePart(writer, "detailsImages[]", detail.Image); err != nil {
				return nil, "", err
			}
		}
		if err := writer.WriteField("detailsNotes[]", detail.Note); err != nil {
			return nil, "", err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return &body, writer.FormDataContentType(), nil
}

func writeImagePart(writer *multipart.Writer, field string, artifact *ImageArtifact) error {
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name=%q; filename=%q`, field, artifact.Filename))
	header.Set("Content-Type", artifact.MIME)

	part, err := writer.CreatePart(header)
	if err != nil {
		return err
	}
	_, err = part.Write(artifact.Data)
	return err
}
