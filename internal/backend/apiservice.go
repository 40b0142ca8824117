package backend

import (
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dncl/intake/internal/backend/database"
	"github.com/dncl/intake/internal/core"
)

const maxDetailEntries = 5

type APIService struct {
	config      *core.ServiceConfig
	coreService *core.CoreService
}

func NewAPIService(config *core.ServiceConfig, coreService *core.CoreService) *APIService {
	return &APIService{
		config:      config,
		coreService: coreService,
	}
}

func (s *APIService) SetRoutes(e *echo.Echo) {
	e.GET("/probe", s.probeHandler)
	e.POST("/session", s.createSessionHandler)
	e.GET("/sessions", s.listSessionsHandler)
}

func (s *APIService) probeHandler(c echo.Context) error {
	return c.String(http.StatusOK, "API Service is running")
}

// intakeForm carries the scalar fields of the multipart intake request.
type intakeForm struct {
	Name           string `form:"name" validate:"required"`
	Date           string `form:"date" validate:"required"`
	TrackingNumber string `form:"trackingNumber" validate:"required"`
}

// createSessionHandler accepts the intake submission. Required fields are
// name, date, trackingNumber, image1 and image2; any missing part rejects
// the request before anything is persisted. Image size and type are
// enforced by the client and not re-checked here.
func (s *APIService) createSessionHandler(c echo.Context) error {
	var form intakeForm
	if err := c.Bind(&form); err != nil {
		slog.Error("createSessionHandler: failed to bind form", "error", err)
		return s.clientError(c, "Missing required fields or images.")
	}
	if err := c.Validate(&form); err != nil {
		slog.Error("createSessionHandler: missing required fields", "error", err)
		return s.clientError(c, "Missing required fields or images.")
	}

	image1, err := s.readFormImage(c, "image1")
	if err != nil {
		slog.Error("createSessionHandler: missing image1", "error", err)
		return s.clientError(c, "Missing required fields or images.")
	}
	image2, err := s.readFormImage(c, "image2")
	if err != nil {
		slog.Error("createSessionHandler: missing image2", "error", err)
		return s.clientError(c, "Missing required fields or images.")
	}

	detailImages, detailNotes, err := s.readDetailParts(c)
	if err != nil {
		slog.Error("createSessionHandler: invalid detail parts", "error", err)
		return s.clientError(c, err.Error())
	}

	submission := &core.IntakeSubmission{
		Name:           form.Name,
		Date:           form.Date,
		TrackingNumber: form.TrackingNumber,
		Image1:         image1,
		Image2:         image2,
		DetailImages:   detailImages,
		DetailNotes:    detailNotes,
	}

	record, err := s.coreService.CreateSession(c.Request().Context(), submission)
	if err != nil {
		slog.Error("createSessionHandler: failed to create session",
			"trackingNumber", form.TrackingNumber, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]any{
			"error": "Internal server error.",
		})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"session": record,
	})
}

func (s *APIService) listSessionsHandler(c echo.Context) error {
	records, err := s.coreService.GetAllSessions()
	if err != nil {
		slog.Error("listSessionsHandler: failed to load sessions", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]any{
			"error": "Internal server error.",
		})
	}
	if records == nil {
		records = []*database.SessionRecord{}
	}
	return c.JSON(http.StatusOK, records)
}

func (s *APIService) clientError(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, map[string]any{"error": message})
}

func (s *APIService) readFormImage(c echo.Context, field string) (*core.UploadedImage, error) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		return nil, err
	}
	return readUploadedImage(fileHeader)
}

// readDetailParts collects the repeated detail fields. Notes drive the entry
// count and may outnumber images; images beyond the entry bound are refused.
func (s *APIService) readDetailParts(c echo.Context) ([]*core.UploadedImage, []string, error) {
	form, err := c.MultipartForm()
	if err != nil {
		// No multipart body at all is handled by the required-image checks.
		return nil, nil, nil
	}

	fileHeaders := form.File["detailsImages[]"]
	notes := form.Value["detailsNotes[]"]
	if len(fileHeaders) > maxDetailEntries || len(notes) > maxDetailEntries {
		return nil, nil, errors.New("Too many detail entries.")
	}

	images := make([]*core.UploadedImage, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		img, err := readUploadedImage(fh)
		if err != nil {
			return nil, nil, err
		}
		images = append(images, img)
	}
	return images, notes, nil
}

func readUploadedImage(fileHeader *multipart.FileHeader) (*core.UploadedImage, error) {
	src, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			slog.Error("failed to close uploaded file reader", "error", cerr, "filename", fileHeader.Filename)
		}
	}()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return &core.UploadedImage{
		Data:        data,
		ContentType: contentType,
		Filename:    fileHeader.Filename,
	}, nil
}
