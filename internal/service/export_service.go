package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/export"
	"github.com/noah-isme/timetable-api/pkg/storage"
)

var exportHeaders = []string{"Section", "Department", "Academic Year", "Semester", "Date", "Day", "Start Time", "End Time", "Subject", "Faculty", "Room", "Status"}

var exportWidths = []float64{1.2, 1.6, 1.1, 0.8, 1.1, 1.1, 0.9, 0.9, 2.2, 1.6, 0.9, 1}

type exportEntrySource interface {
	ListByLogs(ctx context.Context, logIDs []string) ([]models.TimetableEntryDetail, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix       string
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// Download is an opened export file ready to stream.
type Download struct {
	File      *os.File
	Filename  string
	MimeType  string
	SizeBytes int64
}

// ExportService renders generated timetables and hands out signed links.
type ExportService struct {
	entries   exportEntrySource
	storage   fileStorage
	signer    *storage.SignedURLSigner
	csv       datasetRenderer
	pdf       datasetRenderer
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ExportConfig
	now       func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(entries exportEntrySource, files fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, validate *validator.Validate, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Hour
	}
	return &ExportService{
		entries:   entries,
		storage:   files,
		signer:    signer,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Export renders the sessions of the requested generation logs and returns a signed download link.
func (s *ExportService) Export(ctx context.Context, req dto.ExportRequest) (*dto.ExportResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export payload")
	}

	details, err := s.entries.ListByLogs(ctx, dedupeStrings(req.LogIDs))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable entries")
	}
	if len(details) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no timetable entries for the requested logs")
	}

	dataset := buildExportDataset(details)
	var payload []byte
	switch req.Format {
	case dto.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case dto.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %s", req.Format))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	exportID := uuid.NewString()
	filename := fmt.Sprintf("timetable_%s_%s.%s", s.now().UTC().Format("20060102_150405"), exportID[:8], req.Format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}

	token, expiresAt, err := s.signer.Sign(exportID, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign export link")
	}

	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	s.logger.Info("timetable export rendered",
		zap.String("export_id", exportID),
		zap.String("format", string(req.Format)),
		zap.Int("rows", len(dataset.Rows)),
	)

	return &dto.ExportResponse{
		ID:        exportID,
		Format:    req.Format,
		Rows:      len(dataset.Rows),
		URL:       fmt.Sprintf("%s/timetables/export/%s", prefix, token),
		ExpiresAt: expiresAt,
	}, nil
}

// ResolveDownload verifies a signed token and opens the referenced file.
func (s *ExportService) ResolveDownload(token string) (*Download, error) {
	claims, err := s.signer.Verify(token)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, appErrors.Clone(appErrors.ErrLinkExpired, "download link expired")
		}
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid download link")
	}
	file, err := s.storage.Open(claims.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrLinkExpired, "export file no longer available")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export")
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat export")
	}
	name := path.Base(claims.Path)
	mimeType := "text/csv"
	if strings.HasSuffix(name, ".pdf") {
		mimeType = "application/pdf"
	}
	return &Download{File: file, Filename: name, MimeType: mimeType, SizeBytes: info.Size()}, nil
}

// Cleanup removes rendered files older than the link lifetime.
func (s *ExportService) Cleanup() ([]string, error) {
	return s.storage.CleanupOlderThan(s.cfg.ResultTTL)
}

// StartCleanup purges expired exports until ctx is cancelled.
func (s *ExportService) StartCleanup(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := s.Cleanup()
				if err != nil {
					s.logger.Warn("export cleanup failed", zap.Error(err))
					continue
				}
				if len(removed) > 0 {
					s.logger.Info("expired exports removed", zap.Int("count", len(removed)))
				}
			}
		}
	}()
}

func buildExportDataset(details []models.TimetableEntryDetail) export.Dataset {
	rows := make([][]string, 0, len(details))
	for _, d := range details {
		status := "Scheduled"
		if d.IsRescheduled {
			status = "Rescheduled"
		}
		room := ""
		if d.RoomNumber != nil {
			room = *d.RoomNumber
		}
		rows = append(rows, []string{
			d.SectionName,
			d.DepartmentName,
			d.AcademicYear,
			strconv.Itoa(d.Semester),
			d.Date.Format(dateLayout),
			d.DayOfWeek,
			normalizeClock(d.StartTime),
			normalizeClock(d.EndTime),
			d.SubjectName,
			d.FacultyName,
			room,
			status,
		})
	}
	return export.Dataset{
		Title:   "Generated Timetables",
		Headers: exportHeaders,
		Rows:    rows,
		Widths:  exportWidths,
	}
}

func dedupeStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
