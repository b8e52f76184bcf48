package services

import (
	"context"
	"errors"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"alfredoptarigan/cv-screener/internal/apperror"
	"alfredoptarigan/cv-screener/internal/models"
	"alfredoptarigan/cv-screener/internal/repositories"
)

const reportStoragePrefix = "jd_cv_reports"

// ReportMetadata describes a generated document about to be persisted.
type ReportMetadata struct {
	OwnerID                uuid.UUID
	OwnerEmail             string
	OwnerName              string
	JobDescriptionFilename string
	CandidateFilenames     []string
	DocumentFilename       string
	Summary                string
	GeneratedAt            time.Time
}

type PersistenceGateway interface {
	Persist(ctx context.Context, document []byte, meta ReportMetadata) (*models.Report, error)
	DeleteReport(ctx context.Context, id uuid.UUID) error
}

type persistenceGateway struct {
	storage ObjectStorage
	reports repositories.ReportRepository
	index   ReportIndex
	logger  *slog.Logger
}

// NewPersistenceGateway wires storage and metadata. index may be nil when
// search is disabled.
func NewPersistenceGateway(storage ObjectStorage, reports repositories.ReportRepository, index ReportIndex, logger *slog.Logger) PersistenceGateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &persistenceGateway{
		storage: storage,
		reports: reports,
		index:   index,
		logger:  logger,
	}
}

// ReportStoragePath is where the document of one logical report lives.
func ReportStoragePath(ownerID, reportID uuid.UUID, filename string) string {
	return path.Join(reportStoragePrefix, ownerID.String(), reportID.String(), path.Base("/"+filename))
}

// Persist uploads the document and then records its metadata. Every call is
// a new logical report with its own id and storage path.
func (g *persistenceGateway) Persist(ctx context.Context, document []byte, meta ReportMetadata) (*models.Report, error) {
	const op = "persistence.Persist"

	if len(document) == 0 {
		return nil, apperror.New(apperror.KindValidation, op, "there is no report document to save")
	}
	if meta.OwnerID == uuid.Nil {
		return nil, apperror.New(apperror.KindValidation, op, "a report needs an owner")
	}

	summary := strings.TrimSpace(meta.Summary)
	if summary == "" {
		summary = models.DefaultReportSummary
	}
	generatedAt := meta.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now()
	}

	report := &models.Report{
		ID:                     uuid.New(),
		OwnerID:                meta.OwnerID,
		OwnerEmail:             meta.OwnerEmail,
		OwnerName:              meta.OwnerName,
		JobDescriptionFilename: meta.JobDescriptionFilename,
		CandidateFilenames:     append([]string(nil), meta.CandidateFilenames...),
		DocumentFilename:       meta.DocumentFilename,
		Summary:                summary,
		GeneratedAt:            generatedAt,
	}
	report.StoragePath = ReportStoragePath(report.OwnerID, report.ID, report.DocumentFilename)

	log := g.logger.With(slog.String("report_id", report.ID.String()), slog.String("path", report.StoragePath))

	steps := []sagaStep{
		{
			name: "upload_document",
			run: func(ctx context.Context) error {
				url, err := g.storage.Upload(ctx, report.StoragePath, document, DocxContentType)
				if err != nil {
					return err
				}
				report.DocumentURL = url
				return nil
			},
			compensate: func(ctx context.Context) error {
				err := g.storage.Delete(ctx, report.StoragePath)
				if errors.Is(err, ErrObjectNotFound) {
					return nil
				}
				return err
			},
		},
		{
			name: "insert_metadata",
			run: func(context.Context) error {
				return g.reports.Create(report)
			},
		},
	}

	failed, err := runSaga(ctx, log, steps)
	switch failed {
	case -1:
		log.Info("report persisted", slog.Int("bytes", len(document)))
		return report, nil
	case 0:
		log.Error("report upload failed", slog.Any("error", err))
		return nil, apperror.Wrap(apperror.KindUpload, op, "the report could not be uploaded to storage", err)
	default:
		log.Error("report metadata insert failed", slog.Any("error", err))
		return nil, apperror.Wrap(apperror.KindMetadata, op, "the report was generated but its record could not be saved", err)
	}
}

// DeleteReport removes the stored document first. A storage failure aborts
// with the record intact so the deletion can be retried.
func (g *persistenceGateway) DeleteReport(ctx context.Context, id uuid.UUID) error {
	const op = "persistence.DeleteReport"

	report, err := g.reports.FindByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperror.Wrap(apperror.KindNotFound, op, "report not found", err)
		}
		return apperror.Wrap(apperror.KindMetadata, op, "could not load the report", err)
	}

	log := g.logger.With(slog.String("report_id", id.String()), slog.String("path", report.StoragePath))

	if err := g.storage.Delete(ctx, report.StoragePath); err != nil {
		if !errors.Is(err, ErrObjectNotFound) {
			log.Error("stored document delete failed", slog.Any("error", err))
			return apperror.Wrap(apperror.KindUpload, op, "the stored report document could not be deleted; nothing was removed", err)
		}
		log.Warn("stored document already gone")
	}

	if g.index != nil {
		if err := g.index.RemoveReport(ctx, id); err != nil {
			log.Warn("index entries not removed", slog.Any("error", err))
		}
	}

	if err := g.reports.Delete(id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil
		}
		log.Error("report record delete failed", slog.Any("error", err))
		return apperror.Wrap(apperror.KindMetadata, op, "the report document was deleted but its record could not be removed", err)
	}

	log.Info("report deleted")
	return nil
}
