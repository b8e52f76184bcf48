package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"alfredoptarigan/cv-screener/internal/apperror"
	"alfredoptarigan/cv-screener/internal/models"
	"alfredoptarigan/cv-screener/internal/repositories"
	"alfredoptarigan/cv-screener/internal/session"
)

const defaultSearchLimit = 10

// ReportIndexer adds a freshly persisted report to the search index.
type ReportIndexer interface {
	Index(ctx context.Context, report *models.Report, result *models.AnalysisResult)
}

// ReportCatalog serves persisted reports to their owners and to admins.
type ReportCatalog interface {
	ListOwn(ownerID uuid.UUID) ([]models.Report, error)
	Get(viewer *session.State, id uuid.UUID) (*models.Report, error)
	Document(ctx context.Context, viewer *session.State, id uuid.UUID) (*models.Report, []byte, error)
	SearchEnabled() bool
	Search(ctx context.Context, viewer *session.State, query string, limit int) ([]models.ReportHit, error)
	Index(ctx context.Context, report *models.Report, result *models.AnalysisResult)
	Reindex(ctx context.Context) (int, error)
}

type reportCatalog struct {
	reports repositories.ReportRepository
	storage ObjectStorage
	index   ReportIndex
	logger  *slog.Logger
}

// NewReportCatalog builds the catalog. index may be nil.
func NewReportCatalog(reports repositories.ReportRepository, storage ObjectStorage, index ReportIndex, logger *slog.Logger) ReportCatalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &reportCatalog{reports: reports, storage: storage, index: index, logger: logger}
}

func (c *reportCatalog) ListOwn(ownerID uuid.UUID) ([]models.Report, error) {
	reports, err := c.reports.ListByOwner(ownerID)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindMetadata, "catalog.ListOwn", "could not load your reports", err)
	}
	return reports, nil
}

// Get hides reports of other owners behind the same not-found error as
// reports that do not exist.
func (c *reportCatalog) Get(viewer *session.State, id uuid.UUID) (*models.Report, error) {
	const op = "catalog.Get"

	report, err := c.reports.FindByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperror.Wrap(apperror.KindNotFound, op, "report not found", err)
		}
		return nil, apperror.Wrap(apperror.KindMetadata, op, "could not load the report", err)
	}
	if report.OwnerID != viewer.UserID && !viewer.Allows(session.CapabilityAdmin) {
		return nil, apperror.New(apperror.KindNotFound, op, "report not found")
	}
	return report, nil
}

func (c *reportCatalog) Document(ctx context.Context, viewer *session.State, id uuid.UUID) (*models.Report, []byte, error) {
	const op = "catalog.Document"

	report, err := c.Get(viewer, id)
	if err != nil {
		return nil, nil, err
	}

	data, err := c.storage.Read(ctx, report.StoragePath)
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return nil, nil, apperror.Wrap(apperror.KindNotFound, op, "the report document is no longer stored", err)
		}
		return nil, nil, apperror.Wrap(apperror.KindUpload, op, "could not read the report document", err)
	}
	return report, data, nil
}

func (c *reportCatalog) SearchEnabled() bool {
	return c.index != nil
}

// Search ranks the viewer's reports by similarity; admins search all.
func (c *reportCatalog) Search(ctx context.Context, viewer *session.State, query string, limit int) ([]models.ReportHit, error) {
	const op = "catalog.Search"

	if c.index == nil {
		return nil, apperror.New(apperror.KindNotFound, op, "report search is not enabled on this server")
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperror.New(apperror.KindValidation, op, "a search query is required")
	}
	if limit <= 0 || limit > 50 {
		limit = defaultSearchLimit
	}

	isAdmin := viewer.Allows(session.CapabilityAdmin)
	var owner *uuid.UUID
	if !isAdmin {
		id := viewer.UserID
		owner = &id
	}

	hits, err := c.index.Search(ctx, query, owner, limit)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindProvider, op, "report search failed", err)
	}

	ids := make([]uuid.UUID, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.ReportID)
	}
	found, err := c.reports.FindByIDs(ids)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindMetadata, op, "could not load matching reports", err)
	}
	byID := make(map[uuid.UUID]models.Report, len(found))
	for _, r := range found {
		byID[r.ID] = r
	}

	results := make([]models.ReportHit, 0, len(hits))
	for _, h := range hits {
		r, ok := byID[h.ReportID]
		// stale index entries of deleted reports are skipped
		if !ok || (!isAdmin && r.OwnerID != viewer.UserID) {
			continue
		}
		results = append(results, models.ReportHit{Report: r, Score: h.Score})
	}
	return results, nil
}

// Index adds a freshly persisted report to the search index. Failures are
// only logged.
func (c *reportCatalog) Index(ctx context.Context, report *models.Report, result *models.AnalysisResult) {
	if c.index == nil {
		return
	}
	if err := c.index.IndexReport(ctx, report, result); err != nil {
		c.logger.Warn("report not indexed", slog.String("report_id", report.ID.String()), slog.Any("error", err))
	}
}

// Reindex rebuilds the index from stored metadata and returns how many
// reports were indexed.
func (c *reportCatalog) Reindex(ctx context.Context) (int, error) {
	const op = "catalog.Reindex"

	if c.index == nil {
		return 0, apperror.New(apperror.KindValidation, op, "report search is not configured")
	}
	if err := c.index.InitCollection(ctx); err != nil {
		return 0, apperror.Wrap(apperror.KindProvider, op, "could not prepare the index", err)
	}

	reports, err := c.reports.ListAll()
	if err != nil {
		return 0, apperror.Wrap(apperror.KindMetadata, op, "could not load reports", err)
	}

	var (
		indexed int
		errs    []error
	)
	for i := range reports {
		if err := c.index.IndexReport(ctx, &reports[i], nil); err != nil {
			c.logger.Warn("report not indexed", slog.String("report_id", reports[i].ID.String()), slog.Any("error", err))
			errs = append(errs, err)
			continue
		}
		indexed++
	}

	if len(errs) > 0 {
		return indexed, apperror.Wrap(apperror.KindProvider, op, "some reports could not be indexed", errors.Join(errs...))
	}
	return indexed, nil
}
