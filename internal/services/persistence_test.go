package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/cv-screener/internal/apperror"
	"alfredoptarigan/cv-screener/internal/models"
	"alfredoptarigan/cv-screener/internal/repositories"
	"alfredoptarigan/cv-screener/internal/testutil"
)

type memoryStorage struct {
	mu        sync.Mutex
	objects   map[string][]byte
	uploadErr error
	deleteErr error
	deletes   []string
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{objects: make(map[string][]byte)}
}

func (m *memoryStorage) Upload(_ context.Context, p string, data []byte, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.uploadErr != nil {
		return "", m.uploadErr
	}
	m.objects[p] = append([]byte(nil), data...)
	return "mem://" + p, nil
}

func (m *memoryStorage) Read(_ context.Context, p string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[p]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return data, nil
}

func (m *memoryStorage) Delete(_ context.Context, p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes = append(m.deletes, p)
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.objects[p]; !ok {
		return ErrObjectNotFound
	}
	delete(m.objects, p)
	return nil
}

type failingReports struct {
	repositories.ReportRepository
	createErr error
}

func (f *failingReports) Create(*models.Report) error {
	return f.createErr
}

type fakeIndex struct {
	indexed []uuid.UUID
	removed []uuid.UUID
	hits    []IndexHit
	owner   *uuid.UUID
	err     error
}

func (f *fakeIndex) InitCollection(context.Context) error { return nil }

func (f *fakeIndex) IndexReport(_ context.Context, report *models.Report, _ *models.AnalysisResult) error {
	f.indexed = append(f.indexed, report.ID)
	return f.err
}

func (f *fakeIndex) Search(_ context.Context, _ string, owner *uuid.UUID, _ int) ([]IndexHit, error) {
	f.owner = owner
	return f.hits, f.err
}

func (f *fakeIndex) RemoveReport(_ context.Context, id uuid.UUID) error {
	f.removed = append(f.removed, id)
	return f.err
}

func sampleMetadata(owner uuid.UUID) ReportMetadata {
	return ReportMetadata{
		OwnerID:                owner,
		OwnerEmail:             "jane@example.com",
		OwnerName:              "Jane Doe",
		JobDescriptionFilename: "jd.pdf",
		CandidateFilenames:     []string{"alice.pdf", "bob.docx"},
		DocumentFilename:       "JaneDoe_JD-CV_Comparison_Analysis_20240309_140507.docx",
		GeneratedAt:            time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC),
	}
}

func TestPersistUploadsThenRecords(t *testing.T) {
	db := testutil.NewDB(t)
	reports := repositories.NewReportRepository(db)
	storage := newMemoryStorage()
	gateway := NewPersistenceGateway(storage, reports, nil, discardLogger())

	owner := uuid.New()
	report, err := gateway.Persist(context.Background(), []byte("docx"), sampleMetadata(owner))
	require.NoError(t, err)

	assert.Equal(t, models.DefaultReportSummary, report.Summary)
	assert.Equal(t, "jd_cv_reports/"+owner.String()+"/"+report.ID.String()+"/JaneDoe_JD-CV_Comparison_Analysis_20240309_140507.docx", report.StoragePath)
	assert.Equal(t, "mem://"+report.StoragePath, report.DocumentURL)

	stored, err := reports.FindByID(report.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice.pdf", "bob.docx"}, stored.CandidateFilenames)
	assert.Contains(t, storage.objects, report.StoragePath)
}

func TestPersistIsNotIdempotentAcrossCalls(t *testing.T) {
	db := testutil.NewDB(t)
	reports := repositories.NewReportRepository(db)
	storage := newMemoryStorage()
	gateway := NewPersistenceGateway(storage, reports, nil, discardLogger())

	owner := uuid.New()
	first, err := gateway.Persist(context.Background(), []byte("docx"), sampleMetadata(owner))
	require.NoError(t, err)
	second, err := gateway.Persist(context.Background(), []byte("docx"), sampleMetadata(owner))
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.NotEqual(t, first.StoragePath, second.StoragePath)
	assert.Len(t, storage.objects, 2)

	list, err := reports.ListByOwner(owner)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestPersistMetadataFailureCompensates(t *testing.T) {
	db := testutil.NewDB(t)
	storage := newMemoryStorage()
	reports := &failingReports{
		ReportRepository: repositories.NewReportRepository(db),
		createErr:        errors.New("connection reset"),
	}
	gateway := NewPersistenceGateway(storage, reports, nil, discardLogger())

	_, err := gateway.Persist(context.Background(), []byte("docx"), sampleMetadata(uuid.New()))
	require.Error(t, err)
	assert.Equal(t, apperror.KindMetadata, apperror.KindOf(err))

	assert.Empty(t, storage.objects, "uploaded document is removed again")
	require.Len(t, storage.deletes, 1)
	assert.True(t, strings.HasPrefix(storage.deletes[0], "jd_cv_reports/"))
}

func TestPersistForMissingOwnerCompensates(t *testing.T) {
	db := testutil.NewDBWithForeignKeys(t)
	reports := repositories.NewReportRepository(db)
	storage := newMemoryStorage()
	gateway := NewPersistenceGateway(storage, reports, nil, discardLogger())

	_, err := gateway.Persist(context.Background(), []byte("docx"), sampleMetadata(uuid.New()))
	require.Error(t, err)
	assert.Equal(t, apperror.KindMetadata, apperror.KindOf(err))
	assert.Empty(t, storage.objects)

	all, err := reports.ListAll()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestPersistCompensationFailureIsNotSurfaced(t *testing.T) {
	db := testutil.NewDB(t)
	storage := newMemoryStorage()
	storage.deleteErr = errors.New("bucket unavailable")
	reports := &failingReports{
		ReportRepository: repositories.NewReportRepository(db),
		createErr:        errors.New("connection reset"),
	}

	_, err := NewPersistenceGateway(storage, reports, nil, discardLogger()).
		Persist(context.Background(), []byte("docx"), sampleMetadata(uuid.New()))

	assert.Equal(t, apperror.KindMetadata, apperror.KindOf(err))
	assert.ErrorContains(t, err, "connection reset")
	assert.NotContains(t, err.Error(), "bucket unavailable")
}

func TestPersistUploadFailure(t *testing.T) {
	db := testutil.NewDB(t)
	reports := repositories.NewReportRepository(db)
	storage := newMemoryStorage()
	storage.uploadErr = errors.New("quota exceeded")

	_, err := NewPersistenceGateway(storage, reports, nil, discardLogger()).
		Persist(context.Background(), []byte("docx"), sampleMetadata(uuid.New()))

	assert.Equal(t, apperror.KindUpload, apperror.KindOf(err))
	assert.Empty(t, storage.deletes)

	all, err := reports.ListAll()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestPersistRejectsEmptyDocument(t *testing.T) {
	storage := newMemoryStorage()
	_, err := NewPersistenceGateway(storage, nil, nil, discardLogger()).
		Persist(context.Background(), nil, sampleMetadata(uuid.New()))
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestDeleteReportOrder(t *testing.T) {
	db := testutil.NewDB(t)
	reports := repositories.NewReportRepository(db)
	storage := newMemoryStorage()
	index := &fakeIndex{}
	gateway := NewPersistenceGateway(storage, reports, index, discardLogger())

	report, err := gateway.Persist(context.Background(), []byte("docx"), sampleMetadata(uuid.New()))
	require.NoError(t, err)

	require.NoError(t, gateway.DeleteReport(context.Background(), report.ID))
	assert.Empty(t, storage.objects)
	assert.Equal(t, []uuid.UUID{report.ID}, index.removed)

	_, err = reports.FindByID(report.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	err = gateway.DeleteReport(context.Background(), report.ID)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestDeleteReportStorageFailureKeepsRecord(t *testing.T) {
	db := testutil.NewDB(t)
	reports := repositories.NewReportRepository(db)
	storage := newMemoryStorage()
	index := &fakeIndex{}
	gateway := NewPersistenceGateway(storage, reports, index, discardLogger())

	report, err := gateway.Persist(context.Background(), []byte("docx"), sampleMetadata(uuid.New()))
	require.NoError(t, err)

	storage.deleteErr = errors.New("permission denied")
	err = gateway.DeleteReport(context.Background(), report.ID)
	assert.Equal(t, apperror.KindUpload, apperror.KindOf(err))
	assert.Empty(t, index.removed)

	_, err = reports.FindByID(report.ID)
	assert.NoError(t, err, "record survives so the delete can be retried")

	storage.deleteErr = nil
	assert.NoError(t, gateway.DeleteReport(context.Background(), report.ID))
}

func TestDeleteReportMissingObjectStillDeletesRecord(t *testing.T) {
	db := testutil.NewDB(t)
	reports := repositories.NewReportRepository(db)
	storage := newMemoryStorage()
	gateway := NewPersistenceGateway(storage, reports, nil, discardLogger())

	report, err := gateway.Persist(context.Background(), []byte("docx"), sampleMetadata(uuid.New()))
	require.NoError(t, err)
	delete(storage.objects, report.StoragePath)

	require.NoError(t, gateway.DeleteReport(context.Background(), report.ID))
	_, err = reports.FindByID(report.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}
