package repositories

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alfredoptarigan/cv-screener/internal/models"
)

type ReportRepository interface {
	Create(report *models.Report) error
	FindByID(id uuid.UUID) (*models.Report, error)
	FindByIDs(ids []uuid.UUID) ([]models.Report, error)
	ListByOwner(ownerID uuid.UUID) ([]models.Report, error)
	ListAll() ([]models.Report, error)
	Delete(id uuid.UUID) error
}

type reportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Create(report *models.Report) error {
	if err := r.db.Create(report).Error; err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	return nil
}

func (r *reportRepository) FindByID(id uuid.UUID) (*models.Report, error) {
	var report models.Report
	if err := r.db.Where("id = ?", id).First(&report).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("report not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find report: %w", err)
	}
	return &report, nil
}

func (r *reportRepository) FindByIDs(ids []uuid.UUID) ([]models.Report, error) {
	var reports []models.Report
	if len(ids) == 0 {
		return reports, nil
	}
	if err := r.db.Where("id IN ?", ids).Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("failed to find reports: %w", err)
	}
	return reports, nil
}

func (r *reportRepository) ListByOwner(ownerID uuid.UUID) ([]models.Report, error) {
	var reports []models.Report
	err := r.db.
		Where("owner_id = ?", ownerID).
		Order("generated_at DESC").
		Find(&reports).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	return reports, nil
}

func (r *reportRepository) ListAll() ([]models.Report, error) {
	var reports []models.Report
	if err := r.db.Order("generated_at DESC").Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return reports, nil
}

func (r *reportRepository) Delete(id uuid.UUID) error {
	result := r.db.Where("id = ?", id).Delete(&models.Report{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete report: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("report not found: %w", ErrNotFound)
	}

	return nil
}
