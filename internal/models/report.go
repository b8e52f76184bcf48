package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const DefaultReportSummary = "No summary provided."

// Report is the metadata row written after the generated document has been
// stored. The ID doubles as the idempotency key of one logical report: the
// storage path is derived from it, so a retry can find what an earlier
// attempt left behind.
type Report struct {
	ID                     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID                uuid.UUID `gorm:"type:uuid;index;not null" json:"owner_id"`
	Owner                  *User     `gorm:"foreignKey:OwnerID;constraint:OnDelete:RESTRICT" json:"-"`
	OwnerEmail             string    `gorm:"type:text" json:"owner_email"`
	OwnerName              string    `gorm:"type:text" json:"owner_name"`
	JobDescriptionFilename string    `gorm:"type:text;not null" json:"jd_filename"`
	CandidateFilenames     []string  `gorm:"type:text;serializer:json" json:"cv_filenames"`
	DocumentFilename       string    `gorm:"type:text;not null" json:"document_filename"`
	StoragePath            string    `gorm:"type:text;not null" json:"storage_path"`
	DocumentURL            string    `gorm:"type:text" json:"document_url"`
	Summary                string    `gorm:"type:text" json:"summary"`
	GeneratedAt            time.Time `gorm:"index;not null" json:"generated_at"`
}

func (Report) TableName() string {
	return "jd_cv_reports"
}

func (r Report) CandidateList() string {
	return strings.Join(r.CandidateFilenames, ", ")
}
