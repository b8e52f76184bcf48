// Package session holds the per-login application state and the stores it
// lives in between requests.
package session

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"alfredoptarigan/cv-screener/internal/models"
)

var ErrPageNotAllowed = errors.New("page not allowed for this session")

// Capability is what a route or page requires of the caller.
type Capability int

const (
	CapabilityPublic Capability = iota
	// CapabilityPasswordChange is held by any signed-in session, including
	// one that must change its password before doing anything else.
	CapabilityPasswordChange
	CapabilityUser
	CapabilityAdmin
)

func (c Capability) String() string {
	switch c {
	case CapabilityPublic:
		return "public"
	case CapabilityPasswordChange:
		return "password-change"
	case CapabilityUser:
		return "user"
	case CapabilityAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

type Page string

const (
	PagePasswordUpdate Page = "password_update"
	PageDashboard      Page = "dashboard"
	PageReports        Page = "reports"
	PageAdminUsers     Page = "admin_users"
	PageAdminReports   Page = "admin_reports"
	PageAdminInvite    Page = "admin_invite"
)

var pageCapabilities = map[Page]Capability{
	PagePasswordUpdate: CapabilityPasswordChange,
	PageDashboard:      CapabilityUser,
	PageReports:        CapabilityUser,
	PageAdminUsers:     CapabilityAdmin,
	PageAdminReports:   CapabilityAdmin,
	PageAdminInvite:    CapabilityAdmin,
}

// Analysis is the last screening run of the session. It is the only place an
// AnalysisResult lives; nothing else keeps it after the session ends.
type Analysis struct {
	JobDescriptionFilename string                 `json:"jd_filename"`
	CandidateFilenames     []string               `json:"cv_filenames"`
	Result                 *models.AnalysisResult `json:"result,omitempty"`
	Document               []byte                 `json:"document,omitempty"`
	DocumentName           string                 `json:"document_name,omitempty"`
	ReportID               *uuid.UUID             `json:"report_id,omitempty"`
	DocumentURL            string                 `json:"document_url,omitempty"`
	Warnings               []string               `json:"warnings,omitempty"`
	CompletedAt            time.Time              `json:"completed_at"`
}

type State struct {
	ID                 string    `json:"id"`
	UserID             uuid.UUID `json:"user_id"`
	Email              string    `json:"email"`
	DisplayName        string    `json:"display_name"`
	IsAdmin            bool      `json:"is_admin"`
	MustChangePassword bool      `json:"must_change_password"`
	Page               Page      `json:"page"`
	Analysis           *Analysis `json:"analysis,omitempty"`
	// pending holds filenames while an analysis is running
	pending   *Analysis
	LastError string    `json:"last_error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewLogin starts a session for a freshly authenticated user. Accounts that
// must change their password land on the password page and nowhere else.
func NewLogin(user *models.User, now time.Time) *State {
	s := &State{
		ID:                 uuid.NewString(),
		UserID:             user.ID,
		Email:              user.Email,
		DisplayName:        user.DisplayName,
		IsAdmin:            user.IsAdmin,
		MustChangePassword: user.MustChangePassword,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	s.Page = s.landingPage()
	return s
}

func (s *State) landingPage() Page {
	switch {
	case s.MustChangePassword:
		return PagePasswordUpdate
	case s.IsAdmin:
		return PageAdminUsers
	default:
		return PageDashboard
	}
}

// Allows reports whether the session holds the capability.
func (s *State) Allows(c Capability) bool {
	switch c {
	case CapabilityPublic, CapabilityPasswordChange:
		return true
	case CapabilityUser:
		return !s.MustChangePassword
	case CapabilityAdmin:
		return !s.MustChangePassword && s.IsAdmin
	default:
		return false
	}
}

func (s *State) Navigate(page Page, now time.Time) error {
	required, ok := pageCapabilities[page]
	if !ok || !s.Allows(required) {
		return ErrPageNotAllowed
	}
	s.Page = page
	s.touch(now)
	return nil
}

// BeginAnalysis clears whatever result was on display before the new run.
func (s *State) BeginAnalysis(jdFilename string, cvFilenames []string, now time.Time) {
	s.Analysis = nil
	s.LastError = ""
	s.pending = &Analysis{
		JobDescriptionFilename: jdFilename,
		CandidateFilenames:     append([]string(nil), cvFilenames...),
	}
	s.touch(now)
}

func (s *State) CompleteAnalysis(result *models.AnalysisResult, document []byte, documentName string, now time.Time) {
	analysis := s.pending
	if analysis == nil {
		analysis = &Analysis{}
	}
	analysis.Result = result
	analysis.Document = document
	analysis.DocumentName = documentName
	analysis.CompletedAt = now

	s.Analysis = analysis
	s.pending = nil
	s.touch(now)
}

// FailAnalysis leaves the rest of the session untouched.
func (s *State) FailAnalysis(message string, now time.Time) {
	s.Analysis = nil
	s.pending = nil
	s.LastError = message
	s.touch(now)
}

// AttachReport records where the current analysis was persisted.
func (s *State) AttachReport(reportID uuid.UUID, documentURL string, now time.Time) {
	if s.Analysis == nil {
		return
	}
	id := reportID
	s.Analysis.ReportID = &id
	s.Analysis.DocumentURL = documentURL
	s.touch(now)
}

func (s *State) AddWarning(message string, now time.Time) {
	if s.Analysis == nil {
		return
	}
	s.Analysis.Warnings = append(s.Analysis.Warnings, message)
	s.touch(now)
}

func (s *State) touch(now time.Time) {
	s.UpdatedAt = now
}
