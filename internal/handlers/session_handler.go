package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"alfredoptarigan/cv-screener/internal/apperror"
	"alfredoptarigan/cv-screener/internal/models"
	"alfredoptarigan/cv-screener/internal/session"
)

type SessionHandler struct {
	sessions session.Store
}

func NewSessionHandler(sessions session.Store) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

type analysisView struct {
	JDFilename   string     `json:"jd_filename"`
	CVFilenames  []string   `json:"cv_filenames"`
	DocumentName string     `json:"document_name,omitempty"`
	ReportID     *uuid.UUID `json:"report_id,omitempty"`
	DocumentURL  string     `json:"document_url,omitempty"`
	Warnings     []string   `json:"warnings,omitempty"`
	CompletedAt  time.Time  `json:"completed_at"`
}

type sessionView struct {
	UserID             uuid.UUID      `json:"user_id"`
	Email              string         `json:"email"`
	DisplayName        string         `json:"display_name"`
	IsAdmin            bool           `json:"is_admin"`
	MustChangePassword bool           `json:"must_change_password"`
	Page               session.Page   `json:"page"`
	Analysis           *analysisView  `json:"analysis,omitempty"`
	LastError          *models.Banner `json:"last_error,omitempty"`
}

func viewOf(st *session.State) sessionView {
	v := sessionView{
		UserID:             st.UserID,
		Email:              st.Email,
		DisplayName:        st.DisplayName,
		IsAdmin:            st.IsAdmin,
		MustChangePassword: st.MustChangePassword,
		Page:               st.Page,
	}
	if a := st.Analysis; a != nil {
		v.Analysis = &analysisView{
			JDFilename:   a.JobDescriptionFilename,
			CVFilenames:  a.CandidateFilenames,
			DocumentName: a.DocumentName,
			ReportID:     a.ReportID,
			DocumentURL:  a.DocumentURL,
			Warnings:     a.Warnings,
			CompletedAt:  a.CompletedAt,
		}
	}
	if st.LastError != "" {
		v.LastError = &models.Banner{Message: st.LastError, Level: LevelError}
	}
	return v
}

func (h *SessionHandler) Get(c *fiber.Ctx) error {
	return c.JSON(viewOf(currentSession(c)))
}

func (h *SessionHandler) Navigate(c *fiber.Ctx) error {
	var req models.NavigateRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	st := currentSession(c)
	if err := st.Navigate(session.Page(req.Page), time.Now()); err != nil {
		return respondError(c, apperror.Wrap(apperror.KindForbidden, "session.Navigate", msgAccessDenied, err))
	}
	if err := h.sessions.Update(c.UserContext(), st); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return respondError(c, apperror.WithReason(apperror.KindAuth, apperror.ReasonSessionExpired,
				"session.Navigate", "your session has ended, please log in again", err))
		}
		return respondError(c, apperror.Wrap(apperror.KindInternal, "session.Navigate", "could not save the session", err))
	}
	return c.JSON(viewOf(st))
}
