package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/cv-screener/internal/apperror"
	"alfredoptarigan/cv-screener/internal/models"
	"alfredoptarigan/cv-screener/internal/services"
	"alfredoptarigan/cv-screener/internal/session"
)

const (
	formJobDescription = "jd"
	formCandidateCVs   = "cvs"
)

type ScreeningHandler struct {
	screening   services.ScreeningService
	sessions    session.Store
	maxFileSize int64
	logger      *slog.Logger
}

func NewScreeningHandler(screening services.ScreeningService, sessions session.Store, maxFileSize int64, logger *slog.Logger) *ScreeningHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScreeningHandler{
		screening:   screening,
		sessions:    sessions,
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

func (h *ScreeningHandler) readUpload(fh *multipart.FileHeader) (services.UploadedFile, error) {
	const op = "screening.readUpload"

	if h.maxFileSize > 0 && fh.Size > h.maxFileSize {
		return services.UploadedFile{}, apperror.New(apperror.KindValidation, op,
			fmt.Sprintf("%q is too large. Max size: %d bytes", fh.Filename, h.maxFileSize))
	}

	src, err := fh.Open()
	if err != nil {
		return services.UploadedFile{}, apperror.Wrap(apperror.KindValidation, op, "failed to open uploaded file", err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return services.UploadedFile{}, apperror.Wrap(apperror.KindValidation, op, "failed to read uploaded file", err)
	}
	return services.UploadedFile{Filename: fh.Filename, Data: data}, nil
}

// Create runs one screening from a multipart form with a single "jd" file
// and one or more "cvs" files.
func (h *ScreeningHandler) Create(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return respondError(c, apperror.Wrap(apperror.KindValidation, "screening.Create", "failed to parse multipart form", err))
	}

	jdFiles := form.File[formJobDescription]
	if len(jdFiles) != 1 {
		return respondError(c, apperror.New(apperror.KindValidation, "screening.Create", "please upload exactly one job description as 'jd'"))
	}
	jd, err := h.readUpload(jdFiles[0])
	if err != nil {
		return respondError(c, err)
	}

	var cvs []services.UploadedFile
	for _, fh := range form.File[formCandidateCVs] {
		cv, err := h.readUpload(fh)
		if err != nil {
			return respondError(c, err)
		}
		cvs = append(cvs, cv)
	}

	st := currentSession(c)
	outcome, runErr := h.screening.Screen(c.UserContext(), st, jd, cvs)

	// the session records failures too, unless it ended while the
	// screening ran
	if err := h.sessions.Update(c.UserContext(), st); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			h.logger.Warn("session ended during screening",
				slog.String("session_id", st.ID),
				slog.String("user_id", st.UserID.String()),
			)
			return respondError(c, apperror.WithReason(apperror.KindAuth, apperror.ReasonSessionExpired,
				"screening.Create", "your session has ended, please log in again", err))
		}
		h.logger.Error("session not saved after screening", slog.Any("error", err))
	}
	if runErr != nil {
		return respondError(c, runErr)
	}

	resp := models.ScreeningResponse{
		DocumentName:           outcome.DocumentName,
		Evaluations:            outcome.Evaluations,
		Criteria:               outcome.Criteria,
		AdditionalObservations: observations(outcome.Result),
		FinalRecommendation:    recommendation(outcome.Result),
		Warnings:               outcome.Warnings,
	}
	if outcome.Report != nil {
		resp.ReportID = outcome.Report.ID.String()
		resp.DocumentURL = outcome.Report.DocumentURL
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func observations(r *models.AnalysisResult) string {
	if r.HasObservations() {
		return r.AdditionalObservations
	}
	return ""
}

func recommendation(r *models.AnalysisResult) string {
	if r.HasRecommendation() {
		return r.FinalRecommendation
	}
	return ""
}

// Current re-renders the analysis held by the session.
func (h *ScreeningHandler) Current(c *fiber.Ctx) error {
	st := currentSession(c)
	a := st.Analysis
	if a == nil || a.Result == nil {
		return respondError(c, apperror.New(apperror.KindNotFound, "screening.Current", "no analysis in this session yet"))
	}

	resp := models.ScreeningResponse{
		DocumentName:           a.DocumentName,
		DocumentURL:            a.DocumentURL,
		Evaluations:            services.EvaluationTable(a.Result),
		Criteria:               services.CriteriaTable(a.Result),
		AdditionalObservations: observations(a.Result),
		FinalRecommendation:    recommendation(a.Result),
		Warnings:               a.Warnings,
	}
	if a.ReportID != nil {
		resp.ReportID = a.ReportID.String()
	}
	return c.JSON(resp)
}

func (h *ScreeningHandler) CurrentDocument(c *fiber.Ctx) error {
	a := currentSession(c).Analysis
	if a == nil || len(a.Document) == 0 {
		return respondError(c, apperror.New(apperror.KindNotFound, "screening.CurrentDocument", "no report document in this session yet"))
	}
	return sendDocument(c, a.DocumentName, a.Document)
}

func sendDocument(c *fiber.Ctx, name string, data []byte) error {
	c.Attachment(name)
	c.Set(fiber.HeaderContentType, services.DocxContentType)
	return c.Send(data)
}
