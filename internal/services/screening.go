package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"alfredoptarigan/cv-screener/internal/apperror"
	"alfredoptarigan/cv-screener/internal/models"
	"alfredoptarigan/cv-screener/internal/session"
)

type UploadedFile struct {
	Filename string
	Data     []byte
}

// Draft is an analysis rendered to a document but not yet persisted.
type Draft struct {
	Result       *models.AnalysisResult
	Evaluations  models.TableView
	Criteria     models.TableView
	Document     []byte
	DocumentName string
	GeneratedAt  time.Time
	JDFilename   string
	CVFilenames  []string
	Warnings     []string
}

type ScreeningOutcome struct {
	*Draft
	Report *models.Report
}

type ScreeningLimits struct {
	MaxFileSize     int64
	MaxCandidateCVs int
}

type ScreeningService interface {
	// Draft runs extraction, the analysis request and report assembly.
	Draft(ctx context.Context, ownerName string, jd UploadedFile, cvs []UploadedFile) (*Draft, error)
	// Screen drafts and persists a report for the session's user, recording
	// progress in the session state.
	Screen(ctx context.Context, st *session.State, jd UploadedFile, cvs []UploadedFile) (*ScreeningOutcome, error)
}

type screeningService struct {
	extractor TextExtractor
	prompts   *PromptBuilder
	analysis  AnalysisClient
	assembler ReportAssembler
	gateway   PersistenceGateway
	indexer   ReportIndexer
	limits    ScreeningLimits
	logger    *slog.Logger
	now       func() time.Time
}

// NewScreeningService wires the pipeline. gateway and indexer may be nil
// for draft-only use.
func NewScreeningService(
	extractor TextExtractor,
	analysis AnalysisClient,
	assembler ReportAssembler,
	gateway PersistenceGateway,
	indexer ReportIndexer,
	limits ScreeningLimits,
	logger *slog.Logger,
) ScreeningService {
	if logger == nil {
		logger = slog.Default()
	}
	return &screeningService{
		extractor: extractor,
		prompts:   NewPromptBuilder(),
		analysis:  analysis,
		assembler: assembler,
		gateway:   gateway,
		indexer:   indexer,
		limits:    limits,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *screeningService) checkInput(jd UploadedFile, cvs []UploadedFile) error {
	const op = "screening.checkInput"

	if jd.Filename == "" || len(jd.Data) == 0 {
		return apperror.New(apperror.KindValidation, op, "please upload a job description")
	}
	if len(cvs) == 0 {
		return apperror.New(apperror.KindValidation, op, "please upload at least one candidate CV")
	}
	if s.limits.MaxCandidateCVs > 0 && len(cvs) > s.limits.MaxCandidateCVs {
		return apperror.New(apperror.KindValidation, op,
			fmt.Sprintf("at most %d candidate CVs can be compared at once", s.limits.MaxCandidateCVs))
	}
	if s.limits.MaxFileSize > 0 {
		for _, f := range append([]UploadedFile{jd}, cvs...) {
			if int64(len(f.Data)) > s.limits.MaxFileSize {
				return apperror.New(apperror.KindValidation, op,
					fmt.Sprintf("%q is larger than the %d byte upload limit", f.Filename, s.limits.MaxFileSize))
			}
		}
	}
	return nil
}

func (s *screeningService) Draft(ctx context.Context, ownerName string, jd UploadedFile, cvs []UploadedFile) (*Draft, error) {
	const op = "screening.Draft"

	if err := s.checkInput(jd, cvs); err != nil {
		return nil, err
	}

	jdText, err := s.extractor.Extract(jd.Data, jd.Filename)
	if err != nil {
		return nil, err
	}
	if CleanText(jdText) == "" {
		return nil, apperror.New(apperror.KindParse, op, fmt.Sprintf("no readable text found in %q", jd.Filename))
	}

	draft := &Draft{JDFilename: jd.Filename}
	candidates := make([]models.CandidateText, 0, len(cvs))
	for _, cv := range cvs {
		text, err := s.extractor.Extract(cv.Data, cv.Filename)
		if err == nil && CleanText(text) == "" {
			err = fmt.Errorf("no readable text")
		}
		if err != nil {
			s.logger.Warn("candidate CV skipped", slog.String("file", cv.Filename), slog.Any("error", err))
			draft.Warnings = append(draft.Warnings, fmt.Sprintf("Skipped %s: it could not be read.", cv.Filename))
			continue
		}
		candidates = append(candidates, models.CandidateText{
			DisplayName: DisplayName(cv.Filename),
			Filename:    cv.Filename,
			Text:        text,
		})
		draft.CVFilenames = append(draft.CVFilenames, cv.Filename)
	}
	if len(candidates) == 0 {
		return nil, apperror.New(apperror.KindParse, op, "none of the candidate CVs could be read")
	}

	payload, err := s.prompts.BuildAnalysisPrompt(jdText, candidates)
	if err != nil {
		return nil, err
	}

	result, err := s.analysis.Analyze(ctx, payload)
	if err != nil {
		return nil, err
	}

	draft.GeneratedAt = s.now()
	draft.Result = result
	draft.Evaluations = EvaluationTable(result)
	draft.Criteria = CriteriaTable(result)
	draft.DocumentName = ReportFilename(ownerName, draft.GeneratedAt)
	draft.Document, err = s.assembler.Assemble(result, jd.Filename, strings.Join(draft.CVFilenames, ", "), draft.GeneratedAt)
	if err != nil {
		return nil, err
	}

	return draft, nil
}

// Screen never discards a finished analysis: when persisting fails the
// document stays downloadable from the session and the outcome carries a
// warning instead of an error.
func (s *screeningService) Screen(ctx context.Context, st *session.State, jd UploadedFile, cvs []UploadedFile) (*ScreeningOutcome, error) {
	log := s.logger.With(slog.String("user_id", st.UserID.String()), slog.String("session_id", st.ID))

	filenames := make([]string, 0, len(cvs))
	for _, cv := range cvs {
		filenames = append(filenames, cv.Filename)
	}
	st.BeginAnalysis(jd.Filename, filenames, s.now())

	draft, err := s.Draft(ctx, st.DisplayName, jd, cvs)
	if err != nil {
		log.Error("screening failed", slog.Any("error", err))
		st.FailAnalysis(apperror.PublicMessage(err), s.now())
		return nil, err
	}

	st.CompleteAnalysis(draft.Result, draft.Document, draft.DocumentName, s.now())
	if st.Analysis != nil {
		st.Analysis.CandidateFilenames = append([]string(nil), draft.CVFilenames...)
	}
	for _, w := range draft.Warnings {
		st.AddWarning(w, s.now())
	}

	outcome := &ScreeningOutcome{Draft: draft}
	if s.gateway == nil {
		return outcome, nil
	}

	report, err := s.gateway.Persist(ctx, draft.Document, ReportMetadata{
		OwnerID:                st.UserID,
		OwnerEmail:             st.Email,
		OwnerName:              st.DisplayName,
		JobDescriptionFilename: draft.JDFilename,
		CandidateFilenames:     draft.CVFilenames,
		DocumentFilename:       draft.DocumentName,
		Summary:                draft.Result.Summary(),
		GeneratedAt:            draft.GeneratedAt,
	})
	if err != nil {
		warning := "The analysis finished but the report could not be saved: " + apperror.PublicMessage(err) +
			". You can still download it from this session."
		draft.Warnings = append(draft.Warnings, warning)
		st.AddWarning(warning, s.now())
		log.Warn("report not persisted", slog.Any("error", err))
		return outcome, nil
	}

	outcome.Report = report
	st.AttachReport(report.ID, report.DocumentURL, s.now())
	if s.indexer != nil {
		s.indexer.Index(ctx, report, draft.Result)
	}

	log.Info("screening completed",
		slog.String("report_id", report.ID.String()),
		slog.Int("candidates", len(draft.CVFilenames)),
		slog.Int("warnings", len(draft.Warnings)),
	)
	return outcome, nil
}
