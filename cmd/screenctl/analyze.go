package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"alfredoptarigan/cv-screener/internal/apperror"
	"alfredoptarigan/cv-screener/internal/bootstrap"
	"alfredoptarigan/cv-screener/internal/config"
	"alfredoptarigan/cv-screener/internal/models"
	"alfredoptarigan/cv-screener/internal/services"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Compare candidate CVs against a job description and write the report",
	Long:  "Extract text from a job description and one or more CVs, run a single analysis request and write the DOCX report. Nothing is persisted.",
	RunE:  runAnalyze,
}

var (
	analyzeJD     string
	analyzeCVs    []string
	analyzeOut    string
	analyzeOwner  string
)

func init() {
	analyzeCmd.Flags().StringVar(&analyzeJD, "jd", "", "Path to the job description (PDF, DOCX or TXT)")
	analyzeCmd.Flags().StringSliceVar(&analyzeCVs, "cv", nil, "Path to a candidate CV; repeat or comma-separate for several")
	analyzeCmd.Flags().StringVarP(&analyzeOut, "out", "o", "", "Report file to write (default: the generated report name in the current directory)")
	analyzeCmd.Flags().StringVar(&analyzeOwner, "owner", "Report", "Name used in the report filename")
	_ = analyzeCmd.MarkFlagRequired("jd")
	_ = analyzeCmd.MarkFlagRequired("cv")

	rootCmd.AddCommand(analyzeCmd)
}

func readUpload(path string) (services.UploadedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return services.UploadedFile{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return services.UploadedFile{Filename: filepath.Base(path), Data: data}, nil
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	cfg := config.Load()
	logger := bootstrap.NewLogger(cfg)

	jd, err := readUpload(analyzeJD)
	if err != nil {
		return err
	}
	cvs := make([]services.UploadedFile, 0, len(analyzeCVs))
	for _, path := range analyzeCVs {
		cv, err := readUpload(path)
		if err != nil {
			return err
		}
		cvs = append(cvs, cv)
	}

	analysis, _, err := bootstrap.NewAnalysisClient(ctx, cfg, logger)
	if err != nil {
		return err
	}
	screening := services.NewScreeningService(
		services.NewTextExtractor(),
		analysis,
		services.NewReportAssembler(cfg.Report.BrandName),
		nil,
		nil,
		services.ScreeningLimits{MaxFileSize: cfg.Storage.MaxFileSize, MaxCandidateCVs: cfg.Storage.MaxCandidateCVs},
		logger,
	)

	draft, err := screening.Draft(ctx, analyzeOwner, jd, cvs)
	if err != nil {
		if appErr, ok := apperror.As(err); ok && appErr.Raw != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Raw response:\n%s\n", appErr.Raw)
		}
		return err
	}

	out := cmd.OutOrStdout()
	for _, w := range draft.Warnings {
		fmt.Fprintf(out, "⚠️  %s\n", w)
	}
	printTable(out, draft.Evaluations)
	if len(draft.Criteria.Rows) > 0 {
		fmt.Fprintln(out)
		printTable(out, draft.Criteria)
	}
	if draft.Result.HasRecommendation() {
		fmt.Fprintf(out, "\n%s\n", draft.Result.FinalRecommendation)
	}

	target := analyzeOut
	if target == "" {
		target = draft.DocumentName
	}
	if dir := filepath.Dir(target); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(target, draft.Document, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	fmt.Fprintf(out, "\n✅ Report written to %s\n", target)
	return nil
}

func printTable(out io.Writer, table models.TableView) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(table.Headers, "\t"))
	for _, row := range table.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	_ = tw.Flush()
}
