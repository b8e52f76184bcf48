package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"alfredoptarigan/cv-screener/internal/services"
)

var buildTemplateCmd = &cobra.Command{
	Use:   "build-template",
	Short: "Regenerate the blank report template",
	Long:  "Write the .docx template the report assembler embeds. Run through go generate in internal/services after changing page setup or styles.",
	Args:  cobra.NoArgs,
	RunE:  runBuildTemplate,
}

var templateOut string

func init() {
	buildTemplateCmd.Flags().StringVarP(&templateOut, "out", "o", "internal/services/templates/report_template.docx", "Template file to write")
	rootCmd.AddCommand(buildTemplateCmd)
}

func runBuildTemplate(cmd *cobra.Command, _ []string) error {
	if err := os.MkdirAll(filepath.Dir(templateOut), 0o755); err != nil {
		return fmt.Errorf("failed to create template directory: %w", err)
	}
	f, err := os.Create(templateOut)
	if err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}
	if err := services.WriteReportTemplate(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write template: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✅ wrote %s\n", templateOut)
	return nil
}
