package services

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/cv-screener/internal/models"
)

func sampleResult(t *testing.T) *models.AnalysisResult {
	t.Helper()
	var result models.AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(sampleAnalysisJSON), &result))
	SanitizeRankings(&result)
	return &result
}

var reportTime = time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

func TestAssembleRendersBothTables(t *testing.T) {
	doc, err := NewReportAssembler("SSO Consultants AI").Assemble(sampleResult(t), "jd.pdf", "alice.pdf, bob.docx", reportTime)
	require.NoError(t, err)

	tables, err := ReadReportTables(doc)
	require.NoError(t, err)
	require.Len(t, tables, 2)

	eval := tables[0]
	assert.Equal(t, models.EvaluationColumns, eval.Headers)
	require.Len(t, eval.Rows, 2)
	assert.Equal(t, []string{"Alice", "85%", "1", "High", "Campus hiring, ATS ownership", "No leadership hiring", "Pune", "Strong fit"}, eval.Rows[0])
	assert.Equal(t, []string{"Bob", "70", "2", "Moderate", "Sourcing", "N/A", "N/A", "N/A"}, eval.Rows[1])

	criteria := tables[1]
	assert.Equal(t, []string{"Criteria", "Alice", "Bob"}, criteria.Headers)
	assert.Equal(t, []string{"Education (MBA HR)", "✅", "⚠️"}, criteria.Rows[0])
}

func TestAssembleIncludesNarrativeSections(t *testing.T) {
	doc, err := NewReportAssembler("Acme & Co").Assemble(sampleResult(t), "jd.pdf", "alice.pdf, bob.docx", reportTime)
	require.NoError(t, err)

	content, err := readDocumentXML(doc)
	require.NoError(t, err)
	paragraphs, err := docxParagraphs(content)
	require.NoError(t, err)

	assert.Contains(t, paragraphs, reportTitle)
	assert.Contains(t, paragraphs, "Generated by Acme & Co")
	assert.Contains(t, paragraphs, "Date: 2024-03-09 14:05:07")
	assert.Contains(t, paragraphs, "Job Description: jd.pdf\nCandidates: alice.pdf, bob.docx")
	assert.Contains(t, paragraphs, observationsHeading)
	assert.Contains(t, paragraphs, "Both candidates are based in Maharashtra.")
	assert.Contains(t, paragraphs, recommendationHeading)
	assert.Contains(t, paragraphs, "Shortlist Alice.")
	assert.NotContains(t, content, "{{REPORT_BODY}}")
}

func TestAssembleOmitsSentinelSections(t *testing.T) {
	result := sampleResult(t)
	result.AdditionalObservations = models.NoObservationsSentinel
	result.FinalRecommendation = ""
	result.CriteriaObservations = nil

	doc, err := NewReportAssembler("x").Assemble(result, "jd.txt", "a.txt", reportTime)
	require.NoError(t, err)

	content, err := readDocumentXML(doc)
	require.NoError(t, err)
	paragraphs, err := docxParagraphs(content)
	require.NoError(t, err)

	assert.NotContains(t, paragraphs, observationsHeading)
	assert.NotContains(t, paragraphs, recommendationHeading)
	assert.NotContains(t, paragraphs, criteriaHeading)

	tables, err := ReadReportTables(doc)
	require.NoError(t, err)
	assert.Len(t, tables, 1)
}

func TestCriteriaTablePadsMissingColumns(t *testing.T) {
	var result models.AnalysisResult
	raw := `{"candidate_evaluations":[{"Candidate Name":"A"}],
		"criteria_observations":[{"Criteria":"Skills","A":"✅"},{"Criteria":"Location","B":"❌","A":""}]}`
	require.NoError(t, json.Unmarshal([]byte(raw), &result))

	view := CriteriaTable(&result)
	assert.Equal(t, []string{"Criteria", "A", "B"}, view.Headers)
	assert.Equal(t, [][]string{
		{"Skills", "✅", "N/A"},
		{"Location", "N/A", "❌"},
	}, view.Rows)
}

func TestAssembleEscapesMarkupAndKeepsLineBreaks(t *testing.T) {
	result := sampleResult(t)
	result.CandidateEvaluations[0].Comments = "<b>bold</b> & more\nsecond line"

	doc, err := NewReportAssembler("x").Assemble(result, "jd.pdf", "a", reportTime)
	require.NoError(t, err)

	tables, err := ReadReportTables(doc)
	require.NoError(t, err)
	assert.Equal(t, "<b>bold</b> & more\nsecond line", tables[0].Rows[0][7])
}

func TestAssembleNilResult(t *testing.T) {
	_, err := NewReportAssembler("x").Assemble(nil, "jd", "a", reportTime)
	assert.Error(t, err)
}

func TestReportFilename(t *testing.T) {
	assert.Equal(t, "JaneDoe_JD-CV_Comparison_Analysis_20240309_140507.docx", ReportFilename("Jane Doe", reportTime))
	assert.Equal(t, "Report_JD-CV_Comparison_Analysis_20240309_140507.docx", ReportFilename("  ", reportTime))
}
