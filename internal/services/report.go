package services

import (
	"bytes"
	_ "embed"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/nguyenthenguyen/docx"

	"alfredoptarigan/cv-screener/internal/apperror"
	"alfredoptarigan/cv-screener/internal/models"
)

//go:generate go run ../../cmd/screenctl build-template --out templates/report_template.docx

//go:embed templates/report_template.docx
var reportTemplate []byte

const (
	DocxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

	reportTitle           = "JD-CV Comparative Analysis Report"
	evaluationHeading     = "🧾 Candidate Evaluation Table"
	criteriaHeading       = "✅ Additional Observations (Criteria Comparison)"
	observationsHeading   = "General Observations"
	recommendationHeading = "📌 Final Shortlist Recommendation"
	reportBodyPlaceholder = `<w:p><w:r><w:t>{{REPORT_BODY}}</w:t></w:r></w:p>`
	tableCellHalfPoints   = 18 // 9pt
	textWidthTwips        = 9360
	reportTimestampLayout = "2006-01-02 15:04:05"
	reportFilenameLayout  = "20060102_150405"
	reportFilenameInfix   = "_JD-CV_Comparison_Analysis_"
)

type ReportAssembler interface {
	Assemble(result *models.AnalysisResult, jdFilename, candidatesJoined string, generatedAt time.Time) ([]byte, error)
}

type reportAssembler struct {
	brand string
}

func NewReportAssembler(brand string) ReportAssembler {
	return &reportAssembler{brand: brand}
}

// ReportFilename is the download name offered for a generated report.
func ReportFilename(userName string, generatedAt time.Time) string {
	name := strings.Join(strings.Fields(userName), "")
	if name == "" {
		name = "Report"
	}
	return name + reportFilenameInfix + generatedAt.Format(reportFilenameLayout) + ".docx"
}

// EvaluationTable renders the candidate evaluations in the fixed column
// order, padding missing fields.
func EvaluationTable(result *models.AnalysisResult) models.TableView {
	view := models.TableView{Headers: append([]string(nil), models.EvaluationColumns...)}
	for _, eval := range result.CandidateEvaluations {
		view.Rows = append(view.Rows, eval.Cells())
	}
	return view
}

// CriteriaTable renders the criteria observations with one column per
// candidate key, in the order the keys first appear.
func CriteriaTable(result *models.AnalysisResult) models.TableView {
	columns := result.CriteriaColumns()
	view := models.TableView{Headers: append([]string{models.CriteriaColumn}, columns...)}

	for _, row := range result.CriteriaObservations {
		cells := make([]string, 0, len(view.Headers))
		cells = append(cells, padCell(row.Criteria))
		for _, col := range columns {
			value, _ := row.Value(col)
			cells = append(cells, padCell(value))
		}
		view.Rows = append(view.Rows, cells)
	}
	return view
}

func padCell(v string) string {
	if strings.TrimSpace(v) == "" {
		return models.MissingCellValue
	}
	return v
}

// Assemble builds the complete report or nothing.
func (a *reportAssembler) Assemble(result *models.AnalysisResult, jdFilename, candidatesJoined string, generatedAt time.Time) ([]byte, error) {
	const op = "report.Assemble"

	if result == nil {
		return nil, apperror.New(apperror.KindInternal, op, "no analysis result to render")
	}

	var body strings.Builder
	writeParagraph(&body, "Title", []run{{text: reportTitle}})
	writeParagraph(&body, "", []run{{text: "Generated by " + a.brand, italic: true}})
	writeParagraph(&body, "", []run{{text: "Date: " + generatedAt.Format(reportTimestampLayout), smallCaps: true}})
	writeParagraph(&body, "", []run{{text: "Job Description: " + jdFilename + "\nCandidates: " + candidatesJoined}})
	writeParagraph(&body, "", nil)

	if len(result.CandidateEvaluations) > 0 {
		writeParagraph(&body, "Heading1", []run{{text: evaluationHeading}})
		writeTable(&body, EvaluationTable(result))
		writeParagraph(&body, "", nil)
	}

	if len(result.CriteriaObservations) > 0 {
		writeParagraph(&body, "Heading1", []run{{text: criteriaHeading}})
		writeTable(&body, CriteriaTable(result))
		writeParagraph(&body, "", nil)
	}

	if result.HasObservations() {
		writeParagraph(&body, "Heading2", []run{{text: observationsHeading}})
		writeParagraph(&body, "", []run{{text: strings.TrimSpace(result.AdditionalObservations)}})
		writeParagraph(&body, "", nil)
	}

	if result.HasRecommendation() {
		writeParagraph(&body, "Heading1", []run{{text: recommendationHeading}})
		writeParagraph(&body, "", []run{{text: strings.TrimSpace(result.FinalRecommendation), bold: true}})
	}

	document, err := renderTemplate(body.String())
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, op, "could not generate the report document", err)
	}
	return document, nil
}

func renderTemplate(body string) ([]byte, error) {
	tmpl, err := docx.ReadDocxFromMemory(bytes.NewReader(reportTemplate), int64(len(reportTemplate)))
	if err != nil {
		return nil, fmt.Errorf("failed to open report template: %w", err)
	}
	defer tmpl.Close()

	doc := tmpl.Editable()
	content := doc.GetContent()
	if !strings.Contains(content, reportBodyPlaceholder) {
		return nil, fmt.Errorf("report template has no body placeholder")
	}
	doc.SetContent(strings.Replace(content, reportBodyPlaceholder, body, 1))

	var buf bytes.Buffer
	if err := doc.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}
	return buf.Bytes(), nil
}

// ReadReportTables reads every table of a generated report back, first row
// as headers.
func ReadReportTables(document []byte) ([]models.TableView, error) {
	content, err := readDocumentXML(document)
	if err != nil {
		return nil, err
	}
	tables, err := docxTables(content)
	if err != nil {
		return nil, err
	}

	views := make([]models.TableView, 0, len(tables))
	for _, tbl := range tables {
		var view models.TableView
		for i, row := range tbl {
			if i == 0 {
				view.Headers = row
				continue
			}
			view.Rows = append(view.Rows, row)
		}
		views = append(views, view)
	}
	return views, nil
}

type run struct {
	text      string
	bold      bool
	italic    bool
	smallCaps bool
	halfPts   int
}

func writeParagraph(b *strings.Builder, style string, runs []run) {
	b.WriteString("<w:p>")
	if style != "" {
		fmt.Fprintf(b, `<w:pPr><w:pStyle w:val="%s"/></w:pPr>`, style)
	}
	for _, r := range runs {
		writeRun(b, r)
	}
	b.WriteString("</w:p>")
}

func writeRun(b *strings.Builder, r run) {
	b.WriteString("<w:r>")
	if r.bold || r.italic || r.smallCaps || r.halfPts > 0 {
		b.WriteString("<w:rPr>")
		if r.bold {
			b.WriteString("<w:b/>")
		}
		if r.italic {
			b.WriteString("<w:i/>")
		}
		if r.smallCaps {
			b.WriteString("<w:smallCaps/>")
		}
		if r.halfPts > 0 {
			fmt.Fprintf(b, `<w:sz w:val="%d"/><w:szCs w:val="%d"/>`, r.halfPts, r.halfPts)
		}
		b.WriteString("</w:rPr>")
	}
	for i, line := range strings.Split(r.text, "\n") {
		if i > 0 {
			b.WriteString("<w:br/>")
		}
		b.WriteString(`<w:t xml:space="preserve">`)
		b.WriteString(xmlEscape(line))
		b.WriteString("</w:t>")
	}
	b.WriteString("</w:r>")
}

func writeTable(b *strings.Builder, table models.TableView) {
	cols := len(table.Headers)
	if cols == 0 {
		return
	}
	width := textWidthTwips / cols

	b.WriteString(`<w:tbl><w:tblPr><w:tblStyle w:val="TableGrid"/><w:tblW w:w="5000" w:type="pct"/>`)
	b.WriteString(`<w:tblLook w:val="04A0" w:firstRow="1" w:lastRow="0" w:firstColumn="1" w:lastColumn="0" w:noHBand="0" w:noVBand="1"/></w:tblPr>`)
	b.WriteString("<w:tblGrid>")
	for i := 0; i < cols; i++ {
		fmt.Fprintf(b, `<w:gridCol w:w="%d"/>`, width)
	}
	b.WriteString("</w:tblGrid>")

	b.WriteString("<w:tr><w:trPr><w:tblHeader/></w:trPr>")
	for _, h := range table.Headers {
		writeCell(b, width, run{text: h, bold: true, halfPts: tableCellHalfPoints}, true)
	}
	b.WriteString("</w:tr>")

	for _, row := range table.Rows {
		b.WriteString("<w:tr>")
		for i := 0; i < cols; i++ {
			value := models.MissingCellValue
			if i < len(row) {
				value = row[i]
			}
			writeCell(b, width, run{text: value, halfPts: tableCellHalfPoints}, false)
		}
		b.WriteString("</w:tr>")
	}
	b.WriteString("</w:tbl>")
}

func writeCell(b *strings.Builder, width int, r run, header bool) {
	fmt.Fprintf(b, `<w:tc><w:tcPr><w:tcW w:w="%d" w:type="dxa"/>`, width)
	if header {
		b.WriteString(`<w:vAlign w:val="center"/>`)
	}
	b.WriteString("</w:tcPr><w:p>")
	writeRun(b, r)
	b.WriteString("</w:p></w:tc>")
}

func xmlEscape(s string) string {
	var buf bytes.Buffer
	// EscapeText only fails when the writer does
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
