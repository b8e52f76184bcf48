package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	NoObservationsSentinel   = "No general observations provided."
	NoRecommendationSentinel = "No final recommendation provided."
	MissingCellValue         = "N/A"
	CriteriaColumn           = "Criteria"
)

// EvaluationColumns is the fixed column order of the candidate evaluation
// table. The names double as the JSON keys the model is asked to produce.
var EvaluationColumns = []string{
	"Candidate Name",
	"Match %",
	"Ranking",
	"Shortlist Probability",
	"Key Strengths",
	"Key Gaps",
	"Location Suitability",
	"Comments",
}

// FlexString accepts a JSON string or number. Models occasionally answer
// "Match %": 85 despite being asked for "85%".
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", string(b))
	}
	*f = FlexString(n.String())
	return nil
}

type CandidateEvaluation struct {
	CandidateName        string     `json:"Candidate Name"`
	MatchPercent         FlexString `json:"Match %"`
	Ranking              FlexString `json:"Ranking"`
	ShortlistProbability string     `json:"Shortlist Probability"`
	KeyStrengths         string     `json:"Key Strengths"`
	KeyGaps              string     `json:"Key Gaps"`
	LocationSuitability  string     `json:"Location Suitability"`
	Comments             string     `json:"Comments"`
}

// Cells returns the row in EvaluationColumns order with blanks padded.
func (e CandidateEvaluation) Cells() []string {
	values := []string{
		e.CandidateName,
		string(e.MatchPercent),
		string(e.Ranking),
		e.ShortlistProbability,
		e.KeyStrengths,
		e.KeyGaps,
		e.LocationSuitability,
		e.Comments,
	}
	for i, v := range values {
		if strings.TrimSpace(v) == "" {
			values[i] = MissingCellValue
		}
	}
	return values
}

type CriteriaCell struct {
	Column string
	Value  string
}

// CriteriaRow keeps its candidate columns in the order the model emitted
// them; that order becomes the column order of the comparison table.
type CriteriaRow struct {
	Criteria string
	Cells    []CriteriaCell
}

func (r *CriteriaRow) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("criteria row must be an object")
	}

	row := CriteriaRow{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)
		// column keys are matched against trimmed candidate names
		key = strings.TrimSpace(key)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		value, err := scalarText(raw)
		if err != nil {
			return fmt.Errorf("criteria row %q: %w", key, err)
		}

		if key == CriteriaColumn {
			row.Criteria = value
			continue
		}
		row.Cells = append(row.Cells, CriteriaCell{Column: key, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*r = row
	return nil
}

func (r CriteriaRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	writePair := func(key, value string) error {
		k, err := json.Marshal(key)
		if err != nil {
			return err
		}
		v, err := json.Marshal(value)
		if err != nil {
			return err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
		return nil
	}
	if err := writePair(CriteriaColumn, r.Criteria); err != nil {
		return nil, err
	}
	for _, cell := range r.Cells {
		buf.WriteByte(',')
		if err := writePair(cell.Column, cell.Value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r CriteriaRow) Value(column string) (string, bool) {
	for _, cell := range r.Cells {
		if cell.Column == column {
			return cell.Value, true
		}
	}
	return "", false
}

func scalarText(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
		return "", nil
	case raw[0] == '"':
		var s string
		err := json.Unmarshal(raw, &s)
		return s, err
	case raw[0] == '{' || raw[0] == '[':
		return "", fmt.Errorf("expected a scalar value")
	default:
		return string(raw), nil
	}
}

// AnalysisResult is the structured comparison returned by the model.
type AnalysisResult struct {
	CandidateEvaluations   []CandidateEvaluation `json:"candidate_evaluations"`
	CriteriaObservations   []CriteriaRow         `json:"criteria_observations"`
	AdditionalObservations string                `json:"additional_observations_text,omitempty"`
	FinalRecommendation    string                `json:"final_shortlist_recommendation,omitempty"`
}

// CriteriaColumns is the union of candidate columns across all rows in
// first-appearance order, excluding the label column.
func (a *AnalysisResult) CriteriaColumns() []string {
	seen := make(map[string]bool)
	var columns []string
	for _, row := range a.CriteriaObservations {
		for _, cell := range row.Cells {
			if !seen[cell.Column] {
				seen[cell.Column] = true
				columns = append(columns, cell.Column)
			}
		}
	}
	return columns
}

func (a *AnalysisResult) HasObservations() bool {
	text := strings.TrimSpace(a.AdditionalObservations)
	return text != "" && text != NoObservationsSentinel
}

func (a *AnalysisResult) HasRecommendation() bool {
	text := strings.TrimSpace(a.FinalRecommendation)
	return text != "" && text != NoRecommendationSentinel
}

// Summary is the text stored alongside a persisted report.
func (a *AnalysisResult) Summary() string {
	if a.HasRecommendation() {
		return strings.TrimSpace(a.FinalRecommendation)
	}
	return DefaultReportSummary
}

// CandidateText is one résumé ready for prompting.
type CandidateText struct {
	DisplayName string
	Filename    string
	Text        string
}

type PromptPayload struct {
	System         string
	User           string
	CandidateNames []string
}

// TableView is a rendered table for on-screen display.
type TableView struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}
