package services

import (
	"fmt"
	"path/filepath"
	"strings"

	"alfredoptarigan/cv-screener/internal/apperror"
	"alfredoptarigan/cv-screener/internal/models"
)

const analysisSystemPrompt = `You are an expert Talent Acquisition professional. Your task is to perform a detailed comparative analysis of multiple candidate CVs against a given Job Description (JD).

Your output MUST be a single JSON object with the following structure, containing two arrays for tables and two strings for text sections:
{
  "candidate_evaluations": [
    {
      "Candidate Name": "...",
      "Match %": "...",
      "Ranking": "...",
      "Shortlist Probability": "...",
      "Key Strengths": "...",
      "Key Gaps": "...",
      "Location Suitability": "...",
      "Comments": "..."
    }
  ],
  "criteria_observations": [
    {
      "Criteria": "Education (MBA HR)",
      "<Candidate 1 Name>": "✅/❌/⚠️",
      "<Candidate 2 Name>": "✅/❌/⚠️"
    }
  ],
  "additional_observations_text": "...",
  "final_shortlist_recommendation": "..."
}

Rules:
- Produce exactly one "candidate_evaluations" entry per candidate, in the order the candidates are given.
- "Candidate Name" and every candidate column key in "criteria_observations" MUST be the exact Name given for that candidate.
- "Match %" is a percentage string such as "85%".
- "Ranking" is a plain numeral string such as "1" or "2", with no emoji or medal symbols.
- "Shortlist Probability" is one of "High", "Moderate" or "Low".
- "Key Strengths" and "Key Gaps" are concise comma-separated points.
- "Location Suitability" names the location fit, e.g. "Pune", "Remote (flexible)" or "Not Specified".
- In "criteria_observations" use ✅ for a good fit, ❌ for not a fit and ⚠️ for a partial fit.
- "additional_observations_text" holds general observations not covered by the tables.
- "final_shortlist_recommendation" names the shortlisted candidates explicitly.`

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// DisplayName derives the candidate label from an uploaded filename: the
// extension goes, then a trailing " CV", then surrounding whitespace.
func DisplayName(filename string) string {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.TrimSuffix(base, " CV")
	return strings.TrimSpace(base)
}

// BuildAnalysisPrompt assembles the fixed system instruction and the user
// message embedding the JD and every candidate in upload order. It fails
// before any network call when there is nothing to compare.
func (pb *PromptBuilder) BuildAnalysisPrompt(jobText string, candidates []models.CandidateText) (*models.PromptPayload, error) {
	const op = "prompt.BuildAnalysisPrompt"

	if strings.TrimSpace(jobText) == "" {
		return nil, apperror.New(apperror.KindValidation, op, "job description text is empty")
	}
	if len(candidates) == 0 {
		return nil, apperror.New(apperror.KindValidation, op, "at least one candidate CV is required")
	}

	seen := make(map[string]string, len(candidates))
	names := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c.DisplayName == "" {
			return nil, apperror.New(apperror.KindValidation, op,
				fmt.Sprintf("cannot derive a candidate name from %q", c.Filename))
		}
		if previous, dup := seen[c.DisplayName]; dup {
			return nil, apperror.New(apperror.KindValidation, op,
				fmt.Sprintf("%q and %q both resolve to candidate name %q; rename one of the files", previous, c.Filename, c.DisplayName))
		}
		seen[c.DisplayName] = c.Filename
		names = append(names, c.DisplayName)
	}

	var user strings.Builder
	fmt.Fprintf(&user, "Here is the Job Description (JD):\n---\n%s\n---\n\n", strings.TrimSpace(jobText))
	user.WriteString("Here are the Candidate CVs for comparative analysis:\n")
	for i, c := range candidates {
		fmt.Fprintf(&user, "\n--- Candidate %d (Name: %s, Filename: %s) ---\n", i+1, c.DisplayName, c.Filename)
		user.WriteString(c.Text)
		user.WriteString("\n")
	}
	user.WriteString("--- End of Candidate CVs ---\n\n")
	user.WriteString("Please provide the comparative analysis in the specified JSON format.")

	return &models.PromptPayload{
		System:         analysisSystemPrompt,
		User:           user.String(),
		CandidateNames: names,
	}, nil
}
