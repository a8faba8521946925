package analyzer

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/yoockh/intake/internal/models"
)

const (
	legacyCategoryID   = "unknown"
	legacyConfidence   = "medium"
	legacyCategoryName = "Other"
)

type response struct {
	MatchedCategories []models.MatchedCategory `json:"matched_categories"`
	PriorityConcerns  []string                 `json:"priority_concerns"`
	ClinicalNotes     string                   `json:"clinical_notes"`

	// older prompt revisions answered with symptom_clusters
	SymptomClusters []struct {
		Category           string   `json:"category"`
		Symptoms           []string `json:"symptoms"`
		SeverityIndicators []string `json:"severity_indicators"`
	} `json:"symptom_clusters"`
}

// Decode parses a model answer into an Analysis. The answer may be wrapped in
// a markdown fence or surrounded by prose.
func Decode(content string) (*models.Analysis, error) {
	var r response
	if err := decodeJSON(content, &r); err != nil {
		return nil, err
	}

	out := &models.Analysis{
		MatchedCategories: r.MatchedCategories,
		PriorityConcerns:  r.PriorityConcerns,
		ClinicalNotes:     r.ClinicalNotes,
	}

	if out.MatchedCategories == nil && len(r.SymptomClusters) > 0 {
		for _, c := range r.SymptomClusters {
			name := c.Category
			if name == "" {
				name = legacyCategoryName
			}
			out.MatchedCategories = append(out.MatchedCategories, models.MatchedCategory{
				CategoryID:         legacyCategoryID,
				CategoryName:       name,
				Confidence:         legacyConfidence,
				PatientSymptoms:    c.Symptoms,
				SeverityIndicators: c.SeverityIndicators,
			})
		}
	}

	normalize(out)
	return out, nil
}

func normalize(a *models.Analysis) {
	if a.MatchedCategories == nil {
		a.MatchedCategories = []models.MatchedCategory{}
	}
	if a.PriorityConcerns == nil {
		a.PriorityConcerns = []string{}
	}
	for i := range a.MatchedCategories {
		c := &a.MatchedCategories[i]
		if c.PatientSymptoms == nil {
			c.PatientSymptoms = []string{}
		}
		if c.SeverityIndicators == nil {
			c.SeverityIndicators = []string{}
		}
	}
}

func decodeJSON(content string, target any) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return errors.New("empty payload")
	}

	directErr := json.Unmarshal([]byte(trimmed), target)
	if directErr == nil {
		return nil
	}

	sanitized := sanitizeJSONPayload(trimmed)
	if sanitized == "" || sanitized == trimmed {
		return directErr
	}
	if err := json.Unmarshal([]byte(sanitized), target); err != nil {
		return fmt.Errorf("%w (after sanitizing)", err)
	}
	return nil
}

func sanitizeJSONPayload(content string) string {
	trimmed := strings.TrimSpace(stripCodeFence(content))
	if trimmed == "" || trimmed[0] == '{' {
		return trimmed
	}
	if start := strings.Index(trimmed, "{"); start >= 0 {
		if end := strings.LastIndex(trimmed, "}"); end > start {
			return strings.TrimSpace(trimmed[start : end+1])
		}
	}
	return trimmed
}

func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	body := strings.TrimLeft(trimmed[3:], " \t\r\n")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = strings.TrimLeft(body[4:], " \t\r\n")
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}
