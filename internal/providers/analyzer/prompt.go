package analyzer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yoockh/intake/internal/models"
)

const noResponse = "[No response recorded]"

// BuildPrompt renders the analysis request: the category taxonomy, each
// question with the patient's answer, and the required JSON shape.
func BuildPrompt(catalog *models.Catalog, transcripts map[int]string) string {
	var b strings.Builder

	clinic := catalog.ClinicName
	if clinic == "" {
		clinic = "a Long-COVID clinic"
	}
	fmt.Fprintf(&b, "You are a medical intake analyst for %s. Analyze these patient responses and extract structured information about their symptoms.\n\n", clinic)

	if len(catalog.Categories) > 0 {
		b.WriteString("## Available Symptom Categories\n\n")
		for _, c := range catalog.Categories {
			fmt.Fprintf(&b, "- **%s** (ID: %s)\n  %s\n\n", c.Name, c.ID, c.Description)
		}
	}

	b.WriteString("## Patient Interview Responses\n\n")
	for _, id := range questionOrder(catalog, transcripts) {
		text, ok := transcripts[id]
		if !ok {
			text = noResponse
		}
		if q, found := catalog.Question(id); found {
			fmt.Fprintf(&b, "### Question %d: %s\n%q\n\n", id, q.Title, q.Text)
		} else {
			fmt.Fprintf(&b, "### Question %d\n\n", id)
		}
		fmt.Fprintf(&b, "Patient's response:\n%s\n\n", text)
	}

	b.WriteString(`---

## Analysis Task

Match the patient's symptoms to the categories listed above. Use ONLY the exact category_id and category_name values from the list.
Stick to what the patient actually said; do not infer symptoms they did not mention.

Return ONLY a JSON object in exactly this format, with no markdown and no other text:

{
  "matched_categories": [
    {
      "category_id": "exact id from the list",
      "category_name": "exact name from the list",
      "confidence": "high|medium|low",
      "patient_symptoms": ["specific symptom they mentioned"],
      "severity_indicators": ["direct quote showing severity"]
    }
  ],
  "priority_concerns": ["their top concern 1", "their top concern 2", "their top concern 3"],
  "clinical_notes": "Brief 1-2 sentence summary for the clinical team"
}
`)
	return b.String()
}

// questionOrder lists catalog questions first, then any extra transcript ids.
func questionOrder(catalog *models.Catalog, transcripts map[int]string) []int {
	ids := catalog.QuestionIDs()
	var extra []int
	for id := range transcripts {
		if !catalog.HasQuestion(id) {
			extra = append(extra, id)
		}
	}
	sort.Ints(extra)
	return append(ids, extra...)
}
