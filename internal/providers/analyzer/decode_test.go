package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wellFormed = `{
  "matched_categories": [
    {
      "category_id": "brain_fog",
      "category_name": "Brain Fog & Mental Fatigue",
      "confidence": "high",
      "patient_symptoms": ["can't concentrate"],
      "severity_indicators": ["I had to stop working"]
    }
  ],
  "priority_concerns": ["brain fog", "fatigue"],
  "clinical_notes": "Cognitive symptoms dominate."
}`

func TestDecodeVariants(t *testing.T) {
	cases := map[string]string{
		"plain":         wellFormed,
		"fenced":        "```json\n" + wellFormed + "\n```",
		"bare fence":    "```\n" + wellFormed + "\n```",
		"with prose":    "Here is the analysis:\n" + wellFormed + "\nLet me know if you need more.",
		"leading space": "\n\n  " + wellFormed,
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			a, err := Decode(in)
			require.NoError(t, err)
			require.Len(t, a.MatchedCategories, 1)
			assert.Equal(t, "brain_fog", a.MatchedCategories[0].CategoryID)
			assert.Equal(t, []string{"brain fog", "fatigue"}, a.PriorityConcerns)
			assert.Equal(t, "Cognitive symptoms dominate.", a.ClinicalNotes)
			assert.False(t, a.Degraded())
		})
	}
}

func TestDecodeConvertsSymptomClusters(t *testing.T) {
	a, err := Decode(`{
		"symptom_clusters": [
			{"category": "Fatigue", "symptoms": ["tired"], "severity_indicators": ["bedbound"]},
			{"symptoms": ["dizzy"]}
		],
		"priority_concerns": ["fatigue"],
		"clinical_notes": "old format"
	}`)
	require.NoError(t, err)
	require.Len(t, a.MatchedCategories, 2)

	first := a.MatchedCategories[0]
	assert.Equal(t, "unknown", first.CategoryID)
	assert.Equal(t, "Fatigue", first.CategoryName)
	assert.Equal(t, "medium", first.Confidence)
	assert.Equal(t, []string{"tired"}, first.PatientSymptoms)
	assert.Equal(t, []string{"bedbound"}, first.SeverityIndicators)

	assert.Equal(t, "Other", a.MatchedCategories[1].CategoryName)
	assert.Equal(t, []string{}, a.MatchedCategories[1].SeverityIndicators)
}

func TestDecodePrefersMatchedCategories(t *testing.T) {
	a, err := Decode(`{"matched_categories": [], "symptom_clusters": [{"category": "x"}]}`)
	require.NoError(t, err)
	assert.Empty(t, a.MatchedCategories)
	assert.NotNil(t, a.PriorityConcerns)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "   ", "I cannot help with that.", "```json\n{not json}\n```", `["a"]`} {
		_, err := Decode(in)
		assert.Error(t, err, in)
	}
}
