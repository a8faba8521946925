package models

// Question is one fixed intake prompt shown to the patient.
type Question struct {
	ID                int    `yaml:"id" json:"id"`
	Title             string `yaml:"title" json:"title"`
	Text              string `yaml:"text" json:"text"`
	SuggestedDuration int    `yaml:"suggested_duration" json:"suggested_duration"` // seconds
}

// SymptomCategory is one entry of the analysis taxonomy.
type SymptomCategory struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
}

// Catalog is the configured questionnaire and category taxonomy.
type Catalog struct {
	ClinicName string            `yaml:"clinic_name" json:"clinic_name"`
	Questions  []Question        `yaml:"questions" json:"questions"`
	Categories []SymptomCategory `yaml:"symptom_categories" json:"symptom_categories"`
}

func (c *Catalog) QuestionIDs() []int {
	ids := make([]int, 0, len(c.Questions))
	for _, q := range c.Questions {
		ids = append(ids, q.ID)
	}
	return ids
}

func (c *Catalog) Question(id int) (Question, bool) {
	for _, q := range c.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

func (c *Catalog) HasQuestion(id int) bool {
	_, ok := c.Question(id)
	return ok
}
