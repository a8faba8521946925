package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/yoockh/intake/internal/models"
)

const defaultClinicName = "University of Cascadia Long-COVID Clinic"

// LoadCatalog returns the built-in questionnaire, or the one in path when
// path is set. A file may omit clinic_name or symptom_categories; missing
// parts fall back to the defaults.
func LoadCatalog(path string) (*models.Catalog, error) {
	cat := DefaultCatalog()
	if path == "" {
		return cat, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}

	var file models.Catalog
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	if file.ClinicName != "" {
		cat.ClinicName = file.ClinicName
	}
	if len(file.Questions) > 0 {
		cat.Questions = file.Questions
	}
	if len(file.Categories) > 0 {
		cat.Categories = file.Categories
	}

	if err := validateCatalog(cat); err != nil {
		return nil, err
	}
	return cat, nil
}

func validateCatalog(c *models.Catalog) error {
	if len(c.Questions) == 0 {
		return fmt.Errorf("catalog: at least one question is required")
	}
	seen := map[int]struct{}{}
	for _, q := range c.Questions {
		if q.ID <= 0 {
			return fmt.Errorf("catalog: question id must be > 0 (got %d)", q.ID)
		}
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("catalog: duplicate question id %d", q.ID)
		}
		seen[q.ID] = struct{}{}
	}
	for _, cat := range c.Categories {
		if cat.ID == "" || cat.Name == "" {
			return fmt.Errorf("catalog: symptom category needs id and name")
		}
	}
	return nil
}

func DefaultCatalog() *models.Catalog {
	return &models.Catalog{
		ClinicName: defaultClinicName,
		Questions: []models.Question{
			{
				ID:                1,
				Title:             "Your Main Concerns",
				Text:              "What are the top three things you'd most like help with right now? Please describe the symptoms or problems that matter most to you today.",
				SuggestedDuration: 60,
			},
			{
				ID:                2,
				Title:             "Timeline",
				Text:              "How long have you been experiencing these symptoms? You can give an approximate timeline (for example: weeks, months, or since a specific illness or date).",
				SuggestedDuration: 45,
			},
			{
				ID:                3,
				Title:             "Daily Impact",
				Text:              "How are these symptoms affecting your day-to-day life right now? Tell us what you struggle to do or can no longer do, such as work or school, physical activity, sleep, thinking or memory, or emotional well-being.",
				SuggestedDuration: 60,
			},
		},
		Categories: []models.SymptomCategory{
			{ID: "energy_crash", Name: "Low Energy & Post-Exertion Crashes", Description: "Running out of energy quickly and feeling worse after physical or mental effort."},
			{ID: "orthostatic_intolerance", Name: "Dizziness, Heart Racing & Standing Problems", Description: "Feeling lightheaded, dizzy, or unwell when standing or being upright."},
			{ID: "brain_fog", Name: "Brain Fog & Mental Fatigue", Description: "Difficulty thinking clearly, focusing, remembering, or processing information."},
			{ID: "sleep_dysregulation", Name: "Sleep That Doesn't Restore Me", Description: "Trouble sleeping or waking up feeling unrefreshed despite adequate sleep time."},
			{ID: "breathlessness", Name: "Shortness of Breath & Air Hunger", Description: "Breathing feels difficult, shallow, or unsatisfying, at rest or with activity."},
			{ID: "chest_heart", Name: "Chest Discomfort & Heart Sensations", Description: "Chest pain, tightness, palpitations, or unusual awareness of heartbeat."},
			{ID: "headache_migraine", Name: "Headaches & Migraine-Like Symptoms", Description: "Frequent headaches, pressure, migraines, or sensitivity to light and sound."},
			{ID: "musculoskeletal_pain", Name: "Body Pain, Aches & Muscle Weakness", Description: "Widespread pain, soreness, stiffness, or feelings of physical weakness."},
			{ID: "neuropathy", Name: "Tingling, Burning & Nerve Sensations", Description: "Numbness, tingling, burning, buzzing, or other unusual nerve sensations."},
			{ID: "gastrointestinal", Name: "Stomach, Digestion & Food Sensitivity Issues", Description: "Digestive problems such as nausea, bloating, diarrhea, constipation, or food reactions."},
			{ID: "ent_sensory", Name: "Smell, Taste & Ear-Nose-Throat Changes", Description: "Changes to smell or taste, sinus issues, ear pressure, or tinnitus."},
			{ID: "temperature_flares", Name: "Temperature Sensitivity & Flu-Like Flares", Description: "Feeling unusually hot or cold, sweating, chills, or flu-like sensations without infection."},
			{ID: "reactivity", Name: "Allergy-Like Reactions & Body Over-Reactivity", Description: "Strong reactions to foods, smells, environments, or medications."},
			{ID: "mood_emotional", Name: "Mood Changes, Anxiety & Emotional Swings", Description: "Anxiety, depression, irritability, or emotional changes that feel physically driven."},
			{ID: "genitourinary", Name: "Bladder, Sexual & Pelvic Changes", Description: "Changes in bladder function, pelvic discomfort, or sexual health."},
			{ID: "multisystem", Name: "Multiple Systems & Relapsing Symptoms", Description: "Many symptoms across the body that flare, improve, and return over time."},
		},
	}
}
