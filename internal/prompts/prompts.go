// Package prompts carries the style and strategy templates fed to the text
// generation service, loaded from an embedded YAML library.
package prompts

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed styles.yaml
var stylesYAML []byte

type ModeStyle struct {
	Label    string `yaml:"label"`
	Strategy string `yaml:"strategy"`
}

type Library struct {
	Modes      map[string]ModeStyle `yaml:"modes"`
	Writer     string               `yaml:"writer"`
	Figure     string               `yaml:"figure"`
	Extraction string               `yaml:"extraction"`
	Planner    string               `yaml:"planner"`
}

func Load() (*Library, error) {
	var lib Library
	if err := yaml.Unmarshal(stylesYAML, &lib); err != nil {
		return nil, fmt.Errorf("prompts: parse styles: %w", err)
	}
	for _, key := range []string{"special_forces", "foodie"} {
		if _, ok := lib.Modes[key]; !ok {
			return nil, fmt.Errorf("prompts: mode %q missing from styles", key)
		}
	}
	if lib.Writer == "" || lib.Extraction == "" || lib.Planner == "" {
		return nil, fmt.Errorf("prompts: styles library incomplete")
	}
	return &lib, nil
}

// StrategyFor maps a free-form mode string onto a strategy template. Foodie
// is the default; anything mentioning the high-intensity mode gets it.
func (l *Library) StrategyFor(mode string) string {
	m := strings.ToLower(mode)
	if strings.Contains(m, "special") || strings.Contains(mode, "特种兵") {
		return l.Modes["special_forces"].Strategy
	}
	return l.Modes["foodie"].Strategy
}

func (l *Library) ExtractionPrompt(batchText string) string {
	return fmt.Sprintf(l.Extraction, batchText)
}

func (l *Library) PlannerPrompt(userInput, mode, contextText, strategy string) string {
	return fmt.Sprintf(l.Planner, userInput, mode, contextText, strategy, PlanOutputSchema)
}

func (l *Library) WriterPrompt(planJSON, contextText string) string {
	var sb strings.Builder
	sb.WriteString(l.Writer)
	sb.WriteString("\n\nBelow are the generated plan document and the raw retrieval data. Write from them.\n\n")
	sb.WriteString("[Plan document]:\n")
	sb.WriteString(planJSON)
	sb.WriteString("\n\n[Raw data]:\n")
	sb.WriteString(contextText)
	sb.WriteString("\n\nOutput the Markdown content directly, without JSON code fences.\n")
	return sb.String()
}

func (l *Library) FigurePrompt(planJSON string) string {
	return l.Figure + "\n\n[Plan document]:\n" + planJSON + "\n"
}

// PlanOutputSchema is injected verbatim into the planning prompt. It is a
// schema by example, not a validator; structural parsing happens downstream.
const PlanOutputSchema = `{
  "destination": "string",
  "duration_days": "integer",
  "mode": "string",
  "total_budget_estimate": "number",
  "itinerary": [
    {
      "day": "integer",
      "date": "string",
      "accommodation": {
        "name": "string (recommended hotel or area)",
        "cost": "number (per night)",
        "reason": "string"
      },
      "activities": [
        {
          "time": "string (HH:MM)",
          "type": "string (spot/food/hotel/transport)",
          "name": "string",
          "description": "string (detail incl. why, logistics, transit advice)",
          "cost": "number",
          "source_id": "string (citation id)",
          "tips": "string (trap avoidance)"
        }
      ]
    }
  ]
}`
