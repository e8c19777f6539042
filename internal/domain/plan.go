// Package domain holds the plan document shared across pipeline stages.
package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/yungbote/lazytrip-backend/internal/retrieval"
)

// PlanDocument is the structured itinerary produced by plan generation and
// enriched in place by the budget and narrative stages. The zero value
// signals a failed or empty run.
type PlanDocument struct {
	Destination  string    `json:"destination"`
	DurationDays int       `json:"duration_days"`
	Mode         string    `json:"mode"`
	Itinerary    []DayPlan `json:"itinerary"`

	// Budget stage.
	TotalBudgetEstimate float64 `json:"total_budget_estimate"`
	BudgetCSV           string  `json:"budget_csv,omitempty"`

	// Narrative stage.
	DetailedGuide string `json:"detailed_guide,omitempty"`
	GuideFile     string `json:"guide_file,omitempty"`

	// Figure stage (best effort).
	FigureDOT  string `json:"figure_dot,omitempty"`
	FigureFile string `json:"figure_file,omitempty"`

	// Raw retrieval records attached for the caller's display layer.
	RawRecords []retrieval.Record `json:"_raw_notes,omitempty"`
}

func (p *PlanDocument) Empty() bool {
	return p == nil || (p.Destination == "" && len(p.Itinerary) == 0)
}

type DayPlan struct {
	Day           int            `json:"day"`
	Date          string         `json:"date"`
	Accommodation *Accommodation `json:"accommodation,omitempty"`
	Activities    []Activity     `json:"activities"`
}

type Accommodation struct {
	Name   string `json:"name"`
	Cost   Cost   `json:"cost"`
	Reason string `json:"reason"`
}

type Activity struct {
	Time        string `json:"time"`
	Type        string `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Cost        Cost   `json:"cost"`
	SourceID    string `json:"source_id,omitempty"`
	Tips        string `json:"tips,omitempty"`
}

// Cost tolerates the shapes generative output actually produces: numbers,
// numeric strings, null, or garbage. Anything unusable decodes to zero.
type Cost float64

func (c *Cost) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*c = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*c = 0
			return nil
		}
		s = strings.TrimSpace(s)
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*c = 0
			return nil
		}
		*c = Cost(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		*c = 0
		return nil
	}
	*c = Cost(f)
	return nil
}
