// Package budget aggregates itemized activity costs into a ledger.
package budget

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/yungbote/lazytrip-backend/internal/domain"
	"github.com/yungbote/lazytrip-backend/internal/platform/logger"
)

// bufferRate is the contingency share added on top of the itemized sum.
const bufferRate = 0.10

type LineItem struct {
	Date     string  `json:"date"`
	Category string  `json:"category"`
	Item     string  `json:"item"`
	Cost     float64 `json:"cost"`
	Note     string  `json:"note"`
}

type Result struct {
	Total     float64            `json:"total"`
	Breakdown map[string]float64 `json:"breakdown"`
	Items     []LineItem         `json:"items"`
	CSVPath   string             `json:"csv_path"`
}

type Calculator struct {
	exportsDir string
	log        *logger.Logger
}

func NewCalculator(exportsDir string, log *logger.Logger) *Calculator {
	return &Calculator{exportsDir: exportsDir, log: log.With("component", "Budget")}
}

// Calculate walks every day and activity, coerces costs to non-negative
// numbers, totals them per category, then appends a 10% contingency buffer as
// its own line item. The ledger CSV is an exported artifact; failing to write
// it degrades to an empty CSVPath and does not void the totals.
func (c *Calculator) Calculate(plan *domain.PlanDocument) Result {
	res := Result{
		Breakdown: map[string]float64{
			"spot": 0, "food": 0, "transport": 0, "hotel": 0, "other": 0,
		},
	}

	itemized := 0.0
	for _, day := range plan.Itinerary {
		date := day.Date
		if date == "" {
			date = fmt.Sprintf("Day %d", day.Day)
		}
		for _, act := range day.Activities {
			cost := coerceCost(float64(act.Cost))
			category := act.Type
			if _, known := res.Breakdown[category]; !known {
				category = "other"
			}

			itemized += cost
			res.Breakdown[category] += cost
			res.Items = append(res.Items, LineItem{
				Date:     date,
				Category: category,
				Item:     act.Name,
				Cost:     cost,
				Note:     act.Description,
			})
		}
	}

	buffer := itemized * bufferRate
	res.Items = append(res.Items, LineItem{
		Date:     "N/A",
		Category: "buffer",
		Item:     "Contingency (10%)",
		Cost:     buffer,
		Note:     "Buffer",
	})
	res.Total = round2(itemized + buffer)

	res.CSVPath = c.exportCSV(plan.Destination, res.Items)
	return res
}

func (c *Calculator) exportCSV(destination string, items []LineItem) string {
	if destination == "" {
		destination = "trip"
	}
	if err := os.MkdirAll(c.exportsDir, 0o755); err != nil {
		c.log.Warn("exports dir unavailable", "dir", c.exportsDir, "error", err)
		return ""
	}

	name := fmt.Sprintf("budget_%s_%s.csv", destination, time.Now().Format("20060102_150405"))
	path := filepath.Join(c.exportsDir, name)

	f, err := os.Create(path)
	if err != nil {
		c.log.Warn("ledger export failed", "path", path, "error", err)
		return ""
	}
	defer f.Close()

	w := csv.NewWriter(f)
	_ = w.Write([]string{"Date", "Category", "Item", "Cost", "Note"})
	for _, it := range items {
		_ = w.Write([]string{
			it.Date,
			it.Category,
			it.Item,
			strconv.FormatFloat(it.Cost, 'f', 2, 64),
			it.Note,
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		c.log.Warn("ledger export failed", "path", path, "error", err)
		return ""
	}
	return path
}

// coerceCost maps missing, malformed, and negative costs to zero.
func coerceCost(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
