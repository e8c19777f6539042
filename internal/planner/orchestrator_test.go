package planner

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/yungbote/lazytrip-backend/internal/budget"
	"github.com/yungbote/lazytrip-backend/internal/config"
	"github.com/yungbote/lazytrip-backend/internal/graph"
	"github.com/yungbote/lazytrip-backend/internal/platform/logger"
	"github.com/yungbote/lazytrip-backend/internal/prompts"
	"github.com/yungbote/lazytrip-backend/internal/retrieval"
)

const testPlanJSON = `{
	"destination": "Xian",
	"duration_days": 2,
	"mode": "foodie",
	"itinerary": [
		{
			"day": 1,
			"date": "2026-05-01",
			"activities": [
				{"time": "09:00", "type": "spot", "name": "City Wall", "cost": 54, "source_id": "note_1"},
				{"time": "12:00", "type": "food", "name": "Biangbiang Noodles", "cost": 30}
			]
		},
		{
			"day": 2,
			"activities": [
				{"time": "10:00", "type": "spot", "name": "Terracotta Warriors", "cost": 120}
			]
		}
	]
}`

const testExtractionJSON = `{
	"nodes": [
		{"type": "Place", "properties": {"name": "City Wall"}},
		{"type": "Food", "properties": {"name": "Biangbiang Noodles"}}
	],
	"relationships": [
		{"source": "City Wall", "source_type": "Place", "target": "Xian", "target_type": "Destination", "type": "LOCATED_IN"}
	]
}`

// fakeLLM routes on the system prompt, the same way the pipeline
// distinguishes its stages.
type fakeLLM struct {
	extraction    string
	extractionErr error
	plan          string
	planErr       error
	guide         string
	guideErr      error
	figure        string

	calls []string
}

func (f *fakeLLM) ChatCompletion(_ context.Context, system, _ string, _ float64) (string, error) {
	switch {
	case strings.Contains(system, "Knowledge Graph"):
		f.calls = append(f.calls, "extract")
		return f.extraction, f.extractionErr
	case strings.Contains(system, "travel planner"):
		f.calls = append(f.calls, "plan")
		return f.plan, f.planErr
	case strings.Contains(system, "columnist"):
		f.calls = append(f.calls, "guide")
		return f.guide, f.guideErr
	default:
		f.calls = append(f.calls, "figure")
		return f.figure, nil
	}
}

type fakeSource struct {
	records []retrieval.Record
}

func (f *fakeSource) Search(context.Context, string, int) []retrieval.Record {
	return f.records
}

type fakeIngestor struct {
	cleared bool
	nodes   []graph.Node
	edges   []graph.Edge
	notes   []retrieval.Record
}

func (f *fakeIngestor) Clear(context.Context) { f.cleared = true }
func (f *fakeIngestor) MergeNodes(_ context.Context, nodes []graph.Node) {
	f.nodes = append(f.nodes, nodes...)
}
func (f *fakeIngestor) MergeEdges(_ context.Context, edges []graph.Edge) {
	f.edges = append(f.edges, edges...)
}
func (f *fakeIngestor) MergeRecord(_ context.Context, rec retrieval.Record) {
	f.notes = append(f.notes, rec)
}

func socialRecords() []retrieval.Record {
	return []retrieval.Record{
		{ID: "note_1", Title: "City Wall cycling", Content: "Rent a bike on top of the wall.", SourceType: retrieval.SourceSocial},
		{ID: "note_2", Title: "Noodle street", Content: "Biangbiang noodles near the Drum Tower.", SourceType: retrieval.SourceSocial},
	}
}

func newTestOrchestrator(t *testing.T, llm *fakeLLM, social, web RecordSource, ing GraphIngestor) *Orchestrator {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	t.Cleanup(log.Sync)

	cfg := &config.Config{
		NotesDir:   t.TempDir(),
		ExportsDir: t.TempDir(),
	}
	styles, err := prompts.Load()
	if err != nil {
		t.Fatalf("prompts: %v", err)
	}
	return NewOrchestrator(
		cfg, log, llm, social, web, ing,
		budget.NewCalculator(cfg.ExportsDir, log),
		retrieval.NewArchive(cfg.NotesDir, log),
		styles,
	)
}

func TestRun_HappyPath(t *testing.T) {
	llm := &fakeLLM{
		extraction: testExtractionJSON,
		plan:       "Here is your plan:\n```json\n" + testPlanJSON + "\n```",
		guide:      "# Xian in Two Days\n\nStart at the wall.",
		figure:     "digraph itinerary { day1 -> day2 }",
	}
	ing := &fakeIngestor{}
	o := newTestOrchestrator(t, llm, &fakeSource{records: socialRecords()}, &fakeSource{}, ing)

	doc, err := o.Run(context.Background(), "2 days in Xian", "foodie")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if doc.Destination != "Xian" || doc.DurationDays != 2 {
		t.Fatalf("plan not decoded: %+v", doc)
	}
	// 54 + 30 + 120 itemized, plus the 10% contingency.
	if doc.TotalBudgetEstimate != 224.4 {
		t.Fatalf("TotalBudgetEstimate = %v, want 224.4", doc.TotalBudgetEstimate)
	}
	if doc.DetailedGuide == "" || doc.GuideFile == "" {
		t.Fatal("guide stage did not populate the document")
	}
	if doc.FigureDOT == "" || doc.FigureFile == "" {
		t.Fatal("figure stage did not populate the document")
	}
	if len(doc.RawRecords) != 2 {
		t.Fatalf("expected 2 raw records attached, got %d", len(doc.RawRecords))
	}

	if !ing.cleared {
		t.Fatal("graph store was not cleared before ingestion")
	}
	if len(ing.notes) != 2 {
		t.Fatalf("expected 2 note merges, got %d", len(ing.notes))
	}
	if len(ing.nodes) != 2 || len(ing.edges) != 1 {
		t.Fatalf("extraction not merged: %d nodes, %d edges", len(ing.nodes), len(ing.edges))
	}

	if _, err := os.Stat(doc.GuideFile); err != nil {
		t.Fatalf("guide artifact missing: %v", err)
	}
	if _, err := os.Stat(doc.BudgetCSV); err != nil {
		t.Fatalf("budget ledger missing: %v", err)
	}
}

func TestRun_UnparseablePlanAborts(t *testing.T) {
	llm := &fakeLLM{
		extraction: testExtractionJSON,
		plan:       "Sorry, I cannot produce an itinerary for that request.",
	}
	o := newTestOrchestrator(t, llm, &fakeSource{records: socialRecords()}, &fakeSource{}, &fakeIngestor{})

	doc, err := o.Run(context.Background(), "2 days in Xian", "foodie")
	if !errors.Is(err, ErrEmptyPlan) {
		t.Fatalf("expected ErrEmptyPlan, got %v", err)
	}
	if !doc.Empty() {
		t.Fatalf("aborted run must return an empty document, got %+v", doc)
	}
}

func TestRun_PlanCallErrorAborts(t *testing.T) {
	llm := &fakeLLM{
		extraction: testExtractionJSON,
		planErr:    errors.New("upstream 500"),
	}
	o := newTestOrchestrator(t, llm, &fakeSource{}, &fakeSource{}, &fakeIngestor{})

	doc, err := o.Run(context.Background(), "2 days in Xian", "foodie")
	if err == nil {
		t.Fatal("expected error from failed plan call")
	}
	if !doc.Empty() {
		t.Fatalf("expected empty document, got %+v", doc)
	}
}

func TestRun_BadExtractionBatchSkipped(t *testing.T) {
	llm := &fakeLLM{
		extraction: "no structured data here",
		plan:       testPlanJSON,
		guide:      "guide text",
		figure:     "digraph g {}",
	}
	ing := &fakeIngestor{}
	o := newTestOrchestrator(t, llm, &fakeSource{records: socialRecords()}, &fakeSource{}, ing)

	doc, err := o.Run(context.Background(), "2 days in Xian", "foodie")
	if err != nil {
		t.Fatalf("a skipped extraction batch must not abort the run: %v", err)
	}
	if doc.Empty() {
		t.Fatal("expected a populated document")
	}
	if len(ing.nodes) != 0 {
		t.Fatalf("skipped batch must merge nothing, got %d nodes", len(ing.nodes))
	}
	// Notes are merged before extraction and survive the skip.
	if len(ing.notes) != 2 {
		t.Fatalf("expected 2 note merges, got %d", len(ing.notes))
	}
}

func TestRun_GuideFailureAborts(t *testing.T) {
	llm := &fakeLLM{
		extraction: testExtractionJSON,
		plan:       testPlanJSON,
		guideErr:   errors.New("timeout"),
	}
	o := newTestOrchestrator(t, llm, &fakeSource{records: socialRecords()}, &fakeSource{}, &fakeIngestor{})

	doc, err := o.Run(context.Background(), "2 days in Xian", "foodie")
	if err == nil {
		t.Fatal("expected error from failed guide call")
	}
	if !doc.Empty() {
		t.Fatalf("expected empty document, got %+v", doc)
	}
}

func TestRun_NonDOTFigureIgnored(t *testing.T) {
	llm := &fakeLLM{
		extraction: testExtractionJSON,
		plan:       testPlanJSON,
		guide:      "guide text",
		figure:     "I am unable to draw that.",
	}
	o := newTestOrchestrator(t, llm, &fakeSource{records: socialRecords()}, &fakeSource{}, &fakeIngestor{})

	doc, err := o.Run(context.Background(), "2 days in Xian", "foodie")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if doc.FigureDOT != "" || doc.FigureFile != "" {
		t.Fatal("non-DOT figure output must be dropped")
	}
}

func TestRun_NoRecordsStillPlans(t *testing.T) {
	llm := &fakeLLM{
		plan:   testPlanJSON,
		guide:  "guide text",
		figure: "digraph g {}",
	}
	ing := &fakeIngestor{}
	o := newTestOrchestrator(t, llm, &fakeSource{}, &fakeSource{}, ing)

	doc, err := o.Run(context.Background(), "2 days in Xian", "foodie")
	if err != nil {
		t.Fatalf("Run with no retrieval data: %v", err)
	}
	if doc.Empty() {
		t.Fatal("expected a populated document")
	}
	for _, call := range llm.calls {
		if call == "extract" {
			t.Fatal("extraction must not be called with zero records")
		}
	}
}

func TestFirstToken(t *testing.T) {
	if got := firstToken("xian 3 day trip"); got != "xian" {
		t.Fatalf("firstToken = %q", got)
	}
	if got := firstToken("   "); got != "" {
		t.Fatalf("firstToken on blanks = %q", got)
	}
}

func TestClipRunes(t *testing.T) {
	if got := clipRunes("héllo wörld", 5); got != "héllo" {
		t.Fatalf("clipRunes = %q", got)
	}
	if got := clipRunes("short", 100); got != "short" {
		t.Fatalf("clipRunes = %q", got)
	}
}
