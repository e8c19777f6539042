// Package planner sequences retrieval, graph ingestion, plan generation,
// budgeting, and narrative writing into one pipeline run.
package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yungbote/lazytrip-backend/internal/budget"
	"github.com/yungbote/lazytrip-backend/internal/clients/openai"
	"github.com/yungbote/lazytrip-backend/internal/config"
	"github.com/yungbote/lazytrip-backend/internal/domain"
	"github.com/yungbote/lazytrip-backend/internal/extract"
	"github.com/yungbote/lazytrip-backend/internal/graph"
	"github.com/yungbote/lazytrip-backend/internal/platform/logger"
	"github.com/yungbote/lazytrip-backend/internal/prompts"
	"github.com/yungbote/lazytrip-backend/internal/retrieval"
)

const (
	extractionBatchSize = 5
	// Each batch's combined text is clipped to this budget before prompting.
	// Records are pre-clipped to recordClipChars so the window seldom cuts
	// mid-record.
	extractionWindowChars = 3000
	recordClipChars       = 400

	socialLimit = 30
	webLimit    = 5

	extractionTemperature = 0.2
	planTemperature       = 0.7
)

// ErrEmptyPlan marks a run whose generated plan could not be parsed into a
// usable document. Callers see the same empty document for "no data" and
// "aborted"; logs carry the distinction.
var ErrEmptyPlan = errors.New("planner: generated plan is empty or unparseable")

// RecordSource is the shape both retrieval sources expose. Implementations
// absorb their own failures and return what they could get.
type RecordSource interface {
	Search(ctx context.Context, query string, limit int) []retrieval.Record
}

// GraphIngestor is the graph-store surface the pipeline depends on. All
// methods are best effort by contract.
type GraphIngestor interface {
	Clear(ctx context.Context)
	MergeNodes(ctx context.Context, nodes []graph.Node)
	MergeEdges(ctx context.Context, edges []graph.Edge)
	MergeRecord(ctx context.Context, rec retrieval.Record)
}

type Orchestrator struct {
	cfg      *config.Config
	log      *logger.Logger
	llm      openai.Client
	social   RecordSource
	web      RecordSource
	ingestor GraphIngestor
	budget   *budget.Calculator
	archive  *retrieval.Archive
	styles   *prompts.Library
}

func NewOrchestrator(
	cfg *config.Config,
	log *logger.Logger,
	llm openai.Client,
	social RecordSource,
	web RecordSource,
	ingestor GraphIngestor,
	budgetCalc *budget.Calculator,
	archive *retrieval.Archive,
	styles *prompts.Library,
) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		log:      log.With("component", "Orchestrator"),
		llm:      llm,
		social:   social,
		web:      web,
		ingestor: ingestor,
		budget:   budgetCalc,
		archive:  archive,
		styles:   styles,
	}
}

// Run executes one full pipeline pass. The returned document is the zero
// value exactly when err is non-nil; artifacts already written by earlier
// stages (markdown notes, graph batches, the ledger) are kept either way.
func (o *Orchestrator) Run(ctx context.Context, userInput, mode string) (domain.PlanDocument, error) {
	o.log.Info("pipeline start", "input", userInput, "mode", mode)

	// Stage 1: retrieval. Source failures degrade to empty lists inside the
	// sources; the stage itself cannot fail.
	keyword := firstToken(userInput)
	bundle := retrieval.Bundle{
		Social: o.social.Search(ctx, keyword, socialLimit),
		Web:    o.web.Search(ctx, fmt.Sprintf("%s travel guide %s", userInput, mode), webLimit),
	}
	saved := o.archive.Save(bundle.Social, keyword)
	o.log.Info("retrieval done",
		"social_records", len(bundle.Social),
		"web_records", len(bundle.Web),
		"archived", len(saved),
	)

	// Stage 2: graph update. Never aborts the run.
	o.updateGraph(ctx, bundle)

	// Stage 3: plan generation. The only stage whose parse failure is fatal.
	doc, err := o.generatePlan(ctx, userInput, mode, bundle)
	if err != nil {
		o.log.Error("plan generation failed", "error", err)
		return domain.PlanDocument{}, err
	}

	// Stage 4: budget.
	res := o.budget.Calculate(&doc)
	doc.TotalBudgetEstimate = res.Total
	doc.BudgetCSV = res.CSVPath
	doc.RawRecords = bundle.All()
	o.log.Info("budget computed", "total", res.Total, "csv", res.CSVPath)

	// Stage 5: narrative. Failure propagates and aborts the run.
	if err := o.writeGuide(ctx, &doc, mode, bundle); err != nil {
		o.log.Error("guide writing failed", "error", err)
		return domain.PlanDocument{}, err
	}

	// Stage 6: itinerary figure. Best effort.
	o.renderFigure(ctx, &doc)

	o.log.Info("pipeline done", "destination", doc.Destination, "days", doc.DurationDays)
	return doc, nil
}

// updateGraph clears the store and rebuilds it from the retrieval records in
// fixed batches. A batch whose extraction cannot be parsed is skipped; store
// unavailability makes every merge a logged no-op. Nothing here ever aborts
// the run.
func (o *Orchestrator) updateGraph(ctx context.Context, bundle retrieval.Bundle) {
	o.ingestor.Clear(ctx)

	for _, rec := range bundle.Social {
		o.ingestor.MergeRecord(ctx, rec)
	}

	records := bundle.All()
	if len(records) == 0 {
		return
	}
	o.log.Info("extracting knowledge graph", "records", len(records))

	totalNodes := 0
	for start := 0; start < len(records); start += extractionBatchSize {
		end := start + extractionBatchSize
		if end > len(records) {
			end = len(records)
		}
		batchNo := start/extractionBatchSize + 1

		nodes, edges, err := o.extractBatch(ctx, records[start:end])
		if err != nil {
			o.log.Warn("extraction batch skipped", "batch", batchNo, "error", err)
			continue
		}

		o.ingestor.MergeNodes(ctx, nodes)
		o.ingestor.MergeEdges(ctx, edges)
		totalNodes += len(nodes)
		o.log.Debug("extraction batch merged", "batch", batchNo, "nodes", len(nodes), "edges", len(edges))
	}
	o.log.Info("knowledge graph updated", "nodes", totalNodes)
}

type extractionPayload struct {
	Nodes         []graph.Node `json:"nodes"`
	Relationships []graph.Edge `json:"relationships"`
}

func (o *Orchestrator) extractBatch(ctx context.Context, records []retrieval.Record) ([]graph.Node, []graph.Edge, error) {
	parts := make([]string, 0, len(records))
	for _, r := range records {
		parts = append(parts, fmt.Sprintf("Title: %s\nContent: %s", r.Title, clipRunes(r.Content, recordClipChars)))
	}
	window := clipRunes(strings.Join(parts, "\n---\n"), extractionWindowChars)

	response, err := o.llm.ChatCompletion(ctx,
		"You are an expert Knowledge Graph Builder.",
		o.styles.ExtractionPrompt(window),
		extractionTemperature,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("extraction call: %w", err)
	}

	raw, err := extract.FirstRaw(response)
	if err != nil {
		return nil, nil, err
	}
	var payload extractionPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, nil, fmt.Errorf("extraction decode: %w", err)
	}
	return payload.Nodes, payload.Relationships, nil
}

func (o *Orchestrator) generatePlan(ctx context.Context, userInput, mode string, bundle retrieval.Bundle) (domain.PlanDocument, error) {
	prompt := o.styles.PlannerPrompt(userInput, mode, bundle.Text(), o.styles.StrategyFor(mode))

	content, err := o.llm.ChatCompletion(ctx, "You are a professional travel planner.", prompt, planTemperature)
	if err != nil {
		return domain.PlanDocument{}, fmt.Errorf("plan call: %w", err)
	}

	raw, err := extract.FirstRaw(content)
	if err != nil {
		return domain.PlanDocument{}, ErrEmptyPlan
	}
	var doc domain.PlanDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return domain.PlanDocument{}, ErrEmptyPlan
	}
	if doc.Empty() {
		return domain.PlanDocument{}, ErrEmptyPlan
	}
	if doc.Mode == "" {
		doc.Mode = mode
	}
	return doc, nil
}

func (o *Orchestrator) writeGuide(ctx context.Context, doc *domain.PlanDocument, mode string, bundle retrieval.Bundle) error {
	planJSON, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	guide, err := o.llm.ChatCompletion(ctx,
		"You are a travel columnist writing in-depth city guides.",
		o.styles.WriterPrompt(string(planJSON), bundle.Text()),
		planTemperature,
	)
	if err != nil {
		return fmt.Errorf("guide call: %w", err)
	}

	doc.DetailedGuide = guide
	doc.GuideFile = o.persistArtifact(doc.Destination, mode, "guide", "md", guide)
	return nil
}

func (o *Orchestrator) renderFigure(ctx context.Context, doc *domain.PlanDocument) {
	planJSON, err := json.Marshal(doc.Itinerary)
	if err != nil {
		return
	}

	dot, err := o.llm.ChatCompletion(ctx,
		"You generate Graphviz DOT diagrams.",
		o.styles.FigurePrompt(string(planJSON)),
		extractionTemperature,
	)
	if err != nil {
		o.log.Warn("figure generation skipped", "error", err)
		return
	}
	dot = strings.TrimSpace(dot)
	if !strings.Contains(dot, "digraph") {
		o.log.Warn("figure output not DOT, skipping")
		return
	}

	doc.FigureDOT = dot
	doc.FigureFile = o.persistArtifact(doc.Destination, doc.Mode, "map", "dot", dot)
}

// persistArtifact writes one run-stamped file under the exports dir and
// returns its path, or "" on failure. Artifacts are write-once: a new run
// produces new names rather than overwriting.
func (o *Orchestrator) persistArtifact(destination, mode, kind, ext, content string) string {
	if destination == "" {
		destination = "trip"
	}
	if err := os.MkdirAll(o.cfg.ExportsDir, 0o755); err != nil {
		o.log.Warn("exports dir unavailable", "dir", o.cfg.ExportsDir, "error", err)
		return ""
	}

	modeTag := firstToken(mode)
	if modeTag == "" {
		modeTag = "plan"
	}
	name := fmt.Sprintf("%s_%s_%s_%s.%s", kind, destination, modeTag, time.Now().Format("20060102_150405"), ext)
	path := filepath.Join(o.cfg.ExportsDir, name)

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		o.log.Warn("artifact write failed", "path", path, "error", err)
		return ""
	}
	return path
}

func firstToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func clipRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
