package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yungbote/lazytrip-backend/internal/platform/logger"
	"github.com/yungbote/lazytrip-backend/internal/platform/neo4jdb"
	"github.com/yungbote/lazytrip-backend/internal/retrieval"
)

// Ingestor writes extracted nodes and edges into the graph store. Every
// operation is a logged no-op when the store is unavailable; the pipeline is
// never blocked or aborted by graph failures.
type Ingestor struct {
	client *neo4jdb.Client
	log    *logger.Logger
}

func NewIngestor(client *neo4jdb.Client, log *logger.Logger) *Ingestor {
	return &Ingestor{client: client, log: log.With("component", "GraphIngestor")}
}

func (g *Ingestor) Clear(ctx context.Context) {
	if !g.client.Connected() {
		g.log.Warn("graph store unavailable, skipping clear")
		return
	}
	g.write(ctx, "clear", func(tx neo4j.ManagedTransaction) error {
		return runConsume(ctx, tx, `MATCH (n) DETACH DELETE n`, nil)
	})
}

// MergeNodes upserts nodes keyed by (kind, name). Nodes with a kind outside
// the allow-list, or without a name, are skipped and logged.
func (g *Ingestor) MergeNodes(ctx context.Context, nodes []Node) {
	if len(nodes) == 0 {
		return
	}
	if !g.client.Connected() {
		g.log.Warn("graph store unavailable, skipping node merge", "nodes", len(nodes))
		return
	}

	byKind := map[NodeKind][]map[string]any{}
	for _, n := range nodes {
		kind, err := ParseNodeKind(n.Kind)
		if err != nil {
			g.log.Warn("dropping node with disallowed kind", "kind", n.Kind)
			continue
		}
		name := n.Name()
		if name == "" {
			g.log.Warn("dropping node without name", "kind", n.Kind)
			continue
		}
		props := map[string]any{}
		for k, v := range n.Properties {
			props[k] = v
		}
		props["name"] = name
		byKind[kind] = append(byKind[kind], map[string]any{"name": name, "props": props})
	}

	g.write(ctx, "merge nodes", func(tx neo4j.ManagedTransaction) error {
		for kind, rows := range byKind {
			query := fmt.Sprintf(`
UNWIND $rows AS row
MERGE (n:%s {name: row.name})
SET n += row.props
`, kind)
			if err := runConsume(ctx, tx, query, map[string]any{"rows": rows}); err != nil {
				return err
			}
		}
		return nil
	})
}

// MergeEdges upserts both endpoints by (kind, name), then one relation keyed
// by (source, target, relation). Disallowed kinds or relations drop the edge.
func (g *Ingestor) MergeEdges(ctx context.Context, edges []Edge) {
	if len(edges) == 0 {
		return
	}
	if !g.client.Connected() {
		g.log.Warn("graph store unavailable, skipping edge merge", "edges", len(edges))
		return
	}

	type edgeShape struct {
		source NodeKind
		target NodeKind
		rel    RelationKind
	}
	byShape := map[edgeShape][]map[string]any{}
	for _, e := range edges {
		src, err := ParseNodeKind(e.SourceKind)
		if err != nil {
			g.log.Warn("dropping edge with disallowed source kind", "kind", e.SourceKind)
			continue
		}
		dst, err := ParseNodeKind(e.TargetKind)
		if err != nil {
			g.log.Warn("dropping edge with disallowed target kind", "kind", e.TargetKind)
			continue
		}
		rel, err := ParseRelationKind(e.Relation)
		if err != nil {
			g.log.Warn("dropping edge with disallowed relation", "relation", e.Relation)
			continue
		}
		if e.SourceName == "" || e.TargetName == "" {
			g.log.Warn("dropping edge without endpoint names", "relation", e.Relation)
			continue
		}
		shape := edgeShape{source: src, target: dst, rel: rel}
		byShape[shape] = append(byShape[shape], map[string]any{
			"source_name": e.SourceName,
			"target_name": e.TargetName,
		})
	}

	g.write(ctx, "merge edges", func(tx neo4j.ManagedTransaction) error {
		for shape, rows := range byShape {
			query := fmt.Sprintf(`
UNWIND $rows AS row
MERGE (a:%s {name: row.source_name})
MERGE (b:%s {name: row.target_name})
MERGE (a)-[:%s]->(b)
`, shape.source, shape.target, shape.rel)
			if err := runConsume(ctx, tx, query, map[string]any{"rows": rows}); err != nil {
				return err
			}
		}
		return nil
	})
}

// MergeRecord upserts a retrieval record as a Note node keyed by its external
// id. Titles collide across sources; external ids are stable, so records use
// a different identity scheme than extracted nodes.
func (g *Ingestor) MergeRecord(ctx context.Context, rec retrieval.Record) {
	if rec.ID == "" {
		return
	}
	if !g.client.Connected() {
		g.log.Warn("graph store unavailable, skipping record merge", "record_id", rec.ID)
		return
	}
	g.write(ctx, "merge record", func(tx neo4j.ManagedTransaction) error {
		return runConsume(ctx, tx, `
MERGE (n:Note {id: $id})
SET n.title = $title,
    n.url = $url,
    n.author = $author,
    n.source_type = $source_type,
    n.synced_at = timestamp()
`, map[string]any{
			"id":          rec.ID,
			"title":       rec.Title,
			"url":         rec.URL,
			"author":      rec.Author,
			"source_type": rec.SourceType,
		})
	})
}

// write opens one short-lived session for the operation and swallows store
// errors after logging them.
func (g *Ingestor) write(ctx context.Context, op string, fn func(tx neo4j.ManagedTransaction) error) {
	session := g.client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: g.client.Database,
	})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return nil, fn(tx)
	})
	if err != nil {
		g.log.Warn("graph write failed (continuing)", "op", op, "error", err)
	}
}

func runConsume(ctx context.Context, tx neo4j.ManagedTransaction, query string, params map[string]any) error {
	res, err := tx.Run(ctx, query, params)
	if err != nil {
		return err
	}
	_, err = res.Consume(ctx)
	return err
}
