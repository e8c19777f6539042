// Package graph merges extracted travel knowledge into the property graph.
package graph

import "fmt"

// Node and relation kinds are an allow-list. Extracted type strings come from
// model output and are untrusted; they are validated against this set before
// any label reaches query text, never interpolated unchecked.

type NodeKind string

const (
	KindPlace       NodeKind = "Place"
	KindFood        NodeKind = "Food"
	KindActivity    NodeKind = "Activity"
	KindPrice       NodeKind = "Price"
	KindTag         NodeKind = "Tag"
	KindDestination NodeKind = "Destination"
	KindNote        NodeKind = "Note"
)

type RelationKind string

const (
	RelLocatedIn   RelationKind = "LOCATED_IN"
	RelHasCost     RelationKind = "HAS_COST"
	RelOffers      RelationKind = "OFFERS"
	RelSuitableFor RelationKind = "SUITABLE_FOR"
	RelHasTag      RelationKind = "HAS_TAG"
	RelNearby      RelationKind = "NEARBY"
	RelMentions    RelationKind = "MENTIONS"
)

var nodeKinds = map[NodeKind]bool{
	KindPlace:       true,
	KindFood:        true,
	KindActivity:    true,
	KindPrice:       true,
	KindTag:         true,
	KindDestination: true,
	KindNote:        true,
}

var relationKinds = map[RelationKind]bool{
	RelLocatedIn:   true,
	RelHasCost:     true,
	RelOffers:      true,
	RelSuitableFor: true,
	RelHasTag:      true,
	RelNearby:      true,
	RelMentions:    true,
}

func ParseNodeKind(s string) (NodeKind, error) {
	k := NodeKind(s)
	if !nodeKinds[k] {
		return "", fmt.Errorf("graph: node kind %q not allowed", s)
	}
	return k, nil
}

func ParseRelationKind(s string) (RelationKind, error) {
	k := RelationKind(s)
	if !relationKinds[k] {
		return "", fmt.Errorf("graph: relation kind %q not allowed", s)
	}
	return k, nil
}

// Node identity for merge purposes is (Kind, Properties["name"]).
type Node struct {
	Kind       string         `json:"type"`
	Properties map[string]any `json:"properties"`
}

func (n Node) Name() string {
	if v, ok := n.Properties["name"].(string); ok {
		return v
	}
	return ""
}

// Edge identity for merge purposes is (source, target, Relation).
type Edge struct {
	SourceName string `json:"source"`
	SourceKind string `json:"source_type"`
	TargetName string `json:"target"`
	TargetKind string `json:"target_type"`
	Relation   string `json:"type"`
}
