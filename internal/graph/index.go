// Package graph builds an in-memory dependency index over an inventory
// snapshot and answers traversal, impact and single-point-of-failure
// queries. The index is immutable after build; callers rebuild it from a
// fresh snapshot per query, so nothing here needs locks.
package graph

import (
	"fmt"
	"strings"

	"github.com/toreyjames/Asset-Inventory-Claude/internal/domain"
)

// Edge is the index-local view of a relationship. Source is upstream,
// target is downstream.
type Edge struct {
	ID       string
	SourceID string
	TargetID string
	Kind     domain.RelationshipKind
}

// IntegrityIssue describes one edge that cannot participate in the graph.
type IntegrityIssue struct {
	RelationshipID string
	Reason         string
}

func (i IntegrityIssue) String() string {
	return fmt.Sprintf("relationship %s: %s", i.RelationshipID, i.Reason)
}

// DataIntegrityError reports every offending edge found during a strict
// build, not just the first.
type DataIntegrityError struct {
	Issues []IntegrityIssue
}

func (e *DataIntegrityError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.String())
	}
	return fmt.Sprintf("graph integrity: %s", strings.Join(parts, "; "))
}

// Index holds adjacency for one snapshot. Edge slices preserve the
// snapshot's relationship order, which keeps traversal output stable for
// identical input.
type Index struct {
	assets   map[string]domain.Asset
	order    []string
	outgoing map[string][]Edge
	incoming map[string][]Edge

	// Warnings holds edges dropped by a lenient build. Empty after a
	// strict build.
	Warnings []IntegrityIssue
}

// BuildIndex constructs the adjacency index from a snapshot in O(V+E).
// An edge that references an unknown asset or forms a self-loop is an
// integrity issue: strict mode fails the whole build with a
// DataIntegrityError, lenient mode drops the edge and records a warning.
func BuildIndex(snapshot domain.Snapshot, lenient bool) (*Index, error) {
	idx := &Index{
		assets:   make(map[string]domain.Asset, len(snapshot.Assets)),
		order:    make([]string, 0, len(snapshot.Assets)),
		outgoing: make(map[string][]Edge),
		incoming: make(map[string][]Edge),
	}
	for _, asset := range snapshot.Assets {
		if _, seen := idx.assets[asset.ID]; seen {
			continue
		}
		idx.assets[asset.ID] = asset
		idx.order = append(idx.order, asset.ID)
	}

	var issues []IntegrityIssue
	for _, rel := range snapshot.Relationships {
		edge := Edge{ID: rel.ID, SourceID: rel.SourceAssetID, TargetID: rel.TargetAssetID, Kind: rel.Kind}
		if reason := idx.checkEdge(edge); reason != "" {
			issues = append(issues, IntegrityIssue{RelationshipID: rel.ID, Reason: reason})
			continue
		}
		idx.outgoing[edge.SourceID] = append(idx.outgoing[edge.SourceID], edge)
		idx.incoming[edge.TargetID] = append(idx.incoming[edge.TargetID], edge)
	}

	if len(issues) > 0 {
		if !lenient {
			return nil, &DataIntegrityError{Issues: issues}
		}
		idx.Warnings = issues
	}
	return idx, nil
}

func (idx *Index) checkEdge(edge Edge) string {
	if edge.SourceID == edge.TargetID {
		return fmt.Sprintf("self-loop on asset %q", edge.SourceID)
	}
	if _, ok := idx.assets[edge.SourceID]; !ok {
		return fmt.Sprintf("unknown source asset %q", edge.SourceID)
	}
	if _, ok := idx.assets[edge.TargetID]; !ok {
		return fmt.Sprintf("unknown target asset %q", edge.TargetID)
	}
	return ""
}

// Asset returns the snapshot copy of an asset.
func (idx *Index) Asset(id string) (domain.Asset, bool) {
	asset, ok := idx.assets[id]
	return asset, ok
}

// AssetIDs returns asset ids in snapshot order.
func (idx *Index) AssetIDs() []string { return idx.order }

// Outgoing returns edges where id is the source, in snapshot order.
func (idx *Index) Outgoing(id string) []Edge { return idx.outgoing[id] }

// Incoming returns edges where id is the target, in snapshot order.
func (idx *Index) Incoming(id string) []Edge { return idx.incoming[id] }

// Len returns the number of indexed assets.
func (idx *Index) Len() int { return len(idx.order) }
