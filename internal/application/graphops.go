package application

import (
	"context"
	"errors"
	"strings"

	"github.com/toreyjames/Asset-Inventory-Claude/internal/domain"
	"github.com/toreyjames/Asset-Inventory-Claude/internal/graph"
)

// TraceOptions narrows a graph query. Lenient builds drop broken edges
// instead of failing; the dropped edges come back as warnings.
type TraceOptions struct {
	MaxDepth int
	Kinds    []string
	Lenient  bool
}

type TraceResult struct {
	Root          domain.Asset
	Visits        []graph.Visit
	CycleDetected bool
	Warnings      []graph.IntegrityIssue
}

// DependencyReport is the combined view of an asset's neighborhood:
// upstream and downstream closures, its explicit depends_on edges, and
// configured redundancy.
type DependencyReport struct {
	Root       domain.Asset
	Upstream   []graph.Visit
	Downstream []graph.Visit
	DependsOn  []domain.Relationship
	Redundancy graph.Redundancy
	Warnings   []graph.IntegrityIssue
}

type SpofReport struct {
	Threshold domain.Criticality
	Findings  []graph.Finding
	Warnings  []graph.IntegrityIssue
}

func (s *InventoryService) buildIndex(ctx context.Context, lenient bool) (*graph.Index, error) {
	snapshot, err := s.repo.LoadSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	return graph.BuildIndex(snapshot, lenient)
}

func parseKinds(kinds []string) ([]domain.RelationshipKind, error) {
	parsed := make([]domain.RelationshipKind, 0, len(kinds))
	for _, kind := range kinds {
		k, err := domain.ParseRelationshipKind(strings.TrimSpace(kind))
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, k)
	}
	return parsed, nil
}

func (s *InventoryService) traverse(ctx context.Context, assetID string, dir graph.Direction, opts TraceOptions) (TraceResult, error) {
	if strings.TrimSpace(assetID) == "" {
		return TraceResult{}, errors.New("asset id is required")
	}
	kinds, err := parseKinds(opts.Kinds)
	if err != nil {
		return TraceResult{}, err
	}

	idx, err := s.buildIndex(ctx, opts.Lenient)
	if err != nil {
		return TraceResult{}, err
	}
	traversal, err := graph.Traverse(idx, assetID, dir, graph.Options{MaxDepth: opts.MaxDepth, Kinds: kinds})
	if err != nil {
		return TraceResult{}, err
	}
	root, _ := idx.Asset(assetID)
	return TraceResult{
		Root:          root,
		Visits:        traversal.Visits,
		CycleDetected: traversal.CycleDetected,
		Warnings:      idx.Warnings,
	}, nil
}

// TraceUpstream lists everything that feeds the asset.
func (s *InventoryService) TraceUpstream(ctx context.Context, assetID string, opts TraceOptions) (TraceResult, error) {
	return s.traverse(ctx, assetID, graph.Upstream, opts)
}

// TraceDownstream lists everything the asset feeds.
func (s *InventoryService) TraceDownstream(ctx context.Context, assetID string, opts TraceOptions) (TraceResult, error) {
	return s.traverse(ctx, assetID, graph.Downstream, opts)
}

func (s *InventoryService) GetDependencies(ctx context.Context, assetID string, opts TraceOptions) (DependencyReport, error) {
	if strings.TrimSpace(assetID) == "" {
		return DependencyReport{}, errors.New("asset id is required")
	}
	kinds, err := parseKinds(opts.Kinds)
	if err != nil {
		return DependencyReport{}, err
	}

	idx, err := s.buildIndex(ctx, opts.Lenient)
	if err != nil {
		return DependencyReport{}, err
	}
	traversal, err := graph.Traverse(idx, assetID, graph.Both, graph.Options{MaxDepth: opts.MaxDepth, Kinds: kinds})
	if err != nil {
		return DependencyReport{}, err
	}

	report := DependencyReport{Warnings: idx.Warnings}
	report.Root, _ = idx.Asset(assetID)
	for _, visit := range traversal.Visits {
		if visit.Direction == graph.Upstream {
			report.Upstream = append(report.Upstream, visit)
		} else {
			report.Downstream = append(report.Downstream, visit)
		}
	}

	kind := domain.KindDependsOn
	dependsOn, err := s.repo.ListRelationships(ctx, domain.RelationshipFilter{SourceAssetID: &assetID, Kind: &kind})
	if err != nil {
		return DependencyReport{}, err
	}
	report.DependsOn = dependsOn
	report.Redundancy = redundancyFromEdges(idx, assetID)
	return report, nil
}

func (s *InventoryService) AnalyzeImpact(ctx context.Context, assetID string, lenient bool) (*graph.ImpactReport, []graph.IntegrityIssue, error) {
	if strings.TrimSpace(assetID) == "" {
		return nil, nil, errors.New("asset id is required")
	}
	idx, err := s.buildIndex(ctx, lenient)
	if err != nil {
		return nil, nil, err
	}
	report, err := graph.AnalyzeImpact(idx, assetID)
	if err != nil {
		return nil, nil, err
	}
	s.WriteAudit(ctx, actorFrom(ctx), "analysis.impact", "asset", assetID, "")
	return report, idx.Warnings, nil
}

func (s *InventoryService) FindSinglePointsOfFailure(ctx context.Context, threshold string, lenient bool) (SpofReport, error) {
	parsed, err := domain.ParseCriticality(threshold)
	if err != nil {
		return SpofReport{}, err
	}
	if parsed == "" {
		parsed = domain.CriticalityHigh
	}
	idx, err := s.buildIndex(ctx, lenient)
	if err != nil {
		return SpofReport{}, err
	}
	findings := graph.FindSinglePointsOfFailure(idx, parsed)
	s.WriteAudit(ctx, actorFrom(ctx), "analysis.spof", "inventory", string(parsed), "")
	return SpofReport{Threshold: parsed, Findings: findings, Warnings: idx.Warnings}, nil
}

func redundancyFromEdges(idx *graph.Index, assetID string) graph.Redundancy {
	var r graph.Redundancy
	for _, edge := range idx.Outgoing(assetID) {
		if edge.Kind == domain.KindRedundantWith {
			r.Peers = append(r.Peers, edge.TargetID)
		}
	}
	for _, edge := range idx.Incoming(assetID) {
		switch edge.Kind {
		case domain.KindRedundantWith:
			r.Peers = append(r.Peers, edge.SourceID)
		case domain.KindBacksUp:
			r.Backups = append(r.Backups, edge.SourceID)
		}
	}
	return r
}
