package graph

import (
	"fmt"
	"sort"

	"github.com/toreyjames/Asset-Inventory-Claude/internal/domain"
)

// DirectImpact is a depth-1 downstream neighbor together with every edge
// kind connecting it to the failing asset.
type DirectImpact struct {
	Asset domain.Asset
	Kinds []domain.RelationshipKind
}

// DepthGroup collects cascading impacts at one BFS depth (depth >= 2).
type DepthGroup struct {
	Depth  int
	Assets []domain.Asset
}

// Redundancy summarizes configured fallbacks for one asset: peers linked
// by redundant_with in either direction, and sources of incoming backs_up
// edges.
type Redundancy struct {
	Peers   []string
	Backups []string
}

func (r Redundancy) Has() bool { return len(r.Peers) > 0 || len(r.Backups) > 0 }

// ImpactReport answers "what breaks if this asset fails".
type ImpactReport struct {
	Root          domain.Asset
	Direct        []DirectImpact
	Cascading     []DepthGroup
	TotalImpacted int

	// Severity is the highest criticality among impacted assets. It is a
	// ceiling, deliberately independent of how many assets are impacted.
	Severity domain.Criticality
	Counts   map[domain.Criticality]int

	ProcessAreas  []string
	SafetyRelated bool
	Redundancy    Redundancy

	Recommendations []string
	CycleDetected   bool
}

// AnalyzeImpact runs an unbounded downstream traversal from the root and
// summarizes the blast radius. An asset with no outgoing edges yields a
// valid empty report; an unknown asset is a NotFoundError.
func AnalyzeImpact(idx *Index, rootID string) (*ImpactReport, error) {
	traversal, err := Traverse(idx, rootID, Downstream, Options{})
	if err != nil {
		return nil, err
	}
	root, _ := idx.Asset(rootID)

	report := &ImpactReport{
		Root:          root,
		Counts:        make(map[domain.Criticality]int),
		CycleDetected: traversal.CycleDetected,
		Redundancy:    redundancyOf(idx, rootID),
	}

	directKinds := make(map[string][]domain.RelationshipKind)
	for _, edge := range idx.Outgoing(rootID) {
		directKinds[edge.TargetID] = append(directKinds[edge.TargetID], edge.Kind)
	}

	byDepth := make(map[int][]domain.Asset)
	areas := make(map[string]struct{})
	maxDepth := 0
	for _, visit := range traversal.Visits {
		report.TotalImpacted++
		report.Counts[visit.Asset.Criticality]++
		report.Severity = domain.MaxCriticality(report.Severity, visit.Asset.Criticality)
		if visit.Asset.ProcessAreaID != nil {
			areas[*visit.Asset.ProcessAreaID] = struct{}{}
		}
		if visit.Depth == 1 {
			report.Direct = append(report.Direct, DirectImpact{
				Asset: visit.Asset,
				Kinds: directKinds[visit.Asset.ID],
			})
			continue
		}
		byDepth[visit.Depth] = append(byDepth[visit.Depth], visit.Asset)
		if visit.Depth > maxDepth {
			maxDepth = visit.Depth
		}
	}
	if root.ProcessAreaID != nil {
		areas[*root.ProcessAreaID] = struct{}{}
	}

	for depth := 2; depth <= maxDepth; depth++ {
		if assets := byDepth[depth]; len(assets) > 0 {
			report.Cascading = append(report.Cascading, DepthGroup{Depth: depth, Assets: assets})
		}
	}

	for area := range areas {
		report.ProcessAreas = append(report.ProcessAreas, area)
	}
	sort.Strings(report.ProcessAreas)

	report.SafetyRelated = safetyInvolved(idx, rootID, traversal)
	report.Recommendations = impactRecommendations(report)
	return report, nil
}

// safetyInvolved reports whether the root or any impacted asset is the
// source of a safety interlock.
func safetyInvolved(idx *Index, rootID string, traversal *Traversal) bool {
	check := func(id string) bool {
		for _, edge := range idx.Outgoing(id) {
			if edge.Kind == domain.KindSafetyInterlockFor {
				return true
			}
		}
		return false
	}
	if check(rootID) {
		return true
	}
	for _, visit := range traversal.Visits {
		if check(visit.Asset.ID) {
			return true
		}
	}
	return false
}

func redundancyOf(idx *Index, id string) Redundancy {
	var r Redundancy
	for _, edge := range idx.Outgoing(id) {
		if edge.Kind == domain.KindRedundantWith {
			r.Peers = append(r.Peers, edge.TargetID)
		}
	}
	for _, edge := range idx.Incoming(id) {
		switch edge.Kind {
		case domain.KindRedundantWith:
			r.Peers = append(r.Peers, edge.SourceID)
		case domain.KindBacksUp:
			r.Backups = append(r.Backups, edge.SourceID)
		}
	}
	return r
}

func impactRecommendations(report *ImpactReport) []string {
	var recs []string
	if !report.Redundancy.Has() {
		recs = append(recs, fmt.Sprintf("CRITICAL: %s has no redundancy configured", report.Root.Name))
	}
	if n := report.Counts[domain.CriticalityCritical]; n > 0 {
		recs = append(recs, fmt.Sprintf("Failure would affect %d critical asset(s)", n))
	}
	if report.SafetyRelated {
		recs = append(recs, "WARNING: Safety systems may be affected - review safety protocols")
	}
	if len(report.ProcessAreas) > 1 {
		recs = append(recs, fmt.Sprintf("Impact spans %d process areas - coordinate response", len(report.ProcessAreas)))
	}
	return recs
}
