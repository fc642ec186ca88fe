package graph

import (
	"sort"

	"github.com/toreyjames/Asset-Inventory-Claude/internal/domain"
)

// supportKind reports whether a relationship carries a live operational
// dependency. redundant_with and backs_up describe fallbacks, not supply,
// so they never form support paths.
func supportKind(kind domain.RelationshipKind) bool {
	return kind != domain.KindRedundantWith && kind != domain.KindBacksUp
}

// SupportedAsset names one critical asset a SPOF solely supports, with a
// sample supply chain from the SPOF down to it.
type SupportedAsset struct {
	Asset domain.Asset
	Chain []Edge
}

// Finding is one single point of failure and everything critical it holds
// up.
type Finding struct {
	Asset     domain.Asset
	Supported []SupportedAsset
}

// FindSinglePointsOfFailure inspects every asset at or above the
// criticality threshold and reports the upstream assets whose loss would
// cut a supply feed to it. An upstream asset U is flagged for a critical
// asset C when U either originates a feed itself (no upstream of its own)
// or sits on every path from some origin to C, checked by removing U and
// re-testing reachability. Assets with a redundant peer or a configured
// backup are exempt. An empty threshold defaults to high.
func FindSinglePointsOfFailure(idx *Index, threshold domain.Criticality) []Finding {
	if threshold == "" {
		threshold = domain.CriticalityHigh
	}

	found := make(map[string]*Finding)
	for _, criticalID := range idx.AssetIDs() {
		critical, _ := idx.Asset(criticalID)
		if !critical.Criticality.AtLeast(threshold) {
			continue
		}

		closure := upstreamClosure(idx, criticalID)
		var origins []string
		for id := range closure {
			if id != criticalID && !hasSupportUpstream(idx, id) {
				origins = append(origins, id)
			}
		}
		sort.Strings(origins)

		for id := range closure {
			if id == criticalID {
				continue
			}
			if redundancyOf(idx, id).Has() {
				continue
			}
			if !isSoleSupport(idx, id, criticalID, origins) {
				continue
			}
			finding, ok := found[id]
			if !ok {
				asset, _ := idx.Asset(id)
				finding = &Finding{Asset: asset}
				found[id] = finding
			}
			finding.Supported = append(finding.Supported, SupportedAsset{
				Asset: critical,
				Chain: supplyChain(idx, id, criticalID),
			})
		}
	}

	findings := make([]Finding, 0, len(found))
	for _, finding := range found {
		sort.Slice(finding.Supported, func(i, j int) bool {
			return finding.Supported[i].Asset.ID < finding.Supported[j].Asset.ID
		})
		findings = append(findings, *finding)
	}
	sort.Slice(findings, func(i, j int) bool {
		ri, rj := findings[i].Asset.Criticality.Rank(), findings[j].Asset.Criticality.Rank()
		if ri != rj {
			return ri > rj
		}
		return findings[i].Asset.ID < findings[j].Asset.ID
	})
	return findings
}

// isSoleSupport decides whether candidate is a single point of failure for
// the critical asset. Origins are individually necessary feeds; an
// intermediate is flagged when its removal severs some origin's path.
func isSoleSupport(idx *Index, candidate, criticalID string, origins []string) bool {
	if !hasSupportUpstream(idx, candidate) {
		return true
	}
	for _, origin := range origins {
		if origin == candidate {
			continue
		}
		if !reachesWithout(idx, origin, criticalID, candidate) {
			return true
		}
	}
	return false
}

// upstreamClosure returns every asset with a support path into root,
// root included.
func upstreamClosure(idx *Index, rootID string) map[string]struct{} {
	visited := map[string]struct{}{rootID: {}}
	queue := []string{rootID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, edge := range idx.Incoming(current) {
			if !supportKind(edge.Kind) {
				continue
			}
			if _, seen := visited[edge.SourceID]; seen {
				continue
			}
			visited[edge.SourceID] = struct{}{}
			queue = append(queue, edge.SourceID)
		}
	}
	return visited
}

func hasSupportUpstream(idx *Index, id string) bool {
	for _, edge := range idx.Incoming(id) {
		if supportKind(edge.Kind) {
			return true
		}
	}
	return false
}

// reachesWithout reports whether to is reachable downstream from from when
// skip is treated as removed from the graph.
func reachesWithout(idx *Index, from, to, skip string) bool {
	if from == skip {
		return false
	}
	visited := map[string]struct{}{from: {}}
	queue := []string{from}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current == to {
			return true
		}
		for _, edge := range idx.Outgoing(current) {
			if !supportKind(edge.Kind) || edge.TargetID == skip {
				continue
			}
			if _, seen := visited[edge.TargetID]; seen {
				continue
			}
			visited[edge.TargetID] = struct{}{}
			queue = append(queue, edge.TargetID)
		}
	}
	return false
}

// supplyChain returns the edges of one shortest support path from from
// down to to.
func supplyChain(idx *Index, from, to string) []Edge {
	parent := make(map[string]Edge)
	visited := map[string]struct{}{from: {}}
	queue := []string{from}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current == to {
			break
		}
		for _, edge := range idx.Outgoing(current) {
			if !supportKind(edge.Kind) {
				continue
			}
			if _, seen := visited[edge.TargetID]; seen {
				continue
			}
			visited[edge.TargetID] = struct{}{}
			parent[edge.TargetID] = edge
			queue = append(queue, edge.TargetID)
		}
	}

	var chain []Edge
	for at := to; at != from; {
		edge, ok := parent[at]
		if !ok {
			return nil
		}
		chain = append(chain, edge)
		at = edge.SourceID
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}
