package application

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/toreyjames/Asset-Inventory-Claude/internal/domain"
)

// Verification windows: assets unseen for six months count as unverified,
// a year makes the verification stale.
const (
	verificationWindow = 180 * 24 * time.Hour
	staleWindow        = 365 * 24 * time.Hour
)

// defaultGapTypes is the audit-prep set. Stale verification is opt-in
// because every stale asset already shows up as unverified.
var defaultGapTypes = []domain.GapType{
	domain.GapNoOwner, domain.GapNotInCMMS, domain.GapUndocumented,
	domain.GapNoSecurityPolicy, domain.GapUnverified,
}

// gapsForAsset evaluates every compliance rule against one asset.
func gapsForAsset(asset domain.Asset, now time.Time) []domain.GapType {
	var gaps []domain.GapType
	if asset.Owner == nil || *asset.Owner == "" {
		gaps = append(gaps, domain.GapNoOwner)
	}
	if !asset.InCMMS {
		gaps = append(gaps, domain.GapNotInCMMS)
	}
	if !asset.Documented {
		gaps = append(gaps, domain.GapUndocumented)
	}
	if !asset.SecurityPolicyApplied {
		gaps = append(gaps, domain.GapNoSecurityPolicy)
	}
	if asset.LastVerified == nil || now.Sub(*asset.LastVerified) > verificationWindow {
		gaps = append(gaps, domain.GapUnverified)
	}
	if asset.LastVerified != nil && now.Sub(*asset.LastVerified) > staleWindow {
		gaps = append(gaps, domain.GapStaleVerification)
	}
	return gaps
}

type GapEntry struct {
	Asset       domain.Asset
	Description string
}

type GapReport struct {
	Gaps              map[domain.GapType][]GapEntry
	TotalGapInstances int
	UniqueAssets      int
	CriticalAssets    int
}

func gapDescription(gap domain.GapType, asset domain.Asset) string {
	switch gap {
	case domain.GapNoOwner:
		return "No owner assigned"
	case domain.GapNotInCMMS:
		return "Not registered in CMMS"
	case domain.GapUndocumented:
		return "Missing documentation"
	case domain.GapNoSecurityPolicy:
		return "Security policy not applied"
	case domain.GapUnverified:
		if asset.LastVerified == nil {
			return "Never verified"
		}
		return fmt.Sprintf("Last verified: %s", asset.LastVerified.Format("2006-01-02"))
	case domain.GapStaleVerification:
		return fmt.Sprintf("Verification stale: %s", asset.LastVerified.Format("2006-01-02"))
	}
	return string(gap)
}

// FindComplianceGaps scans assets for documentation and ownership
// shortfalls, grouped by gap type. An empty types slice checks the
// default audit set.
func (s *InventoryService) FindComplianceGaps(ctx context.Context, types []string, processAreaID *string, criticality *string) (GapReport, error) {
	wanted := make(map[domain.GapType]struct{})
	if len(types) == 0 {
		for _, gap := range defaultGapTypes {
			wanted[gap] = struct{}{}
		}
	} else {
		for _, t := range types {
			gap, err := domain.ParseGapType(t)
			if err != nil {
				return GapReport{}, err
			}
			wanted[gap] = struct{}{}
		}
	}

	filter := domain.AssetFilter{ProcessAreaID: processAreaID, Limit: 10000}
	if criticality != nil {
		parsed, err := domain.ParseCriticality(*criticality)
		if err != nil {
			return GapReport{}, err
		}
		filter.Criticality = &parsed
	}
	assets, err := s.repo.ListAssets(ctx, filter)
	if err != nil {
		return GapReport{}, err
	}

	now := time.Now().UTC()
	report := GapReport{Gaps: make(map[domain.GapType][]GapEntry)}
	unique := make(map[string]struct{})
	critical := make(map[string]struct{})
	for _, asset := range assets {
		for _, gap := range gapsForAsset(asset, now) {
			if _, ok := wanted[gap]; !ok {
				continue
			}
			report.Gaps[gap] = append(report.Gaps[gap], GapEntry{Asset: asset, Description: gapDescription(gap, asset)})
			report.TotalGapInstances++
			unique[asset.ID] = struct{}{}
			if asset.Criticality == domain.CriticalityCritical {
				critical[asset.ID] = struct{}{}
			}
		}
	}
	report.UniqueAssets = len(unique)
	report.CriticalAssets = len(critical)
	return report, nil
}

type ComplianceMetric struct {
	Count      int64
	Percentage float64
}

type ComplianceStats struct {
	TotalAssets    int64
	HasOwner       ComplianceMetric
	InCMMS         ComplianceMetric
	Documented     ComplianceMetric
	SecurityPolicy ComplianceMetric
	Verified       ComplianceMetric
}

func complianceStatsFor(assets []domain.Asset) ComplianceStats {
	stats := ComplianceStats{TotalAssets: int64(len(assets))}
	for _, asset := range assets {
		if asset.Owner != nil && *asset.Owner != "" {
			stats.HasOwner.Count++
		}
		if asset.InCMMS {
			stats.InCMMS.Count++
		}
		if asset.Documented {
			stats.Documented.Count++
		}
		if asset.SecurityPolicyApplied {
			stats.SecurityPolicy.Count++
		}
		if asset.LastVerified != nil {
			stats.Verified.Count++
		}
	}
	stats.HasOwner.Percentage = pct(stats.HasOwner.Count, stats.TotalAssets)
	stats.InCMMS.Percentage = pct(stats.InCMMS.Count, stats.TotalAssets)
	stats.Documented.Percentage = pct(stats.Documented.Count, stats.TotalAssets)
	stats.SecurityPolicy.Percentage = pct(stats.SecurityPolicy.Count, stats.TotalAssets)
	stats.Verified.Percentage = pct(stats.Verified.Count, stats.TotalAssets)
	return stats
}

func pct(count, total int64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(count)/float64(total)*1000) / 10
}

type ComplianceScore struct {
	Score float64
	Grade string
}

type AuditSummary struct {
	AuditDate            string
	Scope                string
	TotalAssets          int64
	ByType               map[string]int64
	ByCriticality        map[string]int64
	Compliance           ComplianceStats
	GapCounts            map[domain.GapType]int
	CriticalWithoutOwner int
	UniqueAssetsWithGaps int
	CriticalWithGaps     int
	Score                ComplianceScore
	Recommendations      []string
}

// GetAuditSummary produces the management-facing audit readiness report:
// asset breakdowns, compliance percentages, a weighted score with a
// letter grade and concrete followups.
func (s *InventoryService) GetAuditSummary(ctx context.Context, processAreaID *string) (AuditSummary, error) {
	assets, err := s.repo.ListAssets(ctx, domain.AssetFilter{ProcessAreaID: processAreaID, Limit: 10000})
	if err != nil {
		return AuditSummary{}, err
	}

	summary := AuditSummary{
		AuditDate:     time.Now().UTC().Format("2006-01-02"),
		Scope:         "All process areas",
		TotalAssets:   int64(len(assets)),
		ByType:        make(map[string]int64),
		ByCriticality: make(map[string]int64),
		GapCounts:     make(map[domain.GapType]int),
	}
	if processAreaID != nil {
		summary.Scope = *processAreaID
	}

	for _, asset := range assets {
		summary.ByType[string(asset.Type)]++
		crit := string(asset.Criticality)
		if crit == "" {
			crit = "unassigned"
		}
		summary.ByCriticality[crit]++
		if asset.Criticality == domain.CriticalityCritical && (asset.Owner == nil || *asset.Owner == "") {
			summary.CriticalWithoutOwner++
		}
	}

	summary.Compliance = complianceStatsFor(assets)

	gaps, err := s.FindComplianceGaps(ctx, nil, processAreaID, nil)
	if err != nil {
		return AuditSummary{}, err
	}
	for gap, entries := range gaps.Gaps {
		summary.GapCounts[gap] = len(entries)
	}
	summary.UniqueAssetsWithGaps = gaps.UniqueAssets
	summary.CriticalWithGaps = gaps.CriticalAssets

	summary.Score = complianceScore(summary.Compliance)
	summary.Recommendations = auditRecommendations(summary)
	return summary, nil
}

// complianceScore weighs ownership and documentation heaviest; those are
// what auditors ask for first.
func complianceScore(stats ComplianceStats) ComplianceScore {
	score := stats.HasOwner.Percentage*0.25 +
		stats.InCMMS.Percentage*0.20 +
		stats.Documented.Percentage*0.25 +
		stats.SecurityPolicy.Percentage*0.20 +
		stats.Verified.Percentage*0.10
	score = math.Round(score*10) / 10

	grade := "F"
	switch {
	case score >= 90:
		grade = "A"
	case score >= 80:
		grade = "B"
	case score >= 70:
		grade = "C"
	case score >= 60:
		grade = "D"
	}
	return ComplianceScore{Score: score, Grade: grade}
}

func auditRecommendations(summary AuditSummary) []string {
	var recs []string
	stats := summary.Compliance
	total := summary.TotalAssets

	if summary.CriticalWithoutOwner > 0 {
		recs = append(recs, fmt.Sprintf("URGENT: Assign owners to %d critical asset(s) without ownership", summary.CriticalWithoutOwner))
	}
	if stats.HasOwner.Percentage < 80 {
		recs = append(recs, fmt.Sprintf("Assign owners to %d asset(s) (%.0f%% missing)", total-stats.HasOwner.Count, 100-stats.HasOwner.Percentage))
	}
	if stats.InCMMS.Percentage < 90 {
		recs = append(recs, fmt.Sprintf("Register %d asset(s) in CMMS (%.0f%% not registered)", total-stats.InCMMS.Count, 100-stats.InCMMS.Percentage))
	}
	if stats.Documented.Percentage < 80 {
		recs = append(recs, fmt.Sprintf("Create documentation for %d asset(s) (%.0f%% undocumented)", total-stats.Documented.Count, 100-stats.Documented.Percentage))
	}
	if stats.SecurityPolicy.Percentage < 90 {
		recs = append(recs, fmt.Sprintf("Apply security policies to %d asset(s) (%.0f%% without policy)", total-stats.SecurityPolicy.Count, 100-stats.SecurityPolicy.Percentage))
	}
	if stats.Verified.Percentage < 70 {
		recs = append(recs, fmt.Sprintf("Schedule verification for %d asset(s) (%.0f%% not recently verified)", total-stats.Verified.Count, 100-stats.Verified.Percentage))
	}
	if len(recs) == 0 {
		recs = append(recs, "Good compliance posture - maintain current processes")
	}
	return recs
}
