package application

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/toreyjames/Asset-Inventory-Claude/internal/domain"
)

func TestGapsForAsset(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	owner := "ops team"
	fresh := now.Add(-30 * 24 * time.Hour)

	compliant := domain.Asset{
		Owner:                 &owner,
		InCMMS:                true,
		Documented:            true,
		SecurityPolicyApplied: true,
		LastVerified:          &fresh,
	}
	if gaps := gapsForAsset(compliant, now); len(gaps) != 0 {
		t.Fatalf("compliant asset should have no gaps, got %v", gaps)
	}

	bare := domain.Asset{}
	gaps := gapsForAsset(bare, now)
	want := map[domain.GapType]bool{
		domain.GapNoOwner:          true,
		domain.GapNotInCMMS:        true,
		domain.GapUndocumented:     true,
		domain.GapNoSecurityPolicy: true,
		domain.GapUnverified:       true,
	}
	if len(gaps) != len(want) {
		t.Fatalf("expected %d gaps on a bare asset, got %v", len(want), gaps)
	}
	for _, gap := range gaps {
		if !want[gap] {
			t.Fatalf("unexpected gap %q", gap)
		}
	}

	stale := now.Add(-400 * 24 * time.Hour)
	aged := compliant
	aged.LastVerified = &stale
	gaps = gapsForAsset(aged, now)
	hasUnverified, hasStale := false, false
	for _, gap := range gaps {
		switch gap {
		case domain.GapUnverified:
			hasUnverified = true
		case domain.GapStaleVerification:
			hasStale = true
		}
	}
	if !hasUnverified || !hasStale {
		t.Fatalf("stale asset should be both unverified and stale, got %v", gaps)
	}
}

func TestFindComplianceGapsRejectsUnknownType(t *testing.T) {
	svc := NewInventoryService(nil)
	_, err := svc.FindComplianceGaps(context.Background(), []string{"no_ownerr"}, nil, nil)
	if err == nil {
		t.Fatal("a typoed gap type should be rejected, not silently ignored")
	}
	if !strings.Contains(err.Error(), "no_ownerr") {
		t.Fatalf("error should name the bad type, got %v", err)
	}
}

func TestComplianceStatsFor(t *testing.T) {
	owner := "controls"
	verified := time.Now().UTC()
	assets := []domain.Asset{
		{Owner: &owner, InCMMS: true, Documented: true, SecurityPolicyApplied: true, LastVerified: &verified},
		{InCMMS: true},
		{},
		{Documented: true},
	}

	stats := complianceStatsFor(assets)
	if stats.TotalAssets != 4 {
		t.Fatalf("expected 4 assets, got %d", stats.TotalAssets)
	}
	if stats.HasOwner.Count != 1 || stats.HasOwner.Percentage != 25.0 {
		t.Fatalf("owner stats wrong: %+v", stats.HasOwner)
	}
	if stats.InCMMS.Count != 2 || stats.InCMMS.Percentage != 50.0 {
		t.Fatalf("cmms stats wrong: %+v", stats.InCMMS)
	}
	if stats.Verified.Count != 1 {
		t.Fatalf("verified count wrong: %+v", stats.Verified)
	}
}

func TestComplianceStatsForEmpty(t *testing.T) {
	stats := complianceStatsFor(nil)
	if stats.TotalAssets != 0 || stats.HasOwner.Percentage != 0 {
		t.Fatalf("empty inventory should score zero, got %+v", stats)
	}
}

func TestComplianceScoreGrades(t *testing.T) {
	full := ComplianceStats{
		HasOwner:       ComplianceMetric{Percentage: 100},
		InCMMS:         ComplianceMetric{Percentage: 100},
		Documented:     ComplianceMetric{Percentage: 100},
		SecurityPolicy: ComplianceMetric{Percentage: 100},
		Verified:       ComplianceMetric{Percentage: 100},
	}
	score := complianceScore(full)
	if score.Score != 100.0 || score.Grade != "A" {
		t.Fatalf("full compliance should grade A: %+v", score)
	}

	score = complianceScore(ComplianceStats{})
	if score.Score != 0 || score.Grade != "F" {
		t.Fatalf("zero compliance should grade F: %+v", score)
	}

	// Ownership and documentation carry the heaviest weights.
	partial := ComplianceStats{
		HasOwner:   ComplianceMetric{Percentage: 100},
		Documented: ComplianceMetric{Percentage: 100},
	}
	score = complianceScore(partial)
	if score.Score != 50.0 || score.Grade != "F" {
		t.Fatalf("unexpected weighted score: %+v", score)
	}
}

func TestAuditRecommendationsFlagCriticalOwnership(t *testing.T) {
	summary := AuditSummary{
		TotalAssets:          10,
		CriticalWithoutOwner: 2,
		Compliance: ComplianceStats{
			TotalAssets:    10,
			HasOwner:       ComplianceMetric{Count: 9, Percentage: 90},
			InCMMS:         ComplianceMetric{Count: 10, Percentage: 100},
			Documented:     ComplianceMetric{Count: 10, Percentage: 100},
			SecurityPolicy: ComplianceMetric{Count: 10, Percentage: 100},
			Verified:       ComplianceMetric{Count: 10, Percentage: 100},
		},
	}
	recs := auditRecommendations(summary)
	if len(recs) != 1 {
		t.Fatalf("expected only the urgent ownership item, got %v", recs)
	}
	if recs[0] != "URGENT: Assign owners to 2 critical asset(s) without ownership" {
		t.Fatalf("unexpected recommendation: %q", recs[0])
	}

	summary.CriticalWithoutOwner = 0
	recs = auditRecommendations(summary)
	if len(recs) != 1 || recs[0] != "Good compliance posture - maintain current processes" {
		t.Fatalf("clean summary should get the posture note, got %v", recs)
	}
}
