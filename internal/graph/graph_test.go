package graph

import (
	"strings"
	"testing"

	"github.com/toreyjames/Asset-Inventory-Claude/internal/domain"
)

func asset(id string, typ domain.AssetType, crit domain.Criticality) domain.Asset {
	return domain.Asset{ID: id, Name: id, Type: typ, Criticality: crit}
}

func rel(id, source, target string, kind domain.RelationshipKind) domain.Relationship {
	return domain.Relationship{ID: id, SourceAssetID: source, TargetAssetID: target, Kind: kind}
}

func mustBuild(t *testing.T, snapshot domain.Snapshot) *Index {
	t.Helper()
	idx, err := BuildIndex(snapshot, false)
	if err != nil {
		t.Fatalf("build index: %v", err)
	}
	return idx
}

func TestBuildIndexRejectsBadEdges(t *testing.T) {
	snapshot := domain.Snapshot{
		Assets: []domain.Asset{
			asset("PLC-1", domain.AssetPLC, domain.CriticalityHigh),
			asset("HMI-1", domain.AssetHMI, domain.CriticalityMedium),
		},
		Relationships: []domain.Relationship{
			rel("r1", "PLC-1", "PLC-1", domain.KindControls),
			rel("r2", "PLC-1", "GHOST-9", domain.KindFeedsDataTo),
			rel("r3", "PLC-1", "HMI-1", domain.KindFeedsDataTo),
		},
	}

	_, err := BuildIndex(snapshot, false)
	if err == nil {
		t.Fatal("expected strict build to fail")
	}
	integrity, ok := err.(*DataIntegrityError)
	if !ok {
		t.Fatalf("expected DataIntegrityError, got %T", err)
	}
	if len(integrity.Issues) != 2 {
		t.Fatalf("expected 2 issues, got %d: %v", len(integrity.Issues), integrity.Issues)
	}
	if !strings.Contains(integrity.Error(), "self-loop") {
		t.Fatalf("error should name the self-loop: %s", integrity.Error())
	}

	idx, err := BuildIndex(snapshot, true)
	if err != nil {
		t.Fatalf("lenient build: %v", err)
	}
	if len(idx.Warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %d", len(idx.Warnings))
	}
	if len(idx.Outgoing("PLC-1")) != 1 {
		t.Fatalf("good edge should survive lenient build, got %d", len(idx.Outgoing("PLC-1")))
	}
}

func TestTraverseDepthsAndDirections(t *testing.T) {
	idx := mustBuild(t, domain.Snapshot{
		Assets: []domain.Asset{
			asset("SENSOR-1", domain.AssetSensor, domain.CriticalityMedium),
			asset("SENSOR-2", domain.AssetSensor, domain.CriticalityMedium),
			asset("PLC-1", domain.AssetPLC, domain.CriticalityCritical),
			asset("HMI-1", domain.AssetHMI, domain.CriticalityHigh),
		},
		Relationships: []domain.Relationship{
			rel("r1", "SENSOR-1", "PLC-1", domain.KindFeedsDataTo),
			rel("r2", "SENSOR-2", "PLC-1", domain.KindFeedsDataTo),
			rel("r3", "PLC-1", "HMI-1", domain.KindFeedsDataTo),
		},
	})

	down, err := Traverse(idx, "SENSOR-1", Downstream, Options{})
	if err != nil {
		t.Fatalf("downstream: %v", err)
	}
	if len(down.Visits) != 2 {
		t.Fatalf("expected 2 downstream visits, got %d", len(down.Visits))
	}
	if down.Depths["PLC-1"] != 1 || down.Depths["HMI-1"] != 2 {
		t.Fatalf("wrong depths: %v", down.Depths)
	}

	up, err := Traverse(idx, "HMI-1", Upstream, Options{})
	if err != nil {
		t.Fatalf("upstream: %v", err)
	}
	if up.Depths["PLC-1"] != 1 || up.Depths["SENSOR-1"] != 2 || up.Depths["SENSOR-2"] != 2 {
		t.Fatalf("wrong upstream depths: %v", up.Depths)
	}
	for _, visit := range up.Visits {
		if visit.Direction != Upstream {
			t.Fatalf("visit %s tagged %s", visit.Asset.ID, visit.Direction)
		}
	}

	capped, err := Traverse(idx, "SENSOR-1", Downstream, Options{MaxDepth: 1})
	if err != nil {
		t.Fatalf("capped: %v", err)
	}
	if len(capped.Visits) != 1 || capped.Visits[0].Asset.ID != "PLC-1" {
		t.Fatalf("max depth 1 should stop at PLC-1, got %v", capped.Visits)
	}
}

func TestTraverseBothUnionsDirections(t *testing.T) {
	// PLC-2 also controls PUMP-1: a sibling of PLC-1, in neither its
	// upstream nor downstream closure.
	idx := mustBuild(t, domain.Snapshot{
		Assets: []domain.Asset{
			asset("SENSOR-1", domain.AssetSensor, ""),
			asset("PLC-1", domain.AssetPLC, domain.CriticalityHigh),
			asset("PLC-2", domain.AssetPLC, domain.CriticalityHigh),
			asset("PUMP-1", domain.AssetActuator, domain.CriticalityHigh),
		},
		Relationships: []domain.Relationship{
			rel("r1", "SENSOR-1", "PLC-1", domain.KindFeedsDataTo),
			rel("r2", "PLC-1", "PUMP-1", domain.KindControls),
			rel("r3", "PLC-2", "PUMP-1", domain.KindControls),
		},
	})

	both, err := Traverse(idx, "PLC-1", Both, Options{})
	if err != nil {
		t.Fatalf("both: %v", err)
	}
	dirs := map[string]Direction{}
	for _, visit := range both.Visits {
		dirs[visit.Asset.ID] = visit.Direction
	}
	if dirs["PUMP-1"] != Downstream || dirs["SENSOR-1"] != Upstream {
		t.Fatalf("wrong direction tags: %v", dirs)
	}
	if _, leaked := dirs["PLC-2"]; leaked {
		t.Fatalf("co-feeder of PUMP-1 is not a dependency of PLC-1: %v", dirs)
	}
	if len(both.Visits) != 2 {
		t.Fatalf("expected exactly the two closures, got %v", dirs)
	}
	if both.Depths["SENSOR-1"] != 1 || both.Depths["PUMP-1"] != 1 {
		t.Fatalf("wrong merged depths: %v", both.Depths)
	}
}

func TestTraverseKindFilter(t *testing.T) {
	idx := mustBuild(t, domain.Snapshot{
		Assets: []domain.Asset{
			asset("PLC-1", domain.AssetPLC, domain.CriticalityHigh),
			asset("PUMP-1", domain.AssetActuator, domain.CriticalityHigh),
			asset("HIST-1", domain.AssetServer, domain.CriticalityLow),
		},
		Relationships: []domain.Relationship{
			rel("r1", "PLC-1", "PUMP-1", domain.KindControls),
			rel("r2", "PLC-1", "HIST-1", domain.KindFeedsDataTo),
		},
	})

	result, err := Traverse(idx, "PLC-1", Downstream, Options{Kinds: []domain.RelationshipKind{domain.KindControls}})
	if err != nil {
		t.Fatalf("traverse: %v", err)
	}
	if len(result.Visits) != 1 || result.Visits[0].Asset.ID != "PUMP-1" {
		t.Fatalf("kind filter should keep only PUMP-1, got %v", result.Visits)
	}
}

func TestTraverseUnknownRoot(t *testing.T) {
	idx := mustBuild(t, domain.Snapshot{
		Assets: []domain.Asset{asset("PLC-1", domain.AssetPLC, domain.CriticalityHigh)},
	})
	_, err := Traverse(idx, "NOPE", Downstream, Options{})
	if err == nil || !domain.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestTraverseTerminatesOnCycle(t *testing.T) {
	idx := mustBuild(t, domain.Snapshot{
		Assets: []domain.Asset{
			asset("SW-1", domain.AssetSwitch, domain.CriticalityMedium),
			asset("SW-2", domain.AssetSwitch, domain.CriticalityMedium),
			asset("SW-3", domain.AssetSwitch, domain.CriticalityMedium),
		},
		Relationships: []domain.Relationship{
			rel("r1", "SW-1", "SW-2", domain.KindCommunicatesWith),
			rel("r2", "SW-2", "SW-3", domain.KindCommunicatesWith),
			rel("r3", "SW-3", "SW-1", domain.KindCommunicatesWith),
		},
	})

	result, err := Traverse(idx, "SW-1", Downstream, Options{})
	if err != nil {
		t.Fatalf("traverse: %v", err)
	}
	if len(result.Visits) != 2 {
		t.Fatalf("ring should yield 2 visits, got %d", len(result.Visits))
	}
	if !result.CycleDetected {
		t.Fatal("cycle should be reported")
	}
}

func TestTraverseIsDeterministic(t *testing.T) {
	snapshot := domain.Snapshot{
		Assets: []domain.Asset{
			asset("PLC-1", domain.AssetPLC, domain.CriticalityHigh),
			asset("A", domain.AssetSensor, ""),
			asset("B", domain.AssetSensor, ""),
			asset("C", domain.AssetSensor, ""),
		},
		Relationships: []domain.Relationship{
			rel("r1", "PLC-1", "B", domain.KindFeedsDataTo),
			rel("r2", "PLC-1", "A", domain.KindFeedsDataTo),
			rel("r3", "PLC-1", "C", domain.KindFeedsDataTo),
		},
	}

	var first []string
	for run := 0; run < 5; run++ {
		idx := mustBuild(t, snapshot)
		result, err := Traverse(idx, "PLC-1", Downstream, Options{})
		if err != nil {
			t.Fatalf("traverse: %v", err)
		}
		ids := make([]string, 0, len(result.Visits))
		for _, visit := range result.Visits {
			ids = append(ids, visit.Asset.ID)
		}
		if run == 0 {
			first = ids
			if first[0] != "B" || first[1] != "A" || first[2] != "C" {
				t.Fatalf("visit order should follow snapshot order, got %v", first)
			}
			continue
		}
		for i := range ids {
			if ids[i] != first[i] {
				t.Fatalf("run %d diverged: %v vs %v", run, ids, first)
			}
		}
	}
}

func TestAnalyzeImpactLeaf(t *testing.T) {
	idx := mustBuild(t, domain.Snapshot{
		Assets: []domain.Asset{asset("HIST-1", domain.AssetServer, domain.CriticalityLow)},
	})
	report, err := AnalyzeImpact(idx, "HIST-1")
	if err != nil {
		t.Fatalf("impact: %v", err)
	}
	if report.TotalImpacted != 0 || report.Severity != "" {
		t.Fatalf("leaf asset should have empty impact, got %+v", report)
	}
}

func TestAnalyzeImpactSeverityAndCascade(t *testing.T) {
	areaA, areaB := "PA-INTAKE", "PA-TREAT"
	plc := asset("PLC-1", domain.AssetPLC, domain.CriticalityHigh)
	plc.ProcessAreaID = &areaA
	pump := asset("PUMP-1", domain.AssetActuator, domain.CriticalityCritical)
	pump.ProcessAreaID = &areaB
	valve := asset("VALVE-1", domain.AssetActuator, domain.CriticalityMedium)
	valve.ProcessAreaID = &areaB

	idx := mustBuild(t, domain.Snapshot{
		Assets: []domain.Asset{plc, pump, valve},
		Relationships: []domain.Relationship{
			rel("r1", "PLC-1", "PUMP-1", domain.KindControls),
			rel("r2", "PUMP-1", "VALVE-1", domain.KindDependsOn),
			rel("r3", "PLC-1", "VALVE-1", domain.KindSafetyInterlockFor),
		},
	})

	report, err := AnalyzeImpact(idx, "PLC-1")
	if err != nil {
		t.Fatalf("impact: %v", err)
	}
	if report.TotalImpacted != 2 {
		t.Fatalf("expected 2 impacted, got %d", report.TotalImpacted)
	}
	if report.Severity != domain.CriticalityCritical {
		t.Fatalf("severity should be the max criticality, got %s", report.Severity)
	}
	if report.Counts[domain.CriticalityCritical] != 1 || report.Counts[domain.CriticalityMedium] != 1 {
		t.Fatalf("wrong counts: %v", report.Counts)
	}
	if len(report.Direct) != 2 {
		t.Fatalf("both neighbors are direct, got %d", len(report.Direct))
	}
	if len(report.Cascading) != 0 {
		t.Fatalf("valve is reached at depth 1, cascade should be empty: %v", report.Cascading)
	}
	if !report.SafetyRelated {
		t.Fatal("safety interlock source should set the safety flag")
	}
	if len(report.ProcessAreas) != 2 {
		t.Fatalf("expected 2 process areas, got %v", report.ProcessAreas)
	}
	var sawRedundancy bool
	for _, rec := range report.Recommendations {
		if strings.Contains(rec, "no redundancy") {
			sawRedundancy = true
		}
	}
	if !sawRedundancy {
		t.Fatalf("expected redundancy recommendation: %v", report.Recommendations)
	}
}

func TestAnalyzeImpactUnknownAsset(t *testing.T) {
	idx := mustBuild(t, domain.Snapshot{})
	_, err := AnalyzeImpact(idx, "NOPE")
	if !domain.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestSpofFlagsEveryOriginFeed(t *testing.T) {
	idx := mustBuild(t, domain.Snapshot{
		Assets: []domain.Asset{
			asset("SENSOR-1", domain.AssetSensor, domain.CriticalityMedium),
			asset("SENSOR-2", domain.AssetSensor, domain.CriticalityMedium),
			asset("PLC-101", domain.AssetPLC, domain.CriticalityCritical),
		},
		Relationships: []domain.Relationship{
			rel("r1", "SENSOR-1", "PLC-101", domain.KindFeedsDataTo),
			rel("r2", "SENSOR-2", "PLC-101", domain.KindFeedsDataTo),
		},
	})

	findings := FindSinglePointsOfFailure(idx, domain.CriticalityHigh)
	if len(findings) != 2 {
		t.Fatalf("both sensors are sole feeds, got %d findings", len(findings))
	}
	if findings[0].Asset.ID != "SENSOR-1" || findings[1].Asset.ID != "SENSOR-2" {
		t.Fatalf("unexpected findings: %v, %v", findings[0].Asset.ID, findings[1].Asset.ID)
	}
	if len(findings[0].Supported) != 1 || findings[0].Supported[0].Asset.ID != "PLC-101" {
		t.Fatalf("finding should name PLC-101: %+v", findings[0].Supported)
	}
	if len(findings[0].Supported[0].Chain) != 1 {
		t.Fatalf("chain should be the single feed edge: %+v", findings[0].Supported[0].Chain)
	}
}

func TestSpofIgnoresRedundantPaths(t *testing.T) {
	idx := mustBuild(t, domain.Snapshot{
		Assets: []domain.Asset{
			asset("SENSOR-1", domain.AssetSensor, domain.CriticalityMedium),
			asset("SW-A", domain.AssetSwitch, domain.CriticalityMedium),
			asset("SW-B", domain.AssetSwitch, domain.CriticalityMedium),
			asset("PLC-101", domain.AssetPLC, domain.CriticalityCritical),
		},
		Relationships: []domain.Relationship{
			rel("r1", "SENSOR-1", "SW-A", domain.KindFeedsDataTo),
			rel("r2", "SENSOR-1", "SW-B", domain.KindFeedsDataTo),
			rel("r3", "SW-A", "PLC-101", domain.KindFeedsDataTo),
			rel("r4", "SW-B", "PLC-101", domain.KindFeedsDataTo),
		},
	})

	findings := FindSinglePointsOfFailure(idx, domain.CriticalityHigh)
	if len(findings) != 1 || findings[0].Asset.ID != "SENSOR-1" {
		t.Fatalf("only the origin sensor is a SPOF, got %+v", findings)
	}
}

func TestSpofExemptsConfiguredRedundancy(t *testing.T) {
	idx := mustBuild(t, domain.Snapshot{
		Assets: []domain.Asset{
			asset("PUMP-A", domain.AssetActuator, domain.CriticalityMedium),
			asset("PUMP-B", domain.AssetActuator, domain.CriticalityMedium),
			asset("PLC-101", domain.AssetPLC, domain.CriticalityCritical),
		},
		Relationships: []domain.Relationship{
			rel("r1", "PUMP-A", "PLC-101", domain.KindFeedsDataTo),
			rel("r2", "PUMP-B", "PLC-101", domain.KindFeedsDataTo),
			rel("r3", "PUMP-A", "PUMP-B", domain.KindRedundantWith),
		},
	})

	findings := FindSinglePointsOfFailure(idx, domain.CriticalityHigh)
	if len(findings) != 0 {
		t.Fatalf("redundant pair should be exempt, got %+v", findings)
	}
}

func TestSpofHonorsThreshold(t *testing.T) {
	idx := mustBuild(t, domain.Snapshot{
		Assets: []domain.Asset{
			asset("SENSOR-1", domain.AssetSensor, ""),
			asset("HIST-1", domain.AssetServer, domain.CriticalityMedium),
		},
		Relationships: []domain.Relationship{
			rel("r1", "SENSOR-1", "HIST-1", domain.KindFeedsDataTo),
		},
	})

	if findings := FindSinglePointsOfFailure(idx, domain.CriticalityHigh); len(findings) != 0 {
		t.Fatalf("medium asset is below threshold, got %+v", findings)
	}
	if findings := FindSinglePointsOfFailure(idx, domain.CriticalityMedium); len(findings) != 1 {
		t.Fatalf("lowering the threshold should flag the sensor, got %+v", findings)
	}
}

func TestSpofFlagsCutVertex(t *testing.T) {
	idx := mustBuild(t, domain.Snapshot{
		Assets: []domain.Asset{
			asset("SENSOR-1", domain.AssetSensor, ""),
			asset("GW-1", domain.AssetGateway, domain.CriticalityMedium),
			asset("PLC-101", domain.AssetPLC, domain.CriticalityCritical),
		},
		Relationships: []domain.Relationship{
			rel("r1", "SENSOR-1", "GW-1", domain.KindFeedsDataTo),
			rel("r2", "GW-1", "PLC-101", domain.KindFeedsDataTo),
		},
	})

	findings := FindSinglePointsOfFailure(idx, domain.CriticalityHigh)
	ids := make(map[string]bool)
	for _, finding := range findings {
		ids[finding.Asset.ID] = true
	}
	if !ids["SENSOR-1"] || !ids["GW-1"] || len(ids) != 2 {
		t.Fatalf("origin and conduit are both SPOFs, got %+v", ids)
	}
	for _, finding := range findings {
		if finding.Asset.ID == "GW-1" && len(finding.Supported[0].Chain) != 1 {
			t.Fatalf("gateway chain should be one hop, got %+v", finding.Supported[0].Chain)
		}
	}
}
