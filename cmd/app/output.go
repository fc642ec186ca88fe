package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/toreyjames/Asset-Inventory-Claude/internal/application"
	"github.com/toreyjames/Asset-Inventory-Claude/internal/domain"
	"github.com/toreyjames/Asset-Inventory-Claude/internal/graph"
)

func printJSON(v any) error {
	b, err := jsonMarshal(v)
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func printKV(rows [][2]string) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", row[0], row[1])
	}
	_ = w.Flush()
}

func printTable(headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Println("no results")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, row := range rows {
		_, _ = fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	_ = w.Flush()
}

func formatMaybe(v *string) string {
	if v == nil || *v == "" {
		return "-"
	}
	return *v
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return formatTime(*t)
}

func formatBool(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func printAssets(items []domain.Asset) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			item.ID,
			string(item.Type),
			item.Name,
			string(item.Criticality),
			formatMaybe(item.ProcessAreaID),
			formatMaybe(item.IPAddress),
			formatMaybe(item.Owner),
		})
	}
	printTable([]string{"ID", "TYPE", "NAME", "CRITICALITY", "AREA", "IP", "OWNER"}, rows)
}

func printAssetDetail(detail application.AssetDetail) {
	a := detail.Asset
	printKV([][2]string{
		{"id", a.ID},
		{"name", a.Name},
		{"type", string(a.Type)},
		{"criticality", string(a.Criticality)},
		{"manufacturer", formatMaybe(a.Manufacturer)},
		{"model", formatMaybe(a.Model)},
		{"firmware", formatMaybe(a.FirmwareVersion)},
		{"site", formatMaybe(a.SiteID)},
		{"process_area", formatMaybe(a.ProcessAreaID)},
		{"ip", formatMaybe(a.IPAddress)},
		{"vlan", formatMaybe(a.VLAN)},
		{"protocols", strings.Join(a.Protocols, ",")},
		{"function", formatMaybe(a.Function)},
		{"owner", formatMaybe(a.Owner)},
		{"maintainer", formatMaybe(a.Maintainer)},
		{"last_verified", formatTimePtr(a.LastVerified)},
		{"in_cmms", formatBool(a.InCMMS)},
		{"documented", formatBool(a.Documented)},
		{"security_policy", formatBool(a.SecurityPolicyApplied)},
		{"notes", formatMaybe(a.Notes)},
	})

	if len(detail.Gaps) > 0 {
		gaps := make([]string, 0, len(detail.Gaps))
		for _, gap := range detail.Gaps {
			gaps = append(gaps, string(gap))
		}
		fmt.Printf("\ncompliance gaps: %s\n", strings.Join(gaps, ", "))
	}
	if len(detail.Outgoing) > 0 {
		fmt.Println("\noutgoing:")
		printRelationships(detail.Outgoing)
	}
	if len(detail.Incoming) > 0 {
		fmt.Println("\nincoming:")
		printRelationships(detail.Incoming)
	}
	if len(detail.OpenFlags) > 0 {
		fmt.Println("\nopen flags:")
		printFlags(detail.OpenFlags)
	}
}

func printInventoryCounts(counts application.InventoryCounts) {
	fmt.Printf("total assets: %d\n\n", counts.TotalAssets)
	rows := make([][]string, 0, len(counts.ByType))
	for _, c := range counts.ByType {
		rows = append(rows, []string{c.Key, strconv.FormatInt(c.Count, 10)})
	}
	printTable([]string{"TYPE", "COUNT"}, rows)
	fmt.Println()
	rows = rows[:0]
	for _, c := range counts.ByCriticality {
		rows = append(rows, []string{c.Key, strconv.FormatInt(c.Count, 10)})
	}
	printTable([]string{"CRITICALITY", "COUNT"}, rows)
}

func printRelationships(items []domain.Relationship) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			item.ID,
			item.SourceAssetID,
			string(item.Kind),
			item.TargetAssetID,
			formatBool(item.Verified),
			formatBool(item.Inferred),
		})
	}
	printTable([]string{"ID", "SOURCE", "KIND", "TARGET", "VERIFIED", "INFERRED"}, rows)
}

func printRelationshipKV(item domain.Relationship) {
	printKV([][2]string{
		{"id", item.ID},
		{"source", item.SourceAssetID},
		{"kind", string(item.Kind)},
		{"target", item.TargetAssetID},
		{"verified", formatBool(item.Verified)},
		{"verified_by", formatMaybe(item.VerifiedBy)},
		{"verified_at", formatTimePtr(item.VerifiedAt)},
		{"inferred", formatBool(item.Inferred)},
		{"description", formatMaybe(item.Description)},
	})
}

func printKindCounts(items []domain.KindCount) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			string(item.Kind),
			strconv.FormatInt(item.Total, 10),
			strconv.FormatInt(item.Verified, 10),
			strconv.FormatInt(item.Inferred, 10),
		})
	}
	printTable([]string{"KIND", "TOTAL", "VERIFIED", "INFERRED"}, rows)
}

func printWarnings(warnings []graph.IntegrityIssue) {
	if len(warnings) == 0 {
		return
	}
	fmt.Printf("\n%d integrity warning(s):\n", len(warnings))
	for _, w := range warnings {
		fmt.Printf("  %s: %s\n", w.RelationshipID, w.Reason)
	}
}

func printTraceResult(result application.TraceResult) {
	fmt.Printf("root: %s (%s)\n", result.Root.ID, result.Root.Name)
	rows := make([][]string, 0, len(result.Visits))
	for _, visit := range result.Visits {
		rows = append(rows, []string{
			strconv.Itoa(visit.Depth),
			string(visit.Direction),
			visit.Asset.ID,
			visit.Asset.Name,
			string(visit.Via.Kind),
			string(visit.Asset.Criticality),
		})
	}
	printTable([]string{"DEPTH", "DIRECTION", "ASSET", "NAME", "VIA", "CRITICALITY"}, rows)
	if result.CycleDetected {
		fmt.Println("\ncycle detected")
	}
	printWarnings(result.Warnings)
}

func printDependencyReport(report application.DependencyReport) {
	fmt.Printf("root: %s (%s)\n", report.Root.ID, report.Root.Name)
	if len(report.Upstream) > 0 {
		fmt.Println("\nupstream:")
		printVisits(report.Upstream)
	}
	if len(report.Downstream) > 0 {
		fmt.Println("\ndownstream:")
		printVisits(report.Downstream)
	}
	if len(report.DependsOn) > 0 {
		fmt.Println("\ndepends on:")
		printRelationships(report.DependsOn)
	}
	if len(report.Redundancy.Peers) > 0 {
		fmt.Printf("\nredundant peers: %s\n", strings.Join(report.Redundancy.Peers, ", "))
	}
	if len(report.Redundancy.Backups) > 0 {
		fmt.Printf("backups: %s\n", strings.Join(report.Redundancy.Backups, ", "))
	}
	printWarnings(report.Warnings)
}

func printVisits(visits []graph.Visit) {
	rows := make([][]string, 0, len(visits))
	for _, visit := range visits {
		rows = append(rows, []string{
			strconv.Itoa(visit.Depth),
			visit.Asset.ID,
			visit.Asset.Name,
			string(visit.Via.Kind),
			string(visit.Asset.Criticality),
		})
	}
	printTable([]string{"DEPTH", "ASSET", "NAME", "VIA", "CRITICALITY"}, rows)
}

func printImpactReport(report graph.ImpactReport, warnings []graph.IntegrityIssue) {
	printKV([][2]string{
		{"root", fmt.Sprintf("%s (%s)", report.Root.ID, report.Root.Name)},
		{"severity", string(report.Severity)},
		{"total impacted", strconv.Itoa(report.TotalImpacted)},
		{"safety related", formatBool(report.SafetyRelated)},
		{"process areas", strings.Join(report.ProcessAreas, ", ")},
		{"cycle detected", formatBool(report.CycleDetected)},
	})

	if len(report.Direct) > 0 {
		fmt.Println("\ndirect impact:")
		rows := make([][]string, 0, len(report.Direct))
		for _, d := range report.Direct {
			kinds := make([]string, 0, len(d.Kinds))
			for _, k := range d.Kinds {
				kinds = append(kinds, string(k))
			}
			rows = append(rows, []string{d.Asset.ID, d.Asset.Name, string(d.Asset.Criticality), strings.Join(kinds, ",")})
		}
		printTable([]string{"ASSET", "NAME", "CRITICALITY", "VIA"}, rows)
	}
	for _, group := range report.Cascading {
		fmt.Printf("\ncascading, depth %d:\n", group.Depth)
		printAssets(group.Assets)
	}
	if len(report.Redundancy.Peers) > 0 {
		fmt.Printf("\nredundant peers: %s\n", strings.Join(report.Redundancy.Peers, ", "))
	}
	if len(report.Recommendations) > 0 {
		fmt.Println("\nrecommendations:")
		for _, rec := range report.Recommendations {
			fmt.Printf("  - %s\n", rec)
		}
	}
	printWarnings(warnings)
}

func printSpofReport(report application.SpofReport) {
	fmt.Printf("threshold: %s, findings: %d\n", report.Threshold, len(report.Findings))
	for _, finding := range report.Findings {
		fmt.Printf("\n%s (%s, %s) solely supports:\n", finding.Asset.ID, finding.Asset.Name, finding.Asset.Criticality)
		rows := make([][]string, 0, len(finding.Supported))
		for _, supported := range finding.Supported {
			chain := make([]string, 0, len(supported.Chain))
			for _, edge := range supported.Chain {
				chain = append(chain, fmt.Sprintf("%s->%s", edge.SourceID, edge.TargetID))
			}
			rows = append(rows, []string{
				supported.Asset.ID,
				supported.Asset.Name,
				string(supported.Asset.Criticality),
				strings.Join(chain, " "),
			})
		}
		printTable([]string{"ASSET", "NAME", "CRITICALITY", "CHAIN"}, rows)
	}
	printWarnings(report.Warnings)
}

func printGapReport(report application.GapReport) {
	fmt.Printf("gap instances: %d, assets with gaps: %d, critical assets with gaps: %d\n",
		report.TotalGapInstances, report.UniqueAssets, report.CriticalAssets)

	gapTypes := make([]string, 0, len(report.Gaps))
	for gap := range report.Gaps {
		gapTypes = append(gapTypes, string(gap))
	}
	sort.Strings(gapTypes)
	for _, gap := range gapTypes {
		entries := report.Gaps[domain.GapType(gap)]
		fmt.Printf("\n%s (%d):\n", gap, len(entries))
		rows := make([][]string, 0, len(entries))
		for _, entry := range entries {
			rows = append(rows, []string{
				entry.Asset.ID,
				entry.Asset.Name,
				string(entry.Asset.Criticality),
				entry.Description,
			})
		}
		printTable([]string{"ASSET", "NAME", "CRITICALITY", "DETAIL"}, rows)
	}
}

func printAuditSummary(summary application.AuditSummary) {
	printKV([][2]string{
		{"audit date", summary.AuditDate},
		{"scope", summary.Scope},
		{"total assets", strconv.FormatInt(summary.TotalAssets, 10)},
		{"score", fmt.Sprintf("%.1f (%s)", summary.Score.Score, summary.Score.Grade)},
		{"assets with gaps", strconv.Itoa(summary.UniqueAssetsWithGaps)},
		{"critical with gaps", strconv.Itoa(summary.CriticalWithGaps)},
		{"critical without owner", strconv.Itoa(summary.CriticalWithoutOwner)},
	})

	fmt.Println("\ncompliance:")
	stats := summary.Compliance
	printTable([]string{"CHECK", "COUNT", "PCT"}, [][]string{
		{"has owner", strconv.FormatInt(stats.HasOwner.Count, 10), fmt.Sprintf("%.1f%%", stats.HasOwner.Percentage)},
		{"in cmms", strconv.FormatInt(stats.InCMMS.Count, 10), fmt.Sprintf("%.1f%%", stats.InCMMS.Percentage)},
		{"documented", strconv.FormatInt(stats.Documented.Count, 10), fmt.Sprintf("%.1f%%", stats.Documented.Percentage)},
		{"security policy", strconv.FormatInt(stats.SecurityPolicy.Count, 10), fmt.Sprintf("%.1f%%", stats.SecurityPolicy.Percentage)},
		{"verified", strconv.FormatInt(stats.Verified.Count, 10), fmt.Sprintf("%.1f%%", stats.Verified.Percentage)},
	})

	fmt.Println("\nrecommendations:")
	for _, rec := range summary.Recommendations {
		fmt.Printf("  - %s\n", rec)
	}
}

func printAreas(items []domain.ProcessAreaSummary) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			item.ProcessArea.ID,
			item.ProcessArea.Name,
			item.SiteName,
			strconv.FormatInt(item.AssetCount, 10),
		})
	}
	printTable([]string{"ID", "NAME", "SITE", "ASSETS"}, rows)
}

func printAreaDetail(detail application.ProcessAreaDetail) {
	printKV([][2]string{
		{"id", detail.Area.ID},
		{"name", detail.Area.Name},
		{"site", detail.Site.Name},
		{"function", formatMaybe(detail.Area.Function)},
		{"description", formatMaybe(detail.Area.Description)},
		{"assets", strconv.FormatInt(detail.Compliance.TotalAssets, 10)},
	})
	if len(detail.Assets) > 0 {
		fmt.Println()
		printAssets(detail.Assets)
	}
}

func printEnvironments(items []domain.Environment) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{item.ID, item.Name, item.Type, formatMaybe(item.Description)})
	}
	printTable([]string{"ID", "NAME", "TYPE", "DESCRIPTION"}, rows)
}

func printFlags(items []domain.ReviewFlag) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			item.ID,
			string(item.Type),
			formatMaybe(item.AssetID),
			string(item.Severity),
			item.Status,
			item.Description,
		})
	}
	printTable([]string{"ID", "TYPE", "ASSET", "SEVERITY", "STATUS", "DESCRIPTION"}, rows)
}

func printFlagKV(item domain.ReviewFlag) {
	printKV([][2]string{
		{"id", item.ID},
		{"type", string(item.Type)},
		{"asset", formatMaybe(item.AssetID)},
		{"relationship", formatMaybe(item.RelationshipID)},
		{"severity", string(item.Severity)},
		{"status", item.Status},
		{"description", item.Description},
		{"flagged_by", item.FlaggedBy},
		{"flagged_at", formatTime(item.FlaggedAt)},
		{"resolved_by", formatMaybe(item.ResolvedBy)},
		{"resolved_at", formatTimePtr(item.ResolvedAt)},
		{"notes", formatMaybe(item.ResolutionNotes)},
	})
}

func printAuditRecords(items []domain.AuditRecord) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			strconv.FormatUint(uint64(item.ID), 10),
			item.Action,
			item.TargetType,
			item.TargetID,
			item.ActorUserEmail,
			formatTime(item.CreatedAt),
		})
	}
	printTable([]string{"ID", "ACTION", "TARGET_TYPE", "TARGET_ID", "ACTOR", "AT"}, rows)
}
