package main

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/toreyjames/Asset-Inventory-Claude/internal/domain"
)

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func withToken(cfg cliConfig, params map[string]any) map[string]any {
	out := map[string]any{"token": cfg.Token}
	for k, v := range params {
		out[k] = v
	}
	return out
}

func encodeQuery(values url.Values) string {
	if len(values) == 0 {
		return ""
	}
	return "?" + values.Encode()
}

func doLogin(ctx context.Context, cfg cliConfig, email, password, tokenName string, ttlHours int, out any) error {
	payload := map[string]any{
		"email":      email,
		"password":   password,
		"token_name": tokenName,
		"ttl_hours":  ttlHours,
	}
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "auth.login", payload, out)
	}
	client := newAPIClient(cfg.Server, "")
	return client.request(ctx, http.MethodPost, "/api/auth/login", payload, out)
}

func doWhoAmI(ctx context.Context, cfg cliConfig, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "auth.whoami", withToken(cfg, nil), out)
	}
	client := newAPIClient(cfg.Server, cfg.Token)
	return client.request(ctx, http.MethodGet, "/api/auth/whoami", nil, out)
}

func doUserCreate(ctx context.Context, cfg cliConfig, email, password, role string, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "users.create", withToken(cfg, map[string]any{
			"email": email, "password": password, "role": role,
		}), out)
	}
	client := newAPIClient(cfg.Server, cfg.Token)
	return client.request(ctx, http.MethodPost, "/api/auth/users", map[string]any{
		"email": email, "password": password, "role": role,
	}, out)
}

func doAssetsList(ctx context.Context, cfg cliConfig, assetType, criticality, processAreaID, siteID, owner string, hasGaps bool, limit int, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "assets.list", withToken(cfg, map[string]any{
			"type":            optString(assetType),
			"criticality":     optString(criticality),
			"process_area_id": optString(processAreaID),
			"site_id":         optString(siteID),
			"owner":           optString(owner),
			"has_gaps":        hasGaps,
			"limit":           limit,
		}), out)
	}
	client := newAPIClient(cfg.Server, cfg.Token)
	q := url.Values{}
	if assetType != "" {
		q.Set("type", assetType)
	}
	if criticality != "" {
		q.Set("criticality", criticality)
	}
	if processAreaID != "" {
		q.Set("process_area_id", processAreaID)
	}
	if siteID != "" {
		q.Set("site_id", siteID)
	}
	if owner != "" {
		q.Set("owner", owner)
	}
	if hasGaps {
		q.Set("has_gaps", "true")
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return client.request(ctx, http.MethodGet, "/api/assets"+encodeQuery(q), nil, out)
}

func doAssetsGet(ctx context.Context, cfg cliConfig, assetID string, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "assets.get", withToken(cfg, map[string]any{"asset_id": assetID}), out)
	}
	client := newAPIClient(cfg.Server, cfg.Token)
	return client.request(ctx, http.MethodGet, "/api/assets/"+url.PathEscape(assetID), nil, out)
}

func doAssetsSearch(ctx context.Context, cfg cliConfig, query string, limit int, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "assets.search", withToken(cfg, map[string]any{"q": query, "limit": limit}), out)
	}
	client := newAPIClient(cfg.Server, cfg.Token)
	q := url.Values{"q": {query}}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return client.request(ctx, http.MethodGet, "/api/assets/search"+encodeQuery(q), nil, out)
}

func doAssetsCreate(ctx context.Context, cfg cliConfig, asset domain.Asset, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "assets.create", withToken(cfg, map[string]any{"asset": asset}), out)
	}
	client := newAPIClient(cfg.Server, cfg.Token)
	return client.request(ctx, http.MethodPost, "/api/assets", asset, out)
}

func doAssetsCounts(ctx context.Context, cfg cliConfig, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "assets.counts", withToken(cfg, nil), out)
	}
	client := newAPIClient(cfg.Server, cfg.Token)
	return client.request(ctx, http.MethodGet, "/api/assets/counts", nil, out)
}

func doRelationshipsList(ctx context.Context, cfg cliConfig, assetID, sourceID, targetID, kind string, verifiedOnly bool, limit int, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "relationships.list", withToken(cfg, map[string]any{
			"asset_id":      optString(assetID),
			"source_id":     optString(sourceID),
			"target_id":     optString(targetID),
			"kind":          optString(kind),
			"verified_only": verifiedOnly,
			"limit":         limit,
		}), out)
	}
	client := newAPIClient(cfg.Server, cfg.Token)
	q := url.Values{}
	if assetID != "" {
		q.Set("asset_id", assetID)
	}
	if sourceID != "" {
		q.Set("source_id", sourceID)
	}
	if targetID != "" {
		q.Set("target_id", targetID)
	}
	if kind != "" {
		q.Set("kind", kind)
	}
	if verifiedOnly {
		q.Set("verified_only", "true")
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return client.request(ctx, http.MethodGet, "/api/relationships"+encodeQuery(q), nil, out)
}

func doRelationshipAdd(ctx context.Context, cfg cliConfig, sourceID, targetID, kind, description string, inferred bool, out any) error {
	payload := map[string]any{
		"source_asset_id":   sourceID,
		"target_asset_id":   targetID,
		"relationship_type": kind,
		"description":       optString(description),
		"inferred":          inferred,
	}
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "relationships.add", withToken(cfg, payload), out)
	}
	client := newAPIClient(cfg.Server, cfg.Token)
	return client.request(ctx, http.MethodPost, "/api/relationships", payload, out)
}

func doRelationshipVerify(ctx context.Context, cfg cliConfig, relationshipID string, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "relationships.verify", withToken(cfg, map[string]any{"relationship_id": relationshipID}), out)
	}
	client := newAPIClient(cfg.Server, cfg.Token)
	return client.request(ctx, http.MethodPost, "/api/relationships/"+url.PathEscape(relationshipID)+"/verify", map[string]any{}, out)
}

func doRelationshipKinds(ctx context.Context, cfg cliConfig, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "relationships.kinds", withToken(cfg, nil), out)
	}
	client := newAPIClient(cfg.Server, cfg.Token)
	return client.request(ctx, http.MethodGet, "/api/relationships/kinds", nil, out)
}

func traceQuery(maxDepth int, kinds string, lenient bool) url.Values {
	q := url.Values{}
	if maxDepth > 0 {
		q.Set("max_depth", strconv.Itoa(maxDepth))
	}
	if kinds != "" {
		q.Set("kinds", kinds)
	}
	if lenient {
		q.Set("lenient", "true")
	}
	return q
}

func doGraphTrace(ctx context.Context, cfg cliConfig, direction, assetID string, maxDepth int, kinds string, lenient bool, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "graph."+direction, withToken(cfg, map[string]any{
			"asset_id":  assetID,
			"max_depth": maxDepth,
			"kinds":     kinds,
			"lenient":   lenient,
		}), out)
	}
	client := newAPIClient(cfg.Server, cfg.Token)
	path := "/api/graph/" + direction + "/" + url.PathEscape(assetID)
	return client.request(ctx, http.MethodGet, path+encodeQuery(traceQuery(maxDepth, kinds, lenient)), nil, out)
}

func doDependencies(ctx context.Context, cfg cliConfig, assetID string, maxDepth int, kinds string, lenient bool, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "graph.dependencies", withToken(cfg, map[string]any{
			"asset_id":  assetID,
			"max_depth": maxDepth,
			"kinds":     kinds,
			"lenient":   lenient,
		}), out)
	}
	client := newAPIClient(cfg.Server, cfg.Token)
	path := "/api/graph/dependencies/" + url.PathEscape(assetID)
	return client.request(ctx, http.MethodGet, path+encodeQuery(traceQuery(maxDepth, kinds, lenient)), nil, out)
}

func doImpact(ctx context.Context, cfg cliConfig, assetID string, lenient bool, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "analysis.impact", withToken(cfg, map[string]any{"asset_id": assetID, "lenient": lenient}), out)
	}
	client := newAPIClient(cfg.Server, cfg.Token)
	q := url.Values{}
	if lenient {
		q.Set("lenient", "true")
	}
	return client.request(ctx, http.MethodGet, "/api/analysis/impact/"+url.PathEscape(assetID)+encodeQuery(q), nil, out)
}

func doSpof(ctx context.Context, cfg cliConfig, threshold string, lenient bool, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "analysis.spof", withToken(cfg, map[string]any{"threshold": threshold, "lenient": lenient}), out)
	}
	client := newAPIClient(cfg.Server, cfg.Token)
	q := url.Values{}
	if threshold != "" {
		q.Set("threshold", threshold)
	}
	if lenient {
		q.Set("lenient", "true")
	}
	return client.request(ctx, http.MethodGet, "/api/analysis/spof"+encodeQuery(q), nil, out)
}

func doComplianceGaps(ctx context.Context, cfg cliConfig, types, processAreaID, criticality string, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "compliance.gaps", withToken(cfg, map[string]any{
			"types":           types,
			"process_area_id": optString(processAreaID),
			"criticality":     optString(criticality),
		}), out)
	}
	client := newAPIClient(cfg.Server, cfg.Token)
	q := url.Values{}
	if types != "" {
		q.Set("types", types)
	}
	if processAreaID != "" {
		q.Set("process_area_id", processAreaID)
	}
	if criticality != "" {
		q.Set("criticality", criticality)
	}
	return client.request(ctx, http.MethodGet, "/api/compliance/gaps"+encodeQuery(q), nil, out)
}

func doComplianceSummary(ctx context.Context, cfg cliConfig, processAreaID string, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "compliance.summary", withToken(cfg, map[string]any{
			"process_area_id": optString(processAreaID),
		}), out)
	}
	client := newAPIClient(cfg.Server, cfg.Token)
	q := url.Values{}
	if processAreaID != "" {
		q.Set("process_area_id", processAreaID)
	}
	return client.request(ctx, http.MethodGet, "/api/compliance/summary"+encodeQuery(q), nil, out)
}

func doAreasList(ctx context.Context, cfg cliConfig, siteID string, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "areas.list", withToken(cfg, map[string]any{"site_id": optString(siteID)}), out)
	}
	client := newAPIClient(cfg.Server, cfg.Token)
	q := url.Values{}
	if siteID != "" {
		q.Set("site_id", siteID)
	}
	return client.request(ctx, http.MethodGet, "/api/process-areas"+encodeQuery(q), nil, out)
}

func doAreasGet(ctx context.Context, cfg cliConfig, areaID string, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "areas.get", withToken(cfg, map[string]any{"area_id": areaID}), out)
	}
	client := newAPIClient(cfg.Server, cfg.Token)
	return client.request(ctx, http.MethodGet, "/api/process-areas/"+url.PathEscape(areaID), nil, out)
}

func doEnvironmentsList(ctx context.Context, cfg cliConfig, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "environments.list", withToken(cfg, nil), out)
	}
	client := newAPIClient(cfg.Server, cfg.Token)
	return client.request(ctx, http.MethodGet, "/api/environments", nil, out)
}

func doReviewFlag(ctx context.Context, cfg cliConfig, assetID, flagType, description, severity string, out any) error {
	payload := map[string]any{
		"asset_id":    assetID,
		"flag_type":   flagType,
		"description": description,
		"severity":    severity,
	}
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "review.flag", withToken(cfg, payload), out)
	}
	client := newAPIClient(cfg.Server, cfg.Token)
	return client.request(ctx, http.MethodPost, "/api/review/flags", payload, out)
}

func doReviewSuggest(ctx context.Context, cfg cliConfig, sourceID, targetID, kind, reasoning string, out any) error {
	payload := map[string]any{
		"source_asset_id":   sourceID,
		"target_asset_id":   targetID,
		"relationship_type": kind,
		"reasoning":         reasoning,
	}
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "review.suggest", withToken(cfg, payload), out)
	}
	client := newAPIClient(cfg.Server, cfg.Token)
	return client.request(ctx, http.MethodPost, "/api/review/suggest", payload, out)
}

func doReviewList(ctx context.Context, cfg cliConfig, status, flagType, assetID string, limit int, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "review.list", withToken(cfg, map[string]any{
			"status":   status,
			"type":     optString(flagType),
			"asset_id": optString(assetID),
			"limit":    limit,
		}), out)
	}
	client := newAPIClient(cfg.Server, cfg.Token)
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	if flagType != "" {
		q.Set("type", flagType)
	}
	if assetID != "" {
		q.Set("asset_id", assetID)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return client.request(ctx, http.MethodGet, "/api/review/flags"+encodeQuery(q), nil, out)
}

func doReviewResolve(ctx context.Context, cfg cliConfig, flagID, resolution, notes string, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "review.resolve", withToken(cfg, map[string]any{
			"flag_id":    flagID,
			"resolution": resolution,
			"notes":      optString(notes),
		}), out)
	}
	client := newAPIClient(cfg.Server, cfg.Token)
	return client.request(ctx, http.MethodPost, "/api/review/flags/"+url.PathEscape(flagID)+"/resolve", map[string]any{
		"resolution": resolution,
		"notes":      optString(notes),
	}, out)
}

func doAuditList(ctx context.Context, cfg cliConfig, limit int, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "audit.list", withToken(cfg, map[string]any{"limit": limit}), out)
	}
	client := newAPIClient(cfg.Server, cfg.Token)
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return client.request(ctx, http.MethodGet, "/api/audit/logs"+encodeQuery(q), nil, out)
}
