package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/toreyjames/Asset-Inventory-Claude/internal/application"
	"github.com/toreyjames/Asset-Inventory-Claude/internal/domain"
)

type contextKey string

const identityKey contextKey = "identity"

type Handler struct {
	service *application.InventoryService
}

func NewRouter(service *application.InventoryService) http.Handler {
	h := &Handler{service: service}
	r := chi.NewRouter()

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/login", h.handleLogin)
		api.With(h.requireAuth("read")).Get("/auth/whoami", h.handleWhoAmI)
		api.With(h.requireAuth("admin")).Post("/auth/users", h.handleCreateUser)

		api.With(h.requireAuth("read")).Get("/assets", h.handleListAssets)
		api.With(h.requireAuth("write")).Post("/assets", h.handleCreateAsset)
		api.With(h.requireAuth("read")).Get("/assets/search", h.handleSearchAssets)
		api.With(h.requireAuth("read")).Get("/assets/counts", h.handleInventoryCounts)
		api.With(h.requireAuth("read")).Get("/assets/{id}", h.handleGetAsset)

		api.With(h.requireAuth("read")).Get("/relationships", h.handleListRelationships)
		api.With(h.requireAuth("write")).Post("/relationships", h.handleAddRelationship)
		api.With(h.requireAuth("write")).Post("/relationships/{id}/verify", h.handleVerifyRelationship)
		api.With(h.requireAuth("read")).Get("/relationships/kinds", h.handleRelationshipKinds)

		api.With(h.requireAuth("read")).Get("/graph/upstream/{id}", h.handleTraceUpstream)
		api.With(h.requireAuth("read")).Get("/graph/downstream/{id}", h.handleTraceDownstream)
		api.With(h.requireAuth("read")).Get("/graph/dependencies/{id}", h.handleDependencies)

		api.With(h.requireAuth("read")).Get("/analysis/impact/{id}", h.handleImpact)
		api.With(h.requireAuth("read")).Get("/analysis/spof", h.handleSpof)

		api.With(h.requireAuth("read")).Get("/compliance/gaps", h.handleComplianceGaps)
		api.With(h.requireAuth("read")).Get("/compliance/summary", h.handleAuditSummary)

		api.With(h.requireAuth("read")).Get("/process-areas", h.handleListProcessAreas)
		api.With(h.requireAuth("read")).Get("/process-areas/{id}", h.handleGetProcessArea)
		api.With(h.requireAuth("read")).Get("/environments", h.handleListEnvironments)

		api.With(h.requireAuth("read")).Get("/review/flags", h.handleListFlags)
		api.With(h.requireAuth("write")).Post("/review/flags", h.handleFlagForReview)
		api.With(h.requireAuth("write")).Post("/review/flags/{id}/resolve", h.handleResolveFlag)
		api.With(h.requireAuth("write")).Post("/review/suggest", h.handleSuggestRelationship)

		api.With(h.requireAuth("admin")).Get("/audit/logs", h.handleListAuditLogs)
	})

	return r
}

func (h *Handler) requireAuth(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := h.authenticateRequest(r)
			if !ok {
				writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
				return
			}
			if !h.service.Can(identity, permission) {
				writeJSON(w, http.StatusForbidden, map[string]any{"error": "forbidden"})
				return
			}
			ctx := context.WithValue(r.Context(), identityKey, identity)
			ctx = application.WithActor(ctx, identity.User.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (h *Handler) authenticateRequest(r *http.Request) (domain.Identity, bool) {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		token := strings.TrimSpace(authHeader[7:])
		identity, err := h.service.AuthenticateBearerToken(r.Context(), token)
		if err == nil {
			return identity, true
		}
	}
	return domain.Identity{}, false
}

func identityFromContext(ctx context.Context) (domain.Identity, bool) {
	value := ctx.Value(identityKey)
	if value == nil {
		return domain.Identity{}, false
	}
	identity, ok := value.(domain.Identity)
	return identity, ok
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	if domain.IsNotFound(err) {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
}

func queryInt(r *http.Request, key string) int {
	v, _ := strconv.Atoi(r.URL.Query().Get(key))
	return v
}

func queryBool(r *http.Request, key string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(key))
	return v
}

func queryStringPtr(r *http.Request, key string) *string {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil
	}
	return &raw
}

func traceOptionsFromQuery(r *http.Request) application.TraceOptions {
	opts := application.TraceOptions{
		MaxDepth: queryInt(r, "max_depth"),
		Lenient:  queryBool(r, "lenient"),
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("kinds")); raw != "" {
		opts.Kinds = strings.Split(raw, ",")
	}
	return opts
}

type loginRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	TokenName string `json:"token_name"`
	TTLHours  int    `json:"ttl_hours"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	var ttl *time.Duration
	if req.TTLHours > 0 {
		d := time.Duration(req.TTLHours) * time.Hour
		ttl = &d
	}
	u, token, err := h.service.Login(r.Context(), req.Email, req.Password, req.TokenName, ttl)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "invalid credentials"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user_id": u.ID, "email": u.Email, "role": u.Role, "token": token})
}

func (h *Handler) handleWhoAmI(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
		return
	}
	perms := make([]string, 0, len(identity.Permissions))
	for p := range identity.Permissions {
		perms = append(perms, p)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":          identity.User.ID,
		"email":       identity.User.Email,
		"role":        identity.User.Role,
		"permissions": perms,
	})
}

type createUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	u, err := h.service.CreateUser(r.Context(), req.Email, req.Password, req.Role)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": u.ID, "email": u.Email, "role": u.Role})
}

func (h *Handler) handleListAssets(w http.ResponseWriter, r *http.Request) {
	filter := domain.AssetFilter{
		ProcessAreaID: queryStringPtr(r, "process_area_id"),
		SiteID:        queryStringPtr(r, "site_id"),
		Owner:         queryStringPtr(r, "owner"),
		HasGaps:       queryBool(r, "has_gaps"),
		Limit:         queryInt(r, "limit"),
	}
	if raw := queryStringPtr(r, "type"); raw != nil {
		t, err := domain.ParseAssetType(*raw)
		if err != nil {
			writeError(w, err)
			return
		}
		filter.Type = &t
	}
	if raw := queryStringPtr(r, "criticality"); raw != nil {
		c, err := domain.ParseCriticality(*raw)
		if err != nil {
			writeError(w, err)
			return
		}
		filter.Criticality = &c
	}

	assets, err := h.service.ListAssets(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assets)
}

func (h *Handler) handleCreateAsset(w http.ResponseWriter, r *http.Request) {
	var asset domain.Asset
	if err := json.NewDecoder(r.Body).Decode(&asset); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	created, err := h.service.CreateAsset(r.Context(), asset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleGetAsset(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.GetAssetDetail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *Handler) handleSearchAssets(w http.ResponseWriter, r *http.Request) {
	hits, err := h.service.SearchAssets(r.Context(), r.URL.Query().Get("q"), queryInt(r, "limit"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hits)
}

func (h *Handler) handleInventoryCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.service.GetInventoryCounts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func (h *Handler) handleListRelationships(w http.ResponseWriter, r *http.Request) {
	filter := domain.RelationshipFilter{
		AssetID:       queryStringPtr(r, "asset_id"),
		SourceAssetID: queryStringPtr(r, "source_id"),
		TargetAssetID: queryStringPtr(r, "target_id"),
		VerifiedOnly:  queryBool(r, "verified_only"),
		Limit:         queryInt(r, "limit"),
	}
	if raw := queryStringPtr(r, "kind"); raw != nil {
		k, err := domain.ParseRelationshipKind(*raw)
		if err != nil {
			writeError(w, err)
			return
		}
		filter.Kind = &k
	}

	rels, err := h.service.ListRelationships(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rels)
}

type addRelationshipRequest struct {
	SourceAssetID string  `json:"source_asset_id"`
	TargetAssetID string  `json:"target_asset_id"`
	Kind          string  `json:"relationship_type"`
	Description   *string `json:"description"`
	Inferred      bool    `json:"inferred"`
}

func (h *Handler) handleAddRelationship(w http.ResponseWriter, r *http.Request) {
	var req addRelationshipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	created, err := h.service.AddRelationship(r.Context(), req.SourceAssetID, req.TargetAssetID, req.Kind, req.Description, req.Inferred)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

type verifyRelationshipRequest struct {
	VerifiedBy string `json:"verified_by"`
}

func (h *Handler) handleVerifyRelationship(w http.ResponseWriter, r *http.Request) {
	var req verifyRelationshipRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.VerifiedBy == "" {
		if identity, ok := identityFromContext(r.Context()); ok {
			req.VerifiedBy = identity.User.Email
		}
	}
	verified, err := h.service.VerifyRelationship(r.Context(), chi.URLParam(r, "id"), req.VerifiedBy)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, verified)
}

func (h *Handler) handleRelationshipKinds(w http.ResponseWriter, r *http.Request) {
	kinds, err := h.service.RelationshipKindSummary(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, kinds)
}

func (h *Handler) handleTraceUpstream(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.TraceUpstream(r.Context(), chi.URLParam(r, "id"), traceOptionsFromQuery(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleTraceDownstream(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.TraceDownstream(r.Context(), chi.URLParam(r, "id"), traceOptionsFromQuery(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleDependencies(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.GetDependencies(r.Context(), chi.URLParam(r, "id"), traceOptionsFromQuery(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) handleImpact(w http.ResponseWriter, r *http.Request) {
	report, warnings, err := h.service.AnalyzeImpact(r.Context(), chi.URLParam(r, "id"), queryBool(r, "lenient"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"report": report, "warnings": warnings})
}

func (h *Handler) handleSpof(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.FindSinglePointsOfFailure(r.Context(), r.URL.Query().Get("threshold"), queryBool(r, "lenient"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) handleComplianceGaps(w http.ResponseWriter, r *http.Request) {
	var types []string
	if raw := strings.TrimSpace(r.URL.Query().Get("types")); raw != "" {
		types = strings.Split(raw, ",")
	}
	report, err := h.service.FindComplianceGaps(r.Context(), types,
		queryStringPtr(r, "process_area_id"), queryStringPtr(r, "criticality"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) handleAuditSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.GetAuditSummary(r.Context(), queryStringPtr(r, "process_area_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) handleListProcessAreas(w http.ResponseWriter, r *http.Request) {
	areas, err := h.service.ListProcessAreas(r.Context(), queryStringPtr(r, "site_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, areas)
}

func (h *Handler) handleGetProcessArea(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.GetProcessAreaDetail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *Handler) handleListEnvironments(w http.ResponseWriter, r *http.Request) {
	envs, err := h.service.ListEnvironments(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envs)
}

func (h *Handler) handleListFlags(w http.ResponseWriter, r *http.Request) {
	filter := domain.FlagFilter{
		Status:  strings.TrimSpace(r.URL.Query().Get("status")),
		AssetID: queryStringPtr(r, "asset_id"),
		Limit:   queryInt(r, "limit"),
	}
	if raw := queryStringPtr(r, "type"); raw != nil {
		t, err := domain.ParseFlagType(*raw)
		if err != nil {
			writeError(w, err)
			return
		}
		filter.Type = &t
	}
	flags, err := h.service.ListReviewFlags(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, flags)
}

type flagForReviewRequest struct {
	AssetID     string `json:"asset_id"`
	FlagType    string `json:"flag_type"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

func (h *Handler) handleFlagForReview(w http.ResponseWriter, r *http.Request) {
	var req flagForReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	flaggedBy := ""
	if identity, ok := identityFromContext(r.Context()); ok {
		flaggedBy = identity.User.Email
	}
	flag, err := h.service.FlagForReview(r.Context(), req.AssetID, req.FlagType, req.Description, req.Severity, flaggedBy)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, flag)
}

type resolveFlagRequest struct {
	Resolution string  `json:"resolution"`
	Notes      *string `json:"notes"`
}

func (h *Handler) handleResolveFlag(w http.ResponseWriter, r *http.Request) {
	var req resolveFlagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	resolvedBy := ""
	if identity, ok := identityFromContext(r.Context()); ok {
		resolvedBy = identity.User.Email
	}
	flag, err := h.service.ResolveFlag(r.Context(), chi.URLParam(r, "id"), req.Resolution, resolvedBy, req.Notes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, flag)
}

type suggestRelationshipRequest struct {
	SourceAssetID string `json:"source_asset_id"`
	TargetAssetID string `json:"target_asset_id"`
	Kind          string `json:"relationship_type"`
	Reasoning     string `json:"reasoning"`
}

func (h *Handler) handleSuggestRelationship(w http.ResponseWriter, r *http.Request) {
	var req suggestRelationshipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	flaggedBy := ""
	if identity, ok := identityFromContext(r.Context()); ok {
		flaggedBy = identity.User.Email
	}
	rel, flag, err := h.service.SuggestRelationship(r.Context(), req.SourceAssetID, req.TargetAssetID, req.Kind, req.Reasoning, flaggedBy)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"relationship": rel, "flag": flag})
}

func (h *Handler) handleListAuditLogs(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.ListAuditEntries(r.Context(), queryInt(r, "limit"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
