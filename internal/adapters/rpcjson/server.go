package rpcjson

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/toreyjames/Asset-Inventory-Claude/internal/application"
	"github.com/toreyjames/Asset-Inventory-Claude/internal/domain"
)

type Server struct {
	service  *application.InventoryService
	listener net.Listener
	path     string
}

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      any             `json:"id"`
}

type response struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  any         `json:"result,omitempty"`
	Error   *rpcError   `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func Start(path string, service *application.InventoryService) (*Server, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("rpc socket path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	_ = os.Remove(path)
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	if err := os.Chmod(path, 0o600); err != nil {
		_ = ln.Close()
		_ = os.Remove(path)
		return nil, err
	}

	s := &Server{service: service, listener: ln, path: path}
	go s.serve()
	return s, nil
}

func (s *Server) serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		go s.handleConn(conn)
	}
}

func (s *Server) Close() error {
	err := s.listener.Close()
	_ = os.Remove(s.path)
	return err
}

func (s *Server) handleConn(conn net.Conn) {
	defer func() { _ = conn.Close() }()
	dec := json.NewDecoder(conn)
	enc := json.NewEncoder(conn)

	for {
		var req request
		if err := dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			_ = enc.Encode(response{JSONRPC: "2.0", Error: &rpcError{Code: -32700, Message: "parse error"}, ID: nil})
			return
		}

		resp := s.dispatch(context.Background(), req)
		if err := enc.Encode(resp); err != nil {
			return
		}
	}
}

func (s *Server) dispatch(ctx context.Context, req request) response {
	if req.JSONRPC != "2.0" || strings.TrimSpace(req.Method) == "" {
		return response{JSONRPC: "2.0", Error: &rpcError{Code: -32600, Message: "invalid request"}, ID: req.ID}
	}

	switch req.Method {
	case "auth.login":
		return s.handleAuthLogin(ctx, req)
	case "auth.whoami":
		identity, rpcResp, ok := s.authz(ctx, req, "")
		if !ok {
			return rpcResp
		}
		return result(req.ID, map[string]any{"id": identity.User.ID, "email": identity.User.Email, "role": identity.User.Role})
	case "users.create":
		identity, rpcResp, ok := s.authz(ctx, req, "admin")
		if !ok {
			return rpcResp
		}
		var p struct {
			Token    string `json:"token"`
			Email    string `json:"email"`
			Password string `json:"password"`
			Role     string `json:"role"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		u, err := s.service.CreateUser(application.WithActor(ctx, identity.User.ID), p.Email, p.Password, p.Role)
		if err != nil {
			return appError(req.ID, err)
		}
		return result(req.ID, map[string]any{"id": u.ID, "email": u.Email, "role": u.Role})
	case "assets.list":
		_, rpcResp, ok := s.authz(ctx, req, "read")
		if !ok {
			return rpcResp
		}
		var p struct {
			Token         string  `json:"token"`
			Type          *string `json:"type"`
			ProcessAreaID *string `json:"process_area_id"`
			SiteID        *string `json:"site_id"`
			Criticality   *string `json:"criticality"`
			Owner         *string `json:"owner"`
			HasGaps       bool    `json:"has_gaps"`
			Limit         int     `json:"limit"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		filter := domain.AssetFilter{ProcessAreaID: p.ProcessAreaID, SiteID: p.SiteID, Owner: p.Owner, HasGaps: p.HasGaps, Limit: p.Limit}
		if p.Type != nil {
			t, err := domain.ParseAssetType(*p.Type)
			if err != nil {
				return appError(req.ID, err)
			}
			filter.Type = &t
		}
		if p.Criticality != nil {
			c, err := domain.ParseCriticality(*p.Criticality)
			if err != nil {
				return appError(req.ID, err)
			}
			filter.Criticality = &c
		}
		out, err := s.service.ListAssets(ctx, filter)
		if err != nil {
			return internalError(req.ID, err)
		}
		return result(req.ID, out)
	case "assets.get":
		_, rpcResp, ok := s.authz(ctx, req, "read")
		if !ok {
			return rpcResp
		}
		var p struct {
			Token   string `json:"token"`
			AssetID string `json:"asset_id"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.service.GetAssetDetail(ctx, p.AssetID)
		if err != nil {
			return appError(req.ID, err)
		}
		return result(req.ID, out)
	case "assets.search":
		_, rpcResp, ok := s.authz(ctx, req, "read")
		if !ok {
			return rpcResp
		}
		var p struct {
			Token string `json:"token"`
			Q     string `json:"q"`
			Limit int    `json:"limit"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.service.SearchAssets(ctx, p.Q, p.Limit)
		if err != nil {
			return appError(req.ID, err)
		}
		return result(req.ID, out)
	case "assets.create":
		identity, rpcResp, ok := s.authz(ctx, req, "write")
		if !ok {
			return rpcResp
		}
		var p struct {
			Token string       `json:"token"`
			Asset domain.Asset `json:"asset"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.service.CreateAsset(application.WithActor(ctx, identity.User.ID), p.Asset)
		if err != nil {
			return appError(req.ID, err)
		}
		return result(req.ID, out)
	case "assets.counts":
		_, rpcResp, ok := s.authz(ctx, req, "read")
		if !ok {
			return rpcResp
		}
		out, err := s.service.GetInventoryCounts(ctx)
		if err != nil {
			return internalError(req.ID, err)
		}
		return result(req.ID, out)
	case "relationships.list":
		_, rpcResp, ok := s.authz(ctx, req, "read")
		if !ok {
			return rpcResp
		}
		var p struct {
			Token        string  `json:"token"`
			AssetID      *string `json:"asset_id"`
			SourceID     *string `json:"source_id"`
			TargetID     *string `json:"target_id"`
			Kind         *string `json:"kind"`
			VerifiedOnly bool    `json:"verified_only"`
			Limit        int     `json:"limit"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		filter := domain.RelationshipFilter{AssetID: p.AssetID, SourceAssetID: p.SourceID, TargetAssetID: p.TargetID, VerifiedOnly: p.VerifiedOnly, Limit: p.Limit}
		if p.Kind != nil {
			k, err := domain.ParseRelationshipKind(*p.Kind)
			if err != nil {
				return appError(req.ID, err)
			}
			filter.Kind = &k
		}
		out, err := s.service.ListRelationships(ctx, filter)
		if err != nil {
			return internalError(req.ID, err)
		}
		return result(req.ID, out)
	case "relationships.add":
		identity, rpcResp, ok := s.authz(ctx, req, "write")
		if !ok {
			return rpcResp
		}
		var p struct {
			Token         string  `json:"token"`
			SourceAssetID string  `json:"source_asset_id"`
			TargetAssetID string  `json:"target_asset_id"`
			Kind          string  `json:"relationship_type"`
			Description   *string `json:"description"`
			Inferred      bool    `json:"inferred"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.service.AddRelationship(application.WithActor(ctx, identity.User.ID),
			p.SourceAssetID, p.TargetAssetID, p.Kind, p.Description, p.Inferred)
		if err != nil {
			return appError(req.ID, err)
		}
		return result(req.ID, out)
	case "relationships.verify":
		identity, rpcResp, ok := s.authz(ctx, req, "write")
		if !ok {
			return rpcResp
		}
		var p struct {
			Token          string `json:"token"`
			RelationshipID string `json:"relationship_id"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.service.VerifyRelationship(application.WithActor(ctx, identity.User.ID), p.RelationshipID, identity.User.Email)
		if err != nil {
			return appError(req.ID, err)
		}
		return result(req.ID, out)
	case "relationships.kinds":
		_, rpcResp, ok := s.authz(ctx, req, "read")
		if !ok {
			return rpcResp
		}
		out, err := s.service.RelationshipKindSummary(ctx)
		if err != nil {
			return internalError(req.ID, err)
		}
		return result(req.ID, out)
	case "graph.upstream", "graph.downstream":
		_, rpcResp, ok := s.authz(ctx, req, "read")
		if !ok {
			return rpcResp
		}
		p, rpcResp, ok := decodeTraceParams(req)
		if !ok {
			return rpcResp
		}
		opts := application.TraceOptions{MaxDepth: p.MaxDepth, Kinds: splitCSV(p.Kinds), Lenient: p.Lenient}
		var out application.TraceResult
		var err error
		if req.Method == "graph.upstream" {
			out, err = s.service.TraceUpstream(ctx, p.AssetID, opts)
		} else {
			out, err = s.service.TraceDownstream(ctx, p.AssetID, opts)
		}
		if err != nil {
			return appError(req.ID, err)
		}
		return result(req.ID, out)
	case "graph.dependencies":
		_, rpcResp, ok := s.authz(ctx, req, "read")
		if !ok {
			return rpcResp
		}
		p, rpcResp, ok := decodeTraceParams(req)
		if !ok {
			return rpcResp
		}
		out, err := s.service.GetDependencies(ctx, p.AssetID,
			application.TraceOptions{MaxDepth: p.MaxDepth, Kinds: splitCSV(p.Kinds), Lenient: p.Lenient})
		if err != nil {
			return appError(req.ID, err)
		}
		return result(req.ID, out)
	case "analysis.impact":
		identity, rpcResp, ok := s.authz(ctx, req, "read")
		if !ok {
			return rpcResp
		}
		var p struct {
			Token   string `json:"token"`
			AssetID string `json:"asset_id"`
			Lenient bool   `json:"lenient"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		report, warnings, err := s.service.AnalyzeImpact(application.WithActor(ctx, identity.User.ID), p.AssetID, p.Lenient)
		if err != nil {
			return appError(req.ID, err)
		}
		return result(req.ID, map[string]any{"report": report, "warnings": warnings})
	case "analysis.spof":
		identity, rpcResp, ok := s.authz(ctx, req, "read")
		if !ok {
			return rpcResp
		}
		var p struct {
			Token     string `json:"token"`
			Threshold string `json:"threshold"`
			Lenient   bool   `json:"lenient"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.service.FindSinglePointsOfFailure(application.WithActor(ctx, identity.User.ID), p.Threshold, p.Lenient)
		if err != nil {
			return appError(req.ID, err)
		}
		return result(req.ID, out)
	case "compliance.gaps":
		_, rpcResp, ok := s.authz(ctx, req, "read")
		if !ok {
			return rpcResp
		}
		var p struct {
			Token         string  `json:"token"`
			Types         string  `json:"types"`
			ProcessAreaID *string `json:"process_area_id"`
			Criticality   *string `json:"criticality"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.service.FindComplianceGaps(ctx, splitCSV(p.Types), p.ProcessAreaID, p.Criticality)
		if err != nil {
			return appError(req.ID, err)
		}
		return result(req.ID, out)
	case "compliance.summary":
		_, rpcResp, ok := s.authz(ctx, req, "read")
		if !ok {
			return rpcResp
		}
		var p struct {
			Token         string  `json:"token"`
			ProcessAreaID *string `json:"process_area_id"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.service.GetAuditSummary(ctx, p.ProcessAreaID)
		if err != nil {
			return internalError(req.ID, err)
		}
		return result(req.ID, out)
	case "areas.list":
		_, rpcResp, ok := s.authz(ctx, req, "read")
		if !ok {
			return rpcResp
		}
		var p struct {
			Token  string  `json:"token"`
			SiteID *string `json:"site_id"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.service.ListProcessAreas(ctx, p.SiteID)
		if err != nil {
			return internalError(req.ID, err)
		}
		return result(req.ID, out)
	case "areas.get":
		_, rpcResp, ok := s.authz(ctx, req, "read")
		if !ok {
			return rpcResp
		}
		var p struct {
			Token  string `json:"token"`
			AreaID string `json:"area_id"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.service.GetProcessAreaDetail(ctx, p.AreaID)
		if err != nil {
			return appError(req.ID, err)
		}
		return result(req.ID, out)
	case "environments.list":
		_, rpcResp, ok := s.authz(ctx, req, "read")
		if !ok {
			return rpcResp
		}
		out, err := s.service.ListEnvironments(ctx)
		if err != nil {
			return internalError(req.ID, err)
		}
		return result(req.ID, out)
	case "review.flag":
		identity, rpcResp, ok := s.authz(ctx, req, "write")
		if !ok {
			return rpcResp
		}
		var p struct {
			Token       string `json:"token"`
			AssetID     string `json:"asset_id"`
			FlagType    string `json:"flag_type"`
			Description string `json:"description"`
			Severity    string `json:"severity"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.service.FlagForReview(application.WithActor(ctx, identity.User.ID),
			p.AssetID, p.FlagType, p.Description, p.Severity, identity.User.Email)
		if err != nil {
			return appError(req.ID, err)
		}
		return result(req.ID, out)
	case "review.suggest":
		identity, rpcResp, ok := s.authz(ctx, req, "write")
		if !ok {
			return rpcResp
		}
		var p struct {
			Token         string `json:"token"`
			SourceAssetID string `json:"source_asset_id"`
			TargetAssetID string `json:"target_asset_id"`
			Kind          string `json:"relationship_type"`
			Reasoning     string `json:"reasoning"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		rel, flag, err := s.service.SuggestRelationship(application.WithActor(ctx, identity.User.ID),
			p.SourceAssetID, p.TargetAssetID, p.Kind, p.Reasoning, identity.User.Email)
		if err != nil {
			return appError(req.ID, err)
		}
		return result(req.ID, map[string]any{"relationship": rel, "flag": flag})
	case "review.list":
		_, rpcResp, ok := s.authz(ctx, req, "read")
		if !ok {
			return rpcResp
		}
		var p struct {
			Token   string  `json:"token"`
			Status  string  `json:"status"`
			Type    *string `json:"type"`
			AssetID *string `json:"asset_id"`
			Limit   int     `json:"limit"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		filter := domain.FlagFilter{Status: p.Status, AssetID: p.AssetID, Limit: p.Limit}
		if p.Type != nil {
			t, err := domain.ParseFlagType(*p.Type)
			if err != nil {
				return appError(req.ID, err)
			}
			filter.Type = &t
		}
		out, err := s.service.ListReviewFlags(ctx, filter)
		if err != nil {
			return internalError(req.ID, err)
		}
		return result(req.ID, out)
	case "review.resolve":
		identity, rpcResp, ok := s.authz(ctx, req, "write")
		if !ok {
			return rpcResp
		}
		var p struct {
			Token      string  `json:"token"`
			FlagID     string  `json:"flag_id"`
			Resolution string  `json:"resolution"`
			Notes      *string `json:"notes"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.service.ResolveFlag(application.WithActor(ctx, identity.User.ID),
			p.FlagID, p.Resolution, identity.User.Email, p.Notes)
		if err != nil {
			return appError(req.ID, err)
		}
		return result(req.ID, out)
	case "audit.list":
		_, rpcResp, ok := s.authz(ctx, req, "admin")
		if !ok {
			return rpcResp
		}
		var p struct {
			Token string `json:"token"`
			Limit int    `json:"limit"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.service.ListAuditEntries(ctx, p.Limit)
		if err != nil {
			return internalError(req.ID, err)
		}
		return result(req.ID, out)
	default:
		return response{JSONRPC: "2.0", Error: &rpcError{Code: -32601, Message: "method not found"}, ID: req.ID}
	}
}

func (s *Server) handleAuthLogin(ctx context.Context, req request) response {
	var p struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		TokenName string `json:"token_name"`
		TTLHours  int    `json:"ttl_hours"`
	}
	if !decodeParams(req.Params, &p) {
		return invalidParams(req.ID)
	}
	var ttl *time.Duration
	if p.TTLHours > 0 {
		d := time.Duration(p.TTLHours) * time.Hour
		ttl = &d
	}
	u, token, err := s.service.Login(ctx, p.Email, p.Password, p.TokenName, ttl)
	if err != nil {
		return response{JSONRPC: "2.0", Error: &rpcError{Code: 40100, Message: "invalid credentials"}, ID: req.ID}
	}
	return result(req.ID, map[string]any{"user_id": u.ID, "email": u.Email, "role": u.Role, "token": token})
}

type traceParams struct {
	Token    string `json:"token"`
	AssetID  string `json:"asset_id"`
	MaxDepth int    `json:"max_depth"`
	Kinds    string `json:"kinds"`
	Lenient  bool   `json:"lenient"`
}

func decodeTraceParams(req request) (traceParams, response, bool) {
	var p traceParams
	if !decodeParams(req.Params, &p) {
		return traceParams{}, invalidParams(req.ID), false
	}
	return p, response{}, true
}

func (s *Server) authz(ctx context.Context, req request, permission string) (domain.Identity, response, bool) {
	var p struct {
		Token string `json:"token"`
	}
	if !decodeParams(req.Params, &p) {
		return domain.Identity{}, invalidParams(req.ID), false
	}
	identity, err := s.service.AuthenticateBearerToken(ctx, p.Token)
	if err != nil {
		return domain.Identity{}, response{JSONRPC: "2.0", Error: &rpcError{Code: 40100, Message: "unauthorized"}, ID: req.ID}, false
	}
	if permission != "" && !s.service.Can(identity, permission) {
		return domain.Identity{}, response{JSONRPC: "2.0", Error: &rpcError{Code: 40300, Message: "forbidden"}, ID: req.ID}, false
	}
	return identity, response{}, true
}

func decodeParams(raw json.RawMessage, out any) bool {
	if len(raw) == 0 {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

func splitCSV(input string) []string {
	parts := strings.Split(input, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		result = append(result, trimmed)
	}
	return result
}

func result(id any, payload any) response {
	return response{JSONRPC: "2.0", Result: payload, ID: id}
}

func invalidParams(id any) response {
	return response{JSONRPC: "2.0", Error: &rpcError{Code: -32602, Message: "invalid params"}, ID: id}
}

func appError(id any, err error) response {
	if domain.IsNotFound(err) {
		return response{JSONRPC: "2.0", Error: &rpcError{Code: 40400, Message: err.Error()}, ID: id}
	}
	return response{JSONRPC: "2.0", Error: &rpcError{Code: 40000, Message: err.Error()}, ID: id}
}

func internalError(id any, err error) response {
	return response{JSONRPC: "2.0", Error: &rpcError{Code: 50000, Message: fmt.Sprintf("internal error: %v", err)}, ID: id}
}
