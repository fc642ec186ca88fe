package main

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
)

func TestAPIClientSurfacesErrorPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/assets/GHOST-9":
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]any{"error": `asset "GHOST-9" not found`})
		default:
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{"error": "missing bearer token"})
		}
	}))
	defer srv.Close()

	client := newAPIClient(srv.URL, "")
	err := client.request(context.Background(), http.MethodGet, "/api/assets/GHOST-9", nil, nil)
	if err == nil || err.Error() != `asset "GHOST-9" not found` {
		t.Fatalf("expected the server's error message, got %v", err)
	}

	err = client.request(context.Background(), http.MethodGet, "/api/assets", nil, nil)
	if err == nil || !strings.Contains(err.Error(), "auth login") {
		t.Fatalf("401 should suggest logging in, got %v", err)
	}
}

func TestRPCClientMapsServerCodes(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "rpc.sock")
	ln, err := net.Listen("unix", socket)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer func() { _ = ln.Close() }()

	respond := func(code int, message string) {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer func() { _ = conn.Close() }()
		var req rpcRequest
		_ = json.NewDecoder(conn).Decode(&req)
		_ = json.NewEncoder(conn).Encode(rpcResponse{
			JSONRPC: "2.0",
			Error:   &rpcRespError{Code: code, Message: message},
			ID:      req.ID,
		})
	}

	client := newRPCClient(socket)

	go respond(rpcCodeNotFound, `asset "GHOST-9" not found`)
	err = client.call(context.Background(), "assets.get", map[string]any{"asset_id": "GHOST-9"}, nil)
	if err == nil || err.Error() != `asset "GHOST-9" not found` {
		t.Fatalf("40400 should pass the message through bare, got %v", err)
	}

	go respond(rpcCodeUnauthorized, "invalid token")
	err = client.call(context.Background(), "assets.list", nil, nil)
	if err == nil || !strings.Contains(err.Error(), "auth login") {
		t.Fatalf("40100 should suggest logging in, got %v", err)
	}

	go respond(-32601, "method not found")
	err = client.call(context.Background(), "nope", nil, nil)
	if err == nil || !strings.Contains(err.Error(), "-32601") {
		t.Fatalf("protocol errors keep their code, got %v", err)
	}
}
