package mgmtapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func TestExecute_Success(t *testing.T) {
	var gotAuth, gotMethod, gotPath, gotQuery string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("limit")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "proj_1"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "token-123", zap.NewNop())
	result, err := c.Execute(context.Background(), "POST", "/v1/projects",
		map[string]string{"limit": "5"},
		map[string]any{"name": "demo"},
	)
	if err != nil {
		t.Fatal(err)
	}

	if gotAuth != "Bearer token-123" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotMethod != "POST" || gotPath != "/v1/projects" {
		t.Errorf("request = %s %s", gotMethod, gotPath)
	}
	if gotQuery != "5" {
		t.Errorf("query param = %q", gotQuery)
	}
	if gotBody["name"] != "demo" {
		t.Errorf("body = %v", gotBody)
	}

	m, ok := result.(map[string]any)
	if !ok || m["id"] != "proj_1" {
		t.Errorf("result = %v", result)
	}
}

func TestExecute_NonJSONMethodUppercased(t *testing.T) {
	var gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "t", zap.NewNop())
	result, err := c.Execute(context.Background(), "delete", "/v1/projects/abc/secrets", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if gotMethod != "DELETE" {
		t.Errorf("method = %q", gotMethod)
	}
	if result != nil {
		t.Errorf("empty body must decode to nil, got %v", result)
	}
}

func TestExecute_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message": "no access"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "t", zap.NewNop())
	_, err := c.Execute(context.Background(), "GET", "/v1/projects", nil, nil)

	var respErr *ResponseError
	if !errors.As(err, &respErr) {
		t.Fatalf("expected ResponseError, got %v", err)
	}
	if respErr.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d", respErr.StatusCode)
	}
	body, ok := respErr.Body.(map[string]any)
	if !ok || body["message"] != "no access" {
		t.Errorf("body = %v", respErr.Body)
	}
}

func TestExecute_ErrorStatusNonJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "t", zap.NewNop())
	_, err := c.Execute(context.Background(), "GET", "/v1/projects", nil, nil)

	var respErr *ResponseError
	if !errors.As(err, &respErr) {
		t.Fatalf("expected ResponseError, got %v", err)
	}
	if respErr.Body != "upstream down" {
		t.Errorf("body = %v", respErr.Body)
	}
}

func TestExecute_MalformedSuccessBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "t", zap.NewNop())
	_, err := c.Execute(context.Background(), "GET", "/v1/projects", nil, nil)

	var malformed *MalformedResponseError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedResponseError, got %v", err)
	}
}

func TestExecute_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // immediately, so the port refuses connections

	c := NewClient(srv.URL, "t", zap.NewNop())
	_, err := c.Execute(context.Background(), "GET", "/v1/projects", nil, nil)

	var connErr *ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected ConnectionError, got %v", err)
	}
}
