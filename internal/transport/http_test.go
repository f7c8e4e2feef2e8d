package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rpggio/phaseboard/internal/auth"
	"github.com/rpggio/phaseboard/internal/domain/phase"
	"github.com/stretchr/testify/require"
)

type codedTestError struct {
	code string
}

func (e codedTestError) Error() string             { return e.code }
func (e codedTestError) CodeValue() string         { return e.code }
func (e codedTestError) MessageValue() string      { return "rejected" }
func (e codedTestError) DetailsValue() any         { return map[string]string{"reason": "noop"} }
func (e codedTestError) RecoveryHintValue() string { return "try another phase" }

type testHandler struct {
	method    string
	principal auth.Principal
	err       error
}

func (h *testHandler) Handle(_ context.Context, principal auth.Principal, method string, _ json.RawMessage) (any, error) {
	h.method = method
	h.principal = principal
	if h.err != nil {
		return nil, h.err
	}
	return map[string]string{"tenant": principal.TenantID}, nil
}

func newTestServer(t *testing.T, handler Dispatcher) *httptest.Server {
	t.Helper()
	resolver := &testResolver{tokens: map[string]auth.Principal{
		"token": {TenantID: "tenant1", UserID: "ana", Role: phase.RoleClientAdmin},
	}}
	server := httptest.NewServer(NewServer(handler, Options{Auth: AuthMiddleware(resolver)}))
	t.Cleanup(server.Close)
	return server
}

func postRPC(t *testing.T, url, token, body string) (*http.Response, Response) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url+"/rpc", bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var out Response
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func TestHTTPServer_RPC(t *testing.T) {
	handler := &testHandler{}
	server := newTestServer(t, handler)

	resp, out := postRPC(t, server.URL, "token", `{"jsonrpc":"2.0","method":"list_projects","id":1}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Nil(t, out.Error)
	require.Equal(t, "list_projects", handler.method)
	require.Equal(t, "ana", handler.principal.UserID)
	require.Equal(t, phase.RoleClientAdmin, handler.principal.Role)
	require.NotEmpty(t, resp.Header.Get("Content-Type"))
}

func TestHTTPServer_RPCRequiresToken(t *testing.T) {
	server := newTestServer(t, &testHandler{})

	resp, _ := postRPC(t, server.URL, "", `{"jsonrpc":"2.0","method":"list_projects","id":1}`)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = postRPC(t, server.URL, "wrong", `{"jsonrpc":"2.0","method":"list_projects","id":1}`)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHTTPServer_RPCErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		body     string
		wantCode int
		wantData string
	}{
		{name: "parse", body: `{"jsonrpc":`, wantCode: ErrParseCode},
		{name: "invalid request", body: `{"jsonrpc":"1.0","method":"x","id":1}`, wantCode: ErrInvalidReq},
		{name: "domain", err: codedTestError{code: "FORBIDDEN_TRANSITION"}, wantCode: ErrDomain, wantData: "FORBIDDEN_TRANSITION"},
		{name: "method not found", err: codedTestError{code: "METHOD_NOT_FOUND"}, wantCode: ErrMethodNotFound, wantData: "METHOD_NOT_FOUND"},
		{name: "invalid input", err: codedTestError{code: "INVALID_INPUT"}, wantCode: ErrInvalidParams, wantData: "INVALID_INPUT"},
		{name: "internal", err: errors.New("database is locked"), wantCode: ErrInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t, &testHandler{err: tt.err})
			body := tt.body
			if body == "" {
				body = `{"jsonrpc":"2.0","method":"request_transition","id":7}`
			}

			resp, out := postRPC(t, server.URL, "token", body)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			require.NotNil(t, out.Error)
			require.Equal(t, tt.wantCode, out.Error.Code)
			if tt.wantData != "" {
				data, ok := out.Error.Data.(map[string]any)
				require.True(t, ok)
				require.Equal(t, tt.wantData, data["code"])
				require.Equal(t, "try another phase", data["recovery_hint"])
			}
			if tt.wantCode == ErrInternal {
				require.NotContains(t, out.Error.Message, "database")
			}
		})
	}
}

func TestHTTPServer_Health(t *testing.T) {
	server := httptest.NewServer(NewServer(&testHandler{}, Options{}))
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHTTPServer_MountsMCP(t *testing.T) {
	mcpHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	server := httptest.NewServer(NewServer(&testHandler{}, Options{MCP: mcpHandler}))
	t.Cleanup(server.Close)

	resp, err := http.Post(server.URL+"/mcp", "application/json", bytes.NewBufferString(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
}
