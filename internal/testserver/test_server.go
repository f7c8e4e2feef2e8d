// Package testserver runs the full HTTP stack over an in-memory database for
// end-to-end tests.
package testserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/phaseboard/internal/app"
	"github.com/rpggio/phaseboard/internal/auth"
	"github.com/rpggio/phaseboard/internal/domain/phase"
	"github.com/rpggio/phaseboard/internal/mcp"
	"github.com/rpggio/phaseboard/internal/sqlite"
	"github.com/rpggio/phaseboard/internal/transport"
	"github.com/stretchr/testify/require"
)

type TestServer struct {
	Server   *httptest.Server
	DB       *sqlite.DB
	Services *app.Services
	TenantID string

	nextID atomic.Int64
}

// New starts a server for tenantID with auth enabled.
func New(t *testing.T, tenantID string) *TestServer {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate())

	services := app.NewServices(db, phase.DefaultPolicy(), nil)
	server := httptest.NewServer(transport.NewServer(services.Handler(), transport.Options{
		Auth: transport.AuthMiddleware(services.APIKeys),
	}))

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return &TestServer{
		Server:   server,
		DB:       db,
		Services: services,
		TenantID: tenantID,
	}
}

// AddAPIKey stores token for a user of the server's tenant.
func (ts *TestServer) AddAPIKey(t *testing.T, token, userID string, role phase.Role) {
	t.Helper()
	require.NoError(t, ts.Services.APIKeys.Create(context.Background(), token, sqlite.APIKey{
		TenantID:  ts.TenantID,
		UserID:    userID,
		Role:      role,
		CreatedAt: time.Now(),
	}))
}

// Call posts a JSON-RPC request and returns the decoded response.
func (ts *TestServer) Call(t *testing.T, token, method string, params any) transport.Response {
	t.Helper()

	raw, err := json.Marshal(params)
	require.NoError(t, err)
	body, err := json.Marshal(transport.Request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  raw,
		ID:      ts.nextID.Add(1),
	})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, ts.Server.URL+"/rpc", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out transport.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// MustCall is Call that fails the test on a JSON-RPC error and decodes the
// result into out.
func (ts *TestServer) MustCall(t *testing.T, token, method string, params, out any) {
	t.Helper()
	resp := ts.Call(t, token, method, params)
	require.Nil(t, resp.Error, "%s returned error %+v", method, resp.Error)
	if out == nil {
		return
	}
	data, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, out))
}

// ConnectMCP connects an MCP client over in-memory transports. Every call
// runs as principal.
func (ts *TestServer) ConnectMCP(t *testing.T, principal auth.Principal) *sdkmcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	server := mcp.NewServer(mcp.Config{
		Handler:          ts.Services.Handler(),
		DefaultPrincipal: principal,
		TransportMode:    "stdio",
		Policy:           ts.Services.Projects.Policy(),
	})
	serverTransport, clientTransport := sdkmcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = session.Close()
		_ = serverSession.Close()
	})
	return session
}
