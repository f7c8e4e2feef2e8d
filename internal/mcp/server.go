package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/rpggio/phaseboard/internal/auth"
	"github.com/rpggio/phaseboard/internal/domain/phase"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Config contains server configuration.
type Config struct {
	Handler          *Handler
	Resolver         auth.Resolver
	AuthEnabled      bool
	DefaultPrincipal auth.Principal
	TransportMode    string // "stdio" or "http"
	Policy           *phase.Policy
	Version          string
	Logger           *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "phaseboard",
		Version: version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	policy := cfg.Policy
	if policy == nil {
		policy = phase.DefaultPolicy()
	}
	registerDocResources(server, policy)

	// Stdio is local only and always runs as the default principal
	if cfg.TransportMode == "stdio" || !cfg.AuthEnabled {
		server.AddReceivingMiddleware(noAuthMiddleware(cfg.DefaultPrincipal))
	} else {
		server.AddReceivingMiddleware(authMiddleware(cfg.Resolver))
	}
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, cfg.Handler)

	return server
}

func registerTools(server *sdkmcp.Server, handler *Handler) {
	for _, def := range buildToolCatalog() {
		tool := &sdkmcp.Tool{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.InputSchema,
		}
		if def.ReadOnly {
			tool.Annotations = &sdkmcp.ToolAnnotations{ReadOnlyHint: true}
		}
		server.AddTool(tool, toolHandler(handler, def.Name))
	}
}

func toolHandler(handler *Handler, name string) sdkmcp.ToolHandler {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
		principal, ok := auth.FromContext(ctx)
		if !ok {
			return errorResult(&APIError{Code: CodeUnauthorized, Message: "no authenticated principal"}), nil
		}

		var args json.RawMessage
		if req != nil && req.Params != nil {
			args = req.Params.Arguments
		}

		result, err := handler.Handle(ctx, principal, name, args)
		if err != nil {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return errorResult(apiErr), nil
			}
			return nil, err
		}
		return textResult(result)
	}
}

func textResult(payload any) (*sdkmcp.CallToolResult, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}, nil
}

func errorResult(apiErr *APIError) *sdkmcp.CallToolResult {
	data, err := json.Marshal(apiErr)
	if err != nil {
		data = []byte(apiErr.Error())
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
		IsError: true,
	}
}
