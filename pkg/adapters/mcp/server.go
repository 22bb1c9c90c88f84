package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/presentation/graph"
	"github.com/aretw0/arbor/pkg/shadow"
	"github.com/aretw0/lifecycle"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// TreeURI is the resource holding the live shadow tree.
const TreeURI = "arbor://tree"

// Inspector is the read side of an attached engine.
type Inspector interface {
	Render() (string, error)
	Snapshot() (*shadow.NodeSnapshot, error)
	Find(path string) (*shadow.NodeSnapshot, bool, error)
}

// NodeArgs are the arguments of the get_node tool.
type NodeArgs struct {
	Path string `json:"path"`
}

// NodeResponse is the structured result of get_node.
type NodeResponse struct {
	Found bool                 `json:"found" jsonschema_description:"Whether a node exists at the path"`
	Node  *shadow.NodeSnapshot `json:"node,omitempty" jsonschema_description:"The node and its descendants"`
}

// Server exposes a live shadow tree as an MCP server.
type Server struct {
	inspector Inspector
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(inspector Inspector) *Server {
	s := &Server{
		inspector: inspector,
		mcpServer: server.NewMCPServer("arbor-mcp", strings.TrimSpace(arbor.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on addr using SSE and stops when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL("http://"+displayHost(addr)))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	lifecycle.Go(ctx, func(ctx context.Context) error {
		slog.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
		return nil
	})

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func displayHost(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "localhost" + addr
	}
	return addr
}

func (s *Server) registerTools() {
	// TOOL: get_shadow_tree
	s.mcpServer.AddTool(mcp.NewTool("get_shadow_tree",
		mcp.WithDescription("Get the live shadow tree of the observed object graph."),
		mcp.WithString("format",
			mcp.Description("Output format: text (default), json or mermaid"),
			mcp.Enum("text", "json", "mermaid"),
		),
	), s.handleTree)

	// TOOL: get_node
	s.mcpServer.AddTool(mcp.NewTool("get_node",
		mcp.WithDescription("Get one shadow node by path, e.g. (Origin)Order/Lines/[0]/Price."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Node path")),
		mcp.WithOutputSchema[NodeResponse](),
	), mcp.NewStructuredToolHandler(s.handleNode))
}

func (s *Server) handleTree(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	switch format := request.GetString("format", "text"); format {
	case "text":
		out, err := s.inspector.Render()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("render failed: %v", err)), nil
		}
		return mcp.NewToolResultText(out), nil
	case "json", "mermaid":
		snap, err := s.inspector.Snapshot()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("snapshot failed: %v", err)), nil
		}
		if format == "mermaid" {
			return mcp.NewToolResultText(graph.GenerateMermaid(snap, nil)), nil
		}
		jsonBytes, _ := json.Marshal(snap)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown format %q", format)), nil
	}
}

func (s *Server) handleNode(ctx context.Context, request mcp.CallToolRequest, args NodeArgs) (NodeResponse, error) {
	if args.Path == "" {
		return NodeResponse{}, fmt.Errorf("path is required")
	}
	node, ok, err := s.inspector.Find(args.Path)
	if err != nil {
		return NodeResponse{}, fmt.Errorf("find failed: %w", err)
	}
	return NodeResponse{Found: ok, Node: node}, nil
}

func (s *Server) registerResources() {
	// EXPOSE: arbor://tree
	s.mcpServer.AddResource(mcp.NewResource(TreeURI, "Live Shadow Tree",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		snap, err := s.inspector.Snapshot()
		if err != nil {
			return nil, fmt.Errorf("failed to snapshot tree: %w", err)
		}
		jsonBytes, _ := json.Marshal(snap)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      TreeURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
