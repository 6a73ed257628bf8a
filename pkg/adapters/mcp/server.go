// Package mcp exposes a Beadnet as a Model Context Protocol server so that
// agents can inspect the network and drive payments through it.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/beadnet"
	"github.com/aretw0/beadnet/internal/logging"
	"github.com/aretw0/beadnet/internal/presentation/graph"
	"github.com/aretw0/beadnet/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NetworkURI is the resource holding the current network snapshot.
const NetworkURI = "beadnet://network"

// Engine is the part of a Beadnet the MCP server drives.
type Engine interface {
	Snapshot() domain.Snapshot
	AddNode(ctx context.Context, spec domain.NodeSpec) (domain.Node, error)
	AddChannel(ctx context.Context, spec domain.ChannelSpec) (domain.Channel, error)
	RemoveChannel(ctx context.Context, sourceID, targetID string) error
	MoveBeads(ctx context.Context, sourceID, targetID string, count int, opts ...beadnet.TransferOption) (*beadnet.Transfer, error)
	NextStep(ctx context.Context) (string, error)
}

// Server wraps the Engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger used for tool failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("beadnet-mcp", strings.TrimSpace(beadnet.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server, for in-process transports.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// AddNodeArgs are the arguments of the add_node tool.
type AddNodeArgs struct {
	ID      string `json:"id,omitempty"`
	Balance *int   `json:"balance,omitempty"`
}

// ChannelArgs are the arguments of the add_channel and remove_channel tools.
type ChannelArgs struct {
	Source        string `json:"source"`
	Target        string `json:"target"`
	SourceBalance int    `json:"source_balance,omitempty"`
	TargetBalance int    `json:"target_balance,omitempty"`
}

// MoveBeadsArgs are the arguments of the move_beads tool.
type MoveBeadsArgs struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Count  int    `json:"count"`
	Wait   bool   `json:"wait,omitempty"`
}

// TransferResult describes the outcome of move_beads.
type TransferResult struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
	Indices   []int  `json:"indices"`
	Completed bool   `json:"completed"`
}

// StepResult describes the outcome of next_step.
type StepResult struct {
	Label string `json:"label"`
	Error string `json:"error,omitempty"`
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("get_network",
		mcp.WithDescription("Get every node and channel of the network, with balances and beads."),
		mcp.WithOutputSchema[domain.Snapshot](),
	), mcp.NewStructuredToolHandler(s.handleGetNetwork))

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get the network as a Mermaid flowchart."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText(graph.GenerateMermaid(s.engine.Snapshot(), nil)), nil
	})

	s.mcpServer.AddTool(mcp.NewTool("add_node",
		mcp.WithDescription("Add a node. A random name is picked when id is omitted."),
		mcp.WithString("id", mcp.Description("Unique node id (optional)")),
		mcp.WithNumber("balance", mcp.Description("Free balance (optional, random when omitted)")),
		mcp.WithOutputSchema[domain.Node](),
	), mcp.NewStructuredToolHandler(s.handleAddNode))

	s.mcpServer.AddTool(mcp.NewTool("add_channel",
		mcp.WithDescription("Open a channel between two nodes, locking funds from both."),
		mcp.WithString("source", mcp.Required(), mcp.Description("Source node id")),
		mcp.WithString("target", mcp.Required(), mcp.Description("Target node id")),
		mcp.WithNumber("source_balance", mcp.Description("Funds locked by the source")),
		mcp.WithNumber("target_balance", mcp.Description("Funds locked by the target")),
		mcp.WithOutputSchema[domain.Channel](),
	), mcp.NewStructuredToolHandler(s.handleAddChannel))

	s.mcpServer.AddTool(mcp.NewTool("remove_channel",
		mcp.WithDescription("Close the channel from source to target, returning funds to both nodes."),
		mcp.WithString("source", mcp.Required(), mcp.Description("Source node id")),
		mcp.WithString("target", mcp.Required(), mcp.Description("Target node id")),
	), s.handleRemoveChannel)

	s.mcpServer.AddTool(mcp.NewTool("move_beads",
		mcp.WithDescription("Move beads across the channel linking two nodes."),
		mcp.WithString("source", mcp.Required(), mcp.Description("Paying node id")),
		mcp.WithString("target", mcp.Required(), mcp.Description("Receiving node id")),
		mcp.WithNumber("count", mcp.Required(), mcp.Description("Number of beads to move")),
		mcp.WithBoolean("wait", mcp.Description("Wait until every bead arrived")),
		mcp.WithOutputSchema[TransferResult](),
	), mcp.NewStructuredToolHandler(s.handleMoveBeads))

	s.mcpServer.AddTool(mcp.NewTool("next_step",
		mcp.WithDescription("Play the next step of the presentation."),
		mcp.WithOutputSchema[StepResult](),
	), mcp.NewStructuredToolHandler(s.handleNextStep))
}

func (s *Server) handleGetNetwork(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (domain.Snapshot, error) {
	return s.engine.Snapshot(), nil
}

func (s *Server) handleAddNode(ctx context.Context, request mcp.CallToolRequest, args AddNodeArgs) (domain.Node, error) {
	node, err := s.engine.AddNode(ctx, domain.NodeSpec{ID: args.ID, Balance: args.Balance})
	if err != nil {
		s.logger.Warn("MCP add_node failed", "err", err)
		return domain.Node{}, fmt.Errorf("add node failed: %w", err)
	}
	return node, nil
}

func (s *Server) handleAddChannel(ctx context.Context, request mcp.CallToolRequest, args ChannelArgs) (domain.Channel, error) {
	ch, err := s.engine.AddChannel(ctx, domain.ChannelSpec{
		Source:        args.Source,
		Target:        args.Target,
		SourceBalance: args.SourceBalance,
		TargetBalance: args.TargetBalance,
	})
	if err != nil {
		s.logger.Warn("MCP add_channel failed", "err", err)
		return domain.Channel{}, fmt.Errorf("add channel failed: %w", err)
	}
	return ch, nil
}

func (s *Server) handleRemoveChannel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, err := request.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	target, err := request.RequireString("target")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.engine.RemoveChannel(ctx, source, target); err != nil {
		s.logger.Warn("MCP remove_channel failed", "err", err)
		return mcp.NewToolResultError(fmt.Sprintf("remove channel failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("channel %s->%s closed", source, target)), nil
}

func (s *Server) handleMoveBeads(ctx context.Context, request mcp.CallToolRequest, args MoveBeadsArgs) (TransferResult, error) {
	// The transfer must outlive the tool call unless the caller waits for it.
	t, err := s.engine.MoveBeads(context.WithoutCancel(ctx), args.Source, args.Target, args.Count)
	if err != nil {
		s.logger.Warn("MCP move_beads failed", "err", err)
		return TransferResult{}, fmt.Errorf("move beads failed: %w", err)
	}
	res := TransferResult{ID: t.ID, ChannelID: t.ChannelID, Indices: t.Indices}
	if args.Wait {
		if err := t.Wait(ctx); err != nil {
			return TransferResult{}, fmt.Errorf("transfer %s failed: %w", t.ID, err)
		}
		res.Completed = true
	}
	return res, nil
}

func (s *Server) handleNextStep(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (StepResult, error) {
	label, err := s.engine.NextStep(context.WithoutCancel(ctx))
	if errors.Is(err, domain.ErrPresentationEnded) || errors.Is(err, domain.ErrNotInPresentationMode) {
		return StepResult{}, err
	}
	res := StepResult{Label: label}
	if err != nil {
		res.Error = err.Error()
	}
	return res, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(NetworkURI, "Current Network",
		mcp.WithResourceDescription("Nodes and channels of the bead network"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.engine.Snapshot())
		if err != nil {
			return nil, fmt.Errorf("failed to encode network: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      NetworkURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
