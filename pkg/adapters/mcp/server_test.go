package mcp_test

import (
	"context"
	"strings"
	"testing"

	"github.com/aretw0/beadnet"
	mcpadapter "github.com/aretw0/beadnet/pkg/adapters/mcp"
	"github.com/aretw0/beadnet/pkg/dsl"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, bn *beadnet.Beadnet) *client.Client {
	t.Helper()
	srv := mcpadapter.NewServer(bn)
	c, err := client.NewInProcessClient(srv.MCPServer())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	ctx := context.Background()
	require.NoError(t, c.Start(ctx))
	init := mcp.InitializeRequest{}
	init.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	init.Params.ClientInfo = mcp.Implementation{Name: "beadnet-test", Version: "0.0.0"}
	_, err = c.Initialize(ctx, init)
	require.NoError(t, err)
	return c
}

func call(t *testing.T, c *client.Client, name string, args map[string]any) (string, bool) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	res, err := c.CallTool(context.Background(), req)
	require.NoError(t, err)

	var sb strings.Builder
	for _, content := range res.Content {
		if text, ok := content.(mcp.TextContent); ok {
			sb.WriteString(text.Text)
		}
	}
	return sb.String(), res.IsError
}

func TestServer_Tools(t *testing.T) {
	bn, err := beadnet.New(beadnet.WithTiming(beadnet.Timing{}))
	require.NoError(t, err)
	c := newClient(t, bn)

	text, isErr := call(t, c, "add_node", map[string]any{"id": "alice", "balance": 10})
	require.False(t, isErr, text)
	assert.Contains(t, text, `"id":"alice"`)

	_, isErr = call(t, c, "add_node", map[string]any{"id": "bob", "balance": 10})
	require.False(t, isErr)

	_, isErr = call(t, c, "add_node", map[string]any{"id": "bob"})
	assert.True(t, isErr)

	text, isErr = call(t, c, "add_channel", map[string]any{
		"source": "alice", "target": "bob", "source_balance": 5, "target_balance": 2,
	})
	require.False(t, isErr, text)
	assert.Contains(t, text, `"sourceBalance":5`)

	text, isErr = call(t, c, "move_beads", map[string]any{"source": "alice", "target": "bob", "count": 3, "wait": true})
	require.False(t, isErr, text)
	assert.Contains(t, text, `"completed":true`)

	text, isErr = call(t, c, "get_network", nil)
	require.False(t, isErr, text)
	assert.Contains(t, text, `"sourceBalance":2`)
	assert.Contains(t, text, `"targetBalance":5`)

	text, isErr = call(t, c, "get_graph", nil)
	require.False(t, isErr)
	assert.Contains(t, text, `alice -- "2:5" --- bob`)

	text, isErr = call(t, c, "remove_channel", map[string]any{"source": "alice", "target": "bob"})
	require.False(t, isErr, text)
	_, isErr = call(t, c, "remove_channel", map[string]any{"source": "alice", "target": "bob"})
	assert.True(t, isErr)
	assert.Equal(t, 0, bn.ChannelCount())

	_, isErr = call(t, c, "next_step", nil)
	assert.True(t, isErr)
}

func TestServer_NextStep(t *testing.T) {
	bn, err := beadnet.New(beadnet.WithSteps(dsl.New().Step("hello").AddNode("alice", 1).Builder().Build()))
	require.NoError(t, err)
	c := newClient(t, bn)

	text, isErr := call(t, c, "next_step", nil)
	require.False(t, isErr, text)
	assert.Contains(t, text, `"label":"hello"`)

	_, isErr = call(t, c, "next_step", nil)
	assert.True(t, isErr)
}

func TestServer_NetworkResource(t *testing.T) {
	bn, err := beadnet.New()
	require.NoError(t, err)
	c := newClient(t, bn)
	_, isErr := call(t, c, "add_node", map[string]any{"id": "carol", "balance": 4})
	require.False(t, isErr)

	req := mcp.ReadResourceRequest{}
	req.Params.URI = mcpadapter.NetworkURI
	res, err := c.ReadResource(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	text, ok := res.Contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, "application/json", text.MIMEType)
	assert.Contains(t, text.Text, `"id":"carol"`)
}
