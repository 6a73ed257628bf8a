package http_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/beadnet"
	httpadapter "github.com/aretw0/beadnet/pkg/adapters/http"
	"github.com/aretw0/beadnet/pkg/domain"
	"github.com/aretw0/beadnet/pkg/dsl"
	"github.com/aretw0/beadnet/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T, opts ...beadnet.Option) *beadnet.Beadnet {
	t.Helper()
	bn, err := beadnet.New(append([]beadnet.Option{beadnet.WithTiming(beadnet.Timing{})}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(bn.CancelTransfers)
	return bn
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("node x: %w", domain.ErrNotFound), http.StatusNotFound},
		{domain.ErrSnapshotNotFound, http.StatusNotFound},
		{domain.ErrInvalidArgument, http.StatusBadRequest},
		{domain.ErrInvalidChannel, http.StatusBadRequest},
		{domain.ErrInsufficientFunds, http.StatusConflict},
		{domain.ErrDuplicateNode, http.StatusConflict},
		{domain.ErrDuplicateChannel, http.StatusConflict},
		{domain.ErrPresentationEnded, http.StatusConflict},
		{domain.ErrNotInPresentationMode, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, httpadapter.StatusFor(tt.err), tt.err.Error())
	}
}

func TestServer_Info(t *testing.T) {
	h := httpadapter.NewHandler(newEngine(t))

	w := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/info", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), strings.TrimSpace(beadnet.Version))

	w = do(t, h, http.MethodOptions, "/nodes", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_NodesAndChannels(t *testing.T) {
	bn := newEngine(t)
	h := httpadapter.NewHandler(bn)

	assert.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/nodes", `{"id":"alice","balance":10}`).Code)
	assert.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/nodes", `{"id":"bob","balance":10}`).Code)
	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodPost, "/nodes", `{"id":"bob"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/nodes", `{"id":`).Code)

	w := do(t, h, http.MethodPatch, "/nodes/bob", `{"color":"#123"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"color":"#123"`)

	w = do(t, h, http.MethodPost, "/channels", `{"source":"alice","target":"bob","sourceBalance":5,"targetBalance":3}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var ch domain.Channel
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ch))
	assert.Equal(t, 8, ch.Capacity())
	assert.Len(t, ch.Beads, 8)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/channels", `{"source":"alice","target":"alice","sourceBalance":1}`).Code)
	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodPost, "/channels", `{"source":"bob","target":"alice","sourceBalance":1}`).Code)

	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodPost, "/channels/alice/bob/balance", `{"side":"target","amount":100}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/channels/alice/bob/balance", `{"side":"middle","amount":1}`).Code)
	w = do(t, h, http.MethodPost, "/channels/alice/bob/balance", `{"side":"source","amount":1}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"sourceBalance":6`)

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodPost, "/channels/alice/bob/highlight", "").Code)
	w = do(t, h, http.MethodGet, "/graph", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `alice -- "6:3" --- bob`)
	assert.Contains(t, w.Body.String(), "linkStyle 0")

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodPost, "/channels/alice/bob/highlight", `{"state":false}`).Code)
	assert.False(t, bn.Snapshot().Channels[0].Highlighted)

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/channels/alice/bob", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, "/channels/alice/bob", "").Code)
	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/nodes/bob", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, "/nodes/bob", "").Code)

	w = do(t, h, http.MethodGet, "/network", "")
	require.Equal(t, http.StatusOK, w.Code)
	var snapshot domain.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snapshot))
	require.Len(t, snapshot.Nodes, 1)
	assert.Equal(t, 10, snapshot.Nodes[0].Balance)
}

func TestServer_Transfers(t *testing.T) {
	bn := newEngine(t)
	h := httpadapter.NewHandler(bn)
	ctx := context.Background()

	_, err := bn.AddNodes(ctx, []domain.NodeSpec{{ID: "alice", Balance: domain.Int(10)}, {ID: "bob", Balance: domain.Int(10)}})
	require.NoError(t, err)
	_, err = bn.AddChannel(ctx, domain.ChannelSpec{Source: "alice", Target: "bob", SourceBalance: 5, TargetBalance: 2})
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/transfers", `{"source":"alice","target":"bob","count":0}`).Code)
	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodPost, "/transfers", `{"source":"alice","target":"bob","count":6}`).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/transfers", `{"source":"alice","target":"carol","count":1}`).Code)

	w := do(t, h, http.MethodPost, "/transfers", `{"source":"alice","target":"bob","count":3}`)
	require.Equal(t, http.StatusAccepted, w.Code)
	var resp httpadapter.TransferResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, []int{4, 3, 2}, resp.Indices)

	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, bn.WaitTransfers(waitCtx))

	ch := bn.Snapshot().Channels[0]
	assert.Equal(t, 2, ch.SourceBalance)
	assert.Equal(t, 5, ch.TargetBalance)

	w = do(t, h, http.MethodGet, "/transfers", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestServer_Presentation(t *testing.T) {
	h := httpadapter.NewHandler(newEngine(t))
	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodPost, "/presentation/next", "").Code)

	steps := dsl.New().
		Step("one").AddNode("alice", 1).
		Step("two").RemoveNode("nobody").
		Builder().Build()
	h = httpadapter.NewHandler(newEngine(t, beadnet.WithSteps(steps)))

	w := do(t, h, http.MethodPost, "/presentation/next", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"label":"one"}`, w.Body.String())

	w = do(t, h, http.MethodPost, "/presentation/next", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"error"`)

	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodPost, "/presentation/next", "").Code)
}

func TestServer_Snapshots(t *testing.T) {
	bn := newEngine(t)
	h := httpadapter.NewHandler(bn)
	_, err := bn.AddNode(context.Background(), domain.NodeSpec{ID: "alice", Balance: domain.Int(3)})
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/snapshots/first", "").Code)
	require.NoError(t, bn.RemoveNode(context.Background(), "alice"))

	w := do(t, h, http.MethodPut, "/snapshots/first", "")
	require.Equal(t, http.StatusOK, w.Code)
	_, ok := bn.Node("alice")
	assert.True(t, ok)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPut, "/snapshots/missing", "").Code)

	w = do(t, h, http.MethodGet, "/snapshots", "")
	assert.JSONEq(t, `["first"]`, w.Body.String())

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/snapshots/first", "").Code)
	w = do(t, h, http.MethodGet, "/snapshots", "")
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestServer_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := observability.NewMetrics(reg)
	require.NoError(t, err)
	bn := newEngine(t, beadnet.WithLifecycleHooks(metrics.Hooks()))
	h := httpadapter.NewHandler(bn, httpadapter.WithGatherer(reg))

	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/nodes", `{"id":"alice"}`).Code)

	w := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `beadnet_node_events_total{type="node_added"} 1`)
}

func TestServer_SubscribeEvents(t *testing.T) {
	bn := newEngine(t)
	srv := httptest.NewServer(httpadapter.NewHandler(bn))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events?watch=node", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	require.True(t, lines.Scan())
	assert.Equal(t, "event: ping", lines.Text())

	_, err = bn.AddNode(ctx, domain.NodeSpec{ID: "alice"})
	require.NoError(t, err)

	var got []string
	for lines.Scan() {
		if line := lines.Text(); line != "" {
			got = append(got, line)
		}
		if len(got) == 3 {
			break
		}
	}
	require.Len(t, got, 3)
	assert.Equal(t, "data: connected", got[0])
	assert.Equal(t, "event: node_added", got[1])
	assert.Contains(t, got[2], `"id":"alice"`)
}
