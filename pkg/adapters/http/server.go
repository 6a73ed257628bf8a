// Package http exposes a Beadnet over a JSON/HTTP API with a Server-Sent Events stream.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/beadnet"
	"github.com/aretw0/beadnet/internal/logging"
	"github.com/aretw0/beadnet/internal/presentation/graph"
	"github.com/aretw0/beadnet/pkg/adapters/memory"
	"github.com/aretw0/beadnet/pkg/domain"
	"github.com/aretw0/beadnet/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Engine is the part of a Beadnet the server drives.
type Engine interface {
	Snapshot() domain.Snapshot
	AddNode(ctx context.Context, spec domain.NodeSpec) (domain.Node, error)
	UpdateNode(ctx context.Context, id string, update domain.NodeUpdate) (domain.Node, error)
	RemoveNode(ctx context.Context, id string) error
	AddChannel(ctx context.Context, spec domain.ChannelSpec) (domain.Channel, error)
	RemoveChannel(ctx context.Context, sourceID, targetID string) error
	ChangeChannelSourceBalance(ctx context.Context, sourceID, targetID string, amount int) (domain.Channel, error)
	ChangeChannelTargetBalance(ctx context.Context, sourceID, targetID string, amount int) (domain.Channel, error)
	HighlightChannel(ctx context.Context, sourceID, targetID string, state *bool) error
	MoveBeads(ctx context.Context, sourceID, targetID string, count int, opts ...beadnet.TransferOption) (*beadnet.Transfer, error)
	Transfers() []*beadnet.Transfer
	NextStep(ctx context.Context) (string, error)
	SaveSnapshot(ctx context.Context, store ports.SnapshotStore, name string) error
	RestoreSnapshot(ctx context.Context, store ports.SnapshotStore, name string) error
	Subscribe(buffer int) (<-chan domain.Event, func())
}

var _ Engine = (*beadnet.Beadnet)(nil)

// snapshotLockTTL bounds how long a crashed replica can hold a snapshot name.
const snapshotLockTTL = 10 * time.Second

// Server serves one Engine.
type Server struct {
	engine  Engine
	store   ports.SnapshotStore
	locker  ports.DistributedLocker
	logger  *slog.Logger
	metrics http.Handler
}

// Option configures the Server.
type Option func(*Server)

// WithStore sets where snapshots are kept. Defaults to an in-memory store.
func WithStore(store ports.SnapshotStore) Option {
	return func(s *Server) {
		s.store = store
	}
}

// WithLocker sets the lock guarding snapshot writes. Defaults to an in-process locker.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(s *Server) {
		s.locker = locker
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithGatherer serves /metrics from the given gatherer instead of the default registry.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = promhttp.HandlerFor(g, promhttp.HandlerOpts{})
	}
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	s := &Server{
		engine:  engine,
		store:   memory.NewStore(),
		locker:  memory.NewLocker(),
		logger:  logging.NewNop(),
		metrics: promhttp.Handler(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/network", s.GetNetwork)
	r.Get("/graph", s.GetGraph)
	r.Get("/events", s.SubscribeEvents)
	r.Method(http.MethodGet, "/metrics", s.metrics)

	r.Post("/nodes", s.AddNode)
	r.Patch("/nodes/{id}", s.UpdateNode)
	r.Delete("/nodes/{id}", s.RemoveNode)

	r.Post("/channels", s.AddChannel)
	r.Delete("/channels/{source}/{target}", s.RemoveChannel)
	r.Post("/channels/{source}/{target}/balance", s.ChangeBalance)
	r.Post("/channels/{source}/{target}/highlight", s.Highlight)

	r.Get("/transfers", s.ListTransfers)
	r.Post("/transfers", s.MoveBeads)

	r.Post("/presentation/next", s.NextStep)

	r.Get("/snapshots", s.ListSnapshots)
	r.Post("/snapshots/{name}", s.SaveSnapshot)
	r.Put("/snapshots/{name}", s.RestoreSnapshot)
	r.Delete("/snapshots/{name}", s.DeleteSnapshot)

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "beadnet-http",
		"version": strings.TrimSpace(beadnet.Version),
	})
}

// GetNetwork handles the GET /network request.
func (s *Server) GetNetwork(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.engine.Snapshot())
}

// GetGraph handles the GET /graph request and answers with a Mermaid flowchart.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	overlay := &graph.GraphOverlay{InFlight: make(map[string]int)}
	for _, t := range s.engine.Transfers() {
		overlay.InFlight[t.ChannelID] += t.Pending()
	}
	w.Header().Set("Content-Type", "text/vnd.mermaid; charset=utf-8")
	if _, err := io.WriteString(w, graph.GenerateMermaid(s.engine.Snapshot(), overlay)); err != nil {
		s.logger.Error("GetGraph write failed", "err", err)
	}
}

// AddNode handles the POST /nodes request.
func (s *Server) AddNode(w http.ResponseWriter, r *http.Request) {
	var spec domain.NodeSpec
	if !s.decode(w, r, &spec) {
		return
	}
	node, err := s.engine.AddNode(r.Context(), spec)
	if err != nil {
		s.writeError(w, "AddNode", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, node)
}

// UpdateNode handles the PATCH /nodes/{id} request.
func (s *Server) UpdateNode(w http.ResponseWriter, r *http.Request) {
	var update domain.NodeUpdate
	if !s.decode(w, r, &update) {
		return
	}
	node, err := s.engine.UpdateNode(r.Context(), chi.URLParam(r, "id"), update)
	if err != nil {
		s.writeError(w, "UpdateNode", err)
		return
	}
	s.writeJSON(w, http.StatusOK, node)
}

// RemoveNode handles the DELETE /nodes/{id} request.
func (s *Server) RemoveNode(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.RemoveNode(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, "RemoveNode", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddChannel handles the POST /channels request.
func (s *Server) AddChannel(w http.ResponseWriter, r *http.Request) {
	var spec domain.ChannelSpec
	if !s.decode(w, r, &spec) {
		return
	}
	ch, err := s.engine.AddChannel(r.Context(), spec)
	if err != nil {
		s.writeError(w, "AddChannel", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, ch)
}

// RemoveChannel handles the DELETE /channels/{source}/{target} request.
func (s *Server) RemoveChannel(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.RemoveChannel(r.Context(), chi.URLParam(r, "source"), chi.URLParam(r, "target")); err != nil {
		s.writeError(w, "RemoveChannel", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BalanceRequest is the body of POST /channels/{source}/{target}/balance.
type BalanceRequest struct {
	// Side is "source" or "target".
	Side   string `json:"side"`
	Amount int    `json:"amount"`
}

// ChangeBalance handles the POST /channels/{source}/{target}/balance request.
func (s *Server) ChangeBalance(w http.ResponseWriter, r *http.Request) {
	var body BalanceRequest
	if !s.decode(w, r, &body) {
		return
	}
	source, target := chi.URLParam(r, "source"), chi.URLParam(r, "target")

	var (
		ch  domain.Channel
		err error
	)
	switch body.Side {
	case "source":
		ch, err = s.engine.ChangeChannelSourceBalance(r.Context(), source, target, body.Amount)
	case "target":
		ch, err = s.engine.ChangeChannelTargetBalance(r.Context(), source, target, body.Amount)
	default:
		err = fmt.Errorf("side %q: %w", body.Side, domain.ErrInvalidArgument)
	}
	if err != nil {
		s.writeError(w, "ChangeBalance", err)
		return
	}
	s.writeJSON(w, http.StatusOK, ch)
}

// HighlightRequest is the body of POST /channels/{source}/{target}/highlight.
// A missing state toggles the highlight.
type HighlightRequest struct {
	State *bool `json:"state,omitempty"`
}

// Highlight handles the POST /channels/{source}/{target}/highlight request.
func (s *Server) Highlight(w http.ResponseWriter, r *http.Request) {
	var body HighlightRequest
	if !s.decode(w, r, &body) {
		return
	}
	if err := s.engine.HighlightChannel(r.Context(), chi.URLParam(r, "source"), chi.URLParam(r, "target"), body.State); err != nil {
		s.writeError(w, "Highlight", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TransferRequest is the body of POST /transfers.
type TransferRequest struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Count  int    `json:"count"`
}

// TransferResponse describes a transfer in flight.
type TransferResponse struct {
	ID        string `json:"id"`
	ChannelID string `json:"channelId"`
	From      string `json:"from"`
	To        string `json:"to"`
	Count     int    `json:"count"`
	Indices   []int  `json:"indices"`
	Pending   int    `json:"pending"`
}

func transferResponse(t *beadnet.Transfer) TransferResponse {
	return TransferResponse{
		ID:        t.ID,
		ChannelID: t.ChannelID,
		From:      t.From,
		To:        t.To,
		Count:     t.Count,
		Indices:   t.Indices,
		Pending:   t.Pending(),
	}
}

// MoveBeads handles the POST /transfers request.
// The transfer outlives the request; its progress is reported on /events.
func (s *Server) MoveBeads(w http.ResponseWriter, r *http.Request) {
	var body TransferRequest
	if !s.decode(w, r, &body) {
		return
	}
	t, err := s.engine.MoveBeads(context.WithoutCancel(r.Context()), body.Source, body.Target, body.Count)
	if err != nil {
		s.writeError(w, "MoveBeads", err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, transferResponse(t))
}

// ListTransfers handles the GET /transfers request.
func (s *Server) ListTransfers(w http.ResponseWriter, r *http.Request) {
	transfers := s.engine.Transfers()
	resp := make([]TransferResponse, 0, len(transfers))
	for _, t := range transfers {
		resp = append(resp, transferResponse(t))
	}
	sort.Slice(resp, func(i, j int) bool { return resp[i].ID < resp[j].ID })
	s.writeJSON(w, http.StatusOK, resp)
}

// NextStep handles the POST /presentation/next request.
func (s *Server) NextStep(w http.ResponseWriter, r *http.Request) {
	label, err := s.engine.NextStep(context.WithoutCancel(r.Context()))
	if errors.Is(err, domain.ErrPresentationEnded) || errors.Is(err, domain.ErrNotInPresentationMode) {
		s.writeError(w, "NextStep", err)
		return
	}
	resp := map[string]string{"label": label}
	if err != nil {
		s.logger.Warn("NextStep: step played with errors", "label", label, "err", err)
		resp["error"] = err.Error()
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// ListSnapshots handles the GET /snapshots request.
func (s *Server) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	names, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, "ListSnapshots", err)
		return
	}
	s.writeJSON(w, http.StatusOK, names)
}

// SaveSnapshot handles the POST /snapshots/{name} request.
func (s *Server) SaveSnapshot(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	err := s.withLock(r.Context(), name, func(ctx context.Context) error {
		return s.engine.SaveSnapshot(ctx, s.store, name)
	})
	if err != nil {
		s.writeError(w, "SaveSnapshot", err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// RestoreSnapshot handles the PUT /snapshots/{name} request.
func (s *Server) RestoreSnapshot(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	err := s.withLock(r.Context(), name, func(ctx context.Context) error {
		return s.engine.RestoreSnapshot(ctx, s.store, name)
	})
	if err != nil {
		s.writeError(w, "RestoreSnapshot", err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.engine.Snapshot())
}

// DeleteSnapshot handles the DELETE /snapshots/{name} request.
func (s *Server) DeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	err := s.withLock(r.Context(), name, func(ctx context.Context) error {
		return s.store.Delete(ctx, name)
	})
	if err != nil {
		s.writeError(w, "DeleteSnapshot", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) withLock(ctx context.Context, name string, fn func(context.Context) error) error {
	unlock, err := s.locker.Lock(ctx, "snapshot:"+name, snapshotLockTTL)
	if err != nil {
		return fmt.Errorf("failed to lock snapshot %q: %w", name, err)
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("failed to unlock snapshot", "name", name, "err", err)
		}
	}()
	return fn(ctx)
}

// -- Helpers --

// decode reads an optional JSON body. An empty body leaves v untouched.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	s.logger.Warn("Invalid request body", "path", r.URL.Path, "err", err)
	s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	return false
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, op string, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(op+" failed", "err", err)
	} else {
		s.logger.Warn(op+" rejected", "status", status, "err", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

// StatusFor maps a domain error to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrSnapshotNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInvalidChannel):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrDuplicateNode),
		errors.Is(err, domain.ErrDuplicateChannel),
		errors.Is(err, domain.ErrPresentationEnded),
		errors.Is(err, domain.ErrNotInPresentationMode):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
