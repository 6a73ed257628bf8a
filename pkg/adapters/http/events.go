package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/aretw0/beadnet/pkg/domain"
)

// eventBuffer is the per-client queue; slow clients lose events beyond it.
const eventBuffer = 64

// SubscribeEvents handles the GET /events request (SSE).
// The optional watch query parameter is a comma-separated list of event
// families (node, channel, transfer, bead, step, network) to forward.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	var watchList []string
	if watch := r.URL.Query().Get("watch"); watch != "" {
		for _, field := range strings.Split(watch, ",") {
			watchList = append(watchList, strings.TrimSpace(field))
		}
	}

	events, cancel := s.engine.Subscribe(eventBuffer)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	s.logger.Info("SSE: client subscribed", "watch", watchList)
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: client disconnected")
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			typ := e.Base().Type
			if !watched(watchList, typ) {
				continue
			}
			payload, err := json.Marshal(e)
			if err != nil {
				s.logger.Error("SSE: event encode failed", "type", typ, "err", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", typ, payload)
			flusher.Flush()
		}
	}
}

func watched(watchList []string, typ domain.EventType) bool {
	if len(watchList) == 0 {
		return true
	}
	for _, family := range watchList {
		if family != "" && strings.HasPrefix(string(typ), family+"_") {
			return true
		}
	}
	return false
}
