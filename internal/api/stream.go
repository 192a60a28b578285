package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type heartbeatData struct {
	Instance string `json:"instance"`
	TS       string `json:"ts"`
}

// EventsHandler streams lifecycle events of one instance as server-sent
// events, with a heartbeat while idle.
func (s *Server) EventsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	instance := r.URL.Query().Get("instance")
	if instance == "" {
		writeProblem(w, http.StatusBadRequest, "instance required", "", r.URL.Path)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeProblem(w, http.StatusInternalServerError, "Streaming unsupported", "", r.URL.Path)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := s.Broker.Subscribe(instance)
	defer s.Broker.Unsubscribe(instance, ch)

	heartbeat := func() {
		b, err := json.Marshal(heartbeatData{Instance: instance, TS: time.Now().UTC().Format(time.RFC3339)})
		if err != nil {
			return
		}
		fmt.Fprintf(w, "event: heartbeat\n")
		fmt.Fprintf(w, "data: %s\n\n", b)
		flusher.Flush()
	}
	heartbeat()
	every := s.Heartbeat
	if every <= 0 {
		every = 15 * time.Second
	}
	tick := time.NewTicker(every)
	defer tick.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			b, err := json.Marshal(evt)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\n", evt.Type)
			fmt.Fprintf(w, "data: %s\n\n", b)
			flusher.Flush()
		case <-tick.C:
			heartbeat()
		}
	}
}
