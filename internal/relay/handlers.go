package relay

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/noatdk/yt-stream-discord-sync/internal/telemetry"
	"github.com/noatdk/yt-stream-discord-sync/internal/timestamp"
)

const maxBodyBytes = 1 << 20

// Server holds the handler dependencies. journal and events may be nil.
type Server struct {
	state   *State
	journal Journal
	events  Broadcaster
	logger  *zap.Logger
}

func NewServer(state *State, journal Journal, events Broadcaster, logger *zap.Logger) *Server {
	return &Server{
		state:   state,
		journal: journal,
		events:  events,
		logger:  logger,
	}
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	rec, age, err := s.state.Latest()
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "No timestamp data found"})
		return
	}

	telemetry.IncRead()

	// The warning is attached to the response copy only; stored state is
	// never mutated by a read.
	if age > StaleThreshold {
		telemetry.IncStaleRead()
		rec["warning"] = fmt.Sprintf("Data is %d seconds old", int(age.Seconds()))
		s.logger.Warn("serving stale timestamp",
			zap.String("gmt", rec.GMT()),
			zap.Duration("age", age),
		)
	}

	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var rec Record
	if err := decodeBody(r, &rec); err != nil {
		telemetry.IncPushRejected()
		s.logger.Warn("rejected push", zap.String("reason", "malformed body"), zap.Error(err))
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid JSON body"})
		return
	}

	gmt, ok := rec["gmt"].(string)
	if !ok || !timestamp.Valid(gmt) {
		telemetry.IncPushRejected()
		s.logger.Warn("rejected push", zap.String("reason", "missing or invalid gmt"))
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Missing or invalid 'gmt' field"})
		return
	}

	redirect, delivered := s.state.Update(rec)
	telemetry.IncPushAccepted()

	if s.journal != nil {
		if err := s.journal.Append(rec); err != nil {
			s.logger.Warn("journal append failed", zap.Error(err))
		}
	}
	s.broadcast("push", rec)

	resp := map[string]any{"success": true, "received": gmt}
	if delivered {
		telemetry.IncRedirectDelivered()
		resp["redirect"] = redirect
		s.logger.Info("redirect delivered", zap.String("redirect", redirect))
	}

	s.logger.Debug("push accepted", zap.String("gmt", gmt))
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRedirect(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Timestamp string `json:"timestamp"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.logger.Warn("rejected redirect", zap.String("reason", "malformed body"), zap.Error(err))
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid JSON body"})
		return
	}

	if !timestamp.Valid(body.Timestamp) {
		s.logger.Warn("rejected redirect", zap.String("reason", "missing or invalid timestamp"))
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Missing or invalid 'timestamp' field"})
		return
	}

	s.state.SetRedirect(body.Timestamp)
	telemetry.IncRedirectArmed()
	s.broadcast("redirect", map[string]any{"timestamp": body.Timestamp})

	s.logger.Info("redirect armed", zap.String("timestamp", body.Timestamp))
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "redirect": body.Timestamp})
}

func (s *Server) broadcast(event string, payload any) {
	if s.events == nil {
		return
	}
	data, err := json.Marshal(map[string]any{"event": event, "data": payload})
	if err != nil {
		return
	}
	s.events.Broadcast(data)
}

// decodeBody buffers the full request body before parsing so a request is
// never partially acted upon.
func decodeBody(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("reading body: %w", err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("parsing body: %w", err)
	}
	return nil
}

func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]any{"error": "Not found"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"Internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
