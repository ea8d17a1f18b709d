package webui

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"edgecam/bridge"
	"edgecam/metrics"
	"edgecam/pipeline"
	"edgecam/stream"
)

// maxControlBody caps control request bodies.
const maxControlBody = 1 << 10

// StatsResponse is the /api/stats payload.
type StatsResponse struct {
	metrics.Snapshot
	UptimeHuman string                `json:"uptime_human"`
	Filter      string                `json:"filter"`
	Bridge      bridge.Stats          `json:"bridge"`
	Stream      stream.Stats          `json:"stream"`
	Controls    pipeline.ControlState `json:"controls"`
}

// processingRequest sets processing explicitly; an empty body toggles.
type processingRequest struct {
	Enabled *bool `json:"enabled"`
}

// effectRequest selects an effect; an empty body cycles.
type effectRequest struct {
	Effect string `json:"effect"`
}

// errorResponse is the JSON body of API errors.
type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.metrics.Snapshot(0).System
	code := http.StatusOK
	if status.Health == metrics.HealthStopped {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]string{
		"status":  status.Health,
		"version": status.Version,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	snap := s.metrics.Snapshot(s.config.RecentFrames)
	resp := StatsResponse{
		Snapshot:    snap,
		UptimeHuman: FormatDuration(snap.System.Uptime.Truncate(time.Second)),
		Controls:    s.controls.State(),
	}
	if s.bridge != nil {
		resp.Filter = s.bridge.FilterName()
		resp.Bridge = s.bridge.Stats()
	}
	if s.hub != nil {
		resp.Stream = s.hub.Stats()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleProcessing(w http.ResponseWriter, r *http.Request) {
	var req processingRequest
	if err := decodeOptional(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	var state pipeline.ControlState
	if req.Enabled == nil {
		state = s.controls.ToggleProcessing()
	} else {
		state = s.controls.SetProcessing(*req.Enabled)
	}
	s.logger.Info("processing switched", zap.Bool("processing", state.Processing))
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleEffect(w http.ResponseWriter, r *http.Request) {
	var req effectRequest
	if err := decodeOptional(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	var state pipeline.ControlState
	if req.Effect == "" {
		state = s.controls.CycleEffect()
	} else {
		effect, err := pipeline.ParseEffect(req.Effect)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		state = s.controls.SetEffect(effect)
	}
	s.logger.Info("effect switched", zap.String("effect", string(state.Effect)))
	writeJSON(w, http.StatusOK, state)
}

// decodeOptional decodes a JSON body into v, leaving v untouched when the
// body is empty.
func decodeOptional(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxControlBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return errors.New("invalid JSON body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
