package server

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/paceline/paceline/pkg/content"
	"github.com/paceline/paceline/pkg/state"
	"github.com/paceline/paceline/pkg/types"
	"github.com/paceline/paceline/pkg/workflow"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type pacingSnapshot struct {
	DelayMs  int64  `json:"delay_ms"`
	JitterMs int64  `json:"jitter_ms"`
	NextAt   string `json:"next_at,omitempty"`
	Idle     bool   `json:"idle"`
}

// handlePacing reports the pacer cursor. The value is advisory, another
// reservation may move it before the response is read.
func (s *Server) handlePacing(w http.ResponseWriter, _ *http.Request) {
	next := s.pacer.NextAt()
	snap := pacingSnapshot{
		DelayMs:  s.pacer.Delay().Milliseconds(),
		JitterMs: s.pacer.Jitter().Milliseconds(),
		Idle:     !next.After(time.Now()),
	}
	if !next.IsZero() {
		snap.NextAt = next.Format(time.RFC3339Nano)
	}
	writeJSON(w, http.StatusOK, snap)
}

type runRequest struct {
	Text     string `json:"text"`
	ThreadID string `json:"thread_id,omitempty"`
}

type runResponse struct {
	ThreadID string               `json:"thread_id"`
	Result   content.ContentState `json:"result"`
}

func (s *Server) handleContentRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(err, "invalid request body"))
		return
	}

	input := content.ContentState{Text: req.Text}
	if err := input.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	// A caller that resends a thread id resumes that thread from its
	// checkpoint, when the app was built with a store.
	threadID := req.ThreadID
	if threadID == "" {
		threadID = uuid.NewString()
	}

	out, err := s.pipeline.Invoke(r.Context(), input,
		workflow.WithThreadID[content.ContentState](threadID))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	_ = s.lastRun.Write(r.Context(), out, types.Config[content.ContentState]{})
	writeJSON(w, http.StatusOK, runResponse{ThreadID: threadID, Result: out})
}

func (s *Server) handleContentLast(w http.ResponseWriter, r *http.Request) {
	out, err := s.lastRun.Read(r.Context(), types.Config[content.ContentState]{})
	if err != nil {
		writeError(w, http.StatusNotFound, errors.New("no workflow run has completed yet"))
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type generateRequest struct {
	Prompt string `json:"prompt"`
}

type generateResponse struct {
	Agent string `json:"agent"`
	Reply string `json:"reply"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "agent")
	agent, ok := s.agents[name]
	if !ok {
		writeError(w, http.StatusNotFound,
			errors.Errorf("unknown agent %q (available: %s)", name, strings.Join(s.agentNames(), ", ")))
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(err, "invalid request body"))
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeError(w, http.StatusBadRequest, errors.New("prompt cannot be empty"))
		return
	}

	resp, err := agent.Execute(r.Context(), state.WithHumanMessage(req.Prompt), types.Config[state.MessagesState]{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, generateResponse{Agent: name, Reply: resp.State.LastText()})
}

func (s *Server) agentNames() []string {
	names := make([]string, 0, len(s.agents))
	for name := range s.agents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
