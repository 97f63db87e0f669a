package api

import (
	"net/http"

	"github.com/codewithboateng/jinspect/internal/messages"
	"github.com/codewithboateng/jinspect/internal/rules"
)

type ruleMeta struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Summary     string `json:"summary"`
	Severity    string `json:"severity"`
	HasFix      bool   `json:"has_fix"`
}

func (s *Server) meta(r rules.Rule) ruleMeta {
	msgs := s.Messages
	if msgs == nil {
		msgs = messages.MustLoad(messages.DefaultLocale)
	}
	return ruleMeta{
		ID:          r.ID,
		DisplayName: msgs.Format(r.DisplayKey),
		Summary:     r.Summary,
		Severity:    r.Severity,
		HasFix:      r.Fix != nil,
	}
}

// GET /api/v1/rules
func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	var out []ruleMeta
	for _, rr := range rules.List() {
		out = append(out, s.meta(rr))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out, "count": len(out)})
}

// GET /api/v1/rules/{id}
func (s *Server) handleRule(w http.ResponseWriter, r *http.Request) {
	rr, ok := rules.Get(r.PathValue("id"))
	if !ok {
		s.err(w, http.StatusNotFound, "rule not found")
		return
	}
	writeJSON(w, http.StatusOK, s.meta(rr))
}
