package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/codewithboateng/jinspect/internal/rules"
	"github.com/codewithboateng/jinspect/internal/storage"
)

type waiverCreateReq struct {
	RuleID    string `json:"rule_id"`
	Unit      string `json:"unit,omitempty"`
	ClassSub  string `json:"class_sub,omitempty"`
	Reason    string `json:"reason"`
	ExpiresAt string `json:"expires_at"` // RFC3339
}

func (s *Server) handleListWaivers(w http.ResponseWriter, r *http.Request) {
	active := r.URL.Query().Get("active")
	only := active == "1" || active == "true" || active == "yes"
	ws, err := s.DB.ListWaivers(only)
	if err != nil {
		s.fail(w, err)
		return
	}
	if ws == nil {
		ws = []storage.Waiver{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": ws, "active_only": only})
}

func (s *Server) handleCreateWaiver(w http.ResponseWriter, r *http.Request) {
	var in waiverCreateReq
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.err(w, http.StatusBadRequest, "invalid json")
		return
	}
	if in.RuleID == "" || in.Reason == "" || in.ExpiresAt == "" {
		s.err(w, http.StatusBadRequest, "rule_id, reason, expires_at required")
		return
	}
	rule, ok := rules.Get(in.RuleID)
	if !ok {
		s.err(w, http.StatusBadRequest, "unknown rule_id")
		return
	}
	exp, err := time.Parse(time.RFC3339Nano, in.ExpiresAt)
	if err != nil {
		s.err(w, http.StatusBadRequest, "bad expires_at (use RFC3339)")
		return
	}
	if !exp.After(time.Now()) {
		s.err(w, http.StatusBadRequest, "expires_at must be in the future")
		return
	}
	u, _ := userFromCtx(r.Context())
	id, err := s.DB.CreateWaiver(storage.Waiver{
		RuleID:    rule.ID,
		Unit:      in.Unit,
		ClassSub:  in.ClassSub,
		Reason:    in.Reason,
		ExpiresAt: exp,
		CreatedBy: u.Username,
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	_ = s.UserStore.LogAudit(u.Username, "waiver:create", "", map[string]any{"id": id, "rule": rule.ID})
	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

func (s *Server) handleRevokeWaiver(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		s.err(w, http.StatusBadRequest, "invalid id")
		return
	}
	u, _ := userFromCtx(r.Context())
	if err := s.DB.RevokeWaiver(id); err != nil {
		s.err(w, http.StatusNotFound, "waiver not found or already revoked")
		return
	}
	_ = s.UserStore.LogAudit(u.Username, "waiver:revoke", "", map[string]any{"id": id})
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
