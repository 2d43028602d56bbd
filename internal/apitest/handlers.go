package apitest

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (s *Server) listSuggestions(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	items := make([]map[string]any, len(s.suggestions))
	copy(items, s.suggestions)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"data": items})
}

func (s *Server) suggestionStats(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	total := len(s.suggestions)
	counts := map[string]int{}
	for _, item := range s.suggestions {
		if st, ok := item["status"].(string); ok {
			counts[st]++
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"total":     total,
		"new":       counts["new"],
		"saved":     counts["saved"],
		"contacted": counts["contacted"],
	}})
}

func (s *Server) suggestionAction(status string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, item := range s.suggestions {
			itemID, _ := item["id"].(string)
			if itemID == id {
				if status == "ignored" {
					s.suggestions = append(s.suggestions[:i], s.suggestions[i+1:]...)
				} else {
					item["status"] = status
				}
				writeJSON(w, http.StatusOK, map[string]any{"id": id, "status": status})
				return
			}
		}
		writeError(w, http.StatusNotFound, "suggestion not found")
	}
}

func (s *Server) listConversations(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	ids := make([]map[string]any, 0, len(s.messages))
	for id := range s.messages {
		ids = append(ids, map[string]any{"id": id, "title": "Conversation " + id})
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"data": ids})
}

func (s *Server) createConversation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	id := uuid.Must(uuid.NewV7()).String()
	s.mu.Lock()
	s.messages[id] = nil
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "title": req.Title})
}

func (s *Server) listMessages(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	msgs := make([]map[string]any, len(s.messages[id]))
	copy(msgs, s.messages[id])
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"data": msgs})
}

func (s *Server) sendMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req struct {
		Content string `json:"content"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	msg := map[string]any{
		"id":         uuid.Must(uuid.NewV7()).String(),
		"role":       "user",
		"content":    req.Content,
		"status":     "pending",
		"created_at": time.Now().UTC().Format(time.RFC3339),
	}
	s.mu.Lock()
	s.messages[id] = append(s.messages[id], msg)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, msg)
}

func (s *Server) messageUpdates(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	queued := s.updates[id]
	delete(s.updates, id)
	status := s.updateState[id]
	if status == "" {
		status = "pending"
	}
	if len(queued) > 0 {
		s.messages[id] = append(s.messages[id], queued...)
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"data": queued, "status": status})
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	profile := make(map[string]any, len(s.profile))
	for k, v := range s.profile {
		profile[k] = v
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"data": profile})
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req map[string]any
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.mu.Lock()
	for k, v := range req {
		if str, ok := v.(string); ok && str != "" {
			s.profile[k] = v
		}
	}
	profile := make(map[string]any, len(s.profile))
	for k, v := range s.profile {
		profile[k] = v
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"data": profile})
}

func (s *Server) profileCompletion(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	fields := []string{"name", "sector", "description", "address", "website", "email", "phone", "avatar_url"}
	filled := 0
	missing := []string{}
	for _, f := range fields {
		if v, ok := s.profile[f].(string); ok && v != "" {
			filled++
		} else {
			missing = append(missing, f)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"percent":        filled * 100 / len(fields),
		"missing_fields": missing,
	}})
}

func (s *Server) uploadAvatar(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	file, header, err := r.FormFile("avatar")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "missing avatar file")
		return
	}
	file.Close()

	url := "/media/" + header.Filename
	s.mu.Lock()
	s.profile["avatar_url"] = url
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"avatar_url": url})
}

func (s *Server) deleteAvatar(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.profile["avatar_url"] = ""
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) adminCompanies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"data": []map[string]any{
			{"id": "co-1", "name": "Atelier Circulaire", "status": "actif", "sector": "textile"},
			{"id": "co-2", "name": "Verrerie Lyon", "status": "en attente", "sector": "verre"},
		},
		"meta": map[string]any{"page": 1, "per_page": 20, "total": 2},
	})
}

func (s *Server) adminMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"data": []map[string]any{
		{"key": "companies", "label": "Entreprises", "value": 42},
		{"key": "active_rate", "label": "Taux actif", "value": 31, "rate": 0.74},
	}})
}

func (s *Server) uploadImport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	if _, _, err := r.FormFile("file"); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "missing import file")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"file_id": uuid.New().String()})
}

func (s *Server) analyzeImport(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"file_id": chi.URLParam(r, "fileID"),
		"counts":  map[string]any{"rows": 10, "imported": 9, "productions": 4, "wastes": 3, "needs": 2},
		"errors":  []string{},
		"warnings": []string{
			"ligne 7: unité inconnue",
		},
	}})
}

func (s *Server) syncImport(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"synced": true})
}

func (s *Server) importHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"data": []map[string]any{
		{"id": "imp-1", "filename": "flux.xlsx", "status": "done", "created_at": "2026-02-10T08:00:00Z"},
	}})
}

func (s *Server) importSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"productions": 12, "wastes": 7, "needs": 5,
	}})
}

func (s *Server) importTemplate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="modele-import.csv"`)
	w.Write([]byte("type;nom;quantite;unite\n"))
}
