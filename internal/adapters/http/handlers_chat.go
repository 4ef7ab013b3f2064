package httpadapter

import (
	"net/http"

	"github.com/kirillkom/batikgram/internal/core/domain"
)

type chatRequest struct {
	Text      string `json:"text"`
	PatternID string `json:"pattern_id"`
}

type patternsResponse struct {
	Patterns []domain.PatternDescriptor `json:"patterns"`
	Error    string                     `json:"error,omitempty"`
}

// listPatterns always answers with a patterns array; on a catalog failure it
// is empty and the error is surfaced next to it.
func (rt *Router) listPatterns(w http.ResponseWriter, r *http.Request) {
	patterns, err := rt.svc.Catalog.Search(r.Context(), r.URL.Query().Get("search"))
	if patterns == nil {
		patterns = []domain.PatternDescriptor{}
	}
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), patternsResponse{Patterns: patterns, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, patternsResponse{Patterns: patterns})
}

func (rt *Router) getPattern(w http.ResponseWriter, r *http.Request) {
	pattern, err := rt.svc.Catalog.Find(r.Context(), r.PathValue("pattern_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pattern)
}

func (rt *Router) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	reply, source, err := rt.svc.Chat.Respond(r.Context(), req.Text, req.PatternID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply, "source": string(source)})
}

func (rt *Router) sendChat(w http.ResponseWriter, r *http.Request) {
	session, ok := rt.session(w, r)
	if !ok {
		return
	}
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	messages, err := rt.svc.Chat.Send(r.Context(), session, req.Text, req.PatternID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

func (rt *Router) getTranscript(w http.ResponseWriter, r *http.Request) {
	session, ok := rt.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": session.Transcript()})
}
