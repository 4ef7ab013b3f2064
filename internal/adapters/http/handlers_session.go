package httpadapter

import (
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/batikgram/internal/core/domain"
	"github.com/kirillkom/batikgram/internal/core/usecase"
)

type sessionResponse struct {
	SessionID string                 `json:"session_id"`
	CreatedAt time.Time              `json:"created_at"`
	PatternID string                 `json:"pattern_id,omitempty"`
	Image     *imageResponse         `json:"image,omitempty"`
	Fitting   domain.FittingSnapshot `json:"fitting"`
}

type imageResponse struct {
	MIMEType   string    `json:"mime_type"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Bytes      int       `json:"bytes"`
	CapturedAt time.Time `json:"captured_at"`
}

func newImageResponse(image domain.CapturedImage) *imageResponse {
	return &imageResponse{
		MIMEType:   image.MIMEType(),
		Width:      image.Width(),
		Height:     image.Height(),
		Bytes:      image.Size(),
		CapturedAt: image.CapturedAt(),
	}
}

func newSessionResponse(session *usecase.Session) sessionResponse {
	out := sessionResponse{
		SessionID: session.ID,
		CreatedAt: session.CreatedAt,
		PatternID: session.PatternID(),
		Fitting:   session.Fitting().Snapshot(),
	}
	if image, ok := session.Image(); ok {
		out.Image = newImageResponse(image)
	}
	return out
}

func (rt *Router) createSession(w http.ResponseWriter, _ *http.Request) {
	session := rt.svc.Sessions.Create()
	rt.reportSessions()
	writeJSON(w, http.StatusCreated, newSessionResponse(session))
}

func (rt *Router) getSession(w http.ResponseWriter, r *http.Request) {
	session, ok := rt.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(session))
}

func (rt *Router) closeSession(w http.ResponseWriter, r *http.Request) {
	if err := rt.svc.Sessions.Close(r.PathValue("session_id")); err != nil {
		writeError(w, r, err)
		return
	}
	rt.reportSessions()
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) startCamera(w http.ResponseWriter, r *http.Request) {
	session, ok := rt.session(w, r)
	if !ok {
		return
	}
	if err := rt.svc.Capture.Start(r.Context(), session); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "streaming"})
}

func (rt *Router) stopCamera(w http.ResponseWriter, r *http.Request) {
	session, ok := rt.session(w, r)
	if !ok {
		return
	}
	if err := rt.svc.Capture.Stop(session); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// putCapture stores a browser-frozen frame when the body carries one and
// otherwise freezes a frame from the session's camera.
func (rt *Router) putCapture(w http.ResponseWriter, r *http.Request) {
	session, ok := rt.session(w, r)
	if !ok {
		return
	}

	var req struct {
		Image string `json:"image"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	var (
		image domain.CapturedImage
		err   error
	)
	if strings.TrimSpace(req.Image) != "" {
		image, err = rt.svc.Capture.Upload(r.Context(), session, req.Image)
	} else {
		image, err = rt.svc.Capture.Capture(r.Context(), session)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newImageResponse(image))
}

func (rt *Router) deleteCapture(w http.ResponseWriter, r *http.Request) {
	session, ok := rt.session(w, r)
	if !ok {
		return
	}
	rt.svc.Capture.Retake(session)
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) selectPattern(w http.ResponseWriter, r *http.Request) {
	session, ok := rt.session(w, r)
	if !ok {
		return
	}

	var req struct {
		PatternID string `json:"pattern_id"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.PatternID) == "" {
		writeBadRequest(w, r, "pattern_id is required")
		return
	}

	pattern, err := rt.svc.Catalog.Find(r.Context(), req.PatternID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := rt.svc.Sessions.SelectPattern(r.Context(), session, pattern); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pattern)
}
