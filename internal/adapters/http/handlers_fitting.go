package httpadapter

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/kirillkom/batikgram/internal/core/domain"
)

type fittingResponse struct {
	domain.FittingSnapshot
	Error string `json:"error,omitempty"`
}

// applyFitting runs one fitting attempt bound to the request. Validation
// problems and failed attempts both come back with the snapshot so the
// front-end can render the failure message next to the retry button.
func (rt *Router) applyFitting(w http.ResponseWriter, r *http.Request) {
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

	image, err := rt.svc.Capture.RequireImage(session)
	if err != nil {
		writeError(w, r, err)
		return
	}
	patternID := strings.TrimSpace(req.PatternID)
	if patternID == "" {
		patternID = session.PatternID()
	}

	snapshot, err := session.Fitting().Apply(r.Context(), image, patternID)
	rt.writeFitting(w, r, snapshot, err)
}

func (rt *Router) retryFitting(w http.ResponseWriter, r *http.Request) {
	session, ok := rt.session(w, r)
	if !ok {
		return
	}
	snapshot, err := session.Fitting().Retry(r.Context())
	rt.writeFitting(w, r, snapshot, err)
}

func (rt *Router) getFitting(w http.ResponseWriter, r *http.Request) {
	session, ok := rt.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, fittingResponse{FittingSnapshot: session.Fitting().Snapshot()})
}

func (rt *Router) writeFitting(w http.ResponseWriter, r *http.Request, snapshot domain.FittingSnapshot, err error) {
	if err == nil {
		writeJSON(w, http.StatusOK, fittingResponse{FittingSnapshot: snapshot})
		return
	}

	message := err.Error()
	switch {
	case snapshot.Failure != nil:
		message = snapshot.Failure.Message
	case snapshot.Rejection != "":
		message = snapshot.Rejection
	}
	writeJSON(w, mapErrorToHTTPStatus(err), fittingResponse{FittingSnapshot: snapshot, Error: message})
}

func (rt *Router) downloadResult(w http.ResponseWriter, r *http.Request) {
	session, ok := rt.session(w, r)
	if !ok {
		return
	}
	download, result, err := rt.svc.Results.Download(session)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", download.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(download.Data)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", download.Filename))
	if result.MethodUsed != "" {
		w.Header().Set("X-Fitting-Method", result.MethodUsed)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(download.Data)
}

func (rt *Router) saveResult(w http.ResponseWriter, r *http.Request) {
	session, ok := rt.session(w, r)
	if !ok {
		return
	}

	var req struct {
		Remote bool `json:"remote"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	artifact, err := rt.svc.Results.Export(r.Context(), session, req.Remote)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, artifact)
}
