package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dgallion1/bookcontrol/internal/scenemd"
)

const maxSceneBytes = 1 << 20

// handleSceneParse applies the scene grammar to a raw markup body.
func (s *Server) handleSceneParse(w http.ResponseWriter, r *http.Request) {
	src, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSceneBytes))
	if err != nil {
		jsonError(w, "failed to read body: "+err.Error(), http.StatusRequestEntityTooLarge)
		return
	}

	res, err := scenemd.Parse(string(src))
	if err != nil {
		var gerr *scenemd.GrammarError
		if errors.As(err, &gerr) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error": err.Error(),
				"kind":  grammarKind(gerr.Kind),
				"index": gerr.Index,
			})
			return
		}
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type compileRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// handleSceneCompile serializes a title and content back into scene markup.
func (s *Server) handleSceneCompile(w http.ResponseWriter, r *http.Request) {
	var req compileRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSceneBytes)).Decode(&req); err != nil {
		jsonError(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	io.WriteString(w, scenemd.Compile(req.Title, req.Content))
}

// grammarKind names a grammar sentinel for API clients.
func grammarKind(err error) string {
	switch {
	case errors.Is(err, scenemd.ErrMissingTitle):
		return "missing_title"
	case errors.Is(err, scenemd.ErrWrongTitleLevel):
		return "wrong_title_level"
	case errors.Is(err, scenemd.ErrMissingBlankLineAfterTitle):
		return "missing_blank_line_after_title"
	case errors.Is(err, scenemd.ErrMultipleSplitsNotSupported):
		return "multiple_splits_not_supported"
	case errors.Is(err, scenemd.ErrUnexpectedNode):
		return "unexpected_node"
	}
	return "unknown"
}
