package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/bookcontrol/internal/pathstore"
)

// handleListChapters lists the stored chapters of a book.
func (s *Server) handleListChapters(w http.ResponseWriter, r *http.Request) {
	book := chi.URLParam(r, "book")
	chapters, err := s.chapters.ListChapters(r.Context(), book)
	if err != nil {
		jsonError(w, "failed to list chapters: "+err.Error(), http.StatusBadGateway)
		return
	}
	if chapters == nil {
		chapters = []pathstore.ChapterMeta{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"book":     book,
		"chapters": chapters,
	})
}

// handleGetChapter returns one stored chapter with its scenes.
func (s *Server) handleGetChapter(w http.ResponseWriter, r *http.Request) {
	book := chi.URLParam(r, "book")
	id := chi.URLParam(r, "chapterID")
	ch, err := s.chapters.GetChapter(r.Context(), book, id)
	if err != nil {
		jsonError(w, "failed to read chapter: "+err.Error(), http.StatusBadGateway)
		return
	}
	if ch == nil {
		jsonError(w, "chapter not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, ch)
}

// handleDeleteChapter deletes a chapter and all of its scenes.
func (s *Server) handleDeleteChapter(w http.ResponseWriter, r *http.Request) {
	book := chi.URLParam(r, "book")
	id := chi.URLParam(r, "chapterID")
	if err := s.chapters.DeleteChapter(r.Context(), book, id); err != nil {
		jsonError(w, "failed to delete chapter: "+err.Error(), http.StatusBadGateway)
		return
	}
	s.log.Info("chapter deleted", "book", book, "chapter", id)
	writeJSON(w, http.StatusOK, map[string]any{
		"book":    book,
		"deleted": id,
	})
}
