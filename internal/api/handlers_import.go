package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/bookcontrol/internal/parser"
	"github.com/dgallion1/bookcontrol/internal/pipeline"
	"github.com/dgallion1/bookcontrol/internal/segment"
)

type upload struct {
	book     string
	filename string
	data     []byte
}

// readUpload reads the multipart "file" field. It writes the error response
// itself and returns nil on failure.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) *upload {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return nil
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return nil
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusUnsupportedMediaType)
		return nil
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return nil
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return nil
	}

	return &upload{
		book:     strings.TrimSpace(r.FormValue("book")),
		filename: filename,
		data:     data,
	}
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	up := s.readUpload(w, r)
	if up == nil {
		return
	}
	if up.book == "" {
		jsonError(w, "book is required", http.StatusBadRequest)
		return
	}

	job := pipeline.NewJob(up.book, up.filename, up.data)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   job.ID,
		"book":     job.Book,
		"status":   pipeline.StatusQueued,
		"poll_url": fmt.Sprintf("/api/import/%s/status", job.ID),
	})
}

func (s *Server) handleImportStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

func (s *Server) handleImportChapter(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	ch, stamp := job.Chapter()
	if ch == nil {
		snap := job.Snapshot()
		if snap.Status == pipeline.StatusFailed {
			jsonError(w, "import failed in "+snap.Phase, http.StatusUnprocessableEntity)
			return
		}
		jsonError(w, "chapter not ready: "+string(snap.Status), http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"job_id":  job.ID,
		"chapter": ch,
		"stamp":   stamp,
	})
}

// handleImportPreview parses and segments an upload synchronously without
// storing it. The "policy" form value selects the segmentation policy.
func (s *Server) handleImportPreview(w http.ResponseWriter, r *http.Request) {
	up := s.readUpload(w, r)
	if up == nil {
		return
	}
	policy := s.cfg.SegmentPolicy
	if v := r.FormValue("policy"); v != "" {
		p, err := segment.ParsePolicy(v)
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		policy = p
	}

	doc, err := parser.ParseBytes(up.data, up.filename)
	if err != nil {
		importError(w, err)
		return
	}
	ch, err := segment.SegmentDocument(doc, policy)
	if err != nil {
		importError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ch)
}

// importError maps extraction and segmentation failures to status codes.
func importError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, parser.ErrUnsupportedFormat):
		jsonError(w, err.Error(), http.StatusUnsupportedMediaType)
	case errors.Is(err, parser.ErrCorruptArchive), errors.Is(err, segment.ErrEmptyDocument):
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, parser.ErrNotAFile):
		jsonError(w, err.Error(), http.StatusBadRequest)
	default:
		jsonError(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
