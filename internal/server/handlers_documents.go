package server

import (
	"bytes"
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/jonathan/resume-template/internal/conformance"
	"github.com/jonathan/resume-template/internal/db"
	"github.com/jonathan/resume-template/internal/rendering"
	"github.com/jonathan/resume-template/internal/types"
)

// loadDocument fetches the document named by the path for the caller.
func (s *Server) loadDocument(w http.ResponseWriter, r *http.Request) (*db.Document, bool) {
	userID, ok := requestUser(w, r)
	if !ok {
		return nil, false
	}
	id, ok := pathID(w, r, "document")
	if !ok {
		return nil, false
	}
	d, err := s.store.GetDocument(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return nil, false
	}
	if d == nil || d.UserID != userID {
		s.fail(w, &ErrNotFound{Resource: "document", ID: id})
		return nil, false
	}
	return d, true
}

// handleCreateDocument stores a document after checking it. Documents that
// do not conform are rejected with 422 and the full issue list.
func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	t, ok := s.loadTemplate(w, r)
	if !ok {
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	var req types.DocumentRequest
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	if err := conformance.Check(t.Schema, req.Content, s.checkOptions).Err(); err != nil {
		s.fail(w, err)
		return
	}

	d := &db.Document{
		TemplateID: t.ID,
		UserID:     t.UserID,
		Content:    req.Content.(map[string]any), // a conforming root is always an object
		SourceURL:  req.SourceURL,
	}
	if err := s.store.CreateDocument(r.Context(), d); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	t, ok := s.loadTemplate(w, r)
	if !ok {
		return
	}
	list, err := s.store.ListDocuments(r.Context(), t.ID)
	if err != nil {
		s.fail(w, err)
		return
	}
	if list == nil {
		list = []db.Document{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": list, "count": len(list)})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	d, ok := s.loadDocument(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	d, ok := s.loadDocument(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteDocument(r.Context(), d.ID); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRenderDocument renders a stored document with its template's
// field order. ?format= selects latex, html or pdf.
func (s *Server) handleRenderDocument(w http.ResponseWriter, r *http.Request) {
	d, ok := s.loadDocument(w, r)
	if !ok {
		return
	}
	t, err := s.store.GetTemplate(r.Context(), d.TemplateID)
	if err != nil {
		s.fail(w, err)
		return
	}
	if t == nil {
		s.fail(w, &ErrNotFound{Resource: "template", ID: d.TemplateID})
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = s.renderFormat
	}

	var (
		out         []byte
		contentType string
	)
	switch format {
	case "latex":
		tex, err := rendering.RenderLaTeX(t.Schema, d.Content, s.latex)
		if err != nil {
			s.fail(w, err)
			return
		}
		out, contentType = []byte(tex), "application/x-tex; charset=utf-8"
	case "html":
		html, err := rendering.RenderHTML(t.Schema, d.Content)
		if err != nil {
			s.fail(w, err)
			return
		}
		out, contentType = []byte(html), "text/html; charset=utf-8"
	case "pdf":
		html, err := rendering.RenderHTML(t.Schema, d.Content)
		if err != nil {
			s.fail(w, err)
			return
		}
		pdf, err := rendering.RenderPDF(r.Context(), html)
		if err != nil {
			s.fail(w, err)
			return
		}
		out, contentType = pdf, "application/pdf"
	default:
		writeError(w, http.StatusBadRequest, "format must be one of latex, html, pdf")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}
