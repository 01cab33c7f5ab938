package server

import (
	"errors"
	"io"
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/jonathan/resume-template/internal/conformance"
	"github.com/jonathan/resume-template/internal/db"
	"github.com/jonathan/resume-template/internal/schemas"
	"github.com/jonathan/resume-template/internal/server/middleware"
	"github.com/jonathan/resume-template/internal/template"
	"github.com/jonathan/resume-template/internal/types"
)

// requestUser returns the authenticated caller. The auth middleware
// guarantees it on protected routes.
func requestUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return uuid.Nil, false
	}
	return userID, true
}

func pathID(w http.ResponseWriter, r *http.Request, resource string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid "+resource+" ID")
		return uuid.Nil, false
	}
	return id, true
}

// readBody reads at most maxBodyBytes of the request body.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		} else {
			writeError(w, http.StatusBadRequest, "failed to read request body")
		}
		return nil, false
	}
	return body, true
}

// loadTemplate fetches the template named by the path for the caller.
// Templates owned by someone else are reported as not found.
func (s *Server) loadTemplate(w http.ResponseWriter, r *http.Request) (*db.Template, bool) {
	userID, ok := requestUser(w, r)
	if !ok {
		return nil, false
	}
	id, ok := pathID(w, r, "template")
	if !ok {
		return nil, false
	}
	t, err := s.store.GetTemplate(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return nil, false
	}
	if t == nil || t.UserID != userID {
		s.fail(w, &ErrNotFound{Resource: "template", ID: id})
		return nil, false
	}
	return t, true
}

// decodeTemplateRequest parses and lints a create or update body.
func (s *Server) decodeTemplateRequest(w http.ResponseWriter, r *http.Request) (*types.TemplateRequest, bool) {
	body, ok := readBody(w, r)
	if !ok {
		return nil, false
	}
	var req types.TemplateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return nil, false
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, extractValidationErrors(err))
		return nil, false
	}
	if err := template.Lint(req.Schema); err != nil {
		var lintErr *template.LintError
		if errors.As(err, &lintErr) {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":  "template is not valid",
				"issues": lintErr.Issues,
			})
			return nil, false
		}
		s.fail(w, err)
		return nil, false
	}
	return &req, true
}

func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUser(w, r)
	if !ok {
		return
	}
	req, ok := s.decodeTemplateRequest(w, r)
	if !ok {
		return
	}

	t := &db.Template{UserID: userID, Name: req.Name, Schema: req.Schema}
	if err := s.store.CreateTemplate(r.Context(), t); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUser(w, r)
	if !ok {
		return
	}
	list, err := s.store.ListTemplates(r.Context(), userID)
	if err != nil {
		s.fail(w, err)
		return
	}
	if list == nil {
		list = []db.Template{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"templates": list, "count": len(list)})
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	t, ok := s.loadTemplate(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	t, ok := s.loadTemplate(w, r)
	if !ok {
		return
	}
	req, ok := s.decodeTemplateRequest(w, r)
	if !ok {
		return
	}

	t.Name = req.Name
	t.Schema = req.Schema
	if err := s.store.UpdateTemplate(r.Context(), t); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	t, ok := s.loadTemplate(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteTemplate(r.Context(), t.ID); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleTemplateJSONSchema exports the template as a JSON Schema document.
func (s *Server) handleTemplateJSONSchema(w http.ResponseWriter, r *http.Request) {
	t, ok := s.loadTemplate(w, r)
	if !ok {
		return
	}
	data, err := schemas.MarshalJSONSchema(t.Schema)
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/schema+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleCheckDocument checks the request body against the template without
// storing anything. A non-conforming document is a normal 200 result.
func (s *Server) handleCheckDocument(w http.ResponseWriter, r *http.Request) {
	t, ok := s.loadTemplate(w, r)
	if !ok {
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	doc, err := conformance.Decode(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	issues := conformance.Check(t.Schema, doc, s.checkOptions)
	if issues == nil {
		issues = conformance.Issues{}
	}
	writeJSON(w, http.StatusOK, types.CheckResponse{Conforms: len(issues) == 0, Issues: issues})
}

// handleLintTemplate reports structural problems in a template body. Bodies
// that do not parse are reported the same way as lint failures.
func (s *Server) handleLintTemplate(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	resp := types.LintResponse{Issues: []template.LintIssue{}}
	sch, err := template.ParseJSON(body)
	if err != nil {
		var decodeErr *template.DecodeError
		if !errors.As(err, &decodeErr) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		resp.Issues = append(resp.Issues, template.LintIssue{Path: decodeErr.Path, Message: decodeErr.Message})
		writeJSON(w, http.StatusOK, resp)
		return
	}

	if err := template.Lint(sch); err != nil {
		var lintErr *template.LintError
		if !errors.As(err, &lintErr) {
			s.fail(w, err)
			return
		}
		resp.Issues = lintErr.Issues
		writeJSON(w, http.StatusOK, resp)
		return
	}

	resp.Valid = true
	resp.Outline = template.Outline(sch)
	writeJSON(w, http.StatusOK, resp)
}
