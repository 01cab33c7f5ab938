package server

import (
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/jonathan/resume-template/internal/conformance"
	"github.com/jonathan/resume-template/internal/db"
	"github.com/jonathan/resume-template/internal/fetch"
	"github.com/jonathan/resume-template/internal/types"
)

// handleFillTemplate asks the model to fill the template from source text
// or a profile URL. The result is returned with any issues left after
// repair and, when requested, stored as a document.
func (s *Server) handleFillTemplate(w http.ResponseWriter, r *http.Request) {
	if s.filler == nil {
		writeError(w, http.StatusServiceUnavailable, "template filling is not configured")
		return
	}
	t, ok := s.loadTemplate(w, r)
	if !ok {
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	var req types.FillRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	source := req.SourceText
	if source == "" {
		// Only remote pages; Read would otherwise open local files.
		if !fetch.IsURL(req.SourceURL) {
			writeError(w, http.StatusBadRequest, "source_url must be an http or https URL")
			return
		}
		text, err := s.fetcher.Read(r.Context(), req.SourceURL)
		if err != nil {
			s.fail(w, err)
			return
		}
		source = text
	}

	res, err := s.filler.Fill(r.Context(), t.Schema, source)
	if err != nil {
		s.fail(w, err)
		return
	}

	issues := res.Issues
	if issues == nil {
		issues = conformance.Issues{}
	}
	resp := types.FillResponse{
		Document: res.Document,
		Conforms: len(issues) == 0,
		Issues:   issues,
	}

	status := http.StatusOK
	if req.Save {
		d := &db.Document{
			TemplateID: t.ID,
			UserID:     t.UserID,
			Content:    res.Document,
			Issues:     res.Issues,
			SourceURL:  req.SourceURL,
		}
		if err := s.store.CreateDocument(r.Context(), d); err != nil {
			s.fail(w, err)
			return
		}
		resp.DocumentID = &d.ID
		status = http.StatusCreated
	}

	s.logger.Info().
		Str("template", t.ID.String()).
		Int("issues", len(issues)).
		Bool("saved", req.Save).
		Msg("filled template")
	writeJSON(w, status, resp)
}
