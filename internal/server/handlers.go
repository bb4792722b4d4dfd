package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/dataveil/dataveil/internal/scan"
)

type textRequest struct {
	Identity string `json:"identity"`
	Text     string `json:"text"`
}

type inspectResponse struct {
	Allowed   bool          `json:"allowed"`
	Text      string        `json:"text"`
	Sensitive bool          `json:"sensitive_found"`
	Matches   scan.MatchSet `json:"matches"`
}

// handleScan scans submitted text and reports what was found
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeTextRequest(w, r)
	if !ok {
		return
	}

	result := s.engine.ScanText(r.Context(), req.Identity, req.Text)
	writeJSON(w, http.StatusOK, result)
}

// handleAnonymize scans submitted text and returns it with detected
// literals replaced, subject to the identity's auto-anonymize setting
func (s *Server) handleAnonymize(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeTextRequest(w, r)
	if !ok {
		return
	}

	result := s.anonymizer.Anonymize(r.Context(), req.Identity, req.Text)
	writeJSON(w, http.StatusOK, result)
}

// handleInspect applies the configured security mode to submitted text.
// Passthrough skips scanning entirely; log scans and always allows; block
// rejects sensitive content with 422.
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeTextRequest(w, r)
	if !ok {
		return
	}

	if s.cfg.Security.Mode == "passthrough" {
		writeJSON(w, http.StatusOK, inspectResponse{Allowed: true, Text: req.Text})
		return
	}

	result := s.anonymizer.Anonymize(r.Context(), req.Identity, req.Text)
	if result.Sensitive && s.cfg.Security.Mode == "block" {
		s.engine.RecordEvent(r.Context(), req.Identity, scan.ActionBlock, result.Matches, "")
		s.logger.WithRequestID(getRequestID(r.Context())).WithIdentity(req.Identity).Warn("Blocked sensitive content",
			zap.Strings("patterns", result.Matches.Names()),
		)
		writeJSON(w, http.StatusUnprocessableEntity, inspectResponse{
			Allowed:   false,
			Text:      "",
			Sensitive: true,
			Matches:   result.Matches,
		})
		return
	}

	writeJSON(w, http.StatusOK, inspectResponse{
		Allowed:   true,
		Text:      result.Text,
		Sensitive: result.Sensitive,
		Matches:   result.Matches,
	})
}

// handleScanFile scans an uploaded file. The multipart form carries the
// file under "file" and the identity under "identity"; the extractor is
// picked from the part's Content-Type, falling back to the file extension.
func (s *Server) handleScanFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(s.cfg.Server.MaxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	identity := r.FormValue("identity")
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	fileType := header.Header.Get("Content-Type")
	if fileType == "" || fileType == "application/octet-stream" {
		fileType = filepath.Ext(header.Filename)
	}

	// The scanner works from a path so the chunked strategy can stat and
	// reopen the file; stage the upload in a temp file.
	tmp, err := os.CreateTemp("", "dataveil-upload-*")
	if err != nil {
		s.logger.Error("Failed to stage upload", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to stage upload")
		return
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := io.Copy(tmp, file); err != nil {
		s.logger.Error("Failed to stage upload", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to stage upload")
		return
	}

	result := s.files.ScanFile(r.Context(), identity, tmp.Name(), header.Filename, fileType)
	writeJSON(w, http.StatusOK, result)
}

// handleEvents lists recent detection events, optionally filtered by the
// identity query parameter
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		writeError(w, http.StatusServiceUnavailable, "audit store not configured")
		return
	}

	identity := r.URL.Query().Get("identity")
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 1000 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 1000")
			return
		}
		limit = parsed
	}

	events, err := s.events.Recent(r.Context(), identity, limit)
	if err != nil {
		s.logger.Error("Failed to list detection events", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"count":  len(events),
	})
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"healthy","timestamp":"%s"}`, time.Now().Format(time.RFC3339))
}

// handleInfo handles info requests
func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":            "dataveil",
		"version":         Version,
		"security_mode":   s.cfg.Security.Mode,
		"settings_source": s.cfg.Settings.Source,
		"min_confidence":  s.cfg.Scanner.MinConfidence,
		"uptime":          time.Since(s.startTime).Round(time.Second).String(),
	})
}

// decodeTextRequest parses and validates the common text-request body
func (s *Server) decodeTextRequest(w http.ResponseWriter, r *http.Request) (textRequest, bool) {
	var req textRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return req, false
	}
	if req.Identity == "" {
		writeError(w, http.StatusBadRequest, "identity is required")
		return req, false
	}
	return req, true
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
