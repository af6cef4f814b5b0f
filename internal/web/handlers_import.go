package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	neturl "net/url"
	"strconv"
	"strings"

	"github.com/Stas2664/x2-backend/internal/core"
	"github.com/Stas2664/x2-backend/internal/logging"
	"github.com/Stas2664/x2-backend/internal/source"
)

// multipartMemory is the part of a multipart upload kept in memory; the
// rest spills to temporary files.
const multipartMemory = 32 << 20

// importResponse is the body of a successful import.
type importResponse struct {
	Success bool `json:"success"`
	*core.ImportSummary
}

// sheetImportRequest is the body of POST /api/import/sheet.
type sheetImportRequest struct {
	URL             string `json:"url"`
	ReplaceExisting bool   `json:"replaceExisting"`
}

// handleImportCSV imports an uploaded CSV or workbook. The body is either
// raw CSV text or a multipart form with a "file" field.
func (s *Server) handleImportCSV(w http.ResponseWriter, r *http.Request) {
	replace, err := parseBoolParam(r, "replace")
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Import.MaxBodySize)

	src, err := s.uploadSource(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, r, fmt.Errorf("%w: upload exceeds %d bytes", core.ErrUnsupportedSource, tooLarge.Limit), http.StatusRequestEntityTooLarge)
			return
		}
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	s.runImport(w, r, src, replace)
}

// handleImportSheet imports a spreadsheet share link. Without a url in the
// body the configured sheet is used.
func (s *Server) handleImportSheet(w http.ResponseWriter, r *http.Request) {
	var req sheetImportRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 64*1024)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.respondError(w, r, fmt.Errorf("%w: invalid request body: %v", core.ErrUnsupportedSource, err), http.StatusBadRequest)
		return
	}

	url := strings.TrimSpace(req.URL)
	if url == "" {
		url = s.cfg.Import.SheetURL
	} else if !s.sheetHostAllowed(url) {
		s.respondError(w, r, fmt.Errorf("%w: sheet host is not allowed", core.ErrUnsupportedSource), http.StatusBadRequest)
		return
	}

	src, err := source.NewSheetSource(url, s.sheetOptions(r))
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	s.runImport(w, r, src, req.ReplaceExisting)
}

// sheetHostAllowed reports whether a request-supplied sheet URL points at
// the configured sheet host or an allowed host. Comparison ignores case and
// port.
func (s *Server) sheetHostAllowed(raw string) bool {
	u, err := neturl.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())

	allowed := s.cfg.Import.AllowedHosts
	if configured, err := neturl.Parse(s.cfg.Import.SheetURL); err == nil && configured.Hostname() != "" {
		allowed = append([]string{configured.Hostname()}, allowed...)
	}
	for _, h := range allowed {
		if strings.EqualFold(strings.TrimSpace(h), host) {
			return true
		}
	}
	return false
}

func (s *Server) runImport(w http.ResponseWriter, r *http.Request, src core.Source, replace bool) {
	log := logging.WithFields(r.Context(), "source", src.Describe(), "replace", replace)
	log.Info("import requested")

	summary, err := s.service.Import(r.Context(), src, core.ImportOptions{ReplaceExisting: replace})
	if err != nil {
		s.respondError(w, r, err, importStatus(err))
		return
	}

	writeJSON(w, http.StatusOK, importResponse{Success: true, ImportSummary: summary})
}

// handleFeedStats returns counts and averages over the public feeds.
func (s *Server) handleFeedStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.Stats(r.Context())
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleHealth reports liveness and whether an import is running.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":           "ok",
		"importInProgress": s.service.Limiter().Busy(),
	})
}

// uploadSource reads the request body into a source.
func (s *Server) uploadSource(r *http.Request) (core.Source, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, err
		}
		return source.NewTextSource("upload", data), nil
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, err
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("%w: no file provided", core.ErrUnsupportedSource)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	return source.ForUpload(header.Filename, data)
}

func (s *Server) sheetOptions(r *http.Request) source.SheetOptions {
	return source.SheetOptions{
		Timeout:      s.cfg.Import.FetchTimeout,
		Retries:      s.cfg.Import.FetchRetries,
		MaxRedirects: s.cfg.Import.MaxRedirects,
		MaxBodySize:  s.cfg.Import.MaxBodySize,
		Rate:         s.cfg.Import.FetchRate,
		Logger:       logging.FromContext(r.Context()),
	}
}

// parseBoolParam reads an optional boolean query parameter.
func parseBoolParam(r *http.Request, name string) (bool, error) {
	val := r.URL.Query().Get(name)
	if val == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("%w: invalid %s=%q", core.ErrUnsupportedSource, name, val)
	}
	return b, nil
}
