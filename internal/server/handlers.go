package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/shapestone/shape-csvchunk/internal/config"
	"github.com/shapestone/shape-csvchunk/internal/ingest"
	"github.com/shapestone/shape-csvchunk/internal/logging"
	"github.com/shapestone/shape-csvchunk/internal/store"
	"github.com/shapestone/shape-csvchunk/pkg/csv"
)

// sniffSampleBytes is how much of a body /v1/sniff looks at.
const sniffSampleBytes = 64 << 10

// ErrorResponse is the JSON body of every error.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// TokenResponse is one token returned by /v1/tokenize.
type TokenResponse struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

var errNoStore = errors.New("documents are not persisted (store driver is none)")

// paramError reports a query parameter whose value cannot be parsed.
type paramError struct {
	name  string
	value string
}

func (e *paramError) Error() string {
	return fmt.Sprintf("invalid query parameter %s=%q", e.name, e.value)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok", "format": csv.Format()})
}

// handleParse parses the request body. Parser options come from the query
// string (see optionsFromQuery); format=csv returns the records re-rendered
// instead of JSON.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	opts, err := optionsFromQuery(r, s.svc.Options())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	dryRun, _, err := queryBool(r, "dryRun")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	req := ingest.Request{
		Source:   "api",
		Reader:   r.Body,
		Options:  &opts,
		MaxBytes: s.cfg.MaxBodyBytes,
		DryRun:   dryRun,
	}
	hasHeaders, set, err := queryBool(r, "hasHeaders")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if set {
		req.HasHeaders = &hasHeaders
	}
	if src := r.URL.Query().Get("source"); src != "" {
		req.Source = src
	}

	doc, err := s.svc.Do(r.Context(), req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		cfg, _ := csv.NewConfig(opts)
		s.respondCSV(w, r, doc, csv.WriterOptionsFor(cfg))
		return
	}
	respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleTokenize(w http.ResponseWriter, r *http.Request) {
	opts, err := optionsFromQuery(r, s.svc.Options())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	tokens, err := csv.Tokenize(string(body), opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	resp := make([]TokenResponse, 0, len(tokens))
	for _, tok := range tokens {
		resp = append(resp, TokenResponse{Kind: tok.Kind(), Value: tok.ValueString()})
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSniff(w http.ResponseWriter, r *http.Request) {
	sample, err := io.ReadAll(io.LimitReader(r.Body, sniffSampleBytes))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, csv.Sniff(string(sample)))
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	st := s.svc.Store()
	if st == nil {
		s.respondError(w, r, errNoStore)
		return
	}
	var limit int
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.respondError(w, r, &paramError{name: "limit", value: v})
			return
		}
		limit = n
	}
	list, err := st.List(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	st := s.svc.Store()
	if st == nil {
		s.respondError(w, r, errNoStore)
		return
	}
	doc, err := st.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if r.URL.Query().Get("format") == "csv" {
		s.respondCSV(w, r, doc, csv.DefaultWriterOptions())
		return
	}
	respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	st := s.svc.Store()
	if st == nil {
		s.respondError(w, r, errNoStore)
		return
	}
	id := chi.URLParam(r, "id")
	if err := st.Delete(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	logging.WithFields(r.Context(), "document_id", id).Info("document deleted")
	w.WriteHeader(http.StatusNoContent)
}

// optionsFromQuery overlays query parameters on base. List parameters may
// repeat; every value accepts the \n, \r, \t escapes.
//
//	?fieldSeparators=%3B&fieldSeparators=%5Ct&skipEmptyLinesWhen=blank
func optionsFromQuery(r *http.Request, base csv.Options) (csv.Options, error) {
	q := r.URL.Query()
	raw := map[string]any{
		"fieldDelimiter":        base.FieldDelimiter,
		"fieldSeparators":       base.FieldSeparators,
		"lineSeparators":        base.LineSeparators,
		"smartRegex":            base.SmartRegex,
		"skipEmptyLinesWhen":    base.SkipEmptyLinesWhen,
		"skipLinesWithWarnings": base.SkipLinesWithWarnings,
	}
	if v, ok := q["fieldDelimiter"]; ok && len(v) > 0 {
		raw["fieldDelimiter"] = config.Unescape(v[0])
	}
	for _, key := range []string{"fieldSeparators", "lineSeparators"} {
		if values, ok := q[key]; ok {
			list := make([]string, len(values))
			for i, v := range values {
				list[i] = config.Unescape(v)
			}
			raw[key] = list
		}
	}
	for _, key := range []string{"smartRegex", "skipLinesWithWarnings"} {
		b, set, err := queryBool(r, key)
		if err != nil {
			return csv.Options{}, err
		}
		if set {
			raw[key] = b
		}
	}
	if v := q.Get("skipEmptyLinesWhen"); v != "" {
		raw["skipEmptyLinesWhen"] = v
	}

	opts, err := csv.ParseOptions(raw)
	if err != nil {
		return csv.Options{}, err
	}
	if _, err := csv.NewConfig(opts); err != nil {
		return csv.Options{}, err
	}
	return opts, nil
}

// queryBool parses a boolean query parameter. set is false when the
// parameter is absent or empty.
func queryBool(r *http.Request, key string) (value, set bool, err error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return false, false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false, &paramError{name: key, value: v}
	}
	return b, true, nil
}

func (s *Server) respondCSV(w http.ResponseWriter, r *http.Request, doc *store.Document, opts csv.WriterOptions) {
	records := doc.Records
	if doc.Headers != nil {
		records = append([][]string{doc.Headers}, records...)
	}
	out, err := csv.RenderRecords(records, opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("X-Document-Id", doc.ID)
	w.Header().Set("X-Warning-Count", strconv.Itoa(len(doc.Warnings)))
	w.WriteHeader(http.StatusOK)
	w.Write(out)
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// respondError maps err to a status code, logs it and writes an
// ErrorResponse.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)

	log := logging.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error("request error", "path", r.URL.Path, "status", status, "error", err)
	} else {
		log.Debug("request rejected", "path", r.URL.Path, "status", status, "error", err)
	}

	respondJSON(w, status, ErrorResponse{
		Error:     err.Error(),
		Code:      code,
		RequestID: middleware.GetReqID(r.Context()),
	})
}

func classify(err error) (int, string) {
	var (
		maxBytes *http.MaxBytesError
		param    *paramError
	)
	switch {
	case errors.Is(err, csv.ErrInvalidConfig):
		return http.StatusBadRequest, "invalid_options"
	case errors.As(err, &param):
		return http.StatusBadRequest, "invalid_parameter"
	case errors.Is(err, csv.ErrUnrepresentable):
		return http.StatusUnprocessableEntity, "unrepresentable"
	case errors.Is(err, ingest.ErrTooLarge), errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge, "too_large"
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, errNoStore):
		return http.StatusNotImplemented, "no_store"
	case errors.Is(err, context.Canceled):
		return 499, "cancelled"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
