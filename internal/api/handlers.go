package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/sells-group/dashboard-engine/internal/dashboard"
	"github.com/sells-group/dashboard-engine/internal/period"
)

// Error codes returned in failed responses.
const (
	CodeNotFound      = "NOT_FOUND"
	CodeBadRequest    = "BAD_REQUEST"
	CodeInvalidRange  = "INVALID_RANGE"
	CodeUnknownPeriod = "UNKNOWN_PERIOD"
	CodeUnknownFilter = "UNKNOWN_FILTER"
)

// response mirrors the backend envelope so the presentation layer reads both
// the same way.
type response struct {
	Success bool   `json:"success"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, resp response) {
	data, err := json.Marshal(resp)
	if err != nil {
		zap.L().Error("marshal response", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		zap.L().Debug("write response", zap.Error(err))
	}
}

func respondData(w http.ResponseWriter, status int, data any) {
	respondJSON(w, status, response{Success: true, Data: data})
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, response{Success: false, Code: code, Message: message})
}

// periodRequest is the body of POST /pages/{page}/period.
type periodRequest struct {
	Period  string            `json:"periode"`
	Start   string            `json:"date_debut"`
	End     string            `json:"date_fin"`
	Filters map[string]string `json:"filters"`
}

type pageSummary struct {
	Name     string   `json:"name"`
	Title    string   `json:"title"`
	Endpoint string   `json:"endpoint"`
	Filters  []string `json:"filters"`
}

// Health reports liveness, uptime and circuit states.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	body := map[string]any{
		"status":  "ok",
		"uptime":  time.Since(h.started).Round(time.Second).String(),
		"catalog": h.opts.CatalogSource,
		"pages":   len(h.board.Names()),
	}
	if h.opts.Breakers != nil {
		body["breakers"] = h.opts.Breakers()
	}
	respondData(w, http.StatusOK, body)
}

// ListPages lists the page definitions.
func (h *Handler) ListPages(w http.ResponseWriter, _ *http.Request) {
	out := make([]pageSummary, 0, len(h.board.Names()))
	for _, name := range h.board.Names() {
		p, _ := h.board.Page(name)
		def := p.Def()
		filters := def.Filters
		if filters == nil {
			filters = []string{}
		}
		out = append(out, pageSummary{Name: def.Name, Title: def.Title, Endpoint: def.Endpoint, Filters: filters})
	}
	respondData(w, http.StatusOK, out)
}

// GetPage returns the current view of a page.
func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
	p, ok := h.page(w, r)
	if !ok {
		return
	}
	respondData(w, http.StatusOK, p.View())
}

// SelectPeriod changes the page's period and filters. The fetch runs in the
// background and the pending view is returned with 202, unless ?sync=true.
// With no body the period may be given as backend query parameters.
func (h *Handler) SelectPeriod(w http.ResponseWriter, r *http.Request) {
	p, ok := h.page(w, r)
	if !ok {
		return
	}

	var req periodRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body")
		return
	}

	sel := dashboard.Selection{Start: req.Start, End: req.End, Filters: req.Filters}
	switch {
	case req.Period != "":
		key, err := period.ParseKey(req.Period)
		if err != nil {
			respondError(w, http.StatusBadRequest, CodeUnknownPeriod, "unknown period "+strconv.Quote(req.Period))
			return
		}
		sel.Key = key
	case req.Start != "" || req.End != "":
		// Dates without a period describe a custom range.
		sel.Key = period.Custom
	case r.URL.Query().Has(period.ParamPeriod):
		q, err := period.ParseQuery(r.URL.Query())
		if err != nil {
			respondSelectError(w, err)
			return
		}
		sel.Key = q.Key()
		if start, end, ok := q.Range(); ok {
			sel.Start, sel.End = start.Format(period.DateLayout), end.Format(period.DateLayout)
		}
	}

	t, err := p.Select(sel)
	if err != nil {
		respondSelectError(w, err)
		return
	}

	if syncRequested(r) {
		respondData(w, http.StatusOK, p.Load(r.Context(), t))
		return
	}
	p.Go(t)
	respondData(w, http.StatusAccepted, p.View())
}

// Retry repeats the page's current request.
func (h *Handler) Retry(w http.ResponseWriter, r *http.Request) {
	p, ok := h.page(w, r)
	if !ok {
		return
	}
	t := p.Retry()
	if syncRequested(r) {
		respondData(w, http.StatusOK, p.Load(r.Context(), t))
		return
	}
	p.Go(t)
	respondData(w, http.StatusAccepted, p.View())
}

// DismissFailure clears the page's failure message.
func (h *Handler) DismissFailure(w http.ResponseWriter, r *http.Request) {
	p, ok := h.page(w, r)
	if !ok {
		return
	}
	respondData(w, http.StatusOK, p.DismissFailure())
}

// respondSelectError maps a period or filter rejection to its error code.
func respondSelectError(w http.ResponseWriter, err error) {
	var ire *period.InvalidRangeError
	switch {
	case errors.As(err, &ire):
		respondError(w, http.StatusBadRequest, CodeInvalidRange, ire.Error())
	case errors.Is(err, dashboard.ErrUnknownFilter):
		respondError(w, http.StatusBadRequest, CodeUnknownFilter, err.Error())
	default:
		respondError(w, http.StatusBadRequest, CodeUnknownPeriod, err.Error())
	}
}

func (h *Handler) page(w http.ResponseWriter, r *http.Request) (*dashboard.Page, bool) {
	name := chi.URLParam(r, "page")
	p, ok := h.board.Page(name)
	if !ok {
		respondError(w, http.StatusNotFound, CodeNotFound, "unknown page "+strconv.Quote(name))
		return nil, false
	}
	return p, true
}

func syncRequested(r *http.Request) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get("sync"))
	return v
}
