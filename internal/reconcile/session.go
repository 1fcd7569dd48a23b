package reconcile

import (
	"maps"
	"net/url"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/sells-group/dashboard-engine/internal/model"
	"github.com/sells-group/dashboard-engine/internal/period"
)

// Fallback provides catalog entries. Implementations return copies.
type Fallback interface {
	Entry(page string, key period.Key) (model.Dataset, bool)
}

// Request is what a page asks the backend for: a period plus page filters.
type Request struct {
	Query   period.Query
	Filters map[string]string
}

// NewRequest copies filters, dropping blank values.
func NewRequest(q period.Query, filters map[string]string) Request {
	r := Request{Query: q, Filters: make(map[string]string, len(filters))}
	for k, v := range filters {
		if strings.TrimSpace(v) != "" {
			r.Filters[k] = v
		}
	}
	return r
}

// Params returns the backend query parameters of the request.
func (r Request) Params() url.Values {
	v := r.Query.Params()
	for k, f := range r.Filters {
		v.Set(k, f)
	}
	return v
}

// Equal reports whether two requests ask for the same data.
func (r Request) Equal(o Request) bool {
	return r.Query.Equal(o.Query) && maps.Equal(r.Filters, o.Filters)
}

func (r Request) String() string {
	if len(r.Filters) == 0 {
		return r.Query.String()
	}
	keys := make([]string, 0, len(r.Filters))
	for k := range r.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(r.Query.String())
	for _, k := range keys {
		b.WriteString(" " + k + "=" + r.Filters[k])
	}
	return b.String()
}

// Ticket tags an issued request with its generation.
type Ticket struct {
	Request    Request
	Generation uint64
}

// Session holds the reconciled view of one page. Issue and Apply may be called
// from different goroutines.
type Session struct {
	page     string
	fallback Fallback

	mu       sync.Mutex
	current  Ticket
	resolved Resolved
}

// NewSession creates a session showing the fallback for the initial request.
// The initial request is issued as generation 1.
func NewSession(page string, fallback Fallback, initial Request) *Session {
	s := &Session{page: page, fallback: fallback}
	s.Issue(initial)
	return s
}

// Page returns the page name.
func (s *Session) Page() string { return s.page }

func (s *Session) entry(key period.Key) model.Dataset {
	if s.fallback == nil {
		return model.Empty()
	}
	ds, ok := s.fallback.Entry(s.page, key)
	if !ok {
		return model.Empty()
	}
	return ds
}

// Issue records req as the latest request and supersedes every earlier
// ticket. The view switches to its pending state.
func (s *Session) Issue(req Request) Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()

	var prev *Resolved
	if s.current.Generation > 0 {
		p := s.resolved
		prev = &p
	}
	s.current = Ticket{Request: NewRequest(req.Query, req.Filters), Generation: s.current.Generation + 1}
	s.resolved = Reconcile(req.Query, s.entry(req.Query.Key()), prev, nil)
	return s.current
}

// Reissue tags the current request again, for an explicit retry.
func (s *Session) Reissue() Ticket {
	s.mu.Lock()
	req := s.current.Request
	s.mu.Unlock()
	return s.Issue(req)
}

// Current returns the latest ticket.
func (s *Session) Current() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Apply reconciles result for ticket t. Results for superseded tickets are
// discarded and reported with applied=false.
func (s *Session) Apply(t Ticket, result Result) (view Resolved, applied bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.Generation != s.current.Generation {
		zap.L().Debug("discarding stale result",
			zap.String("page", s.page),
			zap.Uint64("generation", t.Generation),
			zap.Uint64("current", s.current.Generation),
		)
		return s.resolved.Clone(), false
	}

	prev := s.resolved
	q := s.current.Request.Query
	s.resolved = Reconcile(q, s.entry(q.Key()), &prev, &result)
	return s.resolved.Clone(), true
}

// Snapshot returns a deep copy of the current view.
func (s *Session) Snapshot() Resolved {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolved.Clone()
}

// DismissFailure clears the failure message without touching the dataset.
func (s *Session) DismissFailure() Resolved {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolved.Failure = ""
	return s.resolved.Clone()
}
