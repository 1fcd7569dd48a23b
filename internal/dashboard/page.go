// Package dashboard drives the per-page flow: select a period, fetch it,
// reconcile it with the catalog and derive the metrics shown to users.
package dashboard

import (
	"context"
	"maps"
	"sync"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/dashboard-engine/internal/derive"
	"github.com/sells-group/dashboard-engine/internal/metrics"
	"github.com/sells-group/dashboard-engine/internal/model"
	"github.com/sells-group/dashboard-engine/internal/period"
	"github.com/sells-group/dashboard-engine/internal/publish"
	"github.com/sells-group/dashboard-engine/internal/reconcile"
)

// ErrUnknownFilter is returned when a selection names a filter the page does
// not accept.
var ErrUnknownFilter = eris.New("dashboard: unknown filter")

// Fetcher performs one backend request for a page.
type Fetcher interface {
	Fetch(ctx context.Context, page model.PageDef, req reconcile.Request) reconcile.Result
}

// Options configures pages.
type Options struct {
	// Initial is the preset shown before any selection. Default: jour.
	Initial period.Key
	// TopN is the ranking length. Default: derive.DefaultTopN.
	TopN int
	// Sink receives every view changed by live data. Default: publish.Nop.
	Sink publish.Sink
	// Context bounds background fetches started by Go.
	Context context.Context
}

// View is the read-only snapshot handed to the presentation layer.
type View struct {
	Page       string            `json:"page"`
	Title      string            `json:"title"`
	Query      period.Query      `json:"query"`
	Source     period.Query      `json:"source"`
	Origin     reconcile.Origin  `json:"origin"`
	Pending    bool              `json:"pending"`
	Generation uint64            `json:"generation"`
	Filters    map[string]string `json:"filters"`
	Failure    string            `json:"failure,omitempty"`
	Dataset    model.Dataset     `json:"dataset"`
	Metrics    derive.Metrics    `json:"metrics"`
}

// Selection describes a period change. Filters replaces the current filters
// when non-nil.
type Selection struct {
	Key     period.Key
	Start   string
	End     string
	Filters map[string]string
}

// Page is the controller of one dashboard page.
type Page struct {
	def     model.PageDef
	fetcher Fetcher
	sink    publish.Sink
	topN    int
	ctx     context.Context

	mu       sync.Mutex
	selector *period.Selector
	filters  map[string]string
	session  *reconcile.Session
	loaded   uint64

	wg sync.WaitGroup
}

// NewPage creates a page showing the catalog entry of the initial preset.
func NewPage(def model.PageDef, fallback reconcile.Fallback, fetcher Fetcher, opts Options) *Page {
	if opts.Sink == nil {
		opts.Sink = publish.Nop{}
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	sel := period.NewSelector(opts.Initial)
	return &Page{
		def:      def,
		fetcher:  fetcher,
		sink:     opts.Sink,
		topN:     opts.TopN,
		ctx:      opts.Context,
		selector: sel,
		filters:  map[string]string{},
		session:  reconcile.NewSession(def.Name, fallback, reconcile.NewRequest(sel.Current(), nil)),
	}
}

// Name returns the page name.
func (p *Page) Name() string { return p.def.Name }

// Def returns the page definition.
func (p *Page) Def() model.PageDef { return p.def }

// Select validates sel, makes it the current request and returns its ticket.
// On error nothing changes. The view is pending until the ticket is loaded.
func (p *Page) Select(sel Selection) (reconcile.Ticket, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	filters := p.filters
	if sel.Filters != nil {
		for name := range sel.Filters {
			if !p.def.AllowsFilter(name) {
				return reconcile.Ticket{}, eris.Wrapf(ErrUnknownFilter, "%s: %q", p.def.Name, name)
			}
		}
		filters = maps.Clone(sel.Filters)
	}

	var q period.Query
	var err error
	switch {
	case sel.Key == "":
		q = p.selector.Current()
	case sel.Key == period.Custom:
		q, err = p.selector.SelectCustomRangeStrings(sel.Start, sel.End)
	default:
		q, err = p.selector.SelectPreset(sel.Key)
	}
	if err != nil {
		return reconcile.Ticket{}, err
	}

	req := reconcile.NewRequest(q, filters)
	p.filters = req.Filters
	t := p.session.Issue(req)
	zap.L().Debug("request issued",
		zap.String("page", p.def.Name),
		zap.String("request", req.String()),
		zap.Uint64("generation", t.Generation),
	)
	return t, nil
}

// Retry issues the current request again.
func (p *Page) Retry() reconcile.Ticket {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session.Reissue()
}

// Current returns the latest ticket.
func (p *Page) Current() reconcile.Ticket {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session.Current()
}

// Load fetches the ticket's request and applies the result. A result for a
// superseded ticket leaves the view unchanged.
func (p *Page) Load(ctx context.Context, t reconcile.Ticket) View {
	result := p.fetcher.Fetch(ctx, p.def, t.Request)

	p.mu.Lock()
	resolved, applied := p.session.Apply(t, result)
	if applied {
		p.loaded = t.Generation
	}
	view := p.viewLocked(resolved)
	p.mu.Unlock()

	if !applied {
		metrics.RecordStale(p.def.Name)
		return view
	}
	metrics.RecordOrigin(p.def.Name, resolved.Origin == reconcile.OriginRemote)
	if result.IsSuccess() {
		p.publish(ctx, view)
	}
	return view
}

// Go loads t in the background.
func (p *Page) Go(t reconcile.Ticket) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.Load(p.ctx, t)
	}()
}

// Wait blocks until every background load has finished.
func (p *Page) Wait() {
	p.wg.Wait()
}

// View returns the current snapshot.
func (p *Page) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.viewLocked(p.session.Snapshot())
}

// DismissFailure clears the failure message and returns the new snapshot.
func (p *Page) DismissFailure() View {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.viewLocked(p.session.DismissFailure())
}

func (p *Page) viewLocked(r reconcile.Resolved) View {
	t := p.session.Current()
	return View{
		Page:       p.def.Name,
		Title:      p.def.Title,
		Query:      r.Query,
		Source:     r.Source,
		Origin:     r.Origin,
		Pending:    p.loaded != t.Generation,
		Generation: t.Generation,
		Filters:    maps.Clone(t.Request.Filters),
		Failure:    r.Failure,
		Dataset:    r.Dataset,
		Metrics:    derive.Derive(p.def, r.Dataset, r.Source.Key().CurrencyBucket(), p.topN),
	}
}

func (p *Page) publish(ctx context.Context, v View) {
	body, err := json.Marshal(v)
	if err != nil {
		zap.L().Error("encode view", zap.String("page", v.Page), zap.Error(err))
		return
	}
	err = p.sink.Publish(ctx, publish.Message{
		Page:       v.Page,
		Periode:    v.Query.String(),
		Generation: v.Generation,
		Body:       body,
	})
	metrics.RecordPublish(p.sink.Name(), err)
	if err != nil {
		zap.L().Warn("publish view failed",
			zap.String("page", v.Page),
			zap.String("sink", p.sink.Name()),
			zap.Error(err),
		)
	}
}
