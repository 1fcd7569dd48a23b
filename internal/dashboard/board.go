package dashboard

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/sells-group/dashboard-engine/internal/model"
	"github.com/sells-group/dashboard-engine/internal/reconcile"
)

// Board holds one Page per known dashboard page.
type Board struct {
	pages       map[string]*Page
	order       []string
	concurrency int
}

// NewBoard creates a page for every page definition. concurrency bounds
// RefreshAll; values below 1 mean one page at a time.
func NewBoard(fallback reconcile.Fallback, fetcher Fetcher, opts Options, concurrency int) *Board {
	if concurrency < 1 {
		concurrency = 1
	}
	b := &Board{pages: make(map[string]*Page), concurrency: concurrency}
	for _, def := range model.Pages() {
		b.pages[def.Name] = NewPage(def, fallback, fetcher, opts)
		b.order = append(b.order, def.Name)
	}
	return b
}

// Page returns the named page.
func (b *Board) Page(name string) (*Page, bool) {
	p, ok := b.pages[name]
	return p, ok
}

// Names returns the page names sorted.
func (b *Board) Names() []string {
	return append([]string(nil), b.order...)
}

// Views returns the current snapshot of every page.
func (b *Board) Views() []View {
	out := make([]View, 0, len(b.order))
	for _, name := range b.order {
		out = append(out, b.pages[name].View())
	}
	return out
}

// RefreshAll loads the current request of every page and returns the views
// in page order. Fetch faults surface as failures in the views; only context
// cancellation is returned as an error.
func (b *Board) RefreshAll(ctx context.Context) ([]View, error) {
	views := make([]View, len(b.order))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for i, name := range b.order {
		p := b.pages[name]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			views[i] = p.Load(gctx, p.Current())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return views, nil
}

// Wait blocks until every page's background loads have finished.
func (b *Board) Wait() {
	for _, p := range b.pages {
		p.Wait()
	}
}
