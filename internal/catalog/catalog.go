// Package catalog holds the static fallback dataset of every dashboard page
// for every period. A Catalog is loaded once at startup and never mutated.
package catalog

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/dashboard-engine/internal/model"
	"github.com/sells-group/dashboard-engine/internal/period"
)

// RawEntry is one catalog payload as stored by a Source. Payload has the
// same shape as the backend's data member.
type RawEntry struct {
	Page    string
	Key     period.Key
	Payload []byte
}

// Source loads raw catalog entries.
type Source interface {
	Name() string
	Entries(ctx context.Context) ([]RawEntry, error)
}

// Catalog is a read-only set of fallback datasets keyed by page and period.
type Catalog struct {
	source  string
	entries map[string]map[period.Key]model.Dataset
}

// Load reads and decodes every entry of src. Unknown pages, unknown period
// keys, duplicates and undecodable payloads are errors.
func Load(ctx context.Context, src Source) (*Catalog, error) {
	raws, err := src.Entries(ctx)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: load %s", src.Name())
	}

	c := &Catalog{source: src.Name(), entries: make(map[string]map[period.Key]model.Dataset)}
	for _, raw := range raws {
		page, ok := model.LookupPage(raw.Page)
		if !ok {
			return nil, eris.Errorf("catalog: %s: unknown page %q", src.Name(), raw.Page)
		}
		if !raw.Key.Valid() {
			return nil, eris.Errorf("catalog: %s: unknown period %q for %s", src.Name(), raw.Key, raw.Page)
		}
		if _, dup := c.entries[raw.Page][raw.Key]; dup {
			return nil, eris.Errorf("catalog: %s: duplicate entry %s/%s", src.Name(), raw.Page, raw.Key)
		}
		ds, err := model.DecodePayload(page, raw.Payload)
		if err != nil {
			return nil, eris.Wrapf(err, "catalog: %s: entry %s/%s", src.Name(), raw.Page, raw.Key)
		}
		if c.entries[raw.Page] == nil {
			c.entries[raw.Page] = make(map[period.Key]model.Dataset, len(period.Keys))
		}
		c.entries[raw.Page][raw.Key] = ds
	}

	zap.L().Info("catalog loaded",
		zap.String("source", src.Name()),
		zap.Int("pages", len(c.entries)),
		zap.Int("entries", c.Len()),
	)
	return c, nil
}

// New builds a catalog from decoded datasets. The datasets are copied.
func New(entries map[string]map[period.Key]model.Dataset) *Catalog {
	c := &Catalog{source: "memory", entries: make(map[string]map[period.Key]model.Dataset, len(entries))}
	for page, byKey := range entries {
		c.entries[page] = make(map[period.Key]model.Dataset, len(byKey))
		for k, ds := range byKey {
			c.entries[page][k] = ds.Clone()
		}
	}
	return c
}

// Source returns the name of the source the catalog was loaded from.
func (c *Catalog) Source() string { return c.source }

// Entry returns a copy of the fallback dataset for page and key.
func (c *Catalog) Entry(page string, key period.Key) (model.Dataset, bool) {
	ds, ok := c.entries[page][key]
	if !ok {
		return model.Dataset{}, false
	}
	return ds.Clone(), true
}

// Pages returns the page names present in the catalog, sorted.
func (c *Catalog) Pages() []string {
	out := make([]string, 0, len(c.entries))
	for p := range c.entries {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Keys returns the period keys present for page in display order.
func (c *Catalog) Keys(page string) []period.Key {
	var out []period.Key
	for _, k := range period.Keys {
		if _, ok := c.entries[page][k]; ok {
			out = append(out, k)
		}
	}
	return out
}

// Len returns the total number of entries.
func (c *Catalog) Len() int {
	n := 0
	for _, byKey := range c.entries {
		n += len(byKey)
	}
	return n
}

// RawEntries encodes every entry back into its page's wire shape, in page
// then period order. Loading the result yields an equal catalog.
func (c *Catalog) RawEntries() ([]RawEntry, error) {
	out := make([]RawEntry, 0, c.Len())
	for _, name := range c.Pages() {
		page, ok := model.LookupPage(name)
		if !ok {
			return nil, eris.Errorf("catalog: encode: unknown page %q", name)
		}
		for _, k := range c.Keys(name) {
			payload, err := model.EncodePayload(page, c.entries[name][k])
			if err != nil {
				return nil, eris.Wrapf(err, "catalog: encode %s/%s", name, k)
			}
			out = append(out, RawEntry{Page: name, Key: k, Payload: payload})
		}
	}
	return out, nil
}
