package catalog

import (
	"context"
	"embed"
	"io/fs"
	"os"
	"path"
	"sort"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/dashboard-engine/internal/period"
)

//go:embed data/*.yaml
var embedded embed.FS

// catalogFile is the on-disk layout: one YAML document per page with one
// payload per period key.
type catalogFile struct {
	Page    string         `yaml:"page"`
	Entries map[string]any `yaml:"entries"`
}

// FileSource reads *.yaml catalog files from a filesystem.
type FileSource struct {
	name string
	fsys fs.FS
	dir  string
}

// Embedded returns the catalog compiled into the binary.
func Embedded() *FileSource {
	return &FileSource{name: "embedded", fsys: embedded, dir: "data"}
}

// Dir returns a source reading *.yaml files from dir.
func Dir(dir string) *FileSource {
	return &FileSource{name: "dir:" + dir, fsys: os.DirFS(dir), dir: "."}
}

func (s *FileSource) Name() string { return s.name }

func (s *FileSource) Entries(_ context.Context) ([]RawEntry, error) {
	files, err := fs.Glob(s.fsys, path.Join(s.dir, "*.yaml"))
	if err != nil {
		return nil, eris.Wrap(err, "catalog: glob files")
	}
	if len(files) == 0 {
		return nil, eris.Errorf("catalog: no *.yaml files in %s", s.name)
	}
	sort.Strings(files)

	var out []RawEntry
	for _, f := range files {
		data, err := fs.ReadFile(s.fsys, f)
		if err != nil {
			return nil, eris.Wrapf(err, "catalog: read %s", f)
		}
		entries, err := ParseFile(data)
		if err != nil {
			return nil, eris.Wrapf(err, "catalog: parse %s", f)
		}
		out = append(out, entries...)
	}
	return out, nil
}

// ParseFile converts one YAML catalog document into raw entries with JSON
// payloads.
func ParseFile(data []byte) ([]RawEntry, error) {
	var doc catalogFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(err, "catalog: unmarshal yaml")
	}
	if doc.Page == "" {
		return nil, eris.New("catalog: missing page name")
	}

	names := make([]string, 0, len(doc.Entries))
	for name := range doc.Entries {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]RawEntry, 0, len(names))
	for _, name := range names {
		key, err := period.ParseKey(name)
		if err != nil {
			return nil, eris.Wrapf(err, "catalog: %s entry %q", doc.Page, name)
		}
		payload, err := json.Marshal(doc.Entries[name])
		if err != nil {
			return nil, eris.Wrapf(err, "catalog: %s entry %q", doc.Page, name)
		}
		out = append(out, RawEntry{Page: doc.Page, Key: key, Payload: payload})
	}
	return out, nil
}
