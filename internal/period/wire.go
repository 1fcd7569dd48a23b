package period

import (
	"net/url"
	"strings"
	"unicode"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Wire parameter names understood by the backend.
const (
	ParamPeriod = "periode"
	ParamStart  = "date_debut"
	ParamEnd    = "date_fin"
)

// aliases maps folded spellings to keys. English names are accepted on the CLI.
var aliases = map[string]Key{
	"jour":         Day,
	"day":          Day,
	"semaine":      Week,
	"week":         Week,
	"mois":         Month,
	"month":        Month,
	"annee":        Year,
	"an":           Year,
	"year":         Year,
	"tout":         AllTime,
	"all":          AllTime,
	"alltime":      AllTime,
	"personnalise": Custom,
	"custom":       Custom,
}

// fold lower-cases v and strips combining marks, so "Année" becomes "annee".
func fold(v string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.TrimSpace(v))
	if err != nil {
		out = v
	}
	out = strings.ToLower(out)
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(out)
}

// ParseKey resolves a period name, ignoring case, accents and separators.
func ParseKey(v string) (Key, error) {
	if k, ok := aliases[fold(v)]; ok {
		return k, nil
	}
	return "", eris.Wrapf(ErrUnknownKey, "parse %q", v)
}

// Params encodes q as backend query parameters.
func (q Query) Params() url.Values {
	v := url.Values{}
	if q.IsZero() {
		return v
	}
	v.Set(ParamPeriod, string(q.key))
	if q.key == Custom {
		v.Set(ParamStart, q.start.Format(DateLayout))
		v.Set(ParamEnd, q.end.Format(DateLayout))
	}
	return v
}

// ParseQuery decodes backend query parameters. A missing periode selects Day.
// Range parameters are ignored for preset keys.
func ParseQuery(v url.Values) (Query, error) {
	raw := v.Get(ParamPeriod)
	if raw == "" {
		return Preset(Day), nil
	}
	k, err := ParseKey(raw)
	if err != nil {
		return Query{}, err
	}
	if k != Custom {
		return Preset(k), nil
	}
	start, err := ParseDate(v.Get(ParamStart))
	if err != nil {
		return Query{}, err
	}
	end, err := ParseDate(v.Get(ParamEnd))
	if err != nil {
		return Query{}, err
	}
	return CustomRange(start, end)
}

type wireQuery struct {
	Period string `json:"periode"`
	Start  string `json:"date_debut,omitempty"`
	End    string `json:"date_fin,omitempty"`
}

// MarshalJSON encodes q with the backend parameter names.
func (q Query) MarshalJSON() ([]byte, error) {
	w := wireQuery{Period: string(q.key)}
	if q.key == Custom {
		w.Start = q.start.Format(DateLayout)
		w.End = q.end.Format(DateLayout)
	}
	return json.Marshal(w)
}
