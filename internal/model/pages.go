package model

import "sort"

// Ratio is a derived percentage of two stats fields, Part over Whole.
type Ratio struct {
	Name  string `json:"name" yaml:"name"`
	Part  string `json:"part" yaml:"part"`
	Whole string `json:"whole" yaml:"whole"`
}

// PageDef is the field mapping of one dashboard page: where its data comes
// from and which fields the derived metrics read.
type PageDef struct {
	Name     string `json:"name"`
	Title    string `json:"title"`
	Endpoint string `json:"endpoint"`

	// RowsField names the payload array holding the ranked entities.
	RowsField string `json:"rows_field"`
	// LabelField names the label of each activityData point.
	LabelField string `json:"label_field"`
	// RankField is the numeric row field used for top-N rankings.
	RankField string `json:"rank_field"`
	// TotalField is the stats field the pie slices sum to.
	TotalField string `json:"total_field"`
	// TrendField is the series field compared between the last two points.
	TrendField string `json:"trend_field"`

	Ratios         []Ratio  `json:"ratios"`
	CurrencyFields []string `json:"currency_fields"`
	CountFields    []string `json:"count_fields"`
	// PercentFields are stats already expressed as rounded percentages.
	PercentFields []string `json:"percent_fields"`
	// Filters lists the backend filter parameters the page accepts.
	Filters []string `json:"filters"`
}

// AllowsFilter reports whether name is a filter parameter of the page.
func (p PageDef) AllowsFilter(name string) bool {
	for _, f := range p.Filters {
		if f == name {
			return true
		}
	}
	return false
}

var pages = map[string]PageDef{
	"agents": {
		Name:           "agents",
		Title:          "Gestion des agents",
		Endpoint:       "dashboard/agents",
		RowsField:      "agents",
		LabelField:     "period",
		RankField:      "infractions",
		TotalField:     "totalAgents",
		TrendField:     "infractions",
		Ratios:         []Ratio{{Name: "tauxService", Part: "enService", Whole: "totalAgents"}},
		CountFields:    []string{"totalAgents", "enService", "controlesTotal", "infractionsTotal"},
		PercentFields:  []string{"tauxActivite"},
		Filters:        []string{"statut", "commissariat_id"},
		CurrencyFields: []string{},
	},
	"amendes": {
		Name:       "amendes",
		Title:      "Amendes et PV",
		Endpoint:   "dashboard/amendes",
		RowsField:  "amendes",
		LabelField: "period",
		RankField:  "montant",
		TotalField: "totalAmendes",
		TrendField: "amendes",
		Ratios: []Ratio{
			{Name: "tauxPaiement", Part: "payees", Whole: "totalAmendes"},
			{Name: "partRecouvree", Part: "montantRecouvre", Whole: "montantTotal"},
		},
		CurrencyFields: []string{"montantTotal", "montantRecouvre"},
		CountFields:    []string{"totalAmendes", "payees", "enAttente"},
		PercentFields:  []string{"tauxRecouvrement"},
		Filters:        []string{"statut", "agent_id", "categorie"},
	},
	"infractions": {
		Name:           "infractions",
		Title:          "Infractions",
		Endpoint:       "dashboard/infractions",
		RowsField:      "infractions",
		LabelField:     "period",
		RankField:      "nombre",
		TotalField:     "totalInfractions",
		TrendField:     "infractions",
		Ratios:         []Ratio{{Name: "tauxResolution", Part: "resolues", Whole: "totalInfractions"}},
		CurrencyFields: []string{"montantGenere"},
		CountFields:    []string{"totalInfractions", "resolues", "enCours"},
		PercentFields:  []string{},
		Filters:        []string{"categorie"},
	},
	"commissariats": {
		Name:           "commissariats",
		Title:          "Commissariats",
		Endpoint:       "dashboard/commissariats",
		RowsField:      "commissariats",
		LabelField:     "period",
		RankField:      "tauxRecouvrement",
		TotalField:     "totalCommissariats",
		TrendField:     "controles",
		Ratios:         []Ratio{{Name: "tauxActivite", Part: "actifs", Whole: "totalCommissariats"}},
		CurrencyFields: []string{"recettesTotal"},
		CountFields:    []string{"totalCommissariats", "actifs", "totalAgents", "controlesTotal"},
		PercentFields:  []string{"tauxRecouvrementMoyen"},
		Filters:        []string{"region"},
	},
	"controles": {
		Name:           "controles",
		Title:          "Contrôles routiers",
		Endpoint:       "dashboard/controles",
		RowsField:      "controles",
		LabelField:     "period",
		RankField:      "infractions",
		TotalField:     "totalControles",
		TrendField:     "controles",
		Ratios:         []Ratio{{Name: "tauxConformite", Part: "conformes", Whole: "totalControles"}},
		CurrencyFields: []string{},
		CountFields:    []string{"totalControles", "conformes", "nonConformes", "infractionsRelevees"},
		PercentFields:  []string{},
		Filters:        []string{"agent_id", "resultat"},
	},
}

// LookupPage returns the definition of the named page.
func LookupPage(name string) (PageDef, bool) {
	p, ok := pages[name]
	return p, ok
}

// Pages returns every page definition sorted by name.
func Pages() []PageDef {
	out := make([]PageDef, 0, len(pages))
	for _, p := range pages {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// PageNames returns every page name sorted.
func PageNames() []string {
	out := make([]string, 0, len(pages))
	for name := range pages {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
