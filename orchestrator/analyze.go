package orchestrator

import (
	"regexp"
	"strings"

	"github.com/witanlabs/gridkit/workbook"
)

// Theme is the coarse data theme detected in a prompt.
type Theme string

const (
	ThemeSales     Theme = "sales"
	ThemeEmployees Theme = "employees"
	ThemeInventory Theme = "inventory"
)

// YearRange is an inclusive span parsed from "YYYY to/a/through YYYY".
type YearRange struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Count returns the number of years in the span, inclusive.
func (y YearRange) Count() int { return y.To - y.From + 1 }

// Analysis is the structured reading of a prompt. It is produced by local
// pattern matching only, without external calls.
type Analysis struct {
	SheetNames             []string             `json:"sheetNames"`
	Years                  *YearRange           `json:"years,omitempty"`
	WantsChart             bool                 `json:"wantsChart"`
	ChartKinds             []workbook.ChartType `json:"chartKinds,omitempty"`
	WantsFormulas          bool                 `json:"wantsFormulas"`
	FormulaKinds           []string             `json:"formulaKinds,omitempty"`
	WantsConditionalFormat bool                 `json:"wantsConditionalFormat"`
	Theme                  Theme                `json:"theme,omitempty"`
	// SimpleChart marks a request with chart intent but no theme or sheet
	// list; it gets the minimal single-sheet plan instead of the
	// multi-sheet template.
	SimpleChart bool `json:"simpleChart"`
}

// yearRangeRe matches "2020 to 2025", "2020 a 2025", "2020 hasta 2025",
// "2020 through 2025", "2020-2025".
var yearRangeRe = regexp.MustCompile(`\b(\d{4})\s*(?:to|through|a|hasta|-|–)\s*(\d{4})\b`)

// vocabulary buckets are bilingual (English/Spanish); matching is
// lowercase substring, with unaccented variants listed alongside the
// accented forms.
var (
	sheetNameVocab = []struct {
		canonical string
		keywords  []string
	}{
		{"Data", []string{"data sheet", "hoja de datos", "raw data", "datos"}},
		{"Summary", []string{"summary", "resumen"}},
		{"Analysis", []string{"analysis", "análisis", "analisis"}},
		{"Budget", []string{"budget", "presupuesto"}},
	}

	chartVocab = []string{"chart", "graph", "gráfico", "grafico", "gráfica", "grafica", "diagrama"}

	chartKindVocab = []struct {
		kind     workbook.ChartType
		keywords []string
	}{
		{workbook.ChartBar, []string{"bar", "barras", "barra"}},
		{workbook.ChartPie, []string{"pie", "circular", "pastel", "torta"}},
		{workbook.ChartLine, []string{"line", "línea", "linea", "líneas", "lineas"}},
	}

	formulaVocab = []struct {
		kind     string
		keywords []string
	}{
		{"sum", []string{"sum", "suma", "total"}},
		{"average", []string{"average", "promedio", "media"}},
		{"growth", []string{"growth", "crecimiento"}},
		{"max", []string{"max", "máximo", "maximo"}},
		{"min", []string{"min", "mínimo", "minimo"}},
	}

	formulaIntentVocab = []string{"formula", "fórmula", "formulas", "fórmulas"}

	conditionalVocab = []string{"conditional", "condicional", "highlight", "resaltar", "resalta"}

	themeVocab = []struct {
		theme    Theme
		keywords []string
	}{
		{ThemeSales, []string{"sales", "ventas", "revenue", "ingresos"}},
		{ThemeEmployees, []string{"employees", "empleados", "staff", "personal"}},
		{ThemeInventory, []string{"inventory", "inventario", "stock"}},
	}
)

// Analyzer reads prompts with the built-in vocabulary plus any extra
// keywords layered in from configuration.
type Analyzer struct {
	extraSheets map[string][]string // canonical name → keywords
	extraThemes map[Theme][]string
}

// AnalyzerOption extends an Analyzer's vocabulary.
type AnalyzerOption func(*Analyzer)

// WithSheetKeywords registers extra keywords that request a sheet with
// the given canonical name.
func WithSheetKeywords(canonical string, keywords ...string) AnalyzerOption {
	return func(a *Analyzer) {
		a.extraSheets[canonical] = append(a.extraSheets[canonical], keywords...)
	}
}

// WithThemeKeywords registers extra keywords for a theme.
func WithThemeKeywords(theme Theme, keywords ...string) AnalyzerOption {
	return func(a *Analyzer) {
		a.extraThemes[theme] = append(a.extraThemes[theme], keywords...)
	}
}

// NewAnalyzer builds an Analyzer.
func NewAnalyzer(opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		extraSheets: make(map[string][]string),
		extraThemes: make(map[Theme][]string),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze is a pure text→struct function over the default vocabulary.
func Analyze(prompt string) Analysis {
	return NewAnalyzer().Analyze(prompt)
}

// Analyze extracts the structured request from one prompt.
func (a *Analyzer) Analyze(prompt string) Analysis {
	p := strings.ToLower(prompt)
	var out Analysis

	for _, entry := range sheetNameVocab {
		if containsAny(p, entry.keywords) {
			out.SheetNames = appendUnique(out.SheetNames, entry.canonical)
		}
	}
	for canonical, keywords := range a.extraSheets {
		if containsAny(p, keywords) {
			out.SheetNames = appendUnique(out.SheetNames, canonical)
		}
	}

	if m := yearRangeRe.FindStringSubmatch(p); m != nil {
		from, to := atoi(m[1]), atoi(m[2])
		if from <= to {
			out.Years = &YearRange{From: from, To: to}
		}
	}

	out.WantsChart = containsAny(p, chartVocab)
	for _, entry := range chartKindVocab {
		if containsAny(p, entry.keywords) {
			out.WantsChart = true
			out.ChartKinds = append(out.ChartKinds, entry.kind)
		}
	}
	if out.WantsChart && len(out.ChartKinds) == 0 {
		out.ChartKinds = []workbook.ChartType{workbook.ChartBar} // default
	}

	for _, entry := range formulaVocab {
		if containsAny(p, entry.keywords) {
			out.WantsFormulas = true
			out.FormulaKinds = append(out.FormulaKinds, entry.kind)
		}
	}
	if containsAny(p, formulaIntentVocab) {
		out.WantsFormulas = true
	}

	out.WantsConditionalFormat = containsAny(p, conditionalVocab)

	for _, entry := range themeVocab {
		if containsAny(p, entry.keywords) {
			out.Theme = entry.theme
			break
		}
	}
	if out.Theme == "" {
		for theme, keywords := range a.extraThemes {
			if containsAny(p, keywords) {
				out.Theme = theme
				break
			}
		}
	}

	out.SimpleChart = out.WantsChart && out.Theme == "" && len(out.SheetNames) == 0

	return out
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

func atoi(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}
