package formula

import (
	"testing"

	"github.com/witanlabs/gridkit/grid"
)

func testGrid() *grid.Grid {
	g := grid.New()
	g.SetCell(0, 0, grid.WithValue("2"))  // A1
	g.SetCell(0, 1, grid.WithValue("3"))  // B1
	g.SetCell(1, 0, grid.WithValue("5"))  // A2
	g.SetCell(2, 0, grid.WithValue("7"))  // A3
	g.SetCell(3, 0, grid.WithValue(""))   // A4 written empty
	g.SetCell(0, 2, grid.WithValue("ok")) // C1 non-numeric
	g.SetCell(1, 2, grid.WithValue("$1,200"))
	return g
}

func TestEvaluate(t *testing.T) {
	g := testGrid()

	tests := []struct {
		name    string
		formula string
		want    string
	}{
		{"literal passthrough", "hello", "hello"},
		{"literal number", "42", "42"},
		{"bare ref", "=A1", "2"},
		{"bare ref lowercase", "=a2", "5"},
		{"bare ref non-numeric coerces to 0", "=C1", "0"},
		{"multiply", "=A1*B1", "6"},
		{"arithmetic with parens", "=(A1+B1)*A2", "25"},
		{"sum", "=SUM(A1:A3)", "14"},
		{"sum includes empty as zero", "=SUM(A1:A4)", "14"},
		{"sum lowercase name", "=sum(A1:A3)", "14"},
		{"average skips empty", "=AVERAGE(A2:A4)", "6.00"},
		{"average all empty", "=AVERAGE(F1:F5)", "0"},
		{"count numeric only", "=COUNT(A1:C1)", "2"},
		{"counta any non-empty", "=COUNTA(A1:C1)", "3"},
		{"max", "=MAX(A1:A4)", "7"},
		{"min", "=MIN(A1:A4)", "2"},
		{"min empty range", "=MIN(F1:F3)", "0"},
		{"round", "=ROUND(A2/A3,2)", "0.71"},
		{"round nested sum", "=ROUND(SUM(A1:A3)/3,1)", "4.7"},
		{"abs", "=ABS(A1-A3)", "5"},
		{"sqrt", "=SQRT(A1*A1)", "2"},
		{"power", "=POWER(A1,3)", "8"},
		{"if true literal", `=IF(5>3,"yes","no")`, "yes"},
		{"if false", `=IF(A1>B1,"big","small")`, "small"},
		{"if nested call splits top-level comma", `=IF(SUM(A1:A2)>10,"high","low")`, "low"},
		{"if nested call true branch", `=IF(SUM(A1:A3)>10,"high","low")`, "high"},
		{"if multi-char operator", `=IF(A2>=5,"ge","lt")`, "ge"},
		{"if not-equal", `=IF(A1<>B1,"diff","same")`, "diff"},
		{"if string equality", `=IF(C1="ok","match","miss")`, "match"},
		{"if numeric equality across formats", `=IF(C2=1200,"eq","ne")`, "eq"},
		{"if numeric branch", "=IF(A1<B1,A3,A1)", "7"},
		{"concat", `=CONCAT("Total: ",A1)`, "Total: 2"},
		{"concatenate ref raw value", `=CONCATENATE(C2," spent")`, "$1,200 spent"},
		{"concat passthrough", `=CONCAT(x,"y")`, "xy"},
		{"fallback currency coercion", "=C2/100", "12"},
		{"fallback substitutes refs then evaluates", "=C1&C2", "1200"},
		{"fallback unevaluable stays substituted", "=foo&bar", "foo&bar"},
		{"sqrt negative is error", "=SQRT(A1-B1)", "#ERROR"},
		{"division by zero is error", "=A1/F1", "#ERROR"},
		{"malformed call is error", "=ROUND(A1", "#ERROR"},
		{"empty formula body", "=", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(g, tt.formula); got != tt.want {
				t.Errorf("Evaluate(%q) = %q, want %q", tt.formula, got, tt.want)
			}
		})
	}
}

// Scenario: A1="", A2=5, A3=7 → AVERAGE(A1:A3) = "6.00".
func TestAverageExcludesEmpty(t *testing.T) {
	g := grid.New()
	g.SetCell(0, 0, grid.WithValue(""))
	g.SetCell(1, 0, grid.WithValue("5"))
	g.SetCell(2, 0, grid.WithValue("7"))
	if got := Evaluate(g, "=AVERAGE(A1:A3)"); got != "6.00" {
		t.Errorf("AVERAGE = %q, want 6.00", got)
	}
}

// SUM must be independent of insertion order.
func TestSumAdditivity(t *testing.T) {
	orders := [][]int{{0, 1, 2}, {2, 0, 1}, {1, 2, 0}}
	vals := []string{"10", "$20", "12.5"}
	for _, order := range orders {
		g := grid.New()
		for _, i := range order {
			g.SetCell(i, 0, grid.WithValue(vals[i]))
		}
		if got := Evaluate(g, "=SUM(A1:A3)"); got != "42.5" {
			t.Errorf("insertion order %v: SUM = %q, want 42.5", order, got)
		}
	}
}

// Re-evaluating the same formula against an unchanged grid must return
// identical text every time.
func TestIdempotence(t *testing.T) {
	g := testGrid()
	formulas := []string{"=SUM(A1:A3)", "=AVERAGE(A1:A4)", `=IF(A1>1,"y","n")`, "=A1*B1+A2"}
	for _, f := range formulas {
		first := Evaluate(g, f)
		for i := 0; i < 5; i++ {
			if got := Evaluate(g, f); got != first {
				t.Fatalf("Evaluate(%q) run %d = %q, first run %q", f, i+2, got, first)
			}
		}
	}
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"1200", 1200},
		{"$1,200", 1200},
		{"-5", -5},
		{"3.14", 3.14},
		{"", 0},
		{"abc", 0},
		{"12 apples", 12},
	}
	for _, tt := range tests {
		if got := coerce(tt.in); got != tt.want {
			t.Errorf("coerce(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSplitTopLevel(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{`SUM(A1:A2)>10,"high","low"`, []string{`SUM(A1:A2)>10`, `"high"`, `"low"`}},
		{`"a,b",C1`, []string{`"a,b"`, "C1"}},
		{`A1`, []string{"A1"}},
	}
	for _, tt := range tests {
		got := splitTopLevel(tt.in)
		if len(got) != len(tt.want) {
			t.Fatalf("splitTopLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("splitTopLevel(%q)[%d] = %q, want %q", tt.in, i, got[i], tt.want[i])
			}
		}
	}
}
