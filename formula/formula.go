// Package formula evaluates spreadsheet formulas against a grid.
//
// Evaluation is one-shot: a formula is computed once, at insertion time, and
// the caller snapshots the resulting text. Nothing here recomputes when
// referenced cells later change.
package formula

import (
	"fmt"
	"strings"

	"github.com/witanlabs/gridkit/grid"
)

// ErrorValue is the sentinel returned for any formula that fails to
// evaluate. It is the only failure surface of Evaluate: no error or panic
// escapes the public entry point.
const ErrorValue = "#ERROR"

// Evaluate computes one formula string against g and returns the display
// text. Input that does not start with "=" is returned unchanged (a
// literal). Function names are case-insensitive; quoted literals keep
// their original case.
func Evaluate(g *grid.Grid, input string) (out string) {
	trimmed := strings.TrimSpace(input)
	if !strings.HasPrefix(trimmed, "=") {
		return input
	}
	defer func() {
		if recover() != nil {
			out = ErrorValue
		}
	}()
	v, err := eval(g, trimmed[1:])
	if err != nil {
		return ErrorValue
	}
	return v
}

// eval dispatches one expression: known function by prefix, else bare cell
// reference, else generic expression. Case-insensitive matching is done on
// an upper-cased copy; substrings are sliced from the original so quoted
// text keeps its case.
func eval(g *grid.Grid, expr string) (string, error) {
	expr = strings.TrimSpace(expr)
	upper := strings.ToUpper(expr)

	for _, fn := range functions {
		if strings.HasPrefix(upper, fn.name+"(") {
			inner, err := innerArgs(expr, len(fn.name))
			if err != nil {
				return "", err
			}
			return fn.apply(g, inner)
		}
	}

	if ref, ok := grid.ParseCellRef(expr); ok {
		return formatNumber(coerce(g.Cell(ref.Row, ref.Col).Value)), nil
	}

	return evalGeneric(g, expr)
}

// fnEntry binds a function name to its handler. COUNTA is listed before
// COUNT so the longer name wins the prefix match; same for CONCATENATE
// and CONCAT.
type fnEntry struct {
	name  string
	apply func(g *grid.Grid, inner string) (string, error)
}

var functions []fnEntry

func init() {
	functions = []fnEntry{
		{"SUM", evalSum},
		{"AVERAGE", evalAverage},
		{"COUNTA", evalCountA},
		{"COUNT", evalCount},
		{"MAX", evalMax},
		{"MIN", evalMin},
		{"ROUND", evalRound},
		{"ABS", evalAbs},
		{"SQRT", evalSqrt},
		{"POWER", evalPower},
		{"IF", evalIf},
		{"CONCATENATE", evalConcat},
		{"CONCAT", evalConcat},
	}
}

// innerArgs slices the argument text between the function's opening paren
// and the last closing paren.
func innerArgs(expr string, nameLen int) (string, error) {
	close := strings.LastIndex(expr, ")")
	if close < nameLen+1 {
		return "", fmt.Errorf("unterminated call in %q", expr)
	}
	return expr[nameLen+1 : close], nil
}

// splitTopLevel splits s on commas at paren depth zero, ignoring commas
// inside double quotes. A naive split breaks on nested calls like
// IF(SUM(A1:A2)>10,"high","low").
func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	inQuote := false
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			inQuote = !inQuote
		case '(':
			if !inQuote {
				depth++
			}
		case ')':
			if !inQuote {
				depth--
			}
		case ',':
			if !inQuote && depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	parts = append(parts, strings.TrimSpace(s[start:]))
	return parts
}

func isQuoted(s string) bool {
	return len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"'
}

func unquote(s string) string {
	return s[1 : len(s)-1]
}
