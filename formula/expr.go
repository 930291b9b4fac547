package formula

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/witanlabs/gridkit/grid"
)

// refTokenRe matches candidate cell-reference tokens inside an expression.
var refTokenRe = regexp.MustCompile(`\b[A-Za-z]+\d+\b`)

// evalGeneric is the fallback path: substitute every recognizable
// reference token with its numeric value, then evaluate the numeric
// remainder. When nothing evaluable remains, the substituted text is
// returned unevaluated.
func evalGeneric(g *grid.Grid, expr string) (string, error) {
	substituted := substituteRefs(g, expr)
	cleaned := keepArithmetic(substituted)
	if !strings.ContainsAny(cleaned, "0123456789") {
		return substituted, nil
	}
	n, err := evalArith(cleaned)
	if err != nil {
		return "", err
	}
	return formatNumber(n), nil
}

// evalNumber resolves a nested expression to a float: known function
// calls are evaluated and spliced in first, then a bare reference reads
// its cell, then the remainder goes through reference substitution and
// arithmetic evaluation.
func evalNumber(g *grid.Grid, expr string) (float64, error) {
	expr = strings.TrimSpace(expr)
	if isQuoted(expr) {
		return coerce(unquote(expr)), nil
	}
	expr, err := substituteCalls(g, expr)
	if err != nil {
		return 0, err
	}
	if ref, ok := grid.ParseCellRef(expr); ok {
		return coerce(g.Cell(ref.Row, ref.Col).Value), nil
	}
	cleaned := keepArithmetic(substituteRefs(g, expr))
	if !strings.ContainsAny(cleaned, "0123456789") {
		return 0, fmt.Errorf("not a numeric expression: %q", expr)
	}
	return evalArith(cleaned)
}

// callStartRe matches a candidate function-call opener.
var callStartRe = regexp.MustCompile(`[A-Za-z]+\(`)

// substituteCalls replaces every known function call in expr with its
// evaluated result, so "SUM(A1:A3)/3" becomes "14/3" before arithmetic
// evaluation. Nested calls are handled by the recursive eval of each
// spliced call.
func substituteCalls(g *grid.Grid, expr string) (string, error) {
	for i := 0; i < len(expr); {
		loc := callStartRe.FindStringIndex(expr[i:])
		if loc == nil {
			break
		}
		start := i + loc[0]
		open := i + loc[1] - 1
		if !knownFunction(strings.ToUpper(expr[start:open])) {
			i = open + 1
			continue
		}
		close, ok := matchParen(expr, open)
		if !ok {
			return "", fmt.Errorf("unbalanced parens in %q", expr)
		}
		v, err := eval(g, expr[start:close+1])
		if err != nil {
			return "", err
		}
		expr = expr[:start] + v + expr[close+1:]
		i = start + len(v)
	}
	return expr, nil
}

func knownFunction(name string) bool {
	for _, fn := range functions {
		if fn.name == name {
			return true
		}
	}
	return false
}

// matchParen returns the index of the paren closing the one at open,
// ignoring parens inside double quotes.
func matchParen(s string, open int) (int, bool) {
	depth := 0
	inQuote := false
	for i := open; i < len(s); i++ {
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
				if depth == 0 {
					return i, true
				}
			}
		}
	}
	return 0, false
}

func substituteRefs(g *grid.Grid, expr string) string {
	return refTokenRe.ReplaceAllStringFunc(expr, func(tok string) string {
		ref, ok := grid.ParseCellRef(tok)
		if !ok {
			return tok
		}
		return formatNumber(coerce(g.Cell(ref.Row, ref.Col).Value))
	})
}

// keepArithmetic strips everything but digits, operators, parentheses and
// the decimal point.
func keepArithmetic(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' || r == '-' || r == '*' || r == '/' || r == '(' || r == ')' || r == '.':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// coerce parses a cell value as a float after stripping everything but
// digits, sign, and decimal point ("$1,200" → 1200). Unparsable input
// coerces to 0.
func coerce(s string) float64 {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	n, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0
	}
	return n
}

// Coerce parses a cell value as a float the way reference substitution
// does: formatting characters are stripped and unparsable input is 0.
func Coerce(s string) float64 { return coerce(s) }

// isNumeric reports whether a cell value coerces to a number at all, i.e.
// carries at least one digit once stripped.
func isNumeric(s string) bool {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if !strings.ContainsAny(cleaned, "0123456789") {
		return false
	}
	_, err := strconv.ParseFloat(cleaned, 64)
	return err == nil
}

// formatNumber renders a float with the shortest exact decimal form
// (6 → "6", 2.5 → "2.5").
func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// evalArith evaluates a cleaned arithmetic expression with the usual
// precedence: parentheses, unary minus, then * and /, then + and -.
type arithParser struct {
	s   string
	pos int
}

func evalArith(s string) (float64, error) {
	p := &arithParser{s: s}
	n, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	if p.pos != len(p.s) {
		return 0, fmt.Errorf("unexpected %q at offset %d", p.s[p.pos], p.pos)
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("result of %q is not finite", s)
	}
	return n, nil
}

func (p *arithParser) parseExpr() (float64, error) {
	n, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for p.pos < len(p.s) {
		op := p.s[p.pos]
		if op != '+' && op != '-' {
			break
		}
		p.pos++
		m, err := p.parseTerm()
		if err != nil {
			return 0, err
		}
		if op == '+' {
			n += m
		} else {
			n -= m
		}
	}
	return n, nil
}

func (p *arithParser) parseTerm() (float64, error) {
	n, err := p.parseFactor()
	if err != nil {
		return 0, err
	}
	for p.pos < len(p.s) {
		op := p.s[p.pos]
		if op != '*' && op != '/' {
			break
		}
		p.pos++
		m, err := p.parseFactor()
		if err != nil {
			return 0, err
		}
		if op == '*' {
			n *= m
		} else {
			if m == 0 {
				return 0, fmt.Errorf("division by zero in %q", p.s)
			}
			n /= m
		}
	}
	return n, nil
}

func (p *arithParser) parseFactor() (float64, error) {
	if p.pos >= len(p.s) {
		return 0, fmt.Errorf("unexpected end of expression %q", p.s)
	}
	switch p.s[p.pos] {
	case '-':
		p.pos++
		n, err := p.parseFactor()
		return -n, err
	case '+':
		p.pos++
		return p.parseFactor()
	case '(':
		p.pos++
		n, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		if p.pos >= len(p.s) || p.s[p.pos] != ')' {
			return 0, fmt.Errorf("missing closing paren in %q", p.s)
		}
		p.pos++
		return n, nil
	}
	return p.parseNumber()
}

func (p *arithParser) parseNumber() (float64, error) {
	start := p.pos
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		if (c >= '0' && c <= '9') || c == '.' {
			p.pos++
			continue
		}
		break
	}
	if start == p.pos {
		return 0, fmt.Errorf("expected number at offset %d in %q", start, p.s)
	}
	n, err := strconv.ParseFloat(p.s[start:p.pos], 64)
	if err != nil {
		return 0, fmt.Errorf("bad number %q: %w", p.s[start:p.pos], err)
	}
	return n, nil
}
