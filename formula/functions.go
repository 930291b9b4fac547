package formula

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/witanlabs/gridkit/grid"
)

// rangeValues returns the raw cell values of a range in row-major order.
// A malformed range reads as an empty range, matching the parse-level
// policy of degrading rather than failing.
func rangeValues(g *grid.Grid, inner string) []string {
	refs := grid.ParseRange(inner)
	vals := make([]string, 0, len(refs))
	for _, ref := range refs {
		vals = append(vals, g.Cell(ref.Row, ref.Col).Value)
	}
	return vals
}

func evalSum(g *grid.Grid, inner string) (string, error) {
	total := 0.0
	for _, v := range rangeValues(g, inner) {
		total += coerce(v) // empty cells contribute 0
	}
	return formatNumber(total), nil
}

func evalAverage(g *grid.Grid, inner string) (string, error) {
	total, n := 0.0, 0
	for _, v := range rangeValues(g, inner) {
		if v == "" || !isNumeric(v) {
			continue
		}
		total += coerce(v)
		n++
	}
	if n == 0 {
		return "0", nil
	}
	return strconv.FormatFloat(total/float64(n), 'f', 2, 64), nil
}

func evalCount(g *grid.Grid, inner string) (string, error) {
	n := 0
	for _, v := range rangeValues(g, inner) {
		if v != "" && isNumeric(v) {
			n++
		}
	}
	return strconv.Itoa(n), nil
}

func evalCountA(g *grid.Grid, inner string) (string, error) {
	n := 0
	for _, v := range rangeValues(g, inner) {
		if v != "" {
			n++
		}
	}
	return strconv.Itoa(n), nil
}

func evalMax(g *grid.Grid, inner string) (string, error) {
	return evalExtreme(g, inner, func(a, b float64) bool { return a > b })
}

func evalMin(g *grid.Grid, inner string) (string, error) {
	return evalExtreme(g, inner, func(a, b float64) bool { return a < b })
}

func evalExtreme(g *grid.Grid, inner string, better func(a, b float64) bool) (string, error) {
	best := 0.0
	found := false
	for _, v := range rangeValues(g, inner) {
		if v == "" || !isNumeric(v) {
			continue
		}
		n := coerce(v)
		if !found || better(n, best) {
			best = n
			found = true
		}
	}
	if !found {
		return "0", nil
	}
	return formatNumber(best), nil
}

func evalRound(g *grid.Grid, inner string) (string, error) {
	parts := splitTopLevel(inner)
	if len(parts) != 2 {
		return "", fmt.Errorf("ROUND wants 2 arguments, got %d", len(parts))
	}
	n, err := evalNumber(g, parts[0])
	if err != nil {
		return "", err
	}
	dec, err := evalNumber(g, parts[1])
	if err != nil {
		return "", err
	}
	d := int(dec)
	if d < 0 {
		d = 0
	}
	return strconv.FormatFloat(n, 'f', d, 64), nil
}

func evalAbs(g *grid.Grid, inner string) (string, error) {
	n, err := evalNumber(g, inner)
	if err != nil {
		return "", err
	}
	return formatNumber(math.Abs(n)), nil
}

func evalSqrt(g *grid.Grid, inner string) (string, error) {
	n, err := evalNumber(g, inner)
	if err != nil {
		return "", err
	}
	if n < 0 {
		return "", fmt.Errorf("SQRT of negative %v", n)
	}
	return formatNumber(math.Sqrt(n)), nil
}

func evalPower(g *grid.Grid, inner string) (string, error) {
	parts := splitTopLevel(inner)
	if len(parts) != 2 {
		return "", fmt.Errorf("POWER wants 2 arguments, got %d", len(parts))
	}
	base, err := evalNumber(g, parts[0])
	if err != nil {
		return "", err
	}
	exp, err := evalNumber(g, parts[1])
	if err != nil {
		return "", err
	}
	n := math.Pow(base, exp)
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return "", fmt.Errorf("POWER(%v,%v) is not finite", base, exp)
	}
	return formatNumber(n), nil
}

func evalIf(g *grid.Grid, inner string) (string, error) {
	parts := splitTopLevel(inner)
	if len(parts) != 3 {
		return "", fmt.Errorf("IF wants 3 arguments, got %d", len(parts))
	}
	cond, err := evalCondition(g, parts[0])
	if err != nil {
		return "", err
	}
	branch := parts[2]
	if cond {
		branch = parts[1]
	}
	if isQuoted(branch) {
		return unquote(branch), nil
	}
	return eval(g, branch)
}

// comparators in match order: multi-character operators first so "A1>=5"
// never mis-splits on the bare ">" or "=".
var comparators = []string{">=", "<=", "<>", "!=", "=", ">", "<"}

func evalCondition(g *grid.Grid, cond string) (bool, error) {
	for _, op := range comparators {
		idx := indexTopLevel(cond, op)
		if idx < 0 {
			continue
		}
		left := cond[:idx]
		right := cond[idx+len(op):]
		switch op {
		case "=", "<>", "!=":
			eq, err := operandsEqual(g, left, right)
			if err != nil {
				return false, err
			}
			if op == "=" {
				return eq, nil
			}
			return !eq, nil
		default:
			ln, err := evalNumber(g, left)
			if err != nil {
				return false, err
			}
			rn, err := evalNumber(g, right)
			if err != nil {
				return false, err
			}
			switch op {
			case ">=":
				return ln >= rn, nil
			case "<=":
				return ln <= rn, nil
			case ">":
				return ln > rn, nil
			default:
				return ln < rn, nil
			}
		}
	}
	// No relational operator: truthy when the expression is nonzero.
	n, err := evalNumber(g, cond)
	if err != nil {
		return false, err
	}
	return n != 0, nil
}

// operandsEqual implements "=" semantics: numeric comparison when both
// sides coerce to numbers, string equality otherwise.
func operandsEqual(g *grid.Grid, left, right string) (bool, error) {
	ls, lnum, err := operand(g, left)
	if err != nil {
		return false, err
	}
	rs, rnum, err := operand(g, right)
	if err != nil {
		return false, err
	}
	if lnum && rnum {
		return coerce(ls) == coerce(rs), nil
	}
	return ls == rs, nil
}

// operand resolves one side of a comparison to its text plus whether that
// text coerces to a number. A cell reference yields its raw value so that
// string equality compares what the cell actually holds.
func operand(g *grid.Grid, s string) (text string, numeric bool, err error) {
	s = strings.TrimSpace(s)
	switch {
	case isQuoted(s):
		text = unquote(s)
	default:
		if ref, ok := grid.ParseCellRef(s); ok {
			text = g.Cell(ref.Row, ref.Col).Value
			break
		}
		text, err = eval(g, s)
		if err != nil {
			return "", false, err
		}
	}
	return text, text != "" && isNumeric(text), nil
}

// indexTopLevel returns the first index of op in s at paren depth zero and
// outside double quotes, or -1.
func indexTopLevel(s, op string) int {
	depth := 0
	inQuote := false
	for i := 0; i+len(op) <= len(s); i++ {
		switch s[i] {
		case '"':
			inQuote = !inQuote
			continue
		case '(':
			if !inQuote {
				depth++
			}
			continue
		case ')':
			if !inQuote {
				depth--
			}
			continue
		}
		if depth == 0 && !inQuote && s[i:i+len(op)] == op {
			return i
		}
	}
	return -1
}

// evalConcat joins arguments: quoted literals are unquoted, cell
// references substitute their raw value, anything else passes through.
func evalConcat(g *grid.Grid, inner string) (string, error) {
	var b strings.Builder
	for _, arg := range splitTopLevel(inner) {
		switch {
		case isQuoted(arg):
			b.WriteString(unquote(arg))
		default:
			if ref, ok := grid.ParseCellRef(arg); ok {
				b.WriteString(g.Cell(ref.Row, ref.Col).Value)
			} else {
				b.WriteString(arg)
			}
		}
	}
	return b.String(), nil
}
