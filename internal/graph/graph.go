// Package graph samples a single-variable expression and derives a y-axis
// window for charting it.
package graph

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// MaxExpressionLen bounds accepted expressions.
const MaxExpressionLen = 200

var (
	// ErrEmptyExpression is returned for a blank expression.
	ErrEmptyExpression = errors.New("empty expression")
	// ErrUnsafeExpression is returned for expressions using characters or
	// lengths outside the accepted grammar.
	ErrUnsafeExpression = errors.New("unsafe expression")
)

// ParseError wraps an expression the evaluator rejected.
type ParseError struct {
	Expression string
	Err        error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %q: %v", e.Expression, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

var allowed = regexp.MustCompile(`^[0-9a-zA-Z_ .+\-*/^()]+$`)

// Series holds sampled points. Y values the expression is undefined at are NaN.
type Series struct {
	Expression string
	X          []float64
	Y          []float64
}

// Finite returns the finite Y values.
func (s Series) Finite() []float64 {
	out := make([]float64, 0, len(s.Y))
	for _, y := range s.Y {
		if !math.IsNaN(y) && !math.IsInf(y, 0) {
			out = append(out, y)
		}
	}
	return out
}

// environment returns the names visible to expressions, with x bound to v.
func environment(v float64) map[string]any {
	return map[string]any{
		"x":    v,
		"pi":   math.Pi,
		"e":    math.E,
		"sin":  math.Sin,
		"cos":  math.Cos,
		"tan":  math.Tan,
		"sqrt": math.Sqrt,
		"abs":  math.Abs,
		"log":  math.Log10,
		"ln":   math.Log,
		"exp":  math.Exp,
	}
}

// Validate checks expression against the accepted character set and length.
func Validate(expression string) (string, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return "", ErrEmptyExpression
	}
	if len(expression) > MaxExpressionLen || !allowed.MatchString(expression) {
		return "", ErrUnsafeExpression
	}
	return expression, nil
}

// Compile validates and compiles expression.
func Compile(expression string) (*vm.Program, error) {
	expression, err := Validate(expression)
	if err != nil {
		return nil, err
	}
	program, err := expr.Compile(expression, expr.Env(environment(0)), expr.DisableAllBuiltins())
	if err != nil {
		return nil, &ParseError{Expression: expression, Err: err}
	}
	return program, nil
}

// Sample evaluates expression at n evenly spaced points over [lo, hi].
func Sample(expression string, lo, hi float64, n int) (Series, error) {
	if n < 2 {
		return Series{}, fmt.Errorf("need at least 2 samples, got %d", n)
	}
	if !(lo < hi) {
		return Series{}, fmt.Errorf("invalid domain [%g, %g]", lo, hi)
	}
	program, err := Compile(expression)
	if err != nil {
		return Series{}, err
	}

	s := Series{
		Expression: strings.TrimSpace(expression),
		X:          make([]float64, n),
		Y:          make([]float64, n),
	}
	step := (hi - lo) / float64(n-1)
	for i := range n {
		x := lo + float64(i)*step
		if i == n-1 {
			x = hi
		}
		s.X[i] = x

		out, err := expr.Run(program, environment(x))
		if err != nil {
			s.Y[i] = math.NaN()
			continue
		}
		y, ok := toFloat(out)
		if !ok {
			return Series{}, &ParseError{Expression: s.Expression, Err: fmt.Errorf("result is %T, not a number", out)}
		}
		s.Y[i] = y
	}
	return s, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// YRange returns the y-axis window for values. A flat series gets a fixed
// window of ±5 around its value, a spread under 1 is widened to width 2, and
// anything else is padded by 10% on each side.
func YRange(values []float64) (lo, hi float64) {
	first := true
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if first {
			lo, hi = v, v
			first = false
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if first {
		return -10, 10
	}

	spread := hi - lo
	mid := (lo + hi) / 2
	switch {
	case spread < 1e-9:
		return mid - 5, mid + 5
	case spread < 1:
		return mid - 1, mid + 1
	default:
		pad := spread * 0.1
		return lo - pad, hi + pad
	}
}
