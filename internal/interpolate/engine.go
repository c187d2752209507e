package interpolate

import (
	"log/slog"

	"github.com/dshills/strata/internal/tree"
)

// Evaluator resolves a single string against the bindings tree.
type Evaluator interface {
	Evaluate(expr string, bindings *tree.Node) (*tree.Node, error)
}

// EvaluatorFunc adapts a function to the Evaluator interface.
type EvaluatorFunc func(expr string, bindings *tree.Node) (*tree.Node, error)

func (f EvaluatorFunc) Evaluate(expr string, bindings *tree.Node) (*tree.Node, error) {
	return f(expr, bindings)
}

// Engine walks a tree and replaces each string scalar with its evaluated
// value.
type Engine struct {
	eval Evaluator
	log  *slog.Logger
}

// New returns an Engine. A nil evaluator selects TemplateEvaluator and a nil
// logger discards output.
func New(eval Evaluator, log *slog.Logger) *Engine {
	if eval == nil {
		eval = TemplateEvaluator{}
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Engine{eval: eval, log: log}
}

// Interpolate rewrites t in a single pass and returns it. Each string is
// evaluated against bindings as it stands at that moment; when bindings is t
// itself, a reference to a string that has not been visited yet yields its
// raw text. Reference cycles are not detected.
//
// The first failure aborts the pass and no tree is returned.
func (e *Engine) Interpolate(t, bindings *tree.Node) (*tree.Node, error) {
	return e.walk(t, bindings, nil)
}

func (e *Engine) walk(n, bindings *tree.Node, path []tree.Segment) (*tree.Node, error) {
	switch n.Kind() {
	case tree.Sequence:
		for i, item := range n.Items() {
			out, err := e.walk(item, bindings, append(path, tree.Segment{Index: i, IsIndex: true}))
			if err != nil {
				return nil, err
			}
			n.SetIndex(i, out)
		}
		return n, nil
	case tree.Mapping:
		for k, v := range n.Fields() {
			out, err := e.walk(v, bindings, append(path, tree.Segment{Key: k}))
			if err != nil {
				return nil, err
			}
			if out != v {
				n.Set(k, out)
			}
		}
		return n, nil
	case tree.Scalar:
		s, ok := n.Str()
		if !ok || !HasMarkers(s) {
			return n, nil
		}
		out, err := e.eval.Evaluate(s, bindings)
		if err != nil {
			return nil, &InterpolationError{Path: tree.JoinPath(path), Value: s, Err: err}
		}
		e.log.Debug("interpolated", "path", tree.JoinPath(path), "from", s, "to", out.String())
		return out, nil
	}
	return n, nil
}

// Interpolate rewrites t against bindings with the template evaluator.
func Interpolate(t, bindings *tree.Node) (*tree.Node, error) {
	return New(nil, nil).Interpolate(t, bindings)
}
