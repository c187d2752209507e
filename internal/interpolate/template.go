package interpolate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/nikolalohinski/gonja"
	"github.com/nikolalohinski/gonja/config"
	"github.com/nikolalohinski/gonja/exec"
	"github.com/nikolalohinski/gonja/nodes"

	"github.com/dshills/strata/internal/tree"
)

var (
	markers = []string{"{{", "{%", "{#"}
	// singleExpr matches a string that is one {{ ... }} expression and
	// nothing else.
	singleExpr = regexp.MustCompile(`^\s*\{\{-?\s*(.*?)\s*-?\}\}\s*$`)
	literals   = map[string]bool{"true": true, "false": true, "none": true}

	// strictEnv fails on undefined names, attributes and items.
	strictEnv = newEnvironment(true)
	// fileEnv renders template files, where undefined names render empty.
	fileEnv = newEnvironment(false)
)

func newEnvironment(strict bool) *gonja.Environment {
	cfg := config.NewConfig()
	cfg.StrictUndefined = strict
	return gonja.NewEnvironment(cfg, gonja.DefaultLoader)
}

// HasMarkers reports whether s contains Jinja template syntax.
func HasMarkers(s string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// TemplateEvaluator evaluates Jinja templates with gonja. References to
// undefined names, attributes or items are errors.
//
// A string that is exactly one `{{ path }}` with a plain dotted or indexed
// path resolves straight to the node at that path, keeping its type and key
// order. Any other single-expression string is evaluated to its native
// value, so `{{ port + 1 }}` stays an integer and a string result stays a
// string. Everything else is rendered as text.
type TemplateEvaluator struct{}

func (TemplateEvaluator) Evaluate(expr string, bindings *tree.Node) (*tree.Node, error) {
	if !HasMarkers(expr) {
		return tree.String(expr), nil
	}
	m := singleExpr.FindStringSubmatch(expr)
	single := m != nil && !HasMarkers(m[1]) && !strings.Contains(m[1], "}}")
	if single {
		if segs, ok := plainPath(m[1]); ok {
			v, found := bindings.Lookup(segs)
			if !found {
				return nil, fmt.Errorf("%s: %w", m[1], ErrUndefined)
			}
			return v.Clone(), nil
		}
	}

	tpl, err := strictEnv.FromString(expr)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	ctx := Context(bindings)
	if out := soleOutput(tpl.Root); single && out != nil {
		return evalOutput(out, ctx)
	}
	text, err := tpl.Execute(ctx)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}
	return tree.String(text), nil
}

// Render renders a Jinja template file with the given context. Undefined
// names render as empty text.
func Render(src string, ctx map[string]any) (string, error) {
	tpl, err := fileEnv.FromString(src)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}
	out, err := tpl.Execute(ctx)
	if err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}
	return out, nil
}

// Context converts a bindings tree to a template context. Only mapping roots
// contribute variables.
func Context(bindings *tree.Node) map[string]any {
	if m, ok := bindings.ToAny().(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// soleOutput returns the only {{ }} node of root when everything around it
// is whitespace.
func soleOutput(root *nodes.Template) *nodes.Output {
	var out *nodes.Output
	for _, n := range root.Nodes {
		switch x := n.(type) {
		case *nodes.Output:
			if out != nil {
				return nil
			}
			out = x
		case *nodes.Data:
			if strings.TrimSpace(x.Data.Val) != "" {
				return nil
			}
		default:
			return nil
		}
	}
	return out
}

// evalOutput evaluates a {{ }} node, including the inline if/else form, to
// a tree value.
func evalOutput(out *nodes.Output, ctx map[string]any) (*tree.Node, error) {
	e := &exec.Evaluator{EvalConfig: strictEnv.EvalConfig, Ctx: strictEnv.Globals.Inherit()}
	e.Ctx.Update(ctx)

	expr := out.Expression
	if out.Condition != nil {
		cond := e.Eval(out.Condition)
		if cond.IsError() {
			return nil, fmt.Errorf("evaluate condition: %s", cond.Error())
		}
		if cond.IsNil() || !cond.IsTrue() {
			if out.Alternative == nil {
				return tree.String(""), nil
			}
			expr = out.Alternative
		}
	}
	v := e.Eval(expr)
	if v.IsError() {
		return nil, fmt.Errorf("evaluate %s: %s", expr, v.Error())
	}
	if v.IsString() {
		return tree.String(v.String()), nil
	}
	if n, err := tree.FromAny(v.ToGoSimpleType(false)); err == nil {
		return n, nil
	}
	return tree.String(v.String()), nil
}

func plainPath(expr string) ([]tree.Segment, bool) {
	if expr == "" {
		return nil, false
	}
	first := expr[0]
	if first != '_' && (first < 'a' || first > 'z') && (first < 'A' || first > 'Z') {
		return nil, false
	}
	segs, err := tree.ParsePath(expr)
	if err != nil {
		return nil, false
	}
	if len(segs) == 1 && literals[strings.ToLower(segs[0].Key)] {
		return nil, false
	}
	return segs, true
}
