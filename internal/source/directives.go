package source

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/itchyny/gojq"
	"gopkg.in/yaml.v3"

	"github.com/dshills/strata/internal/tree"
)

const (
	includeTag = "!include"
	loadTag    = "!load"
)

// hook handles the !include and !load tags of documents read under rc.
func (r *Resolver) hook(rc readCtx) tree.TagHook {
	return func(n *yaml.Node) (*tree.Node, bool, error) {
		switch n.Tag {
		case includeTag:
			args, err := parseArgs(n, false)
			if err != nil {
				return nil, true, fmt.Errorf("line %d: %s: %w", n.Line, includeTag, err)
			}
			v, err := r.include(rc, args)
			return v, true, err
		case loadTag:
			args, err := parseArgs(n, true)
			if err != nil {
				return nil, true, fmt.Errorf("line %d: %s: %w", n.Line, loadTag, err)
			}
			v, err := r.load(rc, args)
			return v, true, err
		}
		return nil, false, nil
	}
}

// directive holds the arguments of an !include or !load tag.
type directive struct {
	paths     []string
	list      bool // pathname was given as a sequence
	recursive *bool
	encoding  string
	reader    string

	// !load only.
	typ       string
	def       *tree.Node
	flatten   bool
	transform string
	key       string
}

// parseArgs accepts a scalar path, a sequence [path, recursive, encoding,
// reader] or a mapping with a pathname key.
func parseArgs(n *yaml.Node, load bool) (directive, error) {
	var d directive
	v, err := tree.FromYAML(n, nil)
	if err != nil {
		return d, err
	}
	switch v.Kind() {
	case tree.Scalar:
		d.paths = []string{v.ScalarString()}
	case tree.Sequence:
		items := v.Items()
		if len(items) == 0 || len(items) > 4 {
			return d, fmt.Errorf("want [pathname, recursive, encoding, reader], got %d items", len(items))
		}
		if err := d.setPaths(items[0]); err != nil {
			return d, err
		}
		if len(items) > 1 {
			if err := d.setRecursive(items[1]); err != nil {
				return d, err
			}
		}
		if len(items) > 2 {
			d.encoding = items[2].ScalarString()
		}
		if len(items) > 3 {
			d.reader = items[3].ScalarString()
		}
	case tree.Mapping:
		for k, val := range v.Fields() {
			if err := d.set(k, val, load); err != nil {
				return d, err
			}
		}
		if len(d.paths) == 0 {
			return d, fmt.Errorf("missing pathname")
		}
	default:
		return d, fmt.Errorf("missing pathname")
	}
	return d, nil
}

func (d *directive) set(key string, v *tree.Node, load bool) error {
	switch key {
	case "pathname":
		return d.setPaths(v)
	case "recursive":
		return d.setRecursive(v)
	case "encoding":
		d.encoding = v.ScalarString()
		return nil
	case "reader":
		d.reader = v.ScalarString()
		return nil
	}
	if !load {
		return fmt.Errorf("unknown argument %q", key)
	}
	switch key {
	case "type":
		d.typ = strings.ToLower(v.ScalarString())
	case "default":
		d.def = v
	case "flatten":
		b, ok := v.Value().(bool)
		if !ok {
			return fmt.Errorf("flatten: want bool, got %s", v.TypeName())
		}
		d.flatten = b
	case "transform":
		d.transform = v.ScalarString()
	case "key":
		d.key = v.ScalarString()
	default:
		return fmt.Errorf("unknown argument %q", key)
	}
	return nil
}

func (d *directive) setPaths(v *tree.Node) error {
	switch v.Kind() {
	case tree.Scalar:
		d.paths = []string{v.ScalarString()}
	case tree.Sequence:
		d.list = true
		for _, item := range v.Items() {
			if !item.IsScalar() {
				return fmt.Errorf("pathname: want string, got %s", item.TypeName())
			}
			d.paths = append(d.paths, item.ScalarString())
		}
	default:
		return fmt.Errorf("pathname: want string or list, got %s", v.TypeName())
	}
	return nil
}

func (d *directive) setRecursive(v *tree.Node) error {
	b, ok := v.Value().(bool)
	if !ok {
		return fmt.Errorf("recursive: want bool, got %s", v.TypeName())
	}
	d.recursive = &b
	return nil
}

// matches expands the directive paths relative to the including document. A
// literal path that does not exist is an error; a glob may match nothing.
func (r *Resolver) matches(rc readCtx, d directive) ([]string, error) {
	recursive := r.recursive
	if d.recursive != nil {
		recursive = *d.recursive
	}

	var files []string
	for _, p := range d.paths {
		found, err := r.expand(r.join(rc.dir, p), recursive)
		if err != nil {
			return nil, err
		}
		if len(found) == 0 && !hasMeta(p) {
			return nil, &NotFoundError{Source: p}
		}
		if len(found) == 0 {
			r.log.Debug("glob matched nothing", "pattern", p)
		}
		files = append(files, found...)
	}
	return files, nil
}

// readOne returns the first document of a file, or null for an empty file.
func (r *Resolver) readOne(rc readCtx, file string, d directive) (*tree.Node, error) {
	docs, err := r.readFile(rc, file, d.reader, d.encoding)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return tree.NewNull(), nil
	}
	return docs[0], nil
}

// include returns the first document of the first matching file.
func (r *Resolver) include(rc readCtx, d directive) (*tree.Node, error) {
	files, err := r.matches(rc, d)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return tree.NewNull(), nil
	}
	return r.readOne(rc, files[0], d)
}

type loaded struct {
	key   string
	value *tree.Node
}

// load reads every matching file and shapes the results by type.
func (r *Resolver) load(rc readCtx, d directive) (*tree.Node, error) {
	transform, err := compileJQ(d.transform)
	if err != nil {
		return nil, fmt.Errorf("transform: %w", err)
	}
	keyOf, err := keyFunc(d.key)
	if err != nil {
		return nil, err
	}
	files, err := r.matches(rc, d)
	if err != nil {
		return nil, err
	}

	results := make([]loaded, 0, len(files))
	for _, f := range files {
		v, err := r.readOne(rc, f, d)
		if err != nil {
			return nil, err
		}
		if transform != nil {
			if v, err = transform.run(v, f); err != nil {
				return nil, fmt.Errorf("transform %s: %w", f, err)
			}
		}
		k, err := keyOf(f, v)
		if err != nil {
			return nil, fmt.Errorf("key %s: %w", f, err)
		}
		results = append(results, loaded{key: k, value: v})
	}

	typ := d.typ
	if typ == "" {
		typ = "single"
		if d.list || hasMeta(d.paths[0]) {
			typ = "list"
		}
	}
	switch typ {
	case "single", "scalar":
		if len(results) == 0 {
			if d.def == nil {
				return tree.NewNull(), nil
			}
			return d.def, nil
		}
		return results[len(results)-1].value, nil
	case "list", "array":
		seq := tree.NewSequence()
		for _, res := range results {
			if d.flatten && res.value.IsSequence() {
				seq.Append(res.value.Items()...)
				continue
			}
			seq.Append(res.value)
		}
		return seq, nil
	case "map", "dict", "hash":
		m := tree.NewMapping()
		for _, res := range results {
			if !d.flatten {
				m.Set(res.key, res.value)
				continue
			}
			if !res.value.IsMapping() && !res.value.IsNull() {
				return nil, fmt.Errorf("flatten %s: want mapping, got %s", res.key, res.value.TypeName())
			}
			for k, v := range res.value.Fields() {
				m.Set(k, v)
			}
		}
		return m, nil
	}
	return nil, fmt.Errorf("unknown load type %q", d.typ)
}

// keyFunc returns how a loaded file is keyed in a map result: the file stem
// by default, a file name attribute, or a jq expression after a '%'.
func keyFunc(key string) (func(file string, v *tree.Node) (string, error), error) {
	if expr, ok := strings.CutPrefix(key, "%"); ok {
		q, err := compileJQ(expr)
		if err != nil {
			return nil, fmt.Errorf("key: %w", err)
		}
		if q == nil {
			return nil, fmt.Errorf("key: empty expression")
		}
		return func(file string, v *tree.Node) (string, error) {
			out, err := q.run(v, file)
			if err != nil {
				return "", err
			}
			if out.IsMapping() || out.IsSequence() || out.IsNull() {
				return "", fmt.Errorf("want a scalar key, got %s", out.TypeName())
			}
			return out.ScalarString(), nil
		}, nil
	}
	attr := key
	if attr == "" {
		attr = "stem"
	}
	switch attr {
	case "name", "stem", "suffix", "parent", "path":
	default:
		return nil, fmt.Errorf("unknown key attribute %q", key)
	}
	return func(file string, _ *tree.Node) (string, error) {
		return pathInfo(file)[attr].(string), nil
	}, nil
}

// jqProgram evaluates a jq expression over {value, pathname}.
type jqProgram struct {
	code *gojq.Code
}

func compileJQ(expr string) (*jqProgram, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, nil
	}
	q, err := gojq.Parse(expr)
	if err != nil {
		return nil, err
	}
	code, err := gojq.Compile(q)
	if err != nil {
		return nil, err
	}
	return &jqProgram{code: code}, nil
}

// run returns the first output of the program.
func (p *jqProgram) run(v *tree.Node, file string) (*tree.Node, error) {
	input := map[string]any{
		"value":    jqValue(v.ToAny()),
		"pathname": pathInfo(filepath.Clean(file)),
	}
	iter := p.code.Run(input)
	out, ok := iter.Next()
	if !ok {
		return tree.NewNull(), nil
	}
	if err, ok := out.(error); ok {
		return nil, err
	}
	return tree.FromAny(out)
}

// jqValue converts tree values to the types gojq accepts.
func jqValue(v any) any {
	switch x := v.(type) {
	case int64:
		return int(x)
	case []any:
		for i := range x {
			x[i] = jqValue(x[i])
		}
		return x
	case map[string]any:
		for k := range x {
			x[k] = jqValue(x[k])
		}
		return x
	}
	return v
}
