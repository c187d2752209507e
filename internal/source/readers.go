package source

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/buger/jsonparser"
	"github.com/pelletier/go-toml/v2"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/dshills/strata/internal/interpolate"
	"github.com/dshills/strata/internal/tree"
)

type readFunc func(r *Resolver, rc readCtx, data []byte) ([]*tree.Node, error)

// reader parses one file format. pattern is matched against the lower-cased
// base name of the file.
type reader struct {
	names   []string
	pattern string
	read    readFunc
}

func defaultReaders() []reader {
	return []reader{
		{names: []string{"yaml", "yml"}, pattern: "*.{yaml,yml}", read: readYAML},
		{names: []string{"json", "jsonc"}, pattern: "*.{json,jsonc}", read: readJSON},
		{names: []string{"toml"}, pattern: "*.toml", read: readTOML},
		{names: []string{"jinja2", "j2", "jinja"}, pattern: "*.{j2,jinja2,jinja}", read: readJinja},
	}
}

// ReaderNames lists the reader names accepted by Source.Reader and the
// `reader` tag argument.
func ReaderNames() []string {
	var names []string
	for _, rd := range defaultReaders() {
		names = append(names, rd.names[0])
	}
	return names
}

// readerFor picks a reader by explicit name, else by file name. Unknown
// extensions and inline documents are read as YAML.
func (r *Resolver) readerFor(file, name string) (reader, error) {
	if name != "" {
		for _, rd := range r.readers {
			for _, n := range rd.names {
				if strings.EqualFold(n, name) {
					return rd, nil
				}
			}
		}
		return reader{}, fmt.Errorf("unknown reader %q (want one of %s)", name, strings.Join(ReaderNames(), ", "))
	}
	base := strings.ToLower(filepath.Base(file))
	for _, rd := range r.readers {
		if ok, _ := doublestar.Match(rd.pattern, base); ok {
			return rd, nil
		}
	}
	return r.readers[0], nil
}

func readYAML(r *Resolver, rc readCtx, data []byte) ([]*tree.Node, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	hook := r.hook(rc)
	var docs []*tree.Node
	for {
		var doc yaml.Node
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
		n, err := tree.FromYAML(&doc, hook)
		if err != nil {
			return nil, err
		}
		docs = append(docs, n)
	}
	return docs, nil
}

// readJSON accepts JSON with comments and trailing commas.
func readJSON(_ *Resolver, _ readCtx, data []byte) ([]*tree.Node, error) {
	data = jsonc.ToJSON(data)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	value, typ, _, err := jsonparser.Get(data)
	if err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	n, err := fromJSON(value, typ)
	if err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return []*tree.Node{n}, nil
}

// fromJSON builds a tree from a raw JSON value, keeping object key order.
func fromJSON(value []byte, typ jsonparser.ValueType) (*tree.Node, error) {
	switch typ {
	case jsonparser.Null:
		return tree.NewNull(), nil
	case jsonparser.Boolean:
		b, err := jsonparser.ParseBoolean(value)
		if err != nil {
			return nil, err
		}
		return tree.Bool(b), nil
	case jsonparser.Number:
		if i, err := jsonparser.ParseInt(value); err == nil {
			return tree.Int(i), nil
		}
		f, err := jsonparser.ParseFloat(value)
		if err != nil {
			return nil, err
		}
		return tree.Float(f), nil
	case jsonparser.String:
		s, err := jsonparser.ParseString(value)
		if err != nil {
			return nil, err
		}
		return tree.String(s), nil
	case jsonparser.Array:
		seq := tree.NewSequence()
		var inner error
		_, err := jsonparser.ArrayEach(value, func(item []byte, t jsonparser.ValueType, _ int, err error) {
			if inner != nil {
				return
			}
			if err != nil {
				inner = err
				return
			}
			n, err := fromJSON(item, t)
			if err != nil {
				inner = err
				return
			}
			seq.Append(n)
		})
		if err == nil {
			err = inner
		}
		if err != nil {
			return nil, err
		}
		return seq, nil
	case jsonparser.Object:
		m := tree.NewMapping()
		err := jsonparser.ObjectEach(value, func(key, item []byte, t jsonparser.ValueType, _ int) error {
			k, err := jsonparser.ParseString(key)
			if err != nil {
				return err
			}
			n, err := fromJSON(item, t)
			if err != nil {
				return err
			}
			m.Set(k, n)
			return nil
		})
		if err != nil {
			return nil, err
		}
		return m, nil
	}
	return nil, fmt.Errorf("unexpected value %q", value)
}

// readTOML decodes a TOML document. TOML tables carry no order, so keys come
// out sorted.
func readTOML(_ *Resolver, _ readCtx, data []byte) ([]*tree.Node, error) {
	var m map[string]any
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse toml: %w", err)
	}
	n, err := tree.FromAny(m)
	if err != nil {
		return nil, err
	}
	return []*tree.Node{n}, nil
}

// readJinja renders the file as a template and hands the output to the
// reader for the name without its template extension, so `app.yaml.j2` is
// read as YAML.
func readJinja(r *Resolver, rc readCtx, data []byte) ([]*tree.Node, error) {
	out, err := interpolate.Render(string(data), map[string]any{
		"pathname": filepath.ToSlash(rc.path),
		"file":     pathInfo(rc.path),
	})
	if err != nil {
		return nil, err
	}
	stem := strings.TrimSuffix(rc.path, filepath.Ext(rc.path))
	rd, err := r.readerFor(stem, "")
	if err != nil {
		return nil, err
	}
	return rd.read(r, rc, []byte(out))
}

// pathInfo exposes the parts of a file name to templates and jq
// expressions.
func pathInfo(p string) map[string]any {
	base := filepath.Base(p)
	ext := filepath.Ext(base)
	return map[string]any{
		"path":   filepath.ToSlash(p),
		"name":   base,
		"stem":   strings.TrimSuffix(base, ext),
		"suffix": ext,
		"parent": filepath.ToSlash(filepath.Dir(p)),
	}
}
