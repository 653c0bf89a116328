package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"examlock.dev/sebconf/value"
)

// readConfigJSON loads a configuration document from a JSON file. This is
// CLI plumbing only: the value model itself never guesses types, so the
// mapping is fixed here — integral JSON numbers become Int, all others
// Real, and JSON null becomes the explicit Null value.
func readConfigJSON(path string) (value.Dict, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	doc, err := dictFromJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

func dictFromJSON(m map[string]any) (value.Dict, error) {
	d := make(value.Dict, len(m))
	for k, v := range m {
		val, err := valueFromJSON(v)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		d[k] = val
	}
	return d, nil
}

func valueFromJSON(v any) (value.Value, error) {
	switch v := v.(type) {
	case nil:
		return value.Null{}, nil
	case bool:
		return value.Bool(v), nil
	case string:
		return value.String(v), nil
	case json.Number:
		s := v.String()
		if !strings.ContainsAny(s, ".eE") {
			n, err := v.Int64()
			if err == nil {
				return value.Int(n), nil
			}
		}
		f, err := v.Float64()
		if err != nil {
			return nil, err
		}
		return value.Real(f), nil
	case []any:
		l := make(value.List, 0, len(v))
		for _, item := range v {
			val, err := valueFromJSON(item)
			if err != nil {
				return nil, err
			}
			l = append(l, val)
		}
		return l, nil
	case map[string]any:
		return dictFromJSON(v)
	default:
		return nil, fmt.Errorf("unsupported JSON value %T", v)
	}
}
