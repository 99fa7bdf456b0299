package cmdutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/leefowlercu/imagedrop/internal/editor"
)

// Output formats accepted by --format flags.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
	FormatTOML = "toml"
)

// ValidateFormat rejects unknown output formats.
func ValidateFormat(format string) error {
	switch format {
	case FormatYAML, FormatJSON, FormatTOML:
		return nil
	default:
		return fmt.Errorf("invalid format %q; must be one of: yaml, json, toml", format)
	}
}

// Write renders v to w in the given format.
func Write(w io.Writer, format string, v any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode json; %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode yaml; %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("failed to encode yaml; %w", err)
		}
	case FormatTOML:
		if err := writeTOML(w, v); err != nil {
			return err
		}
	default:
		return ValidateFormat(format)
	}
	return nil
}

// writeTOML encodes v through its JSON form so the json tags name the keys.
// The top level must be an object.
func writeTOML(w io.Writer, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode toml; %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("failed to encode toml; %w", err)
	}

	table, ok := tomlValue(doc).(map[string]any)
	if !ok {
		return fmt.Errorf("failed to encode toml; top level must be an object, got %T", doc)
	}

	enc := toml.NewEncoder(w)
	enc.SetIndentTables(true)
	if err := enc.Encode(table); err != nil {
		return fmt.Errorf("failed to encode toml; %w", err)
	}
	return nil
}

// tomlValue converts decoded JSON numbers and drops nulls, which TOML lacks.
func tomlValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			if e == nil {
				continue
			}
			out[k] = tomlValue(e)
		}
		return out
	case []any:
		out := make([]any, 0, len(t))
		for _, e := range t {
			if e != nil {
				out = append(out, tomlValue(e))
			}
		}
		return out
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		f, _ := t.Float64()
		return f
	default:
		return v
	}
}

// abbreviateAt is the embed value length kept by AbbreviateEmbeds.
const abbreviateAt = 48

// AbbreviateEmbeds returns a copy of snap with long embed values shortened
// for display.
func AbbreviateEmbeds(snap editor.Snapshot) editor.Snapshot {
	out := snap
	out.Ops = make([]editor.Op, len(snap.Ops))
	for i, op := range snap.Ops {
		out.Ops[i] = op
		if op.Embed == nil {
			continue
		}
		embed := make(map[string]string, len(op.Embed))
		for k, v := range op.Embed {
			if len(v) > abbreviateAt {
				v = fmt.Sprintf("%s...(%d bytes)", v[:abbreviateAt], len(v))
			}
			embed[k] = v
		}
		out.Ops[i].Embed = embed
	}
	return out
}
