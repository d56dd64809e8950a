// Copyright 2026 Red Hat
// SPDX-License-Identifier: Apache-2.0

package inventory

import (
	"bytes"
	stdjson "encoding/json"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	sigyaml "sigs.k8s.io/yaml"

	"esxinventory/internal/constants"
)

// Map keys are sorted, which keeps the output stable across runs.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

const indent = "    "

// Tree converts the document into the untyped shape Ansible reads:
//
//	{"all": {"children": [...]}, "<group>": {"hosts": [...]}, "_meta": {"hostvars": {...}}}
func (d *Document) Tree() any {
	tree := map[string]any{
		"all":   map[string]any{"children": d.Children},
		"_meta": map[string]any{"hostvars": d.HostVars},
	}
	for _, name := range d.Children {
		tree[name] = map[string]any{"hosts": d.Groups[name].Hosts}
	}
	return tree
}

// Tree returns the matched host's attributes, or an empty object.
func (h HostDocument) Tree() any {
	if !h.found {
		return map[string]any{}
	}
	return h.vars
}

// Treer is implemented by documents that can be serialised.
type Treer interface {
	Tree() any
}

// Render serialises doc in the given format. Nothing is written anywhere,
// so callers can discard the result on error without emitting partial output.
func Render(doc Treer, format string) ([]byte, error) {
	data, err := json.Marshal(doc.Tree())
	if err != nil {
		return nil, fmt.Errorf("encoding inventory: %w", err)
	}

	switch format {
	case "", constants.OutputJSON:
		// jsoniter does not carry the indent depth through interface values.
		var buf bytes.Buffer
		if err := stdjson.Indent(&buf, data, "", indent); err != nil {
			return nil, fmt.Errorf("indenting inventory: %w", err)
		}
		buf.WriteByte('\n')
		return buf.Bytes(), nil
	case constants.OutputYAML:
		out, err := sigyaml.JSONToYAML(data)
		if err != nil {
			return nil, fmt.Errorf("converting inventory to YAML: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
}
