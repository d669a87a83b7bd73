package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Load reads a persisted config file. Top-level mappings are namespaces and
// every key inside one becomes the slot "<namespace>.<key>"; other top-level
// keys become top-level slots. Files ending in .json or .jsonc are accepted
// too, comments stripped with tidwall/jsonc.
func Load(fsys afero.Fs, path string) (*Tree, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		data = jsonc.ToJSON(data)
	}
	tree, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return tree, nil
}

// LoadOptional is Load returning an empty tree when path does not exist.
func LoadOptional(fsys afero.Fs, path string) (*Tree, error) {
	tree, err := Load(fsys, path)
	if os.IsNotExist(err) {
		return NewTree(), nil
	}
	return tree, err
}

// Parse decodes a YAML (or JSON) document into a tree, keeping the key order
// of the document.
func Parse(data []byte) (*Tree, error) {
	tree := NewTree()
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 {
		return tree, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("top level must be a mapping, got %s", nodeKind(root))
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i].Value, root.Content[i+1]
		if err := checkKey(key); err != nil {
			return nil, err
		}
		if val.Kind == yaml.ScalarNode && val.Tag == "!!null" {
			// "license:" with nothing below
			tree.AddNamespace(key)
			continue
		}
		if val.Kind != yaml.MappingNode {
			raw, err := decodeNode(val)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			tree.SetRaw(key, raw)
			continue
		}
		tree.AddNamespace(key)
		for j := 0; j+1 < len(val.Content); j += 2 {
			name := val.Content[j].Value
			if err := checkKey(name); err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			raw, err := decodeNode(val.Content[j+1])
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", key, name, err)
			}
			tree.SetRaw(Join(key, name), raw)
		}
	}
	return tree, nil
}

// checkKey rejects keys that cannot be told apart from a path.
func checkKey(key string) error {
	if key == "" || strings.Contains(key, ".") {
		return fmt.Errorf("invalid key %q: namespace and parameter names cannot be empty or contain '.'", key)
	}
	return nil
}

// Marshal encodes t as a YAML document in declaration order. Required slots
// are written as MissingMarker and interpolations verbatim.
func Marshal(t *Tree) ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	groups := make(map[string]*yaml.Node)

	addKey := func(parent *yaml.Node, key string, val *yaml.Node) {
		parent.Content = append(parent.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, val)
	}
	group := func(ns string) *yaml.Node {
		if g, ok := groups[ns]; ok {
			return g
		}
		g := &yaml.Node{Kind: yaml.MappingNode}
		groups[ns] = g
		addKey(root, ns, g)
		return g
	}

	for _, path := range t.order {
		val := &yaml.Node{}
		if err := val.Encode(t.slots[path].Encode()); err != nil {
			return nil, fmt.Errorf("encode %s: %w", path, err)
		}
		ns, key, found := strings.Cut(path, ".")
		if !found {
			addKey(root, path, val)
			continue
		}
		addKey(group(ns), key, val)
	}
	for _, ns := range t.namespaces {
		group(ns)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes t to path through a temp file and a rename.
func Save(fsys afero.Fs, path string, t *Tree) error {
	data, err := Marshal(t)
	if err != nil {
		return err
	}
	if err := fsys.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	tmpPath := path + ".tmp"
	if err := afero.WriteFile(fsys, tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := fsys.Rename(tmpPath, path); err != nil {
		fsys.Remove(tmpPath)
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}

func decodeNode(n *yaml.Node) (any, error) {
	var v any
	if err := n.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func nodeKind(n *yaml.Node) string {
	switch n.Kind {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "document"
	}
}
