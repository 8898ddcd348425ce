package transform

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cworthy-ocean/cstarorc/internal/filelock"
	"github.com/cworthy-ocean/cstarorc/internal/model"
)

func readFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// writeDerivedBlueprint applies a dotted-path override map to a copy of the
// parsed blueprint document and writes it alongside the parent blueprint
// under a name derived from the child step, returning the new path.
// Grounded on transforms.py's pattern of materializing a derived blueprint
// file per time slice rather than mutating shared state.
func writeDerivedBlueprint(raw *yaml.Node, parentPath, childName string, overrides model.ScalarMap) (string, error) {
	doc := cloneNode(raw)
	for dotted, value := range overrides {
		if err := setDotted(doc, strings.Split(dotted, "."), value); err != nil {
			return "", fmt.Errorf("transform: apply override %q: %w", dotted, err)
		}
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("transform: marshal derived blueprint: %w", err)
	}

	dir := filepath.Dir(parentPath)
	ext := filepath.Ext(parentPath)
	childPath := filepath.Join(dir, childName+ext)
	if err := filelock.AtomicWrite(childPath, out); err != nil {
		return "", fmt.Errorf("transform: write derived blueprint: %w", err)
	}
	return childPath, nil
}

func cloneNode(n *yaml.Node) *yaml.Node {
	if n == nil {
		return nil
	}
	clone := *n
	clone.Content = make([]*yaml.Node, len(n.Content))
	for i, c := range n.Content {
		clone.Content[i] = cloneNode(c)
	}
	return &clone
}

// setDotted walks a YAML document node along a dotted key path, creating
// intermediate mapping entries as needed, and sets the final key to value.
func setDotted(doc *yaml.Node, path []string, value any) error {
	root := doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return fmt.Errorf("empty document")
		}
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return fmt.Errorf("root is not a mapping")
	}

	node := root
	for i, key := range path {
		last := i == len(path)-1

		idx := -1
		for j := 0; j < len(node.Content); j += 2 {
			if node.Content[j].Value == key {
				idx = j
				break
			}
		}

		if last {
			valNode := &yaml.Node{}
			if err := valNode.Encode(value); err != nil {
				return err
			}
			if idx >= 0 {
				node.Content[idx+1] = valNode
			} else {
				keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
				node.Content = append(node.Content, keyNode, valNode)
			}
			return nil
		}

		if idx >= 0 {
			node = node.Content[idx+1]
			if node.Kind != yaml.MappingNode {
				return fmt.Errorf("path segment %q is not a mapping", key)
			}
			continue
		}

		child := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
		node.Content = append(node.Content, keyNode, child)
		node = child
	}
	return nil
}
