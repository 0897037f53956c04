package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// SaveConnectionString writes connection.string into the config file at
// configPath, creating the file when it does not exist. Existing keys,
// ordering and comments are preserved.
func SaveConnectionString(configPath, connectionString string) error {
	var root yaml.Node

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil && len(strings.TrimSpace(string(data))) > 0:
		if err := yaml.Unmarshal(data, &root); err != nil {
			return fmt.Errorf("failed to parse config file: %w", err)
		}
	case err == nil || os.IsNotExist(err):
		root = yaml.Node{
			Kind: yaml.DocumentNode,
			Content: []*yaml.Node{{
				Kind: yaml.MappingNode,
				Tag:  "!!map",
				Content: []*yaml.Node{
					scalarNode("version"), {Kind: yaml.ScalarNode, Tag: "!!int", Value: fmt.Sprint(CurrentConfigVersion)},
				},
			}},
		}
	default:
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return fmt.Errorf("invalid YAML document structure")
	}

	docNode := root.Content[0]
	if docNode.Kind != yaml.MappingNode {
		return fmt.Errorf("expected mapping at document root")
	}

	connNode := findMapValue(docNode, "connection")
	if connNode == nil {
		connNode = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		docNode.Content = append(docNode.Content, scalarNode("connection"), connNode)
	}
	if connNode.Kind != yaml.MappingNode {
		return fmt.Errorf("'connection' in config must be a mapping")
	}

	if strNode := findMapValue(connNode, "string"); strNode != nil {
		strNode.Kind = yaml.ScalarNode
		strNode.Tag = "!!str"
		strNode.Value = connectionString
		strNode.Style = yaml.DoubleQuotedStyle
	} else {
		value := scalarNode(connectionString)
		value.Style = yaml.DoubleQuotedStyle
		connNode.Content = append(connNode.Content, scalarNode("string"), value)
	}

	var buf strings.Builder
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&root); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	encoder.Close()

	if dir := filepath.Dir(configPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	// The connection string usually carries a password.
	if err := os.WriteFile(configPath, []byte(buf.String()), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func scalarNode(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}

// findMapValue finds a value in a mapping node by key name.
func findMapValue(node *yaml.Node, key string) *yaml.Node {
	if node.Kind != yaml.MappingNode {
		return nil
	}

	for i := 0; i < len(node.Content)-1; i += 2 {
		keyNode := node.Content[i]
		valueNode := node.Content[i+1]

		if keyNode.Kind == yaml.ScalarNode && keyNode.Value == key {
			return valueNode
		}
	}

	return nil
}
