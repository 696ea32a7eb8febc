package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// RootDirectory is the top-level directory name planned structures use.
const RootDirectory = "project"

type NodeType string

const (
	NodeDirectory NodeType = "directory"
	NodeFile      NodeType = "file"
)

// FileNode is a directory with children or a file with a generation
// directive. Prompt never holds file content.
type FileNode struct {
	Type     NodeType `json:"type"`
	Prompt   string   `json:"prompt,omitempty"`
	Children *Nodes   `json:"children,omitempty"`
}

// Nodes is a JSON object of named nodes that keeps the key order it was
// decoded or built with.
type Nodes struct {
	names  []string
	byName map[string]*FileNode
}

func (n *Nodes) Set(name string, node *FileNode) {
	if n.byName == nil {
		n.byName = make(map[string]*FileNode)
	}
	if _, exists := n.byName[name]; !exists {
		n.names = append(n.names, name)
	}
	n.byName[name] = node
}

func (n *Nodes) Get(name string) (*FileNode, bool) {
	if n == nil {
		return nil, false
	}
	node, ok := n.byName[name]
	return node, ok
}

// Names returns the node names in order.
func (n *Nodes) Names() []string {
	if n == nil {
		return nil
	}
	out := make([]string, len(n.names))
	copy(out, n.names)
	return out
}

func (n *Nodes) Len() int {
	if n == nil {
		return 0
	}
	return len(n.names)
}

func (n Nodes) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range n.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(n.byName[name])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (n *Nodes) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}
	n.names = nil
	n.byName = make(map[string]*FileNode)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}
		var node FileNode
		if err := dec.Decode(&node); err != nil {
			return fmt.Errorf("node %q: %w", name, err)
		}
		n.Set(name, &node)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// FileStructure is the planned project tree, keyed by root directory name.
type FileStructure struct {
	Nodes
}

// NewFileStructure returns an empty structure with a single root directory.
func NewFileStructure(root string) *FileStructure {
	fs := &FileStructure{}
	fs.Set(root, &FileNode{Type: NodeDirectory, Children: &Nodes{}})
	return fs
}

// AddFile adds a file directive under the root directory.
func (fs *FileStructure) AddFile(name, prompt string) {
	root := fs.Root()
	if root == nil {
		return
	}
	if root.Children == nil {
		root.Children = &Nodes{}
	}
	root.Children.Set(name, &FileNode{Type: NodeFile, Prompt: prompt})
}

// Root returns the first top-level directory node.
func (fs *FileStructure) Root() *FileNode {
	if fs == nil {
		return nil
	}
	for _, name := range fs.names {
		if node := fs.byName[name]; node != nil && node.Type == NodeDirectory {
			return node
		}
	}
	return nil
}

// FileNames lists the files under the root directory in planned order. A
// structure without a root directory falls back to its top-level files.
func (fs *FileStructure) FileNames() []string {
	if fs == nil {
		return nil
	}
	container := &fs.Nodes
	if root := fs.Root(); root != nil {
		container = root.Children
	}
	var names []string
	for _, name := range container.Names() {
		if node, _ := container.Get(name); node != nil && node.Type == NodeFile {
			names = append(names, name)
		}
	}
	return names
}

// Directive returns the generation directive planned for fileName.
func (fs *FileStructure) Directive(fileName string) (string, bool) {
	if fs == nil {
		return "", false
	}
	container := &fs.Nodes
	if root := fs.Root(); root != nil {
		container = root.Children
	}
	node, ok := container.Get(fileName)
	if !ok || node == nil || node.Type != NodeFile {
		return "", false
	}
	prompt := strings.TrimSpace(node.Prompt)
	return prompt, prompt != ""
}

// Validate checks the flat layout: one root directory holding only files.
func (fs *FileStructure) Validate() error {
	if fs == nil || fs.Len() == 0 {
		return errors.New("file structure is empty")
	}
	root := fs.Root()
	if root == nil {
		return errors.New("file structure has no root directory")
	}
	if root.Children.Len() == 0 {
		return errors.New("root directory has no files")
	}
	for _, name := range root.Children.Names() {
		node, _ := root.Children.Get(name)
		if node == nil {
			return fmt.Errorf("node %q is empty", name)
		}
		switch node.Type {
		case NodeFile:
		case NodeDirectory:
			return fmt.Errorf("nested directory %q is not supported", name)
		default:
			return fmt.Errorf("node %q has unknown type %q", name, node.Type)
		}
	}
	return nil
}
