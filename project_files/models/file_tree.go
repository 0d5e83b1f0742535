package models

import "time"

const (
	KindFile      = "file"
	KindDirectory = "directory"
)

// FileTreeNode is one entry of a project tree. Path is relative to the project root
// and uses forward slashes. A file node never has children.
type FileTreeNode struct {
	Name     string          `json:"name" yaml:"name"`
	Kind     string          `json:"type" yaml:"type"`
	Path     string          `json:"path" yaml:"path"`
	Size     int64           `json:"size,omitempty" yaml:"size,omitempty"`
	Children []*FileTreeNode `json:"children,omitempty" yaml:"children,omitempty"`
}

func (n *FileTreeNode) IsFile() bool {
	return n.Kind == KindFile
}

// Files returns every file path below n in depth-first order.
func (n *FileTreeNode) Files() []string {
	var paths []string
	n.Walk(func(node *FileTreeNode) {
		if node.IsFile() {
			paths = append(paths, node.Path)
		}
	})
	return paths
}

// Walk visits n and its descendants depth-first, parents before children.
func (n *FileTreeNode) Walk(visit func(node *FileTreeNode)) {
	if n == nil {
		return
	}
	visit(n)
	for _, child := range n.Children {
		child.Walk(visit)
	}
}

type FileMetadata struct {
	Path       string    `json:"file_path" yaml:"file_path"`
	Name       string    `json:"file_name" yaml:"file_name"`
	Extension  string    `json:"file_type" yaml:"file_type"`
	Size       int64     `json:"file_size" yaml:"file_size"`
	ModTime    time.Time `json:"modified_time" yaml:"modified_time"`
	IsReadable bool      `json:"is_readable" yaml:"is_readable"`
	Supported  bool      `json:"supported" yaml:"supported"`
}
