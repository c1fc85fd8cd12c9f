package surface

import (
	"sort"
	"strings"

	"archlens/internal/analysis"
)

// BuildTree builds the directory tree from slash separated relative paths,
// sorts it and collapses single-child directory chains.
func BuildTree(rootName string, files []fileEntry) *analysis.TreeNode {
	root := &analysis.TreeNode{Name: rootName, Path: ".", IsDir: true}
	dirs := map[string]*analysis.TreeNode{".": root}

	for _, f := range files {
		parts := strings.Split(f.Path, "/")
		parent := root
		for i := 0; i < len(parts)-1; i++ {
			dirPath := strings.Join(parts[:i+1], "/")
			dir, ok := dirs[dirPath]
			if !ok {
				dir = &analysis.TreeNode{Name: parts[i], Path: dirPath, IsDir: true}
				dirs[dirPath] = dir
				parent.Children = append(parent.Children, dir)
			}
			parent = dir
		}
		parent.Children = append(parent.Children, &analysis.TreeNode{
			Name: parts[len(parts)-1],
			Path: f.Path,
			Size: f.Size,
		})
	}

	sortTree(root)
	CollapseTree(root)
	return root
}

func sortTree(node *analysis.TreeNode) {
	sort.SliceStable(node.Children, func(i, j int) bool {
		a, b := node.Children[i], node.Children[j]
		if a.IsDir != b.IsDir {
			return a.IsDir
		}
		return a.Name < b.Name
	})
	for _, child := range node.Children {
		if child.IsDir {
			sortTree(child)
		}
	}
}

// CollapseTree merges every directory whose only child is a directory with that child
// ("a" containing only "b" becomes "a/b"), recursively. The root itself is never merged.
// Collapsing an already collapsed tree is a no-op.
func CollapseTree(root *analysis.TreeNode) {
	if root == nil {
		return
	}
	for i, child := range root.Children {
		if child.IsDir {
			root.Children[i] = collapseDir(child)
		}
	}
}

func collapseDir(node *analysis.TreeNode) *analysis.TreeNode {
	for len(node.Children) == 1 && node.Children[0].IsDir {
		only := node.Children[0]
		node = &analysis.TreeNode{
			Name:     node.Name + "/" + only.Name,
			Path:     only.Path,
			IsDir:    true,
			Children: only.Children,
		}
	}
	for i, child := range node.Children {
		if child.IsDir {
			node.Children[i] = collapseDir(child)
		}
	}
	return node
}
