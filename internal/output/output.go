// Package output renders repository trees and documents in raw, JSON, Markdown, and HTML form.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/temirov/repodoc/internal/types"
)

const (
	indentPrefix = ""
	indentSpacer = "  "

	treeBranchConnector = "├── "
	treeLastConnector   = "└── "
	treeBranchPadding   = "│   "
	treeLastPadding     = "    "
	directorySuffix     = "/"

	summaryLineFormat = "Summary: %d %s, %d %s"
)

// RenderTree returns one line per node below root using box-drawing connectors.
// Files are listed before directories and each group is ordered by name; the tree itself is not reordered.
func RenderTree(root *types.Node) string {
	if root == nil || len(root.Children) == 0 {
		return ""
	}
	var buffer bytes.Buffer
	WriteTree(&buffer, root)
	return string(bytes.TrimRight(buffer.Bytes(), "\n"))
}

// WriteTree writes the rendered tree below root to writer.
func WriteTree(writer io.Writer, root *types.Node) {
	if root == nil {
		return
	}
	children := displayOrder(root.Children)
	for index, child := range children {
		renderTreeNode(writer, child, "", index == len(children)-1)
	}
}

// RenderTreeJSON marshals the tree with two-space indentation.
func RenderTreeJSON(root *types.Node) (string, error) {
	if root == nil {
		root = types.NewRootNode()
	}
	encoded, encodeErr := json.MarshalIndent(root, indentPrefix, indentSpacer)
	if encodeErr != nil {
		return "", encodeErr
	}
	return string(encoded), nil
}

// FormatSummaryLine formats tree counts for the raw tree output.
func FormatSummaryLine(counts types.Counts) string {
	fileLabel := "files"
	if counts.Files == 1 {
		fileLabel = "file"
	}
	directoryLabel := "directories"
	if counts.Directories == 1 {
		directoryLabel = "directory"
	}
	return fmt.Sprintf(summaryLineFormat, counts.Files, fileLabel, counts.Directories, directoryLabel)
}

func treeNodeLinePrefix(prefix string, isLast bool) (string, string) {
	connector := treeBranchConnector
	childPrefix := prefix + treeBranchPadding
	if isLast {
		connector = treeLastConnector
		childPrefix = prefix + treeLastPadding
	}
	return prefix + connector, childPrefix
}

func renderTreeNode(writer io.Writer, node *types.Node, prefix string, isLast bool) {
	if node == nil {
		return
	}
	linePrefix, childPrefix := treeNodeLinePrefix(prefix, isLast)
	if !node.IsDirectory() {
		fmt.Fprintf(writer, "%s%s\n", linePrefix, node.Name)
		return
	}
	fmt.Fprintf(writer, "%s%s%s\n", linePrefix, node.Name, directorySuffix)
	children := displayOrder(node.Children)
	for index, child := range children {
		renderTreeNode(writer, child, childPrefix, index == len(children)-1)
	}
}

// displayOrder returns a sorted copy of nodes: files first, then directories, each by name.
func displayOrder(nodes []*types.Node) []*types.Node {
	ordered := make([]*types.Node, 0, len(nodes))
	for _, node := range nodes {
		if node != nil {
			ordered = append(ordered, node)
		}
	}
	sort.SliceStable(ordered, func(left, right int) bool {
		leftDirectory := ordered[left].IsDirectory()
		rightDirectory := ordered[right].IsDirectory()
		if leftDirectory != rightDirectory {
			return !leftDirectory
		}
		return ordered[left].Name < ordered[right].Name
	})
	return ordered
}
