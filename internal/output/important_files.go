package output

import (
	"strings"

	"github.com/temirov/repodoc/internal/types"
)

// DefaultImportantFileLimit caps how many files have their contents inlined.
const DefaultImportantFileLimit = 5

var (
	importantFileNames = map[string]struct{}{
		"readme.md":        {},
		"package.json":     {},
		"requirements.txt": {},
		"go.mod":           {},
	}
	importantFileExtensions = []string{".py", ".js", ".ts", ".go"}
)

// SelectImportantFiles returns up to limit file paths worth inlining, depth first in tree order.
// A non-positive limit selects nothing.
func SelectImportantFiles(root *types.Node, limit int) []string {
	if root == nil || limit <= 0 {
		return nil
	}
	var selected []string
	var visit func(node *types.Node)
	visit = func(node *types.Node) {
		if node == nil || len(selected) >= limit {
			return
		}
		if !node.IsDirectory() {
			if isImportantFile(node.Name) {
				selected = append(selected, node.Path)
			}
			return
		}
		for _, child := range node.Children {
			visit(child)
		}
	}
	visit(root)
	return selected
}

func isImportantFile(name string) bool {
	lowered := strings.ToLower(name)
	if _, ok := importantFileNames[lowered]; ok {
		return true
	}
	for _, extension := range importantFileExtensions {
		if strings.HasSuffix(lowered, extension) {
			return true
		}
	}
	return false
}
