// Package filetree turns a flat, unordered remote listing into a rooted hierarchical tree.
package filetree

import (
	"fmt"
	"sort"
	"strings"

	"github.com/temirov/repodoc/internal/pathfilter"
	"github.com/temirov/repodoc/internal/types"
)

const (
	pathSeparator = "/"
	rootPath      = "/"

	missingFieldsMessage     = "entry is missing a path or type"
	emptySegmentMessage      = "entry path contains an empty segment"
	patternFallbackMessage   = "pattern could not be compiled; substring matching is used"
	sortFailureMessageFormat = "entries could not be sorted, original order kept: %v"
	orphanMessageFormat      = "parent %s could not be resolved; attached to root"
)

// Result carries the built tree along with every non-fatal diagnostic raised while building it.
type Result struct {
	Root    *types.Node
	Notices []types.Notice
}

// BuildFileTree constructs the hierarchical tree for entries.
// Entries matching ignorePatterns are dropped, as are entries deeper than maxDepth
// when maxDepth is not negative. Missing intermediate directories are synthesized.
// Children keep the order in which they were attached during the sorted pass.
func BuildFileTree(entries []types.Entry, ignorePatterns []string, maxDepth int) Result {
	root := types.NewRootNode()
	result := Result{Root: root}
	if len(entries) == 0 {
		return result
	}

	filter := pathfilter.Compile(ignorePatterns)
	for _, degradedPattern := range filter.Degraded() {
		result.Notices = append(result.Notices, types.Notice{
			Kind:    types.NoticePatternFallback,
			Pattern: degradedPattern,
			Message: patternFallbackMessage,
		})
	}

	orderedEntries, sortErr := sortEntries(entries, byPath)
	if sortErr != nil {
		result.Notices = append(result.Notices, types.Notice{
			Kind:    types.NoticeSortFailure,
			Message: fmt.Sprintf(sortFailureMessageFormat, sortErr),
		})
	}

	builder := &treeBuilder{
		directories: map[string]*types.Node{rootPath: root},
		files:       map[string]struct{}{},
		filter:      filter,
		maxDepth:    maxDepth,
	}
	for _, entry := range orderedEntries {
		builder.add(entry)
	}
	result.Notices = append(result.Notices, builder.notices...)
	return result
}

// CountFiles returns the number of file and directory nodes in the tree, the root included.
func CountFiles(node *types.Node) types.Counts {
	var counts types.Counts
	if node == nil {
		return counts
	}
	if !node.IsDirectory() {
		counts.Files++
		return counts
	}
	counts.Directories++
	for _, child := range node.Children {
		childCounts := CountFiles(child)
		counts.Files += childCounts.Files
		counts.Directories += childCounts.Directories
	}
	return counts
}

type treeBuilder struct {
	directories map[string]*types.Node
	files       map[string]struct{}
	filter      *pathfilter.Filter
	maxDepth    int
	notices     []types.Notice
}

func (builder *treeBuilder) add(entry types.Entry) {
	if entry.Path == "" || entry.Type == "" {
		builder.notice(types.NoticeMalformedEntry, entry.Path, missingFieldsMessage)
		return
	}
	nodeType := types.NodeTypeFile
	if types.IsDirectoryType(entry.Type) {
		nodeType = types.NodeTypeDirectory
	}

	if builder.filter.Match(entry.Path) {
		return
	}

	segments := strings.Split(entry.Path, pathSeparator)
	for _, segment := range segments {
		if segment == "" {
			builder.notice(types.NoticeMalformedEntry, entry.Path, emptySegmentMessage)
			return
		}
	}

	depth := len(segments) - 1
	if builder.maxDepth >= 0 && depth > builder.maxDepth {
		return
	}

	parentPath := strings.Join(segments[:depth], pathSeparator)
	if parentPath == "" {
		parentPath = rootPath
	}
	if _, exists := builder.directories[parentPath]; !exists {
		builder.ensureAncestors(segments[:depth])
	}
	parent, exists := builder.directories[parentPath]
	if !exists {
		builder.notice(types.NoticeUnresolvableParent, entry.Path, fmt.Sprintf(orphanMessageFormat, parentPath))
		parent = builder.directories[rootPath]
	}

	if nodeType == types.NodeTypeDirectory {
		if _, registered := builder.directories[entry.Path]; registered {
			return
		}
	}

	node := &types.Node{
		Name: segments[depth],
		Type: nodeType,
		Path: entry.Path,
	}
	if nodeType == types.NodeTypeDirectory {
		node.Children = []*types.Node{}
		builder.directories[entry.Path] = node
	} else {
		node.Size = entry.Size
		builder.files[entry.Path] = struct{}{}
	}
	parent.Children = append(parent.Children, node)
}

// ensureAncestors synthesizes every missing directory along segments, shallowest first.
// A path already taken by a file is never turned into a directory, and a segment whose own
// parent is unavailable is skipped, leaving that branch unresolved.
func (builder *treeBuilder) ensureAncestors(segments []string) {
	for index, segment := range segments {
		currentPath := strings.Join(segments[:index+1], pathSeparator)
		if _, exists := builder.directories[currentPath]; exists {
			continue
		}
		if _, isFile := builder.files[currentPath]; isFile {
			continue
		}
		parentPath := strings.Join(segments[:index], pathSeparator)
		if parentPath == "" {
			parentPath = rootPath
		}
		parent, exists := builder.directories[parentPath]
		if !exists {
			continue
		}
		synthesized := &types.Node{
			Name:     segment,
			Type:     types.NodeTypeDirectory,
			Path:     currentPath,
			Children: []*types.Node{},
		}
		parent.Children = append(parent.Children, synthesized)
		builder.directories[currentPath] = synthesized
	}
}

func (builder *treeBuilder) notice(kind types.NoticeKind, path string, message string) {
	builder.notices = append(builder.notices, types.Notice{Kind: kind, Path: path, Message: message})
}

func byPath(left, right types.Entry) bool {
	return left.Path < right.Path
}

// sortEntries returns a copy of entries ordered by less, or the original order when less panics.
func sortEntries(entries []types.Entry, less func(left, right types.Entry) bool) (sorted []types.Entry, err error) {
	sorted = make([]types.Entry, len(entries))
	copy(sorted, entries)
	defer func() {
		if recovered := recover(); recovered != nil {
			sorted = entries
			err = fmt.Errorf("%v", recovered)
		}
	}()
	sort.SliceStable(sorted, func(left, right int) bool {
		return less(sorted[left], sorted[right])
	})
	return sorted, nil
}
