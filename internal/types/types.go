// Package types defines every cross‑package data structure used by the repodoc CLI.
package types

import (
	"encoding/json"
	"time"
)

const (
	NodeTypeFile      = "file"
	NodeTypeDirectory = "directory"

	// Kind markers reported by the git trees API.
	EntryTypeTree   = "tree"
	EntryTypeBlob   = "blob"
	EntryTypeCommit = "commit"

	// Kind markers reported by the contents API.
	EntryTypeDir       = "dir"
	EntryTypeFile      = "file"
	EntryTypeSymlink   = "symlink"
	EntryTypeSubmodule = "submodule"

	CommandGenerate = "generate"
	CommandTree     = "tree"

	FormatMarkdown      = "markdown"
	FormatMarkdownShort = "md"
	FormatHTML          = "html"
	FormatRaw           = "raw"
	FormatJSON          = "json"

	// RootNodeName is the name carried by the synthetic root of every tree.
	RootNodeName = "/"
)

// Entry is one item of a flat remote listing.
type Entry struct {
	Path string `json:"path"`
	Type string `json:"type"`
	Size int64  `json:"size,omitempty"`
}

// IsDirectoryType reports whether a source kind marker denotes a directory.
func IsDirectoryType(entryType string) bool {
	return entryType == EntryTypeTree || entryType == EntryTypeDir
}

// Node is one element of the hierarchical file tree.
type Node struct {
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Path     string  `json:"path,omitempty"`
	Size     int64   `json:"size,omitempty"`
	Children []*Node `json:"children,omitempty"`
}

// IsDirectory reports whether the node is a directory.
func (node *Node) IsDirectory() bool {
	return node != nil && node.Type == NodeTypeDirectory
}

// MarshalJSON always emits children for directories, as an empty array when
// the directory has none, and never for files.
func (node Node) MarshalJSON() ([]byte, error) {
	type plainNode Node
	if node.Type != NodeTypeDirectory {
		node.Children = nil
		return json.Marshal(plainNode(node))
	}
	children := node.Children
	if children == nil {
		children = []*Node{}
	}
	return json.Marshal(struct {
		plainNode
		Children []*Node `json:"children"`
	}{plainNode: plainNode(node), Children: children})
}

// NewRootNode returns an empty tree root.
func NewRootNode() *Node {
	return &Node{Name: RootNodeName, Type: NodeTypeDirectory, Children: []*Node{}}
}

// Counts summarizes a tree.
type Counts struct {
	Files       int `json:"files"`
	Directories int `json:"directories"`
}

// NoticeKind classifies a non-fatal diagnostic.
type NoticeKind string

const (
	NoticeMalformedEntry       NoticeKind = "malformed_entry"
	NoticePatternFallback      NoticeKind = "pattern_fallback"
	NoticeUnresolvableParent   NoticeKind = "unresolvable_parent"
	NoticeSortFailure          NoticeKind = "sort_failure"
	NoticeRemoteListingFailure NoticeKind = "remote_listing_failure"
	NoticeMetadataFallback     NoticeKind = "metadata_fallback"
	NoticeContentFailure       NoticeKind = "content_failure"
)

// Notice describes a degradation that did not stop the run.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Path    string     `json:"path,omitempty"`
	Pattern string     `json:"pattern,omitempty"`
	Message string     `json:"message"`
}

// RepositoryReference identifies a hosted repository.
type RepositoryReference struct {
	Owner      string
	Repository string
}

func (reference RepositoryReference) String() string {
	return reference.Owner + "/" + reference.Repository
}

// TreeListing is the result of a bulk recursive listing.
type TreeListing struct {
	Entries   []Entry
	Truncated bool
}

// RepositoryDetails holds the repository metadata rendered into the document.
type RepositoryDetails struct {
	Name          string
	Owner         string
	Description   string
	Language      string
	License       string
	HTMLURL       string
	DefaultBranch string
	Stars         int
	Forks         int
	Watchers      int
	OpenIssues    int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Contributor is a single entry of the contributor list.
type Contributor struct {
	Login         string
	Contributions int
	AvatarURL     string
}
