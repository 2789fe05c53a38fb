package config

const (
	// DefaultMaxDepth leaves the tree depth unbounded.
	DefaultMaxDepth = -1
	// DefaultFormat is the document format used when none is configured.
	DefaultFormat = "markdown"
)

var defaultIgnorePatterns = []string{
	".git/",
	"node_modules/",
	"__pycache__/",
	"*.pyc",
	"*.pyo",
	"*.pyd",
	".DS_Store",
	"Thumbs.db",
	".vscode/",
	".idea/",
	"*.log",
	"dist/",
	"build/",
	"*.min.js",
	"*.min.css",
}

var defaultSourceIgnorePatterns = []string{
	"// TODO:",
	"// FIXME:",
	"# TODO:",
	"# FIXME:",
	"/* TODO:",
	"/* FIXME:",
	"* @ts-ignore",
	"# type: ignore",
	"# noqa",
	"# pragma: no cover",
}

// DefaultIgnorePatterns returns a copy of the path patterns excluded from every tree.
func DefaultIgnorePatterns() []string {
	return append([]string{}, defaultIgnorePatterns...)
}

// DefaultSourceIgnorePatterns returns a copy of the line patterns removed from inlined files.
func DefaultSourceIgnorePatterns() []string {
	return append([]string{}, defaultSourceIgnorePatterns...)
}
