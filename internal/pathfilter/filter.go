// Package pathfilter decides whether repository paths or lines of source text match ignore patterns.
//
// A pattern is a glob with two optional markers. A leading "/" anchors a path match at the
// start of the path; without it the pattern may match anywhere. A path match must end at a
// segment boundary, so "vendor" covers "vendor/a.go" but not "vendored.go", and a trailing
// "/" only marks the pattern as a directory. The wildcards "*" and "?" match any run of
// characters and any single character, and "." is literal. Lines of source text match when
// the pattern occurs anywhere in them; a leading "/" is literal there, since comment markers
// such as "//" and "/*" start with one. Patterns that cannot be compiled degrade to plain
// substring containment.
package pathfilter

import (
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

const (
	rootAnchor      = "/"
	directorySuffix = "/"
	lineSeparator   = "\n"

	// matchTimeout bounds a single evaluation of a compiled expression.
	matchTimeout = 100 * time.Millisecond
)

type compiledPattern struct {
	raw  string
	path *regexp2.Regexp
	line *regexp2.Regexp
}

// Filter is a compiled, reusable set of ignore patterns.
type Filter struct {
	patterns []compiledPattern
	degraded []string
}

// ShouldIgnore reports whether path matches any of patterns.
func ShouldIgnore(path string, patterns []string) bool {
	if path == "" || len(patterns) == 0 {
		return false
	}
	return Compile(patterns).Match(path)
}

// Compile prepares patterns for repeated matching. Empty patterns are dropped.
func Compile(patterns []string) *Filter {
	filter := &Filter{}
	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}
		compiled := compiledPattern{raw: pattern}
		pathExpression, pathErr := compileExpression(pathExpressionText(pattern))
		lineExpression, lineErr := compileExpression(lineExpressionText(pattern))
		if pathErr != nil || lineErr != nil {
			filter.degraded = append(filter.degraded, pattern)
		} else {
			compiled.path = pathExpression
			compiled.line = lineExpression
		}
		filter.patterns = append(filter.patterns, compiled)
	}
	return filter
}

// Match reports whether a repository path matches any pattern.
func (filter *Filter) Match(path string) bool {
	return filter.matchAny(path, func(pattern compiledPattern) *regexp2.Regexp { return pattern.path })
}

// MatchLine reports whether a line of source text contains any pattern.
func (filter *Filter) MatchLine(line string) bool {
	return filter.matchAny(line, func(pattern compiledPattern) *regexp2.Regexp { return pattern.line })
}

func (filter *Filter) matchAny(text string, expressionOf func(compiledPattern) *regexp2.Regexp) bool {
	if filter == nil || text == "" {
		return false
	}
	for _, pattern := range filter.patterns {
		if pattern.matches(expressionOf(pattern), text) {
			return true
		}
	}
	return false
}

// Empty reports whether the filter holds no patterns.
func (filter *Filter) Empty() bool {
	return filter == nil || len(filter.patterns) == 0
}

// Degraded returns the patterns that failed to compile and fall back to substring containment.
func (filter *Filter) Degraded() []string {
	if filter == nil {
		return nil
	}
	return append([]string(nil), filter.degraded...)
}

// FilterLines removes every line of content that matches the filter.
func (filter *Filter) FilterLines(content string) string {
	if filter.Empty() || content == "" {
		return content
	}
	lines := strings.Split(content, lineSeparator)
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if filter.MatchLine(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, lineSeparator)
}

func (pattern compiledPattern) matches(expression *regexp2.Regexp, text string) bool {
	if expression == nil {
		return strings.Contains(text, pattern.raw)
	}
	matched, matchErr := expression.MatchString(text)
	if matchErr != nil {
		return strings.Contains(text, pattern.raw)
	}
	return matched
}

func translateGlob(glob string) string {
	translated := strings.ReplaceAll(glob, ".", `\.`)
	translated = strings.ReplaceAll(translated, "*", ".*")
	return strings.ReplaceAll(translated, "?", ".")
}

// pathExpressionText matches the pattern up to the end of a path segment, optionally followed by descendants.
func pathExpressionText(pattern string) string {
	core := strings.TrimSuffix(pattern, directorySuffix)
	prefix := "^.*"
	if strings.HasPrefix(core, rootAnchor) {
		core = strings.TrimPrefix(core, rootAnchor)
		prefix = "^"
	}
	return prefix + translateGlob(core) + `(?:/.*)?\z`
}

// lineExpressionText matches the pattern anywhere in a line.
func lineExpressionText(pattern string) string {
	return "^.*" + translateGlob(pattern)
}

func compileExpression(text string) (*regexp2.Regexp, error) {
	expression, compileErr := regexp2.Compile(text, regexp2.None)
	if compileErr != nil {
		return nil, compileErr
	}
	expression.MatchTimeout = matchTimeout
	return expression, nil
}
