// Package config loads application configuration and pattern files.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	// ignoreSectionHeader identifies the section listing path patterns.
	ignoreSectionHeader = "[ignore]"
	// sourceSectionHeader identifies the section listing source-line patterns.
	sourceSectionHeader = "[source]"
	commentPrefix       = "#"
)

// PatternFile holds the patterns read from a sectioned pattern file.
type PatternFile struct {
	IgnorePatterns       []string
	SourceIgnorePatterns []string
}

// LoadPatternFile reads path patterns and source-line patterns from patternFilePath.
// Lines before any header belong to the [ignore] section. Lines starting with "#" are
// comments in the [ignore] section only. A missing file yields no patterns.
//
// #nosec G304
func LoadPatternFile(patternFilePath string) (PatternFile, error) {
	fileHandle, openFileError := os.Open(patternFilePath)
	if openFileError != nil {
		if os.IsNotExist(openFileError) {
			return PatternFile{}, nil
		}
		return PatternFile{}, fmt.Errorf("open pattern file %s: %w", patternFilePath, openFileError)
	}
	defer func() {
		closeError := fileHandle.Close()
		if closeError != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close %s: %v\n", patternFilePath, closeError)
		}
	}()

	var patterns PatternFile
	currentSectionHeader := ignoreSectionHeader
	scanner := bufio.NewScanner(fileHandle)
	for scanner.Scan() {
		trimmedLine := strings.TrimSpace(scanner.Text())
		if trimmedLine == "" {
			continue
		}
		if strings.EqualFold(trimmedLine, sourceSectionHeader) {
			currentSectionHeader = sourceSectionHeader
			continue
		}
		if strings.EqualFold(trimmedLine, ignoreSectionHeader) {
			currentSectionHeader = ignoreSectionHeader
			continue
		}
		if currentSectionHeader == sourceSectionHeader {
			patterns.SourceIgnorePatterns = append(patterns.SourceIgnorePatterns, trimmedLine)
			continue
		}
		if strings.HasPrefix(trimmedLine, commentPrefix) {
			continue
		}
		patterns.IgnorePatterns = append(patterns.IgnorePatterns, trimmedLine)
	}
	if scanError := scanner.Err(); scanError != nil {
		return PatternFile{}, fmt.Errorf("read pattern file %s: %w", patternFilePath, scanError)
	}
	return patterns, nil
}

// ParseMaxDepth converts a textual depth bound. Empty or unparsable text means unbounded.
func ParseMaxDepth(text string) int {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return DefaultMaxDepth
	}
	depth, parseErr := strconv.Atoi(trimmed)
	if parseErr != nil {
		return DefaultMaxDepth
	}
	return depth
}
