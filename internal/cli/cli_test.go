package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/temirov/repodoc/internal/config"
	"github.com/temirov/repodoc/internal/generator"
	"github.com/temirov/repodoc/internal/tokenizer"
	"github.com/temirov/repodoc/internal/types"
)

const testRepositoryURL = "https://github.com/acme/widget"

type stubService struct {
	entries  []types.Entry
	contents map[string]string
	settings config.GitHubConfiguration
}

func (service *stubService) DefaultBranch(ctx context.Context, repository types.RepositoryReference) (string, error) {
	return "trunk", nil
}

func (service *stubService) RepositoryDetails(ctx context.Context, repository types.RepositoryReference) (types.RepositoryDetails, error) {
	return types.RepositoryDetails{Name: repository.Repository, Owner: repository.Owner, Description: "Widgets for everyone", Stars: 7}, nil
}

func (service *stubService) Contributors(ctx context.Context, repository types.RepositoryReference, limit int) ([]types.Contributor, error) {
	return []types.Contributor{{Login: "acme-dev", Contributions: 12}}, nil
}

func (service *stubService) ListTree(ctx context.Context, repository types.RepositoryReference, reference string) (types.TreeListing, error) {
	return types.TreeListing{Entries: service.entries}, nil
}

func (service *stubService) ListDirectory(ctx context.Context, repository types.RepositoryReference, directoryPath string, reference string) ([]types.Entry, error) {
	return nil, errors.New("directory listing not expected")
}

func (service *stubService) FileContent(ctx context.Context, repository types.RepositoryReference, filePath string, reference string) (string, error) {
	content, found := service.contents[filePath]
	if !found {
		return "", errors.New("not found")
	}
	return content, nil
}

type recordingCopier struct {
	copied []string
}

func (copier *recordingCopier) Copy(text string) error {
	copier.copied = append(copier.copied, text)
	return nil
}

type commandHarness struct {
	deps    dependencies
	stdout  *bytes.Buffer
	stderr  *bytes.Buffer
	service *stubService
	copier  *recordingCopier
}

func newCommandHarness(t *testing.T) *commandHarness {
	t.Helper()
	t.Setenv("GITHUB_TOKEN", "")
	harness := &commandHarness{
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		service: &stubService{
			entries: []types.Entry{
				{Path: "README.md", Type: types.EntryTypeBlob, Size: 20},
				{Path: "main.go", Type: types.EntryTypeBlob, Size: 40},
				{Path: "node_modules", Type: types.EntryTypeTree},
				{Path: "node_modules/left-pad.js", Type: types.EntryTypeBlob, Size: 5},
				{Path: "pkg", Type: types.EntryTypeTree},
				{Path: "pkg/widget.go", Type: types.EntryTypeBlob, Size: 30},
			},
			contents: map[string]string{
				"README.md":     "# Widget\n",
				"main.go":       "package main\n// TODO: remove\nfunc main() {}\n",
				"pkg/widget.go": "package pkg\n",
			},
		},
		copier: &recordingCopier{},
	}
	harness.deps = dependencies{
		stdout:           harness.stdout,
		stderr:           harness.stderr,
		workingDirectory: t.TempDir(),
		homeDirectory:    t.TempDir(),
		newService: func(settings config.GitHubConfiguration, logger *zap.Logger) (generator.RepositoryService, bool) {
			harness.service.settings = settings
			return harness.service, settings.Token.IsSet()
		},
		newCounter: func(model string) (tokenizer.Counter, string, error) {
			return fixedCounter{}, model, nil
		},
		copier: harness.copier,
	}
	return harness
}

func (harness *commandHarness) run(arguments ...string) error {
	rootCommand := newRootCommand(harness.deps)
	rootCommand.SetArgs(normalizeBooleanFlagArguments(rootCommand, arguments))
	return rootCommand.ExecuteContext(context.Background())
}

type fixedCounter struct{}

func (fixedCounter) Name() string { return "fixed" }

func (fixedCounter) CountString(input string) (int, error) { return 42, nil }

func TestGenerateCommandPrintsMarkdown(t *testing.T) {
	harness := newCommandHarness(t)
	if err := harness.run("generate", testRepositoryURL); err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	document := harness.stdout.String()
	for _, expected := range []string{"# widget", "Widgets for everyone", "acme-dev", "main.go", "pkg/"} {
		if !strings.Contains(document, expected) {
			t.Fatalf("expected %q in document:\n%s", expected, document)
		}
	}
	if strings.Contains(document, "node_modules") {
		t.Fatalf("default ignore patterns should hide node_modules:\n%s", document)
	}
	if strings.Contains(document, "TODO: remove") {
		t.Fatalf("default source patterns should drop TODO lines:\n%s", document)
	}
	if len(harness.copier.copied) != 0 {
		t.Fatalf("clipboard must not be used without --copy")
	}
}

func TestGenerateCommandFlags(t *testing.T) {
	harness := newCommandHarness(t)
	err := harness.run("g", "--no-default-ignore", "-e", "*.md", "--copy", "--tokens", "--token", "secret-token", testRepositoryURL)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	document := harness.stdout.String()
	if !strings.Contains(document, "node_modules") {
		t.Fatalf("expected node_modules with --no-default-ignore:\n%s", document)
	}
	if strings.Contains(document, "README.md") {
		t.Fatalf("expected README.md to be excluded:\n%s", document)
	}
	if len(harness.copier.copied) != 1 || harness.copier.copied[0] != strings.TrimSuffix(document, "\n") {
		t.Fatalf("expected the document to be copied once")
	}
	if !strings.Contains(harness.stderr.String(), "Tokens: 42") {
		t.Fatalf("expected token report, got %q", harness.stderr.String())
	}
	if harness.service.settings.Token.Value() != "secret-token" {
		t.Fatalf("expected --token to reach the service")
	}
}

func TestGenerateCommandSavesHTML(t *testing.T) {
	harness := newCommandHarness(t)
	configurationPath := filepath.Join(harness.deps.workingDirectory, ".repodoc.yaml")
	if err := os.WriteFile(configurationPath, []byte("generate:\n  format: html\n  save: true\n"), 0o600); err != nil {
		t.Fatalf("write configuration: %v", err)
	}
	if err := harness.run("generate", testRepositoryURL); err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	savedPath := filepath.Join(harness.deps.workingDirectory, "widget_docs.html")
	data, readErr := os.ReadFile(savedPath)
	if readErr != nil {
		t.Fatalf("expected saved document: %v", readErr)
	}
	if !strings.HasPrefix(string(data), "<!DOCTYPE html>") {
		t.Fatalf("expected HTML document, got %q", string(data[:min(len(data), 40)]))
	}
	if harness.stdout.Len() != 0 {
		t.Fatalf("saved document must not be printed")
	}
	if !strings.Contains(harness.stderr.String(), savedPath) {
		t.Fatalf("expected saved path on stderr, got %q", harness.stderr.String())
	}
}

func TestGenerateCommandOutputFlagOverridesSave(t *testing.T) {
	harness := newCommandHarness(t)
	if err := harness.run("generate", "--save", "-o", "docs.md", testRepositoryURL); err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(harness.deps.workingDirectory, "docs.md")); statErr != nil {
		t.Fatalf("expected docs.md: %v", statErr)
	}
	if _, statErr := os.Stat(filepath.Join(harness.deps.workingDirectory, "widget_docs.md")); !os.IsNotExist(statErr) {
		t.Fatalf("expected --output to take precedence over --save")
	}
}

func TestGenerateCommandRejectsInvalidInput(t *testing.T) {
	testCases := []struct {
		name      string
		arguments []string
	}{
		{name: "invalid_url", arguments: []string{"generate", "https://gitlab.com/acme/widget"}},
		{name: "invalid_format", arguments: []string{"generate", "--format", "pdf", testRepositoryURL}},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			harness := newCommandHarness(t)
			err := harness.run(testCase.arguments...)
			if err == nil {
				t.Fatalf("expected error for %v", testCase.arguments)
			}
			if !IsUsageError(err) {
				t.Fatalf("expected usage error, got %v", err)
			}
		})
	}
}

func TestTreeCommandFormats(t *testing.T) {
	t.Run("raw", func(t *testing.T) {
		harness := newCommandHarness(t)
		if err := harness.run("tree", "--max-depth", "0", testRepositoryURL); err != nil {
			t.Fatalf("tree failed: %v", err)
		}
		rendered := harness.stdout.String()
		if !strings.HasPrefix(rendered, "widget/\n") {
			t.Fatalf("expected repository header, got %q", rendered)
		}
		if strings.Contains(rendered, "widget.go") {
			t.Fatalf("max depth 0 must drop nested files:\n%s", rendered)
		}
		if !strings.Contains(harness.stderr.String(), "Summary:") {
			t.Fatalf("expected summary on stderr, got %q", harness.stderr.String())
		}
	})

	t.Run("json", func(t *testing.T) {
		harness := newCommandHarness(t)
		if err := harness.run("t", "--format", "json", testRepositoryURL); err != nil {
			t.Fatalf("tree failed: %v", err)
		}
		var root types.Node
		if err := json.Unmarshal(harness.stdout.Bytes(), &root); err != nil {
			t.Fatalf("decode tree JSON: %v", err)
		}
		if root.Name != types.RootNodeName || len(root.Children) != 3 {
			t.Fatalf("expected root with three children, got %+v", root)
		}
	})

	t.Run("unsupported", func(t *testing.T) {
		harness := newCommandHarness(t)
		if err := harness.run("tree", "--format", "xml", testRepositoryURL); err == nil {
			t.Fatalf("expected error for xml tree format")
		}
	})
}

func TestTreeCommandReadsPatternFile(t *testing.T) {
	harness := newCommandHarness(t)
	patternPath := filepath.Join(harness.deps.workingDirectory, ".repodocignore")
	if err := os.WriteFile(patternPath, []byte("pkg/\n"), 0o600); err != nil {
		t.Fatalf("write pattern file: %v", err)
	}
	if err := harness.run("tree", testRepositoryURL); err != nil {
		t.Fatalf("tree failed: %v", err)
	}
	if strings.Contains(harness.stdout.String(), "pkg") {
		t.Fatalf("expected pkg/ to be ignored:\n%s", harness.stdout.String())
	}
}

func TestInitCommand(t *testing.T) {
	harness := newCommandHarness(t)
	if err := harness.run("init"); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(harness.deps.workingDirectory, ".repodoc.yaml")); statErr != nil {
		t.Fatalf("expected local configuration: %v", statErr)
	}
	err := harness.run("init")
	if !errors.Is(err, config.ErrConfigurationExists) {
		t.Fatalf("expected ErrConfigurationExists, got %v", err)
	}
	if err := harness.run("init", "--global", "--force"); err != nil {
		t.Fatalf("global init failed: %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(harness.deps.homeDirectory, ".repodoc", "config.yaml")); statErr != nil {
		t.Fatalf("expected global configuration: %v", statErr)
	}
}
