package output_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/temirov/repodoc/internal/output"
	"github.com/temirov/repodoc/internal/types"
)

func fileNode(path string) *types.Node {
	segments := strings.Split(path, "/")
	return &types.Node{Name: segments[len(segments)-1], Type: types.NodeTypeFile, Path: path}
}

func directoryNode(path string, children ...*types.Node) *types.Node {
	segments := strings.Split(path, "/")
	if children == nil {
		children = []*types.Node{}
	}
	return &types.Node{Name: segments[len(segments)-1], Type: types.NodeTypeDirectory, Path: path, Children: children}
}

func sampleTree() *types.Node {
	root := types.NewRootNode()
	root.Children = []*types.Node{
		directoryNode("src",
			directoryNode("src/util", fileNode("src/util/strings.go")),
			fileNode("src/main.go"),
		),
		fileNode("README.md"),
		fileNode("LICENSE"),
	}
	return root
}

// treeRawExpected lists files before directories at every level.
const treeRawExpected = "├── LICENSE\n" +
	"├── README.md\n" +
	"└── src/\n" +
	"    ├── main.go\n" +
	"    └── util/\n" +
	"        └── strings.go"

func TestRenderTree(testingInstance *testing.T) {
	root := sampleTree()
	rendered := output.RenderTree(root)
	if rendered != treeRawExpected {
		testingInstance.Fatalf("unexpected tree rendering:\n%s", rendered)
	}
	if root.Children[0].Name != "src" || root.Children[0].Children[0].Name != "util" {
		testingInstance.Fatalf("rendering must not reorder the tree")
	}
}

func TestRenderTreeEmpty(testingInstance *testing.T) {
	if output.RenderTree(nil) != "" {
		testingInstance.Fatalf("expected empty rendering for nil tree")
	}
	if output.RenderTree(types.NewRootNode()) != "" {
		testingInstance.Fatalf("expected empty rendering for empty root")
	}
}

func TestRenderTreeJSON(testingInstance *testing.T) {
	encoded, encodeErr := output.RenderTreeJSON(sampleTree())
	if encodeErr != nil {
		testingInstance.Fatalf("RenderTreeJSON error: %v", encodeErr)
	}
	var decoded types.Node
	if decodeErr := json.Unmarshal([]byte(encoded), &decoded); decodeErr != nil {
		testingInstance.Fatalf("invalid JSON: %v", decodeErr)
	}
	if decoded.Name != types.RootNodeName || len(decoded.Children) != 3 {
		testingInstance.Fatalf("unexpected decoded root %+v", decoded)
	}
}

func TestFormatSummaryLine(testingInstance *testing.T) {
	testCases := []struct {
		name     string
		counts   types.Counts
		expected string
	}{
		{name: "plural", counts: types.Counts{Files: 4, Directories: 3}, expected: "Summary: 4 files, 3 directories"},
		{name: "singular", counts: types.Counts{Files: 1, Directories: 1}, expected: "Summary: 1 file, 1 directory"},
	}
	for _, testCase := range testCases {
		testCase := testCase
		testingInstance.Run(testCase.name, func(testingInstance *testing.T) {
			testingInstance.Parallel()
			if actual := output.FormatSummaryLine(testCase.counts); actual != testCase.expected {
				testingInstance.Fatalf("FormatSummaryLine() = %q, expected %q", actual, testCase.expected)
			}
		})
	}
}

func TestSelectImportantFiles(testingInstance *testing.T) {
	root := types.NewRootNode()
	root.Children = []*types.Node{
		fileNode("README.md"),
		directoryNode("web", fileNode("web/index.js"), fileNode("web/style.css"), fileNode("web/app.ts")),
		fileNode("go.mod"),
		fileNode("main.go"),
		fileNode("tool.py"),
		fileNode("notes.txt"),
	}
	selected := output.SelectImportantFiles(root, output.DefaultImportantFileLimit)
	expected := []string{"README.md", "web/index.js", "web/app.ts", "go.mod", "main.go"}
	if strings.Join(selected, ",") != strings.Join(expected, ",") {
		testingInstance.Fatalf("SelectImportantFiles() = %v, expected %v", selected, expected)
	}
	if len(output.SelectImportantFiles(root, 0)) != 0 {
		testingInstance.Fatalf("expected no files for zero limit")
	}
	if len(output.SelectImportantFiles(nil, 5)) != 0 {
		testingInstance.Fatalf("expected no files for nil tree")
	}
}

func TestLanguageForFilename(testingInstance *testing.T) {
	testCases := map[string]string{
		"main.go":          "Go",
		"src/App.TSX":      "TSX",
		"requirements.txt": output.DefaultLanguage,
		"Makefile":         output.DefaultLanguage,
		"lib/util.py":      "Python",
	}
	for filename, expected := range testCases {
		if actual := output.LanguageForFilename(filename); actual != expected {
			testingInstance.Fatalf("LanguageForFilename(%q) = %q, expected %q", filename, actual, expected)
		}
	}
}

func TestFormatDate(testingInstance *testing.T) {
	if output.FormatDate(time.Time{}) != "unknown" {
		testingInstance.Fatalf("expected unknown for zero time")
	}
	if actual := output.FormatDate(time.Date(2023, time.March, 4, 10, 0, 0, 0, time.UTC)); actual != "2023/03/04" {
		testingInstance.Fatalf("unexpected date %q", actual)
	}
}

func sampleDocumentInput() output.DocumentInput {
	return output.DocumentInput{
		Repository: types.RepositoryReference{Owner: "octo", Repository: "demo"},
		Details: types.RepositoryDetails{
			Name:        "demo",
			Owner:       "octo",
			Description: "A demo repository",
			Language:    "Go",
			License:     "MIT License",
			Stars:       7,
			CreatedAt:   time.Date(2020, time.January, 2, 0, 0, 0, 0, time.UTC),
		},
		Contributors: []types.Contributor{{Login: "alice", Contributions: 12, AvatarURL: "https://avatars/alice"}},
		Tree:         sampleTree(),
		Counts:       types.Counts{Files: 4, Directories: 3},
		Branch:       "main",
		Files: []output.FileSection{
			{Path: "src/main.go", Content: "package main\n"},
			{Path: "README.md", Content: "Use ```go``` fences"},
			{Path: "broken.py", Err: errors.New("boom")},
		},
	}
}

func TestRenderMarkdownSections(testingInstance *testing.T) {
	document := output.RenderMarkdown(sampleDocumentInput())
	expectedFragments := []string{
		"# demo\n\n",
		"## Repository\n\n- **Description**: A demo repository\n- **Owner**: octo\n",
		"- **License**: MIT License\n",
		"- **Created**: 2020/01/02\n- **Last updated**: unknown\n",
		"- **Stars**: 7\n",
		"- **Default branch**: main\n",
		"| Go | 100% | unknown |",
		"### alice\n\n- **Contributions**: 12\n- **Profile**: [GitHub](https://github.com/alice)\n\n![alice](https://avatars/alice)",
		"```\n" + treeRawExpected + "\n```",
		"- **Files**: 4\n- **Directories**: 3\n",
		"### src/main.go\n\n```go\npackage main\n```",
		"````markdown\nUse ```go``` fences\n````",
		"### broken.py\n\nFailed to retrieve file contents: boom",
		"**Note**: No GitHub API token is configured",
	}
	for _, fragment := range expectedFragments {
		if !strings.Contains(document, fragment) {
			testingInstance.Fatalf("document is missing %q:\n%s", fragment, document)
		}
	}
	order := []string{"## Repository", "## Statistics", "## Languages", "## Contributors", "## File Structure", "## Summary", "## File Contents"}
	previous := -1
	for _, heading := range order {
		position := strings.Index(document, heading)
		if position <= previous {
			testingInstance.Fatalf("heading %q out of order", heading)
		}
		previous = position
	}
}

func TestRenderMarkdownDegradedInput(testingInstance *testing.T) {
	input := output.DocumentInput{
		Repository:    types.RepositoryReference{Owner: "octo", Repository: "empty"},
		Tree:          types.NewRootNode(),
		Branch:        "main",
		Authenticated: true,
	}
	document := output.RenderMarkdown(input)
	for _, absent := range []string{"## Repository", "## Languages", "## Contributors", "## Summary", "**Note**"} {
		if strings.Contains(document, absent) {
			testingInstance.Fatalf("document unexpectedly contains %q", absent)
		}
	}
	for _, present := range []string{"The file structure could not be retrieved", "No important files were found"} {
		if !strings.Contains(document, present) {
			testingInstance.Fatalf("document is missing %q", present)
		}
	}
}

func TestConvertToHTML(testingInstance *testing.T) {
	page, convertErr := output.ConvertToHTML(output.RenderMarkdown(sampleDocumentInput()), "demo <docs>")
	if convertErr != nil {
		testingInstance.Fatalf("ConvertToHTML error: %v", convertErr)
	}
	expectedFragments := []string{
		"<!DOCTYPE html>",
		"<title>demo &lt;docs&gt;</title>",
		"<h1>demo</h1>",
		"<table>",
		`<code class="language-go">package main`,
	}
	for _, fragment := range expectedFragments {
		if !strings.Contains(page, fragment) {
			testingInstance.Fatalf("page is missing %q", fragment)
		}
	}
}

func TestRenderTreeJSONChildrenByNodeType(t *testing.T) {
	t.Parallel()

	root := types.NewRootNode()
	root.Children = []*types.Node{
		{Name: "empty", Type: types.NodeTypeDirectory, Path: "empty"},
		{Name: "main.go", Type: types.NodeTypeFile, Path: "main.go", Children: []*types.Node{}},
	}

	rendered, renderErr := output.RenderTreeJSON(root)
	if renderErr != nil {
		t.Fatalf("unexpected error: %v", renderErr)
	}

	var decoded map[string]any
	if decodeErr := json.Unmarshal([]byte(rendered), &decoded); decodeErr != nil {
		t.Fatalf("invalid JSON: %v", decodeErr)
	}
	rootChildren, ok := decoded["children"].([]any)
	if !ok || len(rootChildren) != 2 {
		t.Fatalf("unexpected root children %v", decoded["children"])
	}

	emptyDirectory := rootChildren[0].(map[string]any)
	emptyChildren, present := emptyDirectory["children"]
	if !present {
		t.Fatalf("expected children key on empty directory, got %v", emptyDirectory)
	}
	if list, isList := emptyChildren.([]any); !isList || len(list) != 0 {
		t.Fatalf("expected empty children array, got %v", emptyChildren)
	}

	file := rootChildren[1].(map[string]any)
	if _, present := file["children"]; present {
		t.Fatalf("expected no children key on file, got %v", file)
	}
}
