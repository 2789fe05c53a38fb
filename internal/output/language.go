package output

import (
	"path"
	"strings"
)

// DefaultLanguage labels files whose extension is not recognized.
const DefaultLanguage = "Text"

var extensionLanguages = map[string]string{
	".js":    "JavaScript",
	".mjs":   "JavaScript",
	".ts":    "TypeScript",
	".jsx":   "JSX",
	".tsx":   "TSX",
	".py":    "Python",
	".rb":    "Ruby",
	".java":  "Java",
	".kt":    "Kotlin",
	".c":     "C",
	".h":     "C",
	".cpp":   "C++",
	".cc":    "C++",
	".hpp":   "C++",
	".cs":    "C#",
	".go":    "Go",
	".rs":    "Rust",
	".php":   "PHP",
	".swift": "Swift",
	".html":  "HTML",
	".css":   "CSS",
	".scss":  "SCSS",
	".md":    "Markdown",
	".json":  "JSON",
	".yml":   "YAML",
	".yaml":  "YAML",
	".toml":  "TOML",
	".xml":   "XML",
	".sql":   "SQL",
	".sh":    "Shell",
	".bat":   "Batch",
	".ps1":   "PowerShell",
	".mod":   "Go Module",
}

var fenceLabels = map[string]string{
	"C++":           "cpp",
	"C#":            "csharp",
	"Go Module":     "go",
	"JSX":           "jsx",
	"TSX":           "tsx",
	"Shell":         "bash",
	"PowerShell":    "powershell",
	DefaultLanguage: "text",
}

// LanguageForFilename names the language of filename by its extension.
func LanguageForFilename(filename string) string {
	extension := strings.ToLower(path.Ext(filename))
	if language, ok := extensionLanguages[extension]; ok {
		return language
	}
	return DefaultLanguage
}

// fenceLabel returns the info string placed after an opening code fence.
func fenceLabel(language string) string {
	if label, ok := fenceLabels[language]; ok {
		return label
	}
	return strings.ToLower(language)
}
