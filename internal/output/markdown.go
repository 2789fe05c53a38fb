package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/temirov/repodoc/internal/types"
)

const (
	dateLayout       = "2006/01/02"
	unknownValue     = "unknown"
	noLicenseValue   = "No license information"
	profileURLFormat = "https://github.com/%s"
	codeFence        = "```"

	treeUnavailableMessage  = "The file structure could not be retrieved. A GitHub API token may be required."
	filesUnavailableMessage = "No important files were found. A GitHub API token may be required."
	contentFailureFormat    = "Failed to retrieve file contents: %v"
	unauthenticatedNotice   = "**Note**: No GitHub API token is configured, so some information may be limited.\n" +
		"Configure a GitHub API token to retrieve more detailed information.\n"
)

// FileSection is one inlined file. Err is set when its contents could not be retrieved.
type FileSection struct {
	Path    string
	Content string
	Err     error
}

// DocumentInput carries everything rendered into a repository document.
type DocumentInput struct {
	Repository    types.RepositoryReference
	Details       types.RepositoryDetails
	Contributors  []types.Contributor
	Tree          *types.Node
	Counts        types.Counts
	Branch        string
	Files         []FileSection
	Authenticated bool
}

// FormatDate renders t as year/month/day, or "unknown" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return unknownValue
	}
	return t.Format(dateLayout)
}

// RenderMarkdown produces the repository document.
func RenderMarkdown(input DocumentInput) string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "# %s\n\n", input.Repository.Repository)

	details := input.Details
	if details.Description != "" {
		builder.WriteString("## Repository\n\n")
		fmt.Fprintf(&builder, "- **Description**: %s\n", details.Description)
		fmt.Fprintf(&builder, "- **Owner**: %s\n", input.Repository.Owner)
		fmt.Fprintf(&builder, "- **Primary language**: %s\n", valueOrUnknown(details.Language))
		license := details.License
		if license == "" {
			license = noLicenseValue
		}
		fmt.Fprintf(&builder, "- **License**: %s\n", license)
		fmt.Fprintf(&builder, "- **Created**: %s\n", FormatDate(details.CreatedAt))
		fmt.Fprintf(&builder, "- **Last updated**: %s\n\n", FormatDate(details.UpdatedAt))
	}

	builder.WriteString("## Statistics\n\n")
	fmt.Fprintf(&builder, "- **Stars**: %d\n", details.Stars)
	fmt.Fprintf(&builder, "- **Forks**: %d\n", details.Forks)
	fmt.Fprintf(&builder, "- **Watchers**: %d\n", details.Watchers)
	fmt.Fprintf(&builder, "- **Open issues**: %d\n", details.OpenIssues)
	fmt.Fprintf(&builder, "- **Default branch**: %s\n\n", input.Branch)

	if details.Language != "" {
		builder.WriteString("## Languages\n\n")
		builder.WriteString("| Language | Share | Bytes |\n")
		builder.WriteString("| --- | --- | --- |\n")
		fmt.Fprintf(&builder, "| %s | 100%% | %s |\n\n", details.Language, unknownValue)
	}

	if len(input.Contributors) > 0 {
		builder.WriteString("## Contributors\n\n")
		for _, contributor := range input.Contributors {
			login := valueOrUnknown(contributor.Login)
			fmt.Fprintf(&builder, "### %s\n\n", login)
			fmt.Fprintf(&builder, "- **Contributions**: %d\n", contributor.Contributions)
			fmt.Fprintf(&builder, "- **Profile**: [GitHub]("+profileURLFormat+")\n\n", login)
			if contributor.AvatarURL != "" {
				fmt.Fprintf(&builder, "![%s](%s)\n\n", login, contributor.AvatarURL)
			}
		}
	}

	builder.WriteString("## File Structure\n\n")
	renderedTree := RenderTree(input.Tree)
	if renderedTree != "" {
		fmt.Fprintf(&builder, "%s\n%s\n%s\n\n", codeFence, renderedTree, codeFence)
		builder.WriteString("## Summary\n\n")
		fmt.Fprintf(&builder, "- **Files**: %d\n", input.Counts.Files)
		fmt.Fprintf(&builder, "- **Directories**: %d\n\n", input.Counts.Directories)
	} else {
		builder.WriteString(treeUnavailableMessage + "\n\n")
	}

	builder.WriteString("## File Contents\n\n")
	if len(input.Files) == 0 {
		builder.WriteString(filesUnavailableMessage + "\n\n")
	}
	for _, section := range input.Files {
		fmt.Fprintf(&builder, "### %s\n\n", section.Path)
		if section.Err != nil {
			fmt.Fprintf(&builder, contentFailureFormat+"\n\n", section.Err)
			continue
		}
		fence := fenceFor(section.Content)
		language := fenceLabel(LanguageForFilename(section.Path))
		fmt.Fprintf(&builder, "%s%s\n%s\n%s\n\n", fence, language, strings.TrimRight(section.Content, "\n"), fence)
	}

	if !input.Authenticated {
		builder.WriteString("---\n\n")
		builder.WriteString(unauthenticatedNotice)
	}
	return builder.String()
}

// fenceFor returns a backtick fence longer than any backtick run inside content.
func fenceFor(content string) string {
	longest := 0
	current := 0
	for _, character := range content {
		if character == '`' {
			current++
			if current > longest {
				longest = current
			}
			continue
		}
		current = 0
	}
	if longest < len(codeFence) {
		return codeFence
	}
	return strings.Repeat("`", longest+1)
}

func valueOrUnknown(value string) string {
	if value == "" {
		return unknownValue
	}
	return value
}
