package output

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

const defaultHTMLTitle = "Repository Documentation"

var markdownConverter = goldmark.New(goldmark.WithExtensions(extension.GFM))

var htmlPageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif; line-height: 1.6; color: #333; max-width: 900px; margin: 0 auto; padding: 20px; }
h1, h2, h3, h4, h5, h6 { margin-top: 24px; margin-bottom: 16px; font-weight: 600; line-height: 1.25; }
h1 { font-size: 2em; border-bottom: 1px solid #eaecef; padding-bottom: 0.3em; }
h2 { font-size: 1.5em; border-bottom: 1px solid #eaecef; padding-bottom: 0.3em; }
a { color: #0366d6; text-decoration: none; }
a:hover { text-decoration: underline; }
pre { background-color: #f6f8fa; border-radius: 3px; padding: 16px; overflow: auto; }
code { font-family: SFMono-Regular, Consolas, "Liberation Mono", Menlo, monospace; background-color: rgba(27, 31, 35, 0.05); border-radius: 3px; padding: 0.2em 0.4em; font-size: 85%; }
pre code { background-color: transparent; padding: 0; }
blockquote { margin: 0; padding: 0 1em; color: #6a737d; border-left: 0.25em solid #dfe2e5; }
table { border-collapse: collapse; width: 100%; margin-bottom: 16px; }
table th, table td { padding: 6px 13px; border: 1px solid #dfe2e5; }
table tr { background-color: #fff; border-top: 1px solid #c6cbd1; }
table tr:nth-child(2n) { background-color: #f6f8fa; }
img { max-width: 100%; box-sizing: content-box; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

type htmlPage struct {
	Title string
	Body  template.HTML
}

// ConvertToHTML renders markdown as a standalone styled HTML page.
// Raw HTML embedded in the markdown is omitted.
func ConvertToHTML(markdown string, title string) (string, error) {
	if title == "" {
		title = defaultHTMLTitle
	}
	var body bytes.Buffer
	if convertErr := markdownConverter.Convert([]byte(markdown), &body); convertErr != nil {
		return "", fmt.Errorf("convert markdown: %w", convertErr)
	}
	var page bytes.Buffer
	executeErr := htmlPageTemplate.Execute(&page, htmlPage{Title: title, Body: template.HTML(body.String())})
	if executeErr != nil {
		return "", fmt.Errorf("render html page: %w", executeErr)
	}
	return page.String(), nil
}
