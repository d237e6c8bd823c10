// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"bytes"
	"fmt"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/pdiddy/article-engine/internal/draft"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// RenderHTML converts a Markdown article into a standalone HTML page
// titled after its "# " line.
func RenderHTML(article string) (string, error) {
	var body bytes.Buffer
	if err := markdown.Convert([]byte(article), &body); err != nil {
		return "", err
	}
	title := draft.Title(article)
	if title == "" {
		title = "Article"
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
</head>
<body>
<article>
%s</article>
</body>
</html>
`, html.EscapeString(title), body.String()), nil
}
