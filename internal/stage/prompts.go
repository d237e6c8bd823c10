// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package stage

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

var funcs = template.FuncMap{"join": strings.Join}

// The first line of each prompt names the task; the offline generator
// routes on it. Topic and section heading sit on their own labelled lines.

var outlinePromptTmpl = template.Must(template.New("outline").Funcs(funcs).Parse(`Create a detailed outline for an article.
Topic: {{.Topic}}
{{- if .Description}}
Description: {{.Description}}
{{- end}}
Style: {{.Style.Name}} ({{.Style.Description}})
{{- with .Profile}}
Platform: {{.Platform}}
Target length: about {{.AvgWordCount}} words in {{.AvgSectionCount}} main sections
Tone: {{.Tone}}
Common formats: {{join .CommonFormats ", "}}
Patterns that work on this platform:
{{- range .CommonPatterns}}
- {{.}}
{{- end}}
{{- end}}
{{- with .Research}}

Research summary:
{{.}}
{{- end}}

Respond with a JSON object only, in this form:
{"title": "Article title", "sections": [{"heading": "Section heading", "bullet_points": ["point", "point"]}]}
Use between 3 and 10 sections. Begin with an introduction and end with a conclusion.
`))

var sectionPromptTmpl = template.Must(template.New("section").Funcs(funcs).Parse(`Write one section of an article.
Topic: {{.Topic}}
Article title: {{.Title}}
Section heading: {{.Heading}}
Style: {{.Style.Name}} ({{.Style.Description}})
{{- with .Tone}}
Tone: {{.}}
{{- end}}
{{- if .Bullets}}

Key points to cover:
{{- range .Bullets}}
- {{.}}
{{- end}}
{{- end}}
{{- with .Research}}

Research notes:
{{.}}
{{- end}}

Write about {{.Words}} words of Markdown prose for this section only. Do not repeat the heading.
`))

var reviewPromptTmpl = template.Must(template.New("review").Parse(`Revise this part of an article to improve readability, engagement, and coherence.
Topic: {{.Topic}}
Section: {{.Heading}}
Style: {{.Style.Name}} ({{.Style.Description}})
Keep every fact and the overall length. Shorten long sentences, vary rhythm, and smooth transitions.
Return only the revised text, without the section heading.

{{.InputMarker}}
{{.Text}}

{{.OutputMarker}}
`))

var changesPromptTmpl = template.Must(template.New("changes").Parse(`Provide a summary of changes made during review as JSON.
Topic: {{.Topic}}
Respond with a JSON object only, with the string fields "readability", "engagement", "coherence", and "other".

ORIGINAL:
{{.Original}}

REVISED:
{{.Revised}}
`))

var voicePromptTmpl = template.Must(template.New("voice").Parse(`Rewrite the article below in a natural, personal voice so it reads as written by a person.
Topic: {{.Topic}}
Style: {{.Style.Name}} ({{.Style.Description}})
{{- with .Tone}}
Tone: {{.}}
{{- end}}
Use contractions, varied sentence length, and an occasional direct address to the reader.
Keep the title line, every "## " heading, and all facts unchanged.

{{.InputMarker}}
{{.Text}}

{{.OutputMarker}}
`))

var imperfectionsPromptTmpl = template.Must(template.New("imperfections").Parse(`Add subtle human touches to the article below: an aside, a rhetorical question, a casual phrase.
Topic: {{.Topic}}
Style: {{.Style.Name}} ({{.Style.Description}})
Make only a few small changes. Keep the title line, every "## " heading, and all facts unchanged.

{{.InputMarker}}
{{.Text}}

{{.OutputMarker}}
`))

// render executes tmpl with data.
func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering %s prompt: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
