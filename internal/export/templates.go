package export

import (
	"bytes"
	"html/template"
	"time"
)

var entryTemplate = template.Must(template.New("entry").Funcs(template.FuncMap{
	"safeHTML": func(s string) template.HTML { return template.HTML(s) },
}).Parse(entryTemplateSource))

// TemplateData holds data for entry template rendering
type TemplateData struct {
	Title       string
	Slug        string
	ContentHTML string
	CreatedAt   time.Time
}

// RenderEntryHTML renders the standalone entry page used as export input.
func RenderEntryHTML(data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := entryTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const entryTemplateSource = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <style>
    body { font-family: Georgia, serif; line-height: 1.6; max-width: 720px; margin: 2rem auto; }
    h1 { border-bottom: 2px solid #333; padding-bottom: 0.5rem; }
    .meta { color: #666; font-size: 0.9em; margin-bottom: 2rem; }
    blockquote { border-left: 3px solid #ccc; margin-left: 0; padding-left: 1rem; color: #555; }
    pre { background: #f5f5f5; padding: 1rem; overflow-x: auto; }
    img { max-width: 100%; }
  </style>
</head>
<body>
  <h1>{{.Title}}</h1>
  <div class="meta">{{.Slug}} | created {{.CreatedAt.Format "January 2, 2006"}}</div>
  <div>{{.ContentHTML | safeHTML}}</div>
</body>
</html>`
