package render

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/dshills/dronecheck/internal/catalog"
	"github.com/dshills/dronecheck/internal/schema"
)

type markdownRenderer struct{}

var mdFuncs = template.FuncMap{"coord": formatCoord, "clock": formatClock, "disclaimer": func() string { return Disclaimer }}

var mdReport = template.Must(template.New("report").Funcs(mdFuncs).Parse(`# {{ .Result.Status.Headline }}

**Statut :** {{ .Result.Status }}
**Classe :** {{ .Query.ClassID }} · {{ .Class }}
**Position :** {{ coord .Query.Location.Latitude }}, {{ coord .Query.Location.Longitude }}

## Type de zone

{{ .Result.AreaType }}

## Explication

{{ .Result.Explanation }}

## Dangers / A noter

{{ .Result.Hazards }}
{{ with .Daylight }}
## Ensoleillement

Aube civile {{ clock .CivilDawn }} · Lever {{ clock .Sunrise }} · Coucher {{ clock .Sunset }} · Crépuscule civil {{ clock .CivilDusk }}{{ if .Night }}

**Il fait nuit à cette position.**{{ end }}
{{ end }}
> {{ disclaimer }}

---
*Model: {{ .Meta.Model }} | Duration: {{ .Meta.DurationMS }} ms | Check: {{ .CheckID }}*
`))

var mdClasses = template.Must(template.New("classes").Parse(`# Classes de drones

| Classe | Nom | Détails |
|---|---|---|
{{ range . }}| {{ .ID }} | {{ .Name }} | {{ .Details }} |
{{ end }}`))

var mdCategories = template.Must(template.New("categories").Parse(`# Catégories d'exploitation
{{ range . }}
## {{ .Name }}

{{ .Description }}
{{ range .Subcategories }}
### {{ .Name }}
{{ range .Attributes }}
- **{{ .Label }} :** {{ .Value }}{{ end }}{{ range .ExtraAttributes }}
- **{{ .Label }} :** {{ .Value }}{{ end }}

{{ .Details }}
{{ end }}{{ end }}`))

func (r *markdownRenderer) Render(report *schema.Report) ([]byte, error) {
	return execute(mdReport, report)
}

func (r *markdownRenderer) RenderClasses(classes []schema.DroneClass) ([]byte, error) {
	return execute(mdClasses, classes)
}

func (r *markdownRenderer) RenderCategories(categories []catalog.Category) ([]byte, error) {
	return execute(mdCategories, categories)
}

func execute(t *template.Template, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("rendering markdown: %w", err)
	}
	return buf.Bytes(), nil
}
