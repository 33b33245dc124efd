package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dshills/dronecheck/internal/catalog"
	"github.com/dshills/dronecheck/internal/schema"
)

var (
	accent  = lipgloss.Color("#2563EB") // blue
	fg      = lipgloss.Color("#E8E6E3")
	dim     = lipgloss.Color("#6B7280")
	faint   = lipgloss.Color("#3F3F46")
	success = lipgloss.Color("#22C55E")
	danger  = lipgloss.Color("#EF4444")
	warning = lipgloss.Color("#F59E0B")
)

const textWidth = 72

var (
	statusColors = map[schema.Status]lipgloss.Color{
		schema.StatusAllowed:    success,
		schema.StatusProhibited: danger,
		schema.StatusCaution:    warning,
	}

	statusIcons = map[schema.Status]string{
		schema.StatusAllowed:    "✓",
		schema.StatusProhibited: "✗",
		schema.StatusCaution:    "!",
	}

	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(accent)
	labelStyle    = lipgloss.NewStyle().Bold(true).Foreground(fg)
	dimStyle      = lipgloss.NewStyle().Foreground(dim)
	bodyStyle     = lipgloss.NewStyle().Width(textWidth).PaddingLeft(2)
	separatorLine = lipgloss.NewStyle().Foreground(faint).Render(strings.Repeat("─", textWidth))
)

type textRenderer struct{}

func statusBox(s schema.Status) lipgloss.Style {
	c, ok := statusColors[s]
	if !ok {
		c = dim
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(c).
		Foreground(c).
		Bold(true).
		Padding(0, 2)
}

func section(b *strings.Builder, label, body string) {
	b.WriteString(labelStyle.Render(label))
	b.WriteString("\n")
	b.WriteString(bodyStyle.Render(body))
	b.WriteString("\n\n")
}

func (r *textRenderer) Render(report *schema.Report) ([]byte, error) {
	var b strings.Builder
	res := report.Result

	headline := strings.TrimSpace(statusIcons[res.Status] + " " + res.Status.Headline())
	b.WriteString(statusBox(res.Status).Render(headline))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %s · %s\n", dimStyle.Render("Classe"), report.Query.ClassID, report.Class)
	fmt.Fprintf(&b, "%s %s, %s\n\n", dimStyle.Render("Position"),
		formatCoord(report.Query.Location.Latitude), formatCoord(report.Query.Location.Longitude))

	section(&b, "Type de zone", res.AreaType)
	section(&b, "Explication", res.Explanation)
	section(&b, "Dangers / A noter", res.Hazards)
	if d := report.Daylight; d != nil {
		sun := fmt.Sprintf("aube %s · lever %s · coucher %s · crépuscule %s",
			formatClock(d.CivilDawn), formatClock(d.Sunrise), formatClock(d.Sunset), formatClock(d.CivilDusk))
		if d.Night {
			sun += "\n" + lipgloss.NewStyle().Foreground(warning).Bold(true).Render("Il fait nuit à cette position.")
		}
		section(&b, "Ensoleillement", sun)
	}
	b.WriteString(lipgloss.NewStyle().Foreground(warning).Render(Disclaimer))
	b.WriteString("\n")

	b.WriteString(separatorLine)
	b.WriteString("\n")
	meta := fmt.Sprintf("model %s · %d ms", report.Meta.Model, report.Meta.DurationMS)
	b.WriteString(dimStyle.Render(meta))
	b.WriteString("\n")
	return []byte(b.String()), nil
}

func (r *textRenderer) RenderClasses(classes []schema.DroneClass) ([]byte, error) {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Classes de drones"))
	b.WriteString("\n\n")
	idStyle := labelStyle.Width(4)
	for _, c := range classes {
		fmt.Fprintf(&b, "%s %s\n", idStyle.Render(c.ID), c.Name)
		b.WriteString(dimStyle.PaddingLeft(5).Render(c.Details))
		b.WriteString("\n")
	}
	return []byte(b.String()), nil
}

func (r *textRenderer) RenderCategories(categories []catalog.Category) ([]byte, error) {
	var b strings.Builder
	for i, cat := range categories {
		if i > 0 {
			b.WriteString(separatorLine)
			b.WriteString("\n")
		}
		b.WriteString(headerStyle.Render(cat.Name))
		b.WriteString("\n")
		b.WriteString(dimStyle.Width(textWidth).Render(cat.Description))
		b.WriteString("\n\n")
		for j := range cat.Subcategories {
			sub := &cat.Subcategories[j]
			b.WriteString(labelStyle.Render(sub.Name))
			b.WriteString("\n")
			for _, a := range append(sub.Attributes(), sub.ExtraAttributes()...) {
				fmt.Fprintf(&b, "  %s %s\n", dimStyle.Render(a.Label+" :"), a.Value)
			}
			if sub.Details != "" {
				b.WriteString(bodyStyle.Render(sub.Details))
				b.WriteString("\n")
			}
			b.WriteString("\n")
		}
	}
	return []byte(b.String()), nil
}
