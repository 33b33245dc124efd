package render

import (
	"fmt"
	"time"

	"github.com/dshills/dronecheck/internal/catalog"
	"github.com/dshills/dronecheck/internal/schema"
)

// Renderer formats check reports and catalog listings into bytes for output.
type Renderer interface {
	Render(report *schema.Report) ([]byte, error)
	RenderClasses(classes []schema.DroneClass) ([]byte, error)
	RenderCategories(categories []catalog.Category) ([]byte, error)
}

// Disclaimer is printed under every check verdict.
const Disclaimer = "Attention : Cet outil est expérimental et ne remplace pas une vérification sur les cartes officielles (Geoportail)."

// Formats lists the accepted --format values.
var Formats = []string{"text", "json", "md"}

// NewRenderer returns a Renderer for the given format string.
// Supported formats: "text" (default), "json", "md".
func NewRenderer(format string) (Renderer, error) {
	switch format {
	case "text", "":
		return &textRenderer{}, nil
	case "json":
		return &jsonRenderer{}, nil
	case "md":
		return &markdownRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown format %q: supported formats are text, json, md", format)
	}
}

func formatCoord(v float64) string {
	return fmt.Sprintf("%.5f", v)
}

// formatClock prints a sun event in the machine's local time zone.
func formatClock(t time.Time) string {
	return t.Local().Format("15:04")
}
