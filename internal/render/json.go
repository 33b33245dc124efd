package render

import (
	"encoding/json"

	"github.com/dshills/dronecheck/internal/catalog"
	"github.com/dshills/dronecheck/internal/schema"
)

type jsonRenderer struct{}

func (r *jsonRenderer) Render(report *schema.Report) ([]byte, error) {
	return json.MarshalIndent(report, "", "  ")
}

func (r *jsonRenderer) RenderClasses(classes []schema.DroneClass) ([]byte, error) {
	if classes == nil {
		classes = []schema.DroneClass{}
	}
	return json.MarshalIndent(classes, "", "  ")
}

func (r *jsonRenderer) RenderCategories(categories []catalog.Category) ([]byte, error) {
	if categories == nil {
		categories = []catalog.Category{}
	}
	return json.MarshalIndent(categories, "", "  ")
}
