package llm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dshills/dronecheck/internal/schema"
)

// NoHazardsPhrase is the hazards text the model is told to use when nothing
// notable is nearby.
const NoHazardsPhrase = "Aucun danger majeur identifié"

const complianceInstructions = `Based on French DGAC/EASA regulations and public geographical data (like airports, national parks, military zones, hospitals, nuclear plants, sensitive areas), determine the flight compliance.

Respond ONLY with a JSON object with the following structure:`

const resultExample = `{
  "status": "ALLOWED" | "PROHIBITED" | "CAUTION",
  "areaType": "A short description of the area type (e.g., 'Urban area', 'Near international airport', 'National park')",
  "explanation": "A concise explanation in French for the status. Explain the key restrictions or permissions.",
  "hazards": "A concise summary of nearby hazards or points of interest in French. If none, say '` + NoHazardsPhrase + `'."
}`

// ComplianceSchema is the structured output requested for a compliance check.
// It only guarantees string fields; status membership is validated separately.
var ComplianceSchema = &Schema{
	Type: "object",
	Properties: map[string]*Schema{
		"status":      {Type: "string"},
		"areaType":    {Type: "string"},
		"explanation": {Type: "string"},
		"hazards":     {Type: "string"},
	},
	Required: []string{"status", "areaType", "explanation", "hazards"},
}

// BuildCompliancePrompt constructs the user prompt for one drone class and location.
func BuildCompliancePrompt(class schema.DroneClass, loc schema.Location) string {
	var sb strings.Builder

	sb.WriteString("Analyse this drone flight request in France based on my location and drone class.\n")
	sb.WriteString(fmt.Sprintf("- My location: latitude %s, longitude %s.\n", formatCoord(loc.Latitude), formatCoord(loc.Longitude)))
	sb.WriteString(fmt.Sprintf("- Drone class: %s (%s - %s).\n\n", class.ID, class.Name, class.Details))
	sb.WriteString(complianceInstructions)
	sb.WriteString("\n")
	sb.WriteString(resultExample)

	return sb.String()
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
