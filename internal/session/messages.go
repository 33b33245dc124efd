package session

import (
	"errors"

	"github.com/dshills/dronecheck/internal/geo"
)

const (
	msgGeoUnavailable = "La géolocalisation n'est pas supportée par votre environnement."
	msgGeoDenied      = "Erreur de géolocalisation : "
	msgClassifier     = "Une erreur est survenue lors de la vérification avec l'IA. Veuillez réessayer."
)

// UserMessage returns the French text shown for a failed check. All model
// failures share one message; their kinds stay available on err for logs.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, geo.ErrUnavailable):
		return msgGeoUnavailable
	case errors.Is(err, geo.ErrDenied):
		return msgGeoDenied + err.Error()
	default:
		return msgClassifier
	}
}
