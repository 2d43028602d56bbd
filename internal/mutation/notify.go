// Package mutation wraps write operations with optimistic cache updates:
// snapshot, predict, commit or roll back, then mark stale for reconciliation.
package mutation

import (
	"net/http"

	"github.com/circulab/marketplace-go/internal/api"
)

// Notifier receives user-facing success and error notifications (the toast
// surface).
type Notifier interface {
	Success(message string)
	Error(message string)
}

// NopNotifier discards notifications.
type NopNotifier struct{}

func (NopNotifier) Success(string) {}
func (NopNotifier) Error(string)   {}

// ErrorMessage maps an error to its user-facing message. Rate-limit errors
// yield "": the generic toast is suppressed there because the caller shows a
// countdown instead.
func ErrorMessage(err error) string {
	switch {
	case api.IsRateLimited(err):
		return ""
	case api.IsAuthError(err):
		return "Session expirée, veuillez vous reconnecter"
	case api.StatusOf(err) == 0:
		return "Erreur réseau ou serveur"
	default:
		if apiErr, ok := err.(*api.Error); ok {
			return apiErr.Message()
		}
		return "Erreur réseau ou serveur"
	}
}

// UploadErrorMessage maps upload validation failures to specific messages
// instead of a generic one.
func UploadErrorMessage(err error) string {
	switch api.StatusOf(err) {
	case http.StatusRequestEntityTooLarge:
		return "Le fichier est trop volumineux"
	case http.StatusUnsupportedMediaType:
		return "Type de fichier non supporté"
	case http.StatusUnprocessableEntity:
		return "Fichier invalide"
	default:
		return ErrorMessage(err)
	}
}
