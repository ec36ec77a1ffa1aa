package sync

import (
	"errors"

	"github.com/sparkinventory/spark-notify/internal/api"
	"github.com/sparkinventory/spark-notify/internal/auth"
)

// notificationAuthError reports whether the fetch failed because the
// session is no longer valid, as opposed to a transient network fault.
func notificationAuthError(err error) bool {
	if api.IsAuthError(err) {
		return true
	}
	return errors.Is(err, auth.ErrTokenExpired) ||
		errors.Is(err, auth.ErrMissingCredential) ||
		errors.Is(err, auth.ErrMissingTenant)
}
