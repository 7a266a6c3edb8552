package catalog

import (
	"errors"
	"fmt"

	"storefront-service/internal/models"
)

// ErrUnauthorized marks a 401/403 from a catalog provider. Callers that see
// it may evict the merchant's credentials and retry once; any other failure
// should be surfaced as-is.
var ErrUnauthorized = errors.New("catalog: provider rejected credentials")

// ErrDecode marks a provider payload that did not match the expected shape.
// Not retried automatically; indicates a contract break.
var ErrDecode = errors.New("catalog: malformed provider payload")

// StatusError reports a non-2xx, non-auth response from a provider API.
type StatusError struct {
	Provider models.Provider
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("catalog: %s API returned status %d", e.Provider, e.Code)
}
