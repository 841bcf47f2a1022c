package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// RequestWithUID puts the uid where the auth middleware would, so
// handler tests can skip the middleware chain.
func RequestWithUID(r *http.Request, uid uuid.UUID) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), uidContextKey, uid))
}
