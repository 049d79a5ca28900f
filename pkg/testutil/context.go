package testutil

import (
	"net/http"

	"tokenscope/pkg/requestcontext"
)

// WithActor marks the request as coming from actor, as the auth middleware
// would after a successful admin check.
func WithActor(req *http.Request, actor string) *http.Request {
	return req.WithContext(requestcontext.WithActor(req.Context(), actor))
}

// WithRequestID sets a correlation ID on the request context.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
