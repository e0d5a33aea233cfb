package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service and controller functions when input
// fails business rule validation (e.g. empty route name, audio text over the
// length limit, non-image photo attachment).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrBusy is returned when an operation that allows at most one in-flight
// invocation (route geometry build, audio generation, chat send) is called
// while a previous invocation is still running. The new request is dropped,
// not queued. Handlers should map this to HTTP 409 Conflict.
var ErrBusy = errors.New("operation already in progress")

// ErrTooFewPoints is returned by route optimization when the route has fewer
// than three points. The point list is left unchanged.
var ErrTooFewPoints = errors.New("too few points")
