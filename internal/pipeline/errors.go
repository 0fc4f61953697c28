package pipeline

import "errors"

// #region errors
// Error taxonomy for pipeline failures. Policy denials (defcon gate,
// boundary firewall) are not errors: they return a formed Response whose
// Status the handler maps to a status code.
var (
	// ErrValidation means the request was malformed (e.g. empty message).
	ErrValidation = errors.New("invalid request")

	// ErrUpstreamTimeout means the model backend missed its deadline.
	ErrUpstreamTimeout = errors.New("model backend timed out")

	// ErrUpstream means the model backend or state source failed.
	ErrUpstream = errors.New("upstream failure")

	// ErrPersistence means a primary audit write failed. An unaudited
	// response is never returned, so this is fatal to the request.
	ErrPersistence = errors.New("audit persistence failure")
)

// #endregion errors
