package domain

import "errors"

var (
	// ErrPageNotFound is returned when a crawled page does not exist (HTTP 404)
	ErrPageNotFound = errors.New("page not found")

	// ErrProductNotFound is returned when no product matches a query or URL
	ErrProductNotFound = errors.New("product not found")

	// ErrSiteUnavailable is returned when the retail site cannot be reached
	ErrSiteUnavailable = errors.New("site unavailable")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when no cached catalog snapshot exists
	ErrCacheMiss = errors.New("cache miss")

	// ErrGenerationFailed is returned when the generation backend errors out
	ErrGenerationFailed = errors.New("generation failed")

	// ErrGenerationTimeout is returned when generation exceeds its deadline
	ErrGenerationTimeout = errors.New("generation timed out")
)
