package schema

import "errors"

var (
	// ErrUpstreamUnavailable marks embedding or vector store transport failures and non-success statuses.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrGenerationFailed marks completion provider failures.
	ErrGenerationFailed = errors.New("generation failed")
	// ErrEvidenceRenderFailed marks a single evidence page that could not be rendered or sent.
	ErrEvidenceRenderFailed = errors.New("evidence render failed")
	// ErrEmptyInput is returned when a provider is called with nothing to process.
	ErrEmptyInput = errors.New("empty input")
)
