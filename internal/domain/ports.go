package domain

import "context"

// ReviewSource is the outbound port to the third-party reviews provider.
// Implementations return the decoded provider envelope; a non-success status
// field is the assembler's problem, not the transport's.
type ReviewSource interface {
	PlaceDetails(ctx context.Context) (ProviderResponse, error)
}
