package domain

// Source tag stamped on every payload.
const SourceGoogle = "google"

// Disclaimer shipped with every payload. Fixed compliance copy; changing it
// changes the payload fingerprint, which is intentional.
const Disclaimer = "Avaliações públicas do Google, anonimizadas em conformidade com a LGPD e o Código de Ética Médica."

// RawReview is the provider's review shape. Ephemeral: it lives for one fetch
// cycle and is never persisted.
type RawReview struct {
	AuthorName              string  `json:"author_name"`
	Rating                  float64 `json:"rating"`
	Text                    string  `json:"text"`
	RelativeTimeDescription string  `json:"relative_time_description"`
}

// SanitizedReview is the public, redacted form of a RawReview. ID is the
// zero-based position within the truncated list, not a provider identifier.
type SanitizedReview struct {
	ID           int     `json:"id"`
	Author       string  `json:"author"`
	Rating       float64 `json:"rating"`
	Text         string  `json:"text"`
	RelativeTime string  `json:"relativeTime"`
}

// ReviewPayload is the assembled response body. Built fresh each fetch cycle
// and never mutated afterwards.
type ReviewPayload struct {
	Source     string            `json:"source"`
	Total      int               `json:"total"`
	Rating     *float64          `json:"rating"`
	Reviews    []SanitizedReview `json:"reviews"`
	Disclaimer string            `json:"disclaimer"`
	Timestamp  string            `json:"timestamp"`
}

// ProviderResult mirrors the Places Details "result" object. Rating and
// UserRatingsTotal are pointers so an absent field is distinguishable from
// zero and can fall back at assembly time.
type ProviderResult struct {
	Reviews          []RawReview `json:"reviews"`
	Rating           *float64    `json:"rating"`
	UserRatingsTotal *int        `json:"user_ratings_total"`
}

// ProviderResponse is the full Places Details envelope.
type ProviderResponse struct {
	Status       string         `json:"status"`
	Result       ProviderResult `json:"result"`
	ErrorMessage string         `json:"error_message,omitempty"`
}

// StatusOK is the provider's success sentinel; any other status is a
// ProviderError at assembly time.
const StatusOK = "OK"
