package driven

import "context"

// Extractor turns raw document bytes into per-page plain text.
type Extractor interface {
	// Name returns the extractor name for logging.
	Name() string

	// Extensions lists the lower-case file extensions handled (e.g. ".pdf").
	Extensions() []string

	// Extract returns the text of each page in order.
	// Pages without extractable text are returned as empty strings.
	Extract(ctx context.Context, filename string, data []byte) ([]string, error)
}
