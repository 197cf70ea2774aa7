package domain

import "errors"

// TransientError defines an interface for errors that may succeed on retry.
type TransientError interface {
	error
	IsTransient() bool
}

// IsTransient checks if an error is transient.
func IsTransient(err error) bool {
	var te TransientError
	if errors.As(err, &te) {
		return te.IsTransient()
	}
	return false
}

// SourceError tags a price source failure with its origin so diagnostics
// can tell a transient upstream error from a misconfigured source, even
// though both take the same fallback path.
type SourceError struct {
	Source    string // source name (e.g., "coingecko", "goldapi")
	Err       error  // underlying error
	Transient bool
}

func (e *SourceError) Error() string {
	return e.Source + ": " + e.Err.Error()
}

func (e *SourceError) IsTransient() bool {
	return e.Transient
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// NewSourceError creates a transient source error.
func NewSourceError(source string, err error) *SourceError {
	return &SourceError{Source: source, Err: err, Transient: true}
}

var (
	// ErrUnconfigured is returned by a price source that has no credentials.
	// Not a failure; the resolver silently falls through to the next rank.
	ErrUnconfigured = errors.New("source not configured")

	// ErrPriceMissing is returned when an upstream response parsed but
	// carried no usable price.
	ErrPriceMissing = errors.New("price missing in response")

	// ErrStateCorrupt is returned when the persisted blob cannot be decoded.
	ErrStateCorrupt = errors.New("persisted state corrupt")
)
