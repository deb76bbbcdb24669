package shortener

import (
	"context"
	"errors"
)

// Outcome is the result class of resolving a short code.
type Outcome int

const (
	OutcomeRedirect Outcome = iota + 1
	OutcomeNotFound
	OutcomeExpired
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRedirect:
		return "redirect"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Resolution is what a code resolves to. ShortURL is nil for OutcomeNotFound.
type Resolution struct {
	Outcome  Outcome
	ShortURL *ShortURL
}

// Resolver turns short codes into redirect targets.
type Resolver struct {
	store *Store
}

// NewResolver creates a resolver over store.
func NewResolver(store *Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve classifies code as a live redirect, an expired link or an unknown code.
// Only storage faults are returned as errors.
func (r *Resolver) Resolve(ctx context.Context, code Code) (Resolution, error) {
	record, err := r.store.Get(ctx, code)

	switch {
	case err == nil:
		return Resolution{Outcome: OutcomeRedirect, ShortURL: record}, nil
	case errors.Is(err, ErrNotFound):
		return Resolution{Outcome: OutcomeNotFound}, nil
	case errors.Is(err, ErrExpired):
	default:
		return Resolution{}, err
	}

	expired, err := r.store.GetExpired(ctx, code)
	if err != nil {
		// Not found here means the record was purged between the two reads.
		if errors.Is(err, ErrNotFound) {
			return Resolution{Outcome: OutcomeNotFound}, nil
		}

		return Resolution{}, err
	}

	return Resolution{Outcome: OutcomeExpired, ShortURL: expired}, nil
}
