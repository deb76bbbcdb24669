package apierror

import (
	"net/http"
	"sync"

	"github.com/danielgtaylor/huma/v2"
)

// MetadataKey is the huma.Operation metadata key naming the operation's Envelope.
const MetadataKey = "errorEnvelope"

// Envelope selects the body shape huma-generated errors take for an operation.
type Envelope int

const (
	// EnvelopeError renders {"error": ...}.
	EnvelopeError Envelope = iota + 1
	// EnvelopeFailure renders {"success": false, "message": ...}.
	EnvelopeFailure
)

var installOnce sync.Once

// Install makes errors huma raises outside the handlers (body decoding,
// schema validation, middleware rejections) use the envelope declared in the
// operation metadata. Validation failures become 400. Operations without an
// envelope keep huma's problem+json errors.
func Install() {
	installOnce.Do(func() {
		fallback := huma.NewErrorWithContext

		huma.NewErrorWithContext = func(ctx huma.Context, status int, msg string, errs ...error) huma.StatusError {
			envelope := envelopeOf(ctx)
			if envelope == 0 {
				return fallback(ctx, status, msg, errs...)
			}

			if status == http.StatusUnprocessableEntity {
				status = http.StatusBadRequest
			}

			if len(errs) > 0 && errs[0] != nil {
				msg += ": " + errs[0].Error()
			}

			if envelope == EnvelopeFailure {
				return Failure(status, msg)
			}

			return New(status, msg)
		}
	})
}

func envelopeOf(ctx huma.Context) Envelope {
	if ctx == nil {
		return 0
	}

	op := ctx.Operation()
	if op == nil {
		return 0
	}

	envelope, _ := op.Metadata[MetadataKey].(Envelope)

	return envelope
}
