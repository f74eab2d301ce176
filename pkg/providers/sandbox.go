package providers

import (
	"context"
	"fmt"
	"unicode"

	"rentora-api-io/api/pkg/models"
)

func init() {
	register("sandbox", newSandbox)
}

// sandbox is a deterministic offline adapter for development and staging.
// Numeric document numbers verify, anything else fails, manual-review types
// come back pending, same as a real vendor.
type sandbox struct{}

func newSandbox(Config) Provider {
	return sandbox{}
}

func (sandbox) Name() string {
	return "sandbox"
}

func (sandbox) Verify(_ context.Context, in Input) (Result, error) {
	if in.DocumentType.RequiresManualReview() {
		return Result{Status: models.DocumentStatusPending}, nil
	}

	for _, ch := range in.Number {
		if !unicode.IsDigit(ch) {
			return Result{
				Status:    models.DocumentStatusFailed,
				Reference: fmt.Sprintf("SBX-FAIL-%s", in.DocumentType),
				Err:       "document number contains non-numeric characters",
			}, nil
		}
	}

	return Result{
		Status:     models.DocumentStatusVerified,
		Confidence: 0.95,
		Reference:  fmt.Sprintf("SBX-%s", in.DocumentType),
	}, nil
}
