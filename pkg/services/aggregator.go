package services

import (
	"rentora-api-io/api/pkg/models"
)

// AggregateRequestStatus derives the request-level status from its documents.
// Strict AND-aggregation: any undecided document keeps the request
// in_progress, a single failed document (with none undecided) rejects it,
// and approval requires every document verified. Partial success never
// yields approval.
func AggregateRequestStatus(docs []models.VerificationDocument) models.RequestStatus {
	if len(docs) == 0 {
		return models.RequestStatusPending
	}

	failed := false
	for _, doc := range docs {
		switch doc.Status {
		case models.DocumentStatusPending, models.DocumentStatusInProgress:
			return models.RequestStatusInProgress
		case models.DocumentStatusFailed:
			failed = true
		}
	}

	if failed {
		return models.RequestStatusRejected
	}
	return models.RequestStatusApproved
}
