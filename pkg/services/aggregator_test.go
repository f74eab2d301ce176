package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"rentora-api-io/api/pkg/models"
)

func docsWith(statuses ...models.DocumentStatus) []models.VerificationDocument {
	docs := make([]models.VerificationDocument, len(statuses))
	for i, status := range statuses {
		docs[i] = models.VerificationDocument{Status: status}
	}
	return docs
}

func TestAggregateRequestStatus(t *testing.T) {
	tests := []struct {
		name     string
		docs     []models.VerificationDocument
		expected models.RequestStatus
	}{
		{
			name:     "no documents stays pending",
			docs:     nil,
			expected: models.RequestStatusPending,
		},
		{
			name:     "all verified approves",
			docs:     docsWith(models.DocumentStatusVerified, models.DocumentStatusVerified),
			expected: models.RequestStatusApproved,
		},
		{
			name:     "undecided document keeps request in progress",
			docs:     docsWith(models.DocumentStatusVerified, models.DocumentStatusPending),
			expected: models.RequestStatusInProgress,
		},
		{
			name:     "undecided wins over failed",
			docs:     docsWith(models.DocumentStatusFailed, models.DocumentStatusInProgress),
			expected: models.RequestStatusInProgress,
		},
		{
			name:     "single failure rejects",
			docs:     docsWith(models.DocumentStatusVerified, models.DocumentStatusFailed),
			expected: models.RequestStatusRejected,
		},
		{
			name:     "partial success never approves",
			docs:     docsWith(models.DocumentStatusVerified, models.DocumentStatusVerified, models.DocumentStatusFailed),
			expected: models.RequestStatusRejected,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, AggregateRequestStatus(tc.docs))
		})
	}
}
