package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"rentora-api-io/api/pkg/models"
)

func TestNotifyCompletePostsToTarget(t *testing.T) {
	var (
		mu      sync.Mutex
		gotPath string
		gotKey  string
		gotBody map[string]any
	)
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-Notification-Key")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer target.Close()

	store := newMemStore()
	ns := NewNotificationService(target.URL, "shared-secret", store)

	req := &models.VerificationRequest{
		ID:             primitive.NewObjectID(),
		RequesterID:    primitive.NewObjectID(),
		RequesterEmail: "owner@rentora.io",
		Status:         models.RequestStatusApproved,
	}
	ns.NotifyComplete(context.Background(), req)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "/notifications/verification-complete", gotPath)
	assert.Equal(t, "shared-secret", gotKey)
	assert.Equal(t, "owner@rentora.io", gotBody["requesterEmail"])
	assert.Equal(t, "approved", gotBody["status"])

	assert.Empty(t, store.actions(req.ID))
}

func TestNotifyFailureRecordsRetryableHistory(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer target.Close()

	store := newMemStore()
	ns := NewNotificationService(target.URL, "shared-secret", store)

	req := &models.VerificationRequest{
		ID:          primitive.NewObjectID(),
		RequesterID: primitive.NewObjectID(),
		Status:      models.RequestStatusRejected,
	}
	ns.NotifyComplete(context.Background(), req)

	entries, err := store.ListHistory(context.Background(), req.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.HistoryNotificationFailed, entries[0].Action)
	assert.Equal(t, models.SystemActor, entries[0].Actor)
	assert.Equal(t, true, entries[0].Detail["retryable"])
	assert.Equal(t, "/notifications/verification-complete", entries[0].Detail["path"])
}

func TestNotifyUnreachableTargetRecordsFailure(t *testing.T) {
	store := newMemStore()
	ns := NewNotificationService("http://127.0.0.1:1", "shared-secret", store)

	req := &models.VerificationRequest{
		ID:          primitive.NewObjectID(),
		RequesterID: primitive.NewObjectID(),
	}
	doc := &models.VerificationDocument{
		ID:        primitive.NewObjectID(),
		RequestID: req.ID,
		Type:      models.DocumentTypePassport,
	}
	ns.NotifyDocumentFailed(context.Background(), req, doc)

	actions := store.actions(req.ID)
	require.Len(t, actions, 1)
	assert.Equal(t, models.HistoryNotificationFailed, actions[0])
}
