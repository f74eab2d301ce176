package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentora-api-io/api/pkg/models"
)

func trustBridgeTestServer(t *testing.T, respond func(w http.ResponseWriter, body trustBridgeRequest)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body trustBridgeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		respond(w, body)
	}))
}

func TestTrustBridgeMatchVerifies(t *testing.T) {
	server := trustBridgeTestServer(t, func(w http.ResponseWriter, body trustBridgeRequest) {
		assert.Equal(t, "A1234567", body.DocumentNumber)
		assert.Equal(t, "Ada", body.FirstName)
		_ = json.NewEncoder(w).Encode(trustBridgeResponse{
			Match:       true,
			Confidence:  0.98,
			ReferenceID: "TB-REF-42",
		})
	})
	defer server.Close()

	p := newTrustBridge(Config{BaseURL: server.URL, APIKey: "test-key"})
	result, err := p.Verify(context.Background(), Input{
		DocumentType: models.DocumentTypePassport,
		Number:       "A1234567",
		FirstName:    "Ada",
		LastName:     "Obi",
		DOB:          "1990-04-01",
	})
	require.NoError(t, err)
	assert.Equal(t, models.DocumentStatusVerified, result.Status)
	assert.Equal(t, 0.98, result.Confidence)
	assert.Equal(t, "TB-REF-42", result.Reference)
}

func TestTrustBridgeMismatchFails(t *testing.T) {
	server := trustBridgeTestServer(t, func(w http.ResponseWriter, _ trustBridgeRequest) {
		_ = json.NewEncoder(w).Encode(trustBridgeResponse{
			Match:  false,
			Reason: "holder name mismatch",
		})
	})
	defer server.Close()

	p := newTrustBridge(Config{BaseURL: server.URL, APIKey: "test-key"})
	result, err := p.Verify(context.Background(), Input{
		DocumentType: models.DocumentTypeLicense,
		Number:       "D1122334",
	})
	require.NoError(t, err)
	assert.Equal(t, models.DocumentStatusFailed, result.Status)
	assert.Equal(t, "holder name mismatch", result.Err)
}

func TestTrustBridgeServerErrorSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	p := newTrustBridge(Config{BaseURL: server.URL, APIKey: "test-key"})
	_, err := p.Verify(context.Background(), Input{
		DocumentType: models.DocumentTypeVoterCard,
		Number:       "V5566778",
	})
	assert.Error(t, err)
}

func TestTrustBridgeManualReviewSkipsNetwork(t *testing.T) {
	p := newTrustBridge(Config{BaseURL: "http://127.0.0.1:1", APIKey: "test-key"})

	result, err := p.Verify(context.Background(), Input{DocumentType: models.DocumentTypeProofOfAddress})
	require.NoError(t, err)
	assert.Equal(t, models.DocumentStatusPending, result.Status)
}
