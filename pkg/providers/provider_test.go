package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentora-api-io/api/pkg/models"
)

func TestNewResolvesRegisteredAdapters(t *testing.T) {
	for _, name := range []string{"sandbox", "trustbridge"} {
		p, err := New(name, Config{})
		require.NoError(t, err)
		assert.Equal(t, name, p.Name())
	}
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New("acme", Config{})
	assert.Error(t, err)
}

func TestSandboxVerifiesNumericNumbers(t *testing.T) {
	p, err := New("sandbox", Config{})
	require.NoError(t, err)

	result, err := p.Verify(context.Background(), Input{
		DocumentType: models.DocumentTypePassport,
		Number:       "123456789",
		FirstName:    "Ada",
		LastName:     "Obi",
		DOB:          "1990-04-01",
	})
	require.NoError(t, err)
	assert.Equal(t, models.DocumentStatusVerified, result.Status)
	assert.Equal(t, 0.95, result.Confidence)
	assert.Equal(t, "SBX-passport", result.Reference)
}

func TestSandboxFailsNonNumericNumbers(t *testing.T) {
	p, err := New("sandbox", Config{})
	require.NoError(t, err)

	result, err := p.Verify(context.Background(), Input{
		DocumentType: models.DocumentTypeNationalID,
		Number:       "AB-123",
	})
	require.NoError(t, err)
	assert.Equal(t, models.DocumentStatusFailed, result.Status)
	assert.NotEmpty(t, result.Err)
}

func TestSandboxManualReviewTypesStayPending(t *testing.T) {
	p, err := New("sandbox", Config{})
	require.NoError(t, err)

	for _, docType := range []models.DocumentType{models.DocumentTypeUtilityBill, models.DocumentTypeProofOfAddress} {
		result, err := p.Verify(context.Background(), Input{DocumentType: docType})
		require.NoError(t, err)
		assert.Equal(t, models.DocumentStatusPending, result.Status)
	}
}
