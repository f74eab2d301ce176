package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"rentora-api-io/api/pkg/models"
)

func init() {
	register("trustbridge", newTrustBridge)
}

// trustBridge talks to the TrustBridge document-check API. One endpoint per
// automatable document type; utility bills and proof-of-address have no
// automated check and come back pending for admin review.
type trustBridge struct {
	cfg    Config
	client *http.Client
}

var trustBridgeEndpoints = map[models.DocumentType]string{
	models.DocumentTypeNationalID: "/v1/checks/national-id",
	models.DocumentTypePassport:   "/v1/checks/passport",
	models.DocumentTypeLicense:    "/v1/checks/license",
	models.DocumentTypeVoterCard:  "/v1/checks/voter-card",
}

func newTrustBridge(cfg Config) Provider {
	return &trustBridge{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (tb *trustBridge) Name() string {
	return "trustbridge"
}

type trustBridgeRequest struct {
	DocumentNumber string `json:"document_number"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	DOB            string `json:"dob"`
	Country        string `json:"country,omitempty"`
}

type trustBridgeResponse struct {
	Match       bool           `json:"match"`
	Confidence  float64        `json:"confidence"`
	ReferenceID string         `json:"reference_id"`
	Reason      string         `json:"reason"`
	Data        map[string]any `json:"data"`
}

func (tb *trustBridge) Verify(ctx context.Context, in Input) (Result, error) {
	if in.DocumentType.RequiresManualReview() {
		return Result{Status: models.DocumentStatusPending}, nil
	}

	endpoint, ok := trustBridgeEndpoints[in.DocumentType]
	if !ok {
		return Result{}, errors.Errorf("trustbridge has no check for document type %s", in.DocumentType)
	}

	payload, err := json.Marshal(trustBridgeRequest{
		DocumentNumber: in.Number,
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		DOB:            in.DOB,
		Country:        in.Country,
	})
	if err != nil {
		return Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tb.cfg.BaseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+tb.cfg.APIKey)

	res, err := tb.client.Do(req)
	if err != nil {
		return Result{}, errors.Wrap(err, "trustbridge request failed")
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return Result{}, errors.Errorf("trustbridge returned status %d", res.StatusCode)
	}

	var body trustBridgeResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return Result{}, errors.Wrap(err, "unable to decode trustbridge response")
	}

	result := Result{
		Confidence: body.Confidence,
		Reference:  body.ReferenceID,
		RawData:    body.Data,
	}
	if body.Match {
		result.Status = models.DocumentStatusVerified
	} else {
		result.Status = models.DocumentStatusFailed
		result.Err = body.Reason
	}

	return result, nil
}
