package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"rentora-api-io/api/pkg/models"
	"rentora-api-io/api/pkg/util"
)

// RequestFilter narrows admin and owner listings.
type RequestFilter struct {
	Status   models.RequestStatus
	Category models.RequesterCategory
	Search   string
	// OwnerID scopes the listing to requests whose requester is a tenant of
	// this property owner.
	OwnerID *primitive.ObjectID
}

// DocumentResult is what the verification routine persists after a provider
// call settles.
type DocumentResult struct {
	Status        models.DocumentStatus
	Provider      string
	ProviderRef   string
	Confidence    float64
	FailureReason string
	VerifiedAt    *time.Time
}

// DocumentUpload replaces the stored file of an existing document row on
// re-submission. Status goes back to pending and provider fields are wiped.
type DocumentUpload struct {
	FileURL      string
	StorageKey   string
	FileSize     int64
	MimeType     string
	SealedNumber string
	Metadata     models.DocumentMetadata
}

// VerificationStore is the persistence boundary of the verification core.
// The mongo implementation expresses every multi-row review update as a
// single transaction; a partial write is an invariant violation.
type VerificationStore interface {
	InsertRequest(ctx context.Context, req *models.VerificationRequest) error
	FindRequestByID(ctx context.Context, id primitive.ObjectID) (*models.VerificationRequest, error)
	FindOpenRequestByRequester(ctx context.Context, requesterID primitive.ObjectID) (*models.VerificationRequest, error)
	FindLatestRequestByRequester(ctx context.Context, requesterID primitive.ObjectID) (*models.VerificationRequest, error)
	ListRequests(ctx context.Context, filter RequestFilter, page util.PaginationArgs) ([]models.VerificationRequest, int64, error)
	CountRequestsByStatus(ctx context.Context, ownerID *primitive.ObjectID) (map[models.RequestStatus]int64, error)
	SetRequestInProgress(ctx context.Context, id primitive.ObjectID) error

	// FinalizeRequest atomically sets the terminal status together with the
	// requester's cached kyc_status. Reviewer is nil for system decisions.
	FinalizeRequest(ctx context.Context, id primitive.ObjectID, status models.RequestStatus, reviewer *primitive.ObjectID, reason string) error

	// ApproveRequestAdmin finalizes as approved and bulk-marks every document
	// of the request verified in the same transaction.
	ApproveRequestAdmin(ctx context.Context, id, reviewer primitive.ObjectID) error

	// ApproveRequestOwner finalizes as owner_approved, flags the requester
	// and charges totalBytes against the owner's storage quota, atomically.
	ApproveRequestOwner(ctx context.Context, id, reviewer primitive.ObjectID, totalBytes int64) error

	// ResetRequestForResubmission returns the request and requester cache to
	// pending without touching documents.
	ResetRequestForResubmission(ctx context.Context, id primitive.ObjectID) error

	// ClearRequesterVerification resets the requester's cached verification
	// fields to their unset state (owner delete path, local side).
	ClearRequesterVerification(ctx context.Context, requesterID primitive.ObjectID) error

	// DeleteRequest removes the request and cascades to its documents,
	// returning the number of documents removed. History rows are kept.
	DeleteRequest(ctx context.Context, id primitive.ObjectID) (int64, error)

	InsertDocument(ctx context.Context, doc *models.VerificationDocument) error
	ReplaceDocumentUpload(ctx context.Context, id primitive.ObjectID, upload DocumentUpload) error
	FindDocumentByID(ctx context.Context, id primitive.ObjectID) (*models.VerificationDocument, error)
	FindDocumentByType(ctx context.Context, requestID primitive.ObjectID, docType models.DocumentType) (*models.VerificationDocument, error)
	ListDocuments(ctx context.Context, requestID primitive.ObjectID) ([]models.VerificationDocument, error)

	// MarkDocumentInProgress transitions pending -> in_progress and reports
	// whether this caller won the transition. A false result means another
	// dispatch path already owns the document.
	MarkDocumentInProgress(ctx context.Context, id primitive.ObjectID) (bool, error)
	SetDocumentResult(ctx context.Context, id primitive.ObjectID, result DocumentResult) error

	AppendHistory(ctx context.Context, entry *models.VerificationHistory) error
	ListHistory(ctx context.Context, requestID primitive.ObjectID) ([]models.VerificationHistory, error)

	InsertProviderLog(ctx context.Context, entry *models.ProviderLogEntry) error
	ProviderCallStats(ctx context.Context) ([]models.ProviderCallStat, error)

	FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}
