package services

import (
	"context"
	"io"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"rentora-api-io/api/pkg/models"
	"rentora-api-io/api/pkg/util"
)

// UploadDocumentInput is one document submission. Number is the declared
// document number in the clear; the service seals it before persistence.
type UploadDocumentInput struct {
	Type     models.DocumentType
	FileName string
	MimeType string
	FileSize int64
	File     io.Reader
	Number   string
	Metadata models.DocumentMetadata
}

// VerificationService defines the interface for the verification request
// lifecycle: creation, document submission, reads and the verification
// routine shared by the queue worker and the dispatch fallback.
type VerificationService interface {
	CreateRequest(ctx context.Context, requesterID primitive.ObjectID) (*models.VerificationRequest, error)
	UploadDocument(ctx context.Context, requestID primitive.ObjectID, in UploadDocumentInput) (*models.VerificationDocument, error)
	GetStatus(ctx context.Context, requestID primitive.ObjectID) (*models.VerificationStatusResponse, error)
	GetHistory(ctx context.Context, requestID primitive.ObjectID) ([]models.VerificationHistory, error)
	GetLatestByRequester(ctx context.Context, requesterID primitive.ObjectID) (*models.VerificationRequest, error)
	RunVerification(ctx context.Context, documentID primitive.ObjectID) error
}

// AdminReviewService is the platform-admin review authority. Tenant-category
// requests belong to the owner path and are excluded here by default.
type AdminReviewService interface {
	ListRequests(ctx context.Context, filter RequestFilter, page util.PaginationArgs) ([]models.VerificationRequest, int64, error)
	GetRequestDetail(ctx context.Context, requestID primitive.ObjectID) (*models.VerificationStatusResponse, error)
	Approve(ctx context.Context, requestID, reviewerID primitive.ObjectID) error
	Reject(ctx context.Context, requestID, reviewerID primitive.ObjectID, reason string) error
	DocumentURL(ctx context.Context, documentID primitive.ObjectID, actor string) (string, error)
	ProviderAnalytics(ctx context.Context) ([]models.ProviderCallStat, error)
	DeleteRequest(ctx context.Context, requestID primitive.ObjectID, actor string) (int64, error)
}

// OwnerReviewService is the property-owner review authority, scoped to the
// owner's own tenants. Owner approval is a lower-trust tier than platform
// verification and additionally charges the owner's storage quota.
type OwnerReviewService interface {
	ListTenantRequests(ctx context.Context, ownerID primitive.ObjectID, filter RequestFilter, page util.PaginationArgs) ([]models.VerificationRequest, int64, error)
	TenantDetail(ctx context.Context, ownerID, tenantID primitive.ObjectID) (*models.VerificationStatusResponse, error)
	Analytics(ctx context.Context, ownerID primitive.ObjectID) (*models.OwnerAnalytics, error)
	Approve(ctx context.Context, ownerID, tenantID primitive.ObjectID) error
	Reject(ctx context.Context, ownerID, tenantID primitive.ObjectID, reason string) error
	RequestResubmission(ctx context.Context, ownerID, tenantID primitive.ObjectID) error
	Delete(ctx context.Context, ownerID, tenantID primitive.ObjectID) error
}
