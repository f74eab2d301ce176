package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VerificationRequest is one verification attempt by a requester. It owns
// its documents exclusively; deleting the request cascades to them.
type VerificationRequest struct {
	ID              primitive.ObjectID  `bson:"_id" json:"id"`
	RequesterID     primitive.ObjectID  `bson:"requester_id" json:"requesterId"`
	RequesterEmail  string              `bson:"requester_email" json:"requesterEmail"`
	Category        RequesterCategory   `bson:"category" json:"category"`
	Status          RequestStatus       `bson:"status" json:"status"`
	RejectionReason string              `bson:"rejection_reason,omitempty" json:"rejectionReason,omitempty"`
	ReviewedBy      *primitive.ObjectID `bson:"reviewed_by,omitempty" json:"reviewedBy,omitempty"`
	SubmittedAt     time.Time           `bson:"submitted_at" json:"submittedAt"`
	ReviewedAt      *time.Time          `bson:"reviewed_at,omitempty" json:"reviewedAt,omitempty"`
	CompletedAt     *time.Time          `bson:"completed_at,omitempty" json:"completedAt,omitempty"`
	CreatedAt       time.Time           `bson:"created_at" json:"createdAt"`
	ModifiedAt      time.Time           `bson:"modified_at" json:"modifiedAt"`
}

// DocumentMetadata carries the typed auxiliary fields providers require.
// Identity document types need the holder's name and date of birth.
type DocumentMetadata struct {
	FirstName string `bson:"first_name,omitempty" json:"firstName,omitempty"`
	LastName  string `bson:"last_name,omitempty" json:"lastName,omitempty"`
	DOB       string `bson:"dob,omitempty" json:"dob,omitempty"`
	Country   string `bson:"country,omitempty" json:"country,omitempty"`
}

// VerificationDocument is one uploaded identity artifact within a request.
// DocumentNumber is sealed at rest and is only opened inside the provider
// call boundary; it must never be logged.
type VerificationDocument struct {
	ID             primitive.ObjectID `bson:"_id" json:"id"`
	RequestID      primitive.ObjectID `bson:"request_id" json:"requestId"`
	Type           DocumentType       `bson:"document_type" json:"documentType"`
	SealedNumber   string             `bson:"sealed_number,omitempty" json:"-"`
	FileURL        string             `bson:"file_url" json:"fileUrl"`
	StorageKey     string             `bson:"storage_key" json:"-"`
	FileSize       int64              `bson:"file_size" json:"fileSize"`
	MimeType       string             `bson:"mime_type" json:"mimeType"`
	Metadata       DocumentMetadata   `bson:"metadata" json:"metadata"`
	Status         DocumentStatus     `bson:"status" json:"status"`
	Provider       string             `bson:"provider,omitempty" json:"provider,omitempty"`
	ProviderRef    string             `bson:"provider_ref,omitempty" json:"providerRef,omitempty"`
	Confidence     float64            `bson:"confidence,omitempty" json:"confidence,omitempty"`
	FailureReason  string             `bson:"failure_reason,omitempty" json:"failureReason,omitempty"`
	VerifiedAt     *time.Time         `bson:"verified_at,omitempty" json:"verifiedAt,omitempty"`
	CreatedAt      time.Time          `bson:"created_at" json:"createdAt"`
	ModifiedAt     time.Time          `bson:"modified_at" json:"modifiedAt"`
}

// VerificationHistory is the append-only audit trail. Entries are never
// mutated or deleted after insertion, even when the request itself is purged.
type VerificationHistory struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	RequestID primitive.ObjectID `bson:"request_id" json:"requestId"`
	Action    HistoryAction      `bson:"action" json:"action"`
	Actor     string             `bson:"actor" json:"actor"`
	Detail    map[string]any     `bson:"detail,omitempty" json:"detail,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}

// ProviderLogEntry records one external provider call for analytics.
type ProviderLogEntry struct {
	ID           primitive.ObjectID `bson:"_id" json:"id"`
	Provider     string             `bson:"provider" json:"provider"`
	DocumentType DocumentType       `bson:"document_type" json:"documentType"`
	Outcome      DocumentStatus     `bson:"outcome" json:"outcome"`
	LatencyMS    int64              `bson:"latency_ms" json:"latencyMs"`
	CreatedAt    time.Time          `bson:"created_at" json:"createdAt"`
}

// ProviderCallStat is an aggregated analytics row over ProviderLogEntry.
type ProviderCallStat struct {
	Provider     string       `bson:"_id" json:"provider"`
	DocumentType DocumentType `bson:"document_type" json:"documentType"`
	Calls        int64        `bson:"calls" json:"calls"`
	AvgLatencyMS float64      `bson:"avg_latency_ms" json:"avgLatencyMs"`
}

type CreateVerificationRequestBody struct {
	Category string `json:"category" validate:"oneof=tenant property_owner developer"`
}

type UploadDocumentForm struct {
	DocumentType   string `form:"document_type" validate:"required"`
	DocumentNumber string `form:"document_number"`
	FirstName      string `form:"first_name"`
	LastName       string `form:"last_name"`
	DOB            string `form:"dob"`
	Country        string `form:"country"`
}

type RejectRequestBody struct {
	Reason string `json:"reason" validate:"required,min=3"`
}

// VerificationStatusResponse is the polling view of a request with its
// documents. History is fetched separately.
type VerificationStatusResponse struct {
	Request   VerificationRequest    `json:"request"`
	Documents []VerificationDocument `json:"documents"`
}

// OwnerAnalytics summarizes a property owner's tenant verifications.
type OwnerAnalytics struct {
	Total         int64 `json:"total"`
	Pending       int64 `json:"pending"`
	InProgress    int64 `json:"inProgress"`
	Approved      int64 `json:"approved"`
	OwnerApproved int64 `json:"ownerApproved"`
	Rejected      int64 `json:"rejected"`
}
