package models

import (
	"errors"
	"fmt"
)

type RequestStatus string

const (
	RequestStatusPending       RequestStatus = "pending"
	RequestStatusInProgress    RequestStatus = "in_progress"
	RequestStatusApproved      RequestStatus = "approved"
	RequestStatusOwnerApproved RequestStatus = "owner_approved"
	RequestStatusRejected      RequestStatus = "rejected"
)

// Open reports whether a request still accepts document uploads.
func (s RequestStatus) Open() bool {
	return s == RequestStatusPending || s == RequestStatusInProgress
}

// Terminal reports whether a request has reached a final decision.
func (s RequestStatus) Terminal() bool {
	return s == RequestStatusApproved || s == RequestStatusOwnerApproved || s == RequestStatusRejected
}

func ParseRequestStatus(status string) (RequestStatus, error) {
	switch status {
	case "pending":
		return RequestStatusPending, nil
	case "in_progress":
		return RequestStatusInProgress, nil
	case "approved":
		return RequestStatusApproved, nil
	case "owner_approved":
		return RequestStatusOwnerApproved, nil
	case "rejected":
		return RequestStatusRejected, nil
	}

	err := fmt.Sprintf("Invalid request status from request: %v", status)

	return RequestStatusPending, errors.New(err)
}

type DocumentStatus string

const (
	DocumentStatusPending    DocumentStatus = "pending"
	DocumentStatusInProgress DocumentStatus = "in_progress"
	DocumentStatusVerified   DocumentStatus = "verified"
	DocumentStatusFailed     DocumentStatus = "failed"
)

// Terminal reports whether a document has a final verification outcome.
func (s DocumentStatus) Terminal() bool {
	return s == DocumentStatusVerified || s == DocumentStatusFailed
}

type DocumentType string

const (
	DocumentTypeNationalID     DocumentType = "national-id"
	DocumentTypePassport       DocumentType = "passport"
	DocumentTypeLicense        DocumentType = "license"
	DocumentTypeVoterCard      DocumentType = "voter-card"
	DocumentTypeUtilityBill    DocumentType = "utility-bill"
	DocumentTypeProofOfAddress DocumentType = "proof-of-address"
)

func ParseDocumentType(documentType string) (DocumentType, error) {
	switch documentType {
	case "national-id":
		return DocumentTypeNationalID, nil
	case "passport":
		return DocumentTypePassport, nil
	case "license":
		return DocumentTypeLicense, nil
	case "voter-card":
		return DocumentTypeVoterCard, nil
	case "utility-bill":
		return DocumentTypeUtilityBill, nil
	case "proof-of-address":
		return DocumentTypeProofOfAddress, nil
	}

	err := fmt.Sprintf("Invalid document type from request: %v", documentType)

	return DocumentTypeNationalID, errors.New(err)
}

// RequiresManualReview reports whether a document type cannot be automated
// and must be routed to a platform admin.
func (t DocumentType) RequiresManualReview() bool {
	return t == DocumentTypeUtilityBill || t == DocumentTypeProofOfAddress
}

type RequesterCategory string

const (
	CategoryTenant        RequesterCategory = "tenant"
	CategoryPropertyOwner RequesterCategory = "property_owner"
	CategoryDeveloper     RequesterCategory = "developer"
)

func ParseRequesterCategory(category string) (RequesterCategory, error) {
	switch category {
	case "tenant":
		return CategoryTenant, nil
	case "property_owner":
		return CategoryPropertyOwner, nil
	case "developer":
		return CategoryDeveloper, nil
	}

	err := fmt.Sprintf("Invalid requester category from request: %v", category)

	return CategoryTenant, errors.New(err)
}

type HistoryAction string

const (
	HistoryRequestCreated        HistoryAction = "request_created"
	HistoryDocumentUploaded      HistoryAction = "document_uploaded"
	HistoryDocumentReuploaded    HistoryAction = "document_reuploaded"
	HistoryVerificationStarted   HistoryAction = "verification_started"
	HistoryDocumentVerified      HistoryAction = "document_verified"
	HistoryDocumentFailed        HistoryAction = "document_failed"
	HistoryManualReviewRequired  HistoryAction = "manual_review_required"
	HistoryRequestApproved       HistoryAction = "request_approved"
	HistoryRequestOwnerApproved  HistoryAction = "request_owner_approved"
	HistoryRequestRejected       HistoryAction = "request_rejected"
	HistoryResubmissionRequested HistoryAction = "resubmission_requested"
	HistoryRequestDeleted        HistoryAction = "request_deleted"
	HistoryNotificationFailed    HistoryAction = "notification_failed"
	HistoryDocumentAccessed      HistoryAction = "document_accessed"
)

// SystemActor marks history entries written by automated transitions
// rather than a human reviewer.
const SystemActor = "system"

type UserRole string

const (
	RoleAdmin         UserRole = "admin"
	RolePropertyOwner UserRole = "property_owner"
	RoleTenant        UserRole = "tenant"
	RoleDeveloper     UserRole = "developer"
)
