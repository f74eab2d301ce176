package services

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"rentora-api-io/api/pkg/models"
	"rentora-api-io/api/pkg/util"
)

// OwnerReviewServiceImpl implements the OwnerReviewService interface
type OwnerReviewServiceImpl struct {
	store    VerificationStore
	storage  util.DocumentStorage
	notifier NotificationService
}

func NewOwnerReviewService(store VerificationStore, storage util.DocumentStorage, notifier NotificationService) *OwnerReviewServiceImpl {
	return &OwnerReviewServiceImpl{store: store, storage: storage, notifier: notifier}
}

// tenantRequest resolves the tenant's latest verification request after
// checking the tenant actually belongs to this owner.
func (os *OwnerReviewServiceImpl) tenantRequest(ctx context.Context, ownerID, tenantID primitive.ObjectID) (*models.VerificationRequest, error) {
	tenant, err := os.store.FindUserByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if tenant.Role != models.RoleTenant || tenant.PropertyOwnerID == nil || *tenant.PropertyOwnerID != ownerID {
		return nil, errors.Wrap(ErrForbidden, "tenant does not belong to this property owner")
	}

	return os.store.FindLatestRequestByRequester(ctx, tenantID)
}

func (os *OwnerReviewServiceImpl) ListTenantRequests(ctx context.Context, ownerID primitive.ObjectID, filter RequestFilter, page util.PaginationArgs) ([]models.VerificationRequest, int64, error) {
	filter.OwnerID = &ownerID
	return os.store.ListRequests(ctx, filter, page)
}

func (os *OwnerReviewServiceImpl) TenantDetail(ctx context.Context, ownerID, tenantID primitive.ObjectID) (*models.VerificationStatusResponse, error) {
	req, err := os.tenantRequest(ctx, ownerID, tenantID)
	if err != nil {
		return nil, err
	}

	docs, err := os.store.ListDocuments(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	return &models.VerificationStatusResponse{Request: *req, Documents: docs}, nil
}

func (os *OwnerReviewServiceImpl) Analytics(ctx context.Context, ownerID primitive.ObjectID) (*models.OwnerAnalytics, error) {
	counts, err := os.store.CountRequestsByStatus(ctx, &ownerID)
	if err != nil {
		return nil, err
	}

	analytics := &models.OwnerAnalytics{
		Pending:       counts[models.RequestStatusPending],
		InProgress:    counts[models.RequestStatusInProgress],
		Approved:      counts[models.RequestStatusApproved],
		OwnerApproved: counts[models.RequestStatusOwnerApproved],
		Rejected:      counts[models.RequestStatusRejected],
	}
	for _, n := range counts {
		analytics.Total += n
	}
	return analytics, nil
}

// Approve sets the distinct owner_approved status and charges the total
// document size against the owner's storage quota, atomically. Owner
// approval is a lower-trust tier than platform verification, so it never
// produces the admin `approved` value.
func (os *OwnerReviewServiceImpl) Approve(ctx context.Context, ownerID, tenantID primitive.ObjectID) error {
	req, err := os.tenantRequest(ctx, ownerID, tenantID)
	if err != nil {
		return err
	}

	docs, err := os.store.ListDocuments(ctx, req.ID)
	if err != nil {
		return err
	}

	var totalBytes int64
	for _, doc := range docs {
		totalBytes += doc.FileSize
	}

	if err := os.store.ApproveRequestOwner(ctx, req.ID, ownerID, totalBytes); err != nil {
		return err
	}

	os.appendHistory(ctx, req.ID, models.HistoryRequestOwnerApproved, ownerID.Hex(), map[string]any{
		"storage_bytes": totalBytes,
	})

	req.Status = models.RequestStatusOwnerApproved
	os.notifier.NotifyComplete(ctx, req)
	return nil
}

func (os *OwnerReviewServiceImpl) Reject(ctx context.Context, ownerID, tenantID primitive.ObjectID, reason string) error {
	if reason == "" {
		return ErrMissingReason
	}

	req, err := os.tenantRequest(ctx, ownerID, tenantID)
	if err != nil {
		return err
	}

	if err := os.store.FinalizeRequest(ctx, req.ID, models.RequestStatusRejected, &ownerID, reason); err != nil {
		return err
	}

	os.appendHistory(ctx, req.ID, models.HistoryRequestRejected, ownerID.Hex(), map[string]any{
		"reason": reason,
	})

	req.Status = models.RequestStatusRejected
	req.RejectionReason = reason
	os.notifier.NotifyComplete(ctx, req)
	return nil
}

// RequestResubmission resets the request and the tenant's cached kyc status
// to pending without deleting documents, so the tenant can re-upload.
func (os *OwnerReviewServiceImpl) RequestResubmission(ctx context.Context, ownerID, tenantID primitive.ObjectID) error {
	req, err := os.tenantRequest(ctx, ownerID, tenantID)
	if err != nil {
		return err
	}

	if err := os.store.ResetRequestForResubmission(ctx, req.ID); err != nil {
		return err
	}

	os.appendHistory(ctx, req.ID, models.HistoryResubmissionRequested, ownerID.Hex(), nil)
	return nil
}

// Delete clears the tenant's verification fields back to unset and then
// attempts to remove the request, its documents and their stored files. The
// local reset is authoritative; the downstream deletes are best effort and
// a failure there never rolls it back.
func (os *OwnerReviewServiceImpl) Delete(ctx context.Context, ownerID, tenantID primitive.ObjectID) error {
	req, err := os.tenantRequest(ctx, ownerID, tenantID)
	if err != nil {
		return err
	}

	if err := os.store.ClearRequesterVerification(ctx, tenantID); err != nil {
		return err
	}

	docs, err := os.store.ListDocuments(ctx, req.ID)
	if err == nil {
		for _, doc := range docs {
			if destroyErr := os.storage.Destroy(ctx, doc.StorageKey); destroyErr != nil {
				util.LogWarning(fmt.Sprintf("unable to remove stored file for document %s: %v", doc.ID.Hex(), destroyErr))
			}
		}
	}

	deleted, err := os.store.DeleteRequest(ctx, req.ID)
	if err != nil {
		util.LogWarning(fmt.Sprintf("unable to delete verification request %s, local reset kept: %v", req.ID.Hex(), err))
		return nil
	}

	os.appendHistory(ctx, req.ID, models.HistoryRequestDeleted, ownerID.Hex(), map[string]any{
		"deleted_documents": deleted,
	})
	return nil
}

func (os *OwnerReviewServiceImpl) appendHistory(ctx context.Context, requestID primitive.ObjectID, action models.HistoryAction, actor string, detail map[string]any) {
	err := os.store.AppendHistory(ctx, &models.VerificationHistory{
		RequestID: requestID,
		Action:    action,
		Actor:     actor,
		Detail:    detail,
	})
	if err != nil {
		util.LogError("unable to append owner review history entry", err)
	}
}
