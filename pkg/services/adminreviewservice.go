package services

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"rentora-api-io/api/pkg/models"
	"rentora-api-io/api/pkg/util"
)

// AdminReviewServiceImpl implements the AdminReviewService interface
type AdminReviewServiceImpl struct {
	store    VerificationStore
	storage  util.DocumentStorage
	notifier NotificationService
}

func NewAdminReviewService(store VerificationStore, storage util.DocumentStorage, notifier NotificationService) *AdminReviewServiceImpl {
	return &AdminReviewServiceImpl{store: store, storage: storage, notifier: notifier}
}

func (as *AdminReviewServiceImpl) ListRequests(ctx context.Context, filter RequestFilter, page util.PaginationArgs) ([]models.VerificationRequest, int64, error) {
	return as.store.ListRequests(ctx, filter, page)
}

func (as *AdminReviewServiceImpl) GetRequestDetail(ctx context.Context, requestID primitive.ObjectID) (*models.VerificationStatusResponse, error) {
	req, err := as.store.FindRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	docs, err := as.store.ListDocuments(ctx, requestID)
	if err != nil {
		return nil, err
	}

	return &models.VerificationStatusResponse{Request: *req, Documents: docs}, nil
}

// Approve finalizes the request and bulk-marks all of its documents verified
// in one transaction. Admin approval is authoritative over the automated
// per-document outcomes. Tenant requests belong to the owner path.
func (as *AdminReviewServiceImpl) Approve(ctx context.Context, requestID, reviewerID primitive.ObjectID) error {
	req, err := as.store.FindRequestByID(ctx, requestID)
	if err != nil {
		return err
	}
	if req.Category == models.CategoryTenant {
		return errors.Wrap(ErrForbidden, "tenant requests are reviewed by their property owner")
	}

	if err := as.store.ApproveRequestAdmin(ctx, requestID, reviewerID); err != nil {
		return err
	}

	as.appendHistory(ctx, requestID, models.HistoryRequestApproved, reviewerID.Hex(), nil)

	req.Status = models.RequestStatusApproved
	as.notifier.NotifyComplete(ctx, req)
	return nil
}

// Reject sets the request status and reason; documents keep their last
// computed status.
func (as *AdminReviewServiceImpl) Reject(ctx context.Context, requestID, reviewerID primitive.ObjectID, reason string) error {
	if reason == "" {
		return ErrMissingReason
	}

	req, err := as.store.FindRequestByID(ctx, requestID)
	if err != nil {
		return err
	}
	if req.Category == models.CategoryTenant {
		return errors.Wrap(ErrForbidden, "tenant requests are reviewed by their property owner")
	}

	if err := as.store.FinalizeRequest(ctx, requestID, models.RequestStatusRejected, &reviewerID, reason); err != nil {
		return err
	}

	as.appendHistory(ctx, requestID, models.HistoryRequestRejected, reviewerID.Hex(), map[string]any{
		"reason": reason,
	})

	req.Status = models.RequestStatusRejected
	req.RejectionReason = reason
	as.notifier.NotifyComplete(ctx, req)
	return nil
}

// DocumentURL returns a short-lived signed download link. Every access is
// written to the audit trail.
func (as *AdminReviewServiceImpl) DocumentURL(ctx context.Context, documentID primitive.ObjectID, actor string) (string, error) {
	doc, err := as.store.FindDocumentByID(ctx, documentID)
	if err != nil {
		return "", err
	}

	signed, err := as.storage.SignedURL(doc.StorageKey, 15*time.Minute)
	if err != nil {
		return "", err
	}

	as.appendHistory(ctx, doc.RequestID, models.HistoryDocumentAccessed, actor, map[string]any{
		"document_id":   doc.ID.Hex(),
		"document_type": doc.Type,
	})

	return signed, nil
}

func (as *AdminReviewServiceImpl) ProviderAnalytics(ctx context.Context) ([]models.ProviderCallStat, error) {
	return as.store.ProviderCallStats(ctx)
}

// DeleteRequest removes the request and its documents; history rows survive
// as immutable facts.
func (as *AdminReviewServiceImpl) DeleteRequest(ctx context.Context, requestID primitive.ObjectID, actor string) (int64, error) {
	deleted, err := as.store.DeleteRequest(ctx, requestID)
	if err != nil {
		return 0, err
	}

	as.appendHistory(ctx, requestID, models.HistoryRequestDeleted, actor, map[string]any{
		"deleted_documents": deleted,
	})

	return deleted, nil
}

func (as *AdminReviewServiceImpl) appendHistory(ctx context.Context, requestID primitive.ObjectID, action models.HistoryAction, actor string, detail map[string]any) {
	err := as.store.AppendHistory(ctx, &models.VerificationHistory{
		RequestID: requestID,
		Action:    action,
		Actor:     actor,
		Detail:    detail,
	})
	if err != nil {
		util.LogError("unable to append admin review history entry", err)
	}
}
