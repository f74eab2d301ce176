package services

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"rentora-api-io/api/pkg/models"
	"rentora-api-io/api/pkg/providers"
	"rentora-api-io/api/pkg/util"
)

// VerificationServiceImpl implements the VerificationService interface
type VerificationServiceImpl struct {
	store    VerificationStore
	storage  util.DocumentStorage
	cipher   *util.NumberCipher
	provider providers.Provider
	notifier NotificationService
	dispatch DispatchService
}

func NewVerificationService(
	store VerificationStore,
	storage util.DocumentStorage,
	cipher *util.NumberCipher,
	provider providers.Provider,
	notifier NotificationService,
	dispatch DispatchService,
) *VerificationServiceImpl {
	return &VerificationServiceImpl{
		store:    store,
		storage:  storage,
		cipher:   cipher,
		provider: provider,
		notifier: notifier,
		dispatch: dispatch,
	}
}

// CreateRequest opens a verification request for the requester. Creation is
// idempotent: while an open request exists it is returned unchanged, so a
// requester can never hold two open requests at once.
func (vs *VerificationServiceImpl) CreateRequest(ctx context.Context, requesterID primitive.ObjectID) (*models.VerificationRequest, error) {
	existing, err := vs.store.FindOpenRequestByRequester(ctx, requesterID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	requester, err := vs.store.FindUserByID(ctx, requesterID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	req := &models.VerificationRequest{
		ID:             primitive.NewObjectID(),
		RequesterID:    requester.ID,
		RequesterEmail: requester.Email,
		Category:       requester.Category(),
		Status:         models.RequestStatusPending,
		SubmittedAt:    now,
		CreatedAt:      now,
		ModifiedAt:     now,
	}

	if err := vs.store.InsertRequest(ctx, req); err != nil {
		return nil, err
	}

	vs.appendHistory(ctx, req.ID, models.HistoryRequestCreated, requester.ID.Hex(), map[string]any{
		"category": req.Category,
	})

	return req, nil
}

// UploadDocument stores the file durably, records the document row in
// pending and hands it to the dispatcher. A second upload of the same type
// updates the existing row in place; resubmission never duplicates.
func (vs *VerificationServiceImpl) UploadDocument(ctx context.Context, requestID primitive.ObjectID, in UploadDocumentInput) (*models.VerificationDocument, error) {
	req, err := vs.store.FindRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !req.Status.Open() {
		return nil, errors.Wrapf(ErrInvalidState, "request %s is %s", requestID.Hex(), req.Status)
	}

	if err := requireDocumentFields(in); err != nil {
		return nil, err
	}

	key := util.StorageKey(requestID.Hex(), string(in.Type), in.FileName)
	fileURL, err := vs.storage.Upload(ctx, in.File, key)
	if err != nil {
		return nil, errors.Wrap(err, "unable to store document file")
	}

	var sealed string
	if in.Number != "" {
		sealed, err = vs.cipher.Seal(in.Number)
		if err != nil {
			return nil, err
		}
	}

	doc, err := vs.store.FindDocumentByType(ctx, requestID, in.Type)
	switch {
	case err == nil:
		// Deliberate resubmission support: replace the file and reset the
		// outcome instead of erroring on the duplicate type.
		err = vs.store.ReplaceDocumentUpload(ctx, doc.ID, DocumentUpload{
			FileURL:      fileURL,
			StorageKey:   key,
			FileSize:     in.FileSize,
			MimeType:     in.MimeType,
			SealedNumber: sealed,
			Metadata:     in.Metadata,
		})
		if err != nil {
			return nil, err
		}
		doc, err = vs.store.FindDocumentByID(ctx, doc.ID)
		if err != nil {
			return nil, err
		}
		vs.appendHistory(ctx, requestID, models.HistoryDocumentReuploaded, req.RequesterID.Hex(), map[string]any{
			"document_id":   doc.ID.Hex(),
			"document_type": in.Type,
		})
	case errors.Is(err, ErrNotFound):
		now := time.Now()
		doc = &models.VerificationDocument{
			ID:           primitive.NewObjectID(),
			RequestID:    requestID,
			Type:         in.Type,
			SealedNumber: sealed,
			FileURL:      fileURL,
			StorageKey:   key,
			FileSize:     in.FileSize,
			MimeType:     in.MimeType,
			Metadata:     in.Metadata,
			Status:       models.DocumentStatusPending,
			CreatedAt:    now,
			ModifiedAt:   now,
		}
		if err := vs.store.InsertDocument(ctx, doc); err != nil {
			return nil, err
		}
		vs.appendHistory(ctx, requestID, models.HistoryDocumentUploaded, req.RequesterID.Hex(), map[string]any{
			"document_id":   doc.ID.Hex(),
			"document_type": in.Type,
		})
	default:
		return nil, err
	}

	if req.Status == models.RequestStatusPending {
		if err := vs.store.SetRequestInProgress(ctx, requestID); err != nil {
			return nil, err
		}
	}

	// The dispatcher waits at most its enqueue timeout; verification itself
	// never gates the upload response.
	vs.dispatch.Dispatch(VerificationJob{DocumentID: doc.ID, RequestID: requestID})

	return doc, nil
}

func (vs *VerificationServiceImpl) GetStatus(ctx context.Context, requestID primitive.ObjectID) (*models.VerificationStatusResponse, error) {
	req, err := vs.store.FindRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	docs, err := vs.store.ListDocuments(ctx, requestID)
	if err != nil {
		return nil, err
	}

	return &models.VerificationStatusResponse{Request: *req, Documents: docs}, nil
}

func (vs *VerificationServiceImpl) GetHistory(ctx context.Context, requestID primitive.ObjectID) ([]models.VerificationHistory, error) {
	if _, err := vs.store.FindRequestByID(ctx, requestID); err != nil {
		return nil, err
	}
	return vs.store.ListHistory(ctx, requestID)
}

func (vs *VerificationServiceImpl) GetLatestByRequester(ctx context.Context, requesterID primitive.ObjectID) (*models.VerificationRequest, error) {
	return vs.store.FindLatestRequestByRequester(ctx, requesterID)
}

// RunVerification is the verification routine shared by the queue worker and
// the dispatch fallback. It is idempotent: documents that already settled,
// or that another path is working on, are left alone.
func (vs *VerificationServiceImpl) RunVerification(ctx context.Context, documentID primitive.ObjectID) error {
	doc, err := vs.store.FindDocumentByID(ctx, documentID)
	if err != nil {
		return err
	}
	if doc.Status.Terminal() {
		return nil
	}

	won, err := vs.store.MarkDocumentInProgress(ctx, documentID)
	if err != nil {
		return err
	}
	if !won {
		// Another dispatch path owns this document.
		return nil
	}

	req, err := vs.store.FindRequestByID(ctx, doc.RequestID)
	if err != nil {
		return err
	}

	vs.appendHistory(ctx, req.ID, models.HistoryVerificationStarted, models.SystemActor, map[string]any{
		"document_id":   doc.ID.Hex(),
		"document_type": doc.Type,
		"provider":      vs.provider.Name(),
	})

	result := vs.checkWithProvider(ctx, doc)

	switch result.Status {
	case models.DocumentStatusVerified:
		now := time.Now()
		err = vs.store.SetDocumentResult(ctx, doc.ID, DocumentResult{
			Status:      models.DocumentStatusVerified,
			Provider:    vs.provider.Name(),
			ProviderRef: result.Reference,
			Confidence:  result.Confidence,
			VerifiedAt:  &now,
		})
		if err != nil {
			return err
		}
		vs.appendHistory(ctx, req.ID, models.HistoryDocumentVerified, models.SystemActor, map[string]any{
			"document_id": doc.ID.Hex(),
			"confidence":  result.Confidence,
		})

	case models.DocumentStatusFailed:
		err = vs.store.SetDocumentResult(ctx, doc.ID, DocumentResult{
			Status:        models.DocumentStatusFailed,
			Provider:      vs.provider.Name(),
			ProviderRef:   result.Reference,
			FailureReason: result.Err,
		})
		if err != nil {
			return err
		}
		vs.appendHistory(ctx, req.ID, models.HistoryDocumentFailed, models.SystemActor, map[string]any{
			"document_id": doc.ID.Hex(),
			"reason":      result.Err,
		})
		doc.FailureReason = result.Err
		vs.notifier.NotifyDocumentFailed(ctx, req, doc)

	case models.DocumentStatusPending:
		// Manual-review document types are never auto-approved; hand them to
		// a platform admin and keep the document undecided.
		err = vs.store.SetDocumentResult(ctx, doc.ID, DocumentResult{
			Status:   models.DocumentStatusPending,
			Provider: vs.provider.Name(),
		})
		if err != nil {
			return err
		}
		vs.appendHistory(ctx, req.ID, models.HistoryManualReviewRequired, models.SystemActor, map[string]any{
			"document_id":   doc.ID.Hex(),
			"document_type": doc.Type,
		})
		vs.notifier.NotifyAdminManualReview(ctx, req, doc)
	}

	return vs.settleRequest(ctx, req)
}

// checkWithProvider opens the sealed number, invokes the adapter and logs
// the call. Every failure mode collapses into a failed Result; provider
// errors belong to the document, never to the caller.
func (vs *VerificationServiceImpl) checkWithProvider(ctx context.Context, doc *models.VerificationDocument) providers.Result {
	if !doc.Type.RequiresManualReview() {
		if doc.Metadata.FirstName == "" || doc.Metadata.LastName == "" || doc.Metadata.DOB == "" {
			return providers.Result{Status: models.DocumentStatusFailed, Err: ErrMissingField.Error()}
		}
		if doc.SealedNumber == "" {
			return providers.Result{Status: models.DocumentStatusFailed, Err: "no document number was provided"}
		}
	}

	var number string
	if doc.SealedNumber != "" {
		opened, err := vs.cipher.Open(doc.SealedNumber)
		if err != nil {
			return providers.Result{Status: models.DocumentStatusFailed, Err: "stored document number could not be opened"}
		}
		number = opened
	}

	start := time.Now()
	result, err := vs.provider.Verify(ctx, providers.Input{
		DocumentType: doc.Type,
		Number:       number,
		FirstName:    doc.Metadata.FirstName,
		LastName:     doc.Metadata.LastName,
		DOB:          doc.Metadata.DOB,
		Country:      doc.Metadata.Country,
	})
	latency := time.Since(start).Milliseconds()

	if err != nil {
		result = providers.Result{Status: models.DocumentStatusFailed, Err: err.Error()}
	}

	logErr := vs.store.InsertProviderLog(ctx, &models.ProviderLogEntry{
		Provider:     vs.provider.Name(),
		DocumentType: doc.Type,
		Outcome:      result.Status,
		LatencyMS:    latency,
	})
	if logErr != nil {
		util.LogError("unable to record provider call", logErr)
	}

	return result
}

// settleRequest re-derives the aggregate status and finalizes the request
// when it becomes decidable. Evaluated after every individual document
// transition, so completion order does not matter.
func (vs *VerificationServiceImpl) settleRequest(ctx context.Context, req *models.VerificationRequest) error {
	if req.Status.Terminal() {
		return nil
	}

	docs, err := vs.store.ListDocuments(ctx, req.ID)
	if err != nil {
		return err
	}

	aggregate := AggregateRequestStatus(docs)
	if !aggregate.Terminal() {
		return nil
	}

	reason := ""
	action := models.HistoryRequestApproved
	if aggregate == models.RequestStatusRejected {
		reason = "one or more documents failed verification"
		action = models.HistoryRequestRejected
	}

	if err := vs.store.FinalizeRequest(ctx, req.ID, aggregate, nil, reason); err != nil {
		if errors.Is(err, ErrConflict) {
			// A reviewer beat the aggregator to the decision.
			return nil
		}
		return err
	}

	vs.appendHistory(ctx, req.ID, action, models.SystemActor, map[string]any{
		"status": aggregate,
	})

	req.Status = aggregate
	req.RejectionReason = reason
	vs.notifier.NotifyComplete(ctx, req)

	return nil
}

func (vs *VerificationServiceImpl) appendHistory(ctx context.Context, requestID primitive.ObjectID, action models.HistoryAction, actor string, detail map[string]any) {
	err := vs.store.AppendHistory(ctx, &models.VerificationHistory{
		RequestID: requestID,
		Action:    action,
		Actor:     actor,
		Detail:    detail,
	})
	if err != nil {
		util.LogError(fmt.Sprintf("unable to append %s history entry", action), err)
	}
}

// requireDocumentFields validates the typed metadata at the boundary, before
// any file is stored. The routine re-checks defensively.
func requireDocumentFields(in UploadDocumentInput) error {
	if in.Type.RequiresManualReview() {
		return nil
	}

	for field, value := range map[string]string{
		"first_name":      in.Metadata.FirstName,
		"last_name":       in.Metadata.LastName,
		"dob":             in.Metadata.DOB,
		"document_number": in.Number,
	} {
		if value == "" {
			return errors.Wrapf(ErrMissingField, "%s is required for %s documents", field, in.Type)
		}
	}
	return nil
}
