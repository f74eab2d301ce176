package services

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rentora-api-io/api/pkg/models"
	"rentora-api-io/api/pkg/util"
)

// MongoVerificationStore persists the verification state machine. Review
// operations that touch several rows run inside a single mongo transaction.
type MongoVerificationStore struct {
	requests  *mongo.Collection
	documents *mongo.Collection
	history   *mongo.Collection
	provider  *mongo.Collection
	users     *mongo.Collection
}

func NewMongoVerificationStore() *MongoVerificationStore {
	return &MongoVerificationStore{
		requests:  util.GetCollection(util.DB(), "VerificationRequest"),
		documents: util.GetCollection(util.DB(), "VerificationDocument"),
		history:   util.GetCollection(util.DB(), "VerificationHistory"),
		provider:  util.GetCollection(util.DB(), "ProviderLog"),
		users:     util.GetCollection(util.DB(), "User"),
	}
}

func (ms *MongoVerificationStore) InsertRequest(ctx context.Context, req *models.VerificationRequest) error {
	_, err := ms.requests.InsertOne(ctx, req)
	return err
}

func (ms *MongoVerificationStore) FindRequestByID(ctx context.Context, id primitive.ObjectID) (*models.VerificationRequest, error) {
	var req models.VerificationRequest
	err := ms.requests.FindOne(ctx, bson.M{"_id": id}).Decode(&req)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (ms *MongoVerificationStore) FindOpenRequestByRequester(ctx context.Context, requesterID primitive.ObjectID) (*models.VerificationRequest, error) {
	filter := bson.M{
		"requester_id": requesterID,
		"status":       bson.M{"$in": []models.RequestStatus{models.RequestStatusPending, models.RequestStatusInProgress}},
	}

	var req models.VerificationRequest
	err := ms.requests.FindOne(ctx, filter).Decode(&req)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (ms *MongoVerificationStore) FindLatestRequestByRequester(ctx context.Context, requesterID primitive.ObjectID) (*models.VerificationRequest, error) {
	opts := options.FindOne().SetSort(bson.M{"created_at": -1})

	var req models.VerificationRequest
	err := ms.requests.FindOne(ctx, bson.M{"requester_id": requesterID}, opts).Decode(&req)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (ms *MongoVerificationStore) requestFilterQuery(ctx context.Context, filter RequestFilter) (bson.M, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.Search != "" {
		query["requester_email"] = bson.M{"$regex": filter.Search, "$options": "i"}
	}
	if filter.OwnerID != nil {
		tenantIDs, err := ms.tenantIDsOf(ctx, *filter.OwnerID)
		if err != nil {
			return nil, err
		}
		query["requester_id"] = bson.M{"$in": tenantIDs}
		query["category"] = models.CategoryTenant
	}
	return query, nil
}

func (ms *MongoVerificationStore) tenantIDsOf(ctx context.Context, ownerID primitive.ObjectID) ([]primitive.ObjectID, error) {
	cursor, err := ms.users.Find(ctx, bson.M{"property_owner_id": ownerID}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var ids []primitive.ObjectID
	for cursor.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, err
		}
		ids = append(ids, row.ID)
	}
	return ids, cursor.Err()
}

func (ms *MongoVerificationStore) ListRequests(ctx context.Context, filter RequestFilter, page util.PaginationArgs) ([]models.VerificationRequest, int64, error) {
	query, err := ms.requestFilterQuery(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	count, err := ms.requests.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetLimit(int64(page.Limit)).
		SetSkip(int64(page.Skip))

	cursor, err := ms.requests.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var results []models.VerificationRequest
	if err := cursor.All(ctx, &results); err != nil {
		return nil, 0, err
	}

	return results, count, nil
}

func (ms *MongoVerificationStore) CountRequestsByStatus(ctx context.Context, ownerID *primitive.ObjectID) (map[models.RequestStatus]int64, error) {
	match := bson.M{}
	if ownerID != nil {
		tenantIDs, err := ms.tenantIDsOf(ctx, *ownerID)
		if err != nil {
			return nil, err
		}
		match["requester_id"] = bson.M{"$in": tenantIDs}
	}

	pipeline := []bson.M{
		{"$match": match},
		{"$group": bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}},
	}

	cursor, err := ms.requests.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	counts := map[models.RequestStatus]int64{}
	for cursor.Next(ctx) {
		var row struct {
			Status models.RequestStatus `bson:"_id"`
			Count  int64                `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, err
		}
		counts[row.Status] = row.Count
	}
	return counts, cursor.Err()
}

func (ms *MongoVerificationStore) SetRequestInProgress(ctx context.Context, id primitive.ObjectID) error {
	update := bson.M{"$set": bson.M{"status": models.RequestStatusInProgress, "modified_at": time.Now()}}
	_, err := ms.requests.UpdateOne(ctx, bson.M{"_id": id, "status": models.RequestStatusPending}, update)
	return err
}

// kycCacheUpdate rewrites the requester's denormalized kyc fields inside the
// same transaction as the request transition. The request row stays the
// source of truth.
func (ms *MongoVerificationStore) kycCacheUpdate(ctx context.Context, requesterID primitive.ObjectID, status models.RequestStatus, extra bson.M) error {
	set := bson.M{"kyc_status": status, "modified_at": time.Now()}
	for k, v := range extra {
		set[k] = v
	}
	_, err := ms.users.UpdateOne(ctx, bson.M{"_id": requesterID}, bson.M{"$set": set})
	return err
}

func (ms *MongoVerificationStore) finalizeUpdate(status models.RequestStatus, reviewer *primitive.ObjectID, reason string) bson.M {
	now := time.Now()
	set := bson.M{
		"status":       status,
		"completed_at": now,
		"modified_at":  now,
	}
	if reviewer != nil {
		set["reviewed_by"] = *reviewer
		set["reviewed_at"] = now
	}
	if reason != "" {
		set["rejection_reason"] = reason
	}
	return bson.M{"$set": set}
}

func (ms *MongoVerificationStore) FinalizeRequest(ctx context.Context, id primitive.ObjectID, status models.RequestStatus, reviewer *primitive.ObjectID, reason string) error {
	callback := func(sc mongo.SessionContext) (any, error) {
		filter := bson.M{"_id": id, "status": bson.M{"$in": []models.RequestStatus{models.RequestStatusPending, models.RequestStatusInProgress}}}
		res, err := ms.requests.UpdateOne(sc, filter, ms.finalizeUpdate(status, reviewer, reason))
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 0 {
			return nil, ErrConflict
		}

		req, err := ms.FindRequestByID(sc, id)
		if err != nil {
			return nil, err
		}
		return nil, ms.kycCacheUpdate(sc, req.RequesterID, status, nil)
	}

	_, err := ExecuteTransaction(ctx, callback)
	return err
}

func (ms *MongoVerificationStore) ApproveRequestAdmin(ctx context.Context, id, reviewer primitive.ObjectID) error {
	callback := func(sc mongo.SessionContext) (any, error) {
		filter := bson.M{"_id": id, "status": bson.M{"$ne": models.RequestStatusApproved}}
		res, err := ms.requests.UpdateOne(sc, filter, ms.finalizeUpdate(models.RequestStatusApproved, &reviewer, ""))
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 0 {
			return nil, ErrConflict
		}

		// Admin approval is authoritative over individual document outcomes.
		now := time.Now()
		_, err = ms.documents.UpdateMany(sc, bson.M{"request_id": id}, bson.M{"$set": bson.M{
			"status":      models.DocumentStatusVerified,
			"verified_at": now,
			"modified_at": now,
		}})
		if err != nil {
			return nil, err
		}

		req, err := ms.FindRequestByID(sc, id)
		if err != nil {
			return nil, err
		}
		return nil, ms.kycCacheUpdate(sc, req.RequesterID, models.RequestStatusApproved, nil)
	}

	_, err := ExecuteTransaction(ctx, callback)
	return err
}

func (ms *MongoVerificationStore) ApproveRequestOwner(ctx context.Context, id, reviewer primitive.ObjectID, totalBytes int64) error {
	callback := func(sc mongo.SessionContext) (any, error) {
		filter := bson.M{"_id": id, "status": bson.M{"$nin": []models.RequestStatus{models.RequestStatusApproved, models.RequestStatusOwnerApproved}}}
		res, err := ms.requests.UpdateOne(sc, filter, ms.finalizeUpdate(models.RequestStatusOwnerApproved, &reviewer, ""))
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 0 {
			return nil, ErrConflict
		}

		req, err := ms.FindRequestByID(sc, id)
		if err != nil {
			return nil, err
		}

		err = ms.kycCacheUpdate(sc, req.RequesterID, models.RequestStatusOwnerApproved, bson.M{"owner_approved": true})
		if err != nil {
			return nil, err
		}

		_, err = ms.users.UpdateOne(sc, bson.M{"_id": reviewer}, bson.M{"$inc": bson.M{"storage_used_bytes": totalBytes}})
		return nil, err
	}

	_, err := ExecuteTransaction(ctx, callback)
	return err
}

func (ms *MongoVerificationStore) ResetRequestForResubmission(ctx context.Context, id primitive.ObjectID) error {
	callback := func(sc mongo.SessionContext) (any, error) {
		update := bson.M{
			"$set":   bson.M{"status": models.RequestStatusPending, "modified_at": time.Now()},
			"$unset": bson.M{"completed_at": "", "reviewed_at": "", "reviewed_by": "", "rejection_reason": ""},
		}
		res, err := ms.requests.UpdateOne(sc, bson.M{"_id": id}, update)
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 0 {
			return nil, ErrNotFound
		}

		req, err := ms.FindRequestByID(sc, id)
		if err != nil {
			return nil, err
		}
		return nil, ms.kycCacheUpdate(sc, req.RequesterID, models.RequestStatusPending, bson.M{"owner_approved": false})
	}

	_, err := ExecuteTransaction(ctx, callback)
	return err
}

func (ms *MongoVerificationStore) ClearRequesterVerification(ctx context.Context, requesterID primitive.ObjectID) error {
	update := bson.M{
		"$set":   bson.M{"owner_approved": false, "modified_at": time.Now()},
		"$unset": bson.M{"kyc_status": ""},
	}
	_, err := ms.users.UpdateOne(ctx, bson.M{"_id": requesterID}, update)
	return err
}

func (ms *MongoVerificationStore) DeleteRequest(ctx context.Context, id primitive.ObjectID) (int64, error) {
	result, err := ExecuteTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		res, err := ms.requests.DeleteOne(sc, bson.M{"_id": id})
		if err != nil {
			return nil, err
		}
		if res.DeletedCount == 0 {
			return nil, ErrNotFound
		}

		// History rows stay behind as immutable facts.
		docs, err := ms.documents.DeleteMany(sc, bson.M{"request_id": id})
		if err != nil {
			return nil, err
		}
		return docs.DeletedCount, nil
	})
	if err != nil {
		return 0, err
	}

	deleted, ok := result.(int64)
	if !ok {
		return 0, errors.New("unexpected delete result")
	}
	return deleted, nil
}

func (ms *MongoVerificationStore) InsertDocument(ctx context.Context, doc *models.VerificationDocument) error {
	_, err := ms.documents.InsertOne(ctx, doc)
	return err
}

func (ms *MongoVerificationStore) ReplaceDocumentUpload(ctx context.Context, id primitive.ObjectID, upload DocumentUpload) error {
	update := bson.M{
		"$set": bson.M{
			"file_url":      upload.FileURL,
			"storage_key":   upload.StorageKey,
			"file_size":     upload.FileSize,
			"mime_type":     upload.MimeType,
			"sealed_number": upload.SealedNumber,
			"metadata":      upload.Metadata,
			"status":        models.DocumentStatusPending,
			"modified_at":   time.Now(),
		},
		"$unset": bson.M{
			"provider":       "",
			"provider_ref":   "",
			"confidence":     "",
			"failure_reason": "",
			"verified_at":    "",
		},
	}
	res, err := ms.documents.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (ms *MongoVerificationStore) FindDocumentByID(ctx context.Context, id primitive.ObjectID) (*models.VerificationDocument, error) {
	var doc models.VerificationDocument
	err := ms.documents.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (ms *MongoVerificationStore) FindDocumentByType(ctx context.Context, requestID primitive.ObjectID, docType models.DocumentType) (*models.VerificationDocument, error) {
	var doc models.VerificationDocument
	err := ms.documents.FindOne(ctx, bson.M{"request_id": requestID, "document_type": docType}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (ms *MongoVerificationStore) ListDocuments(ctx context.Context, requestID primitive.ObjectID) ([]models.VerificationDocument, error) {
	cursor, err := ms.documents.Find(ctx, bson.M{"request_id": requestID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []models.VerificationDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (ms *MongoVerificationStore) MarkDocumentInProgress(ctx context.Context, id primitive.ObjectID) (bool, error) {
	filter := bson.M{"_id": id, "status": models.DocumentStatusPending}
	update := bson.M{"$set": bson.M{"status": models.DocumentStatusInProgress, "modified_at": time.Now()}}
	res, err := ms.documents.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (ms *MongoVerificationStore) SetDocumentResult(ctx context.Context, id primitive.ObjectID, result DocumentResult) error {
	set := bson.M{
		"status":      result.Status,
		"modified_at": time.Now(),
	}
	if result.Provider != "" {
		set["provider"] = result.Provider
	}
	if result.ProviderRef != "" {
		set["provider_ref"] = result.ProviderRef
	}
	if result.Confidence > 0 {
		set["confidence"] = result.Confidence
	}
	if result.FailureReason != "" {
		set["failure_reason"] = result.FailureReason
	}
	if result.VerifiedAt != nil {
		set["verified_at"] = *result.VerifiedAt
	}

	res, err := ms.documents.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (ms *MongoVerificationStore) AppendHistory(ctx context.Context, entry *models.VerificationHistory) error {
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	_, err := ms.history.InsertOne(ctx, entry)
	return err
}

func (ms *MongoVerificationStore) ListHistory(ctx context.Context, requestID primitive.ObjectID) ([]models.VerificationHistory, error) {
	opts := options.Find().SetSort(bson.M{"created_at": 1})
	cursor, err := ms.history.Find(ctx, bson.M{"request_id": requestID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []models.VerificationHistory
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (ms *MongoVerificationStore) InsertProviderLog(ctx context.Context, entry *models.ProviderLogEntry) error {
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	_, err := ms.provider.InsertOne(ctx, entry)
	return err
}

func (ms *MongoVerificationStore) ProviderCallStats(ctx context.Context) ([]models.ProviderCallStat, error) {
	pipeline := []bson.M{
		{"$group": bson.M{
			"_id":            "$provider",
			"document_type":  bson.M{"$first": "$document_type"},
			"calls":          bson.M{"$sum": 1},
			"avg_latency_ms": bson.M{"$avg": "$latency_ms"},
		}},
	}

	cursor, err := ms.provider.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var stats []models.ProviderCallStat
	if err := cursor.All(ctx, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func (ms *MongoVerificationStore) FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := ms.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
