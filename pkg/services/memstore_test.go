package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"rentora-api-io/api/pkg/models"
	"rentora-api-io/api/pkg/providers"
	"rentora-api-io/api/pkg/util"
)

// memStore is an in-memory VerificationStore with the same conflict and
// not-found semantics as the mongo implementation.
type memStore struct {
	mu        sync.Mutex
	requests  map[primitive.ObjectID]*models.VerificationRequest
	documents map[primitive.ObjectID]*models.VerificationDocument
	history   []models.VerificationHistory
	provider  []models.ProviderLogEntry
	users     map[primitive.ObjectID]*models.User
}

func newMemStore() *memStore {
	return &memStore{
		requests:  map[primitive.ObjectID]*models.VerificationRequest{},
		documents: map[primitive.ObjectID]*models.VerificationDocument{},
		users:     map[primitive.ObjectID]*models.User{},
	}
}

func (m *memStore) addUser(u models.User) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = &u
	return &u
}

func (m *memStore) InsertRequest(_ context.Context, req *models.VerificationRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *req
	m.requests[req.ID] = &cp
	return nil
}

func (m *memStore) FindRequestByID(_ context.Context, id primitive.ObjectID) (*models.VerificationRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *req
	return &cp, nil
}

func (m *memStore) FindOpenRequestByRequester(_ context.Context, requesterID primitive.ObjectID) (*models.VerificationRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, req := range m.requests {
		if req.RequesterID == requesterID && req.Status.Open() {
			cp := *req
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) FindLatestRequestByRequester(_ context.Context, requesterID primitive.ObjectID) (*models.VerificationRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *models.VerificationRequest
	for _, req := range m.requests {
		if req.RequesterID != requesterID {
			continue
		}
		if latest == nil || req.CreatedAt.After(latest.CreatedAt) {
			latest = req
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (m *memStore) matchesFilter(req *models.VerificationRequest, filter RequestFilter) bool {
	if filter.Status != "" && req.Status != filter.Status {
		return false
	}
	if filter.Category != "" && req.Category != filter.Category {
		return false
	}
	if filter.Search != "" && !strings.Contains(strings.ToLower(req.RequesterEmail), strings.ToLower(filter.Search)) {
		return false
	}
	if filter.OwnerID != nil {
		if req.Category != models.CategoryTenant {
			return false
		}
		tenant, ok := m.users[req.RequesterID]
		if !ok || tenant.PropertyOwnerID == nil || *tenant.PropertyOwnerID != *filter.OwnerID {
			return false
		}
	}
	return true
}

func (m *memStore) ListRequests(_ context.Context, filter RequestFilter, _ util.PaginationArgs) ([]models.VerificationRequest, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var results []models.VerificationRequest
	for _, req := range m.requests {
		if m.matchesFilter(req, filter) {
			results = append(results, *req)
		}
	}
	return results, int64(len(results)), nil
}

func (m *memStore) CountRequestsByStatus(_ context.Context, ownerID *primitive.ObjectID) (map[models.RequestStatus]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[models.RequestStatus]int64{}
	for _, req := range m.requests {
		if ownerID != nil {
			tenant, ok := m.users[req.RequesterID]
			if !ok || tenant.PropertyOwnerID == nil || *tenant.PropertyOwnerID != *ownerID {
				continue
			}
		}
		counts[req.Status]++
	}
	return counts, nil
}

func (m *memStore) SetRequestInProgress(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if ok && req.Status == models.RequestStatusPending {
		req.Status = models.RequestStatusInProgress
		req.ModifiedAt = time.Now()
	}
	return nil
}

func (m *memStore) cacheKYC(requesterID primitive.ObjectID, status models.RequestStatus) {
	if user, ok := m.users[requesterID]; ok {
		user.KYCStatus = status
	}
}

func (m *memStore) FinalizeRequest(_ context.Context, id primitive.ObjectID, status models.RequestStatus, reviewer *primitive.ObjectID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok || !req.Status.Open() {
		return ErrConflict
	}
	now := time.Now()
	req.Status = status
	req.CompletedAt = &now
	req.ModifiedAt = now
	if reviewer != nil {
		req.ReviewedBy = reviewer
		req.ReviewedAt = &now
	}
	if reason != "" {
		req.RejectionReason = reason
	}
	m.cacheKYC(req.RequesterID, status)
	return nil
}

func (m *memStore) ApproveRequestAdmin(_ context.Context, id, reviewer primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok || req.Status == models.RequestStatusApproved {
		return ErrConflict
	}
	now := time.Now()
	req.Status = models.RequestStatusApproved
	req.ReviewedBy = &reviewer
	req.ReviewedAt = &now
	req.CompletedAt = &now
	for _, doc := range m.documents {
		if doc.RequestID == id {
			doc.Status = models.DocumentStatusVerified
			doc.VerifiedAt = &now
		}
	}
	m.cacheKYC(req.RequesterID, models.RequestStatusApproved)
	return nil
}

func (m *memStore) ApproveRequestOwner(_ context.Context, id, reviewer primitive.ObjectID, totalBytes int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok || req.Status == models.RequestStatusApproved || req.Status == models.RequestStatusOwnerApproved {
		return ErrConflict
	}
	now := time.Now()
	req.Status = models.RequestStatusOwnerApproved
	req.ReviewedBy = &reviewer
	req.ReviewedAt = &now
	req.CompletedAt = &now
	if tenant, ok := m.users[req.RequesterID]; ok {
		tenant.KYCStatus = models.RequestStatusOwnerApproved
		tenant.OwnerApproved = true
	}
	if owner, ok := m.users[reviewer]; ok {
		owner.StorageUsedBytes += totalBytes
	}
	return nil
}

func (m *memStore) ResetRequestForResubmission(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok {
		return ErrNotFound
	}
	req.Status = models.RequestStatusPending
	req.CompletedAt = nil
	req.ReviewedAt = nil
	req.ReviewedBy = nil
	req.RejectionReason = ""
	if tenant, ok := m.users[req.RequesterID]; ok {
		tenant.KYCStatus = models.RequestStatusPending
		tenant.OwnerApproved = false
	}
	return nil
}

func (m *memStore) ClearRequesterVerification(_ context.Context, requesterID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user, ok := m.users[requesterID]; ok {
		user.KYCStatus = ""
		user.OwnerApproved = false
	}
	return nil
}

func (m *memStore) DeleteRequest(_ context.Context, id primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.requests[id]; !ok {
		return 0, ErrNotFound
	}
	delete(m.requests, id)
	var deleted int64
	for docID, doc := range m.documents {
		if doc.RequestID == id {
			delete(m.documents, docID)
			deleted++
		}
	}
	return deleted, nil
}

func (m *memStore) InsertDocument(_ context.Context, doc *models.VerificationDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *doc
	m.documents[doc.ID] = &cp
	return nil
}

func (m *memStore) ReplaceDocumentUpload(_ context.Context, id primitive.ObjectID, upload DocumentUpload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.documents[id]
	if !ok {
		return ErrNotFound
	}
	doc.FileURL = upload.FileURL
	doc.StorageKey = upload.StorageKey
	doc.FileSize = upload.FileSize
	doc.MimeType = upload.MimeType
	doc.SealedNumber = upload.SealedNumber
	doc.Metadata = upload.Metadata
	doc.Status = models.DocumentStatusPending
	doc.Provider = ""
	doc.ProviderRef = ""
	doc.Confidence = 0
	doc.FailureReason = ""
	doc.VerifiedAt = nil
	doc.ModifiedAt = time.Now()
	return nil
}

func (m *memStore) FindDocumentByID(_ context.Context, id primitive.ObjectID) (*models.VerificationDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.documents[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *doc
	return &cp, nil
}

func (m *memStore) FindDocumentByType(_ context.Context, requestID primitive.ObjectID, docType models.DocumentType) (*models.VerificationDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, doc := range m.documents {
		if doc.RequestID == requestID && doc.Type == docType {
			cp := *doc
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) ListDocuments(_ context.Context, requestID primitive.ObjectID) ([]models.VerificationDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var docs []models.VerificationDocument
	for _, doc := range m.documents {
		if doc.RequestID == requestID {
			docs = append(docs, *doc)
		}
	}
	return docs, nil
}

func (m *memStore) MarkDocumentInProgress(_ context.Context, id primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.documents[id]
	if !ok || doc.Status != models.DocumentStatusPending {
		return false, nil
	}
	doc.Status = models.DocumentStatusInProgress
	doc.ModifiedAt = time.Now()
	return true, nil
}

func (m *memStore) SetDocumentResult(_ context.Context, id primitive.ObjectID, result DocumentResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.documents[id]
	if !ok {
		return ErrNotFound
	}
	doc.Status = result.Status
	doc.Provider = result.Provider
	doc.ProviderRef = result.ProviderRef
	doc.Confidence = result.Confidence
	doc.FailureReason = result.FailureReason
	doc.VerifiedAt = result.VerifiedAt
	doc.ModifiedAt = time.Now()
	return nil
}

func (m *memStore) AppendHistory(_ context.Context, entry *models.VerificationHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *entry
	if cp.ID.IsZero() {
		cp.ID = primitive.NewObjectID()
	}
	cp.CreatedAt = time.Now()
	m.history = append(m.history, cp)
	return nil
}

func (m *memStore) ListHistory(_ context.Context, requestID primitive.ObjectID) ([]models.VerificationHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var entries []models.VerificationHistory
	for _, entry := range m.history {
		if entry.RequestID == requestID {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func (m *memStore) actions(requestID primitive.ObjectID) []models.HistoryAction {
	m.mu.Lock()
	defer m.mu.Unlock()
	var actions []models.HistoryAction
	for _, entry := range m.history {
		if entry.RequestID == requestID {
			actions = append(actions, entry.Action)
		}
	}
	return actions
}

func (m *memStore) InsertProviderLog(_ context.Context, entry *models.ProviderLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.provider = append(m.provider, *entry)
	return nil
}

func (m *memStore) ProviderCallStats(_ context.Context) ([]models.ProviderCallStat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var stats []models.ProviderCallStat
	for _, entry := range m.provider {
		stats = append(stats, models.ProviderCallStat{
			Provider:     entry.Provider,
			DocumentType: entry.DocumentType,
			Calls:        1,
			AvgLatencyMS: float64(entry.LatencyMS),
		})
	}
	return stats, nil
}

func (m *memStore) FindUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *user
	return &cp, nil
}

// memStorage keeps uploads in a map and records destroyed keys.
type memStorage struct {
	mu        sync.Mutex
	uploads   map[string][]byte
	destroyed []string
	uploadErr error
}

func newMemStorage() *memStorage {
	return &memStorage{uploads: map[string][]byte{}}
}

func (s *memStorage) Upload(_ context.Context, file io.Reader, key string) (string, error) {
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads[key] = data
	return "https://files.test/" + key, nil
}

func (s *memStorage) SignedURL(key string, _ time.Duration) (string, error) {
	return "https://files.test/signed/" + key, nil
}

func (s *memStorage) Destroy(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.destroyed = append(s.destroyed, key)
	delete(s.uploads, key)
	return nil
}

// stubProvider returns a scripted result per document type.
type stubProvider struct {
	mu      sync.Mutex
	results map[models.DocumentType]providers.Result
	err     error
	calls   int
}

func newStubProvider() *stubProvider {
	return &stubProvider{results: map[models.DocumentType]providers.Result{}}
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Verify(_ context.Context, in providers.Input) (providers.Result, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	if p.err != nil {
		return providers.Result{}, p.err
	}
	if result, ok := p.results[in.DocumentType]; ok {
		return result, nil
	}
	return providers.Result{Status: models.DocumentStatusVerified, Confidence: 1, Reference: "STUB"}, nil
}

func (p *stubProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// recordingNotifier captures notification order for assertions.
type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) NotifyComplete(_ context.Context, req *models.VerificationRequest) {
	n.record(fmt.Sprintf("complete:%s", req.Status))
}

func (n *recordingNotifier) NotifyDocumentFailed(_ context.Context, _ *models.VerificationRequest, doc *models.VerificationDocument) {
	n.record(fmt.Sprintf("document-failed:%s", doc.Type))
}

func (n *recordingNotifier) NotifyAdminManualReview(_ context.Context, _ *models.VerificationRequest, doc *models.VerificationDocument) {
	n.record(fmt.Sprintf("admin-review:%s", doc.Type))
}

func (n *recordingNotifier) record(event string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.events...)
}

// inlineDispatch runs the verification routine synchronously, standing in
// for the broker round trip.
type inlineDispatch struct {
	run JobRunner
}

func (d *inlineDispatch) SetRunner(run JobRunner) { d.run = run }

func (d *inlineDispatch) Dispatch(job VerificationJob) {
	if d.run != nil {
		_ = d.run(context.Background(), job.DocumentID)
	}
}

// noopDispatch records jobs without running them, for tests that drive the
// routine by hand.
type noopDispatch struct {
	mu   sync.Mutex
	jobs []VerificationJob
}

func (d *noopDispatch) SetRunner(JobRunner) {}

func (d *noopDispatch) Dispatch(job VerificationJob) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.jobs = append(d.jobs, job)
}
