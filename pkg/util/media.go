package util

import (
	"context"
	"crypto/sha1"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/cloudinary/cloudinary-go"
	"github.com/cloudinary/cloudinary-go/api/uploader"
	"github.com/gosimple/slug"
	"github.com/pkg/errors"
)

// DocumentStorage is the object-storage collaborator the verification core
// writes uploaded files to.
type DocumentStorage interface {
	Upload(ctx context.Context, file io.Reader, key string) (string, error)
	SignedURL(key string, ttl time.Duration) (string, error)
	Destroy(ctx context.Context, key string) error
}

// StorageKey namespaces an uploaded file by request and document type plus a
// uniqueness suffix, so re-uploads never collide with the file they replace.
func StorageKey(requestID string, documentType string, filename string) string {
	return fmt.Sprintf("verification/%s/%s/%d-%s", requestID, documentType, time.Now().Unix(), slug.Make(filename))
}

type cloudinaryStorage struct {
	cld       *cloudinary.Cloudinary
	cloudName string
	apiKey    string
	apiSecret string
}

// NewDocumentStorage builds the Cloudinary-backed document storage. Missing
// credentials are a fatal configuration error for the caller to surface at
// startup; uploads must never fail silently because of config.
func NewDocumentStorage(cloudName, apiKey, apiSecret string) (DocumentStorage, error) {
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, errors.New("cloudinary credentials are not configured")
	}

	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, errors.Wrap(err, "unable to initialize cloudinary")
	}

	return &cloudinaryStorage{cld: cld, cloudName: cloudName, apiKey: apiKey, apiSecret: apiSecret}, nil
}

func (cs *cloudinaryStorage) Upload(ctx context.Context, file io.Reader, key string) (string, error) {
	uploadCtx, cancel := context.WithTimeout(ctx, 40*time.Second)
	defer cancel()

	res, err := cs.cld.Upload.Upload(uploadCtx, file, uploader.UploadParams{
		PublicID:     key,
		ResourceType: "auto",
	})
	if err != nil {
		return "", errors.Wrap(err, "cloudinary upload failed")
	}

	return res.SecureURL, nil
}

// SignedURL builds a time-limited private download link for admin review.
// Cloudinary authenticates downloads with a SHA1 signature over the sorted
// query params plus the API secret.
func (cs *cloudinaryStorage) SignedURL(key string, ttl time.Duration) (string, error) {
	timestamp := time.Now().Unix()
	expiresAt := time.Now().Add(ttl).Unix()

	toSign := fmt.Sprintf("expires_at=%d&public_id=%s&timestamp=%d%s", expiresAt, key, timestamp, cs.apiSecret)
	signature := fmt.Sprintf("%x", sha1.Sum([]byte(toSign)))

	q := url.Values{}
	q.Set("public_id", key)
	q.Set("timestamp", fmt.Sprintf("%d", timestamp))
	q.Set("expires_at", fmt.Sprintf("%d", expiresAt))
	q.Set("api_key", cs.apiKey)
	q.Set("signature", signature)

	return fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/image/download?%s", cs.cloudName, q.Encode()), nil
}

func (cs *cloudinaryStorage) Destroy(ctx context.Context, key string) error {
	destroyCtx, cancel := context.WithTimeout(ctx, 40*time.Second)
	defer cancel()

	_, err := cs.cld.Upload.Destroy(destroyCtx, uploader.DestroyParams{PublicID: key})
	if err != nil {
		return errors.Wrap(err, "cloudinary destroy failed")
	}

	return nil
}
