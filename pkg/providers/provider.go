// Package providers abstracts external identity-verification vendors behind
// a single capability interface. Adapters are selected by name through a
// registry so new vendors plug in without touching the verification service.
package providers

import (
	"context"

	"github.com/pkg/errors"

	"rentora-api-io/api/pkg/models"
)

// Input is one document check. Number is the decrypted document number; it
// exists only for the duration of the call and must not be logged.
type Input struct {
	DocumentType models.DocumentType
	Number       string
	FirstName    string
	LastName     string
	DOB          string
	Country      string
}

// Result is the vendor's verdict on a single document. Status is `pending`
// for document types the vendor cannot automate; those are routed to manual
// admin review by the caller.
type Result struct {
	Status     models.DocumentStatus
	Confidence float64
	Reference  string
	RawData    map[string]any
	Err        string
}

type Provider interface {
	Name() string
	Verify(ctx context.Context, in Input) (Result, error)
}

// Config carries vendor connection settings resolved once at startup.
type Config struct {
	BaseURL string
	APIKey  string
}

type constructor func(cfg Config) Provider

var registry = map[string]constructor{}

func register(name string, ctor constructor) {
	registry[name] = ctor
}

// New resolves a provider adapter by its configured name.
func New(name string, cfg Config) (Provider, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, errors.Errorf("unknown verification provider: %s", name)
	}
	return ctor(cfg), nil
}
