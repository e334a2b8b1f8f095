// Package stores resolves the tenant scope an order belongs to. Gateway
// calls are made with store-specific credentials, so every reconciliation
// first binds the request context to the owning store.
package stores

import (
	"context"
	"fmt"

	"github.com/cassiomorais/reconciler/internal/domain/errors"
	"github.com/cassiomorais/reconciler/internal/infrastructure/config"
)

type contextKey string

const storeContextKey contextKey = "store"

// Scope is the tenant scope carried on the context for gateway calls.
type Scope struct {
	StoreID     string
	MerchantID  string
	PublicKeyID string
}

// FromContext returns the store scope bound to ctx, if any.
func FromContext(ctx context.Context) (Scope, bool) {
	scope, ok := ctx.Value(storeContextKey).(Scope)
	return scope, ok
}

// ConfigSelector resolves stores from static configuration.
type ConfigSelector struct {
	stores map[string]config.StoreConfig
}

func NewConfigSelector(cfg *config.Config) *ConfigSelector {
	return &ConfigSelector{stores: cfg.Stores}
}

func (s *ConfigSelector) SelectStore(ctx context.Context, storeID string) (context.Context, error) {
	store, ok := s.stores[storeID]
	if !ok {
		return ctx, fmt.Errorf("%w: store %s", errors.ErrStoreNotConfigured, storeID)
	}

	scope := Scope{
		StoreID:     storeID,
		MerchantID:  store.MerchantID,
		PublicKeyID: store.PublicKeyID,
	}
	return context.WithValue(ctx, storeContextKey, scope), nil
}
