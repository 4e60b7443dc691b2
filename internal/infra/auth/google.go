package auth

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/oauth2"
	"google.golang.org/api/idtoken"
)

// TokenSource entrega bearer tokens para un audience dado. Lo implementa
// el metadata server de Google Cloud; en tests se reemplaza por un stub.
type TokenSource interface {
	Token(ctx context.Context, audience string) (string, error)
}

// MetadataTokenSource emite ID tokens contra el metadata server (Cloud
// Run, GCE, GKE). Cachea un oauth2.TokenSource por audience, que ya se
// encarga del refresh.
type MetadataTokenSource struct {
	mu      sync.Mutex
	sources map[string]oauth2.TokenSource
}

func NewMetadataTokenSource() *MetadataTokenSource {
	return &MetadataTokenSource{sources: make(map[string]oauth2.TokenSource)}
}

func (m *MetadataTokenSource) Token(ctx context.Context, audience string) (string, error) {
	if audience == "" {
		return "", fmt.Errorf("audience vacío para ID token")
	}

	m.mu.Lock()
	ts, ok := m.sources[audience]
	if !ok {
		var err error
		ts, err = idtoken.NewTokenSource(ctx, audience)
		if err != nil {
			m.mu.Unlock()
			return "", fmt.Errorf("creando token source para %s: %w", audience, err)
		}
		m.sources[audience] = ts
	}
	m.mu.Unlock()

	tok, err := ts.Token()
	if err != nil {
		return "", fmt.Errorf("obteniendo ID token para %s: %w", audience, err)
	}
	return tok.AccessToken, nil
}

// StaticTokenSource devuelve siempre el mismo token. Útil para desarrollo
// local y tests.
type StaticTokenSource struct {
	Value string
}

func (s StaticTokenSource) Token(ctx context.Context, audience string) (string, error) {
	return s.Value, nil
}
