package sqlite

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/rpggio/phaseboard/internal/auth"
	"github.com/rpggio/phaseboard/internal/domain/phase"
	"github.com/rpggio/phaseboard/internal/repository"
)

// APIKey is the identity a bearer token resolves to.
type APIKey struct {
	TenantID    string
	UserID      string
	Role        phase.Role
	Description string
	CreatedAt   time.Time
}

// APIKeyRepository stores hashed bearer tokens.
type APIKeyRepository struct {
	db *DB
}

// NewAPIKeyRepository creates a new APIKeyRepository
func NewAPIKeyRepository(db *DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

// HashToken returns the stored form of a bearer token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Create stores token for key. Only the hash is persisted.
func (r *APIKeyRepository) Create(ctx context.Context, token string, key APIKey) error {
	if !key.Role.Valid() {
		return fmt.Errorf("%w: %q", phase.ErrUnknownRole, key.Role)
	}
	createdAt := key.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO api_keys (key_hash, tenant_id, user_id, role, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, HashToken(token), key.TenantID, key.UserID, string(key.Role), key.Description, createdAt)
	if err != nil {
		if mapped := mapWriteError(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("failed to create api key: %w", err)
	}
	return nil
}

// Generate creates a random token, stores it for key and returns the plaintext.
func (r *APIKeyRepository) Generate(ctx context.Context, key APIKey) (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	token := "pb_" + hex.EncodeToString(buf)
	if err := r.Create(ctx, token, key); err != nil {
		return "", err
	}
	return token, nil
}

// Resolve looks up the key a bearer token belongs to and stamps its last use.
func (r *APIKeyRepository) Resolve(ctx context.Context, token string) (*APIKey, error) {
	hash := HashToken(token)

	var key APIKey
	err := r.db.QueryRowContext(ctx, `
		SELECT tenant_id, user_id, role, description, created_at
		FROM api_keys WHERE key_hash = ?
	`, hash).Scan(&key.TenantID, &key.UserID, &key.Role, &key.Description, &key.CreatedAt)
	if isNoRows(err) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve api key: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, `UPDATE api_keys SET last_used = ? WHERE key_hash = ?`, time.Now(), hash); err != nil {
		return nil, fmt.Errorf("failed to stamp api key: %w", err)
	}
	return &key, nil
}

// ResolvePrincipal implements auth.Resolver.
func (r *APIKeyRepository) ResolvePrincipal(ctx context.Context, token string) (auth.Principal, error) {
	key, err := r.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return auth.Principal{}, auth.ErrUnauthorized
		}
		return auth.Principal{}, err
	}
	return auth.Principal{TenantID: key.TenantID, UserID: key.UserID, Role: key.Role}, nil
}
