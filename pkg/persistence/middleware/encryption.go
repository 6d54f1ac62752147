package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/callflow/pkg/domain"
	"github.com/aretw0/callflow/pkg/ports"
)

// EnvelopeField is the session field that carries the sealed payload.
const EnvelopeField = "__encrypted__"

// KeySize is the required key length (AES-256).
const KeySize = 32

// ErrNoEnvelope is returned when a stored record was not written through the encryption middleware.
var ErrNoEnvelope = errors.New("session record is missing encrypted envelope")

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new records.
	ActiveKey []byte

	// FallbackKeys are tried in order when the active key cannot open a record.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

type sealed struct {
	Data domain.SessionData `json:"data"`
	Call domain.CallParams  `json:"call"`
}

type encryptionMiddleware struct {
	next   ports.SessionStore
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that seals session data and call params with AES-GCM.
// Revision and timestamps stay readable so operators can still list and age sessions.
func NewEncryptionMiddleware(config EncryptionConfig) (Middleware, error) {
	if len(config.ActiveKey) != KeySize {
		return nil, fmt.Errorf("active key must be %d bytes, got %d", KeySize, len(config.ActiveKey))
	}
	for i, k := range config.FallbackKeys {
		if len(k) != KeySize {
			return nil, fmt.Errorf("fallback key %d must be %d bytes, got %d", i, KeySize, len(k))
		}
	}
	return func(next ports.SessionStore) ports.SessionStore {
		return &encryptionMiddleware{next: next, config: config}
	}, nil
}

func (m *encryptionMiddleware) Set(ctx context.Context, callID string, rec *domain.SessionRecord) (domain.SetResult, error) {
	plainText, err := json.Marshal(sealed{Data: rec.Data, Call: rec.Call})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal session: %w", err)
	}

	ciphertext, err := encrypt(plainText, m.config.ActiveKey)
	if err != nil {
		return 0, fmt.Errorf("failed to encrypt session: %w", err)
	}

	envelope := &domain.SessionRecord{
		Data: domain.SessionData{
			CallID: rec.Data.CallID,
			Fields: map[string]any{
				EnvelopeField: base64.StdEncoding.EncodeToString(ciphertext),
			},
		},
		Revision:  rec.Revision,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
	return m.next.Set(ctx, callID, envelope)
}

func (m *encryptionMiddleware) Get(ctx context.Context, callID string) (*domain.SessionRecord, error) {
	envelope, err := m.next.Get(ctx, callID)
	if err != nil {
		return nil, err
	}

	// Fail closed: a plaintext record is never handed back as if it were trusted
	encoded, ok := envelope.Data.Fields[EnvelopeField].(string)
	if !ok {
		return nil, ErrNoEnvelope
	}

	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt session: %w", err)
	}

	var payload sealed
	if err := json.Unmarshal(plainText, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal decrypted session: %w", err)
	}
	if payload.Data.Fields == nil {
		payload.Data.Fields = make(map[string]any)
	}

	return &domain.SessionRecord{
		Data:      payload.Data,
		Call:      payload.Call,
		Revision:  envelope.Revision,
		CreatedAt: envelope.CreatedAt,
		UpdatedAt: envelope.UpdatedAt,
	}, nil
}

func (m *encryptionMiddleware) Destroy(ctx context.Context, callID string) (bool, error) {
	return m.next.Destroy(ctx, callID)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// Helpers

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}

	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}

	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	return gcm.Open(nil, nonce, ciphertext[gcm.NonceSize():], nil)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
