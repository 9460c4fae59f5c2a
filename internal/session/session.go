// Package session issues and validates the two identity forms the
// server accepts: anonymous sessions bound to a client fingerprint, and
// registered identities with short-lived access tokens plus rotating
// refresh-token families.
package session

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"time"

	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("session")

var (
	// ErrInvalidToken covers malformed tokens, bad signatures, and
	// fingerprint mismatches. Deliberately indistinct.
	ErrInvalidToken = errors.New("invalid session token")
	// ErrExpired is returned for well-formed but stale tokens.
	ErrExpired = errors.New("session expired")
)

// KV is the TTL key-value surface sessions persist through.
type KV interface {
	PutJSON(ctx context.Context, key string, v any, ttl time.Duration) error
	GetJSON(ctx context.Context, key string, v any) error
	Delete(ctx context.Context, key string) error
}

const (
	prefixSession = "session:"

	// AnonymousTTL is the lifetime of an anonymous session, refreshed on
	// every validated request.
	AnonymousTTL = 24 * time.Hour

	sessionIDLen   = 16
	fingerprintLen = sha256.Size
	expiryLen      = 8
	payloadLen     = sessionIDLen + fingerprintLen + expiryLen
)

// Record is the stored state of an anonymous session.
type Record struct {
	ID           string    `json:"id"`
	Fingerprint  string    `json:"fingerprint"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActivity time.Time `json:"lastActivity"`
}

// Manager signs and validates tokens against the store.
type Manager struct {
	kv     KV
	secret []byte
}

// NewManager creates a manager with the given HMAC secret.
func NewManager(kv KV, secret []byte) *Manager {
	return &Manager{kv: kv, secret: secret}
}

// Fingerprint derives the client fingerprint bound into anonymous
// tokens: SHA-256 over user agent, accept-language, and remote address.
func Fingerprint(userAgent, acceptLanguage, remoteAddr string) [fingerprintLen]byte {
	h := sha256.New()
	h.Write([]byte(userAgent))
	h.Write([]byte(acceptLanguage))
	h.Write([]byte(remoteAddr))
	var out [fingerprintLen]byte
	copy(out[:], h.Sum(nil))
	return out
}

// CreateAnonymous issues a new anonymous session for the given client.
func (m *Manager) CreateAnonymous(ctx context.Context, userAgent, acceptLanguage, remoteAddr string) (string, *Record, error) {
	var id [sessionIDLen]byte
	if _, err := rand.Read(id[:]); err != nil {
		return "", nil, err
	}

	fp := Fingerprint(userAgent, acceptLanguage, remoteAddr)
	now := time.Now().UTC()
	rec := &Record{
		ID:           hex.EncodeToString(id[:]),
		Fingerprint:  hex.EncodeToString(fp[:]),
		CreatedAt:    now,
		LastActivity: now,
	}
	if err := m.kv.PutJSON(ctx, prefixSession+rec.ID, rec, AnonymousTTL); err != nil {
		return "", nil, err
	}

	expiry := now.Add(AnonymousTTL)
	token := m.signAnonymous(id, fp, expiry)
	log.Debugf("anonymous session %s issued", rec.ID)
	return token, rec, nil
}

// signAnonymous builds sessionId | fingerprint | expiry and appends the
// HMAC-SHA256 signature, base64url-encoded.
func (m *Manager) signAnonymous(id [sessionIDLen]byte, fp [fingerprintLen]byte, expiry time.Time) string {
	payload := make([]byte, 0, payloadLen)
	payload = append(payload, id[:]...)
	payload = append(payload, fp[:]...)
	payload = binary.BigEndian.AppendUint64(payload, uint64(expiry.Unix()))

	mac := hmac.New(sha256.New, m.secret)
	mac.Write(payload)
	return base64.RawURLEncoding.EncodeToString(append(payload, mac.Sum(nil)...))
}

// ValidateAnonymous checks a token against the presenting client and the
// store, and bumps the session's last activity.
func (m *Manager) ValidateAnonymous(ctx context.Context, token, userAgent, acceptLanguage, remoteAddr string) (*Record, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || len(raw) != payloadLen+sha256.Size {
		return nil, ErrInvalidToken
	}

	payload, sig := raw[:payloadLen], raw[payloadLen:]
	mac := hmac.New(sha256.New, m.secret)
	mac.Write(payload)
	if !hmac.Equal(sig, mac.Sum(nil)) {
		return nil, ErrInvalidToken
	}

	expiry := time.Unix(int64(binary.BigEndian.Uint64(payload[sessionIDLen+fingerprintLen:])), 0)
	if time.Now().After(expiry) {
		return nil, ErrExpired
	}

	fp := Fingerprint(userAgent, acceptLanguage, remoteAddr)
	if !hmac.Equal(payload[sessionIDLen:sessionIDLen+fingerprintLen], fp[:]) {
		return nil, ErrInvalidToken
	}

	id := hex.EncodeToString(payload[:sessionIDLen])
	var rec Record
	if err := m.kv.GetJSON(ctx, prefixSession+id, &rec); err != nil {
		return nil, ErrInvalidToken
	}

	rec.LastActivity = time.Now().UTC()
	if err := m.kv.PutJSON(ctx, prefixSession+id, &rec, AnonymousTTL); err != nil {
		log.Warningf("session %s: bumping activity: %v", id, err)
	}
	return &rec, nil
}
