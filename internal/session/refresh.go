package session

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var (
	// ErrRefreshReused signals that a retired refresh token came back;
	// the whole family is revoked in response.
	ErrRefreshReused = errors.New("refresh token reuse detected")
	// ErrFamilyRevoked is returned for tokens of a revoked family.
	ErrFamilyRevoked = errors.New("refresh token family revoked")
)

const (
	prefixRefresh = "refresh:"
	prefixFamily  = "family:"

	// AccessTTL keeps access tokens short-lived; clients rotate through
	// the refresh endpoint.
	AccessTTL = 15 * time.Minute
	// RefreshTTL is the lifetime of one refresh token and its family.
	RefreshTTL = 30 * 24 * time.Hour
)

// accessClaims is the signed payload of an access token.
type accessClaims struct {
	UserID string `json:"userId"`
	Expiry int64  `json:"exp"`
}

// refreshRecord is the stored state of one refresh token.
type refreshRecord struct {
	ID       string    `json:"id"`
	FamilyID string    `json:"familyId"`
	UserID   string    `json:"userId"`
	Used     bool      `json:"used"`
	IssuedAt time.Time `json:"issuedAt"`
}

// familyRecord tracks a refresh-token family.
type familyRecord struct {
	ID      string `json:"id"`
	UserID  string `json:"userId"`
	Revoked bool   `json:"revoked"`
}

// IssueAccess signs a short-lived access token for a registered user.
func (m *Manager) IssueAccess(userID string) (string, error) {
	claims := accessClaims{
		UserID: userID,
		Expiry: time.Now().Add(AccessTTL).Unix(),
	}
	payload, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}

	mac := hmac.New(sha256.New, m.secret)
	mac.Write(payload)
	return base64.RawURLEncoding.EncodeToString(payload) + "." +
		base64.RawURLEncoding.EncodeToString(mac.Sum(nil)), nil
}

// ValidateAccess verifies an access token and returns the user id.
func (m *Manager) ValidateAccess(token string) (string, error) {
	dot := strings.IndexByte(token, '.')
	if dot < 0 {
		return "", ErrInvalidToken
	}
	payload, err := base64.RawURLEncoding.DecodeString(token[:dot])
	if err != nil {
		return "", ErrInvalidToken
	}
	sig, err := base64.RawURLEncoding.DecodeString(token[dot+1:])
	if err != nil {
		return "", ErrInvalidToken
	}

	mac := hmac.New(sha256.New, m.secret)
	mac.Write(payload)
	if !hmac.Equal(sig, mac.Sum(nil)) {
		return "", ErrInvalidToken
	}

	var claims accessClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return "", ErrInvalidToken
	}
	if time.Now().Unix() > claims.Expiry {
		return "", ErrExpired
	}
	return claims.UserID, nil
}

// IssueRefresh creates a refresh token in a new family.
func (m *Manager) IssueRefresh(ctx context.Context, userID string) (string, error) {
	familyID, err := randomID()
	if err != nil {
		return "", err
	}
	fam := familyRecord{ID: familyID, UserID: userID}
	if err := m.kv.PutJSON(ctx, prefixFamily+familyID, &fam, RefreshTTL); err != nil {
		return "", err
	}
	return m.issueInFamily(ctx, userID, familyID)
}

// Rotate retires a refresh token and issues a new access/refresh pair in
// the same family. Presenting an already-used token revokes the family.
func (m *Manager) Rotate(ctx context.Context, refreshToken string) (access, refresh string, err error) {
	var rec refreshRecord
	if err := m.kv.GetJSON(ctx, prefixRefresh+refreshToken, &rec); err != nil {
		return "", "", ErrInvalidToken
	}

	var fam familyRecord
	if err := m.kv.GetJSON(ctx, prefixFamily+rec.FamilyID, &fam); err != nil {
		return "", "", ErrInvalidToken
	}
	if fam.Revoked {
		return "", "", ErrFamilyRevoked
	}

	if rec.Used {
		// A retired token came back: someone replayed it. Burn the
		// whole family.
		fam.Revoked = true
		if err := m.kv.PutJSON(ctx, prefixFamily+fam.ID, &fam, RefreshTTL); err != nil {
			log.Errorf("family %s: revoking: %v", fam.ID, err)
		}
		log.Warningf("refresh reuse for user %s, family %s revoked", rec.UserID, fam.ID)
		return "", "", ErrRefreshReused
	}

	rec.Used = true
	if err := m.kv.PutJSON(ctx, prefixRefresh+rec.ID, &rec, RefreshTTL); err != nil {
		return "", "", err
	}

	refresh, err = m.issueInFamily(ctx, rec.UserID, rec.FamilyID)
	if err != nil {
		return "", "", err
	}
	access, err = m.IssueAccess(rec.UserID)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func (m *Manager) issueInFamily(ctx context.Context, userID, familyID string) (string, error) {
	id, err := randomID()
	if err != nil {
		return "", err
	}
	rec := refreshRecord{
		ID:       id,
		FamilyID: familyID,
		UserID:   userID,
		IssuedAt: time.Now().UTC(),
	}
	if err := m.kv.PutJSON(ctx, prefixRefresh+id, &rec, RefreshTTL); err != nil {
		return "", err
	}
	return id, nil
}

func randomID() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}
