// Package session persists the authentication session in a sealed,
// HTTP-only cookie. The payload is encrypted and authenticated with
// AES-256-GCM under a key derived from the configured secret, so a
// tampered or foreign cookie simply fails to open and reads as absent.
package session

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/crypto/hkdf"

	"alignment-feed-bff/internal/domain"
)

// CookieName is the session cookie written to the browser.
const CookieName = "__session"

// DefaultMaxAge bounds the cookie lifetime independent of token expiry,
// which the resolver checks on every read.
const DefaultMaxAge = 7 * 24 * time.Hour

const keyInfo = "alignment-feed-bff session sealing v1"

// Store reads, writes, and clears the sealed session cookie.
type Store struct {
	aead   cipher.AEAD
	maxAge time.Duration
	secure bool
}

// NewStore derives the sealing key from secret and returns a cookie store.
func NewStore(secret string, maxAge time.Duration, secure bool) (*Store, error) {
	if secret == "" {
		return nil, fmt.Errorf("session secret cannot be empty")
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}

	key := make([]byte, 32)
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte(keyInfo))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("derive session key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init session cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init session cipher: %w", err)
	}

	return &Store{aead: aead, maxAge: maxAge, secure: secure}, nil
}

// Read returns the session carried by the request, or nil when the cookie
// is absent, tampered with, or otherwise unreadable. Failures are closed,
// not loud: a broken cookie is indistinguishable from no cookie.
func (s *Store) Read(r *http.Request) *domain.Session {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	sealed, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}
	nonceSize := s.aead.NonceSize()
	if len(sealed) <= nonceSize {
		return nil
	}

	plain, err := s.aead.Open(nil, sealed[:nonceSize], sealed[nonceSize:], nil)
	if err != nil {
		return nil
	}

	var sess domain.Session
	if err := json.Unmarshal(plain, &sess); err != nil {
		return nil
	}
	if !sess.Valid() {
		return nil
	}
	return &sess
}

// Write seals the session and returns the cookie to set on the response.
func (s *Store) Write(sess *domain.Session) (*http.Cookie, error) {
	plain, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}

	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("seal session: %w", err)
	}
	sealed := s.aead.Seal(nonce, nonce, plain, nil)

	return &http.Cookie{
		Name:     CookieName,
		Value:    base64.RawURLEncoding.EncodeToString(sealed),
		Path:     "/",
		MaxAge:   int(s.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// Clear returns an expired cookie that removes the session.
func (s *Store) Clear() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
