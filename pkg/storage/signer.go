package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrTokenMalformed = errors.New("malformed download token")
	ErrTokenSignature = errors.New("invalid download token signature")
	ErrTokenExpired   = errors.New("download token expired")
)

// Ticket is the payload carried by a signed download token.
type Ticket struct {
	ID        string
	Path      string
	ExpiresAt time.Time
}

// Signer issues HMAC-SHA256 download tokens of the form id.expiry.path.signature.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSigner(secret string, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Signer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign returns a token for the stored file at path.
func (s *Signer) Sign(id, path string) (string, Ticket, error) {
	if id == "" || path == "" {
		return "", Ticket{}, errors.New("id and path are required")
	}
	if len(s.secret) == 0 {
		return "", Ticket{}, errors.New("signing secret missing")
	}
	if strings.Contains(id, ".") {
		return "", Ticket{}, fmt.Errorf("id %q must not contain '.'", id)
	}

	ticket := Ticket{ID: id, Path: path, ExpiresAt: s.now().Add(s.ttl).Truncate(time.Second)}
	exp := strconv.FormatInt(ticket.ExpiresAt.Unix(), 10)
	encoded := base64.RawURLEncoding.EncodeToString([]byte(path))
	return strings.Join([]string{id, exp, encoded, s.mac(id, exp, encoded)}, "."), ticket, nil
}

// Verify checks the signature and, unless allowExpired, the expiry.
func (s *Signer) Verify(token string, allowExpired bool) (Ticket, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return Ticket{}, ErrTokenMalformed
	}
	id, exp, encoded, sig := parts[0], parts[1], parts[2], parts[3]

	if !hmac.Equal([]byte(s.mac(id, exp, encoded)), []byte(sig)) {
		return Ticket{}, ErrTokenSignature
	}
	unix, err := strconv.ParseInt(exp, 10, 64)
	if err != nil {
		return Ticket{}, ErrTokenMalformed
	}
	path, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return Ticket{}, ErrTokenMalformed
	}

	ticket := Ticket{ID: id, Path: string(path), ExpiresAt: time.Unix(unix, 0)}
	if !allowExpired && s.now().After(ticket.ExpiresAt) {
		return ticket, ErrTokenExpired
	}
	return ticket, nil
}

func (s *Signer) mac(id, exp, encoded string) string {
	h := hmac.New(sha256.New, s.secret)
	_, _ = h.Write([]byte(id + "|" + exp + "|" + encoded))
	return hex.EncodeToString(h.Sum(nil))
}
