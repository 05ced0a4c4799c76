// Package signing implements HMAC-based signed URL access control.
//
// A signature binds a file path, the requesting user, and an expiry
// timestamp, letting the serving endpoint authorize a read with no database
// lookup. Expiry is checked before signature validity, comparison is
// constant-time, and path traversal is defended independently: a valid
// signature never bypasses the storage-root check.
package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"time"

	domainerrors "github.com/stageupapp/stageup-server/internal/errors"
	"github.com/stageupapp/stageup-server/internal/id"
)

// minSecretLength rejects secrets too short to resist brute force.
const minSecretLength = 32

// Query parameter names for signed URLs.
const (
	ParamUser      = "user"
	ParamExpires   = "expires"
	ParamSignature = "sig"
)

// Signer generates and verifies URL signatures with a server secret.
type Signer struct {
	secret []byte
}

// New creates a Signer. The secret must be at least 32 bytes.
func New(secret []byte) (*Signer, error) {
	if len(secret) < minSecretLength {
		return nil, domainerrors.Configurationf(
			"signing secret must be at least %d bytes, got %d", minSecretLength, len(secret))
	}
	return &Signer{secret: secret}, nil
}

// canonical builds the signed message. Newline separation keeps the fields
// unambiguous regardless of their content.
func canonical(relativePath string, userID id.UserID, expires int64) string {
	return relativePath + "\n" + userID.String() + "\n" + strconv.FormatInt(expires, 10)
}

// Sign computes the hex signature for a path, user, and expiry timestamp.
func (s *Signer) Sign(relativePath string, userID id.UserID, expires time.Time) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(canonical(relativePath, userID, expires.Unix())))
	return hex.EncodeToString(mac.Sum(nil))
}

// SignedQuery returns the query parameters authorizing a read of
// relativePath by userID until expiry.
func (s *Signer) SignedQuery(relativePath string, userID id.UserID, expires time.Time) url.Values {
	q := url.Values{}
	q.Set(ParamUser, userID.String())
	q.Set(ParamExpires, strconv.FormatInt(expires.Unix(), 10))
	q.Set(ParamSignature, s.Sign(relativePath, userID, expires))
	return q
}

// SignedURL appends signed query parameters to a base URL for the path.
func (s *Signer) SignedURL(baseURL, relativePath string, userID id.UserID, expires time.Time) string {
	return fmt.Sprintf("%s?%s", baseURL, s.SignedQuery(relativePath, userID, expires).Encode())
}

// Verify recomputes the expected signature and checks it in constant time.
// Expired requests are rejected regardless of signature validity; missing
// parameters are rejected outright.
func (s *Signer) Verify(relativePath string, userID id.UserID, expires int64, signature string, now time.Time) error {
	if relativePath == "" || userID == "" || signature == "" {
		return domainerrors.Unauthorized("missing signed URL parameter")
	}
	if expires <= 0 {
		return domainerrors.Unauthorized("missing or invalid expiry")
	}

	if now.Unix() > expires {
		return domainerrors.Unauthorized("signed URL has expired")
	}

	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(canonical(relativePath, userID, expires)))
	expected := mac.Sum(nil)

	got, err := hex.DecodeString(signature)
	if err != nil || !hmac.Equal(expected, got) {
		return domainerrors.Unauthorized("invalid signature")
	}
	return nil
}

// VerifyQuery verifies a request from its query parameters.
func (s *Signer) VerifyQuery(relativePath string, query url.Values, now time.Time) error {
	expiresStr := query.Get(ParamExpires)
	if expiresStr == "" {
		return domainerrors.Unauthorized("missing expiry parameter")
	}
	expires, err := strconv.ParseInt(expiresStr, 10, 64)
	if err != nil {
		return domainerrors.Unauthorized("invalid expiry parameter")
	}

	return s.Verify(relativePath, id.UserID(query.Get(ParamUser)), expires, query.Get(ParamSignature), now)
}
