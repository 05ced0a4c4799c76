package signing

import (
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stageupapp/stageup-server/internal/id"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func setupTestSigner(t *testing.T) *Signer {
	t.Helper()
	signer, err := New([]byte(testSecret))
	require.NoError(t, err)
	return signer
}

func TestNew(t *testing.T) {
	t.Run("accepts a 32 byte secret", func(t *testing.T) {
		signer, err := New([]byte(testSecret))
		require.NoError(t, err)
		assert.NotNil(t, signer)
	})

	t.Run("rejects short secrets", func(t *testing.T) {
		signer, err := New([]byte("too-short"))
		assert.Error(t, err)
		assert.Nil(t, signer)
	})
}

func TestVerify(t *testing.T) {
	signer := setupTestSigner(t)

	path := "usr-a/sources/src-b.jpg"
	userID := id.UserID("usr-a")
	expires := time.Now().Add(time.Hour)
	sig := signer.Sign(path, userID, expires)

	t.Run("valid signature before expiry", func(t *testing.T) {
		err := signer.Verify(path, userID, expires.Unix(), sig, time.Now())
		assert.NoError(t, err)
	})

	t.Run("valid exactly at expiry", func(t *testing.T) {
		err := signer.Verify(path, userID, expires.Unix(), sig, time.Unix(expires.Unix(), 0))
		assert.NoError(t, err)
	})

	t.Run("rejected after expiry even with valid signature", func(t *testing.T) {
		err := signer.Verify(path, userID, expires.Unix(), sig, expires.Add(time.Second))
		assert.Error(t, err)
	})

	t.Run("rejected for a different path", func(t *testing.T) {
		err := signer.Verify("usr-a/sources/src-other.jpg", userID, expires.Unix(), sig, time.Now())
		assert.Error(t, err)
	})

	t.Run("rejected for a different user", func(t *testing.T) {
		err := signer.Verify(path, "usr-other", expires.Unix(), sig, time.Now())
		assert.Error(t, err)
	})

	t.Run("rejected for a shifted expiry", func(t *testing.T) {
		err := signer.Verify(path, userID, expires.Unix()+60, sig, time.Now())
		assert.Error(t, err)
	})

	t.Run("rejected for a tampered signature", func(t *testing.T) {
		tampered := "00" + sig[2:]
		if tampered == sig {
			tampered = "11" + sig[2:]
		}
		err := signer.Verify(path, userID, expires.Unix(), tampered, time.Now())
		assert.Error(t, err)
	})

	t.Run("rejected for non-hex signature", func(t *testing.T) {
		err := signer.Verify(path, userID, expires.Unix(), "not-hex!", time.Now())
		assert.Error(t, err)
	})

	t.Run("rejected when parameters are missing", func(t *testing.T) {
		assert.Error(t, signer.Verify("", userID, expires.Unix(), sig, time.Now()))
		assert.Error(t, signer.Verify(path, "", expires.Unix(), sig, time.Now()))
		assert.Error(t, signer.Verify(path, userID, 0, sig, time.Now()))
		assert.Error(t, signer.Verify(path, userID, expires.Unix(), "", time.Now()))
	})
}

func TestSign_Deterministic(t *testing.T) {
	signer := setupTestSigner(t)
	expires := time.Unix(1900000000, 0)

	sig1 := signer.Sign("usr-a/sources/src-b.jpg", "usr-a", expires)
	sig2 := signer.Sign("usr-a/sources/src-b.jpg", "usr-a", expires)
	assert.Equal(t, sig1, sig2)

	other := signer.Sign("usr-a/sources/src-c.jpg", "usr-a", expires)
	assert.NotEqual(t, sig1, other)
}

func TestVerifyQuery(t *testing.T) {
	signer := setupTestSigner(t)

	path := "usr-a/generations/src-b/variation-0-gen-c.jpg"
	userID := id.UserID("usr-a")
	expires := time.Now().Add(time.Minute)

	t.Run("verifies signed query parameters", func(t *testing.T) {
		query := signer.SignedQuery(path, userID, expires)
		err := signer.VerifyQuery(path, query, time.Now())
		assert.NoError(t, err)
	})

	t.Run("rejects missing expiry parameter", func(t *testing.T) {
		query := signer.SignedQuery(path, userID, expires)
		query.Del(ParamExpires)
		assert.Error(t, signer.VerifyQuery(path, query, time.Now()))
	})

	t.Run("rejects malformed expiry parameter", func(t *testing.T) {
		query := signer.SignedQuery(path, userID, expires)
		query.Set(ParamExpires, "not-a-number")
		assert.Error(t, signer.VerifyQuery(path, query, time.Now()))
	})

	t.Run("rejects substituted user", func(t *testing.T) {
		query := signer.SignedQuery(path, userID, expires)
		query.Set(ParamUser, "usr-attacker")
		assert.Error(t, signer.VerifyQuery(path, query, time.Now()))
	})
}

func TestSignedURL(t *testing.T) {
	signer := setupTestSigner(t)

	path := "usr-a/sources/src-b.jpg"
	expires := time.Now().Add(time.Minute)
	signed := signer.SignedURL("/uploads/"+path, path, "usr-a", expires)

	parsed, err := url.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/"+path, parsed.Path)

	query := parsed.Query()
	assert.Equal(t, "usr-a", query.Get(ParamUser))
	assert.Equal(t, strconv.FormatInt(expires.Unix(), 10), query.Get(ParamExpires))
	assert.NoError(t, signer.VerifyQuery(path, query, time.Now()))
}
