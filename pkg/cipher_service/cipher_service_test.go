package cipherservice_test

import (
	"testing"

	errorvalues "github.com/limbo/prayerbot/internal/error_values"
	cipherservice "github.com/limbo/prayerbot/pkg/cipher_service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	svc, err := cipherservice.New("test-secret")
	require.NoError(t, err)
	plaintext := "Today I learned to be patient 🙏"
	ciphertext, err := svc.Encrypt(plaintext)
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, ciphertext)
	got, err := svc.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestNoncesDiffer(t *testing.T) {
	svc, err := cipherservice.New("test-secret")
	require.NoError(t, err)
	first, err := svc.Encrypt("same text")
	require.NoError(t, err)
	second, err := svc.Encrypt("same text")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestDecryptFailures(t *testing.T) {
	svc, err := cipherservice.New("test-secret")
	require.NoError(t, err)
	t.Run("not base64", func(t *testing.T) {
		_, err := svc.Decrypt("%%% not base64 %%%")
		assert.ErrorIs(t, err, errorvalues.ErrDecryptFailed)
	})
	t.Run("too short", func(t *testing.T) {
		_, err := svc.Decrypt("YWJj")
		assert.ErrorIs(t, err, errorvalues.ErrDecryptFailed)
	})
	t.Run("wrong key", func(t *testing.T) {
		other, err := cipherservice.New("different-secret")
		require.NoError(t, err)
		ciphertext, err := other.Encrypt("secret note")
		require.NoError(t, err)
		_, err = svc.Decrypt(ciphertext)
		assert.ErrorIs(t, err, errorvalues.ErrDecryptFailed)
	})
}

func TestEmptySecret(t *testing.T) {
	_, err := cipherservice.New("")
	assert.Error(t, err)
}
