package secrets_test

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/libraryclient/pkg/secrets"
)

func newKey(t *testing.T) []byte {
	t.Helper()
	key, err := secrets.GenerateKey()
	require.NoError(t, err)
	require.Len(t, key, secrets.KeySize)
	return key
}

func TestSealer(t *testing.T) {
	t.Parallel()

	t.Run("round trip string", func(t *testing.T) {
		t.Parallel()
		s, err := secrets.NewSealer(newKey(t))
		require.NoError(t, err)

		box, err := s.SealString("eyJhbGciOiJIUzI1NiJ9.payload.sig")
		require.NoError(t, err)
		assert.NotContains(t, box, "payload")

		plain, err := s.OpenString(box)
		require.NoError(t, err)
		assert.Equal(t, "eyJhbGciOiJIUzI1NiJ9.payload.sig", plain)
	})

	t.Run("nonce differs per seal", func(t *testing.T) {
		t.Parallel()
		s, err := secrets.NewSealer(newKey(t))
		require.NoError(t, err)

		a, err := s.Seal([]byte("same"))
		require.NoError(t, err)
		b, err := s.Seal([]byte("same"))
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("empty payload", func(t *testing.T) {
		t.Parallel()
		s, err := secrets.NewSealer(newKey(t))
		require.NoError(t, err)

		box, err := s.Seal(nil)
		require.NoError(t, err)
		out, err := s.Open(box)
		require.NoError(t, err)
		assert.Empty(t, out)
	})

	t.Run("wrong key fails", func(t *testing.T) {
		t.Parallel()
		a, err := secrets.NewSealer(newKey(t))
		require.NoError(t, err)
		b, err := secrets.NewSealer(newKey(t))
		require.NoError(t, err)

		box, err := a.Seal([]byte("token"))
		require.NoError(t, err)
		_, err = b.Open(box)
		assert.ErrorIs(t, err, secrets.ErrDecryptionFailed)
	})

	t.Run("labels separate keys", func(t *testing.T) {
		t.Parallel()
		key := newKey(t)
		a, err := secrets.NewSealer(key, "credential")
		require.NoError(t, err)
		b, err := secrets.NewSealer(key, "reports")
		require.NoError(t, err)
		same, err := secrets.NewSealer(key, "credential")
		require.NoError(t, err)

		box, err := a.Seal([]byte("token"))
		require.NoError(t, err)
		_, err = b.Open(box)
		assert.ErrorIs(t, err, secrets.ErrDecryptionFailed)

		out, err := same.Open(box)
		require.NoError(t, err)
		assert.Equal(t, "token", string(out))
	})

	t.Run("tampered ciphertext", func(t *testing.T) {
		t.Parallel()
		s, err := secrets.NewSealer(newKey(t))
		require.NoError(t, err)
		box, err := s.Seal([]byte("token"))
		require.NoError(t, err)
		box[len(box)-1] ^= 0xff
		_, err = s.Open(box)
		assert.ErrorIs(t, err, secrets.ErrDecryptionFailed)
	})

	t.Run("short ciphertext", func(t *testing.T) {
		t.Parallel()
		s, err := secrets.NewSealer(newKey(t))
		require.NoError(t, err)
		_, err = s.Open([]byte{1, 2, 3})
		assert.ErrorIs(t, err, secrets.ErrInvalidCiphertext)

		_, err = s.OpenString("%%%not-base64")
		assert.ErrorIs(t, err, secrets.ErrInvalidCiphertext)
	})

	t.Run("invalid key size", func(t *testing.T) {
		t.Parallel()
		_, err := secrets.NewSealer([]byte("short"))
		assert.ErrorIs(t, err, secrets.ErrInvalidKey)
	})
}

func TestParseKey(t *testing.T) {
	t.Parallel()
	key := newKey(t)

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "base64", input: secrets.EncodeKey(key)},
		{name: "hex", input: hex.EncodeToString(key)},
		{name: "padded with spaces", input: "  " + secrets.EncodeKey(key) + "\n"},
		{name: "empty", input: "", wantErr: true},
		{name: "too short", input: "c2hvcnQ=", wantErr: true},
		{name: "garbage", input: "not a key", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := secrets.ParseKey(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, secrets.ErrInvalidKey)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, key, got)
		})
	}
}
