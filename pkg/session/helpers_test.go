package session_test

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/libraryclient/pkg/secrets"
)

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

func newSealer(t *testing.T) *secrets.Sealer {
	t.Helper()
	key, err := secrets.GenerateKey()
	require.NoError(t, err)
	s, err := secrets.NewSealer(key)
	require.NoError(t, err)
	return s
}
