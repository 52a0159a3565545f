package crypto

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealOpenRoundTrip(t *testing.T) {
	svc, err := New(strings.Repeat("ab", 32))
	require.NoError(t, err)
	require.True(t, svc.Configured())

	plain := []byte("%PDF-1.3 payslip")
	sealed, err := svc.Seal(plain)
	require.NoError(t, err)
	assert.False(t, bytes.Contains(sealed, plain))

	opened, err := svc.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, plain, opened)
}

func TestSealUsesFreshNonce(t *testing.T) {
	svc, err := New(base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32)))
	require.NoError(t, err)
	a, err := svc.Seal([]byte("same"))
	require.NoError(t, err)
	b, err := svc.Seal([]byte("same"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestOpenRejectsTampering(t *testing.T) {
	svc, err := New(strings.Repeat("k!", 16))
	require.NoError(t, err)
	sealed, err := svc.Seal([]byte("net pay 13247"))
	require.NoError(t, err)
	sealed[len(sealed)-1] ^= 1
	_, err = svc.Open(sealed)
	assert.Error(t, err)

	_, err = svc.Open([]byte{1, 2})
	assert.ErrorIs(t, err, ErrCiphertextTooShort)
}

func TestUnconfiguredPassesThrough(t *testing.T) {
	svc, err := New("")
	require.NoError(t, err)
	assert.False(t, svc.Configured())
	out, err := svc.Seal([]byte("plain"))
	require.NoError(t, err)
	assert.Equal(t, []byte("plain"), out)
}

func TestNewRejectsShortKey(t *testing.T) {
	_, err := New("short")
	assert.Error(t, err)
}
