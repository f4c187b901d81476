package digest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprint_Deterministic(t *testing.T) {
	fp := "Sender--'Entry'.'Entry'--Receiver--A.foo()"

	assert.Equal(t, Fingerprint(fp), Fingerprint(fp))
	assert.Len(t, Fingerprint(fp), 64, "SHA-256 hex is 64 characters")
	assert.NotEqual(t, Fingerprint(fp), Fingerprint(fp+"x"))
}

func TestModel_DomainSeparated(t *testing.T) {
	// The same bytes hashed under different domains must not collide.
	m, err := Model("abc")
	require.NoError(t, err)

	assert.NotEqual(t, Fingerprint(`"abc"`), m)
}

func TestModel_KeyOrderIndependent(t *testing.T) {
	a, err := Model(map[string]int{"x": 1, "y": 2})
	require.NoError(t, err)
	b, err := Model(map[string]int{"y": 2, "x": 1})
	require.NoError(t, err)

	assert.Equal(t, a, b)
}
