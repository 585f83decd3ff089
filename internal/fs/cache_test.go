package fs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompiledCacheRoundTrip(t *testing.T) {
	c, err := OpenCompiledCache(":memory:")
	require.NoError(t, err)
	defer c.Close()

	_, ok, err := c.Get("greeting.liquid", Fingerprint("hello"))
	require.NoError(t, err)
	assert.False(t, ok)

	want := []byte("gob-encoded-program")
	fp := Fingerprint("Hello, {{ name }}!")
	require.NoError(t, c.Put("greeting.liquid", fp, want))

	got, ok, err := c.Get("greeting.liquid", fp)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestCompiledCacheStaleFingerprintEvicted(t *testing.T) {
	c, err := OpenCompiledCache(":memory:")
	require.NoError(t, err)
	defer c.Close()

	oldFP := Fingerprint("old source")
	newFP := Fingerprint("new source")

	require.NoError(t, c.Put("a.liquid", oldFP, []byte("old bytecode")))
	require.NoError(t, c.Put("a.liquid", newFP, []byte("new bytecode")))

	_, ok, err := c.Get("a.liquid", oldFP)
	require.NoError(t, err)
	assert.False(t, ok, "stale fingerprint should have been evicted")

	got, ok, err := c.Get("a.liquid", newFP)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("new bytecode"), got)
}

func TestFingerprintIsStableAndContentSensitive(t *testing.T) {
	assert.Equal(t, Fingerprint("same"), Fingerprint("same"))
	assert.NotEqual(t, Fingerprint("same"), Fingerprint("different"))
}
