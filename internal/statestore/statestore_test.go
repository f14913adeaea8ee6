package statestore

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, []byte("correct horse battery staple"))
	require.NoError(t, err)

	state := []byte(`{"cookies":[{"name":"sid","value":"abc"}],"origins":[]}`)
	require.NoError(t, s.Save("opentable", state))

	raw, err := os.ReadFile(s.Path("opentable"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "sid")

	got, err := s.Load("opentable")
	require.NoError(t, err)
	assert.Equal(t, state, got)
}

func TestLoad_Missing(t *testing.T) {
	s, err := New(t.TempDir(), []byte("secret"))
	require.NoError(t, err)

	_, err = s.Load("nothing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoad_WrongSecret(t *testing.T) {
	dir := t.TempDir()
	a, err := New(dir, []byte("first"))
	require.NoError(t, err)
	require.NoError(t, a.Save("site", []byte(`{}`)))

	b, err := New(dir, []byte("second"))
	require.NoError(t, err)
	_, err = b.Load("site")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestNew_EmptySecret(t *testing.T) {
	_, err := New(t.TempDir(), nil)
	assert.ErrorIs(t, err, ErrNoSecret)
}

func TestDeriveKeys_Deterministic(t *testing.T) {
	h1, b1, err := DeriveKeys([]byte("s"))
	require.NoError(t, err)
	h2, b2, err := DeriveKeys([]byte("s"))
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Equal(t, b1, b2)
	assert.NotEqual(t, h1, b1)
	assert.Len(t, b1, 32)
}

func TestInvalidNames(t *testing.T) {
	s, err := New(t.TempDir(), []byte("secret"))
	require.NoError(t, err)

	for _, name := range []string{"", "..", "a/b"} {
		assert.Error(t, s.Save(name, []byte("x")), name)
	}
}

func TestDelete(t *testing.T) {
	s, err := New(t.TempDir(), []byte("secret"))
	require.NoError(t, err)
	require.NoError(t, s.Save("site", []byte(`{}`)))

	require.NoError(t, s.Delete("site"))
	require.NoError(t, s.Delete("site"))
	_, err = s.Load("site")
	assert.ErrorIs(t, err, ErrNotFound)
}
