package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("BROWSER_STATE_DIR", t.TempDir())

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "America/New_York", cfg.Timezone)
	assert.Equal(t, DefaultRequest, cfg.DefaultRequest)
	assert.Equal(t, "https://www.opentable.com", cfg.Site.HomeURL)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 2*time.Second, cfg.Delays.PostSearch)
	assert.EqualValues(t, 4, cfg.DatabaseConns)

	wf := cfg.Workflow()
	assert.Equal(t, "/s", wf.Site.SearchPath)
	assert.Equal(t, 3*time.Second, wf.Delays.PostNavigate)
	assert.Empty(t, wf.Guest.Phone)
}

func TestFromEnv_GuestProfileFillsGaps(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "guest.yaml")
	require.NoError(t, os.WriteFile(path, []byte("first_name: Ada\nlast_name: Lovelace\nemail: ada@example.com\nphone: \"+1 555 0100\"\n"), 0o600))

	t.Setenv("BROWSER_STATE_DIR", dir)
	t.Setenv("GUEST_PROFILE", path)
	t.Setenv("BOOKING_EMAIL", "override@example.com")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "Ada", cfg.Guest.FirstName)
	assert.Equal(t, "override@example.com", cfg.Guest.Email)
	assert.Equal(t, "+1 555 0100", cfg.Workflow().Guest.Phone)
}

func TestFromEnv_Invalid(t *testing.T) {
	t.Setenv("BROWSER_STATE_DIR", t.TempDir())

	t.Setenv("TIMEZONE", "Mars/Olympus_Mons")
	_, err := FromEnv()
	assert.Error(t, err)

	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("SITE_HOME_URL", "not a url")
	_, err = FromEnv()
	assert.Error(t, err)

	t.Setenv("SITE_HOME_URL", "https://www.opentable.com")
	t.Setenv("GUEST_PROFILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err = FromEnv()
	assert.Error(t, err)
}
