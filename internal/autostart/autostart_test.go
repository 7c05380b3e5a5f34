package autostart

import (
	"os"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDesktopExec(t *testing.T) {
	assert.Equal(t, "/usr/bin/remotepad serve", desktopExec([]string{"/usr/bin/remotepad", "serve"}))
	assert.Equal(t, `"/home/me/my apps/remotepad" serve --config "/tmp/a \"b\".yaml"`,
		desktopExec([]string{"/home/me/my apps/remotepad", "serve", "--config", `/tmp/a "b".yaml`}))
	assert.Equal(t, `remotepad ""`, desktopExec([]string{"remotepad", ""}))
}

func TestPlistEscapesArguments(t *testing.T) {
	if runtime.GOOS != "darwin" {
		t.Skip("plist rendering is macOS only")
	}
	out, err := render([]string{"/Applications/remotepad", "serve", "--config", "/tmp/a&b.yaml"})
	require.NoError(t, err)
	assert.Contains(t, string(out), "<string>"+Label+"</string>")
	assert.Contains(t, string(out), "<string>/tmp/a&amp;b.yaml</string>")
}

func TestLinuxRoundTrip(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG autostart is Linux only")
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	assert.False(t, IsEnabled())
	require.NoError(t, Enable([]string{"serve", "--config", "/etc/remotepad.yaml"}))
	assert.True(t, IsEnabled())

	path, err := EntryPath()
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[Desktop Entry]")
	assert.Contains(t, string(data), "serve --config /etc/remotepad.yaml")

	require.NoError(t, Disable())
	assert.False(t, IsEnabled())
	require.NoError(t, Disable())
}
