// Package autostart registers remotepad to start at login.
package autostart

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"text/template"

	"github.com/rotisserie/eris"
)

const (
	// Label names the LaunchAgent, the XDG entry and the Run registry value.
	Label = "com.remotepad.agent"
	name  = "remotepad"
)

const macLaunchAgentPlist = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>{{.Label}}</string>
    <key>ProgramArguments</key>
    <array>
{{- range .Command}}
        <string>{{html .}}</string>
{{- end}}
    </array>
    <key>RunAtLoad</key>
    <true/>
    <key>KeepAlive</key>
    <false/>
</dict>
</plist>
`

const xdgDesktopEntry = `[Desktop Entry]
Type=Application
Name=remotepad
Comment=Remote mouse and keyboard server
Exec={{.Exec}}
X-GNOME-Autostart-enabled=true
NoDisplay=true
`

var (
	plistTmpl   = template.Must(template.New("plist").Parse(macLaunchAgentPlist))
	desktopTmpl = template.Must(template.New("desktop").Parse(xdgDesktopEntry))
)

// Enable registers the current executable with args to start at login.
func Enable(args []string) error {
	execPath, err := os.Executable()
	if err != nil {
		return eris.Wrap(err, "failed to get executable path")
	}
	command := append([]string{execPath}, args...)

	switch runtime.GOOS {
	case "darwin", "linux":
		path, err := EntryPath()
		if err != nil {
			return err
		}
		content, err := render(command)
		if err != nil {
			return err
		}
		return writeEntry(path, content)
	case "windows":
		return enableWindows(command)
	default:
		return eris.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}

// Disable removes the login registration. Removing a missing entry is not an error.
func Disable() error {
	switch runtime.GOOS {
	case "darwin", "linux":
		path, err := EntryPath()
		if err != nil {
			return err
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return eris.Wrapf(err, "remove %s", path)
		}
		return nil
	case "windows":
		return disableWindows()
	default:
		return eris.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}

// IsEnabled checks if auto-start is enabled
func IsEnabled() bool {
	switch runtime.GOOS {
	case "darwin", "linux":
		path, err := EntryPath()
		if err != nil {
			return false
		}
		_, err = os.Stat(path)
		return err == nil
	case "windows":
		return isEnabledWindows()
	default:
		return false
	}
}

// EntryPath returns the LaunchAgent plist on macOS or the XDG autostart
// desktop file on Linux.
func EntryPath() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", eris.Wrap(err, "locate home dir")
		}
		return filepath.Join(home, "Library", "LaunchAgents", Label+".plist"), nil
	case "linux":
		dir, err := os.UserConfigDir()
		if err != nil {
			return "", eris.Wrap(err, "locate config dir")
		}
		return filepath.Join(dir, "autostart", name+".desktop"), nil
	default:
		return "", eris.Errorf("no autostart file on %s", runtime.GOOS)
	}
}

func render(command []string) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	if runtime.GOOS == "darwin" {
		err = plistTmpl.Execute(&buf, struct {
			Label   string
			Command []string
		}{Label, command})
	} else {
		err = desktopTmpl.Execute(&buf, struct{ Exec string }{desktopExec(command)})
	}
	if err != nil {
		return nil, eris.Wrap(err, "render autostart entry")
	}
	return buf.Bytes(), nil
}

// desktopExec quotes arguments for the Exec key of a .desktop file.
func desktopExec(command []string) string {
	quoted := make([]string, len(command))
	for i, arg := range command {
		if arg != "" && !strings.ContainsAny(arg, " \t\"'\\$`") {
			quoted[i] = arg
			continue
		}
		r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "`", "\\`", `$`, `\$`)
		quoted[i] = `"` + r.Replace(arg) + `"`
	}
	return strings.Join(quoted, " ")
}

func writeEntry(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "create %s", filepath.Dir(path))
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return eris.Wrapf(err, "write %s", path)
	}
	return nil
}
