//go:build windows

package autostart

import (
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"
)

const runKey = `Software\Microsoft\Windows\CurrentVersion\Run`

func enableWindows(command []string) error {
	k, _, err := registry.CreateKey(registry.CURRENT_USER, runKey, registry.SET_VALUE)
	if err != nil {
		return eris.Wrap(err, "open Run key")
	}
	defer k.Close()

	quoted := make([]string, len(command))
	for i, arg := range command {
		quoted[i] = windows.EscapeArg(arg)
	}
	return eris.Wrap(k.SetStringValue(name, strings.Join(quoted, " ")), "set Run value")
}

func disableWindows() error {
	k, err := registry.OpenKey(registry.CURRENT_USER, runKey, registry.SET_VALUE)
	if err != nil {
		return eris.Wrap(err, "open Run key")
	}
	defer k.Close()

	if err := k.DeleteValue(name); err != nil && err != registry.ErrNotExist {
		return eris.Wrap(err, "delete Run value")
	}
	return nil
}

func isEnabledWindows() bool {
	k, err := registry.OpenKey(registry.CURRENT_USER, runKey, registry.QUERY_VALUE)
	if err != nil {
		return false
	}
	defer k.Close()

	_, _, err = k.GetStringValue(name)
	return err == nil
}
