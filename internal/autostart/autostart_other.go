//go:build !windows

package autostart

import "github.com/rotisserie/eris"

func enableWindows([]string) error {
	return eris.New("registry autostart is only available on Windows")
}

func disableWindows() error {
	return eris.New("registry autostart is only available on Windows")
}

func isEnabledWindows() bool {
	return false
}
