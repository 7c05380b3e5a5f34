//go:build !windows

package osutils

import "github.com/rs/zerolog"

// IsAdmin is a stub for non-Windows platforms
func IsAdmin() bool {
	return false
}

// EnsureFirewallRule is a no-op outside Windows.
func EnsureFirewallRule(port int, log zerolog.Logger) error {
	log.Debug().Int("port", port).Msg("firewall rule management is only supported on Windows")
	return nil
}
