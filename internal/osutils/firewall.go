// Package osutils holds host integration that needs elevated rights.
package osutils

import "fmt"

// RuleName is the display name of the inbound firewall rule.
const RuleName = "remotepad"

// createRuleScript replaces any previous rule with a port-based allow rule.
func createRuleScript(port int) string {
	return fmt.Sprintf(
		"Remove-NetFirewallRule -DisplayName '%s' -ErrorAction SilentlyContinue; "+
			"New-NetFirewallRule -DisplayName '%s' -Direction Inbound -LocalPort %d -Protocol TCP -Action Allow -Profile Any",
		RuleName, RuleName, port,
	)
}
