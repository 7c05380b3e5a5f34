//go:build windows

package osutils

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"golang.org/x/sys/windows"
)

const swHide int32 = 0

// IsAdmin checks if the current process has administrative privileges
func IsAdmin() bool {
	var token windows.Token
	h, _ := windows.GetCurrentProcess()
	if err := windows.OpenProcessToken(h, windows.TOKEN_QUERY, &token); err != nil {
		return false
	}
	defer token.Close()

	var sid *windows.SID
	err := windows.AllocateAndInitializeSid(
		&windows.SECURITY_NT_AUTHORITY,
		2,
		windows.SECURITY_BUILTIN_DOMAIN_RID,
		windows.DOMAIN_ALIAS_RID_ADMINS,
		0, 0, 0, 0, 0, 0,
		&sid,
	)
	if err != nil {
		return false
	}
	defer windows.FreeSid(sid)

	member, err := token.IsMember(sid)
	if err != nil {
		return false
	}
	return member
}

// EnsureFirewallRule makes sure an inbound TCP allow rule exists for port,
// elevating through UAC when the process is not an administrator.
func EnsureFirewallRule(port int, log zerolog.Logger) error {
	log = log.With().Str("component", "firewall").Str("rule", RuleName).Int("port", port).Logger()

	out, err := exec.Command("netsh", "advfirewall", "firewall", "show", "rule", "name="+RuleName).CombinedOutput()
	if ruleMatches(string(out), err, port) {
		log.Debug().Msg("firewall rule already present")
		return nil
	}
	log.Info().Msg("creating firewall rule")

	ps := createRuleScript(port)
	if !IsAdmin() {
		verb, _ := syscall.UTF16PtrFromString("runas")
		exe, _ := syscall.UTF16PtrFromString("powershell.exe")
		args, _ := syscall.UTF16PtrFromString(fmt.Sprintf("-NoProfile -WindowStyle Hidden -Command \"%s\"", ps))

		if err := windows.ShellExecute(0, verb, exe, args, nil, swHide); err != nil {
			return eris.Wrap(err, "launch elevated powershell")
		}
		log.Info().Msg("UAC prompt requested for firewall rule")
		return nil
	}

	if out, err := exec.Command("powershell", "-NoProfile", "-Command", ps).CombinedOutput(); err != nil {
		return eris.Wrapf(err, "create firewall rule: %s", strings.TrimSpace(string(out)))
	}
	log.Info().Msg("firewall rule created")
	return nil
}

func ruleMatches(output string, err error, port int) bool {
	return err == nil &&
		strings.Contains(output, RuleName) &&
		strings.Contains(output, strconv.Itoa(port)) &&
		strings.Contains(output, "Allow")
}
