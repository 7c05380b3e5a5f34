// Package network provides local address helpers for the startup banner.
package network

import (
	"net"
	"sort"
	"strconv"

	"github.com/rotisserie/eris"
)

// GetLocalIPs returns all available non-loopback IPv4 addresses, sorted
func GetLocalIPs() ([]string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, eris.Wrap(err, "list interfaces")
	}
	var ips []string
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 {
			continue // interface down
		}
		if iface.Flags&net.FlagLoopback != 0 {
			continue // loopback interface
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		ips = append(ips, ipv4s(addrs)...)
	}
	sort.Strings(ips)
	return ips, nil
}

func ipv4s(addrs []net.Addr) []string {
	var out []string
	for _, addr := range addrs {
		var ip net.IP
		switch v := addr.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		}
		if ip == nil || ip.IsLoopback() {
			continue
		}
		if ip = ip.To4(); ip == nil {
			continue // not an ipv4 address
		}
		out = append(out, ip.String())
	}
	return out
}

// ControlURLs lists the URLs a phone on the LAN can open for a server bound to
// listen. A wildcard host expands to every local IPv4 address.
func ControlURLs(listen string, localIPs []string) ([]string, error) {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return nil, eris.Wrapf(err, "parse listen address %q", listen)
	}
	if _, err := strconv.Atoi(port); err != nil {
		return nil, eris.Errorf("listen address %q: invalid port", listen)
	}

	hosts := []string{host}
	if host == "" || host == "0.0.0.0" || host == "::" {
		hosts = localIPs
		if len(hosts) == 0 {
			hosts = []string{"127.0.0.1"}
		}
	}

	urls := make([]string, 0, len(hosts))
	for _, h := range hosts {
		urls = append(urls, "http://"+net.JoinHostPort(h, port)+"/")
	}
	return urls, nil
}

// Port extracts the numeric port of a listen address.
func Port(listen string) (int, error) {
	_, port, err := net.SplitHostPort(listen)
	if err != nil {
		return 0, eris.Wrapf(err, "parse listen address %q", listen)
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return 0, eris.Errorf("listen address %q: invalid port", listen)
	}
	return n, nil
}
