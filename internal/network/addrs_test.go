package network

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIPv4s(t *testing.T) {
	addrs := []net.Addr{
		&net.IPNet{IP: net.ParseIP("192.168.1.20"), Mask: net.CIDRMask(24, 32)},
		&net.IPNet{IP: net.ParseIP("127.0.0.1"), Mask: net.CIDRMask(8, 32)},
		&net.IPNet{IP: net.ParseIP("fe80::1"), Mask: net.CIDRMask(64, 128)},
		&net.IPAddr{IP: net.ParseIP("10.0.0.5")},
	}
	assert.Equal(t, []string{"192.168.1.20", "10.0.0.5"}, ipv4s(addrs))
}

func TestGetLocalIPs(t *testing.T) {
	ips, err := GetLocalIPs()
	require.NoError(t, err)
	for _, ip := range ips {
		parsed := net.ParseIP(ip)
		require.NotNil(t, parsed, ip)
		assert.NotNil(t, parsed.To4(), ip)
		assert.False(t, parsed.IsLoopback(), ip)
	}
}

func TestControlURLs(t *testing.T) {
	urls, err := ControlURLs("0.0.0.0:8000", []string{"10.0.0.5", "192.168.1.20"})
	require.NoError(t, err)
	assert.Equal(t, []string{"http://10.0.0.5:8000/", "http://192.168.1.20:8000/"}, urls)

	urls, err = ControlURLs(":9000", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"http://127.0.0.1:9000/"}, urls)

	urls, err = ControlURLs("192.168.1.20:8000", []string{"10.0.0.5"})
	require.NoError(t, err)
	assert.Equal(t, []string{"http://192.168.1.20:8000/"}, urls)

	_, err = ControlURLs("nonsense", nil)
	assert.Error(t, err)
	_, err = ControlURLs("host:http", nil)
	assert.Error(t, err)
}

func TestPort(t *testing.T) {
	p, err := Port("0.0.0.0:8000")
	require.NoError(t, err)
	assert.Equal(t, 8000, p)

	_, err = Port("8000")
	assert.Error(t, err)
}
