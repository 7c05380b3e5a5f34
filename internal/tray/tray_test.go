package tray

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTooltip(t *testing.T) {
	assert.Equal(t, "remotepad: no controller connected", Tooltip(0))
	assert.Equal(t, "remotepad: 1 controller connected", Tooltip(1))
	assert.Equal(t, "remotepad: 3 controllers connected", Tooltip(3))
}

func TestSetSessionCountBeforeReady(t *testing.T) {
	tr := New()
	tr.AddMenuItem("Quit", func() {})
	tr.AddSeparator()
	tr.SetSessionCount(2)
	assert.Equal(t, 2, tr.sessions)
	assert.Len(t, tr.items, 2)
	assert.Nil(t, tr.items[1])
}

func TestIconIsICO(t *testing.T) {
	icon := getIcon()
	assert.Equal(t, []byte{0x00, 0x00, 0x01, 0x00, 0x01, 0x00}, icon[:6])
}
