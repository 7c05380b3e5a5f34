// Package protocol defines the control frames exchanged on the /ws socket and
// decodes them into typed commands.
package protocol

// ControlType is the frame discriminator.
type ControlType string

const (
	// TypeMove sets the continuous pointer velocity from movex/movey
	TypeMove ControlType = "move"

	// TypeClick clicks the left mouse button once
	TypeClick ControlType = "click"

	// TypeFullscreen sends the configured fullscreen chord
	TypeFullscreen ControlType = "fullscreen"

	// TypeKeyboard types the key label in the key field
	TypeKeyboard ControlType = "keyboard"
)

// Frame is the JSON shape sent by the control page. Pointer fields let the
// decoder tell an absent field from a zero value.
type Frame struct {
	ControlType *string  `json:"control_type"`
	Password    *string  `json:"password"`
	MoveX       *float64 `json:"movex"`
	MoveY       *float64 `json:"movey"`
	Key         *string  `json:"key"`
}

// Command is one unit of remote-control intent. The set of implementations is
// closed: Move, Click, Fullscreen, KeyPress and Unknown.
type Command interface {
	command()
}

// Move sets the pointer velocity in UI units; the actuator scales it.
type Move struct {
	DX float64
	DY float64
}

// Click clicks the primary mouse button.
type Click struct{}

// Fullscreen sends the fullscreen chord.
type Fullscreen struct{}

// KeyPress types one key label.
type KeyPress struct {
	Label string
}

// Unknown carries a control type this server does not act on.
type Unknown struct {
	Type string
}

func (Move) command()       {}
func (Click) command()      {}
func (Fullscreen) command() {}
func (KeyPress) command()   {}
func (Unknown) command()    {}

// Message is a decoded frame: the command and the credential presented with it.
type Message struct {
	Command    Command
	Credential string
}
