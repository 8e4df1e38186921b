package core

type Button uint16

const (
	BUTTON_LEFT Button = iota
	BUTTON_RIGHT
	BUTTON_MIDDLE
	BUTTON_MAX_BUTTONS
)

// Key code definitions, layout independent.
type KeyCode uint16

const (
	KEY_UNKNOWN   KeyCode = 0x00
	KEY_BACKSPACE KeyCode = 0x08
	KEY_TAB       KeyCode = 0x09
	KEY_ENTER     KeyCode = 0x0D
	KEY_ESCAPE    KeyCode = 0x1B
	KEY_SPACE     KeyCode = 0x20
	KEY_LEFT      KeyCode = 0x25
	KEY_UP        KeyCode = 0x26
	KEY_RIGHT     KeyCode = 0x27
	KEY_DOWN      KeyCode = 0x28
	KEY_0         KeyCode = 0x30
	KEY_1         KeyCode = 0x31
	KEY_2         KeyCode = 0x32
	KEY_3         KeyCode = 0x33
	KEY_4         KeyCode = 0x34
	KEY_5         KeyCode = 0x35
	KEY_6         KeyCode = 0x36
	KEY_7         KeyCode = 0x37
	KEY_8         KeyCode = 0x38
	KEY_9         KeyCode = 0x39
	KEY_A         KeyCode = 0x41
	KEY_B         KeyCode = 0x42
	KEY_C         KeyCode = 0x43
	KEY_D         KeyCode = 0x44
	KEY_E         KeyCode = 0x45
	KEY_F         KeyCode = 0x46
	KEY_G         KeyCode = 0x47
	KEY_H         KeyCode = 0x48
	KEY_I         KeyCode = 0x49
	KEY_J         KeyCode = 0x4A
	KEY_K         KeyCode = 0x4B
	KEY_L         KeyCode = 0x4C
	KEY_M         KeyCode = 0x4D
	KEY_N         KeyCode = 0x4E
	KEY_O         KeyCode = 0x4F
	KEY_P         KeyCode = 0x50
	KEY_Q         KeyCode = 0x51
	KEY_R         KeyCode = 0x52
	KEY_S         KeyCode = 0x53
	KEY_T         KeyCode = 0x54
	KEY_U         KeyCode = 0x55
	KEY_V         KeyCode = 0x56
	KEY_W         KeyCode = 0x57
	KEY_X         KeyCode = 0x58
	KEY_Y         KeyCode = 0x59
	KEY_Z         KeyCode = 0x5A
	KEY_F1        KeyCode = 0x70
	KEY_F2        KeyCode = 0x71
	KEY_F3        KeyCode = 0x72
	KEY_F4        KeyCode = 0x73
	KEY_F5        KeyCode = 0x74
	KEY_F6        KeyCode = 0x75
	KEY_F7        KeyCode = 0x76
	KEY_F8        KeyCode = 0x77
	KEY_F9        KeyCode = 0x78
	KEY_F10       KeyCode = 0x79
	KEY_F11       KeyCode = 0x7A
	KEY_F12       KeyCode = 0x7B
	KEY_LSHIFT    KeyCode = 0xA0
	KEY_RSHIFT    KeyCode = 0xA1
	KEY_LCONTROL  KeyCode = 0xA2
	KEY_RCONTROL  KeyCode = 0xA3
	KEY_LALT      KeyCode = 0xA4
	KEY_RALT      KeyCode = 0xA5
	KEYS_MAX_KEYS KeyCode = 0x100
)

// KeyState is the per-frame state of a key or mouse button.
type KeyState uint8

const (
	// Up is the resting state, and the zero value.
	Up KeyState = iota
	// Pressed lasts one frame after the key goes down.
	Pressed
	Down
	// Released lasts one frame after the key goes up.
	Released
)

func (s KeyState) String() string {
	switch s {
	case Pressed:
		return "pressed"
	case Down:
		return "down"
	case Released:
		return "released"
	default:
		return "up"
	}
}

// Input tracks keyboard and mouse state and publishes changes on an EventBus.
type Input struct {
	bus *EventBus

	keys    [KEYS_MAX_KEYS]KeyState
	buttons [BUTTON_MAX_BUTTONS]KeyState

	mouseX, mouseY       float64
	previousX, previousY float64
	scroll               float64
	hasMouse             bool
}

func NewInput(bus *EventBus) *Input {
	return &Input{bus: bus}
}

// Update moves one-frame states to their steady counterparts. It runs once per
// frame, after the frame has consumed the input.
func (in *Input) Update() {
	for i := range in.keys {
		in.keys[i] = settle(in.keys[i])
	}
	for i := range in.buttons {
		in.buttons[i] = settle(in.buttons[i])
	}
	in.previousX, in.previousY = in.mouseX, in.mouseY
	in.scroll = 0
}

func settle(s KeyState) KeyState {
	switch s {
	case Pressed:
		return Down
	case Released:
		return Up
	}
	return s
}

func transition(s KeyState, pressed bool) (KeyState, bool) {
	down := s == Pressed || s == Down
	if down == pressed {
		return s, false
	}
	if pressed {
		return Pressed, true
	}
	return Released, true
}

// keyboard input

func (in *Input) ProcessKey(key KeyCode, pressed bool) {
	if key >= KEYS_MAX_KEYS {
		return
	}
	next, changed := transition(in.keys[key], pressed)
	if !changed {
		return
	}
	in.keys[key] = next

	code := EVENT_CODE_KEY_RELEASED
	if pressed {
		code = EVENT_CODE_KEY_PRESSED
	}
	in.bus.Fire(EventContext{
		Type: code,
		Data: &KeyEvent{KeyCode: key},
	})
}

func (in *Input) KeyState(key KeyCode) KeyState {
	if key >= KEYS_MAX_KEYS {
		return Up
	}
	return in.keys[key]
}

// IsKeyDown reports whether the key is held, including the frame it went down.
func (in *Input) IsKeyDown(key KeyCode) bool {
	s := in.KeyState(key)
	return s == Pressed || s == Down
}

func (in *Input) IsKeyUp(key KeyCode) bool {
	return !in.IsKeyDown(key)
}

func (in *Input) IsKeyPressed(key KeyCode) bool {
	return in.KeyState(key) == Pressed
}

func (in *Input) IsKeyReleased(key KeyCode) bool {
	return in.KeyState(key) == Released
}

// mouse input

func (in *Input) ProcessButton(button Button, pressed bool) {
	if button >= BUTTON_MAX_BUTTONS {
		return
	}
	next, changed := transition(in.buttons[button], pressed)
	if !changed {
		return
	}
	in.buttons[button] = next

	code := EVENT_CODE_BUTTON_RELEASED
	if pressed {
		code = EVENT_CODE_BUTTON_PRESSED
	}
	in.bus.Fire(EventContext{
		Type: code,
		Data: &MouseEvent{Button: button, PosX: in.mouseX, PosY: in.mouseY},
	})
}

func (in *Input) ButtonState(button Button) KeyState {
	if button >= BUTTON_MAX_BUTTONS {
		return Up
	}
	return in.buttons[button]
}

func (in *Input) IsButtonDown(button Button) bool {
	s := in.ButtonState(button)
	return s == Pressed || s == Down
}

func (in *Input) IsButtonPressed(button Button) bool {
	return in.ButtonState(button) == Pressed
}

func (in *Input) IsButtonReleased(button Button) bool {
	return in.ButtonState(button) == Released
}

func (in *Input) ProcessMouseMove(x, y float64) {
	if in.hasMouse && in.mouseX == x && in.mouseY == y {
		return
	}
	if !in.hasMouse {
		// the first sample must not produce a jump in MouseDelta
		in.previousX, in.previousY = x, y
		in.hasMouse = true
	}
	in.mouseX, in.mouseY = x, y

	in.bus.Fire(EventContext{
		Type: EVENT_CODE_MOUSE_MOVED,
		Data: &MouseEvent{PosX: x, PosY: y},
	})
}

func (in *Input) ProcessMouseWheel(delta float64) {
	in.scroll += delta
	in.bus.Fire(EventContext{
		Type: EVENT_CODE_MOUSE_WHEEL,
		Data: &MouseEvent{Scroll: delta},
	})
}

// MousePosition returns the cursor position in window pixels.
func (in *Input) MousePosition() (float64, float64) {
	return in.mouseX, in.mouseY
}

// MouseDelta returns the cursor movement since the last Update.
func (in *Input) MouseDelta() (float64, float64) {
	return in.mouseX - in.previousX, in.mouseY - in.previousY
}

func (in *Input) Scroll() float64 {
	return in.scroll
}

// NormalizedMousePosition maps the cursor to [-1,1] with y pointing up.
func (in *Input) NormalizedMousePosition(width, height int) (float32, float32) {
	return PixelToScreenUV(in.mouseX, in.mouseY, width, height)
}

// PixelToScreenUV maps window pixels to normalized device coordinates.
func PixelToScreenUV(x, y float64, width, height int) (float32, float32) {
	if width <= 0 || height <= 0 {
		return 0, 0
	}
	u := (x/float64(width))*2 - 1
	v := -(y/float64(height))*2 + 1
	return float32(u), float32(v)
}
