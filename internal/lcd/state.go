package lcd

import (
	"fmt"
	"image"
	"strconv"
	"strings"
)

// state mirrors settings held by the display so unchanged settings are not
// re-sent. A field marked unknown forces the next command through.
type state struct {
	x, y        int
	cursorKnown bool

	font      string
	size      int
	fontKnown bool

	orientation      int
	orientationKnown bool
}

// initialState is the display's power-on state.
func initialState() state {
	return state{
		cursorKnown:      true,
		font:             DefaultFont,
		size:             DefaultFontSize,
		fontKnown:        true,
		orientationKnown: true,
	}
}

func (s *state) snapshot() State {
	return State{
		Cursor:           image.Pt(s.x, s.y),
		CursorKnown:      s.cursorKnown,
		Font:             s.font,
		FontSize:         s.size,
		FontKnown:        s.fontKnown,
		Orientation:      s.orientation,
		OrientationKnown: s.orientationKnown,
	}
}

func (s *state) cursorAt(x, y int) bool {
	return s.cursorKnown && s.x == x && s.y == y
}

func (s *state) setCursor(x, y int) {
	s.x, s.y = x, y
	s.cursorKnown = true
}

func (s *state) fontIs(font string, size int) bool {
	return s.fontKnown && s.font == font && s.size == size
}

func (s *state) setFont(font string, size int) {
	s.font, s.size = font, size
	s.fontKnown = true
}

func (s *state) orientationIs(o int) bool {
	return s.orientationKnown && s.orientation == o
}

func (s *state) setOrientation(o int) {
	s.orientation = o
	s.orientationKnown = true
}

// observe updates the cache after a raw command the caller sent through
// Execute. Commands it cannot fully interpret leave the affected setting
// unknown; the last value is kept as a best guess.
func (s *state) observe(cmd string, ok bool) {
	fields := strings.Fields(cmd)
	if len(fields) < 2 {
		return
	}

	switch strings.ToLower(fields[0]) {
	case "xy":
		s.cursorKnown = false
		if !ok || len(fields) != 3 {
			return
		}
		x, errX := strconv.Atoi(fields[1])
		y, errY := strconv.Atoi(fields[2])
		if errX == nil && errY == nil {
			s.setCursor(x, y)
		}
	case "line":
		s.cursorKnown = false
	case "font":
		s.fontKnown = false
		if !ok {
			return
		}
		if font, size, err := splitFontSpec(fields[1]); err == nil {
			s.setFont(font, size)
		}
	case "fonto":
		s.orientationKnown = false
		if !ok {
			return
		}
		if o, err := strconv.Atoi(fields[1]); err == nil {
			if o, err := NormalizeOrientation(o); err == nil {
				s.setOrientation(o)
			}
		}
	}
}

// splitFontSpec splits "sans24" into ("sans", 24).
func splitFontSpec(spec string) (string, int, error) {
	i := len(spec)
	for i > 0 && spec[i-1] >= '0' && spec[i-1] <= '9' {
		i--
	}
	if i == 0 || i == len(spec) {
		return "", 0, fmt.Errorf("font spec %q is not <family><size>", spec)
	}
	size, err := strconv.Atoi(spec[i:])
	if err != nil {
		return "", 0, err
	}
	return spec[:i], size, nil
}

// NormalizeOrientation maps an orientation given either as a quarter-turn
// index (0-3) or in degrees (90, 180, 270) onto 0-3.
func NormalizeOrientation(o int) (int, error) {
	n := o
	if n > 3 {
		if n%90 != 0 {
			return 0, &ParamError{Param: "orientation", Value: o, Reason: "degrees must be a multiple of 90"}
		}
		n /= 90
	}
	if n < 0 || n > 3 {
		return 0, &ParamError{Param: "orientation", Value: o, Reason: "must be 0-3 or 0/90/180/270 degrees"}
	}
	return n, nil
}

// ParseAnchor validates a two-character anchor code such as "LT" or "cb"
// and returns it upper-cased.
func ParseAnchor(code string) (string, error) {
	if len(code) != 2 {
		return "", &ParamError{Param: "anchor", Value: code, Reason: "must be two characters"}
	}
	code = strings.ToUpper(code)
	if !strings.ContainsRune("LCR", rune(code[0])) {
		return "", &ParamError{Param: "anchor", Value: code, Reason: "horizontal anchor must be L, C or R"}
	}
	if !strings.ContainsRune("TCB", rune(code[1])) {
		return "", &ParamError{Param: "anchor", Value: code, Reason: "vertical anchor must be T, C or B"}
	}
	return code, nil
}
