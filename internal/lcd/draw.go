package lcd

import (
	"fmt"
	"image"
	"image/color"
	"slices"
	"strconv"
	"strings"
)

// LineStyle names a dash pattern. Its wire value is its index in lineStyles.
type LineStyle string

const (
	Solid  LineStyle = "solid"
	Dotted LineStyle = "dotted"
	Dashed LineStyle = "dashed"
)

// LineWidth names a stroke width. Its wire value is its index in lineWidths.
type LineWidth string

const (
	Thin  LineWidth = "thin"
	Thick LineWidth = "thick"
)

var (
	lineStyles = []LineStyle{Solid, Dotted, Dashed}
	lineWidths = []LineWidth{Thin, Thick}
)

// MoveTo moves the cursor to (x, y). Nothing is sent if the cursor is
// already known to be there.
func (d *Display) MoveTo(x, y int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.moveTo(x, y)
}

func (d *Display) moveTo(x, y int) error {
	if d.state.cursorAt(x, y) {
		return nil
	}
	if _, err := d.exec(fmt.Sprintf("xy %d %d", x, y)); err != nil {
		d.state.cursorKnown = false
		return err
	}
	d.state.setCursor(x, y)
	return nil
}

// MoveToAnchor moves the cursor to a named position such as "LT" (left,
// top) or "CC" (center). The display resolves the anchor, so afterwards the
// cached cursor is unknown until the next numeric move or CursorLocation.
func (d *Display) MoveToAnchor(code string) error {
	anchor, err := ParseAnchor(code)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.state.cursorKnown = false
	_, err = d.exec("xy " + anchor)
	return err
}

// CursorLocation asks the display where its cursor is and resynchronizes
// the cache with the answer.
func (d *Display) CursorLocation() (image.Point, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cursorLocation()
}

func (d *Display) cursorLocation() (image.Point, error) {
	resp, err := d.exec("xy")
	if err != nil {
		return image.Point{}, err
	}

	fields := strings.Fields(resp)
	if len(fields) != 2 {
		return image.Point{}, &ResponseError{Command: "xy", Response: resp}
	}
	x, err := strconv.Atoi(fields[0])
	if err != nil {
		return image.Point{}, &ResponseError{Command: "xy", Response: resp, Err: err}
	}
	y, err := strconv.Atoi(fields[1])
	if err != nil {
		return image.Point{}, &ResponseError{Command: "xy", Response: resp, Err: err}
	}

	d.state.setCursor(x, y)
	return image.Pt(x, y), nil
}

// knownCursor returns the cursor, querying the display if the cache has
// lost track of it.
func (d *Display) knownCursor() (image.Point, error) {
	if d.state.cursorKnown {
		return image.Pt(d.state.x, d.state.y), nil
	}
	return d.cursorLocation()
}

// DrawLine draws a line from (x1, y1) to (x2, y2). An empty style or width
// selects Solid or Thin.
func (d *Display) DrawLine(x1, y1, x2, y2 int, style LineStyle, width LineWidth) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.drawLine(x1, y1, x2, y2, style, width)
}

func (d *Display) drawLine(x1, y1, x2, y2 int, style LineStyle, width LineWidth) error {
	if style == "" {
		style = Solid
	}
	if width == "" {
		width = Thin
	}
	styleIdx := slices.Index(lineStyles, style)
	if styleIdx < 0 {
		return &ParamError{Param: "line style", Value: style, Reason: "must be solid, dotted or dashed"}
	}
	widthIdx := slices.Index(lineWidths, width)
	if widthIdx < 0 {
		return &ParamError{Param: "line width", Value: width, Reason: "must be thin or thick"}
	}

	if err := d.moveTo(x1, y1); err != nil {
		return err
	}
	if _, err := d.exec(fmt.Sprintf("linetype %d", styleIdx)); err != nil {
		return err
	}
	if _, err := d.exec(fmt.Sprintf("linewidth %d", widthIdx)); err != nil {
		return err
	}
	// line may leave the cursor at the end point; force the next move out.
	d.state.cursorKnown = false
	_, err := d.exec(fmt.Sprintf("line %d %d", x2, y2))
	return err
}

// PrintOption customizes PrintText.
type PrintOption func(*printOptions)

type printOptions struct {
	x, y        int
	hasX, hasY  bool
	font        string
	size        int
	orientation int
}

// At prints at (x, y) instead of the current cursor.
func At(x, y int) PrintOption {
	return func(o *printOptions) {
		o.x, o.y = x, y
		o.hasX, o.hasY = true, true
	}
}

// AtX prints at column x on the current cursor row.
func AtX(x int) PrintOption {
	return func(o *printOptions) { o.x, o.hasX = x, true }
}

// AtY prints at row y in the current cursor column.
func AtY(y int) PrintOption {
	return func(o *printOptions) { o.y, o.hasY = y, true }
}

// WithFont selects the font family. The default is "sans".
func WithFont(font string) PrintOption {
	return func(o *printOptions) { o.font = font }
}

// WithSize selects the font size in pixels. The default is 14.
func WithSize(size int) PrintOption {
	return func(o *printOptions) { o.size = size }
}

// WithOrientation selects text rotation as 0-3 or in degrees.
func WithOrientation(orientation int) PrintOption {
	return func(o *printOptions) { o.orientation = orientation }
}

// PrintText renders text at the cursor, or at the position given with At,
// AtX or AtY. The font, size and orientation are only sent when they differ
// from what the display already has. Every argument is checked before
// anything is written, so a rejected call leaves the display untouched.
func (d *Display) PrintText(text string, opts ...PrintOption) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.printText(text, opts...)
}

func (d *Display) printText(text string, opts ...PrintOption) error {
	o := printOptions{font: DefaultFont, size: DefaultFontSize}
	for _, opt := range opts {
		opt(&o)
	}

	// print has no escape mechanism; a quote would end the string early.
	if strings.ContainsAny(text, "\"\r\n") {
		return &ParamError{Param: "text", Value: text, Reason: "must not contain quotes or line breaks"}
	}
	if o.font == "" || strings.ContainsAny(o.font, " \t\"0123456789") {
		return &ParamError{Param: "font", Value: o.font, Reason: "must be a single word without digits"}
	}
	if o.size <= 0 {
		return &ParamError{Param: "font size", Value: o.size, Reason: "must be positive"}
	}
	if len(d.cfg.AllowedFontSizes) > 0 && !slices.Contains(d.cfg.AllowedFontSizes, o.size) {
		return &ParamError{Param: "font size", Value: o.size, Reason: fmt.Sprintf("must be one of %v", d.cfg.AllowedFontSizes)}
	}
	orientation, err := NormalizeOrientation(o.orientation)
	if err != nil {
		return err
	}

	if o.hasX || o.hasY {
		x, y := o.x, o.y
		if !o.hasX || !o.hasY {
			cur, err := d.knownCursor()
			if err != nil {
				return err
			}
			if !o.hasX {
				x = cur.X
			}
			if !o.hasY {
				y = cur.Y
			}
		}
		if err := d.moveTo(x, y); err != nil {
			return err
		}
	}

	if !d.state.fontIs(o.font, o.size) {
		if _, err := d.exec(fmt.Sprintf("font %s%d", o.font, o.size)); err != nil {
			d.state.fontKnown = false
			return err
		}
		d.state.setFont(o.font, o.size)
	}

	if !d.state.orientationIs(orientation) {
		if _, err := d.exec(fmt.Sprintf("fonto %d", orientation)); err != nil {
			d.state.orientationKnown = false
			return err
		}
		d.state.setOrientation(orientation)
	}

	_, err = d.exec(`print "` + text + `"`)
	return err
}

// NewLine moves the cursor down by one line of the current font size,
// keeping its column.
func (d *Display) NewLine() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	cur, err := d.knownCursor()
	if err != nil {
		return err
	}
	return d.moveTo(cur.X, cur.Y+d.state.size)
}

// ClearScreen clears the display to the configured background and
// foreground colors. The cursor and font are left as they were.
func (d *Display) ClearScreen() error {
	return d.ClearScreenWith(d.cfg.Background, d.cfg.Foreground)
}

// ClearScreenWith clears the display to the given colors, each a color
// name or palette id.
func (d *Display) ClearScreenWith(background, foreground string) error {
	if err := checkColor("background", background); err != nil {
		return err
	}
	if err := checkColor("foreground", foreground); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	_, err := d.exec(fmt.Sprintf("cls %s %s", background, foreground))
	return err
}

func checkColor(param, c string) error {
	if c == "" || strings.ContainsAny(c, " \t\"") {
		return &ParamError{Param: param, Value: c, Reason: "must be a color name or id"}
	}
	return nil
}

// DefineColor stores c in the display's palette under id.
func (d *Display) DefineColor(id int, c color.Color) error {
	if id < 0 || id > 255 {
		return &ParamError{Param: "color id", Value: id, Reason: "must be 0-255"}
	}
	r, g, b, _ := c.RGBA()

	d.mu.Lock()
	defer d.mu.Unlock()

	_, err := d.exec(fmt.Sprintf("colorid %d %d %d %d", id, r>>8, g>>8, b>>8))
	return err
}
