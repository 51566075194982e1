// Package lcdsim emulates an ezLCD display at the serial protocol level.
//
// A Device answers commands the way the firmware does and renders the
// drawing commands onto an in-memory canvas, so the driver and anything
// built on it can run without hardware and the result can be saved as PNG.
package lcdsim

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fogleman/gg"

	"github.com/scottnuma/touch-lcd/internal/serialport"
)

// Screen size of the ezLCD-304.
const (
	DefaultWidth  = 320
	DefaultHeight = 240
)

// Reply codes.
const (
	ack     = "0"
	nak     = "1"
	touched = "3"
)

var namedColors = map[string]color.Color{
	"black":   color.RGBA{0, 0, 0, 255},
	"white":   color.RGBA{255, 255, 255, 255},
	"red":     color.RGBA{255, 0, 0, 255},
	"green":   color.RGBA{0, 255, 0, 255},
	"blue":    color.RGBA{0, 0, 255, 255},
	"yellow":  color.RGBA{255, 255, 0, 255},
	"cyan":    color.RGBA{0, 255, 255, 255},
	"magenta": color.RGBA{255, 0, 255, 255},
	"gray":    color.RGBA{128, 128, 128, 255},
}

// Device is a simulated display. It implements serialport.Port.
type Device struct {
	mu sync.Mutex
	dc *gg.Context

	in  bytes.Buffer
	out bytes.Buffer

	x, y        int
	font        string
	fontSize    int
	orientation int
	lineType    int
	lineWidth   int
	fg          color.Color
	palette     map[int]color.Color

	taps    []image.Point
	pressed bool
	touch   image.Point

	closed bool

	// LeadingNewline makes every reply start with a bare newline, as some
	// firmware revisions do.
	LeadingNewline bool
}

var _ serialport.Port = (*Device)(nil)

// New creates a simulated display of the given size, cleared to white.
func New(width, height int) *Device {
	d := &Device{
		dc:       gg.NewContext(width, height),
		font:     "sans",
		fontSize: 14,
		fg:       namedColors["black"],
		palette:  make(map[int]color.Color),
	}
	d.clear(namedColors["white"])
	return d
}

// Tap queues a touch at (x, y). The next two touchs polls report it as
// pressed and then released.
func (d *Device) Tap(x, y int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.taps = append(d.taps, image.Pt(x, y))
}

// Image returns a copy of the screen contents.
func (d *Device) Image() image.Image {
	d.mu.Lock()
	defer d.mu.Unlock()

	src := d.dc.Image()
	dst := image.NewRGBA(src.Bounds())
	copy(dst.Pix, imageRGBA(src).Pix)
	return dst
}

// EncodePNG writes the screen contents as PNG.
func (d *Device) EncodePNG(w io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dc.EncodePNG(w)
}

func imageRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	rgba := image.NewRGBA(img.Bounds())
	for y := img.Bounds().Min.Y; y < img.Bounds().Max.Y; y++ {
		for x := img.Bounds().Min.X; x < img.Bounds().Max.X; x++ {
			rgba.Set(x, y, img.At(x, y))
		}
	}
	return rgba
}

func (d *Device) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return 0, errors.New("simulated display closed")
	}

	d.in.Write(p)
	for {
		line, err := d.in.ReadString('\r')
		if err != nil {
			d.in.Reset()
			d.in.WriteString(line)
			break
		}
		reply := d.handle(strings.TrimSuffix(line, "\r"))
		if d.LeadingNewline {
			d.out.WriteString("\n")
		}
		d.out.WriteString(reply + "\r\n")
	}
	return len(p), nil
}

// Read returns pending reply bytes, or 0, nil like a serial read that
// timed out.
func (d *Device) Read(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return 0, errors.New("simulated display closed")
	}
	n, _ := d.out.Read(p)
	return n, nil
}

func (d *Device) Drain() error { return nil }

func (d *Device) ResetInputBuffer() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.out.Reset()
	return nil
}

func (d *Device) SetReadTimeout(time.Duration) error { return nil }

func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// handle executes one command and returns the reply line.
func (d *Device) handle(cmd string) string {
	verb, args, _ := strings.Cut(strings.TrimSpace(cmd), " ")
	args = strings.TrimSpace(args)
	fields := strings.Fields(args)

	switch strings.ToLower(verb) {
	case "xy":
		return d.cmdXY(fields)
	case "linetype":
		return setInt(fields, 0, 2, &d.lineType)
	case "linewidth":
		return setInt(fields, 0, 1, &d.lineWidth)
	case "line":
		return d.cmdLine(fields)
	case "font":
		return d.cmdFont(fields)
	case "fonto":
		return setInt(fields, 0, 3, &d.orientation)
	case "print":
		return d.cmdPrint(args)
	case "cls":
		return d.cmdCls(fields)
	case "colorid":
		return d.cmdColorID(fields)
	case "touchs":
		return d.cmdTouchStatus()
	case "touchx":
		return strconv.Itoa(d.touch.X)
	case "touchy":
		return strconv.Itoa(d.touch.Y)
	default:
		return nak
	}
}

func setInt(fields []string, lo, hi int, dst *int) string {
	if len(fields) != 1 {
		return nak
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || n < lo || n > hi {
		return nak
	}
	*dst = n
	return ack
}

func (d *Device) cmdXY(fields []string) string {
	switch len(fields) {
	case 0:
		return fmt.Sprintf("%d %d", d.x, d.y)
	case 1:
		p, ok := d.anchor(fields[0])
		if !ok {
			return nak
		}
		d.x, d.y = p.X, p.Y
		return ack
	case 2:
		x, errX := strconv.Atoi(fields[0])
		y, errY := strconv.Atoi(fields[1])
		if errX != nil || errY != nil {
			return nak
		}
		d.x, d.y = x, y
		return ack
	default:
		return nak
	}
}

func (d *Device) anchor(code string) (image.Point, bool) {
	if len(code) != 2 {
		return image.Point{}, false
	}
	w, h := d.dc.Width(), d.dc.Height()
	code = strings.ToUpper(code)

	var p image.Point
	switch code[0] {
	case 'L':
		p.X = 0
	case 'C':
		p.X = w / 2
	case 'R':
		p.X = w - 1
	default:
		return image.Point{}, false
	}
	switch code[1] {
	case 'T':
		p.Y = 0
	case 'C':
		p.Y = h / 2
	case 'B':
		p.Y = h - 1
	default:
		return image.Point{}, false
	}
	return p, true
}

func (d *Device) cmdLine(fields []string) string {
	if len(fields) != 2 {
		return nak
	}
	x2, errX := strconv.Atoi(fields[0])
	y2, errY := strconv.Atoi(fields[1])
	if errX != nil || errY != nil {
		return nak
	}

	d.dc.SetColor(d.fg)
	d.dc.SetLineWidth(float64(1 + 2*d.lineWidth))
	switch d.lineType {
	case 1:
		d.dc.SetDash(1, 3)
	case 2:
		d.dc.SetDash(6, 4)
	default:
		d.dc.SetDash()
	}
	d.dc.DrawLine(float64(d.x), float64(d.y), float64(x2), float64(y2))
	d.dc.Stroke()

	d.x, d.y = x2, y2
	return ack
}

func (d *Device) cmdFont(fields []string) string {
	if len(fields) != 1 {
		return nak
	}
	spec := fields[0]
	i := len(spec)
	for i > 0 && spec[i-1] >= '0' && spec[i-1] <= '9' {
		i--
	}
	if i == 0 || i == len(spec) {
		return nak
	}
	size, _ := strconv.Atoi(spec[i:])
	d.font, d.fontSize = spec[:i], size
	return ack
}

func (d *Device) cmdPrint(args string) string {
	first := strings.IndexByte(args, '"')
	last := strings.LastIndexByte(args, '"')
	if first < 0 || last <= first {
		return nak
	}
	text := args[first+1 : last]

	// The canvas only has gg's built-in face, so fontSize is not rendered.
	d.dc.Push()
	d.dc.SetColor(d.fg)
	d.dc.RotateAbout(gg.Radians(float64(90*d.orientation)), float64(d.x), float64(d.y))
	d.dc.DrawStringAnchored(text, float64(d.x), float64(d.y), 0, 1)
	d.dc.Pop()
	return ack
}

func (d *Device) cmdCls(fields []string) string {
	bg := namedColors["black"]
	if len(fields) > 0 {
		c, ok := d.color(fields[0])
		if !ok {
			return nak
		}
		bg = c
	}
	if len(fields) > 1 {
		c, ok := d.color(fields[1])
		if !ok {
			return nak
		}
		d.fg = c
	}
	d.clear(bg)
	return ack
}

func (d *Device) clear(bg color.Color) {
	d.dc.SetColor(bg)
	d.dc.Clear()
}

func (d *Device) cmdColorID(fields []string) string {
	if len(fields) != 4 {
		return nak
	}
	var v [4]int
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 0 || n > 255 {
			return nak
		}
		v[i] = n
	}
	d.palette[v[0]] = color.RGBA{uint8(v[1]), uint8(v[2]), uint8(v[3]), 255}
	return ack
}

func (d *Device) color(name string) (color.Color, bool) {
	if c, ok := namedColors[strings.ToLower(name)]; ok {
		return c, true
	}
	if id, err := strconv.Atoi(name); err == nil {
		c, ok := d.palette[id]
		return c, ok
	}
	return nil, false
}

func (d *Device) cmdTouchStatus() string {
	if len(d.taps) == 0 {
		return ack
	}
	if !d.pressed {
		d.pressed = true
		d.touch = d.taps[0]
		return touched
	}
	d.pressed = false
	d.taps = d.taps[1:]
	return ack
}
