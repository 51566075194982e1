package lcd

import (
	"context"
	"fmt"
	"image"
	"strconv"
	"strings"
)

// StatusPressed is the touchs value reported while the panel is pressed.
const StatusPressed = 3

// TouchState is the tap detector's view of the panel.
type TouchState int

const (
	Released TouchState = iota
	Pressed
)

func (s TouchState) String() string {
	switch s {
	case Released:
		return "Released"
	case Pressed:
		return "Pressed"
	default:
		return "Unknown"
	}
}

// tapDetector turns a stream of status samples into taps. A tap completes
// on the first release that follows a press.
type tapDetector struct {
	state TouchState
}

// step feeds one sample and reports whether it completed a tap.
func (t *tapDetector) step(pressed bool) bool {
	switch {
	case t.state == Released && pressed:
		t.state = Pressed
	case t.state == Pressed && !pressed:
		t.state = Released
		return true
	}
	return false
}

// PollStatus returns the raw touch status. Only StatusPressed has a fixed
// meaning; other values are firmware specific.
func (d *Display) PollStatus() (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.queryInt("touchs")
}

// IsPressed reports whether the panel is currently pressed.
func (d *Display) IsPressed() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.isPressed()
}

func (d *Display) isPressed() (bool, error) {
	status, err := d.queryInt("touchs")
	if err != nil {
		return false, err
	}
	return status == StatusPressed, nil
}

// Touch returns the coordinate of the most recent touch.
func (d *Display) Touch() (image.Point, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.touch()
}

func (d *Display) touch() (image.Point, error) {
	x, err := d.queryInt("touchx")
	if err != nil {
		return image.Point{}, err
	}
	y, err := d.queryInt("touchy")
	if err != nil {
		return image.Point{}, err
	}
	return image.Pt(x, y), nil
}

func (d *Display) queryInt(cmd string) (int, error) {
	resp, err := d.exec(cmd)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(resp))
	if err != nil {
		return 0, &ResponseError{Command: cmd, Response: resp, Err: err}
	}
	return n, nil
}

// WaitForTap blocks until the panel is pressed and released, then returns
// where it was touched. The display is polled continuously, pausing
// Config.PollInterval between polls; cancel ctx to give up.
//
// The display lock is held for the whole wait.
func (d *Display) WaitForTap(ctx context.Context) (image.Point, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.waitForTap(ctx)
}

func (d *Display) waitForTap(ctx context.Context) (image.Point, error) {
	var det tapDetector
	polls := 0
	for {
		if err := ctx.Err(); err != nil {
			return image.Point{}, fmt.Errorf("wait for tap: %w", err)
		}

		pressed, err := d.isPressed()
		if err != nil {
			return image.Point{}, err
		}
		polls++

		prev := det.state
		if det.step(pressed) {
			p, err := d.touch()
			if err != nil {
				return image.Point{}, err
			}
			d.log.Debug().Int("x", p.X).Int("y", p.Y).Int("polls", polls).Msg("tap")
			return p, nil
		}
		if det.state != prev {
			d.log.Debug().Stringer("state", det.state).Msg("touch")
		}

		if d.cfg.PollInterval > 0 {
			select {
			case <-ctx.Done():
			case <-d.clock.After(d.cfg.PollInterval):
			}
		}
	}
}

// DrawTappedLine waits for two taps and joins them with a solid thin line.
func (d *Display) DrawTappedLine(ctx context.Context) (image.Point, image.Point, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	from, err := d.waitForTap(ctx)
	if err != nil {
		return image.Point{}, image.Point{}, err
	}
	to, err := d.waitForTap(ctx)
	if err != nil {
		return from, image.Point{}, err
	}
	if err := d.drawLine(from.X, from.Y, to.X, to.Y, Solid, Thin); err != nil {
		return from, to, err
	}
	return from, to, nil
}

// AnnotateTap waits for a tap and prints its coordinate where it landed,
// which shows how the panel's readings line up with the screen.
func (d *Display) AnnotateTap(ctx context.Context) (image.Point, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, err := d.waitForTap(ctx)
	if err != nil {
		return image.Point{}, err
	}
	if err := d.printText(fmt.Sprintf("(%d, %d)", p.X, p.Y), At(p.X, p.Y)); err != nil {
		return p, err
	}
	return p, nil
}
