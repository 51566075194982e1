package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/scottnuma/touch-lcd/internal/board"
	"github.com/scottnuma/touch-lcd/internal/lcd"
	"github.com/scottnuma/touch-lcd/internal/shell"
	"github.com/scottnuma/touch-lcd/internal/sysinfo"
)

type command func(ctx context.Context, a *app, d *lcd.Display, args []string) error

var commands = map[string]command{
	"shell":    runShell,
	"send":     runSend,
	"clear":    runClear,
	"print":    runPrint,
	"line":     runLine,
	"where":    runWhere,
	"tap":      runTap,
	"tapline":  runTapLine,
	"annotate": runAnnotate,
	"status":   runStatus,
}

func subFlags(a *app, name string) *flag.FlagSet {
	set := flag.NewFlagSet(name, flag.ContinueOnError)
	set.SetOutput(a.errOut)
	return set
}

func runShell(ctx context.Context, a *app, d *lcd.Display, _ []string) error {
	sh := shell.New(d, a.out, a.logger)
	if dir, err := os.UserCacheDir(); err == nil {
		if err := os.MkdirAll(filepath.Join(dir, "touch-lcd"), 0o750); err == nil {
			sh.HistoryFile = filepath.Join(dir, "touch-lcd", "history")
		}
	}
	return sh.Run(ctx)
}

func runSend(_ context.Context, a *app, d *lcd.Display, args []string) error {
	if len(args) == 0 {
		return errors.New("send: no command given")
	}
	resp, err := d.Execute(strings.Join(args, " "))
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(a.out, resp)
	return nil
}

func runClear(_ context.Context, _ *app, d *lcd.Display, args []string) error {
	switch len(args) {
	case 0:
		return d.ClearScreen()
	case 2:
		return d.ClearScreenWith(args[0], args[1])
	default:
		return errors.New("clear: want no arguments or BG FG")
	}
}

func runPrint(_ context.Context, a *app, d *lcd.Display, args []string) error {
	set := subFlags(a, "print")
	x := set.Int("x", -1, "column; -1 keeps the cursor column")
	y := set.Int("y", -1, "row; -1 keeps the cursor row")
	font := set.String("font", lcd.DefaultFont, "font family")
	size := set.Int("size", lcd.DefaultFontSize, "font size")
	orientation := set.Int("o", 0, "orientation, 0-3 or degrees")
	newline := set.Bool("n", false, "move to the next line afterwards")
	if err := set.Parse(args); err != nil {
		return err
	}
	if set.NArg() == 0 {
		return errors.New("print: no text given")
	}

	opts := []lcd.PrintOption{
		lcd.WithFont(*font),
		lcd.WithSize(*size),
		lcd.WithOrientation(*orientation),
	}
	if *x >= 0 {
		opts = append(opts, lcd.AtX(*x))
	}
	if *y >= 0 {
		opts = append(opts, lcd.AtY(*y))
	}

	if err := d.PrintText(strings.Join(set.Args(), " "), opts...); err != nil {
		return err
	}
	if *newline {
		return d.NewLine()
	}
	return nil
}

func runLine(_ context.Context, a *app, d *lcd.Display, args []string) error {
	set := subFlags(a, "line")
	style := set.String("style", string(lcd.Solid), "solid, dotted or dashed")
	width := set.String("width", string(lcd.Thin), "thin or thick")
	if err := set.Parse(args); err != nil {
		return err
	}
	if set.NArg() != 4 {
		return errors.New("line: want X1 Y1 X2 Y2")
	}

	var c [4]int
	for i, s := range set.Args() {
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("line: coordinate %q: %w", s, err)
		}
		c[i] = n
	}
	return d.DrawLine(c[0], c[1], c[2], c[3], lcd.LineStyle(*style), lcd.LineWidth(*width))
}

func runWhere(_ context.Context, a *app, d *lcd.Display, _ []string) error {
	p, err := d.CursorLocation()
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(a.out, "%d %d\n", p.X, p.Y)
	return nil
}

// tapContext applies the -timeout flag shared by the touch commands.
func tapContext(ctx context.Context, a *app, name string, args []string) (context.Context, context.CancelFunc, error) {
	set := subFlags(a, name)
	timeout := set.Duration("timeout", 0, "give up after this long; zero waits forever")
	if err := set.Parse(args); err != nil {
		return nil, nil, err
	}
	if *timeout > 0 {
		ctx, cancel := context.WithTimeout(ctx, *timeout)
		return ctx, cancel, nil
	}
	ctx, cancel := context.WithCancel(ctx)
	return ctx, cancel, nil
}

func runTap(ctx context.Context, a *app, d *lcd.Display, args []string) error {
	ctx, cancel, err := tapContext(ctx, a, "tap", args)
	if err != nil {
		return err
	}
	defer cancel()

	p, err := d.WaitForTap(ctx)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(a.out, "%d %d\n", p.X, p.Y)
	return nil
}

func runTapLine(ctx context.Context, a *app, d *lcd.Display, args []string) error {
	ctx, cancel, err := tapContext(ctx, a, "tapline", args)
	if err != nil {
		return err
	}
	defer cancel()

	from, to, err := d.DrawTappedLine(ctx)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(a.out, "%d %d -> %d %d\n", from.X, from.Y, to.X, to.Y)
	return nil
}

func runAnnotate(ctx context.Context, a *app, d *lcd.Display, args []string) error {
	ctx, cancel, err := tapContext(ctx, a, "annotate", args)
	if err != nil {
		return err
	}
	defer cancel()

	p, err := d.AnnotateTap(ctx)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(a.out, "%d %d\n", p.X, p.Y)
	return nil
}

func runStatus(ctx context.Context, a *app, d *lcd.Display, args []string) error {
	set := subFlags(a, "status")
	once := set.Bool("once", false, "draw one frame and exit")
	top := set.Int("top", 3, "process groups to list")
	interval := set.Duration("interval", a.cfg.Status.Interval.Duration, "refresh interval")
	if err := set.Parse(args); err != nil {
		return err
	}

	b := board.New(d, sysinfo.Host{TopN: *top}, board.Config{
		Interval:   *interval,
		FontSize:   a.cfg.Status.FontSize,
		LineHeight: a.cfg.Status.LineHeight,
		Logger:     &a.logger,
	})

	if *once {
		if err := d.ClearScreen(); err != nil {
			return err
		}
		_, err := b.Refresh(ctx)
		return err
	}

	err := b.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
