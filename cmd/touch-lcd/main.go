// Command touch-lcd drives an ezLCD touch display from the command line.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/scottnuma/touch-lcd/internal/config"
	"github.com/scottnuma/touch-lcd/internal/lcd"
	"github.com/scottnuma/touch-lcd/internal/lcdsim"
	"github.com/scottnuma/touch-lcd/internal/logging"
	"github.com/scottnuma/touch-lcd/internal/serialport"
)

const usage = `usage: touch-lcd [flags] <command> [args]

commands:
  shell                   interactive raw command prompt
  send CMD...             send one raw command and print the reply
  clear [BG FG]           clear the screen
  print [flags] TEXT      print text
  line [flags] X1 Y1 X2 Y2
                          draw a line
  where                   print the cursor position
  tap                     wait for a tap and print where it landed
  tapline                 join two taps with a line
  annotate                print a tap's coordinate where it landed
  status [-once]          show a host status board
  ports                   list serial ports that look like displays

flags:
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr, afero.NewOsFs()); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// points collects repeated -sim-tap X,Y flags.
type points [][2]int

func (p *points) String() string {
	parts := make([]string, len(*p))
	for i, pt := range *p {
		parts[i] = fmt.Sprintf("%d,%d", pt[0], pt[1])
	}
	return strings.Join(parts, " ")
}

func (p *points) Set(v string) error {
	xs, ys, ok := strings.Cut(v, ",")
	if !ok {
		return fmt.Errorf("want X,Y, got %q", v)
	}
	x, err := strconv.Atoi(strings.TrimSpace(xs))
	if err != nil {
		return fmt.Errorf("x: %w", err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(ys))
	if err != nil {
		return fmt.Errorf("y: %w", err)
	}
	*p = append(*p, [2]int{x, y})
	return nil
}

type flags struct {
	config   string
	port     string
	baud     int
	sim      bool
	simTaps  points
	snapshot string
	verbose  bool
}

type app struct {
	fs     afero.Fs
	out    io.Writer
	errOut io.Writer
	cfg    config.Config
	flags  flags
	logger zerolog.Logger
	sim    *lcdsim.Device
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, fs afero.Fs) error {
	a := &app{fs: fs, out: stdout, errOut: stderr}

	set := flag.NewFlagSet("touch-lcd", flag.ContinueOnError)
	set.SetOutput(stderr)
	set.Usage = func() {
		_, _ = fmt.Fprint(stderr, usage)
		set.PrintDefaults()
	}
	set.StringVar(&a.flags.config, "config", "", "config file (default "+config.DefaultPath()+")")
	set.StringVar(&a.flags.port, "port", "", "serial device, overrides the config file")
	set.IntVar(&a.flags.baud, "baud", 0, "baud rate, overrides the config file")
	set.BoolVar(&a.flags.sim, "sim", false, "use a simulated display instead of a serial device")
	set.Var(&a.flags.simTaps, "sim-tap", "queue a tap X,Y on the simulated display (repeatable)")
	set.StringVar(&a.flags.snapshot, "snapshot", "", "with -sim, save the screen as PNG on exit")
	set.BoolVar(&a.flags.verbose, "v", false, "log every exchange")

	if err := set.Parse(args); err != nil {
		return err
	}
	if set.NArg() == 0 {
		set.Usage()
		return errors.New("no command given")
	}
	if a.flags.snapshot != "" && !a.flags.sim {
		return errors.New("-snapshot requires -sim")
	}

	if err := a.loadConfig(); err != nil {
		return err
	}

	level := a.cfg.Log.Level
	if a.flags.verbose {
		level = zerolog.DebugLevel.String()
	}
	logger, closer, err := logging.Init(logging.Options{
		Level:   level,
		File:    a.cfg.Log.File,
		Console: stderr,
	})
	if err != nil {
		return err
	}
	defer closer.Close()
	a.logger = logger

	name, rest := set.Arg(0), set.Args()[1:]
	if name == "ports" {
		return a.ports()
	}
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("unknown command %q", name)
	}

	d, err := a.open()
	if err != nil {
		return err
	}
	defer d.Close()

	if err := cmd(ctx, a, d, rest); err != nil {
		return err
	}
	return a.saveSnapshot()
}

func (a *app) loadConfig() error {
	var err error
	if a.flags.config != "" {
		a.cfg, err = config.Load(a.fs, a.flags.config)
	} else {
		a.cfg, err = config.LoadOrDefault(a.fs, config.DefaultPath())
	}
	if err != nil {
		return err
	}

	if a.flags.port != "" {
		a.cfg.Port = a.flags.port
	}
	if a.flags.baud != 0 {
		a.cfg.Baud = a.flags.baud
	}
	return a.cfg.Validate()
}

func (a *app) open() (*lcd.Display, error) {
	dcfg := a.cfg.Display()
	dcfg.Logger = &a.logger

	if a.flags.sim {
		a.sim = lcdsim.New(lcdsim.DefaultWidth, lcdsim.DefaultHeight)
		for _, p := range a.flags.simTaps {
			a.sim.Tap(p[0], p[1])
		}
		dcfg.Serial.Path = "sim"
		return lcd.New(a.sim, dcfg)
	}

	d, err := lcd.Open(dcfg)
	var cerr *serialport.ConnectionError
	if errors.As(err, &cerr) {
		a.printCandidates(cerr)
	}
	return d, err
}

func (a *app) printCandidates(cerr *serialport.ConnectionError) {
	if cerr.Path != "" {
		_, _ = fmt.Fprintf(a.errOut, "Could not open %s.\n", cerr.Path)
	}
	if len(cerr.Candidates) == 0 {
		_, _ = fmt.Fprintln(a.errOut, "No candidate serial devices found.")
		return
	}
	_, _ = fmt.Fprintln(a.errOut, "Candidate devices (pass one with -port):")
	for _, c := range cerr.Candidates {
		_, _ = fmt.Fprintf(a.errOut, "  %s\n", c)
	}
}

func (a *app) ports() error {
	candidates := serialport.Candidates()
	if len(candidates) == 0 {
		_, _ = fmt.Fprintln(a.out, "no serial ports found")
		return nil
	}
	for _, c := range candidates {
		_, _ = fmt.Fprintln(a.out, c)
	}
	return nil
}

func (a *app) saveSnapshot() error {
	if a.flags.snapshot == "" || a.sim == nil {
		return nil
	}
	f, err := a.fs.Create(a.flags.snapshot)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	defer f.Close()
	if err := a.sim.EncodePNG(f); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	a.logger.Info().Str("file", a.flags.snapshot).Msg("saved snapshot")
	return nil
}
