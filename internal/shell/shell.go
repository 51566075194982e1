// Package shell is an interactive prompt that sends raw protocol commands to
// a display and prints its replies.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/peterh/liner"
	"github.com/rs/zerolog"

	"github.com/scottnuma/touch-lcd/internal/lcd"
)

// Executor sends one command line and returns the display's reply.
type Executor interface {
	Execute(cmd string) (string, error)
}

// Verbs the display understands, offered for tab completion.
var verbs = map[string]string{
	"xy":        "xy [X Y | ANCHOR]   move or query the cursor",
	"line":      "line X Y            draw to X Y",
	"linetype":  "linetype 0|1|2     solid, dotted, dashed",
	"linewidth": "linewidth 0|1      thin, thick",
	"font":      "font NAMESIZE       e.g. font sans24",
	"fonto":     "fonto 0-3           text orientation",
	"print":     `print "TEXT"        draw text at the cursor`,
	"cls":       "cls [BG [FG]]       clear the screen",
	"colorid":   "colorid ID R G B    define a palette color",
	"touchs":    "touchs              touch status",
	"touchx":    "touchx              last touch x",
	"touchy":    "touchy              last touch y",
	"help":      "help                this list",
	"exit":      "exit                leave the shell (so does a blank line)",
}

// Shell reads commands and passes them through unchanged.
type Shell struct {
	exec Executor
	out  io.Writer
	log  zerolog.Logger

	// HistoryFile persists entered lines between sessions when set.
	HistoryFile string
}

func New(exec Executor, out io.Writer, logger zerolog.Logger) *Shell {
	return &Shell{exec: exec, out: out, log: logger}
}

// Handle runs one input line. It reports quit for a blank line, exit and
// quit. Command failures are printed; only errors that end the session are
// returned.
func (s *Shell) Handle(line string) (quit bool, err error) {
	line = strings.TrimSpace(line)
	switch strings.ToLower(line) {
	case "", "exit", "quit":
		return true, nil
	case "help", "?":
		s.help()
		return false, nil
	}

	resp, err := s.exec.Execute(line)
	if err != nil {
		if errors.Is(err, lcd.ErrBroken) || errors.Is(err, lcd.ErrClosed) {
			return true, err
		}
		fmt.Fprintf(s.out, "error: %v\n", err)
		return false, nil
	}
	fmt.Fprintln(s.out, resp)
	return false, nil
}

func (s *Shell) help() {
	names := make([]string, 0, len(verbs))
	for name := range verbs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(s.out, "  %s\n", verbs[name])
	}
}

// Complete returns the verbs starting with line.
func (s *Shell) Complete(line string) []string {
	var c []string
	prefix := strings.ToLower(line)
	for name := range verbs {
		if strings.HasPrefix(name, prefix) {
			c = append(c, name)
		}
	}
	sort.Strings(c)
	return c
}

// Run prompts until exit, end of input, Ctrl-C or ctx is done.
func (s *Shell) Run(ctx context.Context) error {
	term := liner.NewLiner()
	defer term.Close()

	term.SetCtrlCAborts(true)
	term.SetCompleter(s.Complete)

	if s.HistoryFile != "" {
		if f, err := os.Open(s.HistoryFile); err == nil {
			if _, err := term.ReadHistory(f); err != nil {
				s.log.Warn().Err(err).Msg("read shell history")
			}
			f.Close()
		}
		defer s.saveHistory(term)
	}

	fmt.Fprintln(s.out, `Type "help" for commands, a blank line or Ctrl-D to quit.`)
	for ctx.Err() == nil {
		input, err := term.Prompt("lcd> ")
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			fmt.Fprintln(s.out)
			return nil
		}
		if err != nil {
			return fmt.Errorf("prompt: %w", err)
		}
		if strings.TrimSpace(input) != "" {
			term.AppendHistory(input)
		}

		quit, err := s.Handle(input)
		if err != nil {
			return err
		}
		if quit {
			return nil
		}
	}
	return ctx.Err()
}

func (s *Shell) saveHistory(term *liner.State) {
	f, err := os.Create(s.HistoryFile)
	if err != nil {
		s.log.Warn().Err(err).Msg("save shell history")
		return
	}
	defer f.Close()
	if _, err := term.WriteHistory(f); err != nil {
		s.log.Warn().Err(err).Msg("save shell history")
	}
}
