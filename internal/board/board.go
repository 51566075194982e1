// Package board keeps a text status board of host statistics up to date on
// a display, redrawing only the rows whose text changed.
package board

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/scottnuma/touch-lcd/internal/lcd"
	"github.com/scottnuma/touch-lcd/internal/sysinfo"
)

// Surface is the part of the display the board draws on.
type Surface interface {
	PrintText(text string, opts ...lcd.PrintOption) error
	ClearScreen() error
}

// Source produces the statistics to show.
type Source interface {
	Sample(ctx context.Context) (sysinfo.Snapshot, error)
}

// Config holds board configuration.
type Config struct {
	Interval   time.Duration
	FontSize   int
	LineHeight int // zero means FontSize
	Margin     int
	Logger     *zerolog.Logger
	Clock      clockwork.Clock
}

// Board renders Snapshots as rows of text.
type Board struct {
	surface Surface
	source  Source
	cfg     Config
	log     zerolog.Logger
	clock   clockwork.Clock

	// Last text drawn per row, for change detection.
	cache map[int]string
}

func New(surface Surface, source Source, cfg Config) *Board {
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	if cfg.FontSize <= 0 {
		cfg.FontSize = lcd.DefaultFontSize
	}
	if cfg.LineHeight <= 0 {
		cfg.LineHeight = cfg.FontSize
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	logger := log.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	return &Board{
		surface: surface,
		source:  source,
		cfg:     cfg,
		log:     logger.With().Str("component", "board").Logger(),
		clock:   cfg.Clock,
		cache:   make(map[int]string),
	}
}

// Rows formats a snapshot into display lines.
func Rows(s sysinfo.Snapshot) []string {
	title := "status"
	if s.Hostname != "" {
		title = s.Hostname
	}

	rows := []string{
		title,
		fmt.Sprintf("CPU  %5.1f%% x%d", s.CPU.Overall, s.CPU.CoreCount),
		fmt.Sprintf("Load %.2f", s.CPU.Load1),
	}
	if s.CPU.Temp > 0 {
		rows = append(rows, fmt.Sprintf("Temp %.0fC", s.CPU.Temp))
	}
	rows = append(rows, fmt.Sprintf("Mem  %s / %s",
		sysinfo.FormatBytes(s.Mem.Used), sysinfo.FormatBytes(s.Mem.Total)))
	if s.Mem.SwapTotal > 0 {
		rows = append(rows, fmt.Sprintf("Swap %s / %s",
			sysinfo.FormatBytes(s.Mem.SwapUsed), sysinfo.FormatBytes(s.Mem.SwapTotal)))
	} else {
		rows = append(rows, "Swap none")
	}
	for _, p := range s.Top {
		rows = append(rows, fmt.Sprintf("%-14s %6s", truncate(p.Name, 14), sysinfo.FormatBytes(p.RSS)))
	}
	return rows
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// changed checks if a row's text changed and updates the cache.
func (b *Board) changed(row int, text string) bool {
	if prev, ok := b.cache[row]; ok && prev == text {
		return false
	}
	b.cache[row] = text
	return true
}

// Refresh samples the source once and redraws changed rows. It returns the
// number of rows drawn.
func (b *Board) Refresh(ctx context.Context) (int, error) {
	snap, err := b.source.Sample(ctx)
	if err != nil {
		return 0, fmt.Errorf("sample: %w", err)
	}

	rows := Rows(snap)
	drawn := 0
	for i, text := range rows {
		prev := b.cache[i]
		if !b.changed(i, text) {
			continue
		}
		// Pad over the tail of a longer previous line.
		if pad := utf8.RuneCountInString(prev) - utf8.RuneCountInString(text); pad > 0 {
			text += strings.Repeat(" ", pad)
		}
		err := b.surface.PrintText(text,
			lcd.At(b.cfg.Margin, b.cfg.Margin+i*b.cfg.LineHeight),
			lcd.WithSize(b.cfg.FontSize))
		if err != nil {
			delete(b.cache, i)
			return drawn, fmt.Errorf("row %d: %w", i, err)
		}
		drawn++
	}

	// Blank rows left over from a longer previous snapshot.
	for i := len(rows); ; i++ {
		prev, ok := b.cache[i]
		if !ok {
			break
		}
		delete(b.cache, i)
		if prev == "" {
			continue
		}
		err := b.surface.PrintText(strings.Repeat(" ", utf8.RuneCountInString(prev)),
			lcd.At(b.cfg.Margin, b.cfg.Margin+i*b.cfg.LineHeight),
			lcd.WithSize(b.cfg.FontSize))
		if err != nil {
			return drawn, fmt.Errorf("row %d: %w", i, err)
		}
		drawn++
	}

	if drawn > 0 {
		b.log.Debug().Int("rows", drawn).Msg("updated rows")
	}
	return drawn, nil
}

// Run clears the screen, draws the board and refreshes it every interval
// until ctx is done. Failed refreshes are logged and retried on the next
// tick unless the display is closed or broken.
func (b *Board) Run(ctx context.Context) error {
	if err := b.surface.ClearScreen(); err != nil {
		return fmt.Errorf("initial clear: %w", err)
	}
	clear(b.cache)

	b.log.Info().Dur("interval", b.cfg.Interval).Msg("started")

	ticker := b.clock.NewTicker(b.cfg.Interval)
	defer ticker.Stop()

	for {
		if _, err := b.Refresh(ctx); err != nil {
			if fatal(err) {
				return err
			}
			b.log.Error().Err(err).Msg("update failed")
		}

		select {
		case <-ctx.Done():
			b.log.Info().Msg("stopped")
			return nil
		case <-ticker.Chan():
		}
	}
}

// fatal reports errors after which the display accepts no more commands.
func fatal(err error) bool {
	var terr *lcd.TransportError
	return errors.As(err, &terr) || errors.Is(err, lcd.ErrBroken) || errors.Is(err, lcd.ErrClosed)
}
