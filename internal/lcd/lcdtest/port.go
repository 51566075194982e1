// Package lcdtest provides a scripted serial port for exercising the display
// driver without hardware.
package lcdtest

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/scottnuma/touch-lcd/internal/serialport"
)

// Ack is what Port answers to commands it has no script for.
const Ack = "0"

// Port records every command written to it and answers each with the next
// scripted reply. Reads never block: with nothing queued they behave like a
// serial read that timed out.
type Port struct {
	mu       sync.Mutex
	partial  bytes.Buffer
	out      bytes.Buffer
	commands []string
	replies  map[string][]string
	muted    map[string]bool
	closed   bool

	// Terminator ends each reply. Defaults to "\n".
	Terminator string
	// Chunk limits how many bytes one Read returns. Zero means no limit.
	Chunk int
	// WriteErr, ReadErr and ResetErr, when set, are returned by Write, Read
	// and ResetInputBuffer.
	WriteErr error
	ReadErr  error
	ResetErr error
}

var _ serialport.Port = (*Port)(nil)

// New returns a Port that acknowledges everything.
func New() *Port {
	return &Port{
		replies:    make(map[string][]string),
		muted:      make(map[string]bool),
		Terminator: "\n",
	}
}

// Script queues replies for cmd, one per occurrence. Once they run out cmd
// is answered with Ack.
func (p *Port) Script(cmd string, replies ...string) *Port {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.replies[cmd] = append(p.replies[cmd], replies...)
	return p
}

// Mute makes cmd go unanswered.
func (p *Port) Mute(cmd string) *Port {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.muted[cmd] = true
	return p
}

// Emit queues raw bytes for the next Read.
func (p *Port) Emit(raw string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.out.WriteString(raw)
}

// Commands returns every complete command written so far.
func (p *Port) Commands() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.commands...)
}

// Count returns how many times cmd was written.
func (p *Port) Count(cmd string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.commands {
		if c == cmd {
			n++
		}
	}
	return n
}

// Reset forgets recorded commands.
func (p *Port) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.commands = nil
}

// Closed reports whether Close was called.
func (p *Port) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Port) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, errors.New("port closed")
	}
	if p.WriteErr != nil {
		return 0, p.WriteErr
	}

	p.partial.Write(b)
	for {
		line, err := p.partial.ReadString('\r')
		if err != nil {
			// Incomplete command; keep it for the next Write.
			p.partial.Reset()
			p.partial.WriteString(line)
			break
		}
		p.answer(strings.TrimSuffix(line, "\r"))
	}
	return len(b), nil
}

func (p *Port) answer(cmd string) {
	p.commands = append(p.commands, cmd)
	if p.muted[cmd] {
		return
	}

	reply := Ack
	if queued := p.replies[cmd]; len(queued) > 0 {
		reply = queued[0]
		p.replies[cmd] = queued[1:]
	}
	p.out.WriteString(reply + p.Terminator)
}

func (p *Port) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, errors.New("port closed")
	}
	if p.ReadErr != nil {
		return 0, p.ReadErr
	}
	if p.Chunk > 0 && len(b) > p.Chunk {
		b = b[:p.Chunk]
	}
	n, _ := p.out.Read(b)
	return n, nil
}

func (p *Port) Drain() error { return nil }

// ResetInputBuffer drops replies not yet read, including emitted bytes.
func (p *Port) ResetInputBuffer() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return errors.New("port closed")
	}
	if p.ResetErr != nil {
		return p.ResetErr
	}
	p.out.Reset()
	return nil
}

func (p *Port) SetReadTimeout(time.Duration) error { return nil }

func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}
