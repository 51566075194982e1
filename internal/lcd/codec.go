package lcd

import (
	"bytes"
	"errors"

	"github.com/scottnuma/touch-lcd/internal/serialport"
)

// errNoResponse is turned into a *TimeoutError by the engine, which knows
// which command was waiting.
var errNoResponse = errors.New("read attempts exhausted")

// codec frames commands with a carriage return and splits the reply stream
// into newline-terminated lines.
type codec struct {
	port     serialport.Port
	attempts int
	buf      []byte
	pending  []byte
}

func newCodec(port serialport.Port, attempts int) *codec {
	return &codec{
		port:     port,
		attempts: attempts,
		buf:      make([]byte, 256),
	}
}

func (c *codec) writeLine(text string) error {
	if _, err := c.port.Write([]byte(text + "\r")); err != nil {
		return err
	}
	return c.port.Drain()
}

// readLine returns the next non-empty line with its terminator stripped.
// Every read costs one attempt until a non-empty line is complete, so
// neither silence nor a stream of blank or unterminated bytes can hold it
// past the budget.
func (c *codec) readLine() (string, error) {
	reads := 0
	for {
		if i := bytes.IndexByte(c.pending, '\n'); i >= 0 {
			line := bytes.TrimRight(c.pending[:i], "\r")
			c.pending = c.pending[i+1:]
			if len(line) == 0 {
				// The firmware sometimes sends a bare newline ahead of the payload.
				continue
			}
			return string(line), nil
		}

		if reads >= c.attempts {
			return "", errNoResponse
		}

		n, err := c.port.Read(c.buf)
		reads++
		if n > 0 {
			c.pending = append(c.pending, c.buf[:n]...)
		}
		if err != nil {
			return "", err
		}
	}
}

// discard drops input left over from an earlier exchange, both what the
// codec buffered and what is still queued in the port, and returns the
// buffered part.
func (c *codec) discard() ([]byte, error) {
	stale := c.pending
	c.pending = nil
	return stale, c.port.ResetInputBuffer()
}
