package lcd

import (
	"errors"
	"fmt"
	"strings"
)

// Execute sends one raw command and returns the display's response line.
// The cached cursor and font state follow any xy, font or fonto command
// sent this way.
func (d *Display) Execute(cmd string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := checkCommand(cmd); err != nil {
		return "", err
	}
	resp, err := d.exec(cmd)
	d.state.observe(cmd, err == nil)
	return resp, err
}

// ExecuteBatch sends cmds in order and stops at the first failure. The
// responses received before the failure are returned with the error;
// commands already sent are not undone.
func (d *Display) ExecuteBatch(cmds []string) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, cmd := range cmds {
		if err := checkCommand(cmd); err != nil {
			return nil, err
		}
	}

	responses := make([]string, 0, len(cmds))
	for i, cmd := range cmds {
		resp, err := d.exec(cmd)
		d.state.observe(cmd, err == nil)
		if err != nil {
			return responses, fmt.Errorf("batch command %d of %d: %w", i+1, len(cmds), err)
		}
		responses = append(responses, resp)
	}
	return responses, nil
}

func checkCommand(cmd string) error {
	if strings.TrimSpace(cmd) == "" {
		return &ParamError{Param: "command", Value: cmd, Reason: "is empty"}
	}
	if strings.ContainsAny(cmd, "\r\n") {
		return &ParamError{Param: "command", Value: cmd, Reason: "contains a line terminator"}
	}
	return nil
}

// exec performs one exchange. The caller holds d.mu.
func (d *Display) exec(cmd string) (string, error) {
	if d.port == nil {
		return "", ErrClosed
	}
	if d.broken != nil {
		return "", d.broken
	}

	stale, err := d.codec.discard()
	if len(stale) > 0 {
		d.log.Warn().Str("cmd", cmd).Bytes("stale", stale).Msg("discarding unread input")
	}
	if err != nil {
		return "", d.fail("reset input", cmd, err)
	}

	if err := d.codec.writeLine(cmd); err != nil {
		return "", d.fail("write", cmd, err)
	}

	resp, err := d.codec.readLine()
	if errors.Is(err, errNoResponse) {
		d.log.Warn().Str("cmd", cmd).Int("attempts", d.cfg.ReadAttempts).Msg("no response")
		return "", &TimeoutError{Command: cmd, Attempts: d.cfg.ReadAttempts}
	}
	if err != nil {
		return "", d.fail("read", cmd, err)
	}

	d.log.Debug().Str("cmd", cmd).Str("resp", resp).Msg("exchange")
	return resp, nil
}

// fail marks the connection unusable.
func (d *Display) fail(op, cmd string, err error) error {
	terr := &TransportError{Op: op, Command: cmd, Err: err}
	d.broken = fmt.Errorf("%w: %w", ErrBroken, terr)
	d.log.Error().Err(err).Str("op", op).Str("cmd", cmd).Msg("transport failure")
	return terr
}
