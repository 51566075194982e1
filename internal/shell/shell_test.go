package shell

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scottnuma/touch-lcd/internal/lcd"
)

type fakeExecutor struct {
	sent    []string
	replies map[string]string
	errs    map[string]error
}

func (f *fakeExecutor) Execute(cmd string) (string, error) {
	f.sent = append(f.sent, cmd)
	if err, ok := f.errs[cmd]; ok {
		return "", err
	}
	if r, ok := f.replies[cmd]; ok {
		return r, nil
	}
	return "0", nil
}

func newTestShell() (*Shell, *fakeExecutor, *bytes.Buffer) {
	exec := &fakeExecutor{replies: map[string]string{}, errs: map[string]error{}}
	var out bytes.Buffer
	return New(exec, &out, zerolog.Nop()), exec, &out
}

func TestHandle_PassThrough(t *testing.T) {
	t.Parallel()

	sh, exec, out := newTestShell()
	exec.replies["xy"] = "43 98"

	quit, err := sh.Handle("  xy  ")
	require.NoError(t, err)
	assert.False(t, quit)
	assert.Equal(t, []string{"xy"}, exec.sent)
	assert.Equal(t, "43 98\n", out.String())
}

func TestHandle_BlankAndExit(t *testing.T) {
	t.Parallel()

	sh, exec, _ := newTestShell()

	for _, in := range []string{"", "   ", "exit", "quit", "EXIT"} {
		quit, err := sh.Handle(in)
		require.NoError(t, err)
		assert.True(t, quit, "%q", in)
	}
	assert.Empty(t, exec.sent)
}

func TestHandle_Help(t *testing.T) {
	t.Parallel()

	sh, exec, out := newTestShell()

	quit, err := sh.Handle("help")
	require.NoError(t, err)
	assert.False(t, quit)
	assert.Empty(t, exec.sent)
	assert.Contains(t, out.String(), "linetype 0|1|2")
	assert.Contains(t, out.String(), "exit")
}

func TestHandle_CommandErrorKeepsGoing(t *testing.T) {
	t.Parallel()

	sh, exec, out := newTestShell()
	exec.errs["touchs"] = &lcd.TimeoutError{Command: "touchs", Attempts: 40}

	quit, err := sh.Handle("touchs")
	require.NoError(t, err)
	assert.False(t, quit)
	assert.Contains(t, out.String(), "error:")
	assert.Contains(t, out.String(), "touchs")
}

func TestHandle_FatalErrors(t *testing.T) {
	t.Parallel()

	for _, fatal := range []error{
		lcd.ErrClosed,
		errors.Join(lcd.ErrBroken, errors.New("write: i/o error")),
	} {
		sh, exec, _ := newTestShell()
		exec.errs["cls"] = fatal

		quit, err := sh.Handle("cls")
		assert.True(t, quit)
		assert.ErrorIs(t, err, fatal)
	}
}

func TestComplete(t *testing.T) {
	t.Parallel()

	sh, _, _ := newTestShell()

	assert.Equal(t, []string{"line", "linetype", "linewidth"}, sh.Complete("li"))
	assert.Equal(t, []string{"touchs", "touchx", "touchy"}, sh.Complete("TOU"))
	assert.Empty(t, sh.Complete("zz"))
}
