package lcd

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scottnuma/touch-lcd/internal/lcd/lcdtest"
)

func TestExecute_ReturnsResponse(t *testing.T) {
	t.Parallel()

	port := lcdtest.New().Script("xy", "12 34")
	d := newTestDisplay(t, port)

	resp, err := d.Execute("xy")
	require.NoError(t, err)
	assert.Equal(t, "12 34", resp)
}

func TestExecute_SkipsBareNewline(t *testing.T) {
	t.Parallel()

	port := lcdtest.New().Script("touchs", "\n3")
	d := newTestDisplay(t, port)

	resp, err := d.Execute("touchs")
	require.NoError(t, err)
	assert.Equal(t, "3", resp)
}

func TestExecute_RejectsBadCommands(t *testing.T) {
	t.Parallel()

	port := lcdtest.New()
	d := newTestDisplay(t, port)

	for _, cmd := range []string{"", "   ", "cls\rxy", "print \"a\nb\""} {
		_, err := d.Execute(cmd)
		assert.ErrorIs(t, err, ErrInvalidParameter, "command %q", cmd)
	}
	assert.Empty(t, port.Commands())
}

func TestExecute_Timeout(t *testing.T) {
	t.Parallel()

	port := lcdtest.New().Mute("touchs")
	d := newTestDisplay(t, port)

	_, err := d.Execute("touchs")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProtocolTimeout)

	var tErr *TimeoutError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, "touchs", tErr.Command)
	assert.Equal(t, 5, tErr.Attempts)

	// A timeout is not fatal; the caller may retry.
	resp, err := d.Execute("touchx")
	require.NoError(t, err)
	assert.Equal(t, lcdtest.Ack, resp)
}

func TestExecute_DiscardsLateResponse(t *testing.T) {
	t.Parallel()

	port := lcdtest.New().Mute("touchs").Script("xy", "12 34")
	d := newTestDisplay(t, port)

	_, err := d.Execute("touchs")
	require.ErrorIs(t, err, ErrProtocolTimeout)

	// The touchs reply shows up after the caller gave up on it.
	port.Emit("3\n")
	resp, err := d.Execute("xy")
	require.NoError(t, err)
	assert.Equal(t, "12 34", resp)
}

func TestExecute_DiscardsBufferedRemainder(t *testing.T) {
	t.Parallel()

	port := lcdtest.New().Script("cls white black", "0\nlate").Script("touchx", "120")
	d := newTestDisplay(t, port)

	resp, err := d.Execute("cls white black")
	require.NoError(t, err)
	assert.Equal(t, "0", resp)

	resp, err = d.Execute("touchx")
	require.NoError(t, err)
	assert.Equal(t, "120", resp)
}

func TestExecute_TransportErrorBreaksConnection(t *testing.T) {
	t.Parallel()

	port := lcdtest.New()
	port.WriteErr = errors.New("input/output error")
	d := newTestDisplay(t, port)

	_, err := d.Execute("xy")
	var tErr *TransportError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, "write", tErr.Op)
	assert.Equal(t, "xy", tErr.Command)

	port.WriteErr = nil
	_, err = d.Execute("xy")
	assert.ErrorIs(t, err, ErrBroken)
	assert.ErrorAs(t, err, &tErr, "later errors still carry the original cause")
}

func TestExecute_ReadErrorBreaksConnection(t *testing.T) {
	t.Parallel()

	port := lcdtest.New()
	port.ReadErr = errors.New("device unplugged")
	d := newTestDisplay(t, port)

	err := d.MoveTo(5, 5)
	var tErr *TransportError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, "read", tErr.Op)

	assert.ErrorIs(t, d.ClearScreen(), ErrBroken)
}

func TestExecuteBatch(t *testing.T) {
	t.Parallel()

	port := lcdtest.New().Script("xy", "1 2")
	d := newTestDisplay(t, port)

	responses, err := d.ExecuteBatch([]string{"cls black white", "xy", "linetype 1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "1 2", "0"}, responses)
	assert.Equal(t, []string{"cls black white", "xy", "linetype 1"}, port.Commands())
}

func TestExecuteBatch_StopsAtFirstFailure(t *testing.T) {
	t.Parallel()

	port := lcdtest.New().Mute("linewidth 1")
	d := newTestDisplay(t, port)

	responses, err := d.ExecuteBatch([]string{"linetype 1", "linewidth 1", "line 10 10"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProtocolTimeout)
	assert.Contains(t, err.Error(), "batch command 2 of 3")
	assert.Equal(t, []string{"0"}, responses)
	assert.Equal(t, []string{"linetype 1", "linewidth 1"}, port.Commands(), "remaining commands abandoned")
}

func TestExecuteBatch_ValidatesBeforeSending(t *testing.T) {
	t.Parallel()

	port := lcdtest.New()
	d := newTestDisplay(t, port)

	_, err := d.ExecuteBatch([]string{"cls white black", ""})
	assert.ErrorIs(t, err, ErrInvalidParameter)
	assert.Empty(t, port.Commands())
}

func TestExecute_TracksRawStateChanges(t *testing.T) {
	t.Parallel()

	port := lcdtest.New()
	d := newTestDisplay(t, port)

	_, err := d.Execute("xy 40 60")
	require.NoError(t, err)
	_, err = d.Execute("font serif36")
	require.NoError(t, err)
	_, err = d.Execute("fonto 2")
	require.NoError(t, err)

	s := d.State()
	assert.True(t, s.CursorKnown)
	assert.Equal(t, 40, s.Cursor.X)
	assert.Equal(t, 60, s.Cursor.Y)
	assert.Equal(t, "serif", s.Font)
	assert.Equal(t, 36, s.FontSize)
	assert.Equal(t, 2, s.Orientation)

	port.Reset()
	require.NoError(t, d.MoveTo(40, 60))
	assert.Empty(t, port.Commands(), "cache already holds the raw move")
}

func TestExecute_UnparsedRawCommandInvalidatesCache(t *testing.T) {
	t.Parallel()

	port := lcdtest.New()
	d := newTestDisplay(t, port)

	_, err := d.Execute("xy CC")
	require.NoError(t, err)
	_, err = d.Execute("font 2")
	require.NoError(t, err)

	s := d.State()
	assert.False(t, s.CursorKnown)
	assert.False(t, s.FontKnown)

	port.Reset()
	require.NoError(t, d.MoveTo(0, 0))
	require.NoError(t, d.PrintText("x"))
	assert.Equal(t, []string{"xy 0 0", "font sans14", `print "x"`}, port.Commands())
}

func TestExecute_RawLineInvalidatesCursor(t *testing.T) {
	t.Parallel()

	port := lcdtest.New()
	d := newTestDisplay(t, port)

	require.NoError(t, d.MoveTo(10, 10))
	_, err := d.Execute("line 50 50")
	require.NoError(t, err)
	assert.False(t, d.State().CursorKnown)

	port.Reset()
	require.NoError(t, d.MoveTo(10, 10))
	assert.Equal(t, []string{"xy 10 10"}, port.Commands())
}

func TestExecute_TimesOutOnEndlessBlankLines(t *testing.T) {
	t.Parallel()

	port := &streamPort{chunk: "\n"}
	d, err := New(port, testConfig())
	require.NoError(t, err)
	defer d.Close()

	_, err = d.Execute("touchs")
	assert.ErrorIs(t, err, ErrProtocolTimeout)
	assert.Equal(t, testConfig().ReadAttempts, port.reads)

	// A timeout leaves the connection usable.
	_, err = d.Execute("touchs")
	assert.ErrorIs(t, err, ErrProtocolTimeout)
}

func TestExecute_ResetFailureBreaksConnection(t *testing.T) {
	t.Parallel()

	port := lcdtest.New()
	port.ResetErr = errors.New("input/output error")
	d := newTestDisplay(t, port)

	_, err := d.Execute("xy")
	var tErr *TransportError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, "reset input", tErr.Op)
	assert.Empty(t, port.Commands(), "nothing is written after a failed reset")
}

func TestExecute_LogsExchange(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	cfg := testConfig()
	cfg.Logger = &logger

	port := lcdtest.New().Script("xy", "43 98")
	d := newTestDisplayWith(t, port, cfg)

	_, err := d.Execute("xy")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"cmd":"xy","resp":"43 98","message":"exchange"`)
}
