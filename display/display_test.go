package display

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/RyanBlaney/alpha-switch/decoder"
	"github.com/RyanBlaney/alpha-switch/logging"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	calls []string
}

func (r *recordingSink) SetColor(c RGB) error { r.calls = append(r.calls, "set "+c.Hex()); return nil }
func (r *recordingSink) Flip() error          { r.calls = append(r.calls, "flip"); return nil }
func (r *recordingSink) Close() error         { return nil }

func TestEmitSetsThenFlipsTwice(t *testing.T) {
	rec := &recordingSink{}
	require.NoError(t, Emit(rec, Blue))
	assert.Equal(t, []string{"set #0000ff", "flip", "flip"}, rec.calls)

	assert.NoError(t, Emit(NopSink{}, Red))
}

func TestHexRoundTrip(t *testing.T) {
	assert.Equal(t, "#ff0000", Red.Hex())
	assert.Equal(t, "#0000ff", Blue.Hex())
	assert.Equal(t, "#ffff00", RGB{R: 2, G: 1, B: -1}.Hex(), "components are clamped")

	c, err := ParseHex("#3b4252")
	require.NoError(t, err)
	assert.Equal(t, "#3b4252", c.Hex())

	_, err = ParseHex("#fff")
	assert.Error(t, err)
	_, err = ParseHex("zzzzzz")
	assert.Error(t, err)
}

func TestColorMapBinary(t *testing.T) {
	m := DefaultColorMap()

	assert.Equal(t, Blue, m.Color(decoder.SwitchValue{Mode: decoder.ModeSign, Level: 1}))
	assert.Equal(t, Red, m.Color(decoder.SwitchValue{Mode: decoder.ModeSign, Level: 0}))
	assert.Equal(t, Red, m.Color(decoder.SwitchValue{Mode: decoder.ModeBoost, Level: 0}))
}

func TestColorMapContinuous(t *testing.T) {
	m := DefaultColorMap()
	level := func(v float64) RGB {
		return m.Color(decoder.SwitchValue{Mode: decoder.ModeContinuous, Level: v})
	}

	assert.Equal(t, Red, level(-1))
	assert.Equal(t, Blue, level(1))
	assert.Equal(t, RGB{R: 0.5, B: 0.5}, level(0))
	assert.Equal(t, Red, level(-7), "clamped below")
	assert.Equal(t, Blue, level(7), "clamped above")
	assert.Equal(t, Blue, level(math.Inf(1)))
	assert.Equal(t, Red, level(math.Inf(-1)))
	assert.Equal(t, Red, level(math.NaN()))
}

func TestColorMapValidate(t *testing.T) {
	assert.NoError(t, DefaultColorMap().Validate())
	assert.Error(t, ColorMap{Min: 1, Max: 1}.Validate())
	assert.Error(t, ColorMap{Min: 0, Max: math.Inf(1)}.Validate())
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("WebSocket")
	require.NoError(t, err)
	assert.Equal(t, KindWebSocket, k)

	k, err = ParseKind("")
	require.NoError(t, err)
	assert.Equal(t, KindNone, k)

	_, err = ParseKind("psychopy")
	assert.Error(t, err)
}

func TestTerminalSinkRendersEveryFlip(t *testing.T) {
	var buf bytes.Buffer
	sink := NewTerminalSink(&buf, 12, 3, false)

	require.NoError(t, Emit(sink, Blue))
	assert.Equal(t, 2, sink.Frames())
	assert.Equal(t, 2, strings.Count(buf.String(), "#0000ff"))
	assert.NoError(t, sink.Close())
}

func dial(t *testing.T, sink *WebSocketSink) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial("ws://"+sink.Addr()+"/ws", nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var f Frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestWebSocketSinkPushesFrames(t *testing.T) {
	sink, err := NewWebSocketSink("127.0.0.1:0", &logging.NoOpLogger{})
	require.NoError(t, err)
	defer sink.Close()

	conn := dial(t, sink)

	initial := readFrame(t, conn)
	assert.Equal(t, "color", initial.Type)
	assert.Equal(t, "#ff0000", initial.Color)

	require.Eventually(t, func() bool { return sink.Clients() == 1 }, 5*time.Second, 5*time.Millisecond)

	require.NoError(t, Emit(sink, Blue))
	first := readFrame(t, conn)
	second := readFrame(t, conn)
	assert.Equal(t, "#0000ff", first.Color)
	assert.Equal(t, "#0000ff", second.Color)
	assert.Equal(t, first.Frame+1, second.Frame)
}

func TestWebSocketSinkEscapeClosesDone(t *testing.T) {
	sink, err := NewWebSocketSink("127.0.0.1:0", &logging.NoOpLogger{})
	require.NoError(t, err)
	defer sink.Close()

	conn := dial(t, sink)
	readFrame(t, conn)

	select {
	case <-sink.Done():
		t.Fatal("done before escape")
	default:
	}

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(EscapeMessage)))

	select {
	case <-sink.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("escape did not close done")
	}
}

func TestWebSocketSinkClose(t *testing.T) {
	sink, err := NewWebSocketSink("127.0.0.1:0", &logging.NoOpLogger{})
	require.NoError(t, err)

	require.NoError(t, sink.Close())
	require.NoError(t, sink.Close())
	assert.Error(t, sink.Flip())
}
