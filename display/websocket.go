package display

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/RyanBlaney/alpha-switch/logging"
	"github.com/gorilla/websocket"
)

const (
	writeTimeout    = time.Second
	shutdownTimeout = 2 * time.Second

	// EscapeMessage is what the page sends when the operator presses escape
	EscapeMessage = "escape"
)

// Frame is the message pushed to browsers on every flip
type Frame struct {
	Type  string `json:"type"` // always "color"
	Color string `json:"color"`
	Frame int    `json:"frame"`
}

// WebSocketSink serves a single-page display and pushes colour frames to
// every connected browser. Pressing escape in the page closes Done.
type WebSocketSink struct {
	logger   logging.Logger
	listener net.Listener
	server   *http.Server
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	staged  RGB
	shown   RGB
	frames  int
	closed  bool

	done     chan struct{}
	doneOnce sync.Once
	serveErr chan error
}

// NewWebSocketSink starts serving on addr (host:port, port 0 picks one)
func NewWebSocketSink(addr string, logger logging.Logger) (*WebSocketSink, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s := &WebSocketSink{
		logger:   logging.OrGlobal(logger).WithFields(logging.Fields{"component": "websocket_display"}),
		listener: ln,
		clients:  make(map[*websocket.Conn]struct{}),
		staged:   Red,
		shown:    Red,
		done:     make(chan struct{}),
		serveErr: make(chan error, 1),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handlePage)
	mux.HandleFunc("/ws", s.handleSocket)
	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		err := s.server.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error(err, "display server stopped")
		}
		s.serveErr <- err
	}()

	s.logger.Info("display listening", logging.Fields{"url": "http://" + s.Addr() + "/"})
	return s, nil
}

// Addr returns the address actually listened on
func (s *WebSocketSink) Addr() string {
	return s.listener.Addr().String()
}

// Done is closed when the operator asks to stop from the page
func (s *WebSocketSink) Done() <-chan struct{} {
	return s.done
}

// Clients returns the number of connected browsers
func (s *WebSocketSink) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// SetColor implements Sink
func (s *WebSocketSink) SetColor(c RGB) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staged = c.Clamp()
	return nil
}

// Flip implements Sink. Browsers that cannot keep up are dropped.
func (s *WebSocketSink) Flip() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.New("display closed")
	}

	s.shown = s.staged
	s.frames++
	frame := Frame{Type: "color", Color: s.shown.Hex(), Frame: s.frames}

	for conn := range s.clients {
		if err := s.write(conn, frame); err != nil {
			s.logger.Warn("dropping display client", logging.Fields{
				"remote": conn.RemoteAddr().String(),
				"error":  err.Error(),
			})
			delete(s.clients, conn)
			conn.Close()
		}
	}
	return nil
}

// write sends one frame; caller holds mu
func (s *WebSocketSink) write(conn *websocket.Conn, frame Frame) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(frame)
}

// Close implements Sink
func (s *WebSocketSink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	for conn := range s.clients {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
			time.Now().Add(writeTimeout))
		conn.Close()
		delete(s.clients, conn)
	}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to stop display server: %w", err)
	}
	if err := <-s.serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *WebSocketSink) escape() {
	s.doneOnce.Do(func() {
		s.logger.Info("registered an 'escape' key, terminating")
		close(s.done)
	})
}

func (s *WebSocketSink) handlePage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(page))
}

func (s *WebSocketSink) handleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", logging.Fields{"error": err.Error()})
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.clients[conn] = struct{}{}
	err = s.write(conn, Frame{Type: "color", Color: s.shown.Hex(), Frame: s.frames})
	s.mu.Unlock()

	if err != nil {
		s.drop(conn)
		return
	}

	s.logger.Debug("display client connected", logging.Fields{"remote": conn.RemoteAddr().String()})

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			s.drop(conn)
			return
		}
		if strings.EqualFold(strings.TrimSpace(string(msg)), EscapeMessage) {
			s.escape()
		}
	}
}

func (s *WebSocketSink) drop(conn *websocket.Conn) {
	s.mu.Lock()
	delete(s.clients, conn)
	s.mu.Unlock()
	conn.Close()
}

const page = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>alpha switch</title>
<style>html,body{margin:0;height:100%;background:#ff0000;transition:none}</style>
</head>
<body>
<script>
const ws = new WebSocket("ws://" + location.host + "/ws");
ws.onmessage = (ev) => {
  const f = JSON.parse(ev.data);
  if (f.type === "color") document.body.style.background = f.color;
};
document.addEventListener("keydown", (ev) => {
  if (ev.key === "Escape" && ws.readyState === WebSocket.OPEN) ws.send("escape");
});
</script>
</body>
</html>
`
