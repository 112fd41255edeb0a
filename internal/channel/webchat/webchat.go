// Package webchat is the WebSocket adapter behind the web recorder page.
// Besides plain chat it accepts recording notices that point at uploaded
// audio for transcription.
package webchat

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/foremanhq/foreman/internal/channel"
)

type Adapter struct {
	port     int
	logger   *slog.Logger
	incoming chan *channel.Message
	upgrader websocket.Upgrader
	conns    map[string]*websocket.Conn
	connMux  sync.RWMutex
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// WireMessage is the JSON frame exchanged with the browser. Type is
// "message" for chat and "recording" for an uploaded voice note.
type WireMessage struct {
	Type            string `json:"type"`
	Content         string `json:"content"`
	AudioURL        string `json:"audio_url,omitempty"`
	DurationSeconds int    `json:"duration_seconds,omitempty"`
}

// New creates a webchat adapter listening on port.
func New(port int, logger *slog.Logger) *Adapter {
	return &Adapter{
		port:   port,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		incoming: make(chan *channel.Message, 100),
		conns:    make(map[string]*websocket.Conn),
		stopCh:   make(chan struct{}),
	}
}

func (w *Adapter) Name() string {
	return "webchat"
}

func (w *Adapter) Enabled() bool {
	return w.port > 0
}

func (w *Adapter) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", w.wsHandler)
	server := &http.Server{Addr: ":" + strconv.Itoa(w.port), Handler: mux}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			w.logger.Error("webchat server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		server.Shutdown(context.Background())
		w.stopOnce.Do(func() { close(w.stopCh) })
	}()
	return nil
}

// Stop signals the connection handlers, closes their sockets, waits for
// them to exit, then closes Incoming. A frame arriving in the shutdown
// window lands in the buffer instead of a closed channel.
func (w *Adapter) Stop() error {
	w.stopOnce.Do(func() { close(w.stopCh) })

	w.connMux.Lock()
	for _, conn := range w.conns {
		conn.Close()
	}
	w.connMux.Unlock()

	w.wg.Wait()
	close(w.incoming)
	return nil
}

func (w *Adapter) Send(userID string, resp *channel.Response) error {
	w.connMux.RLock()
	conn, exists := w.conns[userID]
	w.connMux.RUnlock()
	if !exists {
		// The browser went away; nothing to deliver to.
		return nil
	}

	data, err := json.Marshal(WireMessage{Type: "message", Content: resp.Content})
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (w *Adapter) Incoming() <-chan *channel.Message {
	return w.incoming
}

func (w *Adapter) wsHandler(rw http.ResponseWriter, r *http.Request) {
	conn, err := w.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		w.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	select {
	case <-w.stopCh:
		conn.Close()
		return
	default:
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = "anonymous_" + strconv.FormatInt(time.Now().Unix(), 10)
	}

	w.connMux.Lock()
	w.conns[userID] = conn
	w.connMux.Unlock()

	w.wg.Add(1)
	defer func() {
		w.connMux.Lock()
		delete(w.conns, userID)
		w.connMux.Unlock()
		conn.Close()
		w.wg.Done()
	}()

	for {
		var frame WireMessage
		if err := conn.ReadJSON(&frame); err != nil {
			w.logger.Debug("websocket closed", "user_id", userID, "error", err)
			return
		}
		msg := convert(userID, frame)
		if msg == nil {
			continue
		}
		select {
		case <-w.stopCh:
			return
		case w.incoming <- msg:
		}
	}
}

func convert(userID string, frame WireMessage) *channel.Message {
	msg := &channel.Message{
		ID:        strconv.FormatInt(time.Now().UnixNano(), 10),
		Channel:   "webchat",
		UserID:    userID,
		Timestamp: time.Now().Unix(),
	}
	switch frame.Type {
	case "message":
		msg.Kind = channel.KindText
		msg.Content = frame.Content
	case "recording":
		msg.Kind = channel.KindVoice
		msg.VoiceURL = frame.AudioURL
		msg.DurationSeconds = frame.DurationSeconds
	default:
		return nil
	}
	return msg
}
