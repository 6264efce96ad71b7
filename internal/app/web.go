package app

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"image/png"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/sensor_hats/internal/config"
	"github.com/relabs-tech/sensor_hats/internal/env"
	"github.com/relabs-tech/sensor_hats/internal/mqtt"
)

//go:embed web/index.html
var indexHTML []byte

const (
	wsWriteWait = 5 * time.Second
	wsSendQueue = 8
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // viewer runs on the local network
	},
}

// wsEvent is one message pushed to websocket clients.
type wsEvent struct {
	Type string `json:"type"` // "readings" or "frame"
	Data any    `json:"data"`
}

// Viewer keeps the latest readings and frame received over MQTT and serves
// them over HTTP and websockets.
type Viewer struct {
	cfg config.MQTTConfig
	log *slog.Logger

	mu      sync.RWMutex
	sample  *env.Sample
	frame   *env.Frame
	clients map[chan []byte]struct{}
}

// NewViewer returns a viewer for the topics in cfg.
func NewViewer(cfg config.MQTTConfig) *Viewer {
	return &Viewer{
		cfg:     cfg,
		log:     slog.Default().With("component", "web"),
		clients: make(map[chan []byte]struct{}),
	}
}

// Subscribe routes the readings and frame topics to the viewer.
func (v *Viewer) Subscribe(ctx context.Context, sub mqtt.Subscriber) error {
	for _, topic := range []string{v.cfg.TopicReadings, v.cfg.TopicFrame} {
		if err := sub.Subscribe(ctx, topic, v.cfg.QoS, v.Handle); err != nil {
			return err
		}
	}
	return nil
}

// Handle stores msg and pushes it to the websocket clients.
func (v *Viewer) Handle(msg mqtt.Message) {
	var ev wsEvent
	switch msg.Topic {
	case v.cfg.TopicReadings:
		var s env.Sample
		if err := json.Unmarshal(msg.Payload, &s); err != nil {
			v.log.Warn("readings unmarshal", "err", err)
			return
		}
		v.mu.Lock()
		v.sample = &s
		v.mu.Unlock()
		ev = wsEvent{Type: "readings", Data: s}
	case v.cfg.TopicFrame:
		var f env.Frame
		if err := json.Unmarshal(msg.Payload, &f); err != nil {
			v.log.Warn("frame unmarshal", "err", err)
			return
		}
		v.mu.Lock()
		v.frame = &f
		v.mu.Unlock()
		ev = wsEvent{Type: "frame", Data: f}
	default:
		return
	}
	v.broadcast(ev)
}

func (v *Viewer) broadcast(ev wsEvent) {
	b, err := json.Marshal(ev)
	if err != nil {
		v.log.Warn("marshal event", "err", err)
		return
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	for c := range v.clients {
		select {
		case c <- b:
		default:
			v.log.Debug("websocket client is slow, dropping event", "type", ev.Type)
		}
	}
}

// Routes returns the viewer's HTTP handler.
func (v *Viewer) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(indexHTML)
	})
	mux.HandleFunc("GET /api/readings", v.handleReadings)
	mux.HandleFunc("GET /api/frame", v.handleFrame)
	mux.HandleFunc("GET /api/frame.png", v.handleFramePNG)
	mux.HandleFunc("GET /ws", v.handleWS)
	mux.HandleFunc("GET /version", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, v.log, map[string]string{"version": Version})
	})
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		v.mu.RLock()
		defer v.mu.RUnlock()
		writeJSON(w, v.log, map[string]any{
			"status":   "ok",
			"readings": v.sample != nil,
			"frame":    v.frame != nil,
			"clients":  len(v.clients),
		})
	})
	return mux
}

func (v *Viewer) handleReadings(w http.ResponseWriter, _ *http.Request) {
	v.mu.RLock()
	s := v.sample
	v.mu.RUnlock()
	if s == nil {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, v.log, s)
}

func (v *Viewer) handleFrame(w http.ResponseWriter, _ *http.Request) {
	v.mu.RLock()
	f := v.frame
	v.mu.RUnlock()
	if f == nil {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, v.log, f)
}

func (v *Viewer) handleFramePNG(w http.ResponseWriter, _ *http.Request) {
	v.mu.RLock()
	f := v.frame
	v.mu.RUnlock()
	if f == nil || len(f.Frame.Pix) == 0 {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, f.Frame); err != nil {
		v.log.Warn("png encode", "err", err)
	}
}

func (v *Viewer) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		v.log.Warn("websocket upgrade", "err", err)
		return
	}
	defer conn.Close()

	send := make(chan []byte, wsSendQueue)
	v.mu.Lock()
	v.clients[send] = struct{}{}
	var initial []wsEvent
	if v.sample != nil {
		initial = append(initial, wsEvent{Type: "readings", Data: *v.sample})
	}
	if v.frame != nil {
		initial = append(initial, wsEvent{Type: "frame", Data: *v.frame})
	}
	v.mu.Unlock()
	defer func() {
		v.mu.Lock()
		delete(v.clients, send)
		v.mu.Unlock()
	}()

	// the reader only notices the client going away
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					v.log.Debug("websocket read", "err", err)
				}
				return
			}
		}
	}()

	for _, ev := range initial {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(ev); err != nil {
			return
		}
	}
	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case b := <-send:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				v.log.Debug("websocket write", "err", err)
				return
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, log *slog.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn("json encode", "err", err)
	}
}

// RunWeb subscribes to the readings and frame topics and serves the viewer
// on cfg.Web.Addr until ctx is done.
func RunWeb(ctx context.Context, cfg *config.Config, sub mqtt.Subscriber) error {
	v := NewViewer(cfg.MQTT)
	if err := v.Subscribe(ctx, sub); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Web.Addr,
		Handler:           v.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		v.log.Info("web server listening", "addr", cfg.Web.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdown); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	v.log.Info("web server stopped")
	return nil
}
