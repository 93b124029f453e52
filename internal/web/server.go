// Package web exposes the engine's control surface over HTTP and streams
// the per-tick uniform record to WebSocket clients.
package web

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/soniq-labs/pulse/internal/beat"
	"github.com/soniq-labs/pulse/internal/engine"
	"github.com/soniq-labs/pulse/internal/params"
)

// Controller is the slice of the session the server drives. Calls arrive
// on HTTP goroutines; the host is expected to serialize them onto the
// tick loop (see cmd/pulse).
type Controller interface {
	Status() engine.Status
	Uniforms() engine.Uniforms
	SetSensitivity(float64)
	SetMode(engine.Mode)
	SetBeatPolicy(beat.Policy)
	SetPlaying(bool)
	SetUseColorControls(bool)
	SetParameterTarget(name string, value float64) error
	SetColorTarget(name string, value params.RGB) error
	ClearParameterTarget(name string)
	SetParameterDuration(name string, seconds float64) error
	ResetForNewTrack()
}

// Server is the websocket hub plus the JSON control endpoints.
type Server struct {
	mu      sync.RWMutex
	ctrl    Controller
	clients map[*client]bool

	broadcast chan []byte
	upgrader  websocket.Upgrader
	log       *log.Logger
}

type client struct {
	conn   *websocket.Conn
	send   chan []byte
	server *Server
}

// UpdateRequest is a partial update: only non-nil fields are applied.
type UpdateRequest struct {
	Sensitivity *float64 `json:"sensitivity,omitempty"`
	Mode        *string  `json:"mode,omitempty"`
	BeatPolicy  *string  `json:"beatPolicy,omitempty"`
	Playing     *bool    `json:"playing,omitempty"`
	ColorCtrls  *bool    `json:"useColorControls,omitempty"`

	Targets      map[string]float64    `json:"targets,omitempty"`
	ColorTargets map[string]params.RGB `json:"colorTargets,omitempty"`
	Durations    map[string]float64    `json:"durations,omitempty"`
	Clear        []string              `json:"clear,omitempty"`

	Reset bool `json:"reset,omitempty"`
}

// SavedConfig is the persisted slice of the control surface.
type SavedConfig struct {
	Sensitivity float64 `json:"sensitivity"`
	Mode        string  `json:"mode"`
	BeatPolicy  string  `json:"beatPolicy"`
}

// NewServer wraps a controller. logger may be nil.
func NewServer(ctrl Controller, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(os.Stderr, "[web] ", log.LstdFlags)
	}
	return &Server{
		ctrl:      ctrl,
		clients:   make(map[*client]bool),
		broadcast: make(chan []byte, 256),
		log:       logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Publish queues a uniform record for every connected client. Called from
// the session's observer on the tick loop; drops when the hub is backed
// up rather than stalling a frame.
func (s *Server) Publish(u engine.Uniforms) {
	data, err := json.Marshal(u)
	if err != nil {
		return
	}
	select {
	case s.broadcast <- data:
	default:
	}
}

// Start serves until the listener fails. Run it on its own goroutine.
func (s *Server) Start(port int) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/uniforms", s.handleUniforms)
	mux.HandleFunc("/api/update", s.handleUpdate)
	mux.HandleFunc("/api/save", s.handleSave)
	mux.HandleFunc("/ws", s.handleWebSocket)

	go s.broadcastLoop()

	addr := fmt.Sprintf(":%d", port)
	s.log.Printf("control server on http://0.0.0.0%s", addr)
	return http.ListenAndServe(addr, mux)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.ctrl.Status())
}

func (s *Server) handleUniforms(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.ctrl.Uniforms())
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.apply(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) apply(req UpdateRequest) error {
	if req.Sensitivity != nil {
		s.ctrl.SetSensitivity(*req.Sensitivity)
	}
	if req.Mode != nil {
		s.ctrl.SetMode(engine.ParseMode(*req.Mode))
	}
	if req.BeatPolicy != nil {
		s.ctrl.SetBeatPolicy(beat.ParsePolicy(*req.BeatPolicy))
	}
	if req.Playing != nil {
		s.ctrl.SetPlaying(*req.Playing)
	}
	if req.ColorCtrls != nil {
		s.ctrl.SetUseColorControls(*req.ColorCtrls)
	}
	for name, v := range req.Targets {
		if err := s.ctrl.SetParameterTarget(name, v); err != nil {
			return err
		}
	}
	for name, c := range req.ColorTargets {
		if err := s.ctrl.SetColorTarget(name, c); err != nil {
			return err
		}
	}
	for name, d := range req.Durations {
		if err := s.ctrl.SetParameterDuration(name, d); err != nil {
			return err
		}
	}
	for _, name := range req.Clear {
		s.ctrl.ClearParameterTarget(name)
	}
	if req.Reset {
		s.ctrl.ResetForNewTrack()
	}
	return nil
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	st := s.ctrl.Status()
	cfg := SavedConfig{
		Sensitivity: st.Sensitivity,
		Mode:        st.Mode,
		BeatPolicy:  st.BeatPolicy,
	}

	path := configPath()
	if err := saveConfig(path, cfg); err != nil {
		http.Error(w, fmt.Sprintf("failed to save config: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "saved", "path": path})
}

func configPath() string {
	if exe, err := os.Executable(); err == nil {
		return filepath.Join(filepath.Dir(exe), "pulse-config.json")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".pulse-config.json")
}

func saveConfig(path string, cfg SavedConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadConfig reads a previously saved control-surface config.
func LoadConfig(path string) (*SavedConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg SavedConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Printf("websocket upgrade error: %v", err)
		return
	}

	c := &client{
		conn:   conn,
		send:   make(chan []byte, 256),
		server: s,
	}

	s.mu.Lock()
	s.clients[c] = true
	s.mu.Unlock()

	go c.writePump()
	go c.readPump()
}

func (s *Server) broadcastLoop() {
	for message := range s.broadcast {
		s.mu.Lock()
		for c := range s.clients {
			select {
			case c.send <- message:
			default:
				close(c.send)
				delete(s.clients, c)
			}
		}
		s.mu.Unlock()
	}
}

func (c *client) readPump() {
	defer func() {
		c.server.mu.Lock()
		delete(c.server.clients, c)
		c.server.mu.Unlock()
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
