package main

import (
	"encoding/json"
	"log"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"go-fleet-simulator/pkg/fleet"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// Message types

type ClientMessage struct {
	Action    string     `json:"action"`
	Config    *SimConfig `json:"config,omitempty"`
	Floor     int        `json:"floor,omitempty"`
	Direction string     `json:"direction,omitempty"`
	Algorithm string     `json:"algorithm,omitempty"`
	Scale     float64    `json:"scale,omitempty"`
}

type SimConfig struct {
	Floors       int     `json:"floors"`
	Elevators    int     `json:"elevators"`
	Capacity     int     `json:"capacity"`
	TopSpeed     float64 `json:"topSpeed"`     // floors per second
	Accel        float64 `json:"accel"`        // floors per second^2
	StopDuration float64 `json:"stopDuration"` // seconds
	SpawnRate    float64 `json:"spawnRate"`    // passengers per minute
	GroundBias   float64 `json:"groundBias"`
	ToLobbyPct   float64 `json:"toLobbyPct"`
	Algorithm    string  `json:"algorithm"`
	Seed         int64   `json:"seed"`
}

type ElevatorWire struct {
	ID         int     `json:"id"`
	Pos        float64 `json:"pos"`
	Direction  string  `json:"direction"`
	Velocity   float64 `json:"velocity"`
	DoorOpen   bool    `json:"doorOpen"`
	Passengers int     `json:"passengers"`
	Capacity   int     `json:"capacity"`
	Targets    []int   `json:"targets"`
}

type FloorWire struct {
	Floor       int `json:"floor"`
	UpWaiting   int `json:"upWaiting"`
	DownWaiting int `json:"downWaiting"`
}

type ServerMessage struct {
	Type       string              `json:"type"`
	Time       float64             `json:"time,omitempty"`
	Elevators  []ElevatorWire      `json:"elevators,omitempty"`
	Floors     []FloorWire         `json:"floors,omitempty"`
	Stats      fleet.StatsSnapshot `json:"stats,omitempty"`
	Algorithm  string              `json:"algorithm,omitempty"`
	Algorithms []string            `json:"algorithms,omitempty"`
	Error      string              `json:"error,omitempty"`
}

// tickInterval is the wall-clock step of the simulation loop; Scale
// stretches the simulated seconds per step.
const tickInterval = 50 * time.Millisecond

// SimSession manages one WebSocket connection and the simulation it owns.
type SimSession struct {
	conn   *websocket.Conn
	mu     sync.Mutex
	sim    *fleet.Simulation
	scale  float64
	paused bool
	done   chan struct{}
	stop   chan struct{}
}

func NewSimSession(conn *websocket.Conn) *SimSession {
	return &SimSession{
		conn:  conn,
		scale: 1,
		done:  make(chan struct{}),
	}
}

func (s *SimSession) HandleMessages() {
	slog.Info("Session started", "remote_addr", s.conn.RemoteAddr())
	defer func() {
		close(s.done)
		_ = s.conn.Close()
		slog.Info("Session ended", "remote_addr", s.conn.RemoteAddr())
	}()

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("WebSocket read error", "error", err)
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			slog.Warn("Failed to parse message", "error", err)
			continue
		}

		s.handleAction(msg)
	}
}

func (s *SimSession) handleAction(msg ClientMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slog.Debug("Action received", "action", msg.Action)

	switch msg.Action {
	case "init":
		s.initSimulation(msg.Config)
	case "call":
		if s.sim != nil {
			dir := fleet.DirUp
			if msg.Direction == "Down" {
				dir = fleet.DirDown
			}
			if err := s.sim.RequestCall(msg.Floor, dir); err != nil {
				s.sendError(err.Error())
			}
		}
	case "setAlgorithm":
		if s.sim != nil {
			if algo, ok := fleet.AlgorithmByName(msg.Algorithm); ok {
				s.sim.SetAlgorithm(algo)
			} else {
				s.sendError("unknown algorithm: " + msg.Algorithm)
			}
		}
	case "setScale":
		if msg.Scale > 0 && msg.Scale <= 100 {
			s.scale = msg.Scale
		}
	case "pause":
		s.paused = true
	case "resume":
		s.paused = false
	case "reset":
		if s.sim != nil {
			s.sim.Reset()
			s.sendState()
		}
	case "getState":
		if s.sim != nil {
			s.sendState()
		}
	case "stop":
		s.stopSimulation()
	}
}

func (s *SimSession) initSimulation(cfg *SimConfig) {
	if cfg == nil {
		slog.Warn("No config provided for init")
		return
	}

	s.stopSimulation()

	algo, ok := fleet.AlgorithmByName(cfg.Algorithm)
	if !ok {
		algo, _ = fleet.AlgorithmByName("nearest")
	}

	sim, err := fleet.New(fleet.Config{
		Floors:       cfg.Floors,
		Elevators:    cfg.Elevators,
		Capacity:     cfg.Capacity,
		TopSpeed:     cfg.TopSpeed,
		Accel:        cfg.Accel,
		StopDuration: cfg.StopDuration,
		SpawnRate:    cfg.SpawnRate,
		GroundBias:   cfg.GroundBias,
		ToLobbyPct:   cfg.ToLobbyPct,
		Seed:         cfg.Seed,
	}, algo)
	if err != nil {
		slog.Error("Failed to initialize simulation", "error", err)
		s.sendError(err.Error())
		return
	}
	s.sim = sim
	s.stop = make(chan struct{})

	go s.runLoop(s.stop)

	slog.Info("Simulation initialized",
		"floors", cfg.Floors, "elevators", cfg.Elevators, "algorithm", algo.Name())

	s.sendState()
}

func (s *SimSession) stopSimulation() {
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
	s.sim = nil
}

// runLoop ticks the simulation on a wall-clock ticker and pushes a state
// snapshot after every step.
func (s *SimSession) runLoop(stop chan struct{}) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.sim != nil && !s.paused {
				s.sim.Tick(tickInterval.Seconds() * s.scale)
				s.sendState()
			}
			s.mu.Unlock()
		}
	}
}

func (s *SimSession) sendState() {
	if s.sim == nil {
		return
	}

	views := s.sim.ElevatorViews()
	elevators := make([]ElevatorWire, 0, len(views))
	for _, v := range views {
		elevators = append(elevators, ElevatorWire{
			ID:         v.ID,
			Pos:        v.Pos,
			Direction:  string(v.Dir),
			Velocity:   v.Vel,
			DoorOpen:   v.DoorOpen,
			Passengers: v.PassengerCount,
			Capacity:   v.Capacity,
			Targets:    v.TargetFloors(),
		})
	}

	floors := make([]FloorWire, 0)
	for _, v := range s.sim.FloorViews() {
		floors = append(floors, FloorWire{
			Floor:       v.Floor,
			UpWaiting:   v.UpWaiting,
			DownWaiting: v.DownWaiting,
		})
	}

	s.writeJSON(ServerMessage{
		Type:       "state",
		Time:       s.sim.Now(),
		Elevators:  elevators,
		Floors:     floors,
		Stats:      s.sim.Stats(),
		Algorithm:  s.sim.Algorithm().Name(),
		Algorithms: fleet.AlgorithmNames(),
	})
}

func (s *SimSession) sendError(msg string) {
	s.writeJSON(ServerMessage{Type: "error", Error: msg})
}

func (s *SimSession) writeJSON(msg ServerMessage) {
	if err := s.conn.WriteJSON(msg); err != nil {
		slog.Error("Failed to write JSON message", "error", err)
	}
}

func handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("WebSocket upgrade failed", "error", err)
		return
	}

	session := NewSimSession(conn)
	session.HandleMessages()
}

type AppConfig struct {
	Port string
}

func loadConfig() *AppConfig {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	return &AppConfig{
		Port: port,
	}
}

func main() {
	cfg := loadConfig()

	http.HandleFunc("/ws", handleWebSocket)

	addr := ":" + cfg.Port
	slog.Info("Starting fleet simulation server", "addr", addr)

	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Fatal(err)
	}
}
