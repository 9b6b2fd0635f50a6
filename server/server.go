// Package server is the host side of the sync protocol: it accepts peers
// over TCP and WebSocket, runs one round worker per connection and serves
// the HTTP status API.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wfunc/kolortris/config"
	"github.com/wfunc/kolortris/logger"
	"github.com/wfunc/kolortris/match"
	"github.com/wfunc/kolortris/monitor"
	"github.com/wfunc/kolortris/network"
	"github.com/wfunc/kolortris/session"
)

type Config struct {
	TCPAddress    string
	HTTPAddress   string
	ReadTimeout   time.Duration
	RoundInterval time.Duration
	CommandRate   float64
	CommandBurst  int
	// Authority is config.AuthorityHost or config.AuthorityPeer.
	Authority   string
	CORSOrigins []string
}

func DefaultConfig() Config {
	return Config{
		TCPAddress:    ":1337",
		HTTPAddress:   ":8080",
		ReadTimeout:   10 * time.Second,
		RoundInterval: 30 * time.Millisecond,
		CommandRate:   60,
		CommandBurst:  30,
		Authority:     config.AuthorityHost,
	}
}

type GameServer struct {
	cfg            Config
	match          *match.Match
	monitor        *monitor.Monitor
	sessionManager *session.Manager
	upgrader       websocket.Upgrader

	listener     net.Listener
	httpServer   *http.Server
	mutex        sync.Mutex
	workers      sync.WaitGroup
	shutdownChan chan struct{}
	closeOnce    sync.Once
}

func NewGameServer(cfg Config, m *match.Match, mon *monitor.Monitor) *GameServer {
	if cfg.RoundInterval <= 0 {
		cfg.RoundInterval = DefaultConfig().RoundInterval
	}
	return &GameServer{
		cfg:            cfg,
		match:          m,
		monitor:        mon,
		sessionManager: session.NewManager(),
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}
}

// Start listens on the TCP and HTTP addresses. It blocks until Shutdown.
func (s *GameServer) Start() error {
	l, err := net.Listen("tcp", s.cfg.TCPAddress)
	if err != nil {
		return err
	}
	go s.ServeTCP(l)

	s.mutex.Lock()
	s.httpServer = &http.Server{Addr: s.cfg.HTTPAddress, Handler: s.Router()}
	srv := s.httpServer
	s.mutex.Unlock()

	logger.Log.Infof("Game server listening on %s (tcp) and %s (http)", s.cfg.TCPAddress, s.cfg.HTTPAddress)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ServeTCP accepts peers on l until the listener is closed.
func (s *GameServer) ServeTCP(l net.Listener) {
	s.mutex.Lock()
	s.listener = l
	s.mutex.Unlock()

	for {
		conn, err := l.Accept()
		if err != nil {
			select {
			case <-s.shutdownChan:
			default:
				logger.Log.Infof("TCP listener stopped: %v", err)
			}
			return
		}
		go s.Serve(network.NewTCPConnection(conn))
	}
}

// Shutdown stops accepting peers, closes every connection and waits for the
// round workers to exit.
func (s *GameServer) Shutdown(ctx context.Context) error {
	var err error
	s.closeOnce.Do(func() {
		s.mutex.Lock()
		close(s.shutdownChan)
		l, srv := s.listener, s.httpServer
		s.mutex.Unlock()

		if l != nil {
			l.Close()
		}
		if srv != nil {
			err = srv.Shutdown(ctx)
		}
		s.sessionManager.CloseAll()
	})

	done := make(chan struct{})
	go func() {
		s.workers.Wait()
		close(done)
	}()
	select {
	case <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.Serve(network.NewWSConnection(conn))
}

// Sessions returns the number of connected peers.
func (s *GameServer) Sessions() int {
	return s.sessionManager.Count()
}

func (s *GameServer) peerAuthority() bool {
	return s.cfg.Authority == config.AuthorityPeer
}
