package rpc

import (
	"errors"
	"net"
	"net/rpc"

	"github.com/wfunc/kolortris/logger"
	"github.com/wfunc/kolortris/match"
)

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
	rpc      *rpc.Server
}

// NewServer listens on addr. Services are added with Register before Start.
func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  listener.Addr().String(),
		rpc:      rpc.NewServer(),
	}, nil
}

func (s *Server) Register(service any) error {
	return s.rpc.Register(service)
}

func (s *Server) Addr() string {
	return s.address
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go s.rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// MatchService exposes match administration over net/rpc. Methods follow
// the net/rpc signature: exported args, pointer reply, error result.
type MatchService struct {
	match *match.Match
}

func NewMatchService(m *match.Match) *MatchService {
	return &MatchService{match: m}
}

type Empty struct{}

type StatusReply struct {
	Phase   string
	Players int
}

type ScoreboardReply struct {
	Scores []match.Score
}

func (ms *MatchService) status(reply *StatusReply) {
	reply.Phase = string(ms.match.Phase())
	reply.Players = ms.match.PlayerCount()
}

func (ms *MatchService) Start(args *Empty, reply *StatusReply) error {
	if err := ms.match.Start(); err != nil {
		return err
	}
	ms.status(reply)
	return nil
}

func (ms *MatchService) End(args *Empty, reply *StatusReply) error {
	if err := ms.match.End(); err != nil {
		return err
	}
	ms.status(reply)
	return nil
}

func (ms *MatchService) Reset(args *Empty, reply *StatusReply) error {
	if err := ms.match.Reset(); err != nil {
		return err
	}
	ms.status(reply)
	return nil
}

func (ms *MatchService) Status(args *Empty, reply *StatusReply) error {
	ms.status(reply)
	return nil
}

func (ms *MatchService) Scoreboard(args *Empty, reply *ScoreboardReply) error {
	reply.Scores = ms.match.Scoreboard()
	return nil
}
