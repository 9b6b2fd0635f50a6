package server

import (
	"errors"
	"time"

	"golang.org/x/time/rate"

	"github.com/wfunc/kolortris/codec"
	"github.com/wfunc/kolortris/logger"
	"github.com/wfunc/kolortris/network"
	"github.com/wfunc/kolortris/session"
)

var errHandshake = errors.New("server: empty join message")

// Serve runs the handshake and then the round worker for one peer. It
// returns when the connection fails or the server shuts down.
func (s *GameServer) Serve(conn network.Connection) {
	defer conn.Close()

	s.mutex.Lock()
	select {
	case <-s.shutdownChan:
		s.mutex.Unlock()
		return
	default:
	}
	s.workers.Add(1)
	s.mutex.Unlock()
	defer s.workers.Done()

	conn.SetReadTimeout(s.cfg.ReadTimeout)
	id, err := s.handshake(conn)
	if err != nil {
		logger.Log.Warnf("Handshake with %s failed: %v", conn.RemoteAddr(), err)
		return
	}

	sess := session.NewSession(conn, rate.Limit(s.cfg.CommandRate), s.cfg.CommandBurst)
	sess.PlayerID = id
	s.sessionManager.Add(sess)
	s.monitor.IncOnlinePlayers()
	logger.Log.Infof("New connection from %s, session ID: %s, player %d", conn.RemoteAddr(), sess.GetID(), id)

	defer func() {
		s.sessionManager.Remove(sess.GetID())
		s.match.Leave(id)
		s.monitor.DecOnlinePlayers()
		logger.Log.Infof("Connection closed from %s, session ID: %s", conn.RemoteAddr(), sess.GetID())
	}()

	if err := sess.Send(network.FormatClientID(id)); err != nil {
		return
	}

	for {
		if err := s.round(sess); err != nil {
			logger.Log.Infof("Player %d round ended: %v", id, err)
			return
		}
		select {
		case <-s.shutdownChan:
			return
		case <-time.After(s.cfg.RoundInterval):
		}
	}
}

func (s *GameServer) handshake(conn network.Connection) (int, error) {
	lines, err := conn.ReadMessage()
	if err != nil {
		return 0, err
	}
	if len(lines) == 0 {
		return 0, errHandshake
	}
	requested, err := network.ParseJoin(lines[0])
	if err != nil {
		return 0, err
	}
	return s.match.Join(requested, "")
}

// round sends the garbage owed and the current snapshot, then applies the
// peer's reply.
func (s *GameServer) round(sess *session.Session) error {
	start := time.Now()

	var out []string
	if s.peerAuthority() {
		if n := s.match.TakeGarbage(sess.PlayerID); n > 0 {
			out = append(out, network.FormatGarbage(n))
		}
	} else {
		s.monitor.AddGarbage(s.match.ApplyGarbage())
	}
	out = append(out, network.FormatSnapshot(s.match.Encode()))
	if err := sess.Send(out...); err != nil {
		return err
	}

	lines, err := sess.Conn.ReadMessage()
	if err != nil {
		return err
	}
	sess.Touch()
	s.monitor.IncMessagesReceived()
	for _, line := range lines {
		s.handleLine(sess, line)
	}

	if s.match.Running() {
		s.monitor.SetRunningFields(s.match.PlayerCount())
	} else {
		s.monitor.SetRunningFields(0)
	}
	s.monitor.ObserveRound(time.Since(start))
	return nil
}

func (s *GameServer) handleLine(sess *session.Session, line string) {
	in, err := network.ParseInbound(line)
	if err != nil {
		logger.Log.Debugf("Player %d sent %q: %v", sess.PlayerID, line, err)
		s.monitor.IncDropped("malformed")
		return
	}
	// a peer only drives its own field
	if in.PlayerID != sess.PlayerID {
		s.monitor.IncDropped("foreign")
		return
	}

	switch in.Kind {
	case network.KindCommand:
		if !sess.Allow() {
			s.monitor.IncDropped("rate")
			return
		}
		if err := s.match.Apply(in.PlayerID, in.Command); err != nil {
			logger.Log.Debugf("Player %d %s: %v", in.PlayerID, in.Command, err)
			s.monitor.IncDropped("rejected")
			return
		}
		s.monitor.IncCommand(string(in.Command))
	case network.KindSetName:
		s.match.SetName(in.PlayerID, in.Name)
	case network.KindSendGarbage:
		if !s.peerAuthority() {
			s.monitor.IncDropped("authority")
			return
		}
		s.monitor.AddGarbage(s.match.SendGarbage(in.PlayerID, in.Count))
	case network.KindPeerState:
		if !s.peerAuthority() {
			s.monitor.IncDropped("authority")
			return
		}
		st, err := codec.DecodePlayfield(in.Payload)
		if err != nil {
			logger.Log.Warnf("Player %d uploaded a bad playfield: %v", in.PlayerID, err)
			s.monitor.IncDecodeErrors()
			return
		}
		s.match.Restore(in.PlayerID, st)
	}
}
