package network

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/MixinNetwork/udpfs/command"
	"github.com/MixinNetwork/udpfs/config"
	"github.com/MixinNetwork/udpfs/logger"
	"github.com/MixinNetwork/udpfs/protocol"
	"github.com/MixinNetwork/udpfs/storage"
)

type Server struct {
	datagrams uint64
	accepted  uint64
	rejected  uint64
	failed    uint64

	custom    *config.Custom
	codec     *protocol.Codec
	transport Transport
	responder *command.Responder
	sessions  *sessionTracker
	published atomic.Value
}

type Info struct {
	Version    string `json:"version"`
	Listener   string `json:"listener"`
	PacketSize int    `json:"packet_size"`
	MaxClients int    `json:"max_clients"`
	Sessions   int    `json:"sessions"`
	Datagrams  uint64 `json:"datagrams"`
	Accepted   uint64 `json:"accepted"`
	Rejected   uint64 `json:"rejected"`
	Failed     uint64 `json:"failed"`
}

func NewServer(custom *config.Custom, transport Transport, store storage.Store) (*Server, error) {
	codec, err := protocol.NewCodec(custom.Protocol.PacketSize)
	if err != nil {
		return nil, err
	}
	s := &Server{
		custom:    custom,
		codec:     codec,
		transport: transport,
		responder: command.NewResponder(store),
		sessions:  newSessionTracker(custom.Server.MaxClients),
	}
	s.publish()
	return s, nil
}

// Loop serves datagrams until the context is done or the transport closed.
func (s *Server) Loop(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.transport.Close()
	}()

	logger.Printf("server started on %s - waiting for commands...\n", s.transport.LocalAddr())
	for {
		d, err := s.transport.Receive()
		switch {
		case err == nil:
			s.handleDatagram(d, time.Now())
		case isTimeout(err):
			s.expireSessions(time.Now())
		case isClosed(err) || ctx.Err() != nil:
			logger.Printf("server stopped on %s\n", s.transport.LocalAddr())
			return nil
		default:
			logger.Verbosef("server receive error %s\n", err.Error())
		}
	}
}

func (s *Server) handleDatagram(d *Datagram, now time.Time) {
	atomic.AddUint64(&s.datagrams, 1)
	defer s.publish()

	sess, err := s.sessions.add(d.Addr, d.Data, now)
	if err != nil {
		atomic.AddUint64(&s.rejected, 1)
		logger.Verbosef("server reject %s %s\n", d.Addr, err.Error())
		s.reject(d.Addr, err)
		return
	}
	logger.Debugf("server session %s %s fragment %d\n", sess.id, d.Addr, len(sess.packets))
	if !protocol.IsTerminal(d.Data) {
		return
	}

	defer s.sessions.drop(d.Addr)
	err = s.serveSession(sess)
	if err != nil {
		atomic.AddUint64(&s.failed, 1)
		logger.Verbosef("server session %s %s error %s\n", sess.id, d.Addr, err.Error())
		s.reject(d.Addr, err)
	}
}

func (s *Server) serveSession(sess *session) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = protocol.NewError(protocol.KindUnexpected, "the server encountered an error: %v", r)
		}
	}()

	content, err := s.codec.Join(sess.packets)
	if err != nil {
		return err
	}
	name, payload := command.SplitContent(content)
	route, err := s.responder.Lookup(name)
	if err != nil {
		return err
	}
	atomic.AddUint64(&s.accepted, 1)
	logger.Printf("%s %s\n", sess.addr, name)

	response, err := route.Serve(payload)
	if err != nil {
		return err
	}
	for _, p := range s.codec.Packets(response) {
		err := s.transport.Send(sess.addr, p)
		if err != nil {
			return fmt.Errorf("server send %s %s", sess.addr, err.Error())
		}
	}
	return nil
}

// reject is the only place a failure becomes an error packet.
func (s *Server) reject(addr *net.UDPAddr, err error) {
	var reason string
	var perr *protocol.Error
	if errors.As(err, &perr) {
		reason = perr.Reason
	} else {
		reason = "the server encountered an error: " + err.Error()
	}
	err = s.transport.Send(addr, s.codec.ErrorPacket(reason))
	if err != nil {
		logger.Verbosef("server reject %s send error %s\n", addr, err.Error())
	}
}

func (s *Server) expireSessions(now time.Time) {
	ttl := s.custom.SessionTTL()
	if ttl <= 0 {
		return
	}
	for _, sess := range s.sessions.expire(ttl, now) {
		logger.Verbosef("server session %s %s expired with %d fragments\n", sess.id, sess.addr, len(sess.packets))
	}
	s.publish()
}

func (s *Server) publish() {
	s.published.Store(s.sessions.snapshot())
}

// Sessions is safe to call from any goroutine.
func (s *Server) Sessions() []*SessionInfo {
	return s.published.Load().([]*SessionInfo)
}

func (s *Server) Info() *Info {
	return &Info{
		Version:    config.BuildVersion,
		Listener:   s.transport.LocalAddr().String(),
		PacketSize: s.codec.Capacity(),
		MaxClients: s.custom.Server.MaxClients,
		Sessions:   len(s.Sessions()),
		Datagrams:  atomic.LoadUint64(&s.datagrams),
		Accepted:   atomic.LoadUint64(&s.accepted),
		Rejected:   atomic.LoadUint64(&s.rejected),
		Failed:     atomic.LoadUint64(&s.failed),
	}
}
