package link

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/panjf2000/gnet/v2"
	"go.uber.org/zap"

	"rover-link/internal/config"
)

// ErrNoPeer 尚未收到任何指令报文, 无已知回传地址
var ErrNoPeer = errors.New("no commander observed yet")

// Server is the UDP command/telemetry link. Inbound datagrams land in a
// bounded mailbox that the control loop polls (at most one per tick);
// outbound status datagrams are fire-and-forget to the most recently
// observed commander address. The gnet event loop and the control loop are
// the only two goroutines touching it, so the peer state sits behind one
// mutex and everything else flows through the mailbox channel.
type Server struct {
	gnet.BuiltinEventEngine

	addr    string
	logger  *zap.Logger
	filter  *SourceFilter
	mailbox chan []byte

	mu         sync.Mutex
	lastSender *net.UDPAddr
	lastRx     time.Time

	out *net.UDPConn
}

// mailboxDepth bounds how many undelivered datagrams can pile up between
// ticks before new ones are dropped.
const mailboxDepth = 64

func NewServer(cfg config.LinkConfig, logger *zap.Logger) *Server {
	return &Server{
		addr:    fmt.Sprintf("udp://%s:%d", cfg.Host, cfg.Port),
		logger:  logger,
		filter:  NewSourceFilter(cfg.AllowedSources),
		mailbox: make(chan []byte, mailboxDepth),
	}
}

func (s *Server) OnBoot(eng gnet.Engine) (action gnet.Action) {
	s.logger.Info("UDP link is up", zap.String("address", s.addr))
	return
}

func (s *Server) OnTraffic(c gnet.Conn) (action gnet.Action) {
	buf, err := c.Next(-1)
	if err != nil || len(buf) == 0 {
		return
	}

	sender := udpAddr(c.RemoteAddr())
	if sender == nil {
		s.logger.Warn("datagram without a usable sender address dropped")
		return
	}
	if !s.filter.Allow(sender.IP.String()) {
		s.logger.Warn("datagram from non-allowlisted source dropped",
			zap.String("source", sender.String()))
		return
	}

	s.mu.Lock()
	s.lastSender = sender
	s.lastRx = time.Now()
	s.mu.Unlock()

	payload := make([]byte, len(buf))
	copy(payload, buf)

	select {
	case s.mailbox <- payload:
	default:
		s.logger.Warn("command mailbox full, dropping datagram",
			zap.String("source", sender.String()))
	}
	return
}

func (s *Server) OnShutdown(eng gnet.Engine) {
	s.logger.Info("UDP link is shutting down")
}

// Poll returns one buffered inbound datagram, non-blocking.
func (s *Server) Poll() ([]byte, bool) {
	select {
	case payload := <-s.mailbox:
		return payload, true
	default:
		return nil, false
	}
}

// LastSeen reports when the last accepted datagram arrived (zero before the
// first one).
func (s *Server) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRx
}

// SendStatus sends one status datagram to the last-known commander. Until a
// commander has been observed there is no destination and ErrNoPeer is
// returned; there is no retry and no acknowledgment wait.
func (s *Server) SendStatus(payload []byte) error {
	s.mu.Lock()
	peer := s.lastSender
	s.mu.Unlock()

	if peer == nil {
		return ErrNoPeer
	}
	if _, err := s.out.WriteToUDP(payload, peer); err != nil {
		return fmt.Errorf("send status to %s: %w", peer, err)
	}
	return nil
}

// Start opens the outbound socket and runs the gnet event loop. It blocks
// until Stop or a fatal listener error.
func (s *Server) Start(ctx context.Context) error {
	out, err := net.ListenUDP("udp", &net.UDPAddr{})
	if err != nil {
		return fmt.Errorf("open outbound socket: %w", err)
	}
	s.out = out

	s.logger.Info("starting UDP link", zap.String("addr", s.addr))
	return gnet.Run(s, s.addr,
		gnet.WithLogger(s.logger.Sugar()),
		gnet.WithReusePort(true),
	)
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping UDP link")
	if s.out != nil {
		_ = s.out.Close()
	}
	return gnet.Stop(ctx, s.addr)
}

func udpAddr(addr net.Addr) *net.UDPAddr {
	if addr == nil {
		return nil
	}
	if ua, ok := addr.(*net.UDPAddr); ok {
		return ua
	}
	ua, err := net.ResolveUDPAddr("udp", addr.String())
	if err != nil {
		return nil
	}
	return ua
}
