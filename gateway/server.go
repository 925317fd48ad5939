package gateway

import (
	"bufio"
	"net"
	"sync"

	"github.com/valyala/bytebufferpool"
)

// Server accepts links and hands every frame to Handler. It stands in for a gateway
// daemon in tests and in the node simulator.
//
// Frames passed to the handler alias the connection's read buffer and are only valid
// until HandleFrame returns.
type Server struct {
	Handler FrameHandler

	mu       sync.Mutex
	wg       sync.WaitGroup
	lns      map[net.Listener]struct{}
	conns    map[net.Conn]struct{}
	shutdown bool
}

func (s *Server) Serve(ln net.Listener) error {
	if !s.track(ln) {
		return ln.Close()
	}
	defer s.untrack(ln)

	for {
		conn, err := ln.Accept()
		if err != nil {
			s.mu.Lock()
			shutdown := s.shutdown
			s.mu.Unlock()
			if shutdown {
				return nil
			}
			return err
		}

		if !s.trackConn(conn) {
			conn.Close()
			return nil
		}

		go func() {
			defer s.wg.Done()
			s.serveConn(conn)
		}()
	}
}

func (s *Server) Shutdown() {
	s.mu.Lock()
	s.shutdown = true
	for ln := range s.lns {
		ln.Close()
	}
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Server) serveConn(conn net.Conn) {
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	var wmu sync.Mutex
	reply := func(f Frame) error {
		wmu.Lock()
		defer wmu.Unlock()
		return WriteFrame(conn, f)
	}

	r := bufio.NewReader(conn)
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	for {
		f, err := ReadFrame(r, buf)
		if err != nil {
			return
		}
		if s.Handler != nil {
			s.Handler.HandleFrame(f, reply)
		}
	}
}

func (s *Server) track(ln net.Listener) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shutdown {
		return false
	}
	if s.lns == nil {
		s.lns = make(map[net.Listener]struct{})
	}
	s.lns[ln] = struct{}{}
	return true
}

func (s *Server) untrack(ln net.Listener) {
	s.mu.Lock()
	delete(s.lns, ln)
	s.mu.Unlock()
}

// trackConn registers conn and counts its goroutine under the lock, so Shutdown either
// closes it or refuses it before waiting.
func (s *Server) trackConn(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shutdown {
		return false
	}
	if s.conns == nil {
		s.conns = make(map[net.Conn]struct{})
	}
	s.conns[conn] = struct{}{}
	s.wg.Add(1)
	return true
}
