// Package redisconntest provides a minimal RESP2 server for exercising
// connection handles without a real Redis.
//
// The server answers HELLO with an error (so clients fall back to RESP2),
// PING with PONG, and every other command with OK. Commands received are
// recorded in order. NewSilentServer accepts and reads but never replies.
package redisconntest

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// Server is a fake Redis listening on a loopback port.
type Server struct {
	ln net.Listener

	mu       sync.Mutex
	commands [][]string
	conns    map[net.Conn]struct{}
	closed   bool
	silent   bool
	wg       sync.WaitGroup
}

// NewServer starts a server that is stopped when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()
	return start(t, false)
}

// NewSilentServer starts a server that accepts connections and records
// commands without ever answering them, like a hung Redis.
func NewSilentServer(t testing.TB) *Server {
	t.Helper()
	return start(t, true)
}

func start(t testing.TB, silent bool) *Server {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &Server{ln: ln, conns: make(map[net.Conn]struct{}), silent: silent}
	s.wg.Add(1)
	go s.serve()
	t.Cleanup(s.Close)
	return s
}

// ClosedPort returns a loopback port with nothing listening on it.
func ClosedPort(t testing.TB) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	_ = ln.Close()
	return port
}

// Host returns the listening IP.
func (s *Server) Host() string { return "127.0.0.1" }

// Port returns the listening port.
func (s *Server) Port() int { return s.ln.Addr().(*net.TCPAddr).Port }

// ConnectionString renders HOST and PORT for this server.
func (s *Server) ConnectionString() string {
	return fmt.Sprintf("HOST=%s;PORT=%d", s.Host(), s.Port())
}

// Commands returns the lower-cased names of all commands received so far.
func (s *Server) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.commands))
	for _, c := range s.commands {
		out = append(out, c[0])
	}
	return out
}

// Count returns how many times name was received.
func (s *Server) Count(name string) int {
	n := 0
	for _, c := range s.Commands() {
		if c == name {
			n++
		}
	}
	return n
}

// Close stops the listener and drops every client connection.
func (s *Server) Close() {
	_ = s.ln.Close()
	s.mu.Lock()
	s.closed = true
	for c := range s.conns {
		_ = c.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Server) serve() {
	defer s.wg.Done()
	for {
		c, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			_ = c.Close()
			return
		}
		s.conns[c] = struct{}{}
		s.wg.Add(1)
		s.mu.Unlock()

		go s.handle(c)
	}
}

func (s *Server) handle(c net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, c)
		s.mu.Unlock()
		_ = c.Close()
	}()

	r := bufio.NewReader(c)
	for {
		args, err := readCommand(r)
		if err != nil {
			return
		}
		if len(args) == 0 {
			continue
		}
		args[0] = strings.ToLower(args[0])

		s.mu.Lock()
		s.commands = append(s.commands, args)
		s.mu.Unlock()
		if s.silent {
			continue
		}

		var reply string
		switch args[0] {
		case "hello":
			reply = "-ERR unknown command 'HELLO'\r\n"
		case "ping":
			reply = "+PONG\r\n"
		default:
			reply = "+OK\r\n"
		}
		if _, err := io.WriteString(c, reply); err != nil {
			return
		}
	}
}

var errProtocol = errors.New("redisconntest: protocol error")

func readCommand(r *bufio.Reader) ([]string, error) {
	line, err := readLine(r)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(line, "*") {
		// Inline command.
		return strings.Fields(line), nil
	}
	n, err := strconv.Atoi(line[1:])
	if err != nil {
		return nil, errProtocol
	}
	args := make([]string, 0, n)
	for i := 0; i < n; i++ {
		hdr, err := readLine(r)
		if err != nil {
			return nil, err
		}
		if !strings.HasPrefix(hdr, "$") {
			return nil, errProtocol
		}
		size, err := strconv.Atoi(hdr[1:])
		if err != nil || size < 0 {
			return nil, errProtocol
		}
		buf := make([]byte, size+2)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		args = append(args, string(buf[:size]))
	}
	return args, nil
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
