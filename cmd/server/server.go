package main

import (
	"bufio"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/nickyhof/BotDesk"
	"github.com/nickyhof/BotDesk/db"
	"github.com/nickyhof/BotDesk/logger"
)

// Server is a TCP server exposing the textual query interface. Queries go
// through the service facade, so they reach the primary backend when one is
// configured and the mock layer otherwise.
type Server struct {
	listener   net.Listener
	instance   *BotDesk.Instance
	authConfig *AuthConfig
	tlsEnabled bool
	timeout    time.Duration
	done       chan struct{}
	wg         sync.WaitGroup
}

// NewServer creates a server without authentication.
func NewServer(instance *BotDesk.Instance) *Server {
	return NewServerWithAuth(instance, nil)
}

// NewServerWithAuth creates a server that, when authConfig is enabled,
// requires AUTH JWT before any query.
func NewServerWithAuth(instance *BotDesk.Instance, authConfig *AuthConfig) *Server {
	return &Server{
		instance:   instance,
		authConfig: authConfig,
		timeout:    30 * time.Second,
		done:       make(chan struct{}),
	}
}

// Start begins listening for connections on the specified address.
func (s *Server) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	s.listener = listener

	logger.Info().Str("addr", listener.Addr().String()).Msg("Query server listening")

	go s.acceptLoop()
	return nil
}

// StartTLS is Start over TLS with the given certificate and key files.
func (s *Server) StartTLS(addr, certFile, keyFile string) error {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return fmt.Errorf("failed to load certificate: %w", err)
	}

	listener, err := tls.Listen("tcp", addr, &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	})
	if err != nil {
		return fmt.Errorf("failed to start TLS server: %w", err)
	}
	s.listener = listener
	s.tlsEnabled = true

	logger.Info().Str("addr", listener.Addr().String()).Msg("Query server listening with TLS")

	go s.acceptLoop()
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	close(s.done)
	if s.listener != nil {
		s.listener.Close()
	}
	s.wg.Wait()
	return nil
}

// Addr returns the server's listening address.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) TLSEnabled() bool {
	return s.tlsEnabled
}

func (s *Server) authRequired() bool {
	return s.authConfig != nil && s.authConfig.Enabled
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				logger.Error(err).Msg("Accept failed")
				continue
			}
		}

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	remote := conn.RemoteAddr().String()
	logger.Info().Str("client", remote).Msg("Client connected")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-s.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	state := &ConnectionState{}
	reader := bufio.NewReader(conn)

	for {
		select {
		case <-s.done:
			return
		default:
		}

		// One request per line
		line, err := reader.ReadString('\n')
		if err != nil {
			if err != io.EOF {
				logger.Error(err).Str("client", remote).Msg("Read failed")
			}
			return
		}

		text := strings.TrimSpace(line)
		if text == "" {
			continue
		}

		lower := strings.ToLower(text)
		if lower == "quit" || lower == "exit" {
			logger.Info().Str("client", remote).Msg("Client disconnected")
			return
		}

		var response Response
		switch {
		case strings.HasPrefix(strings.ToUpper(text), "AUTH "):
			response = s.handleAuth(ctx, text, state)
		case s.authRequired() && (!state.IsAuthenticated() || state.expired(time.Now())):
			response = Response{Success: false, Error: "authentication required: send AUTH JWT <token>"}
		default:
			response = s.handleRequest(ctx, text)
		}

		data, err := EncodeResponse(response)
		if err != nil {
			logger.Error(err).Msg("Failed to encode response")
			continue
		}

		if _, err := conn.Write(data); err != nil {
			logger.Error(err).Str("client", remote).Msg("Write failed")
			return
		}
	}
}

func (s *Server) handleRequest(ctx context.Context, line string) Response {
	req, err := DecodeRequest(line)
	if err != nil {
		return Response{Success: false, Error: fmt.Sprintf("invalid request: %v", err)}
	}
	if strings.TrimSpace(req.Query) == "" {
		return Response{Success: false, Error: "empty query"}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.executeQuery(ctx, req)
	if err != nil {
		return Response{Success: false, Error: err.Error()}
	}
	return encodeResult(result)
}

func (s *Server) executeQuery(ctx context.Context, req Request) (db.Result, error) {
	statement, ok := db.ParseOrEmpty(req.Query)
	if !ok {
		return db.QueryResult{}, nil
	}
	return s.instance.Services.Facade.Execute(ctx, statement, req.Params...)
}

func encodeResult(result db.Result) Response {
	var payload any
	switch r := result.(type) {
	case db.QueryResult:
		payload = QueryResponse{Rows: r.Rows(), TimeMs: r.ExecutionTimeSec * 1000}
	case db.InsertResult:
		payload = InsertResponse{InsertID: r.InsertID, TimeMs: r.ExecutionTimeSec * 1000}
	case db.CommitResult:
		payload = CommitResponse{AffectedRows: r.AffectedRows, TimeMs: r.ExecutionTimeSec * 1000}
	default:
		payload = QueryResponse{Rows: result.Rows()}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return Response{Success: false, Error: err.Error()}
	}
	return Response{
		Success: true,
		Type:    result.Type().String(),
		Result:  data,
	}
}
