package main

import (
	"bufio"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/nickyhof/BotDesk"
	"golang.org/x/crypto/bcrypt"
)

func openTestInstance(t *testing.T) *BotDesk.Instance {
	t.Helper()
	cfg := BotDesk.DefaultConfig()
	cfg.Store = BotDesk.StoreMemory
	cfg.Offline = true
	cfg.LogLevel = "silent"
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.BcryptCost = bcrypt.MinCost

	instance, err := BotDesk.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to open instance: %v", err)
	}
	t.Cleanup(func() { instance.Close() })
	return instance
}

func setupTestServer(t *testing.T) (*Server, func()) {
	server := NewServer(openTestInstance(t))
	if err := server.Start(":0"); err != nil { // :0 picks a free port
		t.Fatalf("Failed to start server: %v", err)
	}

	return server, func() {
		server.Stop()
	}
}

type client struct {
	t      *testing.T
	conn   net.Conn
	reader *bufio.Reader
}

func dial(t *testing.T, addr string) *client {
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return &client{t: t, conn: conn, reader: bufio.NewReader(conn)}
}

func (c *client) send(line string) Response {
	c.t.Helper()
	if _, err := c.conn.Write([]byte(line + "\n")); err != nil {
		c.t.Fatalf("Failed to send: %v", err)
	}
	reply, err := c.reader.ReadString('\n')
	if err != nil {
		c.t.Fatalf("Failed to read response: %v", err)
	}

	var resp Response
	if err := json.Unmarshal([]byte(reply), &resp); err != nil {
		c.t.Fatalf("Failed to parse response: %v", err)
	}
	return resp
}

func (c *client) query(query string, params ...any) Response {
	c.t.Helper()
	data, err := json.Marshal(Request{Query: query, Params: params})
	if err != nil {
		c.t.Fatalf("Failed to encode request: %v", err)
	}
	return c.send(string(data))
}

func sendQuery(t *testing.T, addr, query string) Response {
	return dial(t, addr).send(query)
}

func TestServerStartStop(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	if server.Addr() == "" {
		t.Error("Expected non-empty address")
	}
	if server.TLSEnabled() {
		t.Error("Expected plain TCP server")
	}
}

func TestServerInsertAndSelect(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()
	c := dial(t, server.Addr())

	resp := c.query("INSERT INTO leads (chatbot_id, email) VALUES (?, ?)", "c1", "lead@example.com")
	if !resp.Success || resp.Type != "insert" {
		t.Fatalf("Expected insert success, got %+v", resp)
	}
	var ir InsertResponse
	if err := json.Unmarshal(resp.Result, &ir); err != nil {
		t.Fatalf("Failed to parse insert result: %v", err)
	}
	if id, _ := ir.InsertID.(string); id == "" {
		t.Errorf("Expected generated insertId, got %v", ir.InsertID)
	}

	resp = c.query("SELECT * FROM leads WHERE chatbot_id = ?", "c1")
	if !resp.Success || resp.Type != "query" {
		t.Fatalf("Expected query success, got %+v", resp)
	}
	var qr QueryResponse
	if err := json.Unmarshal(resp.Result, &qr); err != nil {
		t.Fatalf("Failed to parse query result: %v", err)
	}
	if len(qr.Rows) != 1 || qr.Rows[0]["email"] != "lead@example.com" {
		t.Errorf("Unexpected rows %v", qr.Rows)
	}

	// Raw SQL lines work without parameters.
	resp = c.send("SELECT * FROM leads WHERE chatbot_id = 'c2'")
	json.Unmarshal(resp.Result, &qr)
	if !resp.Success || len(qr.Rows) != 0 {
		t.Errorf("Expected no rows for c2, got %+v", resp)
	}
}

func TestServerUpdateAndDelete(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()
	c := dial(t, server.Addr())

	c.query("INSERT INTO chatbots (id, user_id, name, status) VALUES (?, ?, ?, ?)", "c1", "u1", "Bot", "active")

	resp := c.query("UPDATE chatbots SET status = ? WHERE id = ?", "inactive", "c1")
	if !resp.Success || resp.Type != "commit" {
		t.Fatalf("Expected commit success, got %+v", resp)
	}
	var cr CommitResponse
	if err := json.Unmarshal(resp.Result, &cr); err != nil {
		t.Fatalf("Failed to parse commit result: %v", err)
	}
	if cr.AffectedRows != 1 {
		t.Errorf("Expected 1 affected row, got %d", cr.AffectedRows)
	}

	resp = c.query("DELETE FROM chatbots WHERE id = ?", "c1")
	json.Unmarshal(resp.Result, &cr)
	if !resp.Success || cr.AffectedRows != 1 {
		t.Errorf("Expected 1 deleted row, got %+v", resp)
	}
}

func TestServerUnsupportedStatement(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	resp := sendQuery(t, server.Addr(), "DROP TABLE chatbots")
	if !resp.Success || resp.Type != "query" {
		t.Fatalf("Expected empty query result, got %+v", resp)
	}
	var qr QueryResponse
	json.Unmarshal(resp.Result, &qr)
	if len(qr.Rows) != 0 {
		t.Errorf("Expected no rows, got %v", qr.Rows)
	}
}

func TestServerInvalidRequest(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	resp := sendQuery(t, server.Addr(), `{"query": `)
	if resp.Success {
		t.Error("Expected failure for malformed JSON")
	}
	if !strings.Contains(resp.Error, "invalid request") {
		t.Errorf("Expected invalid request error, got %s", resp.Error)
	}
}

func TestServerPersistentConnection(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()
	c := dial(t, server.Addr())

	for i := 0; i < 5; i++ {
		resp := c.query("INSERT INTO analytics_events (chatbot_id, type) VALUES (?, ?)", "c1", "message")
		if !resp.Success {
			t.Fatalf("Insert %d failed: %s", i, resp.Error)
		}
	}

	resp := c.query("SELECT * FROM analytics_events")
	var qr QueryResponse
	json.Unmarshal(resp.Result, &qr)
	if len(qr.Rows) != 5 {
		t.Errorf("Expected 5 rows, got %d", len(qr.Rows))
	}

	c.conn.Write([]byte("quit\n"))
	if _, err := c.reader.ReadString('\n'); err == nil {
		t.Error("Expected connection to close after quit")
	}
}

func setupAuthTestServer(t *testing.T) (*Server, *BotDesk.Instance, func()) {
	instance := openTestInstance(t)
	server := NewServerWithAuth(instance, &AuthConfig{Enabled: true})
	if err := server.Start(":0"); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	return server, instance, func() {
		server.Stop()
	}
}

func loginToken(t *testing.T, instance *BotDesk.Instance) string {
	t.Helper()
	ctx := context.Background()
	if _, err := instance.Services.Users.Register(ctx, "ops@example.com", "password123", "Ops"); err != nil {
		t.Fatalf("Failed to register: %v", err)
	}
	token, _, err := instance.Services.Users.Login(ctx, "ops@example.com", "password123")
	if err != nil {
		t.Fatalf("Failed to log in: %v", err)
	}
	return token
}

func TestAuthRequired(t *testing.T) {
	server, _, cleanup := setupAuthTestServer(t)
	defer cleanup()

	resp := sendQuery(t, server.Addr(), "SELECT * FROM chatbots")
	if resp.Success {
		t.Error("Expected failure when not authenticated")
	}
	if !strings.Contains(resp.Error, "authentication required") {
		t.Errorf("Expected 'authentication required' error, got: %s", resp.Error)
	}
}

func TestAuthWithValidJWT(t *testing.T) {
	server, instance, cleanup := setupAuthTestServer(t)
	defer cleanup()
	token := loginToken(t, instance)
	c := dial(t, server.Addr())

	resp := c.send("AUTH JWT " + token)
	if !resp.Success || resp.Type != "auth" {
		t.Fatalf("Auth failed: %s", resp.Error)
	}
	var authResp AuthResponse
	if err := json.Unmarshal(resp.Result, &authResp); err != nil {
		t.Fatalf("Failed to parse auth result: %v", err)
	}
	if !authResp.Authenticated || authResp.Identity != "Ops <ops@example.com>" {
		t.Errorf("Unexpected auth response %+v", authResp)
	}
	if authResp.ExpiresIn <= 0 {
		t.Errorf("Expected positive expiry, got %d", authResp.ExpiresIn)
	}

	resp = c.send("SELECT * FROM chatbots")
	if !resp.Success {
		t.Errorf("Expected query after auth to succeed, got %s", resp.Error)
	}
}

func TestAuthWithInvalidJWT(t *testing.T) {
	server, instance, cleanup := setupAuthTestServer(t)
	defer cleanup()

	tests := []struct {
		name string
		line string
	}{
		{"garbage token", "AUTH JWT not-a-token"},
		{"missing token", "AUTH JWT"},
		{"unsupported type", "AUTH BASIC dXNlcjpwYXNz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := sendQuery(t, server.Addr(), tt.line)
			if resp.Success {
				t.Errorf("Expected auth failure for %q", tt.line)
			}
		})
	}

	// A revoked token is refused even though its signature is valid.
	token := loginToken(t, instance)
	if err := instance.Services.Users.Logout(context.Background(), token); err != nil {
		t.Fatalf("Failed to log out: %v", err)
	}
	resp := sendQuery(t, server.Addr(), "AUTH JWT "+token)
	if resp.Success || !strings.Contains(resp.Error, "revoked") {
		t.Errorf("Expected revoked token to fail, got %+v", resp)
	}
}

func TestParseAuthCommand(t *testing.T) {
	authType, token, err := parseAuthCommand("auth jwt abc.def.ghi")
	if err != nil || authType != "JWT" || token != "abc.def.ghi" {
		t.Errorf("Unexpected parse result %q %q %v", authType, token, err)
	}
	if _, _, err := parseAuthCommand("SELECT 1"); err == nil {
		t.Error("Expected error for a non-AUTH line")
	}
}

func TestDecodeRequest(t *testing.T) {
	req, err := DecodeRequest(`{"query": "SELECT * FROM leads WHERE id = ?", "params": [5]}`)
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if req.Query != "SELECT * FROM leads WHERE id = ?" || len(req.Params) != 1 {
		t.Fatalf("Unexpected request %+v", req)
	}
	if n, ok := req.Params[0].(json.Number); !ok || n.String() != "5" {
		t.Errorf("Expected json.Number param, got %T %v", req.Params[0], req.Params[0])
	}

	req, _ = DecodeRequest("  SELECT * FROM leads  ")
	if req.Query != "SELECT * FROM leads" || req.Params != nil {
		t.Errorf("Unexpected raw request %+v", req)
	}
}

// === TLS Tests ===

func setupTLSTestServer(t *testing.T) (*Server, string, func()) {
	t.Helper()

	tmpDir := t.TempDir()
	certFile := tmpDir + "/cert.pem"
	keyFile := tmpDir + "/key.pem"
	generateTestCertificate(t, certFile, keyFile)

	server := NewServer(openTestInstance(t))
	if err := server.StartTLS(":0", certFile, keyFile); err != nil {
		t.Fatalf("Failed to start TLS server: %v", err)
	}

	return server, certFile, func() {
		server.Stop()
	}
}

// generateTestCertificate creates a self-signed certificate for testing
func generateTestCertificate(t *testing.T, certFile, keyFile string) {
	t.Helper()

	// Generate a private key
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("Failed to generate private key: %v", err)
	}

	// Create certificate template
	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject: pkix.Name{
			CommonName: "localhost",
		},
		NotBefore: time.Now(),
		NotAfter:  time.Now().Add(time.Hour),
		KeyUsage:  x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage: []x509.ExtKeyUsage{
			x509.ExtKeyUsageServerAuth,
		},
		IPAddresses: []net.IP{net.ParseIP("127.0.0.1"), net.IPv6loopback},
		DNSNames:    []string{"localhost"},
	}

	// Create self-signed certificate
	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("Failed to create certificate: %v", err)
	}

	// Write certificate to file
	certOut, err := os.Create(certFile)
	if err != nil {
		t.Fatalf("Failed to create cert file: %v", err)
	}
	pem.Encode(certOut, &pem.Block{Type: "CERTIFICATE", Bytes: certDER})
	certOut.Close()

	// Write private key to file
	keyOut, err := os.Create(keyFile)
	if err != nil {
		t.Fatalf("Failed to create key file: %v", err)
	}
	pem.Encode(keyOut, &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	keyOut.Close()
}

func TestTLSServerConnection(t *testing.T) {
	server, certFile, cleanup := setupTLSTestServer(t)
	defer cleanup()

	if !server.TLSEnabled() {
		t.Error("Expected TLS to be enabled")
	}

	certPool := x509.NewCertPool()
	certData, err := os.ReadFile(certFile)
	if err != nil {
		t.Fatalf("Failed to read cert: %v", err)
	}
	certPool.AppendCertsFromPEM(certData)

	conn, err := tls.Dial("tcp", server.Addr(), &tls.Config{RootCAs: certPool, ServerName: "localhost"})
	if err != nil {
		t.Fatalf("Failed to connect over TLS: %v", err)
	}
	defer conn.Close()

	c := &client{t: t, conn: conn, reader: bufio.NewReader(conn)}
	resp := c.query("SELECT * FROM chatbots")
	if !resp.Success {
		t.Errorf("Expected query over TLS to succeed, got %s", resp.Error)
	}
}

func TestTLSServerInvalidCert(t *testing.T) {
	server := NewServer(openTestInstance(t))
	if err := server.StartTLS(":0", "/nonexistent/cert.pem", "/nonexistent/key.pem"); err == nil {
		server.Stop()
		t.Error("Expected error for missing certificate files")
	}
}
