// Package main provides a TCP query server for BotDesk.
package main

import (
	"bytes"
	"strings"

	"github.com/goccy/go-json"
	"github.com/nickyhof/BotDesk/core"
)

// Request is one query line: either a JSON object or raw SQL text.
type Request struct {
	Query  string `json:"query"`
	Params []any  `json:"params,omitempty"`
}

// Response represents the server's response to a request.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Type    string          `json:"type,omitempty"` // "query", "insert", "commit" or "auth"
	Result  json.RawMessage `json:"result,omitempty"`
}

// QueryResponse contains selected rows.
type QueryResponse struct {
	Rows   []core.Record `json:"rows"`
	TimeMs float64       `json:"time_ms"`
}

type InsertResponse struct {
	InsertID any     `json:"insertId"`
	TimeMs   float64 `json:"time_ms"`
}

type CommitResponse struct {
	AffectedRows int     `json:"affectedRows"`
	TimeMs       float64 `json:"time_ms"`
}

// AuthResponse contains authentication result.
type AuthResponse struct {
	Authenticated bool   `json:"authenticated"`
	Identity      string `json:"identity,omitempty"`
	ExpiresIn     int    `json:"expires_in,omitempty"`
}

// EncodeResponse serializes a Response to JSON with a newline.
func EncodeResponse(resp Response) ([]byte, error) {
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// DecodeRequest parses a request line. Lines starting with '{' are JSON
// requests; anything else is taken as SQL without parameters. Numeric
// parameters keep their literal form.
func DecodeRequest(line string) (Request, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "{") {
		return Request{Query: line}, nil
	}

	var req Request
	dec := json.NewDecoder(bytes.NewReader([]byte(line)))
	dec.UseNumber()
	err := dec.Decode(&req)
	return req, err
}
