package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/nickyhof/BotDesk/core"
	"github.com/nickyhof/BotDesk/db"
	"github.com/nickyhof/BotDesk/sql"
	"github.com/tidwall/gjson"
)

// RESTBackend talks to a hosted backend exposing tables PostgREST-style:
//
//	GET    {base}/rest/v1/{table}?select=*&{col}=eq.{value}
//	POST   {base}/rest/v1/{table}
//	PATCH  {base}/rest/v1/{table}?{col}=eq.{value}
//	DELETE {base}/rest/v1/{table}?{col}=eq.{value}
type RESTBackend struct {
	BaseURL string
	APIKey  string
	// Token authenticates as a user; APIKey is used when empty.
	Token  string
	Client *http.Client
	Now    func() time.Time
	NewID  func() string
}

func NewRESTBackend(baseURL, apiKey string) *RESTBackend {
	return &RESTBackend{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		APIKey:  apiKey,
		Client:  &http.Client{Timeout: 30 * time.Second},
		Now:     time.Now,
		NewID:   uuid.NewString,
	}
}

func (b *RESTBackend) Name() string {
	return "rest"
}

func (b *RESTBackend) Execute(ctx context.Context, statement sql.Statement, params ...any) (db.Result, error) {
	start := time.Now()

	switch s := statement.(type) {
	case sql.SelectStatement:
		query := url.Values{}
		query.Set("select", "*")
		if len(s.Columns) > 0 {
			query.Set("select", strings.Join(s.Columns, ","))
		}
		if err := b.filter(query, s.Where, params); err != nil {
			return nil, newError(b.Name(), statement, 0, err)
		}
		body, err := b.do(ctx, statement, http.MethodGet, query, nil)
		if err != nil {
			return nil, err
		}
		return db.QueryResult{Records: decodeRecords(body), ExecutionTimeSec: time.Since(start).Seconds()}, nil

	case sql.InsertStatement:
		record := db.NewRecord(s, params, b.Now(), b.NewID)
		body, err := b.do(ctx, statement, http.MethodPost, nil, record)
		if err != nil {
			return nil, err
		}
		insertID := record["id"]
		if id := gjson.GetBytes(body, "0.id"); id.Exists() {
			insertID = id.Value()
		}
		return db.InsertResult{InsertID: insertID, ExecutionTimeSec: time.Since(start).Seconds()}, nil

	case sql.UpdateStatement:
		if s.Where == nil {
			return db.CommitResult{}, nil
		}
		query := url.Values{}
		if err := b.filter(query, s.Where, params); err != nil {
			return nil, newError(b.Name(), statement, 0, err)
		}
		changes := core.Record{}
		columns, values := s.Bind(params)
		for i, column := range columns {
			changes[column] = values[i]
		}
		body, err := b.do(ctx, statement, http.MethodPatch, query, changes)
		if err != nil {
			return nil, err
		}
		return db.CommitResult{AffectedRows: countRows(body), ExecutionTimeSec: time.Since(start).Seconds()}, nil

	case sql.DeleteStatement:
		if s.Where == nil {
			return db.QueryResult{}, nil
		}
		query := url.Values{}
		if err := b.filter(query, s.Where, params); err != nil {
			return nil, newError(b.Name(), statement, 0, err)
		}
		body, err := b.do(ctx, statement, http.MethodDelete, query, nil)
		if err != nil {
			return nil, err
		}
		return db.CommitResult{AffectedRows: countRows(body), ExecutionTimeSec: time.Since(start).Seconds()}, nil

	default:
		return nil, fmt.Errorf("unsupported statement type: %T", statement)
	}
}

func (b *RESTBackend) filter(query url.Values, where *sql.Predicate, params []any) error {
	if where == nil {
		return nil
	}
	value, ok := where.Resolve(params)
	if !ok {
		return fmt.Errorf("%w: WHERE %s", sql.ErrMissingParam, where.Column)
	}
	if value == nil {
		query.Set(where.Column, "is.null")
		return nil
	}
	query.Set(where.Column, "eq."+core.AsString(value))
	return nil
}

func (b *RESTBackend) do(ctx context.Context, statement sql.Statement, method string, query url.Values, payload any) ([]byte, error) {
	endpoint := b.BaseURL + "/rest/v1/" + url.PathEscape(statement.TableName())
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, newError(b.Name(), statement, 0, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, newError(b.Name(), statement, 0, err)
	}
	req.Header.Set("apikey", b.APIKey)
	token := b.Token
	if token == "" {
		token = b.APIKey
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := b.Client.Do(req)
	if err != nil {
		return nil, newError(b.Name(), statement, 0, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newError(b.Name(), statement, resp.StatusCode, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newError(b.Name(), statement, resp.StatusCode, errors.New(errorMessage(data, resp.Status)))
	}
	return data, nil
}

// errorMessage pulls the message out of a PostgREST error body.
func errorMessage(body []byte, fallback string) string {
	for _, path := range []string{"message", "error_description", "error", "msg"} {
		if msg := gjson.GetBytes(body, path); msg.Exists() && msg.String() != "" {
			return msg.String()
		}
	}
	return fallback
}

func countRows(body []byte) int {
	result := gjson.ParseBytes(body)
	if !result.IsArray() {
		return 0
	}
	return len(result.Array())
}

// decodeRecords converts a JSON array of rows. Numbers keep their literal
// form and nested JSON is kept as serialized text, the way mock records
// carry JSON columns.
func decodeRecords(body []byte) []core.Record {
	records := []core.Record{}
	gjson.ParseBytes(body).ForEach(func(_, row gjson.Result) bool {
		if !row.IsObject() {
			return true
		}
		record := core.Record{}
		row.ForEach(func(key, value gjson.Result) bool {
			record[key.String()] = decodeValue(value)
			return true
		})
		records = append(records, record)
		return true
	})
	return records
}

func decodeValue(value gjson.Result) any {
	switch value.Type {
	case gjson.Null:
		return nil
	case gjson.True:
		return true
	case gjson.False:
		return false
	case gjson.Number:
		return json.Number(value.Raw)
	case gjson.String:
		return value.String()
	default:
		return value.Raw
	}
}
