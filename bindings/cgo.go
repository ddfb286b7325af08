// Package main builds a C shared library exposing the textual query interface.
package main

/*
#include <stdlib.h>
*/
import "C"
import (
	"bytes"
	"context"
	"sync"
	"unsafe"

	"github.com/goccy/go-json"
	"github.com/nickyhof/BotDesk"
	"github.com/nickyhof/BotDesk/db"
)

var (
	mu         sync.Mutex
	handles    = make(map[int]*BotDesk.Instance)
	nextHandle = 1
)

// Response mirrors the server protocol.
type Response struct {
	Success bool             `json:"success"`
	Error   string           `json:"error,omitempty"`
	Type    string           `json:"type,omitempty"`
	Rows    []map[string]any `json:"rows,omitempty"`
	TimeMs  float64          `json:"time_ms"`
}

func open(cfg BotDesk.Config) C.int {
	cfg.Offline = true
	cfg.LogLevel = "warn"
	instance, err := BotDesk.Open(context.Background(), cfg)
	if err != nil {
		return -1
	}

	mu.Lock()
	defer mu.Unlock()
	handle := nextHandle
	nextHandle++
	handles[handle] = instance
	return C.int(handle)
}

//export botdesk_open_memory
func botdesk_open_memory() C.int {
	return open(BotDesk.Config{Store: BotDesk.StoreMemory})
}

//export botdesk_open_git
func botdesk_open_git(path *C.char) C.int {
	return open(BotDesk.Config{Store: BotDesk.StoreGit, BaseDir: C.GoString(path)})
}

//export botdesk_close
func botdesk_close(handle C.int) {
	mu.Lock()
	instance, ok := handles[int(handle)]
	delete(handles, int(handle))
	mu.Unlock()

	if ok {
		instance.Close()
	}
}

// botdesk_query runs query with params, a JSON array or NULL, and returns a
// JSON response the caller releases with botdesk_free.
//
//export botdesk_query
func botdesk_query(handle C.int, query *C.char, params *C.char) *C.char {
	mu.Lock()
	instance, ok := handles[int(handle)]
	mu.Unlock()
	if !ok {
		return makeErrorResponse("invalid handle")
	}

	var values []any
	if params != nil {
		dec := json.NewDecoder(bytes.NewReader([]byte(C.GoString(params))))
		dec.UseNumber()
		if err := dec.Decode(&values); err != nil {
			return makeErrorResponse("params must be a JSON array: " + err.Error())
		}
	}

	result, err := instance.Engine.Query(C.GoString(query), values...)
	if err != nil {
		return makeErrorResponse(err.Error())
	}

	resp := Response{
		Success: true,
		Type:    result.Type().String(),
	}
	for _, row := range result.Rows() {
		resp.Rows = append(resp.Rows, row)
	}
	switch r := result.(type) {
	case db.QueryResult:
		resp.TimeMs = r.ExecutionTimeSec * 1000
	case db.InsertResult:
		resp.TimeMs = r.ExecutionTimeSec * 1000
	case db.CommitResult:
		resp.TimeMs = r.ExecutionTimeSec * 1000
	}

	jsonData, _ := json.Marshal(resp)
	return C.CString(string(jsonData))
}

//export botdesk_free
func botdesk_free(ptr *C.char) {
	C.free(unsafe.Pointer(ptr))
}

func makeErrorResponse(msg string) *C.char {
	resp := Response{
		Success: false,
		Error:   msg,
	}
	jsonData, _ := json.Marshal(resp)
	return C.CString(string(jsonData))
}

func main() {}
