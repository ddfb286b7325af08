package db

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/mattn/go-isatty"
	"github.com/nickyhof/BotDesk/core"
	"github.com/tidwall/pretty"
)

type ResultType int

const (
	QueryResultType ResultType = iota
	InsertResultType
	CommitResultType
)

func (t ResultType) String() string {
	switch t {
	case InsertResultType:
		return "insert"
	case CommitResultType:
		return "commit"
	default:
		return "query"
	}
}

// Result is the envelope every statement returns. Rows is the sequence the
// textual query interface hands back: selected records, [{insertId}] or
// [{affectedRows}].
type Result interface {
	Type() ResultType
	Rows() []core.Record
	Display()
}

type QueryResult struct {
	Records          []core.Record
	ExecutionTimeSec float64
}

type InsertResult struct {
	InsertID         any
	ExecutionTimeSec float64
}

type CommitResult struct {
	AffectedRows     int
	ExecutionTimeSec float64
}

func (result QueryResult) Type() ResultType {
	return QueryResultType
}

func (result InsertResult) Type() ResultType {
	return InsertResultType
}

func (result CommitResult) Type() ResultType {
	return CommitResultType
}

func (result QueryResult) Rows() []core.Record {
	if result.Records == nil {
		return []core.Record{}
	}
	return result.Records
}

func (result InsertResult) Rows() []core.Record {
	return []core.Record{{"insertId": result.InsertID}}
}

func (result CommitResult) Rows() []core.Record {
	return []core.Record{{"affectedRows": result.AffectedRows}}
}

// formatDuration formats a duration in human-readable form
func formatDuration(secs float64) string {
	switch {
	case secs < 0.001:
		return "<1ms"
	case secs < 1:
		ms := secs * 1000
		if ms < 10 {
			return fmt.Sprintf("%.1fms", ms)
		}
		return fmt.Sprintf("%dms", int(ms))
	case secs < 60:
		if secs < 10 {
			return fmt.Sprintf("%.1fs", secs)
		}
		return fmt.Sprintf("%ds", int(secs))
	default:
		mins := int(secs / 60)
		remainSecs := int(secs) % 60
		if remainSecs == 0 {
			return fmt.Sprintf("%dm", mins)
		}
		return fmt.Sprintf("%dm%ds", mins, remainSecs)
	}
}

func (result QueryResult) ExecutionTime() string {
	return formatDuration(result.ExecutionTimeSec)
}

func (result InsertResult) ExecutionTime() string {
	return formatDuration(result.ExecutionTimeSec)
}

func (result CommitResult) ExecutionTime() string {
	return formatDuration(result.ExecutionTimeSec)
}

func (result QueryResult) Display() {
	result.DisplayTo(os.Stdout)
}

// DisplayTo prints the records as indented JSON followed by a stats line.
// Output is colored when w is a terminal.
func (result QueryResult) DisplayTo(w io.Writer) {
	if len(result.Records) > 0 {
		data, err := json.Marshal(result.Records)
		if err == nil {
			out := pretty.Pretty(data)
			if isTerminal(w) {
				out = pretty.Color(out, nil)
			}
			w.Write(out)
		}
	}
	fmt.Fprintf(w, "%d rows (%s)\n", len(result.Records), result.ExecutionTime())
}

func (result InsertResult) Display() {
	result.DisplayTo(os.Stdout)
}

func (result InsertResult) DisplayTo(w io.Writer) {
	fmt.Fprintf(w, "1 record inserted, id %s (%s)\n", core.AsString(result.InsertID), result.ExecutionTime())
}

func (result CommitResult) Display() {
	result.DisplayTo(os.Stdout)
}

func (result CommitResult) DisplayTo(w io.Writer) {
	if result.AffectedRows == 0 {
		fmt.Fprintf(w, "OK (%s)\n", result.ExecutionTime())
		return
	}
	fmt.Fprintf(w, "%d record(s) affected (%s)\n", result.AffectedRows, result.ExecutionTime())
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
