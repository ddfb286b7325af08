package op

import (
	"iter"

	"github.com/nickyhof/BotDesk/core"
	"github.com/nickyhof/BotDesk/ps"
)

// CollectionOp is one loaded copy of a table's collection. Changes are made
// to the copy and persisted as a whole.
type CollectionOp struct {
	Table   string
	Store   *ps.CollectionStore
	records []core.Record
}

// GetCollection loads the collection of table. A missing collection loads empty.
func GetCollection(table string, store *ps.CollectionStore) *CollectionOp {
	return &CollectionOp{
		Table:   table,
		Store:   store,
		records: store.Read(table),
	}
}

// Records returns the loaded records in insertion order.
func (op *CollectionOp) Records() []core.Record {
	return op.records
}

func (op *CollectionOp) Count() int {
	return len(op.records)
}

func (op *CollectionOp) Scan() iter.Seq2[int, core.Record] {
	return op.ScanWithFilter(nil)
}

func (op *CollectionOp) ScanWithFilter(filterExpr func(record core.Record) bool) iter.Seq2[int, core.Record] {
	return func(yield func(int, core.Record) bool) {
		for i, record := range op.records {
			if filterExpr != nil && !filterExpr(record) {
				continue
			}
			if !yield(i, record) {
				return
			}
		}
	}
}

// Where returns the records whose column equals value.
func (op *CollectionOp) Where(column string, value any) []core.Record {
	matches := []core.Record{}
	for _, record := range op.ScanWithFilter(matching(column, value)) {
		matches = append(matches, record)
	}
	return matches
}

// Append adds record to the end of the collection and persists it.
func (op *CollectionOp) Append(record core.Record) error {
	op.records = append(op.records, record)
	return op.Persist()
}

// UpdateWhere applies update to every record whose column equals value and
// returns how many matched. Nothing is persisted when nothing matched.
func (op *CollectionOp) UpdateWhere(column string, value any, update func(record core.Record)) (int, error) {
	matched := 0
	for i, record := range op.ScanWithFilter(matching(column, value)) {
		updated := record.Clone()
		update(updated)
		op.records[i] = updated
		matched++
	}
	if matched == 0 {
		return 0, nil
	}
	return matched, op.Persist()
}

// DeleteWhere removes the records whose column equals value and returns how
// many were removed. Nothing is persisted when nothing was removed.
func (op *CollectionOp) DeleteWhere(column string, value any) (int, error) {
	kept := make([]core.Record, 0, len(op.records))
	for _, record := range op.records {
		if !record.Matches(column, value) {
			kept = append(kept, record)
		}
	}
	removed := len(op.records) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	op.records = kept
	return removed, op.Persist()
}

// Replace swaps the whole collection and persists it.
func (op *CollectionOp) Replace(records []core.Record) error {
	op.records = records
	return op.Persist()
}

func (op *CollectionOp) Persist() error {
	return op.Store.Write(op.Table, op.records)
}

// Clear drops the collection.
func (op *CollectionOp) Clear() error {
	op.records = []core.Record{}
	return op.Store.ClearTable(op.Table)
}

func matching(column string, value any) func(core.Record) bool {
	return func(record core.Record) bool {
		return record.Matches(column, value)
	}
}
