package op

import (
	"errors"
	"time"

	"github.com/nickyhof/BotDesk/ps"
)

var ErrNoHistory = errors.New("store medium keeps no history")

// StoreOp wraps store-wide operations.
type StoreOp struct {
	Store *ps.CollectionStore
}

func GetStore(store *ps.CollectionStore) *StoreOp {
	return &StoreOp{Store: store}
}

// CollectionNames lists the collections currently present.
func (op *StoreOp) CollectionNames() ([]string, error) {
	return op.Store.Tables()
}

func (op *StoreOp) Clear() error {
	return op.Store.Clear()
}

func (op *StoreOp) history() (*ps.GitKV, error) {
	kv, ok := op.Store.KV().(*ps.GitKV)
	if !ok {
		return nil, ErrNoHistory
	}
	return kv, nil
}

// LatestTransaction returns the last write on a history-keeping medium.
func (op *StoreOp) LatestTransaction() (ps.Transaction, error) {
	kv, err := op.history()
	if err != nil {
		return ps.Transaction{}, err
	}
	return kv.LatestTransaction(), nil
}

func (op *StoreOp) TransactionsSince(asof time.Time) ([]ps.Transaction, error) {
	kv, err := op.history()
	if err != nil {
		return nil, err
	}
	return kv.TransactionsSince(asof)
}

// Restore rewinds every collection to asof.
func (op *StoreOp) Restore(asof ps.Transaction) (ps.Transaction, error) {
	kv, err := op.history()
	if err != nil {
		return ps.Transaction{}, err
	}
	return kv.Restore(asof)
}
