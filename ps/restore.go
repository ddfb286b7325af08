package ps

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v6/plumbing"
)

var ErrNoHistory = errors.New("store has no commits")

// Snapshot tags asof (or HEAD when asof is nil) under name.
func (p *GitKV) Snapshot(name string, asof *Transaction) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ensureInitialized(); err != nil {
		return err
	}

	if asof != nil {
		_, err := p.repo.CreateTag(name, plumbing.NewHash(asof.Id), nil)
		return err
	}

	headRef, err := p.repo.Head()
	if err != nil {
		return ErrNoHistory
	}
	_, err = p.repo.CreateTag(name, headRef.Hash(), nil)
	return err
}

// Recover restores the store to the snapshot tagged name.
func (p *GitKV) Recover(name string) (Transaction, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ensureInitialized(); err != nil {
		return Transaction{}, err
	}

	ref, err := p.repo.Tag(name)
	if err != nil {
		return Transaction{}, fmt.Errorf("snapshot %s: %w", name, err)
	}
	return p.restore(ref.Hash(), "Recovering snapshot "+name)
}

// Restore commits the tree of asof on top of HEAD. History is kept, so a
// restore can itself be undone.
func (p *GitKV) Restore(asof Transaction) (Transaction, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ensureInitialized(); err != nil {
		return Transaction{}, err
	}
	return p.restore(plumbing.NewHash(asof.Id), "Restoring "+asof.Id)
}

func (p *GitKV) restore(hash plumbing.Hash, message string) (Transaction, error) {
	commit, err := p.repo.CommitObject(hash)
	if err != nil {
		return Transaction{}, fmt.Errorf("failed to get commit %s: %w", hash, err)
	}
	return p.commitTree(commit.TreeHash, message)
}
