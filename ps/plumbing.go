package ps

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/filemode"
	"github.com/go-git/go-git/v6/plumbing/object"
)

// createBlob creates a blob object directly in the object store without filesystem I/O
func (p *GitKV) createBlob(data []byte) (plumbing.Hash, error) {
	obj := p.repo.Storer.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	obj.SetSize(int64(len(data)))

	writer, err := obj.Writer()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to create blob writer: %w", err)
	}

	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return plumbing.ZeroHash, fmt.Errorf("failed to write blob data: %w", err)
	}
	writer.Close()

	hash, err := p.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to store blob: %w", err)
	}

	return hash, nil
}

// headTree returns the tree of the HEAD commit, or nil when nothing was committed yet.
func (p *GitKV) headTree() (*object.Tree, error) {
	headRef, err := p.repo.Head()
	if err != nil {
		return nil, nil
	}

	commit, err := p.repo.CommitObject(headRef.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to get head commit: %w", err)
	}

	return commit.Tree()
}

// headEntries returns the root entries of the HEAD tree keyed by name.
func (p *GitKV) headEntries() (map[string]object.TreeEntry, error) {
	entries := make(map[string]object.TreeEntry)

	tree, err := p.headTree()
	if err != nil || tree == nil {
		return entries, err
	}

	for _, entry := range tree.Entries {
		entries[entry.Name] = entry
	}
	return entries, nil
}

// storeTree encodes the entries as a tree object. Git requires entries sorted by name.
func (p *GitKV) storeTree(entries map[string]object.TreeEntry) (plumbing.Hash, error) {
	list := make([]object.TreeEntry, 0, len(entries))
	for _, entry := range entries {
		list = append(list, entry)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name < list[j].Name
	})

	tree := &object.Tree{Entries: list}
	obj := p.repo.Storer.NewEncodedObject()
	if err := tree.Encode(obj); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to encode tree: %w", err)
	}

	hash, err := p.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to store tree: %w", err)
	}
	return hash, nil
}

// commitTree creates a commit for treeHash on top of HEAD and moves the branch to it.
func (p *GitKV) commitTree(treeHash plumbing.Hash, message string) (Transaction, error) {
	var parentHashes []plumbing.Hash
	headRef, err := p.repo.Head()
	if err == nil {
		parentHashes = []plumbing.Hash{headRef.Hash()}
	}

	sig := object.Signature{
		Name:  p.identity.Name,
		Email: p.identity.Email,
		When:  time.Now(),
	}

	commit := &object.Commit{
		Author:       sig,
		Committer:    sig,
		Message:      message,
		TreeHash:     treeHash,
		ParentHashes: parentHashes,
	}

	obj := p.repo.Storer.NewEncodedObject()
	if err := commit.Encode(obj); err != nil {
		return Transaction{}, fmt.Errorf("failed to encode commit: %w", err)
	}

	commitHash, err := p.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return Transaction{}, fmt.Errorf("failed to store commit: %w", err)
	}

	branchName := plumbing.Master
	if headRef != nil && headRef.Name().IsBranch() {
		branchName = headRef.Name()
	}

	ref := plumbing.NewHashReference(branchName, commitHash)
	if err := p.repo.Storer.SetReference(ref); err != nil {
		return Transaction{}, fmt.Errorf("failed to update HEAD: %w", err)
	}

	return Transaction{
		Id:     commitHash.String(),
		When:   sig.When,
		Author: fmt.Sprintf("%s <%s>", sig.Name, sig.Email),
	}, nil
}

func (p *GitKV) readFile(name string) ([]byte, bool, error) {
	tree, err := p.headTree()
	if err != nil {
		return nil, false, err
	}
	if tree == nil {
		return nil, false, nil
	}

	file, err := tree.File(name)
	if errors.Is(err, object.ErrFileNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to find %s: %w", name, err)
	}

	content, err := file.Contents()
	if err != nil {
		return nil, false, fmt.Errorf("failed to read contents: %w", err)
	}
	return []byte(content), true, nil
}

func (p *GitKV) writeFile(name string, data []byte, message string) (Transaction, error) {
	entries, err := p.headEntries()
	if err != nil {
		return Transaction{}, err
	}

	blobHash, err := p.createBlob(data)
	if err != nil {
		return Transaction{}, err
	}
	entries[name] = object.TreeEntry{Name: name, Mode: filemode.Regular, Hash: blobHash}

	treeHash, err := p.storeTree(entries)
	if err != nil {
		return Transaction{}, err
	}
	return p.commitTree(treeHash, message)
}

// deleteFile removes name from the tree. A missing file produces no commit.
func (p *GitKV) deleteFile(name string, message string) (Transaction, error) {
	entries, err := p.headEntries()
	if err != nil {
		return Transaction{}, err
	}
	if _, ok := entries[name]; !ok {
		return Transaction{}, nil
	}
	delete(entries, name)

	treeHash, err := p.storeTree(entries)
	if err != nil {
		return Transaction{}, err
	}
	return p.commitTree(treeHash, message)
}

func (p *GitKV) clearTree(message string) (Transaction, error) {
	entries, err := p.headEntries()
	if err != nil {
		return Transaction{}, err
	}
	if len(entries) == 0 {
		return Transaction{}, nil
	}

	treeHash, err := p.storeTree(map[string]object.TreeEntry{})
	if err != nil {
		return Transaction{}, err
	}
	return p.commitTree(treeHash, message)
}

func (p *GitKV) listFiles() ([]string, error) {
	tree, err := p.headTree()
	if err != nil || tree == nil {
		return nil, err
	}

	var names []string
	for _, entry := range tree.Entries {
		if entry.Mode != filemode.Dir {
			names = append(names, entry.Name)
		}
	}
	return names, nil
}
