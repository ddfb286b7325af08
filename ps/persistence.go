package ps

import (
	"net/url"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v6/memfs"
	"github.com/go-git/go-billy/v6/osfs"
	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing/cache"
	"github.com/go-git/go-git/v6/storage/filesystem"
	"github.com/go-git/go-git/v6/storage/memory"
	"github.com/nickyhof/BotDesk/core"
)

const keySuffix = ".json"

// DefaultIdentity authors commits when the caller does not supply one.
var DefaultIdentity = core.Identity{Name: "BotDesk", Email: "store@botdesk.local"}

// GitKV is a KV where every write is a git commit. Values are blobs at the
// root of the tree, one file per key, and reads go straight to the HEAD tree.
type GitKV struct {
	repo     *git.Repository
	identity core.Identity
	mu       sync.RWMutex
}

// IsInitialized returns true if the store has an open repository
func (p *GitKV) IsInitialized() bool {
	return p != nil && p.repo != nil
}

func (p *GitKV) ensureInitialized() error {
	if !p.IsInitialized() {
		return ErrNotInitialized
	}
	return nil
}

// NewMemoryGitKV opens a git-backed store kept entirely in memory.
func NewMemoryGitKV(identity core.Identity) (*GitKV, error) {
	wt := memfs.New()
	storer := memory.NewStorage()

	repo, err := git.Init(storer, git.WithWorkTree(wt))
	if err != nil {
		return nil, err
	}

	return &GitKV{repo: repo, identity: identity}, nil
}

// NewFileGitKV opens (or initializes) a git-backed store under baseDir.
func NewFileGitKV(baseDir string, identity core.Identity) (*GitKV, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}

	wt := osfs.New(baseDir)
	fs, err := wt.Chroot(".git")
	if err != nil {
		return nil, err
	}

	storer := filesystem.NewStorageWithOptions(
		fs,
		cache.NewObjectLRUDefault(),
		filesystem.Options{ExclusiveAccess: true})

	var repo *git.Repository
	if _, statErr := os.Stat(fs.Root()); statErr != nil {
		repo, err = git.Init(storer, git.WithWorkTree(wt))
	} else {
		repo, err = git.Open(storer, wt)
	}
	if err != nil {
		return nil, err
	}

	return &GitKV{repo: repo, identity: identity}, nil
}

func keyFile(key string) string {
	return url.PathEscape(key) + keySuffix
}

func fileKey(name string) (string, bool) {
	if !strings.HasSuffix(name, keySuffix) {
		return "", false
	}
	key, err := url.PathUnescape(strings.TrimSuffix(name, keySuffix))
	if err != nil {
		return "", false
	}
	return key, true
}

func (p *GitKV) Get(key string) ([]byte, bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if err := p.ensureInitialized(); err != nil {
		return nil, false, err
	}
	return p.readFile(keyFile(key))
}

func (p *GitKV) Set(key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ensureInitialized(); err != nil {
		return err
	}
	_, err := p.writeFile(keyFile(key), value, "Writing "+key)
	return err
}

func (p *GitKV) Delete(key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ensureInitialized(); err != nil {
		return err
	}
	_, err := p.deleteFile(keyFile(key), "Deleting "+key)
	return err
}

func (p *GitKV) Keys() ([]string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if err := p.ensureInitialized(); err != nil {
		return nil, err
	}
	names, err := p.listFiles()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(names))
	for _, name := range names {
		if key, ok := fileKey(name); ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (p *GitKV) Clear() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ensureInitialized(); err != nil {
		return err
	}
	_, err := p.clearTree("Clearing store")
	return err
}

func (p *GitKV) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.repo = nil
	return nil
}
