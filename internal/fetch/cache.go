// Package fetch provides the rate-limited HTTP client and the disk
// cache that back every source provider.
//
// Pages are cached as plain files keyed by host and path, so a cache
// directory can be inspected and pruned with ordinary shell tools.
// Staleness is judged from file modification time against a Policy.
package fetch

import (
	"crypto/md5"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Policy decides whether a cached copy may satisfy a fetch.
type Policy struct {
	maxAge  time.Duration
	noStore bool
}

// Forever accepts a cached copy of any age. Historical pages never
// change, so once fetched they are never fetched again.
var Forever = Policy{}

// NoStore bypasses the cache in both directions: always refetch,
// never write.
var NoStore = Policy{noStore: true}

// MaxAge accepts a cached copy written within d.
func MaxAge(d time.Duration) Policy {
	return Policy{maxAge: d}
}

// SameDay is the common policy for in-season pages that gain rows
// daily but rarely change within a day.
var SameDay = MaxAge(24 * time.Hour)

func (p Policy) usable(age time.Duration) bool {
	if p.noStore {
		return false
	}
	return p.maxAge == 0 || age <= p.maxAge
}

// Cache is a directory of fetched pages.
type Cache struct {
	dir string
}

// NewCache opens a cache rooted at dir, creating it if needed.
func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Cache{dir: dir}, nil
}

// Dir returns the cache root.
func (c *Cache) Dir() string {
	return c.dir
}

// Get returns the cached page for u if one exists and the policy
// accepts its age.
func (c *Cache) Get(u *url.URL, p Policy) ([]byte, bool) {
	path := c.entryPath(u)
	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	if !p.usable(time.Since(info.ModTime())) {
		return nil, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return data, true
}

// Put stores a fetched page. The write goes through a temp file so a
// crashed run never leaves a truncated entry behind.
func (c *Cache) Put(u *url.URL, data []byte) error {
	path := c.entryPath(u)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create cache host dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".fetch-*")
	if err != nil {
		return fmt.Errorf("create cache temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close cache entry: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("store cache entry: %w", err)
	}
	return nil
}

// entryPath maps a URL to its file. The path keeps the host visible
// and flattens the rest; query strings are hashed so equivalent
// requests share an entry without unsafe characters in the name.
func (c *Cache) entryPath(u *url.URL) string {
	name := sanitize(u.Path)
	if name == "" {
		name = "index"
	}
	if u.RawQuery != "" {
		sum := md5.Sum([]byte(u.RawQuery))
		name += fmt.Sprintf("_q%x", sum[:6])
	}
	return filepath.Join(c.dir, sanitize(u.Hostname()), name)
}

func sanitize(s string) string {
	s = strings.Trim(s, "/")
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == '/':
			b.WriteByte('_')
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}
