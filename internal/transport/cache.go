package transport

import (
	"crypto/sha1"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

// DefaultCacheTTL is how long a cached response stays valid.
const DefaultCacheTTL = 24 * time.Hour

func init() {
	gob.Register(Response{})
}

// Cache holds successful responses keyed by request. It is safe for
// concurrent use and may be shared between clients.
type Cache struct {
	store *cache.Cache
}

// NewCache creates an in-memory cache.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{store: cache.New(ttl, 10*time.Minute)}
}

// Load merges entries previously written by Save. A missing file is not an error.
func (c *Cache) Load(path string) error {
	err := c.store.LoadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Save writes unexpired entries to path.
func (c *Cache) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return c.store.SaveFile(path)
}

// Len returns the number of cached responses.
func (c *Cache) Len() int {
	return c.store.ItemCount()
}

func (c *Cache) get(key string) (*Response, bool) {
	v, ok := c.store.Get(key)
	if !ok {
		return nil, false
	}
	resp, ok := v.(Response)
	if !ok {
		return nil, false
	}
	resp.Body = slices.Clone(resp.Body)
	return &resp, true
}

func (c *Cache) set(key string, resp *Response) {
	c.store.Set(key, Response{Status: resp.Status, Body: slices.Clone(resp.Body)}, cache.DefaultExpiration)
}

func cacheKey(method, url string, body []byte, headers map[string]string) string {
	h := sha1.New()
	h.Write([]byte(method + " " + url + "\n"))
	h.Write(body)

	// Accept-Language changes the payload; credentials do not.
	keys := make([]string, 0, len(headers))
	for k := range headers {
		if strings.EqualFold(k, "Authorization") {
			continue
		}
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		h.Write([]byte("\n" + strings.ToLower(k) + ":" + headers[k]))
	}
	return hex.EncodeToString(h.Sum(nil))
}
