package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

// excludedHeaders are left out of the request signature so that credentials never end up in cache keys
var excludedHeaders = map[string]struct{}{
	"Authorization": {},
	"Private-Token": {},
	"X-Api-Key":     {},
	"Cookie":        {},
}

// Signature identifies a request for caching purposes
type Signature struct {
	Method  string
	URL     string
	Headers http.Header
	Body    string
}

// Key returns the normalized cache key of the signature
func (s Signature) Key() string {
	names := make([]string, 0, len(s.Headers))
	for name := range s.Headers {
		canonical := http.CanonicalHeaderKey(name)
		if _, excluded := excludedHeaders[canonical]; excluded {
			continue
		}
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return http.CanonicalHeaderKey(names[i]) < http.CanonicalHeaderKey(names[j])
	})

	h := sha256.New()
	writeField(h, strings.ToUpper(s.Method))
	writeField(h, s.URL)
	for _, name := range names {
		writeField(h, http.CanonicalHeaderKey(name)+":"+strings.Join(s.Headers[name], ","))
	}
	writeField(h, s.Body)

	return hex.EncodeToString(h.Sum(nil))
}

func writeField(w interface{ Write([]byte) (int, error) }, field string) {
	_, _ = w.Write([]byte(field))
	_, _ = w.Write([]byte{0})
}

// Response is the raw payload of a fetched request
type Response struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}

type entry struct {
	response  Response
	fetchedAt time.Time
}

type responseCache struct {
	mut     sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

// NewResponseCache creates an empty response cache. Entries expire lazily, on read.
func NewResponseCache() *responseCache {
	return &responseCache{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// GetOrFetch returns the cached response for the signature if it was fetched less than ttl ago, otherwise it
// calls fetch and caches the result. Failed fetches are not cached. The lock is not held while fetching, so
// concurrent misses for the same signature may all fetch.
func (rc *responseCache) GetOrFetch(signature Signature, ttl time.Duration, fetch func() (Response, error)) (Response, error) {
	key := signature.Key()

	rc.mut.RLock()
	cached, found := rc.entries[key]
	rc.mut.RUnlock()

	if found && rc.now().Sub(cached.fetchedAt) < ttl {
		return cached.response, nil
	}

	response, err := fetch()
	if err != nil {
		return Response{}, err
	}

	rc.mut.Lock()
	rc.entries[key] = entry{
		response:  response,
		fetchedAt: rc.now(),
	}
	rc.mut.Unlock()

	return response, nil
}

// Len returns the number of cached entries, including expired ones
func (rc *responseCache) Len() int {
	rc.mut.RLock()
	defer rc.mut.RUnlock()

	return len(rc.entries)
}

// IsInterfaceNil returns true if the value under the interface is nil
func (rc *responseCache) IsInterfaceNil() bool {
	return rc == nil
}
