package cache

import (
	"net/http"
	"time"
)

// Entry is one stored response, keyed by URL within a bucket.
type Entry struct {
	URL      string
	Status   int
	Header   http.Header
	Body     []byte
	StoredAt time.Time
}

// BucketStats summarises one bucket.
type BucketStats struct {
	Name      string
	Entries   int
	Bytes     int64
	CreatedAt time.Time
}
