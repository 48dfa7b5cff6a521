package keyset

import (
	"context"
	"errors"
	"time"
)

// ErrEntryNotFound is returned by a Store that holds nothing for a URI.
var ErrEntryNotFound = errors.New("keyset: entry not found")

// Entry is what a Store keeps for one key set URI: the raw document
// as served, its validator and the instant it stops being fresh.
type Entry struct {
	Body    []byte    `json:"body"`
	ETag    string    `json:"etag,omitempty"`
	Expires time.Time `json:"expires"`
}

// Store is a second tier shared between Cache instances, typically one per
// replica, so a key rotation costs one fetch for the whole fleet.
//
// The Cache consults it when its own entry is not fresh, before going to
// the network, and saves every fetched document that came with a freshness
// bound. Store failures are logged, never returned from Get.
type Store interface {
	Load(ctx context.Context, uri string) (*Entry, error)
	Save(ctx context.Context, uri string, entry *Entry) error
}
