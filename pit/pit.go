// Package pit implements the pending-interest table: unmatched incoming
// Interests held at a producer until a matching Data is attached, or
// until they expire.
package pit

import (
	"time"

	enc "github.com/named-data/ndnd/std/encoding"
	"github.com/named-data/ndnd/std/log"
	"github.com/named-data/ndnd/std/ndn"
)

// Entry is one buffered incoming Interest.
type Entry struct {
	Interest ndn.Interest
	Reply    ndn.WireReplyFunc
	// Deadline is the absolute time after which the entry is dropped
	// without being satisfied. The zero Time means "never expires".
	Deadline time.Time
}

func (e *Entry) expired(now time.Time) bool {
	return !e.Deadline.IsZero() && now.After(e.Deadline)
}

// MatchFunc decides whether data satisfies interest. The default is
// DefaultMatch; namespace nodes may install a stricter one (e.g. one
// that also checks a node's freshness deadline).
type MatchFunc func(interest ndn.Interest, data ndn.Data) bool

// DefaultMatch implements the ordinary NDN Interest/Data matching rule
// used for pending-interest satisfaction: the Interest name must be a
// prefix of the Data name (or equal, when CanBePrefix is false), and
// MustBeFresh Interests only match Data with a positive freshness
// period. It does not evaluate a node's live freshness deadline - that
// is the caller's job, since only the caller knows "now" relative to
// when the Data was received.
func DefaultMatch(interest ndn.Interest, data ndn.Data) bool {
	name := interest.Name()
	dname := data.Name()

	// Strip a trailing implicit digest, if present, before comparing.
	if len(name) > 0 && name[len(name)-1].Typ == enc.TypeImplicitSha256DigestComponent {
		name = name[:len(name)-1]
	}

	if interest.CanBePrefix() {
		if !name.IsPrefix(dname) {
			return false
		}
	} else if !name.Equal(dname) {
		return false
	}

	if interest.MustBeFresh() {
		fresh, ok := data.Freshness().Get()
		if !ok || fresh <= 0 {
			return false
		}
	}

	return true
}

// Table is the pending-interest table living at a namespace tree's root.
// Consulted exactly once per SetData, before any onStateChanged callback
// fires, so that outstanding Interests observe fresh Data with minimum
// latency.
type Table struct {
	// Match overrides the matching predicate; defaults to DefaultMatch
	// if left nil.
	Match MatchFunc

	entries []*Entry
}

// New creates an empty pending-interest table.
func New() *Table {
	return &Table{}
}

// Add appends a pending entry for interest, to be satisfied by reply
// once matching Data is set, or dropped at deadline.
func (t *Table) Add(interest ndn.Interest, reply ndn.WireReplyFunc, deadline time.Time) {
	t.entries = append(t.entries, &Entry{Interest: interest, Reply: reply, Deadline: deadline})
}

// Len reports the number of entries currently pending (including
// entries that would be dropped as expired on the next Satisfy/Prune
// call).
func (t *Table) Len() int { return len(t.entries) }

// Satisfy walks the table in reverse - newest first, matching the
// producer preference for satisfying the most recently expressed
// Interest - drops expired entries, and sends data on the face of every
// remaining entry whose Interest matches it. Matched entries are
// removed. Errors sending are logged and the entry is removed anyway:
// a delivery failure is not grounds for redelivery here.
func (t *Table) Satisfy(data ndn.Data, wire enc.Wire, now time.Time) {
	match := t.Match
	if match == nil {
		match = DefaultMatch
	}

	kept := make([]*Entry, 0, len(t.entries))
	for i := len(t.entries) - 1; i >= 0; i-- {
		e := t.entries[i]
		if e.expired(now) {
			continue
		}
		if !match(e.Interest, data) {
			kept = append(kept, e)
			continue
		}
		if err := e.Reply(wire); err != nil {
			log.Warn("pit: failed to reply to pending interest", "name", e.Interest.Name(), "err", err)
		}
	}

	// kept was built newest-first; restore original relative order.
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	t.entries = kept
}

// Prune drops expired entries without attempting to satisfy anything.
// Callers may run this periodically to bound memory use even if no more
// Data ever arrives for a stale prefix.
func (t *Table) Prune(now time.Time) {
	kept := t.entries[:0]
	for _, e := range t.entries {
		if !e.expired(now) {
			kept = append(kept, e)
		}
	}
	t.entries = kept
}
