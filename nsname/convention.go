// Package nsname holds the naming conventions shared by every handler in
// this module: the well-known "_meta", "_manifest" and "_latest" generic
// components, and the segment/sequence-number accessors the tree and
// handlers use to recognize the children they manage. Keeping this in one
// place is what stops producer and consumer code paths from drifting
// apart on the wire format, as namespace.md's design notes call for.
package nsname

import (
	enc "github.com/named-data/ndnd/std/encoding"
)

// MetaComponent is the "_meta" child of a generalized object namespace.
var MetaComponent = enc.NewStringComponent(enc.TypeGenericNameComponent, "_meta")

// ManifestComponent is the "_manifest" child carrying segment digests.
var ManifestComponent = enc.NewStringComponent(enc.TypeGenericNameComponent, "_manifest")

// LatestComponent is the "_latest" child of a generalized-object-stream
// namespace, carrying a DelegationSet pointing at the current top sequence.
var LatestComponent = enc.NewStringComponent(enc.TypeGenericNameComponent, "_latest")

// IsMeta reports whether c is the "_meta" generic component.
func IsMeta(c enc.Component) bool { return c.Equal(MetaComponent) }

// IsManifest reports whether c is the "_manifest" generic component.
func IsManifest(c enc.Component) bool { return c.Equal(ManifestComponent) }

// IsLatest reports whether c is the "_latest" generic component.
func IsLatest(c enc.Component) bool { return c.Equal(LatestComponent) }

// Segment builds a "segment=n" component using the NDN segment-number
// component-type convention.
func Segment(n uint64) enc.Component {
	return enc.NewSegmentComponent(n)
}

// IsSegment reports whether c is a segment-number component.
func IsSegment(c enc.Component) bool {
	return c.Typ == enc.TypeSegmentNameComponent
}

// ToSegment returns the segment number encoded by c. The caller must
// check IsSegment first.
func ToSegment(c enc.Component) uint64 {
	return c.NumberVal()
}

// SeqNum builds a "seq=n" component using the NDN sequence-number
// component-type convention.
func SeqNum(n uint64) enc.Component {
	return enc.NewSequenceNumComponent(n)
}

// IsSeqNum reports whether c is a sequence-number component.
func IsSeqNum(c enc.Component) bool {
	return c.Typ == enc.TypeSequenceNumNameComponent
}

// ToSeqNum returns the sequence number encoded by c. The caller must
// check IsSeqNum first.
func ToSeqNum(c enc.Component) uint64 {
	return c.NumberVal()
}

// Successor returns the immediate lexicographic successor of c, used
// when the tree needs to name "one past" a component (e.g. computing the
// exclusive upper bound of a range). It increments the value as a
// big-endian byte string, growing on overflow, matching the convention
// NDN's Name::getSuccessor uses for a single component.
func Successor(c enc.Component) enc.Component {
	val := append([]byte(nil), c.Val...)
	for i := len(val) - 1; i >= 0; i-- {
		if val[i] < 0xff {
			val[i]++
			return enc.Component{Typ: c.Typ, Val: val}
		}
		val[i] = 0
	}
	// All bytes were 0xff (or the component was empty): grow by one byte.
	return enc.Component{Typ: c.Typ, Val: append([]byte{0x00}, val...)}
}
