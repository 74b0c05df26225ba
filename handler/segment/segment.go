// Package segment implements SegmentStreamHandler: sliding-window
// segment fetch on the consumer side, and payload segmentation with an
// optional per-segment signature manifest on the producer side.
package segment

import (
	"bytes"

	"github.com/named-data/cnl-go/cnlerr"
	"github.com/named-data/cnl-go/cnlsec"
	"github.com/named-data/cnl-go/namespace"
	"github.com/named-data/cnl-go/nsname"
	enc "github.com/named-data/ndnd/std/encoding"
	"github.com/named-data/ndnd/std/log"
	"github.com/named-data/ndnd/std/ndn"
	"github.com/named-data/ndnd/std/types/optional"
)

// Defaults mirror the sliding-window sizes used by segment-fetch
// pipelines elsewhere in the ecosystem: enough outstanding Interests to
// hide one round trip of latency without flooding a single producer.
const (
	DefaultInterestPipelineSize   = 8
	DefaultInitialInterestCount   = 1
	DefaultMaxSegmentPayloadLength = 8192
)

// OnSegment is called once per segment, strictly in segment-number order,
// as each becomes available (whether fetched from the network or handed
// directly to a locally attached producer node). isFinal is true on the
// call for the last segment (the one that carries FinalBlockId).
type OnSegment func(segmentNumber uint64, content []byte, isFinal bool)

// OnError is called when a fetch can no longer proceed for a reason that
// isn't a per-segment timeout or NACK, such as a first segment with no
// usable FinalBlockId.
type OnError func(err error)

// Handler drives one namespace subtree shaped like <name>/seg=0,
// <name>/seg=1, ... <name>/seg=N (FinalBlockId == N), and optionally a
// <name>/_manifest sibling carrying a per-segment digest manifest for
// consumers that want to validate the whole object before it is fully
// reassembled.
type Handler struct {
	node *namespace.Node

	InterestPipelineSize    int
	InitialInterestCount    int
	MaxSegmentPayloadLength int
	UseSignatureManifest    bool

	onSegment OnSegment
	onError   OnError

	maxReported       int64 // highest segment number delivered to onSegment, -1 = none
	final             int64 // FinalBlockId segment number, -1 = unknown
	outstanding       map[uint64]bool
	buffered          map[uint64][]byte
	fetching          bool
	manifestRequested bool
}

// New creates a detached segment stream handler. Attach it to a node
// with Node.SetHandler before calling FetchFrom or Publish.
func New() *Handler {
	return &Handler{
		InterestPipelineSize:    DefaultInterestPipelineSize,
		InitialInterestCount:    DefaultInitialInterestCount,
		MaxSegmentPayloadLength: DefaultMaxSegmentPayloadLength,
		maxReported:             -1,
		final:                   -1,
		outstanding:             make(map[uint64]bool),
		buffered:                make(map[uint64][]byte),
	}
}

// BoundNode implements namespace.Handler.
func (h *Handler) BoundNode() *namespace.Node { return h.node }

// Attach implements namespace.Handler.
func (h *Handler) Attach(node *namespace.Node) error {
	h.node = node
	return nil
}

// OnSegment registers the callback invoked as each segment arrives in
// order. Only one may be registered; a later call replaces the former,
// mirroring the design's "detach the callback once the object is
// reported" memory-discipline note - callers that no longer need
// updates simply call OnSegment(nil).
func (h *Handler) OnSegment(cb OnSegment) { h.onSegment = cb }

// OnError registers the callback invoked when fetching fails outside the
// ordinary per-segment timeout/NACK retry path. Only one may be
// registered; a later call replaces the former.
func (h *Handler) OnError(cb OnError) { h.onError = cb }

// FinalSegmentNumber reports the last segment number and whether it is
// known yet (learned from the first arriving segment's FinalBlockId, or
// set by Publish).
func (h *Handler) FinalSegmentNumber() (uint64, bool) {
	if h.final < 0 {
		return 0, false
	}
	return uint64(h.final), true
}

// FetchFrom starts (or resumes) pipelined fetching of h's segments,
// starting at InitialInterestCount outstanding Interests and growing the
// window as data arrives, capped at InterestPipelineSize.
func (h *Handler) FetchFrom(mustBeFresh bool) error {
	if h.node == nil {
		return cnlerr.ErrHandlerBoundElsewhere
	}
	if h.InterestPipelineSize < 0 || h.InitialInterestCount < 0 {
		return cnlerr.ErrNegativePipelineSize
	}
	h.fetching = true
	initial := h.InitialInterestCount
	if initial <= 0 {
		initial = DefaultInitialInterestCount
	}
	for i := int64(0); i < int64(initial); i++ {
		seg := uint64(h.maxReported + 1 + i)
		if h.final >= 0 && int64(seg) > h.final {
			break
		}
		h.requestSegment(seg, mustBeFresh)
	}
	return nil
}

func (h *Handler) requestSegment(seg uint64, mustBeFresh bool) {
	if h.outstanding[seg] {
		return
	}
	h.outstanding[seg] = true

	child := h.node.GetChildComponent(nsname.Segment(seg))
	id := child.OnStateChanged(func(_ *namespace.Node, changed *namespace.Node, state namespace.State) {
		if changed != child {
			return
		}
		switch state {
		case namespace.ObjectReady:
			h.onSegmentReady(child, seg, mustBeFresh)
		case namespace.InterestTimeout, namespace.InterestNetworkNack:
			delete(h.outstanding, seg)
			log.Warn("segment: giving up on segment", "name", child.Name(), "state", state)
		}
	})
	_ = id // the handler never removes this per-segment listener; it stays
	// registered on the child node, which remains in the tree.

	if err := child.ObjectNeeded(mustBeFresh); err != nil {
		log.Warn("segment: failed to request segment", "name", child.Name(), "err", err)
		delete(h.outstanding, seg)
	}
}

func (h *Handler) onSegmentReady(child *namespace.Node, seg uint64, mustBeFresh bool) {
	delete(h.outstanding, seg)
	data := child.Data()
	if data == nil {
		return
	}

	if h.final < 0 {
		if fb, ok := data.FinalBlockID().Get(); ok && nsname.IsSegment(fb) {
			h.final = int64(nsname.ToSegment(fb))
		} else if seg == 0 {
			h.fetching = false
			if h.onError != nil {
				h.onError(cnlerr.ErrNoFinalBlockId)
			}
			return
		}
	}

	if !h.manifestRequested && cnlsec.IsPlaceholderDigestSignature(data.Signature()) {
		h.manifestRequested = true
		manifestNode := h.node.GetChildComponent(nsname.ManifestComponent)
		if err := manifestNode.ObjectNeeded(mustBeFresh); err != nil {
			log.Warn("segment: failed to request manifest", "name", manifestNode.Name(), "err", err)
		}
	}

	content := data.Content().Join()
	h.buffered[seg] = content

	// Deliver in order, growing the reported watermark as far as the
	// buffer allows.
	for {
		next := uint64(h.maxReported + 1)
		buf, ok := h.buffered[next]
		if !ok {
			break
		}
		delete(h.buffered, next)
		h.maxReported = int64(next)
		isFinal := h.final >= 0 && int64(next) == h.final
		if h.onSegment != nil {
			h.onSegment(next, buf, isFinal)
		}
		if isFinal {
			h.fetching = false
			return
		}
	}

	h.growWindow(mustBeFresh)
}

func (h *Handler) growWindow(mustBeFresh bool) {
	if !h.fetching {
		return
	}
	pipeline := h.InterestPipelineSize
	if pipeline <= 0 {
		pipeline = DefaultInterestPipelineSize
	}
	next := uint64(h.maxReported + 1)
	for uint64(len(h.outstanding)) < uint64(pipeline) {
		if h.final >= 0 && int64(next) > h.final {
			break
		}
		if !h.outstanding[next] {
			h.requestSegment(next, mustBeFresh)
		}
		next++
	}
}

// digestLength is the size of a SHA-256 implicit digest, and so the
// stride of one entry in a _manifest's flat digest array.
const digestLength = 32

// Publish segments payload under h's node, setting FinalBlockId on
// every segment so consumers learn the object's length from the first
// segment they fetch. If UseSignatureManifest is set, it also publishes
// a _manifest carrying the concatenation of every segment's 32-byte
// implicit digest, in ascending segment order.
func (h *Handler) Publish(payload []byte) error {
	if h.node == nil {
		return cnlerr.ErrHandlerBoundElsewhere
	}
	maxLen := h.MaxSegmentPayloadLength
	if maxLen <= 0 {
		maxLen = DefaultMaxSegmentPayloadLength
	}

	nSegs := (len(payload) + maxLen - 1) / maxLen
	if nSegs == 0 {
		nSegs = 1
	}
	finalSeg := uint64(nSegs - 1)
	h.final = int64(finalSeg)

	digests := make([]byte, 0, nSegs*digestLength)
	for seg := 0; seg < nSegs; seg++ {
		start := seg * maxLen
		end := min(start+maxLen, len(payload))
		child := h.node.GetChildComponent(nsname.Segment(uint64(seg)))

		fb := nsname.Segment(finalSeg)
		child.SetNewDataMetaInfo(finalBlockConfig(fb))
		blob := namespace.Blob(payload[start:end])
		wire := enc.Wire{payload[start:end]}
		var err error
		if h.UseSignatureManifest {
			// Segments carry only a placeholder digest-only signature;
			// the _manifest packet below is the one that is actually
			// signed with the node's real KeyChain.
			err = child.SerializeObjectWithSigner(blob, wire, cnlsec.PlaceholderDigestSigner{})
		} else {
			err = child.SerializeObject(blob, wire)
		}
		if err != nil {
			return err
		}

		if h.UseSignatureManifest {
			digests = append(digests, digestOf(child.DataWire())...)
		}
	}

	if h.UseSignatureManifest {
		manifestNode := h.node.GetChildComponent(nsname.ManifestComponent)
		return manifestNode.SerializeObject(namespace.Blob(digests), enc.Wire{digests})
	}
	return nil
}

// VerifyWithManifest checks that the digest of each already-fetched
// segment child under node matches the corresponding entry of a
// _manifest previously fetched into manifest: the flat concatenation of
// every segment's 32-byte implicit digest, in ascending segment order.
// It is meant to run once the manifest and at least the first segment
// are in hand; callers typically call it from an OnObjectNeeded/
// OnStateChanged hook on the _manifest child.
func VerifyWithManifest(node *namespace.Node, manifest []byte) error {
	if len(manifest)%digestLength != 0 {
		return cnlerr.ErrInvalidManifest
	}
	for seg := 0; seg*digestLength < len(manifest); seg++ {
		child := node.GetChildComponent(nsname.Segment(uint64(seg)))
		data := child.Data()
		if data == nil {
			continue // not fetched yet, nothing to check
		}
		wantDigest := manifest[seg*digestLength : (seg+1)*digestLength]
		gotDigest := digestOf(child.DataWire())
		if !bytes.Equal(wantDigest, gotDigest) {
			return cnlerr.ErrInvalidManifest
		}
	}
	return nil
}

// digestOf computes the raw 32-byte implicit SHA-256 digest of an
// encoded Data packet, the same value NDN forwarders and stores use to
// name it uniquely.
func digestOf(wire enc.Wire) []byte {
	full := enc.Name{}.ToFullName(wire)
	return full[len(full)-1].Val
}

func finalBlockConfig(fb enc.Component) *ndn.DataConfig {
	return &ndn.DataConfig{FinalBlockID: optional.Some(fb)}
}
