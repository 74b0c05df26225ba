// Package gostream implements GeneralizedObjectStreamHandler: a
// sequence-numbered stream of generalized objects, discovered through a
// "_latest" delegation pointer rather than FinalBlockId, since a stream
// has no final element by definition.
package gostream

import (
	"time"

	"github.com/named-data/cnl-go/cnlerr"
	"github.com/named-data/cnl-go/handler/gobject"
	"github.com/named-data/cnl-go/meta"
	"github.com/named-data/cnl-go/namespace"
	"github.com/named-data/cnl-go/nsname"
	enc "github.com/named-data/ndnd/std/encoding"
	"github.com/named-data/ndnd/std/ndn"
	"github.com/named-data/ndnd/std/types/optional"
)

// DefaultLatestFreshness is how long a "_latest" pointer stays fresh
// before a MustBeFresh poll re-expresses toward the producer.
const DefaultLatestFreshness = 1000 * time.Millisecond

// OnObject is called at most once per sequence number, in increasing
// order, as each object becomes available. With PipelineSize 0, sequence
// numbers skipped over by a newer one are not reported.
type OnObject func(seq uint64, obj namespace.Object)

// Handler attaches to the stream's root name: sequence i lives at
// <name>/seq=i, and <name>/_latest carries a DelegationSet whose first
// entry points at the newest published sequence.
type Handler struct {
	node *namespace.Node

	// PipelineSize controls the consumer strategy: 0 polls "_latest" and
	// reports only the newest object as it changes; >0 additionally
	// pipelines sequential seq=N fetches to catch up without waiting for
	// one "_latest" round trip per object. New sets it to 8.
	PipelineSize         int
	UseSignatureManifest bool
	LatestFreshness      time.Duration

	onObject    OnObject
	maxReported int64 // highest sequence delivered, -1 = none
	maxKnown    int64 // highest sequence learned to exist, -1 = none
	perSeq      map[uint64]*gobject.Handler
	pending     map[uint64]namespace.Object
	polling     bool
	mustBeFresh bool
}

// New creates a detached generalized-object-stream handler.
func New() *Handler {
	return &Handler{
		PipelineSize: 8,
		maxReported:  -1,
		maxKnown:     -1,
		perSeq:       make(map[uint64]*gobject.Handler),
		pending:      make(map[uint64]namespace.Object),
	}
}

// BoundNode implements namespace.Handler.
func (h *Handler) BoundNode() *namespace.Node { return h.node }

// Attach implements namespace.Handler.
func (h *Handler) Attach(node *namespace.Node) error {
	h.node = node
	return nil
}

// OnObject registers the callback fired as each sequence's object
// becomes available, delivered in increasing sequence order.
func (h *Handler) OnObject(cb OnObject) { h.onObject = cb }

// MaxReportedSequenceNumber returns the highest sequence number reported
// to OnObject so far, and whether any has been reported yet.
func (h *Handler) MaxReportedSequenceNumber() (uint64, bool) {
	if h.maxReported < 0 {
		return 0, false
	}
	return uint64(h.maxReported), true
}

// StartFetching begins consuming the stream: polling "_latest" and, if
// PipelineSize > 0, pipelining catch-up fetches of intervening sequence
// numbers. mustBeFresh applies to the per-sequence object fetches; the
// "_latest" pointer itself is always fetched MustBeFresh, since that is
// what drives the poll-on-expiry loop.
func (h *Handler) StartFetching(mustBeFresh bool) error {
	if h.node == nil {
		return cnlerr.ErrHandlerBoundElsewhere
	}
	if h.PipelineSize < 0 {
		return cnlerr.ErrNegativePipelineSize
	}
	h.mustBeFresh = mustBeFresh
	h.polling = true

	latest := h.node.GetChildComponent(nsname.LatestComponent)
	latest.OnStateChanged(func(_ *namespace.Node, changed *namespace.Node, state namespace.State) {
		if changed != latest {
			return
		}
		switch state {
		case namespace.ObjectReady, namespace.ObjectReadyButStale:
			h.onLatest(latest)
		}
	})
	return latest.ObjectNeeded(true)
}

// StopFetching ends the polling loop; already-outstanding fetches are
// left to complete but no further "_latest" re-expression is scheduled.
func (h *Handler) StopFetching() { h.polling = false }

func (h *Handler) onLatest(latest *namespace.Node) {
	data := latest.Data()
	if data != nil {
		if set, err := meta.ParseDelegationSet(enc.NewWireView(data.Content()), true); err == nil && len(set.Delegations) > 0 {
			best := set.Delegations[0]
			if len(best.Name) > 0 && nsname.IsSeqNum(best.Name[len(best.Name)-1]) {
				seq := nsname.ToSeqNum(best.Name[len(best.Name)-1])
				if int64(seq) > h.maxKnown {
					h.maxKnown = int64(seq)
				}
				if h.PipelineSize > 0 {
					h.fillPipeline()
				} else {
					h.fetchSeq(seq)
				}
			}
		}
	}
	h.scheduleNextPoll(latest)
}

func (h *Handler) scheduleNextPoll(latest *namespace.Node) {
	if !h.polling {
		return
	}
	face := h.node.Face()
	if face == nil {
		return
	}
	freshness := h.LatestFreshness
	if freshness <= 0 {
		freshness = DefaultLatestFreshness
	}
	face.CallLater(freshness, func() {
		if !h.polling {
			return
		}
		_ = latest.ObjectNeeded(true)
	})
}

func (h *Handler) fillPipeline() {
	next := uint64(h.maxReported + 1)
	inFlight := len(h.perSeq)
	for inFlight < h.PipelineSize && int64(next) <= h.maxKnown {
		if _, ok := h.perSeq[next]; !ok {
			h.fetchSeq(next)
			inFlight++
		}
		next++
	}
}

func (h *Handler) fetchSeq(seq uint64) {
	if _, ok := h.perSeq[seq]; ok {
		return
	}
	seqNode := h.node.GetChildComponent(nsname.SeqNum(seq))
	gh := gobject.New()
	gh.UseSignatureManifest = h.UseSignatureManifest
	if err := seqNode.SetHandler(gh); err != nil {
		return
	}
	h.perSeq[seq] = gh
	gh.OnObject(func(obj namespace.Object) {
		h.deliver(seq, obj)
	})
	_ = seqNode.ObjectNeeded(h.mustBeFresh)
}

// deliver reports objects to OnObject strictly in sequence order,
// buffering out-of-order arrivals from a pipelined catch-up until their
// predecessors land.
func (h *Handler) deliver(seq uint64, obj namespace.Object) {
	delete(h.perSeq, seq)
	if h.PipelineSize == 0 && int64(seq) > h.maxReported {
		// Latest-only mode: report the newest object, skipping any gap.
		h.maxReported = int64(seq) - 1
	}
	if int64(seq) != h.maxReported+1 {
		if int64(seq) > h.maxReported {
			h.pending[seq] = obj
		}
		return
	}
	h.maxReported = int64(seq)
	if h.onObject != nil {
		h.onObject(seq, obj)
	}
	if next, ok := h.pending[seq+1]; ok {
		delete(h.pending, seq+1)
		h.deliver(seq+1, next)
	}
	if h.PipelineSize > 0 {
		h.fillPipeline()
	}
}

// AddObject publishes obj as the next sequence number in the stream and
// updates "_latest" to point at it.
func (h *Handler) AddObject(obj namespace.Object, payload []byte) (uint64, error) {
	if h.node == nil {
		return 0, cnlerr.ErrHandlerBoundElsewhere
	}
	seq := uint64(h.maxKnown + 1)
	seqNode := h.node.GetChildComponent(nsname.SeqNum(seq))
	gh := gobject.New()
	gh.UseSignatureManifest = h.UseSignatureManifest
	if err := seqNode.SetHandler(gh); err != nil {
		return 0, err
	}
	if err := gh.Publish(obj, payload, 0); err != nil {
		return 0, err
	}
	h.maxKnown = int64(seq)

	freshness := h.LatestFreshness
	if freshness <= 0 {
		freshness = DefaultLatestFreshness
	}
	set := &meta.DelegationSet{Delegations: []*meta.Delegation{{
		Preference: 0,
		Name:       enc.Name{nsname.SeqNum(seq)},
	}}}
	latest := h.node.GetChildComponent(nsname.LatestComponent)
	latest.SetNewDataMetaInfo(latestDataConfig(freshness))
	wire := set.Encode()
	if err := latest.SerializeObject(namespace.Blob(wire.Join()), wire); err != nil {
		return 0, err
	}
	return seq, nil
}

func latestDataConfig(freshness time.Duration) *ndn.DataConfig {
	return &ndn.DataConfig{Freshness: optional.Some(freshness)}
}
