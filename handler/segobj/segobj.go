// Package segobj implements SegmentedObjectHandler: reassembly of a
// segment.Handler's ordered segment stream into one contiguous object,
// with an optional deserialize step. It performs no manifest
// verification itself; see segment.Handler.VerifyWithManifest.
package segobj

import (
	"bytes"

	"github.com/named-data/cnl-go/cnlerr"
	"github.com/named-data/cnl-go/handler/segment"
	"github.com/named-data/cnl-go/namespace"
)

// OnObject is called once the full object has been reassembled and
// deserialized (or left as a namespace.Blob, if nothing claimed it).
type OnObject func(obj namespace.Object)

// Handler owns a segment.Handler for the wire-level fetch/publish and
// layers reassembly, deserialization, and completion reporting on top.
type Handler struct {
	node    *namespace.Node
	segment *segment.Handler

	buf      bytes.Buffer
	onObject OnObject
}

// New creates a detached segmented-object handler.
func New() *Handler {
	return &Handler{segment: segment.New()}
}

// Segment exposes the underlying segment.Handler for callers that need
// to tune InterestPipelineSize, MaxSegmentPayloadLength, or
// UseSignatureManifest before fetching or publishing.
func (h *Handler) Segment() *segment.Handler { return h.segment }

// BoundNode implements namespace.Handler.
func (h *Handler) BoundNode() *namespace.Node { return h.node }

// Attach implements namespace.Handler.
func (h *Handler) Attach(node *namespace.Node) error {
	h.node = node
	if err := h.segment.Attach(node); err != nil {
		return err
	}
	h.segment.OnSegment(h.onSegment)
	return nil
}

// OnObject registers the callback fired when reassembly completes.
func (h *Handler) OnObject(cb OnObject) { h.onObject = cb }

// Fetch starts pipelined segment fetching and reassembly.
func (h *Handler) Fetch(mustBeFresh bool) error {
	if h.node == nil {
		return cnlerr.ErrHandlerBoundElsewhere
	}
	return h.segment.FetchFrom(mustBeFresh)
}

// Publish segments and publishes payload, then attaches obj as the
// node's object directly (skipping a redundant Deserialize round trip
// since the producer already has the typed value in hand).
func (h *Handler) Publish(obj namespace.Object, payload []byte) error {
	if h.node == nil {
		return cnlerr.ErrHandlerBoundElsewhere
	}
	if err := h.segment.Publish(payload); err != nil {
		return err
	}
	h.node.SetObject(obj)
	return nil
}

func (h *Handler) onSegment(seg uint64, content []byte, isFinal bool) {
	h.buf.Write(content)
	if !isFinal {
		return
	}
	blob := append([]byte(nil), h.buf.Bytes()...)
	h.buf.Reset() // memory discipline: release the moment it is consumed

	h.node.Deserialize(blob, func(obj namespace.Object) {
		if h.onObject != nil {
			h.onObject(obj)
		}
		// Detach: this reassembly is done, so drop the segment stream's
		// callback; later segments are not reassembled again and onObject
		// is not called a second time.
		h.segment.OnSegment(nil)
	})
}
