// Package gobject implements GeneralizedObjectHandler: the "_meta"-driven
// pattern that lets a single namespace name transparently hold either a
// small inline object or a segmented one, without the consumer needing
// to know in advance which.
package gobject

import (
	"time"

	"github.com/named-data/cnl-go/cnlerr"
	"github.com/named-data/cnl-go/handler/segobj"
	"github.com/named-data/cnl-go/meta"
	"github.com/named-data/cnl-go/namespace"
	"github.com/named-data/cnl-go/nsname"
	enc "github.com/named-data/ndnd/std/encoding"
	"github.com/named-data/ndnd/std/ndn"
	"github.com/named-data/ndnd/std/types/optional"
)

// OnObject is called once a generalized object has been fully retrieved
// and deserialized, whether it arrived inline or segmented.
type OnObject func(obj namespace.Object)

// Handler attaches to the object's own name (not to "_meta" directly): on
// ObjectNeeded it fetches "_meta", inspects ContentMetaInfo.HasSegments,
// and either deserializes the meta payload's Other field directly or
// hands off to a segobj.Handler under the same node.
type Handler struct {
	node *namespace.Node
	segs *segobj.Handler

	UseSignatureManifest bool

	onObject      OnObject
	objectNeededID namespace.CallbackID
}

// New creates a detached generalized-object handler.
func New() *Handler {
	return &Handler{segs: segobj.New()}
}

// Segs exposes the underlying segobj.Handler for callers that need to
// tune segmentation (e.g. MaxSegmentPayloadLength) before publishing.
func (h *Handler) Segs() *segobj.Handler { return h.segs }

// BoundNode implements namespace.Handler.
func (h *Handler) BoundNode() *namespace.Node { return h.node }

// Attach implements namespace.Handler.
func (h *Handler) Attach(node *namespace.Node) error {
	h.node = node
	if err := h.segs.Attach(node); err != nil {
		return err
	}
	h.segs.OnObject(func(obj namespace.Object) {
		if h.onObject != nil {
			h.onObject(obj)
		}
	})
	h.objectNeededID = node.OnObjectNeeded(func(target *namespace.Node, mustBeFresh bool) bool {
		if target != node {
			return false
		}
		h.fetch(mustBeFresh)
		return true
	})
	return nil
}

// OnObject registers the callback fired when the object is ready.
func (h *Handler) OnObject(cb OnObject) { h.onObject = cb }

func (h *Handler) fetch(mustBeFresh bool) {
	metaNode := h.node.GetChildComponent(nsname.MetaComponent)
	metaNode.OnStateChanged(func(_ *namespace.Node, changed *namespace.Node, state namespace.State) {
		if changed != metaNode {
			return
		}
		if state != namespace.ObjectReady {
			return
		}
		h.onMetaReady(metaNode, mustBeFresh)
	})
	if err := metaNode.ObjectNeeded(mustBeFresh); err != nil {
		return
	}
}

func (h *Handler) onMetaReady(metaNode *namespace.Node, mustBeFresh bool) {
	data := metaNode.Data()
	if data == nil {
		return
	}
	info, err := meta.ParseContentMetaInfo(enc.NewWireView(data.Content()), true)
	if err != nil {
		return
	}

	if !info.HasSegments {
		h.node.Deserialize(info.Other, func(obj namespace.Object) {
			if h.onObject != nil {
				h.onObject(obj)
			}
		})
		return
	}

	h.segs.Segment().UseSignatureManifest = h.UseSignatureManifest
	_ = h.segs.Fetch(mustBeFresh)
	if h.UseSignatureManifest {
		manifestNode := h.node.GetChildComponent(nsname.ManifestComponent)
		_ = manifestNode.ObjectNeeded(mustBeFresh)
	}
}

// Publish builds and publishes a "_meta" packet describing payload,
// segmenting it under the object's own name when it exceeds one
// segment's worth of content, and attaches obj as the node's object.
func (h *Handler) Publish(obj namespace.Object, payload []byte, freshness time.Duration) error {
	if h.node == nil {
		return cnlerr.ErrHandlerBoundElsewhere
	}

	hasSegments := len(payload) > h.segs.Segment().MaxSegmentPayloadLength
	info := &meta.ContentMetaInfo{
		ContentType: "generalized-object",
		Timestamp:   uint64(time.Now().UnixNano() / int64(time.Millisecond)),
		HasSegments: hasSegments,
	}

	if hasSegments {
		h.segs.Segment().UseSignatureManifest = h.UseSignatureManifest
		if err := h.segs.Segment().Publish(payload); err != nil {
			return err
		}
	} else {
		info.Other = payload
	}

	metaNode := h.node.GetChildComponent(nsname.MetaComponent)
	if freshness > 0 {
		metaNode.SetNewDataMetaInfo(freshnessConfig(freshness))
	}
	wire := info.Encode()
	if err := metaNode.SerializeObject(namespace.Blob(wire.Join()), wire); err != nil {
		return err
	}

	h.node.SetObject(obj)
	return nil
}

func freshnessConfig(freshness time.Duration) *ndn.DataConfig {
	return &ndn.DataConfig{Freshness: optional.Some(freshness)}
}
