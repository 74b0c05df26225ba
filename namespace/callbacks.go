package namespace

import "sync/atomic"

// callbackIDCounter backs the "monotonically increasing and unique
// library-wide" callback-id counter the design calls for. A single
// process-wide atomic counter, rather than one per root, is what makes
// ids comparable across independent trees without coordination.
var callbackIDCounter uint64

// CallbackID identifies one registered callback, returned by every
// On* registration method so it can later be passed to a matching
// Off*/RemoveCallback method.
type CallbackID uint64

func nextCallbackID() CallbackID {
	return CallbackID(atomic.AddUint64(&callbackIDCounter, 1))
}

// OnStateChanged is called when a node's State transitions, once for
// the node itself and once more for every ancestor whose callback is
// registered, from the direct parent up to whichever node registered.
type OnStateChanged func(root *Node, changed *Node, state State)

// OnValidateStateChanged is the ValidateState analog of OnStateChanged.
type OnValidateStateChanged func(root *Node, changed *Node, state ValidateState)

// OnObjectNeeded is called when a node needs an object and no object is
// already attached. Returning true claims responsibility for producing
// it (the node transitions to ProducingObject and the caller must
// eventually call SetObject or SerializeObject on it).
type OnObjectNeeded func(node *Node, mustBeFresh bool) (willProduce bool)

// OnDeserializeNeeded is called when a blob needs to be turned into an
// application Object. Returning true claims responsibility; the
// listener must eventually call done with the constructed Object (or a
// nil error path is not applicable here - deserialize has no failure
// state of its own in this design, callers surface errors by simply
// never calling done, which stalls the node in Deserializing, or by
// falling back to Blob themselves before calling done).
type OnDeserializeNeeded func(node *Node, blob []byte, done func(Object)) (accepted bool)

// registry is a {id -> callback} map that snapshots its values before
// each dispatch pass, so registrations or removals made from inside a
// callback take effect starting with the next pass rather than
// corrupting the one in progress.
type registry[F any] struct {
	order   []CallbackID
	entries map[CallbackID]F
}

func newRegistry[F any]() *registry[F] {
	return &registry[F]{entries: make(map[CallbackID]F)}
}

func (r *registry[F]) add(f F) CallbackID {
	id := nextCallbackID()
	r.entries[id] = f
	r.order = append(r.order, id)
	return id
}

func (r *registry[F]) remove(id CallbackID) {
	delete(r.entries, id)
}

// clear drops every registered callback (used by shutdown).
func (r *registry[F]) clear() {
	r.order = nil
	r.entries = make(map[CallbackID]F)
}

// snapshot returns the currently registered callbacks in registration
// order, skipping any removed since they were added.
func (r *registry[F]) snapshot() []F {
	out := make([]F, 0, len(r.order))
	live := r.order[:0]
	for _, id := range r.order {
		if f, ok := r.entries[id]; ok {
			out = append(out, f)
			live = append(live, id)
		}
	}
	r.order = live
	return out
}

func (r *registry[F]) len() int { return len(r.entries) }
