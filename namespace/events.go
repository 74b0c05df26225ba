package namespace

import (
	"github.com/named-data/ndnd/std/log"
)

// safeCall runs fn, logging and swallowing any panic instead of letting a
// misbehaving application callback take down the node tree.
func safeCall(name string, n *Node, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("namespace: callback panicked", "callback", name, "name", n.name, "recover", r)
		}
	}()
	fn()
}

// OnStateChanged registers a callback fired whenever n or any descendant
// changes State. It returns an id that can be passed to
// RemoveStateChangedCallback.
func (n *Node) OnStateChanged(cb OnStateChanged) CallbackID {
	return n.stateChangedCb.add(cb)
}

// RemoveStateChangedCallback undoes a prior OnStateChanged registration.
func (n *Node) RemoveStateChangedCallback(id CallbackID) {
	n.stateChangedCb.remove(id)
}

// OnValidateStateChanged registers a callback fired whenever n or any
// descendant changes ValidateState.
func (n *Node) OnValidateStateChanged(cb OnValidateStateChanged) CallbackID {
	return n.validateStateChangedCb.add(cb)
}

// RemoveValidateStateChangedCallback undoes a prior
// OnValidateStateChanged registration.
func (n *Node) RemoveValidateStateChangedCallback(id CallbackID) {
	n.validateStateChangedCb.remove(id)
}

// OnObjectNeeded registers a callback fired when n or a descendant needs
// an object it does not have. Only one registered listener may claim a
// given ObjectNeeded event by returning true; the rest are still called
// (in registration order) but their return value is ignored once a
// listener has claimed it.
func (n *Node) OnObjectNeeded(cb OnObjectNeeded) CallbackID {
	return n.objectNeededCb.add(cb)
}

// RemoveObjectNeededCallback undoes a prior OnObjectNeeded registration.
func (n *Node) RemoveObjectNeededCallback(id CallbackID) {
	n.objectNeededCb.remove(id)
}

// OnDeserializeNeeded registers a callback fired when a node's raw blob
// needs to be turned into an application Object.
func (n *Node) OnDeserializeNeeded(cb OnDeserializeNeeded) CallbackID {
	return n.deserializeNeededCb.add(cb)
}

// RemoveDeserializeNeededCallback undoes a prior OnDeserializeNeeded
// registration.
func (n *Node) RemoveDeserializeNeededCallback(id CallbackID) {
	n.deserializeNeededCb.remove(id)
}

// setState transitions n to state and fires every OnStateChanged
// listener registered on n itself and on each of its ancestors, walking
// up to the root. Listeners registered at an ancestor A see (A, n,
// state); listeners registered at n itself see (n, n, state).
func (n *Node) setState(state State) {
	if n.isShutDown {
		return
	}
	n.state = state
	for cur := n; cur != nil; cur = cur.parent {
		for _, cb := range cur.stateChangedCb.snapshot() {
			cb := cb
			safeCall("OnStateChanged", n, func() { cb(cur, n, state) })
		}
	}
}

// setValidateState is the ValidateState analog of setState.
func (n *Node) setValidateState(state ValidateState) {
	if n.isShutDown {
		return
	}
	n.validateState = state
	for cur := n; cur != nil; cur = cur.parent {
		for _, cb := range cur.validateStateChangedCb.snapshot() {
			cb := cb
			safeCall("OnValidateStateChanged", n, func() { cb(cur, n, state) })
		}
	}
}

// fireObjectNeeded calls every OnObjectNeeded listener registered on n
// and its ancestors, in that order, including those that come after a
// listener has claimed responsibility by returning true. It reports
// whether any listener claimed it.
func (n *Node) fireObjectNeeded(mustBeFresh bool) (claimed bool) {
	for cur := n; cur != nil; cur = cur.parent {
		for _, cb := range cur.objectNeededCb.snapshot() {
			var will bool
			cb := cb
			safeCall("OnObjectNeeded", n, func() { will = cb(n, mustBeFresh) })
			if will {
				claimed = true
			}
		}
	}
	return claimed
}

// fireDeserializeNeeded calls every OnDeserializeNeeded listener
// registered on n and its ancestors, stopping as soon as one claims
// responsibility.
func (n *Node) fireDeserializeNeeded(blob []byte, done func(Object)) (claimed bool) {
	for cur := n; cur != nil; cur = cur.parent {
		for _, cb := range cur.deserializeNeededCb.snapshot() {
			var accepted bool
			cb := cb
			safeCall("OnDeserializeNeeded", n, func() { accepted = cb(n, blob, done) })
			if accepted {
				return true
			}
		}
	}
	return false
}
