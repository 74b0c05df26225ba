package namespace

import (
	"time"

	"github.com/named-data/cnl-go/cnlerr"
	enc "github.com/named-data/ndnd/std/encoding"
	"github.com/named-data/ndnd/std/log"
	"github.com/named-data/ndnd/std/ndn"
)

// SetData attaches an already-fetched or already-produced Data packet to
// n: it records the packet, satisfies any pending Interests held at the
// tree's root, starts (or clears) validation, and moves n to
// DataReceived. wire and sigCovered are the encoded bytes backing data,
// needed to reply to pending Interests and to hand a Validator the
// exact bytes that were signed.
//
// SetData rejects data whose name does not equal n's own (returning
// ErrNameMismatch) and is a no-op once n already has a Data packet
// attached: a node's data, once set, is never replaced. The returned
// bool reports whether data was accepted.
func (n *Node) SetData(data ndn.Data, wire enc.Wire, sigCovered enc.Wire) (bool, error) {
	if n.IsShutDown() {
		return false, cnlerr.ErrShutdown
	}
	if !data.Name().Equal(n.name) {
		return false, cnlerr.ErrNameMismatch
	}
	if n.data != nil {
		return false, nil
	}
	n.data = data
	n.dataWire = wire
	n.sigCovered = sigCovered
	n.object = nil

	if fresh, ok := data.Freshness().Get(); ok && fresh > 0 {
		n.freshnessDeadline = time.Now().Add(fresh)
	} else {
		n.freshnessDeadline = time.Time{}
	}

	// Satisfy pending Interests before any OnStateChanged listener runs,
	// so consumers observe fresh Data with minimum latency.
	if root := n.root(); root.pendingInterests != nil {
		root.pendingInterests.Satisfy(data, wire, time.Now())
	}
	if n.reexpress != nil {
		n.reexpress.cancel()
	}

	n.setState(DataReceived)
	n.validate()
	return true, nil
}

// validate runs n's inherited Validator (default AlwaysValidate) against
// its current Data packet, moving through Validating to either
// ValidateSuccess or ValidateFailure.
func (n *Node) validate() {
	if n.data == nil {
		return
	}
	n.setValidateState(Validating)
	v := n.Validator()
	ok, err := v.Validate(n.data, n.sigCovered)
	if err != nil {
		log.Warn("namespace: validator returned an error, treating as failure", "name", n.name, "err", err)
		ok = false
	}
	if ok {
		n.setValidateState(ValidateSuccess)
	} else {
		n.setValidateState(ValidateFailure)
	}
}

// Deserialize turns blob into n's Object, first offering it to any
// registered OnDeserializeNeeded listener (from n up to the root) and
// falling back to the raw Blob variant if none claims it. onObjectSet, if
// non-nil, is called once the object is attached, whether or not a
// listener claimed the deserialization.
func (n *Node) Deserialize(blob []byte, onObjectSet func(Object)) {
	if n.IsShutDown() {
		return
	}
	n.setState(Deserializing)

	set := func(obj Object) {
		n.object = obj
		n.setState(ObjectReady)
		if onObjectSet != nil {
			onObjectSet(obj)
		}
	}

	if n.fireDeserializeNeeded(blob, set) {
		return
	}
	set(Blob(blob))
}

// SetObject attaches obj directly as n's decoded object without going
// through Deserialize, moving n straight to ObjectReady. Used by
// producers that already have a typed value in hand (as opposed to
// consumers, who decode bytes received over the network).
func (n *Node) SetObject(obj Object) {
	if n.IsShutDown() {
		return
	}
	n.object = obj
	n.setState(ObjectReady)
}

// ObjectNeeded expresses (or triggers production of) n's object if it
// does not already have one. It first checks for an already-attached
// object or Data, then offers producers the chance to claim
// responsibility via OnObjectNeeded, and only falls back to expressing
// an Interest over the network if nothing local claims it.
//
// mustBeFresh controls both the eventual Interest's MustBeFresh selector
// and whether an existing-but-stale object counts as already satisfied.
func (n *Node) ObjectNeeded(mustBeFresh bool) error {
	if n.IsShutDown() {
		return cnlerr.ErrShutdown
	}

	switch n.State() {
	case ObjectReady:
		n.setState(ObjectReady)
		return nil
	case ObjectReadyButStale:
		if !mustBeFresh {
			return nil
		}
	case InterestExpressed, ProducingObject, Deserializing, Decrypting, Serializing, Encrypting, Signing:
		return nil
	}

	if n.fireObjectNeeded(mustBeFresh) {
		n.setState(ProducingObject)
		return nil
	}

	return n.expressInterest(mustBeFresh)
}

// expressInterest sends the first Interest of a (possibly retried, see
// reexpress.go) fetch for n's name.
func (n *Node) expressInterest(mustBeFresh bool) error {
	face := n.Face()
	if face == nil {
		return cnlerr.ErrNoFace
	}

	lifetime := DefaultInterestLifetime
	n.setState(InterestExpressed)
	return n.sendInterest(face, lifetime, mustBeFresh)
}

