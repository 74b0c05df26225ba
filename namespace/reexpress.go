package namespace

import (
	"time"

	"github.com/named-data/cnl-go/cnlface"
	enc "github.com/named-data/ndnd/std/encoding"
	"github.com/named-data/ndnd/std/log"
	"github.com/named-data/ndnd/std/ndn"
	"github.com/named-data/ndnd/std/ndn/spec_2022"
	"github.com/named-data/ndnd/std/types/optional"
)

// wireSpec is the packet encoder/decoder used to build outgoing
// Interests. NDN packet format 2022 is the only one ndnd implements.
var wireSpec ndn.Spec = spec_2022.Spec{}

// reexpressState tracks the single outstanding Interest for a node's
// fetch, so a late-arriving timeout or NACK callback from a superseded
// attempt can be told to no-op instead of restarting a fetch that has
// already moved on.
type reexpressState struct {
	node        *Node
	interestID  cnlface.InterestId
	lifetime    time.Duration
	mustBeFresh bool
	active      bool
	generation  uint64
}

func (r *reexpressState) cancel() {
	if r == nil || !r.active {
		return
	}
	if face := r.node.Face(); face != nil {
		face.CancelInterest(r.interestID)
	}
	r.active = false
}

// sendInterest builds and expresses an Interest for n's name at the
// given lifetime, replacing any previously outstanding attempt.
func (n *Node) sendInterest(face cnlface.Face, lifetime time.Duration, mustBeFresh bool) error {
	if prev := n.reexpress; prev != nil {
		prev.cancel()
	}

	config := &ndn.InterestConfig{
		MustBeFresh: mustBeFresh,
		Lifetime:    optional.Some(lifetime),
	}
	encoded, err := wireSpec.MakeInterest(n.name, config, nil, nil)
	if err != nil {
		return err
	}

	state := &reexpressState{node: n, lifetime: lifetime, mustBeFresh: mustBeFresh}
	if prevGen := n.reexpress; prevGen != nil {
		state.generation = prevGen.generation + 1
	}
	n.reexpress = state

	id, err := face.ExpressInterest(encoded,
		func(data ndn.Data, rawData enc.Wire, sigCovered enc.Wire) {
			if n.reexpress != state {
				return // superseded by a later attempt
			}
			state.active = false
			accepted, err := n.SetData(data, rawData, sigCovered)
			if err != nil {
				log.Warn("namespace: rejecting fetched data", "name", n.name, "err", err)
			}
			if accepted {
				n.Deserialize(data.Content().Join(), nil)
			}
		},
		func() {
			if n.reexpress != state {
				return
			}
			state.active = false
			n.onInterestTimeout(state)
		},
		func(reason uint64) {
			if n.reexpress != state {
				return
			}
			state.active = false
			n.onInterestNack(reason)
		},
	)
	if err != nil {
		return err
	}
	state.interestID = id
	state.active = true
	return nil
}

// onInterestTimeout implements the exponential-backoff re-expression
// loop: the Interest lifetime doubles on every timeout, capped at
// MaxInterestLifetime, at which point the node gives up and transitions
// to InterestTimeout.
func (n *Node) onInterestTimeout(prev *reexpressState) {
	if n.IsShutDown() {
		return
	}

	next := prev.lifetime * 2
	if next > n.MaxInterestLifetime() {
		n.setState(InterestTimeout)
		return
	}

	face := n.Face()
	if face == nil {
		n.setState(InterestTimeout)
		return
	}
	if err := n.sendInterest(face, next, prev.mustBeFresh); err != nil {
		log.Warn("namespace: failed to re-express interest", "name", n.name, "err", err)
		n.setState(InterestTimeout)
	}
}

// onInterestNack moves n straight to InterestNetworkNack: unlike a
// timeout, a NACK is not retried automatically, since it usually means
// the network has already told us retrying with the same name won't
// help (no route, or duplicate suppressed upstream).
func (n *Node) onInterestNack(reason uint64) {
	if n.IsShutDown() {
		return
	}
	n.lastNackReason = reason
	n.setState(InterestNetworkNack)
}
