package namespace

import (
	"time"

	"github.com/named-data/cnl-go/cnlerr"
	enc "github.com/named-data/ndnd/std/encoding"
	"github.com/named-data/ndnd/std/log"
	"github.com/named-data/ndnd/std/ndn"
)

// RegisterPrefix registers n's name as a route on its inherited Face,
// forwarding every matching Interest into the tree via onIncomingInterest.
func (n *Node) RegisterPrefix() error {
	face := n.Face()
	if face == nil {
		return cnlerr.ErrNoFace
	}
	id, err := face.RegisterPrefix(n.name, n.onIncomingInterest,
		func(reason string) {
			log.Error("namespace: prefix registration failed", "name", n.name, "reason", reason)
		},
		nil,
	)
	if err != nil {
		return err
	}
	n.registrationID = &id
	return nil
}

// onIncomingInterest is installed as the OnInterest callback for n's
// registered prefix. It looks for an already-available Data packet
// satisfying the Interest anywhere at or below n, replies immediately if
// found, and otherwise buffers the Interest in the root's pending-interest
// table and invites a producer to supply it via OnObjectNeeded.
func (n *Node) onIncomingInterest(interest ndn.Interest, rawInterest enc.Wire, sigCovered enc.Wire, reply ndn.WireReplyFunc) {
	if n.IsShutDown() {
		return
	}

	name := interest.Name()
	if len(name) > 0 && name[len(name)-1].Typ == enc.TypeImplicitSha256DigestComponent {
		name = name[:len(name)-1]
	}

	base, err := n.GetChild(name)
	if err != nil {
		// The registered prefix doesn't cover this Interest's name; the
		// Face should never route it here, but ignore defensively.
		return
	}

	if match := findBestMatch(base, interest); match != nil {
		if err := reply(match.dataWire); err != nil {
			log.Warn("namespace: failed to reply to interest", "name", interest.Name(), "err", err)
		}
		return
	}

	deadline := time.Now().Add(DefaultInterestLifetime)
	if lifetime, ok := interest.Lifetime().Get(); ok {
		deadline = time.Now().Add(lifetime)
	}
	root := n.root()
	root.pendingInterests.Add(interest, reply, deadline)

	if err := base.ObjectNeeded(interest.MustBeFresh()); err != nil {
		log.Warn("namespace: objectNeeded flow failed for incoming interest", "name", base.Name(), "err", err)
	}
}

// findBestMatch searches base and, if the Interest allows CanBePrefix,
// its descendants for the Data packet that best satisfies interest,
// preferring the longest matching name and, among siblings, the child
// whose component sorts last in NDN canonical order (for sequence-numbered
// segments or versions, the highest number).
func findBestMatch(base *Node, interest ndn.Interest) *Node {
	if interest.CanBePrefix() {
		comps := base.GetChildComponents()
		for i := len(comps) - 1; i >= 0; i-- {
			child := base.children[componentKey(comps[i])]
			if m := findBestMatch(child, interest); m != nil {
				return m
			}
		}
	}
	if base.data != nil && isAcceptableMatch(base, interest) {
		return base
	}
	return nil
}

func isAcceptableMatch(n *Node, interest ndn.Interest) bool {
	if interest.MustBeFresh() {
		if n.freshnessDeadline.IsZero() || time.Now().After(n.freshnessDeadline) {
			return false
		}
	}
	return true
}
