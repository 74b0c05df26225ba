// Package fakeface is an in-memory cnlface.Face for unit tests: no
// sockets, no forwarder, just direct dispatch between a fixed set of
// Faces sharing a Network, plus explicit control over when timers fire.
package fakeface

import (
	"time"

	"github.com/named-data/cnl-go/cnlface"
	enc "github.com/named-data/ndnd/std/encoding"
	"github.com/named-data/ndnd/std/ndn"
	"github.com/named-data/ndnd/std/ndn/spec_2022"
)

var wireSpec ndn.Spec = spec_2022.Spec{}

// Network is a shared switchboard: Interests expressed on one Face are
// delivered to every other Face on the same Network whose registered
// prefix matches, and Data sent in reply is delivered back directly to
// the expressing Face without going through a forwarder or PIT of its
// own (that job belongs to the namespace tree being tested).
type Network struct {
	faces []*Face
	timers []pendingTimer
}

type pendingTimer struct {
	at        time.Time
	fn        func()
	cancelled *bool
}

// NewNetwork creates an empty shared network.
func NewNetwork() *Network { return &Network{} }

// NewFace creates a Face attached to net.
func (net *Network) NewFace() *Face {
	f := &Face{net: net, prefixes: map[cnlface.RegistrationId]registration{}}
	net.faces = append(net.faces, f)
	return f
}

// Now is the network's virtual clock; advanced only by AdvanceTime.
func (net *Network) Now() time.Time { return virtualNow }

var virtualNow = time.Unix(0, 0)

// AdvanceTime moves the virtual clock forward by d, firing (in order)
// every CallLater callback whose deadline has now passed.
func (net *Network) AdvanceTime(d time.Duration) {
	virtualNow = virtualNow.Add(d)
	for {
		fired := false
		for i, t := range net.timers {
			if !t.at.After(virtualNow) {
				net.timers = append(net.timers[:i], net.timers[i+1:]...)
				if t.cancelled == nil || !*t.cancelled {
					t.fn()
				}
				fired = true
				break
			}
		}
		if !fired {
			return
		}
	}
}

type registration struct {
	prefix     enc.Name
	onInterest cnlface.OnInterest
}

// Face is one endpoint on a Network.
type Face struct {
	net      *Network
	prefixes map[cnlface.RegistrationId]registration
	nextID   uint64

	// DropInterests, if set, is consulted for every expressed Interest;
	// returning true simulates a network drop (never answered, so the
	// Interest eventually times out).
	DropInterests func(interest *ndn.EncodedInterest) bool
}

func (f *Face) nextInterestID() cnlface.InterestId {
	f.nextID++
	return cnlface.InterestId(f.nextID)
}

func (f *Face) nextRegistrationID() cnlface.RegistrationId {
	f.nextID++
	return cnlface.RegistrationId(f.nextID)
}

// ExpressInterest implements cnlface.Face: it looks for a matching
// registration on every other Face in the network and delivers
// synchronously; if none replies synchronously, the Interest times out
// only once the test calls Network.AdvanceTime past its lifetime.
func (f *Face) ExpressInterest(interest *ndn.EncodedInterest, onData cnlface.OnData, onTimeout cnlface.OnTimeout, onNack cnlface.OnNetworkNack) (cnlface.InterestId, error) {
	id := f.nextInterestID()

	if f.DropInterests != nil && f.DropInterests(interest) {
		f.scheduleTimeout(interest, onTimeout)
		return id, nil
	}

	name := interest.FinalName
	replied := false
	var reply cnlface.OnInterest
	for _, other := range f.net.faces {
		if other == f {
			continue
		}
		for _, reg := range other.prefixes {
			if reg.prefix.IsPrefix(name) {
				reply = reg.onInterest
				break
			}
		}
		if reply != nil {
			break
		}
	}
	if reply != nil {
		reply(mustReadInterest(interest), interest.Wire, interest.SigCovered, func(wire enc.Wire) error {
			replied = true
			data, sigCovered, err := wireSpec.ReadData(enc.NewWireView(wire))
			if err != nil {
				return err
			}
			if onData != nil {
				onData(data, wire, sigCovered)
			}
			return nil
		})
	}
	if !replied {
		f.scheduleTimeout(interest, onTimeout)
	}
	return id, nil
}

func (f *Face) scheduleTimeout(interest *ndn.EncodedInterest, onTimeout cnlface.OnTimeout) {
	if onTimeout == nil {
		return
	}
	lifetime := 4 * time.Second
	if interest.Config != nil {
		if lt, ok := interest.Config.Lifetime.Get(); ok {
			lifetime = lt
		}
	}
	f.net.timers = append(f.net.timers, pendingTimer{at: f.net.Now().Add(lifetime), fn: onTimeout})
}

func mustReadInterest(interest *ndn.EncodedInterest) ndn.Interest {
	parsed, _, err := wireSpec.ReadInterest(enc.NewWireView(interest.Wire))
	if err != nil {
		panic(err) // a *ndn.EncodedInterest this package just encoded must parse back
	}
	return parsed
}

// CancelInterest implements cnlface.Face. Fake Faces deliver
// synchronously, so there is nothing outstanding to cancel except a
// pending timeout timer, which is harmless to leave in place.
func (f *Face) CancelInterest(cnlface.InterestId) {}

// RegisterPrefix implements cnlface.Face.
func (f *Face) RegisterPrefix(prefix enc.Name, onInterest cnlface.OnInterest, onRegisterFailed cnlface.OnRegisterFailed, onRegisterSuccess cnlface.OnRegisterSuccess) (cnlface.RegistrationId, error) {
	id := f.nextRegistrationID()
	f.prefixes[id] = registration{prefix: prefix, onInterest: onInterest}
	if onRegisterSuccess != nil {
		onRegisterSuccess()
	}
	return id, nil
}

// RemoveRegisteredPrefix implements cnlface.Face.
func (f *Face) RemoveRegisteredPrefix(id cnlface.RegistrationId) error {
	delete(f.prefixes, id)
	return nil
}

// PutData implements cnlface.Face. Fakeface has no unsolicited-Data path
// (every Face-to-Face exchange happens through the reply closure passed
// to ExpressInterest), so this only exists to satisfy the interface.
func (f *Face) PutData(*ndn.EncodedData) error { return nil }

// CallLater implements cnlface.Face against the shared Network clock.
func (f *Face) CallLater(delay time.Duration, fn func()) (cancel func()) {
	cancelled := new(bool)
	f.net.timers = append(f.net.timers, pendingTimer{at: f.net.Now().Add(delay), fn: fn, cancelled: cancelled})
	return func() { *cancelled = true }
}

// ProcessEvents implements cnlface.Face as a no-op: fakeface delivers
// synchronously within ExpressInterest/AdvanceTime.
func (f *Face) ProcessEvents() {}
