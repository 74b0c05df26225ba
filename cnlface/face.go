// Package cnlface declares the abstract network collaborator this module
// consumes but does not implement: a Face. The wire codec, Interest/Data
// packet types themselves, and low-level Face I/O are out of scope for
// this library (see the package README); this interface is the seam
// through which the namespace tree and its handlers reach the network.
//
// A concrete implementation on top of a real NDN engine lives in
// engineface; tests use internal/fakeface.
package cnlface

import (
	"time"

	enc "github.com/named-data/ndnd/std/encoding"
	"github.com/named-data/ndnd/std/ndn"
)

// InterestId identifies one expressed Interest for the lifetime of the
// pending request (used only to cancel it).
type InterestId uint64

// RegistrationId identifies one registered prefix (used only to remove
// the registration later).
type RegistrationId uint64

// OnData is called when Data satisfying an expressed Interest arrives.
type OnData func(data ndn.Data, rawData enc.Wire, sigCovered enc.Wire)

// OnTimeout is called when an expressed Interest's lifetime elapses with
// no Data or NACK.
type OnTimeout func()

// OnNetworkNack is called when a NACK is received for an expressed
// Interest.
type OnNetworkNack func(reason uint64)

// OnInterest is called when an incoming Interest matches a registered
// prefix. reply sends a single Data packet in response.
type OnInterest func(interest ndn.Interest, rawInterest enc.Wire, sigCovered enc.Wire, reply ndn.WireReplyFunc)

// OnRegisterFailed is called when RegisterPrefix could not register the
// prefix with the forwarder.
type OnRegisterFailed func(reason string)

// OnRegisterSuccess is called when RegisterPrefix successfully
// registered the prefix.
type OnRegisterSuccess func()

// Face is the network collaborator described in the specification's
// external-interfaces section: everything the namespace tree needs from
// the network, and nothing more.
type Face interface {
	// ExpressInterest sends interest (already encoded into wire) and
	// arranges for exactly one of onData, onTimeout or onNack to be
	// called with the outcome.
	ExpressInterest(interest *ndn.EncodedInterest, onData OnData, onTimeout OnTimeout, onNack OnNetworkNack) (InterestId, error)
	// CancelInterest best-effort cancels a previously expressed
	// Interest; it is not an error to cancel one that has already been
	// satisfied or has timed out.
	CancelInterest(id InterestId)
	// RegisterPrefix registers this Face to receive Interests matching
	// prefix, invoking onInterest for each one.
	RegisterPrefix(prefix enc.Name, onInterest OnInterest, onRegisterFailed OnRegisterFailed, onRegisterSuccess OnRegisterSuccess) (RegistrationId, error)
	// RemoveRegisteredPrefix undoes a RegisterPrefix call.
	RemoveRegisteredPrefix(id RegistrationId) error
	// PutData sends data unsolicited, outside of the OnInterest
	// callback. The pending-interest table does not use it; it replies
	// through the Reply function captured with each Interest.
	PutData(data *ndn.EncodedData) error
	// CallLater schedules fn to run after delay and returns a function
	// that cancels the scheduled call if it hasn't fired yet.
	CallLater(delay time.Duration, fn func()) (cancel func())
	// ProcessEvents drives one turn of the event loop. Face
	// implementations backed by an already-running engine may make this
	// a no-op; it exists for parity with Faces that require explicit
	// pumping (see internal/fakeface, used in tests).
	ProcessEvents()
}
