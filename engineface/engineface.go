// Package engineface adapts a running github.com/named-data/ndnd/std/ndn
// Engine into the cnlface.Face this module's namespace tree consumes.
package engineface

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/named-data/cnl-go/cnlface"
	enc "github.com/named-data/ndnd/std/encoding"
	"github.com/named-data/ndnd/std/log"
	"github.com/named-data/ndnd/std/ndn"
)

// Face wraps an ndn.Engine, translating between its callback-args style
// API and the narrower cnlface.Face contract.
type Face struct {
	engine ndn.Engine

	nextID    uint64
	cancelled sync.Map // cnlface.InterestId -> struct{}, best-effort

	prefixes sync.Map // cnlface.RegistrationId -> enc.Name
}

// New wraps engine as a cnlface.Face. engine must already be started
// (Engine.Start) by the caller; this package does not own its lifecycle.
func New(engine ndn.Engine) *Face {
	return &Face{engine: engine}
}

func (f *Face) nextInterestID() cnlface.InterestId {
	return cnlface.InterestId(atomic.AddUint64(&f.nextID, 1))
}

func (f *Face) nextRegistrationID() cnlface.RegistrationId {
	return cnlface.RegistrationId(atomic.AddUint64(&f.nextID, 1))
}

// ExpressInterest implements cnlface.Face.
func (f *Face) ExpressInterest(interest *ndn.EncodedInterest, onData cnlface.OnData, onTimeout cnlface.OnTimeout, onNack cnlface.OnNetworkNack) (cnlface.InterestId, error) {
	id := f.nextInterestID()
	err := f.engine.Express(interest, func(args ndn.ExpressCallbackArgs) {
		if _, cancelled := f.cancelled.LoadAndDelete(id); cancelled {
			return
		}
		switch args.Result {
		case ndn.InterestResultData:
			if onData != nil {
				onData(args.Data, args.RawData, args.SigCovered)
			}
		case ndn.InterestResultNack:
			if onNack != nil {
				onNack(args.NackReason)
			}
		default:
			if onTimeout != nil {
				onTimeout()
			}
		}
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// CancelInterest implements cnlface.Face. ndnd's Engine has no native
// per-Interest cancellation, so this only suppresses the eventual
// callback if the Interest is still outstanding when it fires.
func (f *Face) CancelInterest(id cnlface.InterestId) {
	f.cancelled.Store(id, struct{}{})
}

// RegisterPrefix implements cnlface.Face.
func (f *Face) RegisterPrefix(prefix enc.Name, onInterest cnlface.OnInterest, onRegisterFailed cnlface.OnRegisterFailed, onRegisterSuccess cnlface.OnRegisterSuccess) (cnlface.RegistrationId, error) {
	err := f.engine.AttachHandler(prefix, func(args ndn.InterestHandlerArgs) {
		if onInterest != nil {
			onInterest(args.Interest, args.RawInterest, args.SigCovered, args.Reply)
		}
	})
	if err != nil {
		if onRegisterFailed != nil {
			onRegisterFailed(err.Error())
		}
		return 0, err
	}

	if err := f.engine.RegisterRoute(prefix); err != nil {
		_ = f.engine.DetachHandler(prefix)
		if onRegisterFailed != nil {
			onRegisterFailed(err.Error())
		}
		return 0, err
	}

	id := f.nextRegistrationID()
	f.prefixes.Store(id, prefix)
	if onRegisterSuccess != nil {
		onRegisterSuccess()
	}
	return id, nil
}

// RemoveRegisteredPrefix implements cnlface.Face.
func (f *Face) RemoveRegisteredPrefix(id cnlface.RegistrationId) error {
	v, ok := f.prefixes.LoadAndDelete(id)
	if !ok {
		return nil
	}
	prefix := v.(enc.Name)
	if err := f.engine.UnregisterRoute(prefix); err != nil {
		log.Warn("engineface: failed to unregister route", "name", prefix, "err", err)
	}
	return f.engine.DetachHandler(prefix)
}

// PutData implements cnlface.Face by sending the encoded packet directly
// on the engine's underlying transport.
func (f *Face) PutData(data *ndn.EncodedData) error {
	return f.engine.Face().Send(data.Wire)
}

// CallLater implements cnlface.Face using the engine's own Timer.
func (f *Face) CallLater(delay time.Duration, fn func()) (cancel func()) {
	cancelFn := f.engine.Timer().Schedule(delay, fn)
	return func() { _ = cancelFn() }
}

// ProcessEvents implements cnlface.Face as a no-op: an ndn.Engine already
// runs its own goroutine once started.
func (f *Face) ProcessEvents() {}
