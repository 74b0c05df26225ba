package engineface_test

import (
	"errors"
	"testing"
	"time"

	"github.com/named-data/cnl-go/engineface"
	enc "github.com/named-data/ndnd/std/encoding"
	"github.com/named-data/ndnd/std/ndn"
	"github.com/stretchr/testify/require"
)

// fakeEngine implements ndn.Engine with just enough behavior to drive
// engineface.Face: AttachHandler/DetachHandler/RegisterRoute/UnregisterRoute
// record calls, Express fires its callback immediately when autoFire is
// set or queues it for a later manual fire otherwise, and Face/Timer
// return the fakes below.
type fakeEngine struct {
	face  *fakeFace
	timer *fakeTimer

	handlers map[string]ndn.InterestHandler
	routes   map[string]bool

	registerRouteErr error

	expressed []*ndn.EncodedInterest
	pending   []ndn.ExpressCallbackFunc
	autoFire  bool
	nextResult ndn.ExpressCallbackArgs
}

// fire invokes the oldest pending Express callback, simulating a reply
// that arrives after ExpressInterest has already returned.
func (e *fakeEngine) fire(result ndn.ExpressCallbackArgs) {
	cb := e.pending[0]
	e.pending = e.pending[1:]
	cb(result)
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		face:     &fakeFace{},
		timer:    &fakeTimer{},
		handlers: map[string]ndn.InterestHandler{},
		routes:   map[string]bool{},
	}
}

func (e *fakeEngine) String() string           { return "fake-engine" }
func (e *fakeEngine) EngineTrait() ndn.Engine   { return e }
func (e *fakeEngine) Spec() ndn.Spec            { return nil }
func (e *fakeEngine) Timer() ndn.Timer          { return e.timer }
func (e *fakeEngine) Face() ndn.Face            { return e.face }
func (e *fakeEngine) Start() error              { return nil }
func (e *fakeEngine) Stop() error               { return nil }
func (e *fakeEngine) IsRunning() bool           { return true }

func (e *fakeEngine) AttachHandler(prefix enc.Name, handler ndn.InterestHandler) error {
	e.handlers[prefix.String()] = handler
	return nil
}

func (e *fakeEngine) DetachHandler(prefix enc.Name) error {
	delete(e.handlers, prefix.String())
	return nil
}

func (e *fakeEngine) Express(interest *ndn.EncodedInterest, callback ndn.ExpressCallbackFunc) error {
	e.expressed = append(e.expressed, interest)
	if e.autoFire {
		callback(e.nextResult)
		return nil
	}
	e.pending = append(e.pending, callback)
	return nil
}

func (e *fakeEngine) ExecMgmtCmd(module string, cmd string, args any) (any, error) { return nil, nil }
func (e *fakeEngine) SetCmdSec(signer ndn.Signer, validator func(enc.Name, enc.Wire, ndn.Signature) bool) {
}

func (e *fakeEngine) RegisterRoute(prefix enc.Name) error {
	if e.registerRouteErr != nil {
		return e.registerRouteErr
	}
	e.routes[prefix.String()] = true
	return nil
}

func (e *fakeEngine) UnregisterRoute(prefix enc.Name) error {
	delete(e.routes, prefix.String())
	return nil
}

func (e *fakeEngine) Post(fn func()) { fn() }

type fakeFace struct {
	sent []enc.Wire
}

func (f *fakeFace) String() string          { return "fake-face" }
func (f *fakeFace) IsRunning() bool         { return true }
func (f *fakeFace) IsLocal() bool           { return true }
func (f *fakeFace) OnPacket(func([]byte))   {}
func (f *fakeFace) OnError(func(error))     {}
func (f *fakeFace) Open() error             { return nil }
func (f *fakeFace) Close() error            { return nil }
func (f *fakeFace) Send(pkt enc.Wire) error { f.sent = append(f.sent, pkt); return nil }
func (f *fakeFace) OnUp(func()) (cancel func())   { return func() {} }
func (f *fakeFace) OnDown(func()) (cancel func()) { return func() {} }

type fakeTimer struct {
	scheduled   []time.Duration
	cancelCalls int
}

func (t *fakeTimer) Now() time.Time             { return time.Time{} }
func (t *fakeTimer) Sleep(time.Duration)        {}
func (t *fakeTimer) Nonce() []byte              { return []byte{1, 2, 3, 4} }
func (t *fakeTimer) Schedule(d time.Duration, fn func()) func() error {
	t.scheduled = append(t.scheduled, d)
	return func() error { t.cancelCalls++; return nil }
}

func TestExpressInterestDeliversData(t *testing.T) {
	engine := newFakeEngine()
	engine.autoFire = true
	engine.nextResult = ndn.ExpressCallbackArgs{Result: ndn.InterestResultData}
	face := engineface.New(engine)

	var gotData bool
	_, err := face.ExpressInterest(&ndn.EncodedInterest{}, func(ndn.Data, enc.Wire, enc.Wire) {
		gotData = true
	}, nil, nil)
	require.NoError(t, err)
	require.True(t, gotData)
	require.Len(t, engine.expressed, 1)
}

func TestExpressInterestTimeout(t *testing.T) {
	engine := newFakeEngine()
	engine.autoFire = true
	engine.nextResult = ndn.ExpressCallbackArgs{Result: ndn.InterestResultTimeout}
	face := engineface.New(engine)

	var timedOut bool
	_, err := face.ExpressInterest(&ndn.EncodedInterest{}, nil, func() { timedOut = true }, nil)
	require.NoError(t, err)
	require.True(t, timedOut)
}

func TestCancelInterestSuppressesLateCallback(t *testing.T) {
	engine := newFakeEngine()
	face := engineface.New(engine)

	id, err := face.ExpressInterest(&ndn.EncodedInterest{}, func(ndn.Data, enc.Wire, enc.Wire) {
		t.Fatal("onData must not fire once cancelled")
	}, nil, nil)
	require.NoError(t, err)

	face.CancelInterest(id)
	engine.fire(ndn.ExpressCallbackArgs{Result: ndn.InterestResultData})
}

func TestRegisterPrefixSuccess(t *testing.T) {
	engine := newFakeEngine()
	face := engineface.New(engine)
	name, err := enc.NameFromStr("/example")
	require.NoError(t, err)

	var succeeded bool
	_, err = face.RegisterPrefix(name, func(ndn.Interest, enc.Wire, enc.Wire, ndn.WireReplyFunc) {}, func(string) {
		t.Fatal("register should not fail")
	}, func() { succeeded = true })

	require.NoError(t, err)
	require.True(t, succeeded)
	require.True(t, engine.routes[name.String()])
	require.NotNil(t, engine.handlers[name.String()])
}

func TestRegisterPrefixFailureRollsBackHandler(t *testing.T) {
	engine := newFakeEngine()
	engine.registerRouteErr = errors.New("no forwarder")
	face := engineface.New(engine)
	name, err := enc.NameFromStr("/example/fail")
	require.NoError(t, err)

	var failReason string
	_, err = face.RegisterPrefix(name, func(ndn.Interest, enc.Wire, enc.Wire, ndn.WireReplyFunc) {}, func(reason string) {
		failReason = reason
	}, func() { t.Fatal("register should not succeed") })

	require.Error(t, err)
	require.Equal(t, "no forwarder", failReason)
	require.False(t, engine.routes[name.String()])
	require.Nil(t, engine.handlers[name.String()], "handler must be detached on RegisterRoute failure")
}

func TestPutDataSendsOnFace(t *testing.T) {
	engine := newFakeEngine()
	face := engineface.New(engine)

	require.NoError(t, face.PutData(&ndn.EncodedData{Wire: enc.Wire{[]byte("payload")}}))
	require.Len(t, engine.face.sent, 1)
}

func TestCallLaterSchedulesOnEngineTimer(t *testing.T) {
	engine := newFakeEngine()
	face := engineface.New(engine)

	cancel := face.CallLater(50*time.Millisecond, func() {})
	require.Equal(t, []time.Duration{50 * time.Millisecond}, engine.timer.scheduled)

	cancel()
	require.Equal(t, 1, engine.timer.cancelCalls)
}
