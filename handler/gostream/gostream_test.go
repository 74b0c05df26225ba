package gostream_test

import (
	"testing"
	"time"

	"github.com/named-data/cnl-go/cnlerr"
	"github.com/named-data/cnl-go/cnlsec"
	"github.com/named-data/cnl-go/handler/gostream"
	"github.com/named-data/cnl-go/internal/fakeface"
	"github.com/named-data/cnl-go/meta"
	"github.com/named-data/cnl-go/namespace"
	"github.com/named-data/cnl-go/nsname"
	enc "github.com/named-data/ndnd/std/encoding"
	"github.com/named-data/ndnd/std/security/signer"
	"github.com/stretchr/testify/require"
)

func mustName(t *testing.T, s string) enc.Name {
	t.Helper()
	name, err := enc.NameFromStr(s)
	require.NoError(t, err)
	return name
}

func TestStreamDeliversPublishedObjectsAsLatestAdvances(t *testing.T) {
	net := fakeface.NewNetwork()
	pubFace := net.NewFace()
	subFace := net.NewFace()
	name := mustName(t, "/example/stream")

	pubRoot := namespace.NewRoot(name)
	pubRoot.SetFace(pubFace)
	pubRoot.SetKeyChain(cnlsec.StaticSigner{S: signer.NewSha256Signer()})
	require.NoError(t, pubRoot.RegisterPrefix())

	pubStream := gostream.New()
	pubStream.LatestFreshness = 10 * time.Millisecond
	require.NoError(t, pubRoot.SetHandler(pubStream))

	seq0, err := pubStream.AddObject(namespace.Blob("first"), []byte("first"))
	require.NoError(t, err)
	require.Equal(t, uint64(0), seq0)

	subRoot := namespace.NewRoot(name)
	subRoot.SetFace(subFace)
	subStream := gostream.New()
	subStream.LatestFreshness = 10 * time.Millisecond
	require.NoError(t, subRoot.SetHandler(subStream))

	var delivered []uint64
	subStream.OnObject(func(seq uint64, obj namespace.Object) {
		delivered = append(delivered, seq)
		blob, ok := obj.(namespace.Blob)
		require.True(t, ok)
		_ = blob
	})
	require.NoError(t, subStream.StartFetching(false))
	require.Equal(t, []uint64{0}, delivered)

	seq1, err := pubStream.AddObject(namespace.Blob("second"), []byte("second"))
	require.NoError(t, err)
	require.Equal(t, uint64(1), seq1)

	// The subscriber's cached "_latest" is still fresh immediately after
	// publish; advancing past its freshness period fires the scheduled
	// poll and lets it notice the update.
	net.AdvanceTime(15 * time.Millisecond)
	require.Equal(t, []uint64{0, 1}, delivered)

	subStream.StopFetching()
}

func TestPipelineCatchesUpAllKnownSequenceNumbers(t *testing.T) {
	net := fakeface.NewNetwork()
	pubFace := net.NewFace()
	subFace := net.NewFace()
	name := mustName(t, "/example/catchup")

	pubRoot := namespace.NewRoot(name)
	pubRoot.SetFace(pubFace)
	pubRoot.SetKeyChain(cnlsec.StaticSigner{S: signer.NewSha256Signer()})
	require.NoError(t, pubRoot.RegisterPrefix())

	pubStream := gostream.New()
	require.NoError(t, pubRoot.SetHandler(pubStream))
	for i := 0; i < 3; i++ {
		_, err := pubStream.AddObject(namespace.Blob("x"), []byte{byte('a' + i)})
		require.NoError(t, err)
	}

	subRoot := namespace.NewRoot(name)
	subRoot.SetFace(subFace)
	subStream := gostream.New()
	subStream.PipelineSize = 3
	require.NoError(t, subRoot.SetHandler(subStream))

	var delivered []uint64
	subStream.OnObject(func(seq uint64, obj namespace.Object) { delivered = append(delivered, seq) })
	require.NoError(t, subStream.StartFetching(false))

	require.Equal(t, []uint64{0, 1, 2}, delivered)
	seq, ok := subStream.MaxReportedSequenceNumber()
	require.True(t, ok)
	require.Equal(t, uint64(2), seq)

	subStream.StopFetching()
}

func TestStartFetchingRejectsNegativePipelineSize(t *testing.T) {
	net := fakeface.NewNetwork()
	root := namespace.NewRoot(mustName(t, "/example/bad-pipeline"))
	root.SetFace(net.NewFace())

	h := gostream.New()
	h.PipelineSize = -1
	require.NoError(t, root.SetHandler(h))

	require.ErrorIs(t, h.StartFetching(false), cnlerr.ErrNegativePipelineSize)
}

func TestOnLatestFollowsLiteralFirstDelegationRegardlessOfPreference(t *testing.T) {
	net := fakeface.NewNetwork()
	pubFace := net.NewFace()
	subFace := net.NewFace()
	name := mustName(t, "/example/first-entry")

	pubRoot := namespace.NewRoot(name)
	pubRoot.SetFace(pubFace)
	pubRoot.SetKeyChain(cnlsec.StaticSigner{S: signer.NewSha256Signer()})
	require.NoError(t, pubRoot.RegisterPrefix())

	// Publish seq=0 and seq=1 directly, then hand-craft a "_latest" whose
	// literal first entry (higher Preference number) names seq=0 while a
	// later, lower-Preference entry names seq=1: the wire contract says
	// the consumer must follow the first entry, not scan for the lowest
	// Preference.
	pubStream := gostream.New()
	require.NoError(t, pubRoot.SetHandler(pubStream))
	_, err := pubStream.AddObject(namespace.Blob("first"), []byte("first"))
	require.NoError(t, err)
	_, err = pubStream.AddObject(namespace.Blob("second"), []byte("second"))
	require.NoError(t, err)

	set := &meta.DelegationSet{Delegations: []*meta.Delegation{
		{Preference: 10, Name: enc.Name{nsname.SeqNum(0)}},
		{Preference: 0, Name: enc.Name{nsname.SeqNum(1)}},
	}}
	latest := pubRoot.GetChildComponent(nsname.LatestComponent)
	wire := set.Encode()
	require.NoError(t, latest.SerializeObject(namespace.Blob(wire.Join()), wire))

	subRoot := namespace.NewRoot(name)
	subRoot.SetFace(subFace)
	subStream := gostream.New()
	require.NoError(t, subRoot.SetHandler(subStream))

	var delivered []uint64
	subStream.OnObject(func(seq uint64, obj namespace.Object) { delivered = append(delivered, seq) })
	require.NoError(t, subStream.StartFetching(false))

	require.Equal(t, []uint64{0}, delivered, "must follow the first delegation entry, not the lowest-preference one")
	subStream.StopFetching()
}
