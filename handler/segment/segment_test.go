package segment_test

import (
	"testing"
	"time"

	"github.com/named-data/cnl-go/cnlerr"
	"github.com/named-data/cnl-go/cnlsec"
	"github.com/named-data/cnl-go/handler/segment"
	"github.com/named-data/cnl-go/internal/fakeface"
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

func TestPublishAndFetchReassemblesInOrder(t *testing.T) {
	net := fakeface.NewNetwork()
	pubFace := net.NewFace()
	subFace := net.NewFace()
	name := mustName(t, "/example/blob")

	pubRoot := namespace.NewRoot(name)
	pubRoot.SetFace(pubFace)
	pubRoot.SetKeyChain(cnlsec.StaticSigner{S: signer.NewSha256Signer()})
	require.NoError(t, pubRoot.RegisterPrefix())

	pubSeg := segment.New()
	pubSeg.MaxSegmentPayloadLength = 4
	require.NoError(t, pubRoot.SetHandler(pubSeg))

	payload := []byte("0123456789") // 3 segments of length 4,4,2
	require.NoError(t, pubSeg.Publish(payload))
	finalSeg, ok := pubSeg.FinalSegmentNumber()
	require.True(t, ok)
	require.Equal(t, uint64(2), finalSeg)

	subRoot := namespace.NewRoot(name)
	subRoot.SetFace(subFace)
	subSeg := segment.New()
	require.NoError(t, subRoot.SetHandler(subSeg))

	var got []byte
	done := make(chan struct{})
	nextExpected := uint64(0)
	subSeg.OnSegment(func(seg uint64, content []byte, isFinal bool) {
		require.Equal(t, nextExpected, seg, "segments must be delivered strictly in order")
		nextExpected++
		got = append(got, content...)
		if isFinal {
			close(done)
		}
	})
	require.NoError(t, subSeg.FetchFrom(false))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for full object")
	}
	require.Equal(t, payload, got)
}

func TestPublishWithManifestVerifiesFetchedSegments(t *testing.T) {
	net := fakeface.NewNetwork()
	pubFace := net.NewFace()
	subFace := net.NewFace()
	name := mustName(t, "/example/manifest")

	pubRoot := namespace.NewRoot(name)
	pubRoot.SetFace(pubFace)
	pubRoot.SetKeyChain(cnlsec.StaticSigner{S: signer.NewSha256Signer()})
	require.NoError(t, pubRoot.RegisterPrefix())

	pubSeg := segment.New()
	pubSeg.MaxSegmentPayloadLength = 4
	pubSeg.UseSignatureManifest = true
	require.NoError(t, pubRoot.SetHandler(pubSeg))
	require.NoError(t, pubSeg.Publish([]byte("abcdefgh")))

	subRoot := namespace.NewRoot(name)
	subRoot.SetFace(subFace)
	subSeg := segment.New()
	require.NoError(t, subRoot.SetHandler(subSeg))

	done := make(chan struct{})
	subSeg.OnSegment(func(_ uint64, _ []byte, isFinal bool) {
		if isFinal {
			close(done)
		}
	})
	require.NoError(t, subSeg.FetchFrom(false))
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for full object")
	}

	manifestNode, err := subRoot.GetChild(name.Append(nsname.ManifestComponent))
	require.NoError(t, err)
	require.NoError(t, manifestNode.ObjectNeeded(false))
	data := manifestNode.Data()
	require.NotNil(t, data)
	manifest := data.Content().Join()
	require.Zero(t, len(manifest)%32, "manifest length must be a multiple of 32")

	require.NoError(t, segment.VerifyWithManifest(subRoot, manifest))
}

func TestFetchFromRejectsNegativePipelineSize(t *testing.T) {
	net := fakeface.NewNetwork()
	root := namespace.NewRoot(mustName(t, "/example/bad-pipeline"))
	root.SetFace(net.NewFace())

	h := segment.New()
	h.InterestPipelineSize = -1
	require.NoError(t, root.SetHandler(h))

	require.ErrorIs(t, h.FetchFrom(false), cnlerr.ErrNegativePipelineSize)
}

func TestFetchAutoRequestsManifestOnPlaceholderSignature(t *testing.T) {
	net := fakeface.NewNetwork()
	pubFace := net.NewFace()
	subFace := net.NewFace()
	name := mustName(t, "/example/auto-manifest")

	pubRoot := namespace.NewRoot(name)
	pubRoot.SetFace(pubFace)
	pubRoot.SetKeyChain(cnlsec.StaticSigner{S: signer.NewSha256Signer()})
	require.NoError(t, pubRoot.RegisterPrefix())

	pubSeg := segment.New()
	pubSeg.MaxSegmentPayloadLength = 4
	pubSeg.UseSignatureManifest = true
	require.NoError(t, pubRoot.SetHandler(pubSeg))
	require.NoError(t, pubSeg.Publish([]byte("abcdefgh")))

	subRoot := namespace.NewRoot(name)
	subRoot.SetFace(subFace)
	subSeg := segment.New()
	require.NoError(t, subRoot.SetHandler(subSeg))

	done := make(chan struct{})
	subSeg.OnSegment(func(_ uint64, _ []byte, isFinal bool) {
		if isFinal {
			close(done)
		}
	})
	require.NoError(t, subSeg.FetchFrom(false))
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for full object")
	}

	manifestNode, err := subRoot.GetChild(name.Append(nsname.ManifestComponent))
	require.NoError(t, err)
	require.Equal(t, namespace.ObjectReady, manifestNode.State(),
		"the placeholder digest-only segment signature should have auto-triggered the _manifest fetch")
}

func TestFetchReportsErrorWhenFirstSegmentHasNoFinalBlockId(t *testing.T) {
	net := fakeface.NewNetwork()
	pubFace := net.NewFace()
	subFace := net.NewFace()
	name := mustName(t, "/example/no-final-block-id")

	pubRoot := namespace.NewRoot(name)
	pubRoot.SetFace(pubFace)
	pubRoot.SetKeyChain(cnlsec.StaticSigner{S: signer.NewSha256Signer()})
	require.NoError(t, pubRoot.RegisterPrefix())

	// Publish segment=0 directly, bypassing Publish (which always sets
	// FinalBlockId), to simulate a producer that never set one.
	seg0 := pubRoot.GetChildComponent(nsname.Segment(0))
	require.NoError(t, seg0.SerializeObject(namespace.Blob("x"), enc.Wire{[]byte("x")}))

	subRoot := namespace.NewRoot(name)
	subRoot.SetFace(subFace)
	subSeg := segment.New()
	require.NoError(t, subRoot.SetHandler(subSeg))

	var gotErr error
	subSeg.OnError(func(err error) { gotErr = err })
	require.NoError(t, subSeg.FetchFrom(false))

	require.ErrorIs(t, gotErr, cnlerr.ErrNoFinalBlockId)
}
