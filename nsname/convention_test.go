package nsname_test

import (
	"testing"

	"github.com/named-data/cnl-go/nsname"
	enc "github.com/named-data/ndnd/std/encoding"
	"github.com/stretchr/testify/require"
)

func TestSegmentRoundTrip(t *testing.T) {
	c := nsname.Segment(42)
	require.True(t, nsname.IsSegment(c))
	require.False(t, nsname.IsSeqNum(c))
	require.Equal(t, uint64(42), nsname.ToSegment(c))
}

func TestSeqNumRoundTrip(t *testing.T) {
	c := nsname.SeqNum(7)
	require.True(t, nsname.IsSeqNum(c))
	require.False(t, nsname.IsSegment(c))
	require.Equal(t, uint64(7), nsname.ToSeqNum(c))
}

func TestWellKnownComponentsAreDistinct(t *testing.T) {
	require.True(t, nsname.IsMeta(nsname.MetaComponent))
	require.True(t, nsname.IsManifest(nsname.ManifestComponent))
	require.True(t, nsname.IsLatest(nsname.LatestComponent))
	require.False(t, nsname.IsMeta(nsname.ManifestComponent))
	require.False(t, nsname.IsLatest(nsname.MetaComponent))
}

func TestSuccessorIncrementsLastByte(t *testing.T) {
	c := enc.NewStringComponent(enc.TypeGenericNameComponent, "a")
	succ := nsname.Successor(c)
	require.Equal(t, 1, succ.Compare(c), "successor must sort strictly after the original")
}

func TestSuccessorGrowsOnOverflow(t *testing.T) {
	c := enc.Component{Typ: enc.TypeGenericNameComponent, Val: []byte{0xff}}
	succ := nsname.Successor(c)
	require.Equal(t, []byte{0x00, 0x00}, succ.Val)
	require.Equal(t, 1, succ.Compare(c))
}
