package cnlsec_test

import (
	"testing"
	"time"

	"github.com/named-data/cnl-go/cnlsec"
	enc "github.com/named-data/ndnd/std/encoding"
	"github.com/named-data/ndnd/std/ndn"
	"github.com/named-data/ndnd/std/object/storage"
	"github.com/named-data/ndnd/std/security/keychain"
	"github.com/named-data/ndnd/std/security/signer"
	"github.com/named-data/ndnd/std/types/optional"
	testutils "github.com/named-data/ndnd/std/utils/testutils"
	"github.com/stretchr/testify/require"
)

func mustName(t *testing.T, s string) enc.Name {
	t.Helper()
	name, err := enc.NameFromStr(s)
	require.NoError(t, err)
	return name
}

func TestFromNdndResolvesSignerAndCertificateNameFromIdentity(t *testing.T) {
	store := storage.NewMemoryStore()
	kc := keychain.NewKeyChainMem(store)

	testutils.SetT(t)
	idName := mustName(t, "/my/test/identity")
	key := testutils.NoErr(signer.KeygenEd25519(keychain.MakeKeyName(idName)))
	require.NoError(t, kc.InsertKey(key))

	adapted := cnlsec.FromNdnd(kc, idName)
	require.NotNil(t, adapted.Signer())
	require.Equal(t, key.KeyName(), adapted.DefaultCertificateName())
}

func TestFromNdndUnknownIdentityReturnsNilSignerAndName(t *testing.T) {
	store := storage.NewMemoryStore()
	kc := keychain.NewKeyChainMem(store)

	adapted := cnlsec.FromNdnd(kc, mustName(t, "/no/such/identity"))
	require.Nil(t, adapted.Signer())
	require.Nil(t, adapted.DefaultCertificateName())
}

func TestStaticSignerReturnsBoundSignerAndItsKeyName(t *testing.T) {
	s := signer.NewSha256Signer()
	kc := cnlsec.StaticSigner{S: s}

	require.Equal(t, s, kc.Signer())
	require.Equal(t, s.KeyName(), kc.DefaultCertificateName())
}

func TestStaticSignerWithNilSignerReturnsNilCertificateName(t *testing.T) {
	kc := cnlsec.StaticSigner{}
	require.Nil(t, kc.DefaultCertificateName())
}

func TestAlwaysValidateAcceptsEverything(t *testing.T) {
	ok, err := cnlsec.AlwaysValidate.Validate(nil, nil)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestSignatureOnlyRejectsUnsigned(t *testing.T) {
	v := cnlsec.SignatureOnly()
	ok, err := v.Validate(dataWithSig(ndn.SignatureNone), nil)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSignatureOnlyAcceptsAnySignatureWhenNoTypesGiven(t *testing.T) {
	v := cnlsec.SignatureOnly()
	ok, err := v.Validate(dataWithSig(ndn.SignatureDigestSha256), nil)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestSignatureOnlyRestrictsToAllowedTypes(t *testing.T) {
	v := cnlsec.SignatureOnly(ndn.SignatureEd25519, ndn.SignatureSha256WithEcdsa)

	ok, err := v.Validate(dataWithSig(ndn.SignatureEd25519), nil)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = v.Validate(dataWithSig(ndn.SignatureDigestSha256), nil)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPlaceholderDigestSignerSignsAllZerosAsDigestType(t *testing.T) {
	s := cnlsec.PlaceholderDigestSigner{}
	require.Equal(t, ndn.SignatureDigestSha256, s.Type())

	sig, err := s.Sign(enc.Wire{[]byte("anything")})
	require.NoError(t, err)
	require.Equal(t, make([]byte, 32), sig)
}

func TestIsPlaceholderDigestSignatureDetectsOnlyTheAllZeroDigestMarker(t *testing.T) {
	require.True(t, cnlsec.IsPlaceholderDigestSignature(fakeSignature{
		sigType: ndn.SignatureDigestSha256,
		sigVal:  make([]byte, 32),
	}))

	real := make([]byte, 32)
	real[0] = 1
	require.False(t, cnlsec.IsPlaceholderDigestSignature(fakeSignature{
		sigType: ndn.SignatureDigestSha256,
		sigVal:  real,
	}), "a real digest is never all-zero")

	require.False(t, cnlsec.IsPlaceholderDigestSignature(fakeSignature{
		sigType: ndn.SignatureEd25519,
		sigVal:  make([]byte, 32),
	}), "wrong signature type")

	require.False(t, cnlsec.IsPlaceholderDigestSignature(nil))
}

func dataWithSig(sigType ndn.SigType) ndn.Data {
	return fakeData{sig: fakeSignature{sigType: sigType}}
}

// fakeSignature and fakeData implement just enough of ndn.Signature/ndn.Data
// for SignatureOnly's and IsPlaceholderDigestSignature's use of
// Signature().SigType()/SigValue().
type fakeSignature struct {
	sigType ndn.SigType
	sigVal  []byte
}

func (s fakeSignature) SigType() ndn.SigType             { return s.sigType }
func (fakeSignature) KeyName() enc.Name                  { return nil }
func (fakeSignature) SigNonce() []byte                   { return nil }
func (fakeSignature) SigTime() *time.Time                { return nil }
func (fakeSignature) SigSeqNum() *uint64                 { return nil }
func (fakeSignature) Validity() (*time.Time, *time.Time) { return nil, nil }
func (s fakeSignature) SigValue() []byte                 { return s.sigVal }

type fakeData struct {
	sig ndn.Signature
}

func (fakeData) Name() enc.Name                                     { return nil }
func (fakeData) ContentType() optional.Optional[ndn.ContentType]     { return optional.None[ndn.ContentType]() }
func (fakeData) Freshness() optional.Optional[time.Duration]         { return optional.None[time.Duration]() }
func (fakeData) FinalBlockID() optional.Optional[enc.Component]      { return optional.None[enc.Component]() }
func (fakeData) Content() enc.Wire                                   { return nil }
func (d fakeData) Signature() ndn.Signature                          { return d.sig }
func (fakeData) CrossSchema() enc.Wire                               { return nil }
