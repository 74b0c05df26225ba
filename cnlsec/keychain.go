// Package cnlsec adapts the cryptographic collaborators the namespace
// tree needs — a signer, a content-key decryptor, a validator — down to
// the narrow shape the specification calls for: sign(data) and
// defaultCertificateName() for the KeyChain, decrypt(data) for the
// decryptor. This package does not implement any cryptography itself;
// concrete signing and decryption are provided by
// github.com/named-data/ndnd/std/security.
package cnlsec

import (
	enc "github.com/named-data/ndnd/std/encoding"
	"github.com/named-data/ndnd/std/ndn"
)

// KeyChain is the signing collaborator a namespace node inherits from
// its ancestors. It is intentionally narrower than ndnd's own
// ndn.KeyChain: this module only ever needs "give me a signer" and
// "what's my default certificate name", so that's all it asks for.
type KeyChain interface {
	// Signer returns the signer to use for newly produced Data packets.
	Signer() ndn.Signer
	// DefaultCertificateName returns the key/certificate name this
	// KeyChain signs with by default.
	DefaultCertificateName() enc.Name
}

// fromIdentity adapts a real ndnd KeyChain plus a chosen identity name
// to the KeyChain interface above.
type fromIdentity struct {
	kc       ndn.KeyChain
	identity enc.Name
}

// FromNdnd wraps a real github.com/named-data/ndnd/std/ndn.KeyChain
// (e.g. one created with std/security/keychain.NewKeyChainMem) as a
// cnlsec.KeyChain bound to a specific identity.
func FromNdnd(kc ndn.KeyChain, identity enc.Name) KeyChain {
	return &fromIdentity{kc: kc, identity: identity}
}

func (f *fromIdentity) Signer() ndn.Signer {
	id := f.kc.GetIdentity(f.identity)
	if id == nil {
		return nil
	}
	return id.Signer()
}

func (f *fromIdentity) DefaultCertificateName() enc.Name {
	s := f.Signer()
	if s == nil {
		return nil
	}
	return s.KeyName()
}

// PlaceholderDigestSigner is a stand-in ndn.Signer that never computes a
// real digest: it always reports SignatureDigestSha256 (so a SegmentStream
// consumer sees the same signature type a real digest signer would use)
// but signs with 32 zero bytes instead of an actual SHA-256 hash. It
// marks a segment as covered by a _manifest rather than an individually
// verifiable signature, per the signature-manifest producer convention.
type PlaceholderDigestSigner struct{}

func (PlaceholderDigestSigner) Type() ndn.SigType { return ndn.SignatureDigestSha256 }
func (PlaceholderDigestSigner) KeyName() enc.Name { return nil }
func (PlaceholderDigestSigner) EstimateSize() uint { return 32 }
func (PlaceholderDigestSigner) Sign(enc.Wire) ([]byte, error) {
	return make([]byte, 32), nil
}
func (PlaceholderDigestSigner) Public() ([]byte, error) { return nil, ndn.ErrNoPubKey }

// IsPlaceholderDigestSignature reports whether sig is the all-zero
// digest-only marker PlaceholderDigestSigner produces: SigType
// SignatureDigestSha256 with a 32-byte all-zero value. A real
// std/security/signer.NewSha256Signer digest would essentially never
// collide with the all-zero value, so this is the signal a
// SegmentStreamHandler consumer uses to auto-request "_manifest".
func IsPlaceholderDigestSignature(sig ndn.Signature) bool {
	if sig == nil || sig.SigType() != ndn.SignatureDigestSha256 {
		return false
	}
	v := sig.SigValue()
	if len(v) != 32 {
		return false
	}
	for _, b := range v {
		if b != 0 {
			return false
		}
	}
	return true
}

// StaticSigner wraps a single, already-constructed ndn.Signer (e.g.
// std/security/signer.NewSha256Signer(), or a signer bound to one
// identity's key) as a KeyChain that always returns it. This is the
// common case for a single-identity producer or for tests.
type StaticSigner struct {
	S ndn.Signer
}

func (s StaticSigner) Signer() ndn.Signer { return s.S }

func (s StaticSigner) DefaultCertificateName() enc.Name {
	if s.S == nil {
		return nil
	}
	return s.S.KeyName()
}
