package cnlsec

import (
	enc "github.com/named-data/ndnd/std/encoding"
	"github.com/named-data/ndnd/std/ndn"
)

// Validator resolves the "Validation (NamespaceValidateState) is a
// declared interface but left as a TODO" open question: a pluggable
// verifier invoked when a node's Data is received, independent of
// deserialization. It reports whether data (whose signed bytes are
// sigCovered) should be trusted.
type Validator interface {
	Validate(data ndn.Data, sigCovered enc.Wire) (ok bool, err error)
}

// AlwaysValidate is the default Validator used when no ancestor
// configures one: every Data packet is accepted immediately. This
// matches the "TODO" behavior of the design this module is grounded on -
// validation is opt-in.
var AlwaysValidate Validator = alwaysValidate{}

type alwaysValidate struct{}

func (alwaysValidate) Validate(ndn.Data, enc.Wire) (bool, error) { return true, nil }

// SignatureOnly builds a Validator that only checks that data carries a
// signature whose type is one of the given types (or, with no types
// given, any type other than SignatureNone). The signature value itself
// is not verified, and nothing is checked against a trust schema. It is meant for applications that want to
// reject obviously-unsigned Data without paying for full certificate
// chain validation.
func SignatureOnly(allowed ...ndn.SigType) Validator {
	set := make(map[ndn.SigType]bool, len(allowed))
	for _, t := range allowed {
		set[t] = true
	}
	return signatureOnly{allowed: set}
}

type signatureOnly struct {
	allowed map[ndn.SigType]bool
}

func (s signatureOnly) Validate(data ndn.Data, _ enc.Wire) (bool, error) {
	sig := data.Signature()
	if sig == nil {
		return false, nil
	}
	if len(s.allowed) == 0 {
		return sig.SigType() != ndn.SignatureNone, nil
	}
	return s.allowed[sig.SigType()], nil
}
