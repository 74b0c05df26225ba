package cnlsec

import (
	enc "github.com/named-data/ndnd/std/encoding"
	"github.com/named-data/ndnd/std/ndn"
)

// Decryptor is the NAC/content-key decryption collaborator a namespace
// node may inherit. It is out of scope for this module to implement -
// applications wire in a real NAC consumer or their own scheme.
type Decryptor interface {
	// Decrypt returns the plaintext content of data, or an error if
	// decryption fails (e.g. the content key has not been fetched yet,
	// or the ciphertext is malformed).
	Decrypt(data ndn.Data) (enc.Wire, error)
}

// DecryptorFunc adapts a plain function to a Decryptor.
type DecryptorFunc func(data ndn.Data) (enc.Wire, error)

func (f DecryptorFunc) Decrypt(data ndn.Data) (enc.Wire, error) { return f(data) }
