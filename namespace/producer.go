package namespace

import (
	"github.com/named-data/cnl-go/cnlerr"
	enc "github.com/named-data/ndnd/std/encoding"
	"github.com/named-data/ndnd/std/ndn"
)

// SerializeObject signs and publishes payload as n's Data packet with obj
// attached as its decoded object, moving n through Serializing and
// Signing before landing on ObjectReady. It is the producer counterpart
// of a consumer's SetData+Deserialize pair: the resulting node ends up in
// exactly the shape it would if it had instead received these bytes over
// the network, so pending Interests are satisfied the same way either
// side comes to hold the Data.
//
// If n already holds a Data packet, that packet is kept and the newly
// signed one is discarded; obj still becomes n's object and no error is
// returned.
//
// Encryption (the Encrypting/EncryptionError states) is not exercised
// here: no Encryptor collaborator is part of this module's producer
// surface, only the consumer-side Decryptor.
func (n *Node) SerializeObject(obj Object, payload enc.Wire) error {
	kc := n.KeyChain()
	if kc == nil {
		return cnlerr.ErrNoKeyChain
	}
	return n.serializeObjectWithSigner(obj, payload, kc.Signer())
}

// SerializeObjectWithSigner behaves exactly like SerializeObject, but
// signs with signer instead of n's inherited KeyChain. It exists for
// callers that must depart from the inherited signing identity for a
// specific packet, such as a segment published under a placeholder
// digest-only signature for signature-manifest mode.
func (n *Node) SerializeObjectWithSigner(obj Object, payload enc.Wire, signer ndn.Signer) error {
	return n.serializeObjectWithSigner(obj, payload, signer)
}

func (n *Node) serializeObjectWithSigner(obj Object, payload enc.Wire, signer ndn.Signer) error {
	if n.IsShutDown() {
		return cnlerr.ErrShutdown
	}

	n.object = obj
	n.setState(Serializing)

	cfg := n.NewDataMetaInfo()
	if cfg == nil {
		cfg = &ndn.DataConfig{}
	}

	n.setState(Signing)
	encoded, err := wireSpec.MakeData(n.name, cfg, payload, signer)
	if err != nil {
		n.setState(SigningError)
		return err
	}

	data, sigCovered, err := wireSpec.ReadData(enc.NewWireView(encoded.Wire))
	if err != nil {
		n.setState(SigningError)
		return err
	}

	if _, err := n.SetData(data, encoded.Wire, sigCovered); err != nil { // clears n.object; restored below
		n.setState(SigningError)
		return err
	}
	n.object = obj
	n.setState(ObjectReady)
	return nil
}
