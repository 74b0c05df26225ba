package namespace

import (
	"time"

	"github.com/named-data/cnl-go/cnlface"
	"github.com/named-data/cnl-go/cnlsec"
	"github.com/named-data/ndnd/std/ndn"
)

// DefaultInterestLifetime is used for a node's first expressed Interest
// when nothing overrides it.
const DefaultInterestLifetime = 4000 * time.Millisecond

// DefaultMaxInterestLifetime caps the exponential-backoff re-expression
// loop.
const DefaultMaxInterestLifetime = 16000 * time.Millisecond

// config holds the "inherit from nearest ancestor" values described in
// the data model: looked up by walking to the root, first ancestor that
// defines the value wins. Each field is a pointer/interface so "unset"
// is distinguishable from "set to the zero value".
type config struct {
	face                cnlface.Face
	keyChain            cnlsec.KeyChain
	decryptor           cnlsec.Decryptor
	validator           cnlsec.Validator
	newDataMetaInfo     *ndn.DataConfig
	maxInterestLifetime *time.Duration
	// syncDepth configures how many extra name components a sync
	// protocol (e.g. a FullPSync-based dataset sync, out of scope for
	// this module) should treat as part of the synchronized prefix
	// rather than as object-identifying suffix. No component in this
	// module reads it; it is inherited config plumbing only, so an
	// application-provided sync integration has somewhere to put it
	// without inventing its own inheritance mechanism.
	syncDepth *int
}

// configVersion is bumped at the root every time any node's inherited
// config changes. The config lookups do not consult it; each one walks
// toward the root on every access.
func (n *Node) bumpConfigVersion() {
	n.root().configVersion++
}

func (n *Node) SetFace(face cnlface.Face) {
	n.config.face = face
	n.bumpConfigVersion()
}

func (n *Node) SetKeyChain(kc cnlsec.KeyChain) {
	n.config.keyChain = kc
	n.bumpConfigVersion()
}

func (n *Node) SetDecryptor(d cnlsec.Decryptor) {
	n.config.decryptor = d
	n.bumpConfigVersion()
}

func (n *Node) SetValidator(v cnlsec.Validator) {
	n.config.validator = v
	n.bumpConfigVersion()
}

func (n *Node) SetNewDataMetaInfo(cfg *ndn.DataConfig) {
	n.config.newDataMetaInfo = cfg
	n.bumpConfigVersion()
}

func (n *Node) SetMaxInterestLifetime(d time.Duration) {
	n.config.maxInterestLifetime = &d
	n.bumpConfigVersion()
}

func (n *Node) SetSyncDepth(depth int) {
	n.config.syncDepth = &depth
	n.bumpConfigVersion()
}

// Face returns the Face inherited from this node or its nearest
// configured ancestor, or nil if none is configured anywhere on the
// path to the root.
func (n *Node) Face() cnlface.Face {
	for cur := n; cur != nil; cur = cur.parent {
		if cur.config.face != nil {
			return cur.config.face
		}
	}
	return nil
}

// KeyChain returns the inherited KeyChain, or nil.
func (n *Node) KeyChain() cnlsec.KeyChain {
	for cur := n; cur != nil; cur = cur.parent {
		if cur.config.keyChain != nil {
			return cur.config.keyChain
		}
	}
	return nil
}

// Decryptor returns the inherited Decryptor, or nil if objects under
// this node are not encrypted.
func (n *Node) Decryptor() cnlsec.Decryptor {
	for cur := n; cur != nil; cur = cur.parent {
		if cur.config.decryptor != nil {
			return cur.config.decryptor
		}
	}
	return nil
}

// Validator returns the inherited Validator, defaulting to
// cnlsec.AlwaysValidate if none was configured anywhere on the path to
// the root.
func (n *Node) Validator() cnlsec.Validator {
	for cur := n; cur != nil; cur = cur.parent {
		if cur.config.validator != nil {
			return cur.config.validator
		}
	}
	return cnlsec.AlwaysValidate
}

// NewDataMetaInfo returns the inherited MetaInfo template applied to
// every Data packet this subtree produces, or nil if none was set.
func (n *Node) NewDataMetaInfo() *ndn.DataConfig {
	for cur := n; cur != nil; cur = cur.parent {
		if cur.config.newDataMetaInfo != nil {
			return cur.config.newDataMetaInfo
		}
	}
	return nil
}

// MaxInterestLifetime returns the inherited cap on the exponential
// re-expression loop, defaulting to DefaultMaxInterestLifetime.
func (n *Node) MaxInterestLifetime() time.Duration {
	for cur := n; cur != nil; cur = cur.parent {
		if cur.config.maxInterestLifetime != nil {
			return *cur.config.maxInterestLifetime
		}
	}
	return DefaultMaxInterestLifetime
}

// SyncDepth returns the inherited sync depth and whether one was set.
func (n *Node) SyncDepth() (int, bool) {
	for cur := n; cur != nil; cur = cur.parent {
		if cur.config.syncDepth != nil {
			return *cur.config.syncDepth, true
		}
	}
	return 0, false
}
