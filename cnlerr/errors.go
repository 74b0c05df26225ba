// Package cnlerr defines the sentinel errors returned by cnl-go for the
// "configuration error" class described by the namespace tree design:
// mistakes a caller makes that must fail fast at the call site rather
// than surface as a node state transition.
package cnlerr

import "errors"

var (
	// ErrHandlerAttached is returned by Node.SetHandler when the node
	// already has a handler attached.
	ErrHandlerAttached = errors.New("cnl: node already has a handler attached")

	// ErrHandlerBoundElsewhere is returned by Node.SetHandler when the
	// handler passed in is already attached to a different node.
	ErrHandlerBoundElsewhere = errors.New("cnl: handler is already attached to another node")

	// ErrNameMismatch is returned by Node.SetData when the Data packet's
	// name does not equal the node's name.
	ErrNameMismatch = errors.New("cnl: data name does not match node name")

	// ErrNoFace is returned when an operation needs a Face but none was
	// inherited from any ancestor.
	ErrNoFace = errors.New("cnl: no face configured for this node or its ancestors")

	// ErrNoKeyChain is returned when an operation needs a KeyChain but
	// none was inherited from any ancestor.
	ErrNoKeyChain = errors.New("cnl: no keychain configured for this node or its ancestors")

	// ErrNegativePipelineSize is returned when a handler is configured
	// with a negative pipeline or window size.
	ErrNegativePipelineSize = errors.New("cnl: pipeline size must not be negative")

	// ErrShutdown is returned by operations attempted on a node that has
	// already been shut down.
	ErrShutdown = errors.New("cnl: node is shut down")

	// ErrNotDescendant is returned by GetChild(name) when name is not
	// a descendant of the node's own name.
	ErrNotDescendant = errors.New("cnl: name is not a descendant of this node")

	// ErrInvalidManifest is returned by manifest verification when the
	// manifest content length is not a multiple of the digest size, or
	// when a segment's digest does not match its manifest entry.
	ErrInvalidManifest = errors.New("cnl: manifest length is not a multiple of 32 bytes or does not match the segments")

	// ErrNoFinalBlockId is returned when a segment stream can't find a
	// FinalBlockId on the first received segment.
	ErrNoFinalBlockId = errors.New("cnl: segment has no usable FinalBlockId")
)
