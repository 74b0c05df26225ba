package namespace

import "github.com/named-data/cnl-go/cnlerr"

// Handler is implemented by the composable processors in the
// handler/... packages (segment, segobj, gobject, gostream). Exactly one
// handler may be attached to a given node; attaching one already bound
// to a different node is an error.
type Handler interface {
	// BoundNode returns the node this handler is currently attached to,
	// or nil if it has never been attached.
	BoundNode() *Node
	// Attach is called by Node.SetHandler after the binding is
	// recorded; implementations use it to register the OnObjectNeeded /
	// OnStateChanged / etc. hooks they need.
	Attach(node *Node) error
}

// SetHandler attaches h to n. It fails if n already has a handler, or if
// h is already attached to a different node.
func (n *Node) SetHandler(h Handler) error {
	if n.handler != nil {
		return cnlerr.ErrHandlerAttached
	}
	if bound := h.BoundNode(); bound != nil && bound != n {
		return cnlerr.ErrHandlerBoundElsewhere
	}
	if err := h.Attach(n); err != nil {
		return err
	}
	n.handler = h
	return nil
}

// Handler returns the handler attached to n, or nil.
func (n *Node) Handler() Handler { return n.handler }
