// Package namespace implements the hierarchical, lazily-populated name
// tree at the core of this module: NamespaceNode, its per-node state
// machine, the callback/event-bus overlay, and request/production
// mediation toward the network Face.
package namespace

import (
	"sort"
	"time"

	"github.com/named-data/cnl-go/cnlerr"
	"github.com/named-data/cnl-go/cnlface"
	"github.com/named-data/cnl-go/pit"
	enc "github.com/named-data/ndnd/std/encoding"
	"github.com/named-data/ndnd/std/log"
	"github.com/named-data/ndnd/std/ndn"
)

// Node is one point in the shared name tree. Its identity is its full
// name; parent and root are non-owning back references bounded by the
// root's lifetime, so the parent/children cycle never needs a separate
// ownership mechanism to break.
type Node struct {
	name   enc.Name
	parent *Node
	rootPt *Node
	depth  int

	children     map[string]*Node
	childOrder   []string // canonical keys, kept for stable iteration
	childComp    map[string]enc.Component

	data       ndn.Data
	dataWire   enc.Wire
	sigCovered enc.Wire
	object     Object

	state         State
	validateState ValidateState

	freshnessDeadline time.Time

	stateChangedCb         *registry[OnStateChanged]
	validateStateChangedCb *registry[OnValidateStateChanged]
	objectNeededCb         *registry[OnObjectNeeded]
	deserializeNeededCb    *registry[OnDeserializeNeeded]

	handler Handler
	config  config

	// root-only state
	pendingInterests *pit.Table
	configVersion    int
	shutdownCounter  int

	// per-node shutdown cache
	isShutDown          bool
	shutdownCache       bool
	shutdownCacheAsOf   int

	// producer bookkeeping: set if this node registered a prefix
	registrationID *cnlface.RegistrationId

	// consumer bookkeeping: re-expression state, see reexpress.go
	reexpress      *reexpressState
	lastNackReason uint64
}

// NewRoot creates the root of a new name tree.
func NewRoot(name enc.Name) *Node {
	n := &Node{
		name:                   name,
		children:               make(map[string]*Node),
		childComp:              make(map[string]enc.Component),
		state:                  NameExists,
		stateChangedCb:         newRegistry[OnStateChanged](),
		validateStateChangedCb: newRegistry[OnValidateStateChanged](),
		objectNeededCb:         newRegistry[OnObjectNeeded](),
		deserializeNeededCb:    newRegistry[OnDeserializeNeeded](),
		pendingInterests:       pit.New(),
	}
	n.rootPt = n
	return n
}

// Name returns this node's full name.
func (n *Node) Name() enc.Name { return n.name }

// Parent returns the parent node, or nil if n is the root.
func (n *Node) Parent() *Node { return n.parent }

// Root returns the root of n's tree.
func (n *Node) Root() *Node { return n.root() }

func (n *Node) root() *Node { return n.rootPt }

func componentKey(c enc.Component) string { return string(c.Bytes()) }

// HasChildComponent reports whether n has an immediate child named by
// component, without creating one.
func (n *Node) HasChildComponent(component enc.Component) bool {
	_, ok := n.children[componentKey(component)]
	return ok
}

// HasChild reports whether the descendant named by name (which must
// extend n's own name) already exists, without creating any node.
func (n *Node) HasChild(name enc.Name) bool {
	cur := n
	for i := len(n.name); i < len(name); i++ {
		child, ok := cur.children[componentKey(name[i])]
		if !ok {
			return false
		}
		cur = child
	}
	return true
}

// GetChildComponent returns the existing immediate child named by
// component, creating (and firing NameExists on) it if needed.
func (n *Node) GetChildComponent(component enc.Component) *Node {
	key := componentKey(component)
	if child, ok := n.children[key]; ok {
		return child
	}
	child := n.newChild(component)
	n.children[key] = child
	n.childComp[key] = component
	n.childOrder = append(n.childOrder, key)
	child.fireCreated()
	return child
}

// GetChild returns the descendant named by name, creating any missing
// intermediate nodes along the way. Only the final, requested node fires
// a NameExists transition - intermediates created purely to reach it do
// not. name must have n's own name as a prefix; if name equals n's own
// name, n itself is returned.
func (n *Node) GetChild(name enc.Name) (*Node, error) {
	if !n.name.IsPrefix(name) && !n.name.Equal(name) {
		return nil, cnlerr.ErrNotDescendant
	}
	if n.name.Equal(name) {
		return n, nil
	}

	cur := n
	for i := len(n.name); i < len(name); i++ {
		key := componentKey(name[i])
		child, ok := cur.children[key]
		if !ok {
			child = cur.newChild(name[i])
			cur.children[key] = child
			cur.childComp[key] = name[i]
			cur.childOrder = append(cur.childOrder, key)
			if i == len(name)-1 {
				child.fireCreated()
			}
		}
		cur = child
	}
	return cur, nil
}

// GetChildComponents returns the name components of all immediate
// children, sorted per NDN component ordering.
func (n *Node) GetChildComponents() []enc.Component {
	out := make([]enc.Component, 0, len(n.childOrder))
	for _, key := range n.childOrder {
		if c, ok := n.childComp[key]; ok {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Compare(out[j]) < 0 })
	return out
}

func (n *Node) newChild(component enc.Component) *Node {
	child := &Node{
		name:                   n.name.Append(component),
		parent:                 n,
		rootPt:                 n.rootPt,
		depth:                  n.depth + 1,
		children:               make(map[string]*Node),
		childComp:              make(map[string]enc.Component),
		state:                  NameExists,
		stateChangedCb:         newRegistry[OnStateChanged](),
		validateStateChangedCb: newRegistry[OnValidateStateChanged](),
		objectNeededCb:         newRegistry[OnObjectNeeded](),
		deserializeNeededCb:    newRegistry[OnDeserializeNeeded](),
	}
	return child
}

func (n *Node) fireCreated() {
	// A freshly created leaf starts in NameExists already; this fires
	// the transition so listeners registered on ancestors observe the
	// new name the same way they observe any other state change.
	n.setState(NameExists)
}

// IsShutDown reports whether n or any ancestor has been shut down. The
// answer is cached against the root's shutdownCounter so repeated checks
// don't have to walk to the root every time; the cache is invalidated
// whenever any node in the tree calls Shutdown.
func (n *Node) IsShutDown() bool {
	root := n.root()
	if n.shutdownCacheAsOf == root.shutdownCounter {
		return n.shutdownCache
	}
	down := false
	for cur := n; cur != nil; cur = cur.parent {
		if cur.isShutDown {
			down = true
			break
		}
	}
	n.shutdownCache = down
	n.shutdownCacheAsOf = root.shutdownCounter
	return down
}

// Shutdown marks n and (transitively, and lazily) all its descendants as
// shut down: registered callbacks at n are dropped, its registered
// prefix (if any) is removed from its Face, and subsequent mutating
// operations on n or its descendants become no-ops.
func (n *Node) Shutdown() {
	if n.IsShutDown() {
		return
	}
	n.isShutDown = true
	root := n.root()
	root.shutdownCounter++

	n.stateChangedCb.clear()
	n.validateStateChangedCb.clear()
	n.objectNeededCb.clear()
	n.deserializeNeededCb.clear()

	if n.registrationID != nil {
		if face := n.Face(); face != nil {
			if err := face.RemoveRegisteredPrefix(*n.registrationID); err != nil {
				log.Warn("namespace: failed to remove registered prefix on shutdown", "name", n.name, "err", err)
			}
		}
		n.registrationID = nil
	}
	if n.reexpress != nil {
		n.reexpress.cancel()
	}

	n.shutdownCache = true
	n.shutdownCacheAsOf = root.shutdownCounter
}

// State returns n's current state, transitioning ObjectReady to
// ObjectReadyButStale first if its freshness deadline has elapsed since
// it was last observed. This is the "on next access" freshness check the
// design calls for.
func (n *Node) State() State {
	if n.state == ObjectReady && n.isStale() {
		n.setState(ObjectReadyButStale)
	}
	return n.state
}

func (n *Node) isStale() bool {
	return !n.freshnessDeadline.IsZero() && time.Now().After(n.freshnessDeadline)
}

// ValidateState returns n's current validation state.
func (n *Node) ValidateState() ValidateState { return n.validateState }

// Data returns the Data packet attached to n, or nil.
func (n *Node) Data() ndn.Data { return n.data }

// DataWire returns the encoded bytes backing n's Data packet, or nil.
func (n *Node) DataWire() enc.Wire { return n.dataWire }

// Object returns n's current decoded object (see the Object type and
// ObjectAs), refreshing the staleness check first.
func (n *Node) Object() Object {
	n.State() // trigger the ObjectReadyButStale check as a side effect
	return n.object
}

// FreshnessDeadline returns the absolute time n's Data becomes stale, or
// the zero Time if it never expires or no Data is attached.
func (n *Node) FreshnessDeadline() time.Time { return n.freshnessDeadline }

// LastNackReason returns the reason code of the most recent network NACK
// received while fetching n, valid when State() is InterestNetworkNack.
func (n *Node) LastNackReason() uint64 { return n.lastNackReason }
