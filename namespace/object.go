package namespace

// Object is a namespace node's decoded application value: a tagged
// variant. The default variant is a raw blob; higher-level handlers
// introduce their own variants (ContentMetaInfo, a DelegationSet, or an
// application's own domain type) by implementing this marker interface,
// so callers get safe downcasts via ObjectAs instead of a raw pointer or
// interface{} they have to type-switch on ad hoc.
type Object interface {
	isNamespaceObject()
}

// Blob is the default Object variant: undecoded bytes, used whenever no
// deserialize-needed listener claims a node's content.
type Blob []byte

func (Blob) isNamespaceObject() {}

// ObjectAs safely downcasts n's current object to T, the way the design
// notes ask for ("use a tagged variant with safe downcasts; do not
// expose raw pointers"). ok is false if the node has no object yet, or
// its object is a different variant.
func ObjectAs[T Object](n *Node) (v T, ok bool) {
	obj := n.Object()
	if obj == nil {
		return v, false
	}
	v, ok = obj.(T)
	return v, ok
}
