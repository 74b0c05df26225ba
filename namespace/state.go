package namespace

// State is a namespace node's position in the per-node state machine
// described by the namespace tree design. The zero value NameExists is
// the state every node starts in.
type State int

const (
	// NameExists is the state of every newly created leaf node.
	NameExists State = iota
	// InterestExpressed means an Interest for this name is outstanding.
	InterestExpressed
	// InterestTimeout means the re-expression loop gave up.
	InterestTimeout
	// InterestNetworkNack means the last expressed Interest was NACKed.
	InterestNetworkNack
	// DataReceived means a Data packet for this name has arrived (or was
	// attached directly via SetData) but has not yet been processed.
	DataReceived
	// Deserializing means the node's blob is being turned into an
	// application object.
	Deserializing
	// Decrypting means the node's Data content is being decrypted
	// before deserialization.
	Decrypting
	// DecryptionError is a terminal state: decryption failed.
	DecryptionError
	// ProducingObject means a local producer accepted responsibility for
	// this name and is expected to call SetObject.
	ProducingObject
	// Serializing means an application object is being turned into
	// wire bytes for a Data packet.
	Serializing
	// Encrypting means the serialized bytes are being encrypted before
	// signing.
	Encrypting
	// EncryptionError is a terminal state: encryption failed.
	EncryptionError
	// Signing means a Data packet is being signed.
	Signing
	// SigningError is a terminal state: signing failed.
	SigningError
	// ObjectReady means Node.Object() returns a usable value.
	ObjectReady
	// ObjectReadyButStale means the object is ready but its Data
	// packet's freshness deadline has elapsed.
	ObjectReadyButStale
)

// String names a State the way the design notes' "enum-per-state"
// guidance expects: for logging, not for wire representation.
func (s State) String() string {
	switch s {
	case NameExists:
		return "NameExists"
	case InterestExpressed:
		return "InterestExpressed"
	case InterestTimeout:
		return "InterestTimeout"
	case InterestNetworkNack:
		return "InterestNetworkNack"
	case DataReceived:
		return "DataReceived"
	case Deserializing:
		return "Deserializing"
	case Decrypting:
		return "Decrypting"
	case DecryptionError:
		return "DecryptionError"
	case ProducingObject:
		return "ProducingObject"
	case Serializing:
		return "Serializing"
	case Encrypting:
		return "Encrypting"
	case EncryptionError:
		return "EncryptionError"
	case Signing:
		return "Signing"
	case SigningError:
		return "SigningError"
	case ObjectReady:
		return "ObjectReady"
	case ObjectReadyButStale:
		return "ObjectReadyButStale"
	default:
		return "Unknown"
	}
}

// ValidateState is a namespace node's position in the validation state
// machine, independent of deserialization.
type ValidateState int

const (
	// WaitingForData is the state before any Data has been received.
	WaitingForData ValidateState = iota
	// Validating means a Validator is currently checking the Data.
	Validating
	// ValidateSuccess is a terminal state: the Data was accepted.
	ValidateSuccess
	// ValidateFailure is a terminal state: the Data was rejected.
	ValidateFailure
)

func (s ValidateState) String() string {
	switch s {
	case WaitingForData:
		return "WaitingForData"
	case Validating:
		return "Validating"
	case ValidateSuccess:
		return "ValidateSuccess"
	case ValidateFailure:
		return "ValidateFailure"
	default:
		return "Unknown"
	}
}
