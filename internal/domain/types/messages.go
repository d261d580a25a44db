package types

// MessageKind identifies the typed messages carried by a Transport.
type MessageKind uint8

const (
	// KindKeyExchange carries a PublicValue in Message.Value.
	KindKeyExchange MessageKind = iota + 1
	// KindChatOrUpdate carries an obfuscated Update in Message.Payload with its chain index in Message.Seq.
	KindChatOrUpdate
	// KindReadySignal tells the peer that loading finished.
	KindReadySignal
	// KindSessionAbort ends the session; Message.Reason says why.
	KindSessionAbort
	// KindNotReady tells the peer we are waiting on it.
	KindNotReady
)

// String returns a short lowercase name for logs.
func (k MessageKind) String() string {
	switch k {
	case KindKeyExchange:
		return "key_exchange"
	case KindChatOrUpdate:
		return "chat_or_update"
	case KindReadySignal:
		return "ready"
	case KindSessionAbort:
		return "session_abort"
	case KindNotReady:
		return "not_ready"
	default:
		return "unknown"
	}
}

// Message is the unit exchanged over a Transport.
type Message struct {
	Kind    MessageKind `json:"kind" cbor:"1,keyasint"`
	Value   PublicValue `json:"value,omitempty" cbor:"2,keyasint,omitempty"`
	Seq     uint64      `json:"seq,omitempty" cbor:"3,keyasint,omitempty"`
	Payload []byte      `json:"payload,omitempty" cbor:"4,keyasint,omitempty"`
	Reason  string      `json:"reason,omitempty" cbor:"5,keyasint,omitempty"`
}

// Envelope is the wire-format message posted to and fetched from the relay.
type Envelope struct {
	From      Username `json:"from"`
	To        Username `json:"to"`
	Message   Message  `json:"message"`
	Timestamp int64    `json:"timestamp"`
}
