package types

// UpdateKind identifies what an Update carries.
type UpdateKind string

const (
	UpdateChat  UpdateKind = "chat"
	UpdateTimer UpdateKind = "timer"
	UpdateGold  UpdateKind = "gold"
)

// Update is an application value handed from the network goroutine to the
// render loop. Text is set for chat, Amount for timer (seconds) and gold.
type Update struct {
	Kind   UpdateKind `json:"kind" cbor:"1,keyasint"`
	Text   string     `json:"text,omitempty" cbor:"2,keyasint,omitempty"`
	Amount int64      `json:"amount,omitempty" cbor:"3,keyasint,omitempty"`
}
