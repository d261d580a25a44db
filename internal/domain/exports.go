package domain

import (
	interfaces "versus/internal/domain/interfaces"
	types "versus/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	SharedSecret = types.SharedSecret
	Exponent     = types.Exponent
	PublicValue  = types.PublicValue
	Username     = types.Username
	Fingerprint  = types.Fingerprint
	MessageKind  = types.MessageKind
	Message      = types.Message
	Envelope     = types.Envelope
	UpdateKind   = types.UpdateKind
	Update       = types.Update
)

// Message kinds.
const (
	KindKeyExchange  = types.KindKeyExchange
	KindChatOrUpdate = types.KindChatOrUpdate
	KindReadySignal  = types.KindReadySignal
	KindSessionAbort = types.KindSessionAbort
	KindNotReady     = types.KindNotReady
)

// Update kinds.
const (
	UpdateChat  = types.UpdateChat
	UpdateTimer = types.UpdateTimer
	UpdateGold  = types.UpdateGold
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	Transport = interfaces.Transport
)
