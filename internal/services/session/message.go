package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/sirupsen/logrus"

	"versus/internal/domain"
	"versus/internal/protocol/keyexchange"
	"versus/internal/util/memzero"
)

// dispatch handles one inbound message on the network goroutine. A non-nil
// error is fatal to the session.
func (s *Session) dispatch(ctx context.Context, msg domain.Message) error {
	switch msg.Kind {
	case domain.KindKeyExchange:
		return s.handlePeerKey(ctx, msg.Value)

	case domain.KindChatOrUpdate:
		return s.handleUpdate(msg)

	case domain.KindReadySignal:
		if s.gate.Signal() {
			s.log.Debug("Opponent signaled ready")
		}
		return nil

	case domain.KindNotReady:
		if !s.loaded.Load() {
			return nil
		}
		if err := s.t.Send(ctx, domain.Message{Kind: domain.KindReadySignal}); err != nil {
			s.log.WithFields(logrus.Fields{
				"function": "dispatch",
				"error":    err.Error(),
			}).Warn("Ready re-send failed")
		}
		return nil

	case domain.KindSessionAbort:
		return fmt.Errorf("%w: %s", domain.ErrSessionAborted, msg.Reason)

	default:
		s.log.WithFields(logrus.Fields{
			"function": "dispatch",
			"kind":     uint8(msg.Kind),
		}).Warn("Ignoring message of unknown kind")
		return nil
	}
}

func (s *Session) handlePeerKey(ctx context.Context, peer domain.PublicValue) error {
	if s.kx.State() == keyexchange.SecretEstablished {
		if peer == s.kx.PeerValue() {
			s.log.WithField("peer", peer.String()).Debug("Duplicate peer key ignored")
			return nil
		}
		return fmt.Errorf("peer changed its public value: %w", domain.ErrKeyAlreadyEstablished)
	}

	secret, err := s.kx.ReceivePeerKey(ctx, peer, s.t)
	if err != nil {
		return err
	}
	return s.establish(secret, peer)
}

func (s *Session) handleUpdate(msg domain.Message) error {
	s.mu.Lock()
	c := s.cipher
	s.mu.Unlock()
	if c == nil {
		return fmt.Errorf("%w: update before key exchange", domain.ErrCipherDesync)
	}

	plaintext, err := c.Open(msg.Seq, msg.Payload)
	if err != nil {
		return err
	}
	defer memzero.Zero(plaintext)

	var u domain.Update
	if err := cbor.Unmarshal(plaintext, &u); err != nil {
		return fmt.Errorf("%w: undecodable update at index %d: %v", domain.ErrCipherDesync, msg.Seq, err)
	}
	if err := s.queue.Push(u); err != nil && !errors.Is(err, domain.ErrAllocationFailure) {
		return err
	}
	return nil
}

func (s *Session) sendUpdate(ctx context.Context, u domain.Update) error {
	plaintext, err := cbor.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode update: %w", err)
	}
	seq, ciphertext := s.cipher.Seal(plaintext)
	memzero.Zero(plaintext)

	if err := s.t.Send(ctx, domain.Message{
		Kind:    domain.KindChatOrUpdate,
		Seq:     seq,
		Payload: ciphertext,
	}); err != nil {
		return fmt.Errorf("send update %d: %w", seq, err)
	}
	return nil
}
