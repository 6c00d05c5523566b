package wallet

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	logger "github.com/sirupsen/logrus"
)

type SignerSource interface {
	Signer(ctx context.Context) (*bind.TransactOpts, error)
}

// SessionState holds the current session. It is written only through
// OnSessionChange and read by whoever needs to sign.
type SessionState struct {
	source SignerSource

	mu      sync.RWMutex
	session *Session
}

func NewSessionState(source SignerSource) *SessionState {
	return &SessionState{source: source}
}

func (s *SessionState) OnSessionChange(ev Event) {
	switch ev.Status {
	case Connected:
		signer, err := s.source.Signer(context.Background())
		if err != nil {
			logger.WithField("address", ev.Address.Hex()).Errorf("failed to obtain signer: %v", err)
			s.clear()
			return
		}
		s.mu.Lock()
		s.session = &Session{Address: ev.Address, Signer: signer}
		s.mu.Unlock()
	default:
		s.clear()
	}
}

// Current returns a copy of the active session, or nil when disconnected.
func (s *SessionState) Current() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.session == nil {
		return nil
	}
	cp := *s.session
	return &cp
}

func (s *SessionState) IsConnected() bool {
	return s.Current() != nil
}

func (s *SessionState) clear() {
	s.mu.Lock()
	s.session = nil
	s.mu.Unlock()
}
