package email

import (
	"sync"

	"github.com/classcheck/classcheck/core"
)

// dummyService records messages for assertions in tests; an injected error
// simulates a provider outage.
type dummyService struct {
	mu       sync.Mutex
	messages []core.EmailMessage

	// FailWith, when set, is returned by SendMessage and nothing is recorded.
	FailWith error
}

var _ core.EmailService = (*dummyService)(nil)

func NewDummyService() *dummyService { return &dummyService{} }

func (svc *dummyService) SendMessage(msg *core.EmailMessage) error {
	if svc.FailWith != nil {
		return svc.FailWith
	}
	if err := msg.Render(); err != nil {
		return err
	}
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.messages = append(svc.messages, *msg)
	return nil
}

func (svc *dummyService) SentMessages() []core.EmailMessage {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	out := make([]core.EmailMessage, len(svc.messages))
	copy(out, svc.messages)
	return out
}

func (svc *dummyService) Reset() {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.messages = nil
	svc.FailWith = nil
}
