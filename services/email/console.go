package email

import (
	"fmt"
	"log"
	"strings"

	"github.com/classcheck/classcheck/core"
)

// consoleService writes emails to stdout; used in dev.
type consoleService struct{}

var _ core.EmailService = (*consoleService)(nil)

func NewConsoleService() *consoleService { return &consoleService{} }

func (svc consoleService) SendMessage(msg *core.EmailMessage) error {
	if err := msg.Render(); err != nil {
		return err
	}
	if !msg.HasRecipients() || !msg.HasContent() {
		return nil
	}

	to := make([]string, len(msg.To))
	for i, addr := range msg.To {
		to[i] = addr.String()
	}
	log.Println(fmt.Sprintf(
		"From: %s\nTo: %s\nSubject: %s\n\n%s",
		core.Conf.DefaultFromEmail.String(),
		strings.Join(to, ", "), msg.Subject, msg.TextContent,
	))
	return nil
}
