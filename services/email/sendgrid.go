package email

import (
	"github.com/pkg/errors"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/classcheck/classcheck/core"
)

type sendgridService struct {
	client *sendgrid.Client
}

var _ core.EmailService = (*sendgridService)(nil)

func NewSendgridService() *sendgridService {
	return &sendgridService{client: sendgrid.NewSendClient(core.Conf.SendgridApiKey)}
}

func (svc sendgridService) SendMessage(msg *core.EmailMessage) error {
	if err := msg.Render(); err != nil {
		return errors.Wrap(err, "rendering message")
	}
	if !msg.HasRecipients() || !msg.HasContent() {
		return nil
	}

	from := mail.NewEmail(core.Conf.DefaultFromEmail.Name, core.Conf.DefaultFromEmail.Address)
	sgMail := mail.NewV3Mail()
	sgMail.SetFrom(from)
	sgMail.Subject = msg.Subject
	sgMail.AddContent(mail.NewContent("text/plain", msg.TextContent))

	p := mail.NewPersonalization()
	for _, addr := range msg.To {
		p.AddTos(mail.NewEmail(addr.Name, addr.Address))
	}
	sgMail.AddPersonalizations(p)

	res, err := svc.client.Send(sgMail)
	if err != nil {
		return errors.Wrap(err, "sending message")
	}
	if res.StatusCode >= 300 {
		return errors.Errorf("sending message: sendgrid responded %d: %s", res.StatusCode, res.Body)
	}
	return nil
}
