package core

import (
	"bytes"
	"fmt"
	"log"
	"net/mail"
	"path/filepath"
	"strings"
	"sync"
	texttmpl "text/template"
)

var (
	templates tmplCache
	tmplInit  sync.Once
)

type (
	tmplCache map[string]*texttmpl.Template // {name: *Template}

	EmailMessage struct {
		To      []mail.Address
		Subject string
		BodyStr string // simple text/plain, non-templated content

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
	}

	ContextData struct {
		AppName         string
		FrontendBaseURL string
		Data            interface{}
	}

	// EmailService is any service that can send emails.
	// SendMessage is synchronous: it returns nil only once the message has
	// been handed to the provider successfully, so callers may order
	// persistence after delivery.
	EmailService interface {
		SendMessage(msg *EmailMessage) error
	}
)

func (m *EmailMessage) getContextData() ContextData {
	return ContextData{
		AppName:         Conf.AppName,
		FrontendBaseURL: Conf.FrontendBaseURL,
		Data:            m.TemplateData,
	}
}

func (m *EmailMessage) renderText() error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
		return nil
	} else if m.TemplateName == "" {
		return nil
	}

	tmpl, ok := templates[m.TemplateName]
	if !ok {
		return fmt.Errorf("email template %q not found", m.TemplateName)
	}

	var buff bytes.Buffer
	if err := tmpl.Execute(&buff, m.getContextData()); err != nil {
		return err
	}
	m.TextContent = buff.String()
	return nil
}

func (m *EmailMessage) Render() error {
	if m.TemplateName != "" {
		tmplInit.Do(parseTemplates) // only execute once during first request
	}
	return m.renderText()
}

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool    { return m.TextContent != "" }

func parseTemplates() {
	templates = make(tmplCache)

	rp := filepath.Join(Conf.WorkDir, "assets", "templates", "email")
	fps, err := filepath.Glob(filepath.Join(rp, "*.txt"))
	if err != nil {
		log.Print(fmt.Errorf("core.parseTemplates: %v", err))
	}

	for _, fp := range fps {
		fname := filepath.Base(fp)
		if strings.HasPrefix(fname, "_") {
			continue
		}
		name := fname[:strings.LastIndex(fname, ".")]
		tmpl, err := texttmpl.ParseFiles(filepath.Join(rp, "_base.txt"), fp)
		if err != nil {
			log.Print(fmt.Errorf("core.parseTemplates: %v", err))
			continue
		}
		if Conf.Debug || Conf.TestMode {
			tmpl = tmpl.Option("missingkey=error")
		}
		templates[name] = tmpl
	}
}
