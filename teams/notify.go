package teams

import (
	"bytes"
	"context"
	htmltemplate "html/template"
	"log"
	"text/template"

	"taskflow/utils"
)

type mailData struct {
	Username  string
	Role      string
	TaskTitle string
}

type mailTemplate struct {
	text *template.Template
	html *htmltemplate.Template
}

func newMailTemplate(name, text, html string) mailTemplate {
	return mailTemplate{
		text: template.Must(template.New(name).Parse(text)),
		html: htmltemplate.Must(htmltemplate.New(name).Parse(html)),
	}
}

var (
	inviteMail = newMailTemplate("invite",
		`Hi {{.Username}}, you were added to a team as {{.Role}}.`,
		`<p>Hi {{.Username}},</p><p>You were added to a team as <strong>{{.Role}}</strong>.</p>`)

	assignMail = newMailTemplate("assign",
		`Hi {{.Username}}, the task "{{.TaskTitle}}" was assigned to you.`,
		`<p>Hi {{.Username}},</p><p>The task <strong>{{.TaskTitle}}</strong> was assigned to you.</p>`)
)

func (m mailTemplate) render(data mailData) (text, html string, err error) {
	var tb, hb bytes.Buffer
	if err := m.text.Execute(&tb, data); err != nil {
		return "", "", err
	}
	if err := m.html.Execute(&hb, data); err != nil {
		return "", "", err
	}
	return tb.String(), hb.String(), nil
}

// notify renders and sends a notification on a context detached from the
// request. Failures are only logged.
func (s *Service) notify(ctx context.Context, to, subject string, tmpl mailTemplate, data mailData) {
	text, html, err := tmpl.render(data)
	if err != nil {
		log.Printf("rendering notification to %s: %v", to, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	msg := utils.Message{To: to, Subject: subject, Text: text, HTML: html}
	if err := s.mailer.Send(ctx, msg); err != nil {
		log.Printf("notification to %s failed: %v", to, err)
	}
}
