package services

import (
	"fmt"
	"html/template"
	"log/slog"
	"strings"
	texttemplate "text/template"
)

// NotificationKind identifies one email template.
type NotificationKind string

const (
	KindTokenIssued        NotificationKind = "submission-token-issued"
	KindFeedback           NotificationKind = "feedback-to-author"
	KindPublishNotice      NotificationKind = "author-publish-notice"
	KindRejectionNotice    NotificationKind = "author-rejection-notice"
	KindChangesRequested   NotificationKind = "author-changes-requested"
	KindExpirationWarning  NotificationKind = "expiration-warning"
	KindTokenExpired       NotificationKind = "token-expired-notice"
	KindAdminNewSubmission NotificationKind = "admin-new-submission"
	KindDailySummary       NotificationKind = "daily-summary"
	KindSecurityAlert      NotificationKind = "security-alert"
)

// Notifier sends templated notifications. The production implementation is
// EmailNotifier; tests substitute a recorder.
type Notifier interface {
	Send(kind NotificationKind, to []string, data map[string]string) error
}

// MailSender is the SMTP surface EmailNotifier depends on.
type MailSender interface {
	Send(to []string, subject, html string) error
}

type mailTemplate struct {
	subject string
	body    string
}

// Subjects and bodies per kind. Bodies are fragments; renderShell wraps them
// in the shared HTML frame. Data keys come from the calling service.
var mailTemplates = map[NotificationKind]mailTemplate{
	KindTokenIssued: {
		subject: "Recebemos sua submissão: {{.Title}}",
		body: `<p>Olá {{.AuthorName}},</p>
<p>Sua submissão <strong>{{.Title}}</strong> foi criada. Use o link abaixo para acompanhá-la e editá-la:</p>
<p><a href="{{.AccessURL}}">{{.AccessURL}}</a></p>
<p>O link expira em {{.ExpiresAt}}.</p>`,
	},
	KindFeedback: {
		subject: "Novo feedback sobre: {{.Title}}",
		body: `<p>Olá {{.AuthorName}},</p>
<p>{{.AdminName}} deixou um comentário sobre sua submissão <strong>{{.Title}}</strong>:</p>
<blockquote>{{.Content}}</blockquote>
<p>Acesse sua submissão para responder às solicitações.</p>`,
	},
	KindPublishNotice: {
		subject: "Seu artigo foi publicado: {{.Title}}",
		body: `<p>Parabéns {{.AuthorName}}!</p>
<p>Seu artigo <strong>{{.Title}}</strong> foi publicado:</p>
<p><a href="{{.ArticleURL}}">{{.ArticleURL}}</a></p>`,
	},
	KindRejectionNotice: {
		subject: "Sua submissão não foi aceita: {{.Title}}",
		body: `<p>Olá {{.AuthorName}},</p>
<p>Sua submissão <strong>{{.Title}}</strong> não foi aceita para publicação.</p>
<p>Motivo: {{.Reason}}</p>`,
	},
	KindChangesRequested: {
		subject: "Alterações solicitadas: {{.Title}}",
		body: `<p>Olá {{.AuthorName}},</p>
<p>O revisor solicitou alterações em <strong>{{.Title}}</strong>:</p>
<blockquote>{{.Notes}}</blockquote>
<p>Edite sua submissão e reenvie para revisão.</p>`,
	},
	KindExpirationWarning: {
		subject: "Seu link de acesso expira em breve: {{.Title}}",
		body: `<p>Olá {{.AuthorName}},</p>
<p>O link de acesso à sua submissão <strong>{{.Title}}</strong> expira em {{.ExpiresAt}}.</p>
<p>Envie sua submissão para revisão ou peça a renovação do prazo.</p>`,
	},
	KindTokenExpired: {
		subject: "Seu link de acesso expirou: {{.Title}}",
		body: `<p>Olá {{.AuthorName}},</p>
<p>O link de acesso à sua submissão <strong>{{.Title}}</strong> expirou.</p>
<p>Entre em contato com a equipe editorial para reativá-la.</p>`,
	},
	KindAdminNewSubmission: {
		subject: "Nova submissão recebida: {{.Title}}",
		body: `<p>Uma nova submissão foi recebida.</p>
<p><strong>{{.Title}}</strong> — {{.AuthorName}} ({{.AuthorEmail}})</p>
<p>Categoria: {{.Category}}</p>`,
	},
	KindDailySummary: {
		subject: "Resumo diário de submissões",
		body: `<p>Resumo do dia:</p>
<p>{{.Summary}}</p>`,
	},
	KindSecurityAlert: {
		subject: "Alerta de segurança: tentativas de acesso inválidas",
		body: `<p>Foram detectadas tentativas de acesso com credenciais incorretas.</p>
<p>Submissão: {{.SubmissionID}}</p>
<p>Detalhe: {{.Detail}}</p>`,
	},
}

// EmailNotifier renders notification templates and delivers them over SMTP.
type EmailNotifier struct {
	mailer MailSender
}

// NewEmailNotifier builds the production notifier.
func NewEmailNotifier(mailer MailSender) *EmailNotifier {
	return &EmailNotifier{mailer: mailer}
}

// Send renders the template for kind and dispatches it. Unknown kinds are a
// programming error and fail loudly.
func (n *EmailNotifier) Send(kind NotificationKind, to []string, data map[string]string) error {
	if len(to) == 0 {
		return nil
	}
	tpl, ok := mailTemplates[kind]
	if !ok {
		return fmt.Errorf("notification template missing for kind %s", kind)
	}

	subject, err := renderText(tpl.subject, data)
	if err != nil {
		return fmt.Errorf("failed to render subject for %s: %w", kind, err)
	}
	body, err := renderHTML(tpl.body, data)
	if err != nil {
		return fmt.Errorf("failed to render body for %s: %w", kind, err)
	}

	if err := n.mailer.Send(to, subject, renderShell(subject, body)); err != nil {
		return fmt.Errorf("failed to send %s mail: %w", kind, err)
	}
	slog.Info("notification sent", "kind", string(kind), "recipients", len(to))
	return nil
}

// renderText renders a subject line. Subjects are mail headers, not markup,
// so they go through text/template and carry no entity escaping.
func renderText(tpl string, data map[string]string) (string, error) {
	var sb strings.Builder
	t, err := texttemplate.New("subject").Parse(tpl)
	if err != nil {
		return "", err
	}
	if err := t.Execute(&sb, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func renderHTML(tpl string, data map[string]string) (string, error) {
	var sb strings.Builder
	t, err := template.New("body").Parse(tpl)
	if err != nil {
		return "", err
	}
	if err := t.Execute(&sb, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func renderShell(subject, body string) string {
	escaped := template.HTMLEscapeString(subject)
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>%s</title></head>
<body style="font-family: Arial, sans-serif; color: #222; max-width: 600px; margin: 0 auto;">
<div style="border-bottom: 2px solid #2c3e50; padding: 12px 0; margin-bottom: 16px;">
<strong>Plataforma Editorial</strong>
</div>
%s
<div style="border-top: 1px solid #ddd; margin-top: 24px; padding-top: 8px; font-size: 12px; color: #888;">
Esta é uma mensagem automática; não responda a este e-mail.
</div>
</body>
</html>`, escaped, body)
}
