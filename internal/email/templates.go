package email

import (
	"fmt"
	"html"
	"time"

	"contentboard/internal/config"
	"contentboard/internal/models"
)

// Templates provides email template generation.
type Templates struct {
	cfg *config.Config
}

// NewTemplates creates a new templates instance.
func NewTemplates(cfg *config.Config) *Templates {
	return &Templates{cfg: cfg}
}

// baseHTML wraps content in a consistent HTML email template.
func (t *Templates) baseHTML(title, content string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="pt-BR">
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>%s</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #0f766e; color: white; padding: 20px; text-align: center; border-radius: 8px 8px 0 0; }
        .header h1 { margin: 0; font-size: 22px; }
        .content { background: #f9fafb; padding: 20px; border: 1px solid #e5e7eb; }
        .footer { background: #f3f4f6; padding: 15px; text-align: center; font-size: 12px; color: #6b7280; border-radius: 0 0 8px 8px; border: 1px solid #e5e7eb; border-top: none; }
        .button { display: inline-block; background: #0f766e; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; margin: 10px 0; }
        .info-box { background: white; border: 1px solid #e5e7eb; border-radius: 6px; padding: 15px; margin: 15px 0; }
        .label { font-weight: 600; color: #374151; }
        .success { color: #059669; }
        .warning { color: #d97706; }
        blockquote { border-left: 3px solid #d97706; margin: 10px 0; padding-left: 12px; color: #4b5563; }
    </style>
</head>
<body>
    <div class="header">
        <h1>%s</h1>
    </div>
    <div class="content">
        %s
    </div>
    <div class="footer">
        <p>Enviado por %s</p>
    </div>
</body>
</html>`, html.EscapeString(title), html.EscapeString(t.cfg.SiteTitle), content, html.EscapeString(t.cfg.SiteTitle))
}

func str(data map[string]any, key string) string {
	v, _ := data[key].(string)
	return v
}

func formatDate(data map[string]any, key string) string {
	if t, ok := data[key].(time.Time); ok {
		return t.Format("02/01/2006")
	}
	return ""
}

// ApprovalRequested generates the email sent to a client with a new approval link.
func (t *Templates) ApprovalRequested(data map[string]any) (subject, htmlBody, textBody string) {
	title := str(data, "title")
	link := str(data, "url")
	expires := formatDate(data, "expires_at")

	subject = fmt.Sprintf("[%s] Aprovação pendente: %s", t.cfg.SiteTitle, title)

	content := fmt.Sprintf(`
        <p>Olá, %s!</p>
        <p>Um novo conteúdo está pronto para a sua aprovação.</p>

        <div class="info-box">
            <p><span class="label">Conteúdo:</span> %s</p>
            <p><span class="label">Válido até:</span> %s</p>
        </div>

        <p style="text-align: center;">
            <a href="%s" class="button">Revisar e aprovar</a>
        </p>
        <p>Não é necessário criar conta. O link pode ser usado uma única vez.</p>
    `,
		html.EscapeString(str(data, "client_name")),
		html.EscapeString(title),
		expires,
		html.EscapeString(link),
	)

	htmlBody = t.baseHTML(subject, content)

	textBody = fmt.Sprintf(`Aprovação pendente

Conteúdo: %s
Válido até: %s

Revise em: %s

O link pode ser usado uma única vez.

--
%s`,
		title,
		expires,
		link,
		t.cfg.SiteTitle,
	)

	return subject, htmlBody, textBody
}

// ApprovalResolved generates the email sent to the team when a client decides.
func (t *Templates) ApprovalResolved(data map[string]any) (subject, htmlBody, textBody string) {
	title := str(data, "title")
	client := str(data, "client_name")
	who := str(data, "display_name")
	if who == "" {
		who = client
	}
	boardURL := t.cfg.BaseURL + "/contents/" + str(data, "content_id")

	outcome, class := "aprovou", "success"
	if str(data, "decision") == models.LinkChangesRequested {
		outcome, class = "pediu ajustes em", "warning"
	}
	subject = fmt.Sprintf("[%s] %s %s %q", t.cfg.SiteTitle, who, outcome, title)

	comment := str(data, "comment")
	commentHTML := ""
	commentText := ""
	if comment != "" {
		commentHTML = fmt.Sprintf(`<p><span class="label">Comentário:</span></p><blockquote>%s</blockquote>`, html.EscapeString(comment))
		commentText = "\nComentário:\n" + comment + "\n"
	}

	content := fmt.Sprintf(`
        <p class="%s"><strong>%s</strong> %s o conteúdo.</p>

        <div class="info-box">
            <p><span class="label">Cliente:</span> %s</p>
            <p><span class="label">Conteúdo:</span> %s</p>
            <p><span class="label">Nova coluna:</span> %s</p>
            %s
        </div>

        <p style="text-align: center;">
            <a href="%s" class="button">Abrir no quadro</a>
        </p>
    `,
		class,
		html.EscapeString(who),
		outcome,
		html.EscapeString(client),
		html.EscapeString(title),
		html.EscapeString(str(data, "status_label")),
		commentHTML,
		html.EscapeString(boardURL),
	)

	htmlBody = t.baseHTML(subject, content)

	textBody = fmt.Sprintf(`%s %s o conteúdo.

Cliente: %s
Conteúdo: %s
Nova coluna: %s
%s
Abrir no quadro: %s

--
%s`,
		who,
		outcome,
		client,
		title,
		str(data, "status_label"),
		commentText,
		boardURL,
		t.cfg.SiteTitle,
	)

	return subject, htmlBody, textBody
}

// ContentMoved generates the email sent to an assignee when their content changes column.
func (t *Templates) ContentMoved(data map[string]any) (subject, htmlBody, textBody string) {
	title := str(data, "title")
	to := str(data, "to")
	boardURL := t.cfg.BaseURL + "/contents/" + str(data, "content_id")

	subject = fmt.Sprintf("[%s] %s: %s", t.cfg.SiteTitle, title, str(data, "message"))

	content := fmt.Sprintf(`
        <p><strong>%s</strong> foi movido de <em>%s</em> para <em>%s</em> por %s.</p>

        <p style="text-align: center;">
            <a href="%s" class="button">Abrir no quadro</a>
        </p>
    `,
		html.EscapeString(title),
		html.EscapeString(str(data, "from")),
		html.EscapeString(to),
		html.EscapeString(str(data, "actor")),
		html.EscapeString(boardURL),
	)

	htmlBody = t.baseHTML(subject, content)

	textBody = fmt.Sprintf(`%s foi movido de %s para %s por %s.

Abrir no quadro: %s

--
%s`,
		title,
		str(data, "from"),
		to,
		str(data, "actor"),
		boardURL,
		t.cfg.SiteTitle,
	)

	return subject, htmlBody, textBody
}
