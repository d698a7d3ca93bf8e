package channel

import (
	"context"
	"fmt"
	"html/template"
	"strings"

	"gitee.com/flycash/alert-platform/internal/domain"
	"gitee.com/flycash/alert-platform/internal/errs"
	"gopkg.in/gomail.v2"
)

// 邮件正文模板，按优先级着色，带匹配度徽章和查看按钮
const emailTemplate = `<!DOCTYPE html>
<html>
<head>
<style>
    body { font-family: Arial, sans-serif; line-height: 1.6; }
    .alert { padding: 20px; background: #f8f9fa; border-radius: 5px; }
    .priority-urgent { border-left: 4px solid #dc3545; }
    .priority-high { border-left: 4px solid #dc3545; }
    .priority-medium { border-left: 4px solid #ffc107; }
    .priority-low { border-left: 4px solid #28a745; }
    .match-score {
        display: inline-block;
        padding: 5px 10px;
        background: #007bff;
        color: white;
        border-radius: 15px;
        font-size: 0.9em;
    }
    .details { margin-top: 15px; }
    .cta-button {
        display: inline-block;
        padding: 10px 20px;
        background: #007bff;
        color: white;
        text-decoration: none;
        border-radius: 5px;
        margin-top: 15px;
    }
    .footer { margin-top: 20px; font-size: 0.8em; color: #6c757d; }
</style>
</head>
<body>
    <div class="alert priority-{{ .Priority }}">
        <h2>{{ .Title }}</h2>
        <span class="match-score">Match Score: {{ .MatchScorePercent }}%</span>

        <div class="details">
            {{ .Description }}
        </div>

        <a href="{{ .ViewURL }}" class="cta-button">View Opportunity</a>
    </div>

    <div class="footer">
        <p>This is a private alert based on your investment preferences.</p>
        <p>Alert expires: {{ .ExpiresAt }}</p>
    </div>
</body>
</html>`

// EmailChannel 邮件渠道，SMTP 投递 HTML 正文
type EmailChannel struct {
	dialer      *gomail.Dialer
	from        string
	viewURLBase string
	tmpl        *template.Template
}

// NewEmailChannel 创建邮件渠道。viewURLBase 是机会详情页的前缀，
// 拼上标的ID就是邮件里的查看链接。
func NewEmailChannel(dialer *gomail.Dialer, from, viewURLBase string) *EmailChannel {
	return &EmailChannel{
		dialer:      dialer,
		from:        from,
		viewURLBase: viewURLBase,
		tmpl:        template.Must(template.New("alert_email").Parse(emailTemplate)),
	}
}

func (c *EmailChannel) Name() domain.Channel {
	return domain.ChannelEmail
}

func (c *EmailChannel) Send(_ context.Context, msg domain.ChannelMessage) error {
	to, ok := msg.Address[domain.AddressKeyEmail]
	if !ok || to == "" {
		return fmt.Errorf("%w: 缺少收件邮箱", errs.ErrInvalidParameter)
	}

	body, err := c.render(msg)
	if err != nil {
		return fmt.Errorf("%w: 渲染邮件正文失败: %w", errs.ErrSendAlertFailed, err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", c.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("Private Investment Alert: %s", msg.Title))
	m.SetBody("text/html", body)

	if err := c.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("%w: %w", errs.ErrSendAlertFailed, err)
	}
	return nil
}

func (c *EmailChannel) render(msg domain.ChannelMessage) (string, error) {
	const percent = 100
	data := struct {
		Priority          string
		Title             string
		MatchScorePercent int
		Description       template.HTML
		ViewURL           string
		ExpiresAt         string
	}{
		Priority:          msg.Priority.String(),
		Title:             msg.Title,
		MatchScorePercent: int(msg.MatchScore * percent),
		// 正文是自己渲染出来的纯文本，只需要把换行转成 <br>
		Description: template.HTML(strings.ReplaceAll(template.HTMLEscapeString(msg.Body), "\n", "<br>")),
		ViewURL:     fmt.Sprintf("%s/opportunities/%s", c.viewURLBase, msg.OpportunityID),
		ExpiresAt:   msg.ExpiresAt.UTC().Format("2006-01-02 15:04 UTC"),
	}

	var sb strings.Builder
	if err := c.tmpl.Execute(&sb, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}
