package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"showtalk/internal/config"
)

type MailService struct {
	Host         string
	Port         string
	Username     string
	Password     string
	From         string
	Enabled      bool
	TemplatesDir string

	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewMailService(cfg *config.Config) *MailService {
	enabled := cfg.MailEnabled()
	if !enabled {
		log.Warn().Msg("MailService disabled: missing SMTP settings")
	}

	return &MailService{
		Host:         cfg.SMTP.Host,
		Port:         cfg.SMTP.Port,
		Username:     cfg.SMTP.User,
		Password:     cfg.SMTP.Password,
		From:         cfg.SMTP.From,
		Enabled:      enabled,
		TemplatesDir: filepath.Join(cfg.Server.TemplatesDir, "email"),
		send:         smtp.SendMail,
	}
}

func (s *MailService) message(to []string, subject, body string) []byte {
	mime := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"
	return []byte(fmt.Sprintf("To: %s\r\n"+
		"From: showtalk <%s>\r\n"+
		"Subject: %s\r\n"+
		"%s\r\n%s", strings.Join(to, ","), s.From, subject, mime, body))
}

func (s *MailService) sendAsync(to []string, subject string, body string) {
	if !s.Enabled {
		return
	}

	go func() {
		auth := smtp.PlainAuth("", s.Username, s.Password, s.Host)
		addr := fmt.Sprintf("%s:%s", s.Host, s.Port)

		if err := s.send(addr, auth, s.From, to, s.message(to, subject, body)); err != nil {
			log.Error().Err(err).Strs("to", to).Msg("failed to send email")
			return
		}
		log.Info().Strs("to", to).Str("subject", subject).Msg("email sent")
	}()
}

func (s *MailService) parseTemplate(templateName string, data interface{}) (string, error) {
	path := filepath.Join(s.TemplatesDir, templateName)
	t, err := template.ParseFiles(path)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", templateName, err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", templateName, err)
	}
	return buf.String(), nil
}

// SendReplyNotification tells a comment's author that someone answered.
func (s *MailService) SendReplyNotification(email, actor, discussionTitle, replyContent, originalContent, link string) {
	if !s.Enabled || email == "" {
		return
	}
	data := map[string]string{
		"Actor":           actor,
		"DiscussionTitle": discussionTitle,
		"ReplyContent":    replyContent,
		"OriginalContent": originalContent,
		"Link":            link,
	}
	body, err := s.parseTemplate("reply.html", data)
	if err != nil {
		log.Error().Err(err).Msg("error rendering reply email")
		return
	}
	s.sendAsync([]string{email}, actor+" replied to your comment in \""+discussionTitle+"\"", body)
}
