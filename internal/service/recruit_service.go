package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/smtp"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

const (
	RecruitChannelSMTP   = "smtp"
	RecruitChannelRelay  = "relay"
	RecruitChannelMailto = "mailto"

	maxRecruitFieldLength   = 50
	maxRecruitMessageLength = 1000
)

var (
	ErrRecruitNameRequired    = errors.New("applicant name is required")
	ErrRecruitContactRequired = errors.New("applicant contact is required")
	ErrRecruitFieldTooLong    = errors.New("application field is too long")
	ErrRecruitNotConfigured   = errors.New("recruit channel is not configured")
)

// Application 入会申请。
type Application struct {
	Name    string `json:"name"`
	GameID  string `json:"gameId"`
	Contact string `json:"contact"`
	Message string `json:"message"`
}

// RecruitResult 记录申请最终由哪个渠道送达；mailto 渠道附带可直接打开的链接。
type RecruitResult struct {
	Channel   string `json:"channel"`
	MailtoURL string `json:"mailtoUrl,omitempty"`
}

// SMTPSettings 邮件主渠道配置。
type SMTPSettings struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// RecruitService 依次尝试 SMTP、表单中转、本地邮件客户端三个渠道，首个成功即返回。
type RecruitService struct {
	smtp       SMTPSettings
	relayURL   string
	recipient  func(ctx context.Context) string
	httpClient httpDoer
	sendMail   sendMailFunc
	logger     *zap.Logger
}

// NewRecruitService 构造 RecruitService，recipient 返回当前的收件邮箱。
func NewRecruitService(settings SMTPSettings, relayURL string, recipient func(ctx context.Context) string, logger *zap.Logger) *RecruitService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if recipient == nil {
		recipient = func(context.Context) string { return "" }
	}
	return &RecruitService{
		smtp:       settings,
		relayURL:   strings.TrimSpace(relayURL),
		recipient:  recipient,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		sendMail:   smtp.SendMail,
		logger:     logger,
	}
}

// SetHTTPClient 替换表单中转使用的 HTTP 客户端，主要面向测试场景。
func (s *RecruitService) SetHTTPClient(client httpDoer) {
	if client != nil {
		s.httpClient = client
	}
}

// Submit 校验申请并投递。只有校验失败会返回错误，渠道失败只记录日志并降级。
func (s *RecruitService) Submit(ctx context.Context, app Application) (*RecruitResult, error) {
	app, err := normalizeApplication(app)
	if err != nil {
		return nil, err
	}

	to := strings.TrimSpace(s.recipient(ctx))
	subject := fmt.Sprintf("入会申请：%s", app.Name)
	body := recruitBody(app)

	if err := s.sendSMTP(to, subject, body); err != nil {
		s.logger.Warn("recruit smtp delivery failed", zap.Error(err))
	} else {
		return &RecruitResult{Channel: RecruitChannelSMTP}, nil
	}

	if err := s.sendRelay(ctx, to, subject, app); err != nil {
		s.logger.Warn("recruit relay delivery failed", zap.Error(err))
	} else {
		return &RecruitResult{Channel: RecruitChannelRelay}, nil
	}

	return &RecruitResult{Channel: RecruitChannelMailto, MailtoURL: mailtoURL(to, subject, body)}, nil
}

func (s *RecruitService) sendSMTP(to, subject, body string) error {
	cfg := s.smtp
	if cfg.Host == "" || cfg.From == "" || to == "" {
		return ErrRecruitNotConfigured
	}
	port := cfg.Port
	if port <= 0 {
		port = 587
	}
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(port))

	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	var msg strings.Builder
	msg.WriteString("From: " + cfg.From + "\r\n")
	msg.WriteString("To: " + to + "\r\n")
	msg.WriteString("Subject: " + mime.BEncoding.Encode("UTF-8", subject) + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	msg.WriteString(body)

	return s.sendMail(addr, auth, cfg.From, []string{to}, []byte(msg.String()))
}

func (s *RecruitService) sendRelay(ctx context.Context, to, subject string, app Application) error {
	if s.relayURL == "" {
		return ErrRecruitNotConfigured
	}

	payload, err := json.Marshal(map[string]string{
		"to":      to,
		"subject": subject,
		"name":    app.Name,
		"gameId":  app.GameID,
		"contact": app.Contact,
		"message": app.Message,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.relayURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("relay responded with status %d", resp.StatusCode)
	}
	return nil
}

func normalizeApplication(app Application) (Application, error) {
	app.Name = cleanText(app.Name)
	app.GameID = cleanText(app.GameID)
	app.Contact = cleanText(app.Contact)
	app.Message = cleanText(app.Message)

	if app.Name == "" {
		return app, ErrRecruitNameRequired
	}
	if app.Contact == "" {
		return app, ErrRecruitContactRequired
	}
	for _, field := range []string{app.Name, app.GameID, app.Contact} {
		if utf8.RuneCountInString(field) > maxRecruitFieldLength {
			return app, ErrRecruitFieldTooLong
		}
	}
	if utf8.RuneCountInString(app.Message) > maxRecruitMessageLength {
		return app, ErrRecruitFieldTooLong
	}
	return app, nil
}

func recruitBody(app Application) string {
	var b strings.Builder
	fmt.Fprintf(&b, "昵称：%s\n", app.Name)
	if app.GameID != "" {
		fmt.Fprintf(&b, "游戏ID：%s\n", app.GameID)
	}
	fmt.Fprintf(&b, "联系方式：%s\n", app.Contact)
	if app.Message != "" {
		fmt.Fprintf(&b, "\n%s\n", app.Message)
	}
	return b.String()
}

// mailtoURL 构造 mailto 链接，空格编码为 %20 以兼容邮件客户端。
func mailtoURL(to, subject, body string) string {
	query := url.Values{}
	query.Set("subject", subject)
	query.Set("body", body)
	encoded := strings.ReplaceAll(query.Encode(), "+", "%20")
	return "mailto:" + url.PathEscape(to) + "?" + encoded
}
