// client.go
package email

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"io"
	"mime"
	"net/smtp"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"
	"github.com/jordan-wright/email"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"PricingIntelligence/src/config"
	"PricingIntelligence/src/storage"
)

/******************** constants ********************/
const (
	MaxFetchMessages   = 100            // cap per fetch
	FetchBufferSize    = 10             // fetch channel buffer
	RecentMailDuration = 24 * time.Hour // search window for new mail
)

/******************** interfaces ********************/

// MailService is the mailbox side of the fare ingestion.
type MailService interface {
	Connect() error
	Disconnect()
	FetchUnreadEmails() ([]*Email, error)
}

// EmailHandler consumes one fetched message.
type EmailHandler interface {
	Handle(email *Email) error
}

/******************** data ********************/

type Email struct {
	UID         uint32 // IMAP UID
	Date        time.Time
	From        string // decoded
	Subject     string // decoded
	Attachments []*Attachment
}

type Attachment struct {
	Filename string // decoded
	Content  []byte
}

/******************** IMAP client ********************/

// EmailClient is a mutex-guarded IMAP connection.
type EmailClient struct {
	server    string // host:port
	username  string
	password  string
	mailbox   string
	logger    *storage.Logger
	client    *client.Client
	mu        sync.Mutex
	connected bool
}

// NewEmailClient builds a client for the mail settings of cfg.
func NewEmailClient(cfg *config.Config, logger *storage.Logger) *EmailClient {
	mailbox := cfg.Email.Mailbox
	if mailbox == "" {
		mailbox = "INBOX"
	}
	return &EmailClient{
		server:   cfg.Email.Server,
		username: cfg.Email.Username,
		password: cfg.Email.Password,
		mailbox:  mailbox,
		logger:   logger,
	}
}

// Connect dials TLS and logs in, reusing a live connection.
func (s *EmailClient) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connected {
		if _, err := s.client.Capability(); err == nil {
			return nil
		}
		s.client.Logout()
		s.client = nil
	}

	c, err := client.DialTLS(s.server, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", s.server, err)
	}

	if err := c.Login(s.username, s.password); err != nil {
		c.Logout()
		return fmt.Errorf("login: %w", err)
	}

	s.client = c
	s.connected = true
	return nil
}

func (s *EmailClient) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		s.client.Logout()
		s.client = nil
	}
	s.connected = false
}

// FetchUnreadEmails returns unseen messages from the last RecentMailDuration.
func (s *EmailClient) FetchUnreadEmails() ([]*Email, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return nil, fmt.Errorf("not connected to mail server")
	}

	if _, err := s.client.Select(s.mailbox, false); err != nil {
		return nil, fmt.Errorf("select %s: %w", s.mailbox, err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	criteria.Since = time.Now().Add(-RecentMailDuration)

	ids, err := s.client.Search(criteria)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > MaxFetchMessages {
		ids = ids[len(ids)-MaxFetchMessages:]
	}

	return s.fetchMessages(ids)
}

func (s *EmailClient) fetchMessages(ids []uint32) ([]*Email, error) {
	seqset := new(imap.SeqSet)
	seqset.AddNum(ids...)

	section := &imap.BodySectionName{}
	items := []imap.FetchItem{
		imap.FetchEnvelope,
		imap.FetchFlags,
		imap.FetchInternalDate,
		imap.FetchUid,
		section.FetchItem(),
	}

	messages := make(chan *imap.Message, FetchBufferSize)
	done := make(chan error, 1)

	go func() {
		done <- s.client.Fetch(seqset, items, messages)
	}()

	var emails []*Email
	for msg := range messages {
		r := msg.GetBody(section)
		if r == nil {
			s.logger.Warning("message without body", zap.Uint32("uid", msg.Uid))
			continue
		}
		email, err := parseMessage(r)
		if err != nil {
			s.logger.Warning("parse message failed", zap.Uint32("uid", msg.Uid), zap.Error(err))
			continue
		}
		email.UID = msg.Uid
		emails = append(emails, email)
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}

	return emails, nil
}

/******************** parsing ********************/

// parseMessage reads the headers and attachments of one RFC 5322 message.
func parseMessage(r io.Reader) (*Email, error) {
	mr, err := mail.CreateReader(r)
	if err != nil {
		return nil, fmt.Errorf("create mail reader: %w", err)
	}

	header := mr.Header
	date, _ := header.Date() // a bad date keeps the zero time

	email := &Email{
		Date:    date,
		From:    decodeHeader(header.Get("From")),
		Subject: decodeHeader(header.Get("Subject")),
	}

	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		if h, ok := p.Header.(*mail.AttachmentHeader); ok {
			if err := parseAttachment(h, p.Body, email); err != nil {
				continue
			}
		}
	}
	return email, nil
}

func parseAttachment(h *mail.AttachmentHeader, body io.Reader, email *Email) error {
	filename, err := h.Filename()
	if err != nil || filename == "" {
		return fmt.Errorf("attachment without filename")
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return fmt.Errorf("read attachment: %w", err)
	}

	email.Attachments = append(email.Attachments, &Attachment{
		Filename: decodeHeader(filename),
		Content:  buf.Bytes(),
	})
	return nil
}

/******************** helpers ********************/

// decodeHeader decodes =?charset?encoding?text?= words.
func decodeHeader(header string) string {
	decoder := mime.WordDecoder{
		CharsetReader: charsetReader,
	}

	decoded, err := decoder.DecodeHeader(header)
	if err != nil {
		return header
	}
	return decoded
}

// charsetReader converts GBK/GB2312 to UTF-8 and passes anything else through.
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(charset) {
	case "gbk", "gb2312":
		return transform.NewReader(input, simplifiedchinese.GBK.NewDecoder()), nil
	default:
		return input, nil
	}
}

/******************** workflow ********************/

// CheckAndProcessEmails returns the newest unread mail whose subject contains
// keyword, or nil when there is none.
func CheckAndProcessEmails(mailService MailService, keyword string, logger *storage.Logger) (*Email, error) {
	startTime := time.Now()
	logger.Info("checking mailbox")

	if err := mailService.Connect(); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	defer mailService.Disconnect()

	emails, err := mailService.FetchUnreadEmails()
	if err != nil {
		return nil, fmt.Errorf("fetch unread: %w", err)
	}
	if len(emails) == 0 {
		logger.Info("no new mail")
		return nil, nil
	}

	targetEmail := filterLatestTargetEmail(emails, keyword)
	if targetEmail == nil {
		logger.Info("no fare mail", zap.String("keyword", keyword), zap.Int("unread", len(emails)))
		return nil, nil
	}

	logger.Info("fare mail found",
		zap.String("subject", targetEmail.Subject),
		zap.Duration("elapsed", time.Since(startTime)))
	return targetEmail, nil
}

// filterLatestTargetEmail picks the most recent mail whose subject contains
// keyword.
func filterLatestTargetEmail(emails []*Email, keyword string) *Email {
	var targetEmails []*Email
	for _, email := range emails {
		if strings.Contains(email.Subject, keyword) {
			targetEmails = append(targetEmails, email)
		}
	}

	if len(targetEmails) == 0 {
		return nil
	}

	sort.Slice(targetEmails, func(i, j int) bool {
		return targetEmails[i].Date.After(targetEmails[j].Date)
	})

	return targetEmails[0]
}

/******************** report delivery ********************/

// buildReport assembles the report mail with the workbook attached.
func buildReport(c *config.Config, attachmentPath string, lines []string) (*email.Email, error) {
	if len(c.SendEmail.Recipients) == 0 {
		return nil, fmt.Errorf("no report recipients configured")
	}

	e := email.NewEmail()
	e.From = fmt.Sprintf("Fare Report <%s>", c.SendEmail.Username)
	e.To = c.SendEmail.Recipients
	e.Subject = c.SendEmail.Subject
	if e.Subject == "" {
		e.Subject = "Flight price driver report"
	}
	e.Text = []byte(strings.Join(lines, "\n") + "\n")

	if attachmentPath != "" {
		if _, err := os.Stat(attachmentPath); err != nil {
			return nil, fmt.Errorf("attachment %s: %w", attachmentPath, err)
		}
		if _, err := e.AttachFile(attachmentPath); err != nil {
			return nil, fmt.Errorf("attach %s: %w", attachmentPath, err)
		}
	}
	return e, nil
}

// SendReport mails the summary lines and the report workbook over implicit
// TLS. A server without a port gets 465.
func SendReport(c *config.Config, attachmentPath string, lines []string) error {
	e, err := buildReport(c, attachmentPath, lines)
	if err != nil {
		return err
	}

	smtpAddr := c.SendEmail.Server
	if !strings.Contains(smtpAddr, ":") {
		smtpAddr += ":465"
	}
	host := strings.Split(smtpAddr, ":")[0]

	err = e.SendWithTLS(
		smtpAddr,
		smtp.PlainAuth("", c.SendEmail.Username, c.SendEmail.Password, host),
		&tls.Config{ServerName: host},
	)
	if err != nil {
		return fmt.Errorf("send report via %s: %w", smtpAddr, err)
	}
	return nil
}
