package email

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"PricingIntelligence/src/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rawFareMail = "From: Fares <fares@example.com>\r\n" +
	"To: analyst@example.com\r\n" +
	"Subject: =?gbk?B?u/rGsbzbuPE=?= weekly\r\n" +
	"Date: Mon, 25 Mar 2019 10:00:00 +0000\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/mixed; boundary=\"XYZ\"\r\n" +
	"\r\n" +
	"--XYZ\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"See attachment.\r\n" +
	"--XYZ\r\n" +
	"Content-Type: text/csv\r\n" +
	"Content-Disposition: attachment; filename=\"fares.csv\"\r\n" +
	"Content-Transfer-Encoding: base64\r\n" +
	"\r\n" +
	"QWlybGluZSxQcmljZQpJbmRpR28sMzg5Nwo=\r\n" +
	"--XYZ--\r\n"

func TestParseMessage(t *testing.T) {
	email, err := parseMessage(strings.NewReader(rawFareMail))
	require.NoError(t, err)

	assert.Equal(t, "机票价格 weekly", email.Subject)
	assert.Contains(t, email.From, "fares@example.com")
	assert.Equal(t, 2019, email.Date.Year())
	require.Len(t, email.Attachments, 1)
	assert.Equal(t, "fares.csv", email.Attachments[0].Filename)
	assert.Equal(t, "Airline,Price\nIndiGo,3897\n", string(email.Attachments[0].Content))
}

func TestDecodeHeaderPlain(t *testing.T) {
	assert.Equal(t, "Weekly fares", decodeHeader("Weekly fares"))
}

func TestFilterLatestTargetEmail(t *testing.T) {
	now := time.Now()
	emails := []*Email{
		{UID: 1, Subject: "fares march", Date: now.Add(-2 * time.Hour)},
		{UID: 2, Subject: "newsletter", Date: now},
		{UID: 3, Subject: "fares april", Date: now.Add(-time.Hour)},
	}

	got := filterLatestTargetEmail(emails, "fares")
	require.NotNil(t, got)
	assert.Equal(t, uint32(3), got.UID)

	assert.Nil(t, filterLatestTargetEmail(emails, "invoice"))
}

type fakeMailService struct {
	emails       []*Email
	connectErr   error
	disconnected bool
}

func (f *fakeMailService) Connect() error { return f.connectErr }
func (f *fakeMailService) Disconnect()    { f.disconnected = true }
func (f *fakeMailService) FetchUnreadEmails() ([]*Email, error) {
	return f.emails, nil
}

func TestCheckAndProcessEmails(t *testing.T) {
	svc := &fakeMailService{emails: []*Email{
		{UID: 7, Subject: "fares", Date: time.Now()},
	}}

	got, err := CheckAndProcessEmails(svc, "fares", nil)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, uint32(7), got.UID)
	assert.True(t, svc.disconnected)

	got, err = CheckAndProcessEmails(&fakeMailService{}, "fares", nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = CheckAndProcessEmails(&fakeMailService{connectErr: errors.New("refused")}, "fares", nil)
	assert.ErrorContains(t, err, "refused")
}

func TestBuildReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("wb"), 0644))

	cfg := &config.Config{}
	cfg.SendEmail.Username = "bot@example.com"
	cfg.SendEmail.Recipients = []string{"analyst@example.com"}

	e, err := buildReport(cfg, path, []string{"R2 0.93", "stops drive price"})
	require.NoError(t, err)
	assert.Equal(t, []string{"analyst@example.com"}, e.To)
	assert.Equal(t, "Flight price driver report", e.Subject)
	assert.Equal(t, "R2 0.93\nstops drive price\n", string(e.Text))
	require.Len(t, e.Attachments, 1)
	assert.Equal(t, "report.xlsx", e.Attachments[0].Filename)

	_, err = buildReport(cfg, filepath.Join(t.TempDir(), "missing.xlsx"), nil)
	assert.Error(t, err)

	cfg.SendEmail.Recipients = nil
	_, err = buildReport(cfg, "", nil)
	assert.Error(t, err)
}
