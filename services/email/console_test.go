package emailsvc

import (
	"io"
	"log"
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appfs "github.com/trezcool/darasa/assets"
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
	"github.com/trezcool/darasa/services/logger"
	"github.com/trezcool/darasa/testutil"
)

func TestConsoleServiceMock_SendMessages(t *testing.T) {
	conf := testutil.NewConfig()
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
	core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, conf.FrontendBaseURL, true /* strict */, logger)

	svc := NewConsoleServiceMock(conf)
	svc.SendMessages(
		user.WelcomeMessage(user.User{Username: "teacher", Email: "teacher@test.cd", IsInstructor: true}),
		&core.EmailMessage{To: []mail.Address{{Address: "awe@test.cd"}}, Subject: "Hi", BodyStr: "plain body"},
		&core.EmailMessage{Subject: "no recipients", BodyStr: "lol"},
		&core.EmailMessage{To: []mail.Address{{Address: "awe@test.cd"}}, Subject: "no content"},
		&core.EmailMessage{To: []mail.Address{{Address: "awe@test.cd"}}, TemplateName: "lol"},
	)

	sent := svc.Sent()
	require.Len(t, sent, 2, "messages without recipients, content or template are dropped")

	welcome := sent[0]
	assert.Equal(t, "Welcome!", welcome.Subject)
	assert.Contains(t, welcome.TextContent, "Hi teacher,")
	assert.Contains(t, welcome.TextContent, "with instructor access")
	assert.Contains(t, welcome.TextContent, conf.FrontendBaseURL+"/courses")
	assert.Contains(t, welcome.HTMLContent, "teacher")

	assert.Equal(t, "plain body", sent[1].TextContent)
	assert.Empty(t, sent[1].HTMLContent)

	svc.Reset()
	assert.Empty(t, svc.Sent())
}

func TestConsoleService_format(t *testing.T) {
	conf := testutil.NewConfig()
	svc := NewConsoleServiceMock(conf)

	body, err := svc.format(core.EmailMessage{
		To:          []mail.Address{{Name: "Awe", Address: "awe@test.cd"}, {Address: "ndog@test.cd"}},
		Cc:          []mail.Address{{Address: "cc@test.cd"}},
		Subject:     "Hi",
		TextContent: "text",
		HTMLContent: "<p>html</p>",
	})
	require.NoError(t, err)
	from := conf.DefaultFromAddress()
	assert.Contains(t, body, "From: "+from.String()+"\r\n")
	assert.Contains(t, body, "Subject: [Darasa] Hi\r\n")
	assert.Contains(t, body, `To: "Awe" <awe@test.cd>, <ndog@test.cd>`+"\r\n")
	assert.Contains(t, body, "CC: <cc@test.cd>\r\n")
	assert.NotContains(t, body, "BCC:")
	assert.Contains(t, body, "text/plain; charset=utf-8")
	assert.Contains(t, body, "<p>html</p>")
	assert.Equal(t, 1, strings.Count(body, "text/html"))
}

func TestWelcomeMessage_noEmail(t *testing.T) {
	assert.Nil(t, user.WelcomeMessage(user.User{Username: "awe"}))
}
