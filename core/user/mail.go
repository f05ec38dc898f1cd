package user

import (
	"net/mail"

	"github.com/trezcool/darasa/core"
)

// WelcomeMessage returns the email sent to newly registered users; nil when usr has no email address.
func WelcomeMessage(usr User) *core.EmailMessage {
	if usr.Email == "" {
		return nil
	}
	return &core.EmailMessage{
		To:           []mail.Address{{Name: usr.Username, Address: usr.Email}},
		Subject:      "Welcome!",
		TemplateName: "welcome",
		TemplateData: usr,
	}
}
