package echoapi

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
)

var flashCookieName = "flash"

const (
	levelSuccess = "success"
	levelInfo    = "info"
	levelError   = "error"
)

type flashMessage struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

// addFlash keeps msgs for the next rendered page, usually the target of a redirect.
func addFlash(ctx echo.Context, msgs ...flashMessage) {
	b, err := json.Marshal(msgs)
	if err != nil {
		return
	}
	ctx.SetCookie(&http.Cookie{
		Name:     flashCookieName,
		Value:    base64.RawURLEncoding.EncodeToString(b),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash returns the pending messages and clears them.
func popFlash(ctx echo.Context) []flashMessage {
	cookie, err := ctx.Cookie(flashCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	ctx.SetCookie(&http.Cookie{Name: flashCookieName, Path: "/", MaxAge: -1})

	b, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}
	var msgs []flashMessage
	if err = json.Unmarshal(b, &msgs); err != nil {
		return nil
	}
	return msgs
}
