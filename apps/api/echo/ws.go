package echoapi

import (
	"context"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/labstack/echo/v4"
)

var wsWriteTimeout = 5 * time.Second

type (
	wsGreeting struct {
		Message string `json:"message"`
	}

	wsEchoFrame struct {
		Echo string `json:"echo"`
	}
)

// wsEcho answers every frame received with {"echo": <frame text>}. Used to test connectivity.
func wsEcho(ctx echo.Context) error {
	conn, err := websocket.Accept(ctx.Response(), ctx.Request(), &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		return nil // Accept already wrote the response
	}
	defer conn.CloseNow()

	reqCtx := ctx.Request().Context()
	if err = writeFrame(reqCtx, conn, wsGreeting{Message: "WebSocket connection established!"}); err != nil {
		return nil
	}

	for {
		_, data, err := conn.Read(reqCtx)
		if err != nil {
			if websocket.CloseStatus(err) == -1 { // not closed by the client
				_ = conn.Close(websocket.StatusNormalClosure, "closed")
			}
			return nil
		}
		if err = writeFrame(reqCtx, conn, wsEchoFrame{Echo: string(data)}); err != nil {
			_ = conn.Close(websocket.StatusNormalClosure, "write_failed")
			return nil
		}
	}
}

func writeFrame(ctx context.Context, conn *websocket.Conn, v interface{}) error {
	writeCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return wsjson.Write(writeCtx, conn, v)
}
