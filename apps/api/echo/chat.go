package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/edulead/core/chat"
)

type chatApi struct {
	svc chat.Service
}

func registerChatAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc chat.Service) {
	api := chatApi{svc: svc}

	cg := g.Group("/chat")
	cg.POST("", api.reply)
	cg.GET("/:session_id", api.retrieve, jwt, adminMiddleware())
}

// Handlers

func (api *chatApi) reply(ctx echo.Context) error {
	var data chat.NewMessage
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMessage")
	}

	reply, err := api.svc.Reply(data)
	if err != nil {
		return errors.Wrap(err, "replying to chat message")
	}
	return ctx.JSON(http.StatusOK, reply)
}

func (api *chatApi) retrieve(ctx echo.Context) error {
	s, err := api.svc.Get(ctx.Param("session_id"))
	if err != nil {
		if errors.Cause(err) == chat.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding chat session")
	}
	return ctx.JSON(http.StatusOK, s)
}
