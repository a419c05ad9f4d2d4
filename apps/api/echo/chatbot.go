package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/chatbot"
)

type chatbotAPI struct {
	bot *chatbot.Bot
}

func registerChatbotAPI(g *echo.Group, bot *chatbot.Bot) {
	api := chatbotAPI{bot: bot}

	// the course advisor is open to visitors
	bg := g.Group("/chatbot")
	bg.POST("/message", api.message)
	bg.GET("/suggestions", api.suggestions)
}

// Handlers

func (api *chatbotAPI) message(ctx echo.Context) error {
	var data ChatMessageRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ChatMessageRequest")
	}
	data.Message = core.CleanString(data.Message)
	if data.Message == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "message", Error: "message is required"})
	}

	return ctx.JSON(http.StatusOK, ChatMessageResponse{Reply: api.bot.Reply(data.Message)})
}

func (api *chatbotAPI) suggestions(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, chatbot.SuggestedQuestions)
}

type (
	ChatMessageRequest struct {
		Message string `json:"message"`
	}

	ChatMessageResponse struct {
		Reply string `json:"reply"`
	}
)
