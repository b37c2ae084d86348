package controller

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"docchat-be/internal/dto"
	"docchat-be/internal/pkg/serverutils"
	"docchat-be/internal/service"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Query(ctx *fiber.Ctx) error
	QueryStream(ctx *fiber.Ctx) error
	ListSessions(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
	DeleteSession(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
}

func NewChatController(chatService service.IChatService) IChatController {
	return &chatController{
		chatService: chatService,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("query", c.Query)
	h.Post("stream", c.QueryStream)
	h.Get("sessions", c.ListSessions)
	h.Get("sessions/:sessionKey/history", c.History)
	h.Delete("sessions/:sessionKey", c.DeleteSession)
}

func (c *chatController) Query(ctx *fiber.Ctx) error {
	tenantId, err := serverutils.TenantID(ctx)
	if err != nil {
		return err
	}

	var req dto.ChatQueryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatService.Query(ctx.Context(), tenantId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success chat query", res))
}

// QueryStream answers over SSE. The HTTP status is always 200 once the
// stream opens; failures travel as error frames in the event stream.
func (c *chatController) QueryStream(ctx *fiber.Ctx) error {
	tenantId, err := serverutils.TenantID(ctx)
	if err != nil {
		return err
	}

	var req dto.ChatQueryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	ctx.Set(fiber.HeaderContentType, "text/event-stream")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set(fiber.HeaderConnection, "keep-alive")

	// The fiber context is recycled when this handler returns, so the
	// stream writer runs against a detached context.
	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		writeEvent := func(event dto.StreamEvent) error {
			data, err := json.Marshal(event)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				return err
			}
			return w.Flush()
		}

		err := c.chatService.QueryStream(context.Background(), tenantId, &req, writeEvent)
		if err != nil {
			writeEvent(dto.StreamEvent{Type: "error", Error: streamErrorMessage(err)})
		}
	}))

	return nil
}

// streamErrorMessage maps pre-stream failures to client-safe text.
func streamErrorMessage(err error) string {
	switch {
	case errors.Is(err, dto.ErrRateLimited),
		errors.Is(err, dto.ErrSessionBusy),
		errors.Is(err, dto.ErrNotFound):
		return err.Error()
	default:
		return "chat turn failed"
	}
}

func (c *chatController) ListSessions(ctx *fiber.Ctx) error {
	tenantId, err := serverutils.TenantID(ctx)
	if err != nil {
		return err
	}

	res, err := c.chatService.ListSessions(ctx.Context(), tenantId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list sessions", res))
}

func (c *chatController) History(ctx *fiber.Ctx) error {
	tenantId, err := serverutils.TenantID(ctx)
	if err != nil {
		return err
	}

	sessionKey := ctx.Params("sessionKey")
	res, err := c.chatService.History(ctx.Context(), tenantId, sessionKey)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show history", res))
}

func (c *chatController) DeleteSession(ctx *fiber.Ctx) error {
	tenantId, err := serverutils.TenantID(ctx)
	if err != nil {
		return err
	}

	sessionKey := ctx.Params("sessionKey")
	if err := c.chatService.DeleteSession(ctx.Context(), tenantId, sessionKey); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete session", nil))
}
