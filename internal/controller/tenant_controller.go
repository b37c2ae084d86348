package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"docchat-be/internal/dto"
	"docchat-be/internal/pkg/serverutils"
	"docchat-be/internal/service"
)

type ITenantController interface {
	RegisterRoutes(r fiber.Router)
	GetSettings(ctx *fiber.Ctx) error
	UpdateSettings(ctx *fiber.Ctx) error
	ListNotifications(ctx *fiber.Ctx) error
	MarkNotificationRead(ctx *fiber.Ctx) error
	MarkAllNotificationsRead(ctx *fiber.Ctx) error
}

type tenantController struct {
	tenantService       service.ITenantService
	notificationService *service.NotificationService
}

func NewTenantController(tenantService service.ITenantService, notificationService *service.NotificationService) ITenantController {
	return &tenantController{
		tenantService:       tenantService,
		notificationService: notificationService,
	}
}

func (c *tenantController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/tenant/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get("settings", c.GetSettings)
	h.Put("settings", c.UpdateSettings)
	h.Get("notifications", c.ListNotifications)
	h.Put("notifications/read-all", c.MarkAllNotificationsRead)
	h.Put("notifications/:id/read", c.MarkNotificationRead)
}

func (c *tenantController) GetSettings(ctx *fiber.Ctx) error {
	tenantId, err := serverutils.TenantID(ctx)
	if err != nil {
		return err
	}

	res, err := c.tenantService.GetSettings(ctx.Context(), tenantId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show settings", res))
}

func (c *tenantController) UpdateSettings(ctx *fiber.Ctx) error {
	tenantId, err := serverutils.TenantID(ctx)
	if err != nil {
		return err
	}

	var req dto.UpdateTenantSettingsRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.tenantService.UpdateSettings(ctx.Context(), tenantId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success update settings", res))
}

func (c *tenantController) ListNotifications(ctx *fiber.Ctx) error {
	tenantId, err := serverutils.TenantID(ctx)
	if err != nil {
		return err
	}

	limit := ctx.QueryInt("limit", 20)
	offset := ctx.QueryInt("offset", 0)

	res, err := c.notificationService.List(ctx.Context(), tenantId, limit, offset)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list notifications", res))
}

func (c *tenantController) MarkNotificationRead(ctx *fiber.Ctx) error {
	if _, err := serverutils.TenantID(ctx); err != nil {
		return err
	}

	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid notification id")
	}

	if err := c.notificationService.MarkRead(ctx.Context(), id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success mark notification read", nil))
}

func (c *tenantController) MarkAllNotificationsRead(ctx *fiber.Ctx) error {
	tenantId, err := serverutils.TenantID(ctx)
	if err != nil {
		return err
	}

	if err := c.notificationService.MarkAllRead(ctx.Context(), tenantId); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success mark notifications read", nil))
}
