package handlers

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/creatoraide/configs"
	"github.com/maheshrc27/creatoraide/internal/service"
	"github.com/maheshrc27/creatoraide/pkg/utils"
)

type PlatformHandler struct {
	ps  service.PlatformService
	cfg config.Config
}

func NewPlatformHandler(ps service.PlatformService, cfg config.Config) *PlatformHandler {
	return &PlatformHandler{
		ps:  ps,
		cfg: cfg,
	}
}

// AddSocialAccount redirects to the platform's consent page. The OAuth state
// is a short-lived token carrying the caller's user id.
func (h *PlatformHandler) AddSocialAccount(c *fiber.Ctx) error {
	state, err := utils.GenerateToken(h.cfg.SecretKey, strconv.FormatInt(GetUserID(c), 10), 10*time.Minute)
	if err != nil {
		return err
	}
	authURL, err := h.ps.GetAuthURL(c.Params("platform"), state)
	if err != nil {
		return err
	}
	return c.Redirect(authURL)
}

func (h *PlatformHandler) CallbackHandler(c *fiber.Ctx) error {
	code := c.Query("code")
	state := c.Query("state")
	platform := c.Params("platform")

	claims, err := utils.ValidateToken(h.cfg.SecretKey, state)
	if err != nil {
		slog.Info(err.Error())
		return fiber.NewError(fiber.StatusBadRequest, "Unable to validate user")
	}
	userID, err := claims.UserIDInt()
	if err != nil {
		slog.Info(err.Error())
		return fiber.NewError(fiber.StatusBadRequest, "Unable to validate user")
	}

	if err := h.ps.Callback(c.Context(), platform, code, userID); err != nil {
		slog.Info(err.Error())
		return fiber.NewError(fiber.StatusBadRequest, "something went wrong")
	}

	redirectURL := fmt.Sprintf("%s/dashboard/accounts", h.cfg.FrontendURL)
	return c.Redirect(redirectURL, fiber.StatusTemporaryRedirect)
}

func (h *PlatformHandler) ListSocialAccounts(c *fiber.Ctx) error {
	accounts, err := h.ps.List(c.Context(), GetUserID(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(accounts)
}

func (h *PlatformHandler) DeleteSocialAccount(c *fiber.Ctx) error {
	accountID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.ps.Delete(c.Context(), GetUserID(c), accountID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
