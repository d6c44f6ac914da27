package handlers

import (
	"io"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/creatoraide/internal/models"
	"github.com/maheshrc27/creatoraide/internal/service"
)

type MediaHandler struct {
	s service.MediaService
}

func NewMediaHandler(s service.MediaService) *MediaHandler {
	return &MediaHandler{s: s}
}

func (h *MediaHandler) Register(r fiber.Router) {
	r.Get("/", h.ListMedia)
	r.Post("/", h.UploadMedia)
	r.Get("/:id", h.GetMedia)
	r.Delete("/:id", h.DeleteMedia)
}

func (h *MediaHandler) UploadMedia(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		slog.Info(err.Error())
		return fiber.NewError(fiber.StatusBadRequest, "No file selected")
	}

	var draftID *int64
	if raw := c.FormValue("draft_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid draft_id")
		}
		draftID = &id
	}

	file, err := fileHeader.Open()
	if err != nil {
		slog.Info(err.Error())
		return fiber.NewError(fiber.StatusBadRequest, "Unable to read file")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		slog.Info(err.Error())
		return fiber.NewError(fiber.StatusBadRequest, "Unable to read file")
	}

	media, err := h.s.Upload(c.Context(), GetUserID(c), draftID, data)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(media)
}

func (h *MediaHandler) ListMedia(c *fiber.Ctx) error {
	files, err := h.s.List(c.Context(), GetUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(files)
}

func (h *MediaHandler) GetMedia(c *fiber.Ctx) error {
	media, err := h.ownedMedia(c)
	if err != nil {
		return err
	}
	return c.JSON(media)
}

func (h *MediaHandler) DeleteMedia(c *fiber.Ctx) error {
	media, err := h.ownedMedia(c)
	if err != nil {
		return err
	}
	if err := h.s.Delete(c.Context(), media.ID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *MediaHandler) ownedMedia(c *fiber.Ctx) (*models.MediaFile, error) {
	id, err := paramID(c, "id")
	if err != nil {
		return nil, err
	}
	media, err := h.s.Get(c.Context(), id)
	if err != nil {
		return nil, err
	}
	if media.UserID != GetUserID(c) {
		return nil, service.ErrForbidden
	}
	return media, nil
}
