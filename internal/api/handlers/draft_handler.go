package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/creatoraide/internal/models"
	"github.com/maheshrc27/creatoraide/internal/service"
	"github.com/maheshrc27/creatoraide/internal/transfer"
)

type DraftHandler struct {
	s service.DraftService
}

func NewDraftHandler(s service.DraftService) *DraftHandler {
	return &DraftHandler{s: s}
}

func (h *DraftHandler) Register(r fiber.Router) {
	r.Get("/", h.ListDrafts)
	r.Post("/", h.CreateDraft)
	r.Get("/:id", h.GetDraft)
	r.Put("/:id", h.UpdateDraft)
	r.Delete("/:id", h.DeleteDraft)
}

func (h *DraftHandler) ListDrafts(c *fiber.Ctx) error {
	drafts, err := h.s.List(c.Context(), GetUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(drafts)
}

func (h *DraftHandler) GetDraft(c *fiber.Ctx) error {
	draft, err := h.ownedDraft(c)
	if err != nil {
		return err
	}
	return c.JSON(draft)
}

func (h *DraftHandler) CreateDraft(c *fiber.Ctx) error {
	var in transfer.DraftCreation
	if err := c.BodyParser(&in); err != nil {
		slog.Info(err.Error())
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	draft, err := h.s.Create(c.Context(), GetUserID(c), &in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(draft)
}

func (h *DraftHandler) UpdateDraft(c *fiber.Ctx) error {
	existing, err := h.ownedDraft(c)
	if err != nil {
		return err
	}
	var patch transfer.DraftUpdate
	if err := c.BodyParser(&patch); err != nil {
		slog.Info(err.Error())
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	draft, err := h.s.Update(c.Context(), existing.ID, &patch)
	if err != nil {
		return err
	}
	return c.JSON(draft)
}

func (h *DraftHandler) DeleteDraft(c *fiber.Ctx) error {
	draft, err := h.ownedDraft(c)
	if err != nil {
		return err
	}
	if err := h.s.Delete(c.Context(), draft.ID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *DraftHandler) ownedDraft(c *fiber.Ctx) (*models.ContentDraft, error) {
	id, err := paramID(c, "id")
	if err != nil {
		return nil, err
	}
	draft, err := h.s.Get(c.Context(), id)
	if err != nil {
		return nil, err
	}
	if draft.UserID != GetUserID(c) {
		return nil, service.ErrForbidden
	}
	return draft, nil
}
