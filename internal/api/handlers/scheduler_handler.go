package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/creatoraide/internal/models"
	"github.com/maheshrc27/creatoraide/internal/queue"
	"github.com/maheshrc27/creatoraide/internal/service"
	"github.com/maheshrc27/creatoraide/internal/transfer"
)

type SchedulerHandler struct {
	s service.SchedulerService
	q queue.Enqueuer
}

// NewSchedulerHandler wires the scheduler routes. q may be nil, in which case
// due posts are only picked up by the sweep.
func NewSchedulerHandler(s service.SchedulerService, q queue.Enqueuer) *SchedulerHandler {
	return &SchedulerHandler{s: s, q: q}
}

func (h *SchedulerHandler) Register(r fiber.Router) {
	r.Get("/posts", h.ListPosts)
	r.Post("/posts", h.CreatePost)
	r.Get("/posts/:id", h.GetPost)
	r.Put("/posts/:id", h.UpdatePost)
	r.Delete("/posts/:id", h.DeletePost)
	r.Post("/posts/:id/publish", h.PublishPost)
	r.Get("/best-times/:platform", h.BestTimes)
}

func (h *SchedulerHandler) ListPosts(c *fiber.Ctx) error {
	posts, err := h.s.ListByOwner(c.Context(), GetUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(posts)
}

func (h *SchedulerHandler) GetPost(c *fiber.Ctx) error {
	post, err := h.ownedPost(c)
	if err != nil {
		return err
	}
	return c.JSON(post)
}

func (h *SchedulerHandler) CreatePost(c *fiber.Ctx) error {
	var in transfer.ScheduledPostCreation
	if err := c.BodyParser(&in); err != nil {
		slog.Info(err.Error())
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	post, err := h.s.Create(c.Context(), GetUserID(c), &in)
	if err != nil {
		return err
	}
	h.enqueue(c, post)

	return c.Status(fiber.StatusCreated).JSON(post)
}

func (h *SchedulerHandler) UpdatePost(c *fiber.Ctx) error {
	existing, err := h.ownedPost(c)
	if err != nil {
		return err
	}

	var patch transfer.ScheduledPostUpdate
	if err := c.BodyParser(&patch); err != nil {
		slog.Info(err.Error())
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	post, err := h.s.Update(c.Context(), existing.ID, &patch)
	if err != nil {
		return err
	}
	if !post.ScheduledFor.Equal(existing.ScheduledFor) || post.Status != existing.Status {
		h.enqueue(c, post)
	}

	return c.JSON(post)
}

func (h *SchedulerHandler) DeletePost(c *fiber.Ctx) error {
	post, err := h.ownedPost(c)
	if err != nil {
		return err
	}
	if err := h.s.Delete(c.Context(), post.ID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *SchedulerHandler) PublishPost(c *fiber.Ctx) error {
	post, err := h.ownedPost(c)
	if err != nil {
		return err
	}
	res, err := h.s.PublishNow(c.Context(), post.ID)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

func (h *SchedulerHandler) BestTimes(c *fiber.Ctx) error {
	platform := c.Params("platform")
	hours, err := service.BestTimesForPlatform(platform)
	if err != nil {
		return err
	}
	return c.JSON(transfer.BestTimesResponse{Platform: platform, BestTimes: hours})
}

// ownedPost loads the :id post and checks it belongs to the caller.
func (h *SchedulerHandler) ownedPost(c *fiber.Ctx) (*models.ScheduledPost, error) {
	id, err := paramID(c, "id")
	if err != nil {
		return nil, err
	}
	post, err := h.s.Get(c.Context(), id)
	if err != nil {
		return nil, err
	}
	if post.UserID != GetUserID(c) {
		return nil, service.ErrForbidden
	}
	return post, nil
}

// enqueue hands pending posts to the delay queue. Failures are logged only;
// the sweep still publishes the post on time.
func (h *SchedulerHandler) enqueue(c *fiber.Ctx, post *models.ScheduledPost) {
	if h.q == nil || post.Status != models.PostStatusPending {
		return
	}
	if err := h.q.EnqueuePost(c.Context(), post.ID, post.ScheduledFor); err != nil {
		slog.Error("error scheduling post", "post_id", post.ID, "error", err)
	}
}
