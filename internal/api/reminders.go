package api

import (
	"net/http"
	"strconv"
	"time"

	"dailyrise_engine/internal/middleware"
	"dailyrise_engine/internal/model"
	"dailyrise_engine/internal/service"
	"dailyrise_engine/pkg/apperr"
	"dailyrise_engine/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

type reminderRoutes struct {
	rs     service.ReminderServiceI
	habits service.HabitRepository
}

func NewReminderRoutes(handler *gin.RouterGroup, rs service.ReminderServiceI, habits service.HabitRepository) {
	r := &reminderRoutes{rs: rs, habits: habits}
	h := handler.Group("/reminders")
	{
		h.POST("/", r.CreateReminder)
		h.GET("/", r.ListReminders)
		h.PATCH("/:id", r.UpdateReminder)
		h.DELETE("/:id", r.DeleteReminder)
		h.POST("/:id/claim", r.ClaimAlarm)
	}
}

type CreateReminderRequest struct {
	HabitID int64  `json:"habit_id"`
	Time    string `json:"time"`
	Sound   string `json:"sound"`
}

type UpdateReminderRequest struct {
	Enabled *bool `json:"enabled"`
}

type ReminderResponse struct {
	ID        int64     `json:"id"`
	HabitID   int64     `json:"habit_id"`
	HabitName string    `json:"habit_name"`
	Time      string    `json:"time"`
	Sound     string    `json:"sound"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
}

func toReminderResponse(rem *model.Reminder) ReminderResponse {
	return ReminderResponse{
		ID:        rem.ID,
		HabitID:   rem.HabitID,
		HabitName: rem.HabitName,
		Time:      rem.Time,
		Sound:     string(rem.Sound),
		Enabled:   rem.Enabled,
		CreatedAt: rem.CreatedAt,
	}
}

func (r *reminderRoutes) CreateReminder(c *gin.Context) {
	log := logger.Logger()

	var req CreateReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Info("failed to bind reminder request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	userID := middleware.UserID(c)
	habit, err := r.habits.GetHabitByID(c.Request.Context(), req.HabitID)
	if err != nil {
		respondError(c, apperr.Validation("habit does not exist"))
		return
	}
	if habit.UserID != userID {
		respondError(c, apperr.Unauthorized("habit belongs to another user"))
		return
	}

	rem, err := r.rs.Create(c.Request.Context(), userID, habit, req.Time, model.ToneProfile(req.Sound))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toReminderResponse(rem))
}

func (r *reminderRoutes) ListReminders(c *gin.Context) {
	reminders, err := r.rs.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]ReminderResponse, len(reminders))
	for i, rem := range reminders {
		out[i] = toReminderResponse(rem)
	}
	c.JSON(http.StatusOK, out)
}

func (r *reminderRoutes) UpdateReminder(c *gin.Context) {
	id, ok := reminderID(c)
	if !ok {
		return
	}

	var req UpdateReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Enabled == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := r.rs.SetEnabled(c.Request.Context(), middleware.UserID(c), id, *req.Enabled); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "enabled": *req.Enabled})
}

func (r *reminderRoutes) DeleteReminder(c *gin.Context) {
	id, ok := reminderID(c)
	if !ok {
		return
	}

	if err := r.rs.Delete(c.Request.Context(), middleware.UserID(c), id); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ClaimAlarm resolves the open alarm window for the caller's reminder. The
// first claim wins; anything after reports the window as already resolved.
func (r *reminderRoutes) ClaimAlarm(c *gin.Context) {
	id, ok := reminderID(c)
	if !ok {
		return
	}

	outcome, err := r.rs.Claim(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"outcome": outcome.String()})
}

func reminderID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reminder id"})
		return 0, false
	}
	return id, true
}
