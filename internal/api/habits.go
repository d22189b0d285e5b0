package api

import (
	"net/http"
	"time"

	"dailyrise_engine/internal/middleware"
	"dailyrise_engine/internal/model"
	"dailyrise_engine/internal/service"
	"dailyrise_engine/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

type habitRoutes struct {
	habits service.HabitRepository
}

func NewHabitRoutes(handler *gin.RouterGroup, habits service.HabitRepository) {
	r := &habitRoutes{habits: habits}
	h := handler.Group("/habits")
	{
		h.POST("/", r.CreateHabit)
		h.GET("/", r.ListHabits)
	}
}

type CreateHabitRequest struct {
	Name        string `json:"name"`
	CommunityID int64  `json:"community_id"`
}

type HabitResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	CommunityID int64     `json:"community_id"`
	CreatedAt   time.Time `json:"created_at"`
}

func (r *habitRoutes) CreateHabit(c *gin.Context) {
	log := logger.Logger()

	var req CreateHabitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Info("failed to bind habit request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "habit name is required"})
		return
	}

	habit := &model.Habit{
		UserID:      middleware.UserID(c),
		CommunityID: req.CommunityID,
		Name:        req.Name,
		CreatedAt:   time.Now().UTC(),
	}

	id, err := r.habits.CreateHabit(c.Request.Context(), habit)
	if err != nil {
		respondError(c, err)
		return
	}
	habit.ID = id

	c.JSON(http.StatusCreated, HabitResponse{
		ID:          habit.ID,
		Name:        habit.Name,
		CommunityID: habit.CommunityID,
		CreatedAt:   habit.CreatedAt,
	})
}

func (r *habitRoutes) ListHabits(c *gin.Context) {
	habits, err := r.habits.GetHabitsByUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]HabitResponse, len(habits))
	for i, h := range habits {
		out[i] = HabitResponse{
			ID:          h.ID,
			Name:        h.Name,
			CommunityID: h.CommunityID,
			CreatedAt:   h.CreatedAt,
		}
	}
	c.JSON(http.StatusOK, out)
}
