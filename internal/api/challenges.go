package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"dailyrise_engine/internal/middleware"
	"dailyrise_engine/internal/model"
	"dailyrise_engine/internal/service"
	"dailyrise_engine/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type challengeRoutes struct {
	cs service.ChallengeServiceI
}

func NewChallengeRoutes(handler *gin.RouterGroup, cs service.ChallengeServiceI) {
	r := &challengeRoutes{cs: cs}
	h := handler.Group("/challenges")
	{
		h.POST("/", r.CreateChallenge)
		h.GET("/", r.ListChallenges)
		h.GET("/active", r.GetActiveChallenge)
		h.GET("/:id", r.GetChallenge)
		h.POST("/:id/accept", r.AcceptChallenge)
		h.POST("/:id/decline", r.DeclineChallenge)
	}
}

type CreateChallengeRequest struct {
	ChallengedUserID int64 `json:"challenged_user_id"`
	HabitID          int64 `json:"habit_id"`
}

type ChallengeResponse struct {
	ID               uuid.UUID  `json:"id"`
	ChallengerID     int64      `json:"challenger_id"`
	ChallengedUserID int64      `json:"challenged_user_id"`
	HabitID          int64      `json:"habit_id"`
	CommunityID      int64      `json:"community_id"`
	Status           string     `json:"status"`
	CreatedAt        time.Time  `json:"created_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	WinnerID         *int64     `json:"winner_id,omitempty"`
}

func toChallengeResponse(ch *model.Challenge) ChallengeResponse {
	return ChallengeResponse{
		ID:               ch.ID,
		ChallengerID:     ch.ChallengerID,
		ChallengedUserID: ch.ChallengedUserID,
		HabitID:          ch.HabitID,
		CommunityID:      ch.CommunityID,
		Status:           string(ch.Status),
		CreatedAt:        ch.CreatedAt,
		CompletedAt:      ch.CompletedAt,
		WinnerID:         ch.WinnerID,
	}
}

func (r *challengeRoutes) CreateChallenge(c *gin.Context) {
	log := logger.Logger()

	var req CreateChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Info("failed to bind challenge request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	ch, err := r.cs.Create(c.Request.Context(), middleware.UserID(c), req.ChallengedUserID, req.HabitID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toChallengeResponse(ch))
}

func (r *challengeRoutes) ListChallenges(c *gin.Context) {
	challenges, err := r.cs.ListForUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]ChallengeResponse, len(challenges))
	for i, ch := range challenges {
		out[i] = toChallengeResponse(ch)
	}
	c.JSON(http.StatusOK, out)
}

// GetActiveChallenge looks up the live challenge between the caller and
// another user, optionally narrowed to one habit.
func (r *challengeRoutes) GetActiveChallenge(c *gin.Context) {
	otherID, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
		return
	}

	var habitID *int64
	if raw := c.Query("habit_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid habit_id"})
			return
		}
		habitID = &id
	}

	ch, err := r.cs.FindActiveBetween(c.Request.Context(), middleware.UserID(c), otherID, habitID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toChallengeResponse(ch))
}

func (r *challengeRoutes) GetChallenge(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid challenge id"})
		return
	}

	ch, err := r.cs.Get(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toChallengeResponse(ch))
}

func (r *challengeRoutes) AcceptChallenge(c *gin.Context) {
	r.respond(c, r.cs.Accept)
}

func (r *challengeRoutes) DeclineChallenge(c *gin.Context) {
	r.respond(c, r.cs.Decline)
}

func (r *challengeRoutes) respond(c *gin.Context, op func(ctx context.Context, id uuid.UUID, actorID int64) (*model.Challenge, error)) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid challenge id"})
		return
	}

	ch, err := op(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toChallengeResponse(ch))
}
