package api

import (
	"net/http"
	"strconv"

	"dailyrise_engine/internal/middleware"
	"dailyrise_engine/internal/service"

	"github.com/gin-gonic/gin"
)

const defaultLeaderboardLimit = 20

type pointsRoutes struct {
	ps service.PointsServiceI
}

func NewPointsRoutes(handler *gin.RouterGroup, ps service.PointsServiceI) {
	r := &pointsRoutes{ps: ps}
	h := handler.Group("/points")
	{
		h.GET("/", r.GetPoints)
		h.GET("/leaderboard", r.GetLeaderboard)
	}
}

func (r *pointsRoutes) GetPoints(c *gin.Context) {
	entries, err := r.ps.Totals(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]gin.H, len(entries))
	for i, e := range entries {
		out[i] = gin.H{
			"community_id": e.CommunityID,
			"total_points": e.TotalPoints,
		}
	}
	c.JSON(http.StatusOK, out)
}

func (r *pointsRoutes) GetLeaderboard(c *gin.Context) {
	communityID, err := strconv.ParseInt(c.Query("community_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid community_id"})
		return
	}

	limit := defaultLeaderboardLimit
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
	}

	board, err := r.ps.Leaderboard(c.Request.Context(), communityID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]gin.H, len(board))
	for i, row := range board {
		out[i] = gin.H{
			"position":     i + 1,
			"user_id":      row.UserID,
			"total_points": row.TotalPoints,
		}
	}
	c.JSON(http.StatusOK, out)
}
