package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal/auth"
	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal/response"
)

const maxBodyBytes = 20 << 20

// NewRouter wires every route. Everything under /api requires a valid
// bearer token.
func NewRouter(app App, provider auth.Provider) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestIDMiddleware(), AccessLogMiddleware(app.Logger()), CORSMiddleware(), BodyLimitMiddleware(maxBodyBytes))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, response.Success(gin.H{"status": "ok"}, nil))
	})

	api := r.Group("/api", auth.AuthMiddleware(provider))

	api.POST("/food-logs", PostFoodLog(app))
	api.GET("/food-logs", GetFoodLogs(app))
	api.DELETE("/food-logs/:id", DeleteFoodLog(app))

	api.POST("/stool-logs", PostStoolLog(app))
	api.GET("/stool-logs", GetStoolLogs(app))
	api.GET("/stool-logs/streak", GetStoolStreak(app))
	api.DELETE("/stool-logs/:id", DeleteStoolLog(app))

	api.GET("/analytics/scores", GetScores(app))
	api.GET("/analytics/day/:date", GetDayScore(app))
	api.GET("/analytics/calendar", GetCalendar(app))

	api.GET("/profile", GetProfile(app))
	api.PUT("/profile", PutProfile(app))

	api.POST("/analyze/food-image", PostAnalyzeFood(app))
	api.POST("/analyze/stool-image", PostAnalyzeStool(app))
	api.POST("/analyze/test-results", PostAnalyzeTestResults(app))

	api.POST("/coach/chat", PostCoachChat(app))
	api.POST("/rag", PostRAG(app))

	api.GET("/ws", ScoresWS(app))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, response.NotFound("Route not found"))
	})
	return r
}
