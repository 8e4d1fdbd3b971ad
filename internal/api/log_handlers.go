package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal/realtime"
	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal/service"
	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal/storage"
)

func PostFoodLog(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)

		var body service.FoodLogRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "Invalid JSON")
			return
		}
		if err := service.ValidateFoodLogRequest(&body); err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "Validation failed")
			return
		}

		log, err := service.CreateFoodLog(c.Request.Context(), app.Store(), user, &body)
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to save food log")
			return
		}

		app.Ingester().Submit(user.ID, service.FoodTrackEvent(log))
		pushScores(c, app, user.ID)
		HandleCreated(c, app.Logger(), log)
	}
}

func GetFoodLogs(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		days, err := daysParam(c, 0)
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "days must be a non-negative integer")
			return
		}

		logs, err := service.ListFoodLogs(c.Request.Context(), app.Store(), app.Scorer().Location(), user, days)
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to fetch food logs")
			return
		}
		HandleSuccess(c, app.Logger(), logs, map[string]any{"count": len(logs)})
	}
}

func DeleteFoodLog(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		err := app.Store().DeleteFoodLog(c.Request.Context(), user.ID, c.Param("id"))
		if errors.Is(err, storage.ErrNotFound) {
			HandleError(c, app.Logger(), err, http.StatusNotFound, "Food log not found")
			return
		}
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to delete food log")
			return
		}
		pushScores(c, app, user.ID)
		HandleSuccess(c, app.Logger(), gin.H{"id": c.Param("id"), "deleted": true}, nil)
	}
}

func PostStoolLog(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)

		var body service.StoolLogRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "Invalid JSON")
			return
		}
		if err := service.ValidateStoolLogRequest(&body); err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "Validation failed")
			return
		}

		log, err := service.CreateStoolLog(c.Request.Context(), app.Store(), user, &body)
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to save stool log")
			return
		}

		app.Ingester().Submit(user.ID, service.StoolTrackEvent(log))
		pushScores(c, app, user.ID)
		HandleCreated(c, app.Logger(), log)
	}
}

func GetStoolLogs(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		days, err := daysParam(c, 0)
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "days must be a non-negative integer")
			return
		}

		logs, err := service.ListStoolLogs(c.Request.Context(), app.Store(), app.Scorer().Location(), user, days)
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to fetch stool logs")
			return
		}
		HandleSuccess(c, app.Logger(), logs, map[string]any{"count": len(logs)})
	}
}

func DeleteStoolLog(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		err := app.Store().DeleteStoolLog(c.Request.Context(), user.ID, c.Param("id"))
		if errors.Is(err, storage.ErrNotFound) {
			HandleError(c, app.Logger(), err, http.StatusNotFound, "Stool log not found")
			return
		}
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to delete stool log")
			return
		}
		pushScores(c, app, user.ID)
		HandleSuccess(c, app.Logger(), gin.H{"id": c.Param("id"), "deleted": true}, nil)
	}
}

func GetStoolStreak(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		streak, err := service.StoolStreak(c.Request.Context(), app.Store(), app.Scorer(), user, time.Now())
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to compute streak")
			return
		}
		HandleSuccess(c, app.Logger(), streak, nil)
	}
}

// pushScores sends today's recomputed score to the user's open sessions.
func pushScores(c *gin.Context, app App, userID string) {
	if app.Hub().Sessions(userID) == 0 {
		return
	}
	score, err := service.TodayScore(c.Request.Context(), app.Store(), app.Scorer(), userID, time.Now())
	if err != nil {
		app.Logger().Warnf("[request_id=%s] recompute score for push: %v", c.GetString("request_id"), err)
		return
	}
	app.Hub().Broadcast(userID, realtime.Event{Kind: realtime.KindScoresUpdated, Score: score})
}
