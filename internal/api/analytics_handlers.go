package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal/scoring"
	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal/service"
)

func GetScores(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		days, err := daysParam(c, 7)
		if err != nil || !scoring.ValidWindow(days) {
			HandleError(c, app.Logger(), scoring.ErrInvalidWindow, http.StatusBadRequest, "Invalid days")
			return
		}

		dash, err := service.BuildDashboard(c.Request.Context(), app.Store(), app.Scorer(), user, days, time.Now())
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to compute scores")
			return
		}
		HandleSuccess(c, app.Logger(), dash, nil)
	}
}

func GetDayScore(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if _, err := time.Parse(scoring.DateLayout, c.Param("date")); err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}

		score, err := service.ScoreDay(c.Request.Context(), app.Store(), app.Scorer(), user, c.Param("date"))
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to score day")
			return
		}
		HandleSuccess(c, app.Logger(), score, nil)
	}
}

func GetCalendar(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		month := c.Query("month")
		if month == "" {
			month = time.Now().In(app.Scorer().Location()).Format("2006-01")
		}
		if _, _, err := scoring.ParseMonth(month); err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "month must be YYYY-MM")
			return
		}

		activity, err := service.Calendar(c.Request.Context(), app.Store(), app.Scorer(), user, month)
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to build calendar")
			return
		}
		HandleSuccess(c, app.Logger(), activity, nil)
	}
}
