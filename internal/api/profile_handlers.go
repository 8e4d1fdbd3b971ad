package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal/rag"
	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal/service"
	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal/storage"
)

func GetProfile(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		p, err := app.Store().GetHealthProfile(c.Request.Context(), user.ID)
		if errors.Is(err, storage.ErrNotFound) {
			HandleError(c, app.Logger(), err, http.StatusNotFound, "Profile not found")
			return
		}
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to load profile")
			return
		}
		HandleSuccess(c, app.Logger(), p, nil)
	}
}

func PutProfile(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)

		var body service.ProfileRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "Invalid JSON")
			return
		}
		if err := service.ValidateProfileRequest(&body); err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "Validation failed")
			return
		}

		p, err := service.SaveProfile(c.Request.Context(), app.Store(), user, &body)
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to save profile")
			return
		}

		if text := service.ProfileText(p); text != "" {
			app.Ingester().Submit(user.ID, rag.IngestHealthProfile{ProfileText: text})
		}
		HandleSuccess(c, app.Logger(), p, nil)
	}
}
