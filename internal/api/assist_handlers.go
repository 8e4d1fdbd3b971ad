package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal/rag"
	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal/response"
	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal/service"
)

const analysisFailedMsg = "Failed to analyze image, please try again"

// bindImage decodes an {image, file_type} body.
func bindImage(c *gin.Context, app App) (service.Image, bool) {
	var body service.ImageRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		HandleError(c, app.Logger(), err, http.StatusBadRequest, "Invalid JSON")
		return service.Image{}, false
	}
	if err := service.ValidateImageRequest(&body); err != nil {
		HandleError(c, app.Logger(), err, http.StatusBadRequest, "Validation failed")
		return service.Image{}, false
	}
	img, err := service.DecodeImage(&body)
	if err != nil {
		HandleError(c, app.Logger(), err, http.StatusBadRequest, "Invalid image")
		return service.Image{}, false
	}
	return img, true
}

func PostAnalyzeFood(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		img, ok := bindImage(c, app)
		if !ok {
			return
		}
		res, err := app.Analyzer().AnalyzeFoodImage(c.Request.Context(), img)
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadGateway, analysisFailedMsg)
			return
		}
		HandleSuccess(c, app.Logger(), res, nil)
	}
}

func PostAnalyzeStool(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		img, ok := bindImage(c, app)
		if !ok {
			return
		}
		res, err := app.Analyzer().AnalyzeStoolImage(c.Request.Context(), img)
		var notStool *service.NotStoolError
		if errors.As(err, &notStool) {
			app.Logger().Infof("[request_id=%s] stool analysis rejected image", c.GetString("request_id"))
			c.JSON(http.StatusUnprocessableEntity, response.Unprocessable(notStool.Message))
			return
		}
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadGateway, analysisFailedMsg)
			return
		}
		HandleSuccess(c, app.Logger(), res, nil)
	}
}

func PostAnalyzeTestResults(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		img, ok := bindImage(c, app)
		if !ok {
			return
		}
		res, err := app.Analyzer().AnalyzeTestResult(c.Request.Context(), img)
		if errors.Is(err, service.ErrUnsupportedFileType) {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "Invalid file")
			return
		}
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadGateway, "Failed to analyze test results, please try again")
			return
		}
		HandleSuccess(c, app.Logger(), res, nil)
	}
}

func PostCoachChat(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)

		var body service.ChatRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "Invalid JSON")
			return
		}
		if err := service.ValidateChatRequest(&body); err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "Validation failed")
			return
		}

		res, err := app.Coach().Chat(c.Request.Context(), user, &body)
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadGateway, service.CoachErrorReply)
			return
		}
		HandleSuccess(c, app.Logger(), res, nil)
	}
}

// PostRAG relays one retrieval-service request for the caller.
func PostRAG(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)

		raw, err := io.ReadAll(c.Request.Body)
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "Invalid body")
			return
		}
		req, err := rag.Decode(raw)
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "Invalid RAG request")
			return
		}

		out, err := app.RAG().Do(c.Request.Context(), user.ID, req)
		switch {
		case errors.Is(err, rag.ErrNotConfigured):
			HandleError(c, app.Logger(), err, http.StatusServiceUnavailable, "RAG service is not configured")
			return
		case err != nil:
			HandleError(c, app.Logger(), err, http.StatusServiceUnavailable, "RAG service unavailable, please try again")
			return
		}
		HandleSuccess(c, app.Logger(), out, map[string]any{"action": req.Action()})
	}
}
