package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal"
	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal/auth"
	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal/response"
)

// HandleError logs err with the request id and writes an error envelope.
// Server-side failures keep err out of the response body.
func HandleError(c *gin.Context, logger internal.Logger, err error, status int, msg string) {
	requestID := c.GetString("request_id")
	logger.Errorf("[request_id=%s] %s: %v", requestID, msg, err)

	detail := msg
	if err != nil && status < http.StatusInternalServerError {
		detail = msg + ": " + err.Error()
	}

	var resp response.APIResponse
	switch status {
	case http.StatusBadRequest:
		resp = response.BadRequest(detail)
	case http.StatusNotFound:
		resp = response.NotFound(detail)
	case http.StatusUnprocessableEntity:
		resp = response.Unprocessable(detail)
	case http.StatusInternalServerError:
		resp = response.InternalError(detail)
	case http.StatusBadGateway:
		resp = response.BadGateway(detail)
	case http.StatusServiceUnavailable:
		resp = response.ServiceUnavailable(detail)
	default:
		resp = response.NewAppError(status, detail)
	}
	c.JSON(status, resp)
}

func HandleSuccess(c *gin.Context, logger internal.Logger, data interface{}, meta map[string]any) {
	requestID := c.GetString("request_id")
	logger.Infof("[request_id=%s] Success", requestID)
	c.JSON(http.StatusOK, response.Success(data, meta))
}

func HandleCreated(c *gin.Context, logger internal.Logger, data interface{}) {
	requestID := c.GetString("request_id")
	logger.Infof("[request_id=%s] Created", requestID)
	c.JSON(http.StatusCreated, response.Success(data, nil))
}

func currentUser(c *gin.Context) *internal.User {
	u, _ := auth.UserFrom(c)
	return u
}

// daysParam reads ?days=; absent means def.
func daysParam(c *gin.Context, def int) (int, error) {
	raw := c.Query("days")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, strconv.ErrSyntax
	}
	return n, nil
}
