package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// JSONErrorHandler renders errors that escape handlers or middleware (router,
// key auth, rate limiter) as an ErrorResponse. Internal causes are only exposed
// in dev mode.
func JSONErrorHandler(logger *logrus.Logger, devMode bool) echo.HTTPErrorHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return func(err error, c echo.Context) {
		// Don't send response if already committed
		if c.Response().Committed {
			return
		}

		resp := ErrorResponse{Code: http.StatusInternalServerError, Error: "internal server error"}
		var he *echo.HTTPError
		switch {
		case errors.As(err, &he):
			resp.Code = he.Code
			resp.Error = http.StatusText(he.Code)
			if msg, ok := he.Message.(string); ok && msg != "" {
				resp.Error = msg
			}
			if devMode && he.Internal != nil {
				resp.Details = map[string]any{"err": he.Internal.Error()}
			}
		case errors.Is(err, context.DeadlineExceeded):
			resp.Code = http.StatusGatewayTimeout
			resp.Error = "request timed out"
		default:
			if devMode {
				resp.Details = map[string]any{"err": err.Error()}
			}
		}

		if resp.Code >= http.StatusInternalServerError {
			logger.WithError(err).WithFields(logrus.Fields{
				"method": c.Request().Method,
				"path":   c.Path(),
			}).Error("request failed")
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(resp.Code)
		} else {
			err = c.JSON(resp.Code, resp)
		}
		if err != nil {
			logger.WithError(fmt.Errorf("write error response: %w", err)).Warn("failed to send error response")
		}
	}
}
