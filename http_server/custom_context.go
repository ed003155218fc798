package http_server

import (
	"context"
	"errors"
	"net/http"

	"github.com/danthegoodman1/fedb/comparison"
	"github.com/danthegoodman1/fedb/engine"
	"github.com/danthegoodman1/fedb/gologger"
	"github.com/danthegoodman1/fedb/ordering"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type CustomContext struct {
	echo.Context
	RequestID string
}

type ErrorResponse struct {
	Error     string
	RequestID string
}

var badRequestErrors = []error{
	engine.ErrRowShapeMismatch,
	engine.ErrMissingField,
	engine.ErrInvalidFieldType,
	engine.ErrNonUniqueIndex,
	engine.ErrUnknownDataType,
	engine.ErrInvalidSchema,
	engine.ErrNotIndexed,
	engine.ErrInvalidQuery,
	engine.ErrAlreadySet,
	engine.ErrMixedPredicates,
	engine.ErrJoinNotSupported,
	comparison.ErrUnsupportedOperator,
	ordering.ErrUnknownOrdering,
}

func CreateReqContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		reqID := uuid.NewString()
		ctx := context.WithValue(c.Request().Context(), gologger.ReqIDKey, reqID)
		ctx = logger.WithContext(ctx)
		c.SetRequest(c.Request().WithContext(ctx))
		logger := zerolog.Ctx(ctx)
		logger.UpdateContext(func(c zerolog.Context) zerolog.Context {
			return c.Str("reqID", reqID)
		})
		c.Response().Header().Set(echo.HeaderXRequestID, reqID)
		cc := &CustomContext{
			Context:   c,
			RequestID: reqID,
		}
		return next(cc)
	}
}

// Casts to custom context for the handler, so this doesn't have to be done per handler
func ccHandler(h func(*CustomContext) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		return h(c.(*CustomContext))
	}
}

func (c *CustomContext) internalErrorMessage() string {
	return "internal error, request id: " + c.RequestID
}

func (c *CustomContext) InternalError(err error, msg string) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		zerolog.Ctx(c.Request().Context()).Warn().CallerSkipFrame(1).Msg(err.Error())
	} else {
		zerolog.Ctx(c.Request().Context()).Error().CallerSkipFrame(1).Err(err).Msg(msg)
	}
	return c.String(http.StatusInternalServerError, c.internalErrorMessage())
}

// EngineError maps engine failures to client statuses, anything unrecognized
// is an internal error.
func (c *CustomContext) EngineError(err error, msg string) error {
	status := 0
	switch {
	case errors.Is(err, engine.ErrUnknownTable), errors.Is(err, engine.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	default:
		for _, target := range badRequestErrors {
			if errors.Is(err, target) {
				status = http.StatusBadRequest
				break
			}
		}
	}
	if status == 0 {
		return c.InternalError(err, msg)
	}
	zerolog.Ctx(c.Request().Context()).Debug().Err(err).Int("status", status).Msg(msg)
	return c.JSON(status, ErrorResponse{Error: err.Error(), RequestID: c.RequestID})
}
