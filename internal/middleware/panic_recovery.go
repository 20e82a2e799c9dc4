package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"
)

// PanicRecovery converts a panicking handler into an error so the request
// still ends with a SYSTEM_001 body from CustomHTTPErrorHandler
func PanicRecovery() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				// net/http uses this sentinel to abort the connection on purpose
				if r == http.ErrAbortHandler {
					panic(r)
				}

				slog.Error("handler panicked",
					"trace_id", GetTraceID(c),
					"panic", fmt.Sprint(r),
					"method", c.Request().Method,
					"path", c.Request().URL.Path,
					"stack", string(debug.Stack()),
				)
				err = fmt.Errorf("recovered panic: %v", r)
			}()

			return next(c)
		}
	}
}
