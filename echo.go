package rest

import (
	"net/http"

	goerrors "github.com/go-errors/errors"
	"github.com/karagenc/fj4echo"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/talentbridge/placement-rest/http_errors"
)

func NewEchoApp() *echo.Echo {
	app := echo.New()
	app.HideBanner = true
	app.Use(middleware.Recover())
	app.Use(middleware.CORS())
	app.Use(middleware.Secure())

	app.JSONSerializer = fj4echo.New()

	// Every rejection leaves through here with the stable JSON error body.
	// Internal errors never expose stack traces or wrapped detail to clients.
	app.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		responseError := http_errors.InternalServerError("Internal Server Error")

		switch e := err.(type) {
		case *http_errors.ErrorResponse:
			responseError = e
		case *echo.HTTPError:
			message := http.StatusText(e.Code)
			if msg, ok := e.Message.(string); ok {
				message = msg
			}
			responseError = http_errors.NewErrorResponse(e.Code, message)
		case *goerrors.Error:
			// Wrapped internal error: keep the body generic.
		default:
		}

		if sendErr := c.JSON(responseError.Code, responseError); sendErr != nil {
			c.Logger().Error(sendErr)
		}
	}

	return app
}
