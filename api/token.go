package api

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/kotosiro/kotosiro/opa"
)

// bearerToken pulls the bearer credential off the Authorization header.
// Requests without one still go through, carrying an anonymous token; it is
// the policy's call whether that is enough.
func bearerToken(c echo.Context) opa.Token {
	const prefix = "Bearer "
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return opa.BearerToken(header[len(prefix):])
	}
	return opa.NoToken()
}
