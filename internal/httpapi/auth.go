package httpapi

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// login issues a short-lived owner-role JWT for the single configured
// admin credential. SeatGrid has no user registration or self-service
// surface in scope; event creation only needs *an* authenticated owner
// identity to gate against, so this replaces the teacher's full
// user/token persistence layer with the minimum needed to exercise
// internal/middleware's JWTAuth/RequireRole.
func (h *handlers) login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.Username == "" || req.Username != h.deps.AdminUser || req.Password != h.deps.AdminPass {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	claims := jwt.MapClaims{
		"sub":  req.Username,
		"role": "owner",
		"exp":  time.Now().Add(time.Hour).Unix(),
		"iat":  time.Now().Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte(h.deps.JWTSecret))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to sign token"})
	}
	return c.JSON(http.StatusOK, echo.Map{"access_token": signed})
}
