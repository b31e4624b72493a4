package echoapi

import (
	"net/http"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/classcheck/classcheck/core"
	"github.com/classcheck/classcheck/core/user"
)

const claimsContextKey = "userClaims"

type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64     `json:"orig_iat"`
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	Role         user.Role `json:"role"`
}

type authResponse struct {
	Token string    `json:"token"`
	User  user.User `json:"user"`
}

func generateToken(usr user.User, origIssuedAt int64) (string, error) {
	now := user.NowFunc()
	if origIssuedAt == 0 {
		origIssuedAt = now.Unix()
	}
	claims := Claims{
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(core.Conf.Server.JWTExpirationDelta).Unix(),
		},
		OrigIssuedAt: origIssuedAt,
		UserID:       usr.ID,
		Email:        usr.Email,
		Role:         usr.Role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(core.Conf.SecretKey)
}

func (s *server) jwtMiddleware() echo.MiddlewareFunc {
	return middleware.JWTWithConfig(middleware.JWTConfig{
		Claims:     &Claims{},
		SigningKey: core.Conf.SecretKey,
		ContextKey: claimsContextKey,
	})
}

func getContextClaims(c echo.Context) *Claims {
	token, ok := c.Get(claimsContextKey).(*jwt.Token)
	if !ok {
		return nil
	}
	claims, _ := token.Claims.(*Claims)
	return claims
}

// getContextUser loads the authenticated account from the store so revoked
// or deactivated accounts are caught on every request.
func (s *server) getContextUser(c echo.Context) (user.User, error) {
	claims := getContextClaims(c)
	if claims == nil {
		return user.User{}, echo.ErrUnauthorized
	}
	usr, err := s.UserSvc.GetByID(c.Request().Context(), claims.UserID)
	if err != nil {
		return user.User{}, echo.ErrUnauthorized
	}
	if !usr.IsActive {
		return user.User{}, echo.ErrUnauthorized
	}
	return usr, nil
}

// requireAction gates a route on the role capability check.
func (s *server) requireAction(action user.Action) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := getContextClaims(c)
			if claims == nil || !claims.Role.Can(action) {
				return echo.ErrForbidden
			}
			return next(c)
		}
	}
}

func (s *server) login(c echo.Context) error {
	var creds user.Credentials
	if err := c.Bind(&creds); err != nil {
		return err
	}
	usr, err := s.UserSvc.Authenticate(c.Request().Context(), creds)
	if err != nil {
		return err
	}
	token, err := generateToken(usr, 0)
	if err != nil {
		return err
	}
	if err := s.UserSvc.SetLastLogin(c.Request().Context(), usr); err != nil {
		s.Logger.Error("setting last login", err, usr)
	}
	return c.JSON(http.StatusOK, authResponse{Token: token, User: usr})
}

// refreshToken issues a new token while the original issue time is within
// the refresh delta.
func (s *server) refreshToken(c echo.Context) error {
	claims := getContextClaims(c)
	if claims == nil {
		return echo.ErrUnauthorized
	}
	origIat := claims.OrigIssuedAt
	refreshDeadline := origIat + int64(core.Conf.Server.JWTRefreshExpirationDelta.Seconds())
	if user.NowFunc().Unix() > refreshDeadline {
		return echo.NewHTTPError(http.StatusUnauthorized, "refresh period expired")
	}

	usr, err := s.getContextUser(c)
	if err != nil {
		return err
	}
	token, err := generateToken(usr, origIat)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, authResponse{Token: token, User: usr})
}

func (s *server) me(c echo.Context) error {
	usr, err := s.getContextUser(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, usr)
}
