package auth

import (
	"net/http"
	"time"

	"classroom/backend/foundation/web"
	"classroom/backend/internal/auth"
	"classroom/backend/internal/repository/postgres/user"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

const (
	accessTokenTTL  = 2 * time.Hour
	refreshTokenTTL = 72 * time.Hour
)

type Controller struct {
	user User
	auth *auth.Auth
}

func NewController(user User, authenticator *auth.Auth) *Controller {
	return &Controller{user: user, auth: authenticator}
}

func (uc Controller) SignIn(c *web.Context) error {
	var data user.SignInRequest

	err := c.BindFunc(&data, "Username", "Password")
	if err != nil {
		return c.RespondError(err)
	}

	detail, err := uc.user.GetByUsername(c.Ctx, data.Username)
	if err != nil {
		return c.RespondError(err)
	}

	if err = bcrypt.CompareHashAndPassword([]byte(detail.Password), []byte(data.Password)); err != nil {
		return c.RespondError(web.NewRequestError(errors.New("incorrect username or password"), http.StatusBadRequest))
	}

	accessToken, err := uc.auth.GenerateToken(detail.ID, detail.Role, accessTokenTTL)
	if err != nil {
		return c.RespondError(err)
	}
	refreshToken, err := uc.auth.GenerateToken(detail.ID, detail.Role, refreshTokenTTL)
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"status": true,
		"data": map[string]string{
			"access_token":  accessToken,
			"refresh_token": refreshToken,
		},
		"error": nil,
	}, http.StatusOK)
}

func (uc Controller) RefreshToken(c *web.Context) error {
	var data user.RefreshTokenRequest

	err := c.BindFunc(&data, "RefreshToken")
	if err != nil {
		return c.RespondError(err)
	}

	claims, err := uc.auth.ValidateToken(data.RefreshToken)
	if err != nil {
		return c.RespondError(web.NewRequestError(err, http.StatusUnauthorized))
	}

	// Re-check the user still exists before reissuing.
	detail, err := uc.user.GetById(c.Ctx, claims.UserId)
	if err != nil {
		return c.RespondError(err)
	}

	accessToken, err := uc.auth.GenerateToken(detail.ID, detail.Role, accessTokenTTL)
	if err != nil {
		return c.RespondError(err)
	}
	refreshToken, err := uc.auth.GenerateToken(detail.ID, detail.Role, refreshTokenTTL)
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"status": true,
		"data": map[string]string{
			"access_token":  accessToken,
			"refresh_token": refreshToken,
		},
		"error": nil,
	}, http.StatusOK)
}
