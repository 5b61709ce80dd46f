package controllers

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	pkgAuth "github.com/angelmondragon/storefront/pkg/auth"
	"github.com/angelmondragon/storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// stubSubject is the only account the stub knows about.
const stubSubject = "local-user"

type refreshRequest struct {
	RefreshToken  string `json:"refresh_token" validate:"required"`
	ExpiresInMins int    `json:"expiresInMins,omitempty" validate:"omitempty,min=1,max=1440"`
}

type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// AuthRefresh exchanges the configured refresh token for a fresh access token.
// Any other refresh token is rejected with 401.
func AuthRefresh(cfg config.StubConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req refreshRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if subtle.ConstantTimeCompare([]byte(req.RefreshToken), []byte(cfg.RefreshToken)) != 1 {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token"))
			return
		}

		issue := cfg
		if req.ExpiresInMins > 0 {
			issue.ExpirationMinutes = req.ExpiresInMins
		}
		token, err := pkgAuth.MintAccessToken(issue, time.Now(), pkgAuth.AccessTokenPayload{Subject: stubSubject})
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token"))
			return
		}

		logg.Info(logg.WithField(ctx, "subject", stubSubject), "auth.refresh.issued")
		responses.WriteJSON(w, http.StatusOK, refreshResponse{
			AccessToken:  token,
			Token:        token,
			RefreshToken: req.RefreshToken,
			ExpiresIn:    int(issue.AccessTTL().Seconds()),
		})
	}
}

// AuthMe echoes the authenticated subject. It sits behind middleware.Auth.
func AuthMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteJSON(w, http.StatusOK, map[string]string{
			"id":       middleware.SubjectFromContext(r.Context()),
			"token_id": middleware.TokenIDFromContext(r.Context()),
		})
	}
}
