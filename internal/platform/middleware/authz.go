// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/taibuivan/cmsrest/internal/platform/apperr"
	"github.com/taibuivan/cmsrest/internal/platform/ctxutil"
	"github.com/taibuivan/cmsrest/internal/platform/respond"
	"github.com/taibuivan/cmsrest/internal/platform/sec"
)

// # Authentication

// TokenVerifier checks a bearer token issued by the external identity
// provider. [sec.TokenService] is the production implementation.
type TokenVerifier interface {
	VerifyToken(token string) (*sec.AuthClaims, error)
}

/*
Authenticate resolves the caller from the Authorization header.

Description: Requests without the header continue anonymously, which is all
the public read endpoints need. A malformed header or a token the verifier
rejects ends the request with 401.

Parameters:
  - verifier: TokenVerifier

Returns:
  - func(http.Handler) http.Handler
*/
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			header := request.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(writer, request)
				return
			}

			scheme, token, found := strings.Cut(header, " ")
			if !found || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
				respond.Error(writer, request, apperr.Unauthorized("Invalid authorization format"))
				return
			}

			claims, err := verifier.VerifyToken(strings.TrimSpace(token))
			if err != nil {
				ctxutil.GetLogger(request.Context()).Debug("token_rejected", slog.Any("error", err))
				respond.Error(writer, request, apperr.Unauthorized("Invalid or expired token"))
				return
			}

			next.ServeHTTP(writer, request.WithContext(ctxutil.WithAuthUser(request.Context(), claims)))
		})
	}
}

// # Authorization

/*
RequireRole admits callers whose role is at least the given one.

Description: Anonymous callers get 401 and callers below the threshold get
403. Mount it after [Authenticate], usually on a chi Group that holds the
mutation routes of a family.
*/
func RequireRole(required sec.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			claims := ctxutil.GetAuthUser(request.Context())
			if claims == nil {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}

			if !sec.UserRole(claims.Role).AtLeast(required) {
				ctxutil.GetLogger(request.Context()).Info("role_insufficient",
					slog.String("user_id", claims.UserID),
					slog.String("role", claims.Role),
					slog.String("required", string(required)),
				)
				respond.Error(writer, request, apperr.Forbidden("Insufficient permissions"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
