package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/diceraja/accounts"
	"github.com/cppla/diceraja/utils"
)

const (
	// ContextAccountKey stores the authenticated *accounts.Account in Gin context.
	ContextAccountKey = "account"
	// ContextTokenKey stores the raw bearer token, used by logout.
	ContextTokenKey = "token"
	// ContextTokenClaimsKey stores the parsed *utils.Claims.
	ContextTokenClaimsKey = "token_claims"
)

const notAuthorized = "Not authorized to access this route"

// Protect ensures the request carries a valid bearer token for an existing account.
func Protect(db *gorm.DB) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString, ok := bearerToken(ctx.GetHeader("Authorization"))
		if !ok || utils.IsTokenBlacklisted(tokenString) {
			utils.Error(ctx, http.StatusUnauthorized, notAuthorized)
			ctx.Abort()
			return
		}

		claims, err := utils.ParseToken(tokenString)
		if err != nil {
			utils.Error(ctx, http.StatusUnauthorized, notAuthorized)
			ctx.Abort()
			return
		}

		repo, err := accounts.ForKind(db, accounts.KindForRole(claims.Role))
		if err != nil {
			utils.Error(ctx, http.StatusUnauthorized, notAuthorized)
			ctx.Abort()
			return
		}
		account, err := repo.Find(ctx.Request.Context(), claims.AccountID)
		if err != nil {
			if !errors.Is(err, accounts.ErrNotFound) {
				utils.Sugar.Errorw("auth account lookup failed", "id", claims.AccountID, "role", claims.Role, "err", err)
			}
			utils.Error(ctx, http.StatusUnauthorized, notAuthorized)
			ctx.Abort()
			return
		}

		ctx.Set(ContextAccountKey, account)
		ctx.Set(ContextTokenKey, tokenString)
		ctx.Set(ContextTokenClaimsKey, claims)
		ctx.Next()
	}
}

// Authorize allows only principals whose role is listed. It must run after Protect.
func Authorize(roles ...string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		account, ok := CurrentAccount(ctx)
		if !ok {
			utils.Error(ctx, http.StatusUnauthorized, notAuthorized)
			ctx.Abort()
			return
		}
		for _, r := range roles {
			if r == account.Role {
				ctx.Next()
				return
			}
		}
		utils.Error(ctx, http.StatusForbidden, fmt.Sprintf("User role %s is not authorized to access this route", account.Role))
		ctx.Abort()
	}
}

// CurrentAccount returns the principal set by Protect.
func CurrentAccount(ctx *gin.Context) (*accounts.Account, bool) {
	v, ok := ctx.Get(ContextAccountKey)
	if !ok {
		return nil, false
	}
	account, ok := v.(*accounts.Account)
	return account, ok && account != nil
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
