package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/condo-manager/internal/config"
	"github.com/iliyamo/condo-manager/internal/model"
	"github.com/iliyamo/condo-manager/internal/repository"
	"github.com/iliyamo/condo-manager/internal/utils"
)

// AuthAccounts is the account lookup login and refresh need.
type AuthAccounts interface {
	GetByLogin(ctx context.Context, login string) (model.Account, error)
	GetByID(ctx context.Context, id uint64) (model.Account, error)
}

// TokenStore persists hashed refresh tokens.
type TokenStore interface {
	StoreRefresh(ctx context.Context, accountID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForAccount(ctx context.Context, accountID uint64) error
}

// PasswordChanger is implemented by service.RecordService.
type PasswordChanger interface {
	ChangePassword(ctx context.Context, actor *model.Actor, verify func(hash, plain string) bool, current, next string) error
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg       config.Config
	Accounts  AuthAccounts
	Tokens    TokenStore
	Verify    utils.PasswordVerifier
	Passwords PasswordChanger
}

func NewAuthHandler(cfg config.Config, accounts AuthAccounts, tokens TokenStore, verify utils.PasswordVerifier, passwords PasswordChanger) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Accounts: accounts, Tokens: tokens, Verify: verify, Passwords: passwords}
}

// ----- DTOs -----

type loginReq struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type logoutReq struct {
	RefreshToken string `json:"refresh_token"`
}

type changePasswordReq struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type accountPart struct {
	ID         uint64     `json:"id"`
	Login      string     `json:"login"`
	Email      string     `json:"email"`
	Role       model.Role `json:"role"`
	ResidentID *uint64    `json:"resident_id,omitempty"`
}

type authResp struct {
	Account accountPart `json:"account"`
	Access  tokenPart   `json:"access"`
	Refresh tokenPart   `json:"refresh"`
}

func accountPartOf(a model.Account) accountPart {
	return accountPart{ID: a.ID, Login: a.Login, Email: a.Email, Role: a.Role, ResidentID: a.ResidentID}
}

// Login verifies the credentials and returns a new token pair.  Unknown
// logins, wrong passwords and disabled accounts all answer 401.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	a, err := h.Accounts.GetByLogin(ctx, strings.TrimSpace(req.Login))
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if err != nil {
		return respondError(c, err)
	}
	if !h.Verify(a.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if !a.Active {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "account disabled"})
	}
	return h.issue(ctx, c, a, http.StatusOK)
}

// Refresh validates a refresh token, revokes it and issues a new pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := withTimeout(c)
	defer cancel()

	accountID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
		return respondError(c, err)
	}
	a, err := h.Accounts.GetByID(ctx, accountID)
	if err != nil || !a.Active {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	return h.issue(ctx, c, a, http.StatusOK)
}

// Logout revokes the given refresh token, or every refresh token of the
// caller when none is given.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req logoutReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	if raw := strings.TrimSpace(req.RefreshToken); raw != "" {
		if err := h.Tokens.RevokeByHash(ctx, utils.HashRefreshRaw(raw)); err != nil {
			return respondError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
	a := actor(c)
	if a == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
	}
	if err := h.Tokens.RevokeAllForAccount(ctx, a.AccountID); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the caller's account together with its resident and unit.
func (h *AuthHandler) Me(c echo.Context) error {
	act := actor(c)
	ctx, cancel := withTimeout(c)
	defer cancel()

	a, err := h.Accounts.GetByID(ctx, act.AccountID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"account": accountPartOf(a),
		"unit_id": act.UnitID,
	})
}

// ChangePassword replaces the caller's password and signs out every other
// session.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req changePasswordReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	act := actor(c)
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Passwords.ChangePassword(ctx, act, h.Verify, req.CurrentPassword, req.NewPassword); err != nil {
		return respondError(c, err)
	}
	if err := h.Tokens.RevokeAllForAccount(ctx, act.AccountID); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) issue(ctx context.Context, c echo.Context, a model.Account, status int) error {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, a.ID, a.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return respondError(c, err)
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.Tokens.StoreRefresh(ctx, a.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return respondError(c, err)
	}
	return c.JSON(status, authResp{
		Account: accountPartOf(a),
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp},
	})
}
