package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/condo-manager/internal/model"
	"github.com/iliyamo/condo-manager/internal/service"
)

type createAccountReq struct {
	Login      string  `json:"login" validate:"required,max=60"`
	Email      string  `json:"email" validate:"required,email"`
	Password   string  `json:"password" validate:"required"`
	Role       string  `json:"role" validate:"required"`
	ResidentID *uint64 `json:"resident_id"`
	Active     *bool   `json:"active"`
}

type activeReq struct {
	Active *bool `json:"active" validate:"required"`
}

func (h *RecordHandler) ListAccounts(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	list, err := h.Records.ListAccounts(ctx, actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": list})
}

// CreateAccount registers a login.  New accounts are active unless the
// request says otherwise.
func (h *RecordHandler) CreateAccount(c echo.Context) error {
	var req createAccountReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	role, err := model.ParseRole(req.Role)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error(), "field": "role"})
	}
	in := service.AccountInput{
		Login:      req.Login,
		Email:      req.Email,
		Password:   req.Password,
		Role:       role,
		ResidentID: req.ResidentID,
		Active:     req.Active == nil || *req.Active,
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	a, err := h.Records.CreateAccount(ctx, actor(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *RecordHandler) SetAccountActive(c echo.Context) error {
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	var req activeReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	a, err := h.Records.SetAccountActive(ctx, actor(c), id, *req.Active)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, a)
}
