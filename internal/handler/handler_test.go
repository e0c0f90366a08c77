package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/condo-manager/internal/config"
	"github.com/iliyamo/condo-manager/internal/middleware"
	"github.com/iliyamo/condo-manager/internal/model"
	"github.com/iliyamo/condo-manager/internal/policy"
	"github.com/iliyamo/condo-manager/internal/repository"
	"github.com/iliyamo/condo-manager/internal/service"
	"github.com/iliyamo/condo-manager/internal/utils"
)

func newEcho(act *model.Actor) *echo.Echo {
	e := echo.New()
	e.Validator = NewRequestValidator()
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if act != nil {
				middleware.SetActor(c, act)
			}
			return next(c)
		}
	})
	return e
}

func do(e *echo.Echo, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func residentActor() *model.Actor {
	rid, unit := uint64(5), uint64(2)
	return &model.Actor{AccountID: 10, Login: "ana", Role: model.RoleResident, Active: true, ResidentID: &rid, UnitID: &unit}
}

type stubBooking struct {
	Booking
	created  service.ReservationRequest
	createFn func(service.ReservationRequest) (model.Reservation, error)
	getErr   error
}

func (s *stubBooking) Create(_ context.Context, _ *model.Actor, req service.ReservationRequest) (model.Reservation, error) {
	s.created = req
	return s.createFn(req)
}

func (s *stubBooking) Get(_ context.Context, _ *model.Actor, id uint64) (model.Reservation, error) {
	return model.Reservation{ID: id}, s.getErr
}

func (s *stubBooking) Schedule(context.Context, *model.Actor, string, model.Date) ([]model.Interval, error) {
	return []model.Interval{}, nil
}

func reservationRoutes(b Booking) *echo.Echo {
	e := newEcho(residentActor())
	h := NewReservationHandler(b)
	e.POST("/v1/reservations", h.Create)
	e.GET("/v1/reservations/:id", h.Get)
	e.GET("/v1/amenities/:area/schedule", h.Schedule)
	return e
}

func TestCreateReservationPassesRequestThrough(t *testing.T) {
	b := &stubBooking{createFn: func(r service.ReservationRequest) (model.Reservation, error) {
		return model.Reservation{ID: 1, Area: r.Area, Status: model.StatusPending}, nil
	}}
	rec, body := do(reservationRoutes(b), http.MethodPost, "/v1/reservations",
		`{"area":"Pool","date":"2026-06-01","start":"10:00","end":"12:00","status":" approved "}`)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "Pool", body["area"])
	assert.Equal(t, model.MustTime("10:00"), b.created.Start)
	assert.Equal(t, "2026-06-01", b.created.Date.String())
	require.NotNil(t, b.created.Status)
	assert.Equal(t, model.StatusApproved, *b.created.Status)
}

func TestCreateReservationValidation(t *testing.T) {
	b := &stubBooking{createFn: func(service.ReservationRequest) (model.Reservation, error) {
		t.Fatal("service must not be called")
		return model.Reservation{}, nil
	}}
	e := reservationRoutes(b)

	rec, body := do(e, http.MethodPost, "/v1/reservations", `{"date":"2026-06-01","start":"10:00","end":"12:00"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "area", body["field"])

	rec, body = do(e, http.MethodPost, "/v1/reservations", `{"area":"Pool","start":"25:00"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid body", body["error"])
}

func TestCreateReservationConflict(t *testing.T) {
	b := &stubBooking{createFn: func(r service.ReservationRequest) (model.Reservation, error) {
		return model.Reservation{}, &service.SchedulingConflictError{
			Area: r.Area, Date: r.Date, Start: model.MustTime("11:00"), End: model.MustTime("13:00"), ConflictingID: 77,
		}
	}}
	rec, body := do(reservationRoutes(b), http.MethodPost, "/v1/reservations",
		`{"area":"Pool","date":"2026-06-01","start":"10:00","end":"12:00"}`)

	require.Equal(t, http.StatusConflict, rec.Code)
	conflict, ok := body["conflict"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 77, conflict["reservation_id"])
	assert.Equal(t, "11:00", conflict["start"])
	assert.Equal(t, "2026-06-01", conflict["date"])
}

func TestPathAndQueryParsing(t *testing.T) {
	e := reservationRoutes(&stubBooking{})

	rec, _ := do(e, http.MethodGet, "/v1/reservations/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec, _ = do(e, http.MethodGet, "/v1/reservations/0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec, _ = do(e, http.MethodGet, "/v1/reservations/4", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, body := do(e, http.MethodGet, "/v1/amenities/Pool/schedule?date=June", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "date", body["field"])
	rec, body = do(e, http.MethodGet, "/v1/amenities/Pool/schedule?date=2026-06-01", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Pool", body["area"])
}

func TestRespondErrorStatusCodes(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{service.ErrInvalidInterval, http.StatusBadRequest},
		{fmt.Errorf("%w: cancel reservation", policy.ErrPermissionDenied), http.StatusForbidden},
		{repository.ErrNotFound, http.StatusNotFound},
		{&repository.UniqueViolationError{Field: "login"}, http.StatusConflict},
		{service.ErrUnitHasResidents, http.StatusConflict},
		{fmt.Errorf("%w: fk", repository.ErrConflict), http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		b := &stubBooking{getErr: tc.err}
		rec, _ := do(reservationRoutes(b), http.MethodGet, "/v1/reservations/1", "")
		assert.Equal(t, tc.status, rec.Code, tc.err.Error())
	}

	b := &stubBooking{getErr: errors.New("dial tcp: secret host")}
	_, body := do(reservationRoutes(b), http.MethodGet, "/v1/reservations/1", "")
	assert.Equal(t, "internal error", body["error"])
}

// ---- auth ----

type stubAccounts struct {
	byLogin map[string]model.Account
}

func (s stubAccounts) GetByLogin(_ context.Context, login string) (model.Account, error) {
	if a, ok := s.byLogin[login]; ok {
		return a, nil
	}
	return model.Account{}, repository.ErrNotFound
}

func (s stubAccounts) GetByID(_ context.Context, id uint64) (model.Account, error) {
	for _, a := range s.byLogin {
		if a.ID == id {
			return a, nil
		}
	}
	return model.Account{}, repository.ErrNotFound
}

type stubTokens struct {
	stored  map[string]uint64
	revoked []string
	all     []uint64
}

func newStubTokens() *stubTokens { return &stubTokens{stored: map[string]uint64{}} }

func (s *stubTokens) StoreRefresh(_ context.Context, accountID uint64, hash string, _ time.Time) error {
	s.stored[hash] = accountID
	return nil
}

func (s *stubTokens) ValidateRefresh(_ context.Context, hash string) (uint64, error) {
	id, ok := s.stored[hash]
	if !ok {
		return 0, repository.ErrNotFound
	}
	return id, nil
}

func (s *stubTokens) RevokeByHash(_ context.Context, hash string) error {
	delete(s.stored, hash)
	s.revoked = append(s.revoked, hash)
	return nil
}

func (s *stubTokens) RevokeAllForAccount(_ context.Context, id uint64) error {
	s.all = append(s.all, id)
	return nil
}

func authRoutes(tokens *stubTokens, act *model.Actor) *echo.Echo {
	accounts := stubAccounts{byLogin: map[string]model.Account{
		"ana":    {ID: 10, Login: "ana", Role: model.RoleResident, Active: true, PasswordHash: "pw:secret123"},
		"gone":   {ID: 11, Login: "gone", Role: model.RoleResident, Active: false, PasswordHash: "pw:secret123"},
		"office": {ID: 1, Login: "office", Role: model.RoleAdministrator, Active: true, PasswordHash: "pw:secret123"},
	}}
	verify := func(hash, plain string) bool { return hash == "pw:"+plain }
	cfg := config.Config{JWTSecret: "test-secret", AccessTTLMin: 15, RefreshTTLDays: 7}
	h := NewAuthHandler(cfg, accounts, tokens, verify, nil)

	e := newEcho(act)
	e.POST("/v1/auth/login", h.Login)
	e.POST("/v1/auth/refresh", h.Refresh)
	e.POST("/v1/auth/logout", h.Logout)
	return e
}

func TestLogin(t *testing.T) {
	tokens := newStubTokens()
	e := authRoutes(tokens, nil)

	for _, body := range []string{
		`{"login":"nobody","password":"secret123"}`,
		`{"login":"ana","password":"wrong"}`,
		`{"login":"gone","password":"secret123"}`,
	} {
		rec, _ := do(e, http.MethodPost, "/v1/auth/login", body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, body)
	}
	assert.Empty(t, tokens.stored)

	rec, _ := do(e, http.MethodPost, "/v1/auth/login", `{"login":"office"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(e, http.MethodPost, "/v1/auth/login", `{"login":" office ","password":"secret123"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp authResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	id, role, err := utils.ParseAccessToken("test-secret", resp.Access.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)
	assert.Equal(t, model.RoleAdministrator, role)
	assert.Equal(t, uint64(1), tokens.stored[utils.HashRefreshRaw(resp.Refresh.Token)])
}

func TestRefreshRotatesToken(t *testing.T) {
	tokens := newStubTokens()
	e := authRoutes(tokens, nil)

	rec, _ := do(e, http.MethodPost, "/v1/auth/login", `{"login":"ana","password":"secret123"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var first authResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))

	rec, _ = do(e, http.MethodPost, "/v1/auth/refresh", `{"refresh_token":"`+first.Refresh.Token+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var second authResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	assert.NotEqual(t, first.Refresh.Token, second.Refresh.Token)

	// the first token was consumed by the rotation
	rec, _ = do(e, http.MethodPost, "/v1/auth/refresh", `{"refresh_token":"`+first.Refresh.Token+`"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutWithoutTokenRevokesEverySession(t *testing.T) {
	tokens := newStubTokens()
	rec, _ := do(authRoutes(tokens, residentActor()), http.MethodPost, "/v1/auth/logout", `{}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []uint64{10}, tokens.all)

	rec, _ = do(authRoutes(tokens, residentActor()), http.MethodPost, "/v1/auth/logout", `{"refresh_token":"abc"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{utils.HashRefreshRaw("abc")}, tokens.revoked)
}

func TestHealth(t *testing.T) {
	e := echo.New()
	e.GET("/healthz", Health(pinger{}))
	e.GET("/down", Health(pinger{err: errors.New("refused")}))

	rec, _ := do(e, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = do(e, http.MethodGet, "/down", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

type pinger struct{ err error }

func (p pinger) PingContext(context.Context) error { return p.err }
