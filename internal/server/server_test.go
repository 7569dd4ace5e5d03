package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/villadesk/internal/actor"
	"github.com/smallbiznis/villadesk/internal/apperror"
	authdomain "github.com/smallbiznis/villadesk/internal/auth/domain"
	"github.com/smallbiznis/villadesk/internal/auth/session"
	"github.com/smallbiznis/villadesk/internal/authorization"
	categorydomain "github.com/smallbiznis/villadesk/internal/category/domain"
	categoryrepo "github.com/smallbiznis/villadesk/internal/category/repository"
	categoryservice "github.com/smallbiznis/villadesk/internal/category/service"
	"github.com/smallbiznis/villadesk/internal/clock"
	"github.com/smallbiznis/villadesk/internal/config"
	customerdomain "github.com/smallbiznis/villadesk/internal/customer/domain"
	templatedomain "github.com/smallbiznis/villadesk/internal/invoicetemplate/domain"
	templaterepo "github.com/smallbiznis/villadesk/internal/invoicetemplate/repository"
	templateservice "github.com/smallbiznis/villadesk/internal/invoicetemplate/service"
	"github.com/smallbiznis/villadesk/internal/receipt"
	reservationdomain "github.com/smallbiznis/villadesk/internal/reservation/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeAuthService struct {
	users    map[string]*authdomain.User
	password string
}

func newFakeAuthService() *fakeAuthService {
	return &fakeAuthService{
		users: map[string]*authdomain.User{
			"admin-token":    {ID: 1, Username: "admin", Role: actor.RoleAdmin, IsActive: true},
			"employee-token": {ID: 2, Username: "maria", Role: actor.RoleEmployee, IsActive: true},
		},
		password: "correct-password",
	}
}

func (f *fakeAuthService) Login(ctx context.Context, req authdomain.LoginRequest) (*authdomain.LoginResult, error) {
	if req.Username != "admin" || req.Password != f.password {
		return nil, authdomain.ErrInvalidCredentials
	}
	return &authdomain.LoginResult{
		User:      f.users["admin-token"],
		RawToken:  "admin-token",
		ExpiresAt: time.Now().Add(time.Hour),
		SessionID: snowflake.ID(300),
	}, nil
}

func (f *fakeAuthService) Logout(ctx context.Context, rawToken string) error {
	delete(f.users, rawToken)
	return nil
}

func (f *fakeAuthService) Authenticate(ctx context.Context, rawToken string) (*authdomain.User, error) {
	user, ok := f.users[rawToken]
	if !ok {
		return nil, authdomain.ErrInvalidSession
	}
	return user, nil
}

func (f *fakeAuthService) CurrentUser(ctx context.Context) (*authdomain.User, error) {
	act, ok := actor.FromContext(ctx)
	if !ok {
		return nil, authdomain.ErrInvalidSession
	}
	for _, user := range f.users {
		if user.ID == act.UserID {
			return user, nil
		}
	}
	return nil, authdomain.ErrUserNotFound
}

func (f *fakeAuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	return nil
}

func (f *fakeAuthService) CreateUser(ctx context.Context, req authdomain.CreateUserRequest) (*authdomain.User, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeAuthService) ListUsers(ctx context.Context) ([]authdomain.User, error) {
	if err := actor.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	users := make([]authdomain.User, 0, len(f.users))
	for _, user := range f.users {
		users = append(users, *user)
	}
	return users, nil
}

func (f *fakeAuthService) GetUser(ctx context.Context, id string) (*authdomain.User, error) {
	return nil, authdomain.ErrUserNotFound
}

func (f *fakeAuthService) UpdateUser(ctx context.Context, id string, req authdomain.UpdateUserRequest) (*authdomain.User, error) {
	return nil, authdomain.ErrUserNotFound
}

func (f *fakeAuthService) DeleteUser(ctx context.Context, id string) error {
	return authdomain.ErrUserNotFound
}

func (f *fakeAuthService) ToggleStatus(ctx context.Context, id string) (*authdomain.User, error) {
	return nil, authdomain.ErrUserNotFound
}

type fakeCustomerService struct {
	created []customerdomain.CreateCustomerRequest
	byID    map[string]customerdomain.Customer
}

func (f *fakeCustomerService) Create(ctx context.Context, req customerdomain.CreateCustomerRequest) (customerdomain.Customer, error) {
	if req.Name == "" {
		return customerdomain.Customer{}, customerdomain.ErrInvalidName
	}
	f.created = append(f.created, req)
	return customerdomain.Customer{ID: 77, Name: req.Name, Phone: req.Phone}, nil
}

func (f *fakeCustomerService) List(ctx context.Context, req customerdomain.ListCustomerRequest) ([]customerdomain.Customer, error) {
	return nil, nil
}

func (f *fakeCustomerService) GetByID(ctx context.Context, id string) (customerdomain.Customer, error) {
	customer, ok := f.byID[id]
	if !ok {
		return customerdomain.Customer{}, customerdomain.ErrNotFound
	}
	return customer, nil
}

func (f *fakeCustomerService) Delete(ctx context.Context, id string) error {
	return nil
}

func (f *fakeCustomerService) Lookup(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]customerdomain.Customer, error) {
	return nil, nil
}

type fakeReservationService struct {
	byID map[string]reservationdomain.Reservation
}

func (f *fakeReservationService) Create(ctx context.Context, req reservationdomain.CreateRequest) (reservationdomain.Reservation, error) {
	return reservationdomain.Reservation{}, errors.New("not implemented")
}

func (f *fakeReservationService) Get(ctx context.Context, id string) (reservationdomain.Reservation, error) {
	res, ok := f.byID[id]
	if !ok {
		return reservationdomain.Reservation{}, reservationdomain.ErrNotFound
	}
	return res, nil
}

func (f *fakeReservationService) List(ctx context.Context, req reservationdomain.ListRequest) ([]reservationdomain.Reservation, error) {
	return nil, nil
}

func (f *fakeReservationService) Update(ctx context.Context, id string, req reservationdomain.UpdateRequest) (reservationdomain.Reservation, error) {
	return reservationdomain.Reservation{}, errors.New("not implemented")
}

func (f *fakeReservationService) Delete(ctx context.Context, id string) error {
	if err := actor.RequireAdmin(ctx); err != nil {
		return err
	}
	return nil
}

func (f *fakeReservationService) ReconcilePayouts(ctx context.Context) (reservationdomain.ReconcileResult, error) {
	return reservationdomain.ReconcileResult{Scanned: 3, PayoutsCreated: 1}, nil
}

type testServer struct {
	router       *gin.Engine
	auth         *fakeAuthService
	customers    *fakeCustomerService
	reservations *fakeReservationService
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	binding.EnableDecoderDisallowUnknownFields = true

	dsn := fmt.Sprintf("file:server_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	enforcer, err := authorization.NewEnforcer(db)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&categorydomain.VillaCategory{},
		&categorydomain.ExpenseCategory{},
		&templatedomain.Template{},
		&templatedomain.Logo{},
	))
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	templates := templateservice.New(templateservice.Params{
		DB: db, Log: zap.NewNop(), Clock: clock.SystemClock{}, Repo: templaterepo.Provide(),
	})

	auth := newFakeAuthService()
	customers := &fakeCustomerService{byID: map[string]customerdomain.Customer{
		"77": {ID: 77, Name: "Ana Pérez", Phone: "809-555-0101"},
	}}
	reservations := &fakeReservationService{byID: map[string]reservationdomain.Reservation{
		"500": {
			ID:            500,
			InvoiceNumber: "1600",
			CustomerID:    77,
			CustomerName:  "Ana Pérez",
			VillaCode:     "ABC123",
			Guests:        8,
			BasePrice:     decimal.NewFromInt(10000),
			Subtotal:      decimal.NewFromInt(10000),
			TotalAmount:   decimal.NewFromInt(10000),
			AmountPaid:    decimal.NewFromInt(2000),
			BalanceDue:    decimal.NewFromInt(8000),
			Currency:      "DOP",
			PaymentMethod: "cash",
		},
	}}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	srv := &Server{
		engine:         router,
		log:            zap.NewNop(),
		sessions:       session.NewManager(config.Config{}),
		authsvc:        auth,
		authzSvc:       authorization.NewService(authorization.Params{Log: zap.NewNop(), Enforcer: enforcer}),
		customerSvc:    customers,
		reservationSvc: reservations,
		receiptSvc: receipt.NewService(receipt.Params{
			Log:          zap.NewNop(),
			Clock:        clock.SystemClock{},
			Renderer:     receipt.NewRenderer(),
			Reservations: reservations,
			Customers:    customers,
			Templates:    templates,
		}),
		categorySvc: categoryservice.New(categoryservice.Params{
			DB: db, Log: zap.NewNop(), GenID: node, Clock: clock.SystemClock{}, Repo: categoryrepo.Provide(),
		}),
		templateSvc: templates,
	}
	srv.registerAuthRoutes()
	srv.registerAPIRoutes()
	srv.registerAdminRoutes()

	return testServer{router: router, auth: auth, customers: customers, reservations: reservations}
}

func (ts testServer) do(method, path, token, body string) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.AddCookie(&http.Cookie{Name: session.DefaultCookieName, Value: token})
	}
	resp := httptest.NewRecorder()
	ts.router.ServeHTTP(resp, req)
	return resp
}

func TestMapErrorStatuses(t *testing.T) {
	cases := []struct {
		err    error
		status int
		kind   string
	}{
		{apperror.Invalid("amount", "invalid_amount", "bad"), http.StatusBadRequest, "validation_error"},
		{authdomain.ErrInvalidCredentials, http.StatusUnauthorized, "unauthorized"},
		{actor.ErrAdminRequired, http.StatusForbidden, "forbidden"},
		{reservationdomain.ErrNotFound, http.StatusNotFound, "not_found"},
		{apperror.Conflict("invoice_number_taken", "taken"), http.StatusConflict, "conflict"},
		{apperror.Exhausted(1600, 100), http.StatusServiceUnavailable, "sequence_exhausted"},
		{fmt.Errorf("create reservation: %w", reservationdomain.ErrNotFound), http.StatusNotFound, "not_found"},
		{ErrRateLimited, http.StatusTooManyRequests, "rate_limited"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		status, payload := mapError(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.Equal(t, tc.kind, payload.Type, tc.err.Error())
	}

	_, payload := mapError(errors.New("pq: connection refused"))
	assert.Equal(t, "internal server error", payload.Message)
}

func TestLoginSetsSessionCookie(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(http.MethodPost, "/auth/login", "", `{"username":"admin","password":"correct-password"}`)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var sid *http.Cookie
	for _, cookie := range resp.Result().Cookies() {
		if cookie.Name == session.DefaultCookieName {
			sid = cookie
		}
	}
	require.NotNil(t, sid)
	assert.Equal(t, "admin-token", sid.Value)
	assert.True(t, sid.HttpOnly)

	resp = ts.do(http.MethodPost, "/auth/login", "", `{"username":"admin","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestMeRequiresSession(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(http.MethodGet, "/auth/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.do(http.MethodGet, "/auth/me", "stale-token", "")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.do(http.MethodGet, "/auth/me", "employee-token", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"username":"maria"`)
}

func TestLogoutRevokesSession(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(http.MethodPost, "/auth/logout", "admin-token", "")
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = ts.do(http.MethodGet, "/api/customers/77", "admin-token", "")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestCreateCustomerRejectsUnknownFields(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(http.MethodPost, "/api/customers", "employee-token", `{"name":"Luis","phone":"809","loyalty":"gold"}`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Empty(t, ts.customers.created)

	resp = ts.do(http.MethodPost, "/api/customers", "employee-token", `{"name":"Luis","phone":"809"}`)
	assert.Equal(t, http.StatusCreated, resp.Code)
	assert.Len(t, ts.customers.created, 1)
}

func TestValidationErrorBody(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(http.MethodPost, "/api/customers", "admin-token", `{"phone":"809"}`)
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), `"type":"validation_error"`)
	assert.Contains(t, resp.Body.String(), `"field":"name"`)
}

func TestEmployeeCannotDeleteReservation(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(http.MethodDelete, "/api/reservations/500", "employee-token", "")
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = ts.do(http.MethodDelete, "/api/reservations/500", "admin-token", "")
	assert.Equal(t, http.StatusNoContent, resp.Code)
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(http.MethodGet, "/api/admin/users", "employee-token", "")
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = ts.do(http.MethodPost, "/api/admin/reconcile/payouts", "employee-token", "")
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = ts.do(http.MethodPost, "/api/admin/reconcile/payouts", "admin-token", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"payouts_created":1`)
}

func TestReservationInvoicePDF(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(http.MethodGet, "/api/reservations/500/invoice", "employee-token", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "application/pdf", resp.Header().Get("Content-Type"))
	assert.Contains(t, resp.Header().Get("Content-Disposition"), "factura-1600.pdf")
	assert.True(t, bytes.HasPrefix(resp.Body.Bytes(), []byte("%PDF")))

	resp = ts.do(http.MethodGet, "/api/reservations/999/invoice", "employee-token", "")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestCategoryRoutes(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(http.MethodPost, "/api/categories", "employee-token", `{"name":"Premium"}`)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = ts.do(http.MethodPost, "/api/categories", "admin-token", `{"name":"Premium"}`)
	require.Equal(t, http.StatusCreated, resp.Code)
	resp = ts.do(http.MethodPost, "/api/expense-categories", "admin-token", `{"name":"Luz"}`)
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = ts.do(http.MethodGet, "/api/categories", "employee-token", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"name":"Premium"`)
	assert.NotContains(t, resp.Body.String(), `"name":"Luz"`)

	resp = ts.do(http.MethodPost, "/api/categories", "admin-token", `{"name":"premium"}`)
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestInvoiceLayoutRoutes(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(http.MethodGet, "/api/config/invoice-template", "employee-token", "")
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = ts.do(http.MethodPut, "/api/config/invoice-template", "admin-token", `{"show_deposit":false,"footer_note":"Vuelva pronto"}`)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"show_deposit":false`)

	resp = ts.do(http.MethodGet, "/api/config/invoice-template", "admin-token", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"footer_note":"Vuelva pronto"`)

	resp = ts.do(http.MethodPost, "/api/config/invoice-template/reset", "admin-token", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"show_deposit":true`)

	resp = ts.do(http.MethodGet, "/api/config/logo", "employee-token", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"logo_data":null`)

	resp = ts.do(http.MethodDelete, "/api/config/logo", "employee-token", "")
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = ts.do(http.MethodGet, "/api/reservations/500/invoice", "employee-token", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, bytes.HasPrefix(resp.Body.Bytes(), []byte("%PDF")))
}
