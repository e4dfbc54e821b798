package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/mkraev/veloshop/internal/config"
	"github.com/mkraev/veloshop/internal/repo"
	"github.com/mkraev/veloshop/internal/service"
)

type serverEnv struct {
	e    *echo.Echo
	repo *repo.GormRepo
	svc  struct {
		auth     *service.AuthService
		users    *service.UserService
		products *service.ProductService
	}
}

func newServerEnv(t *testing.T) *serverEnv {
	t.Helper()

	dir := t.TempDir()
	db, err := config.InitDB(context.Background(), filepath.Join(dir, "test.db"))
	require.NoError(t, err)

	rp := &repo.GormRepo{DB: db}
	jwtSecret := []byte("test-jwt-secret")

	auth := &service.AuthService{Repo: rp, JWTSecret: jwtSecret, RefreshSecret: []byte("test-refresh-secret")}
	users := &service.UserService{Repo: rp}
	products := &service.ProductService{Repo: rp, DataDir: dir}
	categories := &service.CategoryService{Repo: rp}
	cart := &service.CartService{Repo: rp}
	discounts := &service.DiscountService{Repo: rp, DataDir: dir}
	audit := &service.AuditService{Repo: rp}

	e := echo.New()
	Register(e, &Deps{
		Auth:            &AuthHTTP{Svc: auth, Audit: audit},
		Store:           &StoreHTTP{Svc: products},
		Cart:            &CartHTTP{Svc: cart, Audit: audit},
		Discounts:       &DiscountHTTP{Svc: discounts, Audit: audit},
		AdminProducts:   &AdminProductHTTP{Svc: products, Audit: audit},
		AdminCategories: &AdminCategoryHTTP{Svc: categories, Audit: audit},
		AdminUsers:      &AdminUserHTTP{Svc: users, Audit: audit},
		AdminDiscounts:  &AdminDiscountHTTP{Svc: discounts, Audit: audit},
		AdminAudit:      &AdminAuditHTTP{Svc: audit},
		JWTSecret:       jwtSecret,
	})

	env := &serverEnv{e: e, repo: rp}
	env.svc.auth = auth
	env.svc.users = users
	env.svc.products = products
	return env
}

func (env *serverEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func (env *serverEnv) loginAs(t *testing.T, username, password string) string {
	t.Helper()

	rec := env.do(http.MethodPost, "/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.NotEmpty(t, res.AccessToken)
	return res.AccessToken
}

func TestServer_RegisterAndLogin(t *testing.T) {
	t.Parallel()

	env := newServerEnv(t)

	rec := env.do(http.MethodPost, "/auth/register", "", map[string]any{
		"username": "alice",
		"password": "Secret123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(http.MethodPost, "/auth/register", "", map[string]any{
		"username": "alice",
		"password": "Other456",
	})
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(http.MethodPost, "/auth/login", "", map[string]string{
		"username": "alice",
		"password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	token := env.loginAs(t, "alice", "Secret123")
	require.NotEmpty(t, token)
}

func TestServer_LogoutWritesAuditRow(t *testing.T) {
	t.Parallel()

	env := newServerEnv(t)
	ctx := context.Background()

	user, err := env.svc.auth.Register(ctx, service.RegisterInput{Username: "dora", Password: "Secret123"})
	require.NoError(t, err)
	token := env.loginAs(t, "dora", "Secret123")

	// signing out still requires the access token
	rec := env.do(http.MethodPost, "/auth/logout", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodPost, "/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rows, err := env.repo.GetUserActions(ctx)
	require.NoError(t, err)
	found := false
	for _, row := range rows {
		if row.Action == "logout" && row.UserID == user.ID {
			found = true
		}
	}
	require.True(t, found, "logout must land in the audit trail")
}

func TestServer_CartRequiresAuth(t *testing.T) {
	t.Parallel()

	env := newServerEnv(t)

	rec := env.do(http.MethodGet, "/cart", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodGet, "/cart", "not-a-jwt", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServer_AdminRoutesRejectNonAdmins(t *testing.T) {
	t.Parallel()

	env := newServerEnv(t)
	ctx := context.Background()

	_, err := env.svc.auth.Register(ctx, service.RegisterInput{Username: "bob", Password: "Secret123"})
	require.NoError(t, err)
	token := env.loginAs(t, "bob", "Secret123")

	rec := env.do(http.MethodGet, "/admin/users", token, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(http.MethodGet, "/admin/dashboard/stats", token, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestServer_AdminProductFlow(t *testing.T) {
	t.Parallel()

	env := newServerEnv(t)
	ctx := context.Background()

	require.NoError(t, env.svc.users.EnsureDefaultAdmin(ctx, "admin", "admin"))
	token := env.loginAs(t, "admin", "admin")

	rec := env.do(http.MethodPost, "/admin/categories", token, map[string]string{"name": "Bikes"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(http.MethodPost, "/admin/products", token, map[string]any{
		"name":  "Trek Marlin",
		"price": 499.99,
		"stock": 4,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		ID         uint   `json:"id"`
		QRCodePath string `json:"qr_code_path"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotZero(t, created.ID)

	// unlisted products never reach the public store
	rec = env.do(http.MethodGet, "/store/products", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Data []json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Empty(t, page.Data)

	rec = env.do(http.MethodDelete, "/admin/products/9999", token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_DiscountVerify(t *testing.T) {
	t.Parallel()

	env := newServerEnv(t)
	ctx := context.Background()

	require.NoError(t, env.svc.users.EnsureDefaultAdmin(ctx, "admin", "admin"))
	adminToken := env.loginAs(t, "admin", "admin")

	rec := env.do(http.MethodPost, "/admin/discounts", adminToken, map[string]any{
		"name":       "SAVE10",
		"percentage": 10,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	_, err := env.svc.auth.Register(ctx, service.RegisterInput{Username: "carol", Password: "Secret123"})
	require.NoError(t, err)
	token := env.loginAs(t, "carol", "Secret123")

	rec = env.do(http.MethodPost, "/discounts/verify", token, map[string]string{
		"payload": "DISCOUNT:SAVE10:10",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(http.MethodPost, "/discounts/verify", token, map[string]string{
		"payload": "garbage",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/discounts/verify", token, map[string]string{
		"payload": "DISCOUNT:NOPE:10",
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_HealthEndpoints(t *testing.T) {
	t.Parallel()

	env := newServerEnv(t)

	rec := env.do(http.MethodGet, "/health/live", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}
