package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karstgames/savepoint/internal/api"
	"github.com/karstgames/savepoint/internal/api/apierr"
	"github.com/karstgames/savepoint/internal/api/response"
	"github.com/karstgames/savepoint/internal/factory"
	"github.com/karstgames/savepoint/internal/services/account"
	"github.com/karstgames/savepoint/internal/testutil"
)

const (
	testPassword  = "Sup3r-secret!"
	adminPassword = "Adm1n-secret!"
)

// testServer creates a test server with all dependencies
type testServer struct {
	handler http.Handler
	app     *factory.TestApp
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	app, err := factory.NewTestApp()
	require.NoError(t, err)

	router := api.NewRouter(api.RouterConfig{
		Logger:         testutil.NopLogger(),
		AccountService: app.AccountService,
		TokenService:   app.TokenService,
	})

	return &testServer{
		handler: router,
		app:     app,
	}
}

func (ts *testServer) request(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

// register creates a standard account through the API and returns its auth
// response
func (ts *testServer) register(t *testing.T, username string) response.AuthResponse {
	t.Helper()

	rr := ts.request(http.MethodPost, "/register", map[string]string{
		"username": username,
		"password": testPassword,
	}, "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var auth response.AuthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &auth))
	return auth
}

// registerAdmin bootstraps an admin directly through the service and logs it
// in through the API
func (ts *testServer) registerAdmin(t *testing.T, username string) response.AuthResponse {
	t.Helper()

	_, err := ts.app.AccountService.RegisterAdmin(t.Context(), account.Credentials{
		Username: username,
		Password: adminPassword,
	})
	require.NoError(t, err)

	rr := ts.request(http.MethodPost, "/auth", map[string]string{
		"username": username,
		"password": adminPassword,
	}, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var auth response.AuthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &auth))
	return auth
}

// upgrade runs the upgrade purchase for the given token and returns the new
// auth response
func (ts *testServer) upgrade(t *testing.T, token string) response.AuthResponse {
	t.Helper()

	rr := ts.request(http.MethodPost, "/utils/upgrade", validPayment(), token)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var auth response.AuthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &auth))
	return auth
}

func validPayment() map[string]string {
	return map[string]string{
		"first_name":  "Avery",
		"last_name":   "Karst",
		"address":     "12 Cave St, Underhill",
		"card_number": "4242424242424242",
		"cvc":         "123",
		"exp_month":   "11",
		"exp_year":    "27",
	}
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp apierr.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Error.Code
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "ok")
}

func TestRegister(t *testing.T) {
	ts := newTestServer(t)

	auth := ts.register(t, "player_one")
	assert.Equal(t, "player_one", auth.Account.Username)
	assert.Equal(t, "standard", auth.Account.Role)
	assert.NotEmpty(t, auth.Token)

	// The issued token is immediately usable
	rr := ts.request(http.MethodGet, "/utils/refresh", nil, auth.Token)
	assert.NotEqual(t, http.StatusUnauthorized, rr.Code)
}

func TestRegisterValidation(t *testing.T) {
	ts := newTestServer(t)

	cases := []struct {
		name string
		body map[string]string
		code string
	}{
		{"missing username", map[string]string{"password": testPassword}, apierr.CodeInvalidRequest},
		{"missing password", map[string]string{"username": "player_one"}, apierr.CodeInvalidRequest},
		{"weak password", map[string]string{"username": "player_one", "password": "weak"}, apierr.CodeCredentialFormat},
		{"bad username", map[string]string{"username": "x", "password": testPassword}, apierr.CodeCredentialFormat},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := ts.request(http.MethodPost, "/register", tc.body, "")
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, tc.code, errorCode(t, rr))
		})
	}
}

func TestRegisterDuplicate(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "player_one")

	rr := ts.request(http.MethodPost, "/register", map[string]string{
		"username": "player_one",
		"password": testPassword,
	}, "")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodeUsernameTaken, errorCode(t, rr))
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "player_one")

	rr := ts.request(http.MethodPost, "/auth", map[string]string{
		"username": "player_one",
		"password": testPassword,
	}, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	var auth response.AuthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &auth))
	assert.NotEmpty(t, auth.Token)
}

func TestLoginFailures(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "player_one")

	t.Run("wrong password", func(t *testing.T) {
		rr := ts.request(http.MethodPost, "/auth", map[string]string{
			"username": "player_one",
			"password": "Wrong-passw0rd",
		}, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, apierr.CodeInvalidCredentials, errorCode(t, rr))
	})

	t.Run("unknown username reports the same error", func(t *testing.T) {
		rr := ts.request(http.MethodPost, "/auth", map[string]string{
			"username": "nobody_here",
			"password": testPassword,
		}, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, apierr.CodeInvalidCredentials, errorCode(t, rr))
	})
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/utils/refresh"},
		{http.MethodPost, "/utils/update_password"},
		{http.MethodPost, "/utils/upgrade"},
		{http.MethodPost, "/utils/save"},
		{http.MethodGet, "/utils/load"},
		{http.MethodGet, "/admin/users"},
	}
	for _, p := range paths {
		t.Run(p.path+" without token", func(t *testing.T) {
			rr := ts.request(p.method, p.path, nil, "")
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
		})
		t.Run(p.path+" with garbage token", func(t *testing.T) {
			rr := ts.request(p.method, p.path, nil, "not.a.token")
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
		})
	}
}

func TestRefresh(t *testing.T) {
	ts := newTestServer(t)
	auth := ts.register(t, "player_one")

	// A fresh token has too much life left to refresh
	rr := ts.request(http.MethodGet, "/utils/refresh", nil, auth.Token)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodeTokenNotExpiring, errorCode(t, rr))

	// Within the refresh window a new token is issued
	ts.app.MockClock.Advance(15*time.Minute - 20*time.Second)
	rr = ts.request(http.MethodGet, "/utils/refresh", nil, auth.Token)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var tok response.TokenResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &tok))
	assert.NotEmpty(t, tok.Token)
	assert.NotEqual(t, auth.Token, tok.Token)

	// The refreshed token outlives the original
	ts.app.MockClock.Advance(time.Minute)
	rr = ts.request(http.MethodGet, "/utils/refresh", nil, auth.Token)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	rr = ts.request(http.MethodPost, "/utils/update_password", map[string]string{
		"current_password": testPassword,
		"new_password":     "New-passw0rd!",
	}, tok.Token)
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestChangePassword(t *testing.T) {
	ts := newTestServer(t)
	auth := ts.register(t, "player_one")

	rr := ts.request(http.MethodPost, "/utils/update_password", map[string]string{
		"current_password": testPassword,
		"new_password":     "New-passw0rd!",
	}, auth.Token)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	// Old password no longer works
	rr = ts.request(http.MethodPost, "/auth", map[string]string{
		"username": "player_one",
		"password": testPassword,
	}, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = ts.request(http.MethodPost, "/auth", map[string]string{
		"username": "player_one",
		"password": "New-passw0rd!",
	}, "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestChangePasswordWrongCurrent(t *testing.T) {
	ts := newTestServer(t)
	auth := ts.register(t, "player_one")

	rr := ts.request(http.MethodPost, "/utils/update_password", map[string]string{
		"current_password": "Wrong-passw0rd",
		"new_password":     "New-passw0rd!",
	}, auth.Token)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, apierr.CodeInvalidCredentials, errorCode(t, rr))
}

func TestUpgrade(t *testing.T) {
	ts := newTestServer(t)
	auth := ts.register(t, "player_one")

	upgraded := ts.upgrade(t, auth.Token)
	assert.Equal(t, "upgraded", upgraded.Account.Role)
	assert.NotEqual(t, auth.Token, upgraded.Token)
}

func TestUpgradeStaleTokenCannotDoubleUpgrade(t *testing.T) {
	ts := newTestServer(t)
	auth := ts.register(t, "player_one")
	ts.upgrade(t, auth.Token)

	// The original token still claims standard, but the stored role wins
	rr := ts.request(http.MethodPost, "/utils/upgrade", validPayment(), auth.Token)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodeAlreadyUpgraded, errorCode(t, rr))
}

func TestUpgradeBadPayment(t *testing.T) {
	ts := newTestServer(t)
	auth := ts.register(t, "player_one")

	payment := validPayment()
	payment["card_number"] = "not-a-card"
	rr := ts.request(http.MethodPost, "/utils/upgrade", payment, auth.Token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodePaymentFormat, errorCode(t, rr))
}

func TestSaveAndLoad(t *testing.T) {
	ts := newTestServer(t)
	auth := ts.register(t, "player_one")
	upgraded := ts.upgrade(t, auth.Token)

	rr := ts.request(http.MethodPost, "/utils/save", map[string]any{
		"slot": 1,
		"data": map[string]any{"level": 3, "hp": 42},
	}, upgraded.Token)
	assert.Equal(t, http.StatusNoContent, rr.Code, rr.Body.String())

	rr = ts.request(http.MethodGet, "/utils/load", nil, upgraded.Token)
	require.Equal(t, http.StatusOK, rr.Code)

	var data response.SaveData
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &data))
	assert.JSONEq(t, `{"level":3,"hp":42}`, string(data.SlotOne))
	assert.Nil(t, data.SlotTwo)
	require.NotNil(t, data.SavedOne)
}

func TestSaveRequiresUpgradedRole(t *testing.T) {
	ts := newTestServer(t)
	auth := ts.register(t, "player_one")

	rr := ts.request(http.MethodPost, "/utils/save", map[string]any{
		"slot": 1,
		"data": map[string]any{},
	}, auth.Token)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = ts.request(http.MethodGet, "/utils/load", nil, auth.Token)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestSaveInvalidSlot(t *testing.T) {
	ts := newTestServer(t)
	auth := ts.register(t, "player_one")
	upgraded := ts.upgrade(t, auth.Token)

	rr := ts.request(http.MethodPost, "/utils/save", map[string]any{
		"slot": 4,
		"data": map[string]any{},
	}, upgraded.Token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidSlot, errorCode(t, rr))
}

func TestAdminRoutesForbiddenForNonAdmins(t *testing.T) {
	ts := newTestServer(t)
	auth := ts.register(t, "player_one")
	upgraded := ts.upgrade(t, auth.Token)

	for _, token := range []string{auth.Token, upgraded.Token} {
		rr := ts.request(http.MethodGet, "/admin/users", nil, token)
		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Equal(t, apierr.CodeForbidden, errorCode(t, rr))
	}
}

func TestAdminCreateAdmin(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.registerAdmin(t, "head_office")

	rr := ts.request(http.MethodPost, "/admin/create_admin", map[string]string{
		"username": "second_admin",
		"password": adminPassword,
	}, admin.Token)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var acct response.Account
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &acct))
	assert.Equal(t, "admin", acct.Role)

	// The new admin can log in and immediately use save data
	rr = ts.request(http.MethodPost, "/auth", map[string]string{
		"username": "second_admin",
		"password": adminPassword,
	}, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var auth response.AuthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &auth))

	rr = ts.request(http.MethodGet, "/utils/load", nil, auth.Token)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAdminListUsers(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.registerAdmin(t, "head_office")
	ts.register(t, "player_one")
	ts.register(t, "player_two")

	rr := ts.request(http.MethodGet, "/admin/users", nil, admin.Token)
	require.Equal(t, http.StatusOK, rr.Code)

	var page response.AccountPage
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 3, page.Count)

	// Credentials never appear in listings
	assert.NotContains(t, rr.Body.String(), "password")
	assert.NotContains(t, rr.Body.String(), "hash")

	rr = ts.request(http.MethodGet, "/admin/users?page=2", nil, admin.Token)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodePageNotFound, errorCode(t, rr))

	rr = ts.request(http.MethodGet, "/admin/users?page=0", nil, admin.Token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.request(http.MethodGet, "/admin/users?page=x", nil, admin.Token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAdminGetUser(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.registerAdmin(t, "head_office")
	player := ts.register(t, "player_one")

	// By username
	rr := ts.request(http.MethodGet, "/admin/user?identifier=player_one", nil, admin.Token)
	require.Equal(t, http.StatusOK, rr.Code)
	var acct response.Account
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &acct))
	assert.Equal(t, player.Account.ID, acct.ID)

	// By id
	rr = ts.request(http.MethodGet, "/admin/user?identifier="+player.Account.ID, nil, admin.Token)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = ts.request(http.MethodGet, "/admin/user?identifier=nobody_here", nil, admin.Token)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeAccountNotFound, errorCode(t, rr))
}

func TestAdminBanUnban(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.registerAdmin(t, "head_office")
	ts.register(t, "player_one")

	rr := ts.request(http.MethodPost, "/admin/ban", map[string]string{
		"identifier": "player_one",
	}, admin.Token)
	require.Equal(t, http.StatusOK, rr.Code)

	var acct response.Account
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &acct))
	assert.True(t, acct.Banned)
	assert.NotNil(t, acct.BannedAt)

	// Banned accounts cannot log in
	rr = ts.request(http.MethodPost, "/auth", map[string]string{
		"username": "player_one",
		"password": testPassword,
	}, "")
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, apierr.CodeAccountBanned, errorCode(t, rr))

	// Double ban conflicts
	rr = ts.request(http.MethodPost, "/admin/ban", map[string]string{
		"identifier": "player_one",
	}, admin.Token)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodeAlreadyBanned, errorCode(t, rr))

	rr = ts.request(http.MethodPost, "/admin/unban", map[string]string{
		"identifier": "player_one",
	}, admin.Token)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = ts.request(http.MethodPost, "/auth", map[string]string{
		"username": "player_one",
		"password": testPassword,
	}, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = ts.request(http.MethodPost, "/admin/unban", map[string]string{
		"identifier": "player_one",
	}, admin.Token)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodeNotBanned, errorCode(t, rr))
}

func TestAdminDelete(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.registerAdmin(t, "head_office")
	ts.register(t, "player_one")

	rr := ts.request(http.MethodDelete, "/admin/delete?identifier=player_one", nil, admin.Token)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = ts.request(http.MethodGet, "/admin/user?identifier=player_one", nil, admin.Token)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	// The username can be registered again
	ts.register(t, "player_one")
}

func TestBodySizeLimit(t *testing.T) {
	ts := newTestServer(t)
	auth := ts.register(t, "player_one")
	upgraded := ts.upgrade(t, auth.Token)

	rr := ts.request(http.MethodPost, "/utils/save", map[string]any{
		"slot": 1,
		"data": map[string]string{"padding": strings.Repeat("x", 4096)},
	}, upgraded.Token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
