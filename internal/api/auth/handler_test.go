package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"emsforge/internal/store"
	"emsforge/internal/subscriptions"
	"emsforge/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*store.MemoryStore, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := store.NewMemoryStore()
	h := NewHandler(st, testutil.TestConfig())

	r := gin.New()
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	return st, r
}

func postJSON(r *gin.Engine, path string, body map[string]string) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterCreatesUser(t *testing.T) {
	st, r := setup(t)

	w := postJSON(r, "/auth/register", map[string]string{
		"firstName": "Jane",
		"lastName":  "Doe",
		"email":     "Jane@Example.com",
		"password":  "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Token string `json:"token"`
		User  struct {
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "Jane Doe", resp.User.Name)
	assert.Equal(t, "jane@example.com", resp.User.Email)

	u, err := st.UserByEmail(context.Background(), "jane@example.com")
	require.NoError(t, err)
	require.NotNil(t, u.Password)
	assert.NotEqual(t, "secret123", *u.Password)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	_, r := setup(t)

	body := map[string]string{
		"firstName": "Jane", "lastName": "Doe",
		"email": "jane@example.com", "password": "secret123",
	}
	require.Equal(t, http.StatusCreated, postJSON(r, "/auth/register", body).Code)

	w := postJSON(r, "/auth/register", body)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "User already exists")
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	_, r := setup(t)

	for _, password := range []string{"short1", "justletters", "12345678"} {
		w := postJSON(r, "/auth/register", map[string]string{
			"firstName": "Jane", "lastName": "Doe",
			"email": "jane@example.com", "password": password,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code, "password %q", password)
	}
}

func TestRegisterRejectsMissingFields(t *testing.T) {
	_, r := setup(t)

	w := postJSON(r, "/auth/register", map[string]string{
		"firstName": "Jane", "email": "jane@example.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginWithValidCredentials(t *testing.T) {
	_, r := setup(t)
	postJSON(r, "/auth/register", map[string]string{
		"firstName": "Jane", "lastName": "Doe",
		"email": "jane@example.com", "password": "secret123",
	})

	w := postJSON(r, "/auth/login", map[string]string{
		"email": "jane@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "token")
}

func TestLoginWithWrongPassword(t *testing.T) {
	_, r := setup(t)
	postJSON(r, "/auth/register", map[string]string{
		"firstName": "Jane", "lastName": "Doe",
		"email": "jane@example.com", "password": "secret123",
	})

	w := postJSON(r, "/auth/login", map[string]string{
		"email": "jane@example.com", "password": "wrongpass1",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginUnknownEmail(t *testing.T) {
	_, r := setup(t)

	w := postJSON(r, "/auth/login", map[string]string{
		"email": "nobody@example.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginPasswordlessAccount(t *testing.T) {
	st, r := setup(t)

	// checkout-provisioned accounts carry no password hash
	sync := subscriptions.New(st)
	_, err := sync.Activate(context.Background(), subscriptions.Activation{
		FirstName: "Jane", LastName: "Doe",
		Email: "jane@example.com", CustomerID: "cus_1", Plan: "price_basic",
	})
	require.NoError(t, err)

	w := postJSON(r, "/auth/login", map[string]string{
		"email": "jane@example.com", "password": "anything1",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
