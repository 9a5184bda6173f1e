package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/mitra-laporan-api/internal/models"
	appErrors "github.com/noah-isme/mitra-laporan-api/pkg/errors"
)

type tokenStub map[string]*models.JWTClaims

func (s tokenStub) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := s[token]; ok {
		return claims, nil
	}
	return nil, appErrors.Wrap(errors.New("bad signature"), appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
}

type observerStub struct {
	path   string
	status int
}

func (o *observerStub) ObserveHTTPRequest(_, path string, status int, _ time.Duration) {
	o.path, o.status = path, status
}

func newRouter(middlewares ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middlewares...)
	return r
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error.Code
}

func TestJWTAndRequireRoles(t *testing.T) {
	tokens := tokenStub{
		"admin": {UserID: "a", Role: models.RoleAdmin},
		"mitra": {UserID: "m", Role: models.RoleMitra, PartnerName: "Acme"},
	}
	r := newRouter(JWT(tokens))
	r.POST("/mitra", RequireRoles(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusCreated) })

	cases := []struct {
		name   string
		header string
		status int
		code   string
	}{
		{"missing header", "", http.StatusUnauthorized, appErrors.ErrUnauthorized.Code},
		{"wrong scheme", "Basic admin", http.StatusUnauthorized, appErrors.ErrUnauthorized.Code},
		{"invalid token", "Bearer nope", http.StatusUnauthorized, appErrors.ErrUnauthorized.Code},
		{"role not allowed", "Bearer mitra", http.StatusForbidden, appErrors.ErrForbidden.Code},
		{"allowed", "Bearer admin", http.StatusCreated, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/mitra", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			require.Equal(t, tc.status, w.Code)
			if tc.code != "" {
				assert.Equal(t, tc.code, errorCode(t, w))
			}
		})
	}
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	obs := &observerStub{}
	r := newRouter(Metrics(obs))
	r.GET("/laporan/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/laporan/abc", nil))
	assert.Equal(t, "/laporan/:id", obs.path)
	assert.Equal(t, http.StatusOK, obs.status)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.Equal(t, "unmatched", obs.path)
	assert.Equal(t, http.StatusNotFound, obs.status)
}

func TestTimeoutSetsDeadline(t *testing.T) {
	r := newRouter(Timeout(time.Second))
	var deadline time.Time
	var ok bool
	r.GET("/", func(c *gin.Context) {
		deadline, ok = c.Request.Context().Deadline()
		c.Status(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Second), deadline, time.Second)
}

func TestResponseMeta(t *testing.T) {
	r := newRouter(WithResponseMeta())
	var meta map[string]interface{}
	r.GET("/", func(c *gin.Context) {
		SetMeta(c, "attachments", 2)
		meta = ExtractMeta(c)
		c.Status(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, 2, meta["attachments"])
	assert.Contains(t, meta, "processing_time_ms")
}

func TestAuditLogsOnlySuccessfulMutations(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := newRouter(func(c *gin.Context) {
		c.Set(ContextUserKey, &models.JWTClaims{UserID: "m", Role: models.RoleMitra, PartnerName: "Acme"})
	})
	r.POST("/ok", Audit(zap.New(core), "create", "laporan"), func(c *gin.Context) { c.Status(http.StatusCreated) })
	r.POST("/bad", Audit(zap.New(core), "create", "laporan"), func(c *gin.Context) { c.Status(http.StatusBadRequest) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/bad", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/ok", nil))

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "laporan", fields["resource"])
	assert.Equal(t, "Acme", fields["partner"])
}

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc":    "abc",
		"bearer  abc  ": "abc",
		"BEARER x.y.z":  "x.y.z",
	}
	for header, want := range cases {
		got, err := bearerToken(header)
		require.NoError(t, err, header)
		assert.Equal(t, want, got)
	}

	for _, header := range []string{"", "Bearer", "Bearer   ", "Basic abc", "Bearerabc"} {
		_, err := bearerToken(header)
		assert.ErrorIs(t, err, appErrors.ErrUnauthorized, header)
	}
}
