package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/CandorWorks/LinkBridge/backend/internal/api/middleware"
	"github.com/CandorWorks/LinkBridge/backend/internal/domain/account"
	"github.com/CandorWorks/LinkBridge/backend/internal/domain/proxy"
	"github.com/CandorWorks/LinkBridge/backend/internal/domain/session"
	"github.com/CandorWorks/LinkBridge/backend/internal/infrastructure/config"
	"github.com/CandorWorks/LinkBridge/backend/internal/infrastructure/logging"
	"github.com/CandorWorks/LinkBridge/backend/internal/linkedin"
)

const voyagerReactionsBody = `{
  "elements": [
    {"reactionType": "LIKE", "actorUrn": "urn:li:fsd_profile:AAA"},
    {"reactionType": "PRAISE", "actorUrn": "urn:li:fsd_profile:BBB"}
  ],
  "included": [
    {"entityUrn": "urn:li:fsd_profile:AAA", "firstName": "Ada", "lastName": "Lovelace"}
  ],
  "paging": {"start": 0, "count": 10, "total": 2}
}`

// voyagerTransport plays the extension: every proxied call is answered from
// canned bodies keyed by envelope kind.
type voyagerTransport struct {
	dispatcher *proxy.Dispatcher
	httpBody   string
	statusCode int
}

func (t *voyagerTransport) WriteEnvelope(env proxy.Envelope) error {
	go func() {
		switch env.Kind {
		case proxy.KindHTTPExecute:
			reply, _ := proxy.NewEnvelope(proxy.KindHTTPResult, env.CorrelationID, map[string]any{
				"status_code": t.statusCode,
				"body":        t.httpBody,
			})
			t.dispatcher.Ingest(reply)
		case proxy.KindSessionRefresh:
			reply, _ := proxy.NewEnvelope(proxy.KindSessionState, env.CorrelationID, map[string]any{
				"cookies": map[string]string{"li_at": "tok", "JSESSIONID": `"csrf"`},
			})
			t.dispatcher.Ingest(reply)
		}
	}()
	return nil
}

type fixture struct {
	router     *gin.Engine
	registry   *proxy.Registry
	sessions   *session.Manager
	dispatcher *proxy.Dispatcher
	transport  *voyagerTransport
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := &logging.Logger{Logger: zap.NewNop()}

	registry := proxy.NewRegistry(logger)
	dispatcher := proxy.NewDispatcher(registry, logger)
	sessions, err := session.NewManager(nil, logger)
	require.NoError(t, err)

	store := account.NewStore(logger)
	require.NoError(t, store.Add(account.Account{
		ID:         "acct_test",
		Name:       "test",
		APIKey:     "key_http",
		InstanceID: "chrome-1",
	}))

	pacing := config.PacingConfig{MinDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, HardCap: 1000}
	service := linkedin.NewService("https://www.linkedin.com", pacing, logger)
	handlers := NewHandlers(registry, dispatcher, sessions, service, nil,
		config.ProxyConfig{CallTimeout: 2 * time.Second}, logger)

	r := gin.New()
	r.GET("/health", handlers.Health)
	r.GET("/instances/:id", handlers.GetInstance)
	auth := r.Group("/", middleware.Auth(store))
	auth.POST("/linkedin/reactions", handlers.FetchReactions)
	auth.POST("/linkedin/post", handlers.FetchPost)
	auth.POST("/linkedin/request", handlers.Execute)
	auth.POST("/session/refresh", handlers.RefreshSession)
	auth.PUT("/session", handlers.PutSession)

	f := &fixture{router: r, registry: registry, sessions: sessions, dispatcher: dispatcher}
	f.connect(t, dispatcher, voyagerReactionsBody, 200)
	return f
}

func (f *fixture) connect(t *testing.T, d *proxy.Dispatcher, body string, status int) {
	t.Helper()
	f.transport = &voyagerTransport{dispatcher: d, httpBody: body, statusCode: status}
	f.registry.Register("chrome-1", f.transport)
}

func (f *fixture) disconnect() {
	f.registry.Unregister("chrome-1", f.transport)
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.APIKeyHeader, "key_http")
	f.router.ServeHTTP(w, req)
	return w
}

func TestFetchReactionsProxied(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/linkedin/reactions", `{"urn": "urn:li:activity:7210001", "count": 2}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":2`)
	assert.Contains(t, w.Body.String(), "Ada")
	assert.Contains(t, w.Body.String(), "target_reached")
}

func TestFetchReactionsInstanceDown(t *testing.T) {
	f := newFixture(t)
	f.disconnect()

	w := f.do(http.MethodPost, "/linkedin/reactions", `{"urn": "urn:li:activity:7210001", "count": 2}`)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestFetchReactionsMissingURN(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/linkedin/reactions", `{"count": 2}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFetchDirectWithoutSession(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/linkedin/reactions", `{"urn": "urn:li:activity:7210001", "count": 2, "use_proxy": false}`)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "no cached session")
}

func TestRefreshSessionStoresCookies(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/session/refresh", "")
	require.Equal(t, http.StatusOK, w.Code)

	sess, ok := f.sessions.Get("acct_test")
	require.True(t, ok)
	assert.Equal(t, "tok", sess.Cookies["li_at"])
	assert.Equal(t, "csrf", sess.CSRFToken)
}

func TestPutSession(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPut, "/session", `{"cookies": {"li_at": "manual"}}`)
	require.Equal(t, http.StatusOK, w.Code)

	sess, ok := f.sessions.Get("acct_test")
	require.True(t, ok)
	assert.Equal(t, "manual", sess.Cookies["li_at"])
}

func TestPutSessionRejectsEmpty(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPut, "/session", `{"cookies": {}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

const permalinkPage = `<html>
<head><meta property="og:title" content="Ada on LinkedIn" /></head>
<body><article><p class="attributed-text-segment-list__content">Shipping day.</p></article></body>
</html>`

func TestFetchPostProxied(t *testing.T) {
	f := newFixture(t)
	// The extension fetches the public permalink and hands back its HTML.
	f.connect(t, f.dispatcher, permalinkPage, 200)

	w := f.do(http.MethodPost, "/linkedin/post", `{"urn": "urn:li:activity:7210002"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Shipping day.")
	assert.Contains(t, w.Body.String(), "Ada on LinkedIn")
}

func TestFetchPostInstanceDown(t *testing.T) {
	f := newFixture(t)
	f.disconnect()

	w := f.do(http.MethodPost, "/linkedin/post", `{"urn": "urn:li:activity:7210002"}`)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestFetchPostMissingURN(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/linkedin/post", `{}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExecuteRejectsPlainHTTP(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/linkedin/request", `{"url": "http://insecure.example"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "https")
}

func TestExecuteProxied(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/linkedin/request", `{"url": "https://www.linkedin.com/voyager/api/me"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status_code":200`)
}

func TestGetInstanceNotConnected(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/instances/chrome-404", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"connected":false`)
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"instances":1`)
}

func TestAuthRequired(t *testing.T) {
	f := newFixture(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/linkedin/reactions", strings.NewReader(`{"urn": "x"}`))
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
