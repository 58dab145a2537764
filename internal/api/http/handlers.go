package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/CandorWorks/LinkBridge/backend/internal/api/middleware"
	"github.com/CandorWorks/LinkBridge/backend/internal/domain/account"
	"github.com/CandorWorks/LinkBridge/backend/internal/domain/pagination"
	"github.com/CandorWorks/LinkBridge/backend/internal/domain/proxy"
	"github.com/CandorWorks/LinkBridge/backend/internal/domain/session"
	"github.com/CandorWorks/LinkBridge/backend/internal/infrastructure/config"
	"github.com/CandorWorks/LinkBridge/backend/internal/infrastructure/logging"
	"github.com/CandorWorks/LinkBridge/backend/internal/linkedin"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	registry    *proxy.Registry
	dispatcher  *proxy.Dispatcher
	sessions    *session.Manager
	service     *linkedin.Service
	client      *linkedin.Client
	callTimeout time.Duration
	logger      *logging.Logger
	startedAt   time.Time
}

// NewHandlers creates a new handler set
func NewHandlers(
	registry *proxy.Registry,
	dispatcher *proxy.Dispatcher,
	sessions *session.Manager,
	service *linkedin.Service,
	client *linkedin.Client,
	cfg config.ProxyConfig,
	logger *logging.Logger,
) *Handlers {
	if logger == nil {
		logger = logging.NewDefault()
	}
	return &Handlers{
		registry:    registry,
		dispatcher:  dispatcher,
		sessions:    sessions,
		service:     service,
		client:      client,
		callTimeout: cfg.CallTimeout,
		logger:      logger,
		startedAt:   time.Now(),
	}
}

// Root handles the service banner
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "LinkBridge",
		"version": "0.3.0",
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"instances":      h.registry.Count(),
		"pending_calls":  h.dispatcher.Pending(),
		"sessions":       h.sessions.Count(),
		"uptime_seconds": int(time.Since(h.startedAt).Seconds()),
	})
}

// ListInstances lists connected extension instances
func (h *Handlers) ListInstances(c *gin.Context) {
	instances := h.registry.Instances()
	c.JSON(http.StatusOK, gin.H{
		"instances": instances,
		"count":     len(instances),
	})
}

// GetInstance reports connection state for one instance
func (h *Handlers) GetInstance(c *gin.Context) {
	instanceID := c.Param("id")
	for _, inst := range h.registry.Instances() {
		if inst.ID == instanceID {
			c.JSON(http.StatusOK, gin.H{
				"instance_id":  inst.ID,
				"connected":    true,
				"connected_at": inst.ConnectedAt,
			})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{
		"instance_id": instanceID,
		"connected":   false,
	})
}

// FetchRequest is the body of the paginated fetch endpoints.
type FetchRequest struct {
	URN        string `json:"urn" binding:"required"`
	Count      int    `json:"count"`
	All        bool   `json:"all"`
	UseProxy   *bool  `json:"use_proxy"`
	MinDelayMs int    `json:"min_delay_ms"`
	MaxDelayMs int    `json:"max_delay_ms"`
}

func (r *FetchRequest) options() linkedin.FetchOptions {
	return linkedin.FetchOptions{
		Count:    r.Count,
		All:      r.All,
		MinDelay: time.Duration(r.MinDelayMs) * time.Millisecond,
		MaxDelay: time.Duration(r.MaxDelayMs) * time.Millisecond,
	}
}

func (r *FetchRequest) proxied() bool {
	return r.UseProxy == nil || *r.UseProxy
}

// executor picks the transport for the account: the proxy path through its
// browser instance, or the direct client with its stored session.
func (h *Handlers) executor(acct *account.Account, useProxy bool) (linkedin.Executor, error) {
	if useProxy {
		return linkedin.NewProxied(h.dispatcher, acct.InstanceID, h.callTimeout), nil
	}
	sess, ok := h.sessions.Get(acct.ID.String())
	if !ok {
		return nil, session.ErrNoSession
	}
	return linkedin.NewDirect(h.client, sess), nil
}

func bindFetch(c *gin.Context) (*FetchRequest, *account.Account, bool) {
	var req FetchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, nil, false
	}
	acct, ok := middleware.AccountFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no authenticated account"})
		return nil, nil, false
	}
	return &req, acct, true
}

// FetchReactions assembles the reactions on a post
func (h *Handlers) FetchReactions(c *gin.Context) {
	req, acct, ok := bindFetch(c)
	if !ok {
		return
	}
	ex, err := h.executor(acct, req.proxied())
	if err != nil {
		fail(c, err)
		return
	}
	result, err := h.service.FetchReactions(c.Request.Context(), ex, req.URN, req.options())
	if err != nil {
		fail(c, err)
		return
	}
	writeResult(c, "reactions", result.Items, result.Pages, result.Reason)
}

// FetchComments assembles the comments on a post
func (h *Handlers) FetchComments(c *gin.Context) {
	req, acct, ok := bindFetch(c)
	if !ok {
		return
	}
	ex, err := h.executor(acct, req.proxied())
	if err != nil {
		fail(c, err)
		return
	}
	result, err := h.service.FetchComments(c.Request.Context(), ex, req.URN, req.options())
	if err != nil {
		fail(c, err)
		return
	}
	writeResult(c, "comments", result.Items, result.Pages, result.Reason)
}

// FetchPosts assembles a profile's shared posts
func (h *Handlers) FetchPosts(c *gin.Context) {
	req, acct, ok := bindFetch(c)
	if !ok {
		return
	}
	ex, err := h.executor(acct, req.proxied())
	if err != nil {
		fail(c, err)
		return
	}
	result, err := h.service.FetchPosts(c.Request.Context(), ex, req.URN, req.options())
	if err != nil {
		fail(c, err)
		return
	}
	writeResult(c, "posts", result.Items, result.Pages, result.Reason)
}

func writeResult[T any](c *gin.Context, key string, items []T, pages int, reason pagination.Reason) {
	status := http.StatusOK
	if reason == pagination.ReasonRemoteError {
		// Partial result: some pages were lost mid-run.
		status = http.StatusPartialContent
	}
	c.JSON(status, gin.H{
		key:      items,
		"count":  len(items),
		"pages":  pages,
		"reason": reason,
	})
}

// PostRequest is the body of the single-post endpoint.
type PostRequest struct {
	URN      string `json:"urn" binding:"required"`
	UseProxy *bool  `json:"use_proxy"`
}

// FetchPost reads one post from its public permalink. Proxied by default;
// with use_proxy false the call runs server-side without a session, since
// the permalink renders for logged-out visitors.
func (h *Handlers) FetchPost(c *gin.Context) {
	var req PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	acct, ok := middleware.AccountFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no authenticated account"})
		return
	}

	var ex linkedin.Executor
	if req.UseProxy == nil || *req.UseProxy {
		ex = linkedin.NewProxied(h.dispatcher, acct.InstanceID, h.callTimeout)
	} else {
		ex = linkedin.NewPublic(h.client)
	}

	post, err := h.service.FetchPublicPost(c.Request.Context(), ex, req.URN)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": post})
}

// RawRequest is the body of the raw voyager call endpoint.
type RawRequest struct {
	URL          string            `json:"url" binding:"required"`
	Method       string            `json:"method"`
	Headers      map[string]string `json:"headers"`
	Body         string            `json:"body"`
	ResponseType string            `json:"response_type"`
	UseProxy     *bool             `json:"use_proxy"`
}

// Execute runs a single arbitrary LinkedIn call for the account
func (h *Handlers) Execute(c *gin.Context) {
	var req RawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	acct, ok := middleware.AccountFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no authenticated account"})
		return
	}
	if !strings.HasPrefix(req.URL, "https://") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url must be https"})
		return
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	useProxy := req.UseProxy == nil || *req.UseProxy
	ex, err := h.executor(acct, useProxy)
	if err != nil {
		fail(c, err)
		return
	}

	resp, err := h.service.Execute(c.Request.Context(), ex, proxy.HTTPRequest{
		URL:          req.URL,
		Method:       method,
		Headers:      req.Headers,
		Body:         req.Body,
		ResponseType: req.ResponseType,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status_code": resp.StatusCode,
		"headers":     resp.Headers,
		"body":        resp.Body,
	})
}

// RefreshSession asks the account's browser instance for fresh cookies
func (h *Handlers) RefreshSession(c *gin.Context) {
	acct, ok := middleware.AccountFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no authenticated account"})
		return
	}

	sess, err := h.sessions.Refresh(c.Request.Context(), h.dispatcher, acct.ID.String(), acct.InstanceID, h.callTimeout)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"account_id": acct.ID,
		"cookies":    len(sess.Cookies),
		"updated_at": sess.UpdatedAt,
	})
}

// PutSessionRequest is the body of the manual session upload.
type PutSessionRequest struct {
	Cookies map[string]string `json:"cookies" binding:"required"`
}

// PutSession stores session cookies supplied by the caller
func (h *Handlers) PutSession(c *gin.Context) {
	var req PutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	acct, ok := middleware.AccountFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no authenticated account"})
		return
	}

	sess, err := h.sessions.Put(acct.ID.String(), req.Cookies)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"account_id": acct.ID,
		"cookies":    len(sess.Cookies),
		"updated_at": sess.UpdatedAt,
	})
}
