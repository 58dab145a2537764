package linkedin

import (
	"context"
	"time"

	"github.com/CandorWorks/LinkBridge/backend/internal/domain/proxy"
	"github.com/CandorWorks/LinkBridge/backend/internal/domain/session"
)

// Executor runs one HTTP call against LinkedIn, directly or proxied. Both
// implementations yield the same response shape so the pagination layer
// does not care which path a run uses.
type Executor interface {
	Do(ctx context.Context, req proxy.HTTPRequest) (*proxy.Response, error)
}

// Direct executes calls server-side with an account's cached session.
type Direct struct {
	client *Client
	sess   *session.Session
}

// NewDirect creates a direct executor bound to one session.
func NewDirect(client *Client, sess *session.Session) *Direct {
	return &Direct{client: client, sess: sess}
}

// Do implements Executor.
func (d *Direct) Do(ctx context.Context, req proxy.HTTPRequest) (*proxy.Response, error) {
	return d.client.Do(ctx, req, d.sess)
}

// Proxied relays calls through a connected extension instance.
type Proxied struct {
	dispatcher *proxy.Dispatcher
	instanceID string
	timeout    time.Duration
}

// NewProxied creates a proxied executor routing to one instance.
func NewProxied(dispatcher *proxy.Dispatcher, instanceID string, timeout time.Duration) *Proxied {
	return &Proxied{dispatcher: dispatcher, instanceID: instanceID, timeout: timeout}
}

// Do implements Executor. The call runs inside the instance's browser
// context, so transport-level credentials apply.
func (p *Proxied) Do(ctx context.Context, req proxy.HTTPRequest) (*proxy.Response, error) {
	req.WithCredentials = true
	return p.dispatcher.Execute(ctx, p.instanceID, proxy.KindHTTPExecute, req, p.timeout)
}

// Public executes calls server-side without any session. Only endpoints
// that render for logged-out visitors work through it; it exists so a
// caller with neither a connected instance nor cached cookies can still
// read public post pages.
type Public struct {
	client *Client
}

// NewPublic creates a sessionless executor.
func NewPublic(client *Client) *Public {
	return &Public{client: client}
}

// Do implements Executor.
func (p *Public) Do(ctx context.Context, req proxy.HTTPRequest) (*proxy.Response, error) {
	return p.client.DoPublic(ctx, req)
}
