// Package session caches LinkedIn browser sessions per account.
//
// A session is the cookie state (li_at, JSESSIONID, friends) captured from
// an authenticated browser, plus the csrf token voyager derives from
// JSESSIONID. Sessions arrive either by direct upload or by asking a
// connected extension to re-read its cookie jar (a proxied session_refresh
// call). When a vault key is configured, sessions are persisted encrypted
// at rest; otherwise they live in memory only.
package session
