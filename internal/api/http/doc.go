// Package http holds the REST handlers.
//
// Every LinkedIn operation runs against the account resolved by the auth
// middleware: proxied calls go through the browser instance bound to that
// account, direct calls use its stored session cookies.
package http
