// Package account holds the API client accounts and their credentials.
//
// Accounts are loaded from a YAML file at startup. Each account binds an API
// key to the browser instance that serves it, so a request authenticated
// with that key is proxied through the matching extension connection.
package account
