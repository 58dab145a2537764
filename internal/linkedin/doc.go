// Package linkedin knows how to talk to LinkedIn's voyager API: building
// endpoint URLs, decoding voyager JSON pages, and falling back to public
// post HTML when no API shape is available.
//
// Execution is abstracted behind Executor so every operation can run either
// directly (server-side resty client with cached session cookies) or
// proxied (relayed through a connected browser extension); both paths
// produce the same response shape.
package linkedin
