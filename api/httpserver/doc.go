// Package httpserver provides the shared HTTP server shell for the gateway
// and any future service binaries: chi routing with standard middleware,
// structured request logging, health and drain endpoints, an optional
// metrics listener, and graceful shutdown.
//
// Components expose their endpoints by implementing RouteRegistrar and
// passing themselves to New; the shell owns everything else about the
// server's lifecycle.
package httpserver
