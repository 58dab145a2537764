/*
Package monitoring provides Prometheus-based metrics collection.

# Overview

Tracks HTTP requests, extension socket connections and messages, proxied
call outcomes, pagination runs, direct voyager calls, and session events.

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))

	metrics.RecordProxyCall("http_execute", "ok", 0.42)
	metrics.SetPendingCalls(3)

# Metrics Endpoint

Expose via the standard Prometheus handler:

	import "github.com/prometheus/client_golang/prometheus/promhttp"
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
*/
package monitoring
