// Package monitoring provides Prometheus metrics for the bridge, the client
// and the HTTP surface.
//
// Metrics are registered on an injected registry, so several bridges (or
// tests) can coexist in one process. Every recording method is safe on a
// nil *Metrics.
//
// Example Usage:
//
//	reg := prometheus.NewRegistry()
//	metrics := monitoring.NewMetrics(reg)
//	router.Use(monitoring.Middleware(metrics))
//	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
package monitoring
