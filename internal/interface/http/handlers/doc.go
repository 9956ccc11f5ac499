// Package handlers contains the health checking used by the HTTP probes.
//
// Checks are registered by name and run in parallel, each under its own
// timeout:
//
//	checker := handlers.NewCompositeHealthChecker("v1.2.0")
//	checker.AddCheck("store", handlers.NewPingCheck(store))
//	checker.AddCheck("cache", handlers.NewPingCheck(cache))
//	checker.AddCheck("leetcode", handlers.NewCircuitCheck(client))
//
//	status := checker.Check(ctx)
//	if !status.Healthy {
//	    slog.Warn("health check failed", "message", status.Message)
//	}
package handlers
