// Package health provides liveness and readiness probes for Callisto hosts.
//
// # Overview
//
// A sampling host that embeds the rule engine usually runs as a worker in a
// render farm or behind a job queue. This package implements the probe
// endpoints an orchestrator needs to restart or drain such a worker, plus a
// version endpoint for fleet audits. The endpoints are mounted on the same
// listener as the Prometheus /metrics handler.
//
// # Endpoints
//
//   - /health: Liveness probe - indicates if the process is running
//   - /ready: Readiness probe - indicates if the runtime can evaluate rules
//   - /version: Build information - version, commit, build time
//
// Paths are configurable through config.HealthConfig.
//
// # Usage
//
//	checker := health.NewFromConfig(&cfg.Health)
//
//	// Register component checks
//	checker.RegisterCheck(health.ComponentRules, func(ctx context.Context) error {
//	    if mgr.Program() == nil {
//	        return errors.New("no rule program loaded")
//	    }
//	    return nil
//	})
//
//	mux := http.NewServeMux()
//	health.RegisterEndpoints(mux, checker, &cfg.Health, version, commit, buildTime)
//
// # Liveness vs Readiness
//
// Liveness (/health) answers "is the process alive" and always returns 200
// while the process can serve HTTP. Orchestrators restart the worker when it
// fails. Readiness (/ready) runs every registered component check and returns
// 503 when any component is unhealthy, so schedulers stop routing render jobs
// to a worker whose rules failed to load or whose trace store is broken.
//
// # Component Health Checks
//
// The runtime registers checks for its components:
//
//   - rules: a rule program is loaded and the last reload succeeded
//   - storage: the trace store answers queries (or reports "disabled" when
//     trace recording is configured off)
//   - tracer: the OTLP exporter is configured (or "disabled")
//
// Components that are configured off register through RegisterDisabled and
// appear in readiness responses with status "disabled"; they never degrade
// the aggregate status.
//
// # Example Responses
//
// Readiness with trace recording disabled:
//
//	{
//	    "status": "ready",
//	    "checks": {
//	        "rules": {"status": "ok"},
//	        "storage": {"status": "disabled"}
//	    },
//	    "timestamp": "2026-08-25T10:30:00Z"
//	}
//
// Degraded readiness:
//
//	{
//	    "status": "degraded",
//	    "checks": {
//	        "rules": {"status": "unhealthy", "message": "reload failed: yaml: line 4"},
//	        "storage": {"status": "ok"}
//	    },
//	    "timestamp": "2026-08-25T10:30:00Z"
//	}
package health
