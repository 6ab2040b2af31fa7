// Package api defines the request and response types of the SocialForge
// HTTP API.
//
// # API Overview
//
// SocialForge provides a RESTful API for:
//   - Generating platform-specific social copy from a product image
//   - Querying job history and per-attempt validation outcomes
//   - Listing registered platform schemas and their constraints
//   - Health monitoring and metrics
//
// # Base URL
//
// The default base URL for the API is:
//
//	http://localhost:8080
//
// # Endpoints
//
//	POST /v1/generate       — run one generation job per requested schema
//	GET  /v1/jobs           — list recent jobs
//	GET  /v1/jobs/{id}      — fetch one job result
//	GET  /v1/schemas        — list registered platform schemas
//	GET  /v1/schemas/{name} — fetch one schema descriptor
//	GET  /health            — liveness probe
//	GET  /ready             — readiness probe with dependency checks
package api
