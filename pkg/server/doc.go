// Package server exposes account classification over HTTP.
//
// Routes:
//
//	GET  /api/v1/classify?username=NAME
//	POST /api/v1/classify   {"username": "NAME"}
//	GET  /healthz
//
// Typed errors map to statuses: validation 400, not_found 404, rate_limit
// 429, upstream failures 502, anything else 500.
package server
