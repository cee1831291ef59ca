// Cinegraph - Movie Catalog and Recommendation Platform
// Copyright 2026 O. Konrad (okonrad)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okonrad/cinegraph

// Package api exposes the recommendation service over HTTP.
//
// Every endpoint returns the APIResponse envelope. Errors carry a
// machine-readable code and the request ID for tracing; service
// degradation (signal store outage with no cache to fall back on)
// surfaces as 503 with a retryable code rather than a generic 500.
//
// The router is chi with the production middleware set: request IDs
// wired into the logging context, panic recovery, CORS, per-IP rate
// limiting and security headers. Prometheus metrics and health probes
// are served outside the versioned API tree.
package api
