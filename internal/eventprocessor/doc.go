// Cinegraph - Movie Catalog and Recommendation Platform
// Copyright 2026 O. Konrad (okonrad)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okonrad/cinegraph

/*
Package eventprocessor consumes catalog lifecycle events from NATS
JetStream and turns them into recommendation cache invalidations.

Every inbound event moves through the same three stages:

	Received -> Classified -> Applied

Received events are decoded and validated. Classification maps each event
to an invalidation signal: rating and watchlist changes invalidate one
user precisely, movie updates soft-mark the movie stale, and deletions or
events without a resolvable subject fall back to a global invalidation.
Malformed payloads are logged and classified as unknown rather than
dropped, so the cache can never silently serve results derived from state
it missed.

Application is partition-ordered: signals are dispatched by a hash of
their subject onto a fixed set of lanes, one goroutine each, so all events
for one user apply in publish order while different users proceed
concurrently. Applying any signal is idempotent.

The Watermill router wraps handlers with panic recovery, bounded retry and
a poison queue, so a single failing event never blocks its partition
indefinitely.
*/
package eventprocessor
