// Package worker routes HTTP requests through versioned response caches in
// the manner of a browser service worker.
//
// A Worker moves through installing, waiting and active, and becomes
// redundant when a newer generation takes over or its install fails.
// Install pre-populates the static bucket from a manifest of app-shell
// paths, all or nothing. Activate deletes every bucket that is not one of
// the worker's two current buckets.
//
// A Registration is the http.RoundTripper clients use. It forwards to the
// active Worker, or straight to the network when none is active. The
// Worker picks a strategy per GET request from its origin and destination:
//
//	cross-origin font/image   network, stored in dynamic
//	cross-origin other        passed through, never cached
//	document                  network first, then cache, then cached "/"
//	style/script              cache first, revalidated in the background
//	image                     cache first, stored in dynamic
//	anything else             network first, then exact cache match
//
// Only 2xx responses are stored. Same-origin GETs never fail: when neither
// the network nor the cache can answer, the caller gets an empty 404.
package worker
