// Package http is the test-execution transport for the suite: a pooled,
// retry-configured client per API target, a fluent request builder, and a
// response type scenarios assert against.
//
// Retries happen below the caller: a request whose method and response
// status are both in the retryable sets is re-issued with exponential
// backoff, and the caller sees exactly one terminal outcome: the last
// response received or the final transport error.
//
// Basic usage:
//
//	reg := http.NewRegistry(cfg, logger)
//	defer reg.CloseAll()
//
//	session, err := reg.Get("jsonplaceholder")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	resp, err := session.Do(ctx, http.NewRequest("GET", "/posts"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := resp.ExpectStatus(200); err != nil {
//	    log.Fatal(err)
//	}
package http
