// Package resilience groups the fault tolerance helpers used around external
// calls: the completion service, source page downloads and the creations
// database.
//
//	cb := circuitbreaker.New(circuitbreaker.CompletionAPIConfig("claude"))
//	out, err := cb.Execute(func() (interface{}, error) {
//	    return backend.Complete(ctx, req)
//	})
//
//	err = retry.WithBackoff(ctx, retry.SourceFetchConfig(), func() error {
//	    return download(ctx, url)
//	})
package resilience
