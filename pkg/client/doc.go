// Package client is the boundary to the remote graph service. Every
// operation is exactly one HTTP exchange: nothing is cached, batched or
// retried. Failures come back as *Error values whose Kind can be matched
// with errors.Is:
//
//	g, err := c.GetGraph(ctx, 42)
//	if errors.Is(err, client.ErrNotFound) {
//		...
//	}
//
// UserMessage turns any error into the text shown to the user.
package client
