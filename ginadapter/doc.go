// Package ginadapter runs gin handlers behind a pipeline.
//
//	r := gin.New()
//	r.GET("/orders/:id", ginadapter.Handler(p, getOrder))
//
// The *gin.Context is the single argument passed through the layers. A
// handler reports a failure with c.Error instead of writing an error body;
// the adapter writes pipeline and handler errors as JSON using the AppError
// status code, so retried handlers never write a response twice. Once a
// handler has written a response, retries stop and the error is only
// recorded on the context.
package ginadapter
