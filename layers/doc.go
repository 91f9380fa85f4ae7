// Package layers provides the built-in pipeline middleware and registers it
// in a di.Container under the identifiers in Names.
//
//	c := di.NewContainer()
//	_ = layers.Register(c, layers.WithLogger(log), layers.WithMetrics(metrics))
//
//	p, _ := pipeline.New(c)
//	p.AddOuterLayer(layers.Names.RequestID, nil)
//	p.AddInnerLayer(layers.Names.Retry, pipeline.Parameters{"max_attempts": 5})
//
// Every layer takes its parameters through its constructor or through
// SetParameters, so both injection modes work. Rate limiters, circuit
// breakers and bulkheads are shared across executions by their "name"
// parameter.
package layers
