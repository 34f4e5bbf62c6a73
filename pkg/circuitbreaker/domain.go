package circuitbreaker

// CircuitBreaker has the same Execute signature as gobreaker's, so a
// *gobreaker.CircuitBreaker satisfies it directly.
type CircuitBreaker interface {
	Execute(func() (interface{}, error)) (interface{}, error)
}
