package breaker

// Interface is satisfied by both Breaker (single-process) and RedisBreaker
// (shared failure counter across processes), letting ingestion.Pipeline
// swap implementations without caring which one backs it.
type Interface interface {
	Call(fn func() error) error
	Open() bool
}
