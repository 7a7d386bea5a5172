package runtime

import "context"

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Runtime struct {
	SpecsLoaded bool
	Sessions    Pinger
}
