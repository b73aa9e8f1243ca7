package clock

import "go.uber.org/fx"

// Module provides the wall clock. The dashboard and the summary refresher
// take Clock so tests can substitute a fixed time.
var Module = fx.Module("clock",
	fx.Provide(func() Clock {
		return SystemClock{}
	}),
)
