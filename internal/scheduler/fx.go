package scheduler

import (
	"context"

	"go.uber.org/fx"
)

var Module = fx.Module("scheduler",
	fx.Provide(DefaultConfig),
	fx.Provide(NewRefresher),
	fx.Invoke(runRefresher),
)

func runRefresher(lc fx.Lifecycle, refresher *Refresher) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go refresher.RunForever(context.Background())
			return nil
		},
	})
}
