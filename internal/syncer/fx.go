package syncer

import (
	"go.uber.org/fx"
)

var Module = fx.Module("syncer",
	fx.Provide(New),
)
