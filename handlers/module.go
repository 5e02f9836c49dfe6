package handlers

import "go.uber.org/fx"

var Module = fx.Options(
	fx.Provide(
		provideHTTPHandlers,
	),
	fx.Invoke(
		bindHTTPHandlers,
	),
)
