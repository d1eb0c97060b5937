// Package autoload configures the global logger from the environment as a
// side effect of being imported.
package autoload

import (
	configx "github.com/zaykahq/ordering-agent/pkg/config"
	logx "github.com/zaykahq/ordering-agent/pkg/logger"
)

func init() {
	logx.Init(*configx.MustNew[logx.Config]("LOG"))
}
