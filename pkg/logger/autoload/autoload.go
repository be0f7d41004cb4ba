// Package autoload configures the global logger from LOG_* environment
// variables as a side effect of being imported.
package autoload

import (
	configx "github.com/kritsada/procure-agent/pkg/config"
	logx "github.com/kritsada/procure-agent/pkg/logger"
)

func init() {
	conf := configx.MustNew[logx.Config]("LOG")
	logx.Init(*conf)
}
