package inject

import (
	"github.com/google/wire"
	"github.com/spf13/afero"

	"github.com/titpetric/ocpbootstrap/bootstrap"
	"github.com/titpetric/ocpbootstrap/bootstrap/hook"
	"github.com/titpetric/ocpbootstrap/db"
	"github.com/titpetric/ocpbootstrap/expr"
	"github.com/titpetric/ocpbootstrap/progress"
)

// Fs provides the configuration filesystem
func Fs() afero.Fs {
	return bootstrap.AppFs
}

// Progress provides the process progress store, writer attached later
func Progress() *progress.Progress {
	return progress.New(nil)
}

// Bootstrap builds the orchestrator and registers its hooks
func Bootstrap(config *bootstrap.Config, registry *db.Registry, exec *db.Executor, p *progress.Progress, meta *bootstrap.MetaPropertyInitializer, env *expr.Env, runID string) *bootstrap.Bootstrap {
	b := bootstrap.New(config, registry, exec, p, meta, env, runID)
	b.AddHook(hook.NewPasswordInitializer(exec, b))
	return b
}

// Inject is the main ProviderSet for wire
var Inject = wire.NewSet(
	Fs,
	Sonyflake,
	RunID,
	Progress,
	expr.New,
	bootstrap.NewConfig,
	bootstrap.NewMetaPropertyInitializer,
	db.NewRegistry,
	wire.Bind(new(db.DataSourceProvider), new(*db.Registry)),
	db.NewExecutor,
	Bootstrap,
)
