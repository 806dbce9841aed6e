// Package bootstrap decides between install and upgrade, applies the module
// documents to the metadata store and runs post-initialization hooks.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/titpetric/ocpbootstrap/data"
	"github.com/titpetric/ocpbootstrap/db"
	"github.com/titpetric/ocpbootstrap/dsl"
	"github.com/titpetric/ocpbootstrap/expr"
	"github.com/titpetric/ocpbootstrap/internal/log"
	"github.com/titpetric/ocpbootstrap/progress"
	"github.com/titpetric/ocpbootstrap/resources"
	"github.com/titpetric/ocpbootstrap/sqlgen"
)

// Build metadata, set with -ldflags
var (
	Version   = "4.2.1"
	BuildTime = ""
)

// AfterDataInitializationHook runs once after every module of a data
// source was initialized
type AfterDataInitializationHook interface {
	Initialized(ctx context.Context, action progress.Action, dataSourceName string) error
}

// ConnectFunc opens the metadata store
type ConnectFunc func(ctx context.Context, meta db.MetaProperties, options db.ConnectionOptions) (*sqlx.DB, error)

// Bootstrap is the orchestrator, one per process
type Bootstrap struct {
	config   *Config
	registry *db.Registry
	exec     *db.Executor
	progress *progress.Progress
	meta     *MetaPropertyInitializer
	env      *expr.Env
	connect  ConnectFunc
	runID    string

	params     *Params
	properties *Properties
	action     progress.Action
	modules    []*data.Config
	hooks      []AfterDataInitializationHook
}

// New creates a *Bootstrap
func New(config *Config, registry *db.Registry, exec *db.Executor, p *progress.Progress, meta *MetaPropertyInitializer, env *expr.Env, runID string) *Bootstrap {
	return &Bootstrap{
		config:     config,
		registry:   registry,
		exec:       exec,
		progress:   p,
		meta:       meta,
		env:        env,
		connect:    db.Connect,
		runID:      runID,
		params:     &Params{Port: DefaultPort},
		properties: NewProperties(nil, config),
		action:     progress.ActionUnknown,
	}
}

// WithConnect replaces the metadata store connector
func (b *Bootstrap) WithConnect(connect ConnectFunc) *Bootstrap {
	b.connect = connect
	return b
}

// AddHook registers a hook, hooks run in registration order
func (b *Bootstrap) AddHook(hook AfterDataInitializationHook) {
	b.hooks = append(b.hooks, hook)
}

// Action is UNKNOWN until Initialize resolved it
func (b *Bootstrap) Action() progress.Action {
	return b.action
}

// Port of the probe endpoint
func (b *Bootstrap) Port() int {
	return b.params.Port
}

// Params returns the parsed arguments
func (b *Bootstrap) Params() *Params {
	return b.params
}

// Progress returns the process progress store
func (b *Bootstrap) Progress() *progress.Progress {
	return b.progress
}

// OcpVersion returns the build version
func (b *Bootstrap) OcpVersion() string {
	return Version
}

// OcpBuildTime returns the build time
func (b *Bootstrap) OcpBuildTime() string {
	return BuildTime
}

// Property resolves a property from overrides, then configuration
func (b *Bootstrap) Property(key string) (string, bool) {
	return b.properties.Property(key)
}

// DataSource is the name of the metadata data source
func (b *Bootstrap) DataSource() string {
	return b.config.DataSource()
}

// Initialize parses args and, when --bootstrap is given, installs or
// upgrades the metadata store
func (b *Bootstrap) Initialize(ctx context.Context, args []string) error {
	params, err := ParseArgs(args)
	if err != nil {
		return err
	}
	b.params = params
	b.properties = NewProperties(params.Properties, b.config)
	b.action = params.Action

	if params.ProgressLog != "" {
		file, err := progress.OpenFile(params.ProgressLog)
		if err != nil {
			return &ConfigError{Field: "progress-log", Err: err}
		}
		b.progress.Attach(progress.NewWriter(file))
	}

	if !params.Bootstrap {
		log.Infof("bootstrap not enabled, skipping data initialization")
		return nil
	}

	err = b.run(ctx)
	if err != nil {
		b.progress.SetError(err)
		return err
	}
	b.progress.OnApplicationReady()
	return nil
}

func (b *Bootstrap) run(ctx context.Context) error {
	meta, err := b.meta.Resolve(b.params)
	if err != nil {
		return err
	}

	// documents are loaded before connecting, DSL errors never reach the store
	if err := b.load(); err != nil {
		return err
	}

	dataSource := b.config.DataSource()
	b.progress.BeginBean(dataSource, "datasource")
	handle, err := b.connect(ctx, meta, b.config.ConnectionOptions())
	if err != nil {
		return errors.Wrap(err, "can't connect to metadata store")
	}
	b.registry.Register(dataSource, handle)
	b.progress.EndBean(dataSource, "datasource")

	history := db.NewHistory(handle, b.runID)
	if b.action == progress.ActionUnknown {
		exists, err := history.Exists(ctx)
		if err != nil {
			return err
		}
		b.action = progress.ActionInstall
		if exists {
			b.action = progress.ActionUpgrade
		}
		log.Infof("detected action %s", b.action)
	}

	if err := b.initializeModules(ctx, dataSource, history); err != nil {
		return err
	}
	return b.runHooks(ctx, dataSource)
}

// load reads the documents of every configured module
func (b *Bootstrap) load() error {
	fs := resources.Overlay(b.config.Fs(), b.config.ResourceDir())
	loader := dsl.NewLoader(fs, b.env)

	b.modules = b.modules[:0]
	for _, module := range b.config.Modules() {
		cfg, err := loader.LoadConfig(module, resources.ModuleDir(module))
		if err != nil {
			return errors.Wrapf(err, "loading module %s", module)
		}
		if cfg.Empty() {
			log.Warningf("module %s has no documents", module)
			continue
		}
		b.modules = append(b.modules, cfg)
	}
	return nil
}

// initializeModules runs every module; a failed module does not stop the
// others
func (b *Bootstrap) initializeModules(ctx context.Context, dataSource string, history MigrationHistory) error {
	generator := sqlgen.NewGenerator(b.env)
	overrides := b.properties.Overrides()

	failed := []error{}
	for _, cfg := range b.modules {
		var moduleOverrides []Property
		if ownsProperties(cfg) {
			moduleOverrides, overrides = overrides, nil
		}
		initializer := NewDataInitializer(cfg, dataSource, b.exec, history, generator, b.progress, moduleOverrides)
		if err := initializer.Run(ctx, b.action); err != nil {
			failed = append(failed, &ModuleError{Module: cfg.Module, Err: err})
		}
	}
	if len(overrides) > 0 {
		log.Warningf("no module manages %s, %d property overrides ignored", data.ConfigPropertiesTable, len(overrides))
	}

	switch len(failed) {
	case 0:
		return nil
	case 1:
		return failed[0]
	}
	return errors.Wrapf(failed[0], "%d of %d modules failed", len(failed), len(b.modules))
}

func (b *Bootstrap) runHooks(ctx context.Context, dataSource string) error {
	for idx, hook := range b.hooks {
		id := fmt.Sprintf("hook-%d", idx)
		typeName := fmt.Sprintf("%T", hook)
		b.progress.BeginBean(id, typeName)
		if err := hook.Initialized(ctx, b.action, dataSource); err != nil {
			return errors.Wrapf(err, "hook %s", typeName)
		}
		b.progress.EndBean(id, typeName)
	}
	return nil
}
