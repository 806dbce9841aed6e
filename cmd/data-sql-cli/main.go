package main

import (
	"context"
	"os"

	"github.com/spf13/pflag"

	"github.com/titpetric/ocpbootstrap/bootstrap"
	"github.com/titpetric/ocpbootstrap/db"
	"github.com/titpetric/ocpbootstrap/dsl"
	"github.com/titpetric/ocpbootstrap/expr"
	"github.com/titpetric/ocpbootstrap/internal/log"
	"github.com/titpetric/ocpbootstrap/progress"
	"github.com/titpetric/ocpbootstrap/resources"
	"github.com/titpetric/ocpbootstrap/sqlgen"
)

func main() {
	log.Init()
	defer log.Flush()

	var config struct {
		Module     string
		Real       bool
		Action     string
		Properties []string
		Meta       db.MetaProperties
	}
	pflag.StringVar(&config.Module, "module", "", "Module to print statements for")
	pflag.BoolVar(&config.Real, "real", false, "false = print statements, true = apply them")
	pflag.StringVar(&config.Action, "action", "install", "Action for --real (install or upgrade)")
	pflag.StringArrayVar(&config.Properties, "with-property", nil, "Property override key:value")
	pflag.StringVar(&config.Meta.Address, "meta-address", "", "Metadata store address (host:port)")
	pflag.StringVar(&config.Meta.Database, "meta-database", "", "Metadata store database")
	pflag.StringVar(&config.Meta.User, "meta-user", "", "Metadata store user")
	pflag.StringVar(&config.Meta.Password, "meta-password", "", "Metadata store password")
	pflag.Parse()

	cfg, err := bootstrap.NewConfig(bootstrap.AppFs)
	if err != nil {
		log.Fatalf("Error loading configuration: %+v", err)
	}
	if config.Module == "" {
		log.Errorf("Available modules: %+v", cfg.Modules())
		os.Exit(1)
	}

	args := []string{"--bootstrap"}
	for _, property := range config.Properties {
		args = append(args, "--with-property="+property)
	}
	params, err := bootstrap.ParseArgs(args)
	if err != nil {
		log.Fatalf("Error parsing properties: %+v", err)
	}

	env := expr.New()
	loader := dsl.NewLoader(resources.Overlay(cfg.Fs(), cfg.ResourceDir()), env)
	module, err := loader.LoadConfig(config.Module, resources.ModuleDir(config.Module))
	if err != nil {
		log.Fatalf("Error loading module %s: %+v", config.Module, err)
	}

	dataSource := cfg.DataSource()
	registry := db.NewRegistry()
	defer registry.Close()
	exec := db.NewExecutor(registry)
	p := progress.New(progress.NewWriter(os.Stdout))

	if !config.Real {
		initializer := bootstrap.NewDataInitializer(module, dataSource, exec, nil, sqlgen.NewGenerator(env), p, params.Properties)
		if err := initializer.DryRun(os.Stdout); err != nil {
			log.Fatalf("An error occured: %+v", err)
		}
		return
	}

	meta := cfg.Meta()
	if config.Meta.Address != "" {
		meta.Address = config.Meta.Address
	}
	if config.Meta.Database != "" {
		meta.Database = config.Meta.Database
	}
	if config.Meta.User != "" {
		meta.User = config.Meta.User
	}
	if config.Meta.Password != "" {
		meta.Password = config.Meta.Password
	}
	if err := bootstrap.NewMetaPropertyInitializer(cfg).WaitDbPropertiesReady(&meta); err != nil {
		log.Fatalf("Error resolving metadata store: %+v", err)
	}

	ctx := context.Background()
	handle, err := db.Connect(ctx, meta, cfg.ConnectionOptions())
	if err != nil {
		log.Fatalf("Error connecting to database: %+v", err)
	}
	registry.Register(dataSource, handle)

	history := db.NewHistory(handle, "data-sql-cli")
	initializer := bootstrap.NewDataInitializer(module, dataSource, exec, history, sqlgen.NewGenerator(env), p, params.Properties)
	if err := initializer.Run(ctx, progress.ParseAction(config.Action)); err != nil {
		log.Fatalf("An error occured: %+v", err)
	}
}
