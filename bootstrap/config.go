package bootstrap

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/titpetric/ocpbootstrap/db"
)

// AppFs is the filesystem used for configuration and resources
var AppFs = afero.NewOsFs()

// Config is the layered configuration: defaults, ocp-express.yaml,
// OCP_EXPRESS_* environment
type Config struct {
	v  *viper.Viper
	fs afero.Fs
}

// NewConfig loads .env files and the optional config file from fs
func NewConfig(fs afero.Fs) (*Config, error) {
	if err := loadDotEnv(fs, ".env", false); err != nil {
		return nil, err
	}
	if err := loadDotEnv(fs, ".env.local", true); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetFs(fs)

	v.SetConfigName("ocp-express")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := homedir.Dir(); err == nil {
		v.AddConfigPath(home)
		v.AddConfigPath(filepath.Join(home, ".config", "ocp-express"))
	}

	v.SetEnvPrefix("OCP_EXPRESS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("bootstrap.modules", []string{"metadb"})
	v.SetDefault("bootstrap.datasource", "metadb")
	v.SetDefault("bootstrap.resources", "")
	v.SetDefault("meta.connect.retries", 10)
	v.SetDefault("meta.connect.retry-delay", 2*time.Second)
	v.SetDefault("meta.connect.timeout", 60*time.Second)
	v.SetDefault("meta.trace", false)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, &ConfigError{Field: "ocp-express.yaml", Err: err}
		}
	}

	return &Config{
		v:  v,
		fs: fs,
	}, nil
}

// loadDotEnv sets variables from an env file when it exists; existing
// variables are kept unless overload is set
func loadDotEnv(fs afero.Fs, filename string, overload bool) error {
	file, err := fs.Open(filename)
	if err != nil {
		return nil
	}
	defer file.Close()

	env, err := godotenv.Parse(file)
	if err != nil {
		return &ConfigError{Field: filename, Err: err}
	}
	for key, value := range env {
		if _, exists := os.LookupEnv(key); exists && !overload {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

// Fs returns the filesystem the config was read from
func (c *Config) Fs() afero.Fs {
	return c.fs
}

// Get returns a config value if set
func (c *Config) Get(key string) (string, bool) {
	if !c.v.IsSet(key) {
		return "", false
	}
	return c.v.GetString(key), true
}

// Set overrides a key
func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

// Modules lists the modules to initialize, in order
func (c *Config) Modules() []string {
	return c.v.GetStringSlice("bootstrap.modules")
}

// DataSource is the name of the metadata data source
func (c *Config) DataSource() string {
	return c.v.GetString("bootstrap.datasource")
}

// ResourceDir is a host directory layered over the bundled resources
func (c *Config) ResourceDir() string {
	return c.v.GetString("bootstrap.resources")
}

// Trace enables the apmsql connector
func (c *Config) Trace() bool {
	return c.v.GetBool("meta.trace")
}

// Meta returns connection properties from configuration
func (c *Config) Meta() db.MetaProperties {
	return db.MetaProperties{
		Address:  c.v.GetString("meta.address"),
		Database: c.v.GetString("meta.database"),
		User:     c.v.GetString("meta.user"),
		Password: c.v.GetString("meta.password"),
	}
}

// ConnectionOptions returns the retry policy of the metadata connection
func (c *Config) ConnectionOptions() db.ConnectionOptions {
	options := db.ConnectionOptions{
		Retries:        c.v.GetInt("meta.connect.retries"),
		RetryDelay:     c.v.GetDuration("meta.connect.retry-delay"),
		ConnectTimeout: c.v.GetDuration("meta.connect.timeout"),
	}
	options.Credentials.DriverName = "mysql"
	if c.Trace() {
		options.Connector = db.TracedConnector
	}
	return options
}

// Properties resolves property keys from --with-property overrides first,
// then configuration
type Properties struct {
	overrides []Property
	config    *Config
}

// NewProperties creates *Properties; config may be nil
func NewProperties(overrides []Property, config *Config) *Properties {
	return &Properties{
		overrides: overrides,
		config:    config,
	}
}

// Property returns the value of key; the last matching override wins
func (p *Properties) Property(key string) (string, bool) {
	for idx := len(p.overrides) - 1; idx >= 0; idx-- {
		if p.overrides[idx].Name == key {
			return p.overrides[idx].Value, true
		}
	}
	if p.config != nil {
		return p.config.Get(key)
	}
	return "", false
}

// Overrides returns the --with-property pairs in flag order
func (p *Properties) Overrides() []Property {
	return append([]Property{}, p.overrides...)
}
