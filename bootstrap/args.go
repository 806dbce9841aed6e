package bootstrap

import (
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/titpetric/ocpbootstrap/db"
	"github.com/titpetric/ocpbootstrap/progress"
)

// DefaultPort is used when --port is absent
const DefaultPort = 8180

type (
	// Property is a name/value override from --with-property
	Property struct {
		Name  string
		Value string
	}

	// Params are the parsed process arguments
	Params struct {
		Bootstrap    bool
		Action       progress.Action
		Port         int
		AuthUser     string
		AuthPassword string
		Meta         db.MetaProperties
		ProgressLog  string
		Properties   []Property
	}
)

// actionFlag sets the shared action when present, so the last of
// --install/--upgrade wins
type actionFlag struct {
	target *progress.Action
	action progress.Action
	set    bool
}

func (f *actionFlag) String() string {
	return strconv.FormatBool(f.set)
}

func (f *actionFlag) Set(value string) error {
	enabled, err := strconv.ParseBool(value)
	if err != nil {
		return err
	}
	f.set = enabled
	if enabled {
		*f.target = f.action
	}
	return nil
}

func (f *actionFlag) Type() string {
	return "bool"
}

// splitPair splits on the first colon
func splitPair(flag, value string) (string, string, error) {
	name, rest, ok := strings.Cut(value, ":")
	if !ok || name == "" {
		return "", "", &ConfigError{Field: flag, Err: errors.Errorf("expected <name>:<value>, got '%s'", value)}
	}
	return name, rest, nil
}

// longFlags drops single-dash tokens of the hosting process (-Dkey=value,
// -Xmx1g), which pflag would otherwise split into shorthand letters. A
// token following a long flag that takes a value is kept as that value.
func longFlags(fs *pflag.FlagSet, args []string) []string {
	result := make([]string, 0, len(args))
	expectValue := false
	for _, arg := range args {
		if arg == "--" {
			break
		}
		if expectValue {
			result = append(result, arg)
			expectValue = false
			continue
		}
		if !strings.HasPrefix(arg, "--") {
			if !strings.HasPrefix(arg, "-") {
				result = append(result, arg)
			}
			continue
		}
		result = append(result, arg)
		if name := arg[2:]; !strings.Contains(name, "=") {
			if defined := fs.Lookup(name); defined != nil && defined.NoOptDefVal == "" {
				expectValue = true
			}
		}
	}
	return result
}

// ParseArgs parses GNU-style long flags. Flags of the hosting process are
// ignored.
func ParseArgs(args []string) (*Params, error) {
	params := &Params{
		Port:       DefaultPort,
		Properties: []Property{},
	}

	fs := pflag.NewFlagSet("ocp-express", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}

	var (
		port       string
		auth       string
		properties []string
	)
	fs.BoolVar(&params.Bootstrap, "bootstrap", false, "Initialize or upgrade the metadata store")
	for name, action := range map[string]progress.Action{
		"install": progress.ActionInstall,
		"upgrade": progress.ActionUpgrade,
	} {
		fs.Var(&actionFlag{target: &params.Action, action: action}, name, "Force the "+name+" action")
		fs.Lookup(name).NoOptDefVal = "true"
	}
	fs.StringVar(&port, "port", "", "Port of the probe endpoint")
	fs.StringVar(&auth, "auth", "", "Credentials as <user>:<password>")
	fs.StringVar(&params.Meta.Address, "meta-address", "", "Metadata store host[:port]")
	fs.StringVar(&params.Meta.Database, "meta-database", "", "Metadata store database")
	fs.StringVar(&params.Meta.User, "meta-user", "", "Metadata store user")
	fs.StringVar(&params.Meta.Password, "meta-password", "", "Metadata store password")
	fs.StringVar(&params.ProgressLog, "progress-log", "", "Path of the progress log")
	fs.StringArrayVar(&properties, "with-property", nil, "Property override as <name>:<value>, repeatable")
	fs.Bool("help", false, "")
	fs.MarkHidden("help")

	if err := fs.Parse(longFlags(fs, args)); err != nil {
		return nil, &ConfigError{Err: err}
	}

	if port != "" {
		value, err := strconv.Atoi(port)
		if err != nil || value < 0 || value > 65535 {
			return nil, &ConfigError{Field: "port", Err: errors.Errorf("invalid port '%s'", port)}
		}
		params.Port = value
	}

	if auth != "" {
		user, password, err := splitPair("auth", auth)
		if err != nil {
			return nil, err
		}
		params.AuthUser, params.AuthPassword = user, password
	}

	for _, property := range properties {
		name, value, err := splitPair("with-property", property)
		if err != nil {
			return nil, err
		}
		params.Properties = append(params.Properties, Property{Name: name, Value: value})
	}

	return params, nil
}
