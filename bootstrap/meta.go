package bootstrap

import (
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"

	"github.com/titpetric/ocpbootstrap/db"
)

// Prompter asks the operator for a connection property
type Prompter func(name string, secret bool) (string, error)

// MetaPropertyInitializer resolves the metadata connection properties from
// flags, then configuration, then the operator when interactive
type MetaPropertyInitializer struct {
	config      *Config
	interactive bool
	prompt      Prompter
}

// NewMetaPropertyInitializer creates a *MetaPropertyInitializer that
// prompts only when stdin is a terminal
func NewMetaPropertyInitializer(config *Config) *MetaPropertyInitializer {
	fd := os.Stdin.Fd()
	return &MetaPropertyInitializer{
		config:      config,
		interactive: isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd),
		prompt:      surveyPrompt,
	}
}

// WithPrompter replaces the operator prompt; a nil prompter makes the
// initializer non-interactive
func (m *MetaPropertyInitializer) WithPrompter(prompt Prompter) *MetaPropertyInitializer {
	m.prompt = prompt
	m.interactive = prompt != nil
	return m
}

func surveyPrompt(name string, secret bool) (string, error) {
	var (
		value  string
		prompt survey.Prompt
	)
	message := "Metadata store " + strings.TrimPrefix(name, "meta-") + ":"
	if secret {
		prompt = &survey.Password{Message: message}
		err := survey.AskOne(prompt, &value)
		return value, err
	}
	prompt = &survey.Input{Message: message}
	err := survey.AskOne(prompt, &value, survey.WithValidator(survey.Required))
	return value, err
}

// Resolve fills the properties missing from params
func (m *MetaPropertyInitializer) Resolve(params *Params) (db.MetaProperties, error) {
	meta := params.Meta
	if m.config != nil {
		fallback := m.config.Meta()
		if meta.Address == "" {
			meta.Address = fallback.Address
		}
		if meta.Database == "" {
			meta.Database = fallback.Database
		}
		if meta.User == "" {
			meta.User = fallback.User
		}
		if meta.Password == "" {
			meta.Password = fallback.Password
		}
	}
	if err := m.WaitDbPropertiesReady(&meta); err != nil {
		return meta, err
	}
	return meta, nil
}

// WaitDbPropertiesReady asks for missing properties when interactive and
// fails immediately otherwise
func (m *MetaPropertyInitializer) WaitDbPropertiesReady(meta *db.MetaProperties) error {
	missing := meta.Missing()
	if len(missing) == 0 {
		return nil
	}
	if !m.interactive || m.prompt == nil {
		return &ConfigError{
			Field: strings.Join(missing, ", "),
			Err:   errors.New("metadata connection properties not set"),
		}
	}

	for _, name := range missing {
		value, err := m.prompt(name, false)
		if err != nil {
			return &ConfigError{Field: name, Err: err}
		}
		switch name {
		case "meta-address":
			meta.Address = value
		case "meta-database":
			meta.Database = value
		case "meta-user":
			meta.User = value
		}
	}
	if meta.Password == "" {
		value, err := m.prompt("meta-password", true)
		if err != nil {
			return &ConfigError{Field: "meta-password", Err: err}
		}
		meta.Password = value
	}

	if missing := meta.Missing(); len(missing) > 0 {
		return &ConfigError{
			Field: strings.Join(missing, ", "),
			Err:   errors.New("metadata connection properties not set"),
		}
	}
	return nil
}
