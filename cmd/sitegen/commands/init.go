package commands

import (
	"fmt"
	"os"

	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/errors"
)

// InitCmd implements the 'init' command: write a starter configuration.
type InitCmd struct {
	Force bool `help:"Overwrite an existing configuration file"`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	if _, err := os.Stat(root.Config); err == nil && !i.Force {
		return errors.New(errors.CategoryConfig, errors.SeverityFatal,
			fmt.Sprintf("%s already exists (use --force to overwrite)", root.Config))
	}

	data, err := config.Default().Marshal()
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "serialize default configuration")
	}
	if err := os.WriteFile(root.Config, data, 0o644); err != nil { // #nosec G306 -- config is not a secret
		return errors.WrapError(err, errors.CategoryFileSystem, "write configuration file")
	}

	fmt.Printf("Wrote %s\n", root.Config)
	return nil
}
