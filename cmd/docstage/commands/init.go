package commands

import (
	"fmt"
	"path/filepath"

	"git.home.luguber.info/inful/docstage/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force  bool   `help:"Overwrite existing configuration file"`
	Output string `short:"o" name:"output" help:"Directory to write docstage.yaml into" type:"path"`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	path := root.Config
	if i.Output != "" {
		path = filepath.Join(i.Output, "docstage.yaml")
	}
	fmt.Printf("Writing configuration to %s\n", path)
	if err := config.Init(path, i.Force); err != nil {
		return err
	}
	fmt.Println("initialized successfully")
	return nil
}
