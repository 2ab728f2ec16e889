package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog/log"

	"github.com/rodortega/calcli/cmd/cli/internal/commands"
	"github.com/rodortega/calcli/internal/logger"
)

var (
	version = "dev"
	cli     struct {
		Login    commands.LoginCmd    `cmd:"" help:"Log in to the calendar service"`
		Logout   commands.LogoutCmd   `cmd:"" help:"Log out and erase stored credentials"`
		Refresh  commands.RefreshCmd  `cmd:"" help:"Exchange the refresh token for a new pair"`
		Status   commands.StatusCmd   `cmd:"" help:"Show the current session"`
		Events   commands.EventsCmd   `cmd:"" help:"Manage calendar events"`
		Contacts commands.ContactsCmd `cmd:"" help:"Search contacts"`
		Debug    bool                 `help:"Enable debug mode."`
		Config   string               `help:"Path to the config file." type:"path"`
		Version  kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))

	log.Logger = logger.Setup(cli.Debug)

	err := cmd.Run(&commands.Globals{Debug: cli.Debug, ConfigPath: cli.Config, Version: version})
	cmd.FatalIfErrorf(err)
}
