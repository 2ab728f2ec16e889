package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

type LoginCmd struct {
	Email    string `help:"Broker email address" required:""`
	Password string `help:"Password (prompted when omitted)" env:"CALCLI_PASSWORD"`
}

func (l *LoginCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := buildApp(globals)
	if err != nil {
		return err
	}

	password := l.Password
	if password == "" {
		password, err = promptPassword()
		if err != nil {
			return err
		}
	}

	if err := app.Controller.Login(ctx, l.Email, password); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	snap := app.State.Snapshot()
	if snap.OrganizationID != "" {
		fmt.Printf("Logged in as %s (organization %s)\n", l.Email, snap.OrganizationID)
	} else {
		fmt.Printf("Logged in as %s\n", l.Email)
	}

	return nil
}

func promptPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Password: ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
