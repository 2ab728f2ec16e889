package commands

import (
	"context"
	"fmt"
)

type RefreshCmd struct{}

func (r *RefreshCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := buildApp(globals)
	if err != nil {
		return err
	}

	if err := app.Controller.Refresh(ctx); err != nil {
		return fmt.Errorf("refresh failed: %w", err)
	}

	snap := app.State.Snapshot()
	fmt.Printf("Session refreshed, access token %s\n", maskToken(snap.AccessToken))

	return nil
}
