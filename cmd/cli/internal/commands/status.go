package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

type StatusCmd struct{}

func (s *StatusCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := buildApp(globals)
	if err != nil {
		return err
	}

	snap := app.State.Snapshot()

	// An older session may predate the identity lookup, backfill it here.
	if snap.IsAuthenticated() && snap.OrganizationID == "" {
		if err := app.Controller.SyncIdentity(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to resolve identity")
		}
		snap = app.State.Snapshot()
	}

	fmt.Printf("Status:        %s\n", snap.Status)
	fmt.Printf("Access token:  %s\n", maskToken(snap.AccessToken))
	fmt.Printf("Refresh token: %s\n", maskToken(snap.RefreshToken))

	if snap.OrganizationID != "" {
		fmt.Printf("Organization:  %s\n", snap.OrganizationID)
	}

	if snap.LastError != "" {
		fmt.Printf("Last error:    %s\n", snap.LastError)
	}

	return nil
}
