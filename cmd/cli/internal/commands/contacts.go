package commands

import (
	"context"
	"fmt"
	"strings"
)

type ContactsCmd struct {
	Search ContactsSearchCmd `cmd:"" help:"Autocomplete contacts by name or email"`
}

type ContactsSearchCmd struct {
	Query string `arg:"" optional:"" help:"Search term"`
}

func (s *ContactsSearchCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := buildApp(globals)
	if err != nil {
		return err
	}

	// Autocomplete responses carry cache headers, use the caching client.
	contacts, err := app.CachedAPI.AutocompleteContacts(ctx, s.Query)
	if err != nil {
		return fmt.Errorf("failed to search contacts: %w", err)
	}

	if len(contacts) == 0 {
		fmt.Println("No contacts found.")
		return nil
	}

	fmt.Printf("%-36s %-25s %-30s\n", "Contact ID", "Name", "Email")
	fmt.Println(strings.Repeat("─", 94))

	for _, contact := range contacts {
		name := contact.Name
		if len(name) > 25 {
			name = name[:22] + "..."
		}

		fmt.Printf("%-36s %-25s %-30s\n", contact.ID, name, contact.Email)
	}

	fmt.Printf("\nTotal contacts: %d\n", len(contacts))

	return nil
}
