package main

import (
	"context"
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/google/logger"
	"github.com/spf13/cobra"

	"secretsanta/internal/draw"
	"secretsanta/internal/services"
	"secretsanta/internal/store"
)

// openService opens the configured store for the offline commands. The
// memory store would be empty on every run, so it is refused.
func openService(cfg *Config) (*services.SantaService, store.Store, error) {
	if cfg.storeKind == store.KindMemory {
		return nil, nil, fmt.Errorf("--store %s keeps nothing between runs; use file or sqlite", cfg.storeKind)
	}
	st, err := store.Open(cfg.storeKind, cfg.dataDir)
	if err != nil {
		return nil, nil, err
	}
	return services.NewSantaService(st, nil, draw.NewGenerator(cfg.maxAttempts, nil)), st, nil
}

func seedCmd(cfg *Config) *cobra.Command {
	var (
		tenant string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the demo participants into a stored draw instance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			service, st, err := openService(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			seeded, err := service.Seed(cmd.Context(), tenant, force)
			if err != nil {
				return err
			}
			if seeded {
				fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d participants into %q.\n", len(services.SeedParticipants), tenant)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%q already has data; use --force to replace it.\n", tenant)
			}
			return nil
		},
	}

	fs := cmd.Flags()
	fs.BoolVar(&force, "force", false, "replace existing data")
	fs.StringVar(&tenant, "tenant", "default", "draw instance to seed")

	return cmd
}

func revealCmd(cfg *Config) *cobra.Command {
	var (
		tenant   string
		name     string
		password string
		copyOut  bool
	)

	cmd := &cobra.Command{
		Use:   "reveal",
		Short: "Show a participant who they are buying a gift for",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			service, st, err := openService(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			giver, to, err := reveal(cmd.Context(), service, tenant, name, password)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s, you are the Secret Santa of %s\n",
				nameStyle.Render(giver), titleStyle.Render(to))

			if copyOut {
				if err := clipboard.WriteAll(to); err != nil {
					logger.Warningf("Failed to copy to clipboard: %v", err)
					return fmt.Errorf("copy to clipboard: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), dimStyle.Render("(copied to clipboard)"))
			}
			return nil
		},
	}

	fs := cmd.Flags()
	fs.BoolVar(&copyOut, "copy", false, "copy the recipient's name to the clipboard")
	fs.StringVar(&name, "name", "", "participant name")
	fs.StringVar(&password, "password", "", "participant password")
	fs.StringVar(&tenant, "tenant", "default", "draw instance to read")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func reveal(ctx context.Context, service *services.SantaService, tenant, name, password string) (string, string, error) {
	giver, to, err := service.Reveal(ctx, tenant, name, password)
	if err != nil {
		logger.Warningf("Reveal for %q in %q failed: %v", name, tenant, err)
		return "", "", err
	}
	return giver, to, nil
}
