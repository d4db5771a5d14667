package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mycitadel/citadel/internal/catalog"
	"github.com/mycitadel/citadel/internal/config"
	"github.com/mycitadel/citadel/internal/wallet"
)

func newInitCommand(flags *globalFlags) *cobra.Command {
	var network string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new wallet repository",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := flags.repoDir
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			if err := runInit(absDir, network); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized %s wallet at %s\n", network, absDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&network, "network", "mainnet", "bitcoin network: mainnet, testnet, signet or regtest")

	return cmd
}

func runInit(dir, network string) error {
	cfg := config.Default(network)
	params, err := cfg.ChainParams()
	if err != nil {
		return err
	}

	if _, err := os.Stat(filepath.Join(dir, config.FileName)); err == nil {
		return fmt.Errorf("%s already exists in %s", config.FileName, dir)
	}

	for _, d := range []string{"logs", "inbox", filepath.Join("inbox", "processed")} {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	if err := config.Save(filepath.Join(dir, config.FileName), cfg); err != nil {
		return err
	}

	svc := catalog.NewService(catalog.DefaultCatalog(params))
	if err := svc.Save(dir); err != nil {
		return fmt.Errorf("writing asset catalog: %w", err)
	}

	if err := wallet.NewService(dir, svc).Init(); err != nil {
		return fmt.Errorf("writing wallet files: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "inbox", ".gitkeep"), []byte{}, 0o644); err != nil {
		return fmt.Errorf("writing .gitkeep: %w", err)
	}
	return nil
}
