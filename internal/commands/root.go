// Package commands implements the citadel command line.
package commands

import (
	"fmt"
	"path/filepath"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mycitadel/citadel/internal/buildinfo"
	"github.com/mycitadel/citadel/internal/catalog"
	"github.com/mycitadel/citadel/internal/config"
	"github.com/mycitadel/citadel/internal/logging"
	"github.com/mycitadel/citadel/internal/model"
	"github.com/mycitadel/citadel/internal/wallet"
)

type globalFlags struct {
	repoDir  string
	logLevel string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:     "citadel",
		Short:   "Bitcoin and RGB wallet toolkit",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&flags.repoDir, "repo", ".", "wallet repository directory")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "override the configured log level")

	rootCmd.AddCommand(
		newInitCommand(flags),
		newClassifyCommand(),
		newAmountCommand(),
		newInvoiceCommand(flags),
		newBalanceCommand(flags),
		newAddressCommand(flags),
		newInboxCommand(flags),
	)

	return rootCmd
}

// repo is an opened wallet repository.
type repo struct {
	root    string
	cfg     *config.Config
	params  *chaincfg.Params
	logger  *zap.Logger
	catalog *catalog.Store
	wallet  *wallet.Service
}

func openRepo(flags *globalFlags) (*repo, error) {
	root, err := filepath.Abs(flags.repoDir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	cfg, err := config.Load(filepath.Join(root, config.FileName))
	if err != nil {
		return nil, err
	}
	params, err := cfg.ChainParams()
	if err != nil {
		return nil, err
	}

	logCfg := cfg.Logging
	if flags.logLevel != "" {
		logCfg.Level = flags.logLevel
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, err
	}

	svc, err := catalog.Load(root)
	if err != nil {
		return nil, err
	}
	store := catalog.NewStore(svc)

	return &repo{
		root:    root,
		cfg:     cfg,
		params:  params,
		logger:  logger,
		catalog: store,
		wallet:  wallet.NewService(root, storeLookup{store}),
	}, nil
}

// storeLookup resolves assets against the latest catalog snapshot.
type storeLookup struct {
	store *catalog.Store
}

func (l storeLookup) Lookup(id string) (model.AssetDescriptor, bool) {
	return l.store.Snapshot().Lookup(id)
}

func (l storeLookup) NativeAssetID() string {
	return l.store.Snapshot().NativeAssetID()
}
