// Package main provides the vibe-gene command-line tool.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const configName = ".vibe-gene"

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitError
	}
	return ExitSuccess
}

func newRootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   "vibe-gene",
		Short: "Browse human genes, reference sequence and ClinVar variants",
		Long: `vibe-gene looks up human genes through NCBI, fetches reference sequence
windows from the UCSC Genome Browser and lists the ClinVar variants inside a
gene, optionally scoring single nucleotide variants with Evo2.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(); err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				viper.Set("log.level", logLevel)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringP("genome", "g", "", "Genome assembly id (default from config, hg38)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	viper.BindPFlag("genome", cmd.PersistentFlags().Lookup("genome"))

	cmd.AddCommand(
		newGenomesCmd(),
		newChromosomesCmd(),
		newSearchCmd(),
		newBrowseCmd(),
		newGeneCmd(),
		newSequenceCmd(),
		newVariantsCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("vibe-gene version %s (%s) built %s\n", version, commit, date)
		},
	}
}

// initConfig loads .env, ~/.vibe-gene.yaml and VIBE_GENE_* environment
// variables, in increasing precedence.
func initConfig() error {
	// .env is optional.
	envErr := godotenv.Load()

	viper.SetDefault("genome", "hg38")
	viper.SetDefault("http.timeout", 30*time.Second)
	viper.SetDefault("log.level", "warn")
	viper.SetDefault("ncbi.rate_limit", 0.0)
	viper.SetDefault("evo2.timeout", 5*time.Minute)

	viper.SetEnvPrefix("VIBE_GENE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	viper.BindEnv("ncbi.api_key", "VIBE_GENE_NCBI_API_KEY", "NCBI_API_KEY")

	if cfgFile, err := configPath(); err == nil {
		viper.SetConfigFile(cfgFile)
		if _, err := os.Stat(cfgFile); err == nil {
			if err := viper.ReadInConfig(); err != nil {
				return fmt.Errorf("reading config %s: %w", cfgFile, err)
			}
		}
	}

	if envErr != nil && !os.IsNotExist(envErr) {
		return fmt.Errorf("loading .env: %w", envErr)
	}
	return nil
}

// loggerFromConfig builds the process logger at the configured level.
func loggerFromConfig() *zap.Logger {
	logger, err := newLogger(viper.GetString("log.level"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v, logging disabled\n", err)
		return zap.NewNop()
	}
	return logger
}
