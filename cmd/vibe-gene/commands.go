package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/vibe-gene/internal/duckdb"
	"github.com/inodb/vibe-gene/internal/genome"
	"github.com/inodb/vibe-gene/internal/output"
	"github.com/inodb/vibe-gene/internal/session"
)

func newGenomesCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "genomes",
		Short: "List human genome assemblies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := newApp()
			defer a.close()

			if all {
				groups, err := a.ucsc.ListGenomes(cmd.Context())
				if err != nil {
					return err
				}
				organisms := make([]string, 0, len(groups))
				for org := range groups {
					organisms = append(organisms, org)
				}
				sort.Strings(organisms)
				for _, org := range organisms {
					fmt.Printf("## %s\n", org)
					if err := output.WriteAssemblies(os.Stdout, groups[org]); err != nil {
						return err
					}
				}
				return nil
			}

			if err := a.sess.LoadGenomes(cmd.Context()); err != nil {
				return err
			}
			return output.WriteAssemblies(os.Stdout, a.sess.Snapshot().Assemblies)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "List assemblies of every organism, grouped")
	return cmd
}

func newChromosomesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chromosomes",
		Short: "List the placed chromosomes of the assembly in karyotype order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := newApp()
			defer a.close()

			if err := a.sess.LoadChromosomes(cmd.Context()); err != nil {
				return err
			}
			return output.WriteChromosomes(os.Stdout, a.sess.Snapshot().Chromosomes)
		},
	}
}

func newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search human genes by symbol or name",
		Example: `  vibe-gene search BRCA1
  vibe-gene search "tumor protein"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := newApp()
			defer a.close()

			if err := a.sess.Search(cmd.Context(), args[0]); err != nil {
				return err
			}
			return writeResults(a.sess.Snapshot())
		},
	}
}

func newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse [chrom]",
		Short: "List genes located on a chromosome",
		Long:  "List genes located on a chromosome. Defaults to the first chromosome of the assembly.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := newApp()
			defer a.close()
			ctx := cmd.Context()

			if err := a.sess.LoadChromosomes(ctx); err != nil {
				return err
			}
			if len(args) == 1 {
				if err := a.sess.SelectChromosome(ctx, genome.WithChrPrefix(args[0])); err != nil {
					return err
				}
			}
			if err := a.sess.SwitchMode(ctx, session.ModeBrowse); err != nil {
				return err
			}
			return writeResults(a.sess.Snapshot())
		},
	}
}

func writeResults(st session.State) error {
	if msg := st.EmptyMessage(); msg != "" {
		fmt.Fprintln(os.Stderr, msg)
		return nil
	}
	return output.WriteHits(os.Stdout, st.Results)
}

func newGeneCmd() *cobra.Command {
	var start, end string

	cmd := &cobra.Command{
		Use:   "gene <symbol-or-id>",
		Short: "Show a gene's coordinates and its initial sequence window",
		Example: `  vibe-gene gene BRCA1
  vibe-gene gene TP53 --start 7668402 --end 7669402`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := newApp()
			defer a.close()
			ctx := cmd.Context()

			st, err := a.selectGene(ctx, args[0])
			if err != nil {
				return err
			}
			printGene(st)
			if st.Bounds == nil {
				return nil
			}

			if start != "" || end != "" {
				if st, err = loadRange(cmd, a, st, start, end); err != nil {
					return err
				}
			}
			return output.WriteFASTA(os.Stdout, st.GenomeID, st.Gene.Chrom, st.Sequence)
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "Window start (1-based, inclusive)")
	cmd.Flags().StringVar(&end, "end", "", "Window end (inclusive)")
	return cmd
}

func newSequenceCmd() *cobra.Command {
	var start, end string

	cmd := &cobra.Command{
		Use:   "sequence <gene>",
		Short: "Fetch a reference sequence window inside a gene",
		Long: fmt.Sprintf(`Fetch a reference sequence window inside a gene. The window must lie within
the gene and span at most %s bp.`, humanize.Comma(genome.MaxViewSpan)),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := newApp()
			defer a.close()

			st, err := a.selectGene(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if st.Bounds == nil {
				return fmt.Errorf("%s has no genomic coordinates", st.Gene.Symbol)
			}
			if st, err = loadRange(cmd, a, st, start, end); err != nil {
				return err
			}
			return output.WriteFASTA(os.Stdout, st.GenomeID, st.Gene.Chrom, st.Sequence)
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "Window start (1-based, inclusive)")
	cmd.Flags().StringVar(&end, "end", "", "Window end (inclusive)")
	cmd.MarkFlagRequired("start")
	cmd.MarkFlagRequired("end")
	return cmd
}

// loadRange validates the edited range and fetches its sequence. Empty
// values keep the current field.
func loadRange(cmd *cobra.Command, a *app, st session.State, start, end string) (session.State, error) {
	if start == "" {
		start = st.StartText
	}
	if end == "" {
		end = st.EndText
	}
	a.sess.EditRange(start, end)
	if err := a.sess.LoadSequence(cmd.Context()); err != nil {
		return st, err
	}
	return a.sess.Snapshot(), nil
}

func printGene(st session.State) {
	g := st.Gene
	fmt.Fprintf(os.Stderr, "%s (%s) gene %s on %s\n", g.Symbol, g.Name, g.GeneID, st.GenomeID)
	if st.Detail != nil && st.Detail.Summary != "" {
		fmt.Fprintf(os.Stderr, "  %s\n", st.Detail.Summary)
	}
	if st.Bounds == nil {
		fmt.Fprintln(os.Stderr, "  No genomic coordinates available")
		return
	}
	fmt.Fprintf(os.Stderr, "  %s:%s-%s (%s bp, strand %s)\n",
		g.Chrom, humanize.Comma(st.Bounds.Min), humanize.Comma(st.Bounds.Max),
		humanize.Comma(st.Bounds.Span()), st.Detail.GenomicInfo[0].Strand)
	if st.VariantError != "" {
		fmt.Fprintf(os.Stderr, "  %s\n", st.VariantError)
	} else {
		fmt.Fprintf(os.Stderr, "  %d ClinVar variants\n", len(st.Variants))
	}
}

func newVariantsCmd() *cobra.Command {
	var (
		analyze bool
		workers int
		export  string
	)

	cmd := &cobra.Command{
		Use:   "variants <gene>",
		Short: "List ClinVar variants inside a gene",
		Example: `  vibe-gene variants BRCA1
  vibe-gene variants BRCA1 --analyze
  vibe-gene variants BRCA1 --export brca1.duckdb`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := newApp()
			defer a.close()
			ctx := cmd.Context()

			st, err := a.selectGene(ctx, args[0])
			if err != nil {
				return err
			}
			if st.Bounds == nil {
				return fmt.Errorf("%s has no genomic coordinates", st.Gene.Symbol)
			}
			if st.VariantError != "" {
				return fmt.Errorf("%s: %w", st.VariantError, a.sess.Variants().Err())
			}

			if analyze {
				client, err := a.evo2Client()
				if err != nil {
					return err
				}
				n, err := a.sess.EnrichVariants(ctx, client, workers)
				if err != nil {
					return err
				}
				a.logger.Info("analyzed variants", zap.Int("count", n))
			}

			st = a.sess.Snapshot()
			if export != "" {
				if err := exportVariants(a, st, export); err != nil {
					return err
				}
			}
			return output.WriteVariants(os.Stdout, st.Variants)
		},
	}

	cmd.Flags().BoolVar(&analyze, "analyze", false, "Score single nucleotide variants with Evo2")
	cmd.Flags().IntVar(&workers, "workers", 2, "Concurrent Evo2 requests")
	cmd.Flags().StringVar(&export, "export", "", "Also write the variants to a DuckDB file")
	return cmd
}

func exportVariants(a *app, st session.State, path string) error {
	store, err := duckdb.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	e, err := store.WriteVariants(duckdb.NewExport(st.GenomeID, *st.Gene, *st.Bounds), st.Variants)
	if err != nil {
		return fmt.Errorf("export variants: %w", err)
	}
	a.logger.Info("exported variants",
		zap.String("path", path),
		zap.String("export_id", e.ID),
		zap.Int64("count", e.VariantCount))
	fmt.Fprintf(os.Stderr, "Wrote %d variants to %s\n", e.VariantCount, path)
	return nil
}
