package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/ignite/loyalty-crm/internal/aigateway"
	"github.com/ignite/loyalty-crm/internal/churn"
	"github.com/ignite/loyalty-crm/internal/config"
	"github.com/ignite/loyalty-crm/internal/domain"
	"github.com/ignite/loyalty-crm/internal/offer"
	"github.com/ignite/loyalty-crm/internal/pkg/logger"
	"github.com/ignite/loyalty-crm/internal/scoring"
	"github.com/ignite/loyalty-crm/internal/sentiment"
)

type rootOptions struct {
	configPath string
	useAI      bool
	timeout    time.Duration
	verbose    bool

	profile    domain.CustomerProfile
	categories []string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "loyaltyctl",
		Short: "Score customer profiles offline or against the configured AI providers",
		Long: `loyaltyctl runs the loyalty engine on a profile given as flags.

Without --ai every command uses the deterministic scoring and fallbacks.
With --ai the provider chain from the config file (and environment) is used.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.verbose {
				logger.SetLevel(logger.DEBUG)
			} else {
				logger.SetLevel(logger.ERROR)
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "config/config.yaml", "config file, used with --ai")
	pf.BoolVar(&opts.useAI, "ai", false, "call the configured AI providers")
	pf.DurationVar(&opts.timeout, "timeout", time.Minute, "overall timeout")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging to stderr")

	pf.IntVar(&opts.profile.PurchaseCount, "purchases", 0, "number of purchases")
	pf.Float64Var(&opts.profile.TotalSpent, "spent", 0, "total amount spent")
	pf.Float64Var(&opts.profile.DaysInactive, "days", 0, "days since last activity")
	pf.Float64Var(&opts.profile.EngagementScore, "engagement", 0, "engagement score 0-1 (scoring treats 0 as unknown)")
	pf.Float64Var(&opts.profile.FeedbackScore, "feedback", 0, "feedback score 0-5")
	pf.Float64Var(&opts.profile.CustomerLifetime, "lifetime", 0, "customer lifetime in days (default 365 minus --days)")
	pf.StringSliceVar(&opts.categories, "categories", nil, "preferred product categories")

	root.AddCommand(
		newScoreCmd(opts),
		newOfferCmd(opts),
		newChurnCmd(opts),
		newPredictCmd(opts),
		newSentimentCmd(opts),
	)
	return root
}

func (o *rootOptions) manualProfile() domain.CustomerProfile {
	p := o.profile
	p.PreferredCategories = o.categories
	return scoring.ManualProfile(p)
}

func (o *rootOptions) generator(ctx context.Context) (aigateway.Generator, error) {
	if !o.useAI {
		return aigateway.Disabled{}, nil
	}
	cfg, err := config.LoadFromEnv(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return aigateway.FromConfig(ctx, cfg.AI), nil
}

// withGenerator wraps a command body with the timeout and generator setup.
func (o *rootOptions) withGenerator(fn func(ctx context.Context, gen aigateway.Generator, out io.Writer) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), o.timeout)
		defer cancel()
		gen, err := o.generator(ctx)
		if err != nil {
			return err
		}
		return fn(ctx, gen, cmd.OutOrStdout())
	}
}

func newScoreCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "score",
		Short: "Compute the loyalty score and category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res := scoring.Compute(o.manualProfile())
			return printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"loyaltyScore":       res.Score,
				"category":           res.Category,
				"recommendedActions": scoring.RecommendedActions(res.Category),
			})
		},
	}
}

func newOfferCmd(o *rootOptions) *cobra.Command {
	var parseFallback string
	cmd := &cobra.Command{
		Use:   "offer",
		Short: "Generate a personalized offer",
		Args:  cobra.NoArgs,
		RunE: o.withGenerator(func(ctx context.Context, gen aigateway.Generator, out io.Writer) error {
			g := offer.NewGenerator(gen, offer.WithParseFallback(offer.ParseStrategy(parseFallback)))
			o2, source := g.GenerateWithSource(ctx, o.manualProfile())
			return printJSON(out, map[string]interface{}{"offer": o2, "source": source})
		}),
	}
	cmd.Flags().StringVar(&parseFallback, "parse-fallback", string(offer.StrategyRich), "fallback for unparsable AI answers: rich, basic or salvage")
	return cmd
}

func newChurnCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "churn",
		Short: "Estimate churn risk",
		Args:  cobra.NoArgs,
		RunE: o.withGenerator(func(ctx context.Context, gen aigateway.Generator, out io.Writer) error {
			risk, source := churn.NewEstimator(gen).EstimateWithSource(ctx, scoring.ManualSignals(o.profile))
			return printJSON(out, map[string]interface{}{"churnRisk": risk, "source": source})
		}),
	}
}

func newPredictCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "predict",
		Short: "Predict a loyalty score with the AI model, falling back to RFM",
		Args:  cobra.NoArgs,
		RunE: o.withGenerator(func(ctx context.Context, gen aigateway.Generator, out io.Writer) error {
			return printJSON(out, scoring.NewPredictor(gen).Predict(ctx, o.manualProfile()))
		}),
	}
}

func newSentimentCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sentiment <feedback text>",
		Short: "Analyze the sentiment of a feedback comment (requires --ai)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), o.timeout)
			defer cancel()
			gen, err := o.generator(ctx)
			if err != nil {
				return err
			}
			res, err := sentiment.NewAnalyzer(gen).Analyze(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
