// Package main provides questadmin, the operator CLI for the progression
// database: migrations, badge seeding and one-off progression fixes.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"questify/config"
	"questify/events"
	"questify/models"
	"questify/services"
	"questify/store"
	"questify/store/gormstore"
)

func main() {
	if err := rootCmd(openPostgres).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app is what every subcommand works against.
type app struct {
	store       store.Store
	progression *services.ProgressionService
	badges      *services.BadgeService
	users       *services.UserService
	migrate     func() error
}

type opener func(cfg *config.Config) (*app, error)

func openPostgres(cfg *config.Config) (*app, error) {
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL environment variable not set")
	}
	db, err := gormstore.Open(cfg.DatabaseURL, cfg.LogSQL)
	if err != nil {
		return nil, err
	}
	a := newApp(gormstore.New(db), cfg)
	a.migrate = func() error { return gormstore.Migrate(db) }
	return a, nil
}

func newApp(st store.Store, cfg *config.Config) *app {
	opts := services.Options{
		Sink: events.LogSink{},
		Retry: services.RetryConfig{
			MaxAttempts: cfg.RetryMaxAttempts,
			BackoffBase: cfg.RetryBaseDelay,
		},
		Streak: services.StreakPolicy{Location: cfg.Location, CountSameDay: cfg.StreakCountSameDay},
	}
	badges := services.NewBadgeService(st, opts)
	return &app{
		store:       st,
		progression: services.NewProgressionService(st, opts),
		badges:      badges,
		users:       services.NewUserService(st, badges, cfg.DefaultDailyGoal),
	}
}

func rootCmd(open opener) *cobra.Command {
	var a *app

	cmd := &cobra.Command{
		Use:           "questadmin",
		Short:         "Operate the Questify progression database",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(config.New())
			if err != nil {
				return err
			}
			a, err = open(cfg)
			return err
		},
	}

	get := func() *app { return a }
	cmd.AddCommand(
		migrateCmd(get),
		seedBadgesCmd(get),
		grantXPCmd(get),
		resetDailyCmd(get),
		evaluateBadgesCmd(get),
		setRoleCmd(get),
	)
	return cmd
}

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

func migrateCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update every table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			if a.migrate == nil {
				return errors.New("store does not support migrations")
			}
			if err := a.migrate(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✅ migrated")
			return nil
		},
	}
}

func seedBadgesCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-badges FILE",
		Short: "Create or update badges from a YAML catalog",
		Long: `Reads a YAML file of the form

  badges:
    - code: first-steps
      name: First Steps
      required_xp: 100

and upserts each badge by code.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd)
			defer stop()

			f, err := os.Open(args[0])
			if err != nil {
				return errors.Wrap(err, "open badge catalog")
			}
			defer f.Close()

			seeds, err := parseBadgeSeeds(f)
			if err != nil {
				return err
			}
			created, updated, err := seedBadges(ctx, get().badges, seeds)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ %d created, %d updated\n", created, updated)
			return nil
		},
	}
}

func grantXPCmd(get func() *app) *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "grant-xp USER_ID AMOUNT",
		Short: "Grant XP to a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return errors.Wrapf(err, "invalid amount %q", args[1])
			}
			ctx, stop := signalContext(cmd)
			defer stop()

			res, err := get().progression.GrantXP(ctx, args[0], amount, reason)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ %s: xp=%d level=%d daily_xp=%d\n",
				res.Profile.Username, res.Profile.XP, res.Profile.Level, res.Profile.DailyXP)
			return nil
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "Admin grant", "Reason recorded in the activity log")
	return cmd
}

func resetDailyCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-daily [USER_ID]",
		Short: "Zero daily XP for one user, or everyone",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd)
			defer stop()

			if len(args) == 1 {
				if err := get().progression.ResetDailyXP(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✅ reset %s\n", args[0])
				return nil
			}
			n, err := get().progression.ResetAllDailyXP(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ reset %d profile(s)\n", n)
			return nil
		},
	}
}

func evaluateBadgesCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate-badges USER_ID",
		Short: "Award every badge the user is eligible for",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd)
			defer stop()

			awarded, err := get().badges.EvaluateAndAwardBadges(ctx, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✅ %d badge(s) awarded\n", len(awarded))
			for _, b := range awarded {
				fmt.Fprintf(out, "  %s\t%s\n", b.Code, b.Name)
			}
			return nil
		},
	}
}

func setRoleCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set-role USER_ID ROLE",
		Short: "Set a user's role (user or admin)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd)
			defer stop()

			p, err := get().users.SetRole(ctx, args[0], models.Role(args[1]))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ %s is now %s\n", p.Username, p.Role)
			return nil
		},
	}
}
