package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/polkiloo/paperdesk/internal/adapter/notify"
	"github.com/polkiloo/paperdesk/internal/adapter/paypal"
	"github.com/polkiloo/paperdesk/internal/app"
	"github.com/polkiloo/paperdesk/internal/config"
	"github.com/polkiloo/paperdesk/internal/di"
	"github.com/polkiloo/paperdesk/internal/domain/model"
	"github.com/polkiloo/paperdesk/internal/domain/repository"
	"github.com/polkiloo/paperdesk/internal/storage/postgres"
	"github.com/polkiloo/paperdesk/internal/usecase"
	"github.com/polkiloo/paperdesk/internal/worker"
)

type rootOptions struct {
	databaseURI string
	logLevel    string
}

// configArgs turns CLI flags into the service's own flag syntax so both
// binaries resolve configuration the same way.
func (o *rootOptions) configArgs() []string {
	var args []string
	if o.databaseURI != "" {
		args = append(args, "-d", o.databaseURI)
	}
	if o.logLevel != "" {
		args = append(args, "-log-level", o.logLevel)
	}
	return args
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:          "paperctl",
		Short:        "Maintenance commands for paperdesk",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.databaseURI, "database", "d", "", "PostgreSQL DSN (defaults to DATABASE_URI)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newRoleCmd(opts, model.RoleAdmin),
		newRoleCmd(opts, model.RoleWriter),
		newReconcileCmd(opts),
		newMigrateCmd(opts),
	)
	return root
}

func newRoleCmd(opts *rootOptions, role model.Role) *cobra.Command {
	cmd := &cobra.Command{
		Use:   string(role),
		Short: fmt.Sprintf("Grant or revoke the %s role", role),
	}
	for _, enabled := range []bool{true, false} {
		verb := "grant"
		if !enabled {
			verb = "revoke"
		}
		cmd.AddCommand(&cobra.Command{
			Use:   verb + " <email>",
			Short: fmt.Sprintf("%s the %s role", verb, role),
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withGraph(cmd.Context(), opts, func(caps *usecase.CapabilityService) error {
					profile, err := caps.SetRole(cmd.Context(), args[0], role, enabled)
					if err != nil {
						return err
					}
					cmd.Printf("%s: %s=%t\n", profile.Email, role, enabled)
					return nil
				})
			},
		})
	}
	return cmd
}

func newReconcileCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Run one reconciliation pass over pending payments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withGraph(cmd.Context(), opts, func(r *worker.Reconciler) error {
				report, err := r.RunOnce(cmd.Context())
				if err != nil {
					return err
				}
				cmd.Printf("reconciled=%d inserted=%d recovered=%d expired=%d failed=%d\n",
					report.Reconciled, report.Inserted, report.Recovered, report.Expired, report.Failed)
				if report.Failed > 0 {
					return fmt.Errorf("%d payments could not be reconciled", report.Failed)
				}
				return nil
			})
		},
	}
}

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadArgs(opts.configArgs())
			if err != nil {
				return err
			}
			if err := postgres.Migrate(cfg.DatabaseURI); err != nil {
				return err
			}
			cmd.Println("migrations applied")
			return nil
		},
	}
}

type cliParams struct {
	fx.In

	Profiles repository.ProfileRepository
	Cache    repository.CapabilityCache
	Config   *config.Config
	Logger   *slog.Logger
}

type reconcileParams struct {
	fx.In

	Payments repository.PaymentRepository
	Orders   repository.OrderRepository
	Gateway  paypal.Gateway
	Notifier notify.Notifier
	Config   *config.Config
	Logger   *slog.Logger
}

func newCapabilityService(p cliParams) *usecase.CapabilityService {
	return usecase.NewCapabilityService(p.Profiles, p.Cache, p.Config, p.Logger)
}

func newReconciler(p reconcileParams) *worker.Reconciler {
	return worker.NewReconciler(p.Payments, p.Orders, p.Gateway, p.Notifier, app.ReconcilerOptions(p.Config), p.Logger)
}

// withGraph builds the infrastructure part of the service graph, hands the
// requested component to fn and tears the graph down afterwards.
func withGraph[T any](ctx context.Context, opts *rootOptions, fn func(T) error) error {
	cfg, err := config.LoadArgs(opts.configArgs())
	if err != nil {
		return err
	}

	var dep T
	graph := fx.New(
		fx.NopLogger,
		fx.Provide(func() context.Context { return ctx }),
		di.Infrastructure(),
		paypal.Module,
		fx.Replace(cfg),
		fx.Provide(newCapabilityService, newReconciler),
		fx.Populate(&dep),
	)
	if err := graph.Err(); err != nil {
		return err
	}
	if err := graph.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = graph.Stop(context.WithoutCancel(ctx)) }()

	return fn(dep)
}
