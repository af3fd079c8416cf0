package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/notifykit/pkg/config"
	"github.com/dmitrymomot/notifykit/pkg/mongo"
	"github.com/dmitrymomot/notifykit/pkg/pg"
	"github.com/dmitrymomot/notifykit/pkg/redis"
	"github.com/dmitrymomot/notifykit/pkg/secrets"
	"github.com/dmitrymomot/notifykit/pkg/tenant"
)

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the tenants and integrations schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var cfg pg.Config
			if err := config.Load(&cfg); err != nil {
				return err
			}
			pool, err := c.app.postgres(ctx)
			if err != nil {
				return err
			}
			if err := pg.Migrate(ctx, pool, cfg, c.app.log); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func (c *cli) cacheCmd() *cobra.Command {
	var tenantID string

	purge := &cobra.Command{
		Use:   "purge",
		Short: "Drop cached tenants from redis",
		Long:  "Drop one cached tenant with --tenant, or every entry under TENANT_CACHE_PREFIX.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, cfg, err := c.app.redis(ctx)
			if err != nil {
				return err
			}

			if tenantID != "" {
				id, err := tenant.ParseID(tenantID)
				if err != nil {
					return err
				}
				tenant.NewRedisCache(client, c.app.cfg.TenantCachePrefix).Delete(ctx, id.String())
				fmt.Fprintf(cmd.OutOrStdout(), "purged tenant %s\n", id)
				return nil
			}

			n, err := redis.DeleteByPrefix(ctx, client, c.app.cfg.TenantCachePrefix, cfg.ScanBatchSize)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "purged %d cached tenants\n", n)
			return nil
		},
	}
	purge.Flags().StringVar(&tenantID, "tenant", "", "purge a single tenant")

	cmd := &cobra.Command{Use: "cache", Short: "Tenant cache maintenance"}
	cmd.AddCommand(purge)
	return cmd
}

type healthCheck struct {
	name string
	run  func(context.Context) error
}

// checkCmd pings every configured backend. Postgres is always checked; redis
// and mongo only when the features using them are enabled.
func (c *cli) checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check connectivity to the configured backends",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			checks := []healthCheck{
				{name: "postgres", run: func(ctx context.Context) error {
					pool, err := c.app.postgres(ctx)
					if err != nil {
						return err
					}
					return pg.Healthcheck(pool)(ctx)
				}},
			}
			if c.app.cfg.UseRedisCache {
				checks = append(checks, healthCheck{name: "redis", run: func(ctx context.Context) error {
					client, _, err := c.app.redis(ctx)
					if err != nil {
						return err
					}
					return redis.Healthcheck(client)(ctx)
				}})
			}
			if c.app.cfg.UseMongoTemplates {
				checks = append(checks, healthCheck{name: "mongo", run: func(ctx context.Context) error {
					var cfg mongo.Config
					if err := config.Load(&cfg); err != nil {
						return err
					}
					client, err := mongo.New(ctx, cfg)
					if err != nil {
						return err
					}
					defer func() { _ = client.Disconnect(context.WithoutCancel(ctx)) }()
					return mongo.Healthcheck(client)(ctx)
				}})
			}

			// Backends are probed concurrently; results are reported in check order.
			results := make([]error, len(checks))
			var g errgroup.Group
			for i, check := range checks {
				g.Go(func() error {
					results[i] = check.run(ctx)
					return nil
				})
			}
			_ = g.Wait()

			var errs []error
			for i, check := range checks {
				if err := results[i]; err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", check.name, err)
					errs = append(errs, fmt.Errorf("%s: %w", check.name, err))
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", check.name)
			}
			return errors.Join(errs...)
		},
	}
}

func (c *cli) providersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List the email providers this build can dispatch to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, id := range c.app.registry().Providers() {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}

func (c *cli) keygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Print a random hex key usable as APP_KEY or a tenant secret key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := secrets.GenerateKey()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(key))
			return nil
		},
	}
}
