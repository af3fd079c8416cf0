// Command notifykit sends tenant test emails and manages the notifykit schema.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/notifykit/pkg/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		stop()
		os.Exit(1)
	}
}

// cli holds state shared by the subcommands of one invocation.
type cli struct {
	out      io.Writer
	logOut   io.Writer
	envFiles []string
	app      *app
}

func newRootCmd(out, logOut io.Writer) *cobra.Command {
	c := &cli{out: out, logOut: logOut}

	root := &cobra.Command{
		Use:           "notifykit",
		Short:         "Tenant notification test sends",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if len(c.envFiles) > 0 {
				if err := config.LoadEnv(c.envFiles...); err != nil {
					return err
				}
				config.ResetCache()
			}
			var cfg appConfig
			if err := config.Load(&cfg); err != nil {
				return err
			}
			c.app = newApp(cfg, c.logOut)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if c.app == nil {
				return nil
			}
			return c.app.Close()
		},
	}
	root.SetOut(out)
	root.PersistentFlags().StringSliceVar(&c.envFiles, "env-file", nil, "dotenv files to load before reading the environment (later files win)")

	root.AddCommand(
		c.sendTestCmd(),
		c.migrateCmd(),
		c.cacheCmd(),
		c.checkCmd(),
		c.providersCmd(),
		c.keygenCmd(),
	)
	return root
}
