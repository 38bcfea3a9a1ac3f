package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "recipebox",
		Short: "Browse, save and shop recipes from the terminal",
		Long: `recipebox talks to the recipe-sharing service. Run it without a
command for the interactive prompt, or use the subcommands in scripts.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd); err != nil {
				return errors.Join(err, a.close())
			}
			return nil
		},
		RunE: a.action(false, func(ctx context.Context, cmd *cobra.Command, args []string) error {
			return a.interactive(ctx)
		}),
	}
	a.opts.bind(root)

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newRegisterCmd(a),
		newWhoAmICmd(a),
		newRecipesCmd(a),
		newFavoritesCmd(a),
		newCartCmd(a),
		newSubscriptionsCmd(a),
		newConfigCmd(a),
	)
	return root
}

type runFunc func(ctx context.Context, cmd *cobra.Command, args []string) error

// action adapts fn to cobra and releases the app however fn returns. With
// session set, the stored session is restored before fn runs.
func (a *app) action(session bool, fn runFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if session {
			a.bootstrap(ctx)
		}
		err := fn(ctx, cmd, args)
		if cerr := a.close(); cerr != nil {
			return errors.Join(err, cerr)
		}
		return err
	}
}

// parseID reads a positive numeric argument.
func parseID(what, s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, s)
	}
	return id, nil
}
