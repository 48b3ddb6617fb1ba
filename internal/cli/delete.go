package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type DeleteOptions struct {
	GlobalOptions

	out io.Writer
}

func DefaultDeleteOptions() *DeleteOptions {
	return &DeleteOptions{
		GlobalOptions: DefaultGlobalOptions(),
		out:           os.Stdout,
	}
}

func NewCmdDelete() *cobra.Command {
	o := DefaultDeleteOptions()
	cmd := &cobra.Command{
		Use:   "delete TYPE/NAME",
		Short: "Delete a package or an activity.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			if err := o.Validate(args); err != nil {
				return err
			}
			return o.Run(cmd.Context(), args)
		},
		SilenceUsage: true,
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *DeleteOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)
}

func (o *DeleteOptions) Complete(cmd *cobra.Command, args []string) error {
	if err := o.GlobalOptions.Complete(cmd, args); err != nil {
		return err
	}

	return nil
}

func (o *DeleteOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}

	kind, _, err := parseAndValidateKindId(args[0])
	if err != nil {
		return err
	}
	if kind == WorkItemKind {
		return fmt.Errorf("work items cannot be deleted")
	}
	return nil
}

func (o *DeleteOptions) Run(ctx context.Context, args []string) error {
	cfg, err := o.Config()
	if err != nil {
		return err
	}
	c, err := o.Client(ctx, cfg)
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}

	kind, id, err := parseAndValidateKindId(args[0])
	if err != nil {
		return err
	}
	switch kind {
	case PackageKind:
		err = c.DeleteAppPackage(ctx, id)
	case ActivityKind:
		err = c.DeleteActivity(ctx, id)
	default:
		return fmt.Errorf("unsupported resource kind: %s", kind)
	}
	if err != nil {
		return fmt.Errorf("deleting %s/%s: %w", kind, id, err)
	}
	fmt.Fprintf(o.out, "%s/%s deleted\n", kind, id)
	return nil
}
