package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type TokenOptions struct {
	GlobalOptions

	out io.Writer
}

func DefaultTokenOptions() *TokenOptions {
	return &TokenOptions{
		GlobalOptions: DefaultGlobalOptions(),
		out:           os.Stdout,
	}
}

func NewCmdToken() *cobra.Command {
	o := DefaultTokenOptions()
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Request an access token and print the Authorization header value.",
		Args:  cobra.NoArgs,
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

func (o *TokenOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)
}

func (o *TokenOptions) Run(ctx context.Context, args []string) error {
	cfg, err := o.Config()
	if err != nil {
		return err
	}
	token, err := o.Token(ctx, cfg)
	if err != nil {
		return err
	}
	fmt.Fprintln(o.out, token)
	return nil
}
