package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/xiaodongliang/design.automation-.net-custom.activity.sample/internal/client"
)

type ConfigInitOptions struct {
	GlobalOptions

	ClientID     string
	ClientSecret string
	Force        bool

	out io.Writer
}

func DefaultConfigInitOptions() *ConfigInitOptions {
	return &ConfigInitOptions{
		GlobalOptions: DefaultGlobalOptions(),
		out:           os.Stdout,
	}
}

func NewCmdConfig() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the client config file.",
	}
	cmd.AddCommand(NewCmdConfigInit())
	return cmd
}

func NewCmdConfigInit() *cobra.Command {
	o := DefaultConfigInitOptions()
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a client config file with the service address and credentials.",
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

func (o *ConfigInitOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.StringVar(&o.ClientID, "client-id", o.ClientID, "Consumer key of the application")
	fs.StringVar(&o.ClientSecret, "client-secret", o.ClientSecret, "Consumer secret of the application")
	fs.BoolVar(&o.Force, "force", o.Force, "Overwrite an existing config file")
}

func (o *ConfigInitOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	if o.ClientID == "" || o.ClientSecret == "" {
		return fmt.Errorf("--client-id and --client-secret are required")
	}
	if _, err := os.Stat(o.ConfigFilePath); err == nil && !o.Force && !o.unchanged() {
		return fmt.Errorf("%s already exists, use --force to overwrite it", o.ConfigFilePath)
	}
	return nil
}

func (o *ConfigInitOptions) Run(ctx context.Context, args []string) error {
	if o.unchanged() {
		fmt.Fprintf(o.out, "%s is up to date\n", o.ConfigFilePath)
		return nil
	}
	if err := client.WriteConfig(o.ConfigFilePath, o.server(), o.credentials()); err != nil {
		return err
	}
	fmt.Fprintf(o.out, "wrote %s\n", o.ConfigFilePath)
	return nil
}

func (o *ConfigInitOptions) server() string {
	if o.ServerUrl != "" {
		return o.ServerUrl
	}
	return client.DefaultServer
}

func (o *ConfigInitOptions) credentials() client.Credentials {
	return client.Credentials{ClientID: o.ClientID, ClientSecret: o.ClientSecret}
}

// unchanged reports whether the file on disk already holds the requested service and
// credentials.
func (o *ConfigInitOptions) unchanged() bool {
	existing, err := client.ParseConfigFile(o.ConfigFilePath)
	if err != nil {
		return false
	}
	want := client.NewDefault()
	want.Service.Server = o.server()
	want.Credentials = o.credentials()
	return existing.Equal(want)
}
