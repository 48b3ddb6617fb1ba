package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/xiaodongliang/design.automation-.net-custom.activity.sample/pkg/version"
)

type VersionOptions struct {
	Output string

	out io.Writer
}

func DefaultVersionOptions() *VersionOptions {
	return &VersionOptions{
		Output: "",
		out:    os.Stdout,
	}
}

func NewCmdVersion() *cobra.Command {
	o := DefaultVersionOptions()
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print aio version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.Run(cmd.Context(), args)
		},
	}
	cmd.Flags().StringVarP(&o.Output, "output", "o", o.Output, "Output format. One of: (json).")
	return cmd
}

func (o *VersionOptions) Run(ctx context.Context, args []string) error {
	versionInfo := version.Get()
	if o.Output == jsonFormat {
		return json.NewEncoder(o.out).Encode(versionInfo)
	}
	fmt.Fprintf(o.out, "aio Version: %s\n", versionInfo.String())
	fmt.Fprintf(o.out, "Go Version: %s %s\n", versionInfo.GoVersion, versionInfo.Platform)
	return nil
}
