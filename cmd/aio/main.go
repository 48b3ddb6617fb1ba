package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/xiaodongliang/design.automation-.net-custom.activity.sample/internal/cli"
	"go.uber.org/zap"
)

func main() {
	command := NewAioCommand()
	err := command.Execute()
	_ = zap.L().Sync()
	if err != nil {
		os.Exit(1)
	}
}

func NewAioCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aio [flags] [options]",
		Short: "aio runs custom activities on the AutoCAD I/O service.",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
			os.Exit(1)
		},
	}
	cmd.AddCommand(cli.NewCmdRun())
	cmd.AddCommand(cli.NewCmdSubmit())
	cmd.AddCommand(cli.NewCmdGet())
	cmd.AddCommand(cli.NewCmdDelete())
	cmd.AddCommand(cli.NewCmdToken())
	cmd.AddCommand(cli.NewCmdConfig())
	cmd.AddCommand(cli.NewCmdVersion())

	return cmd
}
