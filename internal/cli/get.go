package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/thoas/go-funk"
	api "github.com/xiaodongliang/design.automation-.net-custom.activity.sample/api/v1alpha1"
	"sigs.k8s.io/yaml"
)

const (
	jsonFormat = "json"
	yamlFormat = "yaml"
)

var (
	legalOutputTypes = []string{jsonFormat, yamlFormat}
)

type GetOptions struct {
	GlobalOptions

	Output string

	out io.Writer
}

func DefaultGetOptions() *GetOptions {
	return &GetOptions{
		GlobalOptions: DefaultGlobalOptions(),
		out:           os.Stdout,
	}
}

func NewCmdGet() *cobra.Command {
	o := DefaultGetOptions()
	cmd := &cobra.Command{
		Use:   "get TYPE/NAME",
		Short: "Display a work item, package or activity.",
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

func (o *GetOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.StringVarP(&o.Output, "output", "o", o.Output, fmt.Sprintf("Output format. One of: (%s).", strings.Join(legalOutputTypes, ", ")))
}

func (o *GetOptions) Complete(cmd *cobra.Command, args []string) error {
	if err := o.GlobalOptions.Complete(cmd, args); err != nil {
		return err
	}
	return nil
}

func (o *GetOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}

	_, _, err := parseAndValidateKindId(args[0])
	if err != nil {
		return err
	}

	if len(o.Output) > 0 && !funk.Contains(legalOutputTypes, o.Output) {
		return fmt.Errorf("output format must be one of %s", strings.Join(legalOutputTypes, ", "))
	}

	return nil
}

func (o *GetOptions) Run(ctx context.Context, args []string) error {
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

	var response interface{}
	switch kind {
	case WorkItemKind:
		response, err = c.GetWorkItem(ctx, id)
	case PackageKind:
		response, err = c.GetAppPackage(ctx, id)
	case ActivityKind:
		response, err = c.GetActivity(ctx, id)
	default:
		return fmt.Errorf("unsupported resource kind: %s", kind)
	}
	if err != nil {
		return fmt.Errorf("reading %s/%s: %w", kind, id, err)
	}
	return o.print(response)
}

func (o *GetOptions) print(response interface{}) error {
	switch o.Output {
	case jsonFormat:
		marshalled, err := json.Marshal(response)
		if err != nil {
			return fmt.Errorf("marshalling resource: %w", err)
		}
		fmt.Fprintf(o.out, "%s\n", string(marshalled))
		return nil
	case yamlFormat:
		marshalled, err := yaml.Marshal(response)
		if err != nil {
			return fmt.Errorf("marshalling resource: %w", err)
		}
		fmt.Fprintf(o.out, "%s\n", string(marshalled))
		return nil
	default:
		return printTable(o.out, response)
	}
}

func printTable(out io.Writer, response interface{}) error {
	w := tabwriter.NewWriter(out, 0, 8, 1, '\t', 0)
	switch r := response.(type) {
	case *api.WorkItem:
		printWorkItemTable(w, r)
	case *api.AppPackage:
		fmt.Fprintln(w, "ID\tENGINE\tVERSION\tRESOURCE")
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", r.Id, r.RequiredEngineVersion, r.Version, r.Resource)
	case *api.Activity:
		fmt.Fprintln(w, "ID\tENGINE\tVERSION\tPACKAGES")
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", r.Id, r.RequiredEngineVersion, r.Version, strings.Join(r.AppPackages, ","))
	default:
		return fmt.Errorf("unknown resource type %T", response)
	}
	return w.Flush()
}

func printWorkItemTable(w *tabwriter.Writer, wi *api.WorkItem) {
	fmt.Fprintln(w, "ID\tACTIVITY\tSTATUS\tREPORT")
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", wi.Id, wi.ActivityId, wi.Status, wi.Report())
	if len(wi.Arguments.OutputArguments) == 0 {
		return
	}
	fmt.Fprintln(w, "OUTPUT\tRESOURCE")
	for _, a := range wi.Arguments.OutputArguments {
		fmt.Fprintf(w, "%s\t%s\n", a.Name, a.Resource)
	}
}
