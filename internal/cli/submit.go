package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/thoas/go-funk"
	api "github.com/xiaodongliang/design.automation-.net-custom.activity.sample/api/v1alpha1"
	"github.com/xiaodongliang/design.automation-.net-custom.activity.sample/internal/client"
	"github.com/xiaodongliang/design.automation-.net-custom.activity.sample/internal/workitem"
)

type SubmitOptions struct {
	GlobalOptions
	WaitOptions

	Inputs  []string
	Outputs []string
	Wait    bool

	out io.Writer
}

func DefaultSubmitOptions() *SubmitOptions {
	return &SubmitOptions{
		GlobalOptions: DefaultGlobalOptions(),
		out:           os.Stdout,
	}
}

func NewCmdSubmit() *cobra.Command {
	o := DefaultSubmitOptions()
	cmd := &cobra.Command{
		Use:   "submit ACTIVITY",
		Short: "Submit a work item against an existing activity.",
		Example: `  aio submit MyTestActivity --input HostDwg=https://example.com/a.dwg --output Results --wait
  aio submit MyTestActivity --input HostDwg=https://example.com/a.dwg --output Results=https://bucket/put-url`,
		Args: cobra.ExactArgs(1),
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

func (o *SubmitOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)
	o.bindWait(fs)

	fs.StringArrayVarP(&o.Inputs, "input", "i", o.Inputs, "Input argument as NAME=URL, data: URLs are sent embedded. Repeatable.")
	fs.StringArrayVar(&o.Outputs, "output", o.Outputs, "Output argument as NAME, or NAME=URL to have it PUT there. Repeatable.")
	fs.BoolVarP(&o.Wait, "wait", "w", o.Wait, "Wait for the work item to finish and download its results")
}

func (o *SubmitOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	if err := o.validateWait(); err != nil {
		return err
	}
	inputs, outputs, err := o.arguments()
	if err != nil {
		return err
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return fmt.Errorf("at least one --input and one --output are required")
	}
	return nil
}

// arguments parses the --input and --output flags.
func (o *SubmitOptions) arguments() ([]api.Argument, []api.Argument, error) {
	inputs := make([]api.Argument, 0, len(o.Inputs))
	for _, in := range o.Inputs {
		name, resource, ok := strings.Cut(in, "=")
		if !ok || name == "" || resource == "" {
			return nil, nil, fmt.Errorf("invalid --input %q, expected NAME=URL", in)
		}
		a := api.Argument{Name: name, Resource: resource, StorageProvider: api.StorageProviderGeneric}
		if strings.HasPrefix(resource, "data:") {
			a.ResourceKind = api.ResourceKindEmbedded
		}
		inputs = append(inputs, a)
	}

	outputs := make([]api.Argument, 0, len(o.Outputs))
	for _, out := range o.Outputs {
		name, url, _ := strings.Cut(out, "=")
		if name == "" {
			return nil, nil, fmt.Errorf("invalid --output %q, expected NAME or NAME=URL", out)
		}
		if url == "" {
			outputs = append(outputs, workitem.ServiceStoredOutput(name))
		} else {
			outputs = append(outputs, workitem.UploadedOutput(name, url))
		}
	}

	names := make([]string, 0, len(inputs)+len(outputs))
	for _, a := range append(append([]api.Argument{}, inputs...), outputs...) {
		names = append(names, a.Name)
	}
	if len(funk.UniqString(names)) != len(names) {
		return nil, nil, fmt.Errorf("argument names must be unique: %s", strings.Join(names, ", "))
	}
	return inputs, outputs, nil
}

func (o *SubmitOptions) Run(ctx context.Context, args []string) error {
	ctx, cancel := o.withTimeout(ctx)
	defer cancel()
	defer o.writeMetrics()

	inputs, outputs, err := o.arguments()
	if err != nil {
		return err
	}

	cfg, err := o.Config()
	if err != nil {
		return err
	}
	c, err := o.Client(ctx, cfg)
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}

	svc := o.service(c, cfg, o.out)
	h, err := svc.Submit(ctx, args[0], inputs, outputs)
	if err != nil {
		return err
	}
	fmt.Fprintf(o.out, "WorkItem %s submitted\n", h.ID)
	if !o.Wait {
		return nil
	}

	if _, err := svc.Poll(ctx, h); err != nil {
		return err
	}
	resolved, err := svc.ResolveOutputs(ctx, h)
	if err != nil {
		return err
	}

	httpClient, err := client.NewHTTPClientFromConfig(cfg)
	if err != nil {
		return err
	}
	dir, err := o.resultsDir(cfg)
	if err != nil {
		return err
	}

	targets := make([]resultTarget, 0, len(outputs))
	for _, out := range outputs {
		if out.HttpVerb == api.HttpVerbPUT {
			// delivered to the caller's own location
			continue
		}
		targets = append(targets, resultTarget{Argument: out.Name, File: fmt.Sprintf("%s-%s.zip", h.ID, out.Name)})
	}
	f := &resultFetcher{httpClient: httpClient, dir: dir, out: o.out}
	return f.fetch(ctx, h, resolved, targets, fmt.Sprintf("%s-report.txt", h.ID))
}
