package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	api "github.com/xiaodongliang/design.automation-.net-custom.activity.sample/api/v1alpha1"
	"github.com/xiaodongliang/design.automation-.net-custom.activity.sample/internal/bundle"
	"github.com/xiaodongliang/design.automation-.net-custom.activity.sample/internal/client"
	"github.com/xiaodongliang/design.automation-.net-custom.activity.sample/internal/prompt"
	"github.com/xiaodongliang/design.automation-.net-custom.activity.sample/internal/provision"
	"github.com/xiaodongliang/design.automation-.net-custom.activity.sample/internal/workitem"
)

const (
	resultsFile = "AIO.zip"
	reportFile  = "AIO-report.txt"
)

type RunOptions struct {
	GlobalOptions
	WaitOptions

	BundleDir    string
	HostDwg      string
	PackageName  string
	ActivityName string

	decider prompt.Decider
	out     io.Writer
}

func DefaultRunOptions() *RunOptions {
	return &RunOptions{
		GlobalOptions: DefaultGlobalOptions(),
		BundleDir:     ".",
		HostDwg:       workitem.DefaultHostDwg,
		PackageName:   provision.DefaultPackageName,
		ActivityName:  provision.DefaultActivityName,
		out:           os.Stdout,
	}
}

func NewCmdRun() *cobra.Command {
	o := DefaultRunOptions()
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Provision the package and activity, run a work item and download its results.",
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

func (o *RunOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)
	o.bindWait(fs)

	fs.StringVar(&o.BundleDir, "bundle-dir", o.BundleDir, "Directory holding PackageContents.xml and the plugin assemblies")
	fs.StringVar(&o.HostDwg, "host-dwg", o.HostDwg, "URL of the drawing to process")
	fs.StringVar(&o.PackageName, "package", o.PackageName, "Name of the app package")
	fs.StringVar(&o.ActivityName, "activity", o.ActivityName, "Name of the activity")
}

func (o *RunOptions) Complete(cmd *cobra.Command, args []string) error {
	if err := o.GlobalOptions.Complete(cmd, args); err != nil {
		return err
	}
	if o.decider == nil {
		o.decider = defaultDecider()
	}
	return nil
}

func (o *RunOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	if err := o.validateWait(); err != nil {
		return err
	}
	if o.PackageName == "" || o.ActivityName == "" {
		return fmt.Errorf("--package and --activity must not be empty")
	}
	if o.HostDwg == "" {
		return fmt.Errorf("--host-dwg must not be empty")
	}
	return nil
}

func (o *RunOptions) Run(ctx context.Context, args []string) error {
	ctx, cancel := o.withTimeout(ctx)
	defer cancel()
	defer o.writeMetrics()

	cfg, err := o.Config()
	if err != nil {
		return err
	}
	c, err := o.Client(ctx, cfg)
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}
	httpClient, err := client.NewHTTPClientFromConfig(cfg)
	if err != nil {
		return err
	}

	workDir, err := os.MkdirTemp("", "aio-bundle")
	if err != nil {
		return err
	}
	defer os.RemoveAll(workDir)

	p := provision.NewProvisioner(c, client.NewUploader(httpClient), o.decider)
	pkg, err := p.EnsurePackage(ctx, provision.PackageSpec{
		Name:          o.PackageName,
		EngineVersion: provision.DefaultEngineVersion,
		Bundle: bundle.Spec{
			Name:      o.PackageName,
			SourceDir: o.BundleDir,
			Manifest:  bundle.DefaultManifest,
			Payloads:  bundle.DefaultPayloads,
		},
		ZipPath: filepath.Join(workDir, "package.zip"),
	})
	if err != nil {
		return err
	}
	activity, err := p.EnsureActivity(ctx, provision.DefaultActivitySpec(o.ActivityName, pkg.Id))
	if err != nil {
		return err
	}

	inputs, err := workitem.SampleInputs(o.HostDwg, workitem.Params{ExtractBlockNames: true, ExtractLayerNames: true})
	if err != nil {
		return err
	}

	bucket, err := bucketFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("creating storage client: %w", err)
	}
	target := resultTarget{Argument: workitem.ResultsArgument, File: resultsFile}
	results := workitem.ServiceStoredOutput(workitem.ResultsArgument)
	if bucket != nil {
		target.Object = fmt.Sprintf("%s/%s", o.ActivityName, resultsFile)
		url, err := bucket.PresignPut(ctx, target.Object)
		if err != nil {
			return err
		}
		results = workitem.UploadedOutput(workitem.ResultsArgument, url)
	}

	fmt.Fprintln(o.out, "Submitting workitem...")
	svc := o.service(c, cfg, o.out)
	h, outputs, err := svc.Run(ctx, activity.Id, inputs, []api.Argument{results})
	if err != nil {
		return err
	}

	dir, err := o.resultsDir(cfg)
	if err != nil {
		return err
	}
	f := &resultFetcher{httpClient: httpClient, bucket: bucket, dir: dir, out: o.out}
	return f.fetch(ctx, h, outputs, []resultTarget{target}, reportFile)
}

func defaultDecider() prompt.Decider {
	if fi, err := os.Stdin.Stat(); err == nil && fi.Mode()&os.ModeCharDevice != 0 {
		return prompt.Terminal{}
	}
	return prompt.NewConsole(os.Stdin, os.Stdout)
}
