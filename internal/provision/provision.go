package provision

import (
	"context"
	"errors"
	"fmt"

	api "github.com/xiaodongliang/design.automation-.net-custom.activity.sample/api/v1alpha1"
	"github.com/xiaodongliang/design.automation-.net-custom.activity.sample/internal/bundle"
	"github.com/xiaodongliang/design.automation-.net-custom.activity.sample/internal/client"
	"github.com/xiaodongliang/design.automation-.net-custom.activity.sample/internal/prompt"
	"go.uber.org/zap"
)

const (
	DefaultPackageName   = "MyTestPackage"
	DefaultActivityName  = "MyTestActivity"
	DefaultEngineVersion = "20.0"
	DefaultScript        = "_test params.json outputs\n"

	Recreate = "Recreate"
	Update   = "Update"
	Leave    = "Leave"
	Yes      = "Yes"
	No       = "No"
)

type API interface {
	GetAppPackage(ctx context.Context, id string) (*api.AppPackage, error)
	CreateAppPackage(ctx context.Context, pkg *api.AppPackage) (*api.AppPackage, error)
	UpdateAppPackage(ctx context.Context, pkg *api.AppPackage) error
	DeleteAppPackage(ctx context.Context, id string) error
	GetAppPackageUploadURL(ctx context.Context) (string, error)
	GetActivity(ctx context.Context, id string) (*api.Activity, error)
	CreateActivity(ctx context.Context, activity *api.Activity) (*api.Activity, error)
	DeleteActivity(ctx context.Context, id string) error
}

type Uploader interface {
	Upload(ctx context.Context, url string, filePath string) error
}

type PackageSpec struct {
	Name          string
	EngineVersion string
	Bundle        bundle.Spec
	// ZipPath is where the bundle archive is written before upload.
	ZipPath string
}

type ActivitySpec struct {
	Name          string
	PackageName   string
	EngineVersion string
	Script        string
	Inputs        []api.Parameter
	Outputs       []api.Parameter
}

// DefaultActivitySpec is an activity with the HostDwg and Params inputs and a single
// Results output collecting the outputs folder.
func DefaultActivitySpec(name, packageName string) ActivitySpec {
	return ActivitySpec{
		Name:          name,
		PackageName:   packageName,
		EngineVersion: DefaultEngineVersion,
		Script:        DefaultScript,
		Inputs: []api.Parameter{
			{Name: "HostDwg", LocalFileName: "$(HostDwg)"},
			{Name: "Params", LocalFileName: "params.json"},
		},
		Outputs: []api.Parameter{
			{Name: "Results", LocalFileName: "outputs"},
		},
	}
}

type Provisioner struct {
	api      API
	uploader Uploader
	decider  prompt.Decider
}

func NewProvisioner(api API, uploader Uploader, decider prompt.Decider) *Provisioner {
	return &Provisioner{api: api, uploader: uploader, decider: decider}
}

// EnsurePackage makes sure the named package exists, asking what to do when it does.
func (p *Provisioner) EnsurePackage(ctx context.Context, spec PackageSpec) (*api.AppPackage, error) {
	logger := zap.S().Named("provision").With("package", spec.Name)

	existing, err := p.api.GetAppPackage(ctx, spec.Name)
	if err != nil && !errors.Is(err, client.ErrNotFound) {
		return nil, fmt.Errorf("looking up package %s: %w", spec.Name, err)
	}

	answer := ""
	if existing != nil {
		answer, err = p.decider.Choose(
			fmt.Sprintf("AppPackage '%s' already exists. What do you want to do?", spec.Name),
			[]string{Recreate, Update, Leave}, Update)
		if err != nil {
			return nil, err
		}
	}

	switch answer {
	case Leave:
		logger.Info("leaving existing package untouched")
		return existing, nil
	case Recreate:
		logger.Info("deleting package")
		if err := p.api.DeleteAppPackage(ctx, spec.Name); err != nil {
			return nil, fmt.Errorf("deleting package %s: %w", spec.Name, err)
		}
		existing = nil
	}

	return p.createOrUpdatePackage(ctx, spec, existing)
}

func (p *Provisioner) createOrUpdatePackage(ctx context.Context, spec PackageSpec, existing *api.AppPackage) (*api.AppPackage, error) {
	logger := zap.S().Named("provision").With("package", spec.Name)

	if err := bundle.Create(spec.ZipPath, spec.Bundle); err != nil {
		return nil, fmt.Errorf("creating bundle: %w", err)
	}

	logger.Info("creating/updating package")
	url, err := p.api.GetAppPackageUploadURL(ctx)
	if err != nil {
		return nil, fmt.Errorf("requesting upload url: %w", err)
	}

	logger.Info("uploading autoloader zip")
	if err := p.uploader.Upload(ctx, url, spec.ZipPath); err != nil {
		return nil, err
	}

	if existing == nil {
		pkg, err := p.api.CreateAppPackage(ctx, &api.AppPackage{
			Id:                    spec.Name,
			RequiredEngineVersion: spec.EngineVersion,
			Resource:              url,
		})
		if err != nil {
			return nil, fmt.Errorf("creating package %s: %w", spec.Name, err)
		}
		return pkg, nil
	}

	updated := *existing
	updated.Resource = url
	if err := p.api.UpdateAppPackage(ctx, &updated); err != nil {
		return nil, fmt.Errorf("updating package %s: %w", spec.Name, err)
	}
	return &updated, nil
}

// EnsureActivity makes sure the named activity exists, offering to recreate it when it does.
func (p *Provisioner) EnsureActivity(ctx context.Context, spec ActivitySpec) (*api.Activity, error) {
	logger := zap.S().Named("provision").With("activity", spec.Name)

	existing, err := p.api.GetActivity(ctx, spec.Name)
	if err != nil && !errors.Is(err, client.ErrNotFound) {
		return nil, fmt.Errorf("looking up activity %s: %w", spec.Name, err)
	}

	if existing != nil {
		answer, err := p.decider.Choose(
			fmt.Sprintf("Activity '%s' already exists. Do you want to recreate it?", spec.Name),
			[]string{Yes, No}, No)
		if err != nil {
			return nil, err
		}
		if answer != Yes {
			return existing, nil
		}

		logger.Info("deleting activity")
		if err := p.api.DeleteActivity(ctx, spec.Name); err != nil {
			return nil, fmt.Errorf("deleting activity %s: %w", spec.Name, err)
		}
	}

	logger.Info("creating activity")
	activity := &api.Activity{
		Id:          spec.Name,
		Instruction: api.Instruction{Script: spec.Script},
		Parameters: api.Parameters{
			InputParameters:  spec.Inputs,
			OutputParameters: spec.Outputs,
		},
		RequiredEngineVersion: spec.EngineVersion,
		AppPackages:           []string{spec.PackageName},
	}
	created, err := p.api.CreateActivity(ctx, activity)
	if err != nil {
		return nil, fmt.Errorf("creating activity %s: %w", spec.Name, err)
	}
	return created, nil
}
