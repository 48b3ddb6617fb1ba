package provision_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	api "github.com/xiaodongliang/design.automation-.net-custom.activity.sample/api/v1alpha1"
	"github.com/xiaodongliang/design.automation-.net-custom.activity.sample/internal/bundle"
	"github.com/xiaodongliang/design.automation-.net-custom.activity.sample/internal/client"
	"github.com/xiaodongliang/design.automation-.net-custom.activity.sample/internal/prompt"
	"github.com/xiaodongliang/design.automation-.net-custom.activity.sample/internal/provision"
)

const uploadURL = "https://storage.example.com/upload?sig=1"

var _ = Describe("provisioner", func() {
	var (
		ctx      context.Context
		fake     *fakeAPI
		uploader *fakeUploader
		decider  *prompt.Scripted
		p        *provision.Provisioner
		pkgSpec  provision.PackageSpec
	)

	BeforeEach(func() {
		ctx = context.Background()
		fake = newFakeAPI()
		uploader = &fakeUploader{}
		decider = &prompt.Scripted{}
		p = provision.NewProvisioner(fake, uploader, decider)

		dir, err := os.MkdirTemp("", "provision")
		Expect(err).To(BeNil())
		DeferCleanup(os.RemoveAll, dir)
		for _, name := range append([]string{bundle.DefaultManifest}, bundle.DefaultPayloads...) {
			Expect(os.WriteFile(filepath.Join(dir, name), []byte(name), 0600)).To(Succeed())
		}

		pkgSpec = provision.PackageSpec{
			Name:          provision.DefaultPackageName,
			EngineVersion: provision.DefaultEngineVersion,
			Bundle: bundle.Spec{
				Name:      provision.DefaultPackageName,
				SourceDir: dir,
				Manifest:  bundle.DefaultManifest,
				Payloads:  bundle.DefaultPayloads,
			},
			ZipPath: filepath.Join(dir, "package.zip"),
		}
	})

	Context("package", func() {
		It("creates an absent package without asking", func() {
			pkg, err := p.EnsurePackage(ctx, pkgSpec)
			Expect(err).To(BeNil())
			Expect(pkg.Id).To(Equal("MyTestPackage"))
			Expect(pkg.Resource).To(Equal(uploadURL))
			Expect(pkg.RequiredEngineVersion).To(Equal("20.0"))

			Expect(decider.Asked).To(BeEmpty())
			Expect(uploader.uploads).To(Equal([]string{uploadURL}))
			Expect(fake.calls).To(Equal([]string{"GetAppPackage", "GetAppPackageUploadURL", "CreateAppPackage"}))
			Expect(pkgSpec.ZipPath).To(BeAnExistingFile())
		})

		It("updates an existing package by default", func() {
			fake.packages["MyTestPackage"] = &api.AppPackage{Id: "MyTestPackage", Resource: "old", RequiredEngineVersion: "20.0"}

			pkg, err := p.EnsurePackage(ctx, pkgSpec)
			Expect(err).To(BeNil())
			Expect(pkg.Resource).To(Equal(uploadURL))
			Expect(decider.Asked).To(ConsistOf("AppPackage 'MyTestPackage' already exists. What do you want to do?"))
			Expect(fake.calls).To(Equal([]string{"GetAppPackage", "GetAppPackageUploadURL", "UpdateAppPackage"}))
			Expect(fake.packages["MyTestPackage"].Resource).To(Equal(uploadURL))
		})

		It("recreates an existing package", func() {
			decider.Answers = []string{"Recreate"}
			fake.packages["MyTestPackage"] = &api.AppPackage{Id: "MyTestPackage", Resource: "old"}

			_, err := p.EnsurePackage(ctx, pkgSpec)
			Expect(err).To(BeNil())
			Expect(fake.calls).To(Equal([]string{"GetAppPackage", "DeleteAppPackage", "GetAppPackageUploadURL", "CreateAppPackage"}))
		})

		It("leaves an existing package alone", func() {
			decider.Answers = []string{"Leave"}
			fake.packages["MyTestPackage"] = &api.AppPackage{Id: "MyTestPackage", Resource: "old"}

			pkg, err := p.EnsurePackage(ctx, pkgSpec)
			Expect(err).To(BeNil())
			Expect(pkg.Resource).To(Equal("old"))
			Expect(uploader.uploads).To(BeEmpty())
			Expect(fake.calls).To(Equal([]string{"GetAppPackage"}))
		})

		It("fails on lookup errors other than not found", func() {
			fake.getErr = errors.New("connection reset")
			_, err := p.EnsurePackage(ctx, pkgSpec)
			Expect(err).NotTo(BeNil())
			Expect(uploader.uploads).To(BeEmpty())
		})

		It("does not register the package when the upload fails", func() {
			uploader.err = errors.New("upload failed with status 403")
			_, err := p.EnsurePackage(ctx, pkgSpec)
			Expect(err).NotTo(BeNil())
			Expect(fake.calls).NotTo(ContainElement("CreateAppPackage"))
		})
	})

	Context("activity", func() {
		var spec provision.ActivitySpec

		BeforeEach(func() {
			spec = provision.DefaultActivitySpec(provision.DefaultActivityName, provision.DefaultPackageName)
		})

		It("creates an absent activity", func() {
			activity, err := p.EnsureActivity(ctx, spec)
			Expect(err).To(BeNil())
			Expect(activity.Id).To(Equal("MyTestActivity"))
			Expect(activity.Instruction.Script).To(Equal("_test params.json outputs\n"))
			Expect(activity.AppPackages).To(Equal([]string{"MyTestPackage"}))
			Expect(activity.Parameters.InputParameters).To(Equal([]api.Parameter{
				{Name: "HostDwg", LocalFileName: "$(HostDwg)"},
				{Name: "Params", LocalFileName: "params.json"},
			}))
			Expect(activity.Parameters.OutputParameters).To(Equal([]api.Parameter{{Name: "Results", LocalFileName: "outputs"}}))
			Expect(decider.Asked).To(BeEmpty())
		})

		It("keeps an existing activity by default", func() {
			fake.activities["MyTestActivity"] = &api.Activity{Id: "MyTestActivity", Version: 3}

			activity, err := p.EnsureActivity(ctx, spec)
			Expect(err).To(BeNil())
			Expect(activity.Version).To(Equal(3))
			Expect(decider.Asked).To(ConsistOf("Activity 'MyTestActivity' already exists. Do you want to recreate it?"))
			Expect(fake.calls).To(Equal([]string{"GetActivity"}))
		})

		It("recreates an existing activity on yes", func() {
			decider.Answers = []string{"yes"}
			fake.activities["MyTestActivity"] = &api.Activity{Id: "MyTestActivity", Version: 3}

			activity, err := p.EnsureActivity(ctx, spec)
			Expect(err).To(BeNil())
			Expect(activity.Version).To(Equal(1))
			Expect(fake.calls).To(Equal([]string{"GetActivity", "DeleteActivity", "CreateActivity"}))
		})
	})
})

type fakeAPI struct {
	packages   map[string]*api.AppPackage
	activities map[string]*api.Activity
	calls      []string
	getErr     error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{packages: map[string]*api.AppPackage{}, activities: map[string]*api.Activity{}}
}

func notFound() error {
	return &client.APIError{StatusCode: 404, Code: "NotFound"}
}

func (f *fakeAPI) GetAppPackage(ctx context.Context, id string) (*api.AppPackage, error) {
	f.calls = append(f.calls, "GetAppPackage")
	if f.getErr != nil {
		return nil, f.getErr
	}
	pkg, ok := f.packages[id]
	if !ok {
		return nil, notFound()
	}
	cp := *pkg
	return &cp, nil
}

func (f *fakeAPI) CreateAppPackage(ctx context.Context, pkg *api.AppPackage) (*api.AppPackage, error) {
	f.calls = append(f.calls, "CreateAppPackage")
	cp := *pkg
	cp.Version = 1
	f.packages[pkg.Id] = &cp
	return &cp, nil
}

func (f *fakeAPI) UpdateAppPackage(ctx context.Context, pkg *api.AppPackage) error {
	f.calls = append(f.calls, "UpdateAppPackage")
	if _, ok := f.packages[pkg.Id]; !ok {
		return notFound()
	}
	cp := *pkg
	f.packages[pkg.Id] = &cp
	return nil
}

func (f *fakeAPI) DeleteAppPackage(ctx context.Context, id string) error {
	f.calls = append(f.calls, "DeleteAppPackage")
	delete(f.packages, id)
	return nil
}

func (f *fakeAPI) GetAppPackageUploadURL(ctx context.Context) (string, error) {
	f.calls = append(f.calls, "GetAppPackageUploadURL")
	return uploadURL, nil
}

func (f *fakeAPI) GetActivity(ctx context.Context, id string) (*api.Activity, error) {
	f.calls = append(f.calls, "GetActivity")
	a, ok := f.activities[id]
	if !ok {
		return nil, notFound()
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAPI) CreateActivity(ctx context.Context, activity *api.Activity) (*api.Activity, error) {
	f.calls = append(f.calls, "CreateActivity")
	cp := *activity
	cp.Version = 1
	f.activities[activity.Id] = &cp
	return &cp, nil
}

func (f *fakeAPI) DeleteActivity(ctx context.Context, id string) error {
	f.calls = append(f.calls, "DeleteActivity")
	delete(f.activities, id)
	return nil
}

type fakeUploader struct {
	uploads []string
	err     error
}

func (u *fakeUploader) Upload(ctx context.Context, url string, filePath string) error {
	if u.err != nil {
		return u.err
	}
	if _, err := os.Stat(filePath); err != nil {
		return err
	}
	u.uploads = append(u.uploads, url)
	return nil
}
