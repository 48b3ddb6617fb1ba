package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	api "github.com/xiaodongliang/design.automation-.net-custom.activity.sample/api/v1alpha1"
	"github.com/xiaodongliang/design.automation-.net-custom.activity.sample/internal/client"
	"github.com/xiaodongliang/design.automation-.net-custom.activity.sample/internal/workitem"
)

const succeededWorkItem = `{
  "Id": "wi-7",
  "ActivityId": "MyTestActivity",
  "Status": "Succeeded",
  "Arguments": {
    "InputArguments": [
      {"Name": "HostDwg", "Resource": "http://example.com/a.dwg", "ResourceKind": null, "StorageProvider": "Generic", "HttpVerb": null},
      {"Name": "Params", "Resource": "data:application/json, {}", "ResourceKind": "Embedded", "StorageProvider": "Generic", "HttpVerb": ""}
    ],
    "OutputArguments": [
      {"Name": "Results", "Resource": "https://results.example.com/wi-7.zip", "ResourceKind": "ZipPackage", "StorageProvider": "Generic", "HttpVerb": "POST"}
    ]
  },
  "StatusDetails": {"Report": "https://results.example.com/wi-7.txt"}
}`

type fakeService struct {
	mu         sync.Mutex
	workItems  map[string]*api.WorkItem
	packages   map[string]*api.AppPackage
	activities map[string]*api.Activity
	received   []api.WorkItem
	requestIDs []string
}

func newFakeService() *fakeService {
	return &fakeService{
		workItems:  map[string]*api.WorkItem{},
		packages:   map[string]*api.AppPackage{},
		activities: map[string]*api.Activity{},
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func notFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, map[string]interface{}{
		"error": map[string]string{"code": "NotFound", "message": "Resource not found"},
	})
}

func (f *fakeService) router() http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			f.mu.Lock()
			f.requestIDs = append(f.requestIDs, req.Header.Get(middleware.RequestIDHeader))
			f.mu.Unlock()
			next.ServeHTTP(w, req)
		})
	})

	r.Post("/WorkItems", func(w http.ResponseWriter, req *http.Request) {
		var wi api.WorkItem
		if err := json.NewDecoder(req.Body).Decode(&wi); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		f.received = append(f.received, wi)
		wi.Id = "wi-1"
		wi.Status = api.ExecutionStatusPending
		f.workItems[wi.Id] = &wi
		writeJSON(w, http.StatusCreated, wi)
	})
	r.Get("/WorkItems('{id}')", func(w http.ResponseWriter, req *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		wi, ok := f.workItems[chi.URLParam(req, "id")]
		if !ok {
			notFound(w)
			return
		}
		writeJSON(w, http.StatusOK, wi)
	})
	r.Get("/WorkItems('{id}')/Status", func(w http.ResponseWriter, req *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		wi, ok := f.workItems[chi.URLParam(req, "id")]
		if !ok {
			notFound(w)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"value": wi.Status})
	})

	r.Get("/AppPackages/Operations.GetUploadUrl()", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"value": "https://storage.example.com/upload/pkg.zip"})
	})
	r.Get("/AppPackages('{id}')", func(w http.ResponseWriter, req *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		pkg, ok := f.packages[chi.URLParam(req, "id")]
		if !ok {
			notFound(w)
			return
		}
		writeJSON(w, http.StatusOK, pkg)
	})
	r.Post("/AppPackages", func(w http.ResponseWriter, req *http.Request) {
		var pkg api.AppPackage
		_ = json.NewDecoder(req.Body).Decode(&pkg)
		f.mu.Lock()
		defer f.mu.Unlock()
		pkg.Version = 1
		f.packages[pkg.Id] = &pkg
		writeJSON(w, http.StatusCreated, pkg)
	})
	r.Patch("/AppPackages('{id}')", func(w http.ResponseWriter, req *http.Request) {
		var pkg api.AppPackage
		_ = json.NewDecoder(req.Body).Decode(&pkg)
		f.mu.Lock()
		defer f.mu.Unlock()
		existing, ok := f.packages[chi.URLParam(req, "id")]
		if !ok {
			notFound(w)
			return
		}
		existing.Resource = pkg.Resource
		existing.Version++
		w.WriteHeader(http.StatusNoContent)
	})
	r.Delete("/AppPackages('{id}')", func(w http.ResponseWriter, req *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.packages, chi.URLParam(req, "id"))
		w.WriteHeader(http.StatusNoContent)
	})

	r.Get("/Activities('{id}')", func(w http.ResponseWriter, req *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		activity, ok := f.activities[chi.URLParam(req, "id")]
		if !ok {
			notFound(w)
			return
		}
		writeJSON(w, http.StatusOK, activity)
	})
	r.Post("/Activities", func(w http.ResponseWriter, req *http.Request) {
		var activity api.Activity
		_ = json.NewDecoder(req.Body).Decode(&activity)
		f.mu.Lock()
		defer f.mu.Unlock()
		f.activities[activity.Id] = &activity
		writeJSON(w, http.StatusCreated, activity)
	})
	r.Delete("/Activities('{id}')", func(w http.ResponseWriter, req *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.activities, chi.URLParam(req, "id"))
		w.WriteHeader(http.StatusNoContent)
	})
	return r
}

var _ = Describe("service client", func() {
	var (
		ctx     context.Context
		fake    *fakeService
		server  *httptest.Server
		service *client.Client
	)

	BeforeEach(func() {
		ctx = context.Background()
		fake = newFakeService()
		server = httptest.NewServer(fake.router())

		cfg := client.NewDefault()
		cfg.Service.Server = server.URL
		var err error
		service, err = client.NewFromConfig(cfg, client.WithAuthorization("Bearer abc123"))
		Expect(err).To(BeNil())
	})

	AfterEach(func() {
		server.Close()
	})

	Context("work items", func() {
		It("creates a work item and reads it back", func() {
			created, err := service.CreateWorkItem(ctx, &api.WorkItem{
				ActivityId: "MyTestActivity",
				Arguments: api.Arguments{
					InputArguments: []api.Argument{{Name: "HostDwg", Resource: "http://example.com/a.dwg", StorageProvider: api.StorageProviderGeneric}},
					OutputArguments: []api.Argument{{
						Name:            "Results",
						StorageProvider: api.StorageProviderGeneric,
						HttpVerb:        api.HttpVerbPOST,
						ResourceKind:    api.ResourceKindZipPackage,
					}},
				},
			})
			Expect(err).To(BeNil())
			Expect(created.Id).To(Equal("wi-1"))

			Expect(fake.received).To(HaveLen(1))
			Expect(fake.received[0].Id).To(BeEmpty())
			Expect(fake.received[0].Arguments.OutputArguments[0].Resource).To(BeEmpty())

			status, err := service.GetWorkItemStatus(ctx, created.Id)
			Expect(err).To(BeNil())
			Expect(status).To(Equal(api.ExecutionStatusPending))

			wi, err := service.GetWorkItem(ctx, created.Id)
			Expect(err).To(BeNil())
			Expect(wi.ActivityId).To(Equal("MyTestActivity"))
		})

		It("resolves outputs of a record with unset argument fields", func() {
			s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(succeededWorkItem))
			}))
			defer s.Close()

			c, err := client.NewClient(s.URL)
			Expect(err).To(BeNil())

			wi, err := c.GetWorkItem(ctx, "wi-7")
			Expect(err).To(BeNil())
			Expect(wi.Arguments.InputArguments[0].HttpVerb).To(BeEmpty())
			Expect(wi.Arguments.InputArguments[0].ResourceKind).To(BeEmpty())

			out, err := workitem.NewService(c).ResolveOutputs(ctx, &workitem.Handle{ID: "wi-7"})
			Expect(err).To(BeNil())
			loc, err := out.Locator("Results")
			Expect(err).To(BeNil())
			Expect(loc).To(Equal("https://results.example.com/wi-7.zip"))
		})

		It("sends a request id with every request", func() {
			_, _ = service.GetWorkItemStatus(ctx, "unknown")
			_, _ = service.GetWorkItemStatus(ctx, "unknown")
			Expect(fake.requestIDs).To(HaveLen(2))
			Expect(fake.requestIDs[0]).NotTo(BeEmpty())
			Expect(fake.requestIDs[0]).NotTo(Equal(fake.requestIDs[1]))
		})

		It("maps 404 to ErrNotFound", func() {
			_, err := service.GetWorkItem(ctx, "unknown")
			Expect(err).NotTo(BeNil())
			Expect(errors.Is(err, client.ErrNotFound)).To(BeTrue())

			var apiErr *client.APIError
			Expect(errors.As(err, &apiErr)).To(BeTrue())
			Expect(apiErr.Message).To(Equal("Resource not found"))
		})

		It("fails when the status property is missing", func() {
			s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{}`))
			}))
			defer s.Close()

			c, err := client.NewClient(s.URL)
			Expect(err).To(BeNil())
			_, err = c.GetWorkItemStatus(ctx, "wi-1")
			Expect(err).NotTo(BeNil())
			Expect(err.Error()).To(ContainSubstring("no value"))
		})

		It("fails when the service answers with a server error", func() {
			s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			}))
			defer s.Close()

			c, err := client.NewClient(s.URL)
			Expect(err).To(BeNil())
			_, err = c.CreateWorkItem(ctx, &api.WorkItem{ActivityId: "a"})
			Expect(err).NotTo(BeNil())
			Expect(errors.Is(err, client.ErrNotFound)).To(BeFalse())
			Expect(err.Error()).To(ContainSubstring("status 500"))
		})
	})

	Context("app packages", func() {
		It("creates, updates and deletes a package", func() {
			_, err := service.GetAppPackage(ctx, "MyTestPackage")
			Expect(errors.Is(err, client.ErrNotFound)).To(BeTrue())

			url, err := service.GetAppPackageUploadURL(ctx)
			Expect(err).To(BeNil())
			Expect(url).To(Equal("https://storage.example.com/upload/pkg.zip"))

			created, err := service.CreateAppPackage(ctx, &api.AppPackage{Id: "MyTestPackage", Resource: url, RequiredEngineVersion: "20.0"})
			Expect(err).To(BeNil())
			Expect(created.Version).To(Equal(1))

			created.Resource = "https://storage.example.com/upload/pkg2.zip"
			Expect(service.UpdateAppPackage(ctx, created)).To(Succeed())

			pkg, err := service.GetAppPackage(ctx, "MyTestPackage")
			Expect(err).To(BeNil())
			Expect(pkg.Resource).To(Equal("https://storage.example.com/upload/pkg2.zip"))
			Expect(pkg.Version).To(Equal(2))

			Expect(service.DeleteAppPackage(ctx, "MyTestPackage")).To(Succeed())
			_, err = service.GetAppPackage(ctx, "MyTestPackage")
			Expect(errors.Is(err, client.ErrNotFound)).To(BeTrue())
		})
	})

	Context("activities", func() {
		It("creates and deletes an activity", func() {
			_, err := service.GetActivity(ctx, "MyTestActivity")
			Expect(errors.Is(err, client.ErrNotFound)).To(BeTrue())

			_, err = service.CreateActivity(ctx, &api.Activity{
				Id:          "MyTestActivity",
				Instruction: api.Instruction{Script: "_test params.json outputs\n"},
				AppPackages: []string{"MyTestPackage"},
			})
			Expect(err).To(BeNil())

			activity, err := service.GetActivity(ctx, "MyTestActivity")
			Expect(err).To(BeNil())
			Expect(activity.AppPackages).To(ConsistOf("MyTestPackage"))

			Expect(service.DeleteActivity(ctx, "MyTestActivity")).To(Succeed())
		})
	})
})
