package workitem

import (
	"encoding/json"
	"fmt"

	api "github.com/xiaodongliang/design.automation-.net-custom.activity.sample/api/v1alpha1"
)

const (
	DefaultHostDwg = "http://download.autodesk.com/us/samplefiles/acad/blocks_and_tables_-_imperial.dwg"

	HostDwgArgument = "HostDwg"
	ParamsArgument  = "Params"
	ResultsArgument = "Results"
)

// Params is the json document the plugin reads from params.json.
type Params struct {
	ExtractBlockNames bool `json:"ExtractBlockNames"`
	ExtractLayerNames bool `json:"ExtractLayerNames"`
}

// EmbeddedJSON encodes v as a data URL so small inputs travel inside the work item.
func EmbeddedJSON(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding embedded resource: %w", err)
	}
	return "data:application/json, " + string(b), nil
}

// SampleInputs returns the drawing to process and the embedded plugin parameters.
func SampleInputs(hostDwg string, params Params) ([]api.Argument, error) {
	embedded, err := EmbeddedJSON(params)
	if err != nil {
		return nil, err
	}
	return []api.Argument{
		{
			Name:            HostDwgArgument,
			Resource:        hostDwg,
			StorageProvider: api.StorageProviderGeneric,
		},
		{
			Name:            ParamsArgument,
			ResourceKind:    api.ResourceKindEmbedded,
			Resource:        embedded,
			StorageProvider: api.StorageProviderGeneric,
		},
	}, nil
}

// ServiceStoredOutput asks the service to zip the output folder and keep it in its own
// storage. The locator is known only once the work item is re-read.
func ServiceStoredOutput(name string) api.Argument {
	return api.Argument{
		Name:            name,
		StorageProvider: api.StorageProviderGeneric,
		HttpVerb:        api.HttpVerbPOST,
		ResourceKind:    api.ResourceKindZipPackage,
	}
}

// UploadedOutput asks the service to PUT the zipped output folder to url.
func UploadedOutput(name, url string) api.Argument {
	return api.Argument{
		Name:            name,
		Resource:        url,
		StorageProvider: api.StorageProviderGeneric,
		HttpVerb:        api.HttpVerbPUT,
		ResourceKind:    api.ResourceKindZipPackage,
	}
}
