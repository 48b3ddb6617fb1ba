package v1alpha1

import (
	"encoding/json"
	"fmt"
)

// ExecutionStatus is the state of a work item as reported by the service.
type ExecutionStatus string

const (
	ExecutionStatusPending            ExecutionStatus = "Pending"
	ExecutionStatusInProgress         ExecutionStatus = "InProgress"
	ExecutionStatusSucceeded          ExecutionStatus = "Succeeded"
	ExecutionStatusCancelled          ExecutionStatus = "Cancelled"
	ExecutionStatusFailedDownload     ExecutionStatus = "FailedDownload"
	ExecutionStatusFailedInstructions ExecutionStatus = "FailedInstructions"
	ExecutionStatusFailedUpload       ExecutionStatus = "FailedUpload"
	ExecutionStatusTimedOut           ExecutionStatus = "TimedOut"
)

var knownExecutionStatuses = []ExecutionStatus{
	ExecutionStatusPending,
	ExecutionStatusInProgress,
	ExecutionStatusSucceeded,
	ExecutionStatusCancelled,
	ExecutionStatusFailedDownload,
	ExecutionStatusFailedInstructions,
	ExecutionStatusFailedUpload,
	ExecutionStatusTimedOut,
}

// IsTerminal reports whether the work item left the queue. Only Pending and InProgress
// are non-terminal; every other value, unknown ones included, is terminal.
func (s ExecutionStatus) IsTerminal() bool {
	return s != ExecutionStatusPending && s != ExecutionStatusInProgress
}

func (s ExecutionStatus) IsKnown() bool {
	for _, k := range knownExecutionStatuses {
		if s == k {
			return true
		}
	}
	return false
}

func (s ExecutionStatus) Succeeded() bool {
	return s == ExecutionStatusSucceeded
}

func (s ExecutionStatus) String() string {
	return string(s)
}

// UnmarshalJSON keeps unknown values verbatim: a status the client does not know
// about still has to end polling.
func (s *ExecutionStatus) UnmarshalJSON(data []byte) error {
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decoding execution status: %w", err)
	}
	*s = ExecutionStatus(v)
	return nil
}

// ResourceKind tells the service how to interpret an argument's resource.
type ResourceKind string

const (
	// ResourceKindSimple is a reference to a single remote file.
	ResourceKindSimple ResourceKind = "Simple"
	// ResourceKindEmbedded carries the content inline as a data URL.
	ResourceKindEmbedded ResourceKind = "Embedded"
	// ResourceKindZipPackage is an archive of files.
	ResourceKindZipPackage ResourceKind = "ZipPackage"
)

func StringToResourceKind(s string) (ResourceKind, error) {
	switch s {
	case string(ResourceKindSimple):
		return ResourceKindSimple, nil
	case string(ResourceKindEmbedded):
		return ResourceKindEmbedded, nil
	case string(ResourceKindZipPackage):
		return ResourceKindZipPackage, nil
	default:
		return "", fmt.Errorf("unknown resource kind %q", s)
	}
}

func (k ResourceKind) MarshalJSON() ([]byte, error) {
	if _, err := StringToResourceKind(string(k)); err != nil {
		return nil, err
	}
	return json.Marshal(string(k))
}

// UnmarshalJSON accepts null and "" as an unset kind.
func (k *ResourceKind) UnmarshalJSON(data []byte) error {
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v == "" {
		*k = ""
		return nil
	}
	kind, err := StringToResourceKind(v)
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// StorageProvider selects how the service reaches an argument's resource.
type StorageProvider string

const (
	// StorageProviderGeneric is plain HTTP download and upload.
	StorageProviderGeneric StorageProvider = "Generic"
	// StorageProviderA360 is the service's managed storage.
	StorageProviderA360 StorageProvider = "A360"
)

func StringToStorageProvider(s string) (StorageProvider, error) {
	switch s {
	case string(StorageProviderGeneric):
		return StorageProviderGeneric, nil
	case string(StorageProviderA360):
		return StorageProviderA360, nil
	default:
		return "", fmt.Errorf("unknown storage provider %q", s)
	}
}

func (p StorageProvider) MarshalJSON() ([]byte, error) {
	if _, err := StringToStorageProvider(string(p)); err != nil {
		return nil, err
	}
	return json.Marshal(string(p))
}

func (p *StorageProvider) UnmarshalJSON(data []byte) error {
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v == "" {
		*p = ""
		return nil
	}
	provider, err := StringToStorageProvider(v)
	if err != nil {
		return err
	}
	*p = provider
	return nil
}

// HttpVerb is the method the service uses to deliver an output argument.
type HttpVerb string

const (
	HttpVerbGET  HttpVerb = "GET"
	HttpVerbPOST HttpVerb = "POST"
	HttpVerbPUT  HttpVerb = "PUT"
)

func StringToHttpVerb(s string) (HttpVerb, error) {
	switch s {
	case string(HttpVerbGET):
		return HttpVerbGET, nil
	case string(HttpVerbPOST):
		return HttpVerbPOST, nil
	case string(HttpVerbPUT):
		return HttpVerbPUT, nil
	default:
		return "", fmt.Errorf("unknown http verb %q", s)
	}
}

func (v HttpVerb) MarshalJSON() ([]byte, error) {
	if _, err := StringToHttpVerb(string(v)); err != nil {
		return nil, err
	}
	return json.Marshal(string(v))
}

func (v *HttpVerb) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*v = ""
		return nil
	}
	verb, err := StringToHttpVerb(s)
	if err != nil {
		return err
	}
	*v = verb
	return nil
}

// OutputResource returns the resource of the output argument with the given name.
func (w *WorkItem) OutputResource(name string) (string, bool) {
	for _, a := range w.Arguments.OutputArguments {
		if a.Name == name {
			return a.Resource, true
		}
	}
	return "", false
}

// Report returns the status report URL, empty when the service did not provide one.
func (w *WorkItem) Report() string {
	if w.StatusDetails == nil {
		return ""
	}
	return w.StatusDetails.Report
}
