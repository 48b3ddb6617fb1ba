package v1alpha1

import "time"

// WorkItem is a unit of work executed by the service against an Activity.
type WorkItem struct {
	// Id is assigned by the service. It must be empty when the work item is created.
	Id            string          `json:"Id"`
	ActivityId    string          `json:"ActivityId"`
	Arguments     Arguments       `json:"Arguments"`
	Status        ExecutionStatus `json:"Status,omitempty"`
	StatusDetails *StatusDetails  `json:"StatusDetails,omitempty"`
	Timestamp     *time.Time      `json:"Timestamp,omitempty"`
}

type Arguments struct {
	InputArguments  []Argument `json:"InputArguments"`
	OutputArguments []Argument `json:"OutputArguments"`
}

// Argument binds a resource to an activity parameter. Name must match a parameter
// declared on the activity; the service checks this when the work item runs.
type Argument struct {
	Name            string          `json:"Name"`
	Resource        string          `json:"Resource,omitempty"`
	ResourceKind    ResourceKind    `json:"ResourceKind,omitempty"`
	StorageProvider StorageProvider `json:"StorageProvider,omitempty"`
	// HttpVerb is only meaningful for output arguments.
	HttpVerb HttpVerb `json:"HttpVerb,omitempty"`
}

type StatusDetails struct {
	Report string `json:"Report,omitempty"`
}

type AppPackage struct {
	Id                    string `json:"Id"`
	Resource              string `json:"Resource"`
	RequiredEngineVersion string `json:"RequiredEngineVersion"`
	Version               int    `json:"Version,omitempty"`
	Description           string `json:"Description,omitempty"`
}

type Activity struct {
	Id                    string      `json:"Id"`
	Instruction           Instruction `json:"Instruction"`
	Parameters            Parameters  `json:"Parameters"`
	RequiredEngineVersion string      `json:"RequiredEngineVersion"`
	AppPackages           []string    `json:"AppPackages"`
	Version               int         `json:"Version,omitempty"`
}

type Instruction struct {
	Script string `json:"Script"`
}

type Parameters struct {
	InputParameters  []Parameter `json:"InputParameters"`
	OutputParameters []Parameter `json:"OutputParameters"`
}

type Parameter struct {
	Name          string `json:"Name"`
	LocalFileName string `json:"LocalFileName"`
	Optional      bool   `json:"Optional,omitempty"`
}

// ValueResponse is the envelope returned for single property reads and service operations.
type ValueResponse[T any] struct {
	Value T `json:"value"`
}

// ErrorResponse is the error envelope returned by the service.
type ErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
