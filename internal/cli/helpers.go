package cli

import (
	"fmt"
	"strings"
)

const (
	WorkItemKind = "workitem"
	PackageKind  = "package"
	ActivityKind = "activity"
)

var (
	pluralKinds = map[string]string{
		WorkItemKind: "workitems",
		PackageKind:  "packages",
		ActivityKind: "activities",
	}
)

func parseAndValidateKindId(arg string) (string, string, error) {
	kind, id, _ := strings.Cut(arg, "/")
	kind = singular(kind)
	if _, ok := pluralKinds[kind]; !ok {
		return "", "", fmt.Errorf("invalid resource kind: %s", kind)
	}
	if id == "" {
		return "", "", fmt.Errorf("a %s name is required, e.g. %s/NAME", kind, kind)
	}
	return kind, id, nil
}

func singular(kind string) string {
	for singular, plural := range pluralKinds {
		if kind == plural {
			return singular
		}
	}
	return kind
}
