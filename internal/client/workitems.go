package client

import (
	"context"
	"fmt"
	"net/http"

	api "github.com/xiaodongliang/design.automation-.net-custom.activity.sample/api/v1alpha1"
)

const workItemsSet = "WorkItems"

// CreateWorkItem posts a new work item and returns the record created by the service.
func (c *Client) CreateWorkItem(ctx context.Context, wi *api.WorkItem) (*api.WorkItem, error) {
	var created api.WorkItem
	if err := c.do(ctx, http.MethodPost, workItemsSet, wi, &created, http.StatusCreated, http.StatusOK); err != nil {
		return nil, fmt.Errorf("creating work item: %w", err)
	}
	if created.Id == "" {
		return nil, fmt.Errorf("creating work item: service did not assign an id")
	}
	return &created, nil
}

// GetWorkItem reads the full record. The response is always decoded into a fresh
// value so nothing from an earlier read survives.
func (c *Client) GetWorkItem(ctx context.Context, id string) (*api.WorkItem, error) {
	wi := new(api.WorkItem)
	if err := c.do(ctx, http.MethodGet, entityPath(workItemsSet, id), nil, wi, http.StatusOK); err != nil {
		return nil, fmt.Errorf("reading work item %s: %w", id, err)
	}
	return wi, nil
}

// GetWorkItemStatus reads only the Status property of a work item.
func (c *Client) GetWorkItemStatus(ctx context.Context, id string) (api.ExecutionStatus, error) {
	var resp struct {
		Value *api.ExecutionStatus `json:"value"`
	}
	if err := c.do(ctx, http.MethodGet, entityPath(workItemsSet, id)+"/Status", nil, &resp, http.StatusOK); err != nil {
		return "", fmt.Errorf("reading status of work item %s: %w", id, err)
	}
	if resp.Value == nil {
		return "", fmt.Errorf("reading status of work item %s: response has no value", id)
	}
	return *resp.Value, nil
}
