package client

import (
	"context"
	"fmt"
	"net/http"

	api "github.com/xiaodongliang/design.automation-.net-custom.activity.sample/api/v1alpha1"
)

const activitiesSet = "Activities"

func (c *Client) GetActivity(ctx context.Context, id string) (*api.Activity, error) {
	activity := new(api.Activity)
	if err := c.do(ctx, http.MethodGet, entityPath(activitiesSet, id), nil, activity, http.StatusOK); err != nil {
		return nil, fmt.Errorf("reading activity %s: %w", id, err)
	}
	return activity, nil
}

func (c *Client) CreateActivity(ctx context.Context, activity *api.Activity) (*api.Activity, error) {
	created := new(api.Activity)
	if err := c.do(ctx, http.MethodPost, activitiesSet, activity, created, http.StatusCreated, http.StatusOK); err != nil {
		return nil, fmt.Errorf("creating activity %s: %w", activity.Id, err)
	}
	return created, nil
}

func (c *Client) DeleteActivity(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, entityPath(activitiesSet, id), nil, nil, http.StatusNoContent, http.StatusOK); err != nil {
		return fmt.Errorf("deleting activity %s: %w", id, err)
	}
	return nil
}
