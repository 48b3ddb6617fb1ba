package client

import (
	"context"
	"fmt"
	"net/http"

	api "github.com/xiaodongliang/design.automation-.net-custom.activity.sample/api/v1alpha1"
)

const appPackagesSet = "AppPackages"

// GetAppPackage returns ErrNotFound (wrapped) when the package does not exist.
func (c *Client) GetAppPackage(ctx context.Context, id string) (*api.AppPackage, error) {
	pkg := new(api.AppPackage)
	if err := c.do(ctx, http.MethodGet, entityPath(appPackagesSet, id), nil, pkg, http.StatusOK); err != nil {
		return nil, fmt.Errorf("reading app package %s: %w", id, err)
	}
	return pkg, nil
}

func (c *Client) CreateAppPackage(ctx context.Context, pkg *api.AppPackage) (*api.AppPackage, error) {
	created := new(api.AppPackage)
	if err := c.do(ctx, http.MethodPost, appPackagesSet, pkg, created, http.StatusCreated, http.StatusOK); err != nil {
		return nil, fmt.Errorf("creating app package %s: %w", pkg.Id, err)
	}
	return created, nil
}

// UpdateAppPackage sends the package as a partial update.
func (c *Client) UpdateAppPackage(ctx context.Context, pkg *api.AppPackage) error {
	if err := c.do(ctx, http.MethodPatch, entityPath(appPackagesSet, pkg.Id), pkg, nil, http.StatusNoContent, http.StatusOK); err != nil {
		return fmt.Errorf("updating app package %s: %w", pkg.Id, err)
	}
	return nil
}

func (c *Client) DeleteAppPackage(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, entityPath(appPackagesSet, id), nil, nil, http.StatusNoContent, http.StatusOK); err != nil {
		return fmt.Errorf("deleting app package %s: %w", id, err)
	}
	return nil
}

// GetAppPackageUploadURL asks the service for a URL the package archive can be PUT to.
func (c *Client) GetAppPackageUploadURL(ctx context.Context) (string, error) {
	var resp api.ValueResponse[string]
	if err := c.do(ctx, http.MethodGet, appPackagesSet+"/Operations.GetUploadUrl()", nil, &resp, http.StatusOK); err != nil {
		return "", fmt.Errorf("requesting upload url: %w", err)
	}
	if resp.Value == "" {
		return "", fmt.Errorf("requesting upload url: %w", ErrEmptyResponse)
	}
	return resp.Value, nil
}
