package aks

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"
	"github.com/yaegashi/botpressops/internal/logging"
)

func azureShorterErrorString(err error) string {
	errstr := err.Error()
	var responseErr *azcore.ResponseError
	if errors.As(err, &responseErr) {
		errstr = fmt.Sprintf("%d %s (%s)", responseErr.StatusCode, http.StatusText(responseErr.StatusCode), responseErr.ErrorCode)
	}
	return errstr
}

// isNotFoundError checks if an error is a 404 Not Found error.
func isNotFoundError(err error) bool {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		return respErr.StatusCode == http.StatusNotFound
	}
	return false
}

// ensureAzureResourceGroupCreated creates or updates the driver's resource group.
func (d *driver) ensureAzureResourceGroupCreated(ctx context.Context, location string) error {
	groupsClient, err := armresources.NewResourceGroupsClient(d.AzureSubscriptionId, d.TokenCredential, nil)
	if err != nil {
		return fmt.Errorf("create resource groups client: %w", err)
	}
	logger := logging.FromContext(ctx).With("subscription", d.AzureSubscriptionId, "location", location, "name", d.resourceGroupName)
	_, err = groupsClient.CreateOrUpdate(ctx, d.resourceGroupName, armresources.ResourceGroup{Location: to.Ptr(location), Tags: d.tags()}, nil)
	if err != nil {
		logger.Info(ctx, "AKS:EnsureRG/efail", "err", azureShorterErrorString(err))
		return fmt.Errorf("create resource group %s: %w", d.resourceGroupName, err)
	}
	logger.Info(ctx, "AKS:EnsureRG/eok")
	return nil
}

// publicIPAddress reads the ipAddress property of a public IP resource by ID.
func (d *driver) publicIPAddress(ctx context.Context, resourceID string) (string, error) {
	client, err := armresources.NewClient(d.AzureSubscriptionId, d.TokenCredential, nil)
	if err != nil {
		return "", fmt.Errorf("create resources client: %w", err)
	}
	res, err := client.GetByID(ctx, resourceID, publicIPAPIVersion, nil)
	if err != nil {
		return "", fmt.Errorf("get public IP %s: %w", resourceID, err)
	}
	props, ok := res.Properties.(map[string]any)
	if !ok {
		return "", fmt.Errorf("public IP %s has no properties", resourceID)
	}
	ip, _ := props["ipAddress"].(string)
	if ip == "" {
		return "", fmt.Errorf("public IP %s has no address assigned", resourceID)
	}
	return ip, nil
}

const publicIPAPIVersion = "2023-09-01"
