package aks

// Resource group naming for the AKS driver.
//
// settings.AZURE_RESOURCE_GROUP_NAME || "{prefix}_{stack}_{hash}"
// where prefix is settings.AZURE_RESOURCE_PREFIX || "botpressops" and hash is
// derived from subscription and stack. The result is truncated to the Azure
// limit preserving the hash suffix.

import (
	"fmt"

	"github.com/yaegashi/botpressops/internal/naming"
)

const (
	defaultResourcePrefix = "botpressops"
	maxResourcePrefix     = 32
	maxResourceName       = 72
	keyResourcePrefix     = "AZURE_RESOURCE_PREFIX"
	keyResourceGroupName  = "AZURE_RESOURCE_GROUP_NAME"
)

// safeTruncate ensures the resulting name does not exceed maxResourceName,
// preserving the hash suffix.
func safeTruncate(base, hash string) (string, error) {
	maxBaseLen := maxResourceName - (len(hash) + 1)
	if maxBaseLen < 1 {
		return "", fmt.Errorf("hash too long: %d chars exceeds limit", len(hash))
	}
	if len(base) > maxBaseLen {
		base = base[:maxBaseLen]
	}
	return fmt.Sprintf("%s_%s", base, hash), nil
}

func (d *driver) defaultResourceGroupName() (string, error) {
	if v := d.setting(keyResourceGroupName); v != "" {
		return v, nil
	}
	if d.stack == "" {
		return "", fmt.Errorf("stack name is required to derive the resource group name")
	}
	h := naming.ShortHash(d.AzureSubscriptionId+"/"+d.stack, 6)
	name, err := safeTruncate(fmt.Sprintf("%s_%s", d.resourcePrefix, d.stack), h)
	if err != nil {
		return "", fmt.Errorf("resource group name: %w", err)
	}
	return name, nil
}

// tags returns the tags applied to every Azure resource the driver creates.
func (d *driver) tags() map[string]*string {
	managedBy := "botpressops"
	stack := d.stack
	hash := naming.StackHash(d.stack)
	return map[string]*string{
		"managed-by":             &managedBy,
		"botpressops-stack":      &stack,
		"botpressops-stack-hash": &hash,
	}
}
