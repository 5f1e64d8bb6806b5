package aks

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	providerdrv "github.com/yaegashi/botpressops/adapters/drivers/provider"
)

// Settings keys recognized by the AKS driver.
const (
	settingSubscriptionID     = "AZURE_SUBSCRIPTION_ID"
	settingLocation           = "AZURE_LOCATION"
	settingAuthMethod         = "AZURE_AUTH_METHOD"
	settingTenantID           = "AZURE_TENANT_ID"
	settingClientID           = "AZURE_CLIENT_ID"
	settingClientSecret       = "AZURE_CLIENT_SECRET"
	settingFederatedTokenFile = "AZURE_FEDERATED_TOKEN_FILE"
	settingPostgresCAFile     = "AZURE_POSTGRES_CA_FILE"
	settingIngressDNSLabel    = "AZURE_INGRESS_DNS_LABEL"
)

// driver implements the AKS provider driver.
type driver struct {
	TokenCredential     azcore.TokenCredential
	AzureSubscriptionId string
	AzureLocation       string

	stack             string
	resourcePrefix    string
	resourceGroupName string
	settings          map[string]string
	httpClient        *http.Client
}

// ID returns the provider identifier.
func (d *driver) ID() string { return "aks" }

func (d *driver) setting(key string) string {
	if d.settings == nil {
		return ""
	}
	return strings.TrimSpace(d.settings[key])
}

// newCredential selects an azidentity credential according to AZURE_AUTH_METHOD.
func newCredential(get func(string) string) (azcore.TokenCredential, error) {
	authMethod := get(settingAuthMethod)
	if authMethod == "" {
		return nil, fmt.Errorf("%s must be specified", settingAuthMethod)
	}

	var cred azcore.TokenCredential
	var err error
	switch authMethod {
	case "client_secret":
		tenantID := get(settingTenantID)
		clientID := get(settingClientID)
		clientSecret := get(settingClientSecret)
		if tenantID == "" || clientID == "" || clientSecret == "" {
			return nil, fmt.Errorf("client_secret auth requires AZURE_TENANT_ID, AZURE_CLIENT_ID, AZURE_CLIENT_SECRET")
		}
		cred, err = azidentity.NewClientSecretCredential(tenantID, clientID, clientSecret, nil)
	case "managed_identity":
		opts := &azidentity.ManagedIdentityCredentialOptions{}
		if clientID := get(settingClientID); clientID != "" {
			opts.ID = azidentity.ClientID(clientID)
		}
		cred, err = azidentity.NewManagedIdentityCredential(opts)
	case "workload_identity":
		tenantID := get(settingTenantID)
		clientID := get(settingClientID)
		tokenFile := get(settingFederatedTokenFile)
		if tenantID == "" || clientID == "" || tokenFile == "" {
			return nil, fmt.Errorf("workload_identity auth requires AZURE_TENANT_ID, AZURE_CLIENT_ID, AZURE_FEDERATED_TOKEN_FILE")
		}
		cred, err = azidentity.NewWorkloadIdentityCredential(&azidentity.WorkloadIdentityCredentialOptions{
			TenantID:      tenantID,
			ClientID:      clientID,
			TokenFilePath: tokenFile,
		})
	case "azure_cli":
		cred, err = azidentity.NewAzureCLICredential(nil)
	case "azure_developer_cli":
		cred, err = azidentity.NewAzureDeveloperCLICredential(nil)
	default:
		return nil, fmt.Errorf("unsupported %s: %s", settingAuthMethod, authMethod)
	}
	if err != nil {
		return nil, fmt.Errorf("create Azure credential: %w", err)
	}
	return cred, nil
}

// newDriver validates settings and builds a driver without contacting Azure.
func newDriver(stack string, settings map[string]string, cred azcore.TokenCredential) (*driver, error) {
	d := &driver{
		TokenCredential: cred,
		stack:           stack,
		settings:        settings,
		httpClient:      &http.Client{Timeout: 30 * time.Second},
	}
	d.AzureSubscriptionId = d.setting(settingSubscriptionID)
	d.AzureLocation = d.setting(settingLocation)
	if d.AzureSubscriptionId == "" {
		return nil, fmt.Errorf("missing required AKS settings: %s", settingSubscriptionID)
	}

	d.resourcePrefix = d.setting(keyResourcePrefix)
	if d.resourcePrefix == "" {
		d.resourcePrefix = defaultResourcePrefix
	}
	if len(d.resourcePrefix) > maxResourcePrefix {
		return nil, fmt.Errorf("%s exceeds %d characters", keyResourcePrefix, maxResourcePrefix)
	}
	rg, err := d.defaultResourceGroupName()
	if err != nil {
		return nil, err
	}
	d.resourceGroupName = rg
	return d, nil
}

// init registers the AKS driver.
func init() {
	providerdrv.Register("aks", func(stack string, settings map[string]string) (providerdrv.Driver, error) {
		get := func(k string) string {
			if settings == nil {
				return ""
			}
			return strings.TrimSpace(settings[k])
		}
		cred, err := newCredential(get)
		if err != nil {
			return nil, err
		}
		return newDriver(stack, settings, cred)
	})
}
