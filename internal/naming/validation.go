package naming

import (
	"fmt"
	"strings"

	utilvalidation "k8s.io/apimachinery/pkg/util/validation"
)

func validateDNS1123Label(name string, maximum int, labelKind string) error {
	if name == "" {
		return fmt.Errorf("%s name must not be empty", labelKind)
	}
	if len(name) > maximum {
		return fmt.Errorf("%s name exceeds %d characters", labelKind, maximum)
	}
	if errs := utilvalidation.IsDNS1123Label(name); len(errs) > 0 {
		return fmt.Errorf("invalid %s name: %s", labelKind, strings.Join(errs, ", "))
	}
	return nil
}

// ValidateStackName checks a stack name used in state records and cloud tags.
func ValidateStackName(name string) error {
	return validateDNS1123Label(name, 32, "stack")
}

// ValidateNamespaceName checks a Kubernetes namespace name.
func ValidateNamespaceName(name string) error {
	return validateDNS1123Label(name, utilvalidation.DNS1123LabelMaxLength, "namespace")
}

// ValidateServerName checks an Azure PostgreSQL flexible server name (3-63, lowercase).
func ValidateServerName(name string) error {
	if len(name) < 3 {
		return fmt.Errorf("server name must be at least 3 characters")
	}
	return validateDNS1123Label(name, 63, "server")
}

// ValidateDomain checks a fully qualified domain name.
func ValidateDomain(domain string) error {
	d := strings.TrimSuffix(domain, ".")
	if errs := utilvalidation.IsDNS1123Subdomain(d); len(errs) > 0 {
		return fmt.Errorf("invalid domain %q: %s", domain, strings.Join(errs, ", "))
	}
	if !strings.Contains(d, ".") {
		return fmt.Errorf("invalid domain %q: must contain at least one dot", domain)
	}
	return nil
}
