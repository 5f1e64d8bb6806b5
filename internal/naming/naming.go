// Package naming derives stable resource names and validates user supplied ones.
package naming

import (
	"crypto/sha1"
	"fmt"
	"strings"
)

// defaultLength defines the hex length of hashes (bits ~ length * 4).
const defaultLength = 6

// ShortHash returns the hex SHA1 prefix of length n (clamped to digest size).
func ShortHash(s string, n int) string {
	sum := sha1.Sum([]byte(s))
	h := fmt.Sprintf("%x", sum)
	if n > len(h) {
		n = len(h)
	}
	return h[:n]
}

// StackHash returns the short hash identifying a stack on shared cloud resources.
func StackHash(stack string) string {
	return ShortHash(stack, defaultLength)
}

// GrantID returns the identifier of a trust grant. It depends only on the
// stack and the grant URN so that a retried create finds the rules an earlier
// partial attempt left behind.
func GrantID(stack, urn string) string {
	return ShortHash(stack+"/"+urn, 12)
}

// GrantRulePrefix returns the common prefix of firewall rules owned by a trust grant.
// Azure firewall rule names allow [A-Za-z0-9_-] only.
func GrantRulePrefix(grantID string) string {
	id := strings.ReplaceAll(grantID, "-", "")
	if len(id) > 12 {
		id = id[:12]
	}
	return "bpops-" + id + "-"
}

// GrantRuleName returns the name of the i-th firewall rule of a trust grant.
func GrantRuleName(grantID string, i int) string {
	return fmt.Sprintf("%s%d", GrantRulePrefix(grantID), i)
}
