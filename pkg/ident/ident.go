// Package ident validates namespace/name artifact identifiers.
package ident

import (
	"fmt"
	"strings"
)

// MaxLength is the longest accepted identifier string.
const MaxLength = 64

// Parse verifies an identifier is valid and splits it into namespace and
// name. The accepted form is <namespace>/<name>, longer than 3 characters
// and at most MaxLength.
func Parse(id string) (namespace, name string, err error) {
	if id == "" {
		return "", "", fmt.Errorf("identifier cannot be empty")
	}
	if len(id) <= 3 || len(id) > MaxLength {
		return "", "", fmt.Errorf("identifier must be between 4 and %d characters, got %q", MaxLength, id)
	}
	parts := strings.Split(id, "/")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("identifier must be in the format <namespace>/<name>, got %q", id)
	}
	return parts[0], parts[1], nil
}

// URL renders the tree URL for an artifact at a specific commit under base,
// e.g. URL("https://huggingface.co", "acme", "resnet-50", "main").
func URL(base, namespace, name, commit string) string {
	return fmt.Sprintf("%s/%s/%s/tree/%s", strings.TrimRight(base, "/"), namespace, name, commit)
}
