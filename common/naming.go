package common

import (
	"fmt"
	"strings"
)

// NamespaceSeparator separates the namespace from the name in a qualified identifier
const NamespaceSeparator = ":"

// IsQualified returns true if the id is already prefixed by a namespace
func IsQualified(id string) bool {
	ns, name, ok := strings.Cut(id, NamespaceSeparator)
	return ok && ns != "" && name != ""
}

// QualifyID prefixes the id with the namespace if it is not already qualified.
// A qualified id is never prefixed twice.
func QualifyID(namespace, id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("QualifyID: empty id")
	}
	_, name, found := strings.Cut(id, NamespaceSeparator)
	switch {
	case !found:
		name = id
	case name == "":
		return "", fmt.Errorf("QualifyID: empty name in %s", id)
	case IsQualified(id):
		return id, nil
	}
	if namespace == "" {
		return "", fmt.Errorf("QualifyID: no namespace to qualify %s", id)
	}
	return namespace + NamespaceSeparator + name, nil
}

// SplitQualifiedID returns the namespace and the name of a qualified id
func SplitQualifiedID(id string) (string, string, error) {
	ns, name, ok := strings.Cut(id, NamespaceSeparator)
	if !ok || ns == "" || name == "" {
		return "", "", fmt.Errorf("SplitQualifiedID: %s is not qualified", id)
	}
	return ns, name, nil
}

// BandID returns the id of the band of the product
func BandID(productID, bandName string) string {
	return productID + NamespaceSeparator + bandName
}

// ImageID returns the id of the image of the product
func ImageID(productID, imageName string) string {
	return productID + NamespaceSeparator + imageName
}
