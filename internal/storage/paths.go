package storage

import (
	"fmt"
	"regexp"
	"strings"
)

// InternalPathPrefix marks model references the processing service has
// already placed under the product tree. Anything else is an external URL
// that still needs to be fetched and stored.
const InternalPathPrefix = "/uploads/products/"

// folderNameRe mirrors the collection-name cleanup: ASCII word characters
// and CJK ideographs survive, the rest become underscores.
var folderNameRe = regexp.MustCompile(`[^a-zA-Z0-9_\x{4e00}-\x{9fff}]`)

// ProductFolderName derives the folder for a product that arrived without
// a pre-assigned one.
func ProductFolderName(productName, productID string) string {
	return folderNameRe.ReplaceAllString(productName, "_") + "_product_" + productID
}

// ImageKey is the object key for the n-th modal image (1-based).
func ImageKey(folder string, n int, ext string) string {
	return fmt.Sprintf("products/%s/images/img%d.%s", folder, n, ext)
}

// ModelKey is the object key for a model binary downloaded on save.
func ModelKey(folder string) string {
	return fmt.Sprintf("products/%s/model/%s.glb", folder, folder)
}

// StoredPath converts an object key into the path recorded on the product
// document, matching the original uploads/ tree layout.
func StoredPath(key string) string {
	return "uploads/" + key
}

// IsInternalModelPath reports whether a model reference was already
// placed by the processing service.
func IsInternalModelPath(modelURL string) bool {
	return strings.HasPrefix(modelURL, InternalPathPrefix)
}
