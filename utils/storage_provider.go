package utils

import (
	"os"
	"strings"
)

// Receipt images and condo photos live in object storage. GCS is the only
// provider with a full implementation (uploads + signed URLs); the other
// constants exist so STORAGE_PROVIDER misconfiguration fails loudly in
// SignUpload instead of silently signing against the wrong backend.
const (
	StorageProviderGCS      = "gcs"
	StorageProviderFirebase = "firebase"
	StorageProviderDO       = "do"
)

func GetStorageProvider() string {
	provider := strings.TrimSpace(strings.ToLower(os.Getenv("STORAGE_PROVIDER")))
	if provider == "" {
		return StorageProviderGCS
	}
	return provider
}
