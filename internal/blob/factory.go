package blob

import (
	"context"
	"fmt"
	"os"
)

// Open selects a blob store from NEURONCORE_BLOB_DRIVER. The filesystem
// driver is the default, rooted at NEURONCORE_BLOB_FS_ROOT (./blobdata when
// unset).
func Open(ctx context.Context) (Store, error) {
	driver := Driver(os.Getenv("NEURONCORE_BLOB_DRIVER"))
	if driver == "" {
		driver = DriverFilesystem
	}
	switch driver {
	case DriverFilesystem:
		return NewFilesystem(os.Getenv("NEURONCORE_BLOB_FS_ROOT"))
	case DriverMemory:
		return NewMemory(), nil
	case DriverS3:
		return OpenS3FromEnv(ctx)
	default:
		return nil, fmt.Errorf("unknown blob driver %q", driver)
	}
}
