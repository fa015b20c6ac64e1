package blob

import (
	"context"
	"fmt"
	"strings"
)

// Options selects and configures an artifact store driver.
type Options struct {
	Driver string
	// Root is the filesystem root for the fs driver; the run's base path.
	Root string
	S3   S3Config
}

// Open selects a Store implementation. An empty driver means fs.
func Open(ctx context.Context, opts Options) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(opts.Driver))
	if driver == "" {
		driver = string(DriverFilesystem)
	}
	switch Driver(driver) {
	case DriverFilesystem:
		return NewFilesystem(opts.Root)
	case DriverS3:
		return NewS3(ctx, opts.S3)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", opts.Driver)
	}
}
