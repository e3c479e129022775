package file

import (
	"fmt"
	"os"

	"github.com/nextdhcp/nextpan/core/lease/storage"
)

// DefaultPath is used if neither a path is configured nor LEASE_FILE is
// set
const DefaultPath = "/var/lib/nextpan/leases"

// EnvLeaseFile names the environment variable that overwrites DefaultPath
const EnvLeaseFile = "LEASE_FILE"

func init() {
	storage.MustRegister("file", storageFactory)
}

// ResolvePath returns the configured lease file path
func ResolvePath(arguments map[string][]string) (string, error) {
	if args, ok := arguments["__args__"]; ok && len(args) > 0 {
		if len(args) > 1 {
			return "", fmt.Errorf("only one lease file can be configured")
		}
		return args[0], nil
	}

	if f, ok := arguments["file"]; ok {
		if len(f) != 1 {
			return "", fmt.Errorf("only one lease file can be configured")
		}
		return f[0], nil
	}

	if env := os.Getenv(EnvLeaseFile); env != "" {
		return env, nil
	}

	return DefaultPath, nil
}

func storageFactory(arguments map[string][]string) (storage.LeaseStorage, error) {
	path, err := ResolvePath(arguments)
	if err != nil {
		return nil, err
	}

	return Open(path)
}
