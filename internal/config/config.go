package config

import (
	"bufio"
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var (
	// DefaultBaseDirectoryPath is where LFFS stores configuration and data
	// for a device. It defaults to $LFFS_BASE if set, otherwise
	// $HOME/lib/lffs.
	DefaultBaseDirectoryPath string
)

func init() {
	if base := os.Getenv("LFFS_BASE"); base != "" {
		DefaultBaseDirectoryPath = base
	} else {
		DefaultBaseDirectoryPath = os.ExpandEnv("$HOME/lib/lffs")
	}
}

// C is the configuration for a single device participating in one
// organisation as one user.
type C struct {
	// OrganisationID, UserID and DeviceName identify this device. UserID
	// and DeviceName form the DeviceID "<UserID>@<DeviceName>" (see
	// ids.DeviceIDFromParts). They are validated by the ids package's
	// constructors, not by this package.
	OrganisationID string
	UserID         string
	DeviceName     string

	// 64 hex digits - do not lose this or you lose access to all data
	// encrypted with it.
	EncryptionKey string

	// Path to the manifest/blob cache. Defaults to base/cache.
	CacheDirectory string

	// Local blob store backend: "disk", "null", "s3" or "paired".
	Storage string

	// These only make sense if Storage is "s3" or "paired".
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string

	// This only makes sense if Storage is "disk" or "paired".
	// If the path is relative, it is assumed relative to the base dir.
	DiskStoreDir string

	// Directory holding the LFFS config file and other files. Other
	// directories and files are derived from this.
	base string

	// Computed from the corresponding string at load time.
	encryptionKey []byte
}

// Load loads the configuration from the file called "config" in the
// provided base directory.
func Load(base string) (*C, error) {
	filename := filepath.Join(base, "config")
	if fi, err := os.Stat(filename); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	} else if fi.Mode()&0077 != 0 {
		return nil, fmt.Errorf("config.Load %q: mode is %#o, want at most %#o",
			filename, fi.Mode()&0777, fi.Mode()&0700)
	}
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	c, err := load(f)
	if err != nil {
		return nil, err
	}
	c.base = base
	c.encryptionKey, err = hex.DecodeString(c.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", c.EncryptionKey, err)
	}
	if c.DiskStoreDir != "" && !filepath.IsAbs(c.DiskStoreDir) {
		c.DiskStoreDir = filepath.Clean(filepath.Join(c.base, c.DiskStoreDir))
	}
	if c.Storage == "" {
		c.Storage = "disk"
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *C) validate() error {
	const method = "validate"
	if c.OrganisationID == "" {
		return errorf(method, "missing organisation-id")
	}
	if c.UserID == "" {
		return errorf(method, "missing user-id")
	}
	if c.DeviceName == "" {
		return errorf(method, "missing device-name")
	}
	switch c.Storage {
	case "disk", "null", "s3", "paired":
	default:
		return errorf(method, "unrecognized storage backend: %q", c.Storage)
	}
	return nil
}

func load(f io.Reader) (*C, error) {
	c := C{}
	s := bufio.NewScanner(f)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		i := strings.IndexAny(line, " \t")
		if i == -1 {
			return nil, fmt.Errorf("load: no separator in %q", line)
		}
		key, val := line[:i], strings.TrimSpace(line[i:])
		switch key {
		case "organisation-id":
			c.OrganisationID = val
		case "user-id":
			c.UserID = val
		case "device-name":
			c.DeviceName = val
		case "cache-directory":
			c.CacheDirectory = val
		case "disk-store-dir":
			c.DiskStoreDir = val
		case "encryption-key":
			c.EncryptionKey = val
		case "s3-bucket":
			c.S3Bucket = val
		case "s3-access-key":
			c.S3AccessKey = val
		case "s3-secret-key":
			c.S3SecretKey = val
		case "s3-region":
			c.S3Region = val
		case "storage":
			c.Storage = val
		default:
			return nil, fmt.Errorf("load: unknown key %q", key)
		}
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	return &c, nil
}

func (c *C) CacheDirectoryPath() string {
	if c.CacheDirectory != "" {
		return c.CacheDirectory
	}
	return path.Join(c.base, "cache")
}

// PropagationLogFilePath is where a storage.Paired instance logs keys pending
// propagation from the fast store to the slow store. This ensures durable
// writes are eventually copied to the slow store even across restarts.
func (c *C) PropagationLogFilePath() string {
	return path.Join(c.base, "propagation.log")
}

func (c *C) StagingDirectoryPath() string {
	return path.Join(c.base, "staging")
}

func (c *C) EncryptionKeyBytes() []byte {
	return c.encryptionKey
}

// RootFilePath is where this device's local root Access is persisted,
// mirroring the teacher's tree.Store.LocalRootKey file ("root" under the
// base directory).
func (c *C) RootFilePath() string {
	return path.Join(c.base, "root")
}

// Initialize generates an initial configuration at the given directory.
func Initialize(baseDir, organisationID, userID, deviceName string) error {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return fmt.Errorf("%q: could not mkdir: %w", baseDir, err)
	}
	p := filepath.Join(baseDir, "config")
	_, err := os.Stat(p)
	if err == nil {
		return fmt.Errorf("%q: already exists", p)
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("%q: could not determine if it exists: %w", p, err)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "organisation-id %s\n", organisationID)
	fmt.Fprintf(&buf, "user-id %s\n", userID)
	fmt.Fprintf(&buf, "device-name %s\n", deviceName)
	b := make([]byte, 32)
	n, err := rand.Read(b)
	if err != nil {
		return fmt.Errorf("could not read 32 random bytes: %w", err)
	}
	if n != 32 {
		return fmt.Errorf("could not read 32 random bytes, got only %d", n)
	}
	fmt.Fprintf(&buf, "encryption-key %02x\n", b)
	buf.WriteString("storage disk\n")
	buf.WriteString("disk-store-dir permanent\n")
	if err := os.WriteFile(p, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("config.Initialize %q: %w", p, err)
	}
	return nil
}
