package health

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Check probes one item.
type Check struct {
	Category HealthCategory
	ID       string
	Name     string
	Probe    func(ctx context.Context) (HealthStatus, string)
}

// Checker runs a fixed set of checks against a Service.
type Checker struct {
	service *Service
	checks  []Check
}

// NewChecker registers every check's item with service.
func NewChecker(service *Service, checks ...Check) *Checker {
	for _, c := range checks {
		service.RegisterItem(c.Category, c.ID, c.Name)
	}
	return &Checker{service: service, checks: checks}
}

// CheckAll runs every check and records the results.
func (c *Checker) CheckAll(ctx context.Context) error {
	return c.check(ctx, "")
}

// CheckCategory runs the checks of one category.
func (c *Checker) CheckCategory(ctx context.Context, category HealthCategory) error {
	return c.check(ctx, category)
}

func (c *Checker) check(ctx context.Context, category HealthCategory) error {
	for _, chk := range c.checks {
		if category != "" && chk.Category != category {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		status, msg := chk.Probe(ctx)
		c.service.Set(chk.Category, chk.ID, status, msg)
	}
	return nil
}

// TrackingFileCheck reports an error when the tracking file is missing or
// unreadable.
func TrackingFileCheck(path string) Check {
	return Check{
		Category: CategoryDataset,
		ID:       "tracking",
		Name:     "Tracking file",
		Probe: func(context.Context) (HealthStatus, string) {
			f, err := os.Open(path)
			if err != nil {
				return StatusError, describePathError(path, err)
			}
			f.Close()
			return StatusOK, ""
		},
	}
}

// SnapshotCheck warns when data.json is missing or older than maxAge.
// maxAge of zero disables the age check.
func SnapshotCheck(path string, maxAge time.Duration) Check {
	return Check{
		Category: CategoryDataset,
		ID:       "snapshot",
		Name:     "Published snapshot",
		Probe: func(context.Context) (HealthStatus, string) {
			info, err := os.Stat(path)
			if err != nil {
				return StatusWarning, describePathError(path, err)
			}
			if age := time.Since(info.ModTime()); maxAge > 0 && age > maxAge {
				return StatusWarning, fmt.Sprintf("snapshot is %s old", age.Round(time.Minute))
			}
			return StatusOK, ""
		},
	}
}

// WritableDirCheck reports an error when the snapshot directory cannot take
// a new file.
func WritableDirCheck(dir string) Check {
	return Check{
		Category: CategoryDataset,
		ID:       "snapshot-dir",
		Name:     "Snapshot directory",
		Probe: func(context.Context) (HealthStatus, string) {
			if err := checkFolderWritable(dir); err != nil {
				return StatusError, err.Error()
			}
			return StatusOK, ""
		},
	}
}

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// DatabaseCheck pings the override database.
func DatabaseCheck(db Pinger) Check {
	return Check{
		Category: CategoryDatabase,
		ID:       "overrides",
		Name:     "Override database",
		Probe: func(ctx context.Context) (HealthStatus, string) {
			if err := db.PingContext(ctx); err != nil {
				return StatusError, err.Error()
			}
			return StatusOK, ""
		},
	}
}

// BreakerStater reports a circuit breaker state name.
type BreakerStater interface {
	State() string
}

// PublisherCheck mirrors the publisher circuit breaker: open is an error,
// half-open a warning.
func PublisherCheck(b BreakerStater) Check {
	return Check{
		Category: CategoryPublisher,
		ID:       "playlist",
		Name:     "Playlist publisher",
		Probe: func(context.Context) (HealthStatus, string) {
			switch state := b.State(); state {
			case "open":
				return StatusError, "publisher circuit is open after repeated failures"
			case "half-open":
				return StatusWarning, "publisher is recovering"
			default:
				return StatusOK, ""
			}
		},
	}
}

func describePathError(path string, err error) string {
	switch {
	case os.IsNotExist(err):
		return fmt.Sprintf("path does not exist: %s", path)
	case os.IsPermission(err):
		return fmt.Sprintf("permission denied: %s", path)
	default:
		return fmt.Sprintf("cannot access path: %v", err)
	}
}

// checkFolderWritable creates and removes a probe file in path.
func checkFolderWritable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return errors.New(describePathError(path, err))
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	tempPath := filepath.Join(path, ".releasewall_health_check_"+uuid.New().String()[:8])
	file, err := os.Create(tempPath)
	if err != nil {
		if os.IsPermission(err) {
			return fmt.Errorf("folder is read-only: %s", path)
		}
		return fmt.Errorf("cannot write to folder: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("cannot close file: %w", err)
	}
	if err := os.Remove(tempPath); err != nil {
		return fmt.Errorf("cannot remove test file: %w", err)
	}
	return nil
}
