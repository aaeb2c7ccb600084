package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/okian/squigscan/pkg/logger"
)

const checkpointFile = "checkpoint.json"

// Checkpoint is the ephemeral resume marker: the set of domains fully
// processed in the in-progress run. It is written after every domain batch
// and deleted only once the whole run completes, so a restart resumes from
// the first unfinished domain.
type Checkpoint struct {
	path      string
	Completed []string `json:"completed"`
}

// LoadCheckpoint reads the marker from dir. A missing or corrupt marker
// yields an empty checkpoint (scan from the beginning).
func LoadCheckpoint(ctx context.Context, dir string) *Checkpoint {
	cp := &Checkpoint{path: filepath.Join(dir, checkpointFile)}
	data, err := os.ReadFile(cp.path)
	if err != nil {
		return cp
	}
	if err := json.Unmarshal(data, cp); err != nil {
		logger.Get().Named("cache").Warn(ctx, "checkpoint corrupt; starting fresh", logger.Error(err))
		cp.Completed = nil
	}
	return cp
}

// Done reports whether a domain was completed by the interrupted run.
func (c *Checkpoint) Done(domain string) bool {
	for _, d := range c.Completed {
		if d == domain {
			return true
		}
	}
	return false
}

// MarkDone records a completed domain.
func (c *Checkpoint) MarkDone(domain string) {
	if !c.Done(domain) {
		c.Completed = append(c.Completed, domain)
	}
}

// Save persists the marker as a whole-file replacement.
func (c *Checkpoint) Save() error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}
	return writeFileAtomic(c.path, data)
}

// Clear removes the marker after a fully successful run.
func (c *Checkpoint) Clear() error {
	err := os.Remove(c.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove checkpoint: %w", err)
	}
	c.Completed = nil
	return nil
}
