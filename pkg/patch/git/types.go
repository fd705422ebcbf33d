package git

import (
	"time"
)

// CommitInfo describes the commit a rule set was loaded from.
type CommitInfo struct {
	SHA        string    `json:"sha"`
	Author     string    `json:"author"`
	Email      string    `json:"email"`
	Timestamp  time.Time `json:"timestamp"`
	Message    string    `json:"message"`
	Branch     string    `json:"branch"`
	Repository string    `json:"repository"`
}

// PullResult reports what a pull brought in.
type PullResult struct {
	FromSHA      string
	ToSHA        string
	ChangedFiles []string
	HadChanges   bool
}

// SyncStats tracks repository operation counters, logged by the
// manager on shutdown.
type SyncStats struct {
	CloneDuration   time.Duration
	PullDuration    time.Duration
	LastPullTime    time.Time
	LastCommitSHA   string
	SuccessfulPulls int64
	FailedPulls     int64
}

// WatchStats tracks poll watcher counters.
type WatchStats struct {
	PollCount         int64
	SuccessfulReloads int64
	FailedReloads     int64
	SkippedPolls      int64 // Commits that touched no rule files
	LastReloadTime    time.Time
	LastReloadDur     time.Duration
}

// shortSHA trims a commit hash for log output.
func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}
