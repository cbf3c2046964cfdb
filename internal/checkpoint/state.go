// Package checkpoint persists in-progress run state (completed
// invocations and their issues) so a `qlty check` interrupted midway can
// be resumed without re-running invocations that already finished.
package checkpoint

// InvocationResult is the persisted outcome of one completed invocation,
// keyed by the invocation's driver name and first target path so Resume
// can match it back up against the freshly-built Plan.
type InvocationResult struct {
	Driver    string `json:"driver"`
	FirstPath string `json:"first_path"`
	Succeeded bool   `json:"succeeded"`
	IssueJSON []byte `json:"issue_json"` // json-encoded []issue.Issue, kept opaque here to avoid an import cycle
}

// RunState tracks executor progress across an interrupted-and-resumed run.
type RunState struct {
	Version    int                `json:"version"`
	RepoPath   string             `json:"repo_path"`
	CreatedAt  string             `json:"created_at"`
	Completed  []InvocationResult `json:"completed"`
	TotalCount int                `json:"total_count"`
}

// currentVersion is bumped whenever RunState's shape changes incompatibly;
// Resume refuses to load a checkpoint with a different version.
const currentVersion = 1

// NewRunState creates an empty RunState for repoPath.
func NewRunState(repoPath string) *RunState {
	return &RunState{Version: currentVersion, RepoPath: repoPath}
}

// Stale reports whether a loaded RunState is from a different repo or
// checkpoint format version than the current run, in which case it should
// be discarded rather than resumed from.
func (s *RunState) Stale(repoPath string) bool {
	return s.Version != currentVersion || s.RepoPath != repoPath
}
