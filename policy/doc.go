// Package policy maps workflow actions (report, approve, update, reject,
// cancel) to the actor role they require and optionally blocks actions
// altogether. Policies are declared in configuration and consulted by the
// workflow engine before a transition is recorded.
package policy
