// Package progress aggregates the process counters of a scheduler run for
// collaborators that poll the engine while a simulation advances.
package progress
