// Package config provides the proofpane configuration system.
//
// Configuration comes from three places, lowest precedence first:
//
//  1. Built-in defaults (Default)
//  2. A TOML configuration file (loader.TOMLLoader)
//  3. PROOFPANE_* environment variables (loader.ApplyEnv)
//
// The merged result is a Config snapshot. Snapshots are plain values;
// mutating one never affects the running system. Components that need to
// react to edits subscribe through the notify package, and the watcher
// package feeds it by monitoring the configuration file for writes.
//
// The Tracker type retains the previously observed proof section and
// reports whether a fresh read differs from it. Lifecycle decisions
// (restarting the checker process, rebuilding overlay styles) key off
// that changed flag so that unrelated configuration edits never cause
// process churn or overlay flicker.
package config
