// Package watch provides the recursive file watcher behind `rewatch run`.
// It monitors a directory tree, keeps newly created subdirectories under
// watch, filters change events by path suffix and hands every qualifying
// change to a handler.
package watch
