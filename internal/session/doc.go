// Package session implements the Session Registry: the single source of
// truth for every in-flight match. All mutation goes through the Registry;
// callers receive copies, never pointers into registry state.
package session
