// Package game holds the tic-tac-toe rules: board representation, marks,
// match phases, and terminal-condition detection.
//
// The package is pure state + functions; it knows nothing about sessions,
// connections, or the wire protocol. The Session Registry is the only
// intended caller.
package game
