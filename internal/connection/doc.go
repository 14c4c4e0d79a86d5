// Package connection is the WebSocket transport: it upgrades HTTP requests,
// pumps frames in and out of each socket, and reports connects, inbound
// messages, and drops to the hub. It carries no game knowledge.
package connection
