// Package dispatch routes chat messages through a tree of handlers and
// commands.
//
// A message body first goes through a PrefixResolver. The remaining input is
// handed to the root HandlerNode, which picks a child by the next token
// (commands before handlers), evaluates the child's authorization chain and
// either recurses into a child handler or executes a command action. Every
// failure ends the dispatch locally with at most one reply.
//
// The tree is built once through a NodeFactory and is read-only afterwards,
// so one tree serves any number of concurrent dispatches.
package dispatch
