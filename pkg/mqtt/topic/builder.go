package topic

import (
	"fmt"
	"strings"
)

// Topic segments shared by a booted node and whoever drives it remotely.
// Changing them breaks operators attached to running nodes.
const (
	// SuffixConsoleOut carries console output (Node -> Operator).
	// Structure: {root}/console/out/{nodeID}
	SuffixConsoleOut = "console/out"

	// SuffixConsoleIn carries typed lines (Operator -> Node).
	// Structure: {root}/console/in/{nodeID}
	SuffixConsoleIn = "console/in"

	// SuffixStatus carries the retained boot phase of a node.
	// Structure: {root}/status/{nodeID}
	SuffixStatus = "status"
)

// Builder constructs the topic strings used by the remote console.
type Builder struct {
	// root is the base namespace for all topics (e.g., "uvm/v1").
	root string
}

// NewBuilder creates a Builder under the given root namespace.
func NewBuilder(root string) *Builder {
	return &Builder{root: strings.TrimSuffix(root, "/")}
}

// ConsoleOut returns the topic a node publishes its console output to.
func (b *Builder) ConsoleOut(nodeID string) string {
	return b.build(SuffixConsoleOut, nodeID)
}

// ConsoleOutWildcard lets an operator follow the output of every node.
// Result: {root}/console/out/+
func (b *Builder) ConsoleOutWildcard() string {
	return b.build(SuffixConsoleOut, Wildcard)
}

// ConsoleIn returns the topic a node reads input lines from.
func (b *Builder) ConsoleIn(nodeID string) string {
	return b.build(SuffixConsoleIn, nodeID)
}

// Status returns the topic carrying a node's boot phase.
func (b *Builder) Status(nodeID string) string {
	return b.build(SuffixStatus, nodeID)
}

// StatusWildcard matches the status topic of every node.
func (b *Builder) StatusWildcard() string {
	return b.build(SuffixStatus, Wildcard)
}

// build joins root, suffix and identifier: {root}/{suffix}/{identifier}
func (b *Builder) build(suffix, id string) string {
	return fmt.Sprintf("%s/%s/%s", b.root, suffix, id)
}
