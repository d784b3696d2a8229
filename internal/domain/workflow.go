// Package domain holds the engine's core entities: workflows, nodes, edges,
// contacts, enrollments, executions, logs, and messages.
package domain

import "time"

// NodeType is the closed set of node kinds the engine knows how to run.
type NodeType string

const (
	NodeTypeTriggerStart     NodeType = "trigger_start"
	NodeTypeTimeDelay        NodeType = "time_delay"
	NodeTypeConditionalSplit NodeType = "conditional_split"
	NodeTypeSendSMS          NodeType = "send_sms"
	NodeTypeSendEmail        NodeType = "send_email"
	NodeTypeUpdateStatus     NodeType = "update_status"
	NodeTypeStopOnReply      NodeType = "stop_on_reply"
	NodeTypeCallSubWorkflow  NodeType = "call_sub_workflow"
	NodeTypeReturnToParent   NodeType = "return_to_parent"
)

// Known validates that t is one of the closed node types.
func (t NodeType) Known() bool {
	switch t {
	case NodeTypeTriggerStart, NodeTypeTimeDelay, NodeTypeConditionalSplit,
		NodeTypeSendSMS, NodeTypeSendEmail, NodeTypeUpdateStatus,
		NodeTypeStopOnReply, NodeTypeCallSubWorkflow, NodeTypeReturnToParent:
		return true
	default:
		return false
	}
}

// Position is editor metadata only; it carries no execution semantics.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node belongs to exactly one workflow. Data holds the type-specific
// payload as a loosely-typed map; processors parse the shape they expect.
type Node struct {
	ID         string         `json:"id"`
	WorkflowID string         `json:"workflow_id"`
	Type       NodeType       `json:"type"`
	Position   Position       `json:"position"`
	Data       map[string]any `json:"data"`
}

// Edge connects two nodes within the same workflow. SourceHandle is only
// meaningful for conditional_split ("yes"/"no").
type Edge struct {
	ID           string `json:"id"`
	WorkflowID   string `json:"workflow_id"`
	SourceNodeID string `json:"source_node_id"`
	TargetNodeID string `json:"target_node_id"`
	SourceHandle string `json:"source_handle,omitempty"`
	Label        string `json:"label,omitempty"`
}

// Workflow is a named, versionless directed graph of nodes and edges.
type Workflow struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Enabled     bool      `json:"enabled"`
	Nodes       []*Node   `json:"nodes"`
	Edges       []*Edge   `json:"edges"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NodeByID returns the node with the given id, or nil.
func (w *Workflow) NodeByID(id string) *Node {
	for _, n := range w.Nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// TriggerNode returns the workflow's sole trigger_start node, or nil.
func (w *Workflow) TriggerNode() *Node {
	for _, n := range w.Nodes {
		if n.Type == NodeTypeTriggerStart {
			return n
		}
	}
	return nil
}

// SuccessorByHandle returns the target node id of the outgoing edge from
// fromNodeID matching handle (empty handle matches an edge with no handle
// set, used by every node type except conditional_split).
func (w *Workflow) SuccessorByHandle(fromNodeID, handle string) (string, bool) {
	for _, e := range w.Edges {
		if e.SourceNodeID == fromNodeID && e.SourceHandle == handle {
			return e.TargetNodeID, true
		}
	}
	return "", false
}

// Validate enforces the structural invariants from the data model: exactly
// one trigger_start, unique node ids, edges reference existing nodes, no
// two outgoing conditional_split edges share a handle.
func (w *Workflow) Validate() error {
	if w.Name == "" {
		return ErrWorkflowNameRequired
	}
	if len(w.Nodes) == 0 {
		return ErrWorkflowNoNodes
	}

	seen := make(map[string]bool, len(w.Nodes))
	triggerCount := 0
	for _, n := range w.Nodes {
		if seen[n.ID] {
			return &ValidationError{Field: "nodes", Message: "duplicate node id " + n.ID}
		}
		seen[n.ID] = true

		if !n.Type.Known() {
			return &ValidationError{Field: "nodes", Message: "unknown node type " + string(n.Type)}
		}
		if n.Type == NodeTypeTriggerStart {
			triggerCount++
		}
		if err := validateNodePayload(n); err != nil {
			return err
		}
	}
	if triggerCount != 1 {
		return ErrWorkflowTriggerCount
	}

	handles := make(map[string]map[string]bool)
	for _, e := range w.Edges {
		if !seen[e.SourceNodeID] || !seen[e.TargetNodeID] {
			return &ValidationError{Field: "edges", Message: "edge references unknown node"}
		}
		if handles[e.SourceNodeID] == nil {
			handles[e.SourceNodeID] = make(map[string]bool)
		}
		if e.SourceHandle != "" {
			if handles[e.SourceNodeID][e.SourceHandle] {
				return &ValidationError{Field: "edges", Message: "duplicate outgoing handle " + e.SourceHandle + " from node " + e.SourceNodeID}
			}
			handles[e.SourceNodeID][e.SourceHandle] = true
		}
	}

	return nil
}
