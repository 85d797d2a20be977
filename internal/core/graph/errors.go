// Package graph defines domain-specific errors
package graph

import "errors"

// Domain errors - DRY principle: defined once, used everywhere
var (
	// Graph errors
	ErrGraphNotFound = errors.New("graph not found")

	// Definition errors
	ErrNoNodes            = errors.New("definition has no nodes")
	ErrNoEntryEdge        = errors.New("no edge leaves START")
	ErrMultipleEntryEdges = errors.New("more than one edge leaves START")
	ErrUnreachableNode    = errors.New("node is not reachable from START")
	ErrNoPathToEnd        = errors.New("no path reaches END")

	// Node errors
	ErrInvalidNodeID      = errors.New("invalid node ID")
	ErrReservedNodeID     = errors.New("node ID is reserved")
	ErrUnknownNodeType    = errors.New("unknown node type")
	ErrDuplicateNode      = errors.New("duplicate node ID")
	ErrNilConfig          = errors.New("node config cannot be nil")
	ErrConfigTypeMismatch = errors.New("node config does not match node type")

	// Edge errors
	ErrInvalidSource                 = errors.New("invalid source node")
	ErrInvalidTarget                 = errors.New("invalid target node")
	ErrEndAsSource                   = errors.New("END cannot be an edge source")
	ErrStartAsTarget                 = errors.New("START cannot be an edge target")
	ErrSourceNodeNotFound            = errors.New("source node not found")
	ErrTargetNodeNotFound            = errors.New("target node not found")
	ErrUnknownEdgeType               = errors.New("unknown edge type")
	ErrMissingCondition              = errors.New("conditional edge missing condition")
	ErrUnexpectedCondition           = errors.New("unconditional edge carries a condition")
	ErrUnknownConditionType          = errors.New("unknown condition type")
	ErrMissingConditionKey           = errors.New("condition missing state key")
	ErrConditionTargetNotDestination = errors.New("condition target is not a declared destination")
)
