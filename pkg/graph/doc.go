// Package graph defines the core data model for FlowGrid: typed nodes,
// the registry that owns them, and the directed connections between them.
// The graph is mutable session state owned by one adapter at a time;
// evaluation lives in the engine package.
package graph
