package model

import "slices"

// StaticGraph is the architecture side of the model.
//
// Elements are created once and reused. Relationships are idempotent
// From -> To edges kept in first-seen order.
type StaticGraph struct {
	Components []*Component `json:"components" yaml:"components"`
	Interfaces []*Interface `json:"interfaces" yaml:"interfaces"`
	Artifacts  []*Artifact  `json:"artifacts" yaml:"artifacts"`
	Nodes      []*Node      `json:"nodes" yaml:"nodes"`

	// Component realizes Interface.
	Realizations []Edge `json:"realizations" yaml:"realizations"`
	// Artifact manifests Component.
	Manifestations []Edge `json:"manifestations" yaml:"manifestations"`
	// Node deploys Artifact.
	Deployments []Edge `json:"deployments" yaml:"deployments"`
	// Sender interface uses receiver interface.
	Usages []Edge `json:"usages" yaml:"usages"`

	// Fingerprint digests already merged into the static and deployment
	// views. Trace ids restart with every monitoring run, so the views are
	// keyed by trace shape instead.
	StaticApplied     KeySet `json:"static_applied" yaml:"static_applied"`
	DeploymentApplied KeySet `json:"deployment_applied" yaml:"deployment_applied"`
}

// NewStaticGraph returns an empty graph.
func NewStaticGraph() *StaticGraph {
	return &StaticGraph{}
}

// Component is a deployable software component.
type Component struct {
	Name       string      `json:"name" yaml:"name"`
	Type       string      `json:"type" yaml:"type"`
	Operations []Operation `json:"operations" yaml:"operations"`
}

// Operation is an operation a component provides.
type Operation struct {
	Name string `json:"name" yaml:"name"`

	// Span is the span representation the operation's activations carry.
	Span string `json:"span" yaml:"span"`
}

// AddOperation adds op unless an operation with the same name exists.
func (c *Component) AddOperation(op Operation) bool {
	for _, o := range c.Operations {
		if o.Name == op.Name {
			return false
		}
	}
	c.Operations = append(c.Operations, op)
	return true
}

// Interface is a provided operation signature.
type Interface struct {
	Name string `json:"name" yaml:"name"`
}

// Artifact is a deployed unit that manifests a component.
type Artifact struct {
	Name string `json:"name" yaml:"name"`
}

// Node is a deployment node.
type Node struct {
	Name string `json:"name" yaml:"name"`

	// ExecHost marks nodes that executed monitored operations.
	ExecHost bool `json:"exec_host" yaml:"exec_host"`
}

// Edge is a directed relationship between two named elements.
type Edge struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// Component finds or creates the component named name.
func (g *StaticGraph) Component(name, typ string) (*Component, bool) {
	for _, c := range g.Components {
		if c.Name == name {
			return c, false
		}
	}
	c := &Component{Name: name, Type: typ}
	g.Components = append(g.Components, c)
	return c, true
}

// Interface finds or creates the interface named name.
func (g *StaticGraph) Interface(name string) (*Interface, bool) {
	for _, i := range g.Interfaces {
		if i.Name == name {
			return i, false
		}
	}
	i := &Interface{Name: name}
	g.Interfaces = append(g.Interfaces, i)
	return i, true
}

// Artifact finds or creates the artifact named name.
func (g *StaticGraph) Artifact(name string) (*Artifact, bool) {
	for _, a := range g.Artifacts {
		if a.Name == name {
			return a, false
		}
	}
	a := &Artifact{Name: name}
	g.Artifacts = append(g.Artifacts, a)
	return a, true
}

// Node finds or creates the node named name.
func (g *StaticGraph) Node(name string) (*Node, bool) {
	for _, n := range g.Nodes {
		if n.Name == name {
			return n, false
		}
	}
	n := &Node{Name: name}
	g.Nodes = append(g.Nodes, n)
	return n, true
}

// FindComponent returns the component named name, or nil.
func (g *StaticGraph) FindComponent(name string) *Component {
	for _, c := range g.Components {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Realize records that component realizes iface.
func (g *StaticGraph) Realize(component, iface string) bool {
	return addEdge(&g.Realizations, Edge{From: component, To: iface})
}

// Manifest records that artifact manifests component.
func (g *StaticGraph) Manifest(artifact, component string) bool {
	return addEdge(&g.Manifestations, Edge{From: artifact, To: component})
}

// Deploy records that node deploys artifact.
func (g *StaticGraph) Deploy(node, artifact string) bool {
	return addEdge(&g.Deployments, Edge{From: node, To: artifact})
}

// Use records that interface from uses interface to.
func (g *StaticGraph) Use(from, to string) bool {
	return addEdge(&g.Usages, Edge{From: from, To: to})
}

func addEdge(edges *[]Edge, e Edge) bool {
	if slices.Contains(*edges, e) {
		return false
	}
	*edges = append(*edges, e)
	return true
}
