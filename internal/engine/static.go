package engine

import (
	"github.com/roach88/perfmodel/internal/model"
	"github.com/roach88/perfmodel/internal/trace"
)

// staticBuilder merges the architecture facts of a trace into the static
// graph. The static view (components, interfaces, realizations, usages)
// and the deployment view (artifacts, nodes, manifestations, deployments)
// are each deduplicated by fingerprint digest on their own, so a trace of
// a known shape adds nothing whatever its id, and a new shape is never
// skipped because its id was reused by another run.
type staticBuilder struct{}

// pending reports whether a trace with fingerprint digest key would
// change either view.
func (staticBuilder) pending(g *model.StaticGraph, key string) bool {
	return !g.StaticApplied.Contains(key) || !g.DeploymentApplied.Contains(key)
}

// merge reports which views t was applied to.
func (staticBuilder) merge(g *model.StaticGraph, t *trace.Trace, key string) (staticView, deploymentView bool) {
	staticGuard := shapeGuard{applied: &g.StaticApplied}
	deployGuard := shapeGuard{applied: &g.DeploymentApplied}
	staticView = !staticGuard.seen(key)
	deploymentView = !deployGuard.seen(key)
	if !staticView && !deploymentView {
		return false, false
	}

	for _, msg := range t.Messages {
		if msg.Kind == trace.Reply {
			continue
		}
		for _, e := range [2]trace.Execution{msg.Sender, msg.Receiver} {
			if e.IsEntry() {
				continue
			}
			if staticView {
				addStatic(g, e)
			}
			if deploymentView {
				addDeployment(g, e)
			}
		}
		if staticView && !msg.Sender.IsEntry() && !msg.Receiver.IsEntry() {
			g.Use(trace.InterfaceName(msg.Sender), trace.InterfaceName(msg.Receiver))
		}
	}

	if staticView {
		staticGuard.mark(key)
	}
	if deploymentView {
		deployGuard.mark(key)
	}
	return staticView, deploymentView
}

func addStatic(g *model.StaticGraph, e trace.Execution) {
	c, _ := g.Component(e.Component, e.ComponentType)
	iface, _ := g.Interface(trace.InterfaceName(e))
	g.Realize(c.Name, iface.Name)
	c.AddOperation(model.Operation{Name: e.Signature, Span: trace.OperationSpanName(e)})
}

func addDeployment(g *model.StaticGraph, e trace.Execution) {
	if e.Allocation != "" {
		a, _ := g.Artifact(e.Allocation)
		g.Manifest(a.Name, e.Component)
	}
	if e.Container != "" {
		n, _ := g.Node(e.Container)
		n.ExecHost = true
		if e.Allocation != "" {
			g.Deploy(n.Name, e.Allocation)
		}
	}
}
