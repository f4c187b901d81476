package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/perfmodel/internal/digest"
	"github.com/roach88/perfmodel/internal/model"
)

// modelTables lists every table Save rewrites, children before parents.
var modelTables = []string{
	"annotations",
	"static_applied",
	"static_edges",
	"operations",
	"static_elements",
	"messages",
	"spans",
	"participants",
	"applied_trace_ids",
	"interactions",
	"scenarios",
}

// Save replaces the stored model with m in one transaction. Either the
// whole model is written or the previous snapshot stays intact.
func (s *Store) Save(ctx context.Context, m *model.Model) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save model: begin: %w", err)
	}
	defer tx.Rollback()

	for _, table := range modelTables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("save model: clear %s: %w", table, err)
		}
	}

	w := &writer{ctx: ctx, tx: tx}
	for i, sc := range m.Scenarios {
		w.scenario(i, sc)
	}
	if m.Static != nil {
		w.static(m.Static)
	}
	for _, a := range m.Project(s.rateScale) {
		w.exec(`INSERT INTO annotations (owner_id, namespace, key, value) VALUES (?, ?, ?, ?)`,
			a.Owner, a.Namespace, a.Key, a.Value)
	}
	if w.err != nil {
		return fmt.Errorf("save model: %w", w.err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save model: commit: %w", err)
	}
	return nil
}

// writer runs inserts until the first error and then does nothing.
type writer struct {
	ctx context.Context
	tx  *sql.Tx
	err error
}

func (w *writer) exec(query string, args ...any) {
	if w.err != nil {
		return
	}
	if _, err := w.tx.ExecContext(w.ctx, query, args...); err != nil {
		w.err = err
	}
}

func (w *writer) scenario(pos int, sc *model.Scenario) {
	w.exec(`
		INSERT INTO scenarios (name, position, actor, earliest_start, latest_end, total_trace_count)
		VALUES (?, ?, ?, ?, ?, ?)
	`, sc.Name, pos, sc.Actor, sc.EarliestStart, sc.LatestEnd, sc.TotalTraceCount)

	for i, in := range sc.Interactions {
		w.exec(`
			INSERT INTO interactions (scenario, name, position, fingerprint, fingerprint_digest)
			VALUES (?, ?, ?, ?, ?)
		`, sc.Name, in.Name, i, in.Fingerprint, digest.Fingerprint(in.Fingerprint))

		for _, id := range in.AppliedTraceIDs {
			w.exec(`INSERT INTO applied_trace_ids (scenario, interaction, trace_id) VALUES (?, ?, ?)`,
				sc.Name, in.Name, id)
		}
		for j, p := range in.Participants {
			w.exec(`
				INSERT INTO participants (scenario, interaction, name, position, component_ref)
				VALUES (?, ?, ?, ?, ?)
			`, sc.Name, in.Name, p.Name, j, p.ComponentRef)
		}
		for j, sp := range in.Spans {
			w.exec(`
				INSERT INTO spans (scenario, interaction, representation, idx, position, participant,
					operation, open_message, close_message, sample_count, sum_exec_time)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, sc.Name, in.Name, sp.Key.Representation, sp.Key.Index, j, sp.Participant,
				sp.Operation, sp.OpenMessage, sp.CloseMessage, sp.SampleCount, sp.SumExecTime)
		}
		for _, msg := range in.Messages {
			w.exec(`
				INSERT INTO messages (scenario, interaction, idx, representation, kind, sender, receiver, label)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`, sc.Name, in.Name, msg.Key.Index, msg.Key.Representation, string(msg.Kind),
				msg.Sender, msg.Receiver, msg.Label)
		}
	}
}

func (w *writer) static(g *model.StaticGraph) {
	const element = `INSERT INTO static_elements (kind, name, position, type, exec_host) VALUES (?, ?, ?, ?, ?)`
	for i, c := range g.Components {
		w.exec(element, kindComponent, c.Name, i, c.Type, false)
		for j, op := range c.Operations {
			w.exec(`INSERT INTO operations (component, name, position, span) VALUES (?, ?, ?, ?)`,
				c.Name, op.Name, j, op.Span)
		}
	}
	for i, x := range g.Interfaces {
		w.exec(element, kindInterface, x.Name, i, "", false)
	}
	for i, a := range g.Artifacts {
		w.exec(element, kindArtifact, a.Name, i, "", false)
	}
	for i, n := range g.Nodes {
		w.exec(element, kindNode, n.Name, i, "", n.ExecHost)
	}

	edges := []struct {
		kind  string
		edges []model.Edge
	}{
		{edgeRealize, g.Realizations},
		{edgeManifest, g.Manifestations},
		{edgeDeploy, g.Deployments},
		{edgeUse, g.Usages},
	}
	for _, set := range edges {
		for i, e := range set.edges {
			w.exec(`INSERT INTO static_edges (kind, src, dst, position) VALUES (?, ?, ?, ?)`,
				set.kind, e.From, e.To, i)
		}
	}

	const applied = `INSERT INTO static_applied (view, fingerprint_digest) VALUES (?, ?)`
	for _, key := range g.StaticApplied {
		w.exec(applied, viewStatic, key)
	}
	for _, key := range g.DeploymentApplied {
		w.exec(applied, viewDeployment, key)
	}
}

// Discriminator values of the static tables.
const (
	kindComponent = "component"
	kindInterface = "interface"
	kindArtifact  = "artifact"
	kindNode      = "node"

	edgeRealize  = "realize"
	edgeManifest = "manifest"
	edgeDeploy   = "deploy"
	edgeUse      = "use"

	viewStatic     = "static"
	viewDeployment = "deployment"
)
