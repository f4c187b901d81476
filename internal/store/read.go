package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/perfmodel/internal/model"
	"github.com/roach88/perfmodel/internal/trace"
)

// Load reads the stored model. An empty database yields an empty model.
//
// Reads run in one read transaction so a concurrent Save is never seen
// half-applied.
func (s *Store) Load(ctx context.Context) (*model.Model, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("load model: begin: %w", err)
	}
	defer tx.Rollback()

	l := &loader{ctx: ctx, tx: tx, m: model.New(), byKey: make(map[[2]string]*model.Interaction)}
	steps := []func() error{
		l.scenarios,
		l.interactions,
		l.appliedIDs,
		l.participants,
		l.spans,
		l.messages,
		l.staticElements,
		l.operations,
		l.staticEdges,
		l.staticApplied,
		l.annotations,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, fmt.Errorf("load model: %w", err)
		}
	}
	return l.m, nil
}

type loader struct {
	ctx context.Context
	tx  *sql.Tx
	m   *model.Model

	// (scenario, interaction name) -> interaction
	byKey map[[2]string]*model.Interaction
}

// each runs query and calls scan once per row.
func (l *loader) each(query string, scan func(*sql.Rows) error) error {
	rows, err := l.tx.QueryContext(l.ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (l *loader) interaction(scenario, name string) (*model.Interaction, error) {
	in, ok := l.byKey[[2]string{scenario, name}]
	if !ok {
		return nil, fmt.Errorf("dangling reference to interaction %s/%s", scenario, name)
	}
	return in, nil
}

func (l *loader) scenarios() error {
	return l.each(`
		SELECT name, actor, earliest_start, latest_end, total_trace_count
		FROM scenarios ORDER BY position
	`, func(rows *sql.Rows) error {
		sc := &model.Scenario{}
		if err := rows.Scan(&sc.Name, &sc.Actor, &sc.EarliestStart, &sc.LatestEnd, &sc.TotalTraceCount); err != nil {
			return fmt.Errorf("scan scenario: %w", err)
		}
		l.m.Scenarios = append(l.m.Scenarios, sc)
		return nil
	})
}

func (l *loader) interactions() error {
	return l.each(`
		SELECT scenario, name, fingerprint
		FROM interactions ORDER BY scenario, position
	`, func(rows *sql.Rows) error {
		in := &model.Interaction{}
		if err := rows.Scan(&in.Scenario, &in.Name, &in.Fingerprint); err != nil {
			return fmt.Errorf("scan interaction: %w", err)
		}
		sc := l.m.Scenario(in.Scenario)
		if sc == nil {
			return fmt.Errorf("interaction %s owned by unknown scenario %q", in.Name, in.Scenario)
		}
		sc.Interactions = append(sc.Interactions, in)
		l.byKey[[2]string{in.Scenario, in.Name}] = in
		return nil
	})
}

func (l *loader) appliedIDs() error {
	return l.each(`
		SELECT scenario, interaction, trace_id
		FROM applied_trace_ids ORDER BY scenario, interaction, trace_id
	`, func(rows *sql.Rows) error {
		var scenario, name string
		var id int64
		if err := rows.Scan(&scenario, &name, &id); err != nil {
			return fmt.Errorf("scan applied id: %w", err)
		}
		in, err := l.interaction(scenario, name)
		if err != nil {
			return err
		}
		in.AppliedTraceIDs.Add(id)
		return nil
	})
}

func (l *loader) participants() error {
	return l.each(`
		SELECT scenario, interaction, name, component_ref
		FROM participants ORDER BY scenario, interaction, position
	`, func(rows *sql.Rows) error {
		var scenario, name string
		p := &model.Participant{}
		if err := rows.Scan(&scenario, &name, &p.Name, &p.ComponentRef); err != nil {
			return fmt.Errorf("scan participant: %w", err)
		}
		in, err := l.interaction(scenario, name)
		if err != nil {
			return err
		}
		in.Participants = append(in.Participants, p)
		return nil
	})
}

func (l *loader) spans() error {
	return l.each(`
		SELECT scenario, interaction, representation, idx, participant, operation,
			open_message, close_message, sample_count, sum_exec_time
		FROM spans ORDER BY scenario, interaction, position
	`, func(rows *sql.Rows) error {
		var scenario, name string
		sp := &model.Span{}
		if err := rows.Scan(&scenario, &name, &sp.Key.Representation, &sp.Key.Index, &sp.Participant,
			&sp.Operation, &sp.OpenMessage, &sp.CloseMessage, &sp.SampleCount, &sp.SumExecTime); err != nil {
			return fmt.Errorf("scan span: %w", err)
		}
		in, err := l.interaction(scenario, name)
		if err != nil {
			return err
		}
		in.Spans = append(in.Spans, sp)
		return nil
	})
}

func (l *loader) messages() error {
	return l.each(`
		SELECT scenario, interaction, idx, representation, kind, sender, receiver, label
		FROM messages ORDER BY scenario, interaction, idx
	`, func(rows *sql.Rows) error {
		var scenario, name, kind string
		msg := &model.MergedMessage{}
		if err := rows.Scan(&scenario, &name, &msg.Key.Index, &msg.Key.Representation, &kind,
			&msg.Sender, &msg.Receiver, &msg.Label); err != nil {
			return fmt.Errorf("scan message: %w", err)
		}
		msg.Kind = trace.Kind(kind)
		in, err := l.interaction(scenario, name)
		if err != nil {
			return err
		}
		in.Messages = append(in.Messages, msg)
		return nil
	})
}

func (l *loader) staticElements() error {
	g := l.m.Static
	return l.each(`
		SELECT kind, name, type, exec_host
		FROM static_elements ORDER BY kind, position
	`, func(rows *sql.Rows) error {
		var kind, name, typ string
		var execHost bool
		if err := rows.Scan(&kind, &name, &typ, &execHost); err != nil {
			return fmt.Errorf("scan static element: %w", err)
		}
		switch kind {
		case kindComponent:
			g.Components = append(g.Components, &model.Component{Name: name, Type: typ})
		case kindInterface:
			g.Interfaces = append(g.Interfaces, &model.Interface{Name: name})
		case kindArtifact:
			g.Artifacts = append(g.Artifacts, &model.Artifact{Name: name})
		case kindNode:
			g.Nodes = append(g.Nodes, &model.Node{Name: name, ExecHost: execHost})
		default:
			return fmt.Errorf("unknown static element kind %q", kind)
		}
		return nil
	})
}

func (l *loader) operations() error {
	return l.each(`
		SELECT component, name, span FROM operations ORDER BY component, position
	`, func(rows *sql.Rows) error {
		var component string
		var op model.Operation
		if err := rows.Scan(&component, &op.Name, &op.Span); err != nil {
			return fmt.Errorf("scan operation: %w", err)
		}
		c := l.m.Static.FindComponent(component)
		if c == nil {
			return fmt.Errorf("operation %s of unknown component %q", op.Name, component)
		}
		c.Operations = append(c.Operations, op)
		return nil
	})
}

func (l *loader) staticEdges() error {
	g := l.m.Static
	return l.each(`
		SELECT kind, src, dst FROM static_edges ORDER BY kind, position
	`, func(rows *sql.Rows) error {
		var kind string
		var e model.Edge
		if err := rows.Scan(&kind, &e.From, &e.To); err != nil {
			return fmt.Errorf("scan static edge: %w", err)
		}
		switch kind {
		case edgeRealize:
			g.Realizations = append(g.Realizations, e)
		case edgeManifest:
			g.Manifestations = append(g.Manifestations, e)
		case edgeDeploy:
			g.Deployments = append(g.Deployments, e)
		case edgeUse:
			g.Usages = append(g.Usages, e)
		default:
			return fmt.Errorf("unknown static edge kind %q", kind)
		}
		return nil
	})
}

func (l *loader) staticApplied() error {
	g := l.m.Static
	return l.each(`
		SELECT view, fingerprint_digest FROM static_applied ORDER BY view, fingerprint_digest
	`, func(rows *sql.Rows) error {
		var view, key string
		if err := rows.Scan(&view, &key); err != nil {
			return fmt.Errorf("scan static applied key: %w", err)
		}
		switch view {
		case viewStatic:
			g.StaticApplied.Add(key)
		case viewDeployment:
			g.DeploymentApplied.Add(key)
		default:
			return fmt.Errorf("unknown static view %q", view)
		}
		return nil
	})
}

// annotations reattaches the descriptive namespaces to their owners. The
// remaining namespaces are projections of typed fields and are skipped.
func (l *loader) annotations() error {
	owners := make(map[string]*model.Annotations)
	for _, sc := range l.m.Scenarios {
		owners[model.ScenarioOwner(sc.Name)] = &sc.Annotations
		for _, in := range sc.Interactions {
			for _, p := range in.Participants {
				owners[model.ParticipantOwner(sc.Name, in.Name, p.Name)] = &p.Annotations
			}
			for _, msg := range in.Messages {
				owners[model.MessageOwner(sc.Name, in.Name, msg.Key)] = &msg.Annotations
			}
		}
	}

	return l.each(`
		SELECT owner_id, namespace, key, value
		FROM annotations
		WHERE namespace IN ('`+model.NSReference+`', '`+model.NSGaScenario+`')
		ORDER BY owner_id, namespace, key
	`, func(rows *sql.Rows) error {
		var a model.Annotation
		if err := rows.Scan(&a.Owner, &a.Namespace, &a.Key, &a.Value); err != nil {
			return fmt.Errorf("scan annotation: %w", err)
		}
		if bag, ok := owners[a.Owner]; ok {
			bag.Set(a.Namespace, a.Key, a.Value)
		}
		return nil
	})
}
