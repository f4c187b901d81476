package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/cockroachdb/apd/v3"

	"github.com/roach88/perfmodel/internal/codec"
	"github.com/roach88/perfmodel/internal/model"
	"github.com/roach88/perfmodel/internal/validate"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Log      []MergeEvent // Merge log for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Log) > 0 {
		fmt.Fprintf(&buf, "\nMerge log:\n")
		for _, ev := range e.Log {
			if ev.ErrorCode != "" {
				fmt.Fprintf(&buf, "  [%d] %s trace=%d %s\n", ev.Seq, ev.Scenario, ev.TraceID, ev.ErrorCode)
				continue
			}
			fmt.Fprintf(&buf, "  [%d] %s trace=%d %s %s\n", ev.Seq, ev.Scenario, ev.TraceID, ev.Outcome, ev.Interaction)
		}
	}
	return buf.String()
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Model     *model.Model
	Log       []MergeEvent
	Validator *validate.Validator
	RateScale int32
	Ctx       context.Context

	view *codec.ModelView
}

func (actx *AssertionContext) fail(typ, expected, actual string) error {
	return &AssertionError{Type: typ, Expected: expected, Actual: actual, Log: actx.Log}
}

// scenario returns the named scenario or an assertion failure.
func (actx *AssertionContext) scenario(a Assertion) (*model.Scenario, error) {
	if sc := actx.Model.Scenario(a.Scenario); sc != nil {
		return sc, nil
	}
	return nil, actx.fail(a.Type, fmt.Sprintf("scenario %s", a.Scenario), "scenario not found")
}

// modelView builds the export view once per evaluation.
func (actx *AssertionContext) modelView() (*codec.ModelView, error) {
	if actx.view == nil {
		v, err := codec.NewModelView(actx.Model, actx.RateScale)
		if err != nil {
			return nil, err
		}
		actx.view = v
	}
	return actx.view, nil
}

// assertInteractionCount checks the number of interactions of a scenario.
func assertInteractionCount(actx *AssertionContext, a Assertion) error {
	sc, err := actx.scenario(a)
	if err != nil {
		// A scenario that never received a trace has no interactions.
		if a.Count == 0 {
			return nil
		}
		return err
	}
	if len(sc.Interactions) != a.Count {
		return actx.fail(a.Type,
			fmt.Sprintf("%d interactions in %s", a.Count, a.Scenario),
			fmt.Sprintf("%d interactions", len(sc.Interactions)))
	}
	return nil
}

// assertAppliedIDs checks the applied trace ids of an interaction, in order.
func assertAppliedIDs(actx *AssertionContext, a Assertion) error {
	sc, err := actx.scenario(a)
	if err != nil {
		return err
	}
	for _, in := range sc.Interactions {
		if in.Name != a.Interaction {
			continue
		}
		got := []int64(in.AppliedTraceIDs)
		if !slices.Equal(got, a.IDs) {
			return actx.fail(a.Type,
				fmt.Sprintf("%s/%s applied %v", a.Scenario, a.Interaction, a.IDs),
				fmt.Sprintf("applied %v", got))
		}
		return nil
	}
	return actx.fail(a.Type, fmt.Sprintf("interaction %s/%s", a.Scenario, a.Interaction), "interaction not found")
}

// assertSpanStats checks the first span running the assertion's operation.
// Only the fields set on the assertion are compared.
func assertSpanStats(actx *AssertionContext, a Assertion) error {
	v, err := actx.modelView()
	if err != nil {
		return err
	}

	for _, sv := range v.Scenarios {
		if sv.Name != a.Scenario {
			continue
		}
		for _, iv := range sv.Interactions {
			if a.Interaction != "" && iv.Name != a.Interaction {
				continue
			}
			for _, sp := range iv.Spans {
				if sp.Operation == a.Operation {
					return checkSpan(actx, a, sp)
				}
			}
		}
	}
	return actx.fail(a.Type, fmt.Sprintf("span for %s in %s", a.Operation, a.Scenario), "span not found")
}

func checkSpan(actx *AssertionContext, a Assertion, sp codec.SpanView) error {
	if a.Samples != 0 && sp.SampleCount != a.Samples {
		return actx.fail(a.Type,
			fmt.Sprintf("%s sample_count=%d", a.Operation, a.Samples),
			fmt.Sprintf("sample_count=%d", sp.SampleCount))
	}
	if a.Sum != 0 && sp.SumExecTime != a.Sum {
		return actx.fail(a.Type,
			fmt.Sprintf("%s sum_exec_time=%d", a.Operation, a.Sum),
			fmt.Sprintf("sum_exec_time=%d", sp.SumExecTime))
	}
	if a.Mean != "" {
		eq, err := decimalEqual(a.Mean, sp.MeanExecTime)
		if err != nil {
			return fmt.Errorf("%s: mean: %w", a.Type, err)
		}
		if !eq {
			return actx.fail(a.Type,
				fmt.Sprintf("%s mean_exec_time=%s", a.Operation, a.Mean),
				fmt.Sprintf("mean_exec_time=%s", sp.MeanExecTime))
		}
	}
	return nil
}

// assertArrivalRate compares the open arrival rate numerically, so "0.02"
// matches "0.0200".
func assertArrivalRate(actx *AssertionContext, a Assertion) error {
	sc, err := actx.scenario(a)
	if err != nil {
		return err
	}
	rate, err := sc.OpenArrivalRate(actx.RateScale)
	if err != nil {
		return actx.fail(a.Type, fmt.Sprintf("rate %s", a.Rate), err.Error())
	}
	eq, err := decimalEqual(a.Rate, rate.Text('f'))
	if err != nil {
		return fmt.Errorf("%s: %w", a.Type, err)
	}
	if !eq {
		return actx.fail(a.Type,
			fmt.Sprintf("%s rate %s", a.Scenario, a.Rate),
			fmt.Sprintf("rate %s", rate.Text('f')))
	}
	return nil
}

func decimalEqual(expected, actual string) (bool, error) {
	want, _, err := apd.NewFromString(expected)
	if err != nil {
		return false, fmt.Errorf("invalid decimal %q: %w", expected, err)
	}
	got, _, err := apd.NewFromString(actual)
	if err != nil {
		return false, fmt.Errorf("invalid decimal %q: %w", actual, err)
	}
	return want.Cmp(got) == 0, nil
}

// assertStaticContains checks that a static element of the given kind exists.
func assertStaticContains(actx *AssertionContext, a Assertion) error {
	g := actx.Model.Static
	if g == nil {
		g = model.NewStaticGraph()
	}

	var names []string
	switch a.Kind {
	case "component":
		names = namesOf(g.Components, func(c *model.Component) string { return c.Name })
	case "interface":
		names = namesOf(g.Interfaces, func(i *model.Interface) string { return i.Name })
	case "artifact":
		names = namesOf(g.Artifacts, func(ar *model.Artifact) string { return ar.Name })
	case "node":
		names = namesOf(g.Nodes, func(n *model.Node) string { return n.Name })
	default:
		return fmt.Errorf("%s: unknown element kind %q", a.Type, a.Kind)
	}

	if !slices.Contains(names, a.Name) {
		return actx.fail(a.Type, fmt.Sprintf("%s %s", a.Kind, a.Name), fmt.Sprintf("%ss %v", a.Kind, names))
	}
	return nil
}

// assertStaticEdge checks that a static relationship exists.
func assertStaticEdge(actx *AssertionContext, a Assertion) error {
	g := actx.Model.Static
	if g == nil {
		g = model.NewStaticGraph()
	}

	var edges []model.Edge
	switch a.Kind {
	case "realize":
		edges = g.Realizations
	case "manifest":
		edges = g.Manifestations
	case "deploy":
		edges = g.Deployments
	case "use":
		edges = g.Usages
	default:
		return fmt.Errorf("%s: unknown edge kind %q", a.Type, a.Kind)
	}

	if !slices.Contains(edges, model.Edge{From: a.From, To: a.To}) {
		return actx.fail(a.Type, fmt.Sprintf("%s edge %s -> %s", a.Kind, a.From, a.To), fmt.Sprintf("%d %s edges", len(edges), a.Kind))
	}
	return nil
}

// assertOutcomeCount counts merges with an outcome, optionally within one
// scenario.
func assertOutcomeCount(actx *AssertionContext, a Assertion) error {
	count := 0
	for _, ev := range actx.Log {
		if ev.Outcome == a.Outcome && (a.Scenario == "" || ev.Scenario == a.Scenario) {
			count++
		}
	}
	if count != a.Count {
		return actx.fail(a.Type,
			fmt.Sprintf("%d %s merges", a.Count, a.Outcome),
			fmt.Sprintf("%d %s merges", count, a.Outcome))
	}
	return nil
}

// assertModelValid runs the validator on the loaded model.
func assertModelValid(actx *AssertionContext, a Assertion) error {
	if actx.Validator == nil {
		return fmt.Errorf("%s requires a validator", a.Type)
	}
	if errs := actx.Validator.Check(actx.Model); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return actx.fail(a.Type, "no validation errors", strings.Join(msgs, "; "))
	}
	return nil
}

func namesOf[T any](items []T, name func(T) string) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = name(it)
	}
	return out
}

// EvaluateAssertions evaluates all assertions against the final model.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		if actx == nil || actx.Model == nil {
			err = fmt.Errorf("assertion[%d]: no model to assert on", i)
		} else {
			switch assertion.Type {
			case AssertInteractionCount:
				err = assertInteractionCount(actx, assertion)
			case AssertAppliedIDs:
				err = assertAppliedIDs(actx, assertion)
			case AssertSpanStats:
				err = assertSpanStats(actx, assertion)
			case AssertArrivalRate:
				err = assertArrivalRate(actx, assertion)
			case AssertStaticContains:
				err = assertStaticContains(actx, assertion)
			case AssertStaticEdge:
				err = assertStaticEdge(actx, assertion)
			case AssertOutcomeCount:
				err = assertOutcomeCount(actx, assertion)
			case AssertModelValid:
				err = assertModelValid(actx, assertion)
			default:
				err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
			}
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
