package engine

import (
	"github.com/roach88/perfmodel/internal/model"
	"github.com/roach88/perfmodel/internal/trace"
)

// reconstructor rebuilds the nested span structure of a new interaction
// from the flat message list of the first trace seen with its fingerprint.
//
// Spans live in the interaction's Spans slice (the arena). Open spans are
// tracked by index twice: per participant, and on one global stack that
// also remembers the call that opened each span. A reply must close the
// newest open span of its sender, and that span must be the global top.
type reconstructor struct {
	traceID  int64
	scenario *model.Scenario
	in       *model.Interaction

	open  map[string][]int
	stack []openCall
}

type openCall struct {
	span int
	call trace.Message
}

func reconstruct(s *model.Scenario, in *model.Interaction, t *trace.Trace) error {
	r := &reconstructor{
		traceID:  t.ID,
		scenario: s,
		in:       in,
		open:     make(map[string][]int),
	}
	return r.run(t.Messages)
}

func (r *reconstructor) run(msgs []trace.Message) error {
	for i, msg := range msgs {
		rep := trace.MessageRepresentation(msg)
		sender := r.participant(msg.Sender)
		receiver := r.participant(msg.Receiver)

		r.in.Messages = append(r.in.Messages, &model.MergedMessage{
			Key:         model.SpanKey{Representation: rep, Index: i},
			Kind:        msg.Kind,
			Sender:      sender.Name,
			Receiver:    receiver.Name,
			Label:       trace.InterfaceName(msg.Receiver),
			Annotations: messageReferences(msg.Receiver),
		})

		var err error
		switch msg.Kind {
		case trace.Call:
			err = r.call(i, rep, msg, receiver)
		case trace.Reply:
			err = r.reply(i, msg, sender)
		default:
			err = structuralMismatch(r.traceID, "", "message %d: unknown kind %q", i, msg.Kind)
		}
		if err != nil {
			return err
		}
	}

	if n := len(r.stack); n > 0 {
		top := r.in.Spans[r.stack[n-1].span]
		return structuralMismatch(r.traceID, top.Key.String(), "%d spans left open at end of trace", n)
	}

	first := msgs[0]
	r.in.Spans = append(r.in.Spans, &model.Span{
		Key:          model.EntryKey,
		Participant:  r.participant(first.Sender).Name,
		Operation:    first.Sender.QualifiedSignature(),
		OpenMessage:  0,
		CloseMessage: len(msgs) - 1,
	})
	return nil
}

func (r *reconstructor) call(i int, rep string, msg trace.Message, receiver *model.Participant) error {
	key := model.SpanKey{Representation: trace.SpanRepresentation(rep), Index: i}
	if r.in.Span(key) != nil {
		return structuralMismatch(r.traceID, key.String(), "span opened twice")
	}

	r.in.Spans = append(r.in.Spans, &model.Span{
		Key:          key,
		Participant:  receiver.Name,
		Operation:    msg.Receiver.QualifiedSignature(),
		OpenMessage:  i,
		CloseMessage: -1,
	})
	idx := len(r.in.Spans) - 1
	r.open[receiver.Name] = append(r.open[receiver.Name], idx)
	r.stack = append(r.stack, openCall{span: idx, call: msg})
	return nil
}

func (r *reconstructor) reply(i int, msg trace.Message, sender *model.Participant) error {
	list := r.open[sender.Name]
	if len(list) == 0 {
		return structuralMismatch(r.traceID, sender.Name, "message %d: reply from %s with no open span", i, sender.Name)
	}
	last := list[len(list)-1]
	top := r.stack[len(r.stack)-1]
	if top.span != last {
		return structuralMismatch(r.traceID, r.in.Spans[last].Key.String(),
			"message %d: reply closes %s while %s is still open",
			i, r.in.Spans[last].Key, r.in.Spans[top.span].Key)
	}
	if top.call.Receiver != msg.Sender || top.call.Sender != msg.Receiver {
		return structuralMismatch(r.traceID, r.in.Spans[last].Key.String(),
			"message %d: reply does not answer the open call", i)
	}

	r.in.Spans[last].CloseMessage = i
	r.open[sender.Name] = list[:len(list)-1]
	r.stack = r.stack[:len(r.stack)-1]
	return nil
}

// participant finds or creates the participant for an execution.
func (r *reconstructor) participant(e trace.Execution) *model.Participant {
	name := e.Component
	if p := r.in.Participant(name); p != nil {
		return p
	}

	p := &model.Participant{Name: name, ComponentRef: e.Component}
	if e.IsEntry() {
		p.ComponentRef = r.scenario.Actor
	} else {
		p.Annotations.Set(model.NSReference, model.RefPackage, e.PackageName())
		p.Annotations.Set(model.NSReference, model.RefClass, e.TypeName())
		p.Annotations.Set(model.NSReference, model.RefFullQualifiedName, e.ComponentType)
	}
	r.in.Participants = append(r.in.Participants, p)
	return p
}

func messageReferences(e trace.Execution) model.Annotations {
	if e.IsEntry() {
		return nil
	}
	var a model.Annotations
	a.Set(model.NSReference, model.RefPackage, e.PackageName())
	a.Set(model.NSReference, model.RefClass, e.TypeName())
	a.Set(model.NSReference, model.RefFullQualifiedName, e.ComponentType)
	a.Set(model.NSReference, model.RefSignature, e.Signature)
	a.Set(model.NSReference, model.RefFullQualifiedNameSignature, e.QualifiedSignature())
	return a
}
