// Package orchestrator runs one conversation turn end to end: route the
// message, resolve entity references, either ask a disambiguation question
// or dispatch to a specialist, fold the outcome back into the active
// context, and persist both halves of the exchange.
//
// The turn is a restart-from-snapshot state machine: nothing survives in
// memory between turns, every turn re-derives its state from the persisted
// context. Disambiguation ends the turn; the user's answer arrives as a
// brand-new message.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/foremanhq/foreman/internal/agents"
	"github.com/foremanhq/foreman/internal/bus"
	"github.com/foremanhq/foreman/internal/convo"
	"github.com/foremanhq/foreman/internal/domain"
	"github.com/foremanhq/foreman/internal/metrics"
	"github.com/foremanhq/foreman/internal/router"
)

// apologyReply is the fixed response when a turn dies. The real error goes
// to the operator, never to the user.
const apologyReply = "Sorry, something went wrong on my end. I've flagged it and will take a look."

const recordReply = "Go ahead — send me a voice note or use the recorder, and I'll pull out the tasks and notes for you."

type turnState string

const (
	stateAwaitingRoute     turnState = "awaiting_route"
	stateResolvingEntities turnState = "resolving_entities"
	stateDisambiguating    turnState = "disambiguating"
	stateDispatching       turnState = "dispatching"
	stateResponded         turnState = "responded"
)

// Store is the persistence surface a turn needs.
type Store interface {
	GetOrCreateConversation(ctx context.Context) (string, error)
	Messages(ctx context.Context, conversationID string) ([]domain.Message, error)
	LastMessageContext(ctx context.Context, conversationID string) (domain.ActiveContext, error)
	SaveMessage(ctx context.Context, conversationID string, role domain.MessageRole, content string, ac domain.ActiveContext) (*domain.Message, error)
	GetTaskByID(ctx context.Context, id string) (*domain.Task, error)
	GetProjectByID(ctx context.Context, id string) (*domain.Project, error)
}

// Classifier is the intent router.
type Classifier interface {
	Classify(ctx context.Context, message string, history []domain.Message, ac domain.ActiveContext) domain.RouterResult
}

// EntityResolver is the reference resolution entry point.
type EntityResolver interface {
	Entities(ctx context.Context, projectRefs, taskRefs []string, ac domain.ActiveContext) (domain.ResolvedEntities, error)
}

// Specialist handles one dispatched turn.
type Specialist interface {
	Handle(ctx context.Context, turn agents.Turn) (domain.Result, error)
}

// Responder phrases replies.
type Responder interface {
	Respond(ctx context.Context, message string, result domain.Result) string
	Chat(ctx context.Context, message string, history []domain.Message) string
}

// Notifier delivers out-of-band error notifications to the operator.
type Notifier interface {
	NotifyOperator(ctx context.Context, message string)
}

// Publisher emits turn lifecycle events. May be nil.
type Publisher interface {
	Publish(ctx context.Context, e bus.Event) error
}

// Orchestrator wires the turn together.
type Orchestrator struct {
	store       Store
	classifier  Classifier
	resolver    EntityResolver
	specialists map[router.Specialist]Specialist
	responder   Responder
	notifier    Notifier
	publisher   Publisher
	logger      *slog.Logger
}

// New creates an Orchestrator. notifier and publisher may be nil.
func New(store Store, classifier Classifier, resolver EntityResolver, specialists map[router.Specialist]Specialist, responder Responder, notifier Notifier, publisher Publisher, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		store:       store,
		classifier:  classifier,
		resolver:    resolver,
		specialists: specialists,
		responder:   responder,
		notifier:    notifier,
		publisher:   publisher,
		logger:      logger,
	}
}

// HandleMessage runs one full turn and returns the reply text. It never
// returns an error: failures collapse to the fixed apology after notifying
// the operator.
func (o *Orchestrator) HandleMessage(ctx context.Context, text string) string {
	reply, intent, err := o.turn(ctx, text)
	if err != nil {
		o.logger.Error("turn failed", "error", err)
		metrics.TurnsTotal.WithLabelValues(string(intent), "failed").Inc()
		if o.notifier != nil {
			o.notifier.NotifyOperator(ctx, fmt.Sprintf("Turn failed: %v", err))
		}
		o.publish(ctx, bus.Event{Type: bus.EventTurnFailed, Intent: string(intent), Outcome: "failed", Detail: err.Error()})
		return apologyReply
	}
	return reply
}

func (o *Orchestrator) turn(ctx context.Context, text string) (string, domain.Intent, error) {
	conversationID, err := o.store.GetOrCreateConversation(ctx)
	if err != nil {
		return "", "", fmt.Errorf("load conversation: %w", err)
	}

	// Context and history are independent reads; fetch them together.
	var (
		history []domain.Message
		ac      domain.ActiveContext
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		history, err = o.store.Messages(gctx, conversationID)
		return err
	})
	g.Go(func() error {
		var err error
		ac, err = o.store.LastMessageContext(gctx, conversationID)
		return err
	})
	if err := g.Wait(); err != nil {
		return "", "", fmt.Errorf("load turn state: %w", err)
	}

	o.logger.Debug("turn state", "state", stateAwaitingRoute, "conversation_id", conversationID)
	routed := o.classifier.Classify(ctx, text, history, ac)

	o.logger.Debug("turn state", "state", stateResolvingEntities, "intent", routed.Intent)
	resolved, err := o.resolver.Entities(ctx, routed.Entities.Projects, routed.Entities.Tasks, ac)
	if err != nil {
		return "", routed.Intent, fmt.Errorf("resolve entities: %w", err)
	}
	recordResolution(routed, resolved)

	// Project ambiguity is checked before task ambiguity; the first hit
	// ends the turn with a question and an unmerged context.
	if question, ok := o.disambiguate(ctx, routed, resolved); ok {
		o.logger.Debug("turn state", "state", stateDisambiguating, "intent", routed.Intent)
		if err := o.persistExchange(ctx, conversationID, text, question, ac); err != nil {
			return "", routed.Intent, err
		}
		metrics.TurnsTotal.WithLabelValues(string(routed.Intent), "disambiguated").Inc()
		o.publish(ctx, bus.Event{
			Type: bus.EventTurnCompleted, ConversationID: conversationID,
			Intent: string(routed.Intent), Outcome: "disambiguated",
		})
		return question, routed.Intent, nil
	}

	o.logger.Debug("turn state", "state", stateDispatching, "intent", routed.Intent)
	reply, finalAC, err := o.dispatch(ctx, text, history, routed, resolved, ac)
	if err != nil {
		return "", routed.Intent, err
	}

	if err := o.persistExchange(ctx, conversationID, text, reply, finalAC); err != nil {
		return "", routed.Intent, err
	}

	o.logger.Debug("turn state", "state", stateResponded, "intent", routed.Intent)
	metrics.TurnsTotal.WithLabelValues(string(routed.Intent), "completed").Inc()
	o.publish(ctx, bus.Event{
		Type: bus.EventTurnCompleted, ConversationID: conversationID,
		Intent: string(routed.Intent), Outcome: "completed",
	})
	return reply, routed.Intent, nil
}

// disambiguate returns the clarification question when a single reference
// resolved to several entities. Projects are checked first.
func (o *Orchestrator) disambiguate(ctx context.Context, routed domain.RouterResult, resolved domain.ResolvedEntities) (string, bool) {
	if len(routed.Entities.Projects) == 1 && len(resolved.Projects) > 1 {
		labels := make([]string, 0, len(resolved.Projects))
		for _, p := range resolved.Projects {
			labels = append(labels, p.Name)
		}
		metrics.DisambiguationsTotal.WithLabelValues("project").Inc()
		return agents.DisambiguationPrompt("project", labels), true
	}
	if len(routed.Entities.Tasks) == 1 && len(resolved.Tasks) > 1 {
		labels := make([]string, 0, len(resolved.Tasks))
		for _, t := range resolved.Tasks {
			labels = append(labels, o.taskLabel(ctx, t))
		}
		metrics.DisambiguationsTotal.WithLabelValues("task").Inc()
		return agents.DisambiguationPrompt("task", labels), true
	}
	return "", false
}

// taskLabel annotates a task with its project name so identically-named
// tasks can be told apart in a disambiguation list.
func (o *Orchestrator) taskLabel(ctx context.Context, rt domain.ResolvedTask) string {
	task, err := o.store.GetTaskByID(ctx, rt.ID)
	if err != nil || task == nil || task.ProjectID == "" {
		return rt.Description
	}
	project, err := o.store.GetProjectByID(ctx, task.ProjectID)
	if err != nil || project == nil {
		return rt.Description
	}
	return fmt.Sprintf("%s (%s)", rt.Description, project.Name)
}

func (o *Orchestrator) dispatch(ctx context.Context, text string, history []domain.Message, routed domain.RouterResult, resolved domain.ResolvedEntities, ac domain.ActiveContext) (string, domain.ActiveContext, error) {
	kind := router.SpecialistFor(routed.Intent)

	if kind == router.SpecialistNone {
		reply := o.directReply(ctx, text, history, routed.Intent)
		return reply, convo.Merge(ac, resolved), nil
	}

	specialist, ok := o.specialists[kind]
	if !ok {
		return "", ac, fmt.Errorf("no specialist registered for %q", kind)
	}

	result, err := specialist.Handle(ctx, agents.Turn{
		Message:  text,
		Routed:   routed,
		Resolved: resolved,
		Context:  ac,
	})
	if err != nil {
		return "", ac, fmt.Errorf("%s specialist: %w", kind, err)
	}

	finalAC := convo.Merge(foldNewEntities(ac, result), resolved)
	return o.responder.Respond(ctx, text, result), finalAC, nil
}

// directReply handles the no-specialist intents: record_request gets a
// fixed pointer at the recorder, general chat tries a canned reply before
// spending an LLM call.
func (o *Orchestrator) directReply(ctx context.Context, text string, history []domain.Message, intent domain.Intent) string {
	if intent == domain.IntentRecordRequest {
		return recordReply
	}
	if reply, ok := agents.CannedReply(text); ok {
		return reply
	}
	return o.responder.Chat(ctx, text, history)
}

// foldNewEntities records entities the specialist just created, before the
// resolved references are merged.
func foldNewEntities(ac domain.ActiveContext, result domain.Result) domain.ActiveContext {
	switch result.Kind {
	case domain.ResultTask:
		tr := result.Task
		if tr.Action == domain.TaskActionCreated && tr.Task != nil {
			if tr.Task.ProjectID != "" {
				ac = convo.WithNewProject(ac, tr.Task.ProjectID)
			}
			ac = convo.WithNewTask(ac, tr.Task.ID)
		}
	case domain.ResultProject:
		pr := result.Project
		if pr.Action == domain.ProjectActionCreated && pr.Project != nil {
			ac = convo.WithNewProject(ac, pr.Project.ID)
		}
	}
	return ac
}

// persistExchange saves the user message and the reply, both carrying the
// turn's final context snapshot. All writes happen after the turn's
// decisions are made; a failure earlier leaves prior state untouched.
func (o *Orchestrator) persistExchange(ctx context.Context, conversationID, userText, reply string, ac domain.ActiveContext) error {
	if _, err := o.store.SaveMessage(ctx, conversationID, domain.RoleUser, userText, ac); err != nil {
		return fmt.Errorf("save user message: %w", err)
	}
	if _, err := o.store.SaveMessage(ctx, conversationID, domain.RoleAssistant, reply, ac); err != nil {
		return fmt.Errorf("save reply: %w", err)
	}
	return nil
}

func (o *Orchestrator) publish(ctx context.Context, e bus.Event) {
	if o.publisher == nil {
		return
	}
	if err := o.publisher.Publish(ctx, e); err != nil {
		o.logger.Error("event publish failed", "error", err, "type", e.Type)
	}
}

func recordResolution(routed domain.RouterResult, resolved domain.ResolvedEntities) {
	if len(routed.Entities.Projects) > 0 {
		metrics.ResolutionOutcomes.WithLabelValues("project", outcomeFor(len(resolved.Projects))).Inc()
	}
	if len(routed.Entities.Tasks) > 0 {
		metrics.ResolutionOutcomes.WithLabelValues("task", outcomeFor(len(resolved.Tasks))).Inc()
	}
}

func outcomeFor(n int) string {
	switch {
	case n == 0:
		return "none"
	case n == 1:
		return "single"
	default:
		return "ambiguous"
	}
}
