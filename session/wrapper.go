package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"assistui/config"
	"assistui/model"
	"assistui/storage"
)

const instrumentationName = "assistui/session"

// RemoteFactory builds a remote client for an API key.
type RemoteFactory func(apiKey string) (model.Remote, error)

// CredentialSaver persists a configured API key.
type CredentialSaver interface {
	SaveAPIKey(key string) error
}

// Store is the part of the local store the wrapper writes to.
type Store interface {
	AppendTurn(turn model.ConversationTurn) (int64, error)
	Turns() ([]model.ConversationTurn, error)
	ClearTurns() error
	SearchTurns(query string) ([]storage.TurnMatch, error)
	ExportTurns(path string) error
	CacheAssistant(a model.AssistantRecord) (int64, error)
	CachedAssistants() ([]model.AssistantRecord, error)
	RecordThread(b model.ThreadBinding, name string) (int64, error)
}

var _ Store = (*storage.Store)(nil)

type Options struct {
	// ListOrder is used when ListAssistants is called with an empty order.
	ListOrder string
	ListLimit int

	DefaultModel        string
	DefaultInstructions string

	// PersistInvalidKey saves keys even when the key check fails.
	PersistInvalidKey bool
	Credentials       CredentialSaver

	// Listener is invoked for every stream event after citations are resolved.
	Listener Listener
}

// SendOptions are the optional parts of a message send.
type SendOptions struct {
	// Instructions are sent as the run's additional_instructions, so they
	// are appended to the assistant's stored instructions rather than
	// replacing them, and apply to this run only. Options.DefaultInstructions
	// is used when empty.
	Instructions string
	// FileID attaches an already uploaded file for file_search.
	FileID string
	// FilePath is uploaded and attached when FileID is empty.
	FilePath string
}

type sessionMetrics struct {
	sends    metric.Int64Counter
	chunks   metric.Int64Counter
	duration metric.Float64Histogram
	failures metric.Int64Counter
}

func newSessionMetrics() *sessionMetrics {
	meter := otel.Meter(instrumentationName)
	fallback := noop.NewMeterProvider().Meter(instrumentationName)
	m := &sessionMetrics{}
	var err error

	if m.sends, err = meter.Int64Counter("assistui.session.messages_sent",
		metric.WithDescription("Messages posted to assistant threads")); err != nil {
		m.sends, _ = fallback.Int64Counter("assistui.session.messages_sent")
	}
	if m.chunks, err = meter.Int64Counter("assistui.session.stream_chunks",
		metric.WithDescription("Text chunks streamed from runs")); err != nil {
		m.chunks, _ = fallback.Int64Counter("assistui.session.stream_chunks")
	}
	if m.duration, err = meter.Float64Histogram("assistui.session.stream_duration",
		metric.WithDescription("Run stream duration"), metric.WithUnit("s")); err != nil {
		m.duration, _ = fallback.Float64Histogram("assistui.session.stream_duration")
	}
	if m.failures, err = meter.Int64Counter("assistui.session.remote_failures",
		metric.WithDescription("Failed remote calls")); err != nil {
		m.failures, _ = fallback.Int64Counter("assistui.session.remote_failures")
	}
	return m
}

// Wrapper adapts local intents onto the Assistants API and mirrors every
// conversation turn into the local store. Selection state is never held
// implicitly: callers keep the Context returned by SelectAssistant.
type Wrapper struct {
	store   Store
	factory RemoteFactory
	opts    Options

	tracer  trace.Tracer
	metrics *sessionMetrics

	mu        sync.Mutex
	remote    model.Remote
	available bool
	bindings  map[string][]model.ThreadBinding

	sendSlot *semaphore.Weighted
}

func New(store Store, factory RemoteFactory, opts Options) *Wrapper {
	if opts.ListOrder == "" {
		opts.ListOrder = "desc"
	}
	return &Wrapper{
		store:    store,
		factory:  factory,
		opts:     opts,
		tracer:   otel.Tracer(instrumentationName),
		metrics:  newSessionMetrics(),
		bindings: make(map[string][]model.ThreadBinding),
		sendSlot: semaphore.NewWeighted(1),
	}
}

func (w *Wrapper) Available() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.available
}

func (w *Wrapper) client() (model.Remote, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.available || w.remote == nil {
		return nil, ErrNotAvailable
	}
	return w.remote, nil
}

func (w *Wrapper) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return w.tracer.Start(ctx, "session."+op, trace.WithAttributes(attrs...))
}

// fail records a remote failure on the span and the failure counter.
func (w *Wrapper) fail(ctx context.Context, op string, err error) error {
	w.metrics.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
	config.Logf("[Session] %s failed: %v", op, err)
	return remoteErr(op, err)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// ConfigureCredentials checks key against the API. On success the client is
// enabled and the key is saved. On failure, whether from the network or
// from authentication, the wrapper becomes unavailable and false is
// returned. The error result only reports a failure to save the key.
func (w *Wrapper) ConfigureCredentials(ctx context.Context, key string) (bool, error) {
	ctx, span := w.start(ctx, "ConfigureCredentials")
	defer span.End()

	key = strings.TrimSpace(key)
	var remote model.Remote
	ok := false

	if key != "" {
		r, err := w.factory(key)
		if err == nil {
			err = r.CheckKey(ctx)
		}
		if err != nil {
			config.Logf("[Session] Credential check failed: %v", err)
		} else {
			remote, ok = r, true
		}
	}

	w.mu.Lock()
	w.remote = remote
	w.available = ok
	w.mu.Unlock()
	span.SetAttributes(attribute.Bool("available", ok))

	if key == "" || w.opts.Credentials == nil || (!ok && !w.opts.PersistInvalidKey) {
		return ok, nil
	}
	if err := w.opts.Credentials.SaveAPIKey(key); err != nil {
		err = storageErr("save API key", err)
		span.RecordError(err)
		return ok, err
	}
	return ok, nil
}

// ListAssistants lists assistants in the remote's order and writes them
// through to the local cache. An empty order uses Options.ListOrder; a zero
// limit uses Options.ListLimit, then the remote default.
func (w *Wrapper) ListAssistants(ctx context.Context, order string, limit int) ([]model.AssistantRecord, error) {
	remote, err := w.client()
	if err != nil {
		return nil, err
	}
	if order == "" {
		order = w.opts.ListOrder
	}
	if limit <= 0 {
		limit = w.opts.ListLimit
	}

	ctx, span := w.start(ctx, "ListAssistants", attribute.String("order", order), attribute.Int("limit", limit))
	list, err := remote.ListAssistants(ctx, order, limit)
	if err != nil {
		err = w.fail(ctx, "list assistants", err)
		endSpan(span, err)
		return nil, err
	}
	defer span.End()

	for _, a := range list {
		if _, err := w.store.CacheAssistant(a); err != nil {
			config.Logf("[Session] Failed to cache assistant %s: %v", a.ID, err)
		}
	}
	span.SetAttributes(attribute.Int("assistants", len(list)))
	return list, nil
}

// CreateAssistant creates an assistant, caches it and selects it. When the
// assistant was created but its thread was not, the record is returned
// together with the error and a zero Context.
func (w *Wrapper) CreateAssistant(ctx context.Context, spec model.AssistantSpec) (model.AssistantRecord, Context, error) {
	remote, err := w.client()
	if err != nil {
		return model.AssistantRecord{}, Context{}, err
	}
	if spec.Model == "" {
		spec.Model = w.opts.DefaultModel
	}
	if spec.Instructions == "" {
		spec.Instructions = w.opts.DefaultInstructions
	}
	if err := spec.Validate(); err != nil {
		return model.AssistantRecord{}, Context{}, err
	}

	ctx, span := w.start(ctx, "CreateAssistant", attribute.String("model", spec.Model))
	a, err := remote.CreateAssistant(ctx, spec)
	if err != nil {
		err = w.fail(ctx, "create assistant", err)
		endSpan(span, err)
		return model.AssistantRecord{}, Context{}, err
	}
	span.SetAttributes(attribute.String("assistant.id", a.ID))
	endSpan(span, nil)

	if _, err := w.store.CacheAssistant(a); err != nil {
		return a, Context{}, storageErr("cache assistant", err)
	}

	sc, err := w.SelectAssistant(ctx, a.ID)
	return a, sc, err
}

// DeleteAssistant deletes the assistant remotely. The local cache row and
// any thread bindings are left for the caller.
func (w *Wrapper) DeleteAssistant(ctx context.Context, assistantID string) error {
	remote, err := w.client()
	if err != nil {
		return err
	}

	ctx, span := w.start(ctx, "DeleteAssistant", attribute.String("assistant.id", assistantID))
	if err := remote.DeleteAssistant(ctx, assistantID); err != nil {
		err = w.fail(ctx, "delete assistant", err)
		endSpan(span, err)
		return err
	}
	endSpan(span, nil)
	return nil
}

// UpdateAssistantVectorStores attaches vector stores to the assistant's
// file_search tool, adding the tool when it is missing.
func (w *Wrapper) UpdateAssistantVectorStores(ctx context.Context, assistantID string, vectorStoreIDs []string) (model.AssistantRecord, error) {
	remote, err := w.client()
	if err != nil {
		return model.AssistantRecord{}, err
	}
	if assistantID == "" {
		return model.AssistantRecord{}, ErrNoAssistant
	}

	ctx, span := w.start(ctx, "UpdateAssistantVectorStores", attribute.String("assistant.id", assistantID))
	a, err := remote.GetAssistant(ctx, assistantID)
	if err != nil {
		err = w.fail(ctx, "retrieve assistant", err)
		endSpan(span, err)
		return model.AssistantRecord{}, err
	}
	updated, err := remote.UpdateAssistantVectorStores(ctx, a, vectorStoreIDs)
	if err != nil {
		err = w.fail(ctx, "update assistant", err)
		endSpan(span, err)
		return model.AssistantRecord{}, err
	}
	endSpan(span, nil)

	if _, err := w.store.CacheAssistant(updated); err != nil {
		return updated, storageErr("cache assistant", err)
	}
	return updated, nil
}

// SelectAssistant creates a fresh remote thread for the assistant and
// returns the new Context. Earlier bindings for the same assistant are kept
// as they are; threads are never reused.
func (w *Wrapper) SelectAssistant(ctx context.Context, assistantID string) (Context, error) {
	remote, err := w.client()
	if err != nil {
		return Context{}, err
	}
	if assistantID == "" {
		return Context{}, ErrNoAssistant
	}

	ctx, span := w.start(ctx, "SelectAssistant", attribute.String("assistant.id", assistantID))
	threadID, err := remote.CreateThread(ctx)
	if err != nil {
		err = w.fail(ctx, "create thread", err)
		endSpan(span, err)
		return Context{}, err
	}
	span.SetAttributes(attribute.String("thread.id", threadID))
	endSpan(span, nil)

	sc := Context{
		ID:          uuid.New(),
		AssistantID: assistantID,
		ThreadID:    threadID,
		CreatedAt:   time.Now().UTC(),
	}

	w.mu.Lock()
	w.bindings[assistantID] = append(w.bindings[assistantID], sc.Binding())
	w.mu.Unlock()
	config.Logf("[Session] Selected assistant %s on thread %s", assistantID, threadID)

	if _, err := w.store.RecordThread(sc.Binding(), sc.Name()); err != nil {
		return sc, storageErr("record thread", err)
	}
	return sc, nil
}

// Bindings returns every thread created for the assistant in this process,
// oldest first.
func (w *Wrapper) Bindings(assistantID string) []model.ThreadBinding {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]model.ThreadBinding(nil), w.bindings[assistantID]...)
}

// SendMessage records the user turn, posts it to the context's thread and
// starts a streaming run. Only one stream may be open at a time; the slot
// is freed when the returned stream completes or is closed.
func (w *Wrapper) SendMessage(ctx context.Context, sc Context, text string, opts SendOptions) (*Stream, error) {
	if sc.IsZero() {
		return nil, ErrNoAssistant
	}
	remote, err := w.client()
	if err != nil {
		return nil, err
	}
	if !w.sendSlot.TryAcquire(1) {
		return nil, ErrSendInFlight
	}
	release := func() { w.sendSlot.Release(1) }

	ctx, span := w.start(ctx, "SendMessage",
		attribute.String("assistant.id", sc.AssistantID),
		attribute.String("thread.id", sc.ThreadID),
	)
	abort := func(err error) (*Stream, error) {
		endSpan(span, err)
		release()
		return nil, err
	}

	if _, err := w.store.AppendTurn(model.ConversationTurn{Role: model.RoleUser, Content: text}); err != nil {
		return abort(storageErr("append user turn", err))
	}

	fileID := opts.FileID
	if fileID == "" && opts.FilePath != "" {
		f, err := remote.UploadFile(ctx, config.ExpandPath(opts.FilePath))
		if err != nil {
			return abort(w.fail(ctx, "upload attachment", err))
		}
		fileID = f.ID
		span.SetAttributes(attribute.String("attachment.id", fileID))
	}

	if err := remote.PostMessage(ctx, sc.ThreadID, text, fileID); err != nil {
		return abort(w.fail(ctx, "post message", err))
	}
	w.metrics.sends.Add(ctx, 1)

	instructions := opts.Instructions
	if instructions == "" {
		instructions = w.opts.DefaultInstructions
	}

	runCtx, cancel := context.WithCancel(ctx)
	events, err := remote.StreamRun(runCtx, sc.ThreadID, sc.AssistantID, instructions)
	if err != nil {
		cancel()
		return abort(w.fail(ctx, "start run", err))
	}

	listeners := []Listener{newCitationResolver(runCtx, remote)}
	if w.opts.Listener != nil {
		listeners = append(listeners, w.opts.Listener)
	}
	return newStream(runCtx, cancel, events, listeners, w.store, span, w.metrics, release), nil
}

// ClearConversation deletes the local conversation log. Remote threads are
// not touched.
func (w *Wrapper) ClearConversation() error {
	return storageErr("clear conversation", w.store.ClearTurns())
}

func (w *Wrapper) Conversations() ([]model.ConversationTurn, error) {
	turns, err := w.store.Turns()
	if err != nil {
		return nil, storageErr("load conversation", err)
	}
	return turns, nil
}

func (w *Wrapper) SearchConversations(query string) ([]storage.TurnMatch, error) {
	matches, err := w.store.SearchTurns(query)
	if err != nil {
		return nil, storageErr("search conversation", err)
	}
	return matches, nil
}

func (w *Wrapper) ExportConversations(path string) error {
	return storageErr("export conversation", w.store.ExportTurns(path))
}

// CachedAssistants returns the assistants seen by the last listing. It needs
// no credentials, so the UI can show them before a key is configured.
func (w *Wrapper) CachedAssistants() ([]model.AssistantRecord, error) {
	list, err := w.store.CachedAssistants()
	if err != nil {
		return nil, storageErr("load cached assistants", err)
	}
	return list, nil
}
