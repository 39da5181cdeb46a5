// Package chat implements the per-turn decision procedure: greet on the
// first turn, short-circuit scheduling intent, otherwise retrieve context
// and generate a reply, folding everything into the session transcript.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/homequest-ai/lead-assistant/internal/crm"
	"github.com/homequest-ai/lead-assistant/internal/leadarchive"
	"github.com/homequest-ai/lead-assistant/internal/llm"
	"github.com/homequest-ai/lead-assistant/internal/observability/metrics"
	"github.com/homequest-ai/lead-assistant/internal/scheduling"
	"github.com/homequest-ai/lead-assistant/internal/scoring"
	"github.com/homequest-ai/lead-assistant/internal/session"
	"github.com/homequest-ai/lead-assistant/pkg/logging"
)

// Greeting opens every new session.
const Greeting = "Hello! I'm your real estate assistant. How can I help?"

const (
	dedupPrefix      = "Let me provide some additional information: "
	schedulingPrefix = "I can help you schedule a consultation. Please use this link to book a time that works for you: "
	schedulingFailed = "I apologize, but I'm having trouble creating a scheduling link right now. Please try again later."
	fallbackAnswer   = "I'm sorry, something went wrong on my end. Please try again."
)

var schedulingKeywords = []string{"schedule", "book", "appointment", "meeting", "call"}

// Retriever serves semantic context for a query. Implementations never fail:
// degraded states come back as sentinel strings.
type Retriever interface {
	RetrieveContext(ctx context.Context, query string, k int) []string
}

// Scheduler builds booking links for qualified leads.
type Scheduler interface {
	CreateSchedulingLink(ctx context.Context, name, email string) (scheduling.Link, error)
}

// CRM syncs lead profiles to the external system.
type CRM interface {
	UpsertContact(ctx context.Context, p crm.Profile) (crm.UpsertResult, error)
}

// TurnRequest is one inbound chat message with the visitor's profile fields.
type TurnRequest struct {
	SessionID string
	Name      string
	Email     string
	Budget    string
	Message   string
}

// TurnResult is the structured outcome of a chat turn.
type TurnResult struct {
	SessionID       string   `json:"session_id"`
	Answer          string   `json:"answer"`
	LeadScore       int      `json:"lead_score"`
	LeadStatus      string   `json:"lead_status"`
	CRMStatus       string   `json:"crm_status"`
	CRMResponse     string   `json:"crm_response"`
	RawReply        string   `json:"raw_llm_reply"`
	ScheduleMeeting bool     `json:"schedule_meeting"`
	Transcript      []string `json:"chat_history"`
}

// Orchestrator drives chat turns. Turns on the same session are serialized;
// turns on different sessions run concurrently.
type Orchestrator struct {
	sessions   session.Store
	retriever  Retriever
	generator  llm.Generator
	scheduler  Scheduler
	crm        CRM
	archive    leadarchive.Repository
	thresholds scoring.Thresholds
	topK       int
	metrics    *metrics.ChatMetrics
	logger     *logging.Logger

	mu    sync.Mutex
	locks map[string]*sessionLock
}

// sessionLock serializes turns on one session. Entries are refcounted and
// evicted once the last waiter releases, so the map tracks only in-flight
// sessions rather than every ID ever seen.
type sessionLock struct {
	sync.Mutex
	refs int
}

// Config wires the orchestrator's collaborators.
type Config struct {
	Sessions   session.Store
	Retriever  Retriever
	Generator  llm.Generator
	Scheduler  Scheduler
	CRM        CRM
	Archive    leadarchive.Repository
	Thresholds scoring.Thresholds
	TopK       int
	Metrics    *metrics.ChatMetrics
	Logger     *logging.Logger
}

// NewOrchestrator validates required collaborators and returns an
// orchestrator. Archive and Metrics are optional.
func NewOrchestrator(cfg Config) *Orchestrator {
	if cfg.Sessions == nil {
		panic("chat: session store required")
	}
	if cfg.Retriever == nil {
		panic("chat: retriever required")
	}
	if cfg.Generator == nil {
		panic("chat: generator required")
	}
	if cfg.Scheduler == nil {
		panic("chat: scheduler required")
	}
	if cfg.CRM == nil {
		panic("chat: crm client required")
	}
	if cfg.Thresholds == (scoring.Thresholds{}) {
		cfg.Thresholds = scoring.DefaultThresholds()
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Orchestrator{
		sessions:   cfg.Sessions,
		retriever:  cfg.Retriever,
		generator:  cfg.Generator,
		scheduler:  cfg.Scheduler,
		crm:        cfg.CRM,
		archive:    cfg.Archive,
		thresholds: cfg.Thresholds,
		topK:       cfg.TopK,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
		locks:      make(map[string]*sessionLock),
	}
}

// HandleTurn processes one chat message and returns a well-formed result.
// Internal failures degrade to safe defaults rather than propagate.
func (o *Orchestrator) HandleTurn(ctx context.Context, req TurnRequest) (res TurnResult, err error) {
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	lock := o.lockSession(sessionID)
	defer o.unlockSession(sessionID, lock)

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("chat: turn panicked", "session_id", sessionID, "panic", r)
			res = TurnResult{
				SessionID:  sessionID,
				Answer:     fallbackAnswer,
				LeadStatus: scoring.TierUnqualified,
				CRMStatus:  "Skipped",
			}
			err = fmt.Errorf("chat: turn panicked: %v", r)
		}
	}()

	sess, loadErr := o.sessions.Load(ctx, sessionID)
	if loadErr != nil {
		if !errors.Is(loadErr, session.ErrNotFound) {
			o.logger.Warn("chat: session load failed, starting fresh", "session_id", sessionID, "error", loadErr)
		}
		sess = &session.Session{ID: sessionID}
	}
	if req.Name != "" {
		sess.Name = req.Name
	}
	if req.Email != "" {
		sess.Email = req.Email
	}
	if req.Budget != "" {
		sess.Budget = req.Budget
	}

	if len(sess.Transcript) == 0 {
		return o.greetingTurn(ctx, sess)
	}
	if hasSchedulingIntent(req.Message) {
		return o.schedulingTurn(ctx, sess, req.Message)
	}
	return o.generalTurn(ctx, sess, req.Message)
}

// greetingTurn opens the session. No scoring, no CRM.
func (o *Orchestrator) greetingTurn(ctx context.Context, sess *session.Session) (TurnResult, error) {
	o.metrics.ObserveTurn("greeting")
	sess.Append("Bot: " + Greeting)
	o.saveSession(ctx, sess)
	return TurnResult{
		SessionID:   sess.ID,
		Answer:      Greeting,
		LeadScore:   0,
		LeadStatus:  "Collecting Info",
		CRMStatus:   "Skipped",
		CRMResponse: "Initial greeting",
		Transcript:  sess.Transcript,
	}, nil
}

// schedulingTurn short-circuits booking requests with a prefilled link. The
// CRM step reports success without syncing here, matching the long-standing
// behavior downstream systems expect.
func (o *Orchestrator) schedulingTurn(ctx context.Context, sess *session.Session, message string) (TurnResult, error) {
	o.metrics.ObserveTurn("scheduling")

	answer := schedulingFailed
	link, err := o.scheduler.CreateSchedulingLink(ctx, sess.Name, sess.Email)
	if err != nil {
		o.logger.Warn("chat: scheduling link failed", "session_id", sess.ID, "error", err)
	} else {
		answer = schedulingPrefix + link.BookingURL
	}

	sess.Append("User: " + message)
	sess.Append("Bot: " + answer)
	o.saveSession(ctx, sess)

	o.archiveLead(ctx, sess, 80, scoring.TierHot, "Success")

	return TurnResult{
		SessionID:       sess.ID,
		Answer:          answer,
		LeadScore:       80,
		LeadStatus:      scoring.TierHot,
		CRMStatus:       "Success",
		CRMResponse:     "Scheduling link provided",
		RawReply:        answer,
		ScheduleMeeting: err == nil,
		Transcript:      sess.Transcript,
	}, nil
}

// generalTurn runs retrieval, scoring and generation, then best-effort CRM
// sync and archiving.
func (o *Orchestrator) generalTurn(ctx context.Context, sess *session.Session, message string) (TurnResult, error) {
	o.metrics.ObserveTurn("general")

	// Recency context and the previous bot line are captured before the
	// current message lands in the transcript.
	recent := sess.RecentContext(3)
	prevLine := sess.LastLine()
	hadHistory := len(sess.Transcript) > 1

	sess.Append("User: " + message)
	userTurns := sess.UserTurns()

	vectorContext := o.retriever.RetrieveContext(ctx, message, o.topK)
	promptContext := fmt.Sprintf("User: name=%s, email=%s, budget=%s\n%s\nRecent Chat:\n%s",
		sess.Name, sess.Email, sess.Budget, strings.Join(vectorContext, "\n"), recent)

	signals := scoring.Derive(userTurns, sess.Budget, message)

	start := time.Now()
	result, genErr := o.generator.Generate(ctx, llm.Request{
		Context:  promptContext,
		Question: message,
		Signals:  signals,
	})
	o.metrics.ObserveGenerationLatency(time.Since(start).Seconds())
	if genErr != nil {
		o.logger.Warn("chat: generation degraded", "session_id", sess.ID, "error", genErr)
	}

	answer := result.Text
	if hadHistory && strings.Contains(strings.ToLower(prevLine), strings.ToLower(answer)) {
		answer = dedupPrefix + answer
	}
	sess.Append("Bot: " + answer)

	crmStatus, crmResponse := o.syncCRM(ctx, sess, result)
	o.saveSession(ctx, sess)
	o.archiveLead(ctx, sess, result.LeadScore, o.classify(result.LeadScore), crmStatus)

	return TurnResult{
		SessionID:       sess.ID,
		Answer:          answer,
		LeadScore:       result.LeadScore,
		LeadStatus:      result.Qualification,
		CRMStatus:       crmStatus,
		CRMResponse:     crmResponse,
		RawReply:        result.Raw,
		ScheduleMeeting: result.ScheduleMeeting,
		Transcript:      sess.Transcript,
	}, nil
}

// syncCRM pushes the profile to the CRM. Failures, including panics in the
// client, collapse to a status string.
func (o *Orchestrator) syncCRM(ctx context.Context, sess *session.Session, result llm.Result) (status, response string) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("chat: crm sync panicked", "session_id", sess.ID, "panic", r)
			status, response = "Error: 500", "CRM update failed"
			o.metrics.ObserveCRMSync("panic")
		}
	}()

	upsert, err := o.crm.UpsertContact(ctx, crm.Profile{
		Email:         sess.Email,
		Name:          sess.Name,
		Budget:        sess.Budget,
		LeadType:      result.Qualification,
		LeadScore:     result.LeadScore,
		Qualification: result.Qualification,
		Transcript:    strings.Join(sess.Transcript, "\n"),
		UserType:      "User",
	})
	if err != nil {
		o.logger.Warn("chat: crm sync failed", "session_id", sess.ID, "error", err)
		if upsert.StatusCode == 0 {
			o.metrics.ObserveCRMSync("error")
			return "Error: 500", "CRM update failed"
		}
	}

	if upsert.StatusCode == 200 || upsert.StatusCode == 201 {
		o.metrics.ObserveCRMSync("success")
		return "Success", upsert.Message
	}
	o.metrics.ObserveCRMSync("error")
	return fmt.Sprintf("Error: %d", upsert.StatusCode), upsert.Message
}

func (o *Orchestrator) archiveLead(ctx context.Context, sess *session.Session, score int, tier, crmStatus string) {
	if o.archive == nil {
		return
	}
	_, err := o.archive.Archive(ctx, &leadarchive.ArchiveRequest{
		SessionID:     sess.ID,
		Name:          sess.Name,
		Email:         sess.Email,
		Budget:        sess.Budget,
		LeadScore:     score,
		Qualification: tier,
		CRMStatus:     crmStatus,
	})
	if err != nil {
		o.logger.Warn("chat: lead archive failed", "session_id", sess.ID, "error", err)
	}
}

func (o *Orchestrator) saveSession(ctx context.Context, sess *session.Session) {
	if err := o.sessions.Save(ctx, sess); err != nil {
		o.logger.Error("chat: session save failed", "session_id", sess.ID, "error", err)
	}
}

func (o *Orchestrator) classify(score int) string {
	tier, _ := scoring.Classify(score, o.thresholds)
	return tier
}

func (o *Orchestrator) lockSession(id string) *sessionLock {
	o.mu.Lock()
	lock, ok := o.locks[id]
	if !ok {
		lock = &sessionLock{}
		o.locks[id] = lock
	}
	lock.refs++
	o.mu.Unlock()

	lock.Lock()
	return lock
}

func (o *Orchestrator) unlockSession(id string, lock *sessionLock) {
	lock.Unlock()

	o.mu.Lock()
	lock.refs--
	if lock.refs == 0 {
		delete(o.locks, id)
	}
	o.mu.Unlock()
}

func hasSchedulingIntent(message string) bool {
	lower := strings.ToLower(message)
	for _, word := range schedulingKeywords {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}
