package chat

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/themobileprof/symptomcheck/internal/circuitbreaker"
	"github.com/themobileprof/symptomcheck/internal/classifier"
	"github.com/themobileprof/symptomcheck/internal/conversation"
	"github.com/themobileprof/symptomcheck/internal/dialogue"
	"github.com/themobileprof/symptomcheck/internal/fallback"
	"github.com/themobileprof/symptomcheck/internal/knowledge"
	"github.com/themobileprof/symptomcheck/internal/model"
	"github.com/themobileprof/symptomcheck/internal/privacy"
	"github.com/themobileprof/symptomcheck/internal/report"
	"github.com/themobileprof/symptomcheck/internal/scoring"
	"github.com/themobileprof/symptomcheck/internal/session"
	"github.com/themobileprof/symptomcheck/internal/symptoms"
)

// ErrSessionNotFound is returned for unknown session IDs
var ErrSessionNotFound = conversation.ErrNotFound

// summaryConditions is how many conditions the chat reply names
const summaryConditions = 3

// HistoryStore persists exported assessments
type HistoryStore interface {
	SaveAssessment(ctx context.Context, rec report.Record) (string, error)
}

// Options configure an Engine. Zero values use the package defaults.
type Options struct {
	Thresholds      session.Thresholds
	ConfidenceFloor float64
	TopK            int
	Dialogue        dialogue.Config
	MaxTurns        int
	BreakerFailures int
	BreakerReset    time.Duration
	History         HistoryStore
	Logger          *zap.Logger
}

// Response is the outcome of one utterance. Added and Updated hold the
// stored state of the observations the utterance touched.
type Response struct {
	SessionID          string
	Intent             classifier.Intent
	Added              []session.Observation
	Updated            []session.Observation
	Assessment         scoring.Result
	FollowUp           *string
	FollowUpSymptom    string
	Reply              string
	Route              string // scoring strategy used, empty when nothing was scored
	ModelAvailable     bool
	Degraded           bool // statistical path failed and deterministic was used
	Emergency          bool
	RedFlags           []string
	NoSymptomsDetected bool
}

type statModel struct {
	model    *model.Model
	strategy *scoring.Statistical
}

// Engine handles the symptom conversation independent of transport. Turns
// on one session are serialized; different sessions run in parallel.
type Engine struct {
	base          *knowledge.Base
	classifier    *classifier.Classifier
	extractor     *symptoms.Extractor
	sessions      *conversation.Manager
	deterministic *scoring.Deterministic
	statistical   atomic.Pointer[statModel]
	breaker       *circuitbreaker.CircuitBreaker
	history       HistoryStore
	logger        *zap.Logger
	thresholds    session.Thresholds
	floor         float64
	topK          int
	now           func() time.Time
}

// NewEngine creates a transport-agnostic engine over base. It starts
// without a model; see SetModel.
func NewEngine(base *knowledge.Base, opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Thresholds == (session.Thresholds{}) {
		opts.Thresholds = session.DefaultThresholds
	}
	if opts.ConfidenceFloor <= 0 {
		opts.ConfidenceFloor = scoring.DefaultConfidenceFloor
	}
	if opts.TopK <= 0 {
		opts.TopK = scoring.DefaultTopK
	}
	if opts.BreakerFailures <= 0 {
		opts.BreakerFailures = 3
	}
	if opts.BreakerReset <= 0 {
		opts.BreakerReset = time.Minute
	}

	e := &Engine{
		base:          base,
		classifier:    classifier.NewClassifier(),
		extractor:     symptoms.NewExtractor(base.Lexicon(), nil),
		sessions:      conversation.NewManager(base, opts.Dialogue, opts.MaxTurns),
		deterministic: scoring.NewDeterministic(base),
		breaker:       circuitbreaker.NewCircuitBreaker(opts.BreakerFailures, opts.BreakerReset),
		history:       opts.History,
		logger:        opts.Logger,
		thresholds:    opts.Thresholds,
		floor:         opts.ConfidenceFloor,
		topK:          opts.TopK,
		now:           time.Now,
	}
	e.breaker.OnStateChange(func(from, to circuitbreaker.State) {
		e.logger.Warn("statistical scoring circuit changed",
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
	})
	return e
}

// SetModel installs a trained model for the statistical path. A nil model
// disables it. The model must match the knowledge base.
func (e *Engine) SetModel(m *model.Model) error {
	if m == nil {
		e.statistical.Store(nil)
		return nil
	}
	if err := m.Validate(e.base); err != nil {
		return err
	}
	e.statistical.Store(&statModel{
		model:    m,
		strategy: scoring.NewStatistical(e.base, m, e.floor),
	})
	e.breaker.Reset()
	e.logger.Info("model installed",
		zap.Time("trained_at", m.TrainedAt),
		zap.Int("examples", m.Examples),
	)
	return nil
}

// ModelAvailable reports whether the statistical path can be used
func (e *Engine) ModelAvailable() bool {
	return e.statistical.Load() != nil && e.breaker.Ready()
}

// StartSession creates a session and returns its ID
func (e *Engine) StartSession(lang string) string {
	return e.sessions.Create(lang).ID
}

// OpenSession returns the session with the given ID, creating it if needed
func (e *Engine) OpenSession(id, lang string) string {
	return e.sessions.GetOrCreate(id, lang).ID
}

// EndSession forgets a session
func (e *Engine) EndSession(id string) bool {
	return e.sessions.End(id)
}

// ExpireSessions drops sessions idle for longer than maxIdle
func (e *Engine) ExpireSessions(maxIdle time.Duration) int {
	return e.sessions.Expire(maxIdle)
}

// ProcessUtterance runs one conversational turn: classify, extract, update
// the session, route, score and pick a follow-up.
func (e *Engine) ProcessUtterance(ctx context.Context, sessionID, text string) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sess, err := e.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	defer sess.Unlock()

	st, router := sess.State, sess.Router
	if router.Phase() != dialogue.PhaseAwaitingInput {
		// previous turn was aborted mid-way
		router.Reset()
	}
	if err := router.Begin(); err != nil {
		return nil, err
	}

	intent := e.classifier.Classify(text, sess.Language)
	resp := &Response{
		SessionID:      sess.ID,
		Intent:         intent.Intent,
		ModelAvailable: e.ModelAvailable(),
	}
	st.AddTurn("user", text)

	if intent.Intent == classifier.IntentReset {
		sess.Reset()
		if err := router.Begin(); err != nil {
			return nil, err
		}
		resp.Reply = fallback.GetIntentResponse(classifier.IntentReset, sess.Language).Content
		return e.finish(sess, resp, text)
	}

	ext := e.extractor.Extract(text, st)
	resp.RedFlags = ext.RedFlags
	if len(ext.RedFlags) > 0 {
		resp.Emergency = true
	}
	for _, obs := range ext.Observations {
		added := st.AddOrUpdate(obs)
		stored, _ := st.Get(obs.Name())
		if added {
			resp.Added = append(resp.Added, stored)
		} else {
			resp.Updated = append(resp.Updated, stored)
		}
		if stored.Symptom.Emergency && stored.Severity == session.SeveritySevere {
			resp.Emergency = true
		}
	}
	if len(ext.Observations) > 0 {
		resp.Intent = classifier.IntentSymptom
	}
	if resp.Emergency {
		sess.Emergency = true
	}
	if ext.Resolved != "" {
		e.logger.Debug("modifiers applied to previous symptom", zap.String("session", sess.ID), zap.String("symptom", ext.Resolved))
	}
	if !ext.Pending.Empty() {
		e.logger.Debug("modifiers without a symptom ignored", zap.String("session", sess.ID))
	}

	rescore := intent.Intent == classifier.IntentQuestion && st.Len() > 0
	if len(ext.Observations) == 0 && !rescore {
		resp.NoSymptomsDetected = true
		resp.Reply = e.noSymptomReply(sess, resp, intent.Intent)
		return e.finish(sess, resp, text)
	}

	features := dialogue.Features{
		Mentions:   ext.Mentions,
		Words:      ext.Words,
		Connectors: e.classifier.Complexity(text).Connectors,
		Tracked:    st.Len(),
	}
	phase, err := router.Route(features, resp.ModelAvailable)
	if err != nil {
		return nil, err
	}

	res, fellBack, err := e.score(phase == dialogue.PhaseRouteStatistical, st)
	if err != nil {
		return nil, fmt.Errorf("scoring failed: %w", err)
	}
	if fellBack {
		resp.Degraded = true
		resp.ModelAvailable = e.ModelAvailable()
		if err := router.Fallback(); err != nil {
			return nil, err
		}
	}
	sess.Result = &res
	resp.Assessment = res
	resp.Route = res.Strategy

	if fu, ask := router.FollowUp(st, res); ask {
		q := e.renderFollowUp(sess.Language, fu)
		resp.FollowUp = &q
		resp.FollowUpSymptom = fu.Symptom
	}
	resp.Reply = e.assessmentReply(sess.Language, resp)
	return e.finish(sess, resp, text)
}

// finish closes the turn and records the assistant reply
func (e *Engine) finish(sess *conversation.Session, resp *Response, text string) (*Response, error) {
	if err := sess.Router.Respond(); err != nil {
		return nil, err
	}
	sess.State.AddTurn("assistant", resp.Reply)
	if err := sess.Router.Finish(); err != nil {
		return nil, err
	}
	// the transcript changed, so the next export is saved again
	sess.Saved, sess.SavedID = nil, ""

	e.logger.Info("utterance processed",
		zap.String("session", sess.ID),
		zap.String("intent", string(resp.Intent)),
		zap.String("route", resp.Route),
		zap.Int("added", len(resp.Added)),
		zap.Int("updated", len(resp.Updated)),
		zap.Int("tracked", sess.State.Len()),
		zap.Int("conditions", resp.Assessment.Len()),
		zap.Bool("emergency", resp.Emergency),
	)
	e.logger.Debug("utterance text", zap.String("session", sess.ID), zap.String("text", privacy.SanitizeForLogging(text)))
	return resp, nil
}

// score runs the requested strategy. The statistical path goes through the
// circuit breaker and falls back to deterministic scoring on any failure.
func (e *Engine) score(useStatistical bool, st *session.State) (scoring.Result, bool, error) {
	fellBack := false
	if useStatistical {
		if stat := e.statistical.Load(); stat != nil {
			var res scoring.Result
			err := e.breaker.Call(func() error {
				var err error
				res, err = stat.strategy.Score(st)
				return err
			})
			if err == nil {
				return res, false, nil
			}
			e.logger.Warn("statistical scoring failed, using deterministic",
				zap.Error(err),
				zap.String("breaker", e.breaker.State().String()),
				zap.Int("failures", e.breaker.Failures()),
			)
		}
		fellBack = true
	}

	res, err := e.deterministic.Score(st)
	return res, fellBack, err
}

func (e *Engine) noSymptomReply(sess *conversation.Session, resp *Response, intent classifier.Intent) string {
	var parts []string
	if resp.Emergency {
		parts = append(parts, fallback.GetEmergencyResponse(sess.Language).Content)
	}
	switch {
	case intent == classifier.IntentSmallTalk || intent == classifier.IntentGratitude:
		parts = append(parts, fallback.GetIntentResponse(intent, sess.Language).Content)
	case sess.State.Len() > 0:
		parts = append(parts, fallback.GetClarifyPrompt(sess.Language).Content)
	default:
		parts = append(parts, fallback.GetIntentResponse(classifier.IntentUnclear, sess.Language).Content)
	}
	return strings.Join(parts, " ")
}

func (e *Engine) renderFollowUp(lang string, fu dialogue.FollowUp) string {
	switch fu.Kind {
	case dialogue.FollowUpDiscriminate:
		label := strings.ReplaceAll(fu.Symptom, "_", " ")
		if def, ok := e.base.Lexicon().Definition(fu.Symptom); ok {
			label = def.Label()
		}
		return fallback.GetFollowUpPrompt(lang, label).Content
	case dialogue.FollowUpQuestion:
		return fu.Text
	default:
		return fallback.GetClarifyPrompt(lang).Content
	}
}

func (e *Engine) assessmentReply(lang string, resp *Response) string {
	var parts []string
	if resp.Emergency {
		parts = append(parts, fallback.GetEmergencyResponse(lang).Content)
	}
	if resp.Degraded {
		parts = append(parts, fallback.GetDegradedResponse(lang).Content)
	}

	top := resp.Assessment.Top(summaryConditions)
	if len(top) == 0 {
		parts = append(parts, fallback.GetNoMatchResponse(lang).Content)
	} else {
		names := make([]string, len(top))
		for i, m := range top {
			names[i] = fmt.Sprintf("%s (%.0f%%)", m.Condition.Title(), report.Round(m.Probability)*100)
		}
		parts = append(parts, fallback.GetAssessmentIntro(lang)+" "+strings.Join(names, ", ")+".")
	}

	if resp.FollowUp != nil {
		parts = append(parts, *resp.FollowUp)
	}
	if len(top) > 0 {
		parts = append(parts, fallback.GetDisclaimer(lang))
	}
	return strings.Join(parts, " ")
}

// GetSessionSymptoms returns the tracked observations in mention order
func (e *Engine) GetSessionSymptoms(sessionID string) ([]session.Observation, error) {
	sess, err := e.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	sess.Lock()
	defer sess.Unlock()
	return sess.State.All(), nil
}

// RemoveSymptom stops tracking a symptom. It reports false for an unknown
// session or a symptom that is not tracked.
func (e *Engine) RemoveSymptom(sessionID, name string) bool {
	sess, err := e.sessions.Get(sessionID)
	if err != nil {
		return false
	}
	if def, ok := e.base.Lookup(name); ok {
		name = def.Name
	}

	sess.Lock()
	defer sess.Unlock()
	if !sess.State.Remove(name) {
		return false
	}
	sess.Result = nil
	return true
}

// ClearSession discards all symptoms and the transcript of a session
func (e *Engine) ClearSession(sessionID string) error {
	sess, err := e.sessions.Get(sessionID)
	if err != nil {
		return err
	}
	sess.Lock()
	defer sess.Unlock()
	sess.Reset()
	return nil
}

// ExportAssessment builds a report of the session's current assessment and
// saves it to the history store when one is configured. Exporting an
// unchanged assessment again returns the saved ID without a new row. A failed
// save is logged and does not fail the export.
func (e *Engine) ExportAssessment(ctx context.Context, sessionID string) (report.Record, error) {
	sess, err := e.sessions.Get(sessionID)
	if err != nil {
		return report.Record{}, err
	}

	sess.Lock()
	if sess.Result == nil {
		res, _, err := e.score(e.ModelAvailable(), sess.State)
		if err != nil {
			sess.Unlock()
			return report.Record{}, fmt.Errorf("scoring failed: %w", err)
		}
		sess.Result = &res
	}
	redacted := 0
	rec := report.Build(report.Input{
		SessionID:    sess.ID,
		Observations: sess.State.All(),
		Result:       *sess.Result,
		Summary:      sess.State.SeveritySummary(e.thresholds),
		Transcript:   sess.State.Transcript(),
		Redact: func(text string) string {
			if !privacy.ContainsPII(text) {
				return text
			}
			redacted++
			return privacy.SanitizeForStorage(text)
		},
		TopK:        e.topK,
		Emergency:   sess.Emergency,
		Disclaimer:  fallback.GetDisclaimer(sess.Language),
		GeneratedAt: e.now(),
	})
	result := sess.Result
	if sess.Saved == result && sess.SavedID != "" {
		// nothing changed since the last export
		rec.ID = sess.SavedID
		sess.Unlock()
		return rec, nil
	}
	sess.Unlock()

	if redacted > 0 {
		e.logger.Debug("personal data redacted from transcript",
			zap.String("session", sessionID),
			zap.Int("turns", redacted),
		)
	}
	if e.history != nil {
		id, err := e.history.SaveAssessment(ctx, rec)
		if err != nil {
			e.logger.Warn("failed to save assessment", zap.String("session", sessionID), zap.Error(err))
			return rec, nil
		}
		rec.ID = id
		sess.Lock()
		if sess.Result == result {
			sess.Saved, sess.SavedID = result, id
		}
		sess.Unlock()
	}
	return rec, nil
}
