package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"survey-bot/internal/domain/dto"
	"survey-bot/internal/domain/entities"
	"survey-bot/internal/domain/interfaces/repository"
	Iservices "survey-bot/internal/domain/interfaces/services"
	"survey-bot/internal/domain/survey"
	"survey-bot/internal/infra/logger"
	"survey-bot/internal/infra/metrics"
	"survey-bot/internal/util"
)

const (
	outcomeIgnored       = "ignored"
	outcomeActivated     = "activated"
	outcomeOptInAccepted = "opt_in_accepted"
	outcomeOptInDeclined = "opt_in_declined"
	outcomeOptInInvalid  = "opt_in_invalid"
	outcomeStepReset     = "step_reset"
	outcomeDuplicate     = "duplicate"
	outcomeExit          = "exit"
	outcomeInvalid       = "invalid"
	outcomeAnswered      = "answered"
	outcomeCompleted     = "completed"
)

// ConversationService is the per-contact survey state machine. It turns one
// coalesced inbound message into store writes and an ordered list of outbound
// messages. Every mutation is saved before the messages are returned, so a
// message is never sent for progress that was not persisted.
type ConversationService struct {
	Logger        *logger.Logger
	Repository    repository.ContactRepository
	Script        *survey.Script
	Matcher       survey.Matcher
	Publisher     Iservices.ISurveyPublisher
	Metrics       *metrics.Recorder
	Picker        survey.Picker
	AnalysisDelay time.Duration
	Now           func() time.Time
}

func NewConversationService(logger *logger.Logger, repo repository.ContactRepository, script *survey.Script, publisher Iservices.ISurveyPublisher, recorder *metrics.Recorder, analysisDelay time.Duration) *ConversationService {
	return &ConversationService{
		Logger:        logger,
		Repository:    repo,
		Script:        script,
		Matcher:       survey.NewActivationMatcher(script.Triggers),
		Publisher:     publisher,
		Metrics:       recorder,
		Picker:        survey.RandomPicker,
		AnalysisDelay: analysisDelay,
		Now:           time.Now,
	}
}

// Process runs msg through the state machine for its contact.
func (cs *ConversationService) Process(ctx context.Context, msg dto.InboundMessage) ([]dto.Outbound, error) {
	if msg.ContactID == "" {
		return nil, fmt.Errorf("inbound message has no contact id")
	}

	contact, err := cs.Repository.Find(ctx, msg.ContactID)
	switch {
	case errors.Is(err, entities.ErrContactNotFound):
		contact = entities.NewContact(msg.ContactID)
		contact.Name = cs.displayName(msg, contact)
		if err := cs.save(ctx, &contact); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		contact.Name = cs.displayName(msg, contact)
	}

	log := cs.Logger.WithFields(logrus.Fields{"contact": contact.ID, "state": string(contact.State)})

	var (
		out     []dto.Outbound
		outcome string
	)
	switch contact.State {
	case entities.StateAwaitingOptIn:
		out, outcome, err = cs.handleOptIn(ctx, &contact, msg.Text)
	case entities.StateActive:
		out, outcome, err = cs.handleAnswer(ctx, &contact, msg.Text)
	default:
		out, outcome, err = cs.handleInactive(ctx, &contact, msg.Text)
	}
	if err != nil {
		return nil, err
	}

	cs.Metrics.IncTurn(outcome)
	log.Debug(fmt.Sprintf("Turn processed with outcome %s, %d outbound messages", outcome, len(out)))
	return out, nil
}

// RetryNotice is sent when a turn fails at the dispatch boundary.
func (cs *ConversationService) RetryNotice() string {
	return cs.Script.Messages.Retry
}

// CurrentState reports the stored lifecycle state; unseen contacts are inactive.
func (cs *ConversationService) CurrentState(ctx context.Context, contactID string) (entities.LifecycleState, error) {
	contact, err := cs.Repository.Find(ctx, contactID)
	if errors.Is(err, entities.ErrContactNotFound) {
		return entities.StateInactive, nil
	}
	if err != nil {
		return "", err
	}
	return contact.State, nil
}

func (cs *ConversationService) handleInactive(ctx context.Context, contact *entities.Contact, text string) ([]dto.Outbound, string, error) {
	if !cs.Matcher.Match(text) {
		return nil, outcomeIgnored, nil
	}

	contact.Answers = []entities.Answer{}
	if cs.Script.OptIn != nil {
		contact.State = entities.StateAwaitingOptIn
		contact.Step = nil
		if err := cs.save(ctx, contact); err != nil {
			return nil, "", err
		}
		cs.Logger.Info(fmt.Sprintf("Contact %s triggered the survey, sending opt-in", contact.ID))
		return cs.texts(contact, cs.Script.OptIn.Prompt), outcomeActivated, nil
	}

	contact.State = entities.StateActive
	contact.SetStep(0)
	if err := cs.save(ctx, contact); err != nil {
		return nil, "", err
	}
	cs.Logger.Info(fmt.Sprintf("Contact %s triggered the survey", contact.ID))
	return cs.texts(contact, cs.Script.Questions[0].Prompt), outcomeActivated, nil
}

func (cs *ConversationService) handleOptIn(ctx context.Context, contact *entities.Contact, text string) ([]dto.Outbound, string, error) {
	optIn := cs.Script.OptIn
	if optIn == nil {
		// The script lost its opt-in since this contact was invited.
		return cs.startSurvey(ctx, contact, outcomeOptInAccepted)
	}

	switch strings.ToUpper(strings.TrimSpace(text)) {
	case optIn.Accept:
		return cs.startSurvey(ctx, contact, outcomeOptInAccepted)
	case optIn.Decline:
		contact.Reset()
		if err := cs.save(ctx, contact); err != nil {
			return nil, "", err
		}
		return cs.texts(contact, optIn.Goodbye), outcomeOptInDeclined, nil
	default:
		return cs.texts(contact, cs.Script.InvalidOptIn()), outcomeOptInInvalid, nil
	}
}

func (cs *ConversationService) startSurvey(ctx context.Context, contact *entities.Contact, outcome string) ([]dto.Outbound, string, error) {
	contact.State = entities.StateActive
	contact.SetStep(0)
	contact.Answers = []entities.Answer{}
	if err := cs.save(ctx, contact); err != nil {
		return nil, "", err
	}
	return cs.texts(contact, cs.Script.Questions[0].Prompt), outcome, nil
}

func (cs *ConversationService) handleAnswer(ctx context.Context, contact *entities.Contact, text string) ([]dto.Outbound, string, error) {
	n := cs.Script.QuestionCount()
	if contact.Step != nil && *contact.Step == n && cs.answeredAll(contact) {
		// The last answer was stored but the reset after it was not.
		cs.Logger.Warn(fmt.Sprintf("Contact %s has a finished survey that was never closed, completing it now", contact.ID))
		return cs.complete(ctx, contact)
	}
	if contact.Step == nil || *contact.Step < 0 || *contact.Step >= n {
		cs.Logger.Warn(fmt.Sprintf("Contact %s had an invalid step, restarting the survey", contact.ID))
		return cs.startSurvey(ctx, contact, outcomeStepReset)
	}

	step := *contact.Step
	question, _ := cs.Script.Question(step)

	if _, answered := contact.AnswerFor(question.Key); answered {
		return cs.texts(contact, cs.Script.Messages.Wait), outcomeDuplicate, nil
	}

	if strings.ToUpper(strings.TrimSpace(text)) == cs.Script.ExitCode {
		return cs.exit(ctx, contact)
	}

	if !survey.Validate(question, text) {
		return cs.texts(contact, cs.Script.InvalidAnswer(question)), outcomeInvalid, nil
	}

	answer := survey.Normalize(question, text)
	if survey.ContainsExit(question, answer, cs.Script.ExitCode) {
		return cs.exit(ctx, contact)
	}

	contact.SetAnswer(question.Key, answer)
	contact.SetStep(step + 1)
	if err := cs.save(ctx, contact); err != nil {
		return nil, "", err
	}

	if step+1 < n {
		return cs.nextQuestion(contact, step), outcomeAnswered, nil
	}
	return cs.complete(ctx, contact)
}

func (cs *ConversationService) exit(ctx context.Context, contact *entities.Contact) ([]dto.Outbound, string, error) {
	contact.Reset()
	if err := cs.save(ctx, contact); err != nil {
		return nil, "", err
	}
	cs.Logger.Info(fmt.Sprintf("Contact %s left the survey", contact.ID))
	return cs.texts(contact, cs.Script.Messages.Farewell), outcomeExit, nil
}

// nextQuestion builds confirmation, the filler for the step just answered and
// the next prompt, in that order.
func (cs *ConversationService) nextQuestion(contact *entities.Contact, answered int) []dto.Outbound {
	var texts []string
	if confirmation, ok := survey.Pick(cs.Script.Messages.Confirmations, cs.Picker); ok {
		texts = append(texts, confirmation)
	}
	if filler, ok := cs.Script.FillerFor(answered, cs.Picker); ok {
		texts = append(texts, filler)
	}
	next, _ := cs.Script.Question(answered + 1)
	texts = append(texts, next.Prompt)
	return cs.texts(contact, texts...)
}

func (cs *ConversationService) answeredAll(contact *entities.Contact) bool {
	for _, q := range cs.Script.Questions {
		if _, ok := contact.AnswerFor(q.Key); !ok {
			return false
		}
	}
	return true
}

// complete resets the contact, publishes the finished survey once the reset
// is stored and returns the closing messages with the analysis pause before
// the approval. When the reset cannot be stored nothing is published and the
// record keeps every answer, so the next turn completes it again.
func (cs *ConversationService) complete(ctx context.Context, contact *entities.Contact) ([]dto.Outbound, string, error) {
	completed := entities.CompletedSurvey{
		ID:          uuid.NewString(),
		ContactID:   contact.ID,
		Name:        contact.Name,
		Answers:     contact.Clone().Answers,
		CompletedAt: cs.Now(),
	}

	contact.Reset()
	if err := cs.save(ctx, contact); err != nil {
		return nil, "", err
	}

	cs.Publisher.Publish(ctx, completed)
	cs.Metrics.IncCompleted()
	cs.Logger.Info(fmt.Sprintf("Contact %s completed the survey (%s)", contact.ID, completed.ID))

	var out []dto.Outbound
	if closing, ok := survey.Pick(cs.Script.Messages.Completion, cs.Picker); ok {
		out = append(out, cs.texts(contact, closing)...)
	}
	if cs.Script.Messages.Analyzing != "" {
		out = append(out, cs.texts(contact, cs.Script.Messages.Analyzing)...)
	}
	approval, _ := survey.Pick(cs.Script.Messages.Approvals, cs.Picker)
	out = append(out, dto.Outbound{Text: cs.Script.Render(approval, contact.Name), Pause: cs.AnalysisDelay})
	return out, outcomeCompleted, nil
}

func (cs *ConversationService) save(ctx context.Context, contact *entities.Contact) error {
	contact.UpdatedAt = cs.Now()
	if err := cs.Repository.Save(ctx, *contact); err != nil {
		return fmt.Errorf("failed to persist contact %s: %w", contact.ID, err)
	}
	return nil
}

func (cs *ConversationService) texts(contact *entities.Contact, texts ...string) []dto.Outbound {
	out := make([]dto.Outbound, 0, len(texts))
	for _, text := range texts {
		if text == "" {
			continue
		}
		out = append(out, dto.Outbound{Text: cs.Script.Render(text, contact.Name)})
	}
	return out
}

// displayName prefers the name the channel reported, then the stored one, then
// the phone number.
func (cs *ConversationService) displayName(msg dto.InboundMessage, contact entities.Contact) string {
	if name := util.FirstName(msg.Name, ""); name != "" {
		return name
	}
	if contact.Name != "" {
		return contact.Name
	}
	return util.StripJID(msg.ContactID)
}
