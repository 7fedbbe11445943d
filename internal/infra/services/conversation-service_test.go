package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"survey-bot/internal/domain/dto"
	"survey-bot/internal/domain/entities"
	"survey-bot/internal/domain/survey"
	"survey-bot/internal/infra/logger"
)

func newTestConversation(t *testing.T, script string) (*ConversationService, *memoryRepository, *recordingPublisher) {
	t.Helper()
	s, err := survey.Parse([]byte(script))
	require.NoError(t, err)

	repo := newMemoryRepository()
	publisher := &recordingPublisher{}
	cs := NewConversationService(logger.NewDiscardLogger(), repo, s, publisher, nil, 10*time.Second)
	cs.Picker = survey.FirstPicker
	cs.Now = func() time.Time { return time.Date(2025, time.May, 10, 15, 0, 0, 0, time.UTC) }
	return cs, repo, publisher
}

func message(text string) dto.InboundMessage {
	return dto.InboundMessage{ContactID: "5511987654321", Name: "Ana Souza", Text: text}
}

func outboundTexts(out []dto.Outbound) []string {
	texts := make([]string, 0, len(out))
	for _, o := range out {
		texts = append(texts, o.Text)
	}
	return texts
}

func activeContact(step int, answers ...entities.Answer) entities.Contact {
	c := entities.NewContact("5511987654321")
	c.Name = "Ana"
	c.State = entities.StateActive
	c.SetStep(step)
	c.Answers = append(c.Answers, answers...)
	return c
}

func TestConversation_NonTriggerIsIgnored(t *testing.T) {
	cs, repo, _ := newTestConversation(t, testScript)
	ctx := context.Background()

	out, err := cs.Process(ctx, message("bom dia"))
	require.NoError(t, err)
	assert.Empty(t, out)

	// The first message creates the record.
	require.Equal(t, 1, repo.writeCount())
	stored, err := repo.Find(ctx, "5511987654321")
	require.NoError(t, err)
	assert.Equal(t, entities.StateInactive, stored.State)
	assert.Nil(t, stored.Step)
	assert.Empty(t, stored.Answers)

	out, err = cs.Process(ctx, message("alguém aí?"))
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, 1, repo.writeCount())

	again, err := repo.Find(ctx, "5511987654321")
	require.NoError(t, err)
	assert.Equal(t, stored, again)
}

func TestConversation_TriggerActivates(t *testing.T) {
	for _, text := range []string{"Quero   PARTICIPAR", "Oi! Vi a comunidade de élite no insta"} {
		t.Run(text, func(t *testing.T) {
			cs, repo, _ := newTestConversation(t, testScript)
			ctx := context.Background()

			out, err := cs.Process(ctx, message(text))
			require.NoError(t, err)
			assert.Equal(t, []string{"Primeira?"}, outboundTexts(out))

			stored, err := repo.Find(ctx, "5511987654321")
			require.NoError(t, err)
			assert.Equal(t, entities.StateActive, stored.State)
			require.NotNil(t, stored.Step)
			assert.Equal(t, 0, *stored.Step)
			assert.Empty(t, stored.Answers)
			assert.Equal(t, "Ana", stored.Name)
		})
	}
}

func TestConversation_FullSurvey(t *testing.T) {
	cs, repo, publisher := newTestConversation(t, testScript)
	ctx := context.Background()

	_, err := cs.Process(ctx, message("quero participar"))
	require.NoError(t, err)
	before := repo.writeCount()

	out, err := cs.Process(ctx, message(" a "))
	require.NoError(t, err)
	assert.Equal(t, []string{"ok", "depois da primeira, Ana", "Segunda?"}, outboundTexts(out))
	assert.Empty(t, publisher.published())

	out, err = cs.Process(ctx, message("c, a ,C"))
	require.NoError(t, err)
	assert.Equal(t, []string{"fim", "analisando", "aprovada Ana"}, outboundTexts(out))
	assert.Zero(t, out[0].Pause)
	assert.Equal(t, 10*time.Second, out[2].Pause)

	writes := repo.writesSince(before)
	require.Len(t, writes, 3)
	for i, w := range writes[:2] {
		assert.Equal(t, entities.StateActive, w.State)
		require.NotNil(t, w.Step)
		assert.Equal(t, i+1, *w.Step)
		assert.Len(t, w.Answers, i+1)
	}
	reset := writes[2]
	assert.Equal(t, entities.StateInactive, reset.State)
	assert.Nil(t, reset.Step)
	assert.Empty(t, reset.Answers)

	published := publisher.published()
	require.Len(t, published, 1)
	assert.NotEmpty(t, published[0].ID)
	assert.Equal(t, "5511987654321", published[0].ContactID)
	assert.Equal(t, "Ana", published[0].Name)
	assert.Equal(t, []entities.Answer{{Key: "q1", Value: "A"}, {Key: "q2", Value: "C,A"}}, published[0].Answers)
	assert.Equal(t, cs.Now(), published[0].CompletedAt)
}

func TestConversation_ExitAtAnyStep(t *testing.T) {
	for step, answers := range [][]entities.Answer{nil, {{Key: "q1", Value: "B"}}} {
		cs, repo, publisher := newTestConversation(t, testScript)
		ctx := context.Background()
		repo.put(activeContact(step, answers...))

		out, err := cs.Process(ctx, message(" s "))
		require.NoError(t, err)
		assert.Equal(t, []string{"tchau Ana"}, outboundTexts(out))

		stored, err := repo.Find(ctx, "5511987654321")
		require.NoError(t, err)
		assert.Equal(t, entities.StateInactive, stored.State)
		assert.Nil(t, stored.Step)
		assert.Empty(t, stored.Answers)
		assert.Empty(t, publisher.published())
	}
}

func TestConversation_MultiSelectWithExitLeaves(t *testing.T) {
	cs, repo, _ := newTestConversation(t, testScript)
	ctx := context.Background()
	repo.put(activeContact(1, entities.Answer{Key: "q1", Value: "A"}))

	out, err := cs.Process(ctx, message("a,s"))
	require.NoError(t, err)
	assert.Equal(t, []string{"tchau Ana"}, outboundTexts(out))

	stored, err := repo.Find(ctx, "5511987654321")
	require.NoError(t, err)
	assert.Equal(t, entities.StateInactive, stored.State)
}

func TestConversation_InvalidAnswerKeepsState(t *testing.T) {
	cases := []struct {
		name  string
		step  int
		text  string
		reply string
	}{
		{"unknown letter", 0, "D", "use A, B, S"},
		{"trailing text", 0, "AB", "use A, B, S"},
		{"too many", 1, "A,B,C", "até 2: A,B"},
		{"empty selection", 1, " , ", "até 2: A,B"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cs, repo, _ := newTestConversation(t, testScript)
			ctx := context.Background()
			var answers []entities.Answer
			if tc.step == 1 {
				answers = append(answers, entities.Answer{Key: "q1", Value: "A"})
			}
			repo.put(activeContact(tc.step, answers...))

			out, err := cs.Process(ctx, message(tc.text))
			require.NoError(t, err)
			assert.Equal(t, []string{tc.reply}, outboundTexts(out))
			assert.Zero(t, repo.writeCount())
		})
	}
}

func TestConversation_DuplicateTurnWaits(t *testing.T) {
	cs, repo, _ := newTestConversation(t, testScript)
	ctx := context.Background()
	repo.put(activeContact(0, entities.Answer{Key: "q1", Value: "A"}))

	out, err := cs.Process(ctx, message("B"))
	require.NoError(t, err)
	assert.Equal(t, []string{"aguarde"}, outboundTexts(out))
	assert.Zero(t, repo.writeCount())
}

func TestConversation_CorruptStepRestarts(t *testing.T) {
	for _, step := range []*int{nil, ptr(-1), ptr(2), ptr(99)} {
		cs, repo, _ := newTestConversation(t, testScript)
		ctx := context.Background()
		c := activeContact(0, entities.Answer{Key: "q1", Value: "A"})
		c.Step = step
		repo.put(c)

		out, err := cs.Process(ctx, message("B"))
		require.NoError(t, err)
		assert.Equal(t, []string{"Primeira?"}, outboundTexts(out))

		stored, err := repo.Find(ctx, "5511987654321")
		require.NoError(t, err)
		assert.Equal(t, entities.StateActive, stored.State)
		require.NotNil(t, stored.Step)
		assert.Equal(t, 0, *stored.Step)
		assert.Empty(t, stored.Answers)
	}
}

func TestConversation_OptIn(t *testing.T) {
	ctx := context.Background()

	t.Run("accept", func(t *testing.T) {
		cs, repo, _ := newTestConversation(t, testScript+testOptIn)

		out, err := cs.Process(ctx, message("quero participar"))
		require.NoError(t, err)
		assert.Equal(t, []string{"Oi Ana, topa? A ou B"}, outboundTexts(out))
		stored, _ := repo.Find(ctx, "5511987654321")
		assert.Equal(t, entities.StateAwaitingOptIn, stored.State)
		assert.Nil(t, stored.Step)

		out, err = cs.Process(ctx, message("talvez"))
		require.NoError(t, err)
		assert.Equal(t, []string{"use A, B"}, outboundTexts(out))

		out, err = cs.Process(ctx, message("a"))
		require.NoError(t, err)
		assert.Equal(t, []string{"Primeira?"}, outboundTexts(out))
		stored, _ = repo.Find(ctx, "5511987654321")
		assert.Equal(t, entities.StateActive, stored.State)
		require.NotNil(t, stored.Step)
		assert.Equal(t, 0, *stored.Step)
	})

	t.Run("decline", func(t *testing.T) {
		cs, repo, _ := newTestConversation(t, testScript+testOptIn)

		_, err := cs.Process(ctx, message("quero participar"))
		require.NoError(t, err)
		out, err := cs.Process(ctx, message("B"))
		require.NoError(t, err)
		assert.Equal(t, []string{"até logo Ana"}, outboundTexts(out))

		stored, _ := repo.Find(ctx, "5511987654321")
		assert.Equal(t, entities.StateInactive, stored.State)
	})
}

func TestConversation_NameFallsBackToNumber(t *testing.T) {
	cs, repo, _ := newTestConversation(t, testScript)
	ctx := context.Background()

	_, err := cs.Process(ctx, dto.InboundMessage{ContactID: "5511987654321@s.whatsapp.net", Text: "quero participar"})
	require.NoError(t, err)

	stored, err := repo.Find(ctx, "5511987654321@s.whatsapp.net")
	require.NoError(t, err)
	assert.Equal(t, "5511987654321", stored.Name)
}

func TestConversation_SaveFailure(t *testing.T) {
	cs, repo, publisher := newTestConversation(t, testScript)
	ctx := context.Background()
	repo.put(activeContact(1, entities.Answer{Key: "q1", Value: "A"}))
	repo.saveErr = errors.New("disk full")

	out, err := cs.Process(ctx, message("A"))
	assert.ErrorContains(t, err, "disk full")
	assert.Nil(t, out)
	assert.Empty(t, publisher.published())
}

func TestConversation_FailedResetCompletesOnNextTurn(t *testing.T) {
	cs, repo, publisher := newTestConversation(t, testScript)
	ctx := context.Background()
	repo.put(activeContact(1, entities.Answer{Key: "q1", Value: "A"}))
	// The last answer is stored, the reset after it is not.
	repo.failAt = 2

	out, err := cs.Process(ctx, message("B"))
	assert.ErrorContains(t, err, "disk full")
	assert.Nil(t, out)
	assert.Empty(t, publisher.published())

	stored, err := repo.Find(ctx, "5511987654321")
	require.NoError(t, err)
	assert.Equal(t, entities.StateActive, stored.State)
	require.NotNil(t, stored.Step)
	assert.Equal(t, 2, *stored.Step)
	assert.Len(t, stored.Answers, 2)

	out, err = cs.Process(ctx, message("oi"))
	require.NoError(t, err)
	assert.Equal(t, []string{"fim", "analisando", "aprovada Ana"}, outboundTexts(out))

	published := publisher.published()
	require.Len(t, published, 1)
	assert.Equal(t, []entities.Answer{{Key: "q1", Value: "A"}, {Key: "q2", Value: "B"}}, published[0].Answers)

	stored, err = repo.Find(ctx, "5511987654321")
	require.NoError(t, err)
	assert.Equal(t, entities.StateInactive, stored.State)
	assert.Nil(t, stored.Step)
	assert.Empty(t, stored.Answers)

	// Already closed: a later message is an ordinary non-trigger.
	out, err = cs.Process(ctx, message("oi"))
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Len(t, publisher.published(), 1)
}

func TestConversation_CurrentState(t *testing.T) {
	cs, repo, _ := newTestConversation(t, testScript)
	ctx := context.Background()

	state, err := cs.CurrentState(ctx, "unknown")
	require.NoError(t, err)
	assert.Equal(t, entities.StateInactive, state)

	repo.put(activeContact(0))
	state, err = cs.CurrentState(ctx, "5511987654321")
	require.NoError(t, err)
	assert.Equal(t, entities.StateActive, state)
	assert.Equal(t, "erro", cs.RetryNotice())
}

func ptr(i int) *int {
	return &i
}
