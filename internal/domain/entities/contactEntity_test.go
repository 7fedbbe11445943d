package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContact_SetAnswerKeepsOrder(t *testing.T) {
	c := NewContact("5511999998888@s.whatsapp.net")
	c.SetAnswer("q1", "A")
	c.SetAnswer("q2", "B")
	c.SetAnswer("q1", "C")

	assert.Equal(t, []Answer{{Key: "q1", Value: "C"}, {Key: "q2", Value: "B"}}, c.Answers)

	value, ok := c.AnswerFor("q2")
	assert.True(t, ok)
	assert.Equal(t, "B", value)

	_, ok = c.AnswerFor("q3")
	assert.False(t, ok)
}

func TestContact_CloneIsDeep(t *testing.T) {
	c := NewContact("c1")
	c.SetStep(2)
	c.SetAnswer("q1", "A")

	clone := c.Clone()
	clone.SetAnswer("q1", "B")
	*clone.Step = 5

	value, _ := c.AnswerFor("q1")
	assert.Equal(t, "A", value)
	assert.Equal(t, 2, *c.Step)
}

func TestContact_Reset(t *testing.T) {
	c := NewContact("c1")
	c.State = StateActive
	c.SetStep(4)
	c.SetAnswer("q1", "A")

	c.Reset()

	assert.Equal(t, StateInactive, c.State)
	assert.Nil(t, c.Step)
	assert.Empty(t, c.Answers)
}
