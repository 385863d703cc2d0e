package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedback-insights/internal/feedback"
)

func slice(texts ...string) feedback.Slice {
	s := make(feedback.Slice, len(texts))
	for i, t := range texts {
		s[i] = feedback.Record{Region: "CA", Text: t}
	}
	return s
}

func TestJoinFeedback(t *testing.T) {
	assert.Equal(t, "a__end__b", JoinFeedback(slice("a", "b")))
	assert.Equal(t, "only", JoinFeedback(slice("only")))
	assert.Equal(t, "", JoinFeedback(slice()))
}

func TestJoinFeedback_DelimiterIsNotEscaped(t *testing.T) {
	joined := JoinFeedback(slice("x__end__y", "z"))
	assert.Equal(t, "x__end__y__end__z", joined)
	assert.Len(t, strings.Split(joined, Delimiter), 3)
}

func TestSummaryPrompt(t *testing.T) {
	p := NewAssembler("").Summary(slice("cold fries", "rude cashier"))

	assert.Contains(t, p.System, "Jack in the Box")
	assert.Contains(t, p.System, "'__end__'")
	assert.Contains(t, p.System, "Taste, Service, Accuracy of order, Adherence to restaurant timings.")
	assert.Contains(t, p.System, "Employee Errors, Technology Issues, Product Quality")
	assert.Contains(t, p.System, "three thought-provoking follow-up questions")
	assert.Contains(t, p.System, "15% comments praised")
	assert.NotContains(t, p.System, "%!")

	assert.True(t, strings.HasPrefix(p.User, "Customer feedback:\ncold fries__end__rude cashier\n"))
	for _, r := range Rubrics {
		assert.Contains(t, p.User, r+":\nFeedback Summary:\nPercent Comments:\nActionable Insights:\n")
	}
	assert.True(t, strings.HasSuffix(p.User, "Specific Food Items:\nFollow-Up Questions:\n"))
}

func TestFollowupPrompt(t *testing.T) {
	p := NewAssembler("Taco Hut").Followup(slice("a", "b"), "Which items were cold?")

	assert.Contains(t, p.System, "Taco Hut")
	assert.Contains(t, p.System, "Here is that data: a__end__b")
	assert.Equal(t, "Customer feedback question: Which items were cold?", p.User)
}

func TestAssemble(t *testing.T) {
	a := NewAssembler("")
	s := slice("a")

	for _, m := range []Mode{ModeOverall, ModeSlice} {
		p, err := a.Assemble(s, m, "")
		require.NoError(t, err)
		assert.Equal(t, a.Summary(s), p)
	}

	p, err := a.Assemble(s, ModeFollowup, "why?")
	require.NoError(t, err)
	assert.Equal(t, a.Followup(s, "why?"), p)

	_, err = a.Assemble(s, Mode("bogus"), "")
	assert.Error(t, err)
}
