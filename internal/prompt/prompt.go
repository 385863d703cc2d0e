package prompt

import (
	"fmt"
	"strings"

	"feedback-insights/internal/feedback"
)

// Delimiter separates reviews in the joined feedback text. It is not escaped:
// a review that contains it will be split in two by the model.
const Delimiter = "__end__"

const DefaultBrand = "Jack in the Box"

// Rubrics are the fixed evaluation dimensions, in report order.
var Rubrics = []string{"Taste", "Service", "Accuracy of order", "Adherence to restaurant timings"}

// Mode selects which template pair is built.
type Mode string

const (
	ModeOverall  Mode = "overall"
	ModeSlice    Mode = "slice"
	ModeFollowup Mode = "followup"
)

// Prompt is a system/user message pair for a single completion request.
type Prompt struct {
	System string
	User   string
}

// Assembler builds prompts for a brand.
type Assembler struct {
	brand string
}

func NewAssembler(brand string) *Assembler {
	if strings.TrimSpace(brand) == "" {
		brand = DefaultBrand
	}
	return &Assembler{brand: brand}
}

// JoinFeedback concatenates review texts with Delimiter.
func JoinFeedback(s feedback.Slice) string {
	return strings.Join(s.Texts(), Delimiter)
}

// Summary builds the rubric analysis prompt used by both the overall and the
// data slice views.
func (a *Assembler) Summary(s feedback.Slice) Prompt {
	return Prompt{
		System: fmt.Sprintf(summarySystemTemplate, a.brand, Delimiter, strings.Join(Rubrics, ", ")),
		User:   summaryUserPrompt(JoinFeedback(s)),
	}
}

// Followup builds a prompt that answers question from the slice only.
func (a *Assembler) Followup(s feedback.Slice, question string) Prompt {
	return Prompt{
		System: fmt.Sprintf(followupSystemTemplate, a.brand, Delimiter, JoinFeedback(s)),
		User:   "Customer feedback question: " + question,
	}
}

// Assemble dispatches on mode. question is only used by ModeFollowup.
func (a *Assembler) Assemble(s feedback.Slice, mode Mode, question string) (Prompt, error) {
	switch mode {
	case ModeOverall, ModeSlice:
		return a.Summary(s), nil
	case ModeFollowup:
		return a.Followup(s, question), nil
	default:
		return Prompt{}, fmt.Errorf("unknown prompt mode %q", mode)
	}
}

func summaryUserPrompt(combined string) string {
	var b strings.Builder
	b.WriteString("Customer feedback:\n")
	b.WriteString(combined)
	b.WriteString("\n\nProvide the summary in the following format:\n\n")
	for _, r := range Rubrics {
		b.WriteString(r + ":\n")
		b.WriteString("Feedback Summary:\n")
		b.WriteString("Percent Comments:\n")
		b.WriteString("Actionable Insights:\n\n")
	}
	b.WriteString("Specific Food Items:\n")
	b.WriteString("Follow-Up Questions:\n")
	return b.String()
}

const summarySystemTemplate = `You are a customer experience and operations analyst specializing in quick service restaurants. You are tasked with analyzing customer feedback for %[1]s, identifying key pain points, and quantifying the extent to which larger themes are present. You will provide actionable insights that a restaurant manager can implement to improve the customer experience.

You will receive multiple customer comments, each separated by the character: '%[2]s'.

Based on the comments:
Identify Key Themes: Break down the comments into different rubrics.
Quantify: Provide an approximate percentage for how many comments are attributable to each theme.
Root Cause Classification: Employee Errors, Technology Issues, Product Quality. Classify feedback based on the root cause of the problem. For example, categorize issues as stemming from human error (e.g., staff training), technical issues (e.g., online ordering problems), or product issues (e.g., food temperature).
Actionable Insights: Provide two categories of insights: Minimal Effort Feedback: Quick fixes that can be implemented immediately (e.g., double-checking for missing items, ensuring ingredients are consistent, informing customers about shortages).
Specific Food Items: Highlight any specific food items mentioned repeatedly in complaints or prone to errors (e.g., tacos, Ultimate Cheeseburger).
Follow-Up Questions: Supply three thought-provoking follow-up questions at the end of your response to clarify ambiguous aspects or explore additional areas.

All of the above points must be answered.
Be concise but precise, focusing on actionable insights for restaurant managers. Avoid disclaimers and do not disclose AI identity.

Avoid words like 'numerous', 'many', 'several'. Instead always quantify in terms of percentage. For example, 'x%% customers reported order inaccuracies'

For example, a bad response would be:
Customer service experiences varied widely; while some staff members were praised for friendliness and attentiveness, many reviews highlighted rude interactions, long waits for service, and poor communication skills.

The same example can be corrected by quantifying observations:
Customer service experiences varied widely; while 15%% comments praised staff members for friendliness and attentiveness, 45%% reviews highlighted rude interactions, long waits for service, and poor communication skills.

Avoid accusatory feedback like 'lack of training' or 'poor customer service skills'. Assume that a lot of resources are spent on training; instead point out exact areas of improvements in a non-confrontational way.

Analyze the following customer feedback and provide a summary across the 4 rubrics:
%[3]s.
`

const followupSystemTemplate = `You are a customer experience and operations analyst specializing in quick service restaurants. You are tasked with analyzing customer feedback for %[1]s, identifying key pain points, and quantifying the extent to which larger themes are present. You will provide actionable insights that a restaurant manager can implement to improve the customer experience.

You will receive multiple customer comments, each separated by the character: '%[2]s'. Here is that data: %[3]s

You will receive a question from the user. Use only the customer data to answer the question.
`
