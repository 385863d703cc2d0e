package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"feedback-insights/internal/analytics"
	"feedback-insights/internal/auth"
	"feedback-insights/internal/feedback"
	"feedback-insights/internal/insights"
	"feedback-insights/internal/llm"
	"feedback-insights/internal/session"
)

const (
	allowPrefix = "allow:"
	denyPrefix  = "deny:"
)

const helpText = `Customer feedback insights.

/overall - summary of the first 2000 reviews
/slice <YYYY-MM|All> <region> - summary of one month and region
/ask <question> - follow-up question on the last selection
/months - months with feedback
/regions [YYYY-MM|All] - regions for a month

After a summary, any plain message is treated as a follow-up question.`

const adminHelpText = `

Admin:
/allow <user_id> - grant access
/revoke <user_id> - remove access
/operators - list allowed users
/stats [YYYY-MM-DD] - usage for a day`

func (b *Bot) handleIncomingMessage(ctx context.Context, msg *tgbotapi.Message) {
	if !b.authSvc.IsAllowed(msg.From.ID) {
		b.logger.Info("unauthorized access attempt",
			zap.Int64("user_id", msg.From.ID),
			zap.String("username", msg.From.UserName),
		)
		b.sendMessage(msg.Chat.ID, "Access request sent to the administrator. You will be notified once it is approved.")
		b.notifyAdminRequest(msg.From)
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}
	st, err := session.Load(ctx, b.sessions, sessionID(msg.Chat.ID))
	if err != nil {
		b.logger.Error("failed to load chat session", zap.Int64("chat_id", msg.Chat.ID), zap.Error(err))
		b.sendMessage(msg.Chat.ID, "Session storage is unavailable, try again later.")
		return
	}
	if !st.HasSummary() {
		b.sendMessage(msg.Chat.ID, "Generate a summary first with /overall or /slice, then ask follow-up questions.")
		return
	}
	b.followup(ctx, msg.Chat.ID, text)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	args := strings.TrimSpace(msg.CommandArguments())
	switch msg.Command() {
	case "start", "help":
		text := helpText
		if b.authSvc.IsAdmin(msg.From.ID) {
			text += adminHelpText
		}
		b.sendMessage(msg.Chat.ID, text)
	case "months":
		b.sendMessage(msg.Chat.ID, "Months:\n"+strings.Join(feedback.MonthChoices(b.service.Table()), "\n"))
	case "regions":
		b.handleRegions(msg.Chat.ID, args)
	case "overall":
		b.generate(ctx, msg.Chat.ID, insights.OverallRequest())
	case "slice":
		b.handleSlice(ctx, msg.Chat.ID, args)
	case "ask":
		if args == "" {
			b.sendMessage(msg.Chat.ID, "Usage: /ask <question>")
			return
		}
		b.followup(ctx, msg.Chat.ID, args)
	case "allow", "revoke", "operators", "stats":
		if !b.authSvc.IsAdmin(msg.From.ID) {
			b.sendMessage(msg.Chat.ID, "This command is available to the administrator only.")
			return
		}
		b.handleAdminCommand(msg.Chat.ID, msg.Command(), args)
	default:
		b.sendMessage(msg.Chat.ID, "Unknown command. Send /help for the list of commands.")
	}
}

func (b *Bot) handleRegions(chatID int64, args string) {
	month, err := feedback.ParseMonth(args)
	if err != nil {
		b.sendMessage(chatID, "Usage: /regions [YYYY-MM|All]")
		return
	}
	regions := b.service.Regions(month)
	if len(regions) == 0 {
		b.sendMessage(chatID, fmt.Sprintf("No regions for %s.", month))
		return
	}
	b.sendMessage(chatID, fmt.Sprintf("Regions for %s:\n%s", month, strings.Join(regions, "\n")))
}

func (b *Bot) handleSlice(ctx context.Context, chatID int64, args string) {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		b.sendMessage(chatID, "Usage: /slice <YYYY-MM|All> <region>")
		return
	}
	month, err := feedback.ParseMonth(fields[0])
	if err != nil {
		b.sendMessage(chatID, "Month must be YYYY-MM or All.")
		return
	}
	b.generate(ctx, chatID, insights.SliceRequest(month, strings.Join(fields[1:], " ")))
}

func (b *Bot) generate(ctx context.Context, chatID int64, req insights.Request) {
	id := sessionID(chatID)
	req.Origin = insights.Origin{Surface: surface, SessionID: id}
	st, err := session.Load(ctx, b.sessions, id)
	if err != nil {
		b.logger.Error("failed to load chat session", zap.String("session", id), zap.Error(err))
		b.sendMessage(chatID, "Session storage is unavailable, try again later.")
		return
	}

	b.sendMessage(chatID, fmt.Sprintf("Generating %s...", req))
	st, res, err := b.service.HandleGenerate(ctx, st, req)
	if err != nil {
		b.sendMessage(chatID, describeError(err))
		return
	}
	b.rememberRequest(chatID, req)
	b.store(ctx, id, st)
	b.sendMessage(chatID, fmt.Sprintf("%s (%d reviews)\n\n%s", req, res.Records, res.Text))
}

func (b *Bot) followup(ctx context.Context, chatID int64, question string) {
	id := sessionID(chatID)
	req := b.lastRequest(chatID)
	req.Origin = insights.Origin{Surface: surface, SessionID: id}
	st, err := session.Load(ctx, b.sessions, id)
	if err != nil {
		b.logger.Error("failed to load chat session", zap.String("session", id), zap.Error(err))
		b.sendMessage(chatID, "Session storage is unavailable, try again later.")
		return
	}

	st, res, err := b.service.HandleFollowup(ctx, st, req, question)
	if err != nil {
		b.sendMessage(chatID, describeError(err))
		return
	}
	b.store(ctx, id, st)
	b.sendMessage(chatID, res.Text)
}

func (b *Bot) store(ctx context.Context, id string, st session.State) {
	if err := b.sessions.Save(ctx, id, st); err != nil {
		b.logger.Error("failed to save chat session", zap.String("session", id), zap.Error(err))
	}
}

func (b *Bot) handleAdminCommand(chatID int64, cmd, args string) {
	switch cmd {
	case "allow", "revoke":
		uid, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
		if err != nil {
			b.sendMessage(chatID, fmt.Sprintf("Usage: /%s <user_id>", cmd))
			return
		}
		if cmd == "allow" {
			b.approveUser(uid)
		} else {
			b.revokeUser(chatID, uid)
		}
	case "operators":
		var bld strings.Builder
		bld.WriteString("Allowed users:\n")
		for _, op := range b.authSvc.List() {
			fmt.Fprintf(&bld, "- id=%d @%s %s\n", op.ID, op.Username, op.Name)
		}
		b.sendMessage(chatID, bld.String())
	case "stats":
		day := b.now().UTC()
		if args != "" {
			d, err := time.Parse("2006-01-02", args)
			if err != nil {
				b.sendMessage(chatID, "Usage: /stats [YYYY-MM-DD]")
				return
			}
			day = d
		}
		events, err := b.recorder.Load()
		if err != nil {
			b.logger.Error("failed to load audit log", zap.Error(err))
			b.sendMessage(chatID, "Generation log is unavailable.")
			return
		}
		b.sendMessage(chatID, analytics.AnalyzeDay(events, day).Report())
	}
}

func (b *Bot) notifyAdminRequest(from *tgbotapi.User) {
	adminID := b.authSvc.AdminID()
	if adminID == 0 {
		return
	}
	text := fmt.Sprintf("User @%s (id %d) requests access to feedback insights", from.UserName, from.ID)
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("allow", allowPrefix+strconv.FormatInt(from.ID, 10)),
			tgbotapi.NewInlineKeyboardButtonData("deny", denyPrefix+strconv.FormatInt(from.ID, 10)),
		),
	)
	msg := tgbotapi.NewMessage(adminID, text)
	msg.ReplyMarkup = kb
	if _, err := b.s.Send(msg); err != nil {
		b.logger.Warn("failed to notify admin", zap.Error(err))
	}
}

func (b *Bot) handleCallback(cb *tgbotapi.CallbackQuery) {
	if cb.From == nil || !b.authSvc.IsAdmin(cb.From.ID) {
		return
	}
	if _, err := b.s.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.logger.Debug("failed to answer callback", zap.Error(err))
	}
	switch {
	case strings.HasPrefix(cb.Data, allowPrefix):
		id, err := strconv.ParseInt(strings.TrimPrefix(cb.Data, allowPrefix), 10, 64)
		if err == nil {
			b.approveUser(id)
		}
	case strings.HasPrefix(cb.Data, denyPrefix):
		id, err := strconv.ParseInt(strings.TrimPrefix(cb.Data, denyPrefix), 10, 64)
		if err == nil {
			b.sendMessage(id, "Your access request was declined.")
			b.sendMessage(b.authSvc.AdminID(), fmt.Sprintf("Request from %d declined", id))
		}
	}
}

func (b *Bot) approveUser(id int64) {
	if err := b.authSvc.Allow(auth.Operator{ID: id}); err != nil {
		b.logger.Error("failed to persist allowlist", zap.Int64("user_id", id), zap.Error(err))
		b.sendMessage(b.authSvc.AdminID(), fmt.Sprintf("Failed to allow %d: %v", id, err))
		return
	}
	b.logger.Info("user allowed", zap.Int64("user_id", id))
	b.sendMessage(b.authSvc.AdminID(), fmt.Sprintf("User %d allowed", id))
	b.sendMessage(id, "Access granted. Send /help to get started.")
}

func (b *Bot) revokeUser(chatID, id int64) {
	if b.authSvc.IsAdmin(id) {
		b.sendMessage(chatID, "The administrator cannot be revoked.")
		return
	}
	if err := b.authSvc.Revoke(id); err != nil {
		b.logger.Error("failed to persist allowlist", zap.Int64("user_id", id), zap.Error(err))
		b.sendMessage(chatID, fmt.Sprintf("Failed to revoke %d: %v", id, err))
		return
	}
	b.logger.Info("user revoked", zap.Int64("user_id", id))
	b.sendMessage(chatID, fmt.Sprintf("User %d revoked", id))
}

// describeError turns a pipeline error into a chat reply.
func describeError(err error) string {
	var ue *llm.UpstreamError
	switch {
	case errors.Is(err, insights.ErrEmptyQuestion):
		return "The question is empty."
	case errors.Is(err, insights.ErrUnknownMonth):
		return "No feedback for that month. See /months."
	case errors.Is(err, insights.ErrUnknownRegion):
		return "That region has no feedback in the selected month. See /regions <month>."
	case errors.Is(err, insights.ErrNoFeedback):
		return "The selection contains no feedback."
	case errors.As(err, &ue):
		return "The language model request failed, try again later."
	default:
		return "Something went wrong."
	}
}

// splitMessage cuts text into parts of at most limit runes, preferring line
// breaks.
func splitMessage(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}
	var parts []string
	for len(runes) > limit {
		cut := limit
		for i := limit; i > limit/2; i-- {
			if runes[i-1] == '\n' {
				cut = i
				break
			}
		}
		parts = append(parts, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}
	return parts
}
