// Package bot turns inbound messenger events into replies. It owns the menu
// navigation and delegates all state changes to the services.
package bot

import (
	"context"
	"errors"
	"strings"

	"dobroBack/internal/models"
	"dobroBack/internal/services"
	"dobroBack/internal/session"
)

// Update is one inbound user event. Exactly one of Command, Callback or Text
// is expected to be set.
type Update struct {
	UserID      int64  `json:"user_id"`
	DisplayName string `json:"display_name"`
	Command     string `json:"command,omitempty"`
	Callback    string `json:"callback,omitempty"`
	Text        string `json:"text,omitempty"`
}

func (u Update) identity() models.Identity {
	return models.Identity{UserID: u.UserID, DisplayName: u.DisplayName}
}

// Button is an inline keyboard button carrying a callback payload.
type Button struct {
	Text    string `json:"text"`
	Payload string `json:"payload"`
}

// Reply is one outbound message with an optional inline keyboard.
type Reply struct {
	Text     string     `json:"text"`
	Keyboard [][]Button `json:"keyboard,omitempty"`
}

// Logger provides minimal logging for the bot.
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type Bot struct {
	Matching     *services.MatchingService
	Conversation *services.ConversationService
	Sessions     session.Registry
	Texts        *Texts
	Logger       Logger
	// TimeLayout formats timestamps on cards.
	TimeLayout string
}

func New(matching *services.MatchingService, conversation *services.ConversationService, sessions session.Registry, texts *Texts, logger Logger) *Bot {
	return &Bot{
		Matching:     matching,
		Conversation: conversation,
		Sessions:     sessions,
		Texts:        texts,
		Logger:       logger,
		TimeLayout:   "02.01.2006 15:04:05",
	}
}

// turn collects the replies produced while handling one update.
type turn struct {
	user    models.Identity
	replies []Reply
}

func (t *turn) say(text string, rows ...[]Button) {
	t.replies = append(t.replies, Reply{Text: text, Keyboard: rows})
}

func row(buttons ...Button) []Button { return buttons }

func (b *Bot) button(id, payload string) Button {
	return Button{Text: b.Texts.T(id, nil), Payload: payload}
}

// Handle processes one update. Errors never escape: they are logged, the
// user's session is reset and a generic message with a way back is rendered.
func (b *Bot) Handle(ctx context.Context, u Update) []Reply {
	t := &turn{user: u.identity()}

	var err error
	switch {
	case u.Command != "":
		err = b.handleCommand(ctx, t, strings.TrimPrefix(u.Command, "/"))
	case u.Callback != "":
		err = b.handleCallback(ctx, t, u.Callback)
	case strings.HasPrefix(strings.TrimSpace(u.Text), "/"):
		fields := strings.Fields(u.Text)
		err = b.handleCommand(ctx, t, strings.TrimPrefix(fields[0], "/"))
	default:
		err = b.handleText(ctx, t, u.Text)
	}

	if err != nil {
		b.Logger.Errorf("bot: user %d: %v", u.UserID, err)
		if resetErr := b.Sessions.ClearAll(ctx, u.UserID); resetErr != nil {
			b.Logger.Errorf("bot: reset session of user %d: %v", u.UserID, resetErr)
		}
		t.say(b.Texts.T("GenericError", nil), row(b.button("Button_MainMenu", payloadBackToStart)))
	}
	return t.replies
}

// gate renders the agreement screen and reports false when the user has not
// accepted it yet.
func (b *Bot) gate(ctx context.Context, t *turn) (bool, error) {
	accepted, err := b.Matching.HasAccepted(ctx, t.user.UserID)
	if err != nil {
		return false, err
	}
	if !accepted {
		b.showAgreement(t)
	}
	return accepted, nil
}

func (b *Bot) handleCommand(ctx context.Context, t *turn, cmd string) error {
	switch cmd {
	case "about":
		t.say(b.Texts.T("AboutText", nil))
		return nil
	case "start", "profile":
	default:
		return nil
	}

	ok, err := b.gate(ctx, t)
	if err != nil || !ok {
		return err
	}
	if cmd == "start" {
		return b.showMainMenu(ctx, t)
	}
	return b.showProfile(ctx, t)
}

func (b *Bot) handleText(ctx context.Context, t *turn, text string) error {
	ok, err := b.gate(ctx, t)
	if err != nil || !ok {
		return err
	}

	out, err := b.Conversation.SubmitText(ctx, t.user, text)
	if err != nil {
		return err
	}
	switch out.Kind {
	case services.OutcomeAdvanced:
		if out.Step == session.StepAwaitingAddress {
			t.say(b.Texts.T("AskAddress", nil))
		} else {
			t.say(b.Texts.T("AskPhone", nil))
		}
	case services.OutcomeRePrompt:
		if errors.Is(out.Reason, models.ErrInvalidPhone) {
			t.say(b.Texts.T("InvalidPhone", nil))
		} else {
			t.say(b.Texts.T("AskProblemAgain", nil))
		}
	case services.OutcomeCreated:
		req := out.Request
		t.say(b.Texts.T("RequestCreated", map[string]interface{}{
			"Name":     t.user.DisplayName,
			"Category": b.Texts.Category(req.Category),
			"Region":   b.Texts.Region(req.Region),
			"Address":  b.Texts.address(req.Address),
			"Phone":    req.Phone,
			"Problem":  req.Problem,
		}), row(b.button("Button_ReturnToMenu", payloadReturnAfter)))
	}
	return nil
}

func (b *Bot) handleCallback(ctx context.Context, t *turn, payload string) error {
	cb := parseCallback(payload)

	switch cb.kind {
	case cbAcceptAgreement:
		if err := b.Matching.AcceptAgreement(ctx, t.user.UserID); err != nil {
			return err
		}
		t.say(b.Texts.T("AgreementAccepted", nil))
		return b.showMainMenu(ctx, t)
	case cbDeclineAgreement:
		t.say(b.Texts.T("AgreementDeclined", nil))
		return nil
	}

	ok, err := b.gate(ctx, t)
	if err != nil || !ok {
		return err
	}

	switch cb.kind {
	case cbWantToHelp:
		b.showLocation(t, actionHelp)
	case cbNeedHelp:
		b.showLocation(t, actionNeed)
	case cbBackToLocation:
		b.showLocation(t, cb.action)
	case cbCity, cbBackToDistricts:
		b.showDistricts(t, cb.action)
	case cbDistrict, cbBackToCategories:
		region := models.Region(cb.region)
		if !region.Valid() {
			b.showDistricts(t, cb.action)
			return nil
		}
		b.showCategories(t, cb.action, region)
	case cbCategory:
		if cb.action == actionHelp {
			return b.showFeed(ctx, t, 0, services.FilterFrom(cb.category, cb.region))
		}
		return b.beginRequest(ctx, t, models.Category(cb.category), models.Region(cb.region))
	case cbFeedPage:
		return b.showFeed(ctx, t, cb.index, services.FilterFrom(cb.category, cb.region))
	case cbProfile:
		return b.showProfile(ctx, t)
	case cbMyRequests:
		return b.showMyRequests(ctx, t, 0)
	case cbMyRequestsPage:
		return b.showMyRequests(ctx, t, cb.index)
	case cbMyResponses:
		return b.showMyResponses(ctx, t, 0)
	case cbMyResponsesPage:
		return b.showMyResponses(ctx, t, cb.index)
	case cbDelete:
		return b.deleteRequest(ctx, t, cb.id)
	case cbRespond:
		return b.respond(ctx, t, cb.id)
	case cbCancelResponse:
		return b.cancelResponse(ctx, t, cb.id)
	case cbMainMenu:
		return b.showMainMenu(ctx, t)
	default:
		t.say(b.Texts.T("UnknownAction", nil))
		return b.showMainMenu(ctx, t)
	}
	return nil
}

func (b *Bot) beginRequest(ctx context.Context, t *turn, category models.Category, region models.Region) error {
	err := b.Conversation.Begin(ctx, t.user.UserID, category, region)
	if errors.Is(err, models.ErrInvalidCategory) || errors.Is(err, models.ErrInvalidRegion) {
		t.say(b.Texts.T("UnknownAction", nil))
		return b.showMainMenu(ctx, t)
	}
	if err != nil {
		return err
	}
	t.say(b.Texts.T("ConversationStarted", map[string]interface{}{
		"Category": b.Texts.Category(category),
		"Region":   b.Texts.Region(region),
	}))
	return nil
}

func (b *Bot) deleteRequest(ctx context.Context, t *turn, id int64) error {
	ok, err := b.Matching.Delete(ctx, id, t.user.UserID)
	if err != nil {
		return err
	}
	if !ok {
		t.say(b.Texts.T("DeleteFailed", nil))
		return b.showProfile(ctx, t)
	}
	t.say(b.Texts.T("RequestDeleted", nil))

	mine, err := b.Matching.MyRequests(ctx, t.user.UserID)
	if err != nil {
		return err
	}
	if len(mine) == 0 {
		return b.showProfile(ctx, t)
	}
	index, _, err := b.Sessions.GetMyCursor(ctx, t.user.UserID)
	if err != nil {
		return err
	}
	return b.renderMyRequests(ctx, t, mine, index)
}

func (b *Bot) respond(ctx context.Context, t *turn, id int64) error {
	menu := row(b.button("Button_MainMenu", payloadBackToStart))

	responded, err := b.Matching.HasResponded(ctx, t.user.UserID, id)
	if err != nil {
		return err
	}
	if responded {
		t.say(b.Texts.T("AlreadyResponded", nil), menu)
		return nil
	}
	req, err := b.Matching.Request(ctx, id)
	if err != nil {
		return err
	}
	if req == nil {
		t.say(b.Texts.T("RequestNotFound", nil), menu)
		return nil
	}

	ok, err := b.Matching.Reserve(ctx, id, t.user)
	if err != nil {
		return err
	}
	if !ok {
		t.say(b.Texts.T("ReserveFailed", nil))
		cur, found, err := b.Sessions.GetBrowseCursor(ctx, t.user.UserID)
		if err != nil {
			return err
		}
		if !found {
			return b.showMainMenu(ctx, t)
		}
		return b.showFeed(ctx, t, cur.Index, models.RequestFilter{Category: cur.Category, Region: cur.Region})
	}

	t.say(b.Texts.T("ReserveSucceeded", map[string]interface{}{
		"Name":    req.AuthorName,
		"Region":  b.Texts.Region(req.Region),
		"Address": b.Texts.address(req.Address),
		"Phone":   req.Phone,
		"Problem": req.Problem,
	}), row(b.button("Button_ShowMyResponses", payloadMyResponses), b.button("Button_MainMenu", payloadBackToStart)))
	return nil
}

func (b *Bot) cancelResponse(ctx context.Context, t *turn, id int64) error {
	ok, err := b.Matching.Cancel(ctx, id, t.user.UserID)
	if err != nil {
		return err
	}
	if !ok {
		t.say(b.Texts.T("CancelFailed", nil))
		return b.showProfile(ctx, t)
	}
	t.say(b.Texts.T("ResponseCancelled", nil))

	views, err := b.Matching.MyResponses(ctx, t.user.UserID)
	if err != nil {
		return err
	}
	if len(views) == 0 {
		return b.showProfile(ctx, t)
	}
	index, _, err := b.Sessions.GetMyCursor(ctx, t.user.UserID)
	if err != nil {
		return err
	}
	return b.renderMyResponses(ctx, t, views, index)
}
