package bot

import (
	"context"

	"dobroBack/internal/models"
	"dobroBack/internal/session"
)

const previewRunes = 50

func preview(s string) string {
	r := []rune(s)
	if len(r) <= previewRunes {
		return s
	}
	return string(r[:previewRunes])
}

func (b *Bot) showAgreement(t *turn) {
	t.say(b.Texts.T("Agreement", map[string]interface{}{"Name": t.user.DisplayName}),
		row(b.button("Button_Accept", payloadAcceptAgreement), b.button("Button_Back", payloadDeclineAgreement)))
}

// showMainMenu also drops every session entry of the user.
func (b *Bot) showMainMenu(ctx context.Context, t *turn) error {
	if err := b.Conversation.Reset(ctx, t.user.UserID); err != nil {
		return err
	}
	text := b.Texts.T("MainMenuAnonymous", nil)
	if t.user.DisplayName != "" {
		text = b.Texts.T("MainMenu", map[string]interface{}{"Name": t.user.DisplayName})
	}
	t.say(text,
		row(b.button("Button_WantToHelp", payloadWantToHelp), b.button("Button_NeedHelp", payloadNeedHelp)),
		row(b.button("Button_Profile", payloadProfile)))
	return nil
}

func (b *Bot) showLocation(t *turn, a action) {
	t.say(b.Texts.T("LocationSelection", map[string]interface{}{"Action": b.Texts.Action(a)}),
		row(b.button("Button_Moscow", cityPayload(a))),
		row(b.button("Button_MainMenu", payloadBackToStart)))
}

func (b *Bot) showDistricts(t *turn, a action) {
	var rows [][]Button
	for i := 0; i < len(models.Regions); i += 2 {
		r := row(Button{Text: b.Texts.Region(models.Regions[i]), Payload: districtPayload(a, models.Regions[i])})
		if i+1 < len(models.Regions) {
			next := models.Regions[i+1]
			r = append(r, Button{Text: b.Texts.Region(next), Payload: districtPayload(a, next)})
		}
		rows = append(rows, r)
	}
	rows = append(rows, row(b.button("Button_OtherCity", backToLocationPayload(a)), b.button("Button_MainMenu", payloadBackToStart)))
	t.say(b.Texts.T("DistrictSelection", map[string]interface{}{"Action": b.Texts.Action(a)}), rows...)
}

func (b *Bot) showCategories(t *turn, a action, region models.Region) {
	var rows [][]Button
	for i := 0; i < len(models.Categories); i += 2 {
		c := models.Categories[i]
		r := row(Button{Text: b.Texts.Category(c), Payload: categoryPayload(a, c, region)})
		if i+1 < len(models.Categories) {
			next := models.Categories[i+1]
			r = append(r, Button{Text: b.Texts.Category(next), Payload: categoryPayload(a, next, region)})
		}
		rows = append(rows, r)
	}
	rows = append(rows, row(b.button("Button_OtherDistrict", backToDistrictsPayload(a)), b.button("Button_MainMenu", payloadBackToStart)))
	t.say(b.Texts.T("CategorySelection", map[string]interface{}{
		"Action":   b.Texts.Action(a),
		"Region":   b.Texts.Region(region),
		"Children": b.Texts.Category(models.CategoryChildren),
		"Elderly":  b.Texts.Category(models.CategoryElderly),
		"Disabled": b.Texts.Category(models.CategoryDisabled),
		"Animals":  b.Texts.Category(models.CategoryAnimals),
		"Nature":   b.Texts.Category(models.CategoryNature),
	}), rows...)
}

func (b *Bot) showProfile(ctx context.Context, t *turn) error {
	profile, err := b.Matching.Profile(ctx, t.user.UserID)
	if err != nil {
		return err
	}
	t.say(b.Texts.T("Profile", map[string]interface{}{
		"Name":      t.user.DisplayName,
		"Requests":  profile.RequestsCount,
		"Responses": profile.ResponsesCount,
	}),
		row(
			Button{Text: b.Texts.T("Button_MyRequests", map[string]interface{}{"Count": profile.RequestsCount}), Payload: payloadMyRequests},
			Button{Text: b.Texts.T("Button_MyResponses", map[string]interface{}{"Count": profile.ResponsesCount}), Payload: payloadMyResponses},
		),
		row(b.button("Button_MainMenu", payloadBackToStart)))
	return nil
}

func navRow(index, total int, payload func(forward bool, index int) string, b *Bot) []Button {
	var nav []Button
	if index > 0 {
		nav = append(nav, b.button("Button_Back", payload(false, index-1)))
	}
	if index < total-1 {
		nav = append(nav, b.button("Button_Next", payload(true, index+1)))
	}
	return nav
}

// showFeed renders one card of the public feed. The list is recomputed on every
// call and index is clamped to it.
func (b *Bot) showFeed(ctx context.Context, t *turn, index int, filter models.RequestFilter) error {
	requests, err := b.Matching.Browse(ctx, filter)
	if err != nil {
		return err
	}

	if len(requests) == 0 {
		suffix := ""
		if filter.Category != "" {
			suffix += b.Texts.T("FeedEmptyCategory", map[string]interface{}{"Category": b.Texts.Category(filter.Category)})
		}
		if filter.Region != "" {
			suffix += b.Texts.T("FeedEmptyRegion", map[string]interface{}{"Region": b.Texts.Region(filter.Region)})
		}
		var rows [][]Button
		if filter.Region != "" {
			rows = append(rows, row(b.button("Button_OtherCategory", backToCategoriesPayload(actionHelp, filter.Region))))
		}
		rows = append(rows,
			row(b.button("Button_OtherDistrict", backToDistrictsPayload(actionHelp))),
			row(b.button("Button_MainMenu", payloadBackToStart)))
		t.say(b.Texts.T("FeedEmpty", map[string]interface{}{"Filter": suffix}), rows...)
		return nil
	}

	index = session.Clamp(index, len(requests))
	if err := b.Sessions.SetBrowseCursor(ctx, t.user.UserID, session.BrowseCursor{
		Index: index, Category: filter.Category, Region: filter.Region,
	}); err != nil {
		return err
	}

	req := requests[index]
	responded, err := b.Matching.HasResponded(ctx, t.user.UserID, req.ID)
	if err != nil {
		return err
	}

	text := b.Texts.T("FeedCard", map[string]interface{}{
		"Position": index + 1,
		"Total":    len(requests),
		"Category": b.Texts.Category(req.Category),
		"Region":   b.Texts.Region(req.Region),
		"Address":  b.Texts.address(req.Address),
		"Name":     req.AuthorName,
		"Problem":  req.Problem,
		"Time":     req.CreatedAt.Format(b.TimeLayout),
	}) + "\n\n"
	if responded {
		text += b.Texts.T("FeedCardContact", map[string]interface{}{"Phone": req.Phone})
	} else {
		text += b.Texts.T("FeedCardHint", nil)
	}

	var rows [][]Button
	pageOf := func(forward bool, i int) string { return feedPayload(forward, i, filter) }
	if nav := navRow(index, len(requests), pageOf, b); len(nav) > 0 {
		rows = append(rows, nav)
	}
	if !responded {
		rows = append(rows, row(b.button("Button_Respond", respondPayload(req.ID))))
	}
	if filter.Category != "" && filter.Region != "" {
		rows = append(rows, row(b.button("Button_OtherCategory", backToCategoriesPayload(actionHelp, filter.Region))))
	}
	if filter.Region != "" {
		rows = append(rows, row(b.button("Button_OtherDistrict", backToDistrictsPayload(actionHelp))))
	}
	rows = append(rows, row(b.button("Button_MainMenuShort", payloadBackToStart)))
	t.say(text, rows...)
	return nil
}

func (b *Bot) showMyRequests(ctx context.Context, t *turn, index int) error {
	mine, err := b.Matching.MyRequests(ctx, t.user.UserID)
	if err != nil {
		return err
	}
	if len(mine) == 0 {
		t.say(b.Texts.T("MyRequestsEmpty", nil),
			row(b.button("Button_CreateRequest", payloadNeedHelp)),
			row(b.button("Button_BackToProfile", payloadBackToProfile)))
		return nil
	}
	return b.renderMyRequests(ctx, t, mine, index)
}

func (b *Bot) renderMyRequests(ctx context.Context, t *turn, mine []models.AuthoredRequest, index int) error {
	index = session.Clamp(index, len(mine))
	if err := b.Sessions.SetMyCursor(ctx, t.user.UserID, index); err != nil {
		return err
	}

	item := mine[index]
	req := item.Request
	status := b.Texts.T("StatusOpen", nil)
	if req.ReservedBy != nil {
		status = b.Texts.T("StatusReserved", nil)
	}
	text := b.Texts.T("MyRequestCard", map[string]interface{}{
		"Position":  index + 1,
		"Total":     len(mine),
		"Category":  b.Texts.Category(req.Category),
		"Region":    b.Texts.Region(req.Region),
		"Address":   b.Texts.address(req.Address),
		"Phone":     req.Phone,
		"Problem":   req.Problem,
		"Responses": item.ResponseCount,
		"Time":      req.CreatedAt.Format(b.TimeLayout),
		"Status":    status,
	})

	var rows [][]Button
	if nav := navRow(index, len(mine), myRequestsPayload, b); len(nav) > 0 {
		rows = append(rows, nav)
	}
	rows = append(rows,
		row(b.button("Button_DeleteRequest", deletePayload(req.ID))),
		row(b.button("Button_BackToProfile", payloadBackToProfile), b.button("Button_MainMenu", payloadBackToStart)))
	t.say(text, rows...)
	return nil
}

func (b *Bot) showMyResponses(ctx context.Context, t *turn, index int) error {
	views, err := b.Matching.MyResponses(ctx, t.user.UserID)
	if err != nil {
		return err
	}
	if len(views) == 0 {
		t.say(b.Texts.T("MyResponsesEmpty", nil),
			row(b.button("Button_FindRequests", payloadWantToHelp)),
			row(b.button("Button_BackToProfile", payloadBackToProfile)))
		return nil
	}
	return b.renderMyResponses(ctx, t, views, index)
}

func (b *Bot) renderMyResponses(ctx context.Context, t *turn, views []models.ResponseView, index int) error {
	index = session.Clamp(index, len(views))
	if err := b.Sessions.SetMyCursor(ctx, t.user.UserID, index); err != nil {
		return err
	}

	view := views[index]
	var rows [][]Button
	if nav := navRow(index, len(views), myResponsesPayload, b); len(nav) > 0 {
		rows = append(rows, nav)
	}
	footer := row(b.button("Button_BackToProfile", payloadBackToProfile), b.button("Button_MainMenu", payloadBackToStart))

	req := view.Request
	if req == nil {
		rows = append(rows, footer)
		t.say(b.Texts.T("MyResponseGone", nil), rows...)
		return nil
	}

	text := b.Texts.T("MyResponseCard", map[string]interface{}{
		"Position": index + 1,
		"Total":    len(views),
		"Problem":  preview(req.Problem),
		"Category": b.Texts.Category(req.Category),
		"Region":   b.Texts.Region(req.Region),
		"Address":  b.Texts.address(req.Address),
		"Name":     req.AuthorName,
		"Phone":    req.Phone,
		"Time":     view.Response.CreatedAt.Format(b.TimeLayout),
	})
	rows = append(rows, row(b.button("Button_CancelResponse", cancelResponsePayload(req.ID))), footer)
	t.say(text, rows...)
	return nil
}
