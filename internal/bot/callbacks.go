package bot

import (
	"fmt"
	"strconv"
	"strings"

	"dobroBack/internal/models"
)

// action distinguishes the volunteer branch from the requester branch of the menus.
type action string

const (
	actionHelp action = "help"
	actionNeed action = "need"
)

func (a action) valid() bool { return a == actionHelp || a == actionNeed }

type callbackKind int

const (
	cbUnknown callbackKind = iota
	cbAcceptAgreement
	cbDeclineAgreement
	cbWantToHelp
	cbNeedHelp
	cbProfile
	cbMyRequests
	cbMyResponses
	cbCity
	cbDistrict
	cbCategory
	cbFeedPage
	cbMyRequestsPage
	cbMyResponsesPage
	cbDelete
	cbRespond
	cbCancelResponse
	cbMainMenu
	cbBackToCategories
	cbBackToLocation
	cbBackToDistricts
)

// callback is a parsed button payload.
type callback struct {
	kind     callbackKind
	action   action
	category string
	region   string
	index    int
	id       int64
}

const (
	payloadAcceptAgreement  = "accept_agreement"
	payloadDeclineAgreement = "decline_agreement"
	payloadWantToHelp       = "want_to_help"
	payloadNeedHelp         = "need_help"
	payloadProfile          = "profile"
	payloadMyRequests       = "my_requests"
	payloadMyResponses      = "my_responses"
	payloadBackToStart      = "back_to_start"
	payloadReturnAfter      = "return_after_request"
	payloadBackToProfile    = "back_to_profile"
)

func cityPayload(a action) string { return "moscow_" + string(a) }
func districtPayload(a action, r models.Region) string {
	return fmt.Sprintf("district_%s_%s", a, r)
}
func categoryPayload(a action, c models.Category, r models.Region) string {
	return fmt.Sprintf("category_%s_%s_%s", a, c, r)
}
func feedPayload(forward bool, index int, f models.RequestFilter) string {
	dir := "prev"
	if forward {
		dir = "next"
	}
	return fmt.Sprintf("%s_%d_%s_%s", dir, index, f.Category, f.Region)
}
func myRequestsPayload(forward bool, index int) string {
	if forward {
		return fmt.Sprintf("my_next_%d", index)
	}
	return fmt.Sprintf("my_prev_%d", index)
}
func myResponsesPayload(forward bool, index int) string {
	if forward {
		return fmt.Sprintf("resp_next_%d", index)
	}
	return fmt.Sprintf("resp_prev_%d", index)
}
func deletePayload(id int64) string         { return fmt.Sprintf("delete_%d", id) }
func respondPayload(id int64) string        { return fmt.Sprintf("respond_%d", id) }
func cancelResponsePayload(id int64) string { return fmt.Sprintf("cancel_response_%d", id) }
func backToCategoriesPayload(a action, r models.Region) string {
	return fmt.Sprintf("back_to_categories_%s_%s", a, r)
}
func backToLocationPayload(a action) string  { return "back_to_location_" + string(a) }
func backToDistrictsPayload(a action) string { return "back_to_districts_" + string(a) }

func parseCallback(payload string) callback {
	switch payload {
	case payloadAcceptAgreement:
		return callback{kind: cbAcceptAgreement}
	case payloadDeclineAgreement:
		return callback{kind: cbDeclineAgreement}
	case payloadWantToHelp:
		return callback{kind: cbWantToHelp}
	case payloadNeedHelp:
		return callback{kind: cbNeedHelp}
	case payloadProfile, payloadBackToProfile:
		return callback{kind: cbProfile}
	case payloadMyRequests:
		return callback{kind: cbMyRequests}
	case payloadMyResponses:
		return callback{kind: cbMyResponses}
	case payloadBackToStart, payloadReturnAfter:
		return callback{kind: cbMainMenu}
	}

	parts := strings.Split(payload, "_")
	switch {
	case strings.HasPrefix(payload, "my_next_"), strings.HasPrefix(payload, "my_prev_"):
		return indexCallback(cbMyRequestsPage, parts, 2)
	case strings.HasPrefix(payload, "resp_next_"), strings.HasPrefix(payload, "resp_prev_"):
		return indexCallback(cbMyResponsesPage, parts, 2)
	case strings.HasPrefix(payload, "cancel_response_"):
		return idCallback(cbCancelResponse, parts, 2)
	case strings.HasPrefix(payload, "back_to_categories_"):
		if len(parts) != 5 {
			return callback{}
		}
		return actionCallback(callback{kind: cbBackToCategories, region: parts[4]}, parts[3])
	case strings.HasPrefix(payload, "back_to_location_"):
		if len(parts) != 4 {
			return callback{}
		}
		return actionCallback(callback{kind: cbBackToLocation}, parts[3])
	case strings.HasPrefix(payload, "back_to_districts_"):
		if len(parts) != 4 {
			return callback{}
		}
		return actionCallback(callback{kind: cbBackToDistricts}, parts[3])
	case strings.HasPrefix(payload, "next_"), strings.HasPrefix(payload, "prev_"):
		if len(parts) != 4 {
			return callback{}
		}
		cb := indexCallback(cbFeedPage, parts, 1)
		cb.category, cb.region = parts[2], parts[3]
		return cb
	case strings.HasPrefix(payload, "delete_"):
		return idCallback(cbDelete, parts, 1)
	case strings.HasPrefix(payload, "respond_"):
		return idCallback(cbRespond, parts, 1)
	case strings.HasPrefix(payload, "moscow_"):
		if len(parts) != 2 {
			return callback{}
		}
		return actionCallback(callback{kind: cbCity}, parts[1])
	case strings.HasPrefix(payload, "district_"):
		if len(parts) != 3 {
			return callback{}
		}
		return actionCallback(callback{kind: cbDistrict, region: parts[2]}, parts[1])
	case strings.HasPrefix(payload, "category_"):
		if len(parts) != 4 {
			return callback{}
		}
		return actionCallback(callback{kind: cbCategory, category: parts[2], region: parts[3]}, parts[1])
	}
	return callback{}
}

func indexCallback(kind callbackKind, parts []string, pos int) callback {
	if len(parts) <= pos {
		return callback{}
	}
	index, err := strconv.Atoi(parts[pos])
	if err != nil {
		return callback{}
	}
	return callback{kind: kind, index: index}
}

func idCallback(kind callbackKind, parts []string, pos int) callback {
	if len(parts) != pos+1 {
		return callback{}
	}
	id, err := strconv.ParseInt(parts[pos], 10, 64)
	if err != nil {
		return callback{}
	}
	return callback{kind: kind, id: id}
}

func actionCallback(cb callback, raw string) callback {
	a := action(raw)
	if !a.valid() {
		return callback{}
	}
	cb.action = a
	return cb
}
