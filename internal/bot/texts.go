package bot

import (
	"embed"
	"fmt"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v2"

	"dobroBack/internal/models"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// Texts renders user-facing strings from the embedded message catalog.
type Texts struct {
	localizer *i18n.Localizer
}

// LoadTexts parses every embedded catalog and returns texts for lang.
func LoadTexts(lang string) (*Texts, error) {
	bundle := i18n.NewBundle(language.Russian)
	bundle.RegisterUnmarshalFunc("yaml", yaml.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		data, err := localeFS.ReadFile("locales/" + e.Name())
		if err != nil {
			return nil, err
		}
		if _, err := bundle.ParseMessageFileBytes(data, e.Name()); err != nil {
			return nil, fmt.Errorf("parse %s: %w", e.Name(), err)
		}
	}
	return &Texts{localizer: i18n.NewLocalizer(bundle, lang)}, nil
}

// T returns the message for id. Missing messages render as the id itself so a
// broken catalog never blanks out a reply.
func (t *Texts) T(id string, data map[string]interface{}) string {
	msg, err := t.localizer.Localize(&i18n.LocalizeConfig{MessageID: id, TemplateData: data})
	if err != nil {
		return id
	}
	return msg
}

func (t *Texts) Category(c models.Category) string {
	return t.T("Category_"+string(c), nil)
}

func (t *Texts) Region(r models.Region) string {
	return t.T("Region_"+string(r), nil)
}

func (t *Texts) Action(a action) string {
	return t.T("Action_"+string(a), nil)
}

// AuthorNotice renders the message an author receives when their request is reserved.
func (t *Texts) AuthorNotice(req models.HelpRequest, responder models.Identity, phone string) string {
	if phone == "" {
		phone = t.T("PhoneMissing", nil)
	}
	return t.T("AuthorNotice", map[string]interface{}{
		"Responder": responder.DisplayName,
		"Problem":   req.Problem,
		"Region":    t.Region(req.Region),
		"Address":   t.address(req.Address),
		"Phone":     phone,
	})
}

func (t *Texts) address(a string) string {
	if a == "" {
		return t.T("AddressMissing", nil)
	}
	return a
}
