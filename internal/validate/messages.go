package validate

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Error IDs. Each ID is also the message key in the catalog.
const (
	IDDateFormat        = "dateMustBeFormattedYyyyMmDd"
	IDPartialDateFormat = "dateMustBeFormattedPartial"
	IDDateRangeOrder    = "dateMustBeInRange"
	IDBetweenBounds     = "betweenMustHaveBounds"
	IDNumberFormat      = "numberMustBeNumeric"
	IDNumberRangeOrder  = "numberMustBeInRange"
	IDUUIDFormat        = "uuidMustBeValid"
)

var translations = map[language.Tag]map[string]string{
	language.English: {
		IDDateFormat:        "%s: the date must be formatted as YYYY-MM-DD.",
		IDPartialDateFormat: "%s: the date must be formatted as YYYY, YYYY-MM or YYYY-MM-DD.",
		IDDateRangeOrder:    "%s: the start date must not be after the end date.",
		IDBetweenBounds:     "%s: enter a start value, an end value or both.",
		IDNumberFormat:      "%s: %q is not a number.",
		IDNumberRangeOrder:  "%s: the lower bound must not be greater than the upper bound.",
		IDUUIDFormat:        "%s: %q is not a valid UUID.",
	},
	language.French: {
		IDDateFormat:        "%s : la date doit être au format AAAA-MM-JJ.",
		IDPartialDateFormat: "%s : la date doit être au format AAAA, AAAA-MM ou AAAA-MM-JJ.",
		IDDateRangeOrder:    "%s : la date de début ne doit pas être postérieure à la date de fin.",
		IDBetweenBounds:     "%s : saisissez une valeur de début, une valeur de fin ou les deux.",
		IDNumberFormat:      "%s : %q n'est pas un nombre.",
		IDNumberRangeOrder:  "%s : la borne inférieure ne doit pas dépasser la borne supérieure.",
		IDUUIDFormat:        "%s : %q n'est pas un UUID valide.",
	},
}

var messages = newCatalog()

func newCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, msgs := range translations {
		for key, msg := range msgs {
			if err := b.SetString(tag, key, msg); err != nil {
				panic(err)
			}
		}
	}
	return b
}

// Languages returns the languages messages are available in.
func Languages() []language.Tag {
	return []language.Tag{language.English, language.French}
}

// NewPrinter returns a printer for tag, falling back to English for
// unsupported languages.
func NewPrinter(tag language.Tag) *message.Printer {
	matcher := language.NewMatcher(Languages())
	_, idx, _ := matcher.Match(tag)
	return message.NewPrinter(Languages()[idx], message.Catalog(messages))
}

func newError(p *message.Printer, fieldName, id string, args ...any) *Error {
	return &Error{
		FieldName:    fieldName,
		ErrorMessage: p.Sprintf(id, append([]any{fieldName}, args...)...),
		ID:           id,
	}
}
