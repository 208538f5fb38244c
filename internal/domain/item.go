package domain

import (
	"errors"
	"fmt"
)

// Item is a catalog entry. Items are read-only to the application.
type Item struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       Price  `json:"price"`
}

// ShortID is the badge form of the id: its first six characters and "...".
func (i Item) ShortID() string {
	r := []rune(i.ID)
	if len(r) > 6 {
		r = r[:6]
	}
	return string(r) + "..."
}

// ErrMalformedDocument is returned when a document cannot be decoded.
var ErrMalformedDocument = errors.New("malformed document")

// DecodeItem decodes an items document. Missing text fields decode as empty
// strings; any price value is accepted.
func DecodeItem(doc Document) (Item, error) {
	if doc.ID == "" {
		return Item{}, fmt.Errorf("%w: item without id", ErrMalformedDocument)
	}
	return Item{
		ID:          doc.ID,
		Name:        stringField(doc.Data, FieldName),
		Description: stringField(doc.Data, FieldDescription),
		Price:       PriceFromValue(doc.Data[FieldPrice]),
	}, nil
}

// NewItem is an item written out of band, by the seed tool.
type NewItem struct {
	Name        string `yaml:"name" validate:"required"`
	Description string `yaml:"description"`
	Price       any    `yaml:"price"`
}

// Fields returns the document fields for the item.
func (n NewItem) Fields() map[string]any {
	return map[string]any{
		FieldName:        n.Name,
		FieldDescription: n.Description,
		FieldPrice:       PriceFromValue(n.Price).Raw(),
	}
}

func stringField(data map[string]any, key string) string {
	switch v := data[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
