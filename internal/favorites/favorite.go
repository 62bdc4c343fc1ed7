// Package favorites keeps the saved places of the user: a small, persistent,
// observable collection shared by every store instance on the same backend.
package favorites

import (
	"encoding/json"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/i474232898/weather-now/internal/geo"
)

const (
	// MaxFavorites is the capacity of the collection.
	MaxFavorites = 6
	// MaxAliasLength is the alias limit in characters.
	MaxAliasLength = 20
	// DefaultKey is the storage key of the collection.
	DefaultKey = "weather-app-favorites"
)

var (
	ErrFavoritesFull     = errors.New("favorites are full")
	ErrDuplicateFavorite = errors.New("place is already a favorite")
	ErrFavoriteNotFound  = errors.New("favorite not found")
	ErrInvalidFavorite   = errors.New("invalid favorite")
)

// Favorite is one saved place. FullName is the stable place key and is unique
// within a collection.
type Favorite struct {
	ID          string           `json:"id" validate:"required"`
	FullName    string           `json:"fullName" validate:"required"`
	DisplayName string           `json:"displayName"`
	Alias       *string          `json:"alias"`
	Coordinates *geo.Coordinates `json:"coordinates"`
	CreatedAt   int64            `json:"createdAt"` // unix milliseconds
}

// Label is the name to show: the alias when set, else the display name.
func (f Favorite) Label() string {
	if f.Alias != nil {
		return *f.Alias
	}
	if f.DisplayName != "" {
		return f.DisplayName
	}
	return f.FullName
}

func (f Favorite) clone() Favorite {
	if f.Alias != nil {
		a := *f.Alias
		f.Alias = &a
	}
	if f.Coordinates != nil {
		c := *f.Coordinates
		f.Coordinates = &c
	}
	return f
}

func cloneAll(in []Favorite) []Favorite {
	out := make([]Favorite, len(in))
	for i, f := range in {
		out[i] = f.clone()
	}
	return out
}

// NormalizeAlias trims the alias and cuts it to MaxAliasLength characters.
// Nil or blank input yields nil, which resets the label to the display name.
func NormalizeAlias(alias *string) *string {
	if alias == nil {
		return nil
	}
	s := strings.TrimSpace(*alias)
	if s == "" {
		return nil
	}
	if utf8.RuneCountInString(s) > MaxAliasLength {
		s = strings.TrimSpace(string([]rune(s)[:MaxAliasLength]))
	}
	return &s
}

var validate = validator.New()

// decode parses a stored collection. Anything unreadable counts as empty.
func decode(data []byte) ([]Favorite, error) {
	if len(data) == 0 {
		return []Favorite{}, nil
	}
	var list []Favorite
	if err := json.Unmarshal(data, &list); err != nil {
		return []Favorite{}, err
	}
	for _, f := range list {
		if err := validate.Struct(f); err != nil {
			return []Favorite{}, err
		}
		if f.Coordinates != nil {
			if err := f.Coordinates.Validate(); err != nil {
				return []Favorite{}, err
			}
		}
	}
	if list == nil {
		list = []Favorite{}
	}
	return list, nil
}

func encode(list []Favorite) ([]byte, error) {
	if list == nil {
		list = []Favorite{}
	}
	return json.Marshal(list)
}

func indexByID(list []Favorite, id string) int {
	for i, f := range list {
		if f.ID == id {
			return i
		}
	}
	return -1
}

func indexByFullName(list []Favorite, fullName string) int {
	for i, f := range list {
		if f.FullName == fullName {
			return i
		}
	}
	return -1
}
