package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
)

// Reserved document keys. They are managed by the service and never stored
// as free-form attributes.
const (
	FieldID        = "id"
	FieldCreatedAt = "created_at"
	FieldUpdatedAt = "updated_at"

	// MaxPokemonIDLength bounds caller-assigned identifiers.
	MaxPokemonIDLength = 64
)

// ErrEmptyPokemonName is the cause of a ValidationError for a missing name.
var ErrEmptyPokemonName = errors.New("pokemon name cannot be empty")

var validate = validator.New()

// pokemonSchema is the typed view of the attributes that have rules.
// Everything else in a document is opaque.
type pokemonSchema struct {
	Name string `mapstructure:"name" validate:"required,max=100"`
	Type string `mapstructure:"type" validate:"max=100"`
}

// pokemonPatchSchema is pokemonSchema for partial updates: only keys present
// in the patch are checked.
type pokemonPatchSchema struct {
	Name *string `mapstructure:"name" validate:"omitnil,min=1,max=100"`
	Type *string `mapstructure:"type" validate:"omitnil,max=100"`
}

// Pokemon is a document in the Pokedex collection. ID is assigned by the
// caller and never changes; Attributes holds every other field of the
// document (name, type, stats, ...) as decoded JSON values.
type Pokemon struct {
	ID         string
	Attributes map[string]any
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewPokemon builds a Pokemon from a raw create payload. The payload must
// carry an "id" (string or number); reserved keys are removed from the
// attributes. Returns a ValidationError if the document is invalid.
func NewPokemon(payload map[string]any) (*Pokemon, error) {
	rawID, ok := payload[FieldID]
	if !ok || rawID == nil {
		return nil, NewValidationError(FieldID, "is required", ErrInvalidID)
	}

	id, err := NormalizePokemonID(rawID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	p := &Pokemon{
		ID:         id,
		Attributes: StripReserved(payload),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	return p, nil
}

// NormalizePokemonID converts a JSON identifier to its canonical string form.
// Strings are used as-is. Numbers must be integral and are rendered in plain
// decimal, so 25, 25.0, 2.5e1 and "25" all name the same document and -0 is 0.
func NormalizePokemonID(v any) (string, error) {
	var id string
	switch t := v.(type) {
	case string:
		id = t
	case json.Number:
		r, ok := new(big.Rat).SetString(t.String())
		if !ok || !r.IsInt() {
			return "", errNonIntegralID()
		}
		id = r.Num().String()
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) || t != math.Trunc(t) {
			return "", errNonIntegralID()
		}
		n, _ := big.NewFloat(t).Int(nil)
		id = n.String()
	case int:
		id = strconv.Itoa(t)
	case int64:
		id = strconv.FormatInt(t, 10)
	default:
		return "", errNonIntegralID()
	}

	if err := ValidatePokemonID(id); err != nil {
		return "", err
	}
	return id, nil
}

func errNonIntegralID() error {
	return NewValidationError(FieldID, "must be a string or an integer", ErrInvalidID)
}

// ValidatePokemonID checks the shape of an already-normalised identifier.
func ValidatePokemonID(id string) error {
	if strings.TrimSpace(id) == "" {
		return NewValidationError(FieldID, "is required", ErrInvalidID)
	}
	if len(id) > MaxPokemonIDLength {
		return NewValidationError(FieldID, fmt.Sprintf("must be at most %d characters", MaxPokemonIDLength), ErrInvalidID)
	}
	return nil
}

// Validate checks the identifier and the typed attributes of the document.
func (p *Pokemon) Validate() error {
	if err := ValidatePokemonID(p.ID); err != nil {
		return err
	}

	var schema pokemonSchema
	if err := decodeSchema(p.Attributes, &schema); err != nil {
		return err
	}
	if err := validate.Struct(schema); err != nil {
		return translateValidatorError(err)
	}
	return nil
}

// Name returns the document's name attribute, or "" when absent.
func (p *Pokemon) Name() string {
	name, _ := p.Attributes["name"].(string)
	return name
}

// Apply shallow-merges patch into the document's attributes and bumps
// UpdatedAt. Reserved keys in the patch are ignored. The patch is assumed to
// have passed ValidatePokemonPatch.
func (p *Pokemon) Apply(patch map[string]any) {
	if p.Attributes == nil {
		p.Attributes = make(map[string]any, len(patch))
	}
	maps.Copy(p.Attributes, StripReserved(patch))
	p.UpdatedAt = time.Now().UTC()
}

// Clone returns a copy whose attribute map can be mutated independently.
// Nested values are shared.
func (p *Pokemon) Clone() *Pokemon {
	c := *p
	c.Attributes = maps.Clone(p.Attributes)
	if c.Attributes == nil {
		c.Attributes = map[string]any{}
	}
	return &c
}

// ValidatePokemonPatch checks only the keys present in an update payload.
// Required attributes may not be removed by setting them to null.
func ValidatePokemonPatch(patch map[string]any) error {
	if v, ok := patch["name"]; ok && v == nil {
		return NewValidationError("name", "cannot be null", ErrEmptyPokemonName)
	}

	var schema pokemonPatchSchema
	if err := decodeSchema(StripReserved(patch), &schema); err != nil {
		return err
	}
	if err := validate.Struct(schema); err != nil {
		return translateValidatorError(err)
	}
	return nil
}

// StripReserved returns a copy of doc without the id and timestamp keys.
func StripReserved(doc map[string]any) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		switch k {
		case FieldID, FieldCreatedAt, FieldUpdatedAt:
			continue
		}
		out[k] = v
	}
	return out
}

// Document renders the Pokemon as the flat JSON object clients see.
func (p *Pokemon) Document() map[string]any {
	doc := make(map[string]any, len(p.Attributes)+3)
	maps.Copy(doc, p.Attributes)
	doc[FieldID] = p.ID
	if !p.CreatedAt.IsZero() {
		doc[FieldCreatedAt] = p.CreatedAt
	}
	if !p.UpdatedAt.IsZero() {
		doc[FieldUpdatedAt] = p.UpdatedAt
	}
	return doc
}

// MarshalJSON implements json.Marshaler using Document.
func (p *Pokemon) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Document())
}

func decodeSchema(attrs map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:     out,
		TagName:    "mapstructure",
		DecodeHook: mapstructure.DecodeHookFuncType(rejectNumbersAsStrings),
	})
	if err != nil {
		return fmt.Errorf("failed to build schema decoder: %w", err)
	}

	if err := dec.Decode(attrs); err != nil {
		return NewValidationError("", schemaMessage(err.Error()), ErrValidation)
	}
	return nil
}

var jsonNumberType = reflect.TypeOf(json.Number(""))

// rejectNumbersAsStrings stops mapstructure from accepting a json.Number
// (whose kind is string) for a string attribute.
func rejectNumbersAsStrings(from, to reflect.Type, data any) (any, error) {
	if from == jsonNumberType && to.Kind() == reflect.String && to != jsonNumberType {
		return nil, fmt.Errorf("expected type '%s', got number", to)
	}
	return data, nil
}

// schemaMessage turns a mapstructure type error into "<field> has the wrong type".
func schemaMessage(msg string) string {
	if start := strings.Index(msg, "'"); start >= 0 {
		if end := strings.Index(msg[start+1:], "'"); end > 0 {
			return msg[start+1:start+1+end] + " has the wrong type"
		}
	}
	return "document has the wrong shape"
}

func translateValidatorError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return NewValidationError("", err.Error(), ErrValidation)
	}

	fe := verrs[0]
	field := strings.ToLower(fe.Field())

	switch fe.Tag() {
	case "required":
		if field == "name" {
			return NewValidationError(field, "is required", ErrEmptyPokemonName)
		}
		return NewValidationError(field, "is required", ErrValidation)
	case "min":
		if field == "name" {
			return NewValidationError(field, "cannot be empty", ErrEmptyPokemonName)
		}
		return NewValidationError(field, "is too short", ErrValidation)
	case "max":
		return NewValidationError(field, "must be at most "+fe.Param()+" characters", ErrValidation)
	default:
		return NewValidationError(field, "is invalid", ErrValidation)
	}
}
