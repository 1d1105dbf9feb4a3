package data

import (
	"encoding/json"
	"sort"

	"github.com/pkg/errors"
)

// Property is a single build property and where it was set.
type Property struct {
	Value  interface{}
	Source string
}

// MarshalJSON renders the property as the master does: [value, source].
func (p Property) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{p.Value, p.Source})
}

// UnmarshalJSON decodes a [value, source] pair.
func (p *Property) UnmarshalJSON(data []byte) error {
	pair := []json.RawMessage{}
	if err := json.Unmarshal(data, &pair); err != nil {
		return errors.Wrap(err, "error unmarshaling property")
	}
	if len(pair) != 2 {
		return errors.Errorf(
			"expected property to be a [value, source] pair; got %d elements",
			len(pair),
		)
	}
	var value interface{}
	if err := json.Unmarshal(pair[0], &value); err != nil {
		return errors.Wrap(err, "error unmarshaling property value")
	}
	var source string
	if err := json.Unmarshal(pair[1], &source); err != nil {
		return errors.Wrap(err, "error unmarshaling property source")
	}
	p.Value = value
	p.Source = source
	return nil
}

// Properties is the set of properties of a build.
type Properties map[string]Property

// PropertiesDescriptor decodes records from "properties" collections.
var PropertiesDescriptor = Descriptor[*Properties]{
	RestArg: "properties",
	New: func(_ Accessor, raw json.RawMessage) (*Properties, error) {
		properties := Properties{}
		if err := json.Unmarshal(raw, &properties); err != nil {
			return nil, err
		}
		return &properties, nil
	},
}

// Names returns the property names in lexical order.
func (p Properties) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StringValue returns the named property's value if it is a string.
func (p Properties) StringValue(name string) (string, bool) {
	property, ok := p[name]
	if !ok {
		return "", false
	}
	str, ok := property.Value.(string)
	return str, ok
}
