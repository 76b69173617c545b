package types

import (
	"fmt"
	"sort"
	"sync"

	"github.com/goccy/go-json"

	"github.com/datazip-inc/tap-apparel-magic/utils"
)

// TypeSchema is the JSON schema of a stream; only the object's properties are kept
type TypeSchema struct {
	mu         sync.Mutex
	Properties sync.Map `json:"-"`
}

func NewTypeSchema() *TypeSchema {
	return &TypeSchema{
		mu:         sync.Mutex{},
		Properties: sync.Map{},
	}
}

func (t *TypeSchema) Override(fields map[string]*Property) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for key, value := range fields {
		stored, loaded := t.Properties.LoadAndDelete(key)
		if loaded && stored.(*Property).Nullable() {
			value.Type.Insert(Null)
		}
		t.Properties.Store(key, value)
	}
}

// MarshalJSON custom marshaller to handle sync.Map encoding
func (t *TypeSchema) MarshalJSON() ([]byte, error) {
	propertiesMap := make(map[string]*Property)
	t.Properties.Range(func(key, value interface{}) bool {
		strKey, ok := key.(string)
		if !ok {
			return false
		}
		prop, ok := value.(*Property)
		if !ok {
			return false
		}
		propertiesMap[strKey] = prop
		return true
	})

	return json.Marshal(&struct {
		Type       string               `json:"type"`
		Properties map[string]*Property `json:"properties,omitempty"`
	}{
		Type:       string(Object),
		Properties: propertiesMap,
	})
}

// UnmarshalJSON custom unmarshaller to handle sync.Map decoding
func (t *TypeSchema) UnmarshalJSON(data []byte) error {
	aux := &struct {
		Properties map[string]*Property `json:"properties,omitempty"`
	}{}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	for key, value := range aux.Properties {
		t.Properties.Store(key, value)
	}

	return nil
}

func (t *TypeSchema) GetType(column string) (DataType, error) {
	p, found := t.Properties.Load(column)
	if !found {
		return "", fmt.Errorf("column [%s] missing from type schema", column)
	}

	return p.(*Property).DataType(), nil
}

func (t *TypeSchema) AddTypes(column string, types ...DataType) {
	p, found := t.Properties.Load(column)
	if !found {
		t.Properties.Store(column, &Property{
			Type: NewSet(types...),
		})
		return
	}

	property := p.(*Property)
	property.Type.Insert(types...)
}

func (t *TypeSchema) GetProperty(column string) (bool, *Property) {
	p, found := t.Properties.Load(column)
	if !found {
		return false, nil
	}

	return true, p.(*Property)
}

// Columns returns the property names sorted
func (t *TypeSchema) Columns() []string {
	columns := []string{}
	t.Properties.Range(func(key, _ any) bool {
		columns = append(columns, key.(string))
		return true
	})
	sort.Strings(columns)

	return columns
}

// Property is a dto for catalog properties representation
type Property struct {
	Type       *Set[DataType]       `json:"type,omitempty"`
	Format     string               `json:"format,omitempty"`
	Properties map[string]*Property `json:"properties,omitempty"`
	Items      *Property            `json:"items,omitempty"`
}

// UnmarshalJSON accepts both `"type": "string"` and `"type": ["null", "string"]`
func (p *Property) UnmarshalJSON(data []byte) error {
	type Alias Property
	aux := &struct {
		*Alias
		Type json.RawMessage `json:"type,omitempty"`
	}{
		Alias: (*Alias)(p),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	p.Type = NewSet[DataType]()
	if len(aux.Type) == 0 {
		return nil
	}

	var single DataType
	if err := json.Unmarshal(aux.Type, &single); err == nil {
		p.Type.Insert(single)
		return nil
	}

	var multiple []DataType
	if err := json.Unmarshal(aux.Type, &multiple); err != nil {
		return fmt.Errorf("invalid type definition %s: %s", aux.Type, err)
	}
	p.Type.Insert(multiple...)

	return nil
}

// DataType returns the first non null type; string typed date-time values are Timestamps
func (p *Property) DataType() DataType {
	if p.Type == nil {
		return Unknown
	}

	types := p.Type.Array()
	i, found := utils.ArrayContains(types, func(elem DataType) bool {
		return elem != Null
	})
	if !found {
		return Null
	}

	if types[i] == String && p.Format == DateTimeFormat {
		return Timestamp
	}

	return types[i]
}

func (p *Property) Nullable() bool {
	if p.Type == nil {
		return true
	}

	_, found := utils.ArrayContains(p.Type.Array(), func(elem DataType) bool {
		return elem == Null
	})

	return found
}
