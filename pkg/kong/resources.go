package kong

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Resource names a top-level collection of the admin API.
type Resource string

// Known resources.
const (
	Consumers  Resource = "consumers"
	Services   Resource = "services"
	Routes     Resource = "routes"
	Plugins    Resource = "plugins"
	ACLs       Resource = "acls"
	KeyAuths   Resource = "key-auths"
	BasicAuths Resource = "basic-auths"
)

// Operation is a gateway action gated by the capability table.
type Operation string

// Gateway operations.
const (
	OpList       Operation = "list"
	OpAdd        Operation = "add"
	OpRetrieve   Operation = "retrieve"
	OpUpdate     Operation = "update"
	OpDelete     Operation = "delete"
	OpAssociated Operation = "associated"
)

var capabilities = map[Resource]map[Operation]bool{
	Consumers:  all(OpList, OpAdd, OpRetrieve, OpUpdate, OpDelete, OpAssociated),
	Services:   all(OpList, OpAdd, OpRetrieve, OpUpdate, OpDelete, OpAssociated),
	Routes:     all(OpList, OpAdd, OpRetrieve, OpUpdate, OpDelete, OpAssociated),
	Plugins:    all(OpList, OpAdd, OpRetrieve, OpUpdate, OpDelete, OpAssociated),
	ACLs:       all(OpList, OpAdd, OpAssociated),
	KeyAuths:   all(OpList, OpAdd, OpRetrieve, OpDelete, OpAssociated),
	BasicAuths: all(OpList, OpAdd, OpRetrieve, OpDelete, OpAssociated),
}

func all(ops ...Operation) map[Operation]bool {
	set := make(map[Operation]bool, len(ops))
	for _, op := range ops {
		set[op] = true
	}

	return set
}

// AllResources returns every known resource in display order.
func AllResources() []Resource {
	return []Resource{Consumers, Services, Routes, Plugins, ACLs, KeyAuths, BasicAuths}
}

// ParseResource maps a name to a Resource.
func ParseResource(name string) (Resource, error) {
	r := Resource(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := capabilities[r]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownResource, name)
	}

	return r, nil
}

// Valid reports whether r is part of the catalogue.
func (r Resource) Valid() bool {
	_, ok := capabilities[r]

	return ok
}

// Supports reports whether op is allowed on r.
func (r Resource) Supports(op Operation) bool {
	return capabilities[r][op]
}

// Check returns nil when op is allowed on r.
func (r Resource) Check(op Operation) error {
	if !r.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownResource, string(r))
	}

	if !r.Supports(op) {
		return fmt.Errorf("%w: %s on %s", ErrUnsupportedOperation, op, r)
	}

	return nil
}

// Path returns the collection path, e.g. "/consumers".
func (r Resource) Path() string {
	return "/" + string(r)
}

// String implements fmt.Stringer.
func (r Resource) String() string {
	return string(r)
}

// Record is a single resource object as returned by the admin API.
// Fields are passed through untouched.
type Record = map[string]interface{}

// ListResponse is one page of a collection. Data is nil when the page
// carries no data array at all.
type ListResponse struct {
	Data []Record `json:"data"`
	Next *string  `json:"next"`
}

// UnmarshalJSON decodes a page. Older gateways encode an empty collection
// as "data":{}, which decodes to an empty, non-nil Data.
func (l *ListResponse) UnmarshalJSON(b []byte) error {
	var raw struct {
		Data json.RawMessage `json:"data"`
		Next *string         `json:"next"`
	}

	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	l.Next = raw.Next
	l.Data = nil

	data := bytes.TrimSpace(raw.Data)

	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		return nil
	case data[0] == '{':
		var obj map[string]interface{}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}

		if len(obj) != 0 {
			return ErrInvalidListData
		}

		l.Data = []Record{}

		return nil
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return err
	}

	if records == nil {
		records = []Record{}
	}

	l.Data = records

	return nil
}

// NextCursor returns the cursor of the following page, or "" on the last page.
func (l *ListResponse) NextCursor() string {
	if l.Next == nil {
		return ""
	}

	return *l.Next
}

// StringField returns r[key] when it holds a string.
func StringField(r Record, key string) string {
	if v, ok := r[key].(string); ok {
		return v
	}

	return ""
}

// RefID returns the id of a reference field such as {"service": {"id": "..."}}.
func RefID(r Record, key string) string {
	ref, ok := r[key].(map[string]interface{})
	if !ok {
		return ""
	}

	return StringField(ref, "id")
}
