package dataapi

import "fmt"

// Ref is the handle of an intent inside its unit of work.
type Ref int

// ReferenceID is the forward-reference token the backend echoes back per intent.
func (r Ref) ReferenceID() string {
	return fmt.Sprintf("ref%d", int(r))
}

// Placeholder is the expression a dependent record uses for the not yet assigned id.
func (r Ref) Placeholder() string {
	return "@{" + r.ReferenceID() + ".id}"
}

// Fields sObject field map
type Fields map[string]interface{}

// Intent is one pending create.
type Intent struct {
	Ref         Ref
	Type        string
	Fields      Fields
	Parent      Ref
	ParentField string
	hasParent   bool
}

// HasParent reports whether the intent depends on another intent of the batch.
func (i Intent) HasParent() bool {
	return i.hasParent
}

// UnitOfWork accumulates create intents that are committed as one batch.
// Intents live in an arena indexed by Ref; children keep the parent handle
// and are only turned into placeholders by Resolve at commit time.
type UnitOfWork struct {
	intents []Intent
}

// NewUnitOfWork begins an empty batch
func NewUnitOfWork() *UnitOfWork {
	return &UnitOfWork{intents: make([]Intent, 0)}
}

// RegisterCreate stages a record without dependencies and returns its handle.
func (u *UnitOfWork) RegisterCreate(objType string, fields Fields) Ref {
	ref := Ref(len(u.intents))
	u.intents = append(u.intents, Intent{
		Ref:    ref,
		Type:   objType,
		Fields: copyFields(fields),
	})
	return ref
}

// RegisterChild stages a record whose parentField must receive the id of parent.
func (u *UnitOfWork) RegisterChild(parent Ref, parentField, objType string, fields Fields) (Ref, error) {
	if !u.has(parent) {
		return 0, &InvalidReferenceError{Ref: parent, Size: len(u.intents)}
	}

	ref := Ref(len(u.intents))
	u.intents = append(u.intents, Intent{
		Ref:         ref,
		Type:        objType,
		Fields:      copyFields(fields),
		Parent:      parent,
		ParentField: parentField,
		hasParent:   true,
	})
	return ref, nil
}

func (u *UnitOfWork) has(ref Ref) bool {
	return ref >= 0 && int(ref) < len(u.intents)
}

// Len number of staged intents
func (u *UnitOfWork) Len() int {
	return len(u.intents)
}

func (u *UnitOfWork) IsEmpty() bool {
	return len(u.intents) == 0
}

// Intents returns the staged intents in registration order.
func (u *UnitOfWork) Intents() []Intent {
	out := make([]Intent, len(u.intents))
	copy(out, u.intents)
	return out
}

// Resolve returns the wire fields of an intent, the parent field set to the parent's placeholder.
func (u *UnitOfWork) Resolve(intent Intent) (Fields, error) {
	fields := copyFields(intent.Fields)
	if !intent.hasParent {
		return fields, nil
	}
	if !u.has(intent.Parent) {
		return nil, &InvalidReferenceError{Ref: intent.Parent, Size: len(u.intents)}
	}
	fields[intent.ParentField] = intent.Parent.Placeholder()
	return fields, nil
}

func copyFields(fields Fields) Fields {
	out := make(Fields, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	return out
}
