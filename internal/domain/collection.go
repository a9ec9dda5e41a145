package domain

import (
	"time"

	"github.com/google/uuid"
)

// Entity is anything carried in an ordered child list (sites, mixes,
// contacts) or in the top-level client list.
type Entity interface {
	EntityID() string
}

func (c Client) EntityID() string   { return c.ID }
func (s Site) EntityID() string     { return s.ID }
func (m Mix) EntityID() string      { return m.ID }
func (ct Contact) EntityID() string { return ct.ID }

// Append returns a new list with e added at the end. The input list is
// never mutated; callers keep working copies independent of the persisted
// snapshot until they explicitly save.
func Append[T Entity](list []T, e T) []T {
	out := make([]T, 0, len(list)+1)
	out = append(out, list...)
	return append(out, e)
}

// Replace returns a new list with the entity whose ID matches e replaced.
// When no entity matches, the list is returned unchanged (copied): an
// update against a vanished ID is a silent no-op.
func Replace[T Entity](list []T, e T) []T {
	out := make([]T, len(list))
	copy(out, list)
	for i := range out {
		if out[i].EntityID() == e.EntityID() {
			out[i] = e
			break
		}
	}
	return out
}

// Remove returns a new list without the entity carrying id. At most one
// entity is removed.
func Remove[T Entity](list []T, id string) []T {
	out := make([]T, 0, len(list))
	removed := false
	for _, e := range list {
		if !removed && e.EntityID() == id {
			removed = true
			continue
		}
		out = append(out, e)
	}
	return out
}

// Find returns the entity carrying id, or the zero value and false.
func Find[T Entity](list []T, id string) (T, bool) {
	for _, e := range list {
		if e.EntityID() == id {
			return e, true
		}
	}
	var zero T
	return zero, false
}

// NewClient creates an empty client with a fresh identifier.
func NewClient() Client {
	return Client{
		ID:        uuid.New().String(),
		Type:      TypeBuilder,
		Status:    StatusNew,
		Sites:     []Site{},
		Contacts:  []Contact{},
		CreatedAt: time.Now().UTC(),
	}
}

// NewSite creates an empty site with a fresh identifier.
func NewSite() Site {
	return Site{
		ID:       uuid.New().String(),
		Mixes:    []Mix{},
		Contacts: []Contact{},
	}
}

// NewMix creates an empty mix with a fresh identifier.
func NewMix() Mix {
	return Mix{ID: uuid.New().String()}
}

// NewContact creates an empty contact with a fresh identifier.
func NewContact() Contact {
	return Contact{ID: uuid.New().String()}
}
