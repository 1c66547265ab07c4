package dimension

import (
	"strings"

	"github.com/google/uuid"
)

const keySeparator = "_"

// KeyBuilder joins key segments in insertion order.
type KeyBuilder struct {
	parts []string
}

func (b *KeyBuilder) Add(part string) *KeyBuilder {
	b.parts = append(b.parts, part)
	return b
}

func (b *KeyBuilder) String() string {
	return strings.Join(b.parts, keySeparator)
}

// HierarchicalKey builds the base key of a dimension from its parent ids.
// It returns false when any id is nil.
func HierarchicalKey(ids ...uuid.UUID) (string, bool) {
	b := &KeyBuilder{}
	for _, id := range ids {
		if id == uuid.Nil {
			return "", false
		}
		b.Add(id.String())
	}
	return b.String(), true
}
