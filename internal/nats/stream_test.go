package nats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageSubject(t *testing.T) {
	assert.Equal(t, "dm.alice.bob.item-1", MessageSubject("alice", "bob", "item-1"))
	assert.Equal(t, "dm.alice.bob.general", MessageSubject("alice", "bob", ""))
}

func TestInboxFilter(t *testing.T) {
	// Matches any sender and any item scope for the receiver.
	assert.Equal(t, "dm.*.bob.>", InboxFilter("bob"))
}

func TestPairFiltersCoverBothDirections(t *testing.T) {
	filters := pairFilters("alice", "bob", "", false)
	assert.ElementsMatch(t, []string{"dm.alice.bob.>", "dm.bob.alice.>"}, filters)
}

func TestPairFiltersItemScope(t *testing.T) {
	filters := pairFilters("alice", "bob", "item-1", true)
	assert.ElementsMatch(t, []string{"dm.alice.bob.item-1", "dm.bob.alice.item-1"}, filters)

	// Scoped reads without an item fall back to the whole pair history.
	filters = pairFilters("alice", "bob", "", true)
	assert.ElementsMatch(t, []string{"dm.alice.bob.>", "dm.bob.alice.>"}, filters)
}
