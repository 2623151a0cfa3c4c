package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalPair(t *testing.T) {
	low, high := CanonicalPair("bob", "alice")
	assert.Equal(t, "alice", low)
	assert.Equal(t, "bob", high)

	low, high = CanonicalPair("alice", "bob")
	assert.Equal(t, "alice", low)
	assert.Equal(t, "bob", high)
}

func TestPairKeyOrderIndependent(t *testing.T) {
	assert.Equal(t, PairKey("alice", "bob", "item-1"), PairKey("bob", "alice", "item-1"))
	assert.Equal(t, "alice:bob:item-1", PairKey("bob", "alice", "item-1"))
}

func TestPairKeyEmptyItemIsGeneral(t *testing.T) {
	assert.Equal(t, "alice:bob:general", PairKey("alice", "bob", ""))
	assert.NotEqual(t, PairKey("alice", "bob", ""), PairKey("alice", "bob", "item-1"))
}

func TestConversationCounterpart(t *testing.T) {
	conv := Conversation{UserLow: "alice", UserHigh: "bob"}
	assert.Equal(t, "bob", conv.Counterpart("alice"))
	assert.Equal(t, "alice", conv.Counterpart("bob"))
}

func TestValidBody(t *testing.T) {
	assert.True(t, ValidBody("hello"))
	assert.True(t, ValidBody("  spaced  "))
	assert.False(t, ValidBody(""))
	assert.False(t, ValidBody("   "))
	assert.False(t, ValidBody("\n\t"))
}

func TestValidStatus(t *testing.T) {
	assert.True(t, ValidStatus(StatusLost))
	assert.True(t, ValidStatus(StatusFound))
	assert.False(t, ValidStatus(ItemStatus("stolen")))
	assert.False(t, ValidStatus(ItemStatus("")))
}
