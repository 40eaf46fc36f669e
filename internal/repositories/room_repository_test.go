package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortPairOrderIndependent(t *testing.T) {
	lo1, hi1 := sortPair(7, 3)
	lo2, hi2 := sortPair(3, 7)

	assert.Equal(t, 3, lo1)
	assert.Equal(t, 7, hi1)
	assert.Equal(t, lo1, lo2)
	assert.Equal(t, hi1, hi2)
}

func TestSortPairAlreadySorted(t *testing.T) {
	lo, hi := sortPair(1, 2)
	assert.Equal(t, 1, lo)
	assert.Equal(t, 2, hi)
}

func TestEnsureRoomRejectsSelf(t *testing.T) {
	repo := NewRoomRepo(nil)

	_, err := repo.EnsureRoom(context.Background(), 5, 5)
	assert.Error(t, err)
}
