package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/totegamma/aquamind/internal/domain"
)

func TestScoreStoreTopOrdering(t *testing.T) {
	ctx := context.Background()
	users := NewUserStore()
	ann := seedUser(t, users, "ann")
	bob := seedUser(t, users, "bob")
	store := NewScoreStore(users)

	for _, s := range []struct {
		user  string
		score int
	}{{ann.ID, 10}, {bob.ID, 30}, {bob.ID, 10}, {ann.ID, 20}} {
		_, err := store.Create(ctx, s.user, s.score)
		require.NoError(t, err)
	}

	top, err := store.Top(ctx, 3)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, 30, top[0].Score)
	assert.Equal(t, "bob", top[0].Username)
	assert.Equal(t, 20, top[1].Score)
	// tie on 10: earlier submission first
	assert.Equal(t, 10, top[2].Score)
	assert.Equal(t, "ann", top[2].Username)
}

func TestScoreStoreRejectsNegative(t *testing.T) {
	_, err := NewScoreStore(nil).Create(context.Background(), "u1", -1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
