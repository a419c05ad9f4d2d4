package sessionstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core/session"
)

func newTestRegistry(t *testing.T, ttl time.Duration) (Registry, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisRegistry(client, ttl), mr
}

func authenticatedSession(t *testing.T) *session.Session {
	t.Helper()

	sess := session.New()
	err := sess.SetUser(session.Identity{
		ID:    "u1",
		Email: "jane@test.cm",
		Role:  session.RoleStudent,
		Profile: &session.Profile{
			Name:            "Jane Doe",
			Email:           "jane@test.cm",
			EnrolledCourses: []string{"c1", "c2"},
		},
	})
	require.NoError(t, err)
	return sess
}

func TestRedisRegistry_roundTrip(t *testing.T) {
	ctx := context.Background()
	reg, _ := newTestRegistry(t, time.Hour)
	sess := authenticatedSession(t)

	require.NoError(t, reg.Save(ctx, "tok1", sess))

	got, err := reg.Get(ctx, "tok1")
	require.NoError(t, err)
	assert.True(t, got.IsAuthenticated())

	identity, ok := got.User()
	require.True(t, ok)
	assert.Equal(t, "u1", identity.ID)
	assert.Equal(t, session.RoleStudent, identity.Role)

	profile := got.Profile()
	assert.Equal(t, "Jane Doe", profile.Name)
	assert.Equal(t, []string{"c1", "c2"}, profile.EnrolledCourses)
}

func TestRedisRegistry_getMissing(t *testing.T) {
	reg, _ := newTestRegistry(t, time.Hour)

	_, err := reg.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisRegistry_saveUnauthenticated(t *testing.T) {
	reg, _ := newTestRegistry(t, time.Hour)

	err := reg.Save(context.Background(), "tok1", session.New())
	assert.Error(t, err)
}

func TestRedisRegistry_delete(t *testing.T) {
	ctx := context.Background()
	reg, _ := newTestRegistry(t, time.Hour)
	sess := authenticatedSession(t)

	require.NoError(t, reg.Save(ctx, "tok1", sess))
	require.NoError(t, reg.Delete(ctx, "tok1"))

	_, err := reg.Get(ctx, "tok1")
	assert.ErrorIs(t, err, ErrNotFound)

	// deleting again is a no-op
	assert.NoError(t, reg.Delete(ctx, "tok1"))
}

func TestRedisRegistry_expiry(t *testing.T) {
	ctx := context.Background()
	reg, mr := newTestRegistry(t, time.Minute)
	sess := authenticatedSession(t)

	require.NoError(t, reg.Save(ctx, "tok1", sess))

	mr.FastForward(2 * time.Minute)

	_, err := reg.Get(ctx, "tok1")
	assert.ErrorIs(t, err, ErrNotFound)
}
