package sessionstore

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/session"
)

var ErrNotFound = errors.New("session not found")

// record is the serialized shape of a live session.
type record struct {
	Identity session.Identity `json:"identity"`
	Profile  session.Profile  `json:"profile"`
}

// Registry persists live sessions keyed by their token ID so that logout
// invalidates the token server-side before it expires.
type Registry interface {
	Save(ctx context.Context, id string, sess *session.Session) error
	Get(ctx context.Context, id string) (*session.Session, error)
	Delete(ctx context.Context, id string) error
}

func snapshot(sess *session.Session) (record, error) {
	identity, ok := sess.User()
	if !ok {
		return record{}, errors.New("cannot save an unauthenticated session")
	}
	identity.Profile = nil
	return record{Identity: identity, Profile: sess.Profile()}, nil
}

func restore(rec record) (*session.Session, error) {
	sess := session.New()
	rec.Identity.Profile = &rec.Profile
	if err := sess.SetUser(rec.Identity); err != nil {
		return nil, errors.Wrap(err, "restoring session")
	}
	return sess, nil
}
