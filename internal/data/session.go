package data

import (
	"context"
	"crypto/sha256"
	"encoding/base32"
	"errors"
	"net/http"
	"strings"
	"time"

	"moviereview/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix     = "moviereview:session:"
	defaultSessionMaxAge = 24 * time.Hour
)

// NewSessionStore keeps session values in redis when it is available and in
// signed, encrypted cookies otherwise.
func NewSessionStore(d *Data, c *conf.Session, logger log.Logger) sessions.Store {
	l := log.NewHelper(logger)

	maxAge := c.MaxAge.AsDuration()
	if maxAge <= 0 {
		maxAge = defaultSessionMaxAge
	}
	hashKey := []byte(c.Secret)
	blockKey := sha256.Sum256(hashKey)

	options := &sessions.Options{
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   c.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	if d.rdb == nil {
		l.Info("sessions stored in cookies")
		store := sessions.NewCookieStore(hashKey, blockKey[:])
		store.Options = options
		store.MaxAge(options.MaxAge)
		return store
	}

	l.Info("sessions stored in redis")
	return newRedisStore(d.rdb, options, hashKey)
}

// redisStore keeps only a signed session id in the cookie.
type redisStore struct {
	rdb        *redis.Client
	codecs     []securecookie.Codec
	options    *sessions.Options
	serializer securecookie.GobEncoder
}

func newRedisStore(rdb *redis.Client, options *sessions.Options, keyPairs ...[]byte) *redisStore {
	codecs := securecookie.CodecsFromPairs(keyPairs...)
	for _, codec := range codecs {
		if sc, ok := codec.(*securecookie.SecureCookie); ok {
			sc.MaxAge(options.MaxAge)
		}
	}
	return &redisStore{
		rdb:     rdb,
		codecs:  codecs,
		options: options,
	}
}

func (s *redisStore) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(s, name)
}

func (s *redisStore) New(r *http.Request, name string) (*sessions.Session, error) {
	session := sessions.NewSession(s, name)
	opts := *s.options
	session.Options = &opts
	session.IsNew = true

	cookie, err := r.Cookie(name)
	if err != nil {
		return session, nil
	}
	if err := securecookie.DecodeMulti(name, cookie.Value, &session.ID, s.codecs...); err != nil {
		// tampered or expired cookie: start over
		session.ID = ""
		return session, nil
	}

	found, err := s.load(r.Context(), session)
	if err != nil {
		return session, err
	}
	session.IsNew = !found
	return session, nil
}

func (s *redisStore) Save(r *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	ctx := r.Context()

	if session.Options.MaxAge <= 0 {
		if session.ID != "" {
			if err := s.rdb.Del(ctx, sessionKeyPrefix+session.ID).Err(); err != nil {
				return err
			}
		}
		http.SetCookie(w, sessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	if session.ID == "" {
		// a new id retires the one the request arrived with
		if err := s.forget(r, session.Name()); err != nil {
			return err
		}
		session.ID = strings.TrimRight(base32.StdEncoding.EncodeToString(securecookie.GenerateRandomKey(32)), "=")
	}

	payload, err := s.serializer.Serialize(session.Values)
	if err != nil {
		return err
	}
	ttl := time.Duration(session.Options.MaxAge) * time.Second
	if err := s.rdb.Set(ctx, sessionKeyPrefix+session.ID, payload, ttl).Err(); err != nil {
		return err
	}

	encoded, err := securecookie.EncodeMulti(session.Name(), session.ID, s.codecs...)
	if err != nil {
		return err
	}
	http.SetCookie(w, sessions.NewCookie(session.Name(), encoded, session.Options))
	return nil
}

func (s *redisStore) forget(r *http.Request, name string) error {
	cookie, err := r.Cookie(name)
	if err != nil {
		return nil
	}
	var previous string
	if err := securecookie.DecodeMulti(name, cookie.Value, &previous, s.codecs...); err != nil || previous == "" {
		return nil
	}
	return s.rdb.Del(r.Context(), sessionKeyPrefix+previous).Err()
}

func (s *redisStore) load(ctx context.Context, session *sessions.Session) (bool, error) {
	payload, err := s.rdb.Get(ctx, sessionKeyPrefix+session.ID).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := s.serializer.Deserialize(payload, &session.Values); err != nil {
		return false, err
	}
	return true, nil
}
