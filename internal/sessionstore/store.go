package sessionstore

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
)

// AccessTokenKey is the session value holding the visitor's provider token.
const AccessTokenKey = "user_access_token"

// Store is a gorilla sessions.Store that keeps session values in a Repository
// and only hands the browser the session id, signed when a key is configured.
type Store struct {
	Options *sessions.Options

	repo  Repository
	codec securecookie.Codec
}

type StoreArgs struct {
	Repository Repository
	Options    sessions.Options
	// SigningKey signs the session id carried in the cookie. An empty key
	// stores the id as is.
	SigningKey []byte
}

func NewStore(args StoreArgs) (*Store, error) {
	if args.Repository == nil {
		return nil, fmt.Errorf("no session repository provided")
	}

	if args.Options.MaxAge <= 0 {
		return nil, fmt.Errorf("session max age must be positive")
	}

	opts := args.Options

	s := &Store{
		Options: &opts,
		repo:    args.Repository,
	}

	if len(args.SigningKey) > 0 {
		sc := securecookie.New(args.SigningKey, nil)
		sc.MaxAge(opts.MaxAge)
		s.codec = sc
	}

	return s, nil
}

func (s *Store) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(s, name)
}

// New loads the session named by the request cookie. A missing, tampered or
// expired cookie yields a fresh session; only a repository failure is an error.
func (s *Store) New(r *http.Request, name string) (*sessions.Session, error) {
	sess := sessions.NewSession(s, name)
	opts := *s.Options
	sess.Options = &opts
	sess.IsNew = true

	c, err := r.Cookie(name)
	if err != nil {
		return sess, nil
	}

	id, ok := s.decodeID(name, c.Value)
	if !ok {
		return sess, nil
	}

	rec, err := s.repo.Get(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		return sess, nil
	}
	if err != nil {
		return sess, err
	}

	sess.ID = id
	sess.IsNew = false
	if rec.AccessToken != "" {
		sess.Values[AccessTokenKey] = rec.AccessToken
	}

	return sess, nil
}

func (s *Store) Save(r *http.Request, w http.ResponseWriter, sess *sessions.Session) error {
	if sess.Options == nil {
		opts := *s.Options
		sess.Options = &opts
	}

	if sess.Options.MaxAge < 0 {
		if sess.ID != "" {
			if err := s.repo.Expire(r.Context(), sess.ID); err != nil {
				return err
			}
		}
		http.SetCookie(w, sessions.NewCookie(sess.Name(), "", sess.Options))
		return nil
	}

	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}

	maxAge := sess.Options.MaxAge
	if maxAge == 0 {
		maxAge = s.Options.MaxAge
	}

	rec := &Record{}
	rec.AccessToken, _ = sess.Values[AccessTokenKey].(string)

	if err := s.repo.Set(r.Context(), sess.ID, rec, time.Duration(maxAge)*time.Second); err != nil {
		return err
	}

	value, err := s.encodeID(sess.Name(), sess.ID)
	if err != nil {
		return err
	}

	http.SetCookie(w, sessions.NewCookie(sess.Name(), value, sess.Options))
	return nil
}

func (s *Store) encodeID(name, id string) (string, error) {
	if s.codec == nil {
		return id, nil
	}

	value, err := s.codec.Encode(name, id)
	if err != nil {
		return "", fmt.Errorf("could not sign session id: %w", err)
	}

	return value, nil
}

func (s *Store) decodeID(name, value string) (string, bool) {
	if value == "" {
		return "", false
	}

	if s.codec == nil {
		return value, true
	}

	var id string
	if err := s.codec.Decode(name, value, &id); err != nil {
		return "", false
	}

	return id, id != ""
}

// AccessToken returns the provider token stored in sess, if any.
func AccessToken(sess *sessions.Session) string {
	token, _ := sess.Values[AccessTokenKey].(string)
	return token
}
