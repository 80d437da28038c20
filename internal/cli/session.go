package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rcliao/ai-tutor/internal/api"
	"github.com/rcliao/ai-tutor/internal/model"
	"github.com/rcliao/ai-tutor/internal/store"
)

func loadSession(ctx context.Context, s store.Store) (*api.Session, error) {
	sess := &api.Session{}

	token, _, err := s.GetValue(ctx, store.KeyAuthToken)
	if err != nil {
		return nil, err
	}
	sess.Token = token

	raw, ok, err := s.GetValue(ctx, store.KeyUser)
	if err != nil {
		return nil, err
	}
	if ok {
		var u model.User
		if err := json.Unmarshal([]byte(raw), &u); err != nil {
			return nil, fmt.Errorf("decode saved user: %w", err)
		}
		sess.User = &u
	}
	return sess, nil
}

func saveSession(ctx context.Context, s store.Store, sess *api.Session) error {
	if err := s.SetValue(ctx, store.KeyAuthToken, sess.Token); err != nil {
		return err
	}
	if sess.User == nil {
		return s.DeleteValue(ctx, store.KeyUser)
	}
	b, err := json.Marshal(sess.User)
	if err != nil {
		return err
	}
	return s.SetValue(ctx, store.KeyUser, string(b))
}

func clearSession(ctx context.Context, s store.Store) error {
	if err := s.DeleteValue(ctx, store.KeyAuthToken); err != nil {
		return err
	}
	return s.DeleteValue(ctx, store.KeyUser)
}
