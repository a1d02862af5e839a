package service

import (
	"context"
	"log"
	"sort"
	"time"

	"chatrelay/internal/domain"
)

// ModelPage is one page of the model catalog. Pagination state travels in
// the button payload, never in shared handler state.
type ModelPage struct {
	Models     []string
	Page       int
	TotalPages int
}

// fetchModels returns the sorted model catalog, served from a TTL cache.
// On upstream failure the stale cache is returned if non-empty.
func (s *Service) fetchModels(ctx context.Context) ([]string, error) {
	s.catalogMu.Lock()
	defer s.catalogMu.Unlock()

	if time.Since(s.fetchedAt) < s.config.ModelCacheTTL && len(s.catalog) > 0 {
		return s.catalog, nil
	}

	models, err := s.llmClient.ListModels(ctx)
	if err != nil {
		log.Printf("WARN: failed to fetch models: %v", err)
		if len(s.catalog) > 0 {
			return s.catalog, nil
		}
		return nil, &UpstreamError{Err: err}
	}

	ids := make([]string, 0, len(models))
	for _, m := range models {
		ids = append(ids, m.ID)
	}
	sort.Strings(ids)

	s.catalog = ids
	s.fetchedAt = time.Now()
	return ids, nil
}

// ListModelsPage returns one stable-size page of the catalog. Out-of-range
// pages are clamped.
func (s *Service) ListModelsPage(ctx context.Context, page int) (*ModelPage, error) {
	models, err := s.fetchModels(ctx)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return &ModelPage{Models: nil, Page: 0, TotalPages: 0}, nil
	}

	perPage := s.config.ModelsPerPage
	totalPages := (len(models) + perPage - 1) / perPage
	if page < 0 {
		page = 0
	}
	if page > totalPages-1 {
		page = totalPages - 1
	}

	start := page * perPage
	end := start + perPage
	if end > len(models) {
		end = len(models)
	}
	return &ModelPage{Models: models[start:end], Page: page, TotalPages: totalPages}, nil
}

// SwitchModel binds a model to the user's current session. Message history
// is untouched: model identity is session metadata, not a context boundary,
// so the next replay window still carries the full prior context.
func (s *Service) SwitchModel(ctx context.Context, userID, modelID string) error {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil || user.CurrentSessionID == "" {
		return domain.ErrNotFound
	}
	return s.store.SetSessionModel(ctx, userID, user.CurrentSessionID, modelID)
}

// SetSessionModel binds a model to an explicitly named session.
func (s *Service) SetSessionModel(ctx context.Context, userID, sessionID, modelID string) error {
	return s.store.SetSessionModel(ctx, userID, sessionID, modelID)
}

// CurrentModel reports the active model of the user's current session,
// falling back to the configured default.
func (s *Service) CurrentModel(ctx context.Context, userID string) (string, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if user == nil || user.CurrentSessionID == "" {
		return s.config.DefaultModel, nil
	}
	session, err := s.store.GetSession(ctx, user.CurrentSessionID)
	if err != nil {
		return "", err
	}
	if session == nil || session.Model == "" {
		return s.config.DefaultModel, nil
	}
	return session.Model, nil
}
