package cli

import (
	"context"
	"errors"
	"time"

	"github.com/example/focusflow/internal/application"
	"github.com/example/focusflow/internal/persistence"
)

// mapStoreError translates persistence sentinels into the errors the
// application layer reports. duplicate is returned for unique violations.
func mapStoreError(err, duplicate error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound):
		return application.ErrNotFound
	case duplicate != nil && errors.Is(err, persistence.ErrDuplicate):
		return duplicate
	case errors.Is(err, persistence.ErrForeignKeyViolation):
		return application.ErrNotFound
	}
	return err
}

type userRepositoryAdapter struct {
	repo persistence.UserRepository
}

func newUserRepositoryAdapter(repo persistence.UserRepository) *userRepositoryAdapter {
	return &userRepositoryAdapter{repo: repo}
}

func (a *userRepositoryAdapter) CreateUser(ctx context.Context, user application.User, passwordHash string) (application.User, error) {
	if err := a.repo.CreateUser(ctx, toPersistenceUser(user, passwordHash)); err != nil {
		return application.User{}, mapStoreError(err, application.ErrAlreadyExists)
	}
	stored, err := a.repo.GetUser(ctx, user.ID)
	if err != nil {
		return application.User{}, mapStoreError(err, nil)
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, mapStoreError(err, nil)
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) UpdateUser(ctx context.Context, user application.User) (application.User, error) {
	current, err := a.repo.GetUser(ctx, user.ID)
	if err != nil {
		return application.User{}, mapStoreError(err, nil)
	}
	if err := a.repo.UpdateUser(ctx, toPersistenceUser(user, current.PasswordHash)); err != nil {
		return application.User{}, mapStoreError(err, application.ErrAlreadyExists)
	}
	stored, err := a.repo.GetUser(ctx, user.ID)
	if err != nil {
		return application.User{}, mapStoreError(err, nil)
	}
	return toApplicationUser(stored), nil
}

type credentialStoreAdapter struct {
	repo persistence.UserRepository
}

func newCredentialStoreAdapter(repo persistence.UserRepository) *credentialStoreAdapter {
	return &credentialStoreAdapter{repo: repo}
}

func (a *credentialStoreAdapter) GetUserCredentialsByEmail(ctx context.Context, email string) (application.UserCredentials, error) {
	stored, err := a.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return application.UserCredentials{}, mapStoreError(err, nil)
	}
	return application.UserCredentials{
		User:         toApplicationUser(stored),
		PasswordHash: stored.PasswordHash,
	}, nil
}

func (a *credentialStoreAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, mapStoreError(err, nil)
	}
	return toApplicationUser(stored), nil
}

type sessionRepositoryAdapter struct {
	repo persistence.SessionRepository
}

func newSessionRepositoryAdapter(repo persistence.SessionRepository) *sessionRepositoryAdapter {
	return &sessionRepositoryAdapter{repo: repo}
}

func (a *sessionRepositoryAdapter) CreateSession(ctx context.Context, session application.Session) (application.Session, error) {
	if err := a.repo.CreateSession(ctx, toPersistenceSession(session)); err != nil {
		// The only unique index besides the primary key allows one active session per user.
		return application.Session{}, mapStoreError(err, application.ErrActiveSessionExists)
	}
	return a.GetSession(ctx, session.ID)
}

func (a *sessionRepositoryAdapter) GetSession(ctx context.Context, id string) (application.Session, error) {
	stored, err := a.repo.GetSession(ctx, id)
	if err != nil {
		return application.Session{}, mapStoreError(err, nil)
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) UpdateSession(ctx context.Context, session application.Session) (application.Session, error) {
	if err := a.repo.UpdateSession(ctx, toPersistenceSession(session)); err != nil {
		return application.Session{}, mapStoreError(err, application.ErrActiveSessionExists)
	}
	return a.GetSession(ctx, session.ID)
}

func (a *sessionRepositoryAdapter) DeleteSession(ctx context.Context, id string) error {
	return mapStoreError(a.repo.DeleteSession(ctx, id), nil)
}

func (a *sessionRepositoryAdapter) ListSessions(ctx context.Context, query application.SessionQuery) ([]application.Session, error) {
	filter := persistence.SessionFilter{
		UserID:        query.UserID,
		StartedFrom:   query.StartedFrom,
		StartedBefore: query.StartedBefore,
		Ascending:     query.Ascending,
		Limit:         query.Limit,
	}
	for _, status := range query.Statuses {
		filter.Statuses = append(filter.Statuses, string(status))
	}
	for _, sessionType := range query.Types {
		filter.Types = append(filter.Types, string(sessionType))
	}

	models, err := a.repo.ListSessions(ctx, filter)
	if err != nil {
		return nil, mapStoreError(err, nil)
	}
	if len(models) == 0 {
		return nil, nil
	}
	sessions := make([]application.Session, 0, len(models))
	for _, model := range models {
		sessions = append(sessions, toApplicationSession(model))
	}
	return sessions, nil
}

type blocklistRepositoryAdapter struct {
	repo persistence.BlocklistRepository
}

func newBlocklistRepositoryAdapter(repo persistence.BlocklistRepository) *blocklistRepositoryAdapter {
	return &blocklistRepositoryAdapter{repo: repo}
}

func (a *blocklistRepositoryAdapter) CreateBlocklistItem(ctx context.Context, item application.BlocklistItem) (application.BlocklistItem, error) {
	if err := a.repo.CreateBlocklistItem(ctx, toPersistenceBlocklistItem(item)); err != nil {
		return application.BlocklistItem{}, mapStoreError(err, application.ErrAlreadyExists)
	}
	return a.GetBlocklistItem(ctx, item.ID)
}

func (a *blocklistRepositoryAdapter) GetBlocklistItem(ctx context.Context, id string) (application.BlocklistItem, error) {
	stored, err := a.repo.GetBlocklistItem(ctx, id)
	if err != nil {
		return application.BlocklistItem{}, mapStoreError(err, nil)
	}
	return toApplicationBlocklistItem(stored), nil
}

func (a *blocklistRepositoryAdapter) UpdateBlocklistItem(ctx context.Context, item application.BlocklistItem) (application.BlocklistItem, error) {
	if err := a.repo.UpdateBlocklistItem(ctx, toPersistenceBlocklistItem(item)); err != nil {
		return application.BlocklistItem{}, mapStoreError(err, application.ErrAlreadyExists)
	}
	return a.GetBlocklistItem(ctx, item.ID)
}

func (a *blocklistRepositoryAdapter) DeleteBlocklistItem(ctx context.Context, id string) error {
	return mapStoreError(a.repo.DeleteBlocklistItem(ctx, id), nil)
}

func (a *blocklistRepositoryAdapter) ListBlocklistItems(ctx context.Context, userID string, activeOnly bool) ([]application.BlocklistItem, error) {
	models, err := a.repo.ListBlocklistItems(ctx, persistence.BlocklistFilter{UserID: userID, ActiveOnly: activeOnly})
	if err != nil {
		return nil, mapStoreError(err, nil)
	}
	if len(models) == 0 {
		return nil, nil
	}
	items := make([]application.BlocklistItem, 0, len(models))
	for _, model := range models {
		items = append(items, toApplicationBlocklistItem(model))
	}
	return items, nil
}

type tokenRepositoryAdapter struct {
	repo persistence.AuthTokenRepository
}

func newTokenRepositoryAdapter(repo persistence.AuthTokenRepository) *tokenRepositoryAdapter {
	return &tokenRepositoryAdapter{repo: repo}
}

func (a *tokenRepositoryAdapter) CreateToken(ctx context.Context, token application.AuthToken) (application.AuthToken, error) {
	stored, err := a.repo.CreateToken(ctx, toPersistenceToken(token))
	if err != nil {
		return application.AuthToken{}, mapStoreError(err, nil)
	}
	return toApplicationToken(stored), nil
}

func (a *tokenRepositoryAdapter) GetToken(ctx context.Context, token string) (application.AuthToken, error) {
	stored, err := a.repo.GetToken(ctx, token)
	if err != nil {
		return application.AuthToken{}, mapStoreError(err, nil)
	}
	return toApplicationToken(stored), nil
}

func (a *tokenRepositoryAdapter) RevokeToken(ctx context.Context, token string, revokedAt time.Time) (application.AuthToken, error) {
	stored, err := a.repo.RevokeToken(ctx, token, revokedAt)
	if err != nil {
		return application.AuthToken{}, mapStoreError(err, nil)
	}
	return toApplicationToken(stored), nil
}

func (a *tokenRepositoryAdapter) DeleteExpiredTokens(ctx context.Context, reference time.Time) error {
	return mapStoreError(a.repo.DeleteExpiredTokens(ctx, reference), nil)
}

func toApplicationUser(model persistence.User) application.User {
	return application.User{
		ID:        model.ID,
		Email:     model.Email,
		FirstName: cloneString(model.FirstName),
		LastName:  cloneString(model.LastName),
		Settings: application.Settings{
			WorkDuration:           model.WorkDuration,
			ShortBreakDuration:     model.ShortBreakDuration,
			LongBreakDuration:      model.LongBreakDuration,
			SessionsUntilLongBreak: model.SessionsUntilLongBreak,
			SoundEnabled:           model.SoundEnabled,
			SoundVolume:            model.SoundVolume,
			NotificationsEnabled:   model.NotificationsEnabled,
		},
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toPersistenceUser(user application.User, passwordHash string) persistence.User {
	return persistence.User{
		ID:                     user.ID,
		Email:                  user.Email,
		PasswordHash:           passwordHash,
		FirstName:              cloneString(user.FirstName),
		LastName:               cloneString(user.LastName),
		WorkDuration:           user.Settings.WorkDuration,
		ShortBreakDuration:     user.Settings.ShortBreakDuration,
		LongBreakDuration:      user.Settings.LongBreakDuration,
		SessionsUntilLongBreak: user.Settings.SessionsUntilLongBreak,
		SoundEnabled:           user.Settings.SoundEnabled,
		SoundVolume:            user.Settings.SoundVolume,
		NotificationsEnabled:   user.Settings.NotificationsEnabled,
		CreatedAt:              user.CreatedAt,
		UpdatedAt:              user.UpdatedAt,
	}
}

func toApplicationSession(model persistence.Session) application.Session {
	return application.Session{
		ID:                 model.ID,
		UserID:             model.UserID,
		Type:               application.SessionType(model.Type),
		Status:             application.SessionStatus(model.Status),
		PlannedDuration:    model.PlannedDuration,
		ActualDuration:     cloneInt(model.ActualDuration),
		InterruptionReason: cloneString(model.InterruptionReason),
		InterruptionCount:  model.InterruptionCount,
		StartedAt:          model.StartedAt,
		CompletedAt:        cloneTime(model.CompletedAt),
		UpdatedAt:          model.UpdatedAt,
	}
}

func toPersistenceSession(session application.Session) persistence.Session {
	return persistence.Session{
		ID:                 session.ID,
		UserID:             session.UserID,
		Type:               string(session.Type),
		Status:             string(session.Status),
		PlannedDuration:    session.PlannedDuration,
		ActualDuration:     cloneInt(session.ActualDuration),
		InterruptionReason: cloneString(session.InterruptionReason),
		InterruptionCount:  session.InterruptionCount,
		StartedAt:          session.StartedAt,
		CompletedAt:        cloneTime(session.CompletedAt),
		UpdatedAt:          session.UpdatedAt,
	}
}

func toApplicationBlocklistItem(model persistence.BlocklistItem) application.BlocklistItem {
	return application.BlocklistItem{
		ID:         model.ID,
		UserID:     model.UserID,
		Type:       application.BlockType(model.Type),
		Name:       model.Name,
		Identifier: model.Identifier,
		IsActive:   model.IsActive,
		Category:   cloneString(model.Category),
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
	}
}

func toPersistenceBlocklistItem(item application.BlocklistItem) persistence.BlocklistItem {
	return persistence.BlocklistItem{
		ID:         item.ID,
		UserID:     item.UserID,
		Type:       string(item.Type),
		Name:       item.Name,
		Identifier: item.Identifier,
		IsActive:   item.IsActive,
		Category:   cloneString(item.Category),
		CreatedAt:  item.CreatedAt,
		UpdatedAt:  item.UpdatedAt,
	}
}

func toApplicationToken(model persistence.AuthToken) application.AuthToken {
	return application.AuthToken{
		Token:     model.Token,
		UserID:    model.UserID,
		CreatedAt: model.CreatedAt,
		ExpiresAt: model.ExpiresAt,
		RevokedAt: cloneTime(model.RevokedAt),
	}
}

func toPersistenceToken(token application.AuthToken) persistence.AuthToken {
	return persistence.AuthToken{
		Token:     token.Token,
		UserID:    token.UserID,
		CreatedAt: token.CreatedAt,
		ExpiresAt: token.ExpiresAt,
		RevokedAt: cloneTime(token.RevokedAt),
	}
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}

func cloneInt(value *int) *int {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
