package service

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certifyeasy/internal/database"
	"certifyeasy/internal/models"
	"certifyeasy/internal/repository"
	"certifyeasy/internal/validation"
)

func openDB(t *testing.T) *database.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping database test in short mode")
	}
	db, err := database.Initialize(filepath.Join(t.TempDir(), "svc.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations(context.Background()))
	return db
}

func newAuth(t *testing.T, duration time.Duration) (*AuthService, *repository.UserRepository) {
	db := openDB(t)
	users := repository.NewUserRepository(db)
	return NewAuthService(users, duration, nil), users
}

func TestSignupAndLogin(t *testing.T) {
	auth, _ := newAuth(t, time.Hour)
	ctx := context.Background()

	user, err := auth.Signup(ctx, "  alice ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.NotEqual(t, "secret1", user.PasswordHash)

	_, err = auth.Signup(ctx, "alice", "another")
	assert.ErrorIs(t, err, ErrUsernameTaken)

	session, loggedIn, err := auth.Login(ctx, "alice", "secret1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
	assert.True(t, session.ExpiresAt.After(time.Now()))

	_, _, err = auth.Login(ctx, "alice", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = auth.Login(ctx, "nobody", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	got, err := auth.ValidateSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	require.NoError(t, auth.Logout(ctx, session.ID))
	_, err = auth.ValidateSession(ctx, session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSignupValidation(t *testing.T) {
	auth, _ := newAuth(t, time.Hour)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"short username", "ab", "secret1"},
		{"bad characters", "bad name", "secret1"},
		{"short password", "charlie", "12345"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.Signup(ctx, tt.username, tt.password)
			var verr validation.ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestExpiredSession(t *testing.T) {
	auth, _ := newAuth(t, -time.Minute)
	ctx := context.Background()

	_, err := auth.Signup(ctx, "bob", "secret1")
	require.NoError(t, err)
	session, _, err := auth.Login(ctx, "bob", "secret1")
	require.NoError(t, err)

	_, err = auth.ValidateSession(ctx, session.ID)
	assert.ErrorIs(t, err, ErrSessionExpired)

	// validation already removed it
	_, err = auth.ValidateSession(ctx, session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	assert.NoError(t, auth.CleanupExpiredSessions(ctx))
}

func TestOAuthLogin(t *testing.T) {
	auth, users := newAuth(t, time.Hour)
	ctx := context.Background()

	_, first, err := auth.OAuthLogin(ctx, "google", "sub-1", "dana@example.com", "Dana")
	require.NoError(t, err)
	assert.Equal(t, "dana", first.Username)

	_, again, err := auth.OAuthLogin(ctx, "google", "sub-1", "dana@example.com", "Dana")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	// same local part, different account
	_, second, err := auth.OAuthLogin(ctx, "google", "sub-2", "dana@other.org", "Dana")
	require.NoError(t, err)
	assert.Equal(t, "dana-2", second.Username)

	// a password account named after the e-mail gets linked
	local, err := auth.Signup(ctx, "erin@example.com", "secret1")
	require.NoError(t, err)
	_, linked, err := auth.OAuthLogin(ctx, "google", "sub-3", "erin@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, local.ID, linked.ID)

	stored, err := users.GetUserByOAuth(ctx, "google", "sub-3")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, local.ID, stored.ID)

	_, _, err = auth.OAuthLogin(ctx, "", "", "x@example.com", "")
	assert.Error(t, err)
}

func TestOAuthUsername(t *testing.T) {
	assert.Equal(t, "first.last", oauthUsername("first+last@example.com", ""))
	assert.Equal(t, "jo_", oauthUsername("", "jo"))
	assert.Equal(t, "Pat.Smith", oauthUsername("", "Pat Smith"))
}

func TestBackupRoundTrip(t *testing.T) {
	src := openDB(t)
	ctx := context.Background()

	users := repository.NewUserRepository(src)
	user, err := users.CreateUser(ctx, "frank", "hash", "", "")
	require.NoError(t, err)

	progress := repository.NewProgressRepository(src)
	_, err = progress.GetOrCreateCounter(ctx, user.ID, "CIA", "1", "Governance", 4)
	require.NoError(t, err)
	require.NoError(t, progress.IncrementCompleted(ctx, user.ID, "CIA", "1", "Governance"))
	require.NoError(t, progress.UpsertMissed(ctx, models.MissedQuestion{
		UserID: user.ID, Exam: "CIA", Part: "1", Subject: "Governance",
		QuestionText: "Q?", CorrectAnswer: "A", Options: []string{"A", "B", "C", "D"},
	}))

	var buf bytes.Buffer
	require.NoError(t, NewBackupService(src, nil).ExportToWriter(ctx, &buf))

	var decoded BackupData
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, backupVersion, decoded.Version)
	require.Len(t, decoded.Users, 1)
	assert.Equal(t, "hash", decoded.Users[0].PasswordHash)

	dst := openDB(t)
	restore := NewBackupService(dst, nil)
	require.NoError(t, restore.ImportFromReader(ctx, bytes.NewReader(buf.Bytes())))
	// importing twice keeps existing rows
	require.NoError(t, restore.ImportFromReader(ctx, bytes.NewReader(buf.Bytes())))

	restored, err := repository.NewUserRepository(dst).GetUserByUsername(ctx, "frank")
	require.NoError(t, err)
	require.NotNil(t, restored)
	assert.Equal(t, user.ID, restored.ID)

	counter, ok, err := repository.NewProgressRepository(dst).GetCounter(ctx, user.ID, "CIA", "1", "Governance")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, counter.Completed)
	assert.Equal(t, 4, counter.Total)

	missed, err := repository.NewProgressRepository(dst).CountMissed(ctx, user.ID, "CIA", "1", "Governance")
	require.NoError(t, err)
	assert.Equal(t, 1, missed)

	require.NoError(t, restore.ClearData(ctx))
	all, err := repository.NewUserRepository(dst).GetAllUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
