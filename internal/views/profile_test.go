package views

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/circulab/marketplace-go/internal/apitest"
	"github.com/circulab/marketplace-go/internal/model"
)

func TestProfileRead(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	deps, _ := newTestDeps(t, srv)
	view := NewProfileView(deps, 0)

	profile, err := view.Profile(context.Background())
	require.NoError(t, err)
	require.Equal(t, "co-1", profile.ID)
	require.Equal(t, "Atelier Circulaire", profile.Name)
	require.Equal(t, "/media/co-1.png", profile.AvatarURL)
}

func TestProfileUpdateOptimistic(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	deps, notify := newTestDeps(t, srv)
	view := NewProfileView(deps, 0)

	_, err := view.Profile(context.Background())
	require.NoError(t, err)

	require.NoError(t, view.Update(context.Background(), model.UpdateProfileRequest{Sector: "verre"}))

	v, ok := deps.Cache.Get(KeyProfile)
	require.True(t, ok)
	after, _ := v.(model.CompanyProfile)
	require.Equal(t, "verre", after.Sector)
	// Untouched fields survive the merge.
	require.Equal(t, "Atelier Circulaire", after.Name)
	require.Contains(t, notify.successes, "Profil mis à jour")
}

func TestProfileUpdateRollsBackOnFailure(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	deps, _ := newTestDeps(t, srv)
	view := NewProfileView(deps, 0)

	before, err := view.Profile(context.Background())
	require.NoError(t, err)

	srv.Fail("PUT /companies/profile", apitest.Failure{Status: 500})

	require.Error(t, view.Update(context.Background(), model.UpdateProfileRequest{Sector: "verre"}))

	v, ok := deps.Cache.Get(KeyProfile)
	require.True(t, ok)
	require.Equal(t, before, v)
}

func TestUploadAvatarRejectsOversizedFile(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	deps, notify := newTestDeps(t, srv)
	view := NewProfileView(deps, 0)

	oversized := make([]byte, DefaultMaxAvatarBytes+1)
	err := view.UploadAvatar(context.Background(), "logo.png", oversized)
	require.ErrorIs(t, err, ErrAvatarTooLarge)
	require.Equal(t, "L'image ne doit pas dépasser 5MB", notify.lastError())
	// The rejection happens before any network call.
	require.Equal(t, 0, srv.Count("POST /companies/profile/avatar"))
}

func TestUploadAvatarCommitsServerURL(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	deps, notify := newTestDeps(t, srv)
	view := NewProfileView(deps, 0)

	_, err := view.Profile(context.Background())
	require.NoError(t, err)

	require.NoError(t, view.UploadAvatar(context.Background(), "logo.png", []byte("png-bytes")))

	v, _ := deps.Cache.Get(KeyProfile)
	after, _ := v.(model.CompanyProfile)
	require.Equal(t, "/media/logo.png", after.AvatarURL)
	require.Contains(t, notify.successes, "Avatar mis à jour")
	require.Equal(t, 1, srv.Count("POST /companies/profile/avatar"))
}

func TestUploadAvatarMapsValidationErrors(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	deps, notify := newTestDeps(t, srv)
	view := NewProfileView(deps, 0)

	srv.Fail("POST /companies/profile/avatar", apitest.Failure{Status: 415})

	err := view.UploadAvatar(context.Background(), "notes.txt", []byte("pas une image"))
	require.Error(t, err)
	require.Equal(t, "Type de fichier non supporté", notify.lastError())
}

func TestDeleteAvatarClearsURL(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	deps, _ := newTestDeps(t, srv)
	view := NewProfileView(deps, 0)

	_, err := view.Profile(context.Background())
	require.NoError(t, err)

	require.NoError(t, view.DeleteAvatar(context.Background()))

	v, _ := deps.Cache.Get(KeyProfile)
	after, _ := v.(model.CompanyProfile)
	require.Empty(t, after.AvatarURL)
}

func TestProfileUpdateInvalidatesCompletion(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	deps, _ := newTestDeps(t, srv)
	view := NewProfileView(deps, 0)

	_, err := view.Completion(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, srv.Count("GET /companies/profile/completion"))

	require.NoError(t, view.Update(context.Background(), model.UpdateProfileRequest{Phone: "0612345678"}))

	// The completion key was invalidated by the cascade; the next read
	// refetches in the background.
	_, err = view.Completion(context.Background())
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return srv.Count("GET /companies/profile/completion") == 2
	}, 3*time.Second, 10*time.Millisecond)
}
