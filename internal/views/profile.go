package views

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/circulab/marketplace-go/internal/api"
	"github.com/circulab/marketplace-go/internal/model"
	"github.com/circulab/marketplace-go/internal/mutation"
	"github.com/circulab/marketplace-go/internal/normalize"
)

// DefaultMaxAvatarBytes is the client-side avatar size limit.
const DefaultMaxAvatarBytes = 5 * 1024 * 1024

// avatarTooLargeMessage is shown when the file is rejected before upload.
const avatarTooLargeMessage = "L'image ne doit pas dépasser 5MB"

// ErrAvatarTooLarge is returned when the avatar exceeds the size limit. The
// rejection happens client-side, before any network call.
var ErrAvatarTooLarge = errors.New("profile: avatar exceeds size limit")

// ProfileView composes the company profile page: the profile record, the
// derived completion stats, optimistic field updates, and avatar management.
type ProfileView struct {
	deps           *Deps
	maxAvatarBytes int64
	update         *mutation.Optimistic[model.UpdateProfileRequest, model.CompanyProfile]
}

// NewProfileView creates the profile view. maxAvatarBytes <= 0 uses the
// default 5MB limit.
func NewProfileView(deps *Deps, maxAvatarBytes int64) *ProfileView {
	if maxAvatarBytes <= 0 {
		maxAvatarBytes = DefaultMaxAvatarBytes
	}
	v := &ProfileView{deps: deps, maxAvatarBytes: maxAvatarBytes}

	v.update = &mutation.Optimistic[model.UpdateProfileRequest, model.CompanyProfile]{
		Cache:   deps.Cache,
		Key:     KeyProfile,
		Predict: mergeProfile,
		Call: func(ctx context.Context, req model.UpdateProfileRequest) ([]byte, error) {
			return deps.API.Do(ctx, http.MethodPut, "/companies/profile", req)
		},
		Commit: func(predicted model.CompanyProfile, response []byte) model.CompanyProfile {
			server := normalize.CompanyProfile(api.DecodeJSON(response))
			if server.ID == "" {
				return predicted
			}
			return server
		},
		Notify:         deps.notifier(),
		SuccessMessage: "Profil mis à jour",
		CascadeTrigger: TriggerProfileUpdate,
	}
	return v
}

func mergeProfile(current model.CompanyProfile, req model.UpdateProfileRequest) model.CompanyProfile {
	out := current
	if req.Name != "" {
		out.Name = req.Name
	}
	if req.Sector != "" {
		out.Sector = req.Sector
	}
	if req.Description != "" {
		out.Description = req.Description
	}
	if req.Address != "" {
		out.Address = req.Address
	}
	if req.Website != "" {
		out.Website = req.Website
	}
	if req.Email != "" {
		out.Email = req.Email
	}
	if req.Phone != "" {
		out.Phone = req.Phone
	}
	return out
}

// Profile returns the company profile.
func (v *ProfileView) Profile(ctx context.Context) (model.CompanyProfile, error) {
	return query(ctx, v.deps, KeyProfile, "/companies/profile", normalize.CompanyProfile)
}

// Completion returns the derived profile-completion stats.
func (v *ProfileView) Completion(ctx context.Context) (model.ProfileCompletion, error) {
	return query(ctx, v.deps, KeyProfileCompletion, "/companies/profile/completion", normalize.ProfileCompletion)
}

// Update optimistically merges the changed fields into the cached profile and
// sends them. Completion stats are invalidated through the cascade since they
// are derived from profile fields.
func (v *ProfileView) Update(ctx context.Context, req model.UpdateProfileRequest) error {
	return v.deps.handleAuthError(v.update.Run(ctx, req))
}

// UploadAvatar uploads a new avatar. Files over the limit are rejected
// client-side, before any network call. During the upload a temporary local
// preview file stands in for the real URL; it is released on success and on
// failure alike.
func (v *ProfileView) UploadAvatar(ctx context.Context, filename string, data []byte) error {
	if int64(len(data)) > v.maxAvatarBytes {
		v.deps.notifier().Error(avatarTooLargeMessage)
		return ErrAvatarTooLarge
	}

	preview, err := writePreview(filename, data)
	if err != nil {
		// Preview is best effort; the upload proceeds without it.
		preview = ""
	}
	defer releasePreview(preview)

	upload := &mutation.Optimistic[string, model.CompanyProfile]{
		Cache: v.deps.Cache,
		Key:   KeyProfile,
		Predict: func(current model.CompanyProfile, previewPath string) model.CompanyProfile {
			out := current
			if previewPath != "" {
				out.AvatarURL = previewPath
			}
			return out
		},
		Call: func(cctx context.Context, _ string) ([]byte, error) {
			return v.deps.API.Upload(cctx, "/companies/profile/avatar", "avatar", filename, bytes.NewReader(data), nil)
		},
		Commit: func(predicted model.CompanyProfile, response []byte) model.CompanyProfile {
			out := predicted
			if avatarURL := normalize.UnwrapObject(api.DecodeJSON(response)).String("", "avatar_url", "avatarUrl", "url"); avatarURL != "" {
				out.AvatarURL = avatarURL
			}
			return out
		},
		Notify:         v.deps.notifier(),
		SuccessMessage: "Avatar mis à jour",
		ErrorMessage:   mutation.UploadErrorMessage,
		CascadeTrigger: TriggerAvatarChange,
	}
	return v.deps.handleAuthError(upload.Run(ctx, preview))
}

// DeleteAvatar removes the avatar and invalidates completion stats.
func (v *ProfileView) DeleteAvatar(ctx context.Context) error {
	remove := &mutation.Optimistic[struct{}, model.CompanyProfile]{
		Cache: v.deps.Cache,
		Key:   KeyProfile,
		Predict: func(current model.CompanyProfile, _ struct{}) model.CompanyProfile {
			out := current
			out.AvatarURL = ""
			return out
		},
		Call: func(cctx context.Context, _ struct{}) ([]byte, error) {
			return v.deps.API.Do(cctx, http.MethodDelete, "/companies/profile/avatar", nil)
		},
		Notify:         v.deps.notifier(),
		SuccessMessage: "Avatar supprimé",
		CascadeTrigger: TriggerAvatarChange,
	}
	return v.deps.handleAuthError(remove.Run(ctx, struct{}{}))
}

// Avatar fetches the avatar binary.
func (v *ProfileView) Avatar(ctx context.Context) ([]byte, error) {
	data, _, err := v.deps.API.DownloadBlob(ctx, "/companies/profile/avatar")
	if err != nil {
		return nil, v.deps.handleAuthError(err)
	}
	return data, nil
}

func writePreview(filename string, data []byte) (string, error) {
	f, err := os.CreateTemp("", "avatar-preview-*"+filepath.Ext(filename))
	if err != nil {
		return "", err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func releasePreview(path string) {
	if path != "" {
		os.Remove(path)
	}
}
