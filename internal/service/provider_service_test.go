package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/skills-directory/internal/pkg/apperror"
)

func newTestProviderService(st *fakeStores, pictures *mockPictureStore, cache *CacheService) *ProviderService {
	return NewProviderService(st.categories, st.providers, st.skills, pictures, cache)
}

func TestProviderService_SaveProfile_CreatesThenUpdates(t *testing.T) {
	st := newFakeStores()
	plumbing := st.db.addCategory("Plumbing")
	painting := st.db.addCategory("Painting")
	user := st.db.addUser("jsmith", "John", "Smith")
	svc := newTestProviderService(st, &mockPictureStore{}, nil)
	ctx := context.Background()

	provider, err := svc.SaveProfile(ctx, user, ProfileInput{
		CompanyName: "Smith & Sons",
		AboutMe:     "Family plumbers",
		CategoryIDs: []uuid.UUID{plumbing.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, "smith-and-sons", provider.Slug)
	require.NotNil(t, provider.CompanyName)
	assert.Nil(t, provider.PhoneNumber, "empty fields are stored as NULL")
	assert.Equal(t, []uuid.UUID{plumbing.ID}, st.db.providerCategories[user.ID])

	provider, err = svc.SaveProfile(ctx, user, ProfileInput{
		CompanyName: "Renamed Co",
		PhoneNumber: "555-0100",
		CategoryIDs: []uuid.UUID{painting.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, "smith-and-sons", provider.Slug, "slug survives renames")
	assert.Equal(t, "Renamed Co", *st.db.providers[user.ID].CompanyName)
	assert.Equal(t, []uuid.UUID{painting.ID}, st.db.providerCategories[user.ID])
}

func TestProviderService_SaveProfile_UniqueSlug(t *testing.T) {
	st := newFakeStores()
	svc := newTestProviderService(st, &mockPictureStore{}, nil)
	ctx := context.Background()

	first, err := svc.SaveProfile(ctx, st.db.addUser("one", "", ""), ProfileInput{CompanyName: "Acme"})
	require.NoError(t, err)
	second, err := svc.SaveProfile(ctx, st.db.addUser("two", "", ""), ProfileInput{CompanyName: "Acme"})
	require.NoError(t, err)

	assert.Equal(t, "acme", first.Slug)
	assert.Equal(t, "acme-2", second.Slug)

	// без компании и имени slug строится из username
	third, err := svc.SaveProfile(ctx, st.db.addUser("loner", "", ""), ProfileInput{})
	require.NoError(t, err)
	assert.Equal(t, "loner", third.Slug)
}

func TestProviderService_SaveProfile_UnknownCategory(t *testing.T) {
	st := newFakeStores()
	user := st.db.addUser("jsmith", "John", "Smith")
	svc := newTestProviderService(st, &mockPictureStore{}, nil)

	_, err := svc.SaveProfile(context.Background(), user, ProfileInput{CategoryIDs: []uuid.UUID{uuid.New()}})
	require.Error(t, err)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "categories", appErr.Field)
	assert.Empty(t, st.db.providers, "nothing is written on validation failure")
}

func TestProviderService_SaveProfile_InvalidatesCache(t *testing.T) {
	st := newFakeStores()
	user := st.db.addUser("jsmith", "John", "Smith")
	cache := NewCacheService(context.Background(), 0)
	svc := newTestProviderService(st, &mockPictureStore{}, cache)

	cache.Set(MainPageCacheKey(), "stale", time.Minute)
	cache.Set("other", "kept", time.Minute)

	_, err := svc.SaveProfile(context.Background(), user, ProfileInput{CompanyName: "Acme"})
	require.NoError(t, err)

	_, found := cache.Get(MainPageCacheKey())
	assert.False(t, found)
	_, found = cache.Get("other")
	assert.True(t, found)
}

func TestProviderService_EditProfile(t *testing.T) {
	st := newFakeStores()
	plumbing := st.db.addCategory("Plumbing")
	st.db.addCategory("Painting")
	user := st.db.addUser("jsmith", "John", "Smith")
	svc := newTestProviderService(st, &mockPictureStore{}, nil)
	ctx := context.Background()

	edit, err := svc.EditProfile(ctx, user)
	require.NoError(t, err)
	assert.Nil(t, edit.Provider)
	assert.Len(t, edit.Categories, 2)

	provider := st.db.addProvider(user, "Acme", plumbing)
	st.db.addSkill(provider, "Leak fixing", "")

	edit, err = svc.EditProfile(ctx, user)
	require.NoError(t, err)
	require.NotNil(t, edit.Provider)
	assert.Equal(t, "Acme", edit.Provider.DisplayName())
	require.Len(t, edit.Provider.Categories, 1)
	assert.Equal(t, plumbing.ID, edit.Provider.Categories[0].ID)
	assert.Len(t, edit.Provider.Skills, 1)
}

func TestProviderService_SetPicture(t *testing.T) {
	st := newFakeStores()
	user := st.db.addUser("jsmith", "John", "Smith")
	pictures := &mockPictureStore{}
	svc := newTestProviderService(st, pictures, nil)
	ctx := context.Background()
	body := strings.NewReader("png bytes")

	pictures.On("Save", ctx, user.ID, "image/png", body).Return("pictures/first.png", nil).Once()

	provider, err := svc.SetPicture(ctx, user, "image/png", body)
	require.NoError(t, err)
	require.NotNil(t, provider.Picture)
	assert.Equal(t, "pictures/first.png", *provider.Picture)
	assert.Equal(t, "john-smith", provider.Slug, "card is created on first upload")

	next := strings.NewReader("jpeg bytes")
	pictures.On("Save", ctx, user.ID, "image/jpeg", next).Return("pictures/second.jpg", nil).Once()
	pictures.On("Delete", ctx, "pictures/first.png").Return(nil).Once()

	provider, err = svc.SetPicture(ctx, user, "image/jpeg", next)
	require.NoError(t, err)
	assert.Equal(t, "pictures/second.jpg", *st.db.providers[user.ID].Picture)
	assert.Equal(t, "pictures/second.jpg", *provider.Picture)

	pictures.AssertExpectations(t)
}

func TestProviderService_SetPicture_SaveFails(t *testing.T) {
	st := newFakeStores()
	user := st.db.addUser("jsmith", "John", "Smith")
	pictures := &mockPictureStore{}
	svc := newTestProviderService(st, pictures, nil)

	pictures.On("Save", mock.Anything, user.ID, "image/gif", mock.Anything).Return("", errors.New("disk full"))

	_, err := svc.SetPicture(context.Background(), user, "image/gif", strings.NewReader("gif"))
	assert.EqualError(t, err, "disk full")
	assert.Nil(t, st.db.providers[user.ID].Picture)
	pictures.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestProviderService_AddSkill(t *testing.T) {
	st := newFakeStores()
	user := st.db.addUser("jsmith", "John", "Smith")
	svc := newTestProviderService(st, &mockPictureStore{}, nil)
	ctx := context.Background()

	skill, err := svc.AddSkill(ctx, user, SkillInput{Name: "Leak fixing", Description: "Any leak", CostRange: "$20 - $40"})
	require.NoError(t, err)
	assert.Equal(t, "leak-fixing", skill.Slug)
	assert.Equal(t, user.ID, skill.ProviderID)
	require.NotNil(t, skill.CostRange)
	assert.Contains(t, st.db.providers, user.ID, "provider card is created with the first skill")

	again, err := svc.AddSkill(ctx, user, SkillInput{Name: "Leak fixing", Description: "Another"})
	require.NoError(t, err)
	assert.Equal(t, "leak-fixing-2", again.Slug)
	assert.Nil(t, again.CostRange)

	symbols, err := svc.AddSkill(ctx, user, SkillInput{Name: "!!!", Description: "Odd name"})
	require.NoError(t, err)
	assert.Equal(t, "jsmith-skill", symbols.Slug)
}

func TestProviderService_UpdateSkill(t *testing.T) {
	st := newFakeStores()
	owner := st.db.addUser("owner", "Olga", "Owner")
	other := st.db.addUser("other", "Oscar", "Other")
	skill := st.db.addSkill(st.db.addProvider(owner, ""), "Tiling", "$10")
	cache := NewCacheService(context.Background(), 0)
	svc := newTestProviderService(st, &mockPictureStore{}, cache)
	ctx := context.Background()

	_, err := svc.UpdateSkill(ctx, other, skill.Slug, SkillInput{Name: "Hijack", Description: "x"})
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	assert.Equal(t, "Tiling", st.db.skills[skill.ID].Name)

	_, err = svc.UpdateSkill(ctx, owner, "missing", SkillInput{Name: "x", Description: "x"})
	assert.ErrorIs(t, err, apperror.ErrSkillNotFound)

	cache.Set(MainPageCacheKey(), "stale", time.Minute)
	updated, err := svc.UpdateSkill(ctx, owner, skill.Slug, SkillInput{Name: "Floor tiling", Description: "Floors only"})
	require.NoError(t, err)
	assert.Equal(t, "Floor tiling", updated.Name)
	assert.Equal(t, skill.Slug, updated.Slug, "slug is not regenerated on update")
	assert.Nil(t, st.db.skills[skill.ID].CostRange)
	assert.Zero(t, cache.Len())
}
