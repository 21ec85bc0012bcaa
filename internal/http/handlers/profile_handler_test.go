package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/skills-directory/internal/models"
	"github.com/ignatzorin/skills-directory/internal/pkg/apperror"
	"github.com/ignatzorin/skills-directory/internal/service"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func newProfileRouter(t *testing.T, profiles *mockProfiles, user *models.User) *gin.Engine {
	r := newTestRouter(t, user)
	h := NewProfileHandler(profiles, 1<<20)
	r.GET("/accounts/profile/", h.EditPage)
	r.POST("/accounts/profile/", h.Save)
	r.POST("/accounts/skills/", h.AddSkill)
	r.POST("/accounts/skills/:slug", h.UpdateSkill)
	return r
}

type upload struct {
	name    string
	content []byte
}

func multipartRequest(t *testing.T, fields url.Values, file *upload) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for key, values := range fields {
		for _, v := range values {
			require.NoError(t, mw.WriteField(key, v))
		}
	}
	if file != nil {
		fw, err := mw.CreateFormFile("picture", file.name)
		require.NoError(t, err)
		_, err = fw.Write(file.content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, "/accounts/profile/", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestProfileHandler_EditPage_Prefilled(t *testing.T) {
	user := testUser("jsmith")
	plumbing := models.Category{ID: uuid.New(), Name: "Plumbing", Slug: "plumbing"}
	painting := models.Category{ID: uuid.New(), Name: "Painting", Slug: "painting"}

	profiles := &mockProfiles{}
	profiles.On("EditProfile", mock.Anything, user).Return(&service.ProfileEdit{
		Categories: []models.Category{painting, plumbing},
		Provider: &models.Provider{
			UserID:      user.ID,
			Username:    user.Username,
			CompanyName: strPtr("Acme"),
			Categories:  []models.Category{plumbing},
			Skills:      []models.Skill{{Name: "Leak fixing", Slug: "leak-fixing", Description: "Leaks"}},
		},
	}, nil)

	w := get(newProfileRouter(t, profiles, user), "/accounts/profile/", false)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `value="Acme"`)
	assert.Contains(t, body, `value="`+plumbing.ID.String()+`" checked`)
	assert.NotContains(t, body, `value="`+painting.ID.String()+`" checked`)
	assert.Contains(t, body, `action="/accounts/skills/leak-fixing"`)
}

func TestProfileHandler_Save_WithPicture(t *testing.T) {
	user := testUser("jsmith")
	categoryID := uuid.New()

	profiles := &mockProfiles{}
	profiles.On("SaveProfile", mock.Anything, user, service.ProfileInput{
		CompanyName: "Acme",
		AboutMe:     "We fix things",
		CategoryIDs: []uuid.UUID{categoryID},
	}).Return(&models.Provider{UserID: user.ID}, nil)
	profiles.On("SetPicture", mock.Anything, user, "image/png", mock.Anything).Return(&models.Provider{UserID: user.ID}, nil)

	req := multipartRequest(t, url.Values{
		"company_name": {" Acme "},
		"about_me":     {"We fix things"},
		"categories":   {categoryID.String(), categoryID.String()},
	}, &upload{name: "me.png", content: pngHeader})
	w := serve(newProfileRouter(t, profiles, user), req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/Profiles/jsmith", w.Header().Get("Location"))
	profiles.AssertExpectations(t)
}

func TestProfileHandler_Save_WithoutPicture(t *testing.T) {
	user := testUser("jsmith")
	profiles := &mockProfiles{}
	profiles.On("SaveProfile", mock.Anything, user, mock.Anything).Return(&models.Provider{UserID: user.ID}, nil)

	req := multipartRequest(t, url.Values{"company_name": {"Acme"}}, nil)
	w := serve(newProfileRouter(t, profiles, user), req)

	assert.Equal(t, http.StatusFound, w.Code)
	profiles.AssertNotCalled(t, "SetPicture", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProfileHandler_Save_RejectsBadPictures(t *testing.T) {
	tests := []struct {
		name    string
		file    upload
		message string
	}{
		{name: "not an image", file: upload{name: "notes.png", content: []byte("just some text")}, message: msgInvalidImage},
		{name: "extension mismatch", file: upload{name: "photo.jpg", content: pngHeader}, message: msgImageExtension},
		{name: "too large", file: upload{name: "big.png", content: append(append([]byte{}, pngHeader...), make([]byte, 1<<20)...)}, message: "The picture must not be larger than 1 MB."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := testUser("jsmith")
			profiles := &mockProfiles{}
			profiles.On("EditProfile", mock.Anything, user).Return(&service.ProfileEdit{}, nil)

			file := tt.file
			req := multipartRequest(t, url.Values{"company_name": {"Acme"}}, &file)
			w := serve(newProfileRouter(t, profiles, user), req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tt.message)
			assert.Contains(t, w.Body.String(), `value="Acme"`, "submitted values are kept")
			profiles.AssertNotCalled(t, "SaveProfile", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestProfileHandler_Save_ServiceFieldError(t *testing.T) {
	user := testUser("jsmith")
	profiles := &mockProfiles{}
	profiles.On("EditProfile", mock.Anything, user).Return(&service.ProfileEdit{}, nil)
	profiles.On("SaveProfile", mock.Anything, user, mock.Anything).
		Return(nil, apperror.FieldError("categories", "Select a valid choice. That choice is not one of the available choices."))

	req := multipartRequest(t, url.Values{"categories": {uuid.NewString()}}, nil)
	w := serve(newProfileRouter(t, profiles, user), req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Select a valid choice.")
}

func TestProfileHandler_AddSkill(t *testing.T) {
	user := testUser("jsmith")
	profiles := &mockProfiles{}
	profiles.On("AddSkill", mock.Anything, user, service.SkillInput{Name: "Leak fixing", Description: "Any leak", CostRange: "$20"}).
		Return(&models.Skill{Slug: "leak-fixing"}, nil)
	profiles.On("EditProfile", mock.Anything, user).Return(&service.ProfileEdit{}, nil)
	r := newProfileRouter(t, profiles, user)

	w := postForm(r, "/accounts/skills/", url.Values{"name": {"Leak fixing"}, "description": {"Any leak"}, "cost_range": {"$20"}})
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, ProfileEditPath, w.Header().Get("Location"))

	w = postForm(r, "/accounts/skills/", url.Values{"name": {"Leak fixing"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "This field is required.")
	assert.Contains(t, w.Body.String(), `value="Leak fixing"`)
	profiles.AssertNumberOfCalls(t, "AddSkill", 1)
}

func TestProfileHandler_UpdateSkill(t *testing.T) {
	user := testUser("jsmith")
	input := service.SkillInput{Name: "Tiling", Description: "Floors"}

	tests := []struct {
		name     string
		slug     string
		err      error
		wantCode int
		wantBody string
	}{
		{name: "success", slug: "tiling", wantCode: http.StatusFound},
		{name: "foreign skill", slug: "theirs", err: apperror.ErrForbidden, wantCode: http.StatusForbidden, wantBody: "You do not have permission to do that."},
		{name: "missing skill", slug: "missing", err: apperror.ErrSkillNotFound, wantCode: http.StatusNotFound, wantBody: "Skill not found."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profiles := &mockProfiles{}
			var skill *models.Skill
			if tt.err == nil {
				skill = &models.Skill{Slug: tt.slug}
			}
			profiles.On("UpdateSkill", mock.Anything, user, tt.slug, input).Return(skill, tt.err)

			w := postForm(newProfileRouter(t, profiles, user), "/accounts/skills/"+tt.slug, url.Values{"name": {"Tiling"}, "description": {"Floors"}})

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantBody != "" {
				assert.Contains(t, w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestProfileHandler_UpdateSkill_ValidationShowsErrorsOnThatSkill(t *testing.T) {
	user := testUser("jsmith")
	profiles := &mockProfiles{}
	profiles.On("EditProfile", mock.Anything, user).Return(&service.ProfileEdit{
		Provider: &models.Provider{
			UserID:   user.ID,
			Username: user.Username,
			Skills:   []models.Skill{{Name: "Tiling", Slug: "tiling", Description: "Floors"}},
		},
	}, nil)

	w := postForm(newProfileRouter(t, profiles, user), "/accounts/skills/tiling", url.Values{"name": {""}, "description": {"Floors"}})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "This field is required.")
	profiles.AssertNotCalled(t, "UpdateSkill", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProfileHandler_UpdateSkill_KeepsSubmittedValues(t *testing.T) {
	user := testUser("jsmith")
	conflict := apperror.New(apperror.ErrCodeConflict, "Try again.")

	tests := []struct {
		name   string
		values url.Values
		err    error
	}{
		{name: "validation error", values: url.Values{"name": {"  "}, "description": {"Bathrooms only"}, "cost_range": {"$99"}}},
		{name: "service error", values: url.Values{"name": {"Wall tiling"}, "description": {"Bathrooms only"}, "cost_range": {"$99"}}, err: conflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profiles := &mockProfiles{}
			profiles.On("EditProfile", mock.Anything, user).Return(&service.ProfileEdit{
				Provider: &models.Provider{
					UserID:   user.ID,
					Username: user.Username,
					Skills:   []models.Skill{{Name: "Tiling", Slug: "tiling", Description: "Floors"}},
				},
			}, nil)
			if tt.err != nil {
				profiles.On("UpdateSkill", mock.Anything, user, "tiling", mock.Anything).Return(nil, tt.err)
			}

			w := postForm(newProfileRouter(t, profiles, user), "/accounts/skills/tiling", tt.values)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			body := w.Body.String()
			assert.Contains(t, body, ">Bathrooms only</textarea>")
			assert.Contains(t, body, `value="$99"`)
			assert.NotContains(t, body, ">Floors</textarea>")
			assert.Contains(t, body, `id="id_description" rows="3" required></textarea>`, "add form stays empty")
		})
	}
}

func TestFormFromProvider(t *testing.T) {
	assert.Equal(t, "", formFromProvider(nil).CompanyName)

	id := uuid.New()
	form := formFromProvider(&models.Provider{
		CompanyName: strPtr("Acme"),
		Website:     strPtr("https://acme.example"),
		AboutMe:     "About",
		Categories:  []models.Category{{ID: id}},
	})
	assert.Equal(t, "Acme", form.CompanyName)
	assert.Equal(t, "https://acme.example", form.Website)
	assert.Equal(t, "", form.PhoneNumber)
	assert.True(t, form.Selected(id))
}
