package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/skills-directory/internal/forms"
	"github.com/ignatzorin/skills-directory/internal/http/middleware"
	"github.com/ignatzorin/skills-directory/internal/models"
	"github.com/ignatzorin/skills-directory/internal/pkg/apperror"
	"github.com/ignatzorin/skills-directory/internal/service"
	"github.com/ignatzorin/skills-directory/internal/storage"
)

// ProfileEditPath: страница редактирования своей карточки.
const ProfileEditPath = "/accounts/profile/"

// запас на остальные поля multipart формы сверх лимита файла
const formOverheadBytes = 1 << 20

const (
	msgInvalidImage   = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
	msgImageExtension = "File extension does not match the uploaded image type."
)

// Profiles: изменение карточки исполнителя и его услуг.
type Profiles interface {
	EditProfile(ctx context.Context, user *models.User) (*service.ProfileEdit, error)
	SaveProfile(ctx context.Context, user *models.User, in service.ProfileInput) (*models.Provider, error)
	SetPicture(ctx context.Context, user *models.User, mime string, r io.Reader) (*models.Provider, error)
	AddSkill(ctx context.Context, user *models.User, in service.SkillInput) (*models.Skill, error)
	UpdateSkill(ctx context.Context, user *models.User, slug string, in service.SkillInput) (*models.Skill, error)
}

// ProfileHandler обслуживает /accounts/profile/ и /accounts/skills/.
type ProfileHandler struct {
	profiles       Profiles
	maxUploadBytes int64
}

// NewProfileHandler создаёт хэндлер профиля.
func NewProfileHandler(profiles Profiles, maxUploadBytes int64) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, maxUploadBytes: maxUploadBytes}
}

// editState: всё, что нужно странице редактирования профиля.
type editState struct {
	form        *forms.ProfileForm
	errs        forms.Errors
	skillForm   forms.SkillForm
	skillErrs   forms.Errors
	editingSlug string
}

// EditPage обрабатывает GET /accounts/profile/.
func (h *ProfileHandler) EditPage(c *gin.Context) {
	h.renderEdit(c, http.StatusOK, editState{})
}

// Save обрабатывает POST /accounts/profile/ (multipart с необязательной фотографией).
func (h *ProfileHandler) Save(c *gin.Context) {
	user := middleware.CurrentUser(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+formOverheadBytes)

	var form forms.ProfileForm
	errs := forms.Bind(c, &form)

	picture, mime := h.readPicture(c, errs)
	if picture != nil {
		defer picture.Close()
	}

	if errs.Any() {
		h.renderEdit(c, http.StatusBadRequest, editState{form: &form, errs: errs})
		return
	}

	_, err := h.profiles.SaveProfile(c.Request.Context(), user, service.ProfileInput{
		CompanyName:  form.CompanyName,
		PhoneNumber:  form.PhoneNumber,
		EmailAddress: form.EmailAddress,
		AboutMe:      form.AboutMe,
		Website:      form.Website,
		CategoryIDs:  form.CategoryIDs(),
	})
	if err != nil {
		if errs.AddError(err) {
			h.renderEdit(c, http.StatusBadRequest, editState{form: &form, errs: errs})
			return
		}
		fail(c, err)
		return
	}

	if picture != nil {
		if _, err := h.profiles.SetPicture(c.Request.Context(), user, mime, picture); err != nil {
			if errors.Is(err, storage.ErrTooLarge) || errors.Is(err, storage.ErrNotImage) {
				errs.Add("picture", pictureMessage(err, h.maxUploadBytes))
				h.renderEdit(c, http.StatusBadRequest, editState{form: &form, errs: errs})
				return
			}
			fail(c, err)
			return
		}
	}

	c.Redirect(http.StatusFound, models.ProfileURL(user.Username))
}

// AddSkill обрабатывает POST /accounts/skills/.
func (h *ProfileHandler) AddSkill(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var form forms.SkillForm
	errs := forms.Bind(c, &form)
	if errs.Any() {
		h.renderEdit(c, http.StatusBadRequest, editState{skillForm: form, skillErrs: errs})
		return
	}

	if _, err := h.profiles.AddSkill(c.Request.Context(), user, skillInput(form)); err != nil {
		if errs.AddError(err) {
			h.renderEdit(c, http.StatusBadRequest, editState{skillForm: form, skillErrs: errs})
			return
		}
		fail(c, err)
		return
	}

	c.Redirect(http.StatusFound, ProfileEditPath)
}

// UpdateSkill обрабатывает POST /accounts/skills/:slug.
func (h *ProfileHandler) UpdateSkill(c *gin.Context) {
	user := middleware.CurrentUser(c)
	slug := c.Param("slug")

	var form forms.SkillForm
	errs := forms.Bind(c, &form)
	if errs.Any() {
		h.renderEdit(c, http.StatusBadRequest, editState{skillForm: form, skillErrs: errs, editingSlug: slug})
		return
	}

	if _, err := h.profiles.UpdateSkill(c.Request.Context(), user, slug, skillInput(form)); err != nil {
		if apperror.IsNotFound(err) || apperror.IsForbidden(err) || !errs.AddError(err) {
			fail(c, err)
			return
		}
		h.renderEdit(c, http.StatusBadRequest, editState{skillForm: form, skillErrs: errs, editingSlug: slug})
		return
	}

	c.Redirect(http.StatusFound, ProfileEditPath)
}

// readPicture достаёт необязательный файл "picture" и проверяет, что это изображение.
// Ошибки проверки записываются в errs.
func (h *ProfileHandler) readPicture(c *gin.Context, errs forms.Errors) (pictureFile, string) {
	header, err := c.FormFile("picture")
	if err != nil {
		if !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
			errs.Add("picture", msgInvalidImage)
		}
		return nil, ""
	}
	if header.Size == 0 {
		return nil, ""
	}
	if header.Size > h.maxUploadBytes {
		errs.Add("picture", pictureMessage(storage.ErrTooLarge, h.maxUploadBytes))
		return nil, ""
	}

	file, err := header.Open()
	if err != nil {
		errs.Add("picture", msgInvalidImage)
		return nil, ""
	}

	mime, err := storage.DetectImage(file, header.Filename)
	if err != nil {
		_ = file.Close()
		errs.Add("picture", pictureMessage(err, h.maxUploadBytes))
		return nil, ""
	}

	return file, mime
}

type pictureFile interface {
	io.Reader
	io.Closer
}

func pictureMessage(err error, maxBytes int64) string {
	switch {
	case errors.Is(err, storage.ErrTooLarge):
		return fmt.Sprintf("The picture must not be larger than %d MB.", maxBytes/(1<<20))
	case errors.Is(err, storage.ErrExtensionMismatch):
		return msgImageExtension
	}
	return msgInvalidImage
}

func (h *ProfileHandler) renderEdit(c *gin.Context, status int, st editState) {
	edit, err := h.profiles.EditProfile(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		fail(c, err)
		return
	}

	if st.form == nil {
		st.form = formFromProvider(edit.Provider)
	}
	if st.errs == nil {
		st.errs = forms.Errors{}
	}
	if st.skillErrs == nil {
		st.skillErrs = forms.Errors{}
	}

	// при правке навыка введённые значения возвращаются в его строку, форма добавления пустая
	addForm := st.skillForm
	if st.editingSlug != "" {
		addForm = forms.SkillForm{}
	}

	render(c, status, "profile_edit", gin.H{
		"SearchForm":   newSearchBox("", false),
		"Edit":         edit,
		"Form":         st.form,
		"Errors":       st.errs,
		"SkillForm":    st.skillForm,
		"AddSkillForm": addForm,
		"SkillErrors":  st.skillErrs,
		"EditingSlug":  st.editingSlug,
	})
}

// formFromProvider заполняет форму текущими значениями карточки.
func formFromProvider(p *models.Provider) *forms.ProfileForm {
	form := &forms.ProfileForm{}
	if p == nil {
		return form
	}

	form.CompanyName = deref(p.CompanyName)
	form.PhoneNumber = deref(p.PhoneNumber)
	form.EmailAddress = deref(p.EmailAddress)
	form.AboutMe = p.AboutMe
	form.Website = deref(p.Website)
	for _, cat := range p.Categories {
		form.Categories = append(form.Categories, cat.ID.String())
	}
	return form
}

func skillInput(f forms.SkillForm) service.SkillInput {
	return service.SkillInput{
		Name:        f.Name,
		Description: f.Description,
		CostRange:   f.CostRange,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
