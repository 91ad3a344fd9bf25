package course

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

var (
	mediaKindTag  = "mediakind"
	mediaKindText = "must be one of: video, reading, podcast"

	courseSlugTag  = "courseslug"
	courseSlugText = "unknown course"
)

// InitValidators registers the course package's custom validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(mediaKindTag, mediaKindValidation)
	core.RegisterCustomTranslation(validate, translator, mediaKindTag, mediaKindText)

	_ = validate.RegisterValidation(courseSlugTag, courseSlugValidation)
	core.RegisterCustomTranslation(validate, translator, courseSlugTag, courseSlugText)
}

func mediaKindValidation(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	for _, kind := range MediaKinds {
		if val == kind {
			return true
		}
	}
	return false
}

func courseSlugValidation(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	for _, c := range Catalog {
		if val == c.ID {
			return true
		}
	}
	return false
}
