package middleware

import (
	"errors"
	"net/http"
	"reflect"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator"
)

// ключ, под которым провалидированный запрос кладётся в контекст gin
const ValidatedDataKey = "validatedData"

// создаём экзмепляр валидатора (чтобы он создавался в памяти только при загрузке модуля)
var validate = validator.New()

// ValidateRequestMiddleware разбирает JSON тела в новый экземпляр типа model и валидирует его по тегам validate
func ValidateRequestMiddleware(model any) gin.HandlerFunc {
	modelType := reflect.TypeOf(model).Elem()

	return func(c *gin.Context) {
		request := reflect.New(modelType).Interface()

		// парсим без встроенной валидации gin
		if err := c.ShouldBindBodyWith(request, binding.JSON); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "Invalid JSON format",
				"code":  "INVALID_JSON",
			})
			return
		}

		if err := validate.Struct(request); err != nil {
			var verrs validator.ValidationErrors
			if !errors.As(err, &verrs) {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
					"error": "Validation failed",
					"code":  "VALIDATION_FAILED",
				})
				return
			}
			details := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				details[fe.Field()] = fe.Tag()
			}
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":   "Validation failed",
				"code":    "VALIDATION_FAILED",
				"details": details,
			})
			return
		}

		c.Set(ValidatedDataKey, request)
		c.Next()
	}
}
