package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"maderera/internal/apierror"
	"maderera/internal/dto"
	"maderera/internal/middleware"
	"maderera/internal/pricing"
	"maderera/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			// Out-of-range values are reported by validarDecimales; converting
			// them to float would walk the whole exponent.
			if _, enRango := pricing.Acotar(v); !enRango {
				return float64(0)
			}
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	validate.RegisterStructValidation(validarDecimales,
		dto.CalcularPrecioRequest{},
		dto.CrearProductoRequest{},
		dto.ActualizarProductoRequest{},
		dto.CrearDocumentoRequest{},
		dto.ActualizarDocumentoRequest{},
		dto.DocumentoItemRequest{},
	)

	// Report JSON field names instead of Go field names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})
}

// validarDecimales rejects decimal fields outside pricing.Acotar's range
// with the "rango" tag.
func validarDecimales(sl validator.StructLevel) {
	v := sl.Current()
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		var d decimal.Decimal
		switch x := v.Field(i).Interface().(type) {
		case decimal.Decimal:
			d = x
		case *decimal.Decimal:
			if x == nil {
				continue
			}
			d = *x
		default:
			continue
		}
		if _, ok := pricing.Acotar(d); !ok {
			nombre := strings.SplitN(t.Field(i).Tag.Get("json"), ",", 2)[0]
			sl.ReportError(v.Field(i).Interface(), nombre, t.Field(i).Name, "rango", "")
		}
	}
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalido: "+err.Error()))
		return false
	}
	return validateStruct(c, req)
}

// bindQueryAndValidate is bindAndValidate for query-string filters.
func bindQueryAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Parametros invalidos: "+err.Error()))
		return false
	}
	return validateStruct(c, req)
}

func validateStruct(c *gin.Context, req interface{}) bool {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
			return false
		}
		fields := make(map[string]string)
		for _, fe := range verrs {
			fields[fe.Namespace()[strings.Index(fe.Namespace(), ".")+1:]] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// respondError maps service errors onto HTTP statuses. Anything unknown is a
// 500 with fallback as the client-facing message.
func respondError(c *gin.Context, err error, fallback string) {
	var verr *service.ValidacionError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(verr.Fields))
	case errors.Is(err, service.ErrProductoNoEncontrado),
		errors.Is(err, service.ErrDocumentoNoEncontrado),
		errors.Is(err, service.ErrPDFNoDisponible):
		c.JSON(http.StatusNotFound, apierror.New(err.Error()).WithCode(apierror.CodeNoEncontrado))
	case errors.Is(err, service.ErrStockNegativo):
		c.JSON(http.StatusConflict, apierror.New(err.Error()).WithCode(apierror.CodeStockNegativo))
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg(fallback)
		c.JSON(http.StatusInternalServerError, apierror.New(fallback))
	}
}

// usuarioActual is the username of the authenticated caller, or "" on
// unauthenticated routes.
func usuarioActual(c *gin.Context) string {
	if claims := middleware.GetClaims(c); claims != nil {
		return claims.Username
	}
	return ""
}
