package middleware

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	pkgError "github.com/ofertazap/ofertazap/pkg/error"
	"github.com/ofertazap/ofertazap/pkg/utils"
)

// Recovery turns handler panics into JSON error responses. Handlers raise
// domain errors through utils.PanicIfNeeded, so a recovered pkgError carries
// its own status and code; anything else is a plain 500.
func Recovery() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}

			res := utils.ResponseData{
				Status:  500,
				Code:    "INTERNAL_SERVER_ERROR",
				Message: fmt.Sprintf("%v", recovered),
			}

			if domainErr, ok := recovered.(pkgError.GenericError); ok {
				res.Status = domainErr.StatusCode()
				res.Code = domainErr.ErrCode()
				res.Message = domainErr.Error()
			} else {
				logrus.Errorf("[REST] Recovered from panic: %v", recovered)
			}

			_ = ctx.Status(res.Status).JSON(res)
		}()

		return ctx.Next()
	}
}
