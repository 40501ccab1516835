package rest

import (
	"github.com/gofiber/fiber/v2"

	domainGroup "github.com/ofertazap/ofertazap/domains/group"
	"github.com/ofertazap/ofertazap/pkg/utils"
)

type Group struct {
	Directory domainGroup.IGroupDirectory
	Registry  domainGroup.ITargetRegistry
}

// InitRestGroup exposes the live delivery targets so operators can pick
// group ids when configuring explicit target lists, plus upsert into the
// curated registry used by the database target source.
func InitRestGroup(app fiber.Router, directory domainGroup.IGroupDirectory, registry domainGroup.ITargetRegistry) Group {
	rest := Group{Directory: directory, Registry: registry}
	app.Get("/groups", rest.List)
	app.Put("/groups/registry", rest.UpsertRegistry)
	return rest
}

func (controller *Group) List(c *fiber.Ctx) error {
	targets, err := controller.Directory.ListActive(c.UserContext())
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch groups",
		Results: targets,
	})
}

func (controller *Group) UpsertRegistry(c *fiber.Ctx) error {
	var target domainGroup.Target
	err := c.BodyParser(&target)
	utils.PanicIfNeeded(err)

	if target.ID == "" || target.Handle == "" {
		return c.Status(400).JSON(utils.ResponseData{
			Status:  400,
			Code:    "BAD_REQUEST",
			Message: "id and handle are required",
		})
	}

	err = controller.Registry.UpsertTarget(c.UserContext(), target)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success upsert target",
		Results: target,
	})
}
