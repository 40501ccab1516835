package rest

import (
	"time"

	"github.com/gofiber/fiber/v2"

	domainProgram "github.com/ofertazap/ofertazap/domains/program"
	"github.com/ofertazap/ofertazap/pkg/utils"
)

type Program struct {
	Service  domainProgram.IProgramUsecase
	Location *time.Location
}

func InitRestProgram(app fiber.Router, service domainProgram.IProgramUsecase, location *time.Location) Program {
	rest := Program{Service: service, Location: location}
	app.Get("/programs", rest.List)
	app.Get("/programs/:id", rest.Get)
	app.Post("/programs/:id/run-now", rest.RunNow)
	app.Post("/programs/:id/pause", rest.Pause)
	app.Post("/programs/:id/resume", rest.Resume)
	app.Post("/programs/tick", rest.Tick)
	return rest
}

func (controller *Program) List(c *fiber.Ctx) error {
	programs, err := controller.Service.List(c.UserContext())
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch programs",
		Results: programs,
	})
}

func (controller *Program) Get(c *fiber.Ctx) error {
	program, err := controller.Service.Get(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch program",
		Results: program,
	})
}

// RunNow triggers a single run outside the schedule. A run already in
// flight for the same program makes this a no-op skip, never a queue.
func (controller *Program) RunNow(c *fiber.Ctx) error {
	request := domainProgram.RunNowRequest{ProgramID: c.Params("id")}

	result, err := controller.Service.RunNow(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Run finished with status " + string(result.Status()),
		Results: result,
	})
}

func (controller *Program) Pause(c *fiber.Ctx) error {
	request := domainProgram.SetActiveRequest{ProgramID: c.Params("id"), Active: false}

	program, err := controller.Service.SetActive(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Program paused",
		Results: program,
	})
}

func (controller *Program) Resume(c *fiber.Ctx) error {
	request := domainProgram.SetActiveRequest{ProgramID: c.Params("id"), Active: true}

	program, err := controller.Service.SetActive(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Program resumed",
		Results: program,
	})
}

// Tick evaluates every active program once, the same pass the built-in
// ticker runs every minute.
func (controller *Program) Tick(c *fiber.Ctx) error {
	results, err := controller.Service.Tick(c.UserContext(), time.Now().In(controller.Location))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Tick finished",
		Results: results,
	})
}
