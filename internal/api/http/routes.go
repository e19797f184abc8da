package httpapi

import (
	"context"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"

	"github.com/i474232898/climate-advisory/internal/advisor"
	"github.com/i474232898/climate-advisory/internal/store"
	"github.com/i474232898/climate-advisory/internal/weather"
)

var validate = validator.New()

// SessionHeader carries the caller's session ID.
const SessionHeader = "X-Session-ID"

// ReportLister reads archived reports.
type ReportLister interface {
	List(ctx context.Context, region string, limit int) ([]store.ArchivedReport, error)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app. archive may be nil.
func RegisterRoutes(app *fiber.App, adv *advisor.Advisor, archive ReportLister) {
	v1 := app.Group("/api/v1")

	v1.Get("/regions", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"regions": weather.Regions()})
	})

	v1.Get("/analysis", func(c *fiber.Ctx) error {
		q, period, err := bindRegionQuery(c, adv)
		if err != nil {
			return err
		}

		sessionID := sessionFrom(c, "")
		res, err := adv.Analyze(c.UserContext(), sessionID, q.Region, period)
		if err != nil {
			return toHTTPError(err)
		}

		return c.JSON(fiber.Map{
			"sessionId": sessionID,
			"region":    res.Region,
			"period":    res.Period,
			"summary":   res.Summary,
			"forecast":  res.Forecast,
			"report":    res.Report,
			"text":      res.Report.Text(),
			"archiveId": res.ArchiveID,
		})
	})

	v1.Get("/series", func(c *fiber.Ctx) error {
		q, period, err := bindRegionQuery(c, adv)
		if err != nil {
			return err
		}

		res, err := adv.Run(c.UserContext(), q.Region, period)
		if err != nil {
			return toHTTPError(err)
		}

		return c.JSON(fiber.Map{
			"region":       res.Region,
			"period":       res.Period,
			"history":      res.Table.PrecipitationSeries(),
			"forecast":     res.Forecast,
			"annualTotals": res.Summary.AnnualTotals,
			"seasons":      res.Summary.Seasons,
		})
	})

	v1.Get("/compare", func(c *fiber.Ctx) error {
		var q compareQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		best, ok, err := adv.MostRain(c.UserContext(), q.year())
		if err != nil {
			return toHTTPError(err)
		}
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "no region has precipitation data")
		}
		return c.JSON(best)
	})

	v1.Post("/chat", func(c *fiber.Ctx) error {
		var req chatRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid JSON body")
		}
		req.Message = strings.TrimSpace(req.Message)
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		sessionID := sessionFrom(c, req.SessionID)
		reply := adv.Reply(c.UserContext(), advisor.ReplyRequest{
			Message:    req.Message,
			SessionID:  sessionID,
			ReportText: req.Report,
		})

		return c.JSON(fiber.Map{
			"reply":     reply.Text,
			"intent":    reply.Intent,
			"source":    reply.Source,
			"sessionId": sessionID,
		})
	})

	v1.Get("/reports", func(c *fiber.Ctx) error {
		if archive == nil {
			return fiber.NewError(fiber.StatusNotFound, "report archive is disabled")
		}
		var q reportsQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if q.Region != "" {
			r, err := weather.LookupRegion(q.Region)
			if err != nil {
				return toHTTPError(err)
			}
			q.Region = r.Name
		}

		reports, err := archive.List(c.UserContext(), q.Region, q.Limit)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to list reports")
		}
		return c.JSON(fiber.Map{"reports": reports})
	})
}

// sessionFrom picks the session ID from the body, the header, or a new UUID,
// and echoes it in the response header.
func sessionFrom(c *fiber.Ctx, fromBody string) string {
	id := strings.TrimSpace(fromBody)
	if id == "" {
		// Header values alias fasthttp's pooled buffers; the ID outlives the request.
		id = utils.CopyString(strings.TrimSpace(c.Get(SessionHeader)))
	}
	if id == "" {
		id = uuid.NewString()
	}
	c.Set(SessionHeader, id)
	return id
}

// regionQuery holds query parameters for region analyses.
type regionQuery struct {
	Region string `validate:"required"`
	Start  string `validate:"omitempty,datetime=2006-01"`
	End    string `validate:"omitempty,datetime=2006-01"`
}

func bindRegionQuery(c *fiber.Ctx, adv *advisor.Advisor) (regionQuery, weather.Period, error) {
	q := regionQuery{
		Region: strings.TrimSpace(c.Query("region")),
		Start:  c.Query("start"),
		End:    c.Query("end"),
	}
	if err := validate.Struct(q); err != nil {
		return q, weather.Period{}, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	period, err := adv.ResolvePeriod(q.Start, q.End)
	if err != nil {
		return q, weather.Period{}, toHTTPError(err)
	}
	return q, period, nil
}

// compareQuery holds the optional year filter.
type compareQuery struct {
	Year int `validate:"omitempty,gte=1981,lte=2100"`
}

func (q *compareQuery) bind(c *fiber.Ctx) error {
	if s := c.Query("year"); s != "" {
		y, err := strconv.Atoi(s)
		if err != nil {
			return err
		}
		q.Year = y
	}
	return validate.Struct(q)
}

func (q compareQuery) year() *int {
	if q.Year == 0 {
		return nil
	}
	y := q.Year
	return &y
}

type chatRequest struct {
	Message   string `json:"message" validate:"required,max=2000"`
	SessionID string `json:"sessionId" validate:"omitempty,max=128"`
	Report    string `json:"report" validate:"omitempty,max=100000"`
}

type reportsQuery struct {
	Region string
	Limit  int `validate:"gte=0,lte=500"`
}

func (q *reportsQuery) bind(c *fiber.Ctx) error {
	q.Region = strings.TrimSpace(c.Query("region"))
	q.Limit = c.QueryInt("limit", 50)
	return validate.Struct(q)
}
