package advisor

import (
	"context"
	"errors"
	"strings"

	"github.com/i474232898/climate-advisory/internal/analysis"
	"github.com/i474232898/climate-advisory/internal/common"
	"github.com/i474232898/climate-advisory/internal/report"
)

// Reply sources.
const (
	SourceGenerator = "generator"
	SourceReport    = "report"
	SourceTemplate  = "template"
)

var errNoReport = errors.New("no report available")

// ReplyRequest is one chat turn. ReportText is an optional report pasted by the caller.
type ReplyRequest struct {
	Message    string
	SessionID  string
	ReportText string
}

// Reply is the answer shown to the user.
type Reply struct {
	Text   string `json:"reply"`
	Intent Intent `json:"intent"`
	Source string `json:"source"`
}

// Answer is the structured data behind a reply.
type Answer struct {
	Intent  Intent
	Region  string
	Summary *analysis.Summary
	Best    *analysis.RegionTotal
	Err     error
}

type turn struct {
	message string
	intent  Intent
	answer  Answer
	report  *report.Report
	pasted  string
}

type replyStrategy struct {
	name string
	run  func(ctx context.Context, t *turn) (string, error)
}

// Reply answers a chat message. It never fails: every strategy error falls
// through to the next one and the template always produces text.
func (a *Advisor) Reply(ctx context.Context, req ReplyRequest) Reply {
	t := &turn{
		message: req.Message,
		intent:  ParseIntent(req.Message),
		pasted:  strings.TrimSpace(req.ReportText),
	}
	t.answer = a.answer(ctx, t.intent)
	if req.SessionID != "" {
		if r, err := a.state.LatestReport(req.SessionID); err == nil {
			t.report = r
		}
	}

	strategies := a.strategies()
	for i, s := range strategies {
		out, err := s.run(ctx, t)
		last := i == len(strategies)-1
		if err != nil {
			a.log.Debug().Err(err).Str("strategy", s.name).Msg("reply strategy skipped")
			continue
		}
		if !Acceptable(out) && !last {
			a.log.Debug().Str("strategy", s.name).Msg("reply rejected by validator")
			continue
		}
		return Reply{Text: strings.TrimSpace(out), Intent: t.intent, Source: s.name}
	}
	// The template strategy never errors; this is unreachable.
	return Reply{Text: composeAnswer(t.answer), Intent: t.intent, Source: SourceTemplate}
}

func (a *Advisor) strategies() []replyStrategy {
	var out []replyStrategy
	if a.generator != nil {
		out = append(out, replyStrategy{name: SourceGenerator, run: a.generate})
	}
	out = append(out,
		replyStrategy{name: SourceReport, run: fromReport},
		replyStrategy{name: SourceTemplate, run: func(_ context.Context, t *turn) (string, error) {
			return composeAnswer(t.answer), nil
		}},
	)
	return out
}

// answer builds the structured context for an intent. Failures are carried
// in Answer.Err so the template can explain them.
func (a *Advisor) answer(ctx context.Context, in Intent) Answer {
	ans := Answer{Intent: in, Region: in.Region}
	switch in.Kind {
	case TrendForRegion:
		period := a.DefaultPeriod()
		table, err := a.fetcher.Fetch(ctx, in.Region, period)
		if err != nil {
			a.log.Warn().Err(err).Str("region", in.Region).Msg("trend answer: fetch failed")
			ans.Err = err
			return ans
		}
		ans.Summary = a.summarize(table, period)
	case MostRainInPeriod:
		best, ok, err := a.MostRain(ctx, in.Year)
		if err != nil {
			a.log.Warn().Err(err).Msg("most rain answer: fetch failed")
			ans.Err = err
			return ans
		}
		if ok {
			ans.Best = &best
		}
	}
	return ans
}

// relevant reports whether a stored report can answer the intent.
func relevant(r *report.Report, in Intent) bool {
	switch in.Kind {
	case MostRainInPeriod:
		return false
	case TrendForRegion:
		return common.Normalize(r.Region) == common.Normalize(in.Region)
	default:
		return true
	}
}

func fromReport(_ context.Context, t *turn) (string, error) {
	switch {
	case t.report != nil && relevant(t.report, t.intent):
		return composeFromHighlights(t.report.Highlights()), nil
	case t.pasted != "":
		h := report.ParseText(t.pasted)
		if h.Empty() {
			return reportExcerpt(t.pasted), nil
		}
		return composeFromHighlights(h), nil
	default:
		return "", errNoReport
	}
}
