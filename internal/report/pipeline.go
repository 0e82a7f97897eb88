package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/finlit-quiz/internal/mail"
	"github.com/gokatarajesh/finlit-quiz/internal/metrics"
	"github.com/gokatarajesh/finlit-quiz/internal/sessions"
)

const (
	defaultTimeout = 45 * time.Second

	mailSubject = "Student Session AI Analysis Report"
	mailBody    = "See attached Excel report for details."
)

// ErrAnalysisTimeout is returned when the analysis call outlives its deadline.
var ErrAnalysisTimeout = errors.New("analysis timed out")

// Analyzer turns a prompt into analysis text.
type Analyzer interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Mailer delivers a composed message. delivered is false when delivery was skipped.
type Mailer interface {
	Send(ctx context.Context, msg mail.Message) (bool, error)
}

// Options configures a Pipeline.
type Options struct {
	Recipient string
	Timeout   time.Duration
	Clock     func() time.Time
}

// Result is what an analysis request returns.
type Result struct {
	Analysis   string `json:"analysis"`
	Delivered  bool   `json:"delivered"`
	ReportName string `json:"report_name"`
}

// Pipeline runs prompt, analysis, workbook and delivery in sequence.
type Pipeline struct {
	analyzer Analyzer
	mailer   Mailer
	opts     Options
	logger   zerolog.Logger
}

// NewPipeline constructs a Pipeline.
func NewPipeline(analyzer Analyzer, mailer Mailer, opts Options, logger zerolog.Logger) *Pipeline {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Pipeline{
		analyzer: analyzer,
		mailer:   mailer,
		opts:     opts,
		logger:   logger.With().Str("component", "report").Logger(),
	}
}

// Analyze produces the analysis for rec and mails the workbook to the configured recipient.
func (p *Pipeline) Analyze(ctx context.Context, rec sessions.Record) (Result, error) {
	log := p.logger.With().Str("session_id", rec.ID.String()).Str("student", rec.DisplayName()).Logger()

	analysis, err := p.generate(ctx, BuildPrompt(rec))
	if err != nil {
		log.Error().Err(err).Msg("analysis failed")
		return Result{}, err
	}

	wb, err := BuildWorkbook(rec, analysis, p.opts.Clock())
	if err != nil {
		log.Error().Err(err).Msg("failed to build workbook")
		return Result{}, fmt.Errorf("build workbook: %w", err)
	}

	delivered, err := p.deliver(ctx, wb)
	if err != nil {
		log.Error().Err(err).Str("report", wb.Name).Msg("report delivery failed")
		return Result{}, fmt.Errorf("deliver report: %w", err)
	}

	log.Info().Str("report", wb.Name).Bool("delivered", delivered).Msg("session analysed")
	return Result{Analysis: analysis, Delivered: delivered, ReportName: wb.Name}, nil
}

func (p *Pipeline) generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	start := time.Now()
	analysis, err := p.analyzer.Generate(ctx, prompt)
	metrics.AnalysisDuration.Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		metrics.Analyses.WithLabelValues("success").Inc()
		return analysis, nil
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		metrics.Analyses.WithLabelValues("timeout").Inc()
		return "", fmt.Errorf("%w after %s", ErrAnalysisTimeout, p.opts.Timeout)
	default:
		metrics.Analyses.WithLabelValues("failure").Inc()
		return "", fmt.Errorf("generate analysis: %w", err)
	}
}

func (p *Pipeline) deliver(ctx context.Context, wb Workbook) (bool, error) {
	if p.opts.Recipient == "" {
		p.logger.Warn().Str("report", wb.Name).Msg("report recipient not configured, skipping delivery")
		metrics.ReportsDelivered.WithLabelValues("skipped").Inc()
		return false, nil
	}

	delivered, err := p.mailer.Send(ctx, mail.Message{
		To:      []string{p.opts.Recipient},
		Subject: mailSubject,
		Body:    mailBody,
		Attachments: []mail.Attachment{{
			Filename:    wb.Name,
			ContentType: XLSXContentType,
			Data:        wb.Data,
		}},
	})
	switch {
	case err != nil:
		metrics.ReportsDelivered.WithLabelValues("failed").Inc()
		return false, err
	case !delivered:
		metrics.ReportsDelivered.WithLabelValues("skipped").Inc()
	default:
		metrics.ReportsDelivered.WithLabelValues("sent").Inc()
	}
	return delivered, nil
}
