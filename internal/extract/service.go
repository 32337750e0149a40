package extract

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/spherical/vie-ocr/internal/domain"
	"github.com/spherical/vie-ocr/internal/observability"
)

// Options controls how a Service assembles a document.
type Options struct {
	// Workers is the number of pages processed concurrently. Values below 2
	// select the sequential path.
	Workers int

	// ContinueOnError records a placeholder for a failed page and keeps going
	// instead of aborting the document.
	ContinueOnError bool

	// OutputPath, when set, receives the transcript after a successful run.
	OutputPath string
}

// Service orchestrates rasterization, preprocessing and recognition of a document
type Service struct {
	rasterizer   domain.Rasterizer
	preprocessor domain.Preprocessor
	recognizer   domain.Recognizer
	normalizer   *Normalizer
	opts         Options
	logger       *observability.Logger
}

// NewService creates a new document assembly service
func NewService(rasterizer domain.Rasterizer, preprocessor domain.Preprocessor, recognizer domain.Recognizer, opts Options, logger *observability.Logger) *Service {
	if logger == nil {
		logger = observability.Nop()
	}
	return &Service{
		rasterizer:   rasterizer,
		preprocessor: preprocessor,
		recognizer:   recognizer,
		normalizer:   NewNormalizer(),
		opts:         opts,
		logger:       logger.WithComponent("extract"),
	}
}

// Process rasterizes pdfPath and recognizes every page in lang. One
// EventPageComplete is sent per page, in page order, on eventCh (which may be
// nil). Sends block until received or ctx is done.
//
// On success the full Transcript is returned. If persisting it to
// Options.OutputPath fails, the Transcript is returned together with a
// persist error.
func (s *Service) Process(ctx context.Context, pdfPath, lang string, eventCh chan<- domain.StreamEvent) (*domain.Transcript, error) {
	startTime := time.Now()
	log := s.logger.WithDocument(pdfPath)

	s.emitEvent(ctx, eventCh, domain.StreamEvent{
		Type:      domain.EventStart,
		Payload:   fmt.Sprintf("Converting %s to images", pdfPath),
		Timestamp: time.Now(),
	})

	pages, err := s.rasterizer.Rasterize(ctx, pdfPath)
	if err != nil {
		log.Error().Err(err).Msg("rasterization failed")
		s.emitError(ctx, eventCh, err)
		return nil, err
	}
	log.Info().Int("pages", len(pages)).Str("lang", lang).Int("workers", max(s.opts.Workers, 1)).
		Bool("continue_on_error", s.opts.ContinueOnError).
		Msg("rasterized PDF")

	var results []domain.PageText
	if s.opts.Workers > 1 && len(pages) > 1 {
		results, err = s.processParallel(ctx, pages, lang, eventCh)
	} else {
		results, err = s.processSequential(ctx, pages, lang, eventCh)
	}
	if err != nil {
		log.Error().Err(err).Int("page", domain.PageOf(err)).Msg("document aborted")
		s.emitError(ctx, eventCh, err)
		return nil, err
	}

	duration := time.Since(startTime)
	transcript := &domain.Transcript{
		Document: domain.Document{FilePath: pdfPath, TotalPages: len(pages)},
		Pages:    results,
	}
	for _, p := range results {
		if p.Err != nil {
			transcript.Failures = append(transcript.Failures, domain.PageFailure{PageNumber: p.PageNumber, Err: p.Err})
		}
	}
	transcript.Stats = domain.ProcessingStats{
		TotalTime:       duration,
		PagesProcessed:  len(results),
		SuccessfulPages: len(results) - len(transcript.Failures),
		FailedPages:     len(transcript.Failures),
	}

	s.emitEvent(ctx, eventCh, domain.StreamEvent{
		Type:       domain.EventComplete,
		TotalPages: len(pages),
		Payload: fmt.Sprintf("Extraction complete: %d/%d pages recognized in %v",
			len(pages)-len(transcript.Failures), len(pages), duration.Round(time.Millisecond)),
		Timestamp: time.Now(),
	})
	log.Info().Int("pages", len(pages)).Int("failed", len(transcript.Failures)).Dur("took", duration).Msg("extraction complete")

	if s.opts.OutputPath != "" {
		if err := Persist(transcript, s.opts.OutputPath); err != nil {
			log.Error().Err(err).Str("output", s.opts.OutputPath).Msg("failed to save transcript")
			return transcript, err
		}
		log.Info().Str("output", s.opts.OutputPath).Msg("transcript saved")
	}

	return transcript, nil
}

func (s *Service) processSequential(ctx context.Context, pages []domain.Page, lang string, eventCh chan<- domain.StreamEvent) ([]domain.PageText, error) {
	total := len(pages)
	results := make([]domain.PageText, 0, total)

	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return nil, domain.CancelledError(err)
		}

		pt, err := s.processPage(ctx, page, lang)
		if err != nil {
			return nil, err
		}
		results = append(results, pt)
		s.emitPage(ctx, eventCh, pt, total)
	}

	return results, nil
}

// processParallel runs one task per page on a bounded errgroup. Results land
// in a slice indexed by page position; events are released in page order as
// soon as every earlier page is done.
func (s *Service) processParallel(ctx context.Context, pages []domain.Page, lang string, eventCh chan<- domain.StreamEvent) ([]domain.PageText, error) {
	total := len(pages)
	results := make([]domain.PageText, total)
	errs := make([]error, total)
	done := make(chan int, total)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)

	waitCh := make(chan error, 1)
	go func() {
		for i := range pages {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return domain.CancelledError(err)
				}
				pt, err := s.processPage(gctx, pages[i], lang)
				if err != nil {
					errs[i] = err
					return err
				}
				results[i] = pt
				done <- i
				return nil
			})
		}
		waitCh <- g.Wait()
		close(done)
	}()

	ready := make([]bool, total)
	next := 0
	for i := range done {
		ready[i] = true
		for next < total && ready[next] {
			s.emitPage(ctx, eventCh, results[next], total)
			next++
		}
	}

	if err := <-waitCh; err != nil {
		return nil, firstPageError(ctx, errs, err)
	}
	if next != total {
		// Every task succeeded yet a page is missing: the loop stopped early.
		return nil, domain.CancelledError(ctx.Err())
	}
	return results, nil
}

// processPage runs preprocessing and recognition for one page. Under the
// continue-on-error policy a page failure is folded into the returned
// PageText; cancellation always propagates.
func (s *Service) processPage(ctx context.Context, page domain.Page, lang string) (domain.PageText, error) {
	start := time.Now()

	text, err := s.recognizePage(ctx, page, lang)
	if err != nil {
		err = attachPage(err, page.Number)
		if !s.opts.ContinueOnError || isCancellation(err) {
			return domain.PageText{}, err
		}
		s.logger.Warn().Err(err).Int("page", page.Number).Msg("page failed, continuing")
		return domain.PageText{
			PageNumber: page.Number,
			Text:       domain.FailurePlaceholder(page.Number, err),
			Err:        err,
		}, nil
	}

	s.logger.Debug().Int("page", page.Number).Dur("took", time.Since(start)).Msg("page recognized")
	return domain.PageText{PageNumber: page.Number, Text: text}, nil
}

func (s *Service) recognizePage(ctx context.Context, page domain.Page, lang string) (string, error) {
	processed, err := s.preprocessor.Preprocess(page)
	if err != nil {
		return "", err
	}
	raw, err := s.recognizer.Recognize(ctx, processed, lang)
	if err != nil {
		return "", err
	}
	return s.normalizer.Normalize(raw), nil
}

// firstPageError picks the lowest-numbered page failure that is not a side
// effect of cancellation, so parallel runs report what a sequential run would.
func firstPageError(ctx context.Context, errs []error, fallback error) error {
	for _, err := range errs {
		if err != nil && !isCancellation(err) {
			return err
		}
	}
	if ctx.Err() != nil {
		return domain.CancelledError(ctx.Err())
	}
	return fallback
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || domain.IsType(err, domain.ErrorTypeCancelled)
}

func attachPage(err error, page int) error {
	var de *domain.DomainError
	if errors.As(err, &de) {
		if de.Page == 0 {
			return de.WithPage(page)
		}
		return err
	}
	return domain.RecognitionError("page processing failed", err).WithPage(page)
}

func (s *Service) emitPage(ctx context.Context, eventCh chan<- domain.StreamEvent, pt domain.PageText, total int) {
	payload := fmt.Sprintf("Processed page %d/%d", pt.PageNumber, total)
	if pt.Err != nil {
		payload = fmt.Sprintf("Page %d/%d failed: %v", pt.PageNumber, total, pt.Err)
	}
	s.emitEvent(ctx, eventCh, domain.StreamEvent{
		Type:       domain.EventPageComplete,
		PageNumber: pt.PageNumber,
		TotalPages: total,
		Payload:    payload,
		Timestamp:  time.Now(),
	})
}

// emitEvent delivers an event unless ctx is done first. Events are never dropped.
func (s *Service) emitEvent(ctx context.Context, eventCh chan<- domain.StreamEvent, event domain.StreamEvent) {
	if eventCh == nil {
		return
	}
	select {
	case eventCh <- event:
	case <-ctx.Done():
	}
}

// emitError emits an error event
func (s *Service) emitError(ctx context.Context, eventCh chan<- domain.StreamEvent, err error) {
	s.emitEvent(ctx, eventCh, domain.StreamEvent{
		Type:       domain.EventError,
		PageNumber: domain.PageOf(err),
		Payload:    err.Error(),
		Timestamp:  time.Now(),
	})
}
