package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"survey-bot/internal/domain/entities"
	Iservices "survey-bot/internal/domain/interfaces/services"
	"survey-bot/internal/infra/logger"
	"survey-bot/internal/infra/metrics"
)

// SurveyPublisher hands completed surveys to every sink in the background.
// Sink failures are logged and counted, never retried.
type SurveyPublisher struct {
	Logger  *logger.Logger
	Sinks   []Iservices.ISurveySink
	Metrics *metrics.Recorder
	Timeout time.Duration

	wg sync.WaitGroup
}

func NewSurveyPublisher(logger *logger.Logger, recorder *metrics.Recorder, timeout time.Duration, sinks ...Iservices.ISurveySink) *SurveyPublisher {
	return &SurveyPublisher{Logger: logger, Sinks: sinks, Metrics: recorder, Timeout: timeout}
}

func (p *SurveyPublisher) Publish(ctx context.Context, survey entities.CompletedSurvey) {
	// The turn's context ends before the sinks are done.
	base := context.WithoutCancel(ctx)

	for _, sink := range p.Sinks {
		p.wg.Add(1)
		go func(sink Iservices.ISurveySink) {
			defer p.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					p.Logger.Error(fmt.Sprintf("Recovered from panic in %s sink: %v", sink.Name(), r))
					p.Metrics.ObserveSinkWrite(sink.Name(), fmt.Errorf("panic: %v", r))
				}
			}()

			var (
				sinkCtx context.Context
				cancel  context.CancelFunc
			)
			if p.Timeout > 0 {
				sinkCtx, cancel = context.WithTimeout(base, p.Timeout)
			} else {
				sinkCtx, cancel = context.WithCancel(base)
			}
			defer cancel()

			err := sink.Record(sinkCtx, survey)
			p.Metrics.ObserveSinkWrite(sink.Name(), err)
			if err != nil {
				p.Logger.Error(fmt.Sprintf("Failed to record survey %s for %s in %s sink: %v", survey.ID, survey.ContactID, sink.Name(), err))
				return
			}
			p.Logger.Info(fmt.Sprintf("Survey %s for %s recorded in %s sink", survey.ID, survey.ContactID, sink.Name()))
		}(sink)
	}
}

// Wait blocks until every in-flight sink write has finished.
func (p *SurveyPublisher) Wait() {
	p.wg.Wait()
}
