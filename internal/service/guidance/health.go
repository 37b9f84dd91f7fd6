package guidance

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gitagpt/gitagpt/internal/analysis/intent"
	"github.com/gitagpt/gitagpt/internal/model/chat"
	"github.com/gitagpt/gitagpt/internal/service/ai"
)

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
	statusDegraded  = "degraded"
)

// Health checks every pipeline component concurrently.
func (s *Service) Health(ctx context.Context) chat.HealthReport {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	checks := map[string]func(context.Context) error{
		"intent_classification": func(context.Context) error {
			if intent.Classify("hello").Label != intent.CasualChat {
				return errors.New("greeting not recognised")
			}
			return nil
		},
		"emotion_detection": func(ctx context.Context) error {
			s.emotions.Detect(ctx, nil, "I feel calm today")
			return nil
		},
		"verse_search": func(ctx context.Context) error {
			if s.verses.Count() == 0 {
				return errors.New("verse corpus is empty")
			}
			_, err := s.verses.Search(ctx, "dharma duty", "", 1)
			return err
		},
		"reflection_generation": func(ctx context.Context) error {
			_, err := s.fallback.Generate(ctx, ai.Input{UserInput: "hello", Intent: intent.CasualChat})
			return err
		},
		"store": s.store.Ping,
	}

	var (
		mu       sync.Mutex
		services = make(map[string]chat.ComponentHealth, len(checks))
	)
	g, gctx := errgroup.WithContext(ctx)
	for name, check := range checks {
		g.Go(func() error {
			result := chat.ComponentHealth{Status: statusHealthy}
			if err := check(gctx); err != nil {
				result = chat.ComponentHealth{Status: statusUnhealthy, Error: err.Error()}
			}
			mu.Lock()
			services[name] = result
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	report := chat.HealthReport{
		Status:   statusHealthy,
		Message:  "All services are operational",
		Services: services,
	}

	unhealthy := 0
	for _, component := range services {
		if component.Status != statusHealthy {
			unhealthy++
		}
	}
	if unhealthy > 0 {
		report.Status = statusDegraded
		report.Message = fmt.Sprintf("%d service(s) are experiencing issues, but fallbacks are available", unhealthy)
	}
	if len(s.generators) == 0 {
		services["language_model"] = chat.ComponentHealth{Status: statusUnhealthy, Error: "no model configured; using templates"}
		report.Status = statusDegraded
		report.Message = "Language model not configured; template reflections are in use"
	}
	return report
}
