package classifier

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"sitedocs/internal/domain/documents"
	"sitedocs/internal/platform/imaging"
)

// Analyzer is a remote model that may fail.
type Analyzer interface {
	Analyze(ctx context.Context, payload string) (documents.Classification, error)
}

// Adapter turns an Analyzer into a documents.Classifier that never fails.
type Adapter struct {
	analyzer   Analyzer
	timeout    time.Duration
	onFallback func(reason string)
}

type AdapterOption func(*Adapter)

func WithTimeout(d time.Duration) AdapterOption {
	return func(a *Adapter) { a.timeout = d }
}

// OnFallback registers a hook called whenever the fallback result is used.
func OnFallback(fn func(reason string)) AdapterOption {
	return func(a *Adapter) { a.onFallback = fn }
}

func NewAdapter(analyzer Analyzer, opts ...AdapterOption) *Adapter {
	a := &Adapter{analyzer: analyzer}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Classify returns the analyzer's result, or the fallback on any failure. An
// unrecognized category is cleared so it is never trusted downstream.
func (a *Adapter) Classify(ctx context.Context, payload string) documents.Classification {
	if a == nil || a.analyzer == nil {
		a.fallback("classifier disabled")
		return documents.FallbackClassification()
	}
	payload = imaging.StripDataURIPrefix(payload)
	if payload == "" {
		a.fallback("empty payload")
		return documents.FallbackClassification()
	}
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	result, err := a.analyzer.Analyze(ctx, payload)
	if err != nil {
		slog.Warn("document classification failed", "err", err)
		a.fallback(err.Error())
		return documents.FallbackClassification()
	}
	if category, ok := result.ValidCategory(); ok {
		result.Category = string(category)
	} else {
		slog.Warn("classifier returned unknown category", "category", result.Category)
		result.Category = ""
	}
	result.Summary = strings.TrimSpace(result.Summary)
	return result
}

func (a *Adapter) fallback(reason string) {
	if a != nil && a.onFallback != nil {
		a.onFallback(reason)
	}
}
