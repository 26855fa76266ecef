// Package svc assembles the process-wide ServiceContext every handler and
// logic layer depends on: the record store, cache, token service, device
// signature verifier, analyzer, FHIR projector, broadcaster, and audit
// sink, built once from Config at boot.
package svc

import (
	"fmt"
	"net/http"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/medhealth/vitalcore/internal/analyzer"
	"github.com/medhealth/vitalcore/internal/audit"
	"github.com/medhealth/vitalcore/internal/broadcast"
	"github.com/medhealth/vitalcore/internal/cache"
	"github.com/medhealth/vitalcore/internal/config"
	"github.com/medhealth/vitalcore/internal/middleware"
	"github.com/medhealth/vitalcore/internal/repository"
	"github.com/medhealth/vitalcore/internal/signature"
	"github.com/medhealth/vitalcore/internal/token"
)

// ServiceContext bundles every shared dependency a handler or logic layer
// needs, constructed once at boot and passed by reference thereafter.
type ServiceContext struct {
	Config      config.Config
	Store       *repository.Store
	Cache       cache.Cache
	Tokens      *token.Service
	Signatures  *signature.Verifier
	Analyzer    analyzer.Config
	Broadcaster *broadcast.Broadcaster
	Audit       *audit.Sink

	Auth           func(http.HandlerFunc) http.HandlerFunc
	DeviceSignature func(http.HandlerFunc) http.HandlerFunc
}

// NewServiceContext opens the store and cache connections and wires every
// domain package together. Failures are returned rather than panicked so
// cmd/vitalcore-server can log and exit cleanly during boot.
func NewServiceContext(c config.Config) (*ServiceContext, error) {
	store, err := repository.Open(c.Database)
	if err != nil {
		return nil, fmt.Errorf("svc: open store: %w", err)
	}

	vitalsCache, err := cache.Open(c.Cache)
	if err != nil {
		return nil, fmt.Errorf("svc: open cache: %w", err)
	}

	tokens := token.NewService(
		c.Token.Secret,
		time.Duration(c.Token.ExpirationHours)*time.Hour,
		time.Duration(c.Token.RefreshDays)*24*time.Hour,
		store,
	)

	verifier := signature.NewVerifier(
		c.Device.SharedSecret,
		time.Duration(c.Device.ReplayWindowSec)*time.Second,
		store,
	)

	analyzerCfg := analyzer.Config{
		CriticalHRLow:    c.Analyzer.CriticalHRLow,
		CriticalHRHigh:   c.Analyzer.CriticalHRHigh,
		CriticalSpO2Low:  c.Analyzer.CriticalSpO2Low,
		AnomalyThreshold: c.Analyzer.AnomalyThreshold,
		EnableAlerts:     c.Analyzer.EnableAlerts,
	}

	sc := &ServiceContext{
		Config:      c,
		Store:       store,
		Cache:       vitalsCache,
		Tokens:      tokens,
		Signatures:  verifier,
		Analyzer:    analyzerCfg,
		Broadcaster: broadcast.New(),
		Audit:       audit.NewSink(store),
	}
	sc.Auth = middleware.Auth(tokens)
	sc.DeviceSignature = middleware.DeviceSignature(verifier, sc.Audit)
	return sc, nil
}

// Close releases the store's connection pool and the cache client.
func (sc *ServiceContext) Close() error {
	if err := sc.Cache.Close(); err != nil {
		logx.Errorf("svc: close cache: %v", err)
	}
	return sc.Store.Close()
}
