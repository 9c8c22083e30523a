// Package app wires the Kinsfolk core together: one coordinator owns the
// capsule engine, family roster, AI gateway, and the chat and studio
// sessions. Surfaces (web, MCP, CLI) receive the coordinator and own no
// business logic of their own.
package app

import (
	"database/sql"
	"time"

	"github.com/hpungsan/kinsfolk/internal/capsule"
	"github.com/hpungsan/kinsfolk/internal/chat"
	"github.com/hpungsan/kinsfolk/internal/config"
	"github.com/hpungsan/kinsfolk/internal/credential"
	"github.com/hpungsan/kinsfolk/internal/family"
	"github.com/hpungsan/kinsfolk/internal/gateway"
	"github.com/hpungsan/kinsfolk/internal/studio"
)

// Seed values for the engagement counters. Their update rule belongs to
// the capsule delivery scheduler, which is outside this app; until that
// exists the dashboard shows these.
const (
	seedStreak = 4
	unlockLead = 48 * time.Hour
)

// App is the per-process coordinator for all Kinsfolk state.
type App struct {
	Config      *config.Config
	DB          *sql.DB
	Credentials *credential.Resolver
	Gateway     gateway.Service
	Engine      *capsule.Engine
	Roster      *family.Roster
	Chat        *chat.Session
	Studio      *studio.Session
}

// New builds a fully wired App on the given database and config.
func New(database *sql.DB, cfg *config.Config) *App {
	resolver := credential.NewResolver(database)
	return NewWithGateway(database, cfg, gateway.NewGemini(resolver, cfg), resolver)
}

// NewWithGateway builds an App around an explicit gateway. Used by tests
// and by anything that needs to intercept backend traffic.
func NewWithGateway(database *sql.DB, cfg *config.Config, gw gateway.Service, resolver *credential.Resolver) *App {
	engine := capsule.NewEngine(seedStreak, time.Now().Add(unlockLead).Unix())

	return &App{
		Config:      cfg,
		DB:          database,
		Credentials: resolver,
		Gateway:     gw,
		Engine:      engine,
		Roster:      family.Load(database),
		Chat:        chat.NewSession(gw),
		Studio:      studio.NewSession(gw, engine),
	}
}
