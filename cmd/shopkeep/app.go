package main

import (
	"errors"
	"fmt"

	"github.com/hyperengineering/shopkeep/internal/config"
	"github.com/hyperengineering/shopkeep/internal/content"
	"github.com/hyperengineering/shopkeep/internal/events"
	"github.com/hyperengineering/shopkeep/internal/service"
	"github.com/hyperengineering/shopkeep/internal/store"
)

// app holds the collaborators shared by the server and the management commands.
type app struct {
	db        *store.SQLiteStore
	content   content.Store
	publisher events.Publisher
	languages *service.LanguageService
	stores    *service.StoreService
	users     *service.UserService
}

func newApp(cfg *config.Config, opts ...service.StoreServiceOption) (*app, error) {
	db, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	cs, err := content.NewStore(cfg.Content)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init content store: %w", err)
	}

	users, err := service.NewUserService(db, db)
	if err != nil {
		db.Close()
		return nil, err
	}

	publisher := events.NewPublisher(cfg.Events)
	languages := service.NewLanguageService(db, cfg.Languages.Default)
	opts = append([]service.StoreServiceOption{service.WithPublisher(publisher)}, opts...)

	return &app{
		db:        db,
		content:   cs,
		publisher: publisher,
		languages: languages,
		stores:    service.NewStoreService(db, languages, cs, cfg.Content.MaxLogoBytes, opts...),
		users:     users,
	}, nil
}

// Close flushes the event publisher and closes the database.
func (a *app) Close() error {
	return errors.Join(a.publisher.Close(), a.db.Close())
}
