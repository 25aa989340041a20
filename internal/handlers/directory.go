package handlers

import (
	"context"
	"log/slog"

	"github.com/jjudge-oj/userdir/internal/cache"
	"github.com/jjudge-oj/userdir/internal/mq"
	"github.com/jjudge-oj/userdir/internal/services"
	"github.com/jjudge-oj/userdir/types"
)

// UserService is the set of user operations the handlers call.
type UserService interface {
	Create(ctx context.Context, input services.CreateUserInput) (types.User, error)
	GetUser(ctx context.Context, id int) (types.User, error)
	GetUsers(ctx context.Context, params services.ListParams) (services.UserPage, error)
	DeleteUser(ctx context.Context, id int) (int64, error)
	Seed(ctx context.Context, count int) (int, error)
}

// EventPublisher announces directory changes to other replicas.
type EventPublisher interface {
	PublishUserEvent(ctx context.Context, event mq.UserEvent) error
}

// Directory is shared by the HTML and JSON handlers. Listings go through the
// page cache; every mutation invalidates it and publishes a change event.
type Directory struct {
	users  UserService
	pages  *cache.PageCache
	events EventPublisher
	logger *slog.Logger
}

// NewDirectory constructs a Directory. pages and events may be nil.
func NewDirectory(users UserService, pages *cache.PageCache, events EventPublisher, logger *slog.Logger) *Directory {
	if pages == nil {
		pages = cache.NewPageCache()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Directory{
		users:  users,
		pages:  pages,
		events: events,
		logger: logger,
	}
}

func (d *Directory) listUsers(ctx context.Context, params services.ListParams) (services.UserPage, error) {
	limit, offset := services.NormalizeListParams(params)
	key := cache.Key{Limit: limit, Offset: offset}
	if page, ok := d.pages.Get(key); ok {
		return page, nil
	}

	gen := d.pages.Begin()
	page, err := d.users.GetUsers(ctx, services.ListParams{Limit: limit, Offset: offset})
	if err != nil {
		return services.UserPage{}, err
	}
	d.pages.Put(gen, key, page)
	return page, nil
}

func (d *Directory) changed(ctx context.Context, event mq.UserEvent) {
	d.pages.Invalidate()
	if d.events == nil {
		return
	}
	if err := d.events.PublishUserEvent(ctx, event); err != nil {
		d.logger.Warn("publish user event", "kind", event.Kind, "error", err)
	}
}
