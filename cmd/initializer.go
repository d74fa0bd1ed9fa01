package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	firebase "firebase.google.com/go"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
	_ "modernc.org/sqlite"

	"dobroBack/internal/bot"
	"dobroBack/internal/config"
	"dobroBack/internal/handlers"
	"dobroBack/internal/repositories"
	"dobroBack/internal/services"
	"dobroBack/internal/session"
	"dobroBack/internal/ws"
	"dobroBack/utils"
)

type application struct {
	cfg config.Config
	log *logrus.Logger
	db  *sql.DB

	store    services.RequestStore
	sessions session.Registry
	// memSessions is set when sessions live in process and need sweeping.
	memSessions *session.MemoryRegistry
	redis       *redis.Client
	hub         *ws.Hub

	botHandler         *handlers.BotHandler
	helpRequestHandler *handlers.HelpRequestHandler
	fcmHandler         *handlers.FCMHandler
}

// sqlDrivers maps storage drivers to database/sql driver names.
var sqlDrivers = map[string]string{
	repositories.DialectMySQL:    "mysql",
	repositories.DialectPostgres: "pgx",
	repositories.DialectSQLite:   "sqlite",
}

func openDB(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	name, ok := sqlDrivers[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}
	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == repositories.DialectSQLite {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxIdleConns(35)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return db, nil
}

func (app *application) openStore(ctx context.Context) error {
	storage := app.cfg.Storage
	switch {
	case app.cfg.SQL():
		db, err := openDB(ctx, storage.Driver, storage.DSN)
		if err != nil {
			return err
		}
		if err := repositories.CreateSchema(ctx, db, storage.Driver); err != nil {
			db.Close()
			return err
		}
		app.db = db
		app.store = repositories.NewHelpRequestRepository(db, storage.Driver)
	case storage.Driver == "s3":
		client, err := utils.NewS3Client(storage.S3)
		if err != nil {
			return fmt.Errorf("s3 client: %w", err)
		}
		app.store = repositories.NewSnapshotRepository(&repositories.S3Persister{
			Client: client,
			Bucket: storage.S3.Bucket,
			Key:    storage.S3.Key,
		})
	default:
		app.store = repositories.NewSnapshotRepository(&repositories.FilePersister{Path: storage.Path})
	}
	app.log.Infof("storage: %s", storage.Driver)
	return nil
}

func (app *application) openSessions(ctx context.Context) error {
	if app.cfg.Redis.Addr == "" {
		app.memSessions = session.NewMemoryRegistry(app.cfg.Session.TTL)
		app.sessions = app.memSessions
		app.log.Infof("sessions: memory, ttl %s", app.cfg.Session.TTL)
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     app.cfg.Redis.Addr,
		Password: app.cfg.Redis.Password,
		DB:       app.cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return fmt.Errorf("ping redis %s: %w", app.cfg.Redis.Addr, err)
	}
	app.redis = client
	app.sessions = session.NewRedisRegistry(client, app.cfg.Session.TTL)
	app.log.Infof("sessions: redis %s, ttl %s", app.cfg.Redis.Addr, app.cfg.Session.TTL)
	return nil
}

// notifiers returns the channels used to reach request authors. Device tokens
// live in the SQL store; push is sent only when credentials are configured.
func (app *application) notifiers(ctx context.Context, texts *bot.Texts) (services.MultiNotifier, error) {
	out := services.MultiNotifier{app.hub}
	if app.db == nil {
		return out, nil
	}

	tokens := repositories.NewFCMTokenRepository(app.db, app.cfg.Storage.Driver)
	app.fcmHandler = handlers.NewFCMHandler(tokens)
	if app.cfg.Firebase.CredentialsFile == "" {
		return out, nil
	}
	fb, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(app.cfg.Firebase.CredentialsFile))
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}
	client, err := fb.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase messaging: %w", err)
	}
	out = append(out, services.NewFCMNotifier(client, tokens, texts.T("NoticeTitle", nil), app.log.WithField("component", "fcm")))
	app.log.Infof("notifications: websocket, fcm")
	return out, nil
}

func initializeApp(ctx context.Context, cfg config.Config, logger *logrus.Logger) (*application, error) {
	app := &application{cfg: cfg, log: logger}

	if err := app.openStore(ctx); err != nil {
		return nil, err
	}
	if err := app.openSessions(ctx); err != nil {
		return nil, err
	}

	texts, err := bot.LoadTexts("ru")
	if err != nil {
		return nil, err
	}

	app.hub = ws.NewHub(logger.WithField("component", "ws"))
	notifier, err := app.notifiers(ctx, texts)
	if err != nil {
		return nil, err
	}

	matching := services.NewMatchingService(app.store, notifier, logger.WithField("component", "matching"))
	matching.Notice = texts.AuthorNotice
	conversation := services.NewConversationService(app.store, app.sessions, logger.WithField("component", "conversation"))

	app.botHandler = &handlers.BotHandler{
		Bot: bot.New(matching, conversation, app.sessions, texts, logger.WithField("component", "bot")),
	}
	app.helpRequestHandler = &handlers.HelpRequestHandler{Service: matching}
	return app, nil
}

func (app *application) close() {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.log.Errorf("close redis: %v", err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.log.Errorf("close db: %v", err)
		}
	}
}
