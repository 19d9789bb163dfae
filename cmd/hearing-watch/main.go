// Точка входа hearing-watch — отслеживание слушаний и заседаний комитетов
// Конгресса США.
//
// Режимы (первый аргумент):
//   - update — ingestion: новые записи в хранилище, дайджест в Slack
//   - check-status — предстоящие записи с изменённым статусом
//   - list-upcoming — предстоящие записи текущей недели
//   - list-last-batch — предстоящие записи последней пачки
//   - migrate — применение миграций БД
//   - serve — HTTP-сервер: health, метрики, read-only API
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/bigkaa/hearingwatch/internal/api/handlers"
	"github.com/bigkaa/hearingwatch/internal/config"
	"github.com/bigkaa/hearingwatch/internal/congress"
	"github.com/bigkaa/hearingwatch/internal/database"
	"github.com/bigkaa/hearingwatch/internal/domain/model"
	"github.com/bigkaa/hearingwatch/internal/domain/relevance"
	"github.com/bigkaa/hearingwatch/internal/notify"
	"github.com/bigkaa/hearingwatch/internal/repository"
	"github.com/bigkaa/hearingwatch/internal/server"
	"github.com/bigkaa/hearingwatch/internal/service"
)

// Режимы запуска.
const (
	modeUpdate        = "update"
	modeCheckStatus   = "check-status"
	modeListUpcoming  = "list-upcoming"
	modeListLastBatch = "list-last-batch"
	modeMigrate       = "migrate"
	modeServe         = "serve"
)

// Коды завершения.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

var modes = []string{modeUpdate, modeCheckStatus, modeListUpcoming, modeListLastBatch, modeMigrate, modeServe}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	mode, ok := parseMode(args)
	if !ok {
		printUsage(stderr)
		return exitUsage
	}

	// 1. Конфигурация из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		return exitFailure
	}

	// 2. Логирование
	logger := config.SetupLogger(cfg)
	logger.Info("hearing-watch запускается",
		slog.String("version", config.Version),
		slog.String("mode", mode),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Миграции не требуют пула
	if mode == modeMigrate {
		if err := database.Migrate(cfg, logger); err != nil {
			logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
			return exitFailure
		}
		return exitOK
	}

	// 4. Подключение к PostgreSQL
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		return exitFailure
	}
	defer pool.Close()

	store := repository.NewStore(pool)

	if mode == modeServe {
		return runServe(ctx, cfg, pool, store, logger)
	}

	poster := newPoster(cfg, stdout, logger)
	code := runCLI(ctx, mode, cfg, store, poster, logger)

	// 5. Метрики CLI-запуска в Pushgateway
	if cfg.PushgatewayURL != "" {
		if err := pushMetrics(cfg.PushgatewayURL, mode); err != nil {
			logger.Warn("Ошибка отправки метрик в Pushgateway",
				slog.String("url", cfg.PushgatewayURL),
				slog.String("error", err.Error()),
			)
		}
	}
	return code
}

// runCLI выполняет одноразовый режим и публикует результат.
func runCLI(
	ctx context.Context,
	mode string,
	cfg *config.Config,
	store *repository.Store,
	poster notify.Poster,
	logger *slog.Logger,
) int {
	var (
		sent int
		err  error
	)

	switch mode {
	case modeUpdate:
		if err := cfg.ValidateForIngest(); err != nil {
			logger.Error("Некорректная конфигурация", slog.String("error", err.Error()))
			return exitFailure
		}
		client := congress.New(congress.Config{
			BaseURL:    cfg.CongressAPIURL,
			APIKey:     cfg.CongressAPIKey,
			Congress:   cfg.CongressNumber,
			PageSize:   cfg.FetchPageSize,
			MaxRetries: cfg.HTTPMaxRetries,
			Timeout:    cfg.HTTPTimeout,
		}, logger)
		filter := relevance.New(cfg.Filters.ExcludedCommittees, cfg.Filters.KnownBadIDs)
		ingest := service.NewIngestService(client, store, filter, cfg.RecordKinds, cfg.Location, logger)

		_, digest, runErr := ingest.Run(ctx)
		if runErr != nil {
			logger.Error("Ingestion завершён с ошибкой", slog.String("error", runErr.Error()))
			return exitFailure
		}
		sent, err = notify.PostDaily(ctx, poster, cfg.SlackChannel, digest, notify.TextNoNew)

	default:
		// Режимы чтения работают без кэша
		query := service.NewQueryService(store, cfg.Location, 0, 0, logger)
		sent, err = postListing(ctx, mode, query, poster, cfg.SlackChannel)
	}

	if err != nil {
		logger.Error("Ошибка публикации уведомления",
			slog.String("mode", mode),
			slog.Int("sent", sent),
			slog.String("error", err.Error()),
		)
		return exitFailure
	}

	logger.Info("Режим выполнен",
		slog.String("mode", mode),
		slog.Int("messages", sent),
	)
	return exitOK
}

// postListing выполняет запрос чтения режима и публикует его одним сообщением.
func postListing(ctx context.Context, mode string, query *service.QueryService, poster notify.Poster, channel string) (int, error) {
	var (
		load func(context.Context) ([]*model.Hearing, error)
		text string
	)
	switch mode {
	case modeCheckStatus:
		load, text = query.CheckStatus, notify.TextChanged
	case modeListUpcoming:
		load, text = query.Upcoming, notify.TextUpcoming
	case modeListLastBatch:
		load, text = query.LastBatch, notify.TextLastBatch
	default:
		return 0, fmt.Errorf("неизвестный режим %q", mode)
	}

	hearings, err := load(ctx)
	if err != nil {
		return 0, err
	}
	return notify.PostCombined(ctx, poster, channel, text, notify.Format(notify.EntriesFrom(hearings)))
}

// runServe запускает HTTP-сервер до SIGINT/SIGTERM.
func runServe(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, store *repository.Store, logger *slog.Logger) int {
	query := service.NewQueryService(store, cfg.Location, cfg.QueryCacheSize, cfg.QueryCacheTTL, logger)

	// Адаптер pgxpool → *sql.DB для topologymetrics (connection pool mode)
	pgDB := stdlib.OpenDBFromPool(pool)
	defer pgDB.Close()

	dhCfg := service.DephealthConfig{
		ServiceID:     "hearing-watch",
		Group:         cfg.DephealthGroup,
		PGConnURL:     cfg.DatabaseURL(),
		CheckInterval: cfg.DephealthCheckInterval,
	}
	if cfg.SlackToken != "" {
		dhCfg.SlackAPIURL = cfg.SlackAPIURL
	}

	var slackChecker handlers.ReadinessChecker
	dephealthSvc, err := service.NewDephealthService(dhCfg, pgDB, logger)
	if err != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", err.Error()),
		)
		dephealthSvc = nil
	} else if err := dephealthSvc.Start(ctx); err != nil {
		logger.Warn("Ошибка запуска topologymetrics", slog.String("error", err.Error()))
		dephealthSvc = nil
	} else if dhCfg.SlackAPIURL != "" {
		slackChecker = handlers.NewDependencyChecker(dephealthSvc.Health, "slack-api")
	}

	healthHandler := handlers.NewHealthHandler(database.NewReadinessChecker(pool), slackChecker)
	apiHandler := handlers.NewAPIHandler(healthHandler, handlers.NewHearingsHandler(query, logger))

	srv := server.New(cfg, logger, apiHandler)
	runErr := srv.Run(ctx)

	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}
	if runErr != nil {
		logger.Error("Ошибка сервера", slog.String("error", runErr.Error()))
		return exitFailure
	}
	logger.Info("hearing-watch остановлен")
	return exitOK
}

// newPoster возвращает клиент Slack или печать в stdout без токена.
func newPoster(cfg *config.Config, stdout io.Writer, logger *slog.Logger) notify.Poster {
	if cfg.SlackToken == "" {
		logger.Info("HW_SLACK_TOKEN не задан, уведомления печатаются в stdout")
		return notify.NewStdoutPoster(stdout)
	}
	return notify.NewSlackClient(cfg.SlackAPIURL, cfg.SlackToken, cfg.HTTPMaxRetries, logger)
}

func parseMode(args []string) (string, bool) {
	if len(args) != 1 {
		return "", false
	}
	for _, m := range modes {
		if args[0] == m {
			return m, true
		}
	}
	return "", false
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Использование: hearing-watch <режим>")
	fmt.Fprintln(w, "Режимы:")
	fmt.Fprintln(w, "  update           загрузить новые записи и опубликовать дайджест")
	fmt.Fprintln(w, "  check-status     опубликовать предстоящие записи с изменённым статусом")
	fmt.Fprintln(w, "  list-upcoming    опубликовать предстоящие записи текущей недели")
	fmt.Fprintln(w, "  list-last-batch  опубликовать предстоящие записи последней пачки")
	fmt.Fprintln(w, "  migrate          применить миграции БД")
	fmt.Fprintln(w, "  serve            запустить HTTP-сервер")
}
