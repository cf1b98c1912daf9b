package main

import (
	"strconv"
	"strings"
	"time"

	"anketa_bot/internal/config"
	"anketa_bot/internal/domain"
	"anketa_bot/internal/model"
	mirror_ps "anketa_bot/internal/repository/postgres"
	user_sq "anketa_bot/internal/repository/sqlite"
	"anketa_bot/internal/service/backup"
	"anketa_bot/internal/service/sheet"
	"anketa_bot/internal/service/syncer"
	"anketa_bot/internal/service/tg"
	pkg_config "anketa_bot/pkg/config"
	pg_orm "anketa_bot/pkg/db/postgres"
	sq_orm "anketa_bot/pkg/db/sqlite"
	"anketa_bot/pkg/masker"
	"anketa_bot/pkg/tgbotapisfm"
	"anketa_bot/pkg/zaplogger"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func main() {
	logger, err := zaplogger.New()
	if err != nil {
		panic(err)
	}

	cfg := config.Config{}
	if err := pkg_config.LoadConfigs(&cfg); err != nil {
		logger.Fatal("error loading configs", zap.Error(err))
	}

	if err := masker.LogConfigs(logger, &cfg); err != nil {
		logger.Fatal("error logging configs", zap.Error(err))
	}

	// Основное хранилище
	sqliteDB, err := sq_orm.NewGormConnection(cfg.SQLiteConfig.Path)
	if err != nil {
		logger.Fatal("error opening sqlite store", zap.Error(err))
	}
	if err := sqliteDB.AutoMigrate(&model.User{}); err != nil {
		logger.Fatal("error migrating sqlite store", zap.Error(err))
	}
	userRepo := user_sq.NewUserRepository(sqliteDB)

	// Зеркальная БД
	pgDB, err := pg_orm.NewGormConnection(cfg.DBConfig)
	if err != nil {
		logger.Fatal("error creating gorm connection", zap.Error(err))
	}
	if err := pgDB.AutoMigrate(&model.MirrorUser{}); err != nil {
		logger.Fatal("error migrating mirror db", zap.Error(err))
	}
	mirrorRepo := mirror_ps.NewMirrorRepository(pgDB)

	// Резервная копия
	var backupStore domain.BackupStore
	switch cfg.BackupConfig.Driver {
	case "sheets":
		backupStore, err = sheet.NewSheetBackup(
			cfg.BackupConfig.CredentialsBase64,
			cfg.BackupConfig.SheetID,
			cfg.BackupConfig.ListID,
			cfg.BackupConfig.PauseMs,
		)
		if err != nil {
			logger.Fatal("error creating sheet backup", zap.Error(err))
		}
	default:
		backupStore = backup.NewExcelBackup(cfg.BackupConfig.FilePath)
	}
	if err := backupStore.EnsureReady(); err != nil {
		logger.Fatal("error preparing backup store", zap.Error(err))
	}

	forceUpdate := make(chan struct{}, 1)
	syncService := syncer.NewSyncer(userRepo, mirrorRepo, backupStore, logger, forceUpdate)

	tgHandler := tg.NewTGHandler(userRepo, mirrorRepo, syncService, parseAdmins(cfg.TelegramConfig.Admins, logger))

	bot, err := tgbotapisfm.NewBot(tgbotapisfm.Config{
		Token:           cfg.TelegramConfig.BotToken,
		Expiration:      24 * time.Hour,
		CleanupInterval: 1 * time.Hour,
		States:          tgHandler.StatesMap(),
		DefaultState:    tg.StateStart,
		OnHandlerError:  tgHandler.AbandonSession(),
	}, []int64{}, logger)
	if err != nil {
		logger.Fatal("error creating bot", zap.Error(err))
	}

	// Запускаем бота в основной горутине
	errChan := bot.Start(30, 0)
	if err := <-errChan; err != nil {
		logger.Fatal("error starting bot", zap.Error(err))
	}
	syncService.Stop()
}

// parseAdmins разбирает список id администраторов через запятую
func parseAdmins(raw string, logger *zap.Logger) []int64 {
	var admins []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			logger.Warn("invalid admin id in config", zap.String("value", part))
			continue
		}
		admins = append(admins, id)
	}
	return admins
}
