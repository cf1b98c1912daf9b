package config

type Config struct {
	TelegramConfig
	SQLiteConfig
	DBConfig
	BackupConfig
}

type TelegramConfig struct {
	BotToken string `envconfig:"BOT_TOKEN" required:"true" masked:"true"`
	Admins   string `envconfig:"ADMINS" required:"false" masked:"true"`
}

// Основное хранилище
type SQLiteConfig struct {
	Path string `envconfig:"SQLITE_PATH" default:"database.db"`
}

// Зеркальная БД
type DBConfig struct {
	User   string `envconfig:"DBUSER" required:"true" masked:"true"`
	Pass   string `envconfig:"DBPASS" required:"true" masked:"true"`
	Host   string `envconfig:"DBHOST" required:"true" masked:"true"`
	DBName string `envconfig:"DBNAME" required:"true" masked:"true"`

	Port    string `envconfig:"DBPORT" required:"true" masked:"true"`
	SSLMode string `envconfig:"DBSSLMODE" required:"true" masked:"true"`
}

// Резервная копия: xlsx-файл или Google-таблица
type BackupConfig struct {
	Driver string `envconfig:"BACKUP_DRIVER" default:"excel"`

	// driver=excel
	FilePath string `envconfig:"BACKUP_FILE" default:"backup.xlsx"`

	// driver=sheets
	SheetID           string `envconfig:"SHEET_ID" required:"false" masked:"true"`
	ListID            string `envconfig:"LIST_ID" required:"false" masked:"true"`
	CredentialsBase64 string `envconfig:"CREDENTIALS_BASE64" required:"false" masked:"true"`
	PauseMs           int    `envconfig:"SHEET_PAUSE_MS" required:"false"`
}
