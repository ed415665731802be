package config

func GetSQLitePath() string {
	return GetEnvOrDefault("SQLITE_PATH", "./data/qabot.db")
}
