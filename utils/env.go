package utils

import "os"

var (
	DATA_DIR = GetEnvOrDefault("DATA_DIR", "./data")

	S3_SYNC_URL   = os.Getenv("S3_SYNC_URL")
	S3_ACCESS_KEY = os.Getenv("S3_ACCESS_KEY")
	S3_SECRET_KEY = os.Getenv("S3_SECRET_KEY")
	S3_REGION     = GetEnvOrDefault("S3_REGION", "us-east-1")

	S3_SYNC_INTERVAL_SEC = GetEnvOrDefaultInt("S3_SYNC_INTERVAL_SEC", 0)
	SHUTDOWN_SLEEP_SEC   = GetEnvOrDefaultInt("SHUTDOWN_SLEEP_SEC", 0)

	HIDE_LOWER_COUNTS = GetEnvOrDefaultInt("HIDE_LOWER_COUNTS", 1)
	QUERY_CONCURRENCY = GetEnvOrDefaultInt("QUERY_CONCURRENCY", 4)
	MAX_PAGE_LIMIT    = GetEnvOrDefaultInt("MAX_PAGE_LIMIT", 100)
)
