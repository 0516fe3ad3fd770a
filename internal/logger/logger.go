package logger

import (
	"go.uber.org/zap"
)

// Log is a no-op logger until InitLogger runs, so packages can log from tests.
var Log = zap.NewNop()

func InitLogger(env string) {
	var err error
	if env == "production" {
		Log, err = zap.NewProduction()
	} else {
		Log, err = zap.NewDevelopment()
	}
	if err != nil {
		panic("Failed to init logger: " + err.Error())
	}
}

func SyncLogger() {
	_ = Log.Sync()
}
