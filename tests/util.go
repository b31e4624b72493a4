// Package tests provides shared helpers for package tests.
package tests

import (
	"net/mail"
	"time"

	"github.com/classcheck/classcheck/core"
)

// InitConf installs a deterministic test configuration.
func InitConf() *core.Config {
	core.Conf = &core.Config{
		Debug:            true,
		TestMode:         true,
		Env:              "TEST",
		AppName:          "ClassCheck",
		SecretKey:        []byte("test-secret-key"),
		WorkDir:          core.Getwd(),
		FrontendBaseURL:  "http://localhost:3000",
		DefaultFromEmail: mail.Address{Name: "ClassCheck", Address: "no-reply@localhost"},

		InvitationValidityDelta: 72 * time.Hour,
		InvitationPurgeDelta:    30 * 24 * time.Hour,
		InvitationPurgeCronSpec: "0 3 * * *",

		AttendanceMarkWindow:       15 * time.Minute,
		AttendanceScheduleFallback: false,

		Server: core.ServerConfig{
			Host:                      "localhost",
			Port:                      "8000",
			JWTExpirationDelta:        7 * 24 * time.Hour,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
	}
	return core.Conf
}
