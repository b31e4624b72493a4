package main

import (
	stdlog "log"
	"os"
	"os/signal"
	"syscall"

	"github.com/classcheck/classcheck/api/echo"
	"github.com/classcheck/classcheck/core"
	"github.com/classcheck/classcheck/core/attendance"
	"github.com/classcheck/classcheck/core/school"
	"github.com/classcheck/classcheck/core/user"
	"github.com/classcheck/classcheck/services/email"
	"github.com/classcheck/classcheck/services/logger"
	"github.com/classcheck/classcheck/services/scheduler"
	"github.com/classcheck/classcheck/storage/database"
	"github.com/classcheck/classcheck/storage/database/sqlxrepo"
)

func main() {
	conf := core.InitConf()
	std := stdlog.New(os.Stdout, conf.AppName+" ", stdlog.LstdFlags|stdlog.Lshortfile)

	var lg core.Logger
	if conf.Debug || conf.RollbarToken == "" {
		lg = core.NewStdLogger(std)
	} else {
		lg = logger.NewRollbarLogger(std)
	}
	lg.Enable(!conf.Debug)

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = email.NewConsoleService()
	} else {
		mailSvc = email.NewSendgridService()
	}

	db, err := database.Open()
	if err != nil {
		lg.Fatal("opening database", err)
	}
	defer db.Close()

	userRepo := sqlxrepo.NewUserRepository(db)
	schoolRepo := sqlxrepo.NewSchoolRepository(db)
	attendanceRepo := sqlxrepo.NewAttendanceRepository(db)

	schoolSvc := school.NewService(schoolRepo, lg)
	userSvc := user.NewService(userRepo, schoolRepo, mailSvc, lg)
	attendanceSvc := attendance.NewService(attendanceRepo, schoolRepo, userRepo, lg)

	jobs := scheduler.New(userSvc, lg)
	if err := jobs.Start(); err != nil {
		lg.Fatal("starting scheduler", err)
	}
	defer jobs.Stop()

	server := echoapi.NewServer(echoapi.Options{
		Address:       conf.Server.Address(),
		UserSvc:       userSvc,
		SchoolSvc:     schoolSvc,
		AttendanceSvc: attendanceSvc,
		Logger:        lg,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		lg.Fatal("server error", err)
	case sig := <-sigCh:
		lg.Info("shutting down", sig.String())
		if err := server.Stop(); err != nil {
			lg.Error("stopping server", err)
		}
	}
}
