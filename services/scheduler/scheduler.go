package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"

	"github.com/classcheck/classcheck/core"
	"github.com/classcheck/classcheck/core/user"
)

// Scheduler runs the periodic maintenance jobs. Currently a single job:
// purging invitations past the retention delta.
type Scheduler struct {
	cron    *cron.Cron
	userSvc *user.Service
	logger  core.Logger
}

func New(userSvc *user.Service, logger core.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		userSvc: userSvc,
		logger:  logger,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(core.Conf.InvitationPurgeCronSpec, s.purgeInvitations); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) purgeInvitations() {
	n, err := s.userSvc.PurgeStaleInvitations(context.Background())
	if err != nil {
		s.logger.Error("purging stale invitations", err)
		return
	}
	if n > 0 {
		s.logger.Info("purged stale invitations", n)
	}
}
