package trigger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/flowengine/engine/internal/infrastructure/logger"
	"github.com/flowengine/engine/internal/store"
)

// ScheduledFanout fans out `scheduled` trigger_start workflows on their own
// cron cadence: each workflow's trigger config "schedule" string drives its
// own entry in this type's robfig/cron instance. TickScheduler's
// TickInterval plays no part in it. Grounded on the teacher's CronScheduler.
type ScheduledFanout struct {
	Workflows store.WorkflowRepository
	Enroller  *Enroller
	Logger    *logger.Logger

	cron *cron.Cron
	mu   sync.Mutex
}

func (f *ScheduledFanout) log() *logger.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	return logger.Default()
}

// Start evaluates every enabled workflow's `scheduled` trigger_start config
// on its own cron schedule. New workflows are not auto-discovered; call
// Start again after Stop to pick up additions.
func (f *ScheduledFanout) Start(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	workflows, err := f.Workflows.List(ctx)
	if err != nil {
		return fmt.Errorf("scheduled fanout: listing workflows: %w", err)
	}

	f.cron = cron.New(cron.WithSeconds(), cron.WithLocation(time.UTC))
	for _, workflow := range workflows {
		if !workflow.Enabled {
			continue
		}
		trigger := workflow.TriggerNode()
		if trigger == nil {
			continue
		}
		triggerType, _ := trigger.Data["type"].(string)
		if triggerType != "scheduled" {
			continue
		}
		schedule, _ := trigger.Data["schedule"].(string)
		if schedule == "" {
			continue
		}

		workflowID := workflow.ID
		_, err := f.cron.AddFunc(schedule, func() {
			runCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			if _, err := f.Enroller.EnrollContact(runCtx, workflowID, scheduledTriggerSubjectID(trigger.Data), true); err != nil {
				f.log().Warn("scheduled fanout: enroll failed", "workflow_id", workflowID, "error", err.Error())
			}
		})
		if err != nil {
			f.log().Warn("scheduled fanout: invalid cron expression", "workflow_id", workflowID, "schedule", schedule, "error", err.Error())
		}
	}

	f.cron.Start()
	return nil
}

// Stop drains in-flight jobs.
func (f *ScheduledFanout) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cron == nil {
		return
	}
	stopCtx := f.cron.Stop()
	<-stopCtx.Done()
}

// scheduledTriggerSubjectID resolves which contact a scheduled trigger
// enrolls; scheduled triggers are typically configured against a fixed
// "subject_contact_id" (e.g. a recurring internal digest), since a bare
// cron tick carries no contact context of its own.
func scheduledTriggerSubjectID(triggerConfig map[string]any) string {
	id, _ := triggerConfig["subject_contact_id"].(string)
	return id
}
