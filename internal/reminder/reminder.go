// Package reminder runs the hourly notification tick: for every user with
// notifications enabled at the current hour, it checks Home stats and
// pings them when a Practice or Review session is available. It never
// mutates WordProgress and never decides eligibility itself.
package reminder

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/wordpool/internal/database"
	"github.com/example/wordpool/internal/session"
)

// Default notification window, overridable by env vars, matching the
// teacher's internal/scheduler convention.
const (
	DefaultNotificationStartHour = 4
	DefaultNotificationEndHour   = 22
)

// Notifier sends a reminder to a user on whatever transport is wired in
// (the Telegram bot, in this repo).
type Notifier interface {
	SendReminder(telegramID int64, stats session.HomeStats) error
}

// Reminder manages the scheduled notification tick.
type Reminder struct {
	scheduler  *gocron.Scheduler
	notifier   Notifier
	assembler  *session.Assembler
	users      *database.UserRepository
}

// New creates a new Reminder.
func New(notifier Notifier, assembler *session.Assembler, users *database.UserRepository) *Reminder {
	return &Reminder{
		scheduler: gocron.NewScheduler(time.UTC),
		notifier:  notifier,
		assembler: assembler,
		users:     users,
	}
}

// Start begins the hourly tick in the background.
func (r *Reminder) Start() {
	r.scheduler.Every(1).Hour().Do(r.tick)
	r.scheduler.StartAsync()
}

// Stop halts the tick.
func (r *Reminder) Stop() {
	r.scheduler.Stop()
}

func (r *Reminder) tick() {
	currentHour := time.Now().UTC().Hour()

	startHour := DefaultNotificationStartHour
	endHour := DefaultNotificationEndHour
	if v := os.Getenv("NOTIFICATION_START_HOUR"); v != "" {
		if h, err := strconv.Atoi(v); err == nil && h >= 0 && h <= 23 {
			startHour = h
		}
	}
	if v := os.Getenv("NOTIFICATION_END_HOUR"); v != "" {
		if h, err := strconv.Atoi(v); err == nil && h >= 0 && h <= 23 {
			endHour = h
		}
	}
	if currentHour < startHour || currentHour > endHour {
		return
	}

	users, err := r.users.GetUsersForNotification(currentHour)
	if err != nil {
		log.Printf("reminder: failed to get users for notification: %v", err)
		return
	}

	now := time.Now().UTC()
	for _, user := range users {
		stats, err := r.assembler.GetHomeStats(user.ID, now)
		if err != nil {
			log.Printf("reminder: failed to get home stats for user %s: %v", user.ID, err)
			continue
		}
		if !stats.CanPractice && !stats.CanReview {
			continue
		}
		if err := r.notifier.SendReminder(user.TelegramID, stats); err != nil {
			log.Printf("reminder: failed to send reminder to user %s: %v", user.ID, err)
		}
	}
}
