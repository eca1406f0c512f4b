package tray

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/niftylettuce/frappe/notify"
	"github.com/niftylettuce/frappe/utils"
)

const (
	UpdateRepo     = "niftylettuce/frappe"
	UpdateInterval = 4 * time.Hour
)

// Update describes a newer release.
type Update struct {
	Version string
	URL     string
}

// UpdateChecker polls the latest GitHub release and reports newer versions.
type UpdateChecker struct {
	Current  string
	Repo     string
	Interval time.Duration
	Clock    clockwork.Clock
	Notifier notify.Notifier
	Fetch    func(repo string) (*utils.GitHubRelease, error)

	// OnUpdate is called once per newer release found
	OnUpdate func(Update)

	mu          sync.Mutex
	reportedErr bool
	announced   string
}

// NewUpdateChecker creates a checker for the running version.
func NewUpdateChecker(current string, notifier notify.Notifier, onUpdate func(Update)) *UpdateChecker {
	return &UpdateChecker{
		Current:  current,
		Repo:     UpdateRepo,
		Interval: UpdateInterval,
		Clock:    clockwork.NewRealClock(),
		Notifier: notifier,
		Fetch:    utils.GetLatestRelease,
		OnUpdate: onUpdate,
	}
}

// Enabled reports whether the running version takes part in update checks.
// Development builds never do.
func (u *UpdateChecker) Enabled() bool {
	return u.Current != "" && u.Current != "dev"
}

// Run checks immediately and then every Interval until ctx is done.
func (u *UpdateChecker) Run(ctx context.Context) {
	if !u.Enabled() {
		utils.Verbose("Update checks disabled for version %q", u.Current)
		return
	}

	ticker := u.Clock.NewTicker(u.Interval)
	defer ticker.Stop()

	u.Check()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			u.Check()
		}
	}
}

// Check queries the latest release once. The first failure is reported as a
// notice, later ones are only logged.
func (u *UpdateChecker) Check() {
	release, err := u.Fetch(u.Repo)
	if err != nil {
		utils.Verbose("Update check failed: %v", err)

		u.mu.Lock()
		first := !u.reportedErr
		u.reportedErr = true
		u.mu.Unlock()

		if first && u.Notifier != nil {
			u.Notifier.Notify(notify.Notice{
				Title:   "Update Error",
				Message: "There was an error checking for updates",
				Detail:  err.Error(),
			})
		}
		return
	}

	latest := strings.TrimPrefix(release.TagName, "v")
	if !utils.IsNewerVersion(u.Current, latest) {
		utils.Verbose("Already up to date (%s, latest %s)", u.Current, latest)
		return
	}

	u.mu.Lock()
	if u.announced == latest {
		u.mu.Unlock()
		return
	}
	u.announced = latest
	u.mu.Unlock()

	utils.Info("Update available: %s", latest)
	if u.OnUpdate != nil {
		u.OnUpdate(Update{Version: latest, URL: release.HTMLURL})
	}
}
