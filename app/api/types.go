package api

import (
	"github.com/wayspot-tools/contribtrack/app/contrib"
	"github.com/wayspot-tools/contribtrack/app/history"
	"github.com/wayspot-tools/contribtrack/app/mailapi"
	"github.com/wayspot-tools/contribtrack/app/notify"
	"github.com/wayspot-tools/contribtrack/app/processor"
	"github.com/wayspot-tools/contribtrack/app/tasks"
)

type Handler struct {
	processor *processor.Processor
	sources   *mailapi.SourceCache
	notifier  *notify.Log
	scheduler tasks.TaskSchedulerInterface
}

// ManagerRequest is the intercepted body of the host app's manager
// call: the full current-status snapshot of the user's contributions.
type ManagerRequest struct {
	Submissions []contrib.Contribution `json:"submissions"`
}

// ActionRequest is an intercepted manual action together with the
// response body the host app returned for it.
type ActionRequest struct {
	Action   history.ManualAction `json:"action"`
	ID       string               `json:"id"`
	Response string               `json:"response"`
}
