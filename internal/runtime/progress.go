package runtime

import (
	"log/slog"

	"github.com/robfig/cron/v3"
)

// ProgressReporter periodically logs this process's mesh connectivity
// and probe frontier, for operators watching a cluster run come up.
// Cluster mode only; gated by Configuration.ReportConnectionProgress.
type ProgressReporter struct {
	cron *cron.Cron
}

// StartProgressReporter schedules a logging tick every five seconds and
// returns a handle whose Stop tears it down. Safe to call with rt.mesh
// nil; the reported state just shows no mesh attached.
func StartProgressReporter(rt *Runtime, log *slog.Logger) (*ProgressReporter, error) {
	c := cron.New(cron.WithSeconds())
	_, err := c.AddFunc("*/5 * * * * *", func() {
		connected := rt.mesh != nil
		log.Info("cluster connection progress",
			"process_id", progressProcessID(rt),
			"local_workers", rt.numWorkers,
			"global_workers", rt.globalWorkers,
			"mesh_connected", connected,
			"probe_frontier", rt.probe.Frontier(),
		)
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return &ProgressReporter{cron: c}, nil
}

func progressProcessID(rt *Runtime) int {
	if rt.numWorkers == 0 {
		return 0
	}
	return rt.base / rt.numWorkers
}

// Stop ends the reporting schedule and waits for the last running tick
// to finish.
func (p *ProgressReporter) Stop() {
	ctx := p.cron.Stop()
	<-ctx.Done()
}
