package control

import (
	"github.com/scribblerbot/scribbler/internal/api"
	"github.com/scribblerbot/scribbler/internal/parser"
)

// Send transmits a command. The reply goes to the console and triggers a
// sync; failures are reported as "<message> failed (<code>)" or
// "<message> timed out".
func (c *Controller) Send(message string) {
	ctx := c.ctx
	c.sched.Go("send", func() func() {
		text, err := c.channel.Send(ctx, message)
		return func() {
			if err != nil {
				c.console(api.Describe(message, err))
				return
			}
			c.console(text)
			c.Synchronize()
		}
	})
}

// Synchronize fetches the agent status and applies it. Tracing ends when the
// agent is no longer running, and a pending one-shot action runs.
func (c *Controller) Synchronize() {
	ctx := c.ctx
	c.sched.Go("sync", func() func() {
		text, err := c.channel.Send(ctx, api.Short(api.SyncQuery))
		return func() { c.applySync(text, err) }
	})
}

func (c *Controller) applySync(text string, err error) {
	if err != nil {
		c.console(api.Describe("sync", err))
		return
	}
	status, err := parser.ParseSync(text)
	if err != nil {
		c.console("sync returned malformed data", "response", text, "error", err)
		return
	}

	c.status = status
	if c.recorder != nil {
		c.recorder.RecordStatus(status)
	}
	if c.tracing && !status.Running {
		c.flipTrace()
	}
	if fn := c.nextSync; fn != nil {
		c.nextSync = nil
		fn()
	}
}

// FetchParamHelp loads the parameter descriptions of the current program.
func (c *Controller) FetchParamHelp() {
	ctx := c.ctx
	c.sched.Go("param-help", func() func() {
		text, err := c.channel.Send(ctx, api.Short(api.ParamHelpQuery))
		return func() {
			if err != nil {
				c.console(api.Describe("help fetch", err))
				return
			}
			help, err := parser.ParseParamHelp(text)
			if err != nil {
				c.console("help fetch returned malformed data", "error", err)
				return
			}
			c.paramHelp = help
		}
	})
}

// pollStatus keeps one long:status request open at all times. Each reply is
// written to the console and the request is issued again straight away. A
// failed poll is re-issued after the configured retry delay, immediately by
// default.
func (c *Controller) pollStatus() {
	ctx := c.ctx
	if ctx.Err() != nil {
		return
	}
	c.sched.Go("status.poll", func() func() {
		text, err := c.channel.Send(ctx, api.Long(api.StatusPoll))
		return func() {
			if ctx.Err() != nil {
				return
			}
			if err == nil {
				c.console(text)
				c.pollStatus()
				return
			}
			c.logger.Debug("status poll ended", "error", err)
			if c.cfg.StatusRetryDelay > 0 {
				c.sched.After("status.retry", c.cfg.StatusRetryDelay, c.pollStatus)
				return
			}
			c.pollStatus()
		}
	})
}
