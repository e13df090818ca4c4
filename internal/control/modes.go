package control

import (
	"errors"

	"github.com/scribblerbot/scribbler/internal/api"
	"github.com/scribblerbot/scribbler/internal/geo"
	"github.com/scribblerbot/scribbler/pkg/core"
)

// SwitchView shows v. Leaving the drawing while the agent is idle and not
// being traced establishes the drawn path on the agent, once per transition.
func (c *Controller) SwitchView(v View) {
	if c.view == ViewDrawing && v != ViewDrawing && !c.status.Running && !c.tracing {
		if c.editor.EnoughPoints() {
			c.SubmitPoints()
		} else {
			c.console(msgNotEnoughPoints)
		}
	}
	if v == ViewParamHelp {
		c.FetchParamHelp()
	}
	c.setView(v)
}

// SubmitPoints snapshots the path for the trace and sends it to the agent.
func (c *Controller) SubmitPoints() {
	points := c.editor.Points()
	payload, err := geo.EncodeWaypoints(points, c.cfg.CanvasHeight)
	if err != nil {
		c.logger.Error("Failed to encode waypoints", "error", err)
		return
	}
	c.engine.SetWaypoints(points)
	if c.recorder != nil {
		c.recorder.RecordPath(points)
	}
	c.Send(api.Points(payload))
}

// ToggleTrace enters or leaves trace mode. Entering while the agent is idle
// needs at least two points: the path is submitted, and after the settle
// delay the agent is started and tracing begins.
func (c *Controller) ToggleTrace() {
	if c.cancelSettle != nil {
		return
	}
	if !c.tracing && !c.status.Running {
		if !c.editor.EnoughPoints() {
			c.notice(NoticeNotEnough)
			return
		}
		c.SubmitPoints()
		c.cancelSettle = c.sched.After("trace.settle", c.cfg.SettleDelay, func() {
			c.cancelSettle = nil
			c.toggleStartStop()
			c.flipTrace()
		})
		return
	}
	c.flipTrace()
}

func (c *Controller) flipTrace() {
	c.setTracing(!c.tracing)
	if c.tracing {
		c.engine.Start(c.ctx, nil)
	} else {
		c.engine.Stop()
	}
}

// StartStop starts or stops the program. A trace in progress is restarted
// when the program starts so it does not keep a time base from before.
func (c *Controller) StartStop() {
	c.toggleStartStop()
	if c.tracing && c.status.Running {
		c.engine.Stop()
		c.engine.Start(c.ctx, nil)
	}
}

func (c *Controller) toggleStartStop() {
	if c.status.Running {
		c.status.Running = false
		c.Send(api.Control(api.ControlStop))
		return
	}
	c.status.Running = true
	c.status.CanReset = true
	c.Send(api.Control(api.ControlStart))
}

// Reset stops and resets the program. It does nothing unless the agent
// reported that it can reset.
func (c *Controller) Reset() {
	if !c.status.CanReset {
		return
	}
	c.status.Running = false
	c.status.CanReset = false
	c.Send(api.Control(api.ControlReset))
}

// SwitchProgram asks the agent to run another program. Switching to tracie
// with a drawn path re-sends the path after the next successful sync.
func (c *Controller) SwitchProgram(name string) {
	if name == c.status.Program {
		return
	}
	c.status.Running = false
	c.status.CanReset = false
	if name == ProgramTracie && c.editor.EnoughPoints() {
		c.nextSync = c.SubmitPoints
	}
	c.Send(api.Program(name))
	c.status.Program = name
}

// Calibrate switches to the calibration program, or, when it already runs,
// asks for the current attitude reading.
func (c *Controller) Calibrate() {
	if c.status.Program != ProgramCalib {
		c.SwitchProgram(ProgramCalib)
		return
	}
	c.Send(api.Short(api.AttQuery))
}

// SetParameter changes a program parameter.
func (c *Controller) SetParameter(code, value string) {
	c.Send(api.Set(code, value))
}

// Load replaces the drawn path with saved data. Invalid data raises a
// notification and leaves the path untouched.
func (c *Controller) Load(text string) error {
	err := c.editor.Load(text)
	if errors.Is(err, core.ErrMalformedResponse) {
		c.notice(NoticeInvalidSave)
	}
	return err
}
