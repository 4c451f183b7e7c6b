// Package dispatch 将解析后的指令映射为画布执行器调用。
package dispatch

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/voicecanvas/canvas"
	"github.com/BaSui01/voicecanvas/command"
)

// Outcome 分发结果
type Outcome string

const (
	OutcomeApplied     Outcome = "applied"
	OutcomeNoSelection Outcome = "no_selection"
	OutcomeIgnored     Outcome = "ignored"
	OutcomeFailed      Outcome = "failed"
)

// Recorder 记录分发指标
type Recorder interface {
	RecordDispatch(kind, outcome string, duration time.Duration)
}

// Dispatcher 指令分发器。每条指令只执行一次，不重试。
type Dispatcher struct {
	actuator canvas.Actuator
	recorder Recorder
	logger   *zap.Logger
}

// NewDispatcher 创建分发器；recorder 可为 nil。
func NewDispatcher(actuator canvas.Actuator, recorder Recorder, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		actuator: actuator,
		recorder: recorder,
		logger:   logger.With(zap.String("component", "dispatcher")),
	}
}

// Dispatch 执行指令。执行器错误只记录日志，以 OutcomeFailed 返回。
func (d *Dispatcher) Dispatch(ctx context.Context, cmd command.Command) Outcome {
	if cmd == nil {
		cmd = command.NoMatch{}
	}
	start := time.Now()
	outcome, err := d.dispatch(ctx, cmd)
	if err != nil {
		d.logger.Warn("canvas actuator failed",
			zap.String("kind", string(cmd.Kind())),
			zap.Error(err))
		outcome = OutcomeFailed
	} else {
		d.logger.Debug("command dispatched",
			zap.String("kind", string(cmd.Kind())),
			zap.String("outcome", string(outcome)))
	}

	if d.recorder != nil {
		d.recorder.RecordDispatch(string(cmd.Kind()), string(outcome), time.Since(start))
	}
	return outcome
}

func (d *Dispatcher) dispatch(ctx context.Context, cmd command.Command) (Outcome, error) {
	switch c := cmd.(type) {
	case command.AddText:
		return OutcomeApplied, d.actuator.AddText(ctx, c.Content)

	case command.AddShape:
		return OutcomeApplied, d.actuator.AddShape(ctx, c.Shape)

	case command.ChangeColor:
		// 没有选中对象时由执行器自行决定为空操作
		return OutcomeApplied, d.actuator.SetActiveColor(ctx, c.Color)

	case command.DeleteActive:
		if _, ok := d.actuator.ActiveSelection(ctx); !ok {
			return OutcomeNoSelection, nil
		}
		if err := d.actuator.DeleteActiveSelection(ctx); err != nil {
			return OutcomeFailed, err
		}
		return OutcomeApplied, d.actuator.RequestRender(ctx)

	case command.CenterActive:
		sel, ok := d.actuator.ActiveSelection(ctx)
		if !ok {
			return OutcomeNoSelection, nil
		}
		if err := d.actuator.CenterObject(ctx, sel); err != nil {
			return OutcomeFailed, err
		}
		return OutcomeApplied, d.actuator.RequestRender(ctx)

	case command.NoMatch:
		return OutcomeIgnored, nil

	default:
		return OutcomeFailed, fmt.Errorf("unsupported command %T", cmd)
	}
}
