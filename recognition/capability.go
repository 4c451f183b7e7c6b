package recognition

import (
	"sync"
	"sync/atomic"
)

// Probe 探测宿主环境是否具备语音识别能力。
type Probe func() bool

type capability struct {
	once      sync.Once
	supported atomic.Bool
}

func (c *capability) detect(probe Probe) bool {
	c.once.Do(func() {
		if probe != nil {
			c.supported.Store(probe())
		}
	})
	return c.supported.Load()
}

var process capability

// DetectSupport 在进程内只执行一次探测，之后的调用直接返回首次结果。
func DetectSupport(probe Probe) bool {
	return process.detect(probe)
}

// Supported 返回进程级能力标记；未探测时为 false。
func Supported() bool {
	return process.supported.Load()
}

// availability 由能自报可用性的后端实现。
type availability interface {
	Available() bool
}

// ProbeFor 基于后端构造探测函数。后端未实现 Available 时视为可用。
func ProbeFor(rec Recognizer) Probe {
	return func() bool {
		if rec == nil {
			return false
		}
		if a, ok := rec.(availability); ok {
			return a.Available()
		}
		return true
	}
}
