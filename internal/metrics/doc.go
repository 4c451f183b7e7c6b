// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 metrics 提供基于 Prometheus 的指标采集，覆盖 HTTP、语音识别、
指令解析与画布分发四个维度。

# 概述

Collector 统一注册和记录 Prometheus 指标，使用 promauto 自动注册，
所有指标按 namespace 隔离。

# 主要能力

  - HTTP 指标：请求总数与耗时，按 method/path/status 分组，
    状态码归类为 2xx/3xx/4xx/5xx。
  - 识别指标：尝试结束方式计数、状态迁移计数。
  - 解析指标：按指令种类与命中规则计数。
  - 分发指标：按指令种类与结果计数，分发耗时 Histogram。
  - 编辑器指标：当前连接的浏览器编辑器数量 Gauge。
*/
package metrics
