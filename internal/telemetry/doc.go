// Package telemetry 封装 OpenTelemetry 追踪与指标的初始化逻辑。
// 语音事务（识别结果 -> 解析 -> 分发）以 span 形式上报，事务计数与
// 耗时经 OTLP 指标导出；禁用时使用 noop 实现，不连接任何外部服务。
package telemetry
