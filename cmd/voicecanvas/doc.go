// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
Package main 提供 voicecanvas 程序入口。

# 概述

cmd/voicecanvas 把语音指令解释器包装为可执行程序：serve 启动
HTTP 服务并通过 WebSocket 接入浏览器编辑器；repl 把键入的每一行
当作识别结果作用于内存画布；listen 录制一段音频交给 Deepgram
转写并执行一次指令。

# 核心类型

  - Server:     组装 Controller、编辑器 Hub、指标与 HTTP 路由
  - Middleware: HTTP 中间件函数签名 func(http.Handler) http.Handler

# 主要能力

  - 子命令：serve、repl、listen、health、version
  - 中间件链：Recovery、RequestID、OTelTracing、RequestLogger、
    Metrics、CORS、RateLimiter（基于 IP）、APIKeyAuth、JWTAuth
  - 构建注入：Version、BuildTime、GitCommit 通过 ldflags 设置
*/
package main
