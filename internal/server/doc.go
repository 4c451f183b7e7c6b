// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 server 管理 voicecanvas HTTP 服务的生命周期。

Manager 封装 net/http.Server：Start 非阻塞监听，Wait 阻塞到
上下文结束或服务异常，随后在 ShutdownTimeout 内优雅关闭。

WebSocket 连接被劫持后不受 http.Server.Shutdown 管理，
调用方通过 OnShutdown 注册关闭钩子（例如断开编辑器桥接）。
*/
package server
