// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
Package voice 编排一次语音指令事务：识别、解析、分发。

Controller 组合 recognition.Session、command.Parser 与
dispatch.Dispatcher，对外只暴露 StartListening、Status 与
Subscribe。每个成功识别的 Utterance 在同一个 goroutine 上依次
完成解析与分发，并包裹在名为 voice.transaction 的追踪 span 中。

状态推送通过 Subscribe 注册的回调同步进行，回调可能在会话锁内
被调用，因此不得在回调中再次调用 StartListening。
*/
package voice
