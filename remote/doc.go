// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
Package remote 通过 WebSocket 把浏览器编辑器接入语音指令管线。

Hub 同时扮演两个角色：

  - recognition.Recognizer：识别由浏览器自带的语音引擎完成，
    Hub 下发 recognition.start，编辑器回传 recognition.event。
  - canvas.Actuator：画布操作以 canvas.op 消息转发给编辑器，
    当前选中对象由编辑器通过 selection 消息上报。

同一时刻只接入一个编辑器，新连接会替换旧连接。未接入编辑器时
画布操作与识别启动均返回 ErrNoEditor。消息均为 JSON 文本帧。
*/
package remote
