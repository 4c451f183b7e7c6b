// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 recognition 管理单次语音识别尝试的生命周期。

# 概述

Session 包装一次识别尝试：Idle -> Listening -> Completed|Failed -> Idle。
识别配置固定为单次（非连续）、单一语言（en-US）、不输出中间结果，
因此每次成功的尝试最多产生一条 Utterance。正在监听时再次 Start 会被
忽略，既不排队也不报错。

# 核心接口

  - Recognizer：平台识别能力的抽象，Start 之后通过 Handler 回调
    OnStart / OnResult / OnError / OnEnd
  - Handler：与单次尝试绑定，过期尝试的回调会被丢弃
  - Transcriber / AudioSource：录音 + 云端转写组合而成的识别后端

# 能力探测

DetectSupport 在进程启动时执行一次探测，结果此后只读；Supported 读取
该结果。Session 创建时默认采用进程级结果。

# 后端

  - LineRecognizer：逐行读取文本作为识别结果（REPL、测试）
  - TranscribingRecognizer + DeepgramTranscriber：录音后调用 Deepgram
  - remote.Hub：浏览器编辑器自身的识别引擎
*/
package recognition
