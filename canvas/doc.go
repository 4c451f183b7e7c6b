// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 canvas 定义语音解释器与设计画布之间的动作词汇。

# 概述

解释器从不直接操作画布内部结构，而是通过 Actuator 接口调用一组固定
能力：添加文本、添加图形、删除当前选中对象、修改颜色、居中对象与
请求重绘。画布本身（渲染、图元、持久化）属于外部协作者。

# 核心类型

  - ShapeKind：图形种类（circle、rect、triangle）
  - ColorName：封闭颜色集合，保持固定枚举顺序
  - Selection：当前激活对象的不透明句柄
  - Actuator：画布执行器接口

# 实现

  - Board：内存画布，供 REPL 与测试使用
  - remote.Hub：通过 WebSocket 将操作转发给浏览器编辑器
*/
package canvas
